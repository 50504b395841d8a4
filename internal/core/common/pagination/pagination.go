package pagination

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const DefaultPage = 1

type Params struct {
	Page    int
	PerPage int
}

// Meta is the pagination block returned with every listing.
type Meta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// ParsePage turns a raw query value into a requested page; anything that is
// not a positive integer means the first page. A positive integer too large
// for an int is still a page past the end, so Clamp moves it to the last one.
func ParsePage(raw string) int {
	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-") {
		return math.MaxInt
	}
	if err != nil || n < 1 {
		return DefaultPage
	}
	return n
}

// TotalPages is never below one, so an empty result is "page 1 of 1".
func TotalPages(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(perPage)))
}

// Clamp resolves the requested page against the total and returns the
// effective params together with the response meta.
func Clamp(requested int, perPage int, total int64) (Params, Meta) {
	if perPage < 1 {
		perPage = 1
	}
	pages := TotalPages(total, perPage)

	page := requested
	if page < 1 {
		page = DefaultPage
	}
	if page > pages {
		page = pages
	}

	return Params{Page: page, PerPage: perPage}, Meta{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		TotalPages:  pages,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}

func (p Params) Limit() int  { return p.PerPage }
func (p Params) Offset() int { return (p.Page - 1) * p.PerPage }
