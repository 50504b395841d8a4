package browse

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// FolderCount is the number of files stored in one DateFolder.
type FolderCount struct {
	Category  string `db:"category"`
	Year      int    `db:"year"`
	Month     int    `db:"month"`
	Day       int    `db:"day"`
	FileCount int64  `db:"file_count"`
}

// Structure maps category name to year to zero-padded month to the
// zero-padded days that hold files.
type Structure map[string]map[string]map[string][]string

type TreeMonth struct {
	Month string   `json:"month"`
	Days  []string `json:"days"`
}

type TreeYear struct {
	Year   string      `json:"year"`
	Months []TreeMonth `json:"months"`
}

type TreeCategory struct {
	Category string     `json:"category"`
	Years    []TreeYear `json:"years"`
}

// BuildStructure keeps only the DateFolders that hold at least one file, so
// every day, month and year in the result has a file below it. Each of
// categories appears even without files, as an empty node.
func BuildStructure(categories []string, counts []FolderCount) Structure {
	structure := Structure{}
	for _, name := range categories {
		structure[name] = map[string]map[string][]string{}
	}
	for _, c := range counts {
		if c.FileCount <= 0 {
			continue
		}
		years, ok := structure[c.Category]
		if !ok {
			years = map[string]map[string][]string{}
			structure[c.Category] = years
		}
		year := strconv.Itoa(c.Year)
		months, ok := years[year]
		if !ok {
			months = map[string][]string{}
			years[year] = months
		}
		month := pad(c.Month)
		months[month] = appendUnique(months[month], pad(c.Day))
	}

	for _, years := range structure {
		for _, months := range years {
			for m := range months {
				sort.Strings(months[m])
			}
		}
	}
	return structure
}

// Tree is the ordered form of the structure: categories by name, years
// newest first, months and days ascending.
func (s Structure) Tree() []TreeCategory {
	tree := make([]TreeCategory, 0, len(s))
	for _, name := range sortedKeys(s) {
		years := s[name]
		yearKeys := make([]string, 0, len(years))
		for y := range years {
			yearKeys = append(yearKeys, y)
		}
		sort.Slice(yearKeys, func(i, j int) bool {
			a, _ := strconv.Atoi(yearKeys[i])
			b, _ := strconv.Atoi(yearKeys[j])
			return a > b
		})

		cat := TreeCategory{Category: name, Years: make([]TreeYear, 0, len(yearKeys))}
		for _, y := range yearKeys {
			months := years[y]
			ty := TreeYear{Year: y, Months: make([]TreeMonth, 0, len(months))}
			for _, m := range sortedKeys(months) {
				ty.Months = append(ty.Months, TreeMonth{Month: m, Days: months[m]})
			}
			cat.Years = append(cat.Years, ty)
		}
		tree = append(tree, cat)
	}
	return tree
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func appendUnique(days []string, day string) []string {
	for _, d := range days {
		if d == day {
			return days
		}
	}
	return append(days, day)
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Totals aggregates the files a viewer can see.
type Totals struct {
	TotalFiles    int64 `db:"total_files"`
	StorageUsed   int64 `db:"storage_used"`
	CategoryCount int64 `db:"category_count"`
}

type CategoryStat struct {
	Name       string `db:"name" json:"name"`
	Department string `db:"department" json:"department"`
	FileCount  int64  `db:"file_count" json:"file_count"`
}

type RecentUpload struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Category         string    `db:"category"`
	Size             int64     `db:"size"`
	UploaderName     string    `db:"uploader_name"`
	UploaderUsername string    `db:"uploader_username"`
	UploadedAt       time.Time `db:"uploaded_at"`
}

func (r RecentUpload) UploadedBy() string {
	if r.UploaderName != "" {
		return r.UploaderName
	}
	return r.UploaderUsername
}
