package folder

import (
	"fmt"
	"time"

	"github.com/frahmantamala/medical-filemanager/internal"
)

const (
	MinYear = 1
	MaxYear = 9999
)

// DaysIn returns the number of days of month in year, leap years included.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateDate checks a calendar date without normalising it, so 2025-02-29
// is rejected instead of rolling over to March.
func ValidateDate(year, month, day int) error {
	if year < MinYear || year > MaxYear || month < 1 || month > 12 || day < 1 || day > DaysIn(year, month) {
		return internal.NewValidationFieldError("date",
			fmt.Sprintf("Invalid date: %04d-%02d-%02d", year, month, day),
			internal.ErrCodeInvalidDate)
	}
	return nil
}

// DateFolder is a day node together with the chain it hangs from.
type DateFolder struct {
	ID            int64     `json:"id"`
	MonthFolderID int64     `json:"month_folder_id"`
	CategoryID    int64     `json:"category_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	Day           int       `json:"day"`
	FullDate      time.Time `json:"full_date"`
}

func (d *DateFolder) Date() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// Result counts the rows a provisioning run created, per level.
type Result struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

func (r Result) Add(other Result) Result {
	return Result{
		Years:  r.Years + other.Years,
		Months: r.Months + other.Months,
		Days:   r.Days + other.Days,
	}
}

func (r Result) Total() int {
	return r.Years + r.Months + r.Days
}
