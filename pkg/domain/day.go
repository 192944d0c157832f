package domain

import (
	"fmt"
	"time"

	dErrors "scangate/pkg/domain-errors"
)

// Day is a calendar date in the institution's time zone. Attendance records
// are keyed on (student, Day), so the type deliberately has no clock
// component: two timestamps on the same local date collapse to one Day.
type Day struct {
	Year       int
	Month      time.Month
	DayOfMonth int
}

// DayOf truncates a timestamp to its calendar date in the timestamp's
// location. Callers must pass a timestamp already shifted to institution
// local time.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, DayOfMonth: d}
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, dErrors.New(dErrors.CodeInvalidInput, "date must be YYYY-MM-DD")
	}
	return DayOf(t), nil
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.DayOfMonth)
}

func (d Day) IsZero() bool {
	return d == Day{}
}

// Time returns midnight of the day in the given location. Stores use this to
// persist the date column.
func (d Day) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.DayOfMonth, 0, 0, 0, 0, loc)
}
