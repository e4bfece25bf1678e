package booking

import (
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// dateLayout is the wire format for clinic-local calendar dates.
const dateLayout = "2006-01-02"

// DateOnly truncates t to its calendar day, keeping the location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether a and b fall on the same calendar day.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ParseDate parses a clinic-local calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders a date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseMinute parses a clock time like "09:30" into minutes from midnight.
// The whole string must be a 24-hour HH:MM time; trailing text is rejected.
func ParseMinute(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinute renders minutes from midnight as "HH:MM".
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// CombineDateMinute builds the point in time at minute on date, in the
// date's location.
func CombineDateMinute(date time.Time, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minute, 0, 0, date.Location())
}

// intervalsOverlap is the half-open [start, start+duration) overlap test
// used for every double-booking check.
func intervalsOverlap(aStart, aDuration, bStart, bDuration int) bool {
	return aStart < bStart+bDuration && bStart < aStart+aDuration
}

func validMinute(minute int) bool {
	return minute >= 0 && minute < minutesPerDay
}
