// Package calendar provides wall-clock day arithmetic for streak tracking.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateFormat is the canonical calendar date layout (YYYY-MM-DD).
	DateFormat = "2006-01-02"
	// MonthKeyFormat identifies a calendar month (YYYY-MM).
	MonthKeyFormat = "2006-01"
	// MonthLabelFormat is the short month label used in charts, e.g. "Jan 24".
	MonthLabelFormat = "Jan 06"

	secondsPerDay = 24 * 60 * 60
)

// TruncateToDay returns midnight of t's calendar day in t's location.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole days from the day of start to end,
// clamped to zero. start is expected to be a midnight (a calendar date).
//
// Both sides are reduced to their calendar date in start's location before
// subtracting, so a daylight-saving shift inside the span never drops or
// adds a day.
func DaysBetween(start, end time.Time) int {
	s := dayNumber(start)
	e := dayNumber(end.In(start.Location()))
	if e <= s {
		return 0
	}
	return int(e - s)
}

// StepDay returns the calendar day after d, at midnight.
func StepDay(d time.Time) time.Time {
	return TruncateToDay(d).AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateFormat, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// FormatOptionalDate formats a nullable date, returning "" for nil.
func FormatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatDate(*t)
}

// MonthKey returns the year-month key of t.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyFormat)
}

// MonthLabel returns the short display label of t's month.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLabelFormat)
}

// dayNumber maps t's calendar date to a day count since the Unix epoch.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
}
