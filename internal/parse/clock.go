package parse

import (
	"fmt"
	"time"
)

// Layouts for the historical flat-file formats.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// Date parses a YYYY-MM-DD string.
func Date(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Clock parses a HH:MM:SS (24-hour) string.
func Clock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return t, nil
}

// SessionMinutes computes the whole-minute duration of a closed session,
// floor-truncated. It returns an error when either time fails to parse or
// when timeOut precedes timeIn; such records are excluded from aggregates.
func SessionMinutes(timeIn, timeOut string) (int, error) {
	in, err := Clock(timeIn)
	if err != nil {
		return 0, err
	}
	out, err := Clock(timeOut)
	if err != nil {
		return 0, err
	}
	d := out.Sub(in)
	if d < 0 {
		return 0, fmt.Errorf("time out %q precedes time in %q", timeOut, timeIn)
	}
	return int(d.Minutes()), nil
}

// WeekBucket returns the ISO-week bucket key for a date, e.g. "2026-W35".
func WeekBucket(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// MonthBucket returns the year-month bucket key, e.g. "2026-09".
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}

// QuarterBucket returns the year-quarter bucket key, e.g. "2026-Q3".
// Quarter is ceil(month/3).
func QuarterBucket(t time.Time) string {
	quarter := (int(t.Month()) + 2) / 3
	return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
}
