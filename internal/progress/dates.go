// Package progress turns completion logs into streaks, completion rates and
// period summaries. Every function here is pure: the reference day is always
// passed in, and all calendar arithmetic happens on UTC days.
package progress

import (
	"fmt"
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// ParseDay accepts YYYY-MM-DD or RFC3339 input.
func ParseDay(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Day(t), nil
}

// WeekStart returns the Sunday that starts t's week.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func QuarterStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	first := time.Month((int(m)-1)/3*3 + 1)
	return time.Date(y, first, 1, 0, 0, 0, 0, time.UTC)
}

func YearStart(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// RoundTo rounds v half away from zero to the given number of decimals.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
