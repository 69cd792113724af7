package progress

import (
	"fmt"
	"time"
)

// Period is an inclusive range of UTC calendar days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: Day(start), End: Day(end)}
}

// Days is the number of calendar days covered, 0 for an inverted period.
func (p Period) Days() int {
	n := DaysBetween(p.Start, p.End) + 1
	if n < 0 {
		return 0
	}
	return n
}

func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

type PeriodKind string

const (
	PeriodWeek    PeriodKind = "week"
	PeriodMonth   PeriodKind = "month"
	PeriodQuarter PeriodKind = "quarter"
	PeriodYear    PeriodKind = "year"
	PeriodAll     PeriodKind = "all"
)

// AllTimeStart anchors the "all" period.
var AllTimeStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// PeriodRange returns the calendar period of the given kind containing ref.
// The "all" period runs from AllTimeStart to ref.
func PeriodRange(kind PeriodKind, ref time.Time) (Period, error) {
	switch kind {
	case PeriodWeek:
		start := WeekStart(ref)
		return Period{Start: start, End: start.AddDate(0, 0, 6)}, nil
	case PeriodMonth:
		start := MonthStart(ref)
		return Period{Start: start, End: start.AddDate(0, 1, -1)}, nil
	case PeriodQuarter:
		start := QuarterStart(ref)
		return Period{Start: start, End: start.AddDate(0, 3, -1)}, nil
	case PeriodYear:
		start := YearStart(ref)
		return Period{Start: start, End: start.AddDate(1, 0, -1)}, nil
	case PeriodAll, "":
		return Period{Start: AllTimeStart, End: Day(ref)}, nil
	default:
		return Period{}, fmt.Errorf("unknown period %q", kind)
	}
}
