package progress

import (
	"fmt"
	"time"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

type Summary struct {
	TotalDays      int     `json:"total_days"`
	CompletedDays  int     `json:"completed_days"`
	CompletedCount int     `json:"completed_count"`
	CompletionRate float64 `json:"completion_rate"`
}

// AggregateProgress measures records inside period against the possible
// completions, period days times the habit's daily frequency.
func AggregateProgress(records []models.CompletionRecord, frequency int, period Period) Summary {
	s := Summary{TotalDays: period.Days()}
	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}
		if r.CompletedCount > 0 {
			s.CompletedDays++
			s.CompletedCount += r.CompletedCount
		}
	}
	s.CompletionRate = CompletionRate(s.CompletedCount, s.TotalDays*frequency)
	return s
}

// CompletionRate is completed/possible as a percentage with two decimals, capped at 100.
func CompletionRate(completed, possible int) float64 {
	if possible <= 0 || completed <= 0 {
		return 0
	}
	rate := RoundTo(float64(completed)/float64(possible)*100, 2)
	return min(rate, 100)
}

// CompletedDates returns the dates of records with a positive count.
func CompletedDates(records []models.CompletionRecord) []time.Time {
	dates := make([]time.Time, 0, len(records))
	for _, r := range records {
		if r.CompletedCount > 0 {
			dates = append(dates, r.Date)
		}
	}
	return dates
}

// ActiveDays counts distinct days with a positive count.
func ActiveDays(records []models.CompletionRecord) int {
	return len(uniqueDaysDesc(CompletedDates(records)))
}

type WeekBucket struct {
	Week          string    `json:"week"`
	Start         time.Time `json:"start_date"`
	End           time.Time `json:"end_date"`
	TotalProgress int       `json:"total_progress"`
}

// WeeklyBuckets sums completed counts per Sunday-start week overlapping period.
func WeeklyBuckets(records []models.CompletionRecord, period Period) []WeekBucket {
	if period.Days() == 0 {
		return []WeekBucket{}
	}
	var buckets []WeekBucket
	index := make(map[time.Time]int)
	for start := WeekStart(period.Start); !start.After(period.End); start = start.AddDate(0, 0, 7) {
		year, week := start.ISOWeek()
		index[start] = len(buckets)
		buckets = append(buckets, WeekBucket{
			Week:  isoWeekLabel(year, week),
			Start: start,
			End:   start.AddDate(0, 0, 6),
		})
	}
	for _, r := range records {
		if !period.Contains(r.Date) {
			continue
		}
		if i, ok := index[WeekStart(r.Date)]; ok {
			buckets[i].TotalProgress += r.CompletedCount
		}
	}
	return buckets
}

type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend compares the first and last bucket.
func Trend(buckets []WeekBucket) TrendDirection {
	if len(buckets) < 2 {
		return TrendStable
	}
	first, last := buckets[0].TotalProgress, buckets[len(buckets)-1].TotalProgress
	switch {
	case last > first:
		return TrendUp
	case last < first:
		return TrendDown
	default:
		return TrendStable
	}
}

func isoWeekLabel(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ConsistentWeeks splits period into 7-day windows anchored at period.Start,
// the last one clipped to period.End, and counts the windows with at least
// minActiveDays distinct active days.
func ConsistentWeeks(records []models.CompletionRecord, period Period, minActiveDays int) int {
	consistent := 0
	for start := period.Start; !start.After(period.End); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 6)
		if end.After(period.End) {
			end = period.End
		}
		window := Period{Start: start, End: end}
		active := make(map[time.Time]struct{})
		for _, r := range records {
			if r.CompletedCount > 0 && window.Contains(r.Date) {
				active[Day(r.Date)] = struct{}{}
			}
		}
		if len(active) >= minActiveDays {
			consistent++
		}
	}
	return consistent
}
