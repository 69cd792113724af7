package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

func record(date string, count int) models.CompletionRecord {
	return models.CompletionRecord{HabitID: "h1", Date: day(date), CompletedCount: count}
}

func TestAggregateProgress(t *testing.T) {
	records := []models.CompletionRecord{
		record("2025-01-01", 3),
		record("2025-01-02", 1),
		record("2025-01-03", 0),
		record("2025-01-09", 3),
	}
	period := NewPeriod(day("2025-01-01"), day("2025-01-04"))

	s := AggregateProgress(records, 3, period)

	assert.Equal(t, 4, s.TotalDays)
	assert.Equal(t, 2, s.CompletedDays)
	assert.Equal(t, 4, s.CompletedCount)
	assert.Equal(t, 33.33, s.CompletionRate)
}

func TestAggregateProgress_ZeroDenominator(t *testing.T) {
	records := []models.CompletionRecord{record("2025-01-01", 2)}

	s := AggregateProgress(records, 0, NewPeriod(day("2025-01-01"), day("2025-01-01")))
	assert.Equal(t, 0.0, s.CompletionRate)

	inverted := NewPeriod(day("2025-01-05"), day("2025-01-01"))
	s = AggregateProgress(records, 1, inverted)
	assert.Equal(t, 0, s.TotalDays)
	assert.Equal(t, 0.0, s.CompletionRate)
}

func TestAggregateProgress_CappedAt100(t *testing.T) {
	records := []models.CompletionRecord{record("2025-01-01", 9)}
	s := AggregateProgress(records, 1, NewPeriod(day("2025-01-01"), day("2025-01-01")))
	assert.Equal(t, 100.0, s.CompletionRate)
}

func TestPeriodRange(t *testing.T) {
	ref := day("2025-05-14") // Wednesday

	tests := []struct {
		kind       PeriodKind
		start, end string
	}{
		{PeriodWeek, "2025-05-11", "2025-05-17"},
		{PeriodMonth, "2025-05-01", "2025-05-31"},
		{PeriodQuarter, "2025-04-01", "2025-06-30"},
		{PeriodYear, "2025-01-01", "2025-12-31"},
		{PeriodAll, "2024-01-01", "2025-05-14"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := PeriodRange(tt.kind, ref)
			require.NoError(t, err)
			assert.Equal(t, day(tt.start), p.Start)
			assert.Equal(t, day(tt.end), p.End)
		})
	}

	_, err := PeriodRange("fortnight", ref)
	assert.Error(t, err)
}

func TestWeeklyBucketsAndTrend(t *testing.T) {
	records := []models.CompletionRecord{
		record("2025-05-04", 2), // Sunday, week 1
		record("2025-05-06", 1),
		record("2025-05-12", 5), // week 2
		record("2025-05-20", 4), // week 3
	}
	period := NewPeriod(day("2025-05-04"), day("2025-05-24"))

	buckets := WeeklyBuckets(records, period)
	require.Len(t, buckets, 3)
	assert.Equal(t, 3, buckets[0].TotalProgress)
	assert.Equal(t, 5, buckets[1].TotalProgress)
	assert.Equal(t, 4, buckets[2].TotalProgress)
	assert.Equal(t, day("2025-05-11"), buckets[1].Start)
	assert.Equal(t, TrendUp, Trend(buckets))

	buckets[2].TotalProgress = 1
	assert.Equal(t, TrendDown, Trend(buckets))
	buckets[2].TotalProgress = 3
	assert.Equal(t, TrendStable, Trend(buckets))

	assert.Equal(t, TrendStable, Trend(buckets[:1]))
	assert.Equal(t, TrendStable, Trend(nil))
}

func TestConsistentWeeks(t *testing.T) {
	var records []models.CompletionRecord
	for _, d := range []string{"2025-01-05", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"} {
		records = append(records, record(d, 1))
	}
	for _, d := range []string{"2025-01-12", "2025-01-13", "2025-01-14"} {
		records = append(records, record(d, 1))
	}
	// a second habit on an already active day does not add a day
	records = append(records, models.CompletionRecord{HabitID: "h2", Date: day("2025-01-12"), CompletedCount: 1})

	period := NewPeriod(day("2025-01-05"), day("2025-01-18"))
	assert.Equal(t, 1, ConsistentWeeks(records, period, 5))
	assert.Equal(t, 2, ConsistentWeeks(records, period, 3))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 66.67, RoundTo(200.0/3.0, 2))
	assert.Equal(t, 12.5, RoundTo(12.5, 2))
}
