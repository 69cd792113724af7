package progress

import (
	"sort"
	"time"
)

type StreakResult struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
	// CurrentStart is the first day of the current run, zero when there is none.
	CurrentStart time.Time   `json:"current_start,omitempty"`
	History      []time.Time `json:"history"`
}

// ComputeStreaks derives the current and longest runs of consecutive days.
// The current streak survives a missing ref day: it is anchored at ref or at
// the day before, whichever holds the latest completion.
func ComputeStreaks(dates []time.Time, ref time.Time) StreakResult {
	days := uniqueDaysDesc(dates)
	if len(days) == 0 {
		return StreakResult{History: []time.Time{}}
	}

	res := StreakResult{History: days}

	today := Day(ref)
	if gap := DaysBetween(days[0], today); gap == 0 || gap == 1 {
		res.CurrentStreak = 1
		res.CurrentStart = days[0]
		for i := 1; i < len(days); i++ {
			if DaysBetween(days[i], days[i-1]) != 1 {
				break
			}
			res.CurrentStreak++
			res.CurrentStart = days[i]
		}
	}

	run := 1
	for i := 1; i < len(days); i++ {
		if DaysBetween(days[i], days[i-1]) == 1 {
			run++
			continue
		}
		res.LongestStreak = max(res.LongestStreak, run)
		run = 1
	}
	res.LongestStreak = max(res.LongestStreak, run)

	return res
}

func uniqueDaysDesc(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, t := range dates {
		d := Day(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}
