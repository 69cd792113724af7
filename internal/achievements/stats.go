package achievements

import (
	"sort"

	"github.com/JeffyMesquita/habit-tracker-api/internal/models"
)

const recentLimit = 5

type Stats struct {
	TotalUnlocked int                  `json:"total_unlocked"`
	TotalPoints   int                  `json:"total_points"`
	Recent        []models.Achievement `json:"recent_achievements"`
	Categories    map[string]int       `json:"categories"`
}

// Enriched is an achievement together with its catalog entry.
type Enriched struct {
	models.Achievement
	Metadata Metadata `json:"metadata"`
}

func (c *Catalog) Enrich(a models.Achievement) Enriched {
	return Enriched{Achievement: a, Metadata: c.Lookup(a.AchievementType)}
}

// Summarize aggregates a user's unlocks.
func (c *Catalog) Summarize(list []models.Achievement) Stats {
	sorted := append([]models.Achievement(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Timestamp.After(sorted[j].Timestamp) })

	s := Stats{
		TotalUnlocked: len(sorted),
		Recent:        sorted[:min(recentLimit, len(sorted))],
		Categories: map[string]int{
			"habits": 0, "streaks": 0, "goals": 0, "consistency": 0, "milestones": 0,
		},
	}
	for _, a := range sorted {
		s.Categories[Category(a.AchievementType)]++
		s.TotalPoints += c.Lookup(a.AchievementType).Points
	}
	return s
}
