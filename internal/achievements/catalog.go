package achievements

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Achievement types with unlock rules or automatic triggers.
const (
	FirstHabitCreated  = "first_habit_created"
	WeeklyConsistency  = "weekly_consistency"
	MonthlyConsistency = "monthly_consistency"
	GoalAchiever       = "goal_achiever"

	streakPrefix     = "habit_streak_"
	completionPrefix = "habits_completed_"
)

func StreakType(days int) string { return fmt.Sprintf("%s%d", streakPrefix, days) }
func CompletionType(count int) string { return fmt.Sprintf("%s%d", completionPrefix, count) }

type Metadata struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Points      int    `yaml:"points" json:"points"`
	Rarity      string `yaml:"rarity" json:"rarity"`
}

var unknownMetadata = Metadata{
	Title:       "Unknown Achievement",
	Description: "Special achievement",
	Icon:        "🏆",
	Points:      0,
	Rarity:      "common",
}

//go:embed catalog.yaml
var catalogYAML []byte

type Catalog struct {
	entries map[string]Metadata
}

// LoadCatalog parses a YAML document mapping achievement type to metadata.
func LoadCatalog(data []byte) (*Catalog, error) {
	entries := make(map[string]Metadata)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse achievement catalog: %w", err)
	}
	return &Catalog{entries: entries}, nil
}

// DefaultCatalog is the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup falls back to a generic entry for types missing from the catalog.
func (c *Catalog) Lookup(achievementType string) Metadata {
	if m, ok := c.entries[achievementType]; ok {
		return m
	}
	return unknownMetadata
}

func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.entries))
	for t := range c.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Category buckets a type for stats; the first matching keyword wins.
func Category(achievementType string) string {
	switch {
	case strings.Contains(achievementType, "streak"):
		return "streaks"
	case strings.Contains(achievementType, "habit"):
		return "habits"
	case strings.Contains(achievementType, "goal"):
		return "goals"
	case strings.Contains(achievementType, "consistency"):
		return "consistency"
	default:
		return "milestones"
	}
}
