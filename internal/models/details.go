package models

import (
	"encoding/json"
	"strings"
)

// AchievementDetails is the optional payload stored with an unlock.
type AchievementDetails struct {
	Description string  `json:"description,omitempty"`
	HabitID     *string `json:"habitId,omitempty"`
	GoalID      *string `json:"goalId,omitempty"`
}

// Encode renders the details for storage.
func (d AchievementDetails) Encode() string {
	b, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseAchievementDetails never fails: text that is not a JSON object
// becomes the description as-is.
func ParseAchievementDetails(raw string) AchievementDetails {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AchievementDetails{}
	}
	// A stored JSON null decodes without error and means no details.
	var d AchievementDetails
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
		return AchievementDetails{Description: raw}
	}
	return d
}
