package model

import "time"

// SMART goal categories, in the order the generator assigns them.
const (
	GoalSpecific   = "specific"
	GoalMeasurable = "measurable"
	GoalAchievable = "achievable"
	GoalRelevant   = "relevant"
	GoalTimeBound  = "time_bound"
)

var GoalCategories = []string{GoalSpecific, GoalMeasurable, GoalAchievable, GoalRelevant, GoalTimeBound}

const (
	GoalInProgress = "in_progress"
	GoalCompleted  = "completed"
)

func ValidGoalCategory(c string) bool {
	for _, known := range GoalCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Goal struct {
	ID          string     `json:"id"`
	IdeaID      string     `json:"ideaId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Status      string     `json:"status"`
	Category    string     `json:"category"`
	Progress    int        `json:"progress"`
	Timeframe   string     `json:"timeframe,omitempty"`
	Aggression  int        `json:"aggression,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
