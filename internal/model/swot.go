package model

import "time"

const (
	SWOTStrength    = "strength"
	SWOTWeakness    = "weakness"
	SWOTOpportunity = "opportunity"
	SWOTThreat      = "threat"
)

// SWOTCategories lists the categories in display order.
var SWOTCategories = []string{SWOTStrength, SWOTWeakness, SWOTOpportunity, SWOTThreat}

// ValidSWOTCategory reports whether c is a known SWOT category.
func ValidSWOTCategory(c string) bool {
	for _, known := range SWOTCategories {
		if c == known {
			return true
		}
	}
	return false
}

// SWOT is the per-idea aggregate. An idea has at most one.
type SWOT struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"ideaId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type SWOTItem struct {
	ID        string    `json:"id"`
	SWOTID    string    `json:"swotId"`
	Category  string    `json:"category"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type SWOTAnalysis struct {
	ID        string    `json:"id"`
	SWOTID    string    `json:"swotId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SWOTBoard is the SWOT with its items and the most recent analysis.
type SWOTBoard struct {
	SWOT
	Items        []SWOTItem    `json:"items"`
	LastAnalysis *SWOTAnalysis `json:"lastAnalysis,omitempty"`
}
