package model

import "time"

// Idea is the top-level, user-owned project. Every other domain record
// (questions, tasks, SWOT, expenses...) is scoped to exactly one idea.
type Idea struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Question is a clarifying question about an idea together with the
// user's answer. Position keeps the order in which they were generated.
type Question struct {
	ID       string `json:"id"`
	IdeaID   string `json:"ideaId"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
	Position int    `json:"position"`
}

// IdeaDetail is the idea plus its questionnaire, returned by GET /api/ideas/{id}.
type IdeaDetail struct {
	Idea
	Questions []Question `json:"questions"`
}
