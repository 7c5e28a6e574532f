package model

import "time"

type ExpenseCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Expense is a cost recorded against an idea.
type Expense struct {
	ID          string           `json:"id"`
	IdeaID      string           `json:"ideaId"`
	Description string           `json:"description"`
	Amount      float64          `json:"amount"`
	Date        time.Time        `json:"date"`
	CategoryID  string           `json:"categoryId"`
	Category    *ExpenseCategory `json:"category,omitempty"`
	Tags        []Tag            `json:"tags"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}
