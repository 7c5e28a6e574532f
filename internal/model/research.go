package model

import "time"

type MarketResearch struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"ideaId"`
	Content   string    `json:"content"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
