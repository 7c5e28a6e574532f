package model

import "time"

const DefaultCustomerStatus = "lead"

// Customer is a CRM record kept per idea.
type Customer struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"ideaId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	Facebook  string    `json:"facebook"`
	Instagram string    `json:"instagram"`
	LinkedIn  string    `json:"linkedin"`
	Twitter   string    `json:"twitter"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CustomerStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
}
