package model

import "time"

type LegalStep struct {
	ID          string    `json:"id"`
	IdeaID      string    `json:"ideaId"`
	Description string    `json:"description"`
	Order       int       `json:"order"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LegalConsultation is one message of the legal Q&A thread.
// IsUser distinguishes the entrepreneur's questions from the replies.
type LegalConsultation struct {
	ID        string    `json:"id"`
	IdeaID    string    `json:"ideaId"`
	Message   string    `json:"message"`
	IsUser    bool      `json:"isUser"`
	CreatedAt time.Time `json:"createdAt"`
}

// LegalOverview is returned by GET /api/ideas/{id}/legal.
type LegalOverview struct {
	Steps         []LegalStep         `json:"steps"`
	Consultations []LegalConsultation `json:"consultations"`
}
