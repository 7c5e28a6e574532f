package model

import "time"

type NetworkingContact struct {
	ID          string    `json:"id"`
	IdeaID      string    `json:"ideaId"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	LinkedInURL string    `json:"linkedinUrl"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NetworkingPost is a social post the user bookmarked for an idea.
type NetworkingPost struct {
	ID            string    `json:"id"`
	IdeaID        string    `json:"ideaId"`
	AuthorName    string    `json:"authorName"`
	Content       string    `json:"content"`
	LinkedInURL   string    `json:"linkedinUrl"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
}
