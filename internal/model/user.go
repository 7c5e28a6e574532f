// Package model defines the data structures used throughout the application.
package model

import "time"

// Supported interface languages for a user profile.
const (
	LanguagePortuguese = "pt"
	LanguageEnglish    = "en"
	LanguageSpanish    = "es"
)

// User represents a registered account.
//
// Accounts are created either with a username and password or through
// GitHub sign-in. GitHubID is nil for password-only accounts.
//
// The SMTP fields hold the credentials used when the user sends bulk e-mail
// to their customers. EmailPassword and PasswordHash never leave the server.
type User struct {
	ID                   string    `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	GitHubID             *int64    `json:"githubId,omitempty"`
	FullName             string    `json:"fullName"`
	Bio                  string    `json:"bio"`
	EmailForSending      string    `json:"emailForSending"`
	EmailPassword        string    `json:"-"`
	SMTPServer           string    `json:"smtpServer"`
	SMTPPort             int       `json:"smtpPort"`
	Language             string    `json:"language"`
	Timezone             string    `json:"timezone"`
	ReceiveNotifications bool      `json:"receiveNotifications"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// CanSendEmail reports whether the SMTP settings are complete.
func (u *User) CanSendEmail() bool {
	return u.EmailForSending != "" && u.EmailPassword != "" && u.SMTPServer != "" && u.SMTPPort > 0
}
