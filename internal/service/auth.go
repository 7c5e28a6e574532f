package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/auth"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 150
)

// AuthService handles account creation, sign-in and profile changes.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It never touches cookies; the handler turns an AuthResult into one.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail("email", email); err != nil {
		return nil, err
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	user := &model.User{
		Username:             username,
		Email:                email,
		PasswordHash:         hash,
		ReceiveNotifications: true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user", username)
		}
		return nil, fmt.Errorf("service/auth: creating user %s: %w", username, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID), slog.String("username", user.Username))
	return s.issue(user)
}

// Login checks a username and password. Unknown users and wrong passwords
// get the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid username or password")

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: loading user %s: %w", username, err)
	}
	if user.PasswordHash == "" {
		return nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return s.issue(user)
}

// LoginOrRegisterGitHub creates the account on the first GitHub sign-in and
// reuses it afterwards.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	githubID := ghUser.ID
	user := &model.User{
		GitHubID:             &githubID,
		Username:             ghUser.Login,
		Email:                ghUser.Email,
		FullName:             ghUser.Name,
		Bio:                  ghUser.Bio,
		ReceiveNotifications: true,
	}
	if err := s.users.UpsertGitHubUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", ghUser.Login),
	)
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: getting user %s: %w", userID, err)
	}
	return user, nil
}

// ProfileUpdate is a partial update; nil fields are left alone.
// NewPassword requires CurrentPassword when the account already has one.
type ProfileUpdate struct {
	Username             *string `json:"username"`
	Email                *string `json:"email"`
	FullName             *string `json:"fullName"`
	Bio                  *string `json:"bio"`
	EmailForSending      *string `json:"emailForSending"`
	EmailPassword        *string `json:"emailPassword"`
	SMTPServer           *string `json:"smtpServer"`
	SMTPPort             *int    `json:"smtpPort"`
	Language             *string `json:"language"`
	Timezone             *string `json:"timezone"`
	ReceiveNotifications *bool   `json:"receiveNotifications"`
	CurrentPassword      string  `json:"currentPassword"`
	NewPassword          string  `json:"newPassword"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validateUsername(username); err != nil {
			return nil, err
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := validateEmail("email", email); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
	}
	if in.EmailForSending != nil {
		sender := strings.TrimSpace(*in.EmailForSending)
		if sender != "" {
			if err := validateEmail("emailForSending", sender); err != nil {
				return nil, err
			}
		}
		user.EmailForSending = sender
	}
	if in.EmailPassword != nil {
		user.EmailPassword = *in.EmailPassword
	}
	if in.SMTPServer != nil {
		user.SMTPServer = strings.TrimSpace(*in.SMTPServer)
	}
	if in.SMTPPort != nil {
		if *in.SMTPPort < 0 || *in.SMTPPort > 65535 {
			return nil, apperror.ValidationFailed("smtpPort", "smtpPort must be between 0 and 65535")
		}
		user.SMTPPort = *in.SMTPPort
	}
	if in.Language != nil {
		switch *in.Language {
		case model.LanguagePortuguese, model.LanguageEnglish, model.LanguageSpanish:
			user.Language = *in.Language
		default:
			return nil, apperror.ValidationFailed("language", "language must be one of pt, en, es")
		}
	}
	if in.Timezone != nil {
		user.Timezone = strings.TrimSpace(*in.Timezone)
	}
	if in.ReceiveNotifications != nil {
		user.ReceiveNotifications = *in.ReceiveNotifications
	}

	if in.NewPassword != "" {
		if err := s.changePassword(user, in.CurrentPassword, in.NewPassword); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.Conflict("user", user.Username)
		}
		return nil, fmt.Errorf("service/auth: updating user %s: %w", userID, err)
	}
	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

func (s *AuthService) changePassword(user *model.User, current, next string) error {
	if user.PasswordHash != "" {
		if err := s.passwords.Verify(user.PasswordHash, current); err != nil {
			return apperror.ValidationFailed("currentPassword", "current password is incorrect")
		}
	}
	if len(next) < auth.MinPasswordLength {
		return apperror.ValidationFailed("newPassword",
			fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	hash, err := s.passwords.Hash(next)
	if err != nil {
		return apperror.ValidationFailed("newPassword", "password must be 72 bytes or fewer")
	}
	user.PasswordHash = hash
	return nil
}

func validateUsername(username string) error {
	n := len([]rune(username))
	if n < MinUsernameLength || n > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("username must be between %d and %d characters", MinUsernameLength, MaxUsernameLength))
	}
	if strings.ContainsAny(username, " \t\r\n/") {
		return apperror.ValidationFailed("username", "username must not contain spaces or slashes")
	}
	return nil
}

func validateEmail(field, email string) error {
	if email == "" {
		return apperror.ValidationFailed(field, field+" is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed(field, field+" is not a valid e-mail address")
	}
	return nil
}
