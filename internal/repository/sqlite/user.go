package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, github_id, full_name, bio,
	email_for_sending, email_password, smtp_server, smtp_port, language, timezone,
	receive_notifications, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &githubID, &u.FullName, &u.Bio,
		&u.EmailForSending, &u.EmailPassword, &u.SMTPServer, &u.SMTPPort, &u.Language, &u.Timezone,
		&u.ReceiveNotifications, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if githubID.Valid {
		id := githubID.Int64
		u.GitHubID = &id
	}
	return &u, nil
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

// CreateUser inserts a new account. Defaults are applied for language,
// timezone and notifications when left empty.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Language == "" {
		user.Language = model.LanguagePortuguese
	}
	if user.Timezone == "" {
		user.Timezone = "UTC-3"
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, nullInt64(user.GitHubID),
		user.FullName, user.Bio, user.EmailForSending, user.EmailPassword, user.SMTPServer,
		user.SMTPPort, user.Language, user.Timezone, user.ReceiveNotifications,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username+" / "+user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", username, err)
	}
	return u, nil
}

// UpsertGitHubUser creates the account on first GitHub sign-in and reuses it
// afterwards. On the update path only the e-mail is refreshed; the username
// is left alone since the user may have changed it in their profile.
//
// A first sign-in whose login is already taken by a password account gets a
// "-gh<id>" suffix instead of failing.
func (db *DB) UpsertGitHubUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == nil {
		return fmt.Errorf("sqlite: upserting GitHub user: missing github id")
	}

	existing, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE github_id = ?`, *user.GitHubID))
	switch {
	case err == nil:
		if user.Email != "" && user.Email != existing.Email {
			existing.Email = user.Email
			existing.UpdatedAt = time.Now().UTC()
			_, err = db.conn.ExecContext(ctx,
				`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
				existing.Email, existing.UpdatedAt, existing.ID)
			if err != nil && !isUniqueViolation(err) {
				return fmt.Errorf("sqlite: updating user %s: %w", existing.ID, err)
			}
		}
		*user = *existing
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", *user.GitHubID, err)
	}

	if user.Email == "" {
		user.Email = fmt.Sprintf("%d+%s@users.noreply.github.com", *user.GitHubID, user.Username)
	}
	err = db.CreateUser(ctx, user)
	if errors.Is(err, apperror.ErrConflict) {
		user.Username = fmt.Sprintf("%s-gh%d", user.Username, *user.GitHubID)
		err = db.CreateUser(ctx, user)
	}
	return err
}

// UpdateUser saves every profile field of user.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?, full_name = ?, bio = ?,
			email_for_sending = ?, email_password = ?, smtp_server = ?, smtp_port = ?,
			language = ?, timezone = ?, receive_notifications = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, user.FullName, user.Bio,
		user.EmailForSending, user.EmailPassword, user.SMTPServer, user.SMTPPort,
		user.Language, user.Timezone, user.ReceiveNotifications, user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username+" / "+user.Email)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return checkAffected(res, apperror.NotFound("user", user.ID))
}
