package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

var _ repository.MessageRepository = (*DB)(nil)

const messageColumns = `id, idea_id, customer_id, channel, recipient, body, send_at, status, error, sent_at, created_at`

func scanMessage(row interface{ Scan(...any) error }) (*model.ScheduledMessage, error) {
	var (
		m      model.ScheduledMessage
		sentAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.IdeaID, &m.CustomerID, &m.Channel, &m.Recipient, &m.Body, &m.SendAt,
		&m.Status, &m.Error, &sentAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		m.SentAt = &sentAt.Time
	}
	return &m, nil
}

func (db *DB) CreateScheduledMessage(ctx context.Context, m *model.ScheduledMessage) error {
	m.ID = xid.New().String()
	m.CreatedAt = time.Now().UTC()
	if m.Status == "" {
		m.Status = model.MessagePending
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO scheduled_messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.IdeaID, m.CustomerID, m.Channel, m.Recipient, m.Body, m.SendAt.UTC(),
		m.Status, m.Error, nullTime(m.SentAt), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting scheduled message: %w", err)
	}
	return nil
}

func (db *DB) queryMessages(ctx context.Context, query string, args ...any) ([]model.ScheduledMessage, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing scheduled messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ScheduledMessage{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning scheduled message: %w", err)
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func (db *DB) ListScheduledMessages(ctx context.Context, ideaID string) ([]model.ScheduledMessage, error) {
	return db.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM scheduled_messages
		 WHERE idea_id = ? ORDER BY send_at DESC, rowid DESC`, ideaID)
}

func (db *DB) DueScheduledMessages(ctx context.Context, now time.Time, limit int) ([]model.ScheduledMessage, error) {
	return db.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM scheduled_messages
		 WHERE status = ? AND send_at <= ?
		 ORDER BY send_at, rowid LIMIT ?`, model.MessagePending, now.UTC(), limit)
}

// ClaimScheduledMessage is a compare-and-set on status: only one caller
// can move a row out of pending, so a message is handed to the sender at
// most once even when dispatcher runs overlap.
func (db *DB) ClaimScheduledMessage(ctx context.Context, id string) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = ? WHERE id = ? AND status = ?`,
		model.MessageSending, id, model.MessagePending)
	if err != nil {
		return false, fmt.Errorf("sqlite: claiming message %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: claiming message %s: %w", id, err)
	}
	return n == 1, nil
}

func (db *DB) MarkMessageSent(ctx context.Context, id string, at time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = ?, sent_at = ?, error = '' WHERE id = ?`,
		model.MessageSent, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: marking message %s sent: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("scheduled message", id))
}

func (db *DB) MarkMessageFailed(ctx context.Context, id, reason string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE scheduled_messages SET status = ?, error = ? WHERE id = ?`,
		model.MessageFailed, reason, id)
	if err != nil {
		return fmt.Errorf("sqlite: marking message %s failed: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("scheduled message", id))
}
