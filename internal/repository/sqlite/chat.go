package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

var _ repository.ChatRepository = (*DB)(nil)

func (db *DB) CreateChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	msg.ID = xid.New().String()
	msg.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO chat_messages (id, idea_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.IdeaID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns the conversation oldest first.
func (db *DB) ListChatMessages(ctx context.Context, ideaID string) ([]model.ChatMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, idea_id, role, content, created_at FROM chat_messages
		 WHERE idea_id = ? ORDER BY created_at, rowid`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing chat messages: %w", err)
	}
	defer rows.Close()

	messages := []model.ChatMessage{}
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.IdeaID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
