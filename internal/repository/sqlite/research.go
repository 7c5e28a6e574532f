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

var _ repository.ResearchRepository = (*DB)(nil)

func (db *DB) CreateResearch(ctx context.Context, r *model.MarketResearch) error {
	now := time.Now().UTC()
	r.ID = xid.New().String()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO market_research (id, idea_id, content, location, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.IdeaID, r.Content, r.Location, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting market research: %w", err)
	}
	return nil
}

// ListResearch returns the idea's research entries, newest first.
func (db *DB) ListResearch(ctx context.Context, ideaID string) ([]model.MarketResearch, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, idea_id, content, location, created_at, updated_at FROM market_research
		 WHERE idea_id = ? ORDER BY created_at DESC, rowid DESC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing market research: %w", err)
	}
	defer rows.Close()

	entries := []model.MarketResearch{}
	for rows.Next() {
		var r model.MarketResearch
		if err := rows.Scan(&r.ID, &r.IdeaID, &r.Content, &r.Location, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning market research: %w", err)
		}
		entries = append(entries, r)
	}
	return entries, rows.Err()
}

func (db *DB) GetResearch(ctx context.Context, id string) (*model.MarketResearch, error) {
	var r model.MarketResearch
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, idea_id, content, location, created_at, updated_at FROM market_research WHERE id = ?`, id,
	).Scan(&r.ID, &r.IdeaID, &r.Content, &r.Location, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("market research", id)
		}
		return nil, fmt.Errorf("sqlite: getting market research %s: %w", id, err)
	}
	return &r, nil
}

func (db *DB) DeleteResearch(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM market_research WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting market research %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("market research", id))
}
