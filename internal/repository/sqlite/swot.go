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

var _ repository.SWOTRepository = (*DB)(nil)

// GetOrCreateSWOT returns the idea's SWOT, creating an empty one on first
// access. The UNIQUE(idea_id) constraint plus INSERT OR IGNORE keeps two
// concurrent first visits from producing two rows.
func (db *DB) GetOrCreateSWOT(ctx context.Context, ideaID string) (*model.SWOT, error) {
	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO swots (id, idea_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		xid.New().String(), ideaID, now, now)
	if err != nil {
		return nil, fmt.Errorf("sqlite: creating swot for idea %s: %w", ideaID, err)
	}

	var s model.SWOT
	err = db.conn.QueryRowContext(ctx,
		`SELECT id, idea_id, created_at, updated_at FROM swots WHERE idea_id = ?`, ideaID,
	).Scan(&s.ID, &s.IdeaID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading swot for idea %s: %w", ideaID, err)
	}
	return &s, nil
}

func (db *DB) GetSWOT(ctx context.Context, id string) (*model.SWOT, error) {
	var s model.SWOT
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, idea_id, created_at, updated_at FROM swots WHERE id = ?`, id,
	).Scan(&s.ID, &s.IdeaID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("swot", id)
		}
		return nil, fmt.Errorf("sqlite: getting swot %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) ListSWOTItems(ctx context.Context, swotID string) ([]model.SWOTItem, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, swot_id, category, content, created_at FROM swot_items
		 WHERE swot_id = ? ORDER BY created_at, rowid`, swotID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing swot items: %w", err)
	}
	defer rows.Close()

	items := []model.SWOTItem{}
	for rows.Next() {
		var it model.SWOTItem
		if err := rows.Scan(&it.ID, &it.SWOTID, &it.Category, &it.Content, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning swot item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertSWOTItem(ctx context.Context, q querier, item *model.SWOTItem) error {
	item.ID = xid.New().String()
	item.CreatedAt = time.Now().UTC()
	_, err := q.ExecContext(ctx,
		`INSERT INTO swot_items (id, swot_id, category, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.SWOTID, item.Category, item.Content, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting swot item: %w", err)
	}
	return nil
}

func (db *DB) ReplaceSWOTItems(ctx context.Context, swotID string, items []*model.SWOTItem) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM swot_items WHERE swot_id = ?`, swotID); err != nil {
			return fmt.Errorf("sqlite: clearing swot items: %w", err)
		}
		for _, item := range items {
			item.SWOTID = swotID
			if err := insertSWOTItem(ctx, tx, item); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE swots SET updated_at = ? WHERE id = ?`, time.Now().UTC(), swotID)
		return err
	})
}

func (db *DB) CreateSWOTItem(ctx context.Context, item *model.SWOTItem) error {
	return insertSWOTItem(ctx, db.conn, item)
}

func (db *DB) GetSWOTItem(ctx context.Context, id string) (*model.SWOTItem, error) {
	var it model.SWOTItem
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, swot_id, category, content, created_at FROM swot_items WHERE id = ?`, id,
	).Scan(&it.ID, &it.SWOTID, &it.Category, &it.Content, &it.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("swot item", id)
		}
		return nil, fmt.Errorf("sqlite: getting swot item %s: %w", id, err)
	}
	return &it, nil
}

func (db *DB) UpdateSWOTItem(ctx context.Context, item *model.SWOTItem) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE swot_items SET category = ?, content = ? WHERE id = ?`,
		item.Category, item.Content, item.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating swot item %s: %w", item.ID, err)
	}
	return checkAffected(res, apperror.NotFound("swot item", item.ID))
}

func (db *DB) DeleteSWOTItem(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM swot_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting swot item %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("swot item", id))
}

func (db *DB) CreateSWOTAnalysis(ctx context.Context, analysis *model.SWOTAnalysis) error {
	analysis.ID = xid.New().String()
	analysis.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO swot_analyses (id, swot_id, content, created_at) VALUES (?, ?, ?, ?)`,
		analysis.ID, analysis.SWOTID, analysis.Content, analysis.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting swot analysis: %w", err)
	}
	return nil
}

func (db *DB) LatestSWOTAnalysis(ctx context.Context, swotID string) (*model.SWOTAnalysis, error) {
	var a model.SWOTAnalysis
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, swot_id, content, created_at FROM swot_analyses
		 WHERE swot_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, swotID,
	).Scan(&a.ID, &a.SWOTID, &a.Content, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("swot analysis", swotID)
		}
		return nil, fmt.Errorf("sqlite: getting latest swot analysis: %w", err)
	}
	return &a, nil
}
