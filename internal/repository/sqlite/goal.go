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

var _ repository.GoalRepository = (*DB)(nil)

const goalColumns = `id, idea_id, title, description, deadline, status, category, progress,
	timeframe, aggression, created_at, updated_at`

func scanGoal(row interface{ Scan(...any) error }) (*model.Goal, error) {
	var (
		g        model.Goal
		deadline sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.IdeaID, &g.Title, &g.Description, &deadline, &g.Status, &g.Category,
		&g.Progress, &g.Timeframe, &g.Aggression, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	if deadline.Valid {
		g.Deadline = &deadline.Time
	}
	return &g, nil
}

func insertGoal(ctx context.Context, q querier, g *model.Goal) error {
	now := time.Now().UTC()
	g.ID = xid.New().String()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Status == "" {
		g.Status = model.GoalInProgress
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.IdeaID, g.Title, g.Description, nullTime(g.Deadline), g.Status, g.Category,
		g.Progress, g.Timeframe, g.Aggression, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting goal: %w", err)
	}
	return nil
}

func (db *DB) CreateGoal(ctx context.Context, g *model.Goal) error {
	return insertGoal(ctx, db.conn, g)
}

func (db *DB) CreateGoals(ctx context.Context, goals []*model.Goal) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, g := range goals {
			if err := insertGoal(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) ListGoals(ctx context.Context, ideaID string) ([]model.Goal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE idea_id = ? ORDER BY created_at, rowid`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing goals: %w", err)
	}
	defer rows.Close()

	goals := []model.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func (db *DB) GetGoal(ctx context.Context, id string) (*model.Goal, error) {
	g, err := scanGoal(db.conn.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("goal", id)
		}
		return nil, fmt.Errorf("sqlite: getting goal %s: %w", id, err)
	}
	return g, nil
}

func (db *DB) UpdateGoal(ctx context.Context, g *model.Goal) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE goals SET title = ?, description = ?, deadline = ?, status = ?, category = ?,
			progress = ?, updated_at = ?
		 WHERE id = ?`,
		g.Title, g.Description, nullTime(g.Deadline), g.Status, g.Category, g.Progress, g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating goal %s: %w", g.ID, err)
	}
	return checkAffected(res, apperror.NotFound("goal", g.ID))
}

func (db *DB) DeleteGoal(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting goal %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("goal", id))
}
