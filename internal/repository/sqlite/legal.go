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

var _ repository.LegalRepository = (*DB)(nil)

// ReplaceLegalSteps drops the idea's current checklist and stores steps in
// its place. A failure leaves the old checklist untouched.
func (db *DB) ReplaceLegalSteps(ctx context.Context, ideaID string, steps []*model.LegalStep) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM legal_steps WHERE idea_id = ?`, ideaID); err != nil {
			return fmt.Errorf("sqlite: clearing legal steps: %w", err)
		}
		now := time.Now().UTC()
		for _, s := range steps {
			s.ID = xid.New().String()
			s.IdeaID = ideaID
			s.CreatedAt = now
			s.UpdatedAt = now
			_, err := tx.ExecContext(ctx,
				`INSERT INTO legal_steps (id, idea_id, description, position, progress, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				s.ID, s.IdeaID, s.Description, s.Order, s.Progress, s.CreatedAt, s.UpdatedAt)
			if err != nil {
				return fmt.Errorf("sqlite: inserting legal step: %w", err)
			}
		}
		return nil
	})
}

func (db *DB) ListLegalSteps(ctx context.Context, ideaID string) ([]model.LegalStep, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, idea_id, description, position, progress, created_at, updated_at
		 FROM legal_steps WHERE idea_id = ? ORDER BY position`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing legal steps: %w", err)
	}
	defer rows.Close()

	steps := []model.LegalStep{}
	for rows.Next() {
		var s model.LegalStep
		if err := rows.Scan(&s.ID, &s.IdeaID, &s.Description, &s.Order, &s.Progress, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning legal step: %w", err)
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (db *DB) GetLegalStep(ctx context.Context, id string) (*model.LegalStep, error) {
	var s model.LegalStep
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, idea_id, description, position, progress, created_at, updated_at
		 FROM legal_steps WHERE id = ?`, id,
	).Scan(&s.ID, &s.IdeaID, &s.Description, &s.Order, &s.Progress, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("legal step", id)
		}
		return nil, fmt.Errorf("sqlite: getting legal step %s: %w", id, err)
	}
	return &s, nil
}

func (db *DB) UpdateLegalStepProgress(ctx context.Context, id string, progress int) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE legal_steps SET progress = ?, updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: updating legal step %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("legal step", id))
}

func (db *DB) ListLegalConsultations(ctx context.Context, ideaID string) ([]model.LegalConsultation, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, idea_id, message, is_user, created_at FROM legal_consultations
		 WHERE idea_id = ? ORDER BY created_at, rowid`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing legal consultations: %w", err)
	}
	defer rows.Close()

	messages := []model.LegalConsultation{}
	for rows.Next() {
		var m model.LegalConsultation
		if err := rows.Scan(&m.ID, &m.IdeaID, &m.Message, &m.IsUser, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning legal consultation: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (db *DB) CountUserConsultations(ctx context.Context, ideaID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM legal_consultations WHERE idea_id = ? AND is_user = 1`, ideaID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting legal consultations: %w", err)
	}
	return n, nil
}

func (db *DB) CreateConsultationExchange(ctx context.Context, question, reply *model.LegalConsultation, limit int) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		// Counted inside the transaction: two requests that both passed the
		// service's early check cannot both get past this one.
		var asked int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM legal_consultations WHERE idea_id = ? AND is_user = 1`, question.IdeaID).Scan(&asked)
		if err != nil {
			return fmt.Errorf("sqlite: counting legal consultations: %w", err)
		}
		if asked >= limit {
			return repository.ErrLimitReached
		}

		now := time.Now().UTC()
		for i, m := range []*model.LegalConsultation{question, reply} {
			m.ID = xid.New().String()
			// The reply sorts after its question.
			m.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO legal_consultations (id, idea_id, message, is_user, created_at) VALUES (?, ?, ?, ?, ?)`,
				m.ID, m.IdeaID, m.Message, m.IsUser, m.CreatedAt)
			if err != nil {
				return fmt.Errorf("sqlite: inserting legal consultation: %w", err)
			}
		}
		return nil
	})
}
