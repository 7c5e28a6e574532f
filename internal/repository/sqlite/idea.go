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

// Compile-time check: the build breaks here, not at some distant call
// site, if *DB stops satisfying the interface. Every file in this package
// starts with one for the interface it implements.
var _ repository.IdeaRepository = (*DB)(nil)

// CreateIdea inserts idea and fills in its ID and CreatedAt.
//
// CONVENTIONS SHARED BY EVERY WRITE IN THIS PACKAGE:
//
//  1. IDS: xid.New() gives a 20-character, URL-safe, time-sortable ID
//     such as "cv37rs3pp9olc6atsptg". The caller's struct is a pointer, so
//     it sees the generated ID after the call.
//  2. TIMES: stored in UTC. The _time_format=sqlite DSN option makes the
//     driver write a format SQLite's own date functions understand.
//  3. PLACEHOLDERS: values always go through ? arguments, never into the
//     SQL text. Where SQL is built with fmt.Sprintf (linkTags,
//     addColumnIfNotExists) it only formats table and column names
//     from constants.
func (db *DB) CreateIdea(ctx context.Context, idea *model.Idea) error {
	idea.ID = xid.New().String()
	idea.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ideas (id, user_id, title, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		idea.ID, idea.UserID, idea.Title, idea.Description, idea.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting idea: %w", err)
	}
	return nil
}

func (db *DB) GetIdea(ctx context.Context, id string) (*model.Idea, error) {
	var idea model.Idea
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, created_at FROM ideas WHERE id = ?`, id,
	).Scan(&idea.ID, &idea.UserID, &idea.Title, &idea.Description, &idea.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("idea", id)
		}
		return nil, fmt.Errorf("sqlite: getting idea %s: %w", id, err)
	}
	return &idea, nil
}

// ListIdeas returns the user's ideas, newest first.
func (db *DB) ListIdeas(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Idea, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, description, created_at
		 FROM ideas WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing ideas: %w", err)
	}
	defer rows.Close()

	ideas := []model.Idea{}
	for rows.Next() {
		var idea model.Idea
		if err := rows.Scan(&idea.ID, &idea.UserID, &idea.Title, &idea.Description, &idea.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// DeleteIdea relies on ON DELETE CASCADE, so the single statement removes
// every dependent row atomically. Shared tags and categories survive.
func (db *DB) DeleteIdea(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM ideas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting idea %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("idea", id))
}

// AppendQuestions adds texts after the idea's last question. Existing
// questions and their answers stay as they are.
func (db *DB) AppendQuestions(ctx context.Context, ideaID string, texts []string) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(texts))

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM questions WHERE idea_id = ?`, ideaID).Scan(&next)
		if err != nil {
			return fmt.Errorf("sqlite: reading last question position: %w", err)
		}
		for i, text := range texts {
			q := model.Question{ID: xid.New().String(), IdeaID: ideaID, Text: text, Position: next + i}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, idea_id, text, answer, position) VALUES (?, ?, ?, '', ?)`,
				q.ID, q.IdeaID, q.Text, q.Position,
			)
			if err != nil {
				return fmt.Errorf("sqlite: inserting question: %w", err)
			}
			questions = append(questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (db *DB) ListQuestions(ctx context.Context, ideaID string) ([]model.Question, error) {
	return listQuestions(ctx, db.conn, ideaID)
}

func listQuestions(ctx context.Context, q querier, ideaID string) ([]model.Question, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, idea_id, text, answer, position FROM questions
		 WHERE idea_id = ? ORDER BY position, rowid`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing questions: %w", err)
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		var qu model.Question
		if err := rows.Scan(&qu.ID, &qu.IdeaID, &qu.Text, &qu.Answer, &qu.Position); err != nil {
			return nil, fmt.Errorf("sqlite: scanning question: %w", err)
		}
		questions = append(questions, qu)
	}
	return questions, rows.Err()
}

// SaveAnswers zips answers onto the questions in position order. Surplus
// answers are ignored.
func (db *DB) SaveAnswers(ctx context.Context, ideaID string, answers []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		questions, err := listQuestions(ctx, tx, ideaID)
		if err != nil {
			return err
		}
		for i, q := range questions {
			if i >= len(answers) {
				break
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE questions SET answer = ? WHERE id = ?`, answers[i], q.ID); err != nil {
				return fmt.Errorf("sqlite: saving answer for question %s: %w", q.ID, err)
			}
		}
		return nil
	})
}
