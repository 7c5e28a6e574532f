package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

var _ repository.TaskRepository = (*DB)(nil)

const taskColumns = `id, idea_id, content, status, position, due_date, criticality, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	var (
		t   model.Task
		due sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.IdeaID, &t.Content, &t.Status, &t.Order, &due,
		&t.Criticality, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	t.Tags = []model.Tag{}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// findOrCreateTag returns the tag with the given name, inserting it first
// when it does not exist yet. Names match case-insensitively: "Urgent"
// finds the tag stored as "urgent" and keeps the stored spelling.
func findOrCreateTag(ctx context.Context, q querier, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO tags (id, name) VALUES (?, ?)`, xid.New().String(), name); err != nil {
		return nil, fmt.Errorf("sqlite: inserting tag %q: %w", name, err)
	}
	var tag model.Tag
	if err := q.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE name = ? COLLATE NOCASE`, name).Scan(&tag.ID, &tag.Name); err != nil {
		return nil, fmt.Errorf("sqlite: loading tag %q: %w", name, err)
	}
	return &tag, nil
}

// linkTags attaches tags (by name) to a row of a join table and rewrites
// the slice with the stored ids.
func linkTags(ctx context.Context, q querier, joinTable, ownerColumn, ownerID string, tags []model.Tag) ([]model.Tag, error) {
	linked := make([]model.Tag, 0, len(tags))
	for _, t := range tags {
		tag, err := findOrCreateTag(ctx, q, t.Name)
		if err != nil {
			return nil, err
		}
		_, err = q.ExecContext(ctx,
			fmt.Sprintf(`INSERT OR IGNORE INTO %s (%s, tag_id) VALUES (?, ?)`, joinTable, ownerColumn),
			ownerID, tag.ID)
		if err != nil {
			return nil, fmt.Errorf("sqlite: linking tag %s: %w", tag.Name, err)
		}
		linked = append(linked, *tag)
	}
	return linked, nil
}

func insertTask(ctx context.Context, q querier, task *model.Task) error {
	now := time.Now().UTC()
	task.ID = xid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.TaskToDo
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.IdeaID, task.Content, task.Status, task.Order, nullTime(task.DueDate),
		task.Criticality, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task: %w", err)
	}

	task.Tags, err = linkTags(ctx, q, "task_tags", "task_id", task.ID, task.Tags)
	return err
}

func (db *DB) CreateTasks(ctx context.Context, tasks []*model.Task) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, task := range tasks {
			if err := insertTask(ctx, tx, task); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) ListTasks(ctx context.Context, ideaID, status string) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE idea_id = ?`
	args := []any{ideaID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY position, created_at, rowid`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	index := map[string]int{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning task: %w", err)
		}
		index[t.ID] = len(tasks)
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	tagRows, err := db.conn.QueryContext(ctx,
		`SELECT tt.task_id, g.id, g.name
		 FROM task_tags tt
		 JOIN tags g ON g.id = tt.tag_id
		 JOIN tasks t ON t.id = tt.task_id
		 WHERE t.idea_id = ?
		 ORDER BY g.name`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing task tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			taskID string
			tag    model.Tag
		)
		if err := tagRows.Scan(&taskID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task tag: %w", err)
		}
		if i, ok := index[taskID]; ok {
			tasks[i].Tags = append(tasks[i].Tags, tag)
		}
	}
	return tasks, tagRows.Err()
}

func (db *DB) GetTask(ctx context.Context, id string) (*model.Task, error) {
	task, err := scanTask(db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	task.Tags, err = taskTags(ctx, db.conn, id)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func taskTags(ctx context.Context, q querier, taskID string) ([]model.Tag, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT g.id, g.name FROM task_tags tt JOIN tags g ON g.id = tt.tag_id
		 WHERE tt.task_id = ? ORDER BY g.name`, taskID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags of task %s: %w", taskID, err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// UpdateTask writes the scalar fields and replaces the tag set in one
// transaction.
func (db *DB) UpdateTask(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tasks SET content = ?, status = ?, position = ?, due_date = ?, criticality = ?, updated_at = ?
			 WHERE id = ?`,
			task.Content, task.Status, task.Order, nullTime(task.DueDate), task.Criticality, task.UpdatedAt,
			task.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
		}
		if err := checkAffected(res, apperror.NotFound("task", task.ID)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = ?`, task.ID); err != nil {
			return fmt.Errorf("sqlite: clearing tags of task %s: %w", task.ID, err)
		}
		task.Tags, err = linkTags(ctx, tx, "task_tags", "task_id", task.ID, task.Tags)
		return err
	})
}

func (db *DB) DeleteTask(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("task", id))
}

func (db *DB) MaxTaskOrder(ctx context.Context, ideaID string) (int, error) {
	var max sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		`SELECT MAX(position) FROM tasks WHERE idea_id = ?`, ideaID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading max task order: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (db *DB) AddTaskTag(ctx context.Context, taskID, name string) (*model.Tag, error) {
	var tag *model.Tag
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		linked, err := linkTags(ctx, tx, "task_tags", "task_id", taskID, []model.Tag{{Name: name}})
		if err != nil {
			return err
		}
		tag = &linked[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (db *DB) RemoveTaskTag(ctx context.Context, taskID, tagID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`, taskID, tagID)
	if err != nil {
		return fmt.Errorf("sqlite: removing tag %s from task %s: %w", tagID, taskID, err)
	}
	return checkAffected(res, apperror.NotFound("task tag", tagID))
}
