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

var _ repository.ExpenseRepository = (*DB)(nil)

const expenseSelect = `SELECT e.id, e.idea_id, e.description, e.amount, e.date, e.category_id,
		c.name, e.created_at, e.updated_at
	FROM expenses e JOIN expense_categories c ON c.id = e.category_id`

func scanExpense(row interface{ Scan(...any) error }) (*model.Expense, error) {
	var (
		e   model.Expense
		cat model.ExpenseCategory
	)
	if err := row.Scan(&e.ID, &e.IdeaID, &e.Description, &e.Amount, &e.Date, &e.CategoryID,
		&cat.Name, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	cat.ID = e.CategoryID
	e.Category = &cat
	e.Tags = []model.Tag{}
	return &e, nil
}

// CreateExpense inserts the expense and links its tags in one transaction.
func (db *DB) CreateExpense(ctx context.Context, expense *model.Expense) error {
	now := time.Now().UTC()
	expense.ID = xid.New().String()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, idea_id, description, amount, date, category_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.IdeaID, expense.Description, expense.Amount, expense.Date.UTC(),
			expense.CategoryID, expense.CreatedAt, expense.UpdatedAt)
		if err != nil {
			return fmt.Errorf("sqlite: inserting expense: %w", err)
		}
		expense.Tags, err = linkTags(ctx, tx, "expense_tags", "expense_id", expense.ID, expense.Tags)
		return err
	})
}

// ListExpenses returns the idea's expenses, most recent date first.
func (db *DB) ListExpenses(ctx context.Context, ideaID string) ([]model.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		expenseSelect+` WHERE e.idea_id = ? ORDER BY e.date DESC, e.rowid DESC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing expenses: %w", err)
	}
	defer rows.Close()

	expenses := []model.Expense{}
	index := map[string]int{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning expense: %w", err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	tagRows, err := db.conn.QueryContext(ctx,
		`SELECT et.expense_id, g.id, g.name
		 FROM expense_tags et
		 JOIN tags g ON g.id = et.tag_id
		 JOIN expenses e ON e.id = et.expense_id
		 WHERE e.idea_id = ?
		 ORDER BY g.name`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing expense tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var (
			expenseID string
			tag       model.Tag
		)
		if err := tagRows.Scan(&expenseID, &tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning expense tag: %w", err)
		}
		if i, ok := index[expenseID]; ok {
			expenses[i].Tags = append(expenses[i].Tags, tag)
		}
	}
	return expenses, tagRows.Err()
}

func (db *DB) GetExpense(ctx context.Context, id string) (*model.Expense, error) {
	e, err := scanExpense(db.conn.QueryRowContext(ctx, expenseSelect+` WHERE e.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("expense", id)
		}
		return nil, fmt.Errorf("sqlite: getting expense %s: %w", id, err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.name FROM expense_tags et JOIN tags g ON g.id = et.tag_id
		 WHERE et.expense_id = ? ORDER BY g.name`, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags of expense %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag: %w", err)
		}
		e.Tags = append(e.Tags, tag)
	}
	return e, rows.Err()
}

func (db *DB) DeleteExpense(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting expense %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("expense", id))
}

func (db *DB) ListCategories(ctx context.Context) ([]model.ExpenseCategory, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	defer rows.Close()

	categories := []model.ExpenseCategory{}
	for rows.Next() {
		var c model.ExpenseCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (db *DB) CreateCategory(ctx context.Context, category *model.ExpenseCategory) error {
	category.ID = xid.New().String()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO expense_categories (id, name) VALUES (?, ?)`, category.ID, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("category", category.Name)
		}
		return fmt.Errorf("sqlite: inserting category: %w", err)
	}
	return nil
}

func (db *DB) GetCategory(ctx context.Context, id string) (*model.ExpenseCategory, error) {
	var c model.ExpenseCategory
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name FROM expense_categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("sqlite: getting category %s: %w", id, err)
	}
	return &c, nil
}
