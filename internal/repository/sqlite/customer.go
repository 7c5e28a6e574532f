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

var _ repository.CustomerRepository = (*DB)(nil)

const customerColumns = `id, idea_id, name, email, phone, company, category, status, address, notes,
	facebook, instagram, linkedin, twitter, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(&c.ID, &c.IdeaID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Category, &c.Status,
		&c.Address, &c.Notes, &c.Facebook, &c.Instagram, &c.LinkedIn, &c.Twitter, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) CreateCustomer(ctx context.Context, c *model.Customer) error {
	now := time.Now().UTC()
	c.ID = xid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = model.DefaultCustomerStatus
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.IdeaID, c.Name, c.Email, c.Phone, c.Company, c.Category, c.Status, c.Address, c.Notes,
		c.Facebook, c.Instagram, c.LinkedIn, c.Twitter, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting customer: %w", err)
	}
	return nil
}

func (db *DB) ListCustomers(ctx context.Context, ideaID string) ([]model.Customer, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE idea_id = ? ORDER BY name COLLATE NOCASE, rowid`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (db *DB) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	c, err := scanCustomer(db.conn.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("customer", id)
		}
		return nil, fmt.Errorf("sqlite: getting customer %s: %w", id, err)
	}
	return c, nil
}

func (db *DB) UpdateCustomer(ctx context.Context, c *model.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := db.conn.ExecContext(ctx,
		`UPDATE customers SET name = ?, email = ?, phone = ?, company = ?, category = ?, status = ?,
			address = ?, notes = ?, facebook = ?, instagram = ?, linkedin = ?, twitter = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Company, c.Category, c.Status, c.Address, c.Notes,
		c.Facebook, c.Instagram, c.LinkedIn, c.Twitter, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("sqlite: updating customer %s: %w", c.ID, err)
	}
	return checkAffected(res, apperror.NotFound("customer", c.ID))
}

func (db *DB) DeleteCustomer(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting customer %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("customer", id))
}

// CustomerStats aggregates the idea's customers. Empty status or category
// values are reported under "unknown".
func (db *DB) CustomerStats(ctx context.Context, ideaID string) (*model.CustomerStats, error) {
	stats := &model.CustomerStats{ByStatus: map[string]int{}, ByCategory: map[string]int{}}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, category, COUNT(*) FROM customers WHERE idea_id = ? GROUP BY status, category`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: aggregating customers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status, category string
			n                int
		)
		if err := rows.Scan(&status, &category, &n); err != nil {
			return nil, fmt.Errorf("sqlite: scanning customer stats: %w", err)
		}
		if status == "" {
			status = "unknown"
		}
		if category == "" {
			category = "unknown"
		}
		stats.Total += n
		stats.ByStatus[status] += n
		stats.ByCategory[category] += n
	}
	return stats, rows.Err()
}
