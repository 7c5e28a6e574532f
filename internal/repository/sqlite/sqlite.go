// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary
// builds without CGo. Connection settings are passed as _pragma DSN
// parameters, which makes them apply to every connection in the pool
// rather than only the first one.
//
// PRAGMAS:
//
//	foreign_keys(1)     → ON DELETE CASCADE works; SQLite leaves it off by default
//	busy_timeout(5000)  → a writer waits up to 5s for the lock instead of
//	                      failing at once with SQLITE_BUSY
//	journal_mode(wal)   → readers keep reading while one writer writes
//	                      (files only; memory databases have no journal file)
//
// The pattern is always:
//  1. sql.Open(driverName, dataSourceName) → creates a pool
//  2. db.QueryContext / db.ExecContext     → runs queries
//  3. rows.Scan(&field1, &field2)          → reads results into Go variables
//
// Multi-row writes go through withTx. Code running inside a transaction only
// ever talks to the *sql.Tx: in-memory databases use a single connection, so
// reaching for db.conn there would block forever.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements every repository interface.
type DB struct {
	conn *sql.DB
}

// querier is the subset of *sql.DB and *sql.Tx used by helpers that must run
// both inside and outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the database and runs migrations.
//
// dbPath examples:
//   - "data/ideas.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a brand new empty database.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func dsn(dbPath string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)", "_time_format=sqlite"}
	if !isMemory(dbPath) {
		pragmas = append(pragmas, "_pragma=journal_mode(wal)")
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(pragmas, "&")
}

func isMemory(dbPath string) bool {
	return strings.HasPrefix(dbPath, ":memory:") || strings.Contains(dbPath, "mode=memory")
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// checkAffected turns "no rows touched" into a NotFound error.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: reading rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// migrate creates the schema. Every statement is idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id                    TEXT PRIMARY KEY,
			username              TEXT NOT NULL UNIQUE,
			email                 TEXT NOT NULL UNIQUE,
			password_hash         TEXT NOT NULL DEFAULT '',
			github_id             INTEGER UNIQUE,
			full_name             TEXT NOT NULL DEFAULT '',
			bio                   TEXT NOT NULL DEFAULT '',
			email_for_sending     TEXT NOT NULL DEFAULT '',
			email_password        TEXT NOT NULL DEFAULT '',
			smtp_server           TEXT NOT NULL DEFAULT '',
			smtp_port             INTEGER NOT NULL DEFAULT 0,
			language              TEXT NOT NULL DEFAULT 'pt',
			timezone              TEXT NOT NULL DEFAULT 'UTC-3',
			receive_notifications INTEGER NOT NULL DEFAULT 1,
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS ideas (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_ideas_user_id ON ideas(user_id);

		CREATE TABLE IF NOT EXISTS questions (
			id       TEXT PRIMARY KEY,
			idea_id  TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			text     TEXT NOT NULL,
			answer   TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_questions_idea_id ON questions(idea_id);
	`)
	if err != nil {
		return fmt.Errorf("creating user and idea tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tags (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE COLLATE NOCASE
		);

		-- Databases created before tag names were case-insensitive keep
		-- their old column; the index gives them the same rule.
		CREATE UNIQUE INDEX IF NOT EXISTS idx_tags_name_nocase ON tags(name COLLATE NOCASE);

		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			idea_id     TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			content     TEXT NOT NULL,
			status      TEXT NOT NULL DEFAULT 'to_do',
			position    INTEGER NOT NULL DEFAULT 0,
			due_date    DATETIME,
			criticality INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_idea_id ON tasks(idea_id);

		CREATE TABLE IF NOT EXISTS task_tags (
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			tag_id  TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (task_id, tag_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating task tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS swots (
			id         TEXT PRIMARY KEY,
			idea_id    TEXT NOT NULL UNIQUE REFERENCES ideas(id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS swot_items (
			id         TEXT PRIMARY KEY,
			swot_id    TEXT NOT NULL REFERENCES swots(id) ON DELETE CASCADE,
			category   TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_swot_items_swot_id ON swot_items(swot_id);

		CREATE TABLE IF NOT EXISTS swot_analyses (
			id         TEXT PRIMARY KEY,
			swot_id    TEXT NOT NULL REFERENCES swots(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating swot tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS expense_categories (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS expenses (
			id          TEXT PRIMARY KEY,
			idea_id     TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			amount      REAL NOT NULL,
			date        DATETIME NOT NULL,
			category_id TEXT NOT NULL REFERENCES expense_categories(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_expenses_idea_id ON expenses(idea_id);

		CREATE TABLE IF NOT EXISTS expense_tags (
			expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
			tag_id     TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
			PRIMARY KEY (expense_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id         TEXT PRIMARY KEY,
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_chat_messages_idea_id ON chat_messages(idea_id);
	`)
	if err != nil {
		return fmt.Errorf("creating expense and chat tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS goals (
			id          TEXT PRIMARY KEY,
			idea_id     TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			deadline    DATETIME,
			status      TEXT NOT NULL DEFAULT 'in_progress',
			category    TEXT NOT NULL,
			progress    INTEGER NOT NULL DEFAULT 0,
			timeframe   TEXT NOT NULL DEFAULT '',
			aggression  INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_goals_idea_id ON goals(idea_id);

		CREATE TABLE IF NOT EXISTS market_research (
			id         TEXT PRIMARY KEY,
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			content    TEXT NOT NULL,
			location   TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS legal_steps (
			id          TEXT PRIMARY KEY,
			idea_id     TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			position    INTEGER NOT NULL,
			progress    INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS legal_consultations (
			id         TEXT PRIMARY KEY,
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			message    TEXT NOT NULL,
			is_user    INTEGER NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating goal, research and legal tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS networking_contacts (
			id           TEXT PRIMARY KEY,
			idea_id      TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			name         TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			company      TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			notes        TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS networking_posts (
			id             TEXT PRIMARY KEY,
			idea_id        TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			author_name    TEXT NOT NULL,
			content        TEXT NOT NULL,
			linkedin_url   TEXT NOT NULL DEFAULT '',
			likes_count    INTEGER NOT NULL DEFAULT 0,
			comments_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS customers (
			id         TEXT PRIMARY KEY,
			idea_id    TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			phone      TEXT NOT NULL DEFAULT '',
			company    TEXT NOT NULL DEFAULT '',
			category   TEXT NOT NULL DEFAULT '',
			address    TEXT NOT NULL DEFAULT '',
			notes      TEXT NOT NULL DEFAULT '',
			facebook   TEXT NOT NULL DEFAULT '',
			instagram  TEXT NOT NULL DEFAULT '',
			linkedin   TEXT NOT NULL DEFAULT '',
			twitter    TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_customers_idea_id ON customers(idea_id);

		CREATE TABLE IF NOT EXISTS scheduled_messages (
			id          TEXT PRIMARY KEY,
			idea_id     TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			customer_id TEXT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			channel     TEXT NOT NULL,
			recipient   TEXT NOT NULL,
			body        TEXT NOT NULL,
			send_at     DATETIME NOT NULL,
			status      TEXT NOT NULL DEFAULT 'pending',
			error       TEXT NOT NULL DEFAULT '',
			sent_at     DATETIME,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scheduled_messages_due ON scheduled_messages(status, send_at);
	`)
	if err != nil {
		return fmt.Errorf("creating networking, customer and outbox tables: %w", err)
	}

	// customers.status arrived after the first release.
	if err := db.addColumnIfNotExists("customers", "status",
		"TEXT NOT NULL DEFAULT 'lead'"); err != nil {
		return fmt.Errorf("adding status to customers: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
