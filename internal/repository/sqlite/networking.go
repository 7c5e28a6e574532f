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

var _ repository.NetworkingRepository = (*DB)(nil)

func (db *DB) CreateContact(ctx context.Context, c *model.NetworkingContact) error {
	c.ID = xid.New().String()
	c.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO networking_contacts (id, idea_id, name, title, company, linkedin_url, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.IdeaID, c.Name, c.Title, c.Company, c.LinkedInURL, c.Notes, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting contact: %w", err)
	}
	return nil
}

func (db *DB) ListContacts(ctx context.Context, ideaID string) ([]model.NetworkingContact, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, idea_id, name, title, company, linkedin_url, notes, created_at
		 FROM networking_contacts WHERE idea_id = ? ORDER BY created_at DESC, rowid DESC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.NetworkingContact{}
	for rows.Next() {
		var c model.NetworkingContact
		if err := rows.Scan(&c.ID, &c.IdeaID, &c.Name, &c.Title, &c.Company, &c.LinkedInURL, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (db *DB) CreatePost(ctx context.Context, p *model.NetworkingPost) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO networking_posts (id, idea_id, author_name, content, linkedin_url, likes_count, comments_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.IdeaID, p.AuthorName, p.Content, p.LinkedInURL, p.LikesCount, p.CommentsCount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}
	return nil
}

const postColumns = `id, idea_id, author_name, content, linkedin_url, likes_count, comments_count, created_at`

func (db *DB) ListPosts(ctx context.Context, ideaID string) ([]model.NetworkingPost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM networking_posts
		 WHERE idea_id = ? ORDER BY created_at DESC, rowid DESC`, ideaID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.NetworkingPost{}
	for rows.Next() {
		var p model.NetworkingPost
		if err := rows.Scan(&p.ID, &p.IdeaID, &p.AuthorName, &p.Content, &p.LinkedInURL,
			&p.LikesCount, &p.CommentsCount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (db *DB) GetPost(ctx context.Context, id string) (*model.NetworkingPost, error) {
	var p model.NetworkingPost
	err := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM networking_posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.IdeaID, &p.AuthorName, &p.Content, &p.LinkedInURL, &p.LikesCount, &p.CommentsCount, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return &p, nil
}

func (db *DB) DeletePost(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM networking_posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return checkAffected(res, apperror.NotFound("post", id))
}
