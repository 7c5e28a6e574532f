package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/ideaforge/internal/model"
)

// newTestDB returns a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestIdea(t *testing.T, db *DB, userID, description string) *model.Idea {
	t.Helper()
	idea := &model.Idea{UserID: userID, Title: "Test idea", Description: description}
	if err := db.CreateIdea(context.Background(), idea); err != nil {
		t.Fatalf("failed to create test idea: %v", err)
	}
	return idea
}

func tagNames(tags []model.Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}
