package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

func TestCreateAndGetIdea(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "Bakery delivery app")

	got, err := db.GetIdea(context.Background(), idea.ID)
	if err != nil {
		t.Fatalf("GetIdea() error = %v", err)
	}
	if got.Description != "Bakery delivery app" || got.UserID != user.ID {
		t.Errorf("GetIdea() = %+v", got)
	}
}

func TestGetIdea_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetIdea(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("GetIdea() error = %v, want ErrNotFound", err)
	}
}

func TestListIdeas_ScopedToUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestIdea(t, db, alice.ID, "first")
	createTestIdea(t, db, alice.ID, "second")
	createTestIdea(t, db, bob.ID, "bob's")

	ideas, err := db.ListIdeas(context.Background(), alice.ID, repository.ListOptions{Limit: 10})
	if err != nil {
		t.Fatalf("ListIdeas() error = %v", err)
	}
	if len(ideas) != 2 {
		t.Fatalf("ListIdeas() returned %d ideas, want 2", len(ideas))
	}
	if ideas[0].Description != "second" {
		t.Errorf("ListIdeas()[0] = %q, want newest first", ideas[0].Description)
	}
}

func TestAppendQuestionsAndSaveAnswers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	first, err := db.AppendQuestions(ctx, idea.ID, []string{"Q1"})
	if err != nil {
		t.Fatalf("AppendQuestions() error = %v", err)
	}
	if len(first) != 1 || first[0].Position != 0 {
		t.Fatalf("AppendQuestions() on empty idea = %+v", first)
	}
	qs, err := db.AppendQuestions(ctx, idea.ID, []string{"Q2", "Q3"})
	if err != nil {
		t.Fatalf("AppendQuestions() error = %v", err)
	}
	if len(qs) != 2 || qs[0].Position != 1 || qs[1].Position != 2 {
		t.Fatalf("AppendQuestions() = %+v, want positions 1 and 2", qs)
	}

	// One extra answer is ignored, the third question stays unanswered.
	if err := db.SaveAnswers(ctx, idea.ID, []string{"A1", "A2"}); err != nil {
		t.Fatalf("SaveAnswers() error = %v", err)
	}

	got, err := db.ListQuestions(ctx, idea.ID)
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListQuestions() returned %d, want 3", len(got))
	}
	want := []string{"A1", "A2", ""}
	for i, q := range got {
		if q.Answer != want[i] {
			t.Errorf("question %d answer = %q, want %q", i, q.Answer, want[i])
		}
	}
}

func TestDeleteIdea_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "doomed")
	other := createTestIdea(t, db, user.ID, "survivor")

	if _, err := db.AppendQuestions(ctx, idea.ID, []string{"Q"}); err != nil {
		t.Fatal(err)
	}
	task := &model.Task{IdeaID: idea.ID, Content: "t", Tags: []model.Tag{{Name: "shared"}}}
	if err := db.CreateTasks(ctx, []*model.Task{task}); err != nil {
		t.Fatal(err)
	}
	swot, err := db.GetOrCreateSWOT(ctx, idea.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.CreateSWOTItem(ctx, &model.SWOTItem{SWOTID: swot.ID, Category: model.SWOTThreat, Content: "c"}); err != nil {
		t.Fatal(err)
	}
	cat := &model.ExpenseCategory{Name: "Marketing"}
	if err := db.CreateCategory(ctx, cat); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateExpense(ctx, &model.Expense{IdeaID: idea.ID, Description: "ads", Amount: 10,
		Date: time.Now(), CategoryID: cat.ID, Tags: []model.Tag{{Name: "shared"}}}); err != nil {
		t.Fatal(err)
	}
	customer := &model.Customer{IdeaID: idea.ID, Name: "ACME", Phone: "+5511999999999"}
	if err := db.CreateCustomer(ctx, customer); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateScheduledMessage(ctx, &model.ScheduledMessage{IdeaID: idea.ID, CustomerID: customer.ID,
		Channel: model.ChannelWhatsApp, Recipient: customer.Phone, Body: "hi", SendAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateChatMessage(ctx, &model.ChatMessage{IdeaID: idea.ID, Role: model.RoleUser, Content: "hi"}); err != nil {
		t.Fatal(err)
	}

	if err := db.DeleteIdea(ctx, idea.ID); err != nil {
		t.Fatalf("DeleteIdea() error = %v", err)
	}

	for _, table := range []string{"questions", "tasks", "task_tags", "swots", "swot_items",
		"expenses", "expense_tags", "customers", "scheduled_messages", "chat_messages"} {
		var n int
		if err := db.conn.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows after idea delete", table, n)
		}
	}

	var tags, categories int
	db.conn.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&tags)
	db.conn.QueryRow(`SELECT COUNT(*) FROM expense_categories`).Scan(&categories)
	if tags != 1 || categories != 1 {
		t.Errorf("shared rows removed: tags=%d categories=%d, want 1/1", tags, categories)
	}

	if _, err := db.GetIdea(ctx, other.ID); err != nil {
		t.Errorf("unrelated idea was affected: %v", err)
	}
}

func TestDeleteIdea_NotFound(t *testing.T) {
	db := newTestDB(t)

	if err := db.DeleteIdea(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("DeleteIdea() error = %v, want ErrNotFound", err)
	}
}
