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

func TestExpenses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	cat := &model.ExpenseCategory{Name: "Rent"}
	if err := db.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}
	if err := db.CreateCategory(ctx, &model.ExpenseCategory{Name: "Rent"}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateCategory() duplicate error = %v, want ErrConflict", err)
	}

	older := &model.Expense{IdeaID: idea.ID, Description: "Deposit", Amount: 500,
		Date: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), CategoryID: cat.ID}
	newer := &model.Expense{IdeaID: idea.ID, Description: "March", Amount: 1200.5,
		Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), CategoryID: cat.ID, Tags: []model.Tag{{Name: "office"}}}
	for _, e := range []*model.Expense{older, newer} {
		if err := db.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}
	}

	list, err := db.ListExpenses(ctx, idea.ID)
	if err != nil {
		t.Fatalf("ListExpenses() error = %v", err)
	}
	if len(list) != 2 || list[0].Description != "March" {
		t.Fatalf("ListExpenses() = %+v, want newest date first", list)
	}
	if list[0].Category == nil || list[0].Category.Name != "Rent" {
		t.Errorf("Category = %+v, want Rent", list[0].Category)
	}
	if len(list[0].Tags) != 1 || len(list[1].Tags) != 0 {
		t.Errorf("tags = %v / %v", list[0].Tags, list[1].Tags)
	}

	got, err := db.GetExpense(ctx, newer.ID)
	if err != nil {
		t.Fatalf("GetExpense() error = %v", err)
	}
	if got.Amount != 1200.5 || !got.Date.Equal(newer.Date) {
		t.Errorf("GetExpense() = %+v", got)
	}

	if err := db.DeleteExpense(ctx, older.ID); err != nil {
		t.Fatalf("DeleteExpense() error = %v", err)
	}
	if _, err := db.GetExpense(ctx, older.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetExpense() after delete error = %v", err)
	}
}

func TestGoals(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	deadline := time.Date(2030, 6, 30, 0, 0, 0, 0, time.UTC)
	goals := []*model.Goal{
		{IdeaID: idea.ID, Title: "Reach 100 clients", Category: model.GoalSpecific, Deadline: &deadline, Aggression: 4, Timeframe: "quarterly"},
		{IdeaID: idea.ID, Title: "Grow 10%", Category: model.GoalMeasurable},
	}
	if err := db.CreateGoals(ctx, goals); err != nil {
		t.Fatalf("CreateGoals() error = %v", err)
	}

	list, err := db.ListGoals(ctx, idea.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Status != model.GoalInProgress || list[0].Aggression != 4 {
		t.Fatalf("ListGoals() = %+v", list)
	}
	if list[1].Deadline != nil {
		t.Errorf("second goal deadline = %v, want nil", list[1].Deadline)
	}

	g := &list[0]
	g.Progress = 60
	g.Deadline = nil
	if err := db.UpdateGoal(ctx, g); err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}
	got, _ := db.GetGoal(ctx, g.ID)
	if got.Progress != 60 || got.Deadline != nil {
		t.Errorf("GetGoal() = %+v", got)
	}

	if err := db.DeleteGoal(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}
	if err := db.DeleteGoal(ctx, g.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteGoal() twice error = %v, want ErrNotFound", err)
	}
}

func TestLegalStepsAndConsultations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	db.ReplaceLegalSteps(ctx, idea.ID, []*model.LegalStep{{Description: "old", Order: 1}})
	err := db.ReplaceLegalSteps(ctx, idea.ID, []*model.LegalStep{
		{Description: "Register company", Order: 1},
		{Description: "Get permits", Order: 2},
	})
	if err != nil {
		t.Fatalf("ReplaceLegalSteps() error = %v", err)
	}

	steps, _ := db.ListLegalSteps(ctx, idea.ID)
	if len(steps) != 2 || steps[0].Description != "Register company" {
		t.Fatalf("ListLegalSteps() = %+v", steps)
	}

	if err := db.UpdateLegalStepProgress(ctx, steps[1].ID, 50); err != nil {
		t.Fatalf("UpdateLegalStepProgress() error = %v", err)
	}
	step, _ := db.GetLegalStep(ctx, steps[1].ID)
	if step.Progress != 50 {
		t.Errorf("Progress = %d, want 50", step.Progress)
	}

	q := &model.LegalConsultation{IdeaID: idea.ID, Message: "Do I need a license?", IsUser: true}
	r := &model.LegalConsultation{IdeaID: idea.ID, Message: "Yes."}
	if err := db.CreateConsultationExchange(ctx, q, r, 1); err != nil {
		t.Fatalf("CreateConsultationExchange() error = %v", err)
	}
	extraQ := &model.LegalConsultation{IdeaID: idea.ID, Message: "And a permit?", IsUser: true}
	extraR := &model.LegalConsultation{IdeaID: idea.ID, Message: "Maybe."}
	if err := db.CreateConsultationExchange(ctx, extraQ, extraR, 1); !errors.Is(err, repository.ErrLimitReached) {
		t.Fatalf("CreateConsultationExchange() over the limit error = %v, want ErrLimitReached", err)
	}

	n, err := db.CountUserConsultations(ctx, idea.ID)
	if err != nil || n != 1 {
		t.Errorf("CountUserConsultations() = %d, %v; want 1", n, err)
	}
	thread, _ := db.ListLegalConsultations(ctx, idea.ID)
	if len(thread) != 2 || !thread[0].IsUser || thread[1].IsUser {
		t.Errorf("thread = %+v, want question then reply", thread)
	}
}

func TestResearch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	r := &model.MarketResearch{IdeaID: idea.ID, Content: "Market is big", Location: "São Paulo"}
	if err := db.CreateResearch(ctx, r); err != nil {
		t.Fatalf("CreateResearch() error = %v", err)
	}
	got, err := db.GetResearch(ctx, r.ID)
	if err != nil || got.Location != "São Paulo" {
		t.Fatalf("GetResearch() = %+v, %v", got, err)
	}
	list, _ := db.ListResearch(ctx, idea.ID)
	if len(list) != 1 {
		t.Errorf("ListResearch() returned %d, want 1", len(list))
	}
	if err := db.DeleteResearch(ctx, r.ID); err != nil {
		t.Fatalf("DeleteResearch() error = %v", err)
	}
}

func TestNetworking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	if err := db.CreateContact(ctx, &model.NetworkingContact{IdeaID: idea.ID, Name: "Bob", Company: "ACME"}); err != nil {
		t.Fatalf("CreateContact() error = %v", err)
	}
	contacts, _ := db.ListContacts(ctx, idea.ID)
	if len(contacts) != 1 || contacts[0].Company != "ACME" {
		t.Errorf("ListContacts() = %+v", contacts)
	}

	post := &model.NetworkingPost{IdeaID: idea.ID, AuthorName: "Carol", Content: "Hiring!", LikesCount: 3, CommentsCount: 1}
	if err := db.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost() error = %v", err)
	}
	got, err := db.GetPost(ctx, post.ID)
	if err != nil || got.LikesCount != 3 {
		t.Fatalf("GetPost() = %+v, %v", got, err)
	}
	if err := db.DeletePost(ctx, post.ID); err != nil {
		t.Fatalf("DeletePost() error = %v", err)
	}
	posts, _ := db.ListPosts(ctx, idea.ID)
	if len(posts) != 0 {
		t.Errorf("ListPosts() after delete = %+v", posts)
	}
}

func TestCustomersAndStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	for _, c := range []*model.Customer{
		{IdeaID: idea.ID, Name: "A", Category: "retail"},
		{IdeaID: idea.ID, Name: "B", Category: "retail", Status: "active"},
		{IdeaID: idea.ID, Name: "C"},
	} {
		if err := db.CreateCustomer(ctx, c); err != nil {
			t.Fatalf("CreateCustomer() error = %v", err)
		}
	}

	stats, err := db.CustomerStats(ctx, idea.ID)
	if err != nil {
		t.Fatalf("CustomerStats() error = %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, want 3", stats.Total)
	}
	if stats.ByStatus["lead"] != 2 || stats.ByStatus["active"] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	if stats.ByCategory["retail"] != 2 || stats.ByCategory["unknown"] != 1 {
		t.Errorf("ByCategory = %v", stats.ByCategory)
	}

	list, _ := db.ListCustomers(ctx, idea.ID)
	c := &list[0]
	c.Email = "a@example.com"
	if err := db.UpdateCustomer(ctx, c); err != nil {
		t.Fatalf("UpdateCustomer() error = %v", err)
	}
	got, _ := db.GetCustomer(ctx, c.ID)
	if got.Email != "a@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
	if err := db.DeleteCustomer(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCustomer() error = %v", err)
	}
}

func TestScheduledMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")
	customer := &model.Customer{IdeaID: idea.ID, Name: "A", Phone: "+100"}
	db.CreateCustomer(ctx, customer)

	now := time.Now().UTC()
	due := &model.ScheduledMessage{IdeaID: idea.ID, CustomerID: customer.ID, Channel: model.ChannelWhatsApp,
		Recipient: customer.Phone, Body: "due", SendAt: now.Add(-time.Minute)}
	later := &model.ScheduledMessage{IdeaID: idea.ID, CustomerID: customer.ID, Channel: model.ChannelWhatsApp,
		Recipient: customer.Phone, Body: "later", SendAt: now.Add(time.Hour)}
	for _, m := range []*model.ScheduledMessage{due, later} {
		if err := db.CreateScheduledMessage(ctx, m); err != nil {
			t.Fatalf("CreateScheduledMessage() error = %v", err)
		}
	}

	pending, err := db.DueScheduledMessages(ctx, now, 10)
	if err != nil {
		t.Fatalf("DueScheduledMessages() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != due.ID {
		t.Fatalf("DueScheduledMessages() = %+v, want only the due message", pending)
	}

	claimed, err := db.ClaimScheduledMessage(ctx, due.ID)
	if err != nil || !claimed {
		t.Fatalf("ClaimScheduledMessage() = %v, %v; want true, nil", claimed, err)
	}
	if claimed, _ := db.ClaimScheduledMessage(ctx, due.ID); claimed {
		t.Error("ClaimScheduledMessage() claimed the same message twice")
	}
	pending, _ = db.DueScheduledMessages(ctx, now, 10)
	if len(pending) != 0 {
		t.Errorf("DueScheduledMessages() returned a claimed message: %+v", pending)
	}

	if err := db.MarkMessageSent(ctx, due.ID, now); err != nil {
		t.Fatalf("MarkMessageSent() error = %v", err)
	}
	if err := db.MarkMessageFailed(ctx, later.ID, "boom"); err != nil {
		t.Fatalf("MarkMessageFailed() error = %v", err)
	}

	pending, _ = db.DueScheduledMessages(ctx, now.Add(2*time.Hour), 10)
	if len(pending) != 0 {
		t.Errorf("DueScheduledMessages() after marking = %+v, want none", pending)
	}

	all, _ := db.ListScheduledMessages(ctx, idea.ID)
	if len(all) != 2 || all[0].Status != model.MessageFailed || all[0].Error != "boom" {
		t.Errorf("ListScheduledMessages() = %+v", all)
	}
	if all[1].SentAt == nil {
		t.Error("sent message has no SentAt")
	}
}

func TestChatMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	idea := createTestIdea(t, db, user.ID, "idea")

	db.CreateChatMessage(ctx, &model.ChatMessage{IdeaID: idea.ID, Role: model.RoleUser, Content: "hi"})
	db.CreateChatMessage(ctx, &model.ChatMessage{IdeaID: idea.ID, Role: model.RoleAssistant, Content: "hello"})

	msgs, err := db.ListChatMessages(ctx, idea.ID)
	if err != nil {
		t.Fatalf("ListChatMessages() error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != model.RoleUser || msgs[1].Content != "hello" {
		t.Errorf("ListChatMessages() = %+v", msgs)
	}
}
