package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
)

func newTestChatService(f *fixture) *ChatService {
	return NewChatService(f.db, f.db, f.db, f.db, f.ai, testLogger())
}

func TestChatSend(t *testing.T) {
	f := newFixture(t)
	svc := newTestChatService(f)
	ctx := context.Background()

	f.questions(t, "Who buys?", "Office workers")
	require.NoError(t, f.db.CreateTasks(ctx, []*model.Task{{IdeaID: f.idea.ID, Content: "Buy oven", Status: model.TaskToDo}}))
	category := &model.ExpenseCategory{Name: "Equipment"}
	require.NoError(t, f.db.CreateCategory(ctx, category))
	require.NoError(t, f.db.CreateExpense(ctx, &model.Expense{
		IdeaID: f.idea.ID, Description: "Oven", Amount: 1500, CategoryID: category.ID,
		Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	f.llm.text[llm.PromptAssistant] = "Start with a small oven."
	reply, err := svc.Send(ctx, f.owner.ID, f.idea.ID, "  What should I buy first?  ")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "Start with a small oven.", reply.Content)

	req := f.llm.lastRequest(t)
	assert.Equal(t, llm.TierChat, req.Tier)
	assert.Equal(t, "What should I buy first?", req.User)
	assert.Contains(t, req.System, "- Oven: 1500.00 BRL (01/06/2024)")
	assert.Contains(t, req.System, "- Buy oven (Status: to_do)")
	assert.Contains(t, req.System, "Q: Who buys?")
	assert.Contains(t, req.System, "Always answer in English.")

	history, err := svc.History(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleAssistant, history[1].Role)
}

func TestChatSend_KeepsUserMessageOnFailure(t *testing.T) {
	f := newFixture(t)
	svc := newTestChatService(f)
	ctx := context.Background()

	_, err := svc.Send(ctx, f.owner.ID, f.idea.ID, "Hello?")
	assert.ErrorIs(t, err, apperror.ErrUpstream)

	history, err := svc.History(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Hello?", history[0].Content)
}

func TestChatSend_Validation(t *testing.T) {
	f := newFixture(t)
	svc := newTestChatService(f)
	ctx := context.Background()

	_, err := svc.Send(ctx, f.owner.ID, f.idea.ID, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = svc.Send(ctx, f.stranger.ID, f.idea.ID, "hi")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Zero(t, f.llm.calls())
}
