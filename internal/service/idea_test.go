package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
)

func TestIdeaCreate_UsesGeneratedTitle(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())
	f.llm.json[llm.PromptTitle] = `{"title":"  Pedal Bread  "}`

	idea, err := svc.Create(context.Background(), f.owner.ID, "  Fresh bread delivered by bike  ")
	require.NoError(t, err)
	assert.Equal(t, "Pedal Bread", idea.Title)
	assert.Equal(t, "Fresh bread delivered by bike", idea.Description)

	req := f.llm.lastRequest(t)
	assert.Equal(t, llm.PromptTitle, req.Name)
	assert.Contains(t, req.User, "Fresh bread delivered by bike")
	assert.Contains(t, req.System+req.User, "English")
}

func TestIdeaCreate_FallbackTitleOnFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())

	idea, err := svc.Create(context.Background(), f.owner.ID, "A coffee cart")
	require.NoError(t, err)
	assert.Equal(t, FallbackIdeaTitle, idea.Title)

	stored, err := f.db.GetIdea(context.Background(), idea.ID)
	require.NoError(t, err)
	assert.Equal(t, FallbackIdeaTitle, stored.Title)
}

func TestIdeaCreate_RequiresDescription(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())

	_, err := svc.Create(context.Background(), f.owner.ID, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Zero(t, f.llm.calls())
}

func TestIdeaOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())
	ctx := context.Background()

	_, err := svc.Get(ctx, f.stranger.ID, f.idea.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.Get(ctx, f.owner.ID, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, f.stranger.ID, f.idea.ID), apperror.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, f.owner.ID, f.idea.ID))
	_, err = svc.Get(ctx, f.owner.ID, f.idea.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestIdeaList(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())
	createIdea(t, f.db, f.owner.ID, "Second idea")
	createIdea(t, f.db, f.stranger.ID, "Not mine")

	ideas, err := svc.List(context.Background(), f.owner.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, ideas, 2)

	ideas, err = svc.List(context.Background(), f.owner.ID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, ideas, 1)
}

func TestGenerateQuestionsAndAnswers(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())
	ctx := context.Background()

	f.llm.json[llm.PromptQuestions] = `{"questions":[{"text":"Who buys?"},{"text":" "},{"text":"Where?"}]}`

	questions, err := svc.GenerateQuestions(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "Who buys?", questions[0].Text)
	assert.Equal(t, 1, questions[1].Position)
	assert.Contains(t, f.llm.lastRequest(t).System, "exactly 5 questions")

	answered, err := svc.SaveAnswers(ctx, f.owner.ID, f.idea.ID, []string{" Office workers ", "Downtown", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, "Office workers", answered[0].Answer)
	assert.Equal(t, "Downtown", answered[1].Answer)

	detail, err := svc.Get(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Questions, 2)

	// A second round is appended; the first round keeps its answers.
	f.llm.json[llm.PromptQuestions] = `{"questions":[{"text":"How much?"}]}`
	more, err := svc.GenerateQuestions(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, more, 1)
	assert.Equal(t, 2, more[0].Position)

	detail, err = svc.Get(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 3)
	assert.Equal(t, "Office workers", detail.Questions[0].Answer)
	assert.Equal(t, "How much?", detail.Questions[2].Text)
	assert.Empty(t, detail.Questions[2].Answer)
}

func TestGenerateQuestions_Failures(t *testing.T) {
	f := newFixture(t)
	svc := NewIdeaService(f.db, f.ai, testLogger())
	ctx := context.Background()

	_, err := svc.GenerateQuestions(ctx, f.owner.ID, f.idea.ID)
	assert.ErrorIs(t, err, apperror.ErrUpstream)

	f.llm.json[llm.PromptQuestions] = `{"questions":[]}`
	_, err = svc.GenerateQuestions(ctx, f.owner.ID, f.idea.ID)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}
