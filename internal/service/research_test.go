package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
)

func TestResearch(t *testing.T) {
	f := newFixture(t)
	svc := NewResearchService(f.db, f.db, f.ai, testLogger())
	ctx := context.Background()
	f.questions(t, "Who buys?", "Office workers")

	f.llm.text[llm.PromptMarketResearch] = "The bread market is growing."
	r, err := svc.Generate(ctx, f.owner.ID, f.idea.ID, ResearchInput{
		Location: " Lisbon ",
		Options:  []string{"competitors", " ", "pricing "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", r.Location)
	assert.Equal(t, "The bread market is growing.", r.Content)

	req := f.llm.lastRequest(t)
	assert.Contains(t, req.User, "Location: Lisbon")
	assert.Contains(t, req.User, "Selected research options: competitors, pricing\n")
	assert.Contains(t, req.User, "Q: Who buys?\nA: Office workers")

	list, err := svc.List(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.Get(ctx, f.stranger.ID, r.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, f.owner.ID, r.ID))
	_, err = svc.Get(ctx, f.owner.ID, r.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResearch_FailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	svc := NewResearchService(f.db, f.db, f.ai, testLogger())
	ctx := context.Background()

	_, err := svc.Generate(ctx, f.owner.ID, f.idea.ID, ResearchInput{})
	assert.ErrorIs(t, err, apperror.ErrUpstream)

	list, err := svc.List(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResearch_DefaultOptions(t *testing.T) {
	f := newFixture(t)
	svc := NewResearchService(f.db, f.db, f.ai, testLogger())
	f.llm.text[llm.PromptMarketResearch] = "Report."

	_, err := svc.Generate(context.Background(), f.owner.ID, f.idea.ID, ResearchInput{Options: []string{""}})
	require.NoError(t, err)
	assert.Contains(t, f.llm.lastRequest(t).User,
		"Selected research options: market size, target audience, competitors, pricing, trends")
}
