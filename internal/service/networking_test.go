package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/llm"
)

func TestNetworkingSearchByAI(t *testing.T) {
	f := newFixture(t)
	search := &fakeSearcher{posts: []json.RawMessage{json.RawMessage(`{"text":"hello"}`)}}
	svc := NewNetworkingService(f.db, f.db, search, f.ai, testLogger())

	f.llm.text[llm.PromptNetworking] = " artisan bakery , bike delivery,"
	res, err := svc.SearchByAI(context.Background(), f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"artisan bakery", "bike delivery"}, res.Keywords)
	assert.Len(t, res.Posts, 1)
	assert.Equal(t, []string{"artisan bakery"}, search.keywords)
}

func TestNetworkingManualSearch(t *testing.T) {
	f := newFixture(t)
	search := &fakeSearcher{posts: []json.RawMessage{}}
	svc := NewNetworkingService(f.db, f.db, search, f.ai, testLogger())
	ctx := context.Background()

	res, err := svc.ManualSearch(ctx, f.owner.ID, f.idea.ID, "bread, startups ,")
	require.NoError(t, err)
	assert.Empty(t, res.Posts)
	assert.Equal(t, []string{"bread startups"}, search.keywords)

	_, err = svc.ManualSearch(ctx, f.owner.ID, f.idea.ID, " , ")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	search.err = linkedin.ErrUnexpectedResponse
	_, err = svc.ManualSearch(ctx, f.owner.ID, f.idea.ID, "bread")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.ErrorIs(t, err, linkedin.ErrUnexpectedResponse)
}

func TestNetworkingContacts(t *testing.T) {
	f := newFixture(t)
	svc := NewNetworkingService(f.db, f.db, &fakeSearcher{}, f.ai, testLogger())
	ctx := context.Background()

	_, err := svc.SaveContact(ctx, f.owner.ID, f.idea.ID, ContactInput{Name: "  "})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	c, err := svc.SaveContact(ctx, f.owner.ID, f.idea.ID, ContactInput{Name: "Ana", Company: "Flour Co"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	contacts, err := svc.Contacts(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}

func TestNetworkingPosts(t *testing.T) {
	f := newFixture(t)
	svc := NewNetworkingService(f.db, f.db, &fakeSearcher{}, f.ai, testLogger())
	ctx := context.Background()

	var item linkedin.Post
	require.NoError(t, json.Unmarshal([]byte(`{
		"author": {"fullName": "Jane Baker"},
		"text": "Sourdough tips",
		"url": "https://www.linkedin.com/posts/1",
		"socialActivityCountsInsight": {"likeCount": 12, "numComments": 3}
	}`), &item))

	saved, err := svc.SavePost(ctx, f.owner.ID, f.idea.ID, item)
	require.NoError(t, err)
	assert.Equal(t, "Jane Baker", saved.AuthorName)
	assert.Equal(t, 12, saved.LikesCount)
	assert.Equal(t, 3, saved.CommentsCount)

	blank, err := svc.SavePost(ctx, f.owner.ID, f.idea.ID, linkedin.Post{})
	require.NoError(t, err)
	assert.Equal(t, UnknownPostAuthor, blank.AuthorName)
	assert.Equal(t, MissingPostContent, blank.Content)

	posts, err := svc.Posts(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	other := createIdea(t, f.db, f.owner.ID, "Other idea")
	assert.ErrorIs(t, svc.DeletePost(ctx, f.owner.ID, other.ID, saved.ID), apperror.ErrNotFound)
	assert.ErrorIs(t, svc.DeletePost(ctx, f.stranger.ID, f.idea.ID, saved.ID), apperror.ErrForbidden)
	require.NoError(t, svc.DeletePost(ctx, f.owner.ID, f.idea.ID, saved.ID))

	posts, err = svc.Posts(ctx, f.owner.ID, f.idea.ID)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}
