package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/handler"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
)

func TestIdeaHandler(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewIdeaHandler(env.ideas, testLogger())
	owner := env.register(t, "owner")
	stranger := env.register(t, "stranger")

	env.llm.json[llm.PromptTitle] = `{"title":"Bike Bakery"}`

	var created model.Idea
	t.Run("create", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, newRequest(http.MethodPost, "/api/ideas",
			`{"description":"Sourdough delivered by bike"}`, owner.ID, nil))

		require.Equal(t, http.StatusCreated, rr.Code)
		created = decodeBody[model.Idea](t, rr)
		assert.Equal(t, "Bike Bakery", created.Title)
		assert.Equal(t, owner.ID, created.UserID)
	})

	t.Run("create without description", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleCreate(rr, newRequest(http.MethodPost, "/api/ideas", `{"description":"  "}`, owner.ID, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "description", decodeBody[handler.ErrorResponse](t, rr).Field)
	})

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleList(rr, newRequest(http.MethodGet, "/api/ideas?limit=5", "", owner.ID, nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.Idea](t, rr), 1)
	})

	t.Run("list with a bad limit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleList(rr, newRequest(http.MethodGet, "/api/ideas?limit=ten", "", owner.ID, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("another user's idea", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/api/ideas/"+created.ID, "", stranger.ID,
			map[string]string{"ideaID": created.ID}))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("generate questions upstream failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleGenerateQuestions(rr, newRequest(http.MethodPost, "/", "", owner.ID,
			map[string]string{"ideaID": created.ID}))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "upstream_error", decodeBody[handler.ErrorResponse](t, rr).Error)
	})

	t.Run("questions and answers", func(t *testing.T) {
		env.llm.json[llm.PromptQuestions] = `{"questions":[{"text":"Who buys?"},{"text":"Where?"}]}`

		rr := httptest.NewRecorder()
		h.HandleGenerateQuestions(rr, newRequest(http.MethodPost, "/", "", owner.ID,
			map[string]string{"ideaID": created.ID}))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.Question](t, rr), 2)

		rr = httptest.NewRecorder()
		h.HandleSaveAnswers(rr, newRequest(http.MethodPut, "/", `{"answers":["Office workers","Lisbon"]}`, owner.ID,
			map[string]string{"ideaID": created.ID}))
		require.Equal(t, http.StatusOK, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/", "", owner.ID, map[string]string{"ideaID": created.ID}))
		require.Equal(t, http.StatusOK, rr.Code)
		detail := decodeBody[model.IdeaDetail](t, rr)
		require.Len(t, detail.Questions, 2)
		assert.Equal(t, "Lisbon", detail.Questions[1].Answer)
	})

	t.Run("delete", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleDelete(rr, newRequest(http.MethodDelete, "/", "", owner.ID, map[string]string{"ideaID": created.ID}))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/", "", owner.ID, map[string]string{"ideaID": created.ID}))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
