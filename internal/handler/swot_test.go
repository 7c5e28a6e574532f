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
	"github.com/sakif/ideaforge/internal/service"
)

func TestSWOTHandler(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewSWOTHandler(service.NewSWOTService(env.db, env.db, env.ai, testLogger()), testLogger())
	owner := env.register(t, "owner")
	stranger := env.register(t, "stranger")
	ideaParams := map[string]string{"ideaID": env.idea(t, owner.ID).ID}

	t.Run("empty board on first visit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleBoard(rr, newRequest(http.MethodGet, "/", "", owner.ID, ideaParams))

		require.Equal(t, http.StatusOK, rr.Code)
		board := decodeBody[model.SWOTBoard](t, rr)
		assert.Empty(t, board.Items)
		assert.Nil(t, board.LastAnalysis)
	})

	t.Run("stranger cannot see the board", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleBoard(rr, newRequest(http.MethodGet, "/", "", stranger.ID, ideaParams))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("analysis needs items", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleAnalyze(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "items", decodeBody[handler.ErrorResponse](t, rr).Field)
	})

	t.Run("generate upstream failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleGenerate(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("generate and analyze", func(t *testing.T) {
		env.llm.json[llm.PromptSWOT] = `{"strengths":["Fresh bread"],"weaknesses":["One bike"],
			"opportunities":["Offices nearby"],"threats":["Supermarkets"]}`
		env.llm.text[llm.PromptSWOTAnalysis] = "Lean on freshness."

		rr := httptest.NewRecorder()
		h.HandleGenerate(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Len(t, decodeBody[model.SWOTBoard](t, rr).Items, 4)

		rr = httptest.NewRecorder()
		h.HandleAnalyze(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Lean on freshness.", decodeBody[model.SWOTAnalysis](t, rr).Content)

		rr = httptest.NewRecorder()
		h.HandleBoard(rr, newRequest(http.MethodGet, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code)
		board := decodeBody[model.SWOTBoard](t, rr)
		require.NotNil(t, board.LastAnalysis)
		assert.Equal(t, "Lean on freshness.", board.LastAnalysis.Content)
	})

	t.Run("items", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleAddItem(rr, newRequest(http.MethodPost, "/", `{"category":"strength","content":"Loyal regulars"}`, owner.ID, ideaParams))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		item := decodeBody[model.SWOTItem](t, rr)
		itemParams := map[string]string{"itemID": item.ID}

		rr = httptest.NewRecorder()
		h.HandleAddItem(rr, newRequest(http.MethodPost, "/", `{"category":"luck","content":"x"}`, owner.ID, ideaParams))
		assert.Equal(t, http.StatusBadRequest, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleUpdateItem(rr, newRequest(http.MethodPut, "/", `{"content":"Very loyal regulars"}`, owner.ID, itemParams))
		require.Equal(t, http.StatusOK, rr.Code)
		updated := decodeBody[model.SWOTItem](t, rr)
		assert.Equal(t, "Very loyal regulars", updated.Content)
		assert.Equal(t, model.SWOTStrength, updated.Category)

		rr = httptest.NewRecorder()
		h.HandleSetCategory(rr, newRequest(http.MethodPatch, "/", `{"category":"opportunity"}`, owner.ID, itemParams))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, model.SWOTOpportunity, decodeBody[model.SWOTItem](t, rr).Category)

		rr = httptest.NewRecorder()
		h.HandleDeleteItem(rr, newRequest(http.MethodDelete, "/", "", stranger.ID, itemParams))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleDeleteItem(rr, newRequest(http.MethodDelete, "/", "", owner.ID, itemParams))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleDeleteItem(rr, newRequest(http.MethodDelete, "/", "", owner.ID, itemParams))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
