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

func TestExpenseHandler(t *testing.T) {
	env := newTestEnv(t)
	h := handler.NewExpenseHandler(service.NewExpenseService(env.db, env.db, env.ai, testLogger()), testLogger())
	owner := env.register(t, "owner")
	stranger := env.register(t, "stranger")
	ideaParams := map[string]string{"ideaID": env.idea(t, owner.ID).ID}

	t.Run("analysis with nothing recorded", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleAnalyze(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))

		require.Equal(t, http.StatusOK, rr.Code)
		out := decodeBody[map[string]string](t, rr)
		assert.Equal(t, service.NoExpensesAnalysis, out["analysis"])
	})

	rr := httptest.NewRecorder()
	h.HandleCreateCategory(rr, newRequest(http.MethodPost, "/", `{"name":"Equipment"}`, "", nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	category := decodeBody[model.ExpenseCategory](t, rr)

	t.Run("duplicate category", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleCreateCategory(rr, newRequest(http.MethodPost, "/", `{"name":"Equipment"}`, "", nil))
		assert.Equal(t, http.StatusConflict, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleCategories(rr, newRequest(http.MethodGet, "/", "", "", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.ExpenseCategory](t, rr), 1)
	})

	body := `{"description":"Oven","amount":1500,"date":"2024-06-01","categoryId":"` + category.ID + `","tags":["kitchen"]}`
	rr = httptest.NewRecorder()
	h.HandleCreate(rr, newRequest(http.MethodPost, "/", body, owner.ID, ideaParams))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	expense := decodeBody[model.Expense](t, rr)
	assert.Equal(t, "Equipment", expense.Category.Name)
	require.Len(t, expense.Tags, 1)
	expenseParams := map[string]string{"expenseID": expense.ID}

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			body  string
			field string
		}{
			{"zero amount", `{"description":"Flour","amount":0,"categoryId":"` + category.ID + `"}`, "amount"},
			{"unknown category", `{"description":"Flour","amount":10,"categoryId":"nope"}`, "categoryId"},
			{"bad date", `{"description":"Flour","amount":10,"date":"June","categoryId":"` + category.ID + `"}`, "date"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rr := httptest.NewRecorder()
				h.HandleCreate(rr, newRequest(http.MethodPost, "/", tt.body, owner.ID, ideaParams))

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, tt.field, decodeBody[handler.ErrorResponse](t, rr).Field)
			})
		}
	})

	t.Run("stranger", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleList(rr, newRequest(http.MethodGet, "/", "", stranger.ID, ideaParams))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/", "", stranger.ID, expenseParams))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("analysis upstream failure", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleAnalyze(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("analysis", func(t *testing.T) {
		env.llm.text[llm.PromptExpenseAnalysis] = "Equipment dominates."

		rr := httptest.NewRecorder()
		h.HandleAnalyze(rr, newRequest(http.MethodPost, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "Equipment dominates.", decodeBody[map[string]string](t, rr)["analysis"])
	})

	t.Run("list and delete", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.HandleList(rr, newRequest(http.MethodGet, "/", "", owner.ID, ideaParams))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody[[]model.Expense](t, rr), 1)

		rr = httptest.NewRecorder()
		h.HandleDelete(rr, newRequest(http.MethodDelete, "/", "", owner.ID, expenseParams))
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = httptest.NewRecorder()
		h.HandleGet(rr, newRequest(http.MethodGet, "/", "", owner.ID, expenseParams))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}
