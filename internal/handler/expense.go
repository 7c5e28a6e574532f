package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// ExpenseHandler serves expenses and the shared category list.
type ExpenseHandler struct {
	expenses *service.ExpenseService
	logger   *slog.Logger
}

func NewExpenseHandler(expenses *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/expenses
func (h *ExpenseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	expenses, err := h.expenses.List(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expenses)
}

// HandleCreate records an expense.
//
// HTTP: POST /api/ideas/{ideaID}/expenses
// REQUEST BODY: {"description": "Oven", "amount": 1500, "date": "2024-06-01", "categoryId": "...", "tags": ["equipment"]}
func (h *ExpenseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ExpenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.Create(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, expense)
}

// HTTP: GET /api/expenses/{expenseID}
func (h *ExpenseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.expenses.Get(r.Context(), userID, chi.URLParam(r, "expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// HTTP: DELETE /api/expenses/{expenseID}
func (h *ExpenseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.expenses.Delete(r.Context(), userID, chi.URLParam(r, "expenseID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type analysisResponse struct {
	Analysis string `json:"analysis"`
}

// HandleAnalyze returns advice on the idea's spending.
//
// HTTP: POST /api/ideas/{ideaID}/expenses/analyze
func (h *ExpenseHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := h.expenses.Analyze(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{Analysis: analysis})
}

// HTTP: GET /api/categories
func (h *ExpenseHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.expenses.Categories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

type nameRequest struct {
	Name string `json:"name"`
}

// HTTP: POST /api/categories
// REQUEST BODY: {"name": "Marketing"}
func (h *ExpenseHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in nameRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.expenses.CreateCategory(r.Context(), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}
