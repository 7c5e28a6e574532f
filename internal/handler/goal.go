package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// GoalHandler serves SMART goals.
type GoalHandler struct {
	goals  *service.GoalService
	logger *slog.Logger
}

func NewGoalHandler(goals *service.GoalService, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/goals
func (h *GoalHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	goals, err := h.goals.List(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HTTP: POST /api/ideas/{ideaID}/goals
func (h *GoalHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.GoalInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Create(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, goal)
}

// HandleGenerate creates one goal per SMART category.
//
// HTTP: POST /api/ideas/{ideaID}/goals/generate
// REQUEST BODY: {"timeframe": "quarterly", "aggression": 3, "budget": 2000, "context": "..."}
// All fields are optional; an empty body uses the defaults.
func (h *GoalHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var params service.GoalParams
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}
	}

	goals, err := h.goals.Generate(r.Context(), userID, chi.URLParam(r, "ideaID"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// HTTP: PUT /api/goals/{goalID}
func (h *GoalHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch service.GoalPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	goal, err := h.goals.Update(r.Context(), userID, chi.URLParam(r, "goalID"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

// HTTP: DELETE /api/goals/{goalID}
func (h *GoalHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.goals.Delete(r.Context(), userID, chi.URLParam(r, "goalID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
