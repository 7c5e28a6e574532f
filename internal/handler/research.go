package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// ResearchHandler serves stored market studies.
type ResearchHandler struct {
	research *service.ResearchService
	logger   *slog.Logger
}

func NewResearchHandler(research *service.ResearchService, logger *slog.Logger) *ResearchHandler {
	return &ResearchHandler{research: research, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/research
func (h *ResearchHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	list, err := h.research.List(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGenerate runs and stores a new study.
//
// HTTP: POST /api/ideas/{ideaID}/research/generate
// REQUEST BODY: {"location": "Lisbon", "options": ["competitors", "pricing"]}
func (h *ResearchHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ResearchInput
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, err)
			return
		}
	}

	study, err := h.research.Generate(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, study)
}

// HTTP: GET /api/research/{researchID}
func (h *ResearchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	study, err := h.research.Get(r.Context(), userID, chi.URLParam(r, "researchID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, study)
}

// HTTP: DELETE /api/research/{researchID}
func (h *ResearchHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.research.Delete(r.Context(), userID, chi.URLParam(r, "researchID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
