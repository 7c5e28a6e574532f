package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// LegalHandler serves the legal checklist and consultations.
type LegalHandler struct {
	legal  *service.LegalService
	logger *slog.Logger
}

func NewLegalHandler(legal *service.LegalService, logger *slog.Logger) *LegalHandler {
	return &LegalHandler{legal: legal, logger: logger}
}

// HandleOverview returns the steps and the consultation history together.
//
// HTTP: GET /api/ideas/{ideaID}/legal
func (h *LegalHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	overview, err := h.legal.Overview(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// HTTP: POST /api/ideas/{ideaID}/legal/generate
func (h *LegalHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	steps, err := h.legal.Generate(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

// HandleConsult answers a legal question. Each idea gets a limited number.
//
// HTTP: POST /api/ideas/{ideaID}/legal/consult
// REQUEST BODY: {"message": "Do I need a sanitary permit?"}
func (h *LegalHandler) HandleConsult(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in messageRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	reply, err := h.legal.Consult(r.Context(), userID, chi.URLParam(r, "ideaID"), in.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type progressRequest struct {
	Progress int `json:"progress"`
}

// HTTP: PUT /api/ideas/{ideaID}/legal/steps/{stepID}/progress
// REQUEST BODY: {"progress": 50}
func (h *LegalHandler) HandleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in progressRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	step, err := h.legal.UpdateProgress(r.Context(), userID,
		chi.URLParam(r, "ideaID"), chi.URLParam(r, "stepID"), in.Progress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

type detailsResponse struct {
	Details string `json:"details"`
}

// HTTP: GET /api/ideas/{ideaID}/legal/steps/{stepID}/details
func (h *LegalHandler) HandleStepDetails(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	details, err := h.legal.StepDetails(r.Context(), userID, chi.URLParam(r, "ideaID"), chi.URLParam(r, "stepID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detailsResponse{Details: details})
}
