package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// SWOTHandler serves the idea's SWOT board.
type SWOTHandler struct {
	swot   *service.SWOTService
	logger *slog.Logger
}

func NewSWOTHandler(swot *service.SWOTService, logger *slog.Logger) *SWOTHandler {
	return &SWOTHandler{swot: swot, logger: logger}
}

// HandleBoard returns the items grouped by category plus the latest analysis.
//
// HTTP: GET /api/ideas/{ideaID}/swot
func (h *SWOTHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	board, err := h.swot.Board(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HTTP: POST /api/ideas/{ideaID}/swot/generate
func (h *SWOTHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	board, err := h.swot.Generate(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// HandleAnalyze writes a free-text analysis of the current board.
//
// HTTP: POST /api/ideas/{ideaID}/swot/analyze
func (h *SWOTHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := h.swot.Analyze(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// HTTP: POST /api/ideas/{ideaID}/swot/items
// REQUEST BODY: {"category": "strength", "content": "..."}
func (h *SWOTHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.SWOTItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.swot.AddItem(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// HTTP: PUT /api/swot/items/{itemID}
func (h *SWOTHandler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.SWOTItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.swot.UpdateItem(r.Context(), userID, chi.URLParam(r, "itemID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type categoryRequest struct {
	Category string `json:"category"`
}

// HandleSetCategory moves an item to another quadrant (drag and drop).
//
// HTTP: PATCH /api/swot/items/{itemID}/category
func (h *SWOTHandler) HandleSetCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in categoryRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.swot.SetItemCategory(r.Context(), userID, chi.URLParam(r, "itemID"), in.Category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HTTP: DELETE /api/swot/items/{itemID}
func (h *SWOTHandler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.swot.DeleteItem(r.Context(), userID, chi.URLParam(r, "itemID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
