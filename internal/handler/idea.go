package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// IdeaHandler serves ideas and their questionnaire.
type IdeaHandler struct {
	ideas  *service.IdeaService
	logger *slog.Logger
}

func NewIdeaHandler(ideas *service.IdeaService, logger *slog.Logger) *IdeaHandler {
	return &IdeaHandler{ideas: ideas, logger: logger}
}

// HandleList returns the user's ideas, newest first.
//
// HTTP: GET /api/ideas?limit=20&offset=0
func (h *IdeaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}

	ideas, err := h.ideas.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ideas)
}

type createIdeaRequest struct {
	Description string `json:"description"`
}

// HandleCreate stores a new idea. The title is generated from the description.
//
// HTTP: POST /api/ideas
// REQUEST BODY: {"description": "A bakery that delivers by bike"}
func (h *IdeaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in createIdeaRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	idea, err := h.ideas.Create(r.Context(), userID, in.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

// HandleGet returns the idea with its questions and answers.
//
// HTTP: GET /api/ideas/{ideaID}
func (h *IdeaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.ideas.Get(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleDelete removes the idea and everything scoped to it.
//
// HTTP: DELETE /api/ideas/{ideaID}
func (h *IdeaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.ideas.Delete(r.Context(), userID, chi.URLParam(r, "ideaID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGenerateQuestions replaces the questionnaire with new questions.
//
// HTTP: POST /api/ideas/{ideaID}/questions/generate
func (h *IdeaHandler) HandleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	questions, err := h.ideas.GenerateQuestions(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

type answersRequest struct {
	Answers []string `json:"answers"`
}

// HandleSaveAnswers stores the answers in question order.
//
// HTTP: PUT /api/ideas/{ideaID}/answers
// REQUEST BODY: {"answers": ["...", "..."]}
func (h *IdeaHandler) HandleSaveAnswers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in answersRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	questions, err := h.ideas.SaveAnswers(r.Context(), userID, chi.URLParam(r, "ideaID"), in.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}
