package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/service"
)

// ChatHandler serves the per-idea assistant conversation.
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/chat
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.chat.History(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

type messageRequest struct {
	Message string `json:"message"`
}

// HandleSend stores the user's message and returns the assistant's reply.
//
// HTTP: POST /api/ideas/{ideaID}/chat
// REQUEST BODY: {"message": "How should I price the loaves?"}
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
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

	reply, err := h.chat.Send(r.Context(), userID, chi.URLParam(r, "ideaID"), in.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
