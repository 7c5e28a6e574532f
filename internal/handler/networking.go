package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/service"
)

// NetworkingHandler serves contacts, post search and bookmarked posts.
type NetworkingHandler struct {
	networking *service.NetworkingService
	logger     *slog.Logger
}

func NewNetworkingHandler(networking *service.NetworkingService, logger *slog.Logger) *NetworkingHandler {
	return &NetworkingHandler{networking: networking, logger: logger}
}

// HTTP: GET /api/ideas/{ideaID}/networking/contacts
func (h *NetworkingHandler) HandleContacts(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	contacts, err := h.networking.Contacts(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// HTTP: POST /api/ideas/{ideaID}/networking/contacts
func (h *NetworkingHandler) HandleSaveContact(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.ContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	contact, err := h.networking.SaveContact(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// HandleSearch derives keywords from the idea and searches posts.
//
// HTTP: POST /api/ideas/{ideaID}/networking/search
func (h *NetworkingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := h.networking.SearchByAI(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type keywordsRequest struct {
	Keywords string `json:"keywords"`
}

// HTTP: POST /api/ideas/{ideaID}/networking/manual-search
// REQUEST BODY: {"keywords": "bakery, delivery"}
func (h *NetworkingHandler) HandleManualSearch(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in keywordsRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.networking.ManualSearch(r.Context(), userID, chi.URLParam(r, "ideaID"), in.Keywords)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HTTP: GET /api/ideas/{ideaID}/networking/posts
func (h *NetworkingHandler) HandlePosts(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	posts, err := h.networking.Posts(r.Context(), userID, chi.URLParam(r, "ideaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleSavePost bookmarks a search result. The body is the search item
// exactly as the search endpoint returned it.
//
// HTTP: POST /api/ideas/{ideaID}/networking/posts
func (h *NetworkingHandler) HandleSavePost(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in linkedin.Post
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.networking.SavePost(r.Context(), userID, chi.URLParam(r, "ideaID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HTTP: DELETE /api/ideas/{ideaID}/networking/posts/{postID}
func (h *NetworkingHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	err = h.networking.DeletePost(r.Context(), userID, chi.URLParam(r, "ideaID"), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
