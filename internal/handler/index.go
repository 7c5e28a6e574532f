// Package handler contains the HTTP request handlers.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (URL params, query, JSON body)
// 2. Call the service layer with the signed-in user's ID
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business rules. Ownership checks, validation and AI
// calls all live in internal/service; handlers only translate.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/ideaforge/internal/auth"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// IndexHandler renders the landing page. It runs behind OptionalAuth, so
// the same URL shows the signed-in user's ideas or a sign-in hint.
//
// TEMPLATE COMPOSITION:
// base.html defines the page shell with a {{template "content" .}}
// placeholder and index.html fills it with {{define "content"}}. Both are
// parsed once at startup and embedded in the binary.
type IndexHandler struct {
	templates     *template.Template
	auth          *service.AuthService
	ideas         *service.IdeaService
	gitHubEnabled bool
	logger        *slog.Logger
}

func NewIndexHandler(
	authService *service.AuthService,
	ideas *service.IdeaService,
	gitHubEnabled bool,
	logger *slog.Logger,
) (*IndexHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/index.html")
	if err != nil {
		return nil, err
	}

	return &IndexHandler{
		templates:     tmpl,
		auth:          authService,
		ideas:         ideas,
		gitHubEnabled: gitHubEnabled,
		logger:        logger,
	}, nil
}

type indexData struct {
	Title         string
	User          *model.User
	Ideas         []model.Idea
	GitHubEnabled bool
}

// HandleIndex serves the landing page.
//
// HTTP: GET /
func (h *IndexHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{Title: "IdeaForge", GitHubEnabled: h.gitHubEnabled}

	// A stale cookie for a deleted account falls back to the anonymous page.
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		user, err := h.auth.Me(r.Context(), userID)
		if err == nil {
			ideas, err := h.ideas.List(r.Context(), userID, service.MaxListLimit, 0)
			if err != nil {
				h.logger.Error("index: listing ideas failed", slog.String("error", err.Error()))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			data.User = user
			data.Ideas = ideas
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
