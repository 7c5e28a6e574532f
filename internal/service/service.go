// Package service holds the business rules of the idea workbench.
//
// WHERE IT SITS:
//
//	Handler     → parses HTTP, writes JSON
//	Service     → validates, checks ownership, talks to the AI, decides
//	Repository  → reads and writes SQLite
//
// Nothing in here imports net/http or database/sql. A service is tested
// with plain function calls over an in-memory database and a scripted
// completer (see helpers_test.go), no HTTP requests needed.
//
// A TYPICAL AI WORKFLOW (SWOT, goals, legal steps, research...):
//  1. ownedIdea: load the idea and check the caller owns it
//  2. Gather context rows (questions and answers, tasks, expenses)
//  3. Render the workflow's prompt with AI.Text or AI.JSON
//  4. Parse and validate what came back
//  5. Persist, replacing old rows in one transaction where the workflow
//     regenerates. Nothing is written when step 3 or 4 fails, so a flaky
//     completion never destroys what the user already had.
//
// ERRORS:
// Handlers turn these apperror values into status codes:
//
//	apperror.ValidationFailed  400  bad input (Field names the culprit)
//	apperror.NotFound          404  missing record
//	apperror.Forbidden         403  record belongs to another user
//	apperror.Conflict          409  duplicate name
//	apperror.Upstream          502  the AI or a third-party API failed
//
// Anything else is wrapped with fmt.Errorf("service/<area>: ...: %w") and
// ends up as a 500.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/ideaforge/internal/apperror"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ownership resolves an idea and checks it belongs to the caller. Every
// service embeds it.
//
// OWNERSHIP RULE:
// Ideas are private. Rows hanging off an idea (tasks, goals, customers...)
// are reached through the idea, so checking the idea once covers them all.
// For a route that names only the child (PUT /api/goals/{goalID}), the
// service loads the child first and then calls ownedIdea with its IdeaID.
//
// A stranger gets 403, not 404. IDs are random xids, so admitting that
// one exists tells nothing useful.
type ownership struct {
	ideas repository.IdeaRepository
}

func (o ownership) ownedIdea(ctx context.Context, userID, ideaID string) (*model.Idea, error) {
	ideaID = strings.TrimSpace(ideaID)
	if ideaID == "" {
		return nil, apperror.ValidationFailed("ideaId", "idea ID is required")
	}
	idea, err := o.ideas.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.UserID != userID {
		return nil, apperror.Forbidden("you do not have access to this idea")
	}
	return idea, nil
}

// AIConfig carries the values every prompt is rendered with.
type AIConfig struct {
	Language     string
	Currency     string
	Jurisdiction string
}

// AI renders prompts from the catalogue and sends them to the completion
// API. Failures come back as apperror.Upstream.
//
// Every prompt can use {language}, {currency} and {jurisdiction}; render
// fills them from AIConfig before the workflow's own values, which win on
// a name clash.
//
// Text is for answers shown to the user as they are (analyses, advice).
// JSON is for answers the code has to take apart (questions, tasks, SWOT
// items); the completer asks the model for a schema-shaped reply and
// decodes it into out.
type AI struct {
	completer llm.Completer
	prompts   llm.Prompts
	cfg       AIConfig
	logger    *slog.Logger
}

func NewAI(completer llm.Completer, prompts llm.Prompts, cfg AIConfig, logger *slog.Logger) *AI {
	return &AI{completer: completer, prompts: prompts, cfg: cfg, logger: logger}
}

func (a *AI) render(name string, data map[string]string) (llm.Request, error) {
	merged := map[string]string{
		"language":     a.cfg.Language,
		"currency":     a.cfg.Currency,
		"jurisdiction": a.cfg.Jurisdiction,
	}
	for k, v := range data {
		merged[k] = v
	}
	return a.prompts.Render(name, merged)
}

// Text runs a free-text prompt.
func (a *AI) Text(ctx context.Context, name string, data map[string]string) (string, error) {
	req, err := a.render(name, data)
	if err != nil {
		return "", err
	}
	out, err := a.completer.Complete(ctx, req)
	if err != nil {
		return "", a.upstream(name, err)
	}
	return out, nil
}

// JSON runs a structured prompt and decodes the answer into out.
func (a *AI) JSON(ctx context.Context, name string, data map[string]string, out any) error {
	req, err := a.render(name, data)
	if err != nil {
		return err
	}
	if err := a.completer.CompleteJSON(ctx, req, name, out); err != nil {
		return a.upstream(name, err)
	}
	return nil
}

func (a *AI) upstream(name string, err error) error {
	a.logger.Error("AI workflow failed", slog.String("workflow", name), slog.String("error", err.Error()))
	return apperror.Upstream("AI service", err)
}

// Currency is the currency amounts are reported in.
func (a *AI) Currency() string {
	return a.cfg.Currency
}

func clampLimit(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
