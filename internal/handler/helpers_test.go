package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/ideaforge/internal/auth"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/mailer"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository/sqlite"
	"github.com/sakif/ideaforge/internal/service"
)

// fakeCompleter answers by workflow name; unscripted workflows fail.
type fakeCompleter struct {
	mu   sync.Mutex
	text map[string]string
	json map[string]string
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if out, ok := f.text[req.Name]; ok {
		return out, nil
	}
	return "", errors.New("completion failed")
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, req llm.Request, _ string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if raw, ok := f.json[req.Name]; ok {
		return json.Unmarshal([]byte(raw), out)
	}
	return errors.New("completion failed")
}

type nopMailer struct{}

func (nopMailer) Send(context.Context, mailer.Account, mailer.Message) error { return nil }

type nopSearcher struct{}

func (nopSearcher) SearchPosts(context.Context, string) ([]json.RawMessage, error) {
	return []json.RawMessage{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEnv wires real services over an in-memory database.
type testEnv struct {
	db     *sqlite.DB
	llm    *fakeCompleter
	tokens *auth.TokenService
	auth   *service.AuthService
	ideas  *service.IdeaService
	ai     *service.AI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", 0)
	require.NoError(t, err)
	prompts, err := llm.DefaultPrompts()
	require.NoError(t, err)

	completer := &fakeCompleter{text: map[string]string{}, json: map[string]string{}}
	ai := service.NewAI(completer, prompts, service.AIConfig{Language: "English", Currency: "BRL", Jurisdiction: "Brazil"}, testLogger())

	return &testEnv{
		db:     db,
		llm:    completer,
		tokens: tokens,
		auth:   service.NewAuthService(db, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), testLogger()),
		ideas:  service.NewIdeaService(db, ai, testLogger()),
		ai:     ai,
	}
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) idea(t *testing.T, userID string) *model.Idea {
	t.Helper()
	idea := &model.Idea{UserID: userID, Title: "Bike bakery", Description: "Sourdough delivered by bike"}
	require.NoError(t, e.db.CreateIdea(context.Background(), idea))
	return idea
}

// newRequest builds a request as RequireAuth and chi would hand it to a
// handler: userID in the context (when non-empty) and URL params set.
func newRequest(method, target, body, userID string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if userID != "" {
		ctx = auth.WithUserID(ctx, userID)
	}
	return req.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}
