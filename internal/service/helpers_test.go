package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/mailer"
	"github.com/sakif/ideaforge/internal/model"
	"github.com/sakif/ideaforge/internal/repository/sqlite"
)

var errCompletion = errors.New("completion API exploded")

// fakeCompleter answers by workflow name. Workflows without a scripted
// answer fail with errCompletion.
type fakeCompleter struct {
	mu       sync.Mutex
	text     map[string]string
	json     map[string]string
	requests []llm.Request
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{text: map[string]string{}, json: map[string]string{}}
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	out, ok := f.text[req.Name]
	if !ok {
		return "", errCompletion
	}
	return out, nil
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, req llm.Request, _ string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	raw, ok := f.json[req.Name]
	if !ok {
		return errCompletion
	}
	return json.Unmarshal([]byte(raw), out)
}

func (f *fakeCompleter) lastRequest(t *testing.T) llm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no completion requests were made")
	return f.requests[len(f.requests)-1]
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSearcher struct {
	posts    []json.RawMessage
	err      error
	keywords []string
}

func (f *fakeSearcher) SearchPosts(_ context.Context, keyword string) ([]json.RawMessage, error) {
	f.keywords = append(f.keywords, keyword)
	return f.posts, f.err
}

var _ linkedin.Searcher = (*fakeSearcher)(nil)

type sentMail struct {
	account mailer.Account
	msg     mailer.Message
}

type fakeMailer struct {
	sent   []sentMail
	failTo map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, acct mailer.Account, msg mailer.Message) error {
	if f.failTo[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	f.sent = append(f.sent, sentMail{account: acct, msg: msg})
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestAI(t *testing.T, completer llm.Completer) *AI {
	t.Helper()
	prompts, err := llm.DefaultPrompts()
	require.NoError(t, err)
	return NewAI(completer, prompts, AIConfig{Language: "English", Currency: "BRL", Jurisdiction: "Brazil"}, testLogger())
}

func createUser(t *testing.T, db *sqlite.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func createIdea(t *testing.T, db *sqlite.DB, userID, description string) *model.Idea {
	t.Helper()
	idea := &model.Idea{UserID: userID, Title: "Test idea", Description: description}
	require.NoError(t, db.CreateIdea(context.Background(), idea))
	return idea
}

// fixture is one user owning one idea, plus a stranger.
type fixture struct {
	db       *sqlite.DB
	llm      *fakeCompleter
	ai       *AI
	owner    *model.User
	stranger *model.User
	idea     *model.Idea
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	completer := newFakeCompleter()
	owner := createUser(t, db, "owner")
	return &fixture{
		db:       db,
		llm:      completer,
		ai:       newTestAI(t, completer),
		owner:    owner,
		stranger: createUser(t, db, "stranger"),
		idea:     createIdea(t, db, owner.ID, "A bakery that delivers sourdough by bike"),
	}
}

func (f *fixture) questions(t *testing.T, pairs ...string) {
	t.Helper()
	ctx := context.Background()
	var texts, answers []string
	for i := 0; i+1 < len(pairs); i += 2 {
		texts = append(texts, pairs[i])
		answers = append(answers, pairs[i+1])
	}
	_, err := f.db.AppendQuestions(ctx, f.idea.ID, texts)
	require.NoError(t, err)
	require.NoError(t, f.db.SaveAnswers(ctx, f.idea.ID, answers))
}
