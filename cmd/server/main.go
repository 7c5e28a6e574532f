// Package main is the entry point for the IdeaForge server.
//
// The main package stays small. Its job is to:
// 1. Read configuration (defaults, optional YAML file, env vars)
// 2. Create the outbound clients (LLM, LinkedIn search, SMTP, WhatsApp)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/service, etc.).
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/ideaforge/internal/auth"
	"github.com/sakif/ideaforge/internal/config"
	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/mailer"
	"github.com/sakif/ideaforge/internal/notify"
	"github.com/sakif/ideaforge/internal/server"
	"github.com/sakif/ideaforge/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// === 1. READ CONFIGURATION ===
	// Later layers win: Defaults() → $CONFIG_FILE → environment variables.
	cfg, err := config.Load()

	// === 2. SET UP LOGGING ===
	// The level comes from LOG_LEVEL (debug, info, warn, error).
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 3. TRACING ===
	// Without TRACING_ENDPOINT spans are created but never exported.
	shutdownTracer, err := telemetry.Setup(context.Background(), "ideaforge", version, cfg.TracingEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. DATABASE DIRECTORY ===
	// os.MkdirAll is a no-op when the directory already exists.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 5. PROMPTS ===
	// PROMPTS_FILE entries replace the embedded ones of the same name.
	prompts, err := llm.LoadPromptsFile(cfg.LLM.PromptsFile)
	if err != nil {
		logger.Error("failed to load prompts", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 6. OUTBOUND CLIENTS ===
	// Every client starts even when unconfigured. Features that need a
	// missing credential fail per request with a clear message.
	if cfg.LLM.APIKey == "" {
		logger.Warn("LLM_API_KEY not set, AI features will return errors")
	}
	completer := llm.NewClient(llm.Options{
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		ChatModel: cfg.LLM.ChatModel,
		Timeout:   cfg.LLM.Timeout,
	}, logger)

	search := linkedin.New(linkedin.Options{
		APIKey:   cfg.LinkedIn.APIKey,
		Host:     cfg.LinkedIn.Host,
		CacheTTL: cfg.LinkedIn.CacheTTL,
	}, logger)

	var messages notify.Sender = notify.LogSender{Logger: logger}
	if cfg.WhatsApp.Enabled() {
		messages = notify.NewWhatsApp(cfg.WhatsApp.APIURL, cfg.WhatsApp.Token, cfg.WhatsApp.PhoneNumberID)
	} else {
		logger.Info("WhatsApp not configured, scheduled messages will only be logged")
	}

	deps := server.Dependencies{
		Completer:      completer,
		Prompts:        prompts,
		Search:         search,
		Mail:           mailer.SMTP{},
		Messages:       messages,
		ShutdownTracer: shutdownTracer,
	}

	// Assign only when enabled: a nil *GitHubProvider stored in the
	// interface would not compare equal to nil.
	if cfg.GitHub.Enabled() {
		deps.GitHub = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	// === 7. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
