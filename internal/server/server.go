// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: it opens the database, builds
// every service and handler, mounts the routes and owns the background
// scheduler. main.go only loads configuration and builds the outbound
// clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/ideaforge/internal/auth"
	"github.com/sakif/ideaforge/internal/config"
	"github.com/sakif/ideaforge/internal/handler"
	"github.com/sakif/ideaforge/internal/linkedin"
	"github.com/sakif/ideaforge/internal/llm"
	"github.com/sakif/ideaforge/internal/mailer"
	"github.com/sakif/ideaforge/internal/middleware"
	"github.com/sakif/ideaforge/internal/notify"
	sqliteRepo "github.com/sakif/ideaforge/internal/repository/sqlite"
	"github.com/sakif/ideaforge/internal/service"
	"github.com/sakif/ideaforge/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

// Dependencies are the outbound clients built by main. Tests replace them
// with fakes.
type Dependencies struct {
	Completer llm.Completer
	Prompts   llm.Prompts
	Search    linkedin.Searcher
	Mail      mailer.Sender
	Messages  notify.Sender
	// GitHub is nil when GitHub sign-in is not configured.
	GitHub handler.GitHubSignIn
	// ShutdownTracer flushes pending spans. May be nil.
	ShutdownTracer telemetry.ShutdownFunc
}

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the dispatch scheduler.
// Start stops both, in that order reversed, during graceful shutdown.
type Server struct {
	router    *chi.Mux
	config    config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *notify.Scheduler
	tracer    telemetry.ShutdownFunc
}

// New opens the database and wires every layer:
//
//	sqlite.DB → services (ownership, validation, AI) → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces (sqlite.DB implements all of them), handlers get services.
func New(cfg config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		scheduler: notify.NewScheduler(time.UTC, logger),
		tracer:    deps.ShutdownTracer,
	}

	if err := s.setupRoutes(deps); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	dispatcher := notify.NewDispatcher(db, deps.Messages, logger)
	if _, err := s.scheduler.ScheduleInterval(cfg.DispatchInterval, dispatcher.Job(cfg.DispatchInterval)); err != nil {
		db.Close()
		return nil, fmt.Errorf("scheduling message dispatch: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an ID to each request, picked up by the logger
// 2. RealIP: extracts the client IP from proxy headers
// 3. Logger: one line per request
// 4. Recoverer: turns panics into 500s
//
// Everything under /api sits behind RequireAuth. The index page uses
// OptionalAuth so it can greet signed-in users.
func (s *Server) setupRoutes(deps Dependencies) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.config.JWTSecret, auth.DefaultSessionTTL)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	ai := service.NewAI(deps.Completer, deps.Prompts, service.AIConfig{
		Language:     s.config.LLM.Language,
		Currency:     s.config.LLM.Currency,
		Jurisdiction: s.config.LLM.Jurisdiction,
	}, s.logger)

	// === Services ===
	// s.db implements every repository interface.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	ideaService := service.NewIdeaService(s.db, ai, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, deps.GitHub, tokens.TTL(), s.config.CookieSecure, s.logger)
	ideaHandler := handler.NewIdeaHandler(ideaService, s.logger)
	taskHandler := handler.NewTaskHandler(service.NewTaskService(s.db, s.db, ai, s.logger), s.logger)
	swotHandler := handler.NewSWOTHandler(service.NewSWOTService(s.db, s.db, ai, s.logger), s.logger)
	chatHandler := handler.NewChatHandler(service.NewChatService(s.db, s.db, s.db, s.db, ai, s.logger), s.logger)
	expenseHandler := handler.NewExpenseHandler(service.NewExpenseService(s.db, s.db, ai, s.logger), s.logger)
	goalHandler := handler.NewGoalHandler(service.NewGoalService(s.db, s.db, ai, s.logger), s.logger)
	researchHandler := handler.NewResearchHandler(service.NewResearchService(s.db, s.db, ai, s.logger), s.logger)
	legalHandler := handler.NewLegalHandler(service.NewLegalService(s.db, s.db, ai, s.logger), s.logger)
	networkingHandler := handler.NewNetworkingHandler(
		service.NewNetworkingService(s.db, s.db, deps.Search, ai, s.logger), s.logger)
	customerHandler := handler.NewCustomerHandler(
		service.NewCustomerService(s.db, s.db, s.db, s.db, deps.Mail, ai, s.logger), s.logger)

	indexHandler, err := handler.NewIndexHandler(authService, ideaService, deps.GitHub != nil, s.logger)
	if err != nil {
		return fmt.Errorf("creating index handler: %w", err)
	}

	// === Public routes ===
	s.router.Get("/healthz", s.handleHealth)
	s.router.With(auth.OptionalAuth(tokens)).Get("/", indexHandler.HandleIndex)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if deps.GitHub != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Get("/profile", authHandler.HandleMe)
		r.Put("/profile", authHandler.HandleUpdateProfile)

		r.Get("/ideas", ideaHandler.HandleList)
		r.Post("/ideas", ideaHandler.HandleCreate)

		r.Route("/ideas/{ideaID}", func(r chi.Router) {
			r.Get("/", ideaHandler.HandleGet)
			r.Delete("/", ideaHandler.HandleDelete)
			r.Post("/questions/generate", ideaHandler.HandleGenerateQuestions)
			r.Put("/answers", ideaHandler.HandleSaveAnswers)

			r.Get("/tasks", taskHandler.HandleList)
			r.Post("/tasks", taskHandler.HandleCreate)
			r.Post("/tasks/generate", taskHandler.HandleGenerate)
			r.Post("/tasks/generate-more", taskHandler.HandleGenerateMore)

			r.Get("/swot", swotHandler.HandleBoard)
			r.Post("/swot/generate", swotHandler.HandleGenerate)
			r.Post("/swot/analyze", swotHandler.HandleAnalyze)
			r.Post("/swot/items", swotHandler.HandleAddItem)

			r.Get("/chat", chatHandler.HandleHistory)
			r.Post("/chat", chatHandler.HandleSend)

			r.Get("/expenses", expenseHandler.HandleList)
			r.Post("/expenses", expenseHandler.HandleCreate)
			r.Post("/expenses/analyze", expenseHandler.HandleAnalyze)

			r.Get("/goals", goalHandler.HandleList)
			r.Post("/goals", goalHandler.HandleCreate)
			r.Post("/goals/generate", goalHandler.HandleGenerate)

			r.Get("/research", researchHandler.HandleList)
			r.Post("/research/generate", researchHandler.HandleGenerate)

			r.Get("/legal", legalHandler.HandleOverview)
			r.Post("/legal/generate", legalHandler.HandleGenerate)
			r.Post("/legal/consult", legalHandler.HandleConsult)
			r.Put("/legal/steps/{stepID}/progress", legalHandler.HandleUpdateProgress)
			r.Get("/legal/steps/{stepID}/details", legalHandler.HandleStepDetails)

			r.Get("/networking/contacts", networkingHandler.HandleContacts)
			r.Post("/networking/contacts", networkingHandler.HandleSaveContact)
			r.Post("/networking/search", networkingHandler.HandleSearch)
			r.Post("/networking/manual-search", networkingHandler.HandleManualSearch)
			r.Get("/networking/posts", networkingHandler.HandlePosts)
			r.Post("/networking/posts", networkingHandler.HandleSavePost)
			r.Delete("/networking/posts/{postID}", networkingHandler.HandleDeletePost)

			r.Get("/customers", customerHandler.HandleList)
			r.Post("/customers", customerHandler.HandleCreate)
			r.Get("/customers/stats", customerHandler.HandleStats)
			r.Post("/customers/email", customerHandler.HandleSendEmail)
			r.Get("/messages", customerHandler.HandleMessages)
		})

		r.Put("/tasks/{taskID}", taskHandler.HandleUpdate)
		r.Delete("/tasks/{taskID}", taskHandler.HandleDelete)
		r.Post("/tasks/{taskID}/tags", taskHandler.HandleAddTag)
		r.Delete("/tasks/{taskID}/tags/{tagID}", taskHandler.HandleRemoveTag)

		r.Put("/swot/items/{itemID}", swotHandler.HandleUpdateItem)
		r.Delete("/swot/items/{itemID}", swotHandler.HandleDeleteItem)
		r.Patch("/swot/items/{itemID}/category", swotHandler.HandleSetCategory)

		r.Get("/expenses/{expenseID}", expenseHandler.HandleGet)
		r.Delete("/expenses/{expenseID}", expenseHandler.HandleDelete)
		r.Get("/categories", expenseHandler.HandleCategories)
		r.Post("/categories", expenseHandler.HandleCreateCategory)

		r.Put("/goals/{goalID}", goalHandler.HandleUpdate)
		r.Delete("/goals/{goalID}", goalHandler.HandleDelete)

		r.Get("/research/{researchID}", researchHandler.HandleGet)
		r.Delete("/research/{researchID}", researchHandler.HandleDelete)

		r.Get("/customers/{customerID}", customerHandler.HandleGet)
		r.Put("/customers/{customerID}", customerHandler.HandleUpdate)
		r.Delete("/customers/{customerID}", customerHandler.HandleDelete)
		r.Post("/customers/{customerID}/whatsapp", customerHandler.HandleScheduleWhatsApp)

		r.Post("/email/improve", customerHandler.HandleImproveEmail)
	})

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Handler returns the router wrapped in OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "ideaforge",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Start starts the HTTP server and the dispatch scheduler, and blocks
// until SIGINT/SIGTERM or a server error.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop the scheduler, waiting for a running dispatch
// 4. Flush pending spans
// 5. Close the database connection
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		// Completion calls can take a while; the LLM client has its own timeout.
		WriteTimeout: s.config.LLM.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	s.scheduler.Start()
	defer s.scheduler.Stop()

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		if s.tracer != nil {
			if err := s.tracer(ctx); err != nil {
				s.logger.Warn("flushing traces failed", slog.String("error", err.Error()))
			}
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the database without starting the server. Tests use it.
func (s *Server) Close() error {
	return s.db.Close()
}
