package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/config"
	"github.com/shubh-37/ideaflow/internal/agents"
	"github.com/shubh-37/ideaflow/internal/api"
	"github.com/shubh-37/ideaflow/internal/database"
	"github.com/shubh-37/ideaflow/internal/linear"
	"github.com/shubh-37/ideaflow/internal/session"
	slackpkg "github.com/shubh-37/ideaflow/internal/slack"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and, when configured, the Slack bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("🚀 IdeaFlow starting...")

	cfg := config.LoadConfig(logger)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := agents.NewIdeaAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("🤖 Idea agent ready", zap.String("text_model", cfg.TextModel), zap.String("image_model", cfg.ImageModel))

	// Interfaces stay nil unless persistence is on.
	var (
		db        *database.DB
		recorder  session.HistoryRecorder
		lister    api.HistoryLister
		saved     slackpkg.SavedIdeaStore
		byChannel slackpkg.HistoryStore
	)
	if cfg.PersistenceEnabled() {
		db, err = database.NewDB(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.CreateTables(ctx); err != nil {
			return err
		}

		historyRepo := database.NewHistoryRepository(db)
		recorder, lister, byChannel = historyRepo, historyRepo, historyRepo
		saved = database.NewSavedIdeaRepository(db)
		logger.Info("✅ Database connected and ready")
	} else {
		logger.Info("📭 DATABASE_URL not set, history and saved ideas disabled")
	}

	sessions := session.NewManager(agent, recorder, logger)
	go sessions.RunEviction(ctx, 10*time.Minute, session.DefaultIdleTimeout)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", healthCheck(db))

	api.New(sessions, lister, cfg.RequestTimeout, logger).RegisterHTTP(r)

	var slackServer *slackpkg.Server
	if cfg.SlackEnabled() {
		var exporter slackpkg.IdeaExporter
		if cfg.LinearEnabled() {
			lc, err := linear.NewClient(cfg.LinearToken, cfg.LinearTeamID, logger,
				linear.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}))
			if err != nil {
				return err
			}
			exporter = lc
			logger.Info("📋 Linear export enabled", zap.String("team", cfg.LinearTeamID))
		}

		slackClient, err := slackpkg.NewClient(ctx, cfg.SlackToken, logger)
		if err != nil {
			return err
		}
		handler := slackpkg.NewCommandHandler(slackClient, sessions, saved, byChannel, exporter, logger)
		slackServer = slackpkg.NewServer(handler, slackClient.GetBotID(), cfg.SlackSigningSecret, cfg.RequestTimeout, logger)
		slackServer.RegisterHTTP(r)
		logger.Info("💬 Slack: connected and listening")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("🌐 Server starting", zap.String("port", cfg.Port))
		logger.Info("🏥 Health check: http://localhost:" + cfg.Port + "/health")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if slackServer != nil {
		if err := slackServer.Wait(shutdownCtx); err != nil {
			logger.Warn("⚠️ Slack work still running at shutdown", zap.Error(err))
		}
	}
	return nil
}

func healthCheck(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok", "database": "disabled"}
		code := http.StatusOK
		if db != nil {
			status["database"] = "ok"
			if err := db.Health(r.Context()); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	}
}
