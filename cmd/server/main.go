// SoftSell - landing page and scripted sales assistant server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/softsell/internal/api"
	"github.com/ashureev/softsell/internal/chat"
	"github.com/ashureev/softsell/internal/config"
	"github.com/ashureev/softsell/internal/identity"
	"github.com/ashureev/softsell/internal/lead"
	"github.com/ashureev/softsell/internal/middleware"
	"github.com/ashureev/softsell/internal/preference"
	"github.com/ashureev/softsell/internal/store"
	"github.com/ashureev/softsell/internal/variant"
	"github.com/ashureev/softsell/web"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

// siteConfig is served to the page by GET /api/config.
type siteConfig struct {
	Variant        variant.Variant      `json:"variant"`
	LicenseTypes   []lead.LicenseOption `json:"licenseTypes"`
	ComposeDelayMS int64                `json:"composeDelayMs"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	site, err := loadVariant(cfg)
	if err != nil {
		slog.Error("Failed to load presentation variant", "error", err)
		os.Exit(1)
	}
	slog.Info("Presentation variant loaded", "variant", site.Name)

	conversationLogger, err := chat.NewConversationLogger(chat.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := conversationLogger.Close(); closeErr != nil {
			slog.Error("Failed to close conversation logger", "error", closeErr)
		}
	}()

	// Initialize services.
	registry := chat.NewRegistry(chat.NewDispatcher(site.Catalog()), site.SessionOptions()...)
	registry.SetObserver(chat.TranscriptObserver(conversationLogger))
	limiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	// Initialize handlers.
	siteHandler := api.NewSiteHandler(repo, siteConfig{
		Variant:        site,
		LicenseTypes:   lead.LicenseOptions(),
		ComposeDelayMS: chat.ComposeDelay.Milliseconds(),
	})
	chatHandler := chat.NewHandler(registry)
	wsHandler := chat.NewWebSocketHandler(registry, cfg.FrontendURL, cfg.IsDevelopment())
	leadHandler := lead.NewHandler(buildSubmitter(cfg, logger))
	preferenceHandler := preference.NewHandler(preference.NewService(repo))

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(allowedOrigins(cfg)))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	siteHandler.RegisterHealth(r)

	// API routes are throttled per visitor.
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		siteHandler.RegisterRoutes(r)
		chatHandler.RegisterRoutes(r)
		leadHandler.RegisterRoutes(r)
		preferenceHandler.RegisterRoutes(r)
	})

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Serve embedded landing page (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// Create server.
	// Note: chat replies stream over SSE, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background workers.
	registry.StartSweeper(ctx, cfg.ChatSessionTTL)
	limiter.StartEviction(ctx)
	store.StartTTLWorker(ctx, repo, cfg.VisitorTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

func loadVariant(cfg *config.Config) (variant.Variant, error) {
	if cfg.VariantFile != "" {
		return variant.Load(cfg.VariantFile)
	}
	return variant.Preset(cfg.Variant)
}

// buildSubmitter always acknowledges leads in the log and additionally
// forwards them to every configured destination.
func buildSubmitter(cfg *config.Config, logger *slog.Logger) lead.Submitter {
	submitters := lead.MultiSubmitter{lead.NewAcknowledger(logger)}
	if cfg.Lead.WebhookURL != "" {
		submitters = append(submitters, lead.NewWebhookSubmitter(cfg.Lead.WebhookURL, cfg.Lead.WebhookTimeout))
		slog.Info("Lead webhook enabled")
	}
	if cfg.Lead.MailEnabled() {
		submitters = append(submitters, lead.NewMailSubmitter(lead.MailConfig{
			Host:     cfg.Lead.SMTPHost,
			Port:     cfg.Lead.SMTPPort,
			Username: cfg.Lead.SMTPUsername,
			Password: cfg.Lead.SMTPPassword,
			From:     cfg.Lead.SMTPFrom,
			To:       cfg.Lead.NotifyEmail,
		}))
		slog.Info("Lead email notifications enabled", "to", cfg.Lead.NotifyEmail)
	}
	return submitters
}

func allowedOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() || cfg.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{cfg.FrontendURL}
}
