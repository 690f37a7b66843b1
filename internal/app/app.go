// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mmstudyabroad/counselor-bot/internal/buildinfo"
	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/counselor"
	"github.com/mmstudyabroad/counselor-bot/internal/genai"
	"github.com/mmstudyabroad/counselor-bot/internal/knowledge"
	"github.com/mmstudyabroad/counselor-bot/internal/logger"
	"github.com/mmstudyabroad/counselor-bot/internal/messenger"
	"github.com/mmstudyabroad/counselor-bot/internal/metrics"
	"github.com/mmstudyabroad/counselor-bot/internal/ratelimit"
	"github.com/mmstudyabroad/counselor-bot/internal/sentry"
	"github.com/mmstudyabroad/counselor-bot/internal/storage"
	"github.com/mmstudyabroad/counselor-bot/internal/webhook"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	db             *storage.DB
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	knowledge      *knowledge.Base
	generator      *genai.FallbackGenerator // nil when no LLM provider is configured
	counselor      *counselor.Counselor
	messenger      *messenger.Client
	webhookHandler *webhook.Handler
	server         *http.Server
	llmLimiter     *ratelimit.KeyedLimiter
	userLimiter    *ratelimit.KeyedLimiter
	wg             sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", "counselor-bot")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Package-level slog calls (genai, counselor) go through the same handlers
	// and pick up user_id and request_id from the context.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.String()).Info("Initializing application...")
	if cfg.BetterStackToken != "" {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}
	warnOnInsecureDefaults(cfg, log)

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed")
	} else if sentry.IsEnabled() {
		log.WithField("environment", cfg.Environment).Info("Error tracking enabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildinfo.Collector(),
	)
	m := metrics.New(registry)

	// Initialize global metrics for genai package
	metrics.InitGlobal(m)

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.ProfileCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).WithField("profile_cache_ttl", cfg.ProfileCacheTTL).Info("Database connected")

	kb, err := LoadKnowledge(ctx, cfg, m)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge: %w", err)
	}

	gen := NewGenerator(ctx, cfg)
	if gen != nil {
		log.WithField("providers", gen.Providers()).Info("Reply generation enabled")
	}

	llmLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "llm",
		Burst:         cfg.Bot.LLMBurstTokens,
		RefillRate:    cfg.Bot.LLMRefillPerHour / 3600.0, // Convert hourly to per-second
		DailyLimit:    cfg.Bot.LLMDailyLimit,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})
	userLimiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:          "user",
		Burst:         cfg.Bot.UserRateBurst,
		RefillRate:    cfg.Bot.UserRateRefill,
		CleanupPeriod: config.RateLimiterCleanupInterval,
		Metrics:       m,
	})

	client := NewMessengerClient(cfg, ratelimit.NewSendLimiter(cfg.Bot.SendRateRPS, m), m)
	c := NewCounselor(cfg, kb, gen, llmLimiter)

	webhookHandler := webhook.NewHandler(cfg.VerifyToken, c, client,
		webhook.WithBotConfig(cfg.Bot),
		webhook.WithAppSecret(cfg.AppSecret),
		webhook.WithUserLimiter(userLimiter),
		webhook.WithStats(db),
		webhook.WithMetrics(m),
		webhook.WithLogger(log),
	)

	app := &Application{
		cfg:            cfg,
		logger:         log,
		db:             db,
		metrics:        m,
		registry:       registry,
		knowledge:      kb,
		generator:      gen,
		counselor:      c,
		messenger:      client,
		webhookHandler: webhookHandler,
		llmLimiter:     llmLimiter,
		userLimiter:    userLimiter,
	}

	gin.SetMode(gin.ReleaseMode)
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.newRouter(),
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// warnOnInsecureDefaults logs the settings an operator most likely forgot.
func warnOnInsecureDefaults(cfg *config.Config, log *logger.Logger) {
	if cfg.VerifyTokenGenerated {
		log.WithField("verify_token", cfg.VerifyToken).
			Warn("FB_VERIFY_TOKEN not set; generated a random token for this run")
	}
	if !cfg.SignatureVerificationEnabled() {
		log.Warn("FB_APP_SECRET not set; webhook signatures will not be verified")
	}
	if cfg.PageAccessToken == "" {
		log.Warn("FB_PAGE_ACCESS_TOKEN not set; replies cannot be delivered")
	}
}

// Run starts the HTTP server and background jobs.
//
// Shutdown order:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context to stop background jobs and wait for them
//  3. Stop the HTTP server, drain webhook processing, close resources
//
// Jobs finish before the database closes so cleanup never runs on a closed pool.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	errCh := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		a.logger.WithError(err).Error("HTTP server error")
		cancel()
		a.wg.Wait()
		_ = a.shutdown()
		return err
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	a.wg.Go(func() {
		a.profileCleanup(ctx)
	})
	a.wg.Go(func() {
		a.updateLimiterMetrics(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine. The returned
// channel receives the error if the server stops unexpectedly.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitForShutdownSignal returns a channel that receives SIGINT/SIGTERM.
func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the HTTP server, waits for in-flight webhook processing
// and closes resources. Call it after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	a.logger.Info("Closing resources...")

	if a.generator != nil {
		if err := a.generator.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "generator").Error("Component close error")
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "database").Error("Component close error")
	}

	if a.llmLimiter != nil {
		a.llmLimiter.Stop()
	}
	if a.userLimiter != nil {
		a.userLimiter.Stop()
	}

	if !sentry.Flush(5 * time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}

	a.logger.Info("Shutdown complete")
	return nil
}

// profileCleanup deletes expired cached profiles on a fixed interval.
func (a *Application) profileCleanup(ctx context.Context) {
	a.logger.Debug("Profile cleanup job started")
	defer a.logger.Debug("Profile cleanup job stopped")

	select {
	case <-ctx.Done():
		return
	case <-time.After(config.ProfileCleanupInitialDelay):
		a.runProfileCleanup(ctx)
	}

	ticker := time.NewTicker(config.ProfileCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Profile cleanup received shutdown signal")
			return
		case <-ticker.C:
			a.runProfileCleanup(ctx)
		}
	}
}

// runProfileCleanup performs one cleanup pass.
func (a *Application) runProfileCleanup(ctx context.Context) {
	start := time.Now()

	deleted, err := a.db.DeleteExpiredProfiles(ctx)
	if err != nil {
		a.logger.WithError(err).Error("Failed to cleanup expired profiles")
		return
	}

	a.logger.WithField("deleted", deleted).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Profile cleanup completed")
}

// updateLimiterMetrics periodically records how many users each limiter tracks.
func (a *Application) updateLimiterMetrics(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.recordLimiterMetrics()
		}
	}
}

func (a *Application) recordLimiterMetrics() {
	if a.metrics == nil {
		return
	}
	if a.llmLimiter != nil {
		a.metrics.SetRateLimiterUsers("llm", a.llmLimiter.ActiveCount())
	}
	if a.userLimiter != nil {
		a.metrics.SetRateLimiterUsers("user", a.userLimiter.ActiveCount())
	}
}
