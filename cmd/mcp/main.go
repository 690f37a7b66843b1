// Package main serves the Messenger tools over MCP on stdin/stdout.
//
// Logs go to stderr; stdout carries the protocol.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mmstudyabroad/counselor-bot/internal/app"
	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/logger"
	"github.com/mmstudyabroad/counselor-bot/internal/mcpserver"
	"github.com/mmstudyabroad/counselor-bot/internal/ratelimit"
	"github.com/mmstudyabroad/counselor-bot/internal/storage"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "mcp server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithOptions(cfg.LogLevel, os.Stderr, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	}).WithModule("mcp")
	slog.SetDefault(log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.PageAccessToken == "" {
		log.Warn("FB_PAGE_ACCESS_TOKEN not set; messaging tools will return errors")
	}

	db, err := storage.New(ctx, cfg.SQLitePath(), cfg.ProfileCacheTTL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer func() { _ = db.Close() }()

	kb, err := app.LoadKnowledge(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("knowledge: %w", err)
	}

	gen := app.NewGenerator(ctx, cfg)
	if gen != nil {
		defer func() { _ = gen.Close() }()
	}

	server := mcpserver.New(mcpserver.Deps{
		Messenger: app.NewMessengerClient(cfg, ratelimit.NewSendLimiter(cfg.Bot.SendRateRPS, nil), nil),
		Profiles:  db,
		Responder: app.NewCounselor(cfg, kb, gen, nil),
	})

	log.WithField("server", mcpserver.ServerName).Info("MCP server running on stdio")
	err = server.Run(ctx, &mcp.StdioTransport{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GracefulShutdown)
	defer cancel()
	_ = log.Shutdown(shutdownCtx)

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
