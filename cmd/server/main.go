// Package main implements the entry point for the servertask API server,
// which manages per-user tasks and analyzes their image attachments.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/servertask/internal/config"
	"github.com/phrazzld/servertask/internal/platform/logger"
)

// main loads configuration, sets up logging, wires the application and runs
// the HTTP server until it is told to stop.
func main() {
	ctx := context.Background()

	cfg, l, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		l.Error("failed to build application", "error", err)
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		l.Error("server stopped with error", "error", err)
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up the logger.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"store_driver", cfg.Store.Driver,
		"recognition_provider", cfg.Recognition.Provider,
		"auth_mode", cfg.Auth.Mode)

	if cfg.Database.URL != "" {
		l.Debug("Database configuration", "url_present", true)
	}
	if cfg.Auth.JWTSecret != "" {
		l.Debug("Auth configuration", "jwt_secret_present", true)
	}

	return cfg, l, nil
}
