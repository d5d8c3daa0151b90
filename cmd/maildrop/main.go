// Package main is the entry point for the mail drop server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/telliott/maildrop/internal/config"
	"github.com/telliott/maildrop/internal/smtp"
	"github.com/telliott/maildrop/internal/store"
	"github.com/telliott/maildrop/internal/store/maildir"
	"github.com/telliott/maildrop/internal/store/stdout"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Select the message persistence backend
	st, err := selectStore(cfg)
	if err != nil {
		slog.Error("failed to create message store", "error", err)
		os.Exit(1)
	}

	// Create the server
	server := smtp.New(smtp.ServerConfig{
		ListenAddr:   cfg.SMTP.Listen,
		Hostname:     cfg.SMTP.Hostname,
		Store:        st,
		SenderSuffix: cfg.SMTP.SenderSuffix,
	})

	slog.Info("starting maildrop",
		"listen", cfg.SMTP.Listen,
		"store", st.Name(),
		"sender_suffix", cfg.SMTP.SenderSuffix,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("maildrop stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectStore chooses the message persistence backend based on configuration.
func selectStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return maildir.New(cfg.Store.Dir)
	case "stdout":
		return stdout.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
