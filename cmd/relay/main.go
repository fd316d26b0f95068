package main

import (
	"chat-relay/contract"
	"chat-relay/infrastructure/grpc/server"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the relay lifecycle, and centralizes error reporting.
// Every 'defer' (listener, database) runs before the program exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(strings.ToUpper(config.LogLevel))

	// 2. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Moderation
	censor, err := buildCensor(config, charReplacement, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
	}

	// 4. Listener & Orchestration
	address := config.Address()
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	defer func() {
		_ = listener.Close()
	}()

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	orchestrator := runtime.NewOrchestrator(
		logger, sup, listener, observability.NewRelayMetrics(), censor,
		config.EventBufferSize, config.LifecycleBufferSize, config.OutboxWarnThreshold,
		config.SinkTimeout, config.MetricInterval,
	)

	// 5. Session journal (BadgerDB)
	if config.JournalPath != "" {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			// Defer ensures the database lock is released and buffers are flushed before the function returns.
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		orchestrator.Add(sink.NewJournalSink(repositories.NewSessionRepository(db, logger), logger))

		if logger.Enabled(ctx, slog.LevelDebug) {
			endpoint := "/inspect"
			url := fmt.Sprintf("http://localhost:%d%s?prefix=%s", config.DebugPort, endpoint, repositories.SessionPrefix)
			logger.Info("Debug Badger inspector available", "url", url)
			database.StartDebugServer(db, config.DebugPort, endpoint, repositories.InspectSession)
		}
	}

	// 6. gRPC health endpoint
	if config.HealthPort > 0 {
		healthAddress := fmt.Sprintf("%s:%d", config.Host, config.HealthPort)
		healthListener, err := net.Listen("tcp", healthAddress)
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
		}
		orchestrator.AddWorker(server.NewHealthServer(logger, healthListener))
	}

	// 7. Run until a signal is received and every worker drained
	logger.Info("Starting relay", "address", address)
	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("relay error: %w", err)
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// buildCensor returns nil when no dictionary is configured.
func buildCensor(config internal.Config, charReplacement rune, logger *slog.Logger) (contract.Censor, error) {
	if config.CensoredWordsFile == "" {
		return nil, nil
	}
	path := filepath.Clean(config.CensoredWordsFile)
	loader := moderation.NewCensoredLoader(os.DirFS(filepath.Dir(path)))
	data, err := loader.LoadAll(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	logger.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	moderator, err := moderation.NewModerator(data.Words, charReplacement, logger)
	if err != nil {
		return nil, err
	}
	return moderator, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.JournalPath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
