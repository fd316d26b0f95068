package main

import (
	"chat-relay/internal"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	// 1. Load config
	config, err := internal.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if config.JournalPath == "" {
		log.Fatal("JOURNAL_PATH is required by the viewer")
	}
	logger := logs.GetLoggerFromString("INFO")

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening while the relay holds the lock
	opts := badger.DefaultOptions(config.JournalPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Print the latest sessions
	records, err := repositories.NewSessionRepository(db, logger).List(config.JournalLimit)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	for _, record := range records {
		fmt.Printf("%s %-8s %s\n", record.ConnectedAt.Format("2006-01-02 15:04:05"), record.Status, repositories.Describe(record))
	}

	// 4. Serve the inspector until interrupted
	fmt.Printf("Viewer started at http://localhost:%d/inspect?prefix=%s\n", config.DebugPort, repositories.SessionPrefix)
	database.StartDebugServer(db, config.DebugPort, "/inspect", repositories.InspectSession)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
}
