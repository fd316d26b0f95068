package main

import (
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to the session journal")
	limit := flag.Int("limit", 0, "Maximum number of sessions, 0 for all")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	var max *int
	if *limit > 0 {
		max = limit
	}
	records, err := repositories.NewSessionRepository(db, logs.GetLoggerFromLevel(slog.LevelWarn)).List(max)
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Session", "Name", "Remote", "Status", "Connected", "Disconnected", "Undelivered"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, record := range records {
		// The first 8 characters of the session id are enough to tell sessions apart
		displayID := record.ID.String()[:8]
		disconnected := "-"
		if record.DisconnectedAt != nil {
			disconnected = record.DisconnectedAt.Format("15:04:05")
		}
		table.Append([]string{
			displayID,
			record.Name,
			record.RemoteAddr,
			string(record.Status),
			record.ConnectedAt.Format("15:04:05"),
			disconnected,
			fmt.Sprintf("%d", record.Undelivered),
		})
	}
	table.Render()
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		// A journal left by a crashed relay needs one writable open to truncate its log
		if strings.Contains(err.Error(), "Log truncate required") {
			repairOpts := badger.DefaultOptions(path).
				WithLogger(nil).WithBypassLockGuard(true)

			db, err = badger.Open(repairOpts)
			if err != nil {
				return nil, fmt.Errorf("repair failed: %w", err)
			}
			db.Close()
			return badger.Open(opts)
		}
		return nil, err
	}
	return db, nil
}
