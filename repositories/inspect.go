package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mama165/sdk-go/database"
)

// InspectSession maps journal entries for the badger inspector.
// Index entries are shown with their target key.
func InspectSession(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if strings.HasPrefix(key, sessionIndexPrefix) {
		row.Type = "INDEX"
		row.Detail = string(val)
		return row
	}

	var record SessionRecord
	if err := json.Unmarshal(val, &record); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	row.Type = string(record.Status)
	row.Detail = Describe(record)
	return row
}

// Describe renders a record on one line.
func Describe(record SessionRecord) string {
	detail := fmt.Sprintf("%s from %s", record.Name, record.RemoteAddr)
	if record.DisconnectedAt != nil {
		detail += fmt.Sprintf(", %s online, %d undelivered",
			record.DisconnectedAt.Sub(record.ConnectedAt).Round(time.Millisecond), record.Undelivered)
	}
	return detail
}
