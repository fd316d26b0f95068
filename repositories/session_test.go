package repositories

import (
	"chat-relay/errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func record(name string, at time.Time) SessionRecord {
	return SessionRecord{
		ID:          uuid.New(),
		Name:        name,
		RemoteAddr:  "127.0.0.1:5000",
		Status:      SessionOpen,
		ConnectedAt: at,
	}
}

func Test_Open_And_Close_Session(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	alice := record("alice", at)

	// Given an open session
	req.NoError(repository.Open(alice))

	// When it is closed with two undelivered lines
	leftAt := at.Add(time.Minute)
	req.NoError(repository.Close(alice.ID, leftAt, 2))

	// Then the journal reflects it
	got, err := repository.Get(alice.ID)
	req.NoError(err)
	req.Equal(SessionClosed, got.Status)
	req.Equal(2, got.Undelivered)
	req.NotNil(got.DisconnectedAt)
	req.True(leftAt.Equal(*got.DisconnectedAt))
	req.True(at.Equal(got.ConnectedAt))
}

func Test_Close_Rejected_Session_Keeps_Status(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	rejected := record("alice", time.Now().UTC())
	rejected.Status = SessionRejected
	req.NoError(repository.Open(rejected))

	req.NoError(repository.Close(rejected.ID, time.Now().UTC(), 0))

	got, err := repository.Get(rejected.ID)
	req.NoError(err)
	req.Equal(SessionRejected, got.Status)
}

func Test_Close_Unknown_Session(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	err := repository.Close(uuid.New(), time.Now(), 0)
	req.ErrorIs(err, errors.ErrSessionNotFound)

	_, err = repository.Get(uuid.New())
	req.ErrorIs(err, errors.ErrSessionNotFound)
}

func Test_List_Sessions_Newest_First_With_Limit(t *testing.T) {
	req := require.New(t)
	repository := NewSessionRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	records := []SessionRecord{
		record("alice", at),
		record("bob", at.Add(1*time.Minute)),
		record("clara", at.Add(2*time.Minute)),
	}
	for _, r := range records {
		req.NoError(repository.Open(r))
	}

	all, err := repository.List(nil)
	req.NoError(err)
	req.Equal([]string{"clara", "bob", "alice"}, lo.Map(all, func(r SessionRecord, _ int) string {
		return r.Name
	}))

	limited, err := repository.List(lo.ToPtr(2))
	req.NoError(err)
	req.Len(limited, 2)
	req.Equal("clara", limited[0].Name)
}
