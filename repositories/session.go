//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"chat-relay/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	SessionPrefix      = "session:"
	sessionIndexPrefix = "idx:session:"
)

type SessionStatus string

const (
	SessionOpen     SessionStatus = "OPEN"
	SessionClosed   SessionStatus = "CLOSED"
	SessionRejected SessionStatus = "REJECTED"
)

type ISessionRepository interface {
	Open(record SessionRecord) error
	Close(id uuid.UUID, at time.Time, undelivered int) error
	Get(id uuid.UUID) (SessionRecord, error)
	List(limit *int) ([]SessionRecord, error)
}

// SessionRecord is what the journal keeps about a connection.
// Message bodies are never part of it.
type SessionRecord struct {
	ID             uuid.UUID     `json:"id"`
	Name           string        `json:"name"`
	RemoteAddr     string        `json:"remote_addr"`
	Status         SessionStatus `json:"status"`
	ConnectedAt    time.Time     `json:"connected_at"`
	DisconnectedAt *time.Time    `json:"disconnected_at,omitempty"`
	Undelivered    int           `json:"undelivered"`
}

type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) SessionRepository {
	return SessionRepository{db: db, log: log}
}

// sessionKey is formatted as "session:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps the lexicographical order chronological.
//  2. The UUID separates two sessions opened at the same nanosecond.
func sessionKey(record SessionRecord) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", SessionPrefix, record.ConnectedAt.UnixNano(), record.ID))
}

func indexKey(id uuid.UUID) []byte {
	return []byte(sessionIndexPrefix + id.String())
}

// Open stores a new record and its id index.
func (r SessionRepository) Open(record SessionRecord) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key := sessionKey(record)
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(record.ID), key)
	})
}

// Close marks a session as ended. Rejected sessions keep their status.
func (r SessionRepository) Close(id uuid.UUID, at time.Time, undelivered int) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, record, err := r.get(txn, id)
		if err != nil {
			return err
		}
		if record.Status == SessionOpen {
			record.Status = SessionClosed
		}
		record.DisconnectedAt = &at
		record.Undelivered = undelivered
		bytes, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return txn.Set(key, bytes)
	})
}

func (r SessionRepository) Get(id uuid.UUID) (SessionRecord, error) {
	var record SessionRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		_, record, err = r.get(txn, id)
		return err
	})
	return record, err
}

func (r SessionRepository) get(txn *badger.Txn, id uuid.UUID) ([]byte, SessionRecord, error) {
	idx, err := txn.Get(indexKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, SessionRecord{}, fmt.Errorf("%w: %s", errors.ErrSessionNotFound, id)
		}
		return nil, SessionRecord{}, err
	}
	key, err := idx.ValueCopy(nil)
	if err != nil {
		return nil, SessionRecord{}, err
	}
	item, err := txn.Get(key)
	if err != nil {
		return nil, SessionRecord{}, err
	}
	var record SessionRecord
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	return key, record, err
}

// List returns the journal newest first, stopping at limit when it is set.
func (r SessionRepository) List(limit *int) ([]SessionRecord, error) {
	var records []SessionRecord
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(SessionPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Start after the newest possible key and walk back in time
		seekKey := append([]byte(SessionPrefix), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit != nil && len(records) == *limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d sessions reached", *limit))
				break
			}
			var record SessionRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	return records, err
}
