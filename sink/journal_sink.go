package sink

import (
	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/repositories"
	"context"
	"fmt"
	"log/slog"
)

// JournalSink records session openings and closings in the session journal.
type JournalSink struct {
	repository repositories.ISessionRepository
	log        *slog.Logger
}

func NewJournalSink(repository repositories.ISessionRepository, log *slog.Logger) JournalSink {
	return JournalSink{repository: repository, log: log}
}

func (j JournalSink) Name() string { return "journal" }

func (j JournalSink) Consume(ctx context.Context, e event.LifecycleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch evt := e.(type) {
	case event.PeerJoined:
		return j.repository.Open(toSessionRecord(evt.PeerSession(), repositories.SessionOpen))
	case event.PeerRejected:
		record := toSessionRecord(evt.PeerSession(), repositories.SessionRejected)
		record.DisconnectedAt = &evt.At
		return j.repository.Open(record)
	case event.PeerLeft:
		return j.repository.Close(evt.Session.ID, evt.At, evt.Undelivered)
	default:
		j.log.Debug(fmt.Sprintf("Not implemented event : %T", evt))
		return nil
	}
}

func toSessionRecord(session domain.Session, status repositories.SessionStatus) repositories.SessionRecord {
	return repositories.SessionRecord{
		ID:          session.ID,
		Name:        string(session.Name),
		RemoteAddr:  session.RemoteAddr,
		Status:      status,
		ConnectedAt: session.ConnectedAt,
	}
}
