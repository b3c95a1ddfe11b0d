package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/logger"
)

// EventStore persists committed pool events into pool_events.
type EventStore struct {
	Timeout time.Duration
}

var _ events.Emitter = EventStore{}

// Emit never fails the operation that produced the event; write errors are logged.
func (s EventStore) Emit(ev events.Event) {
	if err := s.Save(context.Background(), ev); err != nil {
		l := logger.GetForComponent("event_store")
		l.Error().Err(err).
			Str("pool", ev.Pool).Str("kind", string(ev.Kind)).Str("id", ev.ID).Msg("Failed to persist event")
	}
}

func (s EventStore) Save(ctx context.Context, ev events.Event) error {
	if DB == nil {
		return ErrNotInitialized
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attrs, err := json.Marshal(ev.Attributes)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}
	_, err = DB.ExecContext(ctx, `
		INSERT INTO pool_events (event_id, pool_name, kind, event_timestamp, attributes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING;`,
		ev.ID, ev.Pool, string(ev.Kind), ev.Timestamp, attrs)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.ID, err)
	}
	return nil
}
