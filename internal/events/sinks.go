package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// LogEmitter writes every event to a zerolog logger.
type LogEmitter struct {
	Logger zerolog.Logger
}

func (l LogEmitter) Emit(ev Event) {
	entry := l.Logger.Info().
		Str("event_id", ev.ID).
		Str("pool", ev.Pool).
		Str("kind", string(ev.Kind)).
		Int64("timestamp", ev.Timestamp)
	for k, v := range ev.Attributes {
		entry = entry.Str(k, v)
	}
	entry.Msg("Pool event")
}

// Recorder keeps events in memory in emission order.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) ByKind(kind Kind) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Last returns the most recent event of a kind.
func (r *Recorder) Last(kind Kind) (Event, bool) {
	matches := r.ByKind(kind)
	if len(matches) == 0 {
		return Event{}, false
	}
	return matches[len(matches)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Multi fans an event out to several emitters in order.
type Multi []Emitter

func (m Multi) Emit(ev Event) {
	for _, e := range m {
		if e != nil {
			e.Emit(ev)
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(Event) {}
