package accrual

import (
	"errors"
	"fmt"
	"sort"
)

var ErrCheckpointOrder = errors.New("checkpoint timestamp precedes the latest checkpoint")

// Checkpoint records the rates in force from Timestamp until the next checkpoint.
type Checkpoint struct {
	Timestamp int64 `json:"timestamp"`
	Rates     Rates `json:"rates"`
}

// CheckpointLog is an append-only, time-ordered history of rate changes.
type CheckpointLog struct {
	entries []Checkpoint
}

// NewCheckpointLog starts a log with the rates in force at genesis.
func NewCheckpointLog(genesis int64, initial Rates) *CheckpointLog {
	return &CheckpointLog{entries: []Checkpoint{{Timestamp: genesis, Rates: initial}}}
}

// Append records new rates from ts onwards. A second change at the same
// timestamp replaces the tail entry: nothing has accrued under it yet.
func (l *CheckpointLog) Append(ts int64, r Rates) error {
	last := l.entries[len(l.entries)-1]
	switch {
	case ts < last.Timestamp:
		return fmt.Errorf("%w: %d < %d", ErrCheckpointOrder, ts, last.Timestamp)
	case ts == last.Timestamp:
		l.entries[len(l.entries)-1].Rates = r
	default:
		l.entries = append(l.entries, Checkpoint{Timestamp: ts, Rates: r})
	}
	return nil
}

func (l *CheckpointLog) Latest() Checkpoint {
	return l.entries[len(l.entries)-1]
}

func (l *CheckpointLog) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log.
func (l *CheckpointLog) Entries() []Checkpoint {
	out := make([]Checkpoint, len(l.entries))
	copy(out, l.entries)
	return out
}

// Integrate sums elapsed*rate over every segment overlapping [from, to).
// Time before genesis accrues nothing.
func (l *CheckpointLog) Integrate(from, to int64) RateTime {
	acc := ZeroRateTime()
	if to <= from {
		return acc
	}
	// first segment whose successor starts after from
	i := sort.Search(len(l.entries), func(i int) bool {
		return i+1 >= len(l.entries) || l.entries[i+1].Timestamp > from
	})
	for ; i < len(l.entries); i++ {
		start := l.entries[i].Timestamp
		if start >= to {
			break
		}
		end := to
		if i+1 < len(l.entries) {
			end = l.entries[i+1].Timestamp
		}
		acc = acc.Add(Overlap(from, to, start, end), l.entries[i].Rates)
	}
	return acc
}
