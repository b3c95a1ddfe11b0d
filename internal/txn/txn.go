// Package txn runs a multi-step operation across components that share no
// transaction. Each applied step registers its inverse; on failure the inverses
// run newest first.
package txn

import (
	"errors"
	"fmt"

	"github.com/elys-network/lender/internal/logger"
)

var txnLogger = logger.GetForComponent("txn")

// ErrRollbackFailed marks an operation whose compensation did not complete.
// State may be inconsistent and needs operator attention.
var ErrRollbackFailed = errors.New("rollback failed")

type undoStep struct {
	name string
	fn   func() error
}

type Txn struct {
	name      string
	undo      []undoStep
	committed bool
}

func New(name string) *Txn {
	return &Txn{name: name}
}

// Do applies a step. When apply succeeds its undo is registered; undo may be nil
// for steps with nothing to revert.
func (t *Txn) Do(step string, apply func() error, undo func() error) error {
	if err := apply(); err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	if undo != nil {
		t.undo = append(t.undo, undoStep{name: step, fn: undo})
	}
	return nil
}

// Abort reverts every applied step and returns cause, joined with any
// compensation failure.
func (t *Txn) Abort(cause error) error {
	if t.committed {
		return cause
	}
	var rbErrs []error
	for i := len(t.undo) - 1; i >= 0; i-- {
		s := t.undo[i]
		if err := s.fn(); err != nil {
			txnLogger.Error().Err(err).Str("txn", t.name).Str("step", s.name).Msg("Compensation step failed")
			rbErrs = append(rbErrs, fmt.Errorf("undo %s: %w", s.name, err))
		}
	}
	t.undo = nil
	if len(rbErrs) > 0 {
		return errors.Join(cause, fmt.Errorf("%w: %w", ErrRollbackFailed, errors.Join(rbErrs...)))
	}
	txnLogger.Debug().Str("txn", t.name).Err(cause).Msg("Operation rolled back")
	return cause
}

// Commit discards the registered compensations.
func (t *Txn) Commit() {
	t.committed = true
	t.undo = nil
}
