package lender

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/metrics"
	"github.com/elys-network/lender/internal/state"
	"github.com/elys-network/lender/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MonitorConfig holds the configuration for creating a new Monitor
type MonitorConfig struct {
	Registry *Registry
	Metrics  *metrics.Metrics // optional
	Persist  bool             // write snapshots and cycle numbers to the database
}

// Monitor periodically snapshots every pool, publishes gauges and checks that each
// strategy still covers the principal its pool owes.
type Monitor struct {
	logger   zerolog.Logger
	registry *Registry
	metrics  *metrics.Metrics
	persist  bool

	cycleCount int
}

func NewMonitor(cfg MonitorConfig) (*Monitor, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("monitor configuration validation failed: registry cannot be nil")
	}
	m := &Monitor{
		logger:   logger.GetForComponent("lender_monitor"),
		registry: cfg.Registry,
		metrics:  cfg.Metrics,
		persist:  cfg.Persist,
	}
	m.logger.Info().Bool("persist", m.persist).Msg("Monitor created")
	return m, nil
}

// RunLoop runs a cycle immediately and then once per interval until ctx is done.
func (m *Monitor) RunLoop(ctx context.Context, interval time.Duration) {
	m.logger.Info().Dur("interval", interval).Msg("Starting monitor loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.runTimed(ctx)
	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Monitor loop stopped due to context cancellation")
			return
		case <-ticker.C:
			m.runTimed(ctx)
		}
	}
}

func (m *Monitor) runTimed(ctx context.Context) {
	start := time.Now()
	_, err := m.RunCycle(ctx)
	if m.metrics != nil {
		m.metrics.ObserveCycle(time.Since(start), err)
	}
	if err != nil {
		m.logger.Error().Err(err).Msg("Monitor cycle failed")
	}
}

// RunCycle snapshots every registered pool once. A failing pool does not stop the others;
// their errors are joined.
func (m *Monitor) RunCycle(ctx context.Context) ([]types.PoolSnapshot, error) {
	cycleID := uuid.New().String()
	cycleNumber := m.nextCycleNumber()
	cycleLogger := m.logger.With().Str("cycle_id", cycleID).Int("cycle", cycleNumber).Logger()
	cycleLogger.Info().Msg("--- Starting monitor cycle ---")

	var (
		snapshots []types.PoolSnapshot
		errs      []error
	)
	for _, p := range m.registry.Pools() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		info := p.Info()
		balance, err := p.StrategyBalance()
		if err != nil {
			errs = append(errs, fmt.Errorf("pool %s strategy balance: %w", info.Name, err))
			continue
		}
		owners := p.Owners()
		snap := types.PoolSnapshot{
			CycleNumber:     cycleNumber,
			CycleID:         cycleID,
			PoolName:        info.Name,
			Timestamp:       time.Unix(m.registry.Clock().Now(), 0).UTC(),
			PoolSize:        info.PoolSize,
			TotalPenaltyFee: info.TotalPenaltyFee,
			StrategyBalance: balance,
			Owners:          make([]string, 0, len(owners)),
			Info:            info,
		}
		for _, o := range owners {
			snap.Owners = append(snap.Owners, o.Hex())
		}

		if balance.LT(info.PoolSize) {
			cycleLogger.Warn().
				Str("pool", info.Name).
				Str("poolSize", info.PoolSize.String()).
				Str("strategyBalance", balance.String()).
				Msg("Strategy holds less than the principal owed")
		}
		if m.metrics != nil {
			m.metrics.ObservePool(info, balance, len(owners))
		}
		if m.persist {
			if _, err := state.SavePoolSnapshot(snap); err != nil {
				errs = append(errs, fmt.Errorf("pool %s snapshot: %w", info.Name, err))
			}
		}
		snapshots = append(snapshots, snap)

		cycleLogger.Info().
			Str("pool", info.Name).
			Str("poolSize", info.PoolSize.String()).
			Int("lenders", len(owners)).
			Msg("Pool observed")
	}

	cycleLogger.Info().Int("pools", len(snapshots)).Msg("--- Monitor cycle completed ---")
	return snapshots, errors.Join(errs...)
}

func (m *Monitor) nextCycleNumber() int {
	if m.persist {
		n, err := state.IncrementCycleNumber()
		if err == nil {
			m.cycleCount = n
			return n
		}
		m.logger.Warn().Err(err).Msg("Failed to increment persistent cycle counter, using local count")
	}
	m.cycleCount++
	return m.cycleCount
}
