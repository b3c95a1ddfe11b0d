// Package lender assembles pools, their tokens and strategies from parameters and
// runs the monitor that observes them.
package lender

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/curve"
	"github.com/elys-network/lender/internal/eligibility"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/pool"
	"github.com/elys-network/lender/internal/strategy"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownPool   = errors.New("unknown pool")
	ErrDuplicatePool = errors.New("pool already registered")
	ErrWrongKind     = errors.New("pool has a different kind")
	ErrInvalidParams = errors.New("invalid pool parameters")
)

// Registry owns every ledger, strategy adapter, eligibility gate and pool of one deployment.
// Adapters are shared by name across pools and administered by the operator.
type Registry struct {
	mu       sync.RWMutex
	operator common.Address
	clock    clock.Clock
	emitter  events.Emitter
	logger   zerolog.Logger

	ledgers       map[string]*token.Ledger
	adapters      map[string]*strategy.LendingAdapter
	adapterDenoms map[string]string
	gates         map[string]*eligibility.Registry
	pools         map[string]pool.Pool
	params        map[string]types.PoolParameters
}

func NewRegistry(operator common.Address, clk clock.Clock, emitter events.Emitter) *Registry {
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Registry{
		operator:      operator,
		clock:         clk,
		emitter:       emitter,
		logger:        logger.GetForComponent("lender_registry"),
		ledgers:       make(map[string]*token.Ledger),
		adapters:      make(map[string]*strategy.LendingAdapter),
		adapterDenoms: make(map[string]string),
		gates:         make(map[string]*eligibility.Registry),
		pools:         make(map[string]pool.Pool),
		params:        make(map[string]types.PoolParameters),
	}
}

func (r *Registry) Clock() clock.Clock { return r.clock }

// BuildAll builds every pool in order and stops at the first failure.
func (r *Registry) BuildAll(params []types.PoolParameters) error {
	for _, p := range params {
		if _, err := r.Build(p); err != nil {
			return fmt.Errorf("build pool %s: %w", p.Name, err)
		}
	}
	return nil
}

// Build creates one pool and everything it depends on, then authorizes the pool on its strategy.
func (r *Registry) Build(params types.PoolParameters) (pool.Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pools[params.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePool, params.Name)
	}
	if !common.IsHexAddress(params.Admin) {
		return nil, fmt.Errorf("%w: admin %q is not an address", ErrInvalidParams, params.Admin)
	}
	admin := common.HexToAddress(params.Admin)

	minDeposit, err := parseAmount("min_deposit", params.MinDeposit)
	if err != nil {
		return nil, err
	}
	maxLimit, err := parseAmount("max_limit", params.MaxLimit)
	if err != nil {
		return nil, err
	}

	stable, err := r.ledger(params.StableToken)
	if err != nil {
		return nil, err
	}
	bonus, err := r.ledger(params.BonusToken)
	if err != nil {
		return nil, err
	}
	adapter, err := r.adapter(params.Strategy, stable)
	if err != nil {
		return nil, err
	}

	gate := eligibility.NewRegistry(params.Name+"-verification", admin)
	base := pool.CommonConfig{
		Name:                params.Name,
		Admin:               admin,
		StableToken:         stable,
		BonusToken:          bonus,
		MinDeposit:          minDeposit,
		MaxLimit:            maxLimit,
		WithdrawRate:        params.WithdrawRate,
		Strategy:            adapter,
		Gate:                gate,
		VerificationEnabled: params.VerificationEnabled,
		Clock:               r.clock,
		Emitter:             r.emitter,
	}

	var p pool.Pool
	switch params.Kind {
	case types.PoolKindFixed:
		p, err = r.buildFixed(base, params)
	case types.PoolKindFlexible:
		p, err = r.buildFlex(base, params)
	default:
		err = fmt.Errorf("%w: unknown kind %q", ErrInvalidParams, params.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := adapter.Authorize(access.As(r.operator), p.Address()); err != nil {
		return nil, fmt.Errorf("authorize pool on strategy %s: %w", adapter.Name(), err)
	}

	r.pools[params.Name] = p
	r.params[params.Name] = params
	r.gates[params.Name] = gate

	r.logger.Info().
		Str("pool", params.Name).
		Str("kind", string(params.Kind)).
		Str("address", p.Address().Hex()).
		Str("strategy", adapter.Name()).
		Msg("Pool registered")
	return p, nil
}

func (r *Registry) buildFixed(base pool.CommonConfig, params types.PoolParameters) (*pool.FixedPool, error) {
	start := r.clock.Now() + params.StartDelaySeconds
	return pool.NewFixedPool(pool.FixedConfig{
		CommonConfig:   base,
		Apr:            params.Apr,
		BonusRate:      params.BonusRate,
		StartDate:      start,
		DepositEndDate: start + params.DepositWindowSeconds,
		LockDays:       params.LockDays,
	})
}

func (r *Registry) buildFlex(base pool.CommonConfig, params types.PoolParameters) (*pool.FlexPool, error) {
	cfg := pool.FlexConfig{
		CommonConfig: base,
		BaseApr:      params.BaseApr,
		BaseRate:     params.BaseRate,
		MinLockDays:  params.MinLockDays,
		MaxLockDays:  params.MaxLockDays,
	}
	if params.AprCurve != (types.CurveParameters{}) {
		c, err := curve.New(params.Name+"-apr", params.AprCurve)
		if err != nil {
			return nil, err
		}
		cfg.AprCurve = c
	}
	if params.RateCurve != (types.CurveParameters{}) {
		c, err := curve.New(params.Name+"-rate", params.RateCurve)
		if err != nil {
			return nil, err
		}
		cfg.RateCurve = c
	}
	return pool.NewFlexPool(cfg)
}

// ledger returns the ledger for info's denom, creating it on first use. Caller holds mu.
func (r *Registry) ledger(info types.Token) (*token.Ledger, error) {
	if l, ok := r.ledgers[info.Denom]; ok {
		if l.Info() != info {
			return nil, fmt.Errorf("%w: token %s already registered as %+v", ErrInvalidParams, info.Denom, l.Info())
		}
		return l, nil
	}
	l, err := token.NewLedger(info)
	if err != nil {
		return nil, err
	}
	r.ledgers[info.Denom] = l
	return l, nil
}

// adapter returns the named lending adapter, creating and pre-funding it on first use. Caller holds mu.
func (r *Registry) adapter(params types.StrategyParameters, stable *token.Ledger) (*strategy.LendingAdapter, error) {
	if a, ok := r.adapters[params.Name]; ok {
		if r.adapterDenoms[params.Name] != stable.Info().Denom {
			return nil, fmt.Errorf("%w: strategy %s lends a different token", ErrInvalidParams, params.Name)
		}
		return a, nil
	}
	a, err := strategy.NewLendingAdapter(strategy.LendingConfig{
		Name:      params.Name,
		Admin:     r.operator,
		Token:     stable,
		Clock:     r.clock,
		SupplyApy: params.SupplyApy,
	})
	if err != nil {
		return nil, err
	}
	if params.Reserve != "" {
		reserve, err := parseAmount("strategy.reserve", params.Reserve)
		if err != nil {
			return nil, err
		}
		if reserve.IsPositive() {
			if err := stable.Mint(a.Address(), reserve); err != nil {
				return nil, err
			}
		}
	}
	r.adapters[params.Name] = a
	r.adapterDenoms[params.Name] = stable.Info().Denom
	return a, nil
}

func parseAmount(field, s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("%w: %s %q is not an integer", ErrInvalidParams, field, s)
	}
	return v, nil
}

// --- Lookups ---

func (r *Registry) Pool(name string) (pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.pools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	return p, nil
}

func (r *Registry) Fixed(name string) (*pool.FixedPool, error) {
	p, err := r.Pool(name)
	if err != nil {
		return nil, err
	}
	fp, ok := p.(*pool.FixedPool)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrWrongKind, name, p.Kind())
	}
	return fp, nil
}

func (r *Registry) Flex(name string) (*pool.FlexPool, error) {
	p, err := r.Pool(name)
	if err != nil {
		return nil, err
	}
	fp, ok := p.(*pool.FlexPool)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrWrongKind, name, p.Kind())
	}
	return fp, nil
}

// Pools returns every registered pool ordered by name.
func (r *Registry) Pools() []pool.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]pool.Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Parameters returns the parameters a pool was built from.
func (r *Registry) Parameters(name string) (types.PoolParameters, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.params[name]
	if !ok {
		return types.PoolParameters{}, fmt.Errorf("%w: %s", ErrUnknownPool, name)
	}
	return p, nil
}

func (r *Registry) Ledger(denom string) (*token.Ledger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.ledgers[denom]
	return l, ok
}

func (r *Registry) Adapter(name string) (*strategy.LendingAdapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Gate returns the eligibility registry built for a pool.
func (r *Registry) Gate(poolName string) (*eligibility.Registry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gates[poolName]
	return g, ok
}

// FundRewards mints reward liquidity straight into a pool's account. Pool size is unaffected.
func (r *Registry) FundRewards(name string, stable, bonus sdkmath.Int) error {
	p, err := r.Pool(name)
	if err != nil {
		return err
	}
	info := p.Info()
	if stable.IsPositive() {
		l, _ := r.Ledger(info.StableToken.Denom)
		if err := l.Mint(p.Address(), stable); err != nil {
			return err
		}
	}
	if bonus.IsPositive() {
		l, _ := r.Ledger(info.BonusToken.Denom)
		if err := l.Mint(p.Address(), bonus); err != nil {
			return err
		}
	}
	r.logger.Info().Str("pool", name).Str("stable", stable.String()).Str("bonus", bonus.String()).Msg("Reward liquidity funded")
	return nil
}
