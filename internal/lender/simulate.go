package lender

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/pool"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
	"github.com/ethereum/go-ethereum/common"
)

// SimConfig drives an in-memory run over every pool of a registry.
type SimConfig struct {
	Lenders int
	Deposit sdkmath.Int // per lender and per position, stable base units
	Days    int         // simulated days, claims happen at the midpoint
}

// PoolReport summarises what one pool paid out during a simulation.
type PoolReport struct {
	Pool      string         `json:"pool"`
	Kind      types.PoolKind `json:"kind"`
	Deposited sdkmath.Int    `json:"deposited"`
	Paid      sdktypes.Coins `json:"paid"`
	Penalties sdkmath.Int    `json:"penalties"`
	Forfeited sdktypes.Coins `json:"forfeited"`
	Skipped   []string       `json:"skipped,omitempty"`
}

// Simulate deposits for a set of generated lenders into every pool, advances the clock
// day by day, claims bonuses halfway and closes every position at the end: normally
// when matured, by emergency withdrawal otherwise.
func Simulate(reg *Registry, clk *clock.Manual, cfg SimConfig) ([]PoolReport, error) {
	if cfg.Lenders <= 0 || cfg.Days <= 0 || cfg.Deposit.IsNil() || !cfg.Deposit.IsPositive() {
		return nil, fmt.Errorf("simulation needs lenders, days and a positive deposit")
	}
	lenders := make([]common.Address, cfg.Lenders)
	for i := range lenders {
		lenders[i] = utils.DeriveAddress("lender", fmt.Sprintf("lender-%d", i))
	}

	pools := reg.Pools()
	reports := make(map[string]*PoolReport, len(pools))
	for _, p := range pools {
		rep := &PoolReport{Pool: p.Name(), Kind: p.Kind(), Deposited: sdkmath.ZeroInt(), Penalties: sdkmath.ZeroInt()}
		reports[p.Name()] = rep
		if err := fundSimulation(reg, p, cfg); err != nil {
			return nil, err
		}
		for _, l := range lenders {
			if err := simDeposit(reg, p, l, cfg.Deposit, rep); err != nil {
				return nil, err
			}
		}
	}

	for day := 1; day <= cfg.Days; day++ {
		clk.Advance(accrual.Day)
		if day != cfg.Days/2 {
			continue
		}
		for _, p := range pools {
			for _, l := range lenders {
				simClaim(p, l, reports[p.Name()])
			}
		}
	}

	out := make([]PoolReport, 0, len(pools))
	for _, p := range pools {
		rep := reports[p.Name()]
		for _, l := range lenders {
			simClose(p, l, rep)
		}
		out = append(out, *rep)
	}
	return out, nil
}

// fundSimulation mints every lender's stake and enough reward liquidity for the whole run.
func fundSimulation(reg *Registry, p pool.Pool, cfg SimConfig) error {
	info := p.Info()
	total := cfg.Deposit.MulRaw(int64(cfg.Lenders) * 2)
	bonus, err := utils.ConvertDecimals(total, info.StableToken.Decimals, info.BonusToken.Decimals)
	if err != nil {
		return err
	}
	return reg.FundRewards(p.Name(), total, bonus.MulRaw(100))
}

func simDeposit(reg *Registry, p pool.Pool, lender common.Address, amount sdkmath.Int, rep *PoolReport) error {
	stable, _ := reg.Ledger(p.Info().StableToken.Denom)
	auth := access.As(lender)

	deposit := func(fn func() error) error {
		if err := stable.Mint(lender, amount); err != nil {
			return err
		}
		if err := stable.Approve(lender, p.Address(), amount); err != nil {
			return err
		}
		if err := fn(); err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("deposit %s: %v", lender.Hex(), err))
			return nil
		}
		rep.Deposited = rep.Deposited.Add(amount)
		return nil
	}

	switch tp := p.(type) {
	case *pool.FixedPool:
		return deposit(func() error { return tp.Deposit(auth, amount) })
	case *pool.FlexPool:
		if err := deposit(func() error { return tp.Deposit(auth, amount) }); err != nil {
			return err
		}
		minDays, _ := tp.DurationLimits()
		return deposit(func() error {
			_, err := tp.DepositLocked(auth, amount, minDays)
			return err
		})
	}
	return nil
}

func simClaim(p pool.Pool, lender common.Address, rep *PoolReport) {
	auth := access.As(lender)
	var (
		paid sdkmath.Int
		err  error
	)
	switch tp := p.(type) {
	case *pool.FixedPool:
		paid, err = tp.ClaimBonus(auth)
	case *pool.FlexPool:
		paid, err = tp.ClaimAllBonuses(auth)
	default:
		return
	}
	if err != nil {
		if !errors.Is(err, pool.ErrNoDeposit) {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("claim %s: %v", lender.Hex(), err))
		}
		return
	}
	rep.Paid = rep.Paid.Add(sdktypes.NewCoin(p.Info().BonusToken.Denom, paid))
}

func simClose(p pool.Pool, lender common.Address, rep *PoolReport) {
	auth := access.As(lender)
	record := func(out types.Payout, err error) {
		if err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("close %s: %v", lender.Hex(), err))
			return
		}
		rep.Paid = rep.Paid.Add(out.Coins()...)
		rep.Penalties = rep.Penalties.Add(out.Penalty.Amount)
		rep.Forfeited = rep.Forfeited.Add(out.Forfeited...)
	}

	switch tp := p.(type) {
	case *pool.FixedPool:
		if tp.TotalDeposit(lender).IsZero() {
			return
		}
		if tp.Info().Phase == types.PhaseMatured.String() {
			record(tp.Withdraw(auth))
		} else {
			record(tp.EmergencyWithdraw(auth))
		}
	case *pool.FlexPool:
		for _, id := range tp.LockedIDs(lender) {
			pos, err := tp.Position(lender, id)
			if err != nil {
				continue
			}
			if pos.Matured {
				record(tp.WithdrawLocked(auth, id))
			} else {
				record(tp.EmergencyWithdraw(auth, id))
			}
		}
		if tp.Account(lender).TotalDeposit.IsPositive() {
			record(tp.Withdraw(auth))
		}
	}
}
