package pool

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/events"
	"github.com/elys-network/lender/internal/strategy"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const t0 = int64(1_700_000_000)

var (
	admin = common.HexToAddress("0xad00000000000000000000000000000000000001")
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fixture struct {
	clock    *clock.Manual
	usdc     *token.Ledger
	elys     *token.Ledger
	market   *strategy.LendingAdapter
	recorder *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	usdc, err := token.NewLedger(types.Token{Symbol: "USDC", Denom: "uusdc", Decimals: 6})
	require.NoError(t, err)
	elys, err := token.NewLedger(types.Token{Symbol: "ELYS", Denom: "uelys", Decimals: 18})
	require.NoError(t, err)

	f := &fixture{clock: clock.NewManual(t0), usdc: usdc, elys: elys, recorder: events.NewRecorder()}
	f.market = f.adapter(t, "market")
	return f
}

func (f *fixture) adapter(t *testing.T, name string) *strategy.LendingAdapter {
	t.Helper()
	a, err := strategy.NewLendingAdapter(strategy.LendingConfig{Name: name, Admin: admin, Token: f.usdc, Clock: f.clock})
	require.NoError(t, err)
	return a
}

func (f *fixture) common(name string) CommonConfig {
	return CommonConfig{
		Name:         name,
		Admin:        admin,
		StableToken:  f.usdc,
		BonusToken:   f.elys,
		MinDeposit:   usdc(1),
		MaxLimit:     usdc(1_000_000),
		WithdrawRate: 0,
		Strategy:     f.market,
		Clock:        f.clock,
		Emitter:      f.recorder,
	}
}

// authorize lets the pool move funds through the adapter.
func (f *fixture) authorize(t *testing.T, a *strategy.LendingAdapter, pool common.Address) {
	t.Helper()
	require.NoError(t, a.Authorize(access.As(admin), pool))
}

// fund gives owner stable tokens and approves the pool to pull them.
func (f *fixture) fund(t *testing.T, owner, pool common.Address, amount sdkmath.Int) {
	t.Helper()
	require.NoError(t, f.usdc.Mint(owner, amount))
	require.NoError(t, f.usdc.Approve(owner, pool, f.usdc.Allowance(owner, pool).Add(amount)))
}

// reserve tops up the pool's reward holdings with a direct transfer.
func (f *fixture) reserve(t *testing.T, pool common.Address, stable, bonus sdkmath.Int) {
	t.Helper()
	require.NoError(t, f.usdc.Mint(pool, stable))
	require.NoError(t, f.elys.Mint(pool, bonus))
}

func usdc(units int64) sdkmath.Int {
	return sdkmath.NewInt(units).Mul(sdkmath.NewInt(1_000_000))
}

func elys(units int64) sdkmath.Int {
	return sdkmath.NewInt(units).Mul(sdkmath.NewIntWithDecimal(1, 18))
}

func mustInt(t *testing.T, s string) sdkmath.Int {
	t.Helper()
	v, ok := sdkmath.NewIntFromString(s)
	require.True(t, ok, s)
	return v
}

const day = accrual.Day
