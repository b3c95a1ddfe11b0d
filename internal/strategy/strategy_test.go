package strategy

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/clock"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = common.HexToAddress("0xad00000000000000000000000000000000000001")
	pool  = common.HexToAddress("0x9000000000000000000000000000000000000009")
	other = common.HexToAddress("0x8000000000000000000000000000000000000008")
)

type fixture struct {
	clock *clock.Manual
	usdc  *token.Ledger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	usdc, err := token.NewLedger(types.Token{Symbol: "USDC", Denom: "uusdc", Decimals: 6})
	require.NoError(t, err)
	return fixture{clock: clock.NewManual(1_700_000_000), usdc: usdc}
}

func (f fixture) adapter(t *testing.T, name string, apy uint64) *LendingAdapter {
	t.Helper()
	a, err := NewLendingAdapter(LendingConfig{Name: name, Admin: admin, Token: f.usdc, Clock: f.clock, SupplyApy: apy})
	require.NoError(t, err)
	require.NoError(t, a.Authorize(access.As(admin), pool))
	return a
}

func TestNewLendingAdapterValidation(t *testing.T) {
	f := newFixture(t)
	_, err := NewLendingAdapter(LendingConfig{Name: "", Admin: admin, Token: f.usdc, Clock: f.clock})
	assert.Error(t, err)
	_, err = NewLendingAdapter(LendingConfig{Name: "x", Token: f.usdc, Clock: f.clock})
	assert.Error(t, err)
	_, err = NewLendingAdapter(LendingConfig{Name: "x", Admin: admin, Token: f.usdc, Clock: f.clock, SupplyApy: 10001})
	assert.Error(t, err)
}

func TestLendingAdapterDepositWithdraw(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "market", 0)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(1000)))

	require.NoError(t, FundAdapter(pool, f.usdc, a, sdkmath.NewInt(600)))
	bal, err := a.Balance(pool)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(600), bal)
	assert.Equal(t, sdkmath.NewInt(400), f.usdc.BalanceOf(pool))
	assert.True(t, f.usdc.Allowance(pool, a.Address()).IsZero())

	err = a.Withdraw(access.As(pool), sdkmath.NewInt(601))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, a.Withdraw(access.As(pool), sdkmath.NewInt(600)))
	assert.Equal(t, sdkmath.NewInt(1000), f.usdc.BalanceOf(pool))
}

func TestLendingAdapterRejectsUnauthorizedCallers(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "market", 0)
	require.NoError(t, f.usdc.Mint(other, sdkmath.NewInt(10)))
	require.NoError(t, f.usdc.Approve(other, a.Address(), sdkmath.NewInt(10)))

	err := a.Deposit(access.As(other), sdkmath.NewInt(10))
	assert.ErrorIs(t, err, access.ErrUnauthorized)
	err = a.Withdraw(access.As(other), sdkmath.NewInt(1))
	assert.ErrorIs(t, err, access.ErrUnauthorized)
}

func TestLendingAdapterAccruesYield(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "market", 500)
	principal := sdkmath.NewInt(1_000_000_000)
	require.NoError(t, f.usdc.Mint(pool, principal))
	require.NoError(t, f.usdc.Mint(a.Address(), sdkmath.NewInt(100_000_000))) // yield reserve

	require.NoError(t, FundAdapter(pool, f.usdc, a, principal))
	f.clock.Advance(accrual.SecondsPerYear)

	bal, err := a.Balance(pool)
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(1_050_000_000), bal)

	require.NoError(t, a.Withdraw(access.As(pool), bal))
	assert.Equal(t, sdkmath.NewInt(1_050_000_000), f.usdc.BalanceOf(pool))
}

func TestSwitchMovesEverything(t *testing.T) {
	f := newFixture(t)
	oldA := f.adapter(t, "old", 0)
	newA := f.adapter(t, "new", 0)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(500)))
	require.NoError(t, FundAdapter(pool, f.usdc, oldA, sdkmath.NewInt(500)))

	moved, err := Switch(pool, f.usdc, oldA, newA, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(500), moved)

	oldBal, _ := oldA.Balance(pool)
	newBal, _ := newA.Balance(pool)
	assert.True(t, oldBal.IsZero())
	assert.Equal(t, sdkmath.NewInt(500), newBal)
	assert.True(t, f.usdc.Allowance(pool, oldA.Address()).IsZero())
	assert.True(t, f.usdc.BalanceOf(pool).IsZero())
}

func TestSwitchRollsBackWhenNewAdapterFails(t *testing.T) {
	f := newFixture(t)
	oldA := f.adapter(t, "old", 0)
	newA := NewFaulty(f.adapter(t, "new", 0))
	newA.FailDeposits(true)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(500)))
	require.NoError(t, FundAdapter(pool, f.usdc, oldA, sdkmath.NewInt(500)))

	_, err := Switch(pool, f.usdc, oldA, newA, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrInjectedFailure)

	oldBal, _ := oldA.Balance(pool)
	newBal, _ := newA.Balance(pool)
	assert.Equal(t, sdkmath.NewInt(500), oldBal, "old adapter keeps the funds")
	assert.True(t, newBal.IsZero())
	assert.True(t, f.usdc.BalanceOf(pool).IsZero())
	assert.True(t, f.usdc.Allowance(pool, newA.Address()).IsZero())
}

func TestSwitchAbortsWhenDrainFails(t *testing.T) {
	f := newFixture(t)
	oldA := NewFaulty(f.adapter(t, "old", 0))
	newA := f.adapter(t, "new", 0)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(500)))
	require.NoError(t, FundAdapter(pool, f.usdc, oldA, sdkmath.NewInt(500)))
	oldA.FailWithdrawals(true)

	_, err := Switch(pool, f.usdc, oldA, newA, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrInjectedFailure)

	oldBal, _ := oldA.Balance(pool)
	assert.Equal(t, sdkmath.NewInt(500), oldBal)
}

func TestSwitchGuards(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "a", 0)

	_, err := Switch(pool, f.usdc, a, nil, sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrNilAdapter)

	_, err = Switch(pool, f.usdc, a, a, sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrSameAdapter)

	moved, err := Switch(pool, f.usdc, nil, a, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.True(t, moved.IsZero())
}

func TestSwitchMovesPoolHoldingExceptReserved(t *testing.T) {
	f := newFixture(t)
	oldA := f.adapter(t, "old", 0)
	newA := f.adapter(t, "new", 0)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(570)))
	require.NoError(t, FundAdapter(pool, f.usdc, oldA, sdkmath.NewInt(500)))

	moved, err := Switch(pool, f.usdc, oldA, newA, sdkmath.NewInt(20))
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(550), moved)

	newBal, _ := newA.Balance(pool)
	assert.Equal(t, sdkmath.NewInt(550), newBal)
	assert.Equal(t, sdkmath.NewInt(20), f.usdc.BalanceOf(pool))
}

func TestFirstSwitchFundsFromPoolHolding(t *testing.T) {
	f := newFixture(t)
	a := f.adapter(t, "a", 0)
	require.NoError(t, f.usdc.Mint(pool, sdkmath.NewInt(300)))

	moved, err := Switch(pool, f.usdc, nil, a, sdkmath.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, sdkmath.NewInt(300), moved)
	bal, _ := a.Balance(pool)
	assert.Equal(t, sdkmath.NewInt(300), bal)
	assert.True(t, f.usdc.BalanceOf(pool).IsZero())
}
