package strategy

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/token"
	"github.com/elys-network/lender/internal/txn"
	"github.com/ethereum/go-ethereum/common"
)

// FundAdapter grants the adapter exactly amount and deposits it for pool.
// On failure the grant is revoked.
func FundAdapter(pool common.Address, tok token.Token, adapter Adapter, amount sdkmath.Int) error {
	if adapter == nil {
		return ErrNilAdapter
	}
	if err := tok.Approve(pool, adapter.Address(), amount); err != nil {
		return fmt.Errorf("approve %s: %w", adapter.Name(), err)
	}
	if err := adapter.Deposit(access.As(pool), amount); err != nil {
		if rerr := tok.Approve(pool, adapter.Address(), sdkmath.ZeroInt()); rerr != nil {
			return fmt.Errorf("deposit into %s: %w (revoke: %v)", adapter.Name(), err, rerr)
		}
		return fmt.Errorf("deposit into %s: %w", adapter.Name(), err)
	}
	return nil
}

// Switch moves everything pool holds into to as one unit: drain from, revoke its
// allowance, then fund to with the pool's whole stable holding except reserved.
// When any step fails the completed steps are compensated and from keeps the
// funds. from may be nil when the pool has no adapter yet. Returns the amount
// deposited into to.
func Switch(pool common.Address, tok token.Token, from, to Adapter, reserved sdkmath.Int) (sdkmath.Int, error) {
	if to == nil {
		return sdkmath.ZeroInt(), ErrNilAdapter
	}
	if from != nil && from.Address() == to.Address() {
		return sdkmath.ZeroInt(), ErrSameAdapter
	}
	if reserved.IsNil() || reserved.IsNegative() {
		reserved = sdkmath.ZeroInt()
	}

	tx := txn.New("switch_strategy")
	if from != nil {
		drained, err := from.Balance(pool)
		if err != nil {
			return sdkmath.ZeroInt(), fmt.Errorf("balance of %s: %w", from.Name(), err)
		}

		if drained.IsPositive() {
			err = tx.Do("drain_old",
				func() error { return from.Withdraw(access.As(pool), drained) },
				func() error { return FundAdapter(pool, tok, from, drained) },
			)
			if err != nil {
				return sdkmath.ZeroInt(), tx.Abort(err)
			}
		}

		prevAllowance := tok.Allowance(pool, from.Address())
		err = tx.Do("revoke_old",
			func() error { return tok.Approve(pool, from.Address(), sdkmath.ZeroInt()) },
			func() error { return tok.Approve(pool, from.Address(), prevAllowance) },
		)
		if err != nil {
			return sdkmath.ZeroInt(), tx.Abort(err)
		}
	}

	moved := tok.BalanceOf(pool).Sub(reserved)
	if !moved.IsPositive() {
		tx.Commit()
		return sdkmath.ZeroInt(), nil
	}
	err := tx.Do("fund_new", func() error { return FundAdapter(pool, tok, to, moved) }, nil)
	if err != nil {
		return sdkmath.ZeroInt(), tx.Abort(err)
	}

	tx.Commit()
	return moved, nil
}
