// Package token models the fungible tokens pools hold and move.
package token

import (
	"errors"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/elys-network/lender/internal/logger"
	"github.com/elys-network/lender/internal/types"
	"github.com/elys-network/lender/internal/utils"
	"github.com/ethereum/go-ethereum/common"
)

var tokenLogger = logger.GetForComponent("token_ledger")

var (
	ErrInsufficientBalance   = errors.New("transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("transfer amount exceeds allowance")
	ErrZeroAddress           = errors.New("zero address")
	ErrInvalidAmount         = errors.New("invalid amount")
)

// Token is the transfer surface pools and strategies consume.
type Token interface {
	Info() types.Token
	Address() common.Address
	BalanceOf(owner common.Address) sdkmath.Int
	Allowance(owner, spender common.Address) sdkmath.Int
	Transfer(from, to common.Address, amount sdkmath.Int) error
	TransferFrom(spender, from, to common.Address, amount sdkmath.Int) error
	Approve(owner, spender common.Address, amount sdkmath.Int) error
}

// Ledger is an in-memory Token with ERC20 semantics.
type Ledger struct {
	mu          sync.RWMutex
	info        types.Token
	address     common.Address
	balances    map[common.Address]sdkmath.Int
	allowances  map[common.Address]map[common.Address]sdkmath.Int
	totalSupply sdkmath.Int
}

var _ Token = (*Ledger)(nil)

func NewLedger(info types.Token) (*Ledger, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &Ledger{
		info:        info,
		address:     utils.DeriveAddress("token", info.Denom),
		balances:    make(map[common.Address]sdkmath.Int),
		allowances:  make(map[common.Address]map[common.Address]sdkmath.Int),
		totalSupply: sdkmath.ZeroInt(),
	}, nil
}

func (l *Ledger) Info() types.Token { return l.info }

func (l *Ledger) Address() common.Address { return l.address }

func (l *Ledger) TotalSupply() sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

func (l *Ledger) BalanceOf(owner common.Address) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceOf(owner)
}

func (l *Ledger) balanceOf(owner common.Address) sdkmath.Int {
	if b, ok := l.balances[owner]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

func (l *Ledger) Allowance(owner, spender common.Address) sdkmath.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowance(owner, spender)
}

func (l *Ledger) allowance(owner, spender common.Address) sdkmath.Int {
	if a, ok := l.allowances[owner][spender]; ok {
		return a
	}
	return sdkmath.ZeroInt()
}

// Mint credits new supply to an account.
func (l *Ledger) Mint(to common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return fmt.Errorf("%w: mint to the zero address", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] = l.balanceOf(to).Add(amount)
	l.totalSupply = l.totalSupply.Add(amount)
	tokenLogger.Debug().Str("token", l.info.Symbol).Str("to", to.Hex()).Str("amount", amount.String()).Msg("Minted")
	return nil
}

func (l *Ledger) Transfer(from, to common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

func (l *Ledger) TransferFrom(spender, from, to common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	allowed := l.allowance(from, spender)
	if allowed.LT(amount) {
		return fmt.Errorf("%s: %w (%s < %s)", l.info.Symbol, ErrInsufficientAllowance, allowed, amount)
	}
	if err := l.transfer(from, to, amount); err != nil {
		return err
	}
	l.setAllowance(from, spender, allowed.Sub(amount))
	return nil
}

func (l *Ledger) Approve(owner, spender common.Address, amount sdkmath.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if owner == (common.Address{}) || spender == (common.Address{}) {
		return fmt.Errorf("%w: approve", ErrZeroAddress)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setAllowance(owner, spender, amount)
	return nil
}

func (l *Ledger) setAllowance(owner, spender common.Address, amount sdkmath.Int) {
	if _, ok := l.allowances[owner]; !ok {
		l.allowances[owner] = make(map[common.Address]sdkmath.Int)
	}
	l.allowances[owner][spender] = amount
}

func (l *Ledger) transfer(from, to common.Address, amount sdkmath.Int) error {
	if from == (common.Address{}) || to == (common.Address{}) {
		return fmt.Errorf("%w: transfer", ErrZeroAddress)
	}
	bal := l.balanceOf(from)
	if bal.LT(amount) {
		return fmt.Errorf("%s: %w (%s < %s)", l.info.Symbol, ErrInsufficientBalance, bal, amount)
	}
	l.balances[from] = bal.Sub(amount)
	l.balances[to] = l.balanceOf(to).Add(amount)
	return nil
}

func checkAmount(amount sdkmath.Int) error {
	if amount.IsNil() || amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
