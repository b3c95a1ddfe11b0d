package accrual

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownPosition = errors.New("position does not exist")
	ErrNoDeposit       = errors.New("owner has no deposit")
)

// Account holds every position of one owner in one pool.
type Account struct {
	Base     *Position
	Locked   Arena[Position]
	Deposits []*Position
}

func (a *Account) empty() bool {
	return a.Base == nil && a.Locked.Len() == 0 && len(a.Deposits) == 0
}

// Book tracks positions per owner and the pool size, the sum of active principal.
// Pool size moves only through the Book; direct token transfers never touch it.
type Book struct {
	accounts map[common.Address]*Account
	poolSize sdkmath.Int
}

func NewBook() *Book {
	return &Book{
		accounts: make(map[common.Address]*Account),
		poolSize: sdkmath.ZeroInt(),
	}
}

func (b *Book) PoolSize() sdkmath.Int { return b.poolSize }

// Account returns the owner's account, or nil.
func (b *Book) Account(owner common.Address) *Account {
	return b.accounts[owner]
}

func (b *Book) ensure(owner common.Address) *Account {
	acc, ok := b.accounts[owner]
	if !ok {
		acc = &Account{}
		b.accounts[owner] = acc
	}
	return acc
}

func (b *Book) prune(owner common.Address) {
	if acc, ok := b.accounts[owner]; ok && acc.empty() {
		delete(b.accounts, owner)
	}
}

// AddDeposit appends a fixed-term deposit and returns its index for the owner.
func (b *Book) AddDeposit(p *Position) uint64 {
	acc := b.ensure(p.Owner)
	acc.Deposits = append(acc.Deposits, p)
	b.poolSize = b.poolSize.Add(p.Principal)
	return uint64(len(acc.Deposits) - 1)
}

// Deposits returns the owner's fixed-term deposits.
func (b *Book) Deposits(owner common.Address) []*Position {
	if acc := b.accounts[owner]; acc != nil {
		return acc.Deposits
	}
	return nil
}

// CloseDeposits removes every fixed-term deposit of owner.
func (b *Book) CloseDeposits(owner common.Address) ([]*Position, error) {
	acc := b.accounts[owner]
	if acc == nil || len(acc.Deposits) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDeposit, owner.Hex())
	}
	closed := acc.Deposits
	acc.Deposits = nil
	for _, p := range closed {
		b.poolSize = b.poolSize.Sub(p.Principal)
	}
	b.prune(owner)
	return closed, nil
}

func (b *Book) Base(owner common.Address) *Position {
	if acc := b.accounts[owner]; acc != nil {
		return acc.Base
	}
	return nil
}

// AddBase opens a base position or tops up the existing one.
func (b *Book) AddBase(owner common.Address, amount sdkmath.Int, now int64, src RateSource, s Scales) *Position {
	acc := b.ensure(owner)
	if acc.Base == nil {
		acc.Base = NewPosition(owner, amount, now, now, 0, Rates{})
	} else {
		acc.Base.TopUp(now, amount, src, s)
	}
	b.poolSize = b.poolSize.Add(amount)
	return acc.Base
}

func (b *Book) CloseBase(owner common.Address) (*Position, error) {
	acc := b.accounts[owner]
	if acc == nil || acc.Base == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDeposit, owner.Hex())
	}
	p := acc.Base
	acc.Base = nil
	b.poolSize = b.poolSize.Sub(p.Principal)
	b.prune(owner)
	return p, nil
}

// NextLockedID is the slot id the owner's next locked position will receive.
func (b *Book) NextLockedID(owner common.Address) uint64 {
	if acc := b.accounts[owner]; acc != nil {
		return acc.Locked.NextID()
	}
	return 0
}

func (b *Book) AddLocked(p *Position) uint64 {
	acc := b.ensure(p.Owner)
	id := acc.Locked.Allocate(p)
	b.poolSize = b.poolSize.Add(p.Principal)
	return id
}

func (b *Book) Locked(owner common.Address, id uint64) (*Position, error) {
	acc := b.accounts[owner]
	if acc == nil {
		return nil, fmt.Errorf("%w: %s/%d", ErrUnknownPosition, owner.Hex(), id)
	}
	p, ok := acc.Locked.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%d", ErrUnknownPosition, owner.Hex(), id)
	}
	return p, nil
}

func (b *Book) CloseLocked(owner common.Address, id uint64) (*Position, error) {
	p, err := b.Locked(owner, id)
	if err != nil {
		return nil, err
	}
	acc := b.accounts[owner]
	acc.Locked.Release(id)
	b.poolSize = b.poolSize.Sub(p.Principal)
	b.prune(owner)
	return p, nil
}

func (b *Book) LockedIDs(owner common.Address) []uint64 {
	if acc := b.accounts[owner]; acc != nil {
		return acc.Locked.IDs()
	}
	return nil
}

// TotalDeposit is the active principal of owner across all positions.
func (b *Book) TotalDeposit(owner common.Address) sdkmath.Int {
	total := sdkmath.ZeroInt()
	acc := b.accounts[owner]
	if acc == nil {
		return total
	}
	if acc.Base != nil {
		total = total.Add(acc.Base.Principal)
	}
	acc.Locked.Each(func(_ uint64, p *Position) { total = total.Add(p.Principal) })
	for _, p := range acc.Deposits {
		total = total.Add(p.Principal)
	}
	return total
}

// Owners lists owners with at least one active position, in address order.
func (b *Book) Owners() []common.Address {
	owners := make([]common.Address, 0, len(b.accounts))
	for owner := range b.accounts {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return bytes.Compare(owners[i][:], owners[j][:]) < 0 })
	return owners
}

// ActivePrincipal recomputes the pool size from the positions themselves.
func (b *Book) ActivePrincipal() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for owner := range b.accounts {
		total = total.Add(b.TotalDeposit(owner))
	}
	return total
}
