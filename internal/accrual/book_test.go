package accrual

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bob = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

func TestBookPoolSizeMatchesActivePrincipal(t *testing.T) {
	book := NewBook()
	log := NewCheckpointLog(0, Rates{})
	now := int64(1000)

	book.AddDeposit(NewPosition(alice, stable(100), now, now, now+Day, Rates{}))
	book.AddDeposit(NewPosition(alice, stable(50), now, now, now+Day, Rates{}))
	book.AddBase(bob, stable(10), now, log, testScales)
	id := book.AddLocked(NewPosition(bob, stable(40), now, now, now+90*Day, Rates{}))
	assert.Equal(t, uint64(0), id)

	assert.Equal(t, stable(200), book.PoolSize())
	assert.Equal(t, book.ActivePrincipal(), book.PoolSize())
	assert.Equal(t, stable(150), book.TotalDeposit(alice))
	assert.Equal(t, stable(50), book.TotalDeposit(bob))

	closed, err := book.CloseDeposits(alice)
	require.NoError(t, err)
	assert.Len(t, closed, 2)
	assert.Equal(t, stable(50), book.PoolSize())
	assert.Nil(t, book.Account(alice), "empty accounts are pruned")

	_, err = book.CloseDeposits(alice)
	assert.ErrorIs(t, err, ErrNoDeposit)

	_, err = book.CloseLocked(bob, 0)
	require.NoError(t, err)
	_, err = book.CloseLocked(bob, 0)
	assert.ErrorIs(t, err, ErrUnknownPosition)

	_, err = book.CloseBase(bob)
	require.NoError(t, err)
	assert.True(t, book.PoolSize().IsZero())
	assert.Equal(t, book.ActivePrincipal(), book.PoolSize())
	assert.Empty(t, book.Owners())
}

func TestBookLockedSlotReuse(t *testing.T) {
	book := NewBook()
	now := int64(0)
	open := func() uint64 {
		return book.AddLocked(NewPosition(alice, sdkmath.NewInt(1), now, now, now+Day, Rates{}))
	}

	assert.Equal(t, uint64(0), open())
	assert.Equal(t, uint64(1), open())
	assert.Equal(t, uint64(2), open())

	_, err := book.CloseLocked(alice, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), book.NextLockedID(alice))
	assert.Equal(t, uint64(1), open())
	assert.Equal(t, []uint64{0, 1, 2}, book.LockedIDs(alice))
	assert.Equal(t, uint64(0), book.NextLockedID(bob))
}

func TestBookOwnersSorted(t *testing.T) {
	book := NewBook()
	book.AddDeposit(NewPosition(bob, sdkmath.NewInt(1), 0, 0, Day, Rates{}))
	book.AddDeposit(NewPosition(alice, sdkmath.NewInt(1), 0, 0, Day, Rates{}))
	assert.Equal(t, []common.Address{bob, alice}, book.Owners(), "0x..000b0b sorts before 0x..0a11ce")
}
