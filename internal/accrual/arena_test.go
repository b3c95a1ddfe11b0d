package accrual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaLowestFreeIndexReuse(t *testing.T) {
	var a Arena[int]
	v := func(i int) *int { return &i }

	assert.Equal(t, uint64(0), a.Allocate(v(10)))
	assert.Equal(t, uint64(1), a.Allocate(v(11)))
	assert.Equal(t, uint64(2), a.Allocate(v(12)))
	assert.Equal(t, uint64(3), a.Allocate(v(13)))

	require.True(t, a.Release(2))
	require.True(t, a.Release(0))
	assert.False(t, a.Release(0), "double release")
	assert.Equal(t, 2, a.Len())

	_, ok := a.Get(0)
	assert.False(t, ok)

	assert.Equal(t, uint64(0), a.NextID())
	assert.Equal(t, uint64(0), a.Allocate(v(20)))
	assert.Equal(t, uint64(2), a.Allocate(v(21)))
	assert.Equal(t, uint64(4), a.Allocate(v(22)))
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, a.IDs())

	got, ok := a.Get(2)
	require.True(t, ok)
	assert.Equal(t, 21, *got)
}

func TestArenaTrimsTrailingTombstones(t *testing.T) {
	var a Arena[int]
	x := 1
	a.Allocate(&x)
	a.Allocate(&x)
	a.Release(1)
	a.Release(0)
	assert.Equal(t, 0, a.Len())
	assert.Empty(t, a.IDs())
	assert.Equal(t, uint64(0), a.NextID())
}
