package accrual

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
)

var testScales = Scales{Stable: 6, Bonus: 18}

func stable(units int64) sdkmath.Int {
	return sdkmath.NewInt(units).Mul(sdkmath.NewInt(1_000_000))
}

func mustInt(t *testing.T, s string) sdkmath.Int {
	t.Helper()
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		t.Fatalf("bad int literal %q", s)
	}
	return v
}

func TestStableReward(t *testing.T) {
	// 100 units at 10% over 90 days
	got := StableReward(stable(100), 90*Day, 1000)
	assert.Equal(t, sdkmath.NewInt(2465753), got)

	assert.True(t, StableReward(stable(100), 0, 1000).IsZero())
	assert.True(t, StableReward(stable(100), 90*Day, 0).IsZero())
}

func TestBonusRewardScalesAcrossDecimals(t *testing.T) {
	got := BonusReward(stable(100), 90*Day, 100, testScales)
	assert.Equal(t, mustInt(t, "24657534246575342465"), got)

	// A full year at rate 100 pays exactly one bonus token per stable token
	got = BonusReward(stable(1), SecondsPerYear, 100, testScales)
	assert.Equal(t, mustInt(t, "1000000000000000000"), got)
}

func TestSettleFloorsOnce(t *testing.T) {
	// Two one-second segments accumulated before flooring must not lose the remainder twice.
	rt := ZeroRateTime().Add(1, Rates{Apr: 1}).Add(1, Rates{Apr: 1})
	s, _ := rt.Settle(sdkmath.NewInt(SecondsPerYear*10000/2), Scales{})
	assert.Equal(t, sdkmath.NewInt(1), s)
}

func TestPenalty(t *testing.T) {
	assert.Equal(t, stable(10), Penalty(stable(100), 1000))
	assert.True(t, Penalty(stable(100), 0).IsZero())
	assert.Equal(t, sdkmath.NewInt(3), Penalty(sdkmath.NewInt(7), 5000))
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                 string
		from, to, start, end int64
		expected             int64
	}{
		{"inside", 10, 20, 0, 100, 10},
		{"clamped start", 0, 20, 10, 100, 10},
		{"clamped end", 50, 200, 0, 100, 50},
		{"disjoint", 0, 10, 20, 30, 0},
		{"inverted", 20, 10, 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Overlap(tt.from, tt.to, tt.start, tt.end))
		})
	}
}
