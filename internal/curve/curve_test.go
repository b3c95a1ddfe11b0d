package curve

import (
	"testing"

	"github.com/elys-network/lender/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	aprParams  = types.CurveParameters{P1: 2799, P2: 179200, P3: 493000000, Decimals: 6}
	rateParams = types.CurveParameters{P1: 704, P2: 52150, P3: 24640000, Decimals: 6}
)

func TestBondingCurveRates(t *testing.T) {
	apr, err := New("apr", aprParams)
	require.NoError(t, err)
	rate, err := New("rate", rateParams)
	require.NoError(t, err)

	tests := []struct {
		name     string
		curve    *BondingCurve
		days     uint64
		expected uint64
	}{
		{"apr at 90 days", apr, 90, 499},
		{"apr at 180 days", apr, 180, 551},
		{"apr at 365 days", apr, 365, 800},
		{"rate at 90 days", rate, 90, 25},
		{"rate at 180 days", rate, 180, 38},
		{"rate at 365 days", rate, 365, 99},
		{"apr at zero", apr, 0, 493},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.curve.Rate(tt.days)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBondingCurveIsPure(t *testing.T) {
	c, err := New("apr", aprParams)
	require.NoError(t, err)

	first, err := c.Rate(200)
	require.NoError(t, err)
	second, err := c.Rate(200)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBondingCurveNegative(t *testing.T) {
	c, err := New("dip", types.CurveParameters{P1: 0, P2: 10, P3: 5, Decimals: 0})
	require.NoError(t, err)

	_, err = c.Rate(1)
	assert.ErrorIs(t, err, ErrNegativeRate)
}

func TestNewRejectsInvalidCurves(t *testing.T) {
	_, err := New("", aprParams)
	assert.ErrorIs(t, err, ErrInvalidCurve)

	_, err = New("wide", types.CurveParameters{Decimals: 19})
	assert.ErrorIs(t, err, ErrInvalidCurve)
}
