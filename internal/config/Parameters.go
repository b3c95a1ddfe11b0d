/*

This file contains the default pool definitions used when no pool definitions file is
configured and the database holds no active parameters.

Rates use the pool units: APR in hundredths of a percent (1000 is 10.00%) and bonus rate in
hundredths of a bonus token per stable token per year (100 is 1.00).

*/

package config

import (
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// DefaultStableToken is the deposit and stable-reward token.
	DefaultStableToken = types.Token{Symbol: "USDC", Denom: "uusdc", Decimals: 6}
	// DefaultBonusToken is the bonus-reward token.
	DefaultBonusToken = types.Token{Symbol: "ELYS", Denom: "uelys", Decimals: 18}

	// DefaultAprCurve yields 4.99% at 90 days, 5.51% at 180 days and 8.00% at 365 days.
	DefaultAprCurve = types.CurveParameters{P1: 2799, P2: 179200, P3: 493000000, Decimals: 6}
	// DefaultRateCurve yields 0.25 at 90 days, 0.38 at 180 days and 0.99 at 365 days.
	DefaultRateCurve = types.CurveParameters{P1: 704, P2: 52150, P3: 24640000, Decimals: 6}

	DefaultStrategy = types.StrategyParameters{Name: "usdc-lending", SupplyApy: 300, Reserve: "0"}
)

const (
	defaultMinDeposit = "1000000"       // 1 USDC
	defaultMaxLimit   = "1000000000000" // 1,000,000 USDC
)

// DefaultFixedParameters describes a 90-day fixed-term pool opening one day after startup
// with a two-day deposit window.
func DefaultFixedParameters(admin common.Address) types.PoolParameters {
	return types.PoolParameters{
		Name:         "fixed-90d",
		Kind:         types.PoolKindFixed,
		Admin:        admin.Hex(),
		StableToken:  DefaultStableToken,
		BonusToken:   DefaultBonusToken,
		MinDeposit:   defaultMinDeposit,
		MaxLimit:     defaultMaxLimit,
		WithdrawRate: 500,
		Strategy:     DefaultStrategy,

		Apr:                  1000,
		BonusRate:            100,
		StartDelaySeconds:    86400,
		DepositWindowSeconds: 2 * 86400,
		LockDays:             90,
	}
}

// DefaultFlexParameters describes a flexible-term pool with base rates and locks of 90 to 365 days.
func DefaultFlexParameters(admin common.Address) types.PoolParameters {
	return types.PoolParameters{
		Name:         "flex",
		Kind:         types.PoolKindFlexible,
		Admin:        admin.Hex(),
		StableToken:  DefaultStableToken,
		BonusToken:   DefaultBonusToken,
		MinDeposit:   defaultMinDeposit,
		MaxLimit:     defaultMaxLimit,
		WithdrawRate: 500,
		Strategy:     DefaultStrategy,

		BaseApr:     400,
		BaseRate:    10,
		MinLockDays: 90,
		MaxLockDays: 365,
		AprCurve:    DefaultAprCurve,
		RateCurve:   DefaultRateCurve,
	}
}

// DefaultPools is the set of pools a fresh deployment starts with.
func DefaultPools(admin common.Address) []types.PoolParameters {
	return []types.PoolParameters{DefaultFixedParameters(admin), DefaultFlexParameters(admin)}
}
