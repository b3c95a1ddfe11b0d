/*

This file contains the parameters a pool is built from. They can come from the defaults
in the config package, from a pool definitions file, or from the database.

*/

package types

// CurveParameters describes a quadratic bonding curve
// rate(x) = (P1*x^2 - P2*x + P3) / 10^Decimals.
type CurveParameters struct {
	P1       uint64 `json:"p1" mapstructure:"p1"`
	P2       uint64 `json:"p2" mapstructure:"p2"`
	P3       uint64 `json:"p3" mapstructure:"p3"`
	Decimals uint32 `json:"decimals" mapstructure:"decimals"`
}

// StrategyParameters describes the lending adapter a pool deploys principal into.
type StrategyParameters struct {
	Name      string `json:"name" mapstructure:"name"`
	SupplyApy uint64 `json:"supply_apy" mapstructure:"supply_apy"` // Basis points per year
	Reserve   string `json:"reserve" mapstructure:"reserve"`       // Base units pre-funded to pay yield
}

// PoolParameters holds everything needed to construct a pool. Amounts are base-unit
// integer strings so that 18-decimal tokens fit.
type PoolParameters struct {
	Name                string             `json:"name" mapstructure:"name"`
	Kind                PoolKind           `json:"kind" mapstructure:"kind"`
	Admin               string             `json:"admin" mapstructure:"admin"`
	StableToken         Token              `json:"stable_token" mapstructure:"stable_token"`
	BonusToken          Token              `json:"bonus_token" mapstructure:"bonus_token"`
	MinDeposit          string             `json:"min_deposit" mapstructure:"min_deposit"`
	MaxLimit            string             `json:"max_limit" mapstructure:"max_limit"`
	WithdrawRate        uint64             `json:"withdraw_rate" mapstructure:"withdraw_rate"`
	VerificationEnabled bool               `json:"verification_enabled" mapstructure:"verification_enabled"`
	Strategy            StrategyParameters `json:"strategy" mapstructure:"strategy"`

	// Fixed-term
	Apr                  uint64 `json:"apr,omitempty" mapstructure:"apr"`
	BonusRate            uint64 `json:"bonus_rate,omitempty" mapstructure:"bonus_rate"`
	StartDelaySeconds    int64  `json:"start_delay_seconds,omitempty" mapstructure:"start_delay_seconds"`
	DepositWindowSeconds int64  `json:"deposit_window_seconds,omitempty" mapstructure:"deposit_window_seconds"`
	LockDays             uint64 `json:"lock_days,omitempty" mapstructure:"lock_days"`

	// Flexible-term
	BaseApr     uint64          `json:"base_apr,omitempty" mapstructure:"base_apr"`
	BaseRate    uint64          `json:"base_rate,omitempty" mapstructure:"base_rate"`
	MinLockDays uint64          `json:"min_lock_days,omitempty" mapstructure:"min_lock_days"`
	MaxLockDays uint64          `json:"max_lock_days,omitempty" mapstructure:"max_lock_days"`
	AprCurve    CurveParameters `json:"apr_curve,omitempty" mapstructure:"apr_curve"`
	RateCurve   CurveParameters `json:"rate_curve,omitempty" mapstructure:"rate_curve"`
}
