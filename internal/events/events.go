// Package events defines the notifications pools publish after an operation commits
// and the sinks that consume them.
package events

import (
	"strconv"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

type Kind string

const (
	KindDeposited                 Kind = "Deposited"
	KindBonusClaimed              Kind = "BonusClaimed"
	KindWithdrawn                 Kind = "Withdrawn"
	KindWithdrawnEmergency        Kind = "WithdrawnEmergency"
	KindStrategySwitched          Kind = "StrategySwitched"
	KindBaseAprChanged            Kind = "BaseAprChanged"
	KindBaseRateChanged           Kind = "BaseRateChanged"
	KindAprCurveSwitched          Kind = "AprBondingCurveSwitched"
	KindRateCurveSwitched         Kind = "RateBondingCurveSwitched"
	KindDurationLimitChanged      Kind = "DurationLimitChanged"
	KindPoolLimitChanged          Kind = "PoolLimitChanged"
	KindWithdrawRateChanged       Kind = "WithdrawRateChanged"
	KindFeesWithdrawn             Kind = "FeesWithdrawn"
	KindVerificationSwitched      Kind = "VerificationSwitched"
	KindVerificationStatusChanged Kind = "VerificationStatusChanged"
)

// Event is one committed state change. Attributes carry the kind-specific payload
// as decimal strings so large amounts survive JSON round trips.
type Event struct {
	ID         string            `json:"id"`
	Pool       string            `json:"pool"`
	Kind       Kind              `json:"kind"`
	Timestamp  int64             `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

// Emitter receives events once the operation that produced them has committed.
type Emitter interface {
	Emit(ev Event)
}

func newEvent(pool string, kind Kind, ts int64, attrs ...string) Event {
	m := make(map[string]string, len(attrs)/2)
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i]] = attrs[i+1]
	}
	return Event{
		ID:         uuid.New().String(),
		Pool:       pool,
		Kind:       kind,
		Timestamp:  ts,
		Attributes: m,
	}
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func Deposited(pool string, ts int64, lender common.Address, id uint64, amount sdkmath.Int, lockSeconds int64, apr, rate uint64) Event {
	return newEvent(pool, KindDeposited, ts,
		"lender", lender.Hex(),
		"id", u64(id),
		"amount", amount.String(),
		"lock_seconds", strconv.FormatInt(lockSeconds, 10),
		"apr", u64(apr),
		"rate", u64(rate),
	)
}

func BonusClaimed(pool string, ts int64, lender common.Address, amount sdkmath.Int) Event {
	return newEvent(pool, KindBonusClaimed, ts, "lender", lender.Hex(), "amount", amount.String())
}

func Withdrawn(pool string, ts int64, lender common.Address, principal, stableReward, bonusReward sdkmath.Int) Event {
	return newEvent(pool, KindWithdrawn, ts,
		"lender", lender.Hex(),
		"principal", principal.String(),
		"stable_reward", stableReward.String(),
		"bonus_reward", bonusReward.String(),
	)
}

func WithdrawnEmergency(pool string, ts int64, lender common.Address, paid, penalty, forfeitedStable, forfeitedBonus sdkmath.Int) Event {
	return newEvent(pool, KindWithdrawnEmergency, ts,
		"lender", lender.Hex(),
		"amount", paid.String(),
		"penalty", penalty.String(),
		"forfeited_stable", forfeitedStable.String(),
		"forfeited_bonus", forfeitedBonus.String(),
	)
}

func StrategySwitched(pool string, ts int64, oldStrategy, newStrategy string, moved sdkmath.Int) Event {
	return newEvent(pool, KindStrategySwitched, ts, "old", oldStrategy, "new", newStrategy, "moved", moved.String())
}

// ValueChanged covers the admin setters that replace one scalar with another.
func ValueChanged(pool string, kind Kind, ts int64, oldValue, newValue string) Event {
	return newEvent(pool, kind, ts, "old", oldValue, "new", newValue)
}

func DurationLimitChanged(pool string, ts int64, minDays, maxDays uint64) Event {
	return newEvent(pool, KindDurationLimitChanged, ts, "min_days", u64(minDays), "max_days", u64(maxDays))
}

func FeesWithdrawn(pool string, ts int64, to common.Address, amount sdkmath.Int) Event {
	return newEvent(pool, KindFeesWithdrawn, ts, "to", to.Hex(), "amount", amount.String())
}
