package pool

import (
	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
	"github.com/elys-network/lender/internal/accrual"
	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
)

type accountBuilder struct {
	types.AccountView
}

func newAccountView(owner common.Address) *accountBuilder {
	return &accountBuilder{types.AccountView{
		Owner:         owner.Hex(),
		TotalDeposit:  sdkmath.ZeroInt(),
		StableRewards: sdkmath.ZeroInt(),
		BonusRewards:  sdkmath.ZeroInt(),
		Positions:     []types.PositionView{},
	}}
}

func (a *accountBuilder) add(v types.PositionView) {
	a.TotalDeposit = a.TotalDeposit.Add(v.Principal)
	a.StableRewards = a.StableRewards.Add(v.PendingStable)
	a.BonusRewards = a.BonusRewards.Add(v.PendingBonus)
	a.Positions = append(a.Positions, v)
}

func positionView(id uint64, kind types.PositionKind, pos *accrual.Position, now int64, src accrual.RateSource, s accrual.Scales) types.PositionView {
	stable, bonus := pos.Pending(now, src, s)
	return types.PositionView{
		ID:            id,
		Kind:          kind,
		Principal:     pos.Principal,
		StartTime:     pos.Start,
		EndTime:       pos.End,
		Apr:           pos.Rates.Apr,
		BonusRate:     pos.Rates.BonusRate,
		PendingStable: stable,
		PendingBonus:  bonus,
		Matured:       pos.Matured(now),
	}
}

func forfeited(stableDenom string, stable sdkmath.Int, bonusDenom string, bonus sdkmath.Int) sdktypes.Coins {
	return sdktypes.NewCoins(sdkCoin(stableDenom, stable), sdkCoin(bonusDenom, bonus))
}
