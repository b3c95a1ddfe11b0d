package pool

import (
	sdkmath "cosmossdk.io/math"
	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// sdkCoin builds a coin from a denom validated at token construction.
func sdkCoin(denom string, amount sdkmath.Int) sdktypes.Coin {
	if amount.IsNil() || amount.IsNegative() {
		amount = sdkmath.ZeroInt()
	}
	return sdktypes.NewCoin(denom, amount)
}
