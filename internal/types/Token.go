/*

This is a custom type for the tokens a lending pool moves: the stable token users deposit
and the bonus token paid out as an extra reward.

*/

package types

import (
	"fmt"

	sdktypes "github.com/cosmos/cosmos-sdk/types"
)

// MaxTokenDecimals bounds the decimal scale a token may declare.
const MaxTokenDecimals = 18

type Token struct {
	Symbol   string `json:"symbol" mapstructure:"symbol"`     // e.g., "USDC"
	Denom    string `json:"denom" mapstructure:"denom"`       // e.g., "uusdc"
	Decimals uint32 `json:"decimals" mapstructure:"decimals"` // e.g., 6 means 1000000 = 1 Token
}

// Validate checks the denom against the SDK denom rules and bounds the decimals.
func (t Token) Validate() error {
	if err := sdktypes.ValidateDenom(t.Denom); err != nil {
		return fmt.Errorf("token %s: %w", t.Symbol, err)
	}
	if t.Decimals > MaxTokenDecimals {
		return fmt.Errorf("token %s: decimals %d exceed %d", t.Symbol, t.Decimals, MaxTokenDecimals)
	}
	return nil
}
