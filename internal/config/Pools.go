package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/elys-network/lender/internal/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var ErrNoPools = errors.New("pool definitions file defines no pools")

// LoadPools reads pool definitions from path (YAML, JSON or TOML, by extension).
// Values can be overridden from the environment with the LENDER_ prefix, for
// example LENDER_DEFAULTS_ADMIN. Definitions without an admin get admin.
func LoadPools(path string, admin common.Address) ([]types.PoolParameters, error) {
	v := viper.New()
	v.SetEnvPrefix("LENDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("defaults.admin", admin.Hex())

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read pool definitions %s: %w", path, err)
	}

	var pools []types.PoolParameters
	if err := v.UnmarshalKey("pools", &pools); err != nil {
		return nil, fmt.Errorf("decode pool definitions %s: %w", path, err)
	}
	if len(pools) == 0 {
		return nil, ErrNoPools
	}

	fallback := v.GetString("defaults.admin")
	seen := make(map[string]bool, len(pools))
	for i := range pools {
		p := &pools[i]
		if p.Name == "" {
			return nil, fmt.Errorf("pool definition %d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("pool %q is defined twice", p.Name)
		}
		seen[p.Name] = true
		if p.Admin == "" {
			p.Admin = fallback
		}
		if p.Kind != types.PoolKindFixed && p.Kind != types.PoolKindFlexible {
			return nil, fmt.Errorf("pool %q has unknown kind %q", p.Name, p.Kind)
		}
	}

	log.Info().Str("file", path).Int("pools", len(pools)).Msg("Loaded pool definitions")
	return pools, nil
}
