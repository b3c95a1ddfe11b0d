// Package eligibility answers whether an address may deposit into a pool that has
// verification enabled.
package eligibility

import (
	"sync"

	"github.com/elys-network/lender/internal/access"
	"github.com/elys-network/lender/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

var eligibilityLogger = logger.GetForComponent("eligibility")

// Gate is the eligibility check a pool consults before accepting a deposit.
type Gate interface {
	Name() string
	IsEligible(who common.Address) (bool, error)
}

// Registry is an admin-maintained allowlist.
type Registry struct {
	name   string
	policy *access.Policy

	mu       sync.RWMutex
	verified map[common.Address]bool
}

var _ Gate = (*Registry)(nil)

func NewRegistry(name string, admin common.Address) *Registry {
	return &Registry{
		name:     name,
		policy:   access.NewPolicy(admin),
		verified: make(map[common.Address]bool),
	}
}

func (r *Registry) Name() string { return r.name }

func (r *Registry) IsEligible(who common.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.verified[who], nil
}

// SetStatus marks an address as verified or not.
func (r *Registry) SetStatus(auth access.Auth, who common.Address, verified bool) error {
	if err := r.policy.Check(auth, access.OpSetEligibility); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if verified {
		r.verified[who] = true
	} else {
		delete(r.verified, who)
	}
	eligibilityLogger.Info().Str("registry", r.name).Str("address", who.Hex()).Bool("verified", verified).Msg("Eligibility status changed")
	return nil
}
