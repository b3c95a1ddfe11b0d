// Package access holds the authorization context passed into every mutating pool
// call and the static table deciding which role each operation needs.
package access

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnauthorized     = errors.New("caller is not authorized")
	ErrUnknownOperation = errors.New("operation has no policy entry")
)

type Role string

const (
	// RoleAnyone is satisfied by every non-zero caller.
	RoleAnyone     Role = "anyone"
	RoleAdmin      Role = "admin"
	RoleLenderPool Role = "lender_pool"
)

type Operation string

const (
	OpDeposit                  Operation = "deposit"
	OpDepositLocked            Operation = "deposit_locked"
	OpClaimBonus               Operation = "claim_bonus"
	OpWithdraw                 Operation = "withdraw"
	OpEmergencyWithdraw        Operation = "emergency_withdraw"
	OpSwitchStrategy           Operation = "switch_strategy"
	OpSetWithdrawRate          Operation = "set_withdraw_rate"
	OpWithdrawFees             Operation = "withdraw_fees"
	OpChangePoolLimit          Operation = "change_pool_limit"
	OpSwitchVerification       Operation = "switch_verification"
	OpChangeVerificationStatus Operation = "change_verification_status"
	OpChangeBaseRates          Operation = "change_base_rates"
	OpSwitchCurve              Operation = "switch_curve"
	OpChangeDurationLimit      Operation = "change_duration_limit"
	OpStrategyDeposit          Operation = "strategy_deposit"
	OpStrategyWithdraw         Operation = "strategy_withdraw"
	OpSetEligibility           Operation = "set_eligibility"
	OpGrantRole                Operation = "grant_role"
)

// operationRoles is the static policy table.
var operationRoles = map[Operation]Role{
	OpDeposit:                  RoleAnyone,
	OpDepositLocked:            RoleAnyone,
	OpClaimBonus:               RoleAnyone,
	OpWithdraw:                 RoleAnyone,
	OpEmergencyWithdraw:        RoleAnyone,
	OpSwitchStrategy:           RoleAdmin,
	OpSetWithdrawRate:          RoleAdmin,
	OpWithdrawFees:             RoleAdmin,
	OpChangePoolLimit:          RoleAdmin,
	OpSwitchVerification:       RoleAdmin,
	OpChangeVerificationStatus: RoleAdmin,
	OpChangeBaseRates:          RoleAdmin,
	OpSwitchCurve:              RoleAdmin,
	OpChangeDurationLimit:      RoleAdmin,
	OpStrategyDeposit:          RoleLenderPool,
	OpStrategyWithdraw:         RoleLenderPool,
	OpSetEligibility:           RoleAdmin,
	OpGrantRole:                RoleAdmin,
}

// RequiredRole looks an operation up in the policy table.
func RequiredRole(op Operation) (Role, error) {
	role, ok := operationRoles[op]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}
	return role, nil
}

// Auth is the authorization context of one call.
type Auth struct {
	Caller common.Address
}

func As(caller common.Address) Auth {
	return Auth{Caller: caller}
}

// Policy records which addresses hold which roles for one component.
type Policy struct {
	mu     sync.RWMutex
	grants map[Role]map[common.Address]struct{}
}

// NewPolicy creates a policy with admin granted to the given address.
func NewPolicy(admin common.Address) *Policy {
	p := &Policy{grants: make(map[Role]map[common.Address]struct{})}
	p.grant(RoleAdmin, admin)
	return p
}

func (p *Policy) grant(role Role, who common.Address) {
	if _, ok := p.grants[role]; !ok {
		p.grants[role] = make(map[common.Address]struct{})
	}
	p.grants[role][who] = struct{}{}
}

// Grant gives a role to an address. Only admins may grant.
func (p *Policy) Grant(auth Auth, role Role, who common.Address) error {
	if err := p.Check(auth, OpGrantRole); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.grant(role, who)
	return nil
}

// Revoke removes a role from an address. Only admins may revoke.
func (p *Policy) Revoke(auth Auth, role Role, who common.Address) error {
	if err := p.Check(auth, OpGrantRole); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.grants[role], who)
	return nil
}

func (p *Policy) HasRole(role Role, who common.Address) bool {
	if role == RoleAnyone {
		return who != (common.Address{})
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.grants[role][who]
	return ok
}

// Check authorizes auth for op against the policy table.
func (p *Policy) Check(auth Auth, op Operation) error {
	role, err := RequiredRole(op)
	if err != nil {
		return err
	}
	if !p.HasRole(role, auth.Caller) {
		return fmt.Errorf("%w: %s needs %s for %s", ErrUnauthorized, auth.Caller.Hex(), role, op)
	}
	return nil
}
