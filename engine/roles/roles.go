// Package roles is the engine's access control: a single immutable admin and
// a mutable operator set, modeled as capability flags per account rather than
// a role hierarchy.
package roles

import (
	"fmt"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/events"
)

// RoleOperator names the operator capability in role change records.
const RoleOperator = "operator"

// Registry holds role membership. The admin is fixed at construction; only
// the admin may change the operator set. An empty operator set is valid.
type Registry struct {
	admin  ethcommon.Address
	router *events.Router

	mu        sync.RWMutex
	operators map[ethcommon.Address]bool
}

// NewRegistry creates a registry with the given admin and initial operators.
// Membership changes are published to router; a nil router disables records.
func NewRegistry(admin ethcommon.Address, initial []ethcommon.Address, router *events.Router) *Registry {
	operators := make(map[ethcommon.Address]bool, len(initial))
	for _, operator := range initial {
		operators[operator] = true
	}
	return &Registry{
		admin:     admin,
		router:    router,
		operators: operators,
	}
}

// Admin returns the administrative account.
func (r *Registry) Admin() ethcommon.Address {
	return r.admin
}

// IsAdmin reports whether the account is the administrative account.
func (r *Registry) IsAdmin(account ethcommon.Address) bool {
	return account == r.admin
}

// IsOperator reports whether the account may redeem legacies.
func (r *Registry) IsOperator(account ethcommon.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.operators[account]
}

// AddOperator grants operator membership. Admin only; granting twice is a
// no-op success.
func (r *Registry) AddOperator(caller, account ethcommon.Address) error {
	if !r.IsAdmin(caller) {
		return fmt.Errorf("%w: only the admin can add operators", engine.ErrUnauthorized)
	}

	r.mu.Lock()
	already := r.operators[account]
	r.operators[account] = true
	r.mu.Unlock()

	if !already && r.router != nil {
		r.router.Publish(events.NewRoleChanged(account, RoleOperator, true))
	}
	return nil
}

// RemoveOperator revokes operator membership. Admin only; removing an account
// that is not an operator is a no-op success.
func (r *Registry) RemoveOperator(caller, account ethcommon.Address) error {
	if !r.IsAdmin(caller) {
		return fmt.Errorf("%w: only the admin can remove operators", engine.ErrUnauthorized)
	}

	r.mu.Lock()
	present := r.operators[account]
	delete(r.operators, account)
	r.mu.Unlock()

	if present && r.router != nil {
		r.router.Publish(events.NewRoleChanged(account, RoleOperator, false))
	}
	return nil
}

// Operators returns a snapshot of the operator set.
func (r *Registry) Operators() []ethcommon.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]ethcommon.Address, 0, len(r.operators))
	for operator := range r.operators {
		snapshot = append(snapshot, operator)
	}
	return snapshot
}
