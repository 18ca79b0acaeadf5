// Package ledger tracks the lifecycle of legacy authorizations. Records are
// keyed by (owner, legacyId), created implicitly as UNUSED on first reference
// and never deleted: a finalized record is the replay guard.
package ledger

import (
	"context"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// State is the lifecycle state of a legacy record.
type State string

const (
	// StateUnused is the implicit state of a legacy that has never been
	// executed or revoked.
	StateUnused State = "UNUSED"
	// StateExecuted is the terminal state of a legacy whose transfer completed.
	StateExecuted State = "EXECUTED"
	// StateRevoked is the terminal state of a legacy withdrawn by its owner.
	StateRevoked State = "REVOKED"
)

// Values returns the values of the legacy record state.
func (State) Values() []string {
	return []string{
		string(StateUnused),
		string(StateExecuted),
		string(StateRevoked),
	}
}

// Finalized reports whether the state is terminal.
func (s State) Finalized() bool {
	return s == StateExecuted || s == StateRevoked
}

// Store persists per-(owner, legacyId) lifecycle state. Transitions are
// one-directional: UNUSED to EXECUTED or UNUSED to REVOKED, nothing else.
// Implementations must make each transition atomic for its key.
type Store interface {
	// State returns the current state of a record. Absent records are UNUSED.
	State(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) (State, error)

	// MarkExecuted transitions UNUSED to EXECUTED, or fails with
	// engine.ErrAlreadyFinalized.
	MarkExecuted(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) error

	// Revoke transitions UNUSED to REVOKED. Revoking an already revoked
	// record is a no-op success; revoking an executed record fails with
	// engine.ErrAlreadyFinalized.
	Revoke(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) error
}

func recordID(legacyID *big.Int) (string, error) {
	if legacyID == nil {
		return "", fmt.Errorf("legacy id cannot be nil")
	}
	if legacyID.Sign() < 0 || legacyID.BitLen() > 256 {
		return "", fmt.Errorf("legacy id is out of uint256 range")
	}
	return legacyID.String(), nil
}
