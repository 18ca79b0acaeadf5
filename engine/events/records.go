package events

import (
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/aeviaprotocol/aevia-go/engine"
)

// Record is an audit record emitted by the engine.
type Record interface {
	RecordType() string
}

// LegacyExecuted is emitted after a legacy transfer commits. It carries every
// field of the executed authorization.
type LegacyExecuted struct {
	RecordID  uuid.UUID
	Timestamp time.Time
	Legacy    engine.Legacy
}

func (LegacyExecuted) RecordType() string { return "legacy_executed" }

// NewLegacyExecuted stamps an execution record.
func NewLegacyExecuted(legacy engine.Legacy) LegacyExecuted {
	return LegacyExecuted{
		RecordID:  uuid.New(),
		Timestamp: time.Now().UTC(),
		Legacy:    legacy,
	}
}

// LegacyRevoked is emitted when an owner revokes an authorization.
type LegacyRevoked struct {
	RecordID  uuid.UUID
	Timestamp time.Time
	Owner     ethcommon.Address
	LegacyID  *big.Int
}

func (LegacyRevoked) RecordType() string { return "legacy_revoked" }

// NewLegacyRevoked stamps a revocation record.
func NewLegacyRevoked(owner ethcommon.Address, legacyID *big.Int) LegacyRevoked {
	return LegacyRevoked{
		RecordID:  uuid.New(),
		Timestamp: time.Now().UTC(),
		Owner:     owner,
		LegacyID:  new(big.Int).Set(legacyID),
	}
}

// RoleChanged is emitted when the operator set changes.
type RoleChanged struct {
	RecordID  uuid.UUID
	Timestamp time.Time
	Account   ethcommon.Address
	Role      string
	Granted   bool
}

func (RoleChanged) RecordType() string { return "role_changed" }

// NewRoleChanged stamps a role membership change record.
func NewRoleChanged(account ethcommon.Address, role string, granted bool) RoleChanged {
	return RoleChanged{
		RecordID:  uuid.New(),
		Timestamp: time.Now().UTC(),
		Account:   account,
		Role:      role,
		Granted:   granted,
	}
}
