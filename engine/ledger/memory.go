package ledger

import (
	"context"
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
)

type recordKey struct {
	owner    ethcommon.Address
	legacyID string
}

// MemoryStore keeps legacy records in process memory. Suitable for tests and
// for embedding the engine into a host that provides its own durability.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[recordKey]State),
	}
}

// State returns the current state of a record. Absent records are UNUSED.
func (s *MemoryStore) State(_ context.Context, owner ethcommon.Address, legacyID *big.Int) (State, error) {
	id, err := recordID(legacyID)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.records[recordKey{owner: owner, legacyID: id}]
	if !ok {
		return StateUnused, nil
	}
	return state, nil
}

// MarkExecuted transitions UNUSED to EXECUTED.
func (s *MemoryStore) MarkExecuted(_ context.Context, owner ethcommon.Address, legacyID *big.Int) error {
	id, err := recordID(legacyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{owner: owner, legacyID: id}
	if state, ok := s.records[key]; ok && state.Finalized() {
		return engine.ErrAlreadyFinalized
	}
	s.records[key] = StateExecuted
	return nil
}

// Revoke transitions UNUSED to REVOKED; revoking twice is a no-op success.
func (s *MemoryStore) Revoke(_ context.Context, owner ethcommon.Address, legacyID *big.Int) error {
	id, err := recordID(legacyID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{owner: owner, legacyID: id}
	switch s.records[key] {
	case StateExecuted:
		return engine.ErrAlreadyFinalized
	case StateRevoked:
		return nil
	default:
		s.records[key] = StateRevoked
		return nil
	}
}

// CountByState returns the number of records per lifecycle state.
func (s *MemoryStore) CountByState(_ context.Context) (map[State]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[State]int64)
	for _, state := range s.records {
		counts[state]++
	}
	return counts, nil
}
