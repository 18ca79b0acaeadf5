package handler

import (
	"math/big"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// keyedMutex serializes state transitions per (owner, legacyId). The lock is
// held across the check-then-transfer-then-commit sequence so two concurrent
// executions of the same legacy cannot both observe it unused. Mutexes live
// as long as the process, matching the lifetime of the records they guard.
type keyedMutex struct {
	mutexes sync.Map
}

func (m *keyedMutex) lock(owner ethcommon.Address, legacyID *big.Int) func() {
	key := owner.Hex() + "/" + legacyID.String()
	mutex, _ := m.mutexes.LoadOrStore(key, &sync.Mutex{})
	mutex.(*sync.Mutex).Lock()
	return mutex.(*sync.Mutex).Unlock
}
