// Package task holds the periodic maintenance jobs the engine schedules.
package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/aeviaprotocol/aevia-go/engine"
	"github.com/aeviaprotocol/aevia-go/engine/ledger"
)

// StateCounter is implemented by stores that can report how many records sit
// in each lifecycle state.
type StateCounter interface {
	CountByState(ctx context.Context) (map[ledger.State]int64, error)
}

// Task is a task that is scheduled to run.
type Task struct {
	// Duration is the duration between each run of the task.
	Duration time.Duration
	// Task is the function that is run when the task is scheduled.
	Task func(*engine.Config, ledger.Store) error
}

// AllTasks returns all the tasks that are scheduled to run.
func AllTasks() []Task {
	return []Task{
		{
			Duration: 10 * time.Minute,
			Task: func(config *engine.Config, store ledger.Store) error {
				return auditLedger(context.Background(), store)
			},
		},
	}
}

// auditLedger logs the number of executed and revoked records so operators
// can spot a stalled or runaway deployment from the logs alone.
func auditLedger(ctx context.Context, store ledger.Store) error {
	counter, ok := store.(StateCounter)
	if !ok {
		return nil
	}

	counts, err := counter.CountByState(ctx)
	if err != nil {
		return err
	}

	slog.Info(
		"Ledger audit",
		"executed", counts[ledger.StateExecuted],
		"revoked", counts[ledger.StateRevoked],
	)
	return nil
}
