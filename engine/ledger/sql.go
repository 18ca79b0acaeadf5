package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/aeviaprotocol/aevia-go/engine"
)

const createRecordsTable = `
CREATE TABLE IF NOT EXISTS legacy_records (
	owner TEXT NOT NULL,
	legacy_id TEXT NOT NULL,
	state TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (owner, legacy_id)
)`

// SQLStore persists legacy records in a relational database. Only terminal
// states are written; a missing row is UNUSED. The conditional insert is the
// compare-and-set that makes each transition atomic, so the store is safe for
// sqlite and postgres alike.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore wraps an open database handle. driver is the database/sql
// driver name ("sqlite3" or "postgres", see engine.Config.DatabaseDriver).
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{
		db:     db,
		driver: driver,
	}
}

// Migrate creates the records table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("create legacy_records table: %w", err)
	}
	return nil
}

// State returns the current state of a record. Absent records are UNUSED.
func (s *SQLStore) State(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) (State, error) {
	id, err := recordID(legacyID)
	if err != nil {
		return "", err
	}

	var state string
	query := s.rebind(`SELECT state FROM legacy_records WHERE owner = ? AND legacy_id = ?`)
	err = s.db.QueryRowContext(ctx, query, ownerKey(owner), id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return StateUnused, nil
	}
	if err != nil {
		return "", fmt.Errorf("query legacy record: %w", err)
	}
	return State(state), nil
}

// MarkExecuted transitions UNUSED to EXECUTED.
func (s *SQLStore) MarkExecuted(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) error {
	inserted, err := s.insertTerminal(ctx, owner, legacyID, StateExecuted)
	if err != nil {
		return err
	}
	if !inserted {
		return engine.ErrAlreadyFinalized
	}
	return nil
}

// Revoke transitions UNUSED to REVOKED; revoking twice is a no-op success.
func (s *SQLStore) Revoke(ctx context.Context, owner ethcommon.Address, legacyID *big.Int) error {
	inserted, err := s.insertTerminal(ctx, owner, legacyID, StateRevoked)
	if err != nil {
		return err
	}
	if inserted {
		return nil
	}

	state, err := s.State(ctx, owner, legacyID)
	if err != nil {
		return err
	}
	if state == StateRevoked {
		return nil
	}
	return engine.ErrAlreadyFinalized
}

// CountByState returns the number of records per lifecycle state. Absent
// (UNUSED) records are not counted; only finalized records have rows.
func (s *SQLStore) CountByState(ctx context.Context) (map[State]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM legacy_records GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("count legacy records: %w", err)
	}
	defer rows.Close()

	counts := make(map[State]int64)
	for rows.Next() {
		var state string
		var count int64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scan legacy record count: %w", err)
		}
		counts[State(state)] = count
	}
	return counts, rows.Err()
}

// insertTerminal writes the first and only transition for a key. Returns
// false without error when the record is already finalized.
func (s *SQLStore) insertTerminal(ctx context.Context, owner ethcommon.Address, legacyID *big.Int, state State) (bool, error) {
	id, err := recordID(legacyID)
	if err != nil {
		return false, err
	}

	query := s.rebind(`
INSERT INTO legacy_records (owner, legacy_id, state, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (owner, legacy_id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query, ownerKey(owner), id, string(state), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("insert legacy record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert legacy record: %w", err)
	}
	return affected == 1, nil
}

// rebind rewrites ? placeholders to $n for drivers that require them.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func ownerKey(owner ethcommon.Address) string {
	return strings.ToLower(owner.Hex())
}
