/*
errors.go - Centralized error types for the POS engine

PURPOSE:
  All error values in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Lookup errors - Referenced records that do not exist
  2. Snapshot errors - Backup import/export failures
  3. Persistence errors - Gateway-level failures

VALIDATION FAILURES ARE NOT ERRORS:
  Stock violations on cart mutations are rejected silently: AddItem
  returns false and UpdateQuantity leaves state unchanged. Callers learn
  by observing no state change, never via an error value. Only lookups,
  snapshots, and persistence report through error returns.

SEE ALSO:
  - engine.go: Uses these errors
  - snapshot.go: Wraps ErrInvalidSnapshot with parse context
*/
package pos

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProductNotFound is returned when a referenced product is not
	// in the catalog.
	ErrProductNotFound = errors.New("product not found")

	// ErrTransactionNotFound is returned when a referenced transaction
	// is not in the ledger.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidSnapshot is returned when a backup blob cannot be
	// parsed. Import rejects the blob before any state mutation.
	ErrInvalidSnapshot = errors.New("invalid backup snapshot")

	// ErrSaveFailed wraps gateway save failures. The in-memory state is
	// never rolled back on save failure; the engine keeps operating in
	// session-only mode.
	ErrSaveFailed = errors.New("persistence save failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SnapshotError reports which part of a backup blob failed to parse.
type SnapshotError struct {
	Section string
	Err     error
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("invalid backup snapshot: %s: %v", e.Section, e.Err)
}

func (e *SnapshotError) Unwrap() error {
	return ErrInvalidSnapshot
}
