/*
gateway.go - Persistence boundary for the POS engine

PURPOSE:
  The Gateway is the only way state leaves or enters the engine. The
  engine saves full snapshots after every transition that touches the
  catalog or the ledger, and loads exactly once at startup (hydration).

SEMANTICS:
  - Whole-snapshot replace: a save always writes the complete catalog,
    ledger, or settings. There is no field-level or partial persistence.
  - Absence is not an error: LoadCatalog returns (nil, nil) and
    LoadSettings returns (nil, nil) when nothing has been persisted yet.
    The engine substitutes built-in defaults.
  - Save failures never roll back the in-memory transition. The engine
    logs the failure and keeps operating in session-only mode.

IMPLEMENTATIONS:
  - pos/store.Memory: in-memory fake for tests and development
  - store/sqlite.Store: durable SQLite-backed gateway

SEE ALSO:
  - engine.go: Calls the gateway after each transition
  - snapshot.go: Export/import bundles built from gateway contents
*/
package pos

import "context"

// Gateway persists engine state. All methods use whole-snapshot
// semantics: saves replace everything, loads return everything.
type Gateway interface {
	// LoadCatalog returns the persisted catalog, or (nil, nil) when no
	// catalog has been saved yet.
	LoadCatalog(ctx context.Context) ([]Product, error)
	SaveCatalog(ctx context.Context, products []Product) error

	// LoadTransactions returns the persisted ledger, empty when absent.
	LoadTransactions(ctx context.Context) ([]Transaction, error)
	SaveTransactions(ctx context.Context, txs []Transaction) error

	// LoadSettings returns (nil, nil) when no settings have been saved.
	LoadSettings(ctx context.Context) (*Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}

// =============================================================================
// NOP GATEWAY - Session-only operation
// =============================================================================

// Nop is a Gateway that persists nothing. Loads report absence, saves
// succeed without effect. Used in tests and as the degraded mode when
// no durable store is available.
type Nop struct{}

func (Nop) LoadCatalog(context.Context) ([]Product, error)          { return nil, nil }
func (Nop) SaveCatalog(context.Context, []Product) error            { return nil }
func (Nop) LoadTransactions(context.Context) ([]Transaction, error) { return nil, nil }
func (Nop) SaveTransactions(context.Context, []Transaction) error   { return nil }
func (Nop) LoadSettings(context.Context) (*Settings, error)         { return nil, nil }
func (Nop) SaveSettings(context.Context, Settings) error            { return nil }
