/*
Package sqlite provides a SQLite-backed implementation of the POS
persistence gateway.

PURPOSE:
  Implements pos.Gateway using SQLite. The gateway has whole-snapshot
  semantics: every save replaces the full catalog, ledger, or settings
  inside one database transaction, and every load returns everything.

KEY TABLES:
  products:     The catalog, with a position column preserving catalog
                order across save/load round trips
  transactions: Completed sales; sold lines stored as JSON since they
                are immutable snapshots never queried field-by-field
  settings:     Single-row store configuration as JSON

WHY REPLACE-ALL?
  The engine owns all state in memory; the database is a durable mirror,
  not the source of truth during a session. Saving the full snapshot in
  one transaction keeps the mirror consistent without partial-update
  bookkeeping. Transactions are still effectively append-only: the
  engine never removes ledger entries, so each save rewrites the same
  rows plus the newly appended one. Only a backup import shrinks the
  tables.

CONCURRENCY:
  Uses sync.Mutex around saves. SQLite is opened in WAL mode so readers
  don't block the single writer.

USAGE:
  gw, err := sqlite.New("./data/pos.db")
  if err != nil {
      log.Fatal(err)
  }
  defer gw.Close()
  engine := pos.NewEngine(gw)

SEE ALSO:
  - pos/gateway.go: Interface definition and semantics
  - pos/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/andhikafr19/pos-engine/pos"
)

// Store implements pos.Gateway using SQLite.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New creates a new SQLite gateway with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Catalog. position preserves display order across round trips.
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		cost_price TEXT,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		stock INTEGER,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_products_category
		ON products(category);

	-- Completed sales. Lines are immutable snapshots, stored as JSON.
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		lines_json TEXT NOT NULL,
		total TEXT NOT NULL,
		amount_paid TEXT NOT NULL,
		change_amount TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		receipt_number TEXT NOT NULL,
		buyer_name TEXT NOT NULL DEFAULT '',
		buyer_address TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_timestamp
		ON transactions(timestamp);

	-- Store settings, single row.
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		config_json TEXT NOT NULL
	);

	-- Marks that a catalog has been saved at least once, so an
	-- intentionally emptied catalog is not confused with "never saved".
	CREATE TABLE IF NOT EXISTS catalog_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CATALOG (pos.Gateway)
// =============================================================================

func (s *Store) LoadCatalog(ctx context.Context) ([]pos.Product, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM catalog_meta WHERE id = 1`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return nil, nil // never saved: engine falls back to seed catalog
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, cost_price, description, category, stock
		FROM products ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	defer rows.Close()

	products := []pos.Product{}
	for rows.Next() {
		var (
			p         pos.Product
			price     string
			costPrice sql.NullString
			stock     sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &costPrice, &p.Description, &p.Category, &stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price for product %s: %w", p.ID, err)
		}
		if costPrice.Valid {
			cp, err := decimal.NewFromString(costPrice.String)
			if err != nil {
				return nil, fmt.Errorf("corrupt cost price for product %s: %w", p.ID, err)
			}
			p.CostPrice = &cp
		}
		if stock.Valid {
			p.Stock = pos.IntPtr(int(stock.Int64))
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) SaveCatalog(ctx context.Context, products []pos.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM products`); err != nil {
			return err
		}
		for i, p := range products {
			var costPrice any
			if p.CostPrice != nil {
				costPrice = p.CostPrice.String()
			}
			var stock any
			if p.Stock != nil {
				stock = *p.Stock
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO products (id, name, price, cost_price, description, category, stock, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				p.ID, p.Name, p.Price.String(), costPrice, p.Description, p.Category, stock, i)
			if err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_meta (id, saved_at) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
			time.Now().UTC().Format(time.RFC3339))
		return err
	}, "save catalog")
}

// =============================================================================
// TRANSACTIONS (pos.Gateway)
// =============================================================================

func (s *Store) LoadTransactions(ctx context.Context) ([]pos.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, lines_json, total, amount_paid, change_amount,
		       payment_method, timestamp, receipt_number, buyer_name, buyer_address
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	defer rows.Close()

	txs := []pos.Transaction{}
	for rows.Next() {
		var (
			t                        pos.Transaction
			linesJSON, total         string
			amountPaid, changeAmount string
			method, timestamp        string
		)
		if err := rows.Scan(&t.ID, &linesJSON, &total, &amountPaid, &changeAmount,
			&method, &timestamp, &t.ReceiptNumber, &t.BuyerName, &t.BuyerAddress); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if err := json.Unmarshal([]byte(linesJSON), &t.Lines); err != nil {
			return nil, fmt.Errorf("corrupt lines for transaction %s: %w", t.ID, err)
		}
		if t.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("corrupt total for transaction %s: %w", t.ID, err)
		}
		if t.AmountPaid, err = decimal.NewFromString(amountPaid); err != nil {
			return nil, fmt.Errorf("corrupt amount paid for transaction %s: %w", t.ID, err)
		}
		if t.Change, err = decimal.NewFromString(changeAmount); err != nil {
			return nil, fmt.Errorf("corrupt change for transaction %s: %w", t.ID, err)
		}
		t.PaymentMethod = pos.PaymentMethod(method)
		t.Timestamp = pos.ParseTimestamp(json.RawMessage(`"` + timestamp + `"`))
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *Store) SaveTransactions(ctx context.Context, transactions []pos.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
			return err
		}
		for i, t := range transactions {
			linesJSON, err := json.Marshal(t.Lines)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO transactions
				(id, lines_json, total, amount_paid, change_amount,
				 payment_method, timestamp, receipt_number, buyer_name, buyer_address, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, string(linesJSON), t.Total.String(), t.AmountPaid.String(), t.Change.String(),
				string(t.PaymentMethod), t.Timestamp.UTC().Format(time.RFC3339Nano),
				t.ReceiptNumber, t.BuyerName, t.BuyerAddress, i)
			if err != nil {
				return err
			}
		}
		return nil
	}, "save transactions")
}

// =============================================================================
// SETTINGS (pos.Gateway)
// =============================================================================

func (s *Store) LoadSettings(ctx context.Context) (*pos.Settings, error) {
	var configJSON string
	err := s.db.QueryRowContext(ctx, `SELECT config_json FROM settings WHERE id = 1`).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	var settings pos.Settings
	if err := json.Unmarshal([]byte(configJSON), &settings); err != nil {
		return nil, fmt.Errorf("corrupt settings: %w", err)
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings pos.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, config_json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET config_json = excluded.config_json`,
		string(configJSON))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// inTx runs fn inside a database transaction.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error, what string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}
