/*
snapshot.go - Backup export/import codec

PURPOSE:
  Bundles the full application state (catalog + ledger + settings) into
  one JSON blob for backup, and parses such blobs back for restore.

SNAPSHOT FORMAT:
  {
    "products":     Product[] | null,
    "transactions": Transaction[],
    "settings":     { lowStockThreshold, storeName, autoBackup },
    "exportDate":   ISO-8601 string
  }

IMPORT SEMANTICS:
  - The blob is parsed completely before any state mutation. A malformed
    blob is rejected with SnapshotError and existing state is untouched.
  - Present sections replace state wholesale, never merge.
  - Missing sections (e.g. a backup without "transactions") leave the
    corresponding state untouched rather than clearing it.
  - Timestamps are parsed defensively: RFC3339 strings and epoch
    milliseconds are accepted, anything else falls back to the zero-time
    invalid marker instead of failing the whole import.

SEE ALSO:
  - engine.go: ApplyImport applies a parsed Backup
  - gateway.go: The persistence boundary the snapshot bypasses
*/
package pos

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Money values serialize as JSON numbers, matching the snapshot format.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Backup is a full serialized copy of catalog + ledger + settings. A
// nil section means "absent from the blob": import leaves that part of
// state untouched.
type Backup struct {
	Products     []Product     `json:"products"`
	Transactions []Transaction `json:"transactions"`
	Settings     *Settings     `json:"settings,omitempty"`
	ExportDate   string        `json:"exportDate"`
}

// ExportBackup snapshots the engine's full state for download.
func (e *Engine) ExportBackup() Backup {
	settings := e.Settings()
	txs := e.Transactions()
	if txs == nil {
		txs = []Transaction{}
	}
	return Backup{
		Products:     e.Products(),
		Transactions: txs,
		Settings:     &settings,
		ExportDate:   e.Now().UTC().Format(time.RFC3339),
	}
}

// BackupFilename names a backup download for the given day, e.g.
// "pos-backup-2025-03-14.json".
func BackupFilename(at time.Time) string {
	return "pos-backup-" + at.Format("2006-01-02") + ".json"
}

// EncodeBackup serializes a backup blob, indented for human inspection.
func EncodeBackup(b Backup) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// =============================================================================
// DECODE - Full parse before any mutation
// =============================================================================

// transactionWire mirrors Transaction with a raw timestamp so parsing
// can be tolerant of the formats older backups used.
type transactionWire struct {
	ID            string          `json:"id"`
	Lines         []CartLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Change        decimal.Decimal `json:"change"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Timestamp     json.RawMessage `json:"timestamp"`
	ReceiptNumber string          `json:"receiptNumber"`
	BuyerName     string          `json:"buyerName"`
	BuyerAddress  string          `json:"buyerAddress"`
}

// DecodeBackup parses a backup blob. The whole blob is validated before
// the caller applies anything; a parse failure leaves no partial result.
func DecodeBackup(data []byte) (Backup, error) {
	var raw struct {
		Products     json.RawMessage `json:"products"`
		Transactions json.RawMessage `json:"transactions"`
		Settings     json.RawMessage `json:"settings"`
		ExportDate   string          `json:"exportDate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Backup{}, &SnapshotError{Section: "root", Err: err}
	}

	out := Backup{ExportDate: raw.ExportDate}

	if present(raw.Products) {
		if err := json.Unmarshal(raw.Products, &out.Products); err != nil {
			return Backup{}, &SnapshotError{Section: "products", Err: err}
		}
		if out.Products == nil {
			out.Products = []Product{}
		}
	}

	if present(raw.Transactions) {
		var wires []transactionWire
		if err := json.Unmarshal(raw.Transactions, &wires); err != nil {
			return Backup{}, &SnapshotError{Section: "transactions", Err: err}
		}
		out.Transactions = make([]Transaction, len(wires))
		for i, w := range wires {
			out.Transactions[i] = Transaction{
				ID:            w.ID,
				Lines:         w.Lines,
				Total:         w.Total,
				AmountPaid:    w.AmountPaid,
				Change:        w.Change,
				PaymentMethod: w.PaymentMethod,
				Timestamp:     ParseTimestamp(w.Timestamp),
				ReceiptNumber: w.ReceiptNumber,
				BuyerName:     w.BuyerName,
				BuyerAddress:  w.BuyerAddress,
			}
		}
	}

	if present(raw.Settings) {
		var s Settings
		if err := json.Unmarshal(raw.Settings, &s); err != nil {
			return Backup{}, &SnapshotError{Section: "settings", Err: err}
		}
		out.Settings = &s
	}

	return out, nil
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// ParseTimestamp parses a serialized transaction timestamp. RFC3339
// strings (with or without sub-second precision) and epoch milliseconds
// are accepted; anything unparseable yields the zero time as the
// invalid marker.
func ParseTimestamp(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis).UTC()
	}

	return time.Time{}
}

// DescribeBackup summarizes a backup for status messages, e.g.
// "8 products, 12 transactions".
func DescribeBackup(b Backup) string {
	return fmt.Sprintf("%d products, %d transactions", len(b.Products), len(b.Transactions))
}
