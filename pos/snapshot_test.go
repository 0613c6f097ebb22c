package pos_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andhikafr19/pos-engine/pos"
	"github.com/andhikafr19/pos-engine/pos/store"
)

// =============================================================================
// ROUND TRIP
// =============================================================================

func TestBackup_RoundTripReproducesState(t *testing.T) {
	// GIVEN: An engine with catalog edits and a completed sale
	ctx := context.Background()
	source := newTestEngine(t,
		product("1", "Makaroni", 14000, 30),
		product("2", "Es Jeruk", 8000, 5),
	)
	source.AddItem("1")
	source.AddItem("2")
	source.CompleteTransaction(ctx, pos.PaymentData{
		Total:      rp(22000),
		AmountPaid: rp(25000),
		BuyerName:  "Budi",
	})

	// WHEN: Exporting, encoding, decoding, and importing into a fresh engine
	blob, err := pos.EncodeBackup(source.ExportBackup())
	require.NoError(t, err)

	decoded, err := pos.DecodeBackup(blob)
	require.NoError(t, err)

	target := pos.NewEngine(store.NewMemory())
	target.ApplyImport(ctx, decoded)

	// THEN: Catalog and ledger are equivalent, order preserved
	srcProducts, dstProducts := source.Products(), target.Products()
	require.Equal(t, len(srcProducts), len(dstProducts))
	for i := range srcProducts {
		assert.Equal(t, srcProducts[i].ID, dstProducts[i].ID)
		assert.Equal(t, srcProducts[i].Name, dstProducts[i].Name)
		assert.True(t, srcProducts[i].Price.Equal(dstProducts[i].Price))
		assert.Equal(t, srcProducts[i].Stock, dstProducts[i].Stock)
	}

	srcTxs, dstTxs := source.Transactions(), target.Transactions()
	require.Len(t, dstTxs, len(srcTxs))
	assert.Equal(t, srcTxs[0].ID, dstTxs[0].ID)
	assert.Equal(t, srcTxs[0].ReceiptNumber, dstTxs[0].ReceiptNumber)
	assert.Equal(t, srcTxs[0].BuyerName, dstTxs[0].BuyerName)
	assert.True(t, srcTxs[0].Total.Equal(dstTxs[0].Total))
	assert.True(t, srcTxs[0].Change.Equal(dstTxs[0].Change))
	assert.True(t, srcTxs[0].Timestamp.Equal(dstTxs[0].Timestamp))

	assert.Equal(t, source.Settings(), target.Settings())
}

func TestBackup_MoneySerializesAsNumbers(t *testing.T) {
	e := newTestEngine(t, product("1", "Makaroni", 14000, 30))

	blob, err := pos.EncodeBackup(e.ExportBackup())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(blob, &raw))

	var products []map[string]any
	require.NoError(t, json.Unmarshal(raw["products"], &products))
	_, isNumber := products[0]["price"].(float64)
	assert.True(t, isNumber, "price should serialize as a JSON number, got %T", products[0]["price"])
}

// =============================================================================
// PARTIAL AND MALFORMED IMPORTS
// =============================================================================

func TestImport_MissingSectionLeavesStateUntouched(t *testing.T) {
	// A backup without "transactions" must not clear the ledger.
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))
	e.AddItem("1")
	e.CompleteTransaction(ctx, pos.PaymentData{Total: rp(7000), AmountPaid: rp(7000)})

	blob := []byte(`{
		"products": [{"id": "9", "name": "Imported", "price": 1000, "stock": 3}],
		"exportDate": "2025-01-01T00:00:00Z"
	}`)
	backup, err := pos.DecodeBackup(blob)
	require.NoError(t, err)

	e.ApplyImport(ctx, backup)

	products := e.Products()
	require.Len(t, products, 1)
	assert.Equal(t, "Imported", products[0].Name)
	assert.Len(t, e.Transactions(), 1, "ledger must survive a backup without transactions")
}

func TestImport_NullProductsTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))

	backup, err := pos.DecodeBackup([]byte(`{"products": null, "transactions": []}`))
	require.NoError(t, err)

	e.ApplyImport(ctx, backup)

	assert.Len(t, e.Products(), 1, "null products section must not clear the catalog")
	assert.Len(t, e.Transactions(), 0)
}

func TestImport_MalformedBlobRejectedBeforeMutation(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"not json", `this is not json`},
		{"products wrong type", `{"products": "oops"}`},
		{"transactions wrong type", `{"transactions": 42}`},
		{"settings wrong type", `{"settings": [1, 2]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pos.DecodeBackup([]byte(tc.blob))
			require.Error(t, err)
			assert.ErrorIs(t, err, pos.ErrInvalidSnapshot)
		})
	}
}

// =============================================================================
// DEFENSIVE TIMESTAMP PARSING
// =============================================================================

func TestParseTimestamp_AcceptedFormats(t *testing.T) {
	want := time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		raw  string
	}{
		{"rfc3339", `"2025-03-14T15:30:00Z"`},
		{"rfc3339 nano", `"2025-03-14T15:30:00.000000000Z"`},
		{"epoch millis", `1741966200000`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := pos.ParseTimestamp(json.RawMessage(tc.raw))
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestParseTimestamp_UnparseableFallsBackToInvalidMarker(t *testing.T) {
	cases := []string{`"not a date"`, `"2025-13-45"`, `true`, ``}
	for _, raw := range cases {
		got := pos.ParseTimestamp(json.RawMessage(raw))
		assert.True(t, got.IsZero(), "raw %q should yield the zero-time marker, got %s", raw, got)
	}
}

// =============================================================================
// NAMING
// =============================================================================

func TestBackupFilename(t *testing.T) {
	at := time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "pos-backup-2025-03-14.json", pos.BackupFilename(at))
}

func TestBackup_ExportDateIsISO8601(t *testing.T) {
	e := newTestEngine(t)
	b := e.ExportBackup()

	_, err := time.Parse(time.RFC3339, b.ExportDate)
	assert.NoError(t, err, "export date %q should be RFC3339", b.ExportDate)
}

// Decode must accept prices serialized as either numbers or strings,
// since shopspring/decimal historically quoted them.
func TestDecodeBackup_QuotedPricesAccepted(t *testing.T) {
	backup, err := pos.DecodeBackup([]byte(`{
		"products": [{"id": "1", "name": "Kopi", "price": "7000", "stock": 4}]
	}`))
	require.NoError(t, err)
	require.Len(t, backup.Products, 1)
	assert.True(t, backup.Products[0].Price.Equal(decimal.NewFromInt(7000)))
}
