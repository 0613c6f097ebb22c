/*
Package pos provides the core point-of-sale state engine.

PURPOSE:
  This package contains the domain types and the state engine for a
  single-till point of sale: the product catalog, the in-progress cart,
  and the append-only transaction ledger. All state lives behind the
  Engine and is mutated only through its transition methods.

KEY CONCEPTS IN THIS FILE (types.go):
  - Product: A sellable item with price, optional cost price, optional
    tracked stock
  - CartLine: A product snapshot plus quantity inside the cart
  - Cart: Ordered cart lines plus a derived total
  - Transaction: An immutable record of a completed sale
  - Settings: Store-level configuration (low-stock threshold, name)

DESIGN PRINCIPLES:
  1. Immutability: Transactions are never edited or voided after checkout
  2. Precision: Uses decimal.Decimal for all money values to avoid
     floating-point errors
  3. Derived totals: Cart.Total is always recomputed from lines, never
     set independently
  4. Copy-on-add: A cart line snapshots the product at add time; later
     catalog edits do not change lines already in the cart

USAGE:
  engine := pos.NewEngine(gateway)
  engine.Hydrate(ctx)
  ok := engine.AddItem("5")          // add one unit of product "5"
  tx := engine.CompleteTransaction(ctx, pos.PaymentData{...})

SEE ALSO:
  - engine.go: State transitions (cart, catalog, checkout)
  - snapshot.go: Backup export/import codec
  - report.go: Sales summaries derived from the ledger
*/
package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT - Sellable catalog entry
// =============================================================================

// Product is a catalog entry. CostPrice and Stock are optional: a nil
// CostPrice excludes the product from profit calculations, and a nil
// Stock means the stock is not tracked at all. An untracked product is
// never sellable (see Engine.AddItem).
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

// Clone returns a deep copy. Pointer fields are copied so that the
// clone never aliases the original.
func (p Product) Clone() Product {
	c := p
	if p.CostPrice != nil {
		v := *p.CostPrice
		c.CostPrice = &v
	}
	if p.Stock != nil {
		v := *p.Stock
		c.Stock = &v
	}
	return c
}

// TrackedStock reports the stock count and whether stock is tracked.
func (p Product) TrackedStock() (int, bool) {
	if p.Stock == nil {
		return 0, false
	}
	return *p.Stock, true
}

// IntPtr is a convenience for building optional stock counts.
func IntPtr(n int) *int { return &n }

// DecimalPtr is a convenience for building optional cost prices.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

// =============================================================================
// STOCK STATUS - Display classification, not a stored field
// =============================================================================

type StockStatus string

const (
	StockOut StockStatus = "out_of_stock"
	StockLow StockStatus = "low_stock"
	StockIn  StockStatus = "in_stock"
)

// ClassifyStock derives the display status from a product's stock count
// and the configured low-stock threshold. Untracked stock classifies as
// out of stock, matching the sell-side rule that untracked products are
// never purchasable.
func ClassifyStock(p Product, threshold int) StockStatus {
	stock, tracked := p.TrackedStock()
	switch {
	case !tracked || stock == 0:
		return StockOut
	case stock <= threshold:
		return StockLow
	default:
		return StockIn
	}
}

// =============================================================================
// CART - In-progress sale
// =============================================================================

// CartLine pairs a product snapshot with a positive quantity. The
// snapshot is taken when the line is created; the recorded price does
// not follow later catalog edits.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is price times quantity for this line.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the ordered lines of the in-progress sale. Total is
// derived: it is recomputed from the lines after every mutation and is
// never settable on its own. A cart holds at most one line per product
// identifier.
type Cart struct {
	Lines []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (c Cart) recomputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities across all lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) clone() Cart {
	out := Cart{Total: c.Total}
	out.Lines = make([]CartLine, len(c.Lines))
	for i, l := range c.Lines {
		out.Lines[i] = CartLine{Product: l.Product.Clone(), Quantity: l.Quantity}
	}
	return out
}

// =============================================================================
// TRANSACTION - Immutable record of a completed sale
// =============================================================================

// PaymentMethod is fixed: this is a cash-only till.
type PaymentMethod string

const PaymentCash PaymentMethod = "cash"

// Transaction is created exactly once at checkout and appended to the
// ledger. There is no edit or void operation.
type Transaction struct {
	ID            string          `json:"id"`
	Lines         []CartLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Change        decimal.Decimal `json:"change"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Timestamp     time.Time       `json:"timestamp"`
	ReceiptNumber string          `json:"receiptNumber"`
	BuyerName     string          `json:"buyerName,omitempty"`
	BuyerAddress  string          `json:"buyerAddress,omitempty"`
}

func (t Transaction) clone() Transaction {
	out := t
	out.Lines = make([]CartLine, len(t.Lines))
	for i, l := range t.Lines {
		out.Lines[i] = CartLine{Product: l.Product.Clone(), Quantity: l.Quantity}
	}
	return out
}

// PaymentData carries the checkout inputs. Sufficiency of AmountPaid is
// validated upstream; the engine only computes change, floored at zero.
type PaymentData struct {
	Total        decimal.Decimal
	AmountPaid   decimal.Decimal
	BuyerName    string
	BuyerAddress string
}

// =============================================================================
// SETTINGS - Store-level configuration
// =============================================================================

type Settings struct {
	LowStockThreshold int    `json:"lowStockThreshold"`
	StoreName         string `json:"storeName"`
	AutoBackup        bool   `json:"autoBackup"`
}

// DefaultSettings are used when no settings have been persisted yet.
func DefaultSettings() Settings {
	return Settings{
		LowStockThreshold: 5,
		StoreName:         "Warung Sembako",
		AutoBackup:        true,
	}
}
