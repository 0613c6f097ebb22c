/*
engine.go - The POS state engine

PURPOSE:
  The Engine exclusively owns the catalog, the cart, and the transaction
  ledger. Every mutation goes through a transition method that runs
  atomically under the engine lock; there is no way to write a field
  directly from outside.

CRITICAL INVARIANTS:
  1. Cart.Total always equals the sum of line subtotals after every
     mutation.
  2. A cart line's quantity never exceeds the product's tracked stock at
     validation time. Untracked stock (nil) is never sellable.
  3. CompleteTransaction is atomic: the transaction is appended, stock
     is decremented (floored at zero), and the cart is cleared in one
     transition. No partial application is possible.
  4. The ledger is append-only. No edit, no void.

VALIDATION:
  Stock checks are authoritative here, inside the transition. Callers
  (the HTTP layer) may pre-check defensively, but the engine re-checks
  against its own catalog so the invariant holds regardless of how
  intents arrive. Rejections are silent: AddItem returns false,
  UpdateQuantity leaves state unchanged.

PERSISTENCE:
  After every transition that touches catalog or ledger the engine
  pushes a full snapshot through the Gateway. A failed save is logged
  and remembered (LastSaveError) but never rolls back the transition.

SEE ALSO:
  - types.go: Domain types
  - gateway.go: Persistence boundary
  - receipt.go: Receipt number generation
*/
package pos

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Engine is the single owner of all POS state. Safe for concurrent use;
// every transition runs to completion under the lock before the next
// one is processed.
type Engine struct {
	// Gateway receives a full snapshot after each transition. Never nil;
	// NewEngine substitutes Nop when given nil.
	Gateway Gateway

	// Now supplies transaction timestamps. Overridable in tests.
	Now func() time.Time

	mu          sync.RWMutex
	catalog     []Product
	cart        Cart
	ledger      []Transaction
	settings    Settings
	lastSaveErr error
}

// NewEngine creates an engine with an empty cart, an empty ledger, and
// default settings. Call Hydrate before first use to load persisted
// state.
func NewEngine(gw Gateway) *Engine {
	if gw == nil {
		gw = Nop{}
	}
	return &Engine{
		Gateway:  gw,
		Now:      time.Now,
		settings: DefaultSettings(),
	}
}

// =============================================================================
// HYDRATION - One-time load at startup
// =============================================================================

// Hydrate loads persisted state through the gateway. Absent catalog
// falls back to the built-in seed catalog, absent ledger to empty,
// absent settings to defaults. Hydrate runs before the first observer
// sees state; it is not safe to call concurrently with transitions.
func (e *Engine) Hydrate(ctx context.Context) error {
	products, err := e.Gateway.LoadCatalog(ctx)
	if err != nil {
		return err
	}
	txs, err := e.Gateway.LoadTransactions(ctx)
	if err != nil {
		return err
	}
	settings, err := e.Gateway.LoadSettings(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if products == nil {
		e.catalog = SeedCatalog()
	} else {
		e.catalog = products
	}
	e.ledger = txs
	if settings != nil {
		e.settings = *settings
	} else {
		e.settings = DefaultSettings()
	}
	return nil
}

// =============================================================================
// CART TRANSITIONS
// =============================================================================

// AddItem adds one unit of the product to the cart. It returns false,
// with no state change, when the product is unknown, its stock is
// untracked or zero, or the cart already holds the full tracked stock.
// On success an existing line's quantity is incremented, or a new line
// with quantity 1 is appended, and the total is recomputed.
func (e *Engine) AddItem(productID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	product, ok := e.findProduct(productID)
	if !ok {
		return false
	}
	stock, tracked := product.TrackedStock()
	if !tracked || stock == 0 {
		return false
	}

	idx := e.cart.lineIndex(productID)
	inCart := 0
	if idx >= 0 {
		inCart = e.cart.Lines[idx].Quantity
	}
	if inCart >= stock {
		return false
	}

	if idx >= 0 {
		e.cart.Lines[idx].Quantity++
	} else {
		e.cart.Lines = append(e.cart.Lines, CartLine{Product: product.Clone(), Quantity: 1})
	}
	e.cart.Total = e.cart.recomputeTotal()
	return true
}

// RemoveItem removes the matching cart line. Removing an absent product
// is a no-op, idempotently.
func (e *Engine) RemoveItem(productID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLineLocked(productID)
}

// UpdateQuantity sets the line's quantity exactly. A quantity of zero
// or less removes the line. The update is silently rejected when the
// quantity exceeds the product's tracked stock or the product has no
// tracked stock.
func (e *Engine) UpdateQuantity(productID string, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity <= 0 {
		e.removeLineLocked(productID)
		return
	}

	product, ok := e.findProduct(productID)
	if !ok {
		return
	}
	stock, tracked := product.TrackedStock()
	if !tracked || quantity > stock {
		return
	}

	idx := e.cart.lineIndex(productID)
	if idx < 0 {
		return
	}
	e.cart.Lines[idx].Quantity = quantity
	e.cart.Total = e.cart.recomputeTotal()
}

// ClearCart empties all lines and resets the total to zero.
func (e *Engine) ClearCart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cart = Cart{}
}

// ItemCount is the sum of quantities across all cart lines.
func (e *Engine) ItemCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.ItemCount()
}

func (e *Engine) removeLineLocked(productID string) {
	idx := e.cart.lineIndex(productID)
	if idx < 0 {
		return
	}
	e.cart.Lines = append(e.cart.Lines[:idx], e.cart.Lines[idx+1:]...)
	e.cart.Total = e.cart.recomputeTotal()
}

func (c *Cart) lineIndex(productID string) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

// =============================================================================
// CHECKOUT - Atomic transaction completion
// =============================================================================

// CompleteTransaction finishes the sale as one atomic transition:
//  1. Snapshot the cart lines into a new Transaction
//  2. Append it to the ledger
//  3. Decrement each sold product's stock, floored at zero
//  4. Clear the cart
//
// Sufficiency of AmountPaid is validated upstream; the engine only
// computes change, floored at zero. The resulting ledger and catalog
// are persisted after the transition.
func (e *Engine) CompleteTransaction(ctx context.Context, p PaymentData) Transaction {
	e.mu.Lock()

	change := p.AmountPaid.Sub(p.Total)
	if change.IsNegative() {
		change = decimal.Zero
	}

	now := e.Now()
	tx := Transaction{
		ID:            uuid.NewString(),
		Lines:         e.cart.clone().Lines,
		Total:         p.Total,
		AmountPaid:    p.AmountPaid,
		Change:        change,
		PaymentMethod: PaymentCash,
		Timestamp:     now,
		ReceiptNumber: GenerateReceiptNumber(now),
		BuyerName:     p.BuyerName,
		BuyerAddress:  p.BuyerAddress,
	}

	e.ledger = append(e.ledger, tx)

	for _, sold := range tx.Lines {
		for i := range e.catalog {
			if e.catalog[i].ID != sold.Product.ID {
				continue
			}
			if stock, tracked := e.catalog[i].TrackedStock(); tracked {
				remaining := stock - sold.Quantity
				if remaining < 0 {
					remaining = 0
				}
				e.catalog[i].Stock = IntPtr(remaining)
			}
		}
	}

	e.cart = Cart{}
	e.mu.Unlock()

	e.persistCatalog(ctx)
	e.persistLedger(ctx)
	return tx.clone()
}

// =============================================================================
// CATALOG CRUD
// =============================================================================

// AddProduct appends to the catalog. Identifier uniqueness is the
// caller's responsibility; NewProductID generates collision-resistant
// identifiers for new records.
func (e *Engine) AddProduct(ctx context.Context, p Product) {
	e.mu.Lock()
	e.catalog = append(e.catalog, p.Clone())
	e.mu.Unlock()
	e.persistCatalog(ctx)
}

// UpdateProduct replaces the catalog entry with the matching identifier
// in place. No-op if there is no match. Cart lines holding a snapshot
// of the old version are deliberately untouched.
func (e *Engine) UpdateProduct(ctx context.Context, p Product) {
	e.mu.Lock()
	changed := false
	for i := range e.catalog {
		if e.catalog[i].ID == p.ID {
			e.catalog[i] = p.Clone()
			changed = true
		}
	}
	e.mu.Unlock()
	if changed {
		e.persistCatalog(ctx)
	}
}

// DeleteProduct removes the catalog entry and cascades: any cart line
// referencing the identifier is removed and the total recomputed. No-op
// if the product is absent.
func (e *Engine) DeleteProduct(ctx context.Context, productID string) {
	e.mu.Lock()
	changed := false
	for i := range e.catalog {
		if e.catalog[i].ID == productID {
			e.catalog = append(e.catalog[:i], e.catalog[i+1:]...)
			changed = true
			break
		}
	}
	e.removeLineLocked(productID)
	e.mu.Unlock()
	if changed {
		e.persistCatalog(ctx)
	}
}

// UpdateProductStock sets stock to max(0, newStock) for the matching
// product. No-op if absent. Setting stock on a previously untracked
// product starts tracking it.
func (e *Engine) UpdateProductStock(ctx context.Context, productID string, newStock int) {
	if newStock < 0 {
		newStock = 0
	}
	e.mu.Lock()
	changed := false
	for i := range e.catalog {
		if e.catalog[i].ID == productID {
			e.catalog[i].Stock = IntPtr(newStock)
			changed = true
		}
	}
	e.mu.Unlock()
	if changed {
		e.persistCatalog(ctx)
	}
}

// NewProductID generates an identifier for a new product. Identifiers
// are random rather than derived from existing numeric ids, so imported
// catalogs with foreign identifier schemes cannot cause collisions.
func NewProductID() string { return uuid.NewString() }

// =============================================================================
// READS - Copies only, callers never see live state
// =============================================================================

// Products returns a copy of the catalog in insertion order.
func (e *Engine) Products() []Product {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Product, len(e.catalog))
	for i, p := range e.catalog {
		out[i] = p.Clone()
	}
	return out
}

// ProductByID looks up a catalog entry.
func (e *Engine) ProductByID(productID string) (Product, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.findProduct(productID)
	if !ok {
		return Product{}, false
	}
	return p.Clone(), true
}

// CartView returns a copy of the current cart.
func (e *Engine) CartView() Cart {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cart.clone()
}

// Transactions returns a copy of the ledger, oldest first.
func (e *Engine) Transactions() []Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Transaction, len(e.ledger))
	for i, tx := range e.ledger {
		out[i] = tx.clone()
	}
	return out
}

// TransactionByID looks up a ledger entry.
func (e *Engine) TransactionByID(id string) (Transaction, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, tx := range e.ledger {
		if tx.ID == id {
			return tx.clone(), true
		}
	}
	return Transaction{}, false
}

// Settings returns the current store settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// UpdateSettings replaces the store settings wholesale and persists
// them. A non-positive threshold falls back to the default.
func (e *Engine) UpdateSettings(ctx context.Context, s Settings) {
	if s.LowStockThreshold <= 0 {
		s.LowStockThreshold = DefaultSettings().LowStockThreshold
	}
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
	if err := e.Gateway.SaveSettings(ctx, s); err != nil {
		e.noteSaveErr("settings", err)
		return
	}
	e.clearSaveErr()
}

// IsLowStock reports whether the product's stock is positive but at or
// below the configured threshold.
func (e *Engine) IsLowStock(productID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.findProduct(productID)
	if !ok {
		return false
	}
	return ClassifyStock(p, e.settings.LowStockThreshold) == StockLow
}

// LastSaveError returns the most recent gateway save failure, or nil.
// Surfaced to the user as a transient status; it never indicates lost
// in-memory state.
func (e *Engine) LastSaveError() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastSaveErr
}

func (e *Engine) findProduct(productID string) (Product, bool) {
	for _, p := range e.catalog {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}

// =============================================================================
// IMPORT - Wholesale state replacement
// =============================================================================

// ApplyImport replaces state from a parsed backup. Only sections present
// in the backup are replaced; missing sections leave the corresponding
// state untouched. The replaced sections are persisted afterwards.
func (e *Engine) ApplyImport(ctx context.Context, b Backup) {
	e.mu.Lock()
	if b.Products != nil {
		e.catalog = make([]Product, len(b.Products))
		for i, p := range b.Products {
			e.catalog[i] = p.Clone()
		}
	}
	if b.Transactions != nil {
		e.ledger = make([]Transaction, len(b.Transactions))
		for i, tx := range b.Transactions {
			e.ledger[i] = tx.clone()
		}
	}
	if b.Settings != nil {
		e.settings = *b.Settings
	}
	e.mu.Unlock()

	if b.Products != nil {
		e.persistCatalog(ctx)
	}
	if b.Transactions != nil {
		e.persistLedger(ctx)
	}
	if b.Settings != nil {
		if err := e.Gateway.SaveSettings(ctx, *b.Settings); err != nil {
			e.noteSaveErr("settings", err)
		}
	}
}

// =============================================================================
// PERSISTENCE HOOK
// =============================================================================

func (e *Engine) persistCatalog(ctx context.Context) {
	if err := e.Gateway.SaveCatalog(ctx, e.Products()); err != nil {
		e.noteSaveErr("catalog", err)
		return
	}
	e.clearSaveErr()
}

func (e *Engine) persistLedger(ctx context.Context) {
	if err := e.Gateway.SaveTransactions(ctx, e.Transactions()); err != nil {
		e.noteSaveErr("transactions", err)
		return
	}
	e.clearSaveErr()
}

func (e *Engine) noteSaveErr(what string, err error) {
	log.Printf("pos: save %s failed (state kept in memory): %v", what, err)
	e.mu.Lock()
	e.lastSaveErr = err
	e.mu.Unlock()
}

func (e *Engine) clearSaveErr() {
	e.mu.Lock()
	e.lastSaveErr = nil
	e.mu.Unlock()
}
