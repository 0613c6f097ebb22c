package pos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andhikafr19/pos-engine/pos"
	"github.com/andhikafr19/pos-engine/pos/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func rp(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func product(id, name string, price int64, stock int) pos.Product {
	return pos.Product{
		ID:    id,
		Name:  name,
		Price: rp(price),
		Stock: pos.IntPtr(stock),
	}
}

// newTestEngine builds an engine over an in-memory gateway, pre-loaded
// with the given products and a fixed clock.
func newTestEngine(t *testing.T, products ...pos.Product) *pos.Engine {
	t.Helper()
	engine := pos.NewEngine(store.NewMemory())
	engine.Now = func() time.Time {
		return time.Date(2025, time.March, 14, 15, 30, 0, 0, time.UTC)
	}
	ctx := context.Background()
	for _, p := range products {
		engine.AddProduct(ctx, p)
	}
	return engine
}

func cartTotal(e *pos.Engine) decimal.Decimal {
	return e.CartView().Total
}

// sumOfLines recomputes the total independently to check the derived
// total invariant.
func sumOfLines(e *pos.Engine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.CartView().Lines {
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

func stockOf(t *testing.T, e *pos.Engine, id string) int {
	t.Helper()
	p, ok := e.ProductByID(id)
	if !ok {
		t.Fatalf("product %s not found", id)
	}
	stock, tracked := p.TrackedStock()
	if !tracked {
		t.Fatalf("product %s has untracked stock", id)
	}
	return stock
}

// =============================================================================
// CART INVARIANT TESTS
// =============================================================================

func TestAddItem_TotalAlwaysRecomputedFromLines(t *testing.T) {
	e := newTestEngine(t,
		product("1", "Makaroni", 14000, 10),
		product("2", "Es Jeruk", 8000, 10),
	)

	mutations := []func(){
		func() { e.AddItem("1") },
		func() { e.AddItem("1") },
		func() { e.AddItem("2") },
		func() { e.UpdateQuantity("2", 4) },
		func() { e.RemoveItem("1") },
		func() { e.AddItem("1") },
	}
	for i, mutate := range mutations {
		mutate()
		if !cartTotal(e).Equal(sumOfLines(e)) {
			t.Fatalf("after mutation %d: total %s != sum of lines %s", i, cartTotal(e), sumOfLines(e))
		}
	}
}

func TestAddItem_NeverExceedsStock(t *testing.T) {
	// GIVEN: A product with stock 3
	// WHEN: Adding it five times
	// THEN: Only three adds succeed, line quantity is exactly 3

	e := newTestEngine(t, product("1", "Tahu Isi", 6000, 3))

	succeeded := 0
	for i := 0; i < 5; i++ {
		if e.AddItem("1") {
			succeeded++
		}
	}

	if succeeded != 3 {
		t.Errorf("expected 3 successful adds, got %d", succeeded)
	}
	if count := e.ItemCount(); count != 3 {
		t.Errorf("expected item count 3, got %d", count)
	}
}

func TestAddItem_UntrackedStockNotSellable(t *testing.T) {
	// A product without a stock field is treated as permanently out of
	// stock, matching the zero-stock behavior.
	e := newTestEngine(t, pos.Product{ID: "u", Name: "Untracked", Price: rp(5000)})

	if e.AddItem("u") {
		t.Error("untracked product should not be sellable")
	}
	if n := e.ItemCount(); n != 0 {
		t.Errorf("cart should stay empty, got %d items", n)
	}
}

func TestAddItem_ZeroStockNotSellable(t *testing.T) {
	e := newTestEngine(t, product("z", "Habis", 5000, 0))

	if e.AddItem("z") {
		t.Error("zero-stock product should not be sellable")
	}
}

func TestAddItem_UnknownProductRejected(t *testing.T) {
	e := newTestEngine(t)

	if e.AddItem("ghost") {
		t.Error("unknown product should not be addable")
	}
}

func TestUpdateQuantity_ZeroEquivalentToRemove(t *testing.T) {
	// GIVEN: Two engines with the same cart
	// WHEN: One calls UpdateQuantity(id, 0), the other RemoveItem(id)
	// THEN: Both carts are identical

	setup := func() *pos.Engine {
		e := newTestEngine(t, product("1", "Kopi", 7000, 10))
		e.AddItem("1")
		e.AddItem("1")
		return e
	}

	byUpdate := setup()
	byUpdate.UpdateQuantity("1", 0)

	byRemove := setup()
	byRemove.RemoveItem("1")

	if got, want := len(byUpdate.CartView().Lines), len(byRemove.CartView().Lines); got != want {
		t.Errorf("line counts differ: %d vs %d", got, want)
	}
	if !cartTotal(byUpdate).Equal(cartTotal(byRemove)) {
		t.Errorf("totals differ: %s vs %s", cartTotal(byUpdate), cartTotal(byRemove))
	}
	if !cartTotal(byUpdate).IsZero() {
		t.Errorf("expected zero total, got %s", cartTotal(byUpdate))
	}
}

func TestUpdateQuantity_ExceedingStockRejected(t *testing.T) {
	// GIVEN: Product with stock 10, quantity 2 in cart
	// WHEN: UpdateQuantity(id, 100)
	// THEN: Quantity stays at the prior value

	e := newTestEngine(t, product("1", "Pisang Goreng", 8000, 10))
	e.AddItem("1")
	e.AddItem("1")

	e.UpdateQuantity("1", 100)

	if got := e.CartView().Lines[0].Quantity; got != 2 {
		t.Errorf("quantity should stay 2, got %d", got)
	}
	if !cartTotal(e).Equal(rp(16000)) {
		t.Errorf("total should stay 16000, got %s", cartTotal(e))
	}
}

func TestUpdateQuantity_SetsExactQuantity(t *testing.T) {
	e := newTestEngine(t, product("1", "Makaroni", 14000, 10))
	e.AddItem("1")

	e.UpdateQuantity("1", 7)

	if got := e.CartView().Lines[0].Quantity; got != 7 {
		t.Errorf("expected quantity 7, got %d", got)
	}
	if !cartTotal(e).Equal(rp(98000)) {
		t.Errorf("expected total 98000, got %s", cartTotal(e))
	}
}

func TestRemoveItem_IdempotentOnAbsentID(t *testing.T) {
	// Removing an id that is not in the cart is a no-op, twice over.
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))
	e.AddItem("1")
	before := cartTotal(e)

	e.RemoveItem("nope")
	e.RemoveItem("nope")

	if !cartTotal(e).Equal(before) {
		t.Errorf("total changed from %s to %s", before, cartTotal(e))
	}
	if got := len(e.CartView().Lines); got != 1 {
		t.Errorf("expected 1 line, got %d", got)
	}
}

func TestClearCart_ResetsTotalToZero(t *testing.T) {
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))
	e.AddItem("1")
	e.AddItem("1")

	e.ClearCart()

	cart := e.CartView()
	if len(cart.Lines) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(cart.Lines))
	}
	if !cart.Total.IsZero() {
		t.Errorf("expected zero total, got %s", cart.Total)
	}
}

func TestCartLine_SnapshotDoesNotFollowProductEdits(t *testing.T) {
	// GIVEN: A product in the cart at price 10000
	// WHEN: The catalog price changes to 99999
	// THEN: The existing cart line keeps the recorded price

	ctx := context.Background()
	e := newTestEngine(t, product("1", "Es Jeruk", 10000, 10))
	e.AddItem("1")

	edited := product("1", "Es Jeruk", 99999, 10)
	e.UpdateProduct(ctx, edited)

	line := e.CartView().Lines[0]
	if !line.Product.Price.Equal(rp(10000)) {
		t.Errorf("cart line price should stay 10000, got %s", line.Product.Price)
	}
	if !cartTotal(e).Equal(rp(10000)) {
		t.Errorf("cart total should stay 10000, got %s", cartTotal(e))
	}
}

// =============================================================================
// CHECKOUT TESTS
// =============================================================================

func TestCompleteTransaction_Atomic(t *testing.T) {
	// GIVEN: Two products in the cart
	// WHEN: Completing the transaction
	// THEN: Ledger grows by one, stock decrements by sold quantity,
	//       cart empties - all in one transition

	ctx := context.Background()
	e := newTestEngine(t,
		product("1", "Makaroni", 14000, 30),
		product("2", "Es Jeruk", 8000, 5),
	)
	e.AddItem("1")
	e.AddItem("1")
	e.AddItem("2")

	tx := e.CompleteTransaction(ctx, pos.PaymentData{
		Total:      cartTotal(e),
		AmountPaid: rp(50000),
	})

	if got := len(e.Transactions()); got != 1 {
		t.Fatalf("ledger should have exactly 1 transaction, got %d", got)
	}
	if got := stockOf(t, e, "1"); got != 28 {
		t.Errorf("product 1 stock should be 28, got %d", got)
	}
	if got := stockOf(t, e, "2"); got != 4 {
		t.Errorf("product 2 stock should be 4, got %d", got)
	}
	if got := e.ItemCount(); got != 0 {
		t.Errorf("cart should be empty after checkout, got %d items", got)
	}
	if len(tx.Lines) != 2 {
		t.Errorf("transaction should snapshot 2 lines, got %d", len(tx.Lines))
	}
	if tx.PaymentMethod != pos.PaymentCash {
		t.Errorf("payment method should be cash, got %s", tx.PaymentMethod)
	}
}

func TestCompleteTransaction_SingleUnitScenario(t *testing.T) {
	// GIVEN: Product P with stock=1, price=10000
	// WHEN: addItem(P) twice, then checkout paying 15000
	// THEN: First add succeeds, second is rejected, change is 5000,
	//       stock becomes 0, cart empties

	ctx := context.Background()
	e := newTestEngine(t, product("P", "Produk", 10000, 1))

	if !e.AddItem("P") {
		t.Fatal("first add should succeed")
	}
	if !cartTotal(e).Equal(rp(10000)) {
		t.Fatalf("cart total should be 10000, got %s", cartTotal(e))
	}
	if e.AddItem("P") {
		t.Fatal("second add should be rejected")
	}
	if !cartTotal(e).Equal(rp(10000)) {
		t.Fatalf("cart should be unchanged after rejected add")
	}

	tx := e.CompleteTransaction(ctx, pos.PaymentData{
		Total:      rp(10000),
		AmountPaid: rp(15000),
	})

	if !tx.Change.Equal(rp(5000)) {
		t.Errorf("change should be 5000, got %s", tx.Change)
	}
	if got := stockOf(t, e, "P"); got != 0 {
		t.Errorf("stock should be 0, got %d", got)
	}
	if got := e.ItemCount(); got != 0 {
		t.Errorf("cart should be empty, got %d items", got)
	}
}

func TestCompleteTransaction_StockFlooredAtZero(t *testing.T) {
	// Stock deltas from concurrent external edits can undershoot; the
	// decrement never drives stock negative.
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 5))
	e.AddItem("1")
	e.UpdateQuantity("1", 5)

	// External stock correction between cart build and checkout.
	e.UpdateProductStock(ctx, "1", 2)

	e.CompleteTransaction(ctx, pos.PaymentData{Total: cartTotal(e), AmountPaid: rp(50000)})

	if got := stockOf(t, e, "1"); got != 0 {
		t.Errorf("stock should floor at 0, got %d", got)
	}
}

func TestCompleteTransaction_ChangeNeverNegative(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 5))
	e.AddItem("1")

	// The engine does not re-validate sufficiency, it only computes.
	tx := e.CompleteTransaction(ctx, pos.PaymentData{Total: rp(7000), AmountPaid: rp(5000)})

	if !tx.Change.IsZero() {
		t.Errorf("change should floor at zero, got %s", tx.Change)
	}
}

func TestCompleteTransaction_ReceiptNumberFormat(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 5))
	e.AddItem("1")

	tx := e.CompleteTransaction(ctx, pos.PaymentData{Total: rp(7000), AmountPaid: rp(7000)})

	// Clock is fixed to 2025-03-14 15:30:00.
	const prefix = "20250314153000"
	if len(tx.ReceiptNumber) != len(prefix)+3 {
		t.Fatalf("receipt number should be %d chars, got %q", len(prefix)+3, tx.ReceiptNumber)
	}
	if tx.ReceiptNumber[:len(prefix)] != prefix {
		t.Errorf("receipt number should start with %s, got %q", prefix, tx.ReceiptNumber)
	}
}

func TestCompleteTransaction_LedgerIsAppendOnly(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 50))

	for i := 0; i < 3; i++ {
		e.AddItem("1")
		e.CompleteTransaction(ctx, pos.PaymentData{Total: rp(7000), AmountPaid: rp(7000)})
	}

	txs := e.Transactions()
	if len(txs) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(txs))
	}
	// Returned copies must not alias engine state.
	txs[0].Total = rp(1)
	if e.Transactions()[0].Total.Equal(rp(1)) {
		t.Error("mutating a returned transaction leaked into the ledger")
	}
}

// =============================================================================
// CATALOG CRUD TESTS
// =============================================================================

func TestDeleteProduct_CascadesToCart(t *testing.T) {
	// GIVEN: Two products in the cart
	// WHEN: One is deleted from the catalog
	// THEN: Its cart line disappears and the total excludes it

	ctx := context.Background()
	e := newTestEngine(t,
		product("1", "Makaroni", 14000, 10),
		product("2", "Es Jeruk", 8000, 10),
	)
	e.AddItem("1")
	e.AddItem("2")

	e.DeleteProduct(ctx, "1")

	if _, ok := e.ProductByID("1"); ok {
		t.Error("product 1 should be gone from the catalog")
	}
	cart := e.CartView()
	if len(cart.Lines) != 1 || cart.Lines[0].Product.ID != "2" {
		t.Fatalf("cart should hold only product 2, got %+v", cart.Lines)
	}
	if !cart.Total.Equal(rp(8000)) {
		t.Errorf("total should be 8000, got %s", cart.Total)
	}
}

func TestDeleteProduct_AbsentIsNoOp(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))

	e.DeleteProduct(ctx, "ghost")

	if got := len(e.Products()); got != 1 {
		t.Errorf("catalog should be untouched, got %d products", got)
	}
}

func TestUpdateProduct_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t,
		product("1", "Makaroni", 14000, 10),
		product("2", "Es Jeruk", 8000, 10),
	)

	e.UpdateProduct(ctx, product("2", "Es Jeruk Besar", 9000, 12))

	products := e.Products()
	if products[1].Name != "Es Jeruk Besar" {
		t.Errorf("product 2 should be renamed in place, got %q at index 1", products[1].Name)
	}
	if products[0].Name != "Makaroni" {
		t.Errorf("product 1 should be untouched")
	}
}

func TestUpdateProductStock_FlooredAtZero(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, product("1", "Kopi", 7000, 10))

	e.UpdateProductStock(ctx, "1", -5)

	if got := stockOf(t, e, "1"); got != 0 {
		t.Errorf("stock should floor at 0, got %d", got)
	}
}

func TestClassifyStock(t *testing.T) {
	cases := []struct {
		name      string
		stock     *int
		threshold int
		want      pos.StockStatus
	}{
		{"untracked", nil, 5, pos.StockOut},
		{"zero", pos.IntPtr(0), 5, pos.StockOut},
		{"at threshold", pos.IntPtr(5), 5, pos.StockLow},
		{"below threshold", pos.IntPtr(1), 5, pos.StockLow},
		{"above threshold", pos.IntPtr(6), 5, pos.StockIn},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := pos.Product{ID: "x", Name: "X", Price: rp(1000), Stock: tc.stock}
			if got := pos.ClassifyStock(p, tc.threshold); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

// =============================================================================
// HYDRATION AND PERSISTENCE TESTS
// =============================================================================

func TestHydrate_AbsentCatalogUsesSeed(t *testing.T) {
	e := pos.NewEngine(store.NewMemory())

	if err := e.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}

	if got := len(e.Products()); got != len(pos.SeedCatalog()) {
		t.Errorf("expected seed catalog of %d products, got %d", len(pos.SeedCatalog()), got)
	}
	if got := e.Settings(); got != pos.DefaultSettings() {
		t.Errorf("expected default settings, got %+v", got)
	}
}

func TestHydrate_LoadsPersistedState(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemory()

	// First session: sell something.
	first := pos.NewEngine(gw)
	if err := first.Hydrate(ctx); err != nil {
		t.Fatal(err)
	}
	first.AddItem("1")
	first.CompleteTransaction(ctx, pos.PaymentData{Total: rp(14000), AmountPaid: rp(14000)})

	// Second session over the same gateway sees the sale.
	second := pos.NewEngine(gw)
	if err := second.Hydrate(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(second.Transactions()); got != 1 {
		t.Errorf("expected 1 persisted transaction, got %d", got)
	}
	if got := stockOf(t, second, "1"); got != 29 {
		t.Errorf("expected decremented stock 29 to persist, got %d", got)
	}
}

func TestSaveFailure_DoesNotRollBackTransition(t *testing.T) {
	// GIVEN: A gateway whose saves always fail
	// WHEN: Completing a transaction
	// THEN: The in-memory transition still lands, the failure is
	//       remembered as a transient status

	ctx := context.Background()
	gw := store.NewMemory()
	gw.FailSaves = errors.New("disk full")

	e := pos.NewEngine(gw)
	e.AddProduct(ctx, product("1", "Kopi", 7000, 10))
	e.AddItem("1")
	e.CompleteTransaction(ctx, pos.PaymentData{Total: rp(7000), AmountPaid: rp(7000)})

	if got := len(e.Transactions()); got != 1 {
		t.Errorf("transaction should land in memory despite save failure, got %d entries", got)
	}
	if got := stockOf(t, e, "1"); got != 9 {
		t.Errorf("stock decrement should land in memory, got %d", got)
	}
	if e.LastSaveError() == nil {
		t.Error("save failure should be surfaced via LastSaveError")
	}
}
