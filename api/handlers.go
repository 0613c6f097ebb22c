/*
handlers.go - HTTP API handlers for the POS engine

PURPOSE:
  Exposes the POS state engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the engine.

ENDPOINTS:
  Catalog:
    GET    /api/products               List catalog
    POST   /api/products               Create product
    GET    /api/products/{id}          Get product
    PUT    /api/products/{id}          Update product
    DELETE /api/products/{id}          Delete product (cascades to cart)
    PUT    /api/products/{id}/stock    Set stock count

  Cart:
    GET    /api/cart                   Current cart
    POST   /api/cart/items             Add one unit of a product
    PUT    /api/cart/items/{productID} Set line quantity
    DELETE /api/cart/items/{productID} Remove line
    DELETE /api/cart                   Clear cart

  Checkout:
    POST   /api/checkout               Complete the sale

  Transactions:
    GET    /api/transactions           Ledger, oldest first
    GET    /api/transactions/{id}      Single transaction
    GET    /api/transactions/{id}/receipt  Plain-text receipt

  Reports, backup, settings, debug: see server.go

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (upstream checks: payment sufficiency, empty cart)
  3. Call the engine transition
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (stock rejection on cart mutations)
  - 500: Internal errors
  Gateway save failures never fail a request: the transition has already
  landed in memory. The most recent failure is exposed via the
  X-Save-Error header as a transient status signal.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-chi/chi/v5"

	"github.com/andhikafr19/pos-engine/pos"
)

// maxImportSize caps backup uploads at 10 MiB.
const maxImportSize = 10 << 20

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *pos.Engine
}

// NewHandler creates a new handler around the given engine.
func NewHandler(engine *pos.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListProducts returns the full catalog in insertion order.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	threshold := h.Engine.Settings().LowStockThreshold
	products := h.Engine.Products()

	dtos := make([]ProductDTO, len(products))
	for i, p := range products {
		dtos[i] = toProductDTO(p, threshold)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// GetProduct returns a single catalog entry.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.Engine.ProductByID(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toProductDTO(p, h.Engine.Settings().LowStockThreshold))
}

// CreateProduct adds a product with a server-generated identifier.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validateProduct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	p := pos.Product{
		ID:          pos.NewProductID(),
		Name:        req.Name,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
	}
	h.Engine.AddProduct(r.Context(), p)
	h.writeJSON(w, http.StatusCreated, toProductDTO(p, h.Engine.Settings().LowStockThreshold))
}

// UpdateProduct replaces the matching catalog entry.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Engine.ProductByID(id); !ok {
		h.writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	var req SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validateProduct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid product", err)
		return
	}

	p := pos.Product{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price,
		CostPrice:   req.CostPrice,
		Description: req.Description,
		Category:    req.Category,
		Stock:       req.Stock,
	}
	h.Engine.UpdateProduct(r.Context(), p)
	h.writeJSON(w, http.StatusOK, toProductDTO(p, h.Engine.Settings().LowStockThreshold))
}

// DeleteProduct removes the product and cascades to any cart line
// referencing it.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Engine.ProductByID(id); !ok {
		h.writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	h.Engine.DeleteProduct(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// UpdateProductStock sets the stock count, floored at zero by the
// engine.
func (h *Handler) UpdateProductStock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.Engine.ProductByID(id); !ok {
		h.writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}

	var req UpdateStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.Engine.UpdateProductStock(r.Context(), id, req.Stock)

	p, _ := h.Engine.ProductByID(id)
	h.writeJSON(w, http.StatusOK, toProductDTO(p, h.Engine.Settings().LowStockThreshold))
}

func validateProduct(req SaveProductRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.Price.IsNegative() {
		return fmt.Errorf("price must not be negative")
	}
	if req.CostPrice != nil && req.CostPrice.IsNegative() {
		return fmt.Errorf("cost price must not be negative")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return fmt.Errorf("stock must not be negative")
	}
	return nil
}

// =============================================================================
// CART HANDLERS
// =============================================================================

// GetCart returns the current cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cartDTO())
}

// AddCartItem adds one unit of the product. The defensive stock check
// here mirrors the authoritative one inside the engine transition.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p, ok := h.Engine.ProductByID(req.ProductID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "Product not found", nil)
		return
	}
	if stock, tracked := p.TrackedStock(); !tracked || stock == 0 {
		h.writeError(w, http.StatusConflict, "Product is out of stock", nil)
		return
	}

	if !h.Engine.AddItem(req.ProductID) {
		h.writeError(w, http.StatusConflict, "Insufficient stock", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartDTO())
}

// UpdateCartItem sets a line's quantity. Zero or negative removes the
// line; quantities beyond tracked stock are rejected.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Quantity > 0 {
		p, ok := h.Engine.ProductByID(productID)
		if !ok {
			h.writeError(w, http.StatusNotFound, "Product not found", nil)
			return
		}
		if stock, tracked := p.TrackedStock(); !tracked || req.Quantity > stock {
			h.writeError(w, http.StatusConflict, "Quantity exceeds available stock", nil)
			return
		}
	}

	h.Engine.UpdateQuantity(productID, req.Quantity)
	h.writeJSON(w, http.StatusOK, h.cartDTO())
}

// RemoveCartItem removes the line. Removing an absent line succeeds;
// the operation is idempotent.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.Engine.RemoveItem(chi.URLParam(r, "productID"))
	h.writeJSON(w, http.StatusOK, h.cartDTO())
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.Engine.ClearCart()
	h.writeJSON(w, http.StatusOK, h.cartDTO())
}

// =============================================================================
// CHECKOUT HANDLER
// =============================================================================

// Checkout completes the current sale. Payment sufficiency and the
// non-empty cart check live here, upstream of the engine: the
// transition itself only computes.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cart := h.Engine.CartView()
	if len(cart.Lines) == 0 {
		h.writeError(w, http.StatusBadRequest, "Cart is empty", nil)
		return
	}
	if req.AmountPaid.LessThan(cart.Total) {
		h.writeError(w, http.StatusBadRequest, "Amount paid is less than the total", nil)
		return
	}

	tx := h.Engine.CompleteTransaction(r.Context(), pos.PaymentData{
		Total:        cart.Total,
		AmountPaid:   req.AmountPaid,
		BuyerName:    req.BuyerName,
		BuyerAddress: req.BuyerAddress,
	})
	h.writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the ledger, oldest first.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs := h.Engine.Transactions()
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	h.writeJSON(w, http.StatusOK, dtos)
}

// GetTransaction returns a single ledger entry.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.Engine.TransactionByID(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// GetReceipt renders the plain-text receipt for a transaction.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	tx, ok := h.Engine.TransactionByID(chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, http.StatusNotFound, "Transaction not found", nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, pos.RenderReceipt(tx, h.Engine.Settings()))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSalesSummary returns overall and same-day sales aggregates.
func (h *Handler) GetSalesSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Engine.SalesSummary())
}

// GetDailySales returns the last N days of revenue/profit buckets.
// ?days=N, default 7.
func (h *Handler) GetDailySales(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter", err)
			return
		}
		days = n
	}
	h.writeJSON(w, http.StatusOK, h.Engine.DailySales(days))
}

// GetTopProducts returns best sellers by units sold. ?limit=N,
// default 5.
func (h *Handler) GetTopProducts(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		limit = n
	}
	h.writeJSON(w, http.StatusOK, h.Engine.TopProducts(limit))
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// ExportBackup serves the full snapshot as a JSON download named
// pos-backup-<YYYY-MM-DD>.json.
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	backup := h.Engine.ExportBackup()
	data, err := pos.EncodeBackup(backup)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to encode backup", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", pos.BackupFilename(time.Now())))
	w.Write(data)
}

// ImportBackup parses an uploaded snapshot and replaces state
// wholesale. The blob is fully validated before any state mutation;
// sections absent from the blob leave the corresponding state
// untouched.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Failed to read upload", err)
		return
	}

	backup, err := pos.DecodeBackup(data)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid backup file", err)
		return
	}

	h.Engine.ApplyImport(r.Context(), backup)
	h.writeJSON(w, http.StatusOK, ImportResultDTO{
		Summary:              pos.DescribeBackup(backup),
		ProductsReplaced:     backup.Products != nil,
		TransactionsReplaced: backup.Transactions != nil,
		SettingsReplaced:     backup.Settings != nil,
	})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns the store configuration.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s := h.Engine.Settings()
	h.writeJSON(w, http.StatusOK, SettingsDTO{
		LowStockThreshold: s.LowStockThreshold,
		StoreName:         s.StoreName,
		AutoBackup:        s.AutoBackup,
	})
}

// UpdateSettings replaces the store configuration wholesale.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.Engine.UpdateSettings(r.Context(), pos.Settings{
		LowStockThreshold: req.LowStockThreshold,
		StoreName:         req.StoreName,
		AutoBackup:        req.AutoBackup,
	})
	h.GetSettings(w, r)
}

// =============================================================================
// DEBUG HANDLERS
// =============================================================================

// DumpState renders the full engine state for inspection during
// development.
func (h *Handler) DumpState(w http.ResponseWriter, r *http.Request) {
	dump := struct {
		Products     []pos.Product
		Cart         pos.Cart
		Transactions []pos.Transaction
		Settings     pos.Settings
	}{
		Products:     h.Engine.Products(),
		Cart:         h.Engine.CartView(),
		Transactions: h.Engine.Transactions(),
		Settings:     h.Engine.Settings(),
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, spew.Sdump(dump))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) cartDTO() CartDTO {
	threshold := h.Engine.Settings().LowStockThreshold
	cart := h.Engine.CartView()

	items := make([]CartLineDTO, len(cart.Lines))
	for i, l := range cart.Lines {
		items[i] = CartLineDTO{
			Product:  toProductDTO(l.Product, threshold),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		}
	}
	return CartDTO{Items: items, Total: cart.Total, ItemCount: cart.ItemCount()}
}

func toProductDTO(p pos.Product, threshold int) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		CostPrice:   p.CostPrice,
		Description: p.Description,
		Category:    p.Category,
		Stock:       p.Stock,
		StockStatus: pos.ClassifyStock(p, threshold),
	}
}

func toTransactionDTO(tx pos.Transaction) TransactionDTO {
	items := make([]CartLineDTO, len(tx.Lines))
	for i, l := range tx.Lines {
		items[i] = CartLineDTO{
			// Threshold 0: a transaction snapshot has no live stock
			// status; the classification is vestigial here.
			Product:  toProductDTO(l.Product, 0),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal(),
		}
	}
	return TransactionDTO{
		ID:            tx.ID,
		Items:         items,
		Total:         tx.Total,
		AmountPaid:    tx.AmountPaid,
		Change:        tx.Change,
		PaymentMethod: string(tx.PaymentMethod),
		Timestamp:     tx.Timestamp.Format(time.RFC3339Nano),
		ReceiptNumber: tx.ReceiptNumber,
		BuyerName:     tx.BuyerName,
		BuyerAddress:  tx.BuyerAddress,
	}
}

// writeJSON writes a JSON response, attaching the transient save-error
// status when the last gateway save failed.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	if err := h.Engine.LastSaveError(); err != nil {
		w.Header().Set("X-Save-Error", err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
