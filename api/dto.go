/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers. Note that stock sufficiency is validated twice by design:
  defensively in the handler and authoritatively inside the engine
  transition.

SEE ALSO:
  - handlers.go: Uses these types
  - pos/types.go: The domain model these mirror
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/andhikafr19/pos-engine/pos"
)

// =============================================================================
// PRODUCTS
// =============================================================================

// ProductDTO represents a catalog entry in API responses. StockStatus
// is the display classification derived from the low-stock threshold.
type ProductDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	StockStatus pos.StockStatus  `json:"stockStatus"`
}

// SaveProductRequest creates or updates a product. ID is ignored on
// create; the server generates one.
type SaveProductRequest struct {
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	CostPrice   *decimal.Decimal `json:"costPrice,omitempty"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
}

// UpdateStockRequest sets a product's stock count directly.
type UpdateStockRequest struct {
	Stock int `json:"stock"`
}

// =============================================================================
// CART
// =============================================================================

// CartDTO is the current cart with its derived total.
type CartDTO struct {
	Items     []CartLineDTO   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

type CartLineDTO struct {
	Product  ProductDTO      `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// AddCartItemRequest adds one unit of a product to the cart.
type AddCartItemRequest struct {
	ProductID string `json:"productId"`
}

// UpdateCartItemRequest sets a line's quantity exactly. Zero or
// negative removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// =============================================================================
// CHECKOUT / TRANSACTIONS
// =============================================================================

// CheckoutRequest completes the sale. AmountPaid must cover the cart
// total; buyer fields are optional.
type CheckoutRequest struct {
	AmountPaid   decimal.Decimal `json:"amountPaid"`
	BuyerName    string          `json:"buyerName,omitempty"`
	BuyerAddress string          `json:"buyerAddress,omitempty"`
}

// TransactionDTO represents a completed sale in API responses.
type TransactionDTO struct {
	ID            string          `json:"id"`
	Items         []CartLineDTO   `json:"items"`
	Total         decimal.Decimal `json:"total"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Change        decimal.Decimal `json:"change"`
	PaymentMethod string          `json:"paymentMethod"`
	Timestamp     string          `json:"timestamp"`
	ReceiptNumber string          `json:"receiptNumber"`
	BuyerName     string          `json:"buyerName,omitempty"`
	BuyerAddress  string          `json:"buyerAddress,omitempty"`
}

// =============================================================================
// SETTINGS / STATUS
// =============================================================================

// SettingsDTO mirrors pos.Settings on the wire.
type SettingsDTO struct {
	LowStockThreshold int    `json:"lowStockThreshold"`
	StoreName         string `json:"storeName"`
	AutoBackup        bool   `json:"autoBackup"`
}

// ImportResultDTO reports what a backup import replaced.
type ImportResultDTO struct {
	Summary              string `json:"summary"`
	ProductsReplaced     bool   `json:"productsReplaced"`
	TransactionsReplaced bool   `json:"transactionsReplaced"`
	SettingsReplaced     bool   `json:"settingsReplaced"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
