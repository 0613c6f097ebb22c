/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/products/*      Catalog CRUD and stock updates
  /api/cart/*          Cart mutations and view
  /api/checkout        Complete the current sale
  /api/transactions/*  Ledger reads and receipts
  /api/reports/*       Sales summaries
  /api/backup          Export/import snapshot
  /api/settings        Store configuration
  /api/debug/*         State dump (dev only)

SECURITY NOTE:
  No authentication middleware. This is a single-till application
  intended to run on the till itself.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.GetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			r.Put("/{id}/stock", h.UpdateProductStock)
		})

		// Cart routes
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddCartItem)
			r.Put("/items/{productID}", h.UpdateCartItem)
			r.Delete("/items/{productID}", h.RemoveCartItem)
		})

		// Checkout
		r.Post("/checkout", h.Checkout)

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
			r.Get("/{id}/receipt", h.GetReceipt)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", h.GetSalesSummary)
			r.Get("/daily", h.GetDailySales)
			r.Get("/top-products", h.GetTopProducts)
		})

		// Backup routes
		r.Get("/backup", h.ExportBackup)
		r.Post("/backup", h.ImportBackup)

		// Settings routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		// Debug routes (dev only)
		r.Get("/debug/state", h.DumpState)
	})

	return r
}
