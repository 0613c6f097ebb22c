/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the POS server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite gateway
  3. Create the state engine and hydrate it from storage
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: pos.db)
           Use ":memory:" for an in-memory database

DEGRADED MODE:
  If the database cannot be opened the server still starts with a no-op
  gateway: the till keeps working for the session, nothing is persisted.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/pos.db"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - pos/engine.go: The state engine
  - store/sqlite/sqlite.go: Gateway implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andhikafr19/pos-engine/api"
	"github.com/andhikafr19/pos-engine/pos"
	"github.com/andhikafr19/pos-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pos.db", "SQLite database path")
	flag.Parse()

	// Initialize gateway. Persistence unavailability is not fatal: the
	// engine runs session-only and logs save failures.
	var gateway pos.Gateway
	sqlGateway, err := sqlite.New(*dbPath)
	if err != nil {
		log.Printf("Warning: database unavailable, running session-only: %v", err)
		gateway = pos.Nop{}
	} else {
		defer sqlGateway.Close()
		gateway = sqlGateway
	}

	// Initialize engine and hydrate persisted state.
	engine := pos.NewEngine(gateway)
	if err := engine.Hydrate(context.Background()); err != nil {
		log.Fatalf("Failed to hydrate state: %v", err)
	}

	// Create router
	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("POS server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
