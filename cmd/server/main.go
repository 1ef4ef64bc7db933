/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the MiniStore POS engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open SQLite store (runs pending schema migrations, seeds the catalog)
  3. Create API handler with the injected PIN
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 5055)
  -db      SQLite database path (default: database.db)
           Use ":memory:" for an in-memory database
  -pin     Client PIN (default: POS_PIN env var, then "1234")

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  ./server -db="./data/ministore.db" -pin=4812
  ./server -db=":memory:" -port=3000
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

	"github.com/ministore/pos-engine/api"
	"github.com/ministore/pos-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 5055, "HTTP server port")
	dbPath := flag.String("db", "database.db", "SQLite database path")
	pin := flag.String("pin", envOr("POS_PIN", "1234"), "client PIN")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	backupPath := *dbPath
	if backupPath == ":memory:" {
		backupPath = ""
	}

	handler := api.NewHandler(store, api.Config{
		PIN:        *pin,
		BackupPath: backupPath,
	})
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
