/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the mill inventory server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Read environment configuration, then command-line flags
  2. Initialize SQLite store
  3. Wire domain services (ledgers, pokas, production)
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  Environment (prefix MILLSTOCK_), overridable by flags:
    MILLSTOCK_PORT       HTTP server port (default: 8080)
    MILLSTOCK_DB_PATH    SQLite database path (default: millstock.db)
    MILLSTOCK_LOG_LEVEL  logrus level (default: info)

COMMAND-LINE FLAGS:
  -port    HTTP server port
  -db      SQLite database path; use ":memory:" for in-memory

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/millstock.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  MILLSTOCK_PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/weftworks/millstock/api"
	"github.com/weftworks/millstock/ledger"
	"github.com/weftworks/millstock/poka"
	"github.com/weftworks/millstock/production"
	"github.com/weftworks/millstock/store/sqlite"
)

type config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	DBPath   string `envconfig:"DB_PATH" default:"millstock.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	var cfg config
	if err := envconfig.Process("millstock", &cfg); err != nil {
		log.WithError(err).Fatal("Failed to read environment configuration")
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Wire domain services
	ledgers := ledger.NewService(store.Ledgers())
	pokas := poka.NewService(store.Pokas(), store.Ledgers())
	prod := production.NewService(store.ProductionLog())

	// Create router
	handler := api.NewHandler(ledgers, pokas, prod, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", *port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
