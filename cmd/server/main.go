// Package main runs the DCA backtest HTTP service: ticker search, raw price
// data, single and multi-asset backtests, and the static frontend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dca-backtest-lab/internal/api"
	"dca-backtest-lab/internal/marketdata"
	"dca-backtest-lab/internal/observability"
	"dca-backtest-lab/internal/storage"
	chstore "dca-backtest-lab/internal/storage/clickhouse"
	"dca-backtest-lab/internal/storage/memory"
	"dca-backtest-lab/internal/storage/migrations"
	pgstore "dca-backtest-lab/internal/storage/postgres"
	sqlitestore "dca-backtest-lab/internal/storage/sqlite"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	addr := flag.String("addr", envOr("HTTP_ADDR", ":8000"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for the ticker catalog")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for the price cache")
	sqlitePath := flag.String("sqlite-path", os.Getenv("SQLITE_PATH"), "SQLite file for the ticker catalog (lighter alternative to PostgreSQL)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of a database")
	staticDir := flag.String("static-dir", envOr("STATIC_DIR", "frontend"), "Directory with the static frontend (empty to disable)")
	alpacaKey := flag.String("alpaca-key", os.Getenv("ALPACA_API_KEY"), "Alpaca API key for the fallback data provider")
	alpacaSecret := flag.String("alpaca-secret", os.Getenv("ALPACA_API_SECRET"), "Alpaca API secret")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tickers, cleanup, err := createTickerStore(ctx, *postgresDSN, *sqlitePath, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Failed to create ticker store: %v", err)
	}
	defer cleanup()

	provider, providerCleanup, err := createProvider(ctx, *clickhouseDSN, *alpacaKey, *alpacaSecret, logger)
	if err != nil {
		logger.Fatalf("Failed to create price provider: %v", err)
	}
	defer providerCleanup()

	if _, err := os.Stat(*staticDir); err != nil {
		logger.Printf("Static dir %q not found, frontend routes disabled", *staticDir)
		*staticDir = ""
	}

	observability.StartUptimeCounter(ctx)

	server := api.NewServer(tickers, provider, *staticDir, logger)
	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		go func() {
			sig := <-sigCh
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		}()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown error: %v", err)
		}
		cancel()
	}()

	logger.Printf("Listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createTickerStore picks the ticker catalog backend: in-memory, SQLite, or
// PostgreSQL with migrations applied. With nothing configured it falls back
// to memory so the service still starts with just the built-in tickers.
func createTickerStore(ctx context.Context, postgresDSN, sqlitePath string, useMemory bool, logger *log.Logger) (storage.TickerStore, func(), error) {
	switch {
	case useMemory:
		logger.Println("Using in-memory ticker store")
		return memory.NewTickerStore(), func() {}, nil

	case sqlitePath != "":
		store, err := sqlitestore.NewTickerStore(sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite ticker store: %w", err)
		}
		logger.Printf("Using SQLite ticker store at %s", sqlitePath)
		return store, func() { store.Close() }, nil

	case postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
		}
		logger.Println("Using PostgreSQL ticker store")
		return pgstore.NewTickerStore(pool), pool.Close, nil

	default:
		logger.Println("No storage configured, using in-memory ticker store")
		return memory.NewTickerStore(), func() {}, nil
	}
}

// createProvider builds the price data chain: Yahoo first, Alpaca as a
// fallback for US symbols when credentials are set, wrapped by the
// ClickHouse cache when a DSN is configured.
func createProvider(ctx context.Context, clickhouseDSN, alpacaKey, alpacaSecret string, logger *log.Logger) (marketdata.Provider, func(), error) {
	providers := []marketdata.Provider{marketdata.NewYahooProvider()}
	if alpacaKey != "" && alpacaSecret != "" {
		providers = append(providers, marketdata.NewAlpacaProvider(alpacaKey, alpacaSecret))
		logger.Println("Alpaca fallback provider enabled")
	}

	var provider marketdata.Provider = marketdata.NewChainProvider(logger, providers...)

	if clickhouseDSN == "" {
		return provider, func() {}, nil
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}
	cache := chstore.NewPriceHistoryStore(conn)
	logger.Println("ClickHouse price cache enabled")

	return marketdata.NewCachedProvider(provider, cache, logger), func() { conn.Close() }, nil
}

// envOr returns the env value or a default when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
