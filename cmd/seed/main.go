// Package main seeds the ticker catalog from a YAML file, or from a small
// built-in list when no file is given.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/storage"
	"dca-backtest-lab/internal/storage/migrations"
	pgstore "dca-backtest-lab/internal/storage/postgres"
	sqlitestore "dca-backtest-lab/internal/storage/sqlite"
)

// tickerFile is the YAML shape of a seed file.
type tickerFile struct {
	Tickers []tickerEntry `yaml:"tickers"`
}

type tickerEntry struct {
	Name   string `yaml:"name"`
	Market string `yaml:"market"`
	Code   string `yaml:"code"`
}

// builtinTickers is used when no seed file is given.
var builtinTickers = []tickerEntry{
	{Name: "Apple Inc.", Market: "US", Code: "AAPL"},
	{Name: "Microsoft Corporation", Market: "US", Code: "MSFT"},
	{Name: "Amazon.com Inc.", Market: "US", Code: "AMZN"},
	{Name: "Alphabet Inc.", Market: "US", Code: "GOOGL"},
	{Name: "Tesla Inc.", Market: "US", Code: "TSLA"},
	{Name: "贵州茅台", Market: "A-Share", Code: "600519"},
	{Name: "中国平安", Market: "A-Share", Code: "601318"},
}

func main() {
	file := flag.String("file", "", "YAML file with tickers to seed (empty = built-in list)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	sqlitePath := flag.String("sqlite-path", os.Getenv("SQLITE_PATH"), "SQLite file path")

	flag.Parse()

	logger := log.New(os.Stderr, "[seed] ", log.LstdFlags)

	entries := builtinTickers
	if *file != "" {
		loaded, err := loadTickerFile(*file)
		if err != nil {
			logger.Fatalf("Load %s: %v", *file, err)
		}
		entries = loaded
	}
	if len(entries) == 0 {
		logger.Fatal("No tickers to seed")
	}

	ctx := context.Background()

	store, cleanup, err := openStore(ctx, *postgresDSN, *sqlitePath)
	if err != nil {
		logger.Fatalf("Open store: %v", err)
	}
	defer cleanup()

	tickers := make([]*domain.Ticker, 0, len(entries))
	for _, e := range entries {
		tickers = append(tickers, &domain.Ticker{
			Name:   e.Name,
			Market: domain.Market(e.Market),
			Symbol: e.Code,
		})
	}

	inserted, err := store.InsertBulk(ctx, tickers)
	if err != nil {
		logger.Fatalf("Insert tickers: %v", err)
	}
	logger.Printf("Seeded %d of %d tickers (%d already present)", inserted, len(tickers), len(tickers)-inserted)
}

// loadTickerFile parses and validates a YAML seed file.
func loadTickerFile(path string) ([]tickerEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f tickerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	for i, e := range f.Tickers {
		if e.Name == "" || e.Market == "" || e.Code == "" {
			return nil, fmt.Errorf("ticker %d: name, market, and code are all required", i)
		}
	}
	return f.Tickers, nil
}

// openStore picks SQLite or PostgreSQL depending on which flag is set.
func openStore(ctx context.Context, postgresDSN, sqlitePath string) (storage.TickerStore, func(), error) {
	switch {
	case sqlitePath != "":
		store, err := sqlitestore.NewTickerStore(sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case postgresDSN != "":
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewTickerStore(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("either --sqlite-path or --postgres-dsn is required")
	}
}
