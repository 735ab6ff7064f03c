// Package main runs a DCA backtest from the command line, fetching prices
// from the same providers the HTTP service uses.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dca-backtest-lab/internal/backtest"
	"dca-backtest-lab/internal/domain"
	"dca-backtest-lab/internal/marketdata"
)

// assetSpec is one parsed -symbols entry.
type assetSpec struct {
	market domain.Market
	code   string
}

func main() {
	// Parse flags
	symbols := flag.String("symbols", "", "Comma-separated assets as MARKET:CODE (e.g. US:AAPL,A-Share:600519); bare codes default to US (required)")
	startDate := flag.String("start", "", "Start date YYYY-MM-DD (required)")
	endDate := flag.String("end", "", "End date YYYY-MM-DD (required)")
	initial := flag.Float64("initial", 10000, "Initial investment")
	monthly := flag.Float64("monthly", 1000, "Monthly investment")
	workers := flag.Int("workers", 0, "Worker pool size for multi-asset runs (0 = default)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	// Validate required flags
	if *symbols == "" {
		logger.Fatal("--symbols is required")
	}
	if *startDate == "" || *endDate == "" {
		logger.Fatal("--start and --end are required")
	}

	specs, err := parseAssets(*symbols)
	if err != nil {
		logger.Fatalf("Invalid --symbols: %v", err)
	}
	if len(specs) > backtest.MaxAssets {
		logger.Fatalf("At most %d assets can be compared at once", backtest.MaxAssets)
	}

	start, err := time.Parse(domain.DateLayout, *startDate)
	if err != nil {
		logger.Fatalf("Invalid --start %q: expected YYYY-MM-DD", *startDate)
	}
	end, err := time.Parse(domain.DateLayout, *endDate)
	if err != nil {
		logger.Fatalf("Invalid --end %q: expected YYYY-MM-DD", *endDate)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	provider := buildProvider(logger)

	assets := make([]domain.AssetSeries, 0, len(specs))
	for _, spec := range specs {
		symbol := marketdata.ProviderSymbol(spec.market, spec.code)
		series, err := provider.DailyCloses(ctx, symbol, start, end)
		if err != nil {
			logger.Fatalf("Fetch %s: %v", symbol, err)
		}
		assets = append(assets, domain.AssetSeries{Code: spec.code, Name: spec.code, Series: series})
	}

	if len(assets) == 1 {
		result, err := backtest.Run(assets[0].Series, *initial, *monthly)
		if err != nil {
			logger.Fatalf("Backtest failed: %v", err)
		}
		if *outputJSON {
			printJSON(result)
		} else {
			printResult(assets[0].Code, result)
		}
		return
	}

	result, err := backtest.RunMulti(assets, *initial, *monthly, *workers)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}
	if *outputJSON {
		printJSON(result)
		return
	}
	fmt.Printf("\n=== DCA Comparison: %s to %s ===\n", *startDate, *endDate)
	fmt.Printf("Total Invested:     %.2f over %d investments\n", result.TotalInvested, result.TotalInvestments)
	for _, o := range result.Outcomes {
		if o.Error != "" {
			fmt.Printf("\n--- %s: FAILED (%s)\n", o.Code, o.Error)
			continue
		}
		printResult(o.Code, o.Result)
	}
}

// parseAssets splits the -symbols flag into market and code pairs.
func parseAssets(s string) ([]assetSpec, error) {
	var specs []assetSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		market, code, found := strings.Cut(part, ":")
		if !found {
			specs = append(specs, assetSpec{market: domain.MarketUS, code: part})
			continue
		}
		m := domain.Market(market)
		if m != domain.MarketUS && m != domain.MarketAShare {
			return nil, fmt.Errorf("unknown market %q in %q", market, part)
		}
		specs = append(specs, assetSpec{market: m, code: code})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no assets given")
	}
	return specs, nil
}

// buildProvider wires Yahoo plus the optional Alpaca fallback.
func buildProvider(logger *log.Logger) marketdata.Provider {
	providers := []marketdata.Provider{marketdata.NewYahooProvider()}
	if key, secret := os.Getenv("ALPACA_API_KEY"), os.Getenv("ALPACA_API_SECRET"); key != "" && secret != "" {
		providers = append(providers, marketdata.NewAlpacaProvider(key, secret))
	}
	return marketdata.NewChainProvider(logger, providers...)
}

func printJSON(v any) {
	output, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(output))
}

// printResult outputs a human-readable summary of one run.
func printResult(code string, r *domain.BacktestResult) {
	fmt.Println()
	fmt.Printf("=== %s ===\n", code)
	fmt.Printf("Total Invested:     %.2f\n", r.TotalInvested)
	fmt.Printf("Final Total:        %.2f\n", r.FinalTotal)
	fmt.Printf("Absolute Profit:    %.2f\n", r.AbsoluteProfit)
	fmt.Printf("Total Return:       %.2f%%\n", r.TotalReturnPct)
	fmt.Printf("Max Drawdown:       %.2f%%\n", r.MaxDrawdownPct)
	fmt.Printf("Investments:        %d over %d months\n", r.TotalInvestments, r.Stats.InvestmentPeriodMonths)
	fmt.Printf("Trading Days:       %d\n", r.Stats.TradingDays)
	if len(r.Stats.InvestmentDates) > 0 {
		fmt.Printf("First Purchase:     %s\n", r.Stats.InvestmentDates[0])
		fmt.Printf("Last Purchase:      %s\n", r.Stats.InvestmentDates[len(r.Stats.InvestmentDates)-1])
	}
}
