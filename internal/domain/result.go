package domain

import "time"

// PortfolioPoint is the simulated portfolio state on a single trading date.
// Shares and Invested never decrease across a run; Cash is always zero
// because the strategy is fully invested.
type PortfolioPoint struct {
	Date     time.Time
	Shares   float64 // cumulative shares held
	Invested float64 // cumulative capital committed
	Holdings float64 // Shares × close price on Date
	Total    float64 // Holdings (no cash component)
	Cash     float64
}

// StrategyStats describes the purchase schedule behind a backtest run.
type StrategyStats struct {
	InvestmentDates        []string `json:"investment_dates"`
	TradingDays            int      `json:"trading_days"`
	InvestmentPeriodMonths int      `json:"investment_period_months"`
}

// BacktestResult is the immutable summary of a single-asset run.
// Curves are keyed by YYYY-MM-DD date strings.
type BacktestResult struct {
	InitialInvestment float64 `json:"initial_investment"`
	MonthlyInvestment float64 `json:"monthly_investment"`
	TotalInvested     float64 `json:"total_invested"`
	FinalTotal        float64 `json:"final_total"`
	TotalReturnPct    float64 `json:"total_return_pct"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct"`
	// BenchmarkReturnPct is fixed at 0: the benchmark is committed
	// principal with no growth.
	BenchmarkReturnPct float64 `json:"benchmark_return_pct"`
	AbsoluteProfit     float64 `json:"absolute_profit"`
	TotalInvestments   int     `json:"total_investments"`

	EquityCurve    map[string]float64 `json:"equity_curve"`
	BenchmarkCurve map[string]float64 `json:"benchmark_curve"`
	Stats          StrategyStats      `json:"strategy_stats"`

	// Portfolio is the full per-date state sequence, in date order.
	Portfolio []PortfolioPoint `json:"-"`
}

// AssetSeries pairs an asset identity with its price series for the
// multi-asset pipeline.
type AssetSeries struct {
	Code   string
	Name   string
	Series PriceSeries
}

// AssetOutcome is the per-asset result of a multi-asset run: either a
// completed BacktestResult or a captured failure, never both.
type AssetOutcome struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Result *BacktestResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// MultiBacktestResult is the outcome of a multi-asset comparison run.
// Outcomes preserve the caller's original asset order.
type MultiBacktestResult struct {
	InitialInvestment float64 `json:"initial_investment"`
	MonthlyInvestment float64 `json:"monthly_investment"`
	TotalInvested     float64 `json:"total_invested"`
	TotalInvestments  int     `json:"total_investments"`

	// InvestmentDates and BenchmarkCurve come from the shared calendar
	// and apply uniformly to every asset.
	InvestmentDates []string           `json:"investment_dates"`
	BenchmarkCurve  map[string]float64 `json:"benchmark_curve"`

	Outcomes []AssetOutcome `json:"results"`
}
