package domain

// Market identifies the exchange grouping a ticker belongs to.
type Market string

// Supported markets.
const (
	MarketUS     Market = "US"
	MarketAShare Market = "A-Share"
)

// Ticker is a searchable instrument entry in the lookup store.
type Ticker struct {
	Name   string // display name, e.g. "Apple Inc."
	Market Market // market grouping
	Symbol string // provider symbol, e.g. "AAPL" or "600519.SS"
}
