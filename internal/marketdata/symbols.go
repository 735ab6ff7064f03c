package marketdata

import (
	"strings"

	"dca-backtest-lab/internal/domain"
)

// ProviderSymbol converts a catalog (market, code) pair into the symbol the
// upstream providers understand. US symbols pass through unchanged; A-Share
// codes get the Yahoo exchange suffix: Shanghai listings (6xxxxx) use .SS,
// Shenzhen listings use .SZ. Codes already carrying a suffix pass through.
func ProviderSymbol(market domain.Market, code string) string {
	if market != domain.MarketAShare {
		return code
	}
	if strings.HasSuffix(code, ".SS") || strings.HasSuffix(code, ".SZ") {
		return code
	}
	if len(code) > 0 && code[0] == '6' {
		return code + ".SS"
	}
	return code + ".SZ"
}
