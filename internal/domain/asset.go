package domain

import "strings"

// AssetClass determines quantity and time-in-force rules for an order.
type AssetClass string

const (
	AssetEquity AssetClass = "EQUITY"
	AssetCrypto AssetClass = "CRYPTO"
)

// knownCryptoPairs are the USD pairs Alpaca trades directly. The heuristic
// below already catches most of them; the set exists so a listing change on
// the heuristic side never flips a known pair back to equity.
var knownCryptoPairs = map[string]bool{
	"BTCUSD":   true,
	"ETHUSD":   true,
	"LTCUSD":   true,
	"BCHUSD":   true,
	"DOGEUSD":  true,
	"SOLUSD":   true,
	"AVAXUSD":  true,
	"LINKUSD":  true,
	"UNIUSD":   true,
	"AAVEUSD":  true,
	"SHIBUSD":  true,
	"MATICUSD": true,
}

// ClassifyAsset decides whether a symbol denotes a crypto pair or an equity.
// Crypto iff the normalized symbol is a known pair, or it is alphanumeric,
// at least 6 characters and ends in "USD". Total over all strings.
//
// Known limitation: a 6+ character alphanumeric equity ticker ending in
// "USD" classifies as crypto. Kept as-is; tests pin this behavior.
func ClassifyAsset(symbol string) AssetClass {
	sym := strings.ToUpper(strings.TrimSpace(symbol))

	if knownCryptoPairs[sym] {
		return AssetCrypto
	}
	if len(sym) >= 6 && strings.HasSuffix(sym, "USD") && isAlphanumeric(sym) {
		return AssetCrypto
	}
	return AssetEquity
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return s != ""
}

// DefaultTimeInForce returns the time-in-force applied when the alert does
// not specify one. Alpaca rejects "day" for crypto orders, so crypto pairs
// default to "gtc".
func (a AssetClass) DefaultTimeInForce() string {
	if a == AssetCrypto {
		return "gtc"
	}
	return "day"
}
