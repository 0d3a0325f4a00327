package domain

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AlertPayload is the raw JSON body sent by the alerting platform. Arbitrary
// and missing fields are expected; extraction is tolerant of types.
type AlertPayload map[string]any

// Field returns the trimmed string form of a payload value, or "" when the
// key is absent or has an unusable type. Numbers keep their textual form so
// that "0.5" survives exactly as sent (bodies are decoded with UseNumber).
func (p AlertPayload) Field(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// ParseIntent validates an alert payload into a normalized OrderIntent.
// Steps run in order and short-circuit on the first failure:
//
//  1. symbol defaults to defaultSymbol, then trim + uppercase
//  2. side defaults to "buy"; must be buy/sell/close
//  3. time_in_force defaults by asset class (crypto "gtc", equity "day")
//  4. qty parsed unless side is close: equities need a positive integer,
//     crypto accepts any positive real
//
// The returned intent has no ClientOrderID yet; see ResolveClientOrderID.
func ParseIntent(p AlertPayload, defaultSymbol string) (*OrderIntent, error) {
	symbol := p.Field("symbol")
	if symbol == "" {
		symbol = defaultSymbol
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	side := strings.ToLower(p.Field("side"))
	if side == "" {
		side = string(SideBuy)
	}
	switch Side(side) {
	case SideBuy, SideSell, SideClose:
	default:
		return nil, NewValidationError("side", "side must be buy/sell/close")
	}

	asset := ClassifyAsset(symbol)

	tif := strings.ToLower(p.Field("time_in_force"))
	if tif == "" {
		tif = asset.DefaultTimeInForce()
	}

	rawQty := p.Field("qty")
	if rawQty == "" {
		rawQty = "1"
	}

	intent := &OrderIntent{
		Symbol:      symbol,
		Side:        Side(side),
		RawQty:      rawQty,
		TimeInForce: tif,
		Asset:       asset,
	}

	// Close liquidates the whole position; qty is ignored, not parsed.
	if intent.Side == SideClose {
		return intent, nil
	}

	qty, err := decimal.NewFromString(rawQty)
	if err != nil {
		if asset == AssetEquity {
			return nil, NewValidationError("qty", "qty must be integer")
		}
		return nil, NewValidationError("qty", "qty must be a number")
	}
	if asset == AssetEquity && !qty.IsInteger() {
		return nil, NewValidationError("qty", "qty must be integer")
	}
	if !qty.IsPositive() {
		return nil, NewValidationError("qty", "qty must be > 0")
	}

	intent.Qty = qty
	return intent, nil
}
