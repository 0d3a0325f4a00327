package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the normalized order direction from the alert.
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideClose Side = "close"
)

// OrderIntent is the validated, normalized form of an alert. Created once per
// request, immutable after ResolveClientOrderID, never persisted.
type OrderIntent struct {
	Symbol        string
	Side          Side
	Qty           decimal.Decimal // zero when Side is close
	RawQty        string          // qty exactly as supplied ("1" when absent)
	TimeInForce   string
	Asset         AssetClass
	ClientOrderID string
}

// ResolveClientOrderID picks the idempotency key for the brokerage. A caller
// supplied client_id wins; otherwise a fallback key is synthesized from the
// order fields and the wall clock truncated to whole seconds.
//
// The fallback is knowingly weak: two identical alerts inside the same second
// produce the same key, so dedupe of sub-second retries rests entirely on the
// brokerage treating client_order_id as unique. Kept as-is.
func ResolveClientOrderID(p AlertPayload, intent *OrderIntent, now time.Time) string {
	if id := p.Field("client_id"); id != "" {
		return id
	}
	return fmt.Sprintf("%s-%s-%s-%s",
		intent.Symbol, intent.Side, intent.RawQty, now.UTC().Format("20060102150405"))
}

// OrderRequest is the shape handed to the brokerage capability for buy/sell.
type OrderRequest struct {
	Symbol        string
	Qty           decimal.Decimal
	Side          Side
	TimeInForce   string
	ClientOrderID string
}

// OrderAck is the brokerage's acknowledgement of a submitted order.
type OrderAck struct {
	OrderID       string
	ClientOrderID string
	Status        string
}
