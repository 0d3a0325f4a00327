package domain

import "context"

// Brokerage abstracts the two trading capabilities the gateway dispatches to.
// Narrow on purpose: the dispatch decision logic is tested against a fake
// implementation, never the network.
type Brokerage interface {
	// SubmitMarketOrder places a market order and returns the brokerage ack.
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)

	// ClosePosition liquidates the entire open position for a symbol.
	ClosePosition(ctx context.Context, symbol string) error
}

// AlertJournal records received alerts and their disposition for operator
// forensics. Implementations must be safe for concurrent use. Journal
// failures are logged by callers, never surfaced to the webhook sender.
type AlertJournal interface {
	Record(rec *AlertRecord) error
	MarkProcessed(id uint, orderID string) error
	MarkFailed(id uint, reason string) error
	Recent(limit int) ([]AlertRecord, error)
}
