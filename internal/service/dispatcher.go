package service

import (
	"context"
	"log/slog"

	"tradingbot_go/internal/domain"
)

// DispatchOutcome is the result of one brokerage capability call. Consumed by
// the HTTP layer to build the response; never persisted.
type DispatchOutcome struct {
	Succeeded     bool
	Action        string // "order" or "close"
	OrderID       string // brokerage-assigned, empty for close
	ClientOrderID string
	Symbol        string
	ErrorMessage  string // brokerage error text, verbatim
}

// Dispatcher maps a validated intent to exactly one brokerage capability
// call. It performs no retries: a broker failure becomes a caller-visible
// outcome, and retry policy stays with the sending platform.
type Dispatcher struct {
	broker domain.Brokerage
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher over a brokerage capability.
func NewDispatcher(broker domain.Brokerage) *Dispatcher {
	return &Dispatcher{
		broker: broker,
		logger: slog.Default().With("module", "dispatcher"),
	}
}

// Dispatch executes the intent. Close liquidates the whole position; buy and
// sell submit a market order carrying the idempotency key.
func (d *Dispatcher) Dispatch(ctx context.Context, intent *domain.OrderIntent) DispatchOutcome {
	if intent.Side == domain.SideClose {
		if err := d.broker.ClosePosition(ctx, intent.Symbol); err != nil {
			berr := &domain.BrokerError{Op: "close_position", Err: err}
			d.logger.Error("Close position failed",
				slog.String("symbol", intent.Symbol), slog.Any("error", berr))
			return DispatchOutcome{
				Action:       "close",
				Symbol:       intent.Symbol,
				ErrorMessage: err.Error(),
			}
		}
		d.logger.Info("Position closed", slog.String("symbol", intent.Symbol))
		return DispatchOutcome{
			Succeeded: true,
			Action:    "close",
			Symbol:    intent.Symbol,
		}
	}

	ack, err := d.broker.SubmitMarketOrder(ctx, domain.OrderRequest{
		Symbol:        intent.Symbol,
		Qty:           intent.Qty,
		Side:          intent.Side,
		TimeInForce:   intent.TimeInForce,
		ClientOrderID: intent.ClientOrderID,
	})
	if err != nil {
		berr := &domain.BrokerError{Op: "submit_order", Err: err}
		d.logger.Error("Order submission failed",
			slog.String("symbol", intent.Symbol),
			slog.String("side", string(intent.Side)),
			slog.Any("error", berr))
		return DispatchOutcome{
			Action:       "order",
			Symbol:       intent.Symbol,
			ErrorMessage: err.Error(),
		}
	}

	d.logger.Info("Order submitted",
		slog.String("order_id", ack.OrderID),
		slog.String("symbol", intent.Symbol),
		slog.String("side", string(intent.Side)),
		slog.String("qty", intent.Qty.String()),
		slog.String("tif", intent.TimeInForce))

	return DispatchOutcome{
		Succeeded:     true,
		Action:        "order",
		OrderID:       ack.OrderID,
		ClientOrderID: intent.ClientOrderID,
		Symbol:        intent.Symbol,
	}
}
