package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
)

// fakeBrokerage scripts brokerage behavior and records what the gateway sent.
type fakeBrokerage struct {
	submitCalls []domain.OrderRequest
	closeCalls  []string
	submitErr   error
	closeErr    error
}

func (f *fakeBrokerage) SubmitMarketOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderAck, error) {
	f.submitCalls = append(f.submitCalls, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &domain.OrderAck{OrderID: "ord-1", ClientOrderID: req.ClientOrderID, Status: "accepted"}, nil
}

func (f *fakeBrokerage) ClosePosition(_ context.Context, symbol string) error {
	f.closeCalls = append(f.closeCalls, symbol)
	return f.closeErr
}

func newTestServer(broker *fakeBrokerage, webhookSecret string) *Server {
	cfg := &infra.Config{}
	cfg.App.Name = "TradingBot"
	cfg.App.Version = "1.0.0"
	cfg.Webhook.Secret = webhookSecret
	cfg.Webhook.DefaultSymbol = "TSLA"
	cfg.Webhook.SelftestToken = "let_me_in"
	return NewServer(cfg, broker, nil, &infra.Metrics{})
}

func postWebhook(t *testing.T, srv *Server, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}
	return w, resp
}

func TestWebhook_EquityBuy(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp["status"] != "success" {
		t.Errorf("status field = %v, want success", resp["status"])
	}
	if resp["order_id"] != "ord-1" {
		t.Errorf("order_id = %v, want ord-1", resp["order_id"])
	}

	if len(broker.submitCalls) != 1 {
		t.Fatalf("submit calls = %d, want 1", len(broker.submitCalls))
	}
	got := broker.submitCalls[0]
	if got.Symbol != "SPY" {
		t.Errorf("Symbol = %q, want SPY", got.Symbol)
	}
	if got.Qty.String() != "1" {
		t.Errorf("Qty = %s, want 1", got.Qty)
	}
	if got.TimeInForce != "day" {
		t.Errorf("TimeInForce = %q, want day", got.TimeInForce)
	}
	if got.ClientOrderID == "" {
		t.Error("ClientOrderID must always be set")
	}
}

func TestWebhook_CryptoFractionalBuy(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"symbol":"BTCUSD","side":"buy","qty":0.5}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp["status"] != "success" {
		t.Errorf("status field = %v, want success", resp["status"])
	}

	got := broker.submitCalls[0]
	if got.Qty.String() != "0.5" {
		t.Errorf("Qty = %s, want 0.5", got.Qty)
	}
	if got.TimeInForce != "gtc" {
		t.Errorf("TimeInForce = %q, want gtc for crypto", got.TimeInForce)
	}
}

func TestWebhook_InvalidQty(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"sell","qty":-1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp["status"] != "error" {
		t.Errorf("status field = %v, want error", resp["status"])
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "qty") {
		t.Errorf("message %q should mention qty", msg)
	}
	if len(broker.submitCalls) != 0 {
		t.Error("invalid alert must never reach the brokerage")
	}
}

func TestWebhook_Close(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"side":"close","symbol":"TSLA"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if resp["action"] != "close" {
		t.Errorf("action = %v, want close", resp["action"])
	}
	if resp["symbol"] != "TSLA" {
		t.Errorf("symbol = %v, want TSLA", resp["symbol"])
	}
	if len(broker.closeCalls) != 1 || broker.closeCalls[0] != "TSLA" {
		t.Errorf("close calls = %v, want [TSLA]", broker.closeCalls)
	}
	if len(broker.submitCalls) != 0 {
		t.Error("close must not submit an order")
	}
}

func TestWebhook_Unauthorized(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "abc123")

	w, resp := postWebhook(t, srv, "/webhook?key=wrong", `{"symbol":"SPY","side":"buy","qty":1}`)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if resp["message"] != domain.ErrUnauthorized.Error() {
		t.Errorf("message = %v, want %q", resp["message"], domain.ErrUnauthorized)
	}
	if len(broker.submitCalls) != 0 {
		t.Error("unauthorized alert must never reach the brokerage")
	}

	t.Run("correct key passes", func(t *testing.T) {
		w, resp := postWebhook(t, srv, "/webhook?key=abc123", `{"symbol":"SPY","side":"buy","qty":1}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if resp["status"] != "success" {
			t.Errorf("status field = %v, want success", resp["status"])
		}
	})

	t.Run("payload credential passes", func(t *testing.T) {
		w, _ := postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1,"key":"abc123"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
	})
}

func TestWebhook_BrokerErrorAnswers200(t *testing.T) {
	broker := &fakeBrokerage{submitErr: errors.New("insufficient buying power")}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1}`)

	// 200 by design: a 5xx would make TradingView retry the order.
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 on broker error", w.Code)
	}
	if resp["status"] != "error" {
		t.Errorf("status field = %v, want error", resp["status"])
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "insufficient buying power") {
		t.Errorf("message %q should carry the broker text", msg)
	}
}

func TestWebhook_InvalidSide(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, resp := postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"short","qty":1}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "side") {
		t.Errorf("message %q should mention side", msg)
	}
}

func TestWebhook_EmptyBodyUsesDefaults(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	w, _ := postWebhook(t, srv, "/webhook", ``)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	got := broker.submitCalls[0]
	if got.Symbol != "TSLA" {
		t.Errorf("Symbol = %q, want configured default TSLA", got.Symbol)
	}
	if got.Side != domain.SideBuy {
		t.Errorf("Side = %q, want buy", got.Side)
	}
	if got.Qty.String() != "1" {
		t.Errorf("Qty = %s, want 1", got.Qty)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(&fakeBrokerage{}, "abc123")

	t.Run("healthz needs no credential", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("ping needs no credential", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["service"] != "TradingBot" {
			t.Errorf("service = %v, want TradingBot", resp["service"])
		}
	})

	t.Run("root health lists endpoints", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}

func TestSelftest(t *testing.T) {
	t.Run("bad token forbidden", func(t *testing.T) {
		broker := &fakeBrokerage{}
		srv := newTestServer(broker, "")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/selftest?token=nope", nil))
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
		if len(broker.submitCalls) != 0 {
			t.Error("forbidden selftest must not submit an order")
		}
	})

	t.Run("valid token submits probe order", func(t *testing.T) {
		broker := &fakeBrokerage{}
		srv := newTestServer(broker, "")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/selftest?token=let_me_in", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if len(broker.submitCalls) != 1 {
			t.Fatalf("submit calls = %d, want 1", len(broker.submitCalls))
		}
		got := broker.submitCalls[0]
		if got.Symbol != "AAPL" || got.Qty.String() != "1" || got.Side != domain.SideBuy {
			t.Errorf("probe order = %+v, want 1 share AAPL buy", got)
		}
	})

	t.Run("broker failure answers 500", func(t *testing.T) {
		broker := &fakeBrokerage{submitErr: errors.New("account blocked")}
		srv := newTestServer(broker, "")
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("POST", "/selftest?token=let_me_in", nil))
		if w.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", w.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	broker := &fakeBrokerage{}
	srv := newTestServer(broker, "")

	postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1}`)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metricsz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var snap infra.MetricsSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("metrics response is not JSON: %v", err)
	}
	if snap.AlertsReceived != 1 {
		t.Errorf("AlertsReceived = %d, want 1", snap.AlertsReceived)
	}
	if snap.OrdersSubmitted != 1 {
		t.Errorf("OrdersSubmitted = %d, want 1", snap.OrdersSubmitted)
	}
}
