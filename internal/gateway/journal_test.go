package gateway

import (
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
	"tradingbot_go/internal/infra/storage"
)

func newJournaledServer(t *testing.T, broker *fakeBrokerage) (*Server, domain.AlertJournal) {
	t.Helper()
	store, err := storage.NewStorage(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewStorage returned error: %v", err)
	}

	cfg := &infra.Config{}
	cfg.App.Name = "TradingBot"
	cfg.Webhook.DefaultSymbol = "TSLA"
	cfg.Webhook.SelftestToken = "let_me_in"
	return NewServer(cfg, broker, store, &infra.Metrics{}), store
}

func TestWebhook_JournalsDisposition(t *testing.T) {
	t.Run("processed order", func(t *testing.T) {
		srv, journal := newJournaledServer(t, &fakeBrokerage{})

		postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1,"key":"hunter2"}`)

		records, err := journal.Recent(10)
		if err != nil {
			t.Fatalf("Recent returned error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		rec := records[0]
		if rec.Status != domain.AlertStatusProcessed {
			t.Errorf("Status = %q, want processed", rec.Status)
		}
		if rec.OrderID != "ord-1" {
			t.Errorf("OrderID = %q, want ord-1", rec.OrderID)
		}
		if rec.Symbol != "SPY" || rec.Side != "buy" || rec.Qty != "1" {
			t.Errorf("record fields = %q/%q/%q", rec.Symbol, rec.Side, rec.Qty)
		}
		// Secrets never reach the journal.
		if strings.Contains(rec.RawPayload, "hunter2") {
			t.Errorf("RawPayload leaked a credential: %s", rec.RawPayload)
		}
		if !strings.Contains(rec.RawPayload, `"key":"***"`) {
			t.Errorf("RawPayload should carry the masked field: %s", rec.RawPayload)
		}
	})

	t.Run("failed validation", func(t *testing.T) {
		srv, journal := newJournaledServer(t, &fakeBrokerage{})

		postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":-1}`)

		records, _ := journal.Recent(10)
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].Status != domain.AlertStatusFailed {
			t.Errorf("Status = %q, want failed", records[0].Status)
		}
		if !strings.Contains(records[0].Error, "qty") {
			t.Errorf("Error = %q, should mention qty", records[0].Error)
		}
	})

	t.Run("alerts endpoint serves the journal", func(t *testing.T) {
		srv, _ := newJournaledServer(t, &fakeBrokerage{})
		postWebhook(t, srv, "/webhook", `{"symbol":"SPY","side":"buy","qty":1}`)

		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/alerts?token=let_me_in", nil))
		if w.Code != 200 {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !strings.Contains(w.Body.String(), "SPY") {
			t.Errorf("alerts body should list the record: %s", w.Body.String())
		}

		w = httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/alerts?token=wrong", nil))
		if w.Code != 403 {
			t.Errorf("status = %d, want 403 for bad token", w.Code)
		}
	})
}
