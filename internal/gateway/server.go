package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
	"tradingbot_go/internal/service"
)

var decimalOne = decimal.NewFromInt(1)

// Server is the webhook HTTP surface. All shared fields are read-only after
// construction; every request is handled independently.
type Server struct {
	cfg        *infra.Config
	dispatcher *service.Dispatcher
	broker     domain.Brokerage
	journal    domain.AlertJournal
	metrics    *infra.Metrics
	logger     *slog.Logger
}

// NewServer wires the gateway over a brokerage capability. journal may be nil
// (audit disabled); metrics must not be nil.
func NewServer(cfg *infra.Config, broker domain.Brokerage, journal domain.AlertJournal, metrics *infra.Metrics) *Server {
	return &Server{
		cfg:        cfg,
		dispatcher: service.NewDispatcher(broker),
		broker:     broker,
		journal:    journal,
		metrics:    metrics,
		logger:     slog.Default().With("module", "gateway"),
	}
}

// Handler returns the route table. /healthz and /ping stay reachable without
// any credential; /selftest and /alerts are gated by the selftest token, not
// the webhook secret.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ping", s.handlePing)
	mux.HandleFunc("POST /selftest", s.handleSelftest)
	mux.HandleFunc("GET /alerts", s.handleAlerts)
	mux.HandleFunc("GET /metricsz", s.handleMetrics)
	return mux
}

// Start runs the HTTP server until ctx is cancelled, then shuts down with the
// configured grace period.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Server.Addr,
		Handler:     s.Handler(),
		ReadTimeout: time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
	}

	go func() {
		<-ctx.Done()
		grace := time.Duration(s.cfg.Server.ShutdownGraceSec) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			s.logger.Warn("Server shutdown failed", slog.Any("error", err))
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", slog.Any("error", err))
		}
	}()

	s.logger.Info("✅ Webhook server started", slog.String("addr", s.cfg.Server.Addr))
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"service":   s.cfg.App.Name,
		"endpoints": []string{"/webhook", "/ping"},
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": s.cfg.App.Name,
		"version": s.cfg.App.Version,
		"message": "Bot is alive and responding 🚀",
	})
}

// handleSelftest submits a known-safe probe order (1 share AAPL, day) so an
// operator can verify the Alpaca link end to end. Unlike /webhook, a broker
// failure here answers 500: the caller is an operator, not TradingView.
func (s *Server) handleSelftest(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.cfg.Webhook.SelftestToken {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "forbidden"})
		return
	}

	ack, err := s.broker.SubmitMarketOrder(r.Context(), domain.OrderRequest{
		Symbol:      "AAPL",
		Qty:         decimalOne,
		Side:        domain.SideBuy,
		TimeInForce: "day",
	})
	if err != nil {
		s.logger.Error("Selftest order failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	s.logger.Info("Selftest order placed", slog.String("order_id", ack.OrderID))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "order_id": ack.OrderID})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != s.cfg.Webhook.SelftestToken {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "forbidden"})
		return
	}
	if s.journal == nil {
		writeJSON(w, http.StatusOK, []domain.AlertRecord{})
		return
	}

	limit := 200
	if qs := r.URL.Query().Get("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil && v > 0 {
			if v > 1000 {
				v = 1000
			}
			limit = v
		}
	}

	records, err := s.journal.Recent(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", slog.Any("error", err))
	}
}
