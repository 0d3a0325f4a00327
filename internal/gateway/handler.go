package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
)

// handleWebhook runs the full alert pipeline: authenticate, validate,
// classify, resolve the idempotency key, dispatch, respond. Broker failures
// still answer 200 with an error body so TradingView does not retry an order
// that may have partially succeeded.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()[:8]

	payload := domain.AlertPayload{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	// A missing or malformed body degrades to an empty payload; defaults and
	// validation decide its fate from here.
	_ = dec.Decode(&payload)

	s.metrics.RecordAlertReceived()

	maskedJSON, _ := json.Marshal(infra.MaskSecrets(payload))
	s.logger.Info("Alert received",
		slog.String("req_id", reqID),
		slog.String("source", sourceFromUA(r.Header.Get("User-Agent"))),
		slog.String("payload", string(maskedJSON)))

	if !Authorize(payload, r.URL.Query(), s.cfg.Webhook.Secret) {
		s.metrics.RecordUnauthorized()
		s.logger.Warn("Unauthorized webhook", slog.String("req_id", reqID))
		writeJSON(w, http.StatusUnauthorized, errorBody(domain.ErrUnauthorized.Error()))
		return
	}

	rec := &domain.AlertRecord{
		RequestID:  reqID,
		Symbol:     payload.Field("symbol"),
		Side:       payload.Field("side"),
		Qty:        payload.Field("qty"),
		RawPayload: string(maskedJSON),
	}
	s.journalRecord(reqID, rec)

	intent, err := domain.ParseIntent(payload, s.cfg.Webhook.DefaultSymbol)
	if err != nil {
		s.metrics.RecordRejectedInvalid()
		s.logger.Warn("Alert rejected",
			slog.String("req_id", reqID), slog.Any("error", err))
		s.journalMarkFailed(reqID, rec, err.Error())
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	intent.ClientOrderID = domain.ResolveClientOrderID(payload, intent, time.Now())

	outcome := s.dispatcher.Dispatch(r.Context(), intent)

	if !outcome.Succeeded {
		s.metrics.RecordBrokerError()
		s.journalMarkFailed(reqID, rec, outcome.ErrorMessage)
		// 200 on purpose: a 4xx/5xx here makes TradingView retry an order
		// that may have partially succeeded or is simply invalid.
		writeJSON(w, http.StatusOK, errorBody(outcome.ErrorMessage))
		return
	}

	if outcome.Action == "close" {
		s.metrics.RecordPositionClosed()
		s.journalMarkProcessed(reqID, rec, "")
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"action": "close",
			"symbol": outcome.Symbol,
		})
		return
	}

	s.metrics.RecordOrderSubmitted()
	s.journalMarkProcessed(reqID, rec, outcome.OrderID)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"order_id":  outcome.OrderID,
		"client_id": outcome.ClientOrderID,
	})
}

// journalRecord appends an audit entry. Best-effort: a journal failure is an
// operator problem, never a webhook failure.
func (s *Server) journalRecord(reqID string, rec *domain.AlertRecord) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(rec); err != nil {
		s.logger.Warn("Audit journal write failed",
			slog.String("req_id", reqID), slog.Any("error", err))
	}
}

func (s *Server) journalMarkProcessed(reqID string, rec *domain.AlertRecord, orderID string) {
	if s.journal == nil || rec.ID == 0 {
		return
	}
	if err := s.journal.MarkProcessed(rec.ID, orderID); err != nil {
		s.logger.Warn("Audit journal update failed",
			slog.String("req_id", reqID), slog.Any("error", err))
	}
}

func (s *Server) journalMarkFailed(reqID string, rec *domain.AlertRecord, reason string) {
	if s.journal == nil || rec.ID == 0 {
		return
	}
	if err := s.journal.MarkFailed(rec.ID, reason); err != nil {
		s.logger.Warn("Audit journal update failed",
			slog.String("req_id", reqID), slog.Any("error", err))
	}
}

// sourceFromUA tags the alert origin for logs.
func sourceFromUA(ua string) string {
	ua = strings.ToLower(ua)
	switch {
	case strings.Contains(ua, "tradingview"):
		return "TradingView"
	case strings.Contains(ua, "curl"):
		return "curl"
	default:
		return "unknown"
	}
}

func errorBody(message string) map[string]any {
	return map[string]any{"status": "error", "message": message}
}
