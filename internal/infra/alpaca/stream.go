package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tradingbot_go/internal/domain"
	"tradingbot_go/internal/infra"
)

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// authRequest is the stream authentication message.
type authRequest struct {
	Action string `json:"action"`
	Data   struct {
		KeyID     string `json:"key_id"`
		SecretKey string `json:"secret_key"`
	} `json:"data"`
}

// listenRequest subscribes to stream channels after authentication.
type listenRequest struct {
	Action string `json:"action"`
	Data   struct {
		Streams []string `json:"streams"`
	} `json:"data"`
}

// streamMessage is the envelope for every inbound stream frame.
type streamMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tradeUpdate is the payload of a trade_updates frame.
type tradeUpdate struct {
	Event string `json:"event"` // new, fill, partial_fill, canceled, rejected
	Order struct {
		ID            string `json:"id"`
		ClientOrderID string `json:"client_order_id"`
		Symbol        string `json:"symbol"`
		Side          string `json:"side"`
		Status        string `json:"status"`
		FilledQty     string `json:"filled_qty"`
		FilledAvgPx   string `json:"filled_avg_price"`
	} `json:"order"`
}

// StreamWorker listens to Alpaca's trade-updates websocket and logs order
// lifecycle events for operator visibility. Purely observational: nothing in
// the dispatch path depends on it.
type StreamWorker struct {
	wsURL     string
	keyID     string
	secretKey string
	metrics   *infra.Metrics

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewStreamWorker creates a trade-updates stream worker.
func NewStreamWorker(cfg *infra.Config, metrics *infra.Metrics) *StreamWorker {
	return &StreamWorker{
		wsURL:     streamURL(cfg.Alpaca.BaseURL),
		keyID:     cfg.Alpaca.KeyID,
		secretKey: cfg.Alpaca.SecretKey,
		metrics:   metrics,
	}
}

// streamURL derives the websocket endpoint from the REST base URL.
func streamURL(baseURL string) string {
	ws := strings.Replace(baseURL, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimRight(ws, "/") + "/stream"
}

// Connect starts the connection loop in the background.
func (w *StreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

// Disconnect stops the worker and waits for the loop to exit.
func (w *StreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.conn != nil {
		w.conn.Close()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// IsConnected reports whether the stream is currently up.
func (w *StreamWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *StreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			if !domain.IsRetriable(err) {
				// Bad credentials never fix themselves; reconnecting would
				// spam the API. The worker stays down until restart.
				slog.Error("Trade-updates stream permanently down",
					slog.Any("error", err))
				return
			}
			slog.Warn("Trade-updates stream connection failed",
				slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			w.readLoop(ctx)
		}
	}
}

func (w *StreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return domain.NewNetworkError("connect", err)
	}

	auth := authRequest{Action: "authenticate"}
	auth.Data.KeyID = w.keyID
	auth.Data.SecretKey = w.secretKey
	if err := conn.WriteJSON(auth); err != nil {
		conn.Close()
		return domain.NewNetworkError("write", err)
	}

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	var reply streamMessage
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return domain.NewNetworkError("read", err)
	}
	var authReply struct {
		Status string `json:"status"`
	}
	if reply.Stream != "authorization" || json.Unmarshal(reply.Data, &authReply) != nil ||
		authReply.Status != "authorized" {
		conn.Close()
		return domain.NewFatalNetworkError("auth",
			fmt.Errorf("stream authorization rejected: %s", string(reply.Data)))
	}

	listen := listenRequest{Action: "listen"}
	listen.Data.Streams = []string{"trade_updates"}
	if err := conn.WriteJSON(listen); err != nil {
		conn.Close()
		return domain.NewNetworkError("write", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetStreamConnected(true)
	}

	slog.Info("Trade-updates stream connected", slog.String("url", w.wsURL))
	return nil
}

func (w *StreamWorker) readLoop(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		if w.conn != nil {
			w.conn.Close()
			w.conn = nil
		}
		w.connected = false
		w.mu.Unlock()
		if w.metrics != nil {
			w.metrics.SetStreamConnected(false)
		}
	}()

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go w.pingLoop(pingCtx)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.conn.SetReadDeadline(time.Now().Add(readTimeout))
		var msg streamMessage
		if err := w.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				slog.Warn("Trade-updates stream read failed", slog.Any("error", err))
			}
			return
		}

		if msg.Stream != "trade_updates" {
			continue
		}

		var update tradeUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			slog.Warn("Malformed trade update", slog.Any("error", err))
			continue
		}

		slog.Info("Trade update",
			slog.String("event", update.Event),
			slog.String("order_id", update.Order.ID),
			slog.String("symbol", update.Order.Symbol),
			slog.String("side", update.Order.Side),
			slog.String("status", update.Order.Status),
			slog.String("filled_qty", update.Order.FilledQty))
	}
}

func (w *StreamWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				return
			}
			w.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			w.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
