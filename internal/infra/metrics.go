package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	alertsReceived  atomic.Uint64
	unauthorized    atomic.Uint64
	rejectedInvalid atomic.Uint64
	ordersSubmitted atomic.Uint64
	positionsClosed atomic.Uint64
	brokerErrors    atomic.Uint64

	// Gauge: 1 = trade-updates stream connected
	streamConnected atomic.Int32
}

// RecordAlertReceived counts one inbound webhook request.
func (m *Metrics) RecordAlertReceived() {
	m.alertsReceived.Add(1)
}

// RecordUnauthorized counts an auth rejection.
func (m *Metrics) RecordUnauthorized() {
	m.unauthorized.Add(1)
}

// RecordRejectedInvalid counts a validation rejection.
func (m *Metrics) RecordRejectedInvalid() {
	m.rejectedInvalid.Add(1)
}

// RecordOrderSubmitted counts a successfully dispatched market order.
func (m *Metrics) RecordOrderSubmitted() {
	m.ordersSubmitted.Add(1)
}

// RecordPositionClosed counts a successful close-position dispatch.
func (m *Metrics) RecordPositionClosed() {
	m.positionsClosed.Add(1)
}

// RecordBrokerError counts a brokerage failure (still answered with 200).
func (m *Metrics) RecordBrokerError() {
	m.brokerErrors.Add(1)
}

// SetStreamConnected sets the trade-updates stream state.
func (m *Metrics) SetStreamConnected(connected bool) {
	if connected {
		m.streamConnected.Store(1)
	} else {
		m.streamConnected.Store(0)
	}
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	AlertsReceived  uint64    `json:"alerts_received"`
	Unauthorized    uint64    `json:"unauthorized"`
	RejectedInvalid uint64    `json:"rejected_invalid"`
	OrdersSubmitted uint64    `json:"orders_submitted"`
	PositionsClosed uint64    `json:"positions_closed"`
	BrokerErrors    uint64    `json:"broker_errors"`
	StreamConnected bool      `json:"stream_connected"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		AlertsReceived:  m.alertsReceived.Load(),
		Unauthorized:    m.unauthorized.Load(),
		RejectedInvalid: m.rejectedInvalid.Load(),
		OrdersSubmitted: m.ordersSubmitted.Load(),
		PositionsClosed: m.positionsClosed.Load(),
		BrokerErrors:    m.brokerErrors.Load(),
		StreamConnected: m.streamConnected.Load() == 1,
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.alertsReceived.Store(0)
	m.unauthorized.Store(0)
	m.rejectedInvalid.Store(0)
	m.ordersSubmitted.Store(0)
	m.positionsClosed.Store(0)
	m.brokerErrors.Store(0)
	m.streamConnected.Store(0)
}
