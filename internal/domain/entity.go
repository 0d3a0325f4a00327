package domain

import "time"

// Alert record status values
const (
	AlertStatusReceived  = "received"
	AlertStatusProcessed = "processed"
	AlertStatusFailed    = "failed"
)

// AlertRecord is the persisted audit entry for one received alert. RawPayload
// is stored with secret-shaped fields already masked. The record carries no
// position or fill state.
type AlertRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  string    `gorm:"index" json:"request_id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        string    `json:"qty"`
	RawPayload string    `gorm:"type:text" json:"raw_payload"`
	Status     string    `gorm:"index;default:'received'" json:"status"` // received, processed, failed
	OrderID    string    `json:"order_id"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
