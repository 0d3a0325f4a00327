package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradingbot_go/internal/domain"
)

// Storage persists the alert audit journal
type Storage struct {
	db *gorm.DB
}

var _ domain.AlertJournal = (*Storage)(nil)

// NewStorage creates a new SQLite storage instance at the given path
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.AlertRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Record appends a new audit entry for a received alert
func (s *Storage) Record(rec *domain.AlertRecord) error {
	if rec.Status == "" {
		rec.Status = domain.AlertStatusReceived
	}
	return s.db.Create(rec).Error
}

// MarkProcessed transitions an entry to processed with the brokerage order id
func (s *Storage) MarkProcessed(id uint, orderID string) error {
	return s.db.Model(&domain.AlertRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   domain.AlertStatusProcessed,
			"order_id": orderID,
		}).Error
}

// MarkFailed transitions an entry to failed with the rejection reason
func (s *Storage) MarkFailed(id uint, reason string) error {
	return s.db.Model(&domain.AlertRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": domain.AlertStatusFailed,
			"error":  reason,
		}).Error
}

// Recent returns the latest audit entries, newest first
func (s *Storage) Recent(limit int) ([]domain.AlertRecord, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var records []domain.AlertRecord
	err := s.db.Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}
