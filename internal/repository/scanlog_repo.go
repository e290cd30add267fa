package repository

import (
	"time"

	"stagepass/internal/models"

	"gorm.io/gorm"
)

// ScanLogRepository is append-only: create and read, never update or delete.
type ScanLogRepository struct {
	db *gorm.DB
}

func NewScanLogRepository(db *gorm.DB) *ScanLogRepository {
	return &ScanLogRepository{db: db}
}

func (r *ScanLogRepository) Create(l *models.ScanLog) error {
	return r.db.Create(l).Error
}

func (r *ScanLogRepository) ListByTicket(ticketID uint) ([]models.ScanLog, error) {
	var logs []models.ScanLog
	err := r.db.Where("ticket_id = ?", ticketID).
		Order("id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *ScanLogRepository) CountSince(result string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.ScanLog{}).
		Where("result = ? AND created_at >= ?", result, since).
		Count(&count).Error
	return count, err
}
