package services

import (
	"log"
	"time"

	"backend/models"

	"gorm.io/gorm"
)

// AlertBus persists danger verdicts and pushes them to the user's open
// websockets. Dependencies are explicit; alert delivery is best-effort and
// never fails a scan.
type AlertBus struct {
	db  *gorm.DB
	hub *RealtimeHub
}

func NewAlertBus(db *gorm.DB, hub *RealtimeHub) *AlertBus {
	return &AlertBus{db: db, hub: hub}
}

func (b *AlertBus) Emit(user *models.User, barcode, alertType, message string) {
	alert := &models.Alert{
		UserID:    user.ID,
		Type:      alertType,
		Barcode:   barcode,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := b.db.Create(alert).Error; err != nil {
		log.Printf("failed to persist alert for user %d: %v", user.ID, err)
		return
	}

	if b.hub != nil {
		b.hub.BroadcastScanAlert(user.ID, alert)
	}
}

func (b *AlertBus) Recent(userID uint, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	var alerts []models.Alert
	err := b.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&alerts).Error
	return alerts, err
}
