package models

import "time"

// Alert is a persisted scan warning, written when a scan produces a danger
// verdict and replayed via GET /user/alerts.
type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"-"`
	Type      string    `gorm:"size:20" json:"type"` // "danger" | "warning"
	Barcode   string    `gorm:"size:64" json:"barcode"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
