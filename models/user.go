package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	UserID      string `gorm:"type:varchar(128);uniqueIndex;not null"`
	Email       string `gorm:"uniqueIndex"`
	DisplayName string
	Region      string        `gorm:"size:8"`
	Health      HealthProfile `gorm:"embedded;embeddedPrefix:health_"`
	Disabled    bool
}

// HealthProfile returns the user's profile, or nil when they never set one
// up. Safety analysis treats a missing profile differently from an empty
// one, so the distinction matters.
func (u *User) HealthProfile() *HealthProfile {
	if !u.Health.Diabetic && u.Health.DailyCarbLimit == 0 && len(u.Health.Allergies) == 0 {
		return nil
	}
	return &u.Health
}

// HealthProfile is what the safety analyzer consumes. Read-only from the
// scanner's point of view.
type HealthProfile struct {
	Diabetic       bool     `json:"diabetic"`
	DailyCarbLimit float64  `json:"dailyCarbLimit"`
	Allergies      []string `gorm:"serializer:json" json:"allergies"`
}
