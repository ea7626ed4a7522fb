package services

import (
	"errors"

	"backend/models"

	"gorm.io/gorm"
)

// UserDirectory is the user-management collaborator as seen from the
// scanner: a profile lookup by external user identifier.
type UserDirectory interface {
	FindByUserID(userID string) (*models.User, error)
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) FindByUserID(userID string) (*models.User, error) {
	var user models.User
	result := s.db.Where("user_id = ? AND disabled = ?", userID, false).First(&user)
	if result.Error != nil {
		return nil, errors.New("user not found or disabled")
	}
	return &user, nil
}

func (s *UserService) UpdateHealthProfile(userID, region string, profile models.HealthProfile) (*models.User, error) {
	user, err := s.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	if region != "" {
		user.Region = region
	}
	user.Health = profile
	user.Health.Allergies = models.NormalizeTags(profile.Allergies)
	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
