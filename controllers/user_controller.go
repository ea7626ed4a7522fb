package controllers

import (
	"net/http"

	"backend/models"
	"backend/services"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

// GET /user/health-profile
func (uc *UserController) GetHealthProfile(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := uc.users.FindByUserID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":        user.UserID,
		"region":        user.Region,
		"healthProfile": user.HealthProfile(),
	})
}

type healthProfileInput struct {
	Region         string   `json:"region"`
	Diabetic       bool     `json:"diabetic"`
	DailyCarbLimit float64  `json:"dailyCarbLimit"`
	Allergies      []string `json:"allergies"`
}

// PUT /user/health-profile
func (uc *UserController) UpdateHealthProfile(c *gin.Context) {
	userID := c.GetString("userID")

	var input healthProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := uc.users.UpdateHealthProfile(userID, input.Region, models.HealthProfile{
		Diabetic:       input.Diabetic,
		DailyCarbLimit: input.DailyCarbLimit,
		Allergies:      input.Allergies,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "health profile updated successfully",
		"region":        user.Region,
		"healthProfile": user.HealthProfile(),
	})
}
