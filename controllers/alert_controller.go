package controllers

import (
	"net/http"
	"strconv"

	"backend/services"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	alerts *services.AlertBus
	users  *services.UserService
}

func NewAlertController(alerts *services.AlertBus, users *services.UserService) *AlertController {
	return &AlertController{alerts: alerts, users: users}
}

// GET /user/alerts?limit=20
func (ac *AlertController) List(c *gin.Context) {
	user, err := ac.users.FindByUserID(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	alerts, err := ac.alerts.Recent(user.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
