package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vantrack/internal/auth"
	"vantrack/internal/config"
	"vantrack/internal/middleware"
	"vantrack/internal/models"
)

type createChildInput struct {
	ParentID uint   `json:"parent_id" binding:"required"`
	DriverID uint   `json:"driver_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	School   string `json:"school"`
}

// CreateChild links a parent to a driver through a child record. Admin only;
// the link is what grants the parent read and subscribe access to the
// driver's trips.
func CreateChild(c *gin.Context) {
	var input createChildInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var parent models.Parent
	if err := config.DB.First(&parent, input.ParentID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent not found"})
		return
	}
	var driver models.Driver
	if err := config.DB.First(&driver, input.DriverID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driver not found"})
		return
	}

	child := models.Child{
		ParentID: input.ParentID,
		DriverID: input.DriverID,
		Name:     input.Name,
		School:   input.School,
	}
	if err := config.DB.Create(&child).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create child record"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"child": child})
}

// ListChildren returns the calling parent's children.
func ListChildren(c *gin.Context) {
	parentID, err := auth.ResolveParentID(config.DB, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no parent record for caller"})
		return
	}

	var children []models.Child
	if err := config.DB.Where("parent_id = ?", parentID).Find(&children).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": children})
}
