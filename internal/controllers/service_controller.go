package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

type serviceInput struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Price           float64 `json:"price" binding:"gte=0"`
	DurationMinutes int     `json:"duration_minutes" binding:"gte=0"`
	IsActive        *bool   `json:"is_active"`
}

func (in serviceInput) apply(s *models.Service) {
	s.Name = strings.TrimSpace(in.Name)
	s.Description = strings.TrimSpace(in.Description)
	s.Category = strings.TrimSpace(in.Category)
	s.Price = in.Price
	s.DurationMinutes = in.DurationMinutes
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

// CreateService adds an offering to the calling service center's catalog.
func CreateService(c *gin.Context) {
	var input serviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	service := models.Service{ServiceCenterID: middleware.AccountID(c), IsActive: true}
	input.apply(&service)

	if err := config.DB.Create(&service).Error; err != nil {
		serverError(c, "Failed to create service", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"service": service})
}

func GetMyServices(c *gin.Context) {
	var services []models.Service
	if err := config.DB.Where("service_center_id = ?", middleware.AccountID(c)).Order("name").Find(&services).Error; err != nil {
		serverError(c, "Error fetching services", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func GetService(c *gin.Context) {
	service, ok := ownedService(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": service})
}

func UpdateService(c *gin.Context) {
	service, ok := ownedService(c)
	if !ok {
		return
	}

	var input serviceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.apply(&service)

	if err := config.DB.Save(&service).Error; err != nil {
		serverError(c, "Failed to update service", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": service})
}

// DeleteService removes a service and unlinks it from any package.
func DeleteService(c *gin.Context) {
	service, ok := ownedService(c)
	if !ok {
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM package_services WHERE service_id = ?", service.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&service).Error
	})
	if err != nil {
		serverError(c, "Failed to delete service", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Service deleted"})
}

// ListCenterServices is the public view of a center's active services.
func ListCenterServices(c *gin.Context) {
	centerID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var services []models.Service
	err := config.DB.Where("service_center_id = ? AND is_active = ?", centerID, true).Order("name").Find(&services).Error
	if err != nil {
		serverError(c, "Error fetching services", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func ownedService(c *gin.Context) (models.Service, bool) {
	var service models.Service
	id, ok := parseID(c, "id")
	if !ok {
		return service, false
	}

	err := config.DB.Where("id = ? AND service_center_id = ?", id, middleware.AccountID(c)).First(&service).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service not found"})
			return service, false
		}
		serverError(c, "Error fetching service", err)
		return service, false
	}
	return service, true
}
