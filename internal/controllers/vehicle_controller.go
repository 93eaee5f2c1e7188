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
	"autohub/internal/validation"
)

type vehicleInput struct {
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	RegistrationNumber string `json:"registration_number"`
	VIN                string `json:"vin"`
	FuelType           string `json:"fuel_type"`
	Transmission       string `json:"transmission"`
	Color              string `json:"color"`
	Mileage            int    `json:"mileage" binding:"gte=0"`
}

func (in vehicleInput) validate() []string {
	return validation.ValidateVehicle(validation.VehicleFields{
		Make:               in.Make,
		Model:              in.Model,
		Year:               in.Year,
		RegistrationNumber: in.RegistrationNumber,
		FuelType:           in.FuelType,
	})
}

func (in vehicleInput) apply(v *models.Vehicle) {
	v.Make = strings.TrimSpace(in.Make)
	v.ModelName = strings.TrimSpace(in.Model)
	v.Year = in.Year
	v.RegistrationNumber = strings.ToUpper(strings.TrimSpace(in.RegistrationNumber))
	v.VIN = strings.ToUpper(strings.TrimSpace(in.VIN))
	v.FuelType = strings.ToLower(strings.TrimSpace(in.FuelType))
	v.Transmission = strings.TrimSpace(in.Transmission)
	v.Color = strings.TrimSpace(in.Color)
	v.Mileage = in.Mileage
}

// bindVehicle parses and validates a vehicle body, writing 400 on failure.
func bindVehicle(c *gin.Context) (vehicleInput, bool) {
	var input vehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input: " + err.Error()})
		return input, false
	}
	if problems := input.validate(); len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle input", "details": problems})
		return input, false
	}
	return input, true
}

// CreateVehicle registers a vehicle for the calling car owner.
func CreateVehicle(c *gin.Context) {
	input, ok := bindVehicle(c)
	if !ok {
		return
	}

	vehicle := models.Vehicle{OwnerID: middleware.AccountID(c)}
	input.apply(&vehicle)

	if err := config.DB.Create(&vehicle).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A vehicle with this registration number already exists"})
			return
		}
		serverError(c, "Failed to create vehicle", err)
		return
	}

	// the first vehicle can complete a car owner's setup
	c.JSON(http.StatusCreated, mergeH(gin.H{"vehicle": vehicle}, refreshedSession(c)))
}

func GetMyVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	if err := config.DB.Where("owner_id = ?", middleware.AccountID(c)).Order("created_at desc").Find(&vehicles).Error; err != nil {
		serverError(c, "Error fetching vehicles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}

func GetVehicle(c *gin.Context) {
	vehicle, ok := ownedVehicle(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

func UpdateVehicle(c *gin.Context) {
	vehicle, ok := ownedVehicle(c)
	if !ok {
		return
	}

	input, ok := bindVehicle(c)
	if !ok {
		return
	}
	input.apply(&vehicle)

	if err := config.DB.Save(&vehicle).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "A vehicle with this registration number already exists"})
			return
		}
		serverError(c, "Failed to update vehicle", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

func DeleteVehicle(c *gin.Context) {
	vehicle, ok := ownedVehicle(c)
	if !ok {
		return
	}

	// hard delete so the registration number can be reused
	if err := config.DB.Unscoped().Delete(&vehicle).Error; err != nil {
		serverError(c, "Failed to delete vehicle", err)
		return
	}

	c.JSON(http.StatusOK, mergeH(gin.H{"message": "Vehicle deleted"}, refreshedSession(c)))
}

// UploadVehicleImage stores a photo for one of the caller's vehicles.
func UploadVehicleImage(c *gin.Context) {
	vehicle, ok := ownedVehicle(c)
	if !ok {
		return
	}

	url, ok := uploadImage(c, "file", "vehicles", vehicle.OwnerID)
	if !ok {
		return
	}

	if err := config.DB.Model(&vehicle).Update("image_url", url).Error; err != nil {
		serverError(c, "Failed to save vehicle image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicle": vehicle})
}

// ownedVehicle loads :id scoped to the caller. Other owners' vehicles are 404.
func ownedVehicle(c *gin.Context) (models.Vehicle, bool) {
	var vehicle models.Vehicle
	id, ok := parseID(c, "id")
	if !ok {
		return vehicle, false
	}

	err := config.DB.Where("id = ? AND owner_id = ?", id, middleware.AccountID(c)).First(&vehicle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return vehicle, false
		}
		serverError(c, "Error fetching vehicle", err)
		return vehicle, false
	}
	return vehicle, true
}
