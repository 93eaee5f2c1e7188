package models

import (
	"gorm.io/gorm"
)

// Vehicle is a car registered by a car_owner account.
type Vehicle struct {
	gorm.Model
	OwnerID            uint   `json:"owner_id" gorm:"index;not null"`
	Make               string `json:"make"`
	ModelName          string `json:"model" gorm:"column:model"`
	Year               int    `json:"year"`
	RegistrationNumber string `json:"registration_number" gorm:"uniqueIndex"`
	VIN                string `json:"vin"`
	FuelType           string `json:"fuel_type"`
	Transmission       string `json:"transmission"`
	Color              string `json:"color"`
	Mileage            int    `json:"mileage"`
	ImageURL           string `json:"image_url"`
}
