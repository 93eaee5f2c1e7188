package models

import "gorm.io/gorm"

// Service is a single offering in a service center's catalog.
type Service struct {
	gorm.Model
	ServiceCenterID uint    `json:"service_center_id" gorm:"index;not null"` // account id of the owning center
	Name            string  `json:"name" gorm:"not null"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	IsActive        bool    `json:"is_active" gorm:"not null"`
}
