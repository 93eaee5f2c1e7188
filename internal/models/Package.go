package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Package bundles several services of one center at a single price.
type Package struct {
	gorm.Model
	ServiceCenterID uint           `json:"service_center_id" gorm:"index;not null"`
	Name            string         `json:"name" gorm:"not null"`
	Description     string         `json:"description"`
	Price           float64        `json:"price"`
	ValidityDays    int            `json:"validity_days"`
	Features        pq.StringArray `json:"features" gorm:"type:text[]"`
	IsActive        bool           `json:"is_active" gorm:"not null"`

	Services []Service `gorm:"many2many:package_services;" json:"services,omitempty"`
}
