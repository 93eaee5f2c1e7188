package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ServiceCenterProfile is the role profile of a service_center account.
type ServiceCenterProfile struct {
	gorm.Model
	AccountID          uint   `json:"account_id" gorm:"uniqueIndex;not null"`
	BusinessName       string `json:"business_name" gorm:"not null"`
	RegistrationNumber string `json:"registration_number"`
	ContactEmail       string `json:"contact_email"`
	ContactPhone       string `json:"contact_phone"`
	Address            string `json:"address"`
	City               string `json:"city"`
	OpeningHours       string `json:"opening_hours"`
	LogoURL            string `json:"logo_url"`

	Specializations pq.StringArray `json:"specializations" gorm:"type:text[]"`

	// WKB point (SRID 4326); exposed as GeoJSON by the profile handlers.
	Location []byte `json:"-" gorm:"type:bytea"`
}
