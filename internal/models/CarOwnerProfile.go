package models

import "gorm.io/gorm"

// CarOwnerProfile is the role profile of a car_owner account.
type CarOwnerProfile struct {
	gorm.Model
	AccountID     uint   `json:"account_id" gorm:"uniqueIndex;not null"`
	FullName      string `json:"full_name"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	LicenseNumber string `json:"license_number"`
}
