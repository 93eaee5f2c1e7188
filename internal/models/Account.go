package models

import "gorm.io/gorm"

// Account roles. car_owner is the platform default for new sign-ups.
const (
	RoleCarOwner      = "car_owner"
	RoleServiceCenter = "service_center"
	RolePartSeller    = "part_seller"
	RoleAdmin         = "admin"
)

// Auth providers an account can be created through.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type Account struct {
	gorm.Model
	Name         string  `json:"name"`
	Email        string  `json:"email" gorm:"uniqueIndex;not null"`
	Password     string  `json:"-"` // empty for OAuth-only accounts
	Phone        string  `json:"phone"`
	Role         string  `json:"role" gorm:"size:32;not null;default:car_owner;index"`
	AuthProvider string  `json:"auth_provider" gorm:"size:32;not null;default:local"`
	GoogleID     *string `json:"-" gorm:"uniqueIndex"`
	AvatarURL    string  `json:"avatar_url"`

	IsRegistrationComplete bool `json:"isRegistrationComplete" gorm:"not null;default:false"`

	// Role profile variants; at most the one matching Role is present.
	CarOwner      *CarOwnerProfile      `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"car_owner,omitempty"`
	ServiceCenter *ServiceCenterProfile `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"service_center,omitempty"`
	PartSeller    *PartSellerProfile    `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"part_seller,omitempty"`

	Vehicles     []Vehicle     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE;" json:"vehicles,omitempty"`
	Subscription *Subscription `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE;" json:"subscription,omitempty"`
}

// IsBusiness reports whether the role pays a subscription.
func IsBusiness(role string) bool {
	return role == RoleServiceCenter || role == RolePartSeller
}
