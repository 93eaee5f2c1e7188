package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PartSellerProfile is the role profile of a part_seller account.
type PartSellerProfile struct {
	gorm.Model
	AccountID    uint           `json:"account_id" gorm:"uniqueIndex;not null"`
	ShopName     string         `json:"shop_name" gorm:"not null"`
	TaxID        string         `json:"tax_id"`
	ContactEmail string         `json:"contact_email"`
	ContactPhone string         `json:"contact_phone"`
	Address      string         `json:"address"`
	City         string         `json:"city"`
	LogoURL      string         `json:"logo_url"`
	Categories   pq.StringArray `json:"categories" gorm:"type:text[]"`
	Location     []byte         `json:"-" gorm:"type:bytea"`
}
