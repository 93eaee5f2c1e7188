package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Subscription plans with their monthly price.
var Plans = map[string]float64{
	"basic":   499,
	"premium": 1499,
}

// Subscription is the paid plan of a service_center or part_seller account.
type Subscription struct {
	gorm.Model
	AccountID   uint       `json:"account_id" gorm:"uniqueIndex;not null"`
	Plan        string     `json:"plan" gorm:"size:32;not null"`
	Status      string     `json:"status" gorm:"size:16;not null;index"`
	Amount      float64    `json:"amount"`
	PaymentRef  string     `json:"payment_ref"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date" gorm:"index"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}
