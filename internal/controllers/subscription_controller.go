package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/mail"
	"autohub/internal/middleware"
	"autohub/internal/models"
)

type subscribeInput struct {
	Plan       string `json:"plan" binding:"required,oneof=basic premium"`
	Months     int    `json:"months" binding:"omitempty,min=1,max=12"`
	PaymentRef string `json:"payment_ref"`
}

// GetSubscription returns the caller's subscription, or null when none exists.
func GetSubscription(c *gin.Context) {
	var sub models.Subscription
	err := config.DB.Where("account_id = ?", middleware.AccountID(c)).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"subscription": nil, "plans": models.Plans})
		return
	}
	if err != nil {
		serverError(c, "Error fetching subscription", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub, "plans": models.Plans})
}

// Subscribe records a paid plan and activates it for the given number of months.
// An account keeps one subscription row; a cancelled or expired one is reused.
func Subscribe(c *gin.Context) {
	var input subscribeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Months == 0 {
		input.Months = 1
	}
	paymentRef := strings.TrimSpace(input.PaymentRef)
	if paymentRef == "" {
		paymentRef = "PAY-" + strings.ToUpper(uuid.NewString()[:8])
	}

	accountID := middleware.AccountID(c)
	var sub models.Subscription
	err := config.DB.Where("account_id = ?", accountID).First(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.Subscription{AccountID: accountID}
	case err != nil:
		serverError(c, "Error fetching subscription", err)
		return
	case sub.Status == models.SubscriptionActive:
		c.JSON(http.StatusConflict, gin.H{"error": "Subscription is already active", "subscription": sub})
		return
	}

	now := time.Now().UTC()
	sub.Plan = input.Plan
	sub.Status = models.SubscriptionActive
	sub.Amount = models.Plans[input.Plan] * float64(input.Months)
	sub.PaymentRef = paymentRef
	sub.StartDate = now
	sub.EndDate = now.AddDate(0, input.Months, 0)
	sub.CancelledAt = nil

	if err := config.DB.Save(&sub).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Subscription is already active"})
			return
		}
		serverError(c, "Failed to activate subscription", err)
		return
	}

	notifySubscription(accountID, mail.SubscriptionActivated, sub)
	c.JSON(http.StatusCreated, mergeH(gin.H{"subscription": sub}, refreshedSession(c)))
}

// CancelSubscription ends the caller's active subscription immediately.
func CancelSubscription(c *gin.Context) {
	accountID := middleware.AccountID(c)

	var sub models.Subscription
	err := config.DB.Where("account_id = ? AND status = ?", accountID, models.SubscriptionActive).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active subscription"})
			return
		}
		serverError(c, "Error fetching subscription", err)
		return
	}

	now := time.Now().UTC()
	sub.Status = models.SubscriptionCancelled
	sub.CancelledAt = &now
	if err := config.DB.Model(&sub).Select("status", "cancelled_at").Updates(&sub).Error; err != nil {
		serverError(c, "Failed to cancel subscription", err)
		return
	}

	notifySubscription(accountID, mail.SubscriptionCancelled, sub)
	c.JSON(http.StatusOK, mergeH(gin.H{"subscription": sub}, refreshedSession(c)))
}

func notifySubscription(accountID uint, tmpl string, sub models.Subscription) {
	var account models.Account
	if err := config.DB.Select("id", "name", "email").First(&account, accountID).Error; err != nil {
		return
	}
	mail.DeliverAsync(account.Email, tmpl, map[string]string{
		"name":        account.Name,
		"plan":        sub.Plan,
		"end_date":    sub.EndDate.Format("2 Jan 2006"),
		"payment_ref": sub.PaymentRef,
		"amount":      fmt.Sprintf("%.2f", sub.Amount),
	})
}
