package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"autohub/internal/config"
	"autohub/internal/models"
	"autohub/internal/validation"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// pagination reads ?limit= and ?offset=, clamping bad values to defaults.
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListAccounts lists accounts, optionally filtered by ?role=.
func ListAccounts(c *gin.Context) {
	limit, offset := pagination(c)
	query := config.DB.Model(&models.Account{})

	if role := c.Query("role"); role != "" {
		if role != models.RoleAdmin && !validation.IsValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrInvalidRole.Error()})
			return
		}
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		serverError(c, "Could not fetch accounts", err)
		return
	}

	var accounts []models.Account
	if err := query.Order("id").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		serverError(c, "Could not fetch accounts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accounts, "total": total, "limit": limit, "offset": offset})
}

// ListSubscriptions lists subscriptions, optionally filtered by ?status=.
func ListSubscriptions(c *gin.Context) {
	limit, offset := pagination(c)
	query := config.DB.Model(&models.Subscription{})

	if status := c.Query("status"); status != "" {
		switch status {
		case models.SubscriptionActive, models.SubscriptionCancelled, models.SubscriptionExpired:
			query = query.Where("status = ?", status)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of active, cancelled, expired"})
			return
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		serverError(c, "Could not fetch subscriptions", err)
		return
	}

	var subs []models.Subscription
	if err := query.Order("end_date").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		serverError(c, "Could not fetch subscriptions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subs, "total": total, "limit": limit, "offset": offset})
}
