package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/oapi-codegen/nullable"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/geo"
	"autohub/internal/middleware"
	"autohub/internal/models"
	"autohub/internal/storage"
	"autohub/internal/validation"
)

// serviceCenterResponse exposes the stored WKB location as GeoJSON.
type serviceCenterResponse struct {
	models.ServiceCenterProfile
	Location json.RawMessage `json:"location,omitempty"`
}

type partSellerResponse struct {
	models.PartSellerProfile
	Location json.RawMessage `json:"location,omitempty"`
}

func toServiceCenterResponse(p models.ServiceCenterProfile) serviceCenterResponse {
	loc, _ := geo.WKBToGeoJSON(p.Location)
	return serviceCenterResponse{ServiceCenterProfile: p, Location: loc}
}

func toPartSellerResponse(p models.PartSellerProfile) partSellerResponse {
	loc, _ := geo.WKBToGeoJSON(p.Location)
	return partSellerResponse{PartSellerProfile: p, Location: loc}
}

type carOwnerInput struct {
	FullName      string `json:"full_name" binding:"required"`
	Address       string `json:"address"`
	City          string `json:"city"`
	PostalCode    string `json:"postal_code"`
	LicenseNumber string `json:"license_number"`
}

type serviceCenterInput struct {
	BusinessName       string          `json:"business_name" binding:"required"`
	RegistrationNumber string          `json:"registration_number"`
	ContactEmail       string          `json:"contact_email" binding:"omitempty,email"`
	ContactPhone       string          `json:"contact_phone" binding:"omitempty,phone"`
	Address            string          `json:"address" binding:"required"`
	City               string          `json:"city" binding:"required"`
	OpeningHours       string          `json:"opening_hours"`
	Specializations    []string        `json:"specializations"`
	Location           json.RawMessage `json:"location"`
}

type partSellerInput struct {
	ShopName     string          `json:"shop_name" binding:"required"`
	TaxID        string          `json:"tax_id"`
	ContactEmail string          `json:"contact_email" binding:"omitempty,email"`
	ContactPhone string          `json:"contact_phone" binding:"omitempty,phone"`
	Address      string          `json:"address" binding:"required"`
	City         string          `json:"city" binding:"required"`
	Categories   []string        `json:"categories"`
	Location     json.RawMessage `json:"location"`
}

// CreateProfile creates the role profile matching the caller's role.
func CreateProfile(c *gin.Context) {
	accountID := middleware.AccountID(c)

	var (
		profile interface{}
		resp    interface{}
	)

	switch middleware.Role(c) {
	case models.RoleCarOwner:
		var input carOwnerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p := &models.CarOwnerProfile{
			AccountID:     accountID,
			FullName:      strings.TrimSpace(input.FullName),
			Address:       input.Address,
			City:          input.City,
			PostalCode:    input.PostalCode,
			LicenseNumber: input.LicenseNumber,
		}
		profile, resp = p, p

	case models.RoleServiceCenter:
		var input serviceCenterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		location, err := geo.PointToWKB(input.Location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrInvalidLocation.Error()})
			return
		}
		p := &models.ServiceCenterProfile{
			AccountID:          accountID,
			BusinessName:       strings.TrimSpace(input.BusinessName),
			RegistrationNumber: input.RegistrationNumber,
			ContactEmail:       input.ContactEmail,
			ContactPhone:       validation.NormalizePhone(input.ContactPhone),
			Address:            input.Address,
			City:               input.City,
			OpeningHours:       input.OpeningHours,
			Specializations:    pq.StringArray(input.Specializations),
			Location:           location,
		}
		profile = p

	case models.RolePartSeller:
		var input partSellerInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		location, err := geo.PointToWKB(input.Location)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrInvalidLocation.Error()})
			return
		}
		p := &models.PartSellerProfile{
			AccountID:    accountID,
			ShopName:     strings.TrimSpace(input.ShopName),
			TaxID:        input.TaxID,
			ContactEmail: input.ContactEmail,
			ContactPhone: validation.NormalizePhone(input.ContactPhone),
			Address:      input.Address,
			City:         input.City,
			Categories:   pq.StringArray(input.Categories),
			Location:     location,
		}
		profile = p

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "This role has no profile"})
		return
	}

	if err := config.DB.Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
			return
		}
		serverError(c, "Could not create profile", err)
		return
	}

	switch p := profile.(type) {
	case *models.ServiceCenterProfile:
		resp = toServiceCenterResponse(*p)
	case *models.PartSellerProfile:
		resp = toPartSellerResponse(*p)
	}

	c.JSON(http.StatusCreated, mergeH(gin.H{"profile": resp}, refreshedSession(c)))
}

// GetProfile returns the caller's role profile.
func GetProfile(c *gin.Context) {
	accountID := middleware.AccountID(c)

	var (
		err  error
		resp interface{}
	)
	switch middleware.Role(c) {
	case models.RoleCarOwner:
		var p models.CarOwnerProfile
		err = config.DB.Where("account_id = ?", accountID).First(&p).Error
		resp = p
	case models.RoleServiceCenter:
		var p models.ServiceCenterProfile
		err = config.DB.Where("account_id = ?", accountID).First(&p).Error
		resp = toServiceCenterResponse(p)
	case models.RolePartSeller:
		var p models.PartSellerProfile
		err = config.DB.Where("account_id = ?", accountID).First(&p).Error
		resp = toPartSellerResponse(p)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "This role has no profile"})
		return
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		serverError(c, "Could not load profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": resp})
}

// Nullable inputs for PATCH /profile: absent leaves a field alone, null clears it.
type updateProfileInput struct {
	FullName           nullable.Nullable[string]          `json:"full_name"`
	BusinessName       nullable.Nullable[string]          `json:"business_name"`
	ShopName           nullable.Nullable[string]          `json:"shop_name"`
	RegistrationNumber nullable.Nullable[string]          `json:"registration_number"`
	TaxID              nullable.Nullable[string]          `json:"tax_id"`
	ContactEmail       nullable.Nullable[string]          `json:"contact_email"`
	ContactPhone       nullable.Nullable[string]          `json:"contact_phone"`
	Address            nullable.Nullable[string]          `json:"address"`
	City               nullable.Nullable[string]          `json:"city"`
	PostalCode         nullable.Nullable[string]          `json:"postal_code"`
	LicenseNumber      nullable.Nullable[string]          `json:"license_number"`
	OpeningHours       nullable.Nullable[string]          `json:"opening_hours"`
	Specializations    nullable.Nullable[[]string]        `json:"specializations"`
	Categories         nullable.Nullable[[]string]        `json:"categories"`
	Location           nullable.Nullable[json.RawMessage] `json:"location"`
}

// UpdateProfile patches the caller's role profile.
func UpdateProfile(c *gin.Context) {
	var input updateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateContact(input.ContactEmail, input.ContactPhone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID := middleware.AccountID(c)
	var (
		profile interface{}
		resp    func() interface{}
	)

	switch middleware.Role(c) {
	case models.RoleCarOwner:
		var p models.CarOwnerProfile
		if !loadProfile(c, &p, accountID) {
			return
		}
		if !applyRequired(c, &p.FullName, input.FullName, "full_name") {
			return
		}
		applyString(&p.Address, input.Address)
		applyString(&p.City, input.City)
		applyString(&p.PostalCode, input.PostalCode)
		applyString(&p.LicenseNumber, input.LicenseNumber)
		profile = &p
		resp = func() interface{} { return p }

	case models.RoleServiceCenter:
		var p models.ServiceCenterProfile
		if !loadProfile(c, &p, accountID) {
			return
		}
		if !applyRequired(c, &p.BusinessName, input.BusinessName, "business_name") {
			return
		}
		applyString(&p.RegistrationNumber, input.RegistrationNumber)
		applyString(&p.ContactEmail, input.ContactEmail)
		applyPhone(&p.ContactPhone, input.ContactPhone)
		applyString(&p.Address, input.Address)
		applyString(&p.City, input.City)
		applyString(&p.OpeningHours, input.OpeningHours)
		applyList(&p.Specializations, input.Specializations)
		if !applyLocation(c, &p.Location, input.Location) {
			return
		}
		profile = &p
		resp = func() interface{} { return toServiceCenterResponse(p) }

	case models.RolePartSeller:
		var p models.PartSellerProfile
		if !loadProfile(c, &p, accountID) {
			return
		}
		if !applyRequired(c, &p.ShopName, input.ShopName, "shop_name") {
			return
		}
		applyString(&p.TaxID, input.TaxID)
		applyString(&p.ContactEmail, input.ContactEmail)
		applyPhone(&p.ContactPhone, input.ContactPhone)
		applyString(&p.Address, input.Address)
		applyString(&p.City, input.City)
		applyList(&p.Categories, input.Categories)
		if !applyLocation(c, &p.Location, input.Location) {
			return
		}
		profile = &p
		resp = func() interface{} { return toPartSellerResponse(p) }

	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "This role has no profile"})
		return
	}

	if err := config.DB.Save(profile).Error; err != nil {
		serverError(c, "Could not update profile", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": resp()})
}

// UploadAvatar stores a car owner's avatar or a business profile's logo.
// Business profiles must exist before anything is written to the bucket.
func UploadAvatar(c *gin.Context) {
	if storage.Uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storage.ErrDisabled.Error()})
		return
	}
	accountID := middleware.AccountID(c)

	column := "logo_url"
	target := func() *gorm.DB {
		switch middleware.Role(c) {
		case models.RoleServiceCenter:
			return config.DB.Model(&models.ServiceCenterProfile{}).Where("account_id = ?", accountID)
		case models.RolePartSeller:
			return config.DB.Model(&models.PartSellerProfile{}).Where("account_id = ?", accountID)
		}
		column = "avatar_url"
		return config.DB.Model(&models.Account{}).Where("id = ?", accountID)
	}

	var n int64
	if err := target().Count(&n).Error; err != nil {
		serverError(c, "Could not load profile", err)
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Create your profile before uploading a logo"})
		return
	}

	url, ok := uploadImage(c, "file", "avatars", accountID)
	if !ok {
		return
	}

	if err := target().Update(column, url).Error; err != nil {
		serverError(c, "Could not save image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func loadProfile(c *gin.Context, dst interface{}, accountID uint) bool {
	if err := config.DB.Where("account_id = ?", accountID).First(dst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return false
		}
		serverError(c, "Could not load profile", err)
		return false
	}
	return true
}

func validateContact(email, phone nullable.Nullable[string]) error {
	if v, err := email.Get(); err == nil && v != "" && !validation.IsValidEmail(v) {
		return validation.ErrInvalidEmail
	}
	if v, err := phone.Get(); err == nil && v != "" && !validation.IsValidPhone(v) {
		return validation.ErrInvalidPhone
	}
	return nil
}

func applyString(dst *string, v nullable.Nullable[string]) {
	if !v.IsSpecified() {
		return
	}
	if v.IsNull() {
		*dst = ""
		return
	}
	*dst = strings.TrimSpace(v.MustGet())
}

func applyPhone(dst *string, v nullable.Nullable[string]) {
	applyString(dst, v)
	*dst = validation.NormalizePhone(*dst)
}

// applyRequired is applyString for fields that may not be cleared.
func applyRequired(c *gin.Context, dst *string, v nullable.Nullable[string], field string) bool {
	if !v.IsSpecified() {
		return true
	}
	if v.IsNull() || strings.TrimSpace(v.MustGet()) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " cannot be empty"})
		return false
	}
	*dst = strings.TrimSpace(v.MustGet())
	return true
}

func applyList(dst *pq.StringArray, v nullable.Nullable[[]string]) {
	if !v.IsSpecified() {
		return
	}
	if v.IsNull() {
		*dst = nil
		return
	}
	*dst = pq.StringArray(v.MustGet())
}

func applyLocation(c *gin.Context, dst *[]byte, v nullable.Nullable[json.RawMessage]) bool {
	if !v.IsSpecified() {
		return true
	}
	if v.IsNull() {
		*dst = nil
		return true
	}
	b, err := geo.PointToWKB(v.MustGet())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrInvalidLocation.Error()})
		return false
	}
	*dst = b
	return true
}
