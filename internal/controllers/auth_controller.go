package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/nullable"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/mail"
	"autohub/internal/middleware"
	"autohub/internal/models"
	"autohub/internal/oauth"
	"autohub/internal/otp"
	"autohub/internal/setup"
	"autohub/internal/validation"
)

type registerInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Role     string `json:"role" binding:"omitempty,role"`
}

// Register creates a credential account. Role defaults to car_owner.
func Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := validation.NormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	phone := validation.NormalizePhone(input.Phone)
	account := models.Account{
		Name:         strings.TrimSpace(input.Name),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Password:     hashedPassword,
		Phone:        phone,
		Role:         role,
		AuthProvider: models.ProviderLocal,
		// Picking a role and giving a phone up front skips the completion step.
		IsRegistrationComplete: phone != "" && input.Role != "",
	}

	if err := config.DB.Create(&account).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		serverError(c, "could not create account", err)
		return
	}

	mail.DeliverAsync(account.Email, mail.Welcome, map[string]string{
		"name":          account.Name,
		"dashboard_url": config.Env.FrontendURL + setup.RouteProfileSetup,
	})

	respondWithSession(c, http.StatusCreated, account, nil)
}

// Login checks email and password and returns a session token with setup status.
func Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := config.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		} else {
			serverError(c, "database error", err)
		}
		return
	}

	if account.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "this account signs in with Google"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	respondWithSession(c, http.StatusOK, account, nil)
}

// GoogleLogin redirects to the Google consent page.
func GoogleLogin(c *gin.Context) {
	if oauth.Provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}
	authURL, err := oauth.Provider.AuthURL(c.Request.Context())
	if err != nil {
		serverError(c, "could not start Google sign-in", err)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// GoogleCallback finishes Google sign-in, creating or linking the account,
// and hands the session token to the frontend.
func GoogleCallback(c *gin.Context) {
	if oauth.Provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	profile, err := oauth.Provider.Exchange(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) || errors.Is(err, oauth.ErrNoEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logrus.WithError(err).Warn("google oauth exchange failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Google sign-in failed"})
		return
	}

	account, created, err := findOrCreateOAuthAccount(profile)
	if err != nil {
		serverError(c, "could not sign in with Google", err)
		return
	}
	if created {
		mail.DeliverAsync(account.Email, mail.Welcome, map[string]string{
			"name":          account.Name,
			"dashboard_url": config.Env.FrontendURL + setup.RouteProfileSetup,
		})
	}

	token, _, err := sessionFor(c, account)
	if err != nil {
		serverError(c, "could not create session", err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/oauth/callback?token=%s", config.Env.FrontendURL, url.QueryEscape(token)))
}

func findOrCreateOAuthAccount(p oauth.Profile) (models.Account, bool, error) {
	var account models.Account

	err := config.DB.Where("google_id = ?", p.ProviderID).First(&account).Error
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, false, err
	}

	// Link to an existing credential account with the same email.
	err = config.DB.Where("email = ?", p.Email).First(&account).Error
	if err == nil {
		updates := map[string]interface{}{"google_id": p.ProviderID}
		if account.AvatarURL == "" && p.PictureURL != "" {
			updates["avatar_url"] = p.PictureURL
		}
		if err := config.DB.Model(&account).Updates(updates).Error; err != nil {
			return account, false, err
		}
		return account, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return account, false, err
	}

	googleID := p.ProviderID
	account = models.Account{
		Name:         p.Name,
		Email:        p.Email,
		Role:         models.RoleCarOwner,
		AuthProvider: models.ProviderGoogle,
		GoogleID:     &googleID,
		AvatarURL:    p.PictureURL,
	}
	if err := config.DB.Create(&account).Error; err != nil {
		return account, false, err
	}
	return account, true, nil
}

type completeRegistrationInput struct {
	Phone string `json:"phone" binding:"required,phone"`
	Role  string `json:"role" binding:"required,role"`
}

// CompleteRegistration records phone and role for accounts that skipped them at
// sign-up (typically OAuth sign-ups).
func CompleteRegistration(c *gin.Context) {
	var input completeRegistrationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := validation.NormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := config.DB.First(&account, middleware.AccountID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}

	if role != account.Role {
		locked, err := roleLocked(account.ID)
		if err != nil {
			serverError(c, "database error", err)
			return
		}
		if locked {
			c.JSON(http.StatusConflict, gin.H{"error": "role cannot be changed after the profile is set up"})
			return
		}
	}

	account.Phone = validation.NormalizePhone(input.Phone)
	account.Role = role
	account.IsRegistrationComplete = true
	if err := config.DB.Model(&account).Select("phone", "role", "is_registration_complete").Updates(&account).Error; err != nil {
		serverError(c, "could not update account", err)
		return
	}

	respondWithSession(c, http.StatusOK, account, nil)
}

type updateAccountInput struct {
	Name  nullable.Nullable[string] `json:"name"`
	Phone nullable.Nullable[string] `json:"phone"`
}

// UpdateAccount patches name and phone. An explicit null phone clears it.
func UpdateAccount(c *gin.Context) {
	var input updateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := config.DB.First(&account, middleware.AccountID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}

	if input.Name.IsSpecified() {
		name, err := input.Name.Get()
		if err != nil || strings.TrimSpace(name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
			return
		}
		account.Name = strings.TrimSpace(name)
	}
	if input.Phone.IsSpecified() {
		if input.Phone.IsNull() {
			account.Phone = ""
		} else {
			phone := input.Phone.MustGet()
			if !validation.IsValidPhone(phone) {
				c.JSON(http.StatusBadRequest, gin.H{"error": validation.ErrInvalidPhone.Error()})
				return
			}
			account.Phone = validation.NormalizePhone(phone)
		}
	}

	if err := config.DB.Model(&account).Select("name", "phone").Updates(&account).Error; err != nil {
		serverError(c, "could not update account", err)
		return
	}

	respondWithSession(c, http.StatusOK, account, nil)
}

// Me returns the caller's account, role profile and setup status.
func Me(c *gin.Context) {
	// the token role may be stale, so every variant is loaded and the stored
	// role picks which one is returned
	var account models.Account
	err := config.DB.Preload("Subscription").
		Preload("CarOwner").Preload("Vehicles").
		Preload("ServiceCenter").Preload("PartSeller").
		First(&account, middleware.AccountID(c)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}

	st, err := setup.Check(c.Request.Context(), setup.NewGormReader(config.DB), account.ID)
	if err != nil {
		serverError(c, "could not check setup status", err)
		return
	}

	resp := prepareAccountResponse(account, st)
	switch {
	case account.Role == models.RoleCarOwner && account.CarOwner != nil:
		resp["profile"] = account.CarOwner
		resp["vehicles"] = account.Vehicles
	case account.Role == models.RoleServiceCenter && account.ServiceCenter != nil:
		resp["profile"] = toServiceCenterResponse(*account.ServiceCenter)
	case account.Role == models.RolePartSeller && account.PartSeller != nil:
		resp["profile"] = toPartSellerResponse(*account.PartSeller)
	}
	if account.Subscription != nil {
		resp["subscription"] = account.Subscription
	}

	c.JSON(http.StatusOK, gin.H{"account": resp, "setupStatus": st})
}

// GetSetupStatus returns the caller's setup verdict.
func GetSetupStatus(c *gin.Context) {
	st, err := setup.Check(c.Request.Context(), setup.NewGormReader(config.DB), middleware.AccountID(c))
	if err != nil {
		if errors.Is(err, setup.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "could not check setup status", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// RefreshToken re-signs the caller's token with current setup claims.
func RefreshToken(c *gin.Context) {
	var account models.Account
	if err := config.DB.First(&account, middleware.AccountID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}
	respondWithSession(c, http.StatusOK, account, nil)
}

func otpStore() *otp.Store {
	if config.Cache == nil {
		return nil
	}
	return otp.NewStore(config.Cache, config.Env.OTPTTL)
}

// ForgotPassword emails a reset code. It answers the same way whether or not
// the email belongs to an account.
func ForgotPassword(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store := otpStore()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password reset is unavailable"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	const msg = "If an account exists for this email, a reset code has been sent"

	var account models.Account
	if err := config.DB.Select("id", "name", "email").Where("email = ?", email).First(&account).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			serverError(c, "database error", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": msg})
		return
	}

	code, err := store.Issue(c.Request.Context(), email)
	if err != nil {
		serverError(c, "could not issue reset code", err)
		return
	}

	mail.DeliverAsync(email, mail.PasswordOTP, map[string]string{
		"name":    account.Name,
		"code":    code,
		"minutes": fmt.Sprint(int(store.TTL().Minutes())),
	})

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

type otpInput struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

// VerifyOTP checks a reset code without consuming it.
func VerifyOTP(c *gin.Context) {
	var input otpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store := otpStore()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password reset is unavailable"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := store.Verify(c.Request.Context(), email, input.OTP); err != nil {
		otpError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// ResetPassword consumes a reset code and sets a new password.
func ResetPassword(c *gin.Context) {
	var input struct {
		otpInput
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store := otpStore()
	if store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "password reset is unavailable"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := store.Consume(c.Request.Context(), email, input.OTP); err != nil {
		otpError(c, err)
		return
	}

	var account models.Account
	if err := config.DB.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}

	if err := setPassword(&account, input.NewPassword); err != nil {
		serverError(c, "could not update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

// ChangePassword updates the caller's password. Google-only accounts may set
// a first password without the current one.
func ChangePassword(c *gin.Context) {
	var input struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var account models.Account
	if err := config.DB.First(&account, middleware.AccountID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		serverError(c, "database error", err)
		return
	}

	if account.Password != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(input.CurrentPassword)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect current password"})
			return
		}
	}

	if err := setPassword(&account, input.NewPassword); err != nil {
		serverError(c, "could not update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func setPassword(account *models.Account, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := config.DB.Model(account).Update("password", hash).Error; err != nil {
		return err
	}
	mail.DeliverAsync(account.Email, mail.PasswordChanged, map[string]string{"name": account.Name})
	return nil
}

func otpError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, otp.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, otp.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		serverError(c, "could not verify reset code", err)
	}
}

func hashPassword(password string) (string, error) {
	if err := validation.ValidatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// roleLocked reports whether the account has anything tied to a role: any
// profile variant, a vehicle or a subscription row.
func roleLocked(accountID uint) (bool, error) {
	checks := []struct {
		model  interface{}
		column string
	}{
		{&models.CarOwnerProfile{}, "account_id"},
		{&models.ServiceCenterProfile{}, "account_id"},
		{&models.PartSellerProfile{}, "account_id"},
		{&models.Vehicle{}, "owner_id"},
		{&models.Subscription{}, "account_id"},
	}
	for _, chk := range checks {
		var n int64
		if err := config.DB.Model(chk.model).Where(chk.column+" = ?", accountID).Count(&n).Error; err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}
	return false, nil
}
