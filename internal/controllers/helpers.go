package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/middleware"
	"autohub/internal/models"
	"autohub/internal/setup"
	"autohub/internal/storage"
)

// isUniqueViolation reports whether err is a unique constraint failure, either
// translated by the dialector or a raw Postgres 23505.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return 0, false
	}
	return uint(id), true
}

// serverError logs err and writes a generic 500.
func serverError(c *gin.Context, msg string, err error) {
	logrus.WithError(err).WithFields(logrus.Fields{
		"account_id": middleware.AccountID(c),
		"path":       c.FullPath(),
	}).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// sessionFor computes the account's setup status and signs a matching token.
func sessionFor(c *gin.Context, account models.Account) (string, setup.Status, error) {
	st, err := setup.Check(c.Request.Context(), setup.NewGormReader(config.DB), account.ID)
	if err != nil {
		return "", setup.Status{}, err
	}
	token, err := middleware.GenerateToken(account.ID, account.Role, st)
	if err != nil {
		return "", setup.Status{}, err
	}
	return token, st, nil
}

// respondWithSession writes the account, a fresh token and its setup status.
func respondWithSession(c *gin.Context, status int, account models.Account, extra gin.H) {
	token, st, err := sessionFor(c, account)
	if err != nil {
		serverError(c, "Could not create session", err)
		return
	}

	body := gin.H{
		"token":       token,
		"account":     prepareAccountResponse(account, st),
		"setupStatus": st,
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// refreshedSession returns token and status for the caller after a setup step.
// Errors are logged and yield an empty map so the primary response still goes out.
func refreshedSession(c *gin.Context) gin.H {
	var account models.Account
	if err := config.DB.Select("id", "role").First(&account, middleware.AccountID(c)).Error; err != nil {
		logrus.WithError(err).Warn("could not reload account for token refresh")
		return gin.H{}
	}
	token, st, err := sessionFor(c, account)
	if err != nil {
		logrus.WithError(err).Warn("could not refresh session token")
		return gin.H{}
	}
	return gin.H{"token": token, "setupStatus": st}
}

func prepareAccountResponse(account models.Account, st setup.Status) gin.H {
	return gin.H{
		"id":                     account.ID,
		"created_at":             account.CreatedAt,
		"updated_at":             account.UpdatedAt,
		"name":                   account.Name,
		"email":                  account.Email,
		"phone":                  account.Phone,
		"role":                   account.Role,
		"auth_provider":          account.AuthProvider,
		"avatar_url":             account.AvatarURL,
		"isRegistrationComplete": account.IsRegistrationComplete,
		"isSetupComplete":        st.SetupComplete,
		"hasActiveSubscription":  st.HasActiveSubscription,
	}
}

// mergeH copies b's entries into a.
func mergeH(a, b gin.H) gin.H {
	for k, v := range b {
		a[k] = v
	}
	return a
}

// uploadImage reads a multipart image from field and stores it under prefix/ownerID.
func uploadImage(c *gin.Context, field, prefix string, ownerID uint) (string, bool) {
	if storage.Uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": storage.ErrDisabled.Error()})
		return "", false
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxUploadBytes+1<<10)
	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required in field '" + field + "'"})
		return "", false
	}
	if fh.Size > storage.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image must be 5MB or smaller"})
		return "", false
	}

	contentType := fh.Header.Get("Content-Type")
	ext, ok := storage.ImageExtension(contentType)
	if !ok {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Only JPEG, PNG and WebP images are accepted"})
		return "", false
	}

	f, err := fh.Open()
	if err != nil {
		serverError(c, "Could not read upload", err)
		return "", false
	}
	defer f.Close()

	url, err := storage.Uploads.Upload(c.Request.Context(), storage.ObjectKey(prefix, ownerID, ext), contentType, f)
	if err != nil {
		serverError(c, "Could not store image", err)
		return "", false
	}
	return url, true
}
