package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"autohub/internal/config"
	"autohub/internal/models"
	"autohub/internal/setup"
)

// Context keys set by RequireAuth.
const (
	ContextAccountID = "account_id"
	ContextRole      = "role"
)

// Claims is the session token payload. The setup flags are a snapshot taken
// when the token was issued; clients refresh the token after each setup step.
type Claims struct {
	AccountID              uint   `json:"account_id"`
	Role                   string `json:"role"`
	IsRegistrationComplete bool   `json:"isRegistrationComplete"`
	IsSetupComplete        bool   `json:"isSetupComplete"`
	HasActiveSubscription  bool   `json:"hasActiveSubscription"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	if config.Env.JWTSecret != "" {
		return []byte(config.Env.JWTSecret)
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		return []byte(val)
	}
	return []byte("supersecret") // fallback
}

func tokenTTL() time.Duration {
	if config.Env.TokenTTL > 0 {
		return config.Env.TokenTTL
	}
	return 72 * time.Hour
}

// GenerateToken signs a session token carrying the account's setup status.
func GenerateToken(accountID uint, role string, status setup.Status) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID:              accountID,
		Role:                   role,
		IsRegistrationComplete: status.RegistrationComplete,
		IsSetupComplete:        status.SetupComplete,
		HasActiveSubscription:  status.HasActiveSubscription,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL())),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ValidateToken parses and verifies a session token.
func ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.AccountID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// RequireAuth ensures a valid JWT is present
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}

		claims, err := ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextAccountID, claims.AccountID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RoleLookup resolves an account's current role. When nil the application
// database is used.
var RoleLookup func(ctx context.Context, accountID uint) (string, error)

func currentRole(ctx context.Context, accountID uint) (string, error) {
	if RoleLookup != nil {
		return RoleLookup(ctx, accountID)
	}
	if config.DB == nil {
		return "", errors.New("database not configured")
	}
	var account models.Account
	err := config.DB.WithContext(ctx).Select("id", "role").First(&account, accountID).Error
	return account.Role, err
}

// RequireRole lets the request through only for one of roles. Must run after
// RequireAuth. The role is read from the database because complete-registration
// can change it after the token was issued; the context role is overwritten so
// handlers see the current one.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := currentRole(c.Request.Context(), AccountID(c))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
				return
			}
			logrus.WithError(err).WithField("account_id", AccountID(c)).Error("role lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not check permissions"})
			return
		}
		if role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account has no role yet"})
			return
		}
		c.Set(ContextRole, role)

		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

// RequireAuthWithRole ensures the JWT is valid and the account has one of roles
func RequireAuthWithRole(roles ...string) gin.HandlerFunc {
	auth := RequireAuth()
	check := RequireRole(roles...)
	return func(c *gin.Context) {
		auth(c)
		if c.IsAborted() {
			return
		}
		check(c)
	}
}

// AccountID returns the authenticated account id, or 0 outside RequireAuth.
func AccountID(c *gin.Context) uint {
	if v, ok := c.Get(ContextAccountID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// Role returns the authenticated account role.
func Role(c *gin.Context) string {
	return c.GetString(ContextRole)
}
