package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"autohub/internal/models"
	"autohub/internal/setup"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"account_id": AccountID(c),
			"role":       Role(c),
		})
	})
	return router
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	router := protectedRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireAuth_InvalidFormat(t *testing.T) {
	router := protectedRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	router := protectedRouter(RequireAuth())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid_token_xyz")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	token, err := GenerateToken(42, models.RoleServiceCenter, setup.Status{})
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	router := protectedRouter(RequireAuth())
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body struct {
		AccountID uint   `json:"account_id"`
		Role      string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccountID != 42 || body.Role != models.RoleServiceCenter {
		t.Fatalf("unexpected context values %+v", body)
	}
}

func TestGenerateTokenCarriesSetupClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")

	st := setup.Compute(setup.Snapshot{Role: models.RolePartSeller, Phone: "+15550001111", HasProfile: true, SubscriptionStatus: models.SubscriptionActive})
	token, err := GenerateToken(9, models.RolePartSeller, st)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !claims.IsRegistrationComplete || !claims.IsSetupComplete || !claims.HasActiveSubscription {
		t.Fatalf("expected all setup claims true, got %+v", claims)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected expiry claim")
	}
}

func stubRoles(t *testing.T, roles map[uint]string) {
	t.Helper()
	RoleLookup = func(_ context.Context, id uint) (string, error) {
		role, ok := roles[id]
		if !ok {
			return "", gorm.ErrRecordNotFound
		}
		return role, nil
	}
	t.Cleanup(func() { RoleLookup = nil })
}

func TestRequireAuthWithRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	stubRoles(t, map[uint]string{1: models.RoleCarOwner})

	token, err := GenerateToken(1, models.RoleCarOwner, setup.Status{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	cases := []struct {
		roles []string
		want  int
	}{
		{[]string{models.RoleServiceCenter}, http.StatusForbidden},
		{[]string{models.RoleServiceCenter, models.RoleCarOwner}, http.StatusOK},
	}
	for _, tc := range cases {
		router := protectedRouter(RequireAuthWithRole(tc.roles...))
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Errorf("roles %v: expected %d, got %d", tc.roles, tc.want, w.Code)
		}
	}
}

func TestRequireRoleUsesCurrentRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	// account 1 switched to service_center after its token was issued
	stubRoles(t, map[uint]string{1: models.RoleServiceCenter})

	token, err := GenerateToken(1, models.RoleCarOwner, setup.Status{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(RequireAuthWithRole(models.RoleCarOwner)).ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("stale car_owner token: expected 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	protectedRouter(RequireAuthWithRole(models.RoleServiceCenter)).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Role != models.RoleServiceCenter {
		t.Fatalf("expected context role from the database, got %q", body.Role)
	}
}

func TestRequireRoleDeletedAccount(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-only")
	stubRoles(t, map[uint]string{})

	token, err := GenerateToken(7, models.RoleCarOwner, setup.Status{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	protectedRouter(RequireAuthWithRole(models.RoleCarOwner)).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
