package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"autohub/internal/models"
	"autohub/internal/setup"
)

type stubReader map[uint]setup.Snapshot

func (s stubReader) Snapshot(_ context.Context, id uint) (setup.Snapshot, error) {
	snap, ok := s[id]
	if !ok {
		return setup.Snapshot{}, setup.ErrAccountNotFound
	}
	return snap, nil
}

func withAccount(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextAccountID, id)
		c.Next()
	}
}

func TestRequireSetupComplete(t *testing.T) {
	SetupReader = stubReader{
		1: {Role: models.RoleCarOwner, HasProfile: true, VehicleCount: 1},
		2: {Role: models.RoleServiceCenter, Phone: "+15550001111", HasProfile: true},
	}
	t.Cleanup(func() { SetupReader = nil })

	t.Run("complete account passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		protectedRouter(withAccount(1), RequireSetupComplete()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("missing payment is redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		protectedRouter(withAccount(2), RequireSetupComplete()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
		var body struct {
			RedirectTo string `json:"redirectTo"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.RedirectTo != setup.RoutePaymentSetup {
			t.Fatalf("expected redirect %s, got %q", setup.RoutePaymentSetup, body.RedirectTo)
		}
	})

	t.Run("unknown account", func(t *testing.T) {
		w := httptest.NewRecorder()
		protectedRouter(withAccount(99), RequireSetupComplete()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}
