package routes

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"autohub/internal/config"
	"autohub/internal/dbtest"
	"autohub/internal/mail"
	"autohub/internal/models"
	"autohub/internal/storage"
)

func countRows(t *testing.T, model interface{}, column string, id uint) int64 {
	t.Helper()
	var n int64
	if err := config.DB.Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestStaleTokenFollowsCurrentRole(t *testing.T) {
	db := dbtest.Open(t)
	account, oldToken := seeded(t, db, "switch@example.com", models.RoleCarOwner)
	r := SetupRouter()

	w := do(r, http.MethodPost, "/auth/complete-registration", oldToken, map[string]string{
		"phone": "+15550003333", "role": models.RoleServiceCenter,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("role change before setup: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// the car_owner token is still valid but must not act as a car owner
	if w := do(r, http.MethodPost, "/vehicles", oldToken, map[string]interface{}{
		"make": "Toyota", "model": "Corolla", "year": 2018, "registration_number": "KDA 123A", "fuel_type": "petrol",
	}); w.Code != http.StatusForbidden {
		t.Fatalf("vehicle with stale token: expected 403, got %d", w.Code)
	}

	w = do(r, http.MethodPost, "/profile", oldToken, map[string]interface{}{
		"business_name": "Quick Fix", "address": "Moi Avenue", "city": "Nairobi",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("profile with stale token: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if n := countRows(t, &models.CarOwnerProfile{}, "account_id", account.ID); n != 0 {
		t.Fatalf("expected no car owner profile, got %d", n)
	}
	if n := countRows(t, &models.ServiceCenterProfile{}, "account_id", account.ID); n != 1 {
		t.Fatalf("expected one service center profile, got %d", n)
	}

	w = do(r, http.MethodPost, "/auth/complete-registration", oldToken, map[string]string{
		"phone": "+15550003333", "role": models.RoleCarOwner,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("role change after setup: expected 409, got %d", w.Code)
	}
}

func TestRoleLockedByVehicleOrSubscription(t *testing.T) {
	db := dbtest.Open(t)
	r := SetupRouter()

	owner, ownerToken := seeded(t, db, "owner@example.com", models.RoleCarOwner)
	if err := db.Create(&models.Vehicle{OwnerID: owner.ID, Make: "Toyota", ModelName: "Corolla", Year: 2018, RegistrationNumber: "KDA 123A"}).Error; err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	seller, sellerToken := seeded(t, db, "seller@example.com", models.RolePartSeller)
	now := time.Now().UTC()
	if err := db.Create(&models.Subscription{
		AccountID: seller.ID, Plan: "basic", Status: models.SubscriptionCancelled,
		StartDate: now.AddDate(0, -1, 0), EndDate: now, CancelledAt: &now,
	}).Error; err != nil {
		t.Fatalf("seed subscription: %v", err)
	}

	cases := []struct {
		name, token, role string
	}{
		{"vehicle", ownerToken, models.RoleServiceCenter},
		{"subscription", sellerToken, models.RoleServiceCenter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/auth/complete-registration", tc.token, map[string]string{
				"phone": "+15550003333", "role": tc.role,
			})
			if w.Code != http.StatusConflict {
				t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	db := dbtest.Open(t)
	seller, token := seeded(t, db, "seller@example.com", models.RolePartSeller)
	r := SetupRouter()

	if w := do(r, http.MethodPost, "/subscription", token, map[string]interface{}{"plan": "basic"}); w.Code != http.StatusCreated {
		t.Fatalf("subscribe: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first models.Subscription
	if err := db.Where("account_id = ?", seller.ID).First(&first).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}

	if w := do(r, http.MethodPost, "/subscription", token, map[string]interface{}{"plan": "premium"}); w.Code != http.StatusConflict {
		t.Fatalf("subscribe while active: expected 409, got %d", w.Code)
	}

	if w := do(r, http.MethodPost, "/subscription/cancel", token, nil); w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if w := do(r, http.MethodPost, "/subscription", token, map[string]interface{}{"plan": "premium", "months": 3}); w.Code != http.StatusCreated {
		t.Fatalf("resubscribe: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var subs []models.Subscription
	if err := db.Where("account_id = ?", seller.ID).Find(&subs).Error; err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != first.ID {
		t.Fatalf("expected the cancelled row to be reused, got %+v", subs)
	}
	if subs[0].Plan != "premium" || subs[0].Status != models.SubscriptionActive || subs[0].CancelledAt != nil {
		t.Fatalf("unexpected reactivated row %+v", subs[0])
	}
	if subs[0].Amount != models.Plans["premium"]*3 {
		t.Fatalf("expected amount for three months, got %v", subs[0].Amount)
	}
}

type chanSender chan mail.Message

func (s chanSender) Send(_ context.Context, msg mail.Message) error {
	s <- msg
	return nil
}

func TestForgotPasswordAnswersTheSameForUnknownEmail(t *testing.T) {
	db := dbtest.Open(t)
	dbtest.Account(t, db, "known@example.com", models.RoleCarOwner)

	mr := miniredis.RunT(t)
	config.Cache = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { config.Cache = nil }()

	sent := make(chanSender, 1)
	mail.Use(sent)
	defer mail.Use(mail.LogSender{})

	r := SetupRouter()

	unknown := do(r, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	known := do(r, http.MethodPost, "/auth/forgot-password", "", map[string]string{"email": "Known@Example.com"})

	if unknown.Code != http.StatusOK || known.Code != http.StatusOK {
		t.Fatalf("expected 200 for both, got %d and %d", unknown.Code, known.Code)
	}
	if decode(t, unknown)["message"] != decode(t, known)["message"] {
		t.Fatalf("responses differ: %s vs %s", unknown.Body.String(), known.Body.String())
	}
	if mr.Exists("otp:reset:nobody@example.com") {
		t.Fatalf("no code should be issued for an unknown email")
	}
	if !mr.Exists("otp:reset:known@example.com") {
		t.Fatalf("expected a code for the known account")
	}

	select {
	case msg := <-sent:
		if msg.To != "known@example.com" || msg.Template != mail.PasswordOTP {
			t.Fatalf("unexpected email %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("reset email was not sent")
	}
}

func TestHealthHidesDriverErrors(t *testing.T) {
	db := dbtest.Open(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	_ = sqlDB.Close()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	config.Cache = redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer func() { config.Cache = nil }()
	mr.Close()

	w := do(SetupRouter(), http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	body := decode(t, w)
	if body["postgres"] != "down" || body["redis"] != "down" {
		t.Fatalf("expected both backends down, got %v", body)
	}
	if raw := w.Body.String(); strings.Contains(raw, "sql:") || strings.Contains(raw, "dial") {
		t.Fatalf("driver error leaked: %s", raw)
	}
}

func logoUpload(t *testing.T, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="logo.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("\x89PNG\r\n\x1a\nlogo"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/profile/logo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLogoUploadNeedsProfileFirst(t *testing.T) {
	db := dbtest.Open(t)
	center, token := seeded(t, db, "center@example.com", models.RoleServiceCenter)

	var puts atomic.Int32
	bucket := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodPut {
			puts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer bucket.Close()

	client, err := storage.NewS3Client(context.Background(), storage.Options{
		Endpoint: bucket.URL, Region: "us-east-1", AccessKey: "key", SecretKey: "secret",
		Bucket: "logos", PublicBaseURL: "https://cdn.example",
	})
	if err != nil {
		t.Fatalf("s3 client: %v", err)
	}
	storage.Uploads = client
	defer func() { storage.Uploads = nil }()

	r := SetupRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, logoUpload(t, token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a profile, got %d: %s", w.Code, w.Body.String())
	}
	if puts.Load() != 0 {
		t.Fatalf("nothing should reach the bucket without a profile")
	}

	if err := db.Create(&models.ServiceCenterProfile{
		AccountID: center.ID, BusinessName: "Quick Fix", Address: "Moi Avenue", City: "Nairobi",
	}).Error; err != nil {
		t.Fatalf("seed profile: %v", err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, logoUpload(t, token))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if puts.Load() != 1 {
		t.Fatalf("expected one upload, got %d", puts.Load())
	}

	var p models.ServiceCenterProfile
	if err := db.Where("account_id = ?", center.ID).First(&p).Error; err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p.LogoURL, "https://cdn.example/avatars/") {
		t.Fatalf("unexpected logo url %q", p.LogoURL)
	}
}
