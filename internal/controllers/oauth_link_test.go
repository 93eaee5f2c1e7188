package controllers

import (
	"testing"

	"autohub/internal/dbtest"
	"autohub/internal/models"
	"autohub/internal/oauth"
)

func TestGoogleSignInLinksExistingEmail(t *testing.T) {
	db := dbtest.Open(t)
	existing := dbtest.Account(t, db, "linked@example.com", models.RoleServiceCenter)

	profile := oauth.Profile{
		Provider:      models.ProviderGoogle,
		ProviderID:    "google-123",
		Email:         "linked@example.com",
		EmailVerified: true,
		Name:          "Linked",
		PictureURL:    "https://lh3.example/photo.png",
	}

	account, created, err := findOrCreateOAuthAccount(profile)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if created || account.ID != existing.ID {
		t.Fatalf("expected existing account %d to be linked, got id=%d created=%v", existing.ID, account.ID, created)
	}

	var stored models.Account
	if err := db.First(&stored, existing.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.GoogleID == nil || *stored.GoogleID != "google-123" {
		t.Fatalf("expected google id to be stored, got %v", stored.GoogleID)
	}
	if stored.AvatarURL != profile.PictureURL {
		t.Fatalf("expected empty avatar to take the google picture, got %q", stored.AvatarURL)
	}
	if stored.Role != models.RoleServiceCenter || stored.AuthProvider != models.ProviderLocal {
		t.Fatalf("linking must not change role or provider: %+v", stored)
	}

	// second sign-in resolves by google id
	again, created, err := findOrCreateOAuthAccount(profile)
	if err != nil || created || again.ID != existing.ID {
		t.Fatalf("expected lookup by google id, got id=%d created=%v err=%v", again.ID, created, err)
	}

	var n int64
	db.Model(&models.Account{}).Count(&n)
	if n != 1 {
		t.Fatalf("expected a single account, got %d", n)
	}
}

func TestGoogleSignInCreatesCarOwner(t *testing.T) {
	dbtest.Open(t)

	account, created, err := findOrCreateOAuthAccount(oauth.Profile{
		Provider: models.ProviderGoogle, ProviderID: "google-456", Email: "new@example.com", Name: "New",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created || account.Role != models.RoleCarOwner || account.AuthProvider != models.ProviderGoogle {
		t.Fatalf("unexpected account %+v created=%v", account, created)
	}
	if account.IsRegistrationComplete {
		t.Fatalf("google sign-ups still need phone and role")
	}
}

func TestRoleLockedWithoutAnything(t *testing.T) {
	db := dbtest.Open(t)
	account := dbtest.Account(t, db, "fresh@example.com", models.RoleCarOwner)

	locked, err := roleLocked(account.ID)
	if err != nil || locked {
		t.Fatalf("fresh account should not be locked: locked=%v err=%v", locked, err)
	}

	if err := db.Create(&models.PartSellerProfile{AccountID: account.ID, ShopName: "Spares", Address: "Moi Avenue", City: "Nairobi"}).Error; err != nil {
		t.Fatal(err)
	}
	// a profile of another variant still locks the role
	if locked, err := roleLocked(account.ID); err != nil || !locked {
		t.Fatalf("expected lock from any profile variant: locked=%v err=%v", locked, err)
	}
}
