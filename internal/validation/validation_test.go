package validation

import (
	"testing"
	"time"

	"autohub/internal/models"
)

func TestIsValidEmail(t *testing.T) {
	cases := map[string]bool{
		"owner@example.com":  true,
		" shop@garage.io ":   true,
		"no-at-sign.com":     false,
		"two@@example.com":   false,
		"missing@tld":        false,
		"":                   false,
		"spaces in@mail.com": false,
	}
	for in, want := range cases {
		if got := IsValidEmail(in); got != want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	cases := map[string]bool{
		"+14155550123":      true,
		"0712 345-678":      true,
		"(415) 555-01234":   true,
		"12345":             false,
		"+1234567890123456": false,
		"phone-number":      false,
	}
	for in, want := range cases {
		if got := IsValidPhone(in); got != want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	role, err := NormalizeRole("")
	if err != nil || role != models.RoleCarOwner {
		t.Fatalf("empty role should default to car_owner, got %q %v", role, err)
	}

	role, err = NormalizeRole(" Service_Center ")
	if err != nil || role != models.RoleServiceCenter {
		t.Fatalf("expected service_center, got %q %v", role, err)
	}

	if _, err := NormalizeRole("admin"); err != ErrInvalidRole {
		t.Fatalf("admin must not be self-assignable, got %v", err)
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := ValidatePassword("Password@123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateVehicle(t *testing.T) {
	ok := VehicleFields{Make: "Toyota", Model: "Corolla", Year: 2019, RegistrationNumber: "KA01AB1234", FuelType: "Petrol"}
	if problems := ValidateVehicle(ok); problems != nil {
		t.Fatalf("expected valid vehicle, got %v", problems)
	}

	bad := VehicleFields{Year: time.Now().Year() + 5, FuelType: "steam"}
	problems := ValidateVehicle(bad)
	if len(problems) != 5 {
		t.Fatalf("expected 5 problems, got %d: %v", len(problems), problems)
	}
}
