// Package validation holds the field checks shared by the request handlers.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"autohub/internal/models"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidPhone    = errors.New("phone must contain 10 to 15 digits")
	ErrInvalidRole     = errors.New("role must be one of car_owner, service_center, part_seller")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
	ErrInvalidLocation = errors.New("location must be a GeoJSON Point")
)

const MinPasswordLength = 8

var fuelTypes = map[string]bool{
	"petrol": true, "diesel": true, "electric": true, "hybrid": true, "cng": true, "lpg": true,
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}

// IsValidPhone accepts an optional leading '+' followed by 10-15 digits.
// Spaces and dashes are ignored.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

func NormalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
}

func IsValidRole(role string) bool {
	switch role {
	case models.RoleCarOwner, models.RoleServiceCenter, models.RolePartSeller:
		return true
	}
	return false
}

// NormalizeRole lower-cases role input and defaults an empty value to car_owner.
func NormalizeRole(role string) (string, error) {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return models.RoleCarOwner, nil
	}
	if !IsValidRole(r) {
		return "", ErrInvalidRole
	}
	return r, nil
}

func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// VehicleFields is what a car owner must supply for a vehicle.
type VehicleFields struct {
	Make               string
	Model              string
	Year               int
	RegistrationNumber string
	FuelType           string
}

// ValidateVehicle returns the list of problems with v, or nil when complete.
func ValidateVehicle(v VehicleFields) []string {
	var problems []string
	if strings.TrimSpace(v.Make) == "" {
		problems = append(problems, "make is required")
	}
	if strings.TrimSpace(v.Model) == "" {
		problems = append(problems, "model is required")
	}
	if strings.TrimSpace(v.RegistrationNumber) == "" {
		problems = append(problems, "registration_number is required")
	}
	maxYear := time.Now().Year() + 1
	if v.Year < 1950 || v.Year > maxYear {
		problems = append(problems, fmt.Sprintf("year must be between 1950 and %d", maxYear))
	}
	if !fuelTypes[strings.ToLower(strings.TrimSpace(v.FuelType))] {
		problems = append(problems, "fuel_type must be one of petrol, diesel, electric, hybrid, cng, lpg")
	}
	return problems
}
