// Package setup derives the onboarding state that gates dashboard access.
package setup

import (
	"context"
	"errors"

	"autohub/internal/models"
)

// Missing step identifiers, in evaluation order.
const (
	StepRegistration = "registration"
	StepProfile      = "profile"
	StepPayment      = "payment"
)

// Client routes a user is sent to for an unfinished step.
const (
	RouteProfileSetup = "/setup/profile"
	RoutePaymentSetup = "/setup/payment"
)

var ErrAccountNotFound = errors.New("account not found")

// Snapshot is the subset of account state the verdict is computed from.
type Snapshot struct {
	Role         string
	Phone        string
	HasProfile   bool
	VehicleCount int64
	// SubscriptionStatus is empty when the account has no subscription row.
	SubscriptionStatus string
}

// Status is the setup verdict returned to clients and folded into session tokens.
type Status struct {
	RegistrationComplete  bool     `json:"registrationComplete"`
	SetupComplete         bool     `json:"setupComplete"`
	HasActiveSubscription bool     `json:"hasActiveSubscription"`
	MissingSteps          []string `json:"missingSteps"`
	RedirectTo            *string  `json:"redirectTo"`
}

// Complete reports whether nothing is left to do.
func (s Status) Complete() bool {
	return len(s.MissingSteps) == 0
}

// Reader loads a Snapshot for an account id.
type Reader interface {
	Snapshot(ctx context.Context, accountID uint) (Snapshot, error)
}

// Check loads the account through r and computes its setup status.
func Check(ctx context.Context, r Reader, accountID uint) (Status, error) {
	snap, err := r.Snapshot(ctx, accountID)
	if err != nil {
		return Status{}, err
	}
	return Compute(snap), nil
}

// Compute evaluates registration, profile and payment in that order. Every
// failing check overwrites RedirectTo, so the last missing step wins even
// though MissingSteps keeps evaluation order.
func Compute(s Snapshot) Status {
	st := Status{
		// car_owner never counts as registration-complete here; the
		// registration step is simply not required of it below.
		RegistrationComplete:  s.Phone != "" && s.Role != models.RoleCarOwner,
		SetupComplete:         profileComplete(s),
		HasActiveSubscription: s.SubscriptionStatus == models.SubscriptionActive,
		MissingSteps:          []string{},
	}

	if s.Role != models.RoleCarOwner && !st.RegistrationComplete {
		st.MissingSteps = append(st.MissingSteps, StepRegistration)
		st.RedirectTo = route(RouteProfileSetup)
	}

	if !st.SetupComplete {
		st.MissingSteps = append(st.MissingSteps, StepProfile)
		st.RedirectTo = route(RouteProfileSetup)
	}

	if models.IsBusiness(s.Role) && !st.HasActiveSubscription {
		st.MissingSteps = append(st.MissingSteps, StepPayment)
		st.RedirectTo = route(RoutePaymentSetup)
	}

	return st
}

func profileComplete(s Snapshot) bool {
	switch s.Role {
	case models.RoleCarOwner:
		return s.HasProfile && s.VehicleCount > 0
	case models.RoleServiceCenter, models.RolePartSeller:
		return s.HasProfile
	case models.RoleAdmin:
		return true
	default:
		return false
	}
}

func route(r string) *string {
	return &r
}
