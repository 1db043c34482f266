package client

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Provider is the backend surface the lifecycle components talk to. The HTTP
// implementation in this package targets the churnpilot API; tests substitute
// fakes.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, params SignUpParams) (*Identity, error)
	VerifyEmail(ctx context.Context, email, token string) error
	ResendVerification(ctx context.Context, email string) error
	SignOut(ctx context.Context, accessToken string) error
	// ResumeSession restores a previously issued session from the persisted
	// credential. (nil, nil) means no session to resume.
	ResumeSession(ctx context.Context) (*Session, error)

	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
	CreateProfile(ctx context.Context, accessToken, fullName, businessName string) error
	ConfirmCheckout(ctx context.Context, accessToken, sessionID, userID string) (*CheckoutResult, error)
}

type SignUpParams struct {
	Email        string
	Password     string
	FullName     string
	BusinessName string
}

// ProviderError carries the backend's error payload. Code is the machine
// readable discriminator ("email_not_confirmed", "rate_limit_exceeded");
// Message is the human readable text.
type ProviderError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "request failed"
}

// IsEmailNotConfirmed detects the unverified-email rejection. The structured
// code is authoritative; the message substring keeps providers that only
// return "Email not confirmed" text working.
func IsEmailNotConfirmed(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Code == "email_not_confirmed" {
			return true
		}
		return strings.Contains(pe.Message, "Email not confirmed")
	}
	return err != nil && strings.Contains(err.Error(), "Email not confirmed")
}

// Notifier receives user-facing notifications. Implementations decide how to
// surface them (toast, terminal, log).
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
	Info(title, message string)
}

// TokenStore persists the session credential between runs.
type TokenStore interface {
	Load() (token string, ok bool)
	Save(token string)
	Clear()
}

// Profile is the client-side view of the business profile record.
type Profile struct {
	ID           string
	FullName     string
	BusinessName string

	AccountType        string
	SubscriptionStatus string
	SubscriptionPlan   string

	TrialEndsAt      *time.Time
	CurrentPeriodEnd *time.Time

	// Classification is recomputed by the server per request: one of
	// "active", "trialing", "demo".
	Classification string
}

// CheckoutResult is the confirm-subscription response.
type CheckoutResult struct {
	Success     bool
	Plan        string
	Status      string
	AccountType string
	IsTrial     bool
	TrialEndsAt *time.Time
}
