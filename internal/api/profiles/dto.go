package profiles

import "time"

type MeResponse struct {
	User    UserDTO     `json:"user"`
	Profile *ProfileDTO `json:"profile"`
}

type UserDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

type ProfileDTO struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	BusinessName string `json:"business_name"`

	AccountType        string  `json:"account_type"` // trial|paid|demo
	SubscriptionStatus *string `json:"subscription_status"`
	SubscriptionPlan   *string `json:"subscription_plan"`

	TrialEndsAt      *time.Time `json:"trial_ends_at"`
	CurrentPeriodEnd *time.Time `json:"subscription_current_period_end"`
	AccountExpiresAt *time.Time `json:"account_expires_at"`

	// Recomputed per request, never stored.
	Classification string `json:"classification"` // active|trialing|demo

	// Entitled reports whether the normalized subscription status still
	// grants product access (active or trialing).
	Entitled bool `json:"entitled"`

	Trial *TrialDTO `json:"trial"`
}

type TrialDTO struct {
	EndsAt   *time.Time `json:"ends_at"`
	DaysLeft *int       `json:"days_left"`
}
