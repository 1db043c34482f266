package profile

import "time"

// Profile is the business-level account record, keyed one-to-one by the
// identity id. The auth row says who you are; this row says what you pay for.
type Profile struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	FullName     string
	BusinessName string

	AccountType        string `gorm:"type:varchar(20);not null;default:'trial'"` // trial | paid | demo
	SubscriptionStatus *string
	SubscriptionPlan   *string

	StripeCustomerID     *string `gorm:"column:stripe_customer_id;uniqueIndex:idx_profiles_stripe_customer_id"`
	StripeSubscriptionID *string `gorm:"column:stripe_subscription_id;uniqueIndex:idx_profiles_stripe_subscription_id"`
	SubscriptionPriceID  *string `gorm:"column:subscription_price_id"`

	TrialEndsAt      *time.Time `gorm:"column:trial_ends_at"`
	CurrentPeriodEnd *time.Time `gorm:"column:current_period_end"`
	AccountExpiresAt *time.Time `gorm:"column:account_expires_at"`

	CancelAtPeriodEnd bool

	LastLoginAt *time.Time
	LoginCount  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

const TrialDays = 7

func (p Profile) Classify(now time.Time) Classification {
	var status string
	if p.SubscriptionStatus != nil {
		status = *p.SubscriptionStatus
	}
	return Classify(p.AccountType, status, p.TrialEndsAt, now)
}
