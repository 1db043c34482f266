package stripewebhooks

import (
	"time"

	"churnpilot/database"
	"churnpilot/internal/domain/profile"

	"github.com/stripe/stripe-go/v75"
)

func handleSubscriptionDeleted(sub *stripe.Subscription) error {
	if sub.ID == "" {
		return nil
	}

	var prof profile.Profile
	userID := userIDFromMetadata(sub.Metadata)
	if userID != "" {
		_ = database.DB.Where("id = ?", userID).First(&prof).Error
	}
	if prof.ID == "" {
		_ = database.DB.Where("stripe_subscription_id = ?", sub.ID).First(&prof).Error
	}
	if prof.ID == "" {
		return nil
	}

	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()

	// A deleted subscription drops the account back to demo mode. The backend
	// reaps expired demo accounts after 30 days.
	expires := time.Now().AddDate(0, 0, 30)

	updates := map[string]interface{}{
		"account_type":         "demo",
		"subscription_status":  string(sub.Status),
		"current_period_end":   periodEnd,
		"cancel_at_period_end": false,
		"account_expires_at":   expires,
	}

	return database.DB.Model(&profile.Profile{}).
		Where("id = ?", prof.ID).
		Updates(updates).Error
}
