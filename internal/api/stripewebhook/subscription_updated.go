package stripewebhooks

import (
	"fmt"

	"churnpilot/database"
	"churnpilot/internal/domain/profile"

	"github.com/stripe/stripe-go/v75"
)

func handleSubscriptionUpdated(sub *stripe.Subscription) error {
	if sub.ID == "" || sub.Items == nil || len(sub.Items.Data) == 0 || sub.Items.Data[0].Price == nil {
		return fmt.Errorf("subscription missing id/items/price")
	}

	// Find profile
	var prof profile.Profile
	userID := userIDFromMetadata(sub.Metadata)
	if userID != "" {
		if err := database.DB.Where("id = ?", userID).First(&prof).Error; err != nil {
			// acknowledge to avoid Stripe retries if the account is gone
			return nil
		}
	} else {
		if err := database.DB.Where("stripe_subscription_id = ?", sub.ID).First(&prof).Error; err != nil {
			return nil
		}
	}

	return database.DB.Model(&profile.Profile{}).
		Where("id = ?", prof.ID).
		Updates(profileUpdatesFromSubscription(sub)).Error
}

func userIDFromMetadata(md map[string]string) string {
	if md == nil {
		return ""
	}
	return md["user_id"]
}
