package stripewebhooks

import (
	"errors"
	"fmt"
	"time"

	"churnpilot/database"
	"churnpilot/internal/domain/plans"
	"churnpilot/internal/domain/profile"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
)

func handleCheckoutSessionCompleted(session *stripe.CheckoutSession) error {
	// Fetch full session with expansions
	fullSession, err := checkoutsession.Get(session.ID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Expand: []*string{
				stripe.String("subscription"),
				stripe.String("customer"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to fetch expanded checkout session: %w", err)
	}

	if fullSession.Subscription == nil || fullSession.Subscription.ID == "" {
		return errors.New("checkout session missing subscription")
	}

	subData, err := subscription.Get(fullSession.Subscription.ID, nil)
	if err != nil || subData == nil || subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		return fmt.Errorf("failed to fetch subscription items: %w", err)
	}

	// Identify profile: metadata.user_id preferred, else ClientReferenceID
	userID := userIDFromSubscriptionOrRef(subData, fullSession.ClientReferenceID)
	if userID == "" {
		return errors.New("missing user_id (metadata.user_id or client_reference_id)")
	}

	var prof profile.Profile
	if err := database.DB.Where("id = ?", userID).First(&prof).Error; err != nil {
		return fmt.Errorf("profile not found: %w", err)
	}

	updates := profileUpdatesFromSubscription(subData)
	if fullSession.Customer != nil && fullSession.Customer.ID != "" {
		updates["stripe_customer_id"] = fullSession.Customer.ID
	}

	return database.DB.Model(&profile.Profile{}).
		Where("id = ?", userID).
		Updates(updates).Error
}

// profileUpdatesFromSubscription derives the profile column writes from a
// subscription snapshot; shared by the checkout and update handlers so both
// paths converge on the same row state.
func profileUpdatesFromSubscription(sub *stripe.Subscription) map[string]interface{} {
	periodEnd := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	status := string(sub.Status)

	var trialEnd *time.Time
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		trialEnd = &t
	}

	accountType := "demo"
	switch sub.Status {
	case stripe.SubscriptionStatusActive:
		accountType = "paid"
	case stripe.SubscriptionStatusTrialing:
		accountType = "trial"
	}

	return map[string]interface{}{
		"account_type":           accountType,
		"subscription_status":    status,
		"subscription_plan":      planKeyFromSubscription(sub),
		"stripe_subscription_id": sub.ID,
		"subscription_price_id":  sub.Items.Data[0].Price.ID,
		"current_period_end":     periodEnd,
		"trial_ends_at":          trialEnd,
		"cancel_at_period_end":   sub.CancelAtPeriodEnd,
	}
}

func planKeyFromSubscription(sub *stripe.Subscription) string {
	if sub.Metadata != nil && sub.Metadata["plan_id"] != "" {
		return sub.Metadata["plan_id"]
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		if lk := sub.Items.Data[0].Price.LookupKey; lk != "" {
			return plans.KeyFromLookup(lk)
		}
	}
	return ""
}

func userIDFromSubscriptionOrRef(sub *stripe.Subscription, clientRef string) string {
	if sub.Metadata != nil && sub.Metadata["user_id"] != "" {
		return sub.Metadata["user_id"]
	}
	return clientRef
}
