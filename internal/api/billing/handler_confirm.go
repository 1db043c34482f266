package billing

import (
	"net/http"
	"os"
	"time"

	"churnpilot/database"
	"churnpilot/internal/domain/plans"
	"churnpilot/internal/domain/profile"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
)

type confirmResponse struct {
	Success     bool       `json:"success"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	AccountType string     `json:"account_type"`
	IsTrial     bool       `json:"is_trial"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
}

// ConfirmSubscription verifies a completed checkout session against Stripe
// and reflects the resulting subscription into the caller's profile. All
// writes derive from the Stripe session snapshot, so replaying the same
// session id converges to the same profile row and reports success again.
func ConfirmSubscription(c *gin.Context) {
	var body struct {
		SessionID string `json:"session_id"`
		UserID    string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid session_id"})
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}
	// The body user id is advisory; the bearer credential wins.
	if body.UserID != "" && body.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to caller"})
		return
	}

	sess, err := checkoutsession.Get(body.SessionID, &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Expand: []*string{
				stripe.String("subscription"),
				stripe.String("customer"),
			},
		},
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Checkout session not found"})
		return
	}

	if sess.ClientReferenceID != "" && sess.ClientReferenceID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Session does not belong to caller"})
		return
	}

	if sess.Subscription == nil || sess.Subscription.ID == "" {
		c.JSON(http.StatusOK, confirmResponse{Success: false, Status: "none", AccountType: "demo"})
		return
	}

	subData, err := subscription.Get(sess.Subscription.ID, nil)
	if err != nil || subData == nil || subData.Items == nil || len(subData.Items.Data) == 0 || subData.Items.Data[0].Price == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscription"})
		return
	}

	planKey := planKeyFromSubscription(subData)
	status := string(subData.Status)
	isTrial := subData.Status == stripe.SubscriptionStatusTrialing

	var trialEnd *time.Time
	if subData.TrialEnd > 0 {
		t := time.Unix(subData.TrialEnd, 0).UTC()
		trialEnd = &t
	}
	periodEnd := time.Unix(subData.CurrentPeriodEnd, 0).UTC()

	accountType := "demo"
	switch subData.Status {
	case stripe.SubscriptionStatusActive:
		accountType = "paid"
	case stripe.SubscriptionStatusTrialing:
		accountType = "trial"
	}

	updates := map[string]interface{}{
		"account_type":           accountType,
		"subscription_status":    status,
		"subscription_plan":      planKey,
		"stripe_subscription_id": subData.ID,
		"subscription_price_id":  subData.Items.Data[0].Price.ID,
		"current_period_end":     periodEnd,
		"trial_ends_at":          trialEnd,
		"cancel_at_period_end":   subData.CancelAtPeriodEnd,
	}
	if sess.Customer != nil && sess.Customer.ID != "" {
		updates["stripe_customer_id"] = sess.Customer.ID
	}

	if err := database.DB.Model(&profile.Profile{}).
		Where("id = ?", userID).
		Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, confirmResponse{
		Success:     true,
		Plan:        planKey,
		Status:      status,
		AccountType: accountType,
		IsTrial:     isTrial,
		TrialEndsAt: trialEnd,
	})
}

// planKeyFromSubscription prefers the subscription metadata written at
// checkout, falling back to the price lookup key.
func planKeyFromSubscription(sub *stripe.Subscription) string {
	if sub.Metadata != nil && sub.Metadata["plan_id"] != "" {
		return sub.Metadata["plan_id"]
	}
	p := sub.Items.Data[0].Price
	if p.LookupKey != "" {
		return plans.KeyFromLookup(p.LookupKey)
	}
	return ""
}
