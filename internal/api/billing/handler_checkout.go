package billing

import (
	"net/http"
	"os"

	"churnpilot/config"
	"churnpilot/database"
	"churnpilot/internal/domain/plans"
	"churnpilot/internal/domain/profile"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	customer "github.com/stripe/stripe-go/v75/customer"
)

func CreateCheckoutSession(c *gin.Context) {
	var body struct {
		PriceID    string `json:"price_id"`
		SuccessURL string `json:"success_url"`
		CancelURL  string `json:"cancel_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.PriceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid price_id"})
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	userID := c.GetString("user_id")
	email := c.GetString("email")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	// allow-list the lookup key against the catalog
	plan := plans.ByLookupKey(body.PriceID)
	if plan == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown plan/price_id"})
		return
	}

	if err := ensureCatalog(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare plan catalog", "details": err.Error()})
		return
	}

	priceID, err := resolvePriceID(plan.LookupKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve plan price"})
		return
	}

	var prof profile.Profile
	if err := database.DB.Where("id = ?", userID).First(&prof).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "No profile yet (complete sign-up first)"})
		return
	}

	// ensure stripe customer
	if prof.StripeCustomerID == nil || *prof.StripeCustomerID == "" {
		cus, err := customer.New(&stripe.CustomerParams{
			Email: stripe.String(email),
			Name:  stripe.String(prof.BusinessName),
			Metadata: map[string]string{
				"user_id": userID,
				"app_env": os.Getenv("APP_ENV"),
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Stripe customer"})
			return
		}

		if err := database.DB.Model(&profile.Profile{}).
			Where("id = ?", userID).
			Update("stripe_customer_id", cus.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store Stripe customer"})
			return
		}

		prof.StripeCustomerID = stripe.String(cus.ID)
	}

	successURL := body.SuccessURL
	if successURL == "" {
		successURL = config.APP_URL + "/checkout-success?session_id={CHECKOUT_SESSION_ID}"
	}
	cancelURL := body.CancelURL
	if cancelURL == "" {
		cancelURL = config.APP_URL + "/checkout?cancelled=true"
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(*prof.StripeCustomerID),
		Currency:   stripe.String(string(stripe.CurrencyGBP)),

		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},

		ClientReferenceID: stripe.String(userID),

		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(int64(profile.TrialDays)),
			Metadata: map[string]string{
				"user_id": userID,
				"plan_id": plan.Key,
			},
		},
	}

	s, err := checkoutsession.New(params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": s.ID, "url": s.URL})
}
