package profiles

import (
	"net/http"
	"time"

	"churnpilot/database"
	"churnpilot/internal/domain/identity"
	"churnpilot/internal/domain/profile"
	stripeinfra "churnpilot/internal/infra/stripe"

	"github.com/gin-gonic/gin"
)

// GetCurrentProfile returns the caller's identity plus business profile.
// A missing profile is not an error: the client renders a loading or empty
// state and must never treat it as an authentication failure.
func GetCurrentProfile(c *gin.Context) {
	id := c.GetString("user_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var ident identity.Identity
	if err := database.DB.Where("id = ?", id).First(&ident).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	resp := MeResponse{
		User: UserDTO{
			ID:             ident.ID,
			Email:          ident.Email,
			EmailConfirmed: ident.EmailConfirmed(),
		},
	}

	var prof profile.Profile
	if err := database.DB.Where("id = ?", id).First(&prof).Error; err == nil {
		resp.Profile = buildProfileDTO(time.Now(), prof)
	}

	c.JSON(http.StatusOK, resp)
}

func buildProfileDTO(now time.Time, p profile.Profile) *ProfileDTO {
	// Classification and entitlement run over the normalized status so raw
	// Stripe variants ("unpaid", "incomplete_expired") fold into the buckets
	// the client understands.
	status := stripeinfra.NormalizeStripeStatus(p.SubscriptionStatus)

	return &ProfileDTO{
		ID:                 p.ID,
		FullName:           p.FullName,
		BusinessName:       p.BusinessName,
		AccountType:        p.AccountType,
		SubscriptionStatus: p.SubscriptionStatus,
		SubscriptionPlan:   p.SubscriptionPlan,
		TrialEndsAt:        p.TrialEndsAt,
		CurrentPeriodEnd:   p.CurrentPeriodEnd,
		AccountExpiresAt:   p.AccountExpiresAt,
		Classification:     string(profile.Classify(p.AccountType, status, p.TrialEndsAt, now)),
		Entitled:           stripeinfra.Entitling(status),
		Trial:              buildTrialDTO(now, p.TrialEndsAt),
	}
}

func buildTrialDTO(now time.Time, end *time.Time) *TrialDTO {
	if end == nil {
		return nil
	}
	d := 0
	if now.Before(*end) {
		d = int(end.Sub(now).Hours() / 24)
		if d < 0 {
			d = 0
		}
	}
	return &TrialDTO{EndsAt: end, DaysLeft: &d}
}

// CreateProfile writes the initial business profile for a freshly signed-up
// identity, opening the default 7-day trial window. Safe to call once; a
// second call for the same identity conflicts.
func CreateProfile(c *gin.Context) {
	id := c.GetString("user_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var input struct {
		FullName     string `json:"full_name" binding:"required"`
		BusinessName string `json:"business_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	trialEnd := now.AddDate(0, 0, profile.TrialDays)

	prof := profile.Profile{
		ID:           id,
		FullName:     input.FullName,
		BusinessName: input.BusinessName,
		AccountType:  "trial",
		TrialEndsAt:  &trialEnd,
		LastLoginAt:  &now,
		LoginCount:   1,
	}

	if err := database.DB.Create(&prof).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Profile already exists"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": buildProfileDTO(now, prof)})
}
