package stripe

import "strings"

// Stripe-ish normalization used ONLY for profile.subscription_status
func NormalizeStripeStatus(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "none"
	}
	switch strings.TrimSpace(*s) {
	case "active":
		return "active"
	case "trialing":
		return "trialing"
	case "past_due", "unpaid":
		return "past_due"
	case "canceled", "incomplete_expired":
		return "canceled"
	default:
		return strings.TrimSpace(*s)
	}
}

// Entitling reports whether a normalized status still grants product access.
func Entitling(status string) bool {
	switch status {
	case "active", "trialing":
		return true
	default:
		return false
	}
}
