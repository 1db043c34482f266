package profile

import "time"

type Classification string

const (
	ClassActive   Classification = "active"
	ClassTrialing Classification = "trialing"
	ClassDemo     Classification = "demo"
)

// Classify derives the account classification from raw profile fields.
// Exactly one of active/trialing/demo holds for any input:
//   - active:   subscription status "active" AND account type "paid"
//   - trialing: account type "trial" AND trial end strictly in the future
//   - demo:     everything else
//
// This is recomputed at every read site; callers must not cache it across
// profile updates.
func Classify(accountType, subscriptionStatus string, trialEndsAt *time.Time, now time.Time) Classification {
	if subscriptionStatus == "active" && accountType == "paid" {
		return ClassActive
	}
	if accountType == "trial" && trialEndsAt != nil && trialEndsAt.After(now) {
		return ClassTrialing
	}
	return ClassDemo
}
