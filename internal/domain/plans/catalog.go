package plans

import "strings"

// Plan keys (single source of truth)
const (
	PlanGrowth = "growth"
	PlanScale  = "scale"
	PlanPro    = "pro"
)

type Plan struct {
	Key         string
	Name        string
	Description string
	Features    []string
	// PricePence is the monthly amount in GBP pence.
	PricePence int64
	// LookupKey identifies the recurring price in Stripe ("price_<key>").
	LookupKey string
}

// Catalog is the fixed subscription catalog. Products and prices are created
// in Stripe lazily from these entries, matched by lookup key.
var Catalog = []Plan{
	{
		Key:         PlanGrowth,
		Name:        "Growth Plan",
		Description: "Up to 500 subscribers with basic recovery and churn prediction",
		Features:    []string{"Up to 500 subscribers", "Basic recovery", "Churn prediction", "Email notifications", "Standard support"},
		PricePence:  4900,
		LookupKey:   "price_growth",
	},
	{
		Key:         PlanScale,
		Name:        "Scale Plan",
		Description: "Up to 2,000 subscribers with advanced recovery and AI churn prevention",
		Features:    []string{"Up to 2,000 subscribers", "Advanced recovery", "AI churn prevention", "Win-back campaigns", "Priority support"},
		PricePence:  9900,
		LookupKey:   "price_scale",
	},
	{
		Key:         PlanPro,
		Name:        "Pro Plan",
		Description: "Unlimited subscribers with enterprise features and dedicated support",
		Features:    []string{"Unlimited subscribers", "Enterprise features", "Custom retention workflows", "Dedicated account manager", "24/7 premium support"},
		PricePence:  19900,
		LookupKey:   "price_pro",
	},
}

// ByLookupKey resolves a catalog entry from a Stripe price lookup key
// ("price_scale"). Returns nil for unknown keys.
func ByLookupKey(lookupKey string) *Plan {
	for i := range Catalog {
		if Catalog[i].LookupKey == lookupKey {
			return &Catalog[i]
		}
	}
	return nil
}

// ByKey resolves a catalog entry from a bare plan key ("scale").
func ByKey(key string) *Plan {
	return ByLookupKey("price_" + strings.ToLower(strings.TrimSpace(key)))
}

// KeyFromLookup strips the lookup-key prefix: "price_scale" -> "scale".
func KeyFromLookup(lookupKey string) string {
	return strings.TrimPrefix(lookupKey, "price_")
}
