package billing

import (
	"fmt"

	"churnpilot/internal/domain/plans"

	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
	"github.com/stripe/stripe-go/v75/product"
)

// ensureCatalog makes sure every catalog plan has an active recurring price
// in Stripe, matched by lookup key. Existing prices are left untouched, so
// calling this on every checkout is cheap and idempotent.
func ensureCatalog() error {
	for _, plan := range plans.Catalog {
		listParams := &stripe.PriceListParams{
			LookupKeys: stripe.StringSlice([]string{plan.LookupKey}),
			Active:     stripe.Bool(true),
		}
		listParams.Limit = stripe.Int64(1)

		it := price.List(listParams)
		found := false
		for it.Next() {
			found = true
		}
		if err := it.Err(); err != nil {
			return fmt.Errorf("failed to list prices for %s: %w", plan.LookupKey, err)
		}
		if found {
			continue
		}

		prod, err := product.New(&stripe.ProductParams{
			Name:        stripe.String(plan.Name),
			Description: stripe.String(plan.Description),
			Metadata: map[string]string{
				"plan_id": plan.Key,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create product for %s: %w", plan.Key, err)
		}

		_, err = price.New(&stripe.PriceParams{
			Product:    stripe.String(prod.ID),
			UnitAmount: stripe.Int64(plan.PricePence),
			Currency:   stripe.String(string(stripe.CurrencyGBP)),
			Recurring: &stripe.PriceRecurringParams{
				Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
			},
			LookupKey: stripe.String(plan.LookupKey),
			Metadata: map[string]string{
				"plan_id": plan.Key,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create price for %s: %w", plan.Key, err)
		}
	}
	return nil
}

// resolvePriceID maps a catalog lookup key to the live Stripe price id.
func resolvePriceID(lookupKey string) (string, error) {
	listParams := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice([]string{lookupKey}),
		Active:     stripe.Bool(true),
	}
	listParams.Limit = stripe.Int64(1)

	it := price.List(listParams)
	for it.Next() {
		return it.Price().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("price not found for lookup key %s", lookupKey)
}
