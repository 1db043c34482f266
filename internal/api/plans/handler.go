package plans

import (
	"net/http"

	"churnpilot/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

// ListPlans returns the subscription catalog. Prices are static; the Stripe
// objects behind them are created lazily when a checkout session is opened.
func ListPlans(c *gin.Context) {
	out := make([]gin.H, 0, len(plans.Catalog))
	for _, p := range plans.Catalog {
		out = append(out, gin.H{
			"key":         p.Key,
			"name":        p.Name,
			"description": p.Description,
			"features":    p.Features,
			"price_pence": p.PricePence,
			"currency":    "gbp",
			"interval":    "month",
			"lookup_key":  p.LookupKey,
		})
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}
