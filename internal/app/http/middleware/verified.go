package middleware

import (
	"net/http"

	"churnpilot/database"
	"churnpilot/internal/domain/identity"

	"github.com/gin-gonic/gin"
)

// RequireVerifiedEmail blocks billing operations for identities that have
// not confirmed their email. Reads the identity row rather than trusting
// the token claim, which may predate verification.
func RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetString("user_id")

		var ident identity.Identity
		if err := database.DB.Where("id = ?", id).First(&ident).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "User not found",
			})
			return
		}

		if !ident.EmailConfirmed() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Please verify your email first",
				"code":  "email_not_confirmed",
			})
			return
		}

		c.Next()
	}
}
