package routes

import (
	authapi "churnpilot/internal/api/auth"
	"churnpilot/internal/api/billing"
	plansapi "churnpilot/internal/api/plans"
	"churnpilot/internal/api/profiles"
	stripewebhooks "churnpilot/internal/api/stripewebhook"
	"churnpilot/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Webhook stays outside sanitization: Stripe signs the raw payload.
	r.POST("/webhook", stripewebhooks.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	resendLimiter := middleware.NewResendLimiter(5, 2)

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plansapi.ListPlans)
	public.GET("/verify", authapi.VerifyEmailLink)
	public.POST("/verify-otp", authapi.VerifyOTP)
	public.POST("/resend-verification", resendLimiter.Middleware(), authapi.ResendVerification)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/session", authapi.GetSession)
	auth.POST("/logout", authapi.Logout)
	auth.GET("/me", profiles.GetCurrentProfile)
	auth.POST("/profiles", profiles.CreateProfile)

	// Billing requires a confirmed email
	verified := auth.Group("/")
	verified.Use(middleware.RequireVerifiedEmail())
	verified.POST("/create-checkout-session", billing.CreateCheckoutSession)
	verified.POST("/confirm-subscription", billing.ConfirmSubscription)
}
