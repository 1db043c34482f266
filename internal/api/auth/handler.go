package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"

	"churnpilot/config"
	"churnpilot/database"
	"churnpilot/internal/domain/identity"
	"churnpilot/internal/domain/profile"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	tokenTypeSignup = "signup"

	// Machine-readable code the client branches on instead of matching the
	// error message text.
	CodeEmailNotConfirmed = "email_not_confirmed"
)

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func isEmailValid(email string) bool {
	pattern := `^[a-zA-Z0-9._%%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`
	matched, _ := regexp.MatchString(pattern, email)
	return matched
}

func generateVerificationToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

type identityDTO struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func toIdentityDTO(i identity.Identity) identityDTO {
	return identityDTO{
		ID:             i.ID,
		Email:          i.Email,
		EmailConfirmed: i.EmailConfirmed(),
	}
}

func Register(c *gin.Context) {
	var input struct {
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required"`
		FullName     string `json:"full_name" binding:"required"`
		BusinessName string `json:"business_name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !isPasswordStrong(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long and contain both letters and numbers"})
		return
	}
	if !isEmailValid(input.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hashed := string(hashedPassword)

	ident := identity.Identity{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: &hashed,
		AuthProvider: "email",
	}

	if err := database.DB.Create(&ident).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email may already exist"})
		return
	}

	// Initial business profile with the default trial window, opened at
	// sign-up time. The client re-creates it through POST /profiles if this
	// write is ever lost.
	now := time.Now()
	trialEnd := now.AddDate(0, 0, profile.TrialDays)
	prof := profile.Profile{
		ID:           ident.ID,
		FullName:     input.FullName,
		BusinessName: input.BusinessName,
		AccountType:  "trial",
		TrialEndsAt:  &trialEnd,
	}
	if err := database.DB.Create(&prof).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
		return
	}

	token, err := generateVerificationToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create verification token"})
		return
	}
	verif := identity.VerificationToken{
		IdentityID: ident.ID,
		Token:      token,
		Type:       tokenTypeSignup,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
	if err := database.DB.Create(&verif).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create verification token"})
		return
	}

	if err := SendVerificationEmail(ident.Email, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account created. Please check your email to verify your account.",
		"user":    toIdentityDTO(ident),
	})
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ident identity.Identity
	err := database.DB.Where("email = ?", input.Email).First(&ident).Error
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if ident.PasswordHash == nil || *ident.PasswordHash == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}
	err = bcrypt.CompareHashAndPassword([]byte(*ident.PasswordHash), []byte(input.Password))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !ident.EmailConfirmed() {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Email not confirmed",
			"code":  CodeEmailNotConfirmed,
		})
		return
	}

	tokenString, issuedAt, err := IssueSessionToken(ident)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	now := time.Now()
	database.DB.Model(&identity.Identity{}).Where("id = ?", ident.ID).Update("last_sign_in_at", now)
	recordLogin(ident.ID, now)

	c.JSON(http.StatusOK, gin.H{
		"token":     tokenString,
		"issued_at": issuedAt.Unix(),
		"user":      toIdentityDTO(ident),
	})
}

// recordLogin bumps the profile activity counters. Best effort: a missing
// profile (not yet created by the client) is not a login failure.
func recordLogin(identityID string, now time.Time) {
	database.DB.Model(&profile.Profile{}).Where("id = ?", identityID).Updates(map[string]interface{}{
		"last_login_at": now,
		"login_count":   gorm.Expr("login_count + 1"),
	})
}

// IssueSessionToken mints the application session credential. The application
// enforces its own 24h ceiling on top of the token expiry, keyed off iat.
func IssueSessionToken(ident identity.Identity) (string, time.Time, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":             ident.ID,
		"email":           ident.Email,
		"email_confirmed": ident.EmailConfirmed(),
		"iat":             now.Unix(),
		"exp":             now.Add(24 * time.Hour).Unix(),
	})
	signed, err := t.SignedString([]byte(config.JWT_SECRET))
	return signed, now, err
}

// VerifyOTP exchanges a one-time signup code for email confirmation.
func VerifyOTP(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
		Token string `json:"token" binding:"required"`
		Type  string `json:"type"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Type == "" {
		input.Type = tokenTypeSignup
	}

	var ident identity.Identity
	if err := database.DB.Where("email = ?", input.Email).First(&ident).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	var verif identity.VerificationToken
	err := database.DB.
		Where("identity_id = ? AND token = ? AND type = ?", ident.ID, input.Token, input.Type).
		First(&verif).Error
	if err != nil || verif.ExpiresAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := confirmEmail(ident.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	database.DB.Delete(&verif)

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

// VerifyEmailLink handles the link sent by email (GET /verify?token=...).
func VerifyEmailLink(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	var verif identity.VerificationToken
	err := database.DB.Where("token = ? AND type = ?", token, tokenTypeSignup).First(&verif).Error
	if err != nil || verif.ExpiresAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := confirmEmail(verif.IdentityID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify email"})
		return
	}
	database.DB.Delete(&verif)

	c.Redirect(http.StatusTemporaryRedirect, config.APP_URL+"/auth?verified=true")
}

func confirmEmail(identityID string) error {
	now := time.Now()
	return database.DB.Model(&identity.Identity{}).
		Where("id = ?", identityID).
		Update("email_confirmed_at", now).Error
}

func ResendVerification(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	// Bound with ShouldBindBodyWith so the rate-limit middleware can read
	// the same body first.
	if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil || body.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid email"})
		return
	}

	var ident identity.Identity
	err := database.DB.Where("email = ?", body.Email).First(&ident).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if ident.EmailConfirmed() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already verified"})
		return
	}

	// Remove old token if exists
	database.DB.Where("identity_id = ? AND type = ?", ident.ID, tokenTypeSignup).Delete(&identity.VerificationToken{})

	token, err := generateVerificationToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create verification token"})
		return
	}
	newToken := identity.VerificationToken{
		IdentityID: ident.ID,
		Token:      token,
		Type:       tokenTypeSignup,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
	}
	if err := database.DB.Create(&newToken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store verification token"})
		return
	}

	if err := SendVerificationEmail(ident.Email, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification email resent"})
}

// Logout acknowledges a remote sign-out. Session tokens are stateless, so
// there is nothing to revoke server-side; the client clears its own state
// whether or not this call succeeds.
func Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetSession echoes the identity resolved from the bearer credential, used by
// clients to resume an existing session on startup.
func GetSession(c *gin.Context) {
	id := c.GetString("user_id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var ident identity.Identity
	if err := database.DB.Where("id = ?", id).First(&ident).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      toIdentityDTO(ident),
		"issued_at": c.GetInt64("issued_at"),
	})
}
