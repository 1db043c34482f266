package client

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// Controller drives the auth lifecycle: sign-up, sign-in, email
// verification, sign-out, and session resume. All collaborators are injected
// through the constructor; there are no package-level singletons.
type Controller struct {
	store    *Store
	provider Provider
	notifier Notifier
	logger   *slog.Logger

	loading atomic.Bool
	now     func() time.Time
}

func NewController(store *Store, provider Provider, notifier Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		store:    store,
		provider: provider,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// IsLoading is true while Bootstrap is resolving the initial session. Route
// guards must not redirect while this is set.
func (c *Controller) IsLoading() bool {
	return c.loading.Load()
}

type SignInResult struct {
	Session *Session
	// EmailVerificationNeeded is set when the provider rejected the sign-in
	// because the address is unverified. No failure notification is shown
	// for this case; the caller routes the user to the verification step.
	EmailVerificationNeeded bool
}

func (c *Controller) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	sess, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		if IsEmailNotConfirmed(err) {
			c.logger.Info("sign-in pending email verification", "email", email)
			return SignInResult{EmailVerificationNeeded: true}, err
		}
		c.logger.Warn("sign-in failed", "email", email, "error", err)
		c.notifier.Error("Sign in failed", "Please check your credentials and try again.")
		return SignInResult{}, err
	}

	c.store.Replace(sess)
	c.notifier.Success("Welcome back!", "You have signed in successfully.")
	return SignInResult{Session: sess}, nil
}

// SignUp validates locally before any network call: blank fields and a
// password mismatch fail without touching the provider. On success the
// account starts with a 7 day trial profile and the user stays
// signed-in-unverified until the email is confirmed.
func (c *Controller) SignUp(ctx context.Context, params SignUpParams, confirmPassword string) (*Identity, error) {
	if strings.TrimSpace(params.Email) == "" ||
		params.Password == "" ||
		strings.TrimSpace(params.FullName) == "" ||
		strings.TrimSpace(params.BusinessName) == "" {
		c.notifier.Error("Sign up failed", "All fields are required.")
		return nil, ErrMissingFields
	}
	if params.Password != confirmPassword {
		c.notifier.Error("Sign up failed", "Passwords do not match.")
		return nil, ErrPasswordMismatch
	}

	ident, err := c.provider.SignUp(ctx, params)
	if err != nil {
		c.logger.Warn("sign-up failed", "email", params.Email, "error", err)
		c.notifier.Error("Sign up failed", err.Error())
		return nil, err
	}

	c.notifier.Success("Account created", "Check your email to verify your account.")
	return ident, nil
}

// VerifyEmail exchanges the signup one-time code. When the verified address
// matches the current session, the session identity is refreshed in place
// via a whole-session replace.
func (c *Controller) VerifyEmail(ctx context.Context, email, token string) error {
	if err := c.provider.VerifyEmail(ctx, email, token); err != nil {
		c.logger.Warn("email verification failed", "email", email, "error", err)
		c.notifier.Error("Verification failed", "The code is invalid or has expired.")
		return err
	}

	if sess := c.store.Current(); sess != nil && strings.EqualFold(sess.Identity.Email, email) {
		next := *sess
		next.Identity.EmailConfirmed = true
		c.store.Replace(&next)
	}

	c.notifier.Success("Email verified", "Your account is ready to use.")
	return nil
}

// ResendVerificationEmail asks the provider to send a fresh code. Failures
// (including rate limiting) are surfaced without changing any local state.
func (c *Controller) ResendVerificationEmail(ctx context.Context, email string) error {
	if err := c.provider.ResendVerification(ctx, email); err != nil {
		c.logger.Warn("resend verification failed", "email", email, "error", err)
		c.notifier.Error("Could not resend email", err.Error())
		return err
	}
	c.notifier.Success("Email sent", "A new verification email is on its way.")
	return nil
}

// SignOut always clears the local session. A remote sign-out failure is
// logged but never blocks the local transition, and exactly one notification
// is emitted either way.
func (c *Controller) SignOut(ctx context.Context) {
	sess := c.store.Current()

	token := ""
	if sess != nil {
		token = sess.AccessToken
	}
	if err := c.provider.SignOut(ctx, token); err != nil {
		c.logger.Warn("remote sign-out failed, clearing local session anyway", "error", err)
	}

	c.store.Replace(nil)
	c.notifier.Info("Signed out", "You have been signed out.")
}

// Bootstrap resumes a persisted session on startup. IsLoading stays true
// until the outcome is known. A resumed session past the age ceiling is
// discarded without being installed.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.loading.Store(true)
	defer c.loading.Store(false)

	sess, err := c.provider.ResumeSession(ctx)
	if err != nil {
		c.logger.Info("no session to resume", "error", err)
		return
	}
	if sess == nil {
		return
	}

	if IsExpired(sess, c.now()) {
		c.logger.Info("resumed session past age ceiling, discarding",
			"user_id", sess.Identity.ID,
			"issued_at", sess.IssuedAt,
		)
		if err := c.provider.SignOut(ctx, sess.AccessToken); err != nil {
			c.logger.Warn("remote sign-out failed during bootstrap expiry", "error", err)
		}
		c.notifier.Info("Session expired", "Please sign in again to continue.")
		return
	}

	c.store.Replace(sess)
}
