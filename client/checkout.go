package client

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DashboardRedirectDelay is how long the confirmation result stays on screen
// before the user is sent to the dashboard.
const DashboardRedirectDelay = 5 * time.Second

var (
	ErrMissingCheckoutSession = errors.New("missing checkout session id")
	ErrNotSignedIn            = errors.New("not signed in")
)

// CheckoutConfirmer verifies a completed Stripe checkout with the backend
// and schedules the post-confirmation dashboard redirect. It makes exactly
// one confirmation request per call and never retries on its own; the
// backend confirm endpoint is idempotent, so invoking Confirm again with the
// same session id is safe.
type CheckoutConfirmer struct {
	store    *Store
	provider Provider
	notifier Notifier
	logger   *slog.Logger

	redirectDelay time.Duration
	navigate      func(path string)
	schedule      func(d time.Duration, fn func())
}

type ConfirmerOption func(*CheckoutConfirmer)

// WithNavigate sets the redirect target handler.
func WithNavigate(fn func(path string)) ConfirmerOption {
	return func(cc *CheckoutConfirmer) { cc.navigate = fn }
}

// WithScheduler overrides the delayed-call mechanism. Tests run the redirect
// synchronously.
func WithScheduler(fn func(d time.Duration, f func())) ConfirmerOption {
	return func(cc *CheckoutConfirmer) { cc.schedule = fn }
}

func NewCheckoutConfirmer(store *Store, provider Provider, notifier Notifier, logger *slog.Logger, opts ...ConfirmerOption) *CheckoutConfirmer {
	if logger == nil {
		logger = slog.Default()
	}
	cc := &CheckoutConfirmer{
		store:         store,
		provider:      provider,
		notifier:      notifier,
		logger:        logger,
		redirectDelay: DashboardRedirectDelay,
		navigate:      func(string) {},
		schedule: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// Confirm verifies the checkout session with the backend. A blank session id
// or a signed-out store fails locally with no network traffic. On success
// the dashboard redirect is scheduled after a fixed delay.
func (cc *CheckoutConfirmer) Confirm(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	if sessionID == "" {
		cc.notifier.Error("Missing checkout session ID", "Return to the pricing page and try again.")
		return nil, ErrMissingCheckoutSession
	}

	sess := cc.store.Current()
	if sess == nil {
		cc.notifier.Error("Sign in required", "Sign in to confirm your subscription.")
		return nil, ErrNotSignedIn
	}

	result, err := cc.provider.ConfirmCheckout(ctx, sess.AccessToken, sessionID, sess.Identity.ID)
	if err != nil {
		cc.logger.Warn("checkout confirmation failed", "session_id", sessionID, "error", err)
		cc.notifier.Error("Confirmation failed", "Your subscription could not be verified. Please contact support if you were charged.")
		return nil, err
	}
	if !result.Success {
		cc.logger.Warn("checkout session has no subscription", "session_id", sessionID, "status", result.Status)
		cc.notifier.Error("Confirmation failed", "Your subscription could not be verified. Please contact support if you were charged.")
		return result, nil
	}

	cc.logger.Info("subscription confirmed",
		"plan", result.Plan,
		"status", result.Status,
		"is_trial", result.IsTrial,
	)
	cc.notifier.Success("Subscription confirmed", "Welcome aboard! Taking you to your dashboard.")
	cc.schedule(cc.redirectDelay, func() { cc.navigate("/dashboard") })
	return result, nil
}
