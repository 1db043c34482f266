package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSignInUnconfirmedEmail(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"structured code", &ProviderError{StatusCode: 403, Code: "email_not_confirmed", Message: "Email not confirmed"}},
		{"message substring only", &ProviderError{StatusCode: 400, Message: "Email not confirmed"}},
		{"plain error text", errors.New("Email not confirmed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			provider := newFakeProvider()
			provider.signInFn = func(email, password string) (*Session, error) {
				return nil, tt.err
			}
			notifier := &recordingNotifier{}
			c := NewController(store, provider, notifier, testLogger(t))

			res, err := c.SignIn(context.Background(), "a@b.co", "pw")
			if err == nil {
				t.Fatal("expected the provider error back")
			}
			if !res.EmailVerificationNeeded {
				t.Fatal("EmailVerificationNeeded should be set")
			}
			if store.Current() != nil {
				t.Fatal("store must not change on a rejected sign-in")
			}
			if notifier.count() != 0 {
				t.Fatalf("no failure notification expected, got %v", notifier.all())
			}
		})
	}
}

func TestSignInFailureNotifies(t *testing.T) {
	store := NewStore()
	provider := newFakeProvider()
	provider.signInFn = func(email, password string) (*Session, error) {
		return nil, &ProviderError{StatusCode: 401, Message: "Invalid credentials"}
	}
	notifier := &recordingNotifier{}
	c := NewController(store, provider, notifier, testLogger(t))

	res, err := c.SignIn(context.Background(), "a@b.co", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if res.EmailVerificationNeeded {
		t.Fatal("bad credentials are not a verification problem")
	}
	notes := notifier.all()
	if len(notes) != 1 || notes[0].kind != "error" {
		t.Fatalf("want one error notification, got %v", notes)
	}
}

func TestSignInSuccess(t *testing.T) {
	store := NewStore()
	sess := &Session{Identity: Identity{ID: "u1", Email: "a@b.co", EmailConfirmed: true}, IssuedAt: time.Now()}
	provider := newFakeProvider()
	provider.signInFn = func(email, password string) (*Session, error) { return sess, nil }
	notifier := &recordingNotifier{}
	c := NewController(store, provider, notifier, testLogger(t))

	res, err := c.SignIn(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if res.Session != sess || store.Current() != sess {
		t.Fatal("store should hold the provider session")
	}
	notes := notifier.all()
	if len(notes) != 1 || notes[0].kind != "success" {
		t.Fatalf("want one welcome notification, got %v", notes)
	}
}

func TestSignUpValidatesBeforeNetwork(t *testing.T) {
	base := SignUpParams{
		Email:        "a@b.co",
		Password:     "secret123",
		FullName:     "Ada L",
		BusinessName: "Acme",
	}

	tests := []struct {
		name    string
		mutate  func(*SignUpParams)
		confirm string
		wantErr error
	}{
		{"blank email", func(p *SignUpParams) { p.Email = "  " }, "secret123", ErrMissingFields},
		{"blank password", func(p *SignUpParams) { p.Password = "" }, "", ErrMissingFields},
		{"blank full name", func(p *SignUpParams) { p.FullName = "" }, "secret123", ErrMissingFields},
		{"blank business name", func(p *SignUpParams) { p.BusinessName = "" }, "secret123", ErrMissingFields},
		{"password mismatch", func(*SignUpParams) {}, "different", ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			notifier := &recordingNotifier{}
			c := NewController(NewStore(), provider, notifier, testLogger(t))

			params := base
			tt.mutate(&params)

			_, err := c.SignUp(context.Background(), params, tt.confirm)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if provider.totalCalls() != 0 {
				t.Fatalf("validation failure must not reach the provider, got %d calls", provider.totalCalls())
			}
			if notifier.count() != 1 {
				t.Fatalf("want one failure notification, got %v", notifier.all())
			}
		})
	}
}

func TestSignUpSuccess(t *testing.T) {
	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	c := NewController(NewStore(), provider, notifier, testLogger(t))

	ident, err := c.SignUp(context.Background(), SignUpParams{
		Email:        "a@b.co",
		Password:     "secret123",
		FullName:     "Ada L",
		BusinessName: "Acme",
	}, "secret123")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if ident == nil || ident.Email != "a@b.co" {
		t.Fatalf("identity = %+v", ident)
	}
	if got := provider.callCount("SignUp"); got != 1 {
		t.Fatalf("SignUp called %d times, want 1", got)
	}
}

func TestVerifyEmailUpdatesMatchingSession(t *testing.T) {
	store := NewStore()
	store.Replace(&Session{Identity: Identity{ID: "u1", Email: "A@B.co", EmailConfirmed: false}})

	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	c := NewController(store, provider, notifier, testLogger(t))

	if err := c.VerifyEmail(context.Background(), "a@b.co", "123456"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	cur := store.Current()
	if cur == nil || !cur.Identity.EmailConfirmed {
		t.Fatalf("session identity not refreshed: %+v", cur)
	}
}

func TestVerifyEmailLeavesOtherSessionAlone(t *testing.T) {
	store := NewStore()
	store.Replace(&Session{Identity: Identity{ID: "u2", Email: "other@b.co", EmailConfirmed: false}})

	provider := newFakeProvider()
	c := NewController(store, provider, &recordingNotifier{}, testLogger(t))

	if err := c.VerifyEmail(context.Background(), "a@b.co", "123456"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if store.Current().Identity.EmailConfirmed {
		t.Fatal("a different identity's session must not be touched")
	}
}

func TestResendVerificationSurfacesRateLimit(t *testing.T) {
	provider := newFakeProvider()
	provider.resendFn = func(email string) error {
		return &ProviderError{StatusCode: 429, Code: "rate_limit_exceeded", Message: "Too many verification emails requested. Please try again later."}
	}
	notifier := &recordingNotifier{}
	c := NewController(NewStore(), provider, notifier, testLogger(t))

	err := c.ResendVerificationEmail(context.Background(), "a@b.co")
	if err == nil {
		t.Fatal("rate limit must surface as an error")
	}
	notes := notifier.all()
	if len(notes) != 1 || notes[0].kind != "error" {
		t.Fatalf("want one error notification, got %v", notes)
	}
}

func TestSignOutClearsStoreEvenWhenRemoteFails(t *testing.T) {
	store := NewStore()
	store.Replace(&Session{Identity: Identity{ID: "u1"}, AccessToken: "tok"})

	provider := newFakeProvider()
	provider.signOutFn = func(string) error { return errors.New("network down") }
	notifier := &recordingNotifier{}
	c := NewController(store, provider, notifier, testLogger(t))

	c.SignOut(context.Background())

	if store.Current() != nil {
		t.Fatal("local session must be cleared regardless of remote outcome")
	}
	if notifier.count() != 1 {
		t.Fatalf("want exactly one notification, got %v", notifier.all())
	}
}

func TestBootstrapInstallsResumedSession(t *testing.T) {
	store := NewStore()
	sess := &Session{Identity: Identity{ID: "u1"}, IssuedAt: time.Now()}
	provider := newFakeProvider()
	provider.resumeFn = func() (*Session, error) { return sess, nil }
	c := NewController(store, provider, &recordingNotifier{}, testLogger(t))

	c.Bootstrap(context.Background())

	if store.Current() != sess {
		t.Fatal("resumed session should be installed")
	}
	if c.IsLoading() {
		t.Fatal("loading must be false once bootstrap resolves")
	}
}

func TestBootstrapDiscardsExpiredSession(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	provider := newFakeProvider()
	provider.resumeFn = func() (*Session, error) {
		return &Session{Identity: Identity{ID: "u1"}, IssuedAt: now.Add(-25 * time.Hour), AccessToken: "tok"}, nil
	}
	notifier := &recordingNotifier{}
	c := NewController(store, provider, notifier, testLogger(t))
	c.now = func() time.Time { return now }

	c.Bootstrap(context.Background())

	if store.Current() != nil {
		t.Fatal("expired session must not be installed")
	}
	if got := provider.callCount("SignOut"); got != 1 {
		t.Fatalf("SignOut called %d times, want 1", got)
	}
	notes := notifier.all()
	if len(notes) != 1 || notes[0].title != "Session expired" {
		t.Fatalf("want the neutral expiry notification, got %v", notes)
	}
}

func TestBootstrapNoSession(t *testing.T) {
	store := NewStore()
	c := NewController(store, newFakeProvider(), &recordingNotifier{}, testLogger(t))

	c.Bootstrap(context.Background())

	if store.Current() != nil {
		t.Fatal("nothing to resume, store should stay empty")
	}
}
