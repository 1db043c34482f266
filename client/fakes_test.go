package client

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

// fakeProvider counts calls and delegates to optional function fields.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	signInFn          func(email, password string) (*Session, error)
	signUpFn          func(params SignUpParams) (*Identity, error)
	verifyEmailFn     func(email, token string) error
	resendFn          func(email string) error
	signOutFn         func(accessToken string) error
	resumeFn          func() (*Session, error)
	fetchProfileFn    func(ctx context.Context, accessToken string) (*Profile, error)
	createProfileFn   func(accessToken, fullName, businessName string) error
	confirmCheckoutFn func(accessToken, sessionID, userID string) (*CheckoutResult, error)
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{calls: make(map[string]int)}
}

func (f *fakeProvider) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeProvider) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeProvider) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (*Session, error) {
	f.record("SignIn")
	if f.signInFn != nil {
		return f.signInFn(email, password)
	}
	return nil, nil
}

func (f *fakeProvider) SignUp(_ context.Context, params SignUpParams) (*Identity, error) {
	f.record("SignUp")
	if f.signUpFn != nil {
		return f.signUpFn(params)
	}
	return &Identity{ID: "u1", Email: params.Email}, nil
}

func (f *fakeProvider) VerifyEmail(_ context.Context, email, token string) error {
	f.record("VerifyEmail")
	if f.verifyEmailFn != nil {
		return f.verifyEmailFn(email, token)
	}
	return nil
}

func (f *fakeProvider) ResendVerification(_ context.Context, email string) error {
	f.record("ResendVerification")
	if f.resendFn != nil {
		return f.resendFn(email)
	}
	return nil
}

func (f *fakeProvider) SignOut(_ context.Context, accessToken string) error {
	f.record("SignOut")
	if f.signOutFn != nil {
		return f.signOutFn(accessToken)
	}
	return nil
}

func (f *fakeProvider) ResumeSession(_ context.Context) (*Session, error) {
	f.record("ResumeSession")
	if f.resumeFn != nil {
		return f.resumeFn()
	}
	return nil, nil
}

func (f *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	f.record("FetchProfile")
	if f.fetchProfileFn != nil {
		return f.fetchProfileFn(ctx, accessToken)
	}
	return nil, nil
}

func (f *fakeProvider) CreateProfile(_ context.Context, accessToken, fullName, businessName string) error {
	f.record("CreateProfile")
	if f.createProfileFn != nil {
		return f.createProfileFn(accessToken, fullName, businessName)
	}
	return nil
}

func (f *fakeProvider) ConfirmCheckout(_ context.Context, accessToken, sessionID, userID string) (*CheckoutResult, error) {
	f.record("ConfirmCheckout")
	if f.confirmCheckoutFn != nil {
		return f.confirmCheckoutFn(accessToken, sessionID, userID)
	}
	return &CheckoutResult{Success: true}, nil
}

type notification struct {
	kind    string
	title   string
	message string
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []notification
}

func (n *recordingNotifier) Success(title, message string) { n.add("success", title, message) }
func (n *recordingNotifier) Error(title, message string)   { n.add("error", title, message) }
func (n *recordingNotifier) Info(title, message string)    { n.add("info", title, message) }

func (n *recordingNotifier) add(kind, title, message string) {
	n.mu.Lock()
	n.notes = append(n.notes, notification{kind: kind, title: title, message: message})
	n.mu.Unlock()
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification, len(n.notes))
	copy(out, n.notes)
	return out
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
