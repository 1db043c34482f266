package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// API is the HTTP Provider implementation targeting the churnpilot backend.
type API struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  *slog.Logger
}

type APIOption func(*API)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) APIOption {
	return func(a *API) { a.http = hc }
}

func NewAPI(baseURL string, tokens TokenStore, logger *slog.Logger, opts ...APIOption) *API {
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	a := &API{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type identityPayload struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func (p identityPayload) toIdentity() Identity {
	return Identity{ID: p.ID, Email: p.Email, EmailConfirmed: p.EmailConfirmed}
}

func (a *API) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		Token    string          `json:"token"`
		IssuedAt int64           `json:"issued_at"`
		User     identityPayload `json:"user"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, err
	}

	a.tokens.Save(resp.Token)
	return a.buildSession(resp.Token, resp.IssuedAt, resp.User), nil
}

func (a *API) SignUp(ctx context.Context, params SignUpParams) (*Identity, error) {
	var resp struct {
		User identityPayload `json:"user"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/register", "", map[string]string{
		"email":         params.Email,
		"password":      params.Password,
		"full_name":     params.FullName,
		"business_name": params.BusinessName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	ident := resp.User.toIdentity()
	return &ident, nil
}

func (a *API) VerifyEmail(ctx context.Context, email, token string) error {
	return a.doJSON(ctx, http.MethodPost, "/verify-otp", "", map[string]string{
		"email": email,
		"token": token,
		"type":  "signup",
	}, nil)
}

func (a *API) ResendVerification(ctx context.Context, email string) error {
	return a.doJSON(ctx, http.MethodPost, "/resend-verification", "", map[string]string{
		"email": email,
	}, nil)
}

// SignOut drops the persisted credential before the remote call, so the
// local session dies even when the network does not cooperate.
func (a *API) SignOut(ctx context.Context, accessToken string) error {
	a.tokens.Clear()
	if accessToken == "" {
		return nil
	}
	return a.doJSON(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (a *API) ResumeSession(ctx context.Context) (*Session, error) {
	token, ok := a.tokens.Load()
	if !ok || token == "" {
		return nil, nil
	}

	var resp struct {
		User     identityPayload `json:"user"`
		IssuedAt int64           `json:"issued_at"`
	}
	err := a.doJSON(ctx, http.MethodGet, "/session", token, nil, &resp)
	if err != nil {
		var pe *ProviderError
		if asProviderError(err, &pe) && pe.StatusCode == http.StatusUnauthorized {
			a.tokens.Clear()
			return nil, nil
		}
		return nil, err
	}

	return a.buildSession(token, resp.IssuedAt, resp.User), nil
}

func (a *API) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var resp struct {
		Profile *struct {
			ID                 string     `json:"id"`
			FullName           string     `json:"full_name"`
			BusinessName       string     `json:"business_name"`
			AccountType        string     `json:"account_type"`
			SubscriptionStatus *string    `json:"subscription_status"`
			SubscriptionPlan   *string    `json:"subscription_plan"`
			TrialEndsAt        *time.Time `json:"trial_ends_at"`
			CurrentPeriodEnd   *time.Time `json:"subscription_current_period_end"`
			Classification     string     `json:"classification"`
		} `json:"profile"`
	}
	err := a.doJSON(ctx, http.MethodGet, "/me", accessToken, nil, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Profile == nil {
		return nil, nil
	}

	p := &Profile{
		ID:               resp.Profile.ID,
		FullName:         resp.Profile.FullName,
		BusinessName:     resp.Profile.BusinessName,
		AccountType:      resp.Profile.AccountType,
		TrialEndsAt:      resp.Profile.TrialEndsAt,
		CurrentPeriodEnd: resp.Profile.CurrentPeriodEnd,
		Classification:   resp.Profile.Classification,
	}
	if resp.Profile.SubscriptionStatus != nil {
		p.SubscriptionStatus = *resp.Profile.SubscriptionStatus
	}
	if resp.Profile.SubscriptionPlan != nil {
		p.SubscriptionPlan = *resp.Profile.SubscriptionPlan
	}
	return p, nil
}

// CreateProfile provisions the initial trial profile. An already existing
// profile is not an error; the call is a self-heal for lost sign-up writes.
func (a *API) CreateProfile(ctx context.Context, accessToken, fullName, businessName string) error {
	err := a.doJSON(ctx, http.MethodPost, "/profiles", accessToken, map[string]string{
		"full_name":     fullName,
		"business_name": businessName,
	}, nil)
	var pe *ProviderError
	if asProviderError(err, &pe) && pe.StatusCode == http.StatusConflict {
		return nil
	}
	return err
}

func (a *API) ConfirmCheckout(ctx context.Context, accessToken, sessionID, userID string) (*CheckoutResult, error) {
	var resp struct {
		Success     bool       `json:"success"`
		Plan        string     `json:"plan"`
		Status      string     `json:"status"`
		AccountType string     `json:"account_type"`
		IsTrial     bool       `json:"is_trial"`
		TrialEndsAt *time.Time `json:"trial_ends_at"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/confirm-subscription", accessToken, map[string]string{
		"session_id": sessionID,
		"user_id":    userID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Success:     resp.Success,
		Plan:        resp.Plan,
		Status:      resp.Status,
		AccountType: resp.AccountType,
		IsTrial:     resp.IsTrial,
		TrialEndsAt: resp.TrialEndsAt,
	}, nil
}

// StartCheckout opens a subscription checkout session for a catalog price
// lookup key and returns the hosted payment page URL.
func (a *API) StartCheckout(ctx context.Context, accessToken, priceLookupKey string) (sessionID, url string, err error) {
	var resp struct {
		SessionID string `json:"session_id"`
		URL       string `json:"url"`
	}
	err = a.doJSON(ctx, http.MethodPost, "/create-checkout-session", accessToken, map[string]string{
		"price_id": priceLookupKey,
	}, &resp)
	if err != nil {
		return "", "", err
	}
	return resp.SessionID, resp.URL, nil
}

func (a *API) buildSession(token string, issuedAt int64, user identityPayload) *Session {
	issued := time.Unix(issuedAt, 0)

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		a.logger.Warn("could not decode session token claims", "error", err)
		claims = jwt.MapClaims{}
	}

	return &Session{
		Identity:    user.toIdentity(),
		IssuedAt:    issued,
		AccessToken: token,
		Claims:      map[string]interface{}(claims),
	}
}

func (a *API) doJSON(ctx context.Context, method, path, bearer string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		pe := &ProviderError{StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			pe.Message = payload.Error
			pe.Code = payload.Code
		}
		if pe.Message == "" {
			pe.Message = http.StatusText(resp.StatusCode)
		}
		return pe
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
