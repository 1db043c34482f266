package client

import (
	"context"
	"log/slog"
	"sync"
)

// ProfileLoader fetches the business profile for the signed-in identity and
// keeps it in step with sign-in and sign-out transitions. An identity without
// a profile is a valid state, not an error.
type ProfileLoader struct {
	store    *Store
	provider Provider
	logger   *slog.Logger

	mu        sync.Mutex
	profile   *Profile
	loadedFor string
}

func NewProfileLoader(store *Store, provider Provider, logger *slog.Logger) *ProfileLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileLoader{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

// Current returns the last loaded profile, or nil when signed out or when
// the identity has no profile yet.
func (l *ProfileLoader) Current() *Profile {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.profile
}

// Load fetches the profile for the current session. If the store's identity
// changes while the fetch is in flight, the response is discarded so a slow
// request for a previous user never overwrites the new user's state.
func (l *ProfileLoader) Load(ctx context.Context) (*Profile, error) {
	sess := l.store.Current()
	if sess == nil {
		l.setProfile(nil, "")
		return nil, nil
	}
	forID := sess.Identity.ID

	prof, err := l.provider.FetchProfile(ctx, sess.AccessToken)
	if err != nil {
		l.logger.Warn("profile load failed", "user_id", forID, "error", err)
		return nil, err
	}

	cur := l.store.Current()
	if cur == nil || cur.Identity.ID != forID {
		l.logger.Info("discarding stale profile response", "fetched_for", forID)
		return nil, nil
	}

	l.setProfile(prof, forID)
	return prof, nil
}

// Bind subscribes the loader to store changes: sign-out clears the cached
// profile, and a new identity triggers a reload. Each reload runs on a fresh
// context, so a caller context that died after binding cannot poison every
// later reload for the life of the subscription. The returned function
// removes the subscription.
func (l *ProfileLoader) Bind() (stop func()) {
	return l.store.Subscribe(func(sess *Session) {
		if sess == nil {
			l.setProfile(nil, "")
			return
		}
		l.mu.Lock()
		same := l.loadedFor == sess.Identity.ID
		l.mu.Unlock()
		if same {
			return
		}
		if _, err := l.Load(context.Background()); err != nil {
			l.logger.Warn("profile reload on identity change failed", "error", err)
		}
	})
}

func (l *ProfileLoader) setProfile(p *Profile, forID string) {
	l.mu.Lock()
	l.profile = p
	l.loadedFor = forID
	l.mu.Unlock()
}
