package client

import (
	"context"
	"testing"
)

func signedInStore(id, email string) *Store {
	store := NewStore()
	store.Replace(&Session{Identity: Identity{ID: id, Email: email}, AccessToken: "tok-" + id})
	return store
}

func TestProfileLoaderLoads(t *testing.T) {
	store := signedInStore("u1", "a@b.co")
	provider := newFakeProvider()
	provider.fetchProfileFn = func(_ context.Context, accessToken string) (*Profile, error) {
		return &Profile{ID: "u1", BusinessName: "Acme", AccountType: "trial", Classification: "trialing"}, nil
	}
	l := NewProfileLoader(store, provider, testLogger(t))

	prof, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if prof == nil || prof.BusinessName != "Acme" {
		t.Fatalf("profile = %+v", prof)
	}
	if l.Current() != prof {
		t.Fatal("Current() should return the loaded profile")
	}
}

func TestProfileLoaderAbsentProfileIsNotAnError(t *testing.T) {
	store := signedInStore("u1", "a@b.co")
	provider := newFakeProvider() // FetchProfile returns (nil, nil)
	l := NewProfileLoader(store, provider, testLogger(t))

	prof, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("absent profile must not error: %v", err)
	}
	if prof != nil {
		t.Fatalf("profile = %+v, want nil", prof)
	}
}

func TestProfileLoaderDiscardsStaleResponse(t *testing.T) {
	store := signedInStore("u1", "a@b.co")
	provider := newFakeProvider()
	provider.fetchProfileFn = func(_ context.Context, accessToken string) (*Profile, error) {
		// The user signs out and back in as someone else mid-flight.
		store.Replace(&Session{Identity: Identity{ID: "u2"}, AccessToken: "tok-u2"})
		return &Profile{ID: "u1", BusinessName: "Stale Co"}, nil
	}
	l := NewProfileLoader(store, provider, testLogger(t))

	prof, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if prof != nil {
		t.Fatalf("stale response must be discarded, got %+v", prof)
	}
	if l.Current() != nil {
		t.Fatalf("stale profile cached: %+v", l.Current())
	}
}

func TestProfileLoaderSignedOut(t *testing.T) {
	l := NewProfileLoader(NewStore(), newFakeProvider(), testLogger(t))

	prof, err := l.Load(context.Background())
	if err != nil || prof != nil {
		t.Fatalf("signed-out load = (%+v, %v), want (nil, nil)", prof, err)
	}
}

func TestProfileLoaderBindReloadsOnIdentityChange(t *testing.T) {
	store := NewStore()
	provider := newFakeProvider()
	provider.fetchProfileFn = func(_ context.Context, accessToken string) (*Profile, error) {
		cur := store.Current()
		if cur == nil {
			return nil, nil
		}
		return &Profile{ID: cur.Identity.ID, BusinessName: "Biz " + cur.Identity.ID}, nil
	}
	l := NewProfileLoader(store, provider, testLogger(t))

	stop := l.Bind()
	defer stop()

	store.Replace(&Session{Identity: Identity{ID: "u1"}, AccessToken: "tok-u1"})
	if got := l.Current(); got == nil || got.ID != "u1" {
		t.Fatalf("profile after first sign-in = %+v", got)
	}

	store.Replace(&Session{Identity: Identity{ID: "u2"}, AccessToken: "tok-u2"})
	if got := l.Current(); got == nil || got.ID != "u2" {
		t.Fatalf("profile after identity change = %+v", got)
	}

	store.Replace(nil)
	if l.Current() != nil {
		t.Fatal("sign-out must clear the cached profile")
	}
}

func TestProfileLoaderBindReloadsOutliveCallerContext(t *testing.T) {
	store := NewStore()
	provider := newFakeProvider()
	provider.fetchProfileFn = func(ctx context.Context, accessToken string) (*Profile, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := store.Current()
		if cur == nil {
			return nil, nil
		}
		return &Profile{ID: cur.Identity.ID}, nil
	}
	l := NewProfileLoader(store, provider, testLogger(t))

	// The caller's own context dies right away; subscription-driven reloads
	// must not inherit it.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx); err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}

	stop := l.Bind()
	defer stop()

	store.Replace(&Session{Identity: Identity{ID: "u1"}, AccessToken: "tok-u1"})
	if got := l.Current(); got == nil || got.ID != "u1" {
		t.Fatalf("reload after cancelled caller context = %+v, want profile u1", got)
	}
}
