package client

import (
	"sync"
	"testing"
	"time"
)

func expiredSession(now time.Time) *Session {
	return &Session{
		Identity:    Identity{ID: "u1", Email: "a@b.co"},
		IssuedAt:    now.Add(-MaxSessionAge),
		AccessToken: "tok",
	}
}

func TestMonitorExpiresSessionOnStart(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Replace(expiredSession(now))

	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t),
		WithClock(func() time.Time { return now }),
		WithCheckInterval(time.Hour),
	)
	m.Start()
	defer m.Stop()

	if store.Current() != nil {
		t.Fatal("expired session should have been cleared")
	}
	if got := provider.callCount("SignOut"); got != 1 {
		t.Fatalf("SignOut called %d times, want 1", got)
	}
	notes := notifier.all()
	if len(notes) != 1 {
		t.Fatalf("got %d notifications, want exactly 1: %v", len(notes), notes)
	}
	if notes[0].kind != "info" || notes[0].title != "Session expired" {
		t.Fatalf("unexpected notification %+v", notes[0])
	}
}

func TestMonitorLeavesFreshSessionAlone(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Replace(&Session{
		Identity: Identity{ID: "u1"},
		IssuedAt: now.Add(-MaxSessionAge + time.Second),
	})

	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t),
		WithClock(func() time.Time { return now }),
		WithCheckInterval(time.Hour),
	)
	m.Start()
	defer m.Stop()

	if store.Current() == nil {
		t.Fatal("fresh session should survive the check")
	}
	if notifier.count() != 0 {
		t.Fatalf("got notifications for a fresh session: %v", notifier.all())
	}
}

func TestMonitorCheckAgainstEmptyStoreIsNoOp(t *testing.T) {
	store := NewStore()
	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t))

	m.Check()

	if provider.totalCalls() != 0 {
		t.Fatalf("provider was called %d times for an empty store", provider.totalCalls())
	}
	if notifier.count() != 0 {
		t.Fatalf("got notifications for an empty store: %v", notifier.all())
	}
}

func TestMonitorChecksOnStoreChange(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()

	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t),
		WithClock(func() time.Time { return now }),
		WithCheckInterval(time.Hour),
	)
	m.Start()
	defer m.Stop()

	// Installing an already expired session triggers the subscribed check.
	store.Replace(expiredSession(now))

	if store.Current() != nil {
		t.Fatal("expired session should have been cleared on store change")
	}
	if notifier.count() != 1 {
		t.Fatalf("got %d notifications, want exactly 1: %v", notifier.count(), notifier.all())
	}
}

func TestMonitorConcurrentChecksExpireOnce(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.Replace(expiredSession(now))

	provider := newFakeProvider()
	// A slow remote sign-out widens the window between detecting the
	// expired session and clearing the store.
	provider.signOutFn = func(string) error {
		time.Sleep(50 * time.Millisecond)
		return nil
	}
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t),
		WithClock(func() time.Time { return now }),
	)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Check()
		}()
	}
	wg.Wait()

	if store.Current() != nil {
		t.Fatal("expired session should have been cleared")
	}
	if got := provider.callCount("SignOut"); got != 1 {
		t.Fatalf("SignOut called %d times, want 1", got)
	}
	if got := notifier.count(); got != 1 {
		t.Fatalf("one expiry produced %d notifications, want 1: %v", got, notifier.all())
	}
}

func TestMonitorStopDetachesFromStore(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := NewStore()

	provider := newFakeProvider()
	notifier := &recordingNotifier{}
	m := NewExpiryMonitor(store, provider, notifier, testLogger(t),
		WithClock(func() time.Time { return now }),
		WithCheckInterval(time.Hour),
	)
	m.Start()
	m.Stop()
	m.Stop() // second stop is harmless

	store.Replace(expiredSession(now))

	if store.Current() == nil {
		t.Fatal("stopped monitor should not touch the store")
	}
	if notifier.count() != 0 {
		t.Fatalf("stopped monitor emitted notifications: %v", notifier.all())
	}
}
