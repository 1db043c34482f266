package client

import (
	"testing"
	"time"
)

func TestIsExpired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := &Session{IssuedAt: issued}

	tests := []struct {
		name string
		s    *Session
		now  time.Time
		want bool
	}{
		{"nil session", nil, issued.Add(48 * time.Hour), false},
		{"fresh", sess, issued.Add(time.Minute), false},
		{"one second before ceiling", sess, issued.Add(24*time.Hour - time.Second), false},
		{"exactly at ceiling", sess, issued.Add(24 * time.Hour), true},
		{"past ceiling", sess, issued.Add(25 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsExpired(tt.s, tt.now); got != tt.want {
				t.Fatalf("IsExpired(%v) = %v, want %v", tt.now.Sub(issued), got, tt.want)
			}
		})
	}
}

func TestStoreReplaceNotifiesInOrder(t *testing.T) {
	store := NewStore()

	var order []string
	store.Subscribe(func(*Session) { order = append(order, "first") })
	store.Subscribe(func(*Session) { order = append(order, "second") })

	store.Replace(&Session{Identity: Identity{ID: "u1"}})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("subscribers ran out of order: %v", order)
	}
	if got := store.Current(); got == nil || got.Identity.ID != "u1" {
		t.Fatalf("Current() = %+v, want identity u1", got)
	}
}

func TestStoreReplaceNilSignsOut(t *testing.T) {
	store := NewStore()
	store.Replace(&Session{Identity: Identity{ID: "u1"}})

	var seen []*Session
	store.Subscribe(func(s *Session) { seen = append(seen, s) })

	store.Replace(nil)

	if store.Current() != nil {
		t.Fatal("Current() should be nil after sign-out")
	}
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("subscriber should have seen one nil session, got %v", seen)
	}
}

func TestStoreUnsubscribe(t *testing.T) {
	store := NewStore()

	calls := 0
	unsub := store.Subscribe(func(*Session) { calls++ })

	store.Replace(nil)
	unsub()
	unsub() // second call is harmless
	store.Replace(&Session{})

	if calls != 1 {
		t.Fatalf("subscriber ran %d times, want 1", calls)
	}
}
