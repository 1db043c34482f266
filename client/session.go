// Package client is the session lifecycle SDK for churnpilot front-ends. It
// holds the signed-in session, enforces the 24 hour session ceiling, drives
// the auth flows against a Provider, and exposes route-guard decisions.
package client

import (
	"sync"
	"time"
)

// MaxSessionAge is the hard ceiling on a session's lifetime, measured from
// the moment the credential was issued. Activity does not extend it.
const MaxSessionAge = 24 * time.Hour

type Identity struct {
	ID             string
	Email          string
	EmailConfirmed bool
}

// Session is an immutable snapshot of a signed-in user. It is replaced as a
// whole on every auth transition, never mutated in place.
type Session struct {
	Identity    Identity
	IssuedAt    time.Time
	AccessToken string
	Claims      map[string]interface{}
}

// IsExpired reports whether the session has reached the age ceiling. The
// boundary is inclusive: a session aged exactly MaxSessionAge is expired,
// one second younger is not. A nil session is never expired.
func IsExpired(s *Session, now time.Time) bool {
	if s == nil {
		return false
	}
	return now.Sub(s.IssuedAt) >= MaxSessionAge
}

type subscriber struct {
	id int
	fn func(*Session)
}

// Store holds the current session and fans out changes to subscribers.
// A nil current session means signed out.
type Store struct {
	mu      sync.RWMutex
	current *Session
	subs    []subscriber
	nextID  int
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace installs the new session (nil to sign out) and notifies all
// subscribers in registration order.
func (s *Store) Replace(next *Session) {
	s.mu.Lock()
	s.current = next
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}

// Subscribe registers fn to run on every Replace. The returned function
// removes the subscription; calling it more than once is harmless.
func (s *Store) Subscribe(fn func(*Session)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
