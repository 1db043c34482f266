package client

import (
	"errors"
	"log/slog"
	"sync"
)

func asProviderError(err error, target **ProviderError) bool {
	return errors.As(err, target)
}

// LogNotifier surfaces notifications through the structured logger. Useful
// for headless consumers; interactive front-ends supply their own Notifier.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slog.Default()
}

func (n LogNotifier) Success(title, message string) {
	n.logger().Info("notification", "kind", "success", "title", title, "message", message)
}

func (n LogNotifier) Error(title, message string) {
	n.logger().Warn("notification", "kind", "error", "title", title, "message", message)
}

func (n LogNotifier) Info(title, message string) {
	n.logger().Info("notification", "kind", "info", "title", title, "message", message)
}

// MemoryTokenStore keeps the credential in process memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
	set   bool
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.set
}

func (s *MemoryTokenStore) Save(token string) {
	s.mu.Lock()
	s.token = token
	s.set = true
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.mu.Lock()
	s.token = ""
	s.set = false
	s.mu.Unlock()
}
