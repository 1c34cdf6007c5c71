// Package session holds the per-user key-value session and decodes the
// identity stored in it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"billed/internal/core"
)

const (
	// KeyUser holds the JSON encoded core.User.
	KeyUser = "user"
	// KeyJWT holds the bearer token forwarded to remote bill sources.
	KeyJWT = "jwt"
)

var ErrNoSession = errors.New("no user in session")

// Store is a string key-value session.
type Store interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	RemoveItem(key string)
}

// MemoryStore is an in-process Store safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

func (s *MemoryStore) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *MemoryStore) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *MemoryStore) RemoveItem(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Current decodes the identity stored under KeyUser.
func Current(s Store) (core.User, error) {
	if s == nil {
		return core.User{}, ErrNoSession
	}
	raw, ok := s.GetItem(KeyUser)
	if !ok || strings.TrimSpace(raw) == "" {
		return core.User{}, ErrNoSession
	}
	var u core.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return core.User{}, fmt.Errorf("%w: decode user: %v", ErrNoSession, err)
	}
	if u.Email == "" {
		return core.User{}, ErrNoSession
	}
	return u, nil
}

// Save stores u under KeyUser.
func Save(s Store, u core.User) error {
	buf, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	s.SetItem(KeyUser, string(buf))
	return nil
}

// Token returns the stored JWT, or "" when absent.
func Token(s Store) string {
	if s == nil {
		return ""
	}
	tok, _ := s.GetItem(KeyJWT)
	return tok
}

// Clear removes the identity and token.
func Clear(s Store) {
	s.RemoveItem(KeyUser)
	s.RemoveItem(KeyJWT)
}

type ctxKey struct{}

// WithStore returns a context carrying s.
func WithStore(ctx context.Context, s Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithStore, or nil.
func FromContext(ctx context.Context) Store {
	if s, ok := ctx.Value(ctxKey{}).(Store); ok {
		return s
	}
	return nil
}

// TokenFromContext returns the JWT of the request session, for outbound calls.
func TokenFromContext(ctx context.Context) string {
	return Token(FromContext(ctx))
}
