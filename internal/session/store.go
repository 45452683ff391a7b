// Package session holds the current authenticated principal.
//
// The Store is the only writer of the session (Login, Logout, Load); views
// read it through Current and Token. The principal is persisted in a KV
// backend so it survives process restarts.
package session

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrNotFound is returned by KV.Get for missing keys.
var ErrNotFound = errors.New("session key not found")

// KV is the persistence backend. Set and Delete must be atomic across keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Authenticator exchanges credentials for a principal.
type Authenticator interface {
	Login(ctx context.Context, role models.Role, username, password string) (*models.Principal, error)
}

// Store owns the session lifecycle.
type Store struct {
	kv KV

	mu        sync.RWMutex
	principal *models.Principal
	loading   bool
	listeners []func(*models.Principal)
}

// NewStore creates a store; call Load to restore a persisted session.
func NewStore(kv KV) *Store {
	return &Store{kv: kv, loading: true}
}

// OnChange registers fn to run after every login/logout with the new principal (nil when logged out).
func (s *Store) OnChange(fn func(*models.Principal)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Load restores the persisted principal. A corrupt record or an unknown
// role clears the session instead of granting anything.
func (s *Store) Load(ctx context.Context) error {
	s.setLoading(true)
	defer s.setLoading(false)

	raw, err := s.kv.Get(ctx, config.SessionAuthKey)
	if errors.Is(err, ErrNotFound) {
		s.publish(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	var p models.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil || !p.Role.Valid() || p.Token == "" {
		log.Printf("WARN: discarding unusable persisted session (role=%q)", p.Role)
		return s.Logout(ctx)
	}

	s.publish(&p)
	return nil
}

// Login authenticates, persists and publishes the principal.
func (s *Store) Login(ctx context.Context, auth Authenticator, role models.Role, username, password string) (*models.Principal, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("login: %w: %q", models.ErrUnknownRole, role)
	}

	s.setLoading(true)
	defer s.setLoading(false)

	p, err := auth.Login(ctx, role, username, password)
	if err != nil {
		if clearErr := s.clear(ctx); clearErr != nil {
			log.Printf("ERROR: failed to clear session after failed login: %v", clearErr)
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if p.Role != role {
		// The server answered for a different role than requested.
		if clearErr := s.clear(ctx); clearErr != nil {
			log.Printf("ERROR: failed to clear session after role mismatch: %v", clearErr)
		}
		return nil, fmt.Errorf("login: server returned role %q for %q", p.Role, role)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, map[string]string{
		config.SessionAuthKey:  string(raw),
		config.SessionTokenKey: p.Token,
	}); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	s.publish(p)
	return p.Clone(), nil
}

// Logout clears the persisted keys and the in-memory principal.
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

// Current returns a copy of the principal, nil when logged out.
func (s *Store) Current() *models.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal.Clone()
}

// Token returns the bearer token, "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.principal == nil {
		return ""
	}
	return s.principal.Token
}

// IsLoading reports whether a session fetch is in flight.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) clear(ctx context.Context) error {
	err := s.kv.Delete(ctx, config.SessionAuthKey, config.SessionTokenKey)
	s.publish(nil)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) publish(p *models.Principal) {
	s.mu.Lock()
	s.principal = p.Clone()
	listeners := append([]func(*models.Principal){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(p.Clone())
	}
}
