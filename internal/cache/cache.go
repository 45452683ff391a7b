// Package cache keeps the in-memory complaint collection that backs list and
// detail views, scoped to what the current viewer is allowed to see.
//
// Loads replace the whole collection; reconciliation only replaces entries
// already present. Concurrent responses for the same id are last-write-wins:
// no version counter is kept, so callers needing strict ordering serialize per id.
package cache

import (
	"complaintportal/backend/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned by SelectByID for ids outside the current collection.
var ErrNotFound = errors.New("complaint not found in cache")

// ScopeKind names the query dimension of a load.
type ScopeKind string

const (
	KindAll        ScopeKind = "all"
	KindAssignedTo ScopeKind = "assigned"
	KindOpen       ScopeKind = "open"
	KindFiledBy    ScopeKind = "student"
)

// Scope selects which complaints populate the cache. It maps to exactly one remote query.
type Scope struct {
	Kind ScopeKind
	// ID is the admin id for KindAssignedTo and the student id for KindFiledBy.
	ID string
}

// All is every complaint (admin and triage views).
func All() Scope { return Scope{Kind: KindAll} }

// AssignedTo is the complaints assigned to one admin.
func AssignedTo(adminID string) Scope { return Scope{Kind: KindAssignedTo, ID: adminID} }

// OpenForTriage is the complaints awaiting triage.
func OpenForTriage() Scope { return Scope{Kind: KindOpen} }

// FiledBy is the complaints a student filed.
func FiledBy(studentID string) Scope { return Scope{Kind: KindFiledBy, ID: studentID} }

// Validate rejects scopes that cannot resolve to a single query.
func (s Scope) Validate() error {
	switch s.Kind {
	case KindAll, KindOpen:
		return nil
	case KindAssignedTo, KindFiledBy:
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("scope %s requires an id", s.Kind)
		}
		return nil
	default:
		return fmt.Errorf("unknown scope %q", s.Kind)
	}
}

func (s Scope) String() string {
	if s.ID == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.ID
}

// Fetcher performs the remote query for a scope.
type Fetcher interface {
	Fetch(ctx context.Context, scope Scope) ([]models.Complaint, error)
}

// Cache is safe for concurrent use; network calls happen outside the lock.
type Cache struct {
	fetcher Fetcher

	mu     sync.RWMutex
	scope  Scope
	loaded bool
	items  []models.Complaint
	index  map[string]int
}

// New creates an empty cache.
func New(f Fetcher) *Cache {
	return &Cache{fetcher: f, index: make(map[string]int)}
}

// Load fetches scope and replaces the collection. On failure the previous
// contents stay intact. If ctx is done by the time the answer arrives the
// result is discarded, so a view that went away never gets updated.
func (c *Cache) Load(ctx context.Context, scope Scope) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	items, err := c.fetcher.Fetch(ctx, scope)
	if err != nil {
		return fmt.Errorf("load %s: %w", scope, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	index := make(map[string]int, len(items))
	fresh := make([]models.Complaint, 0, len(items))
	for _, item := range items {
		if pos, dup := index[item.ID]; dup {
			fresh[pos] = item.Clone()
			continue
		}
		index[item.ID] = len(fresh)
		fresh = append(fresh, item.Clone())
	}

	c.mu.Lock()
	c.items = fresh
	c.index = index
	c.scope = scope
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Reconcile replaces the entry with the same id by the server-confirmed record.
// Records absent from the collection belong to another scope and are dropped.
func (c *Cache) Reconcile(rec models.Complaint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[rec.ID]
	if !ok {
		return false
	}
	c.items[pos] = rec.Clone()
	return true
}

// SelectByID returns a copy of the cached complaint.
func (c *Cache) SelectByID(id string) (models.Complaint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pos, ok := c.index[id]
	if !ok {
		return models.Complaint{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.items[pos].Clone(), nil
}

// Snapshot returns a copy of the collection in load order.
func (c *Cache) Snapshot() []models.Complaint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Complaint, len(c.items))
	for i, item := range c.items {
		out[i] = item.Clone()
	}
	return out
}

// Len is the number of cached complaints.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Scope returns the scope of the last successful load and whether one happened.
func (c *Cache) Scope() (Scope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scope, c.loaded
}

// Clear empties the collection, e.g. on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = nil
	c.index = make(map[string]int)
	c.scope = Scope{}
	c.loaded = false
	c.mu.Unlock()
}
