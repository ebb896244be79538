// Package memcache provides an in-memory snapshot repository,
// for tests and for short-lived processes that only want request-scope caching.
package memcache

import (
	"context"
	"sync"

	"go.llib.dev/datakit/pkg/dataload"
)

// NewRepository creates an empty in-memory snapshot repository.
func NewRepository() *Repository {
	return &Repository{snapshots: make(map[string]dataload.Snapshot)}
}

// Repository implements dataload.Repository in process memory.
// It is safe for concurrent use.
type Repository struct {
	mutex     sync.RWMutex
	snapshots map[string]dataload.Snapshot
}

func (r *Repository) Lookup(ctx context.Context, key string) (dataload.Snapshot, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	snap, found := r.snapshots[key]
	return snap, found, nil
}

func (r *Repository) Store(ctx context.Context, key string, snap dataload.Snapshot) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.snapshots[key] = snap
	return nil
}
