package index

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"ragindex/internal/logger"
)

// Registry is the process-wide cache of collection indexes, keyed by
// collection id. It is an explicitly-owned value handed to the
// service, never a package singleton, so tests can run independent
// registries side by side.
//
// Each entry is loaded exactly once: two concurrent callers for the
// same id always observe the same index instance, and a slow snapshot
// load never blocks callers working on other collections.
type Registry struct {
	dir     string
	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	once sync.Once
	ix   *CollectionIndex
}

// NewRegistry creates a registry persisting snapshots under dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		entries: make(map[string]*registryEntry),
	}
}

// Dir returns the snapshot directory.
func (r *Registry) Dir() string { return r.dir }

// Get returns the collection's index, loading its snapshot (or
// creating an empty index) on first reference.
func (r *Registry) Get(collectionID string) *CollectionIndex {
	r.mu.Lock()
	e, ok := r.entries[collectionID]
	if !ok {
		e = &registryEntry{}
		r.entries[collectionID] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.ix = LoadSnapshot(r.dir, collectionID)
		logger.Debug("collection %q ready: %d documents, %d chunks",
			collectionID, e.ix.DocumentCount(), e.ix.ChunkCount())
	})
	return e.ix
}

// Save persists the collection's current state to its snapshot file.
func (r *Registry) Save(ix *CollectionIndex) error {
	return ix.SaveSnapshot(r.dir)
}

// Drop removes the collection from the cache and deletes its snapshot
// file. It is idempotent: dropping an unknown collection succeeds.
func (r *Registry) Drop(collectionID string) error {
	r.mu.Lock()
	delete(r.entries, collectionID)
	r.mu.Unlock()

	err := os.Remove(SnapshotPath(r.dir, collectionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
