// Package index holds the in-memory collection indexes and their
// snapshot persistence. One CollectionIndex exists per logical
// collection; a Registry caches them for the life of the process.
package index

import (
	"iter"
	"sync"
	"time"

	"ragindex/internal/domain"
)

// CollectionIndex maps document ids to their ordered chunk lists for
// one collection. All methods are safe for concurrent use; every
// mutation is a single critical section, so racing writers serialize
// rather than interleave.
type CollectionIndex struct {
	mu           sync.RWMutex
	collectionID string
	lastUpdate   time.Time
	order        []string // document insertion order
	documents    map[string][]domain.Chunk
	recovered    bool
}

// New creates an empty index for the collection.
func New(collectionID string) *CollectionIndex {
	return &CollectionIndex{
		collectionID: collectionID,
		documents:    make(map[string][]domain.Chunk),
	}
}

// CollectionID returns the collection this index belongs to.
func (ix *CollectionIndex) CollectionID() string { return ix.collectionID }

// AddDocument atomically replaces any existing chunk set for the
// document with the new set and bumps the last-update timestamp.
// A re-indexed document keeps its original insertion-order slot.
// Empty chunk sets are rejected as a no-op: a document key exists
// only while it has at least one chunk.
func (ix *CollectionIndex) AddDocument(documentID string, chunks []domain.Chunk) {
	if len(chunks) == 0 {
		return
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.documents[documentID]; !exists {
		ix.order = append(ix.order, documentID)
	}
	ix.documents[documentID] = chunks
	ix.lastUpdate = time.Now()
}

// RemoveDocument deletes the document's chunk set. Removing an absent
// document is a no-op and returns false.
func (ix *CollectionIndex) RemoveDocument(documentID string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.documents[documentID]; !exists {
		return false
	}
	delete(ix.documents, documentID)
	for i, id := range ix.order {
		if id == documentID {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
	ix.lastUpdate = time.Now()
	return true
}

// AllChunks enumerates every chunk in document-insertion order, then
// chunk order, without copying the chunk lists. The read lock is held
// for the duration of the iteration; callers must not mutate the same
// collection from inside the loop.
func (ix *CollectionIndex) AllChunks() iter.Seq[domain.Chunk] {
	return func(yield func(domain.Chunk) bool) {
		ix.mu.RLock()
		defer ix.mu.RUnlock()
		for _, id := range ix.order {
			for _, ch := range ix.documents[id] {
				if !yield(ch) {
					return
				}
			}
		}
	}
}

// IsEmpty reports whether the collection has no documents.
func (ix *CollectionIndex) IsEmpty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documents) == 0
}

// DocumentCount returns the number of indexed documents.
func (ix *CollectionIndex) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.documents)
}

// ChunkCount returns the total number of chunks across all documents.
func (ix *CollectionIndex) ChunkCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, chunks := range ix.documents {
		n += len(chunks)
	}
	return n
}

// DocumentNames returns the display names of all indexed documents in
// insertion order.
func (ix *CollectionIndex) DocumentNames() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.order))
	for _, id := range ix.order {
		chunks := ix.documents[id]
		if len(chunks) > 0 {
			names = append(names, chunks[0].DocumentName)
		}
	}
	return names
}

// LastUpdate returns the timestamp of the most recent mutation.
func (ix *CollectionIndex) LastUpdate() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.lastUpdate
}

// Recovered reports whether this index was rebuilt empty because its
// on-disk snapshot was unreadable.
func (ix *CollectionIndex) Recovered() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.recovered
}
