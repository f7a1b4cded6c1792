package domain

import (
	"context"
	"time"
)

// DocumentRef identifies a document handed to the indexing engine.
// The engine treats it as opaque metadata; content arrives separately
// as already-extracted plain text.
type DocumentRef struct {
	ID          string
	Name        string
	ContentType string
}

// Chunk is one indexed slice of a document paired with its embedding.
// Chunks are immutable once created; re-indexing a document replaces
// its entire chunk set. Within one collection every embedding has the
// same length.
type Chunk struct {
	DocumentID   string    `json:"document_id"`
	DocumentName string    `json:"document_name"`
	DocumentType string    `json:"document_type"`
	ChunkIndex   int       `json:"chunk_index"`
	Text         string    `json:"text"`
	Embedding    []float64 `json:"embedding"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IndexStats summarizes the state of one collection's index.
type IndexStats struct {
	CollectionID  string
	DocumentCount int
	ChunkCount    int
	LastUpdate    time.Time
	DocumentNames []string
	// Recovered is true when the collection was rebuilt empty after a
	// corrupt snapshot was found on disk.
	Recovered bool
}

// EmbedResult is the outcome of one embedding request. When Embedded
// is false the provider call failed and Vector is a zero-valued
// fallback of the expected dimensionality.
type EmbedResult struct {
	Vector   []float64
	Embedded bool
}

// Embedder converts free text into numeric vectors. Implementations
// never fail outright: a provider error yields a zero-vector fallback
// so one bad chunk cannot abort an entire indexing run.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) EmbedResult
	EmbedBatch(ctx context.Context, texts []string) []EmbedResult
}

// Chunker splits raw text into word-bounded segments suitable for
// embedding. Configuration is validated at construction time.
type Chunker interface {
	Split(text string) []string
}

// IndexService defines the operations exposed by the indexing and
// retrieval core.
type IndexService interface {
	IndexDocument(ctx context.Context, doc DocumentRef, content, collectionID string) (bool, error)
	Search(ctx context.Context, query, collectionID string, maxResults int, threshold float64) ([]SearchResult, error)
	BuildContext(ctx context.Context, query, collectionID string, maxChunks int) (string, error)
	RemoveDocument(collectionID, documentID string) bool
	ClearCollection(collectionID string) error
	Stats(collectionID string) IndexStats
}
