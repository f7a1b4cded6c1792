// Package service orchestrates chunking, embedding, and the
// collection indexes into the indexing/retrieval operations exposed
// to callers.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ragindex/internal/chunker"
	"ragindex/internal/domain"
	"ragindex/internal/embedding"
	"ragindex/internal/index"
	"ragindex/internal/logger"
)

// Retrieval defaults.
const (
	// DefaultMaxResults caps ranked results when the caller passes a
	// non-positive limit.
	DefaultMaxResults = 5

	// DefaultThreshold is the strict relevance cutoff for Search.
	DefaultThreshold = 0.7

	// ContextThreshold is the looser cutoff BuildContext uses:
	// grounding a generation step wants "possibly useful" material,
	// not asserted matches.
	ContextThreshold = 0.5

	// DefaultContextChunks caps the chunks assembled into a context
	// block.
	DefaultContextChunks = 5
)

const contextHeader = "Relevant indexed context:"

// IndexServiceImpl implements domain.IndexService.
type IndexServiceImpl struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	registry *index.Registry
}

// Compile-time interface check.
var _ domain.IndexService = (*IndexServiceImpl)(nil)

// NewIndexService creates the orchestrator. When ch is nil the
// default word chunker is used.
func NewIndexService(ch domain.Chunker, embedder domain.Embedder, registry *index.Registry) *IndexServiceImpl {
	if ch == nil {
		wc, err := chunker.NewWordChunker(chunker.DefaultChunkSize, chunker.DefaultOverlap)
		if err != nil {
			// Defaults are compile-time constants; this cannot happen.
			panic(err)
		}
		ch = wc
	}
	return &IndexServiceImpl{chunker: ch, embedder: embedder, registry: registry}
}

// IndexDocument chunks the content, embeds every chunk, and replaces
// the document's chunk set in the collection. It returns true only if
// at least one chunk was successfully embedded and stored; on false
// the collection is left untouched. Chunks whose embedding falls back
// to a zero vector are skipped rather than aborting the document, and
// cancellation mid-run keeps whatever had already been embedded.
func (s *IndexServiceImpl) IndexDocument(ctx context.Context, doc domain.DocumentRef, content, collectionID string) (bool, error) {
	if strings.TrimSpace(content) == "" {
		logger.Debug("index %q: empty content, rejecting", doc.Name)
		return false, nil
	}

	ix := s.registry.Get(collectionID)

	pieces := s.chunker.Split(content)
	if len(pieces) == 0 {
		return false, nil
	}
	logger.Debug("index %q into %q: %d chunks", doc.Name, collectionID, len(pieces))

	results := s.embedder.EmbedBatch(ctx, pieces)

	now := time.Now()
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, res := range results {
		if !res.Embedded {
			logger.Warn("index %q: chunk %d not embedded, skipping", doc.Name, i)
			continue
		}
		chunks = append(chunks, domain.Chunk{
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			DocumentType: doc.ContentType,
			ChunkIndex:   i,
			Text:         pieces[i],
			Embedding:    res.Vector,
			IndexedAt:    now,
		})
	}
	if len(chunks) == 0 {
		logger.Warn("index %q: no chunk could be embedded, nothing stored", doc.Name)
		return false, nil
	}

	ix.AddDocument(doc.ID, chunks)
	s.persist(ix)

	logger.Info("indexed %q: %d/%d chunks stored in %q", doc.Name, len(chunks), len(pieces), collectionID)
	return true, nil
}

// Search embeds the query once and ranks every chunk in the
// collection by cosine similarity. Chunks below the threshold are
// dropped, ties keep insertion order, and the list is truncated to
// maxResults. An empty collection returns immediately without an
// embedding call; a failed query embedding degrades to empty results.
func (s *IndexServiceImpl) Search(ctx context.Context, query, collectionID string, maxResults int, threshold float64) ([]domain.SearchResult, error) {
	ix := s.registry.Get(collectionID)
	if ix.IsEmpty() {
		logger.Debug("search %q: collection empty", collectionID)
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	q := s.embedder.Embed(ctx, query)
	if !q.Embedded {
		logger.Warn("search %q: query embedding failed, returning no results", collectionID)
		return nil, nil
	}

	var results []domain.SearchResult
	for ch := range ix.AllChunks() {
		score := embedding.CosineSimilarity(q.Vector, ch.Embedding)
		if score >= threshold {
			results = append(results, domain.SearchResult{Chunk: ch, Score: score})
		}
	}

	// Stable sort keeps insertion order between equal scores, which
	// makes result order deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	logger.Debug("search %q: %d results", collectionID, len(results))
	return results, nil
}

// BuildContext assembles the top-ranked chunks for the query into a
// text block suitable for grounding a downstream generation call. No
// relevant chunks is a normal outcome and yields an empty string.
func (s *IndexServiceImpl) BuildContext(ctx context.Context, query, collectionID string, maxChunks int) (string, error) {
	if maxChunks <= 0 {
		maxChunks = DefaultContextChunks
	}
	results, err := s.Search(ctx, query, collectionID, maxChunks, ContextThreshold)
	if err != nil {
		return "", fmt.Errorf("build context: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString(contextHeader)
	b.WriteString("\n")
	for _, r := range results {
		fmt.Fprintf(&b, "\n[%s, relevance %.2f]\n%s\n", r.Chunk.DocumentName, r.Score, r.Chunk.Text)
	}
	return b.String(), nil
}

// RemoveDocument drops one document's chunks from the collection and
// persists the change. Removing an absent document is a no-op.
func (s *IndexServiceImpl) RemoveDocument(collectionID, documentID string) bool {
	ix := s.registry.Get(collectionID)
	if !ix.RemoveDocument(documentID) {
		return false
	}
	s.persist(ix)
	logger.Info("removed document %q from %q", documentID, collectionID)
	return true
}

// ClearCollection removes the in-memory cache entry and deletes the
// persisted snapshot. It is idempotent.
func (s *IndexServiceImpl) ClearCollection(collectionID string) error {
	if err := s.registry.Drop(collectionID); err != nil {
		return fmt.Errorf("clear collection %q: %w", collectionID, err)
	}
	logger.Info("cleared collection %q", collectionID)
	return nil
}

// Stats reports the collection's index state for diagnostics.
func (s *IndexServiceImpl) Stats(collectionID string) domain.IndexStats {
	ix := s.registry.Get(collectionID)
	return domain.IndexStats{
		CollectionID:  collectionID,
		DocumentCount: ix.DocumentCount(),
		ChunkCount:    ix.ChunkCount(),
		LastUpdate:    ix.LastUpdate(),
		DocumentNames: ix.DocumentNames(),
		Recovered:     ix.Recovered(),
	}
}

// persist saves the snapshot, logging failures instead of rolling
// back: the in-memory index stays authoritative until the next
// successful save.
func (s *IndexServiceImpl) persist(ix *index.CollectionIndex) {
	if err := s.registry.Save(ix); err != nil {
		logger.Warn("snapshot save failed for %q: %v", ix.CollectionID(), err)
	}
}
