package index

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragindex/internal/domain"
)

func makeChunks(docID, docName string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			DocumentID:   docID,
			DocumentName: docName,
			DocumentType: "text/plain",
			ChunkIndex:   i,
			Text:         fmt.Sprintf("%s chunk %d", docID, i),
			Embedding:    []float64{float64(i), 1},
			IndexedAt:    time.Now(),
		}
	}
	return chunks
}

func TestCollectionIndex_Empty(t *testing.T) {
	ix := New("proj-1")
	assert.True(t, ix.IsEmpty())
	assert.Equal(t, 0, ix.DocumentCount())
	assert.Equal(t, 0, ix.ChunkCount())
	assert.Empty(t, ix.DocumentNames())
	assert.Equal(t, "proj-1", ix.CollectionID())
}

func TestCollectionIndex_AddDocument(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "spec.docx", 3))

	assert.False(t, ix.IsEmpty())
	assert.Equal(t, 1, ix.DocumentCount())
	assert.Equal(t, 3, ix.ChunkCount())
	assert.Equal(t, []string{"spec.docx"}, ix.DocumentNames())
	assert.False(t, ix.LastUpdate().IsZero())
}

func TestCollectionIndex_AddDocument_EmptyChunkSetIsNoOp(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", nil)
	assert.True(t, ix.IsEmpty())
}

func TestCollectionIndex_ReindexReplacesNotAppends(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("dA", makeChunks("dA", "a.txt", 3))
	ix.AddDocument("dA", makeChunks("dA", "a.txt", 2))

	assert.Equal(t, 1, ix.DocumentCount())
	assert.Equal(t, 2, ix.ChunkCount())
}

func TestCollectionIndex_ReindexKeepsInsertionOrder(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "one.txt", 1))
	ix.AddDocument("d2", makeChunks("d2", "two.txt", 1))
	ix.AddDocument("d1", makeChunks("d1", "one.txt", 2))

	var order []string
	for ch := range ix.AllChunks() {
		order = append(order, ch.DocumentID)
	}
	assert.Equal(t, []string{"d1", "d1", "d2"}, order)
}

func TestCollectionIndex_RemoveDocument(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "one.txt", 3))
	ix.AddDocument("d2", makeChunks("d2", "two.txt", 2))

	assert.False(t, ix.RemoveDocument("missing"))
	assert.Equal(t, 5, ix.ChunkCount())

	assert.True(t, ix.RemoveDocument("d1"))
	assert.Equal(t, 1, ix.DocumentCount())
	assert.Equal(t, 2, ix.ChunkCount())
	assert.Equal(t, []string{"two.txt"}, ix.DocumentNames())
}

func TestCollectionIndex_LastUpdateMonotonic(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "a", 1))
	first := ix.LastUpdate()

	ix.AddDocument("d2", makeChunks("d2", "b", 1))
	second := ix.LastUpdate()
	assert.False(t, second.Before(first))

	ix.RemoveDocument("d1")
	assert.False(t, ix.LastUpdate().Before(second))
}

func TestCollectionIndex_AllChunksOrder(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d2", makeChunks("d2", "two.txt", 2))
	ix.AddDocument("d1", makeChunks("d1", "one.txt", 2))

	var got []string
	for ch := range ix.AllChunks() {
		got = append(got, fmt.Sprintf("%s/%d", ch.DocumentID, ch.ChunkIndex))
	}
	assert.Equal(t, []string{"d2/0", "d2/1", "d1/0", "d1/1"}, got)
}

func TestCollectionIndex_AllChunksEarlyBreak(t *testing.T) {
	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "one.txt", 5))

	n := 0
	for range ix.AllChunks() {
		n++
		if n == 2 {
			break
		}
	}
	require.Equal(t, 2, n)
	// The read lock must have been released by the early break.
	ix.AddDocument("d2", makeChunks("d2", "two.txt", 1))
	assert.Equal(t, 2, ix.DocumentCount())
}
