package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragindex/internal/domain"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	ix := New("proj-1")
	d1 := []domain.Chunk{
		{
			DocumentID:   "d1",
			DocumentName: "spec.docx",
			DocumentType: "text/plain",
			ChunkIndex:   0,
			Text:         "first chunk",
			Embedding:    []float64{0.1, 0.2, 0.3},
			IndexedAt:    time.Now().UTC().Truncate(time.Second),
		},
		{
			DocumentID:   "d1",
			DocumentName: "spec.docx",
			DocumentType: "text/plain",
			ChunkIndex:   1,
			Text:         "second chunk",
			Embedding:    []float64{0.4, 0.5, 0.6},
			IndexedAt:    time.Now().UTC().Truncate(time.Second),
		},
	}
	d2 := []domain.Chunk{
		{
			DocumentID:   "d2",
			DocumentName: "notes.md",
			DocumentType: "text/markdown",
			ChunkIndex:   0,
			Text:         "other chunk",
			Embedding:    []float64{0.7, 0.8, 0.9},
			IndexedAt:    time.Now().UTC().Truncate(time.Second),
		},
	}
	ix.AddDocument("d1", d1)
	ix.AddDocument("d2", d2)

	require.NoError(t, ix.SaveSnapshot(dir))

	loaded := LoadSnapshot(dir, "proj-1")
	assert.Equal(t, "proj-1", loaded.CollectionID())
	assert.Equal(t, 2, loaded.DocumentCount())
	assert.Equal(t, 3, loaded.ChunkCount())
	assert.Equal(t, []string{"spec.docx", "notes.md"}, loaded.DocumentNames())
	assert.False(t, loaded.Recovered())

	var got []domain.Chunk
	for ch := range loaded.AllChunks() {
		got = append(got, ch)
	}
	require.Len(t, got, 3)
	assert.Equal(t, d1[0].Text, got[0].Text)
	assert.Equal(t, d1[0].Embedding, got[0].Embedding)
	assert.Equal(t, d1[1].Text, got[1].Text)
	assert.Equal(t, d2[0].Text, got[2].Text)
	assert.Equal(t, d2[0].Embedding, got[2].Embedding)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	loaded := LoadSnapshot(t.TempDir(), "nothing-here")
	assert.True(t, loaded.IsEmpty())
	assert.False(t, loaded.Recovered())
}

func TestLoadSnapshot_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := SnapshotPath(dir, "proj-1")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	loaded := LoadSnapshot(dir, "proj-1")
	assert.True(t, loaded.IsEmpty())
	assert.True(t, loaded.Recovered())
}

func TestSnapshotPath_Deterministic(t *testing.T) {
	a := SnapshotPath("/data", "proj/42")
	b := SnapshotPath("/data", "proj/42")
	c := SnapshotPath("/data", "proj_42")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "sanitized collisions must diverge via the hash suffix")
	assert.Equal(t, "/data", filepath.Dir(a))
}

func TestSaveSnapshot_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "indexes")

	ix := New("proj-1")
	ix.AddDocument("d1", makeChunks("d1", "a.txt", 1))
	require.NoError(t, ix.SaveSnapshot(dir))

	_, err := os.Stat(SnapshotPath(dir, "proj-1"))
	assert.NoError(t, err)
}
