package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragindex/internal/domain"
)

// recordingService captures the calls the watcher makes.
type recordingService struct {
	mu      sync.Mutex
	indexed []string // document names
	removed []string // document ids
}

func (r *recordingService) IndexDocument(_ context.Context, doc domain.DocumentRef, content, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, doc.Name)
	return content != "", nil
}

func (r *recordingService) RemoveDocument(_, documentID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, documentID)
	return true
}

func (r *recordingService) Search(context.Context, string, string, int, float64) ([]domain.SearchResult, error) {
	return nil, nil
}
func (r *recordingService) BuildContext(context.Context, string, string, int) (string, error) {
	return "", nil
}
func (r *recordingService) ClearCollection(string) error   { return nil }
func (r *recordingService) Stats(string) domain.IndexStats { return domain.IndexStats{} }

func (r *recordingService) indexedNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.indexed...)
}

func TestDocumentID_Stable(t *testing.T) {
	assert.Equal(t, DocumentID("/a/b.txt"), DocumentID("/a/b.txt"))
	assert.NotEqual(t, DocumentID("/a/b.txt"), DocumentID("/a/c.txt"))
}

func TestDocumentRefFor(t *testing.T) {
	ref := DocumentRefFor("/docs/notes.md")
	assert.Equal(t, "notes.md", ref.Name)
	assert.Equal(t, "text/markdown", ref.ContentType)
	assert.Equal(t, DocumentID("/docs/notes.md"), ref.ID)

	assert.Equal(t, "text/plain", DocumentRefFor("x.TXT").ContentType)
	assert.Equal(t, "application/octet-stream", DocumentRefFor("x.bin").ContentType)
}

func TestWatcher_ExtensionFilter(t *testing.T) {
	svc := &recordingService{}
	w, err := New(svc, "proj", []string{".txt"})
	require.NoError(t, err)
	defer w.Close()

	assert.True(t, w.watchedExtension("/a/file.txt"))
	assert.True(t, w.watchedExtension("/a/FILE.TXT"))
	assert.False(t, w.watchedExtension("/a/file.md"))
	assert.False(t, w.watchedExtension("/a/file"))
}

func TestWatcher_IndexesCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	svc := &recordingService{}
	w, err := New(svc, "proj", nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, dir)
	}()

	// Wait for Run to register the watch; files written before the
	// watch exists produce no events.
	require.Eventually(t, func() bool {
		return len(w.fs.WatchList()) > 0
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("hello watcher"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skipped.bin"), []byte("ignored"), 0o644))

	require.Eventually(t, func() bool {
		for _, name := range svc.indexedNames() {
			if name == "note.txt" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	assert.NotContains(t, svc.indexedNames(), "skipped.bin")

	cancel()
	<-done
}
