package index

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ragindex/internal/domain"
	"ragindex/internal/logger"
)

// snapshotFile is the on-disk form of a CollectionIndex. Documents
// are stored as an ordered array rather than a map so insertion order
// survives the round trip. Field names are stable across versions:
// the file doubles as the cache-warm mechanism on restart.
type snapshotFile struct {
	CollectionID string             `json:"collection_id"`
	LastUpdate   time.Time          `json:"last_update"`
	Documents    []documentSnapshot `json:"documents"`
}

type documentSnapshot struct {
	DocumentID string         `json:"document_id"`
	Chunks     []domain.Chunk `json:"chunks"`
}

// SaveSnapshot serializes the full index to its collection file under
// dir, writing atomically via a temp file and rename.
func (ix *CollectionIndex) SaveSnapshot(dir string) error {
	ix.mu.RLock()
	snap := snapshotFile{
		CollectionID: ix.collectionID,
		LastUpdate:   ix.lastUpdate,
		Documents:    make([]documentSnapshot, 0, len(ix.order)),
	}
	for _, id := range ix.order {
		snap.Documents = append(snap.Documents, documentSnapshot{
			DocumentID: id,
			Chunks:     ix.documents[id],
		})
	}
	ix.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	path := SnapshotPath(dir, ix.collectionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the collection's snapshot from dir. A missing
// file yields an empty index; an unreadable or corrupt file is logged
// and yields an empty index flagged as recovered. The index is a
// rebuildable cache, so silent rebuild is the recovery policy.
func LoadSnapshot(dir, collectionID string) *CollectionIndex {
	ix := New(collectionID)

	path := SnapshotPath(dir, collectionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("index snapshot unreadable for %q, rebuilding empty: %v", collectionID, err)
			ix.recovered = true
		}
		return ix
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("index snapshot corrupt for %q, rebuilding empty: %v", collectionID, err)
		ix.recovered = true
		return ix
	}

	for _, doc := range snap.Documents {
		if len(doc.Chunks) == 0 {
			continue
		}
		ix.order = append(ix.order, doc.DocumentID)
		ix.documents[doc.DocumentID] = doc.Chunks
	}
	ix.lastUpdate = snap.LastUpdate
	return ix
}

// SnapshotPath returns the deterministic snapshot file path for a
// collection id: a sanitized form of the id plus a short hash so
// distinct ids can never collide on disk.
func SnapshotPath(dir, collectionID string) string {
	return filepath.Join(dir, sanitize(collectionID)+"-"+shortHash(collectionID)+".json")
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "collection"
	}
	return b.String()
}

func shortHash(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
