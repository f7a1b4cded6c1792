// Package watcher drives the indexing service from filesystem
// events: text files created or modified under a watched directory
// are re-indexed into a collection, and deleted files are removed
// from it.
package watcher

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"ragindex/internal/domain"
	"ragindex/internal/logger"
)

// DefaultExtensions are the file extensions watched when none are
// configured.
var DefaultExtensions = []string{".txt", ".md"}

// Watcher re-indexes files from a directory into one collection.
type Watcher struct {
	service      domain.IndexService
	collectionID string
	extensions   []string
	fs           *fsnotify.Watcher
}

// New creates a watcher feeding the given collection.
func New(service domain.IndexService, collectionID string, extensions []string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Watcher{
		service:      service,
		collectionID: collectionID,
		extensions:   extensions,
		fs:           fs,
	}, nil
}

// Run watches dir until the context is cancelled. Events for
// unwatched extensions are ignored. Indexing failures are logged and
// watching continues; a single unreadable file must not stop the
// import pipeline.
func (w *Watcher) Run(ctx context.Context, dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	logger.Info("watching %s for %v", dir, w.extensions)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.watchedExtension(event.Name) {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
				w.indexFile(ctx, event.Name)
			case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
				w.service.RemoveDocument(w.collectionID, DocumentID(event.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) indexFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("read %s: %v", path, err)
		return
	}
	ok, err := w.service.IndexDocument(ctx, DocumentRefFor(path), string(data), w.collectionID)
	if err != nil {
		logger.Warn("index %s: %v", path, err)
		return
	}
	if !ok {
		logger.Debug("index %s: nothing stored", path)
	}
}

func (w *Watcher) watchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// DocumentRefFor builds the document reference for a file path. The
// id hashes the path so a rewritten file replaces its previous chunk
// set instead of duplicating it.
func DocumentRefFor(path string) domain.DocumentRef {
	return domain.DocumentRef{
		ID:          DocumentID(path),
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
	}
}

// DocumentID derives a stable document id from a file path.
func DocumentID(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
