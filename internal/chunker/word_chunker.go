// Package chunker splits raw text into overlapping word-bounded
// windows sized to respect the embedding provider's input limit.
package chunker

import (
	"fmt"
	"strings"

	"ragindex/internal/domain"
)

// DefaultChunkSize is the default window size in words.
const DefaultChunkSize = 200

// DefaultOverlap is the default overlap between windows in words.
const DefaultOverlap = 40

// WordChunker produces successive windows of chunkSize words
// advancing by chunkSize-overlap words each step. It does no
// normalization, stemming, or language-specific processing: the
// behaviour is a pure word-count mechanism so it stays fully
// predictable.
type WordChunker struct {
	chunkSize int
	overlap   int
}

// NewWordChunker validates the configuration and returns a chunker.
// The overlap must be non-negative and strictly smaller than the
// chunk size; violating that is a caller bug and fails loudly instead
// of clamping or looping.
func NewWordChunker(chunkSize, overlap int) (*WordChunker, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	return &WordChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split tokenizes on whitespace and returns the overlapping windows
// in source order. Empty or whitespace-only text yields no chunks.
// The final window may be shorter than the chunk size.
func (c *WordChunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Split is a one-off convenience with the same contract as the
// WordChunker method, validating the configuration per call.
func Split(text string, chunkSize, overlap int) ([]string, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}
	c := WordChunker{chunkSize: chunkSize, overlap: overlap}
	return c.Split(text), nil
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", domain.ErrInvalidChunkConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidChunkConfig, overlap, chunkSize)
	}
	return nil
}
