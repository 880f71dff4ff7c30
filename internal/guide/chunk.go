package guide

import "strings"

// Chunking defaults tuned for heritage-guide prose.
const (
	// DefaultChunkSize is the maximum number of characters per chunk.
	DefaultChunkSize = 1500
	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks so that context is not lost at boundaries.
	DefaultChunkOverlap = 200
)

// Chunk splits text into overlapping chunks of at most size characters.
// Boundaries are counted in runes, not bytes, so multi-byte text (Vietnamese
// diacritics) is never bisected mid-character. Zero or invalid parameters
// fall back to the defaults. Empty or whitespace-only text yields no chunks.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(runes); start += size - overlap {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
