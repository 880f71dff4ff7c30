// Package vector defines the vector index abstraction used for semantic
// tour and heritage-guide search, and its Qdrant implementation. Entries are
// addressed by logical string IDs (tourId, or "{tourId}_heritageGuide_{i}"
// for guide chunks); the backend adapter is responsible for mapping those to
// whatever ID shape the store requires.
package vector

import "context"

// Entry is one searchable unit: an embedding plus its metadata payload.
type Entry struct {
	// ID is the logical identifier. Written at most once per ID — callers
	// probe Exists before Upsert so re-indexing never duplicates entries.
	ID string

	// Vector is the embedding. May be nil on entries returned by Query or
	// Fetch, which only carry payloads.
	Vector []float32

	// Score is the similarity score assigned during a query (0.0–1.0).
	// Zero on entries that were fetched rather than searched.
	Score float32

	// Metadata is the payload stored alongside the vector: the originating
	// tour's fields, the "type" discriminator, and for guide chunks the
	// chunk_index and raw text.
	Metadata map[string]any
}

// Filter restricts a query by metadata equality and an optional price bound.
// Zero-valued fields are not applied.
type Filter struct {
	// Type matches the "type" discriminator (tour_info | heritage_guide).
	Type string
	// Place matches the "place" field exactly.
	Place string
	// TourID matches the "tourId" field exactly, scoping guide-chunk
	// queries to a single tour.
	TourID string
	// MaxPrice, when positive, requires price < MaxPrice.
	MaxPrice int64
}

// Index is the vector store contract. Implementations must be safe for
// concurrent use.
type Index interface {
	// Upsert writes a batch of entries with their pre-computed embeddings.
	Upsert(ctx context.Context, collection string, entries []Entry) error

	// Exists reports, per logical ID, whether an entry is already stored.
	Exists(ctx context.Context, collection string, ids []string) (map[string]bool, error)

	// Fetch returns a single entry's payload by logical ID.
	// The second return value reports whether the entry exists.
	Fetch(ctx context.Context, collection string, id string) (Entry, bool, error)

	// Query runs a nearest-neighbour search with metadata filtering.
	// offset skips that many results, which is how pagination cursors are
	// implemented for this source.
	Query(ctx context.Context, collection string, queryVector []float32, f Filter, limit, offset uint64) ([]Entry, error)

	// Close releases any resources held by the index.
	Close() error
}
