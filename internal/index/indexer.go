// Package index maintains the vector collections for tour and heritage-guide
// search. Embeddings are treated as a lazy cache over the structured store:
// every write probes for existing entries first, so re-indexing the same tour
// or guide is a no-op rather than a duplicate.
package index

import (
	"context"
	"fmt"

	"github.com/tourchat/tourchat-go/internal/embedder"
	"github.com/tourchat/tourchat-go/internal/models"
	"github.com/tourchat/tourchat-go/internal/vector"
)

// Vector collection names.
const (
	// ToursCollection holds one entry per tour, embedded from its summary text.
	ToursCollection = "tours"
	// HeritageCollection holds heritage-guide chunks, one entry per chunk.
	HeritageCollection = "tour-heritage-guides"
)

// upsertBatchSize caps how many entries are written per Upsert call.
const upsertBatchSize = 100

// ChunkID returns the logical ID of a heritage-guide chunk. Chunk IDs are
// derived from the tour ID and position, which is what makes the chunk-zero
// existence probe a reliable signal that the whole guide is indexed.
func ChunkID(tourID string, i int) string {
	return fmt.Sprintf("%s_heritageGuide_%d", tourID, i)
}

// Indexer writes tours and guide chunks into the vector index, embedding
// only what is not already present.
type Indexer struct {
	index vector.Index
	embed embedder.Embedder
}

// New creates an Indexer over the given vector index and embedder.
func New(index vector.Index, embed embedder.Embedder) *Indexer {
	return &Indexer{index: index, embed: embed}
}

// EnsureTours indexes any of the given tours that are not yet present in the
// tours collection. Present tours are left untouched.
func (ix *Indexer) EnsureTours(ctx context.Context, tours []models.Tour) error {
	if len(tours) == 0 {
		return nil
	}

	ids := make([]string, 0, len(tours))
	for _, t := range tours {
		ids = append(ids, t.TourID)
	}
	present, err := ix.index.Exists(ctx, ToursCollection, ids)
	if err != nil {
		return fmt.Errorf("index: probe tours: %w", err)
	}

	var missing []models.Tour
	for _, t := range tours {
		if !present[t.TourID] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	texts := make([]string, 0, len(missing))
	for _, t := range missing {
		texts = append(texts, t.SearchText())
	}
	vectors, err := ix.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("index: embed tours: %w", err)
	}
	if len(vectors) != len(missing) {
		return fmt.Errorf("index: embedder returned %d vectors for %d tours", len(vectors), len(missing))
	}

	entries := make([]vector.Entry, 0, len(missing))
	for i, t := range missing {
		entries = append(entries, vector.Entry{
			ID:       t.TourID,
			Vector:   vectors[i],
			Metadata: t.Metadata(),
		})
	}
	return ix.upsertBatched(ctx, ToursCollection, entries)
}

// HeritageIndexed reports whether the tour's heritage guide is already in
// the heritage collection, by probing for its first chunk.
func (ix *Indexer) HeritageIndexed(ctx context.Context, tourID string) (bool, error) {
	first := ChunkID(tourID, 0)
	present, err := ix.index.Exists(ctx, HeritageCollection, []string{first})
	if err != nil {
		return false, fmt.Errorf("index: probe heritage guide for %s: %w", tourID, err)
	}
	return present[first], nil
}

// EnsureHeritage indexes the tour's guide chunks that are not yet present.
// Chunk metadata carries the originating tour's fields plus the chunk text,
// so query results can be rendered without a second lookup.
func (ix *Indexer) EnsureHeritage(ctx context.Context, tour models.Tour, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	ids := make([]string, 0, len(chunks))
	for i := range chunks {
		ids = append(ids, ChunkID(tour.TourID, i))
	}
	present, err := ix.index.Exists(ctx, HeritageCollection, ids)
	if err != nil {
		return fmt.Errorf("index: probe heritage chunks for %s: %w", tour.TourID, err)
	}

	var missingIdx []int
	var texts []string
	for i, chunk := range chunks {
		if !present[ids[i]] {
			missingIdx = append(missingIdx, i)
			texts = append(texts, chunk)
		}
	}
	if len(missingIdx) == 0 {
		return nil
	}

	vectors, err := ix.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("index: embed heritage chunks for %s: %w", tour.TourID, err)
	}
	if len(vectors) != len(missingIdx) {
		return fmt.Errorf("index: embedder returned %d vectors for %d chunks", len(vectors), len(missingIdx))
	}

	entries := make([]vector.Entry, 0, len(missingIdx))
	for n, i := range missingIdx {
		md := tour.Metadata()
		md["type"] = models.TypeHeritageGuide
		md["chunk_index"] = int64(i)
		md["text"] = chunks[i]
		entries = append(entries, vector.Entry{
			ID:       ids[i],
			Vector:   vectors[n],
			Metadata: md,
		})
	}
	return ix.upsertBatched(ctx, HeritageCollection, entries)
}

// upsertBatched writes entries in groups of upsertBatchSize.
func (ix *Indexer) upsertBatched(ctx context.Context, collection string, entries []vector.Entry) error {
	for start := 0; start < len(entries); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := ix.index.Upsert(ctx, collection, entries[start:end]); err != nil {
			return fmt.Errorf("index: upsert into %s: %w", collection, err)
		}
	}
	return nil
}
