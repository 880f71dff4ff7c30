// Package catalog implements the tour-catalog operations behind the chat
// tools: tour search, heritage-guide retrieval, and tour registration. It
// composes the structured store, the vector index, and the object store, and
// keeps the vector collections warm as a lazy cache over the store.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tourchat/tourchat-go/internal/dynamo"
	"github.com/tourchat/tourchat-go/internal/embedder"
	"github.com/tourchat/tourchat-go/internal/guide"
	"github.com/tourchat/tourchat-go/internal/index"
	"github.com/tourchat/tourchat-go/internal/logging"
	"github.com/tourchat/tourchat-go/internal/models"
	"github.com/tourchat/tourchat-go/internal/objectstore"
	"github.com/tourchat/tourchat-go/internal/pagination"
	"github.com/tourchat/tourchat-go/internal/vector"
)

// Page size bounds applied to all paged operations.
const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// tourIDPattern spots an explicit tour ID inside a free-text query, which
// short-circuits semantic search into a direct lookup.
var tourIDPattern = regexp.MustCompile(`(?i)(?:tour ?id|id)[:\s]+([a-zA-Z0-9-]+)`)

// priceCapPattern extracts "under N VND" style price bounds from a query.
var priceCapPattern = regexp.MustCompile(`(?i)under\s+([0-9][0-9.,]*)\s*(?:vnd|₫|dong)`)

// TourStore reads tours from the structured store.
type TourStore interface {
	ByPlace(ctx context.Context, place string, limit int32, tok *pagination.Token) ([]models.Tour, *pagination.Token, error)
	All(ctx context.Context, limit int32, tok *pagination.Token) ([]models.Tour, *pagination.Token, error)
	ByID(ctx context.Context, tourID string) (models.Tour, bool, error)
}

// RegistrationStore reads and writes tour registrations.
type RegistrationStore interface {
	ByPhone(ctx context.Context, phoneNumber string) ([]models.Registration, error)
	Exists(ctx context.Context, tourID, phoneNumber string) (bool, error)
	Put(ctx context.Context, reg models.Registration) error
}

// Service implements the catalog operations.
type Service struct {
	tours   TourStore
	regs    RegistrationStore
	vectors vector.Index
	embed   embedder.Embedder
	indexer *index.Indexer
	objects objectstore.Fetcher

	// extract and chunk are injectable so tests can run without PDF fixtures.
	extract func(data []byte) (string, error)
	chunk   func(text string) []string

	// now is injectable for deterministic registration timestamps.
	now func() time.Time
}

// Config wires the Service's dependencies.
type Config struct {
	Tours         TourStore
	Registrations RegistrationStore
	Vectors       vector.Index
	Embedder      embedder.Embedder
	Indexer       *index.Indexer
	Objects       objectstore.Fetcher
}

// New creates a Service from the given dependencies.
func New(cfg *Config) *Service {
	return &Service{
		tours:   cfg.Tours,
		regs:    cfg.Registrations,
		vectors: cfg.Vectors,
		embed:   cfg.Embedder,
		indexer: cfg.Indexer,
		objects: cfg.Objects,
		extract: guide.ExtractPDF,
		chunk: func(text string) []string {
			return guide.Chunk(text, guide.DefaultChunkSize, guide.DefaultChunkOverlap)
		},
		now: time.Now,
	}
}

// ToursRequest is a tour search or listing request.
type ToursRequest struct {
	// Place optionally scopes the search to a destination. Empty means the
	// whole catalog.
	Place string
	// Query is an optional free-text search. Empty means a structured-store
	// listing instead of semantic search.
	Query string
	// Type is an optional vector metadata filter for the semantic path.
	// Empty defaults to tour summaries.
	Type string
	// PageSize caps the number of results (default 10, max 50).
	PageSize int
	// PageToken continues a previous page. Empty means first page.
	PageToken string
}

// TourResult is one tour in a search result, with its similarity score when
// the result came from semantic search.
type TourResult struct {
	models.Tour
	// Score is the semantic similarity (0 for structured listings).
	Score float32 `json:"score,omitempty"`
}

// TourPage is one page of tour results.
type TourPage struct {
	Tours []TourResult `json:"tours"`
	// NextToken continues the listing. Empty means no more results.
	NextToken string `json:"nextToken,omitempty"`
}

// Tours searches or lists tours.
//
// A query that names an explicit tour ID resolves by direct lookup. A
// non-empty free-text query runs semantic search over the tours collection,
// honoring "under N VND" price bounds and an optional place filter. An empty
// query pages through the structured store — the place partition when given,
// the full table otherwise — warming the vector cache with each fetched page.
func (s *Service) Tours(ctx context.Context, req ToursRequest) (TourPage, error) {
	log := logging.Component(ctx, "catalog")

	pageSize := clampPageSize(req.PageSize)

	if id := matchTourID(req.Query); id != "" {
		return s.tourByID(ctx, id)
	}

	if strings.TrimSpace(req.Query) != "" {
		return s.searchTours(ctx, log, req, pageSize)
	}
	return s.listTours(ctx, log, req.Place, pageSize, req.PageToken)
}

// tourByID resolves an explicit tour ID into a single-result page.
func (s *Service) tourByID(ctx context.Context, tourID string) (TourPage, error) {
	tour, found, err := s.tours.ByID(ctx, tourID)
	if err != nil {
		return TourPage{}, newError(ErrorBackendUnavailable, "tour lookup failed", err)
	}
	if !found {
		return TourPage{}, newError(ErrorNotFound, fmt.Sprintf("no tour with id %q", tourID), nil)
	}
	return TourPage{Tours: []TourResult{{Tour: tour}}}, nil
}

// searchTours runs semantic search over the tours collection.
func (s *Service) searchTours(ctx context.Context, log *slog.Logger, req ToursRequest, pageSize int) (TourPage, error) {
	var offset uint64
	if req.PageToken != "" {
		tok, err := pagination.DecodeFor(req.PageToken, pagination.SourceVector)
		if err != nil {
			return TourPage{}, newError(ErrorMalformedInput, "invalid page token", err)
		}
		offset = tok.Offset
	}

	vectors, err := s.embed.Embed(ctx, []string{req.Query})
	if err != nil {
		return TourPage{}, newError(ErrorBackendUnavailable, "query embedding failed", err)
	}

	entryType := strings.TrimSpace(req.Type)
	if entryType == "" {
		entryType = models.TypeTourInfo
	}
	filter := vector.Filter{
		Type:     entryType,
		Place:    req.Place,
		MaxPrice: matchPriceCap(req.Query),
	}
	entries, err := s.vectors.Query(ctx, index.ToursCollection, vectors[0], filter, uint64(pageSize), offset)
	if err != nil {
		return TourPage{}, newError(ErrorBackendUnavailable, "tour search failed", err)
	}

	results := make([]TourResult, 0, len(entries))
	for _, e := range entries {
		tour, err := tourFromMetadata(e.Metadata)
		if err != nil {
			log.Warn("skipping malformed search result", slog.String("id", e.ID), slog.Any("error", err))
			continue
		}
		results = append(results, TourResult{Tour: tour, Score: e.Score})
	}

	page := TourPage{Tours: results}
	if len(entries) == pageSize {
		page.NextToken = pagination.NewVectorToken(offset + uint64(pageSize)).Encode()
	}
	return page, nil
}

// listTours pages through the structured store — the place partition when a
// place is given, a full scan otherwise — and warms the vector cache with the
// fetched tours. Cache failures are logged, not surfaced: listing must work
// even when the index is down.
func (s *Service) listTours(ctx context.Context, log *slog.Logger, place string, pageSize int, pageToken string) (TourPage, error) {
	var tok *pagination.Token
	if pageToken != "" {
		decoded, err := pagination.DecodeFor(pageToken, pagination.SourceStore)
		if err != nil {
			return TourPage{}, newError(ErrorMalformedInput, "invalid page token", err)
		}
		tok = &decoded
	}

	var (
		tours []models.Tour
		next  *pagination.Token
		err   error
	)
	if strings.TrimSpace(place) == "" {
		tours, next, err = s.tours.All(ctx, int32(pageSize), tok)
	} else {
		tours, next, err = s.tours.ByPlace(ctx, place, int32(pageSize), tok)
	}
	if err != nil {
		return TourPage{}, newError(ErrorBackendUnavailable, "tour listing failed", err)
	}

	if err := s.indexer.EnsureTours(ctx, tours); err != nil {
		log.Warn("vector cache warm-up failed", slog.String("place", place), slog.Any("error", err))
	}

	results := make([]TourResult, 0, len(tours))
	for _, t := range tours {
		results = append(results, TourResult{Tour: t})
	}
	page := TourPage{Tours: results}
	if next != nil {
		page.NextToken = next.Encode()
	}
	return page, nil
}

// GuideRequest asks for heritage-guide content for a tour.
type GuideRequest struct {
	// Place scopes tour resolution. Required.
	Place string
	// TourName optionally pins the tour by (approximate) name or an
	// explicit tour ID inside it. Empty means the place's best-matching
	// tour.
	TourName string
	// Query is an optional question about the guide. Defaults to an
	// overview query for the place.
	Query string
	// PageSize caps the number of guide chunks returned (default 10, max 50).
	PageSize int
	// PageToken continues a previous page. Empty means first page.
	PageToken string
}

// GuideChunk is one heritage-guide passage.
type GuideChunk struct {
	// Index is the chunk's position within the source document.
	Index int `json:"chunkIndex"`
	// Text is the chunk content.
	Text string `json:"text"`
	// Score is the semantic similarity to the query.
	Score float32 `json:"score"`
}

// GuidePage is one page of heritage-guide passages for a resolved tour.
type GuidePage struct {
	TourID    string       `json:"tourId"`
	Title     string       `json:"title"`
	Chunks    []GuideChunk `json:"chunks"`
	NextToken string       `json:"nextToken,omitempty"`
}

// HeritageGuide returns heritage-guide passages for a tour, indexing the
// guide document on first access. A place with no matching tour yields an
// empty page, and cold-path indexing failures degrade to whatever is already
// indexed: missing heritage data is a normal answer, not a failure.
func (s *Service) HeritageGuide(ctx context.Context, req GuideRequest) (GuidePage, error) {
	log := logging.Component(ctx, "catalog")

	if strings.TrimSpace(req.Place) == "" {
		return GuidePage{}, newError(ErrorMalformedInput, "place is required", nil)
	}
	pageSize := clampPageSize(req.PageSize)

	var offset uint64
	if req.PageToken != "" {
		tok, err := pagination.DecodeFor(req.PageToken, pagination.SourceVector)
		if err != nil {
			return GuidePage{}, newError(ErrorMalformedInput, "invalid page token", err)
		}
		offset = tok.Offset
	}

	tour, found, err := s.resolveTour(ctx, req.Place, req.TourName)
	if err != nil {
		return GuidePage{}, err
	}
	if !found {
		return GuidePage{}, nil
	}

	indexed, err := s.indexer.HeritageIndexed(ctx, tour.TourID)
	if err != nil {
		log.Warn("guide index probe failed",
			slog.String("tourId", tour.TourID),
			slog.Any("error", err),
		)
	}
	if !indexed {
		if err := s.indexGuide(ctx, log, tour); err != nil {
			log.Warn("guide indexing failed, answering from what is indexed",
				slog.String("tourId", tour.TourID),
				slog.Any("error", err),
			)
		}
	}

	query := req.Query
	if strings.TrimSpace(query) == "" {
		query = fmt.Sprintf("top heritage sites in %s", req.Place)
	}
	vectors, err := s.embed.Embed(ctx, []string{query})
	if err != nil {
		return GuidePage{}, newError(ErrorBackendUnavailable, "query embedding failed", err)
	}

	filter := vector.Filter{Type: models.TypeHeritageGuide, TourID: tour.TourID}
	entries, err := s.vectors.Query(ctx, index.HeritageCollection, vectors[0], filter, uint64(pageSize), offset)
	if err != nil {
		return GuidePage{}, newError(ErrorBackendUnavailable, "guide search failed", err)
	}

	chunks := make([]GuideChunk, 0, len(entries))
	for _, e := range entries {
		chunk := GuideChunk{Score: e.Score}
		if text, ok := e.Metadata["text"].(string); ok {
			chunk.Text = text
		}
		if idx, ok := e.Metadata["chunk_index"].(int64); ok {
			chunk.Index = int(idx)
		}
		chunks = append(chunks, chunk)
	}

	page := GuidePage{TourID: tour.TourID, Title: tour.Title, Chunks: chunks}
	if len(entries) == pageSize {
		page.NextToken = pagination.NewVectorToken(offset + uint64(pageSize)).Encode()
	}
	return page, nil
}

// resolveTour maps a place and an optional free-text tour name to a stored
// tour. An explicit tour ID in the name wins; otherwise the best semantic
// match in the place is taken, re-checked against the structured store. The
// second return value reports whether any tour matched — no match is a
// normal outcome, not an error.
func (s *Service) resolveTour(ctx context.Context, place, tourName string) (models.Tour, bool, error) {
	if id := matchTourID(tourName); id != "" {
		tour, found, err := s.tours.ByID(ctx, id)
		if err != nil {
			return models.Tour{}, false, newError(ErrorBackendUnavailable, "tour lookup failed", err)
		}
		return tour, found, nil
	}

	query := strings.TrimSpace(tourName)
	if query == "" {
		query = fmt.Sprintf("tours in %s", place)
	}
	vectors, err := s.embed.Embed(ctx, []string{query})
	if err != nil {
		return models.Tour{}, false, newError(ErrorBackendUnavailable, "query embedding failed", err)
	}
	filter := vector.Filter{Type: models.TypeTourInfo, Place: place}
	entries, err := s.vectors.Query(ctx, index.ToursCollection, vectors[0], filter, 1, 0)
	if err != nil {
		return models.Tour{}, false, newError(ErrorBackendUnavailable, "tour resolution failed", err)
	}
	if len(entries) == 0 {
		return models.Tour{}, false, nil
	}

	matchedID, _ := entries[0].Metadata["tourId"].(string)
	if matchedID == "" {
		matchedID = entries[0].ID
	}
	tour, found, err := s.tours.ByID(ctx, matchedID)
	if err != nil {
		return models.Tour{}, false, newError(ErrorBackendUnavailable, "tour lookup failed", err)
	}
	if !found {
		return models.Tour{}, false, nil
	}
	// The index may hold stale entries for renamed or moved tours, so the
	// stored place is authoritative.
	if !strings.EqualFold(tour.Place, place) {
		return models.Tour{}, false, nil
	}
	return tour, true, nil
}

// indexGuide runs the cold path: fetch the guide document, extract its text,
// chunk it, and index the chunks. It is best-effort — callers log the error
// and serve the query from whatever is already indexed.
func (s *Service) indexGuide(ctx context.Context, log *slog.Logger, tour models.Tour) error {
	if tour.HeritageGuide == "" {
		log.Info("tour has no heritage guide", slog.String("tourId", tour.TourID))
		return nil
	}

	data, found, err := s.objects.Fetch(ctx, tour.HeritageGuide)
	if err != nil {
		return fmt.Errorf("catalog: fetch guide %q: %w", tour.HeritageGuide, err)
	}
	if !found {
		return fmt.Errorf("catalog: guide document %q is missing", tour.HeritageGuide)
	}

	text, err := s.extract(data)
	if err != nil {
		return fmt.Errorf("catalog: extract guide %q: %w", tour.HeritageGuide, err)
	}
	chunks := s.chunk(text)
	if len(chunks) == 0 {
		log.Warn("guide document has no extractable text",
			slog.String("tourId", tour.TourID),
			slog.String("guide", tour.HeritageGuide),
		)
		return nil
	}

	log.Info("indexing heritage guide",
		slog.String("tourId", tour.TourID),
		slog.Int("chunks", len(chunks)),
	)
	if err := s.indexer.EnsureHeritage(ctx, tour, chunks); err != nil {
		return fmt.Errorf("catalog: index guide %q: %w", tour.HeritageGuide, err)
	}
	return nil
}

// RegisteredTours lists a customer's registrations, newest first.
func (s *Service) RegisteredTours(ctx context.Context, phoneNumber string) ([]models.Registration, error) {
	if strings.TrimSpace(phoneNumber) == "" {
		return nil, newError(ErrorMalformedInput, "phone number is required", nil)
	}
	regs, err := s.regs.ByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, newError(ErrorBackendUnavailable, "registration listing failed", err)
	}
	return regs, nil
}

// Register records a customer's registration for a tour. Each phone number
// registers for a given tour at most once; the store's conditional write is
// what enforces this under concurrency.
func (s *Service) Register(ctx context.Context, tourID, phoneNumber string) (models.Registration, error) {
	if strings.TrimSpace(tourID) == "" {
		return models.Registration{}, newError(ErrorMalformedInput, "tour id is required", nil)
	}
	if strings.TrimSpace(phoneNumber) == "" {
		return models.Registration{}, newError(ErrorMalformedInput, "phone number is required", nil)
	}

	tour, found, err := s.tours.ByID(ctx, tourID)
	if err != nil {
		return models.Registration{}, newError(ErrorBackendUnavailable, "tour lookup failed", err)
	}
	if !found {
		return models.Registration{}, newError(ErrorNotFound, fmt.Sprintf("no tour with id %q", tourID), nil)
	}

	// Friendly pre-check; the conditional write below is the actual guard.
	exists, err := s.regs.Exists(ctx, tourID, phoneNumber)
	if err != nil {
		return models.Registration{}, newError(ErrorBackendUnavailable, "registration check failed", err)
	}
	if exists {
		return models.Registration{}, newError(ErrorConflict, "already registered for this tour", nil)
	}

	reg := models.Registration{
		TourID:      tourID,
		PhoneNumber: phoneNumber,
		CreateAt:    s.now().Unix(),
		StartDate:   tour.StartDate,
	}
	if err := s.regs.Put(ctx, reg); err != nil {
		if errors.Is(err, dynamo.ErrAlreadyExists) {
			return models.Registration{}, newError(ErrorConflict, "already registered for this tour", err)
		}
		return models.Registration{}, newError(ErrorBackendUnavailable, "registration write failed", err)
	}
	return reg, nil
}

// clampPageSize applies the default and maximum page sizes.
func clampPageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	if n > maxPageSize {
		return maxPageSize
	}
	return n
}

// matchTourID returns an explicit tour ID named in the text, or "".
func matchTourID(text string) string {
	m := tourIDPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// matchPriceCap returns a "under N VND" price bound from the text, or 0.
// Thousands separators ("1.500.000" or "1,500,000") are tolerated.
func matchPriceCap(text string) int64 {
	m := priceCapPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
	bound, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return bound
}

// tourFromMetadata rebuilds a Tour from a vector payload.
func tourFromMetadata(md map[string]any) (models.Tour, error) {
	tour := models.Tour{}
	var ok bool
	if tour.Place, ok = md["place"].(string); !ok {
		return models.Tour{}, fmt.Errorf("catalog: payload missing place")
	}
	if tour.TourID, ok = md["tourId"].(string); !ok {
		return models.Tour{}, fmt.Errorf("catalog: payload missing tourId")
	}
	if tour.Title, ok = md["title"].(string); !ok {
		return models.Tour{}, fmt.Errorf("catalog: payload missing title")
	}
	tour.StartDate = metaInt(md, "startDate")
	tour.EndDate = metaInt(md, "endDate")
	tour.Price = metaInt(md, "price")
	tour.Status, _ = md["status"].(string)
	tour.Category, _ = md["category"].(string)
	tour.HeritageGuide, _ = md["heritageGuide"].(string)
	return tour, nil
}

// metaInt reads an integer payload field, tolerating the float64 shape that
// JSON round trips produce.
func metaInt(md map[string]any, key string) int64 {
	switch v := md[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case int:
		return int64(v)
	default:
		return 0
	}
}
