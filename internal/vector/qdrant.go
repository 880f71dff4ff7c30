package vector

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadIDKey stores the logical entry ID in the point payload. Qdrant
// point IDs must be UUIDs or integers, so logical IDs are mapped through a
// deterministic UUID and the original kept in the payload.
const payloadIDKey = "id"

// QdrantConfig holds connection parameters for a Qdrant instance plus the
// two collections this service uses.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collections lists the collection names to ensure at startup
	// (tour summaries and heritage-guide chunks).
	Collections []string

	// VectorSize is the dimensionality of stored embeddings.
	VectorSize uint64
}

// QdrantIndex implements Index backed by a Qdrant instance.
type QdrantIndex struct {
	client *qdrant.Client
	cfg    *QdrantConfig
}

// NewQdrantIndex creates a QdrantIndex, ensuring all configured collections
// exist (creating them with cosine distance if necessary).
func NewQdrantIndex(ctx context.Context, cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	idx := &QdrantIndex{client: client, cfg: cfg}
	for _, collection := range cfg.Collections {
		if err := idx.ensureCollection(ctx, collection); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// ensureCollection creates the collection if it does not already exist.
func (q *QdrantIndex) ensureCollection(ctx context.Context, name string) error {
	exists, err := q.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", name, err)
	}
	return nil
}

// pointID maps a logical entry ID to a deterministic Qdrant point UUID.
// The same logical ID always yields the same point, which is what makes
// the existence-probe-before-write protocol idempotent.
func pointID(logicalID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(logicalID)).String()
}

// Upsert writes a batch of entries with their embeddings.
func (q *QdrantIndex) Upsert(ctx context.Context, collection string, entries []Entry) error {
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, entry := range entries {
		payload := make(map[string]any, len(entry.Metadata)+1)
		for k, v := range entry.Metadata {
			payload[k] = v
		}
		payload[payloadIDKey] = entry.ID

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(entry.ID)),
			Vectors: qdrant.NewVectors(entry.Vector...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert into %q failed: %w", collection, err)
	}
	return nil
}

// Exists probes the collection for each logical ID in one round trip.
func (q *QdrantIndex) Exists(ctx context.Context, collection string, ids []string) (map[string]bool, error) {
	if len(ids) == 0 {
		return map[string]bool{}, nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	byPoint := make(map[string]string, len(ids))
	for _, id := range ids {
		pid := pointID(id)
		byPoint[pid] = id
		pointIDs = append(pointIDs, qdrant.NewIDUUID(pid))
	}

	found, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            pointIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: existence probe on %q failed: %w", collection, err)
	}

	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = false
	}
	for _, point := range found {
		if logical, ok := byPoint[point.Id.GetUuid()]; ok {
			present[logical] = true
		}
	}
	return present, nil
}

// Fetch returns a single entry's payload by logical ID.
func (q *QdrantIndex) Fetch(ctx context.Context, collection string, id string) (Entry, bool, error) {
	found, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(pointID(id))},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("qdrant: fetch %q from %q failed: %w", id, collection, err)
	}
	if len(found) == 0 {
		return Entry{}, false, nil
	}
	return Entry{ID: id, Metadata: payloadToMetadata(found[0].Payload)}, true, nil
}

// Query runs a filtered nearest-neighbour search with offset pagination.
func (q *QdrantIndex) Query(ctx context.Context, collection string, queryVector []float32, f Filter, limit, offset uint64) ([]Entry, error) {
	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if offset > 0 {
		query.Offset = &offset
	}
	if filter := buildFilter(f); filter != nil {
		query.Filter = filter
	}

	results, err := q.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: query on %q failed: %w", collection, err)
	}

	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entry := Entry{Score: r.Score, Metadata: payloadToMetadata(r.Payload)}
		if logical, ok := entry.Metadata[payloadIDKey].(string); ok {
			entry.ID = logical
			delete(entry.Metadata, payloadIDKey)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// Ping checks reachability for readiness probes.
func (q *QdrantIndex) Ping(ctx context.Context) error {
	if _, err := q.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Name labels this dependency in readiness responses.
func (q *QdrantIndex) Name() string { return "qdrant" }

// buildFilter converts a Filter to Qdrant must-conditions.
// Returns nil when the filter is empty.
func buildFilter(f Filter) *qdrant.Filter {
	var must []*qdrant.Condition
	if f.Type != "" {
		must = append(must, qdrant.NewMatch("type", f.Type))
	}
	if f.Place != "" {
		must = append(must, qdrant.NewMatch("place", f.Place))
	}
	if f.TourID != "" {
		must = append(must, qdrant.NewMatch("tourId", f.TourID))
	}
	if f.MaxPrice > 0 {
		lt := float64(f.MaxPrice)
		must = append(must, qdrant.NewRange("price", &qdrant.Range{Lt: &lt}))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// payloadToMetadata converts a Qdrant payload to a plain metadata map.
func payloadToMetadata(payload map[string]*qdrant.Value) map[string]any {
	md := make(map[string]any, len(payload))
	for k, v := range payload {
		md[k] = valueToAny(v)
	}
	return md
}

// valueToAny unwraps a single Qdrant payload value.
func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return nil
	}
}
