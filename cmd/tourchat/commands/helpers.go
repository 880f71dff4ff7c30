package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/cloudwego/eino/components/tool"

	"github.com/tourchat/tourchat-go/internal/agent"
	"github.com/tourchat/tourchat-go/internal/catalog"
	"github.com/tourchat/tourchat-go/internal/dynamo"
	"github.com/tourchat/tourchat-go/internal/embedder"
	"github.com/tourchat/tourchat-go/internal/index"
	"github.com/tourchat/tourchat-go/internal/objectstore"
	"github.com/tourchat/tourchat-go/internal/store"
	"github.com/tourchat/tourchat-go/internal/tools"
	"github.com/tourchat/tourchat-go/internal/vector"
)

// Sub-agent names. Each owns one capability set; the controller routes tool
// calls to whichever sub-agent owns the named tool.
const (
	searchAgentName   = "tours_search"
	registerAgentName = "tours_register"
)

// backend holds the fully wired catalog stack shared by the chat, serve, and
// index commands.
type backend struct {
	// Tours is the DynamoDB tour store.
	Tours *dynamo.TourStore
	// Registrations is the DynamoDB registration store.
	Registrations *dynamo.RegistrationStore
	// Dynamo is the raw DynamoDB client, kept for readiness probes.
	Dynamo *dynamodb.Client
	// Vectors is the Qdrant index over both collections.
	Vectors *vector.QdrantIndex
	// Indexer keeps the vector collections in sync with the store.
	Indexer *index.Indexer
	// Catalog is the catalog service composed from the above.
	Catalog *catalog.Service
	// Close releases the Qdrant connection.
	Close func()
}

// buildBackend wires the full catalog stack from environment variables:
// DynamoDB stores, the Qdrant index, the embedder, the lazy indexer, and the
// S3 guide fetcher.
func buildBackend(ctx context.Context, log *slog.Logger) (*backend, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	embBackend := embedder.ResolveBackend()
	log.Info("embedder initialised", slog.String("provider", embBackend))

	vectorSize := uint64(embedder.DefaultDimensions(embBackend)) //nolint:gosec // dimensions are bounded
	vectors, err := vector.NewQdrantIndex(ctx, &vector.QdrantConfig{
		Host:        getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:        getEnvInt("QDRANT_PORT", 6334),
		APIKey:      os.Getenv("QDRANT_API_KEY"),
		UseTLS:      os.Getenv("QDRANT_TLS") == "true",
		Collections: []string{index.ToursCollection, index.HeritageCollection},
		VectorSize:  vectorSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	log.Info("qdrant index ready",
		slog.String("host", getEnvOrDefault("QDRANT_HOST", "localhost")),
		slog.Int("port", getEnvInt("QDRANT_PORT", 6334)),
	)

	dyn, err := dynamo.NewClient(ctx)
	if err != nil {
		vectors.Close()
		return nil, err
	}
	tourStore, err := dynamo.NewTourStore(dyn, getEnvOrDefault("TOURCHAT_TOURS_TABLE", "tours"))
	if err != nil {
		vectors.Close()
		return nil, err
	}
	regStore, err := dynamo.NewRegistrationStore(dyn, getEnvOrDefault("TOURCHAT_REGISTRATIONS_TABLE", "user-tours"))
	if err != nil {
		vectors.Close()
		return nil, err
	}

	var objects objectstore.Fetcher
	bucket := os.Getenv("TOURCHAT_GUIDE_BUCKET")
	if bucket != "" {
		region := getEnvOrDefault("TOURCHAT_GUIDE_REGION", getEnvOrDefault("AWS_REGION", "us-east-1"))
		fetcher, ferr := objectstore.NewS3Fetcher(ctx, region, bucket)
		if ferr != nil {
			vectors.Close()
			return nil, fmt.Errorf("failed to initialise guide bucket: %w", ferr)
		}
		objects = fetcher
		log.Info("guide bucket ready", slog.String("bucket", bucket), slog.String("region", region))
	} else {
		log.Warn("TOURCHAT_GUIDE_BUCKET not set — heritage guides unavailable")
	}

	indexer := index.New(vectors, emb)
	svc := catalog.New(&catalog.Config{
		Tours:         tourStore,
		Registrations: regStore,
		Vectors:       vectors,
		Embedder:      emb,
		Indexer:       indexer,
		Objects:       objects,
	})

	return &backend{
		Tours:         tourStore,
		Registrations: regStore,
		Dynamo:        dyn,
		Vectors:       vectors,
		Indexer:       indexer,
		Catalog:       svc,
		Close:         func() { _ = vectors.Close() },
	}, nil
}

// buildSubAgents groups the catalog tools into the two capability sets the
// controller routes between: search (tours + heritage guides) and
// registration (register + list registrations).
func buildSubAgents(ctx context.Context, svc tools.Service) ([]*agent.SubAgent, error) {
	search, err := agent.NewSubAgent(ctx, searchAgentName, []tool.InvokableTool{
		tools.NewGetToursTool(svc),
		tools.NewGetHeritageGuideTool(svc),
	})
	if err != nil {
		return nil, err
	}

	register, err := agent.NewSubAgent(ctx, registerAgentName, []tool.InvokableTool{
		tools.NewRegisterTourTool(svc),
		tools.NewGetRegisteredToursTool(svc),
	})
	if err != nil {
		return nil, err
	}

	return []*agent.SubAgent{search, register}, nil
}

// openHistory opens the conversation history store. TOURCHAT_HISTORY_DB
// overrides the default path (~/.tourchat/history.db); "disabled" turns
// history off. Failures degrade to stateless turns with a warning.
func openHistory(log *slog.Logger) (store.ConversationStore, func()) {
	dbPath := os.Getenv("TOURCHAT_HISTORY_DB")
	if dbPath == "disabled" {
		log.Info("history: disabled via TOURCHAT_HISTORY_DB=disabled")
		return nil, func() {}
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil, func() {}
		}
	}

	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil, func() {}
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs, func() { _ = hs.Close() }
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
