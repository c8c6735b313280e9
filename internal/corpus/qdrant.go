package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/civicmind/civicd/internal/sanitize"
)

// QdrantConfig configures the remote vector index.
type QdrantConfig struct {
	// Host is the Qdrant server hostname.
	Host string

	// Port is the Qdrant gRPC port (6334, not the 6333 REST port).
	Port int

	// APIKey authenticates against secured deployments. Optional.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// Collection names the Qdrant collection.
	Collection string

	// RequestTimeout bounds individual requests.
	RequestTimeout time.Duration

	// DialTimeout bounds the initial health check.
	DialTimeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	c.Collection = sanitize.Identifier(c.Collection)
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	return nil
}

// QdrantIndex is a remote vector index for shared city-wide deployments
// where several daemon instances search one collection.
type QdrantIndex struct {
	client   *qdrant.Client
	embedder Embedder
	config   QdrantConfig
	logger   *zap.Logger
}

// NewQdrantIndex connects to Qdrant and verifies the server is healthy.
func NewQdrantIndex(cfg QdrantConfig, embedder Embedder, logger *zap.Logger) (*QdrantIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	qcfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey,
	}
	if !cfg.UseTLS {
		qcfg.GrpcOptions = append(qcfg.GrpcOptions,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	client, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	logger.Info("qdrant connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("collection", cfg.Collection),
	)

	return &QdrantIndex{
		client:   client,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Upsert embeds the passages and writes them as points. Point IDs are
// derived deterministically from passage IDs so re-indexing the same
// content overwrites in place.
func (idx *QdrantIndex) Upsert(ctx context.Context, passages []Passage) error {
	ctx, span := tracer.Start(ctx, "corpus.qdrant_upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("passages", len(passages)))

	if len(passages) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, idx.config.RequestTimeout)
	defer cancel()

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("embedding passages: %w", err)
	}

	if err := idx.ensureCollection(ctx, uint64(len(vectors[0]))); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return err
	}

	points := make([]*qdrant.PointStruct, len(passages))
	for i, p := range passages {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(p.ID)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"passage":  p.ID,
				"document": p.DocumentID,
				"title":    p.Title,
				"content":  p.Content,
			}),
		}
	}

	if _, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.config.Collection,
		Points:         points,
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("upserting points: %w", err)
	}

	idx.logger.Debug("qdrant index updated", zap.Int("passages", len(passages)))
	return nil
}

// Search embeds the query and performs similarity search.
func (idx *QdrantIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "corpus.qdrant_search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return []Hit{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, idx.config.RequestTimeout)
	defer cancel()

	vector, err := idx.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.config.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", idx.config.Collection, err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			PassageID:  r.Payload["passage"].GetStringValue(),
			DocumentID: r.Payload["document"].GetStringValue(),
			Title:      r.Payload["title"].GetStringValue(),
			Content:    r.Payload["content"].GetStringValue(),
			Score:      float64(r.Score),
		}
	}

	span.SetAttributes(attribute.Int("results", len(hits)))
	return hits, nil
}

// Close closes the gRPC connection.
func (idx *QdrantIndex) Close() error {
	return idx.client.Close()
}

func (idx *QdrantIndex) ensureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := idx.client.GetCollectionInfo(ctx, idx.config.Collection)
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); !ok || st.Code() != codes.NotFound {
		return fmt.Errorf("checking collection %s: %w", idx.config.Collection, err)
	}

	if err := idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("creating collection %s: %w", idx.config.Collection, err)
	}

	idx.logger.Info("qdrant collection created",
		zap.String("collection", idx.config.Collection),
		zap.Uint64("vector_size", vectorSize),
	)
	return nil
}

// pointID maps a passage ID onto a stable UUID, since Qdrant point IDs
// must be UUIDs or integers.
func pointID(passageID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(passageID)).String()
}
