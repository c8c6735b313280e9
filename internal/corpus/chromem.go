package corpus

import (
	"context"
	"fmt"
	"os"

	"github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/sanitize"
)

// ChromemConfig configures the embedded vector index.
type ChromemConfig struct {
	// Collection names the chromem collection.
	Collection string

	// Path is the on-disk location. Empty keeps the index in memory.
	Path string
}

// ApplyDefaults sets default values for unset fields and normalizes
// the collection name to what chromem accepts.
func (c *ChromemConfig) ApplyDefaults() {
	c.Collection = sanitize.Identifier(c.Collection)
}

// ChromemIndex is an embedded vector index over corpus passages. It runs
// in-process with optional persistence, so a single-node deployment gets
// semantic search without an external service.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	logger     *zap.Logger
}

// NewChromemIndex creates the embedded vector index.
func NewChromemIndex(cfg ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemIndex, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err = os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
		}
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.EmbedQuery(ctx, text)
	}
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", cfg.Collection, err)
	}

	logger.Info("chromem index initialized",
		zap.String("collection", cfg.Collection),
		zap.String("path", cfg.Path),
		zap.Int("passages", collection.Count()),
	)

	return &ChromemIndex{
		db:         db,
		collection: collection,
		embedder:   embedder,
		logger:     logger,
	}, nil
}

// Upsert embeds the passages in one batch and stores them.
func (idx *ChromemIndex) Upsert(ctx context.Context, passages []Passage) error {
	ctx, span := tracer.Start(ctx, "corpus.chromem_upsert")
	defer span.End()
	span.SetAttributes(attribute.Int("passages", len(passages)))

	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}

	vectors, err := idx.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("embedding passages: %w", err)
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:        p.ID,
			Content:   p.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"document": p.DocumentID,
				"title":    p.Title,
			},
		}
	}

	// Concurrency of 1 since embeddings are precomputed.
	if err := idx.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding passages: %w", err)
	}

	idx.logger.Debug("chromem index updated", zap.Int("passages", len(passages)))
	return nil
}

// Search performs similarity search over the collection.
func (idx *ChromemIndex) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	ctx, span := tracer.Start(ctx, "corpus.chromem_search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", k))

	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if query == "" {
		return []Hit{}, nil
	}

	// chromem requires nResults <= document count.
	count := idx.collection.Count()
	if count == 0 {
		return []Hit{}, nil
	}
	if k > count {
		k = count
	}

	results, err := idx.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			PassageID:  r.ID,
			DocumentID: r.Metadata["document"],
			Title:      r.Metadata["title"],
			Content:    r.Content,
			Score:      float64(r.Similarity),
		}
	}

	span.SetAttributes(attribute.Int("results", len(hits)))
	return hits, nil
}

// Close is a no-op; chromem persists writes as they happen.
func (idx *ChromemIndex) Close() error { return nil }
