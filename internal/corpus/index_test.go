package corpus

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeEmbedder maps text onto a fixed vocabulary so similar texts get
// similar vectors without a network call.
type fakeEmbedder struct {
	vocab []string
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vocab: []string{
		"water", "supply", "tax", "property", "garbage", "waste",
		"emergency", "fire", "police", "sewage", "zone", "schedule",
	}}
}

func (f *fakeEmbedder) embed(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(f.vocab))
	var norm float64
	for i, term := range f.vocab {
		vec[i] = float32(strings.Count(lower, term))
		norm += float64(vec[i]) * float64(vec[i])
	}
	if norm == 0 {
		vec[0] = 1
		norm = 1
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.embed(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return f.embed(text), nil
}

func defaultPassages(t *testing.T) []Passage {
	t.Helper()
	snap, err := newSnapshot(DefaultDocuments())
	require.NoError(t, err)
	return snap.Passages()
}

func TestKeywordIndex_Search(t *testing.T) {
	idx := NewKeywordIndex(zap.NewNop())
	require.NoError(t, idx.Upsert(context.Background(), defaultPassages(t)))

	t.Run("relevant document ranks first", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), "water supply timings", 3)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		assert.Equal(t, "water_supply_guidelines", hits[0].DocumentID)
		assert.Contains(t, hits[0].Content, "6:00 AM")
	})

	t.Run("scores are overlap ratios", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), "garbage collection", 3)
		require.NoError(t, err)
		require.NotEmpty(t, hits)
		for _, h := range hits {
			assert.GreaterOrEqual(t, h.Score, 0.0)
			assert.LessOrEqual(t, h.Score, 1.0)
		}
		// Both query terms appear in the schedule document.
		assert.Equal(t, "waste_management_schedule", hits[0].DocumentID)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	})

	t.Run("k caps results", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), "chennai", 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(hits), 2)
	})

	t.Run("no match yields no hits", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), "xylophone recital", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("stopword-only query yields no hits", func(t *testing.T) {
		hits, err := idx.Search(context.Background(), "what is the", 3)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("invalid k rejected", func(t *testing.T) {
		_, err := idx.Search(context.Background(), "water", 0)
		assert.Error(t, err)
	})

	t.Run("deterministic ordering", func(t *testing.T) {
		first, err := idx.Search(context.Background(), "chennai corporation 2025", 5)
		require.NoError(t, err)
		second, err := idx.Search(context.Background(), "chennai corporation 2025", 5)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestKeywordIndex_UpsertReplaces(t *testing.T) {
	idx := NewKeywordIndex(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []Passage{
		{ID: "a#0", DocumentID: "a", Title: "A", Content: "metro rail timings"},
	}))
	hits, err := idx.Search(ctx, "metro timings", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, idx.Upsert(ctx, []Passage{
		{ID: "b#0", DocumentID: "b", Title: "B", Content: "library membership rules"},
	}))
	hits, err = idx.Search(ctx, "metro timings", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "library membership", 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b#0", hits[0].PassageID)
}

func TestNewIndex_Factory(t *testing.T) {
	t.Run("empty kind defaults to keyword", func(t *testing.T) {
		idx, err := NewIndex(IndexConfig{}, nil, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &KeywordIndex{}, idx)
	})

	t.Run("keyword ignores embedder", func(t *testing.T) {
		idx, err := NewIndex(IndexConfig{Kind: IndexKeyword}, nil, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &KeywordIndex{}, idx)
	})

	t.Run("chromem requires embedder", func(t *testing.T) {
		_, err := NewIndex(IndexConfig{Kind: IndexChromem}, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("qdrant requires embedder", func(t *testing.T) {
		_, err := NewIndex(IndexConfig{Kind: IndexQdrant}, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		_, err := NewIndex(IndexConfig{Kind: "faiss"}, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrUnknownIndex)
	})
}

func TestChromemIndex_InMemory(t *testing.T) {
	idx, err := NewChromemIndex(ChromemConfig{}, newFakeEmbedder(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []Passage{
		{ID: "w#0", DocumentID: "w", Title: "Water", Content: "water supply zone schedule"},
		{ID: "t#0", DocumentID: "t", Title: "Tax", Content: "property tax rates and penalties"},
		{ID: "e#0", DocumentID: "e", Title: "Emergency", Content: "fire and police emergency numbers"},
	}))

	hits, err := idx.Search(ctx, "water supply", 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "w#0", hits[0].PassageID)
	assert.Equal(t, "w", hits[0].DocumentID)
	assert.Equal(t, "Water", hits[0].Title)

	hits, err = idx.Search(ctx, "property tax", 2)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "t#0", hits[0].PassageID)
}

func TestChromemIndex_SearchCapsAtCount(t *testing.T) {
	idx, err := NewChromemIndex(ChromemConfig{}, newFakeEmbedder(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	// Empty collection returns no hits rather than erroring.
	hits, err := idx.Search(ctx, "water", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, idx.Upsert(ctx, []Passage{
		{ID: "w#0", DocumentID: "w", Title: "Water", Content: "water supply"},
	}))
	hits, err = idx.Search(ctx, "water", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestChromemIndex_Persistence(t *testing.T) {
	dir := t.TempDir()
	emb := newFakeEmbedder()

	idx, err := NewChromemIndex(ChromemConfig{Path: dir}, emb, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, idx.Upsert(context.Background(), []Passage{
		{ID: "w#0", DocumentID: "w", Title: "Water", Content: "water supply zones"},
	}))

	// A fresh index over the same path sees the stored passages.
	reopened, err := NewChromemIndex(ChromemConfig{Path: dir}, emb, zap.NewNop())
	require.NoError(t, err)
	hits, err := reopened.Search(context.Background(), "water", 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "w#0", hits[0].PassageID)
}

func TestQdrantConfig_Defaults(t *testing.T) {
	var cfg QdrantConfig
	cfg.ApplyDefaults()
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6334, cfg.Port)
	assert.Equal(t, "civic_docs", cfg.Collection)
	assert.NoError(t, cfg.Validate())

	bad := QdrantConfig{Host: "qdrant.internal", Port: 99999}
	assert.Error(t, bad.Validate())
}

func TestIndexConfig_CollectionSanitized(t *testing.T) {
	qcfg := QdrantConfig{Collection: "Civic Docs (2025)"}
	qcfg.ApplyDefaults()
	assert.Equal(t, "civic_docs_2025", qcfg.Collection)

	ccfg := ChromemConfig{Collection: "water-board.FAQ"}
	ccfg.ApplyDefaults()
	assert.Equal(t, "water_board_faq", ccfg.Collection)
}

func TestEmbedderConfig_Validate(t *testing.T) {
	var cfg EmbedderConfig
	cfg.ApplyDefaults()
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Model)
	// Base URL has no default; the daemon only builds an embedder when
	// one is configured.
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidEmbedderConfig)

	cfg.BaseURL = "http://localhost:8080/v1"
	assert.NoError(t, cfg.Validate())
}
