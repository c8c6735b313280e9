package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/civicmind/civicd/internal/backend"
	"github.com/civicmind/civicd/internal/config"
	"github.com/civicmind/civicd/internal/corpus"
	"github.com/civicmind/civicd/internal/engine"
	"github.com/civicmind/civicd/internal/facts"
	"github.com/civicmind/civicd/internal/history"
	"github.com/civicmind/civicd/internal/knowledge"
	"github.com/civicmind/civicd/internal/logging"
	"github.com/civicmind/civicd/internal/strategy"
)

// Registry owns the answer pipeline: data stores, strategies, router,
// and history. It implements the query surface the HTTP and MCP servers
// expose.
type Registry struct {
	config config.Config
	logger *logging.Logger

	facts     *facts.Directory
	knowledge *knowledge.Book
	corpus    *corpus.Corpus
	index     corpus.Index
	backend   *backend.Client
	history   *history.Store
	router    *engine.Router
	watcher   *Watcher

	// indexInert marks a substitute index installed after the configured
	// one failed to build. An inert index is never seeded or searched;
	// retrieval stays unavailable until restart.
	indexInert bool

	// seeded reports whether any Upsert into the index has succeeded.
	seeded atomic.Bool
}

// New loads all civic data, builds the strategy router, opens the history
// store, and starts the data watcher when configured. Broken data files
// degrade the matching strategy instead of failing startup; see the
// package comment for the policy.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	zl := logger.Underlying()

	r := &Registry{config: cfg, logger: logger}

	var cacheDown, knowledgeDown, corpusDown bool

	dir, err := facts.New(cfg.Data.FactsPath(), zl.Named("facts"))
	if err != nil {
		logger.Error(ctx, "fact directory failed to load, cache answers disabled until reload",
			zap.String("path", cfg.Data.FactsPath()),
			zap.Error(err),
		)
		dir = facts.NewWithDefaults(cfg.Data.FactsPath(), zl.Named("facts"))
		cacheDown = true
	}
	r.facts = dir

	book, err := knowledge.New(cfg.Data.KnowledgePath(), zl.Named("knowledge"))
	if err != nil {
		logger.Error(ctx, "knowledge book failed to load, procedure answers disabled until reload",
			zap.String("path", cfg.Data.KnowledgePath()),
			zap.Error(err),
		)
		book = knowledge.NewWithDefaults(cfg.Data.KnowledgePath(), zl.Named("knowledge"))
		knowledgeDown = true
	}
	r.knowledge = book

	corp, err := corpus.New(cfg.Data.CorpusPath(), zl.Named("corpus"))
	if err != nil {
		logger.Error(ctx, "corpus failed to load, retrieval disabled until reload",
			zap.String("dir", cfg.Data.CorpusPath()),
			zap.Error(err),
		)
		corp = corpus.NewWithDefaults(cfg.Data.CorpusPath(), zl.Named("corpus"))
		corpusDown = true
	}
	r.corpus = corp

	r.index, r.indexInert = r.buildIndex(ctx, zl)

	if cfg.Backend.Enabled() {
		client, err := backend.New(backend.Config{
			BaseURL:   cfg.Backend.BaseURL,
			Model:     cfg.Backend.Model,
			APIKey:    cfg.Backend.APIKey.Value(),
			Timeout:   cfg.Backend.Timeout,
			MaxTokens: cfg.Backend.MaxTokens,
		}, zl.Named("backend"))
		if err != nil {
			logger.Error(ctx, "generative backend unavailable, fallback uses canned replies",
				zap.String("base_url", cfg.Backend.BaseURL),
				zap.Error(err),
			)
		} else {
			r.backend = client
		}
	}

	store, err := history.New(history.Config{
		Path:  cfg.History.Path,
		Limit: cfg.History.Limit,
	}, zl.Named("history"))
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	r.history = store

	router, err := r.buildRouter(zl)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	r.router = router

	if cacheDown {
		r.router.SetAvailable(engine.KindCache, false)
	}
	if knowledgeDown {
		r.router.SetAvailable(engine.KindKnowledge, false)
	}
	if corpusDown || r.indexInert {
		r.router.SetAvailable(engine.KindRetrieval, false)
	}

	r.seedIndex(ctx, !corpusDown)

	if cfg.Data.Watch {
		if dirs := watchDirs(cfg.Data); len(dirs) > 0 {
			w, err := NewWatcher(dirs, func() { r.reloadData(ctx) }, zl.Named("watcher"))
			if err != nil {
				logger.Warn(ctx, "data watching disabled", zap.Error(err))
			} else {
				w.Start(ctx)
				r.watcher = w
				logger.Info(ctx, "watching civic data", zap.Strings("dirs", dirs))
			}
		}
	}

	avail := r.router.Availability()
	fields := make([]zap.Field, 0, len(avail))
	for kind, ok := range avail {
		fields = append(fields, zap.Bool(kind.String(), ok))
	}
	logger.Info(ctx, "services registry ready", fields...)

	return r, nil
}

// buildIndex constructs the configured passage index. When the configured
// index cannot be built (unreachable Qdrant, missing embedder), an inert
// keyword index takes its slot so the retrieval strategy still registers
// and shows up as unavailable.
func (r *Registry) buildIndex(ctx context.Context, zl *zap.Logger) (corpus.Index, bool) {
	cfg := r.config

	var embedder corpus.Embedder
	kind := cfg.Retrieval.Index
	if kind == corpus.IndexChromem || kind == corpus.IndexQdrant {
		var err error
		embedder, err = corpus.NewEmbedder(corpus.EmbedderConfig{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			APIKey:  cfg.Embedding.APIKey.Value(),
		})
		if err != nil {
			r.logger.Error(ctx, "embedder unavailable, retrieval disabled",
				zap.String("index", kind),
				zap.Error(err),
			)
			return corpus.NewKeywordIndex(zl.Named("index")), true
		}
	}

	idx, err := corpus.NewIndex(corpus.IndexConfig{
		Kind:        kind,
		Collection:  cfg.Retrieval.Collection,
		PersistPath: cfg.Retrieval.PersistPath,
		Qdrant: corpus.QdrantConfig{
			Host:       cfg.Retrieval.Qdrant.Host,
			Port:       cfg.Retrieval.Qdrant.Port,
			APIKey:     cfg.Retrieval.Qdrant.APIKey.Value(),
			UseTLS:     cfg.Retrieval.Qdrant.UseTLS,
			Collection: cfg.Retrieval.Collection,
		},
	}, embedder, zl.Named("index"))
	if err != nil {
		r.logger.Error(ctx, "passage index failed to build, retrieval disabled",
			zap.String("index", kind),
			zap.Error(err),
		)
		return corpus.NewKeywordIndex(zl.Named("index")), true
	}
	return idx, false
}

func (r *Registry) buildRouter(zl *zap.Logger) (*engine.Router, error) {
	cfg := r.config

	cache, err := strategy.NewCache(r.facts, zl.Named("cache"))
	if err != nil {
		return nil, fmt.Errorf("cache strategy: %w", err)
	}
	know, err := strategy.NewKnowledge(r.knowledge, zl.Named("knowledge"))
	if err != nil {
		return nil, fmt.Errorf("knowledge strategy: %w", err)
	}
	retr, err := strategy.NewRetrieval(r.corpus, r.index, strategy.RetrievalOptions{
		TopK:           cfg.Engine.TopK,
		RelevanceFloor: cfg.Retrieval.RelevanceFloor,
	}, zl.Named("retrieval"))
	if err != nil {
		return nil, fmt.Errorf("retrieval strategy: %w", err)
	}

	// A nil *backend.Client must stay a nil interface for the fallback's
	// backend check.
	var completer strategy.Completer
	if r.backend != nil {
		completer = r.backend
	}
	fb := strategy.NewFallback(completer, strategy.FallbackOptions{
		ContextTurns: cfg.Backend.ContextTurns,
	}, zl.Named("fallback"))

	return engine.NewRouter(engine.RouterOptions{
		Strategies: []engine.Strategy{cache, know, retr, fb},
		Logger:     zl.Named("engine"),
		MinScore:   cfg.Engine.MinScore,
		Thresholds: map[engine.Kind]float64{
			engine.KindCache:     cfg.Engine.CacheThreshold,
			engine.KindKnowledge: cfg.Engine.KnowledgeThreshold,
			engine.KindRetrieval: cfg.Engine.RetrievalThreshold,
		},
	})
}

// Ask answers one query. A non-empty sessionID attaches recent
// conversation context and records the exchange afterward. History
// failures degrade to a contextless answer rather than failing the query.
func (r *Registry) Ask(ctx context.Context, text, sessionID string) engine.Answer {
	var turns []engine.Exchange
	if sessionID != "" {
		ctx = logging.WithSessionID(ctx, sessionID)
		var err error
		turns, err = r.history.Context(ctx, sessionID, r.config.History.ContextTurns)
		if err != nil {
			r.logger.Warn(ctx, "session context unavailable", zap.Error(err))
		}
	}

	answer := r.router.HandleConversation(ctx, text, turns)

	if sessionID != "" {
		if err := r.history.Append(ctx, sessionID, text, answer); err != nil {
			r.logger.Warn(ctx, "recording exchange failed", zap.Error(err))
		}
	}
	return answer
}

// Explain reports how text would be routed without answering it.
func (r *Registry) Explain(text string) engine.Explanation {
	return r.router.Explain(text)
}

// History returns a session's recent exchanges, oldest first.
func (r *Registry) History(ctx context.Context, sessionID string, limit int) ([]history.Record, error) {
	return r.history.Recent(ctx, sessionID, limit)
}

// Availability reports the per-strategy availability flags.
func (r *Registry) Availability() map[engine.Kind]bool {
	return r.router.Availability()
}

// Procedure looks up the knowledge procedure matching a service phrase
// and an optional action phrase. Reports false while the knowledge book
// is unavailable.
func (r *Registry) Procedure(service, action string) (knowledge.ProcedureMatch, bool) {
	if !r.router.Available(engine.KindKnowledge) {
		return knowledge.ProcedureMatch{}, false
	}
	q := engine.NewQuery(strings.TrimSpace(service + " " + action))
	return r.knowledge.Snapshot().MatchProcedure(q)
}

// reloadData re-reads every data source and re-seeds the passage index.
// Strategies whose source recovered are flipped back to available; failed
// reloads keep the previous snapshot and the previous flag.
func (r *Registry) reloadData(ctx context.Context) {
	r.logger.Info(ctx, "reloading civic data")

	if err := r.facts.Reload(); err == nil {
		r.router.SetAvailable(engine.KindCache, true)
	}
	if err := r.knowledge.Reload(); err == nil {
		r.router.SetAvailable(engine.KindKnowledge, true)
	}
	corpusOK := r.corpus.Reload() == nil
	r.seedIndex(ctx, corpusOK)
}

// seedIndex pushes the current corpus snapshot into the passage index.
// corpusOK reports whether that snapshot came from the configured source;
// built-in stand-in data never turns retrieval available.
func (r *Registry) seedIndex(ctx context.Context, corpusOK bool) {
	if r.indexInert {
		return
	}

	passages := r.corpus.Snapshot().Passages()
	if err := r.index.Upsert(ctx, passages); err != nil {
		r.logger.Error(ctx, "passage index rebuild failed",
			zap.Int("passages", len(passages)),
			zap.Error(err),
		)
		// A previously seeded index keeps serving its old passages.
		if !r.seeded.Load() {
			r.router.SetAvailable(engine.KindRetrieval, false)
		}
		return
	}
	r.seeded.Store(true)
	if corpusOK {
		r.router.SetAvailable(engine.KindRetrieval, true)
	}
}

// Close stops the watcher and releases the index and history store.
func (r *Registry) Close() error {
	if r.watcher != nil {
		r.watcher.Stop()
	}

	var errs []error
	if err := r.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing passage index: %w", err))
	}
	if err := r.history.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing history store: %w", err))
	}
	return errors.Join(errs...)
}

// watchDirs collects the directories the watcher needs: the parents of
// the configured data files plus the corpus directory itself. Watching
// parents catches the write-then-rename pattern editors use.
func watchDirs(d config.DataConfig) []string {
	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		if dir == "" || dir == "." || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	if p := d.FactsPath(); p != "" {
		add(filepath.Dir(p))
	}
	if p := d.KnowledgePath(); p != "" {
		add(filepath.Dir(p))
	}
	add(d.CorpusPath())

	return dirs
}
