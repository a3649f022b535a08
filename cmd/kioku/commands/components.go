package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/extract"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/provider"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/storage"
)

// Components is the wired pipeline shared by every command.
type Components struct {
	Config   *config.Config
	Storage  storage.VectorStore
	Provider provider.Provider
	Engine   *search.Engine
	Indexer  *indexer.Indexer
	Logger   *zap.Logger
}

// Close releases the store.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.New(ctx, cfg.Storage, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	prov, err := provider.New(cfg.Provider, provider.WithLogger(logger))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize provider: %w", err)
	}

	ranker := ranking.NewRanker(&ranking.RankingConfig{TopK: cfg.Retrieval.TopK}, ranking.WithLogger(logger))
	engine := search.NewEngine(store, prov, prov, ranker, search.WithLogger(logger))
	idx := indexer.NewIndexer(engine, store, extract.NewExtractor(),
		indexer.WithLogger(logger),
		indexer.WithIgnore(cfg.Watch.Ignore),
	)

	logger.Debug("components initialized",
		zap.String("provider", prov.Name()),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.Int("top_k", ranker.TopK()))

	return &Components{
		Config:   cfg,
		Storage:  store,
		Provider: prov,
		Engine:   engine,
		Indexer:  idx,
		Logger:   logger,
	}, nil
}

// open wires the pipeline for a command.
func (o *rootOptions) open(ctx context.Context, longRunning bool) (*Components, error) {
	return initializeComponents(ctx, o.cfg, o.componentLogger(longRunning))
}
