package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/logger"
)

// SearchParams are the inputs of a similarity or hybrid search request.
// Clauses.Filter must already be compiled against the table schema.
type SearchParams struct {
	Database    string
	Table       string
	Query       string
	VectorIndex string
	SparseIndex string
	N           int
	Clauses     request.Clauses
}

// Builder turns query text into search requests using the table's embedding configuration.
type Builder struct {
	configs   ConfigResolver
	providers ProviderSource
	weights   request.Weights
}

// NewBuilder creates a request builder. Weights apply to every hybrid search.
func NewBuilder(configs ConfigResolver, providers ProviderSource, weights request.Weights) *Builder {
	return &Builder{configs: configs, providers: providers, weights: weights}
}

// BuildSimilarity embeds the query with the table's dense provider.
func (b *Builder) BuildSimilarity(ctx context.Context, p SearchParams) (request.Search, error) {
	if err := request.ValidateQueryText(p.Query); err != nil {
		return request.Search{}, err
	}
	cfg, err := b.resolve(ctx, p.Database, p.Table)
	if err != nil {
		return request.Search{}, err
	}

	dense, err := b.providers.Provider(cfg.EmbeddingProvider)
	if err != nil {
		return request.Search{}, fmt.Errorf("dense provider: %w", err)
	}
	vec, err := dense.DenseEmbed(ctx, p.Query, cfg.EmbeddingModel)
	if err != nil {
		return request.Search{}, fmt.Errorf("vectorize query: %w", err)
	}

	return request.NewSimilarity(p.VectorIndex, vec, p.N, p.Clauses)
}

// BuildHybrid embeds the query with the table's dense provider and sparse
// tokenizer and attaches the configured index weights.
func (b *Builder) BuildHybrid(ctx context.Context, p SearchParams) (request.Search, error) {
	if err := request.ValidateQueryText(p.Query); err != nil {
		return request.Search{}, err
	}
	cfg, err := b.resolve(ctx, p.Database, p.Table)
	if err != nil {
		return request.Search{}, err
	}
	if cfg.SparseTokenizerProvider == "" {
		return request.Search{}, fmt.Errorf("%w: no sparse tokenizer for %s.%s",
			domain.ErrConfigResolution, p.Database, p.Table)
	}

	dense, err := b.providers.Provider(cfg.EmbeddingProvider)
	if err != nil {
		return request.Search{}, fmt.Errorf("dense provider: %w", err)
	}
	sparse := dense
	if cfg.SparseTokenizerProvider != cfg.EmbeddingProvider {
		if sparse, err = b.providers.Provider(cfg.SparseTokenizerProvider); err != nil {
			return request.Search{}, fmt.Errorf("sparse provider: %w", err)
		}
	}

	vec, err := dense.DenseEmbed(ctx, p.Query, cfg.EmbeddingModel)
	if err != nil {
		return request.Search{}, fmt.Errorf("vectorize query: %w", err)
	}
	sv, err := sparse.SparseEmbed(ctx, p.Query, cfg.SparseTokenizerModel)
	if err != nil {
		return request.Search{}, fmt.Errorf("tokenize query: %w", err)
	}

	return request.NewHybrid(p.VectorIndex, p.SparseIndex, vec, sv, p.N, b.weights, p.Clauses)
}

// resolve returns the table's configuration, failing when no dense provider is configured.
func (b *Builder) resolve(ctx context.Context, database, table string) (domain.EmbeddingConfig, error) {
	cfg, err := b.configs.Resolve(ctx, database, table)
	if err != nil {
		return domain.EmbeddingConfig{}, fmt.Errorf("%w: %w", domain.ErrConfigResolution, err)
	}
	if cfg.IsZero() || cfg.EmbeddingProvider == "" {
		return domain.EmbeddingConfig{}, fmt.Errorf("%w: no unique embedding configuration for %s.%s",
			domain.ErrConfigResolution, database, table)
	}
	logger.FromContext(ctx).Debug("Embedding configuration resolved",
		zap.String("embedding_provider", cfg.EmbeddingProvider),
		zap.String("embedding_model", cfg.EmbeddingModel),
		zap.String("sparse_tokenizer_provider", cfg.SparseTokenizerProvider),
	)
	return cfg, nil
}
