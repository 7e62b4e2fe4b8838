// Package bm25 is a sparse embedding provider backed by a BM25 embedding service
// (POST /embed/bm25 returning parallel indices/values arrays).
package bm25

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
)

// ProviderName is the embedding configuration name of this provider.
const ProviderName = "bm25"

// Compile-time check: Embedder implements domain.Provider.
var _ domain.Provider = (*Embedder)(nil)

// Config holds the BM25 service settings.
type Config struct {
	Endpoint string
	Token    string
	// Language is sent when the model argument is empty. Empty means auto-detect.
	Language         string
	AverageWordCount int
	Timeout          time.Duration
	Logger           *zap.Logger
}

// Embedder calls a BM25 sparse embedding service.
type Embedder struct {
	endpoint         string
	token            string
	language         string
	averageWordCount int
	httpClient       *http.Client
	logger           *zap.Logger
}

type embedRequest struct {
	Text             string `json:"text"`
	Language         string `json:"language,omitempty"`
	AverageWordCount *int   `json:"average_word_count,omitempty"`
}

type sparseEmbedding struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// NewEmbedder creates a BM25 provider.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("bm25 endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		endpoint:         strings.TrimRight(cfg.Endpoint, "/"),
		token:            cfg.Token,
		language:         cfg.Language,
		averageWordCount: cfg.AverageWordCount,
		httpClient:       &http.Client{Timeout: timeout},
		logger:           logger,
	}, nil
}

// SparseEmbed implements domain.SparseEmbedder. The model argument selects the
// stemming language (e.g. "english"); empty falls back to the configured one.
func (e *Embedder) SparseEmbed(ctx context.Context, text, model string) (domain.SparseVector, error) {
	lang := model
	if lang == "" {
		lang = e.language
	}
	req := embedRequest{Text: text, Language: lang}
	if e.averageWordCount > 0 {
		awc := e.averageWordCount
		req.AverageWordCount = &awc
	}

	start := time.Now()
	var out sparseEmbedding
	err := e.postJSON(ctx, e.endpoint+"/embed/bm25", req, &out)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, lang, "sparse", "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, lang, "api_error").Inc()
		return nil, fmt.Errorf("bm25 embed: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(out.Indices) != len(out.Values) {
		metrics.EmbeddingErrorsTotal.WithLabelValues(ProviderName, lang, "malformed_response").Inc()
		return nil, fmt.Errorf("bm25 embed: %d indices but %d values: %w",
			len(out.Indices), len(out.Values), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(ProviderName, lang, "sparse", "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(ProviderName, lang, "sparse").Observe(duration.Seconds())

	vec := make(domain.SparseVector, len(out.Indices))
	for i, idx := range out.Indices {
		vec[idx] += out.Values[i]
	}
	domain.UsageFromContext(ctx).AddTokens(len(vec))
	e.logger.Debug("Sparse embedding created",
		zap.String("provider", ProviderName),
		zap.Duration("duration", duration),
		zap.Int("tokens", len(vec)),
	)
	return vec, nil
}

// DenseEmbed is not supported by a BM25 service.
func (e *Embedder) DenseEmbed(_ context.Context, _, _ string) ([]float32, error) {
	return nil, fmt.Errorf("provider %s: dense embeddings: %w", ProviderName, domain.ErrUnsupportedCapability)
}

// HealthCheck embeds a one-word text.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	_, err := e.SparseEmbed(ctx, "health", "")
	return err
}

// postJSON sends body as JSON and decodes the JSON response into out.
func (e *Embedder) postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("http %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
