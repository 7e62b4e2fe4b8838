package domain

import "context"

// DenseEmbedder encodes text into a fixed-length float vector.
type DenseEmbedder interface {
	DenseEmbed(ctx context.Context, text, model string) ([]float32, error)
}

// SparseEmbedder encodes text into a weighted token-id mapping.
type SparseEmbedder interface {
	SparseEmbed(ctx context.Context, text, model string) (SparseVector, error)
}

// Provider is an embedding or tokenizer backend. A provider may support only one
// of the two capabilities and return ErrUnsupportedCapability for the other.
type Provider interface {
	DenseEmbedder
	SparseEmbedder
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SparseVector maps token ids to weights.
type SparseVector map[uint32]float32

// EmbeddingConfig names the providers and models used for one (database, table).
type EmbeddingConfig struct {
	Database                string
	Table                   string
	EmbeddingProvider       string
	EmbeddingModel          string
	SparseTokenizerProvider string
	SparseTokenizerModel    string
}

// IsZero reports whether no configuration was resolved.
func (c EmbeddingConfig) IsZero() bool {
	return c == EmbeddingConfig{}
}
