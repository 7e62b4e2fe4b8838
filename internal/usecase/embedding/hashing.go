package embedding

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
)

// HashingProviderName is the configuration name of the local sparse tokenizer.
const HashingProviderName = "hashing"

// DefaultVocabularySize is the token id space of the hashing tokenizer.
const DefaultVocabularySize = 1 << 20

// bm25K1 controls term frequency saturation.
const bm25K1 = 1.2

// Compile-time check: HashingTokenizer implements domain.Provider.
var _ domain.Provider = (*HashingTokenizer)(nil)

// HashingTokenizer produces sparse vectors locally: tokens are lowercased
// alphanumeric runs, ids are xxhash64 of the token modulo the vocabulary size,
// weights are saturated term frequencies.
type HashingTokenizer struct {
	vocabulary uint64
}

// NewHashingTokenizer creates a tokenizer. A non-positive size selects DefaultVocabularySize.
func NewHashingTokenizer(vocabularySize int) *HashingTokenizer {
	if vocabularySize <= 0 {
		vocabularySize = DefaultVocabularySize
	}
	return &HashingTokenizer{vocabulary: uint64(vocabularySize)}
}

// SparseEmbed implements domain.SparseEmbedder. The model argument is ignored.
func (h *HashingTokenizer) SparseEmbed(ctx context.Context, text, model string) (domain.SparseVector, error) {
	start := time.Now()

	tokens := Tokenize(text)
	tf := make(map[uint32]int, len(tokens))
	for _, tok := range tokens {
		tf[h.TokenID(tok)]++
	}

	vec := make(domain.SparseVector, len(tf))
	for id, n := range tf {
		f := float32(n)
		vec[id] = f * (bm25K1 + 1) / (f + bm25K1)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(HashingProviderName, model, "sparse", "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(HashingProviderName, model, "sparse").
		Observe(time.Since(start).Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(HashingProviderName, model, "input").Add(float64(len(tokens)))
	domain.UsageFromContext(ctx).AddTokens(len(tokens))
	return vec, nil
}

// DenseEmbed is not supported by a tokenizer.
func (h *HashingTokenizer) DenseEmbed(_ context.Context, _, _ string) ([]float32, error) {
	return nil, fmt.Errorf("provider %s: dense embeddings: %w", HashingProviderName, domain.ErrUnsupportedCapability)
}

// TokenID maps a token to its id.
func (h *HashingTokenizer) TokenID(token string) uint32 {
	return uint32(xxhash.Sum64String(token) % h.vocabulary)
}

// Tokenize splits text into lowercased runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
