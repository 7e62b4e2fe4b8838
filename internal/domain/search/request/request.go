package request

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

// Clauses are the optional parts shared by query and search requests.
// A nil field is omitted from the request; an empty non-nil one is sent as is.
type Clauses struct {
	Filter      []any
	SortColumns []string
	GroupBy     []string
	Aggs        map[string]any
}

// IndexParams holds per-index search parameters.
type IndexParams struct {
	Weight float64
}

// Weights are the fixed dense/sparse fusion weights for hybrid search.
type Weights struct {
	Vector float64
	Sparse float64
}

// Search is a similarity or hybrid search request against one table.
type Search struct {
	vectors     map[string][]any
	n           int
	indexParams map[string]IndexParams
	clauses     Clauses
}

// NewSimilarity builds a single-index dense search.
func NewSimilarity(vectorIndex string, dense []float32, n int, c Clauses) (Search, error) {
	if vectorIndex == "" {
		return Search{}, errors.New("vector index name is required")
	}
	if err := validateN(n); err != nil {
		return Search{}, err
	}
	return Search{
		vectors: map[string][]any{vectorIndex: {dense}},
		n:       n,
		clauses: c,
	}, nil
}

// NewHybrid builds a dense + sparse search with per-index weights. Upper
// bounds on n are left to the database. When both names are equal the sparse
// entry replaces the dense one, mirroring a keyed request body.
func NewHybrid(
	vectorIndex, sparseIndex string,
	dense []float32, sparse domain.SparseVector,
	n int, w Weights, c Clauses,
) (Search, error) {
	if vectorIndex == "" || sparseIndex == "" {
		return Search{}, errors.New("vector and sparse index names are required")
	}
	if err := validateN(n); err != nil {
		return Search{}, err
	}
	vectors := map[string][]any{vectorIndex: {dense}}
	vectors[sparseIndex] = []any{sparse}
	params := map[string]IndexParams{vectorIndex: {Weight: w.Vector}}
	params[sparseIndex] = IndexParams{Weight: w.Sparse}
	return Search{
		vectors:     vectors,
		n:           n,
		indexParams: params,
		clauses:     c,
	}, nil
}

func validateN(n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}
	return nil
}

// Vectors returns the query vectors keyed by index name. Dense vectors are
// []float32, sparse ones domain.SparseVector.
func (s *Search) Vectors() map[string][]any { return s.vectors }

// N returns the number of results requested.
func (s *Search) N() int { return s.n }

// IndexParams returns per-index weights. Nil for similarity search.
func (s *Search) IndexParams() map[string]IndexParams { return s.indexParams }

// Clauses returns the optional filter/sort/group/aggregation clauses.
func (s *Search) Clauses() Clauses { return s.clauses }

// IsHybrid reports whether the request carries index weights.
func (s *Search) IsHybrid() bool { return s.indexParams != nil }

// Query is a plain table query.
type Query struct {
	clauses Clauses
	limit   *int
}

// NewQuery validates a plain query. A nil limit leaves the row count to the database.
func NewQuery(c Clauses, limit *int) (Query, error) {
	if limit != nil && *limit <= 0 {
		return Query{}, fmt.Errorf("limit must be positive, got %d", *limit)
	}
	return Query{clauses: c, limit: limit}, nil
}

// Clauses returns the optional filter/sort/group/aggregation clauses.
func (q *Query) Clauses() Clauses { return q.clauses }

// Limit returns the row limit, nil when unset.
func (q *Query) Limit() *int { return q.limit }

// ValidateQueryText checks the free-text query used for embedding. Length is
// bounded by the embedding provider, not here.
func ValidateQueryText(query string) error {
	if query == "" {
		return errors.New("query is required")
	}
	return nil
}
