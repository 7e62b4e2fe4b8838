// Package query implements the query, similarity search and hybrid search
// operations: filter compilation, request building, execution and result
// normalization, collapsed into an Envelope.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/filter"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
	"github.com/kailas-cloud/kdbai-mcp/internal/logger"
	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
)

// Operation names, used in logs and metrics.
const (
	OpQuery            = "kdbai_query_data"
	OpSimilaritySearch = "kdbai_similarity_search"
	OpHybridSearch     = "kdbai_hybrid_search"
)

// Defaults applied when a request leaves database or n unset.
type Defaults struct {
	Database string
	N        int
}

// Clauses are the raw (uncompiled) optional parts of a request.
type Clauses struct {
	Filter      []any
	SortColumns []string
	GroupBy     []string
	Aggs        map[string]any
}

// QueryInput is a plain table query.
type QueryInput struct {
	Database string
	Table    string
	Clauses  Clauses
	Limit    *int
}

// SearchInput is a similarity or hybrid search. SparseIndex is ignored by
// similarity search. A nil N selects the default.
type SearchInput struct {
	Database    string
	Table       string
	Query       string
	VectorIndex string
	SparseIndex string
	N           *int
	Clauses     Clauses
}

// Service is the query facade.
type Service struct {
	store    Store
	builder  *Builder
	defaults Defaults
	logger   *zap.Logger
}

// New creates a query service.
func New(store Store, builder *Builder, defaults Defaults, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, builder: builder, defaults: defaults, logger: logger}
}

// Query runs a filtered, sorted, grouped or aggregated query.
func (s *Service) Query(ctx context.Context, in QueryInput) Envelope {
	database := s.database(in.Database)
	return s.run(ctx, OpQuery, database, in.Table, func(ctx context.Context) ([]result.Record, error) {
		desc, err := s.describe(ctx, database, in.Table)
		if err != nil {
			return nil, err
		}
		clauses, err := compileClauses(in.Clauses, desc)
		if err != nil {
			return nil, err
		}
		q, err := request.NewQuery(clauses, in.Limit)
		if err != nil {
			return nil, err
		}
		raw, err := s.store.Query(ctx, database, in.Table, &q)
		if err != nil {
			return nil, storeError("query table", err)
		}
		return normalize(raw, desc)
	})
}

// SimilaritySearch runs a dense vector search for the query text.
func (s *Service) SimilaritySearch(ctx context.Context, in SearchInput) Envelope {
	database := s.database(in.Database)
	return s.run(ctx, OpSimilaritySearch, database, in.Table, func(ctx context.Context) ([]result.Record, error) {
		return s.search(ctx, database, in, s.builder.BuildSimilarity)
	})
}

// HybridSearch runs a weighted dense + sparse search for the query text.
func (s *Service) HybridSearch(ctx context.Context, in SearchInput) Envelope {
	database := s.database(in.Database)
	return s.run(ctx, OpHybridSearch, database, in.Table, func(ctx context.Context) ([]result.Record, error) {
		return s.search(ctx, database, in, s.builder.BuildHybrid)
	})
}

type buildFunc func(ctx context.Context, p SearchParams) (request.Search, error)

func (s *Service) search(ctx context.Context, database string, in SearchInput, build buildFunc) ([]result.Record, error) {
	desc, err := s.describe(ctx, database, in.Table)
	if err != nil {
		return nil, err
	}
	clauses, err := compileClauses(in.Clauses, desc)
	if err != nil {
		return nil, err
	}

	n := s.defaults.N
	if in.N != nil {
		n = *in.N
	}
	req, err := build(ctx, SearchParams{
		Database:    database,
		Table:       in.Table,
		Query:       in.Query,
		VectorIndex: in.VectorIndex,
		SparseIndex: in.SparseIndex,
		N:           n,
		Clauses:     clauses,
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.store.Search(ctx, database, in.Table, &req)
	if err != nil {
		return nil, storeError("search table", err)
	}
	return normalize(raw, desc)
}

// run executes one operation and collapses its outcome into an envelope.
func (s *Service) run(
	ctx context.Context, op, database, table string,
	fn func(ctx context.Context) ([]result.Record, error),
) Envelope {
	start := time.Now()
	log := s.logger.With(
		zap.String("operation", op),
		zap.String("operation_id", uuid.NewString()),
		zap.String("database", database),
		zap.String("table", table),
	)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx, usage := domain.NewContextWithUsage(ctx)

	var (
		records []result.Record
		err     error
	)
	if table == "" {
		err = errors.New("table name is required")
	} else {
		records, err = fn(ctx)
	}

	metrics.ToolCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(op, StatusError).Inc()
		log.Error("Operation failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return Failure(database, table, err)
	}

	metrics.ToolCallsTotal.WithLabelValues(op, StatusSuccess).Inc()
	metrics.ToolRecordsReturned.WithLabelValues(op).Observe(float64(len(records)))
	log.Debug("Operation completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("records", len(records)),
		zap.Int("embedding_calls", usage.Calls),
		zap.Int("embedding_tokens", usage.TotalTokens),
	)
	return Success(database, table, records)
}

func (s *Service) database(name string) string {
	if name == "" {
		return s.defaults.Database
	}
	return name
}

// storeError classifies a database failure as ErrNotFound or ErrUpstream.
func storeError(stage string, err error) error {
	if errors.Is(err, db.ErrTableNotFound) || errors.Is(err, db.ErrDatabaseNotFound) {
		return fmt.Errorf("%s: %w: %w", stage, domain.ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w: %w", stage, domain.ErrUpstream, err)
}

func (s *Service) describe(ctx context.Context, database, table string) (*db.TableDescription, error) {
	desc, err := s.store.DescribeTable(ctx, database, table)
	if err != nil {
		return nil, storeError("describe table", err)
	}
	return desc, nil
}

// compileClauses casts temporal literals of the filter against the table schema.
func compileClauses(c Clauses, desc *db.TableDescription) (request.Clauses, error) {
	compiled, err := filter.CompileRaw(c.Filter, desc.Schema)
	if err != nil {
		return request.Clauses{}, fmt.Errorf("compile filter: %w", err)
	}
	return request.Clauses{
		Filter:      compiled,
		SortColumns: c.SortColumns,
		GroupBy:     c.GroupBy,
		Aggs:        c.Aggs,
	}, nil
}

// normalize fills missing column types from the table schema, then drops
// vector index columns and converts durations. Unnamed tabular rows take the
// table's column names only when every row has the table's width; aggregated
// or grouped results have their own shape.
func normalize(raw *result.Raw, desc *db.TableDescription) ([]result.Record, error) {
	if raw == nil {
		return []result.Record{}, nil
	}
	r := *raw
	if len(r.Columns) == 0 {
		if r.IsTabular() {
			for i, row := range r.Rows {
				if len(row) != len(desc.Schema) {
					return nil, fmt.Errorf("%w: row %d has %d values without column names, table %s has %d columns",
						domain.ErrUpstream, i, len(row), desc.Name, len(desc.Schema))
				}
			}
		}
		r.Columns = desc.Schema
	} else {
		cols := make(schema.Schema, len(r.Columns))
		copy(cols, r.Columns)
		for i, c := range cols {
			if c.Type == "" {
				cols[i].Type, _ = desc.Schema.TypeOf(c.Name)
			}
		}
		r.Columns = cols
	}
	return result.Normalize(r, desc.IndexedColumns()), nil
}
