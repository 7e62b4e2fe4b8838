package query

import (
	"context"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// Store is the database contract of the query facade.
type Store interface {
	DescribeTable(ctx context.Context, database, table string) (*db.TableDescription, error)
	Query(ctx context.Context, database, table string, q *request.Query) (*result.Raw, error)
	Search(ctx context.Context, database, table string, s *request.Search) (*result.Raw, error)
}

// ConfigResolver maps a table to its embedding configuration.
type ConfigResolver interface {
	Resolve(ctx context.Context, database, table string) (domain.EmbeddingConfig, error)
}

// ProviderSource returns embedding providers by configured name.
type ProviderSource interface {
	Provider(name string) (domain.Provider, error)
}
