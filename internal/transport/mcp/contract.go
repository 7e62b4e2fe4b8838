package mcp

import (
	"context"

	"github.com/kailas-cloud/kdbai-mcp/internal/usecase/catalog"
	"github.com/kailas-cloud/kdbai-mcp/internal/usecase/query"
)

// QueryService runs queries and searches.
type QueryService interface {
	Query(ctx context.Context, in query.QueryInput) query.Envelope
	SimilaritySearch(ctx context.Context, in query.SearchInput) query.Envelope
	HybridSearch(ctx context.Context, in query.SearchInput) query.Envelope
}

// CatalogService describes databases, tables and the server.
type CatalogService interface {
	ListDatabases(ctx context.Context) catalog.Response
	DatabaseInfo(ctx context.Context, database string) catalog.Response
	AllDatabasesInfo(ctx context.Context) catalog.Response
	ListTables(ctx context.Context, database string) catalog.Response
	TableInfo(ctx context.Context, table, database string) catalog.Response
	SessionInfo(ctx context.Context) (map[string]any, error)
	SystemInfo(ctx context.Context) (map[string]any, error)
	ProcessInfo(ctx context.Context) (map[string]any, error)
}
