package db

import (
	"context"
	"time"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// Store is the vector database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	Catalog
	TableReader
	Querier
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Catalog lists databases and reports server metadata.
type Catalog interface {
	ListDatabases(ctx context.Context) ([]string, error)
	DatabaseInfo(ctx context.Context, database string) (map[string]any, error)
	DatabasesInfo(ctx context.Context) (map[string]any, error)
	ListTables(ctx context.Context, database string) ([]string, error)
	SessionInfo(ctx context.Context) (map[string]any, error)
	SystemInfo(ctx context.Context) (map[string]any, error)
	ProcessInfo(ctx context.Context) (map[string]any, error)
}

// TableReader returns table metadata.
type TableReader interface {
	DescribeTable(ctx context.Context, database, table string) (*TableDescription, error)
}

// Querier runs queries and searches against a table.
type Querier interface {
	Query(ctx context.Context, database, table string, q *request.Query) (*result.Raw, error)
	Search(ctx context.Context, database, table string, s *request.Search) (*result.Raw, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TableDescription is the schema, vector indexes and statistics of one table.
type TableDescription struct {
	Database string
	Name     string
	Schema   schema.Schema
	Indexes  []schema.Index
	// Info holds server-reported statistics such as rowCount and disk usage.
	Info map[string]any
}

// IndexedColumns returns the columns backing the table's vector indexes.
func (d *TableDescription) IndexedColumns() map[string]struct{} {
	return schema.IndexedColumns(d.Indexes)
}
