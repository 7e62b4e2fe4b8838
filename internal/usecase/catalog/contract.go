package catalog

import (
	"context"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
)

// Store is the database contract of the catalog service.
type Store interface {
	db.Catalog
	DescribeTable(ctx context.Context, database, table string) (*db.TableDescription, error)
}
