// Package catalog implements the database, table and server information operations.
package catalog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/kdbai-mcp/internal/metrics"
)

// Operation names, used in logs and metrics.
const (
	OpListDatabases    = "kdbai_list_databases"
	OpDatabaseInfo     = "kdbai_database_info"
	OpAllDatabasesInfo = "kdbai_all_databases_info"
	OpListTables       = "kdbai_list_tables"
	OpTableInfo        = "kdbai_table_info"
	OpSessionInfo      = "kdbai_session_info"
	OpSystemInfo       = "kdbai_system_info"
	OpProcessInfo      = "kdbai_process_info"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response is a JSON object returned to the caller.
type Response map[string]any

// Service answers catalog questions about the database server.
type Service struct {
	store           Store
	defaultDatabase string
	logger          *zap.Logger
}

// New creates a catalog service. defaultDatabase is used when a request names none.
func New(store Store, defaultDatabase string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, defaultDatabase: defaultDatabase, logger: logger}
}

// ListDatabases returns {"status","databases"}.
func (s *Service) ListDatabases(ctx context.Context) Response {
	start := time.Now()
	names, err := s.store.ListDatabases(ctx)
	if s.observe(OpListDatabases, start, err) {
		return Response{"status": statusError, "message": err.Error()}
	}
	if names == nil {
		names = []string{}
	}
	return Response{"status": statusSuccess, "databases": names}
}

// DatabaseInfo returns {"status","info"} for one database, including its tables.
func (s *Service) DatabaseInfo(ctx context.Context, database string) Response {
	start := time.Now()
	info, err := s.store.DatabaseInfo(ctx, s.database(database))
	if s.observe(OpDatabaseInfo, start, err, zap.String("database", s.database(database))) {
		return Response{"status": statusError, "message": err.Error()}
	}
	return Response{"status": statusSuccess, "info": info}
}

// AllDatabasesInfo returns {"status","info"} covering every database.
func (s *Service) AllDatabasesInfo(ctx context.Context) Response {
	start := time.Now()
	info, err := s.store.DatabasesInfo(ctx)
	if s.observe(OpAllDatabasesInfo, start, err) {
		return Response{"status": statusError, "message": err.Error()}
	}
	return Response{"status": statusSuccess, "info": info}
}

// ListTables returns {"database","tables"}.
func (s *Service) ListTables(ctx context.Context, database string) Response {
	start := time.Now()
	database = s.database(database)
	tables, err := s.store.ListTables(ctx, database)
	if s.observe(OpListTables, start, err, zap.String("database", database)) {
		return Response{"status": statusError, "message": err.Error(), "database": database}
	}
	if tables == nil {
		tables = []string{}
	}
	return Response{"database": database, "tables": tables}
}

// TableInfo returns the server's table statistics plus "schema" and, when the
// table has any, "indexes".
func (s *Service) TableInfo(ctx context.Context, table, database string) Response {
	start := time.Now()
	database = s.database(database)

	var err error
	if table == "" {
		err = errors.New("table name is required")
	}
	out := Response{}
	if err == nil {
		desc, derr := s.store.DescribeTable(ctx, database, table)
		if err = derr; err == nil {
			for k, v := range desc.Info {
				out[k] = v
			}
			if _, ok := out["name"]; !ok {
				out["name"] = desc.Name
			}
			if _, ok := out["database"]; !ok {
				out["database"] = desc.Database
			}
			out["schema"] = desc.Schema
			if len(desc.Indexes) > 0 {
				out["indexes"] = desc.Indexes
			}
		}
	}

	if s.observe(OpTableInfo, start, err, zap.String("database", database), zap.String("table", table)) {
		return Response{"status": statusError, "message": err.Error(), "database": database}
	}
	return out
}

// SessionInfo returns the server's session information.
func (s *Service) SessionInfo(ctx context.Context) (map[string]any, error) {
	return s.serverInfo(ctx, OpSessionInfo, s.store.SessionInfo)
}

// SystemInfo returns the server's system information.
func (s *Service) SystemInfo(ctx context.Context) (map[string]any, error) {
	return s.serverInfo(ctx, OpSystemInfo, s.store.SystemInfo)
}

// ProcessInfo returns the server's process information.
func (s *Service) ProcessInfo(ctx context.Context) (map[string]any, error) {
	return s.serverInfo(ctx, OpProcessInfo, s.store.ProcessInfo)
}

func (s *Service) serverInfo(
	ctx context.Context, op string,
	fetch func(context.Context) (map[string]any, error),
) (map[string]any, error) {
	start := time.Now()
	info, err := fetch(ctx)
	if s.observe(op, start, err) {
		return nil, err
	}
	return info, nil
}

func (s *Service) database(name string) string {
	if name == "" {
		return s.defaultDatabase
	}
	return name
}

// observe records metrics and logs failures. It reports whether err is non-nil.
func (s *Service) observe(op string, start time.Time, err error, fields ...zap.Field) bool {
	metrics.ToolCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ToolCallsTotal.WithLabelValues(op, statusError).Inc()
		s.logger.Error("Catalog operation failed",
			append(fields, zap.String("operation", op), zap.Error(err))...)
		return true
	}
	metrics.ToolCallsTotal.WithLabelValues(op, statusSuccess).Inc()
	return false
}
