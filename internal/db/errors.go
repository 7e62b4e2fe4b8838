package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrDatabaseNotFound = errors.New("db: database not found")
	ErrTableNotFound    = errors.New("db: table not found")
	ErrUnavailable      = errors.New("db: unavailable")
)

// Op constants name the remote operation for error context.
const (
	OpPing          = "PING"
	OpListDatabases = "LIST_DATABASES"
	OpDatabaseInfo  = "DATABASE_INFO"
	OpDatabasesInfo = "DATABASES_INFO"
	OpListTables    = "LIST_TABLES"
	OpDescribeTable = "DESCRIBE_TABLE"
	OpQuery         = "QUERY"
	OpSearch        = "SEARCH"
	OpSessionInfo   = "SESSION_INFO"
	OpSystemInfo    = "SYSTEM_INFO"
	OpProcessInfo   = "PROCESS_INFO"
	OpGet           = "GET"
	OpSet           = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
