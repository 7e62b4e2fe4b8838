package kdbai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
)

// ListDatabases returns the names of all databases.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	var raw json.RawMessage
	if err := c.do(ctx, db.OpListDatabases, http.MethodGet, c.endpoint("databases"), nil, &raw); err != nil {
		return nil, err
	}
	names, err := decodeNames(raw, "databases")
	if err != nil {
		return nil, &db.Error{Op: db.OpListDatabases, Err: err}
	}
	return names, nil
}

// DatabaseInfo returns metadata of one database including its tables.
func (c *Client) DatabaseInfo(ctx context.Context, database string) (map[string]any, error) {
	return c.info(ctx, db.OpDatabaseInfo, c.endpoint("databases", database, "info"))
}

// DatabasesInfo returns metadata of every database.
func (c *Client) DatabasesInfo(ctx context.Context) (map[string]any, error) {
	return c.info(ctx, db.OpDatabasesInfo, c.endpoint("databases", "info"))
}

// ListTables returns the table names of a database.
func (c *Client) ListTables(ctx context.Context, database string) ([]string, error) {
	var raw json.RawMessage
	target := c.endpoint("databases", database, "tables")
	if err := c.do(ctx, db.OpListTables, http.MethodGet, target, nil, &raw); err != nil {
		return nil, err
	}
	names, err := decodeNames(raw, "tables")
	if err != nil {
		return nil, &db.Error{Op: db.OpListTables, Err: err}
	}
	return names, nil
}

// SessionInfo returns information about the current session.
func (c *Client) SessionInfo(ctx context.Context) (map[string]any, error) {
	return c.info(ctx, db.OpSessionInfo, c.endpoint("info", "session"))
}

// SystemInfo returns server system information.
func (c *Client) SystemInfo(ctx context.Context) (map[string]any, error) {
	return c.info(ctx, db.OpSystemInfo, c.endpoint("info", "system"))
}

// ProcessInfo returns server process information.
func (c *Client) ProcessInfo(ctx context.Context) (map[string]any, error) {
	return c.info(ctx, db.OpProcessInfo, c.endpoint("info", "process"))
}

func (c *Client) info(ctx context.Context, op, target string) (map[string]any, error) {
	var out map[string]any
	if err := c.do(ctx, op, http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
