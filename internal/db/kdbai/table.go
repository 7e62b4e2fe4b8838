package kdbai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/kailas-cloud/kdbai-mcp/internal/db"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// DescribeTable returns the schema, vector indexes and statistics of a table.
func (c *Client) DescribeTable(ctx context.Context, database, table string) (*db.TableDescription, error) {
	var raw json.RawMessage
	target := c.endpoint("databases", database, "tables", table)
	if err := c.do(ctx, db.OpDescribeTable, http.MethodGet, target, nil, &raw); err != nil {
		return nil, err
	}

	var dto tableDTO
	if err := unmarshal(raw, &dto); err != nil {
		return nil, &db.Error{Op: db.OpDescribeTable, Err: err}
	}
	var info map[string]any
	if err := unmarshal(raw, &info); err != nil {
		return nil, &db.Error{Op: db.OpDescribeTable, Err: err}
	}
	delete(info, "schema")
	delete(info, "indexes")

	return &db.TableDescription{
		Database: database,
		Name:     table,
		Schema:   dto.Schema,
		Indexes:  dto.indexes(),
		Info:     info,
	}, nil
}

// Query runs a filtered/sorted/grouped query against a table.
func (c *Client) Query(ctx context.Context, database, table string, q *request.Query) (*result.Raw, error) {
	var raw json.RawMessage
	target := c.endpoint("databases", database, "tables", table, "query")
	if err := c.do(ctx, db.OpQuery, http.MethodPost, target, queryBody{q: q}, &raw); err != nil {
		return nil, err
	}
	res, err := decodeResult(raw, false)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return res, nil
}

// Search runs a similarity or hybrid search and returns the hits of the
// (single) query vector.
func (c *Client) Search(ctx context.Context, database, table string, s *request.Search) (*result.Raw, error) {
	var raw json.RawMessage
	target := c.endpoint("databases", database, "tables", table, "search")
	if err := c.do(ctx, db.OpSearch, http.MethodPost, target, searchBody{s: s}, &raw); err != nil {
		return nil, err
	}
	res, err := decodeResult(raw, true)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return res, nil
}
