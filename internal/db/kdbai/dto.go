package kdbai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/request"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/search/result"
)

// errorResponse covers the error body shapes returned by the server.
type errorResponse struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) message() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	case e.Detail != nil:
		if s, ok := e.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(e.Detail)
		return string(b)
	default:
		return ""
	}
}

type indexDTO struct {
	Name   string         `json:"name"`
	Column string         `json:"column"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

type tableDTO struct {
	Schema  []schema.Column `json:"schema"`
	Indexes []indexDTO      `json:"indexes"`
}

func (t tableDTO) indexes() []schema.Index {
	out := make([]schema.Index, 0, len(t.Indexes))
	for _, idx := range t.Indexes {
		out = append(out, schema.Index{Name: idx.Name, Column: idx.Column, Type: idx.Type, Params: idx.Params})
	}
	return out
}

// queryBody is the POST body of a table query. Nil clauses are left out.
type queryBody struct {
	q *request.Query
}

func (b queryBody) MarshalJSON() ([]byte, error) {
	m := clausesToMap(b.q.Clauses())
	if l := b.q.Limit(); l != nil {
		m["limit"] = *l
	}
	return json.Marshal(m)
}

// searchBody is the POST body of a similarity or hybrid search.
type searchBody struct {
	s *request.Search
}

type indexParamsDTO struct {
	Weight float64 `json:"weight"`
}

func (b searchBody) MarshalJSON() ([]byte, error) {
	m := clausesToMap(b.s.Clauses())
	m["vectors"] = b.s.Vectors()
	m["n"] = b.s.N()
	if params := b.s.IndexParams(); params != nil {
		dto := make(map[string]indexParamsDTO, len(params))
		for name, p := range params {
			dto[name] = indexParamsDTO(p)
		}
		m["indexParams"] = dto
	}
	return json.Marshal(m)
}

func clausesToMap(c request.Clauses) map[string]any {
	m := make(map[string]any, 6)
	if c.Filter != nil {
		m["filter"] = c.Filter
	}
	if c.SortColumns != nil {
		m["sortColumns"] = c.SortColumns
	}
	if c.GroupBy != nil {
		m["groupBy"] = c.GroupBy
	}
	if c.Aggs != nil {
		m["aggs"] = c.Aggs
	}
	return m
}

// tabularDTO is the column-oriented result shape.
type tabularDTO struct {
	Columns json.RawMessage `json:"columns"`
	Data    [][]any         `json:"data"`
}

var errUnexpectedResult = errors.New("unexpected result shape")

// decodeResult accepts a record list, a {"columns","data"} table, or either of
// them wrapped in {"result": ...}. For search results the server returns one
// list per query vector; the first one is used.
func decodeResult(raw json.RawMessage, perQuery bool) (*result.Raw, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &result.Raw{Records: []map[string]any{}}, nil
	}

	if raw[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		if inner, ok := wrapper["result"]; ok {
			return decodeResult(inner, perQuery)
		}
		if _, ok := wrapper["data"]; ok {
			return decodeTabular(raw)
		}
		return nil, fmt.Errorf("%w: object without result or data", errUnexpectedResult)
	}

	if raw[0] != '[' {
		return nil, fmt.Errorf("%w: %.32s", errUnexpectedResult, raw)
	}

	var items []json.RawMessage
	if err := unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if perQuery && len(items) > 0 {
		first := bytes.TrimSpace(items[0])
		if len(first) > 0 && (first[0] == '[' || isTabularObject(first)) {
			return decodeResult(first, false)
		}
	}

	records := make([]map[string]any, 0, len(items))
	for _, it := range items {
		var rec map[string]any
		if err := unmarshal(it, &rec); err != nil {
			return nil, fmt.Errorf("%w: %w", errUnexpectedResult, err)
		}
		records = append(records, rec)
	}
	return &result.Raw{Records: records}, nil
}

func isTabularObject(raw json.RawMessage) bool {
	if raw[0] != '{' {
		return false
	}
	var probe map[string]json.RawMessage
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	_, hasData := probe["data"]
	_, hasColumns := probe["columns"]
	_, hasResult := probe["result"]
	return (hasData && hasColumns) || hasResult
}

func decodeTabular(raw json.RawMessage) (*result.Raw, error) {
	var t tabularDTO
	if err := unmarshal(raw, &t); err != nil {
		return nil, err
	}
	cols, err := decodeColumns(t.Columns)
	if err != nil {
		return nil, err
	}
	rows := t.Data
	if rows == nil {
		rows = [][]any{}
	}
	return &result.Raw{Columns: cols, Rows: rows}, nil
}

// decodeColumns accepts ["a","b"] or [{"name":"a","type":"..."}].
func decodeColumns(raw json.RawMessage) (schema.Schema, error) {
	if len(raw) == 0 {
		return schema.Schema{}, nil
	}
	var typed schema.Schema
	if err := json.Unmarshal(raw, &typed); err == nil {
		return typed, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("%w: columns: %w", errUnexpectedResult, err)
	}
	cols := make(schema.Schema, len(names))
	for i, n := range names {
		cols[i] = schema.Column{Name: n}
	}
	return cols, nil
}

// decodeNames accepts ["a","b"], [{"name":"a"}] or {key: [...]}.
func decodeNames(raw json.RawMessage, key string) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, err
		}
		inner, ok := wrapper[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", errUnexpectedResult, key)
		}
		return decodeNames(inner, key)
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}
	var named []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil, fmt.Errorf("%w: %w", errUnexpectedResult, err)
	}
	names = make([]string, len(named))
	for i, n := range named {
		names[i] = n.Name
	}
	return names, nil
}

// unmarshal decodes keeping numbers as json.Number.
func unmarshal(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
