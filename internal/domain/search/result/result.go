package result

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
)

// Raw is a query or search result as returned by the database: either a table
// (ordered columns and rows) or an already record-shaped list.
type Raw struct {
	Columns schema.Schema
	Rows    [][]any
	Records []map[string]any
}

// IsTabular reports whether the result carries rows rather than records.
func (r Raw) IsTabular() bool { return r.Records == nil }

// Len returns the number of rows or records.
func (r Raw) Len() int {
	if r.IsTabular() {
		return len(r.Rows)
	}
	return len(r.Records)
}

// Record is one result row. Fields keep the column order of the result.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord creates an empty record.
func NewRecord(capacity int) Record {
	return Record{keys: make([]string, 0, capacity), values: make(map[string]any, capacity)}
}

// Set adds or replaces a field. New fields are appended.
func (r *Record) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Get returns a field value.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns field names in order.
func (r Record) Keys() []string { return r.keys }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.keys) }

// Map returns the fields as a plain map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the record as an object with fields in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// sortedKeys orders record-shaped input by declared column order, then by name.
func sortedKeys(rec map[string]any, cols schema.Schema) []string {
	pos := make(map[string]int, len(cols))
	for i, c := range cols {
		pos[c.Name] = i
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, iok := pos[keys[i]]
		pj, jok := pos[keys[j]]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
