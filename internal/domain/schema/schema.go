// Package schema describes table columns as reported by the database.
package schema

import "strings"

// Temporal and duration column type tokens.
const (
	TypeDatetime   = "datetime"
	TypeDatetimeNS = "datetime64[ns]"
	TypeDate       = "date"
	TypeTime       = "time"
	TypeTimespan   = "timespan"
)

// Column is a single named, typed column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is the ordered column list of a table.
type Schema []Column

// TypeOf returns the declared type of a column.
func (s Schema) TypeOf(name string) (string, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// IsDatetime reports whether typ is a full timestamp type.
func IsDatetime(typ string) bool {
	return typ == TypeDatetime || typ == TypeDatetimeNS
}

// IsTemporal reports whether literals for typ are cast before filtering.
func IsTemporal(typ string) bool {
	return IsDatetime(typ) || typ == TypeDate || typ == TypeTime
}

// IsDuration reports whether typ stores a timespan/timedelta value.
func IsDuration(typ string) bool {
	t := strings.ToLower(typ)
	return t == TypeTimespan || strings.HasPrefix(t, "timedelta") || strings.HasPrefix(t, "duration")
}

// Index describes a vector index and the column backing it.
type Index struct {
	Name   string         `json:"name"`
	Column string         `json:"column"`
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// IndexedColumns returns the set of columns that hold raw embeddings.
func IndexedColumns(indexes []Index) map[string]struct{} {
	cols := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		if idx.Column != "" {
			cols[idx.Column] = struct{}{}
		}
	}
	return cols
}
