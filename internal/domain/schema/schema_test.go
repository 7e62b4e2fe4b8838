package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchema_TypeOf(t *testing.T) {
	s := Schema{{Name: "id", Type: "str"}, {Name: "ts", Type: TypeDatetime}}

	typ, ok := s.TypeOf("ts")
	assert.True(t, ok)
	assert.Equal(t, TypeDatetime, typ)

	_, ok = s.TypeOf("missing")
	assert.False(t, ok)
}

func TestTypeClassification(t *testing.T) {
	tests := []struct {
		typ      string
		datetime bool
		temporal bool
		duration bool
	}{
		{TypeDatetime, true, true, false},
		{TypeDatetimeNS, true, true, false},
		{TypeDate, false, true, false},
		{TypeTime, false, true, false},
		{TypeTimespan, false, false, true},
		{"timedelta64[ns]", false, false, true},
		{"Duration", false, false, true},
		{"str", false, false, false},
		{"float64", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.datetime, IsDatetime(tt.typ))
			assert.Equal(t, tt.temporal, IsTemporal(tt.typ))
			assert.Equal(t, tt.duration, IsDuration(tt.typ))
		})
	}
}

func TestIndexedColumns(t *testing.T) {
	cols := IndexedColumns([]Index{
		{Name: "dense", Column: "embeddings", Type: "flat"},
		{Name: "sparse", Column: "sparse_vec", Type: "bm25"},
		{Name: "broken"},
	})
	assert.Len(t, cols, 2)
	assert.Contains(t, cols, "embeddings")
	assert.Contains(t, cols, "sparse_vec")
}
