package request

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
)

func TestNewSimilarity(t *testing.T) {
	dense := []float32{0.1, 0.2}
	s, err := NewSimilarity("v_idx", dense, 5, Clauses{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.N() != 5 {
		t.Errorf("N() = %d", s.N())
	}
	if len(s.Vectors()) != 1 || len(s.Vectors()["v_idx"]) != 1 {
		t.Fatalf("Vectors() = %v", s.Vectors())
	}
	if s.IndexParams() != nil {
		t.Errorf("IndexParams() = %v, want nil", s.IndexParams())
	}
	if s.IsHybrid() {
		t.Error("IsHybrid() = true")
	}
	c := s.Clauses()
	if c.Filter != nil || c.SortColumns != nil || c.GroupBy != nil || c.Aggs != nil {
		t.Errorf("Clauses() = %+v, want all nil", c)
	}
}

func TestNewSimilarity_Validation(t *testing.T) {
	tests := []struct {
		name  string
		index string
		n     int
	}{
		{"no index", "", 5},
		{"zero n", "v", 0},
		{"negative n", "v", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSimilarity(tt.index, nil, tt.n, Clauses{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewHybrid_Weights(t *testing.T) {
	s, err := NewHybrid("v_idx", "s_idx", []float32{1}, domain.SparseVector{7: 1}, 3,
		Weights{Vector: 0.7, Sparse: 0.3}, Clauses{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	params := s.IndexParams()
	if len(params) != 2 || params["v_idx"].Weight != 0.7 || params["s_idx"].Weight != 0.3 {
		t.Errorf("IndexParams() = %v", params)
	}
	if !s.IsHybrid() {
		t.Error("IsHybrid() = false")
	}
	sparse, ok := s.Vectors()["s_idx"][0].(domain.SparseVector)
	if !ok || sparse[7] != 1 {
		t.Errorf("sparse vector = %v", s.Vectors()["s_idx"])
	}
}

func TestNewHybrid_SameIndexSparseWins(t *testing.T) {
	s, err := NewHybrid("idx", "idx", []float32{1}, domain.SparseVector{3: 2}, 3,
		Weights{Vector: 0.7, Sparse: 0.3}, Clauses{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.Vectors()["idx"][0].(domain.SparseVector); !ok || len(s.Vectors()) != 1 {
		t.Errorf("Vectors() = %v, want the sparse entry only", s.Vectors())
	}
	if p := s.IndexParams(); len(p) != 1 || p["idx"].Weight != 0.3 {
		t.Errorf("IndexParams() = %v", p)
	}
}

func TestNewSimilarity_LargeNAccepted(t *testing.T) {
	s, err := NewSimilarity("v", nil, 5000, Clauses{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.N() != 5000 {
		t.Errorf("N() = %d", s.N())
	}
}

func TestNewHybrid_MissingSparseIndex(t *testing.T) {
	if _, err := NewHybrid("idx", "", nil, nil, 3, Weights{}, Clauses{}); err == nil {
		t.Error("expected error")
	}
}

func TestClauses_EmptyKept(t *testing.T) {
	s, err := NewSimilarity("v", nil, 1, Clauses{Filter: []any{}, SortColumns: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := s.Clauses()
	if c.Filter == nil || c.SortColumns == nil {
		t.Errorf("empty clauses should stay non-nil: %+v", c)
	}
}

func TestNewQuery(t *testing.T) {
	q, err := NewQuery(Clauses{GroupBy: []string{"category"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Limit() != nil {
		t.Errorf("Limit() = %v, want nil", *q.Limit())
	}
	if len(q.Clauses().GroupBy) != 1 {
		t.Errorf("GroupBy = %v", q.Clauses().GroupBy)
	}

	ten := 10
	q, err = NewQuery(Clauses{}, &ten)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *q.Limit() != 10 {
		t.Errorf("Limit() = %d", *q.Limit())
	}
}

func TestNewQuery_LargeLimitAccepted(t *testing.T) {
	l := 200000
	q, err := NewQuery(Clauses{}, &l)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *q.Limit() != l {
		t.Errorf("Limit() = %d", *q.Limit())
	}
}

func TestNewQuery_InvalidLimit(t *testing.T) {
	for _, l := range []int{0, -5} {
		if _, err := NewQuery(Clauses{}, &l); err == nil {
			t.Errorf("limit %d: expected error", l)
		}
	}
}

func TestValidateQueryText(t *testing.T) {
	if err := ValidateQueryText("hello"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateQueryText(""); err == nil {
		t.Error("expected error for empty query")
	}
	if err := ValidateQueryText(strings.Repeat("a", 10000)); err != nil {
		t.Errorf("long query rejected: %v", err)
	}
}
