package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/kdbai-mcp/internal/domain"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/temporal"
)

var tableSchema = schema.Schema{
	{Name: "status", Type: "string"},
	{Name: "created_at", Type: schema.TypeDatetime},
	{Name: "day", Type: schema.TypeDate},
	{Name: "clock", Type: schema.TypeTime},
	{Name: "price", Type: "float64"},
}

func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestCompileRaw_StatusAndCreatedAt(t *testing.T) {
	raw := []any{
		[]any{"=", "status", "active"},
		[]any{"<", "created_at", "2025-01-01T00:00:00Z"},
	}
	s := schema.Schema{{Name: "status", Type: "string"}, {Name: "created_at", Type: "datetime"}}

	got, err := CompileRaw(raw, s)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []any{"=", "status", "active"}, got[0])

	second := got[1].([]any)
	assert.Equal(t, "<", second[0])
	assert.Equal(t, "created_at", second[1])
	want, err := temporal.ParseDatetime("2025-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.True(t, want.Equal(second[2].(time.Time)))
}

func TestCompileRaw_EmptyAndNil(t *testing.T) {
	got, err := CompileRaw([]any{}, tableSchema)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = CompileRaw(nil, tableSchema)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompileRaw_TypedByColumn(t *testing.T) {
	tests := []struct {
		name string
		node []any
		want any
	}{
		{"date takes date part", []any{">=", "day", "2025-02-03T10:00:00Z"}, temporal.Date{Year: 2025, Month: time.February, Day: 3}},
		{"time takes time part", []any{"<", "clock", "2025-02-03T10:15:00"}, temporal.TimeOfDay{Hour: 10, Minute: 15}},
		{"datetime", []any{">", "created_at", "2024-06-01T08:00:00Z"}, utc(2024, time.June, 1, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompileRaw([]any{tt.node}, tableSchema)
			require.NoError(t, err)
			lit := got[0].([]any)[2]
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(lit.(time.Time)))
				return
			}
			assert.Equal(t, tt.want, lit)
		})
	}
}

func TestCompileRaw_NonTemporalIsIdentity(t *testing.T) {
	raw := []any{
		[]any{"=", "status", "2025-01-01T00:00:00Z"},
		[]any{">", "price", 10.5},
		[]any{"in", "status", []any{"a", "b"}},
		[]any{"like", "unknown_col", "2025-01-01"},
	}
	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	// Unknown heads are not compiled, so a datetime literal stays a string.
	between := got[1].([]any)
	assert.IsType(t, "", between[2])
	assert.Equal(t, "2024-01-01T00:00:00Z", between[2])

	nested, err := CompileRaw([]any{
		[]any{"and", []any{"after", "day", "2024-03-01"}, []any{">", "day", "2024-01-01"}},
	}, tableSchema)
	require.NoError(t, err)
	and := nested[0].([]any)
	assert.Equal(t, []any{"after", "day", "2024-03-01"}, and[1])
	assert.IsType(t, temporal.Date{}, and[2].([]any)[2])
}

func TestCompileRaw_ISOListCastEachElement(t *testing.T) {
	raw := []any{[]any{"within", "created_at", []any{"2024-01-01T00:00:00Z", "2024-12-31T00:00:00Z"}}}

	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)

	bounds := got[0].([]any)[2].([]any)
	require.Len(t, bounds, 2)
	assert.True(t, utc(2024, time.January, 1, 0).Equal(bounds[0].(time.Time)))
	assert.True(t, utc(2024, time.December, 31, 0).Equal(bounds[1].(time.Time)))
}

func TestCompileRaw_MixedListUntouched(t *testing.T) {
	raw := []any{[]any{"in", "created_at", []any{"2024-01-01T00:00:00Z", "yesterday"}}}
	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCompileRaw_NestedLogical(t *testing.T) {
	raw := []any{
		[]any{"or",
			[]any{"<", "created_at", "2024-01-01T00:00:00Z"},
			[]any{"and",
				[]any{"=", "status", "archived"},
				[]any{"not", []any{">", "day", "2023-05-05"}},
			},
		},
	}

	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)

	or := got[0].([]any)
	assert.Equal(t, "or", or[0])
	lt := or[1].([]any)
	assert.True(t, utc(2024, time.January, 1, 0).Equal(lt[2].(time.Time)))

	and := or[2].([]any)
	assert.Equal(t, []any{"=", "status", "archived"}, and[1])
	not := and[2].([]any)
	assert.Equal(t, "not", not[0])
	assert.Equal(t, []any{">", "day", temporal.Date{Year: 2023, Month: time.May, Day: 5}}, not[1])
}

func TestCompileRaw_ReversedComparisonNotCast(t *testing.T) {
	raw := []any{[]any{">", "2025-01-01T00:00:00Z", "created_at"}}

	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCompileRaw_MalformedLiteralAborts(t *testing.T) {
	raw := []any{
		[]any{"<", "created_at", "2024-01-01T00:00:00Z"},
		[]any{"and",
			[]any{"=", "status", "x"},
			[]any{">", "day", "2024-02-30"},
		},
	}

	got, err := CompileRaw(raw, tableSchema)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, domain.ErrParse))

	var pe *domain.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "day", pe.Column)
	assert.Equal(t, "2024-02-30", pe.Literal)
	assert.Equal(t, schema.TypeDate, pe.Type)
}

func TestCompileRaw_UnrecognizedShapesPassThrough(t *testing.T) {
	raw := []any{
		[]any{"="},
		[]any{"between", "created_at", "2024-01-01T00:00:00Z"},
		[]any{"in", "status", "a", "b"},
		"status",
	}
	got, err := CompileRaw(raw, tableSchema)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestCompile_DoesNotMutateInput(t *testing.T) {
	nodes := Parse([]any{[]any{"in", "created_at", []any{"2024-01-01T00:00:00Z"}}})
	_, err := Compile(nodes, tableSchema)
	require.NoError(t, err)

	list := nodes[0].(Comparison).Right.(List)
	assert.Equal(t, "2024-01-01T00:00:00Z", list.Items[0])
}

func TestParse_Variants(t *testing.T) {
	nodes := Parse([]any{
		[]any{"=", "status", "active"},
		[]any{"and", []any{"=", "a", 1}, []any{"=", "b", 2}},
		[]any{"not", []any{"=", "a", 1}},
		[]any{"nope", "a", 1},
		[]any{"in", "a", []any{1, 2}},
	})
	require.Len(t, nodes, 5)

	assert.IsType(t, Comparison{}, nodes[0])
	assert.IsType(t, Logical{}, nodes[1])
	assert.IsType(t, Unary{}, nodes[2])
	assert.IsType(t, Opaque{}, nodes[3])

	in := nodes[4].(Comparison)
	assert.Equal(t, Value{V: "a"}, in.Left)
	assert.Equal(t, List{Items: []any{1, 2}}, in.Right)
}

func TestParse_NestedRightHandSide(t *testing.T) {
	nodes := Parse([]any{[]any{"=", "status", []any{"like", "name", "x*"}}})
	cmp := nodes[0].(Comparison)
	assert.IsType(t, Comparison{}, cmp.Right)
}

func TestEncode_RoundTrip(t *testing.T) {
	raw := []any{
		[]any{"or", []any{"=", "a", 1.0}, []any{"not", []any{"in", "b", []any{"x", "y"}}}},
		[]any{"fuzzy", "name", []any{"jon", 2.0}},
		[]any{1, 2, 3, 4},
	}
	assert.Equal(t, raw, Encode(Parse(raw)))
}

func TestIsOperator(t *testing.T) {
	for _, op := range []string{"and", "or", "not", "=", "<>", "<", ">", "<=", ">=", "in", "like", "within", "fuzzy"} {
		assert.True(t, IsOperator(op), op)
	}
	assert.False(t, IsOperator("between"))
	assert.False(t, IsOperator(1))
}
