package filter

import (
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/schema"
	"github.com/kailas-cloud/kdbai-mcp/internal/domain/temporal"
)

// Compile returns a copy of nodes with every temporal literal cast to the type
// of its governing column. The governing column is always taken from the left
// operand: a comparison written as [op, literal, column] is not cast.
// The first malformed literal aborts compilation.
func Compile(nodes []Node, s schema.Schema) ([]Node, error) {
	if nodes == nil {
		return nil, nil
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		c, err := compileNode(n, s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// CompileRaw parses, compiles and encodes a wire-form filter.
func CompileRaw(raw []any, s schema.Schema) ([]any, error) {
	nodes, err := Compile(Parse(raw), s)
	if err != nil {
		return nil, err
	}
	return Encode(nodes), nil
}

func compileNode(n Node, s schema.Schema) (Node, error) {
	switch v := n.(type) {
	case Comparison:
		left, right, err := compileBinary(v.Left, v.Right, s)
		if err != nil {
			return nil, err
		}
		return Comparison{Op: v.Op, Left: left, Right: right}, nil
	case Logical:
		left, right, err := compileBinary(v.Left, v.Right, s)
		if err != nil {
			return nil, err
		}
		return Logical{Op: v.Op, Left: left, Right: right}, nil
	case Unary:
		inner, err := compileNested(v.Operand, s)
		if err != nil {
			return nil, err
		}
		return Unary{Op: v.Op, Operand: inner}, nil
	default:
		return n, nil
	}
}

func compileBinary(left, right Operand, s schema.Schema) (Operand, Operand, error) {
	col, castable := governingColumn(left)

	left, err := compileNested(left, s)
	if err != nil {
		return nil, nil, err
	}

	switch r := right.(type) {
	case Node:
		right, err = compileNode(r, s)
	case List:
		right, err = compileList(col, castable, r, s)
	case Value:
		right, err = compileValue(col, castable, r, s)
	}
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func compileNested(o Operand, s schema.Schema) (Operand, error) {
	if n, ok := o.(Node); ok {
		return compileNode(n, s)
	}
	return o, nil
}

func compileList(col string, castable bool, l List, s schema.Schema) (Operand, error) {
	if !castable || !allISO(l.Items) {
		return l, nil
	}
	items := make([]any, len(l.Items))
	for i, it := range l.Items {
		v, err := temporal.Cast(col, it, s)
		if err != nil {
			return nil, err
		}
		items[i] = v
	}
	return List{Items: items}, nil
}

func compileValue(col string, castable bool, v Value, s schema.Schema) (Operand, error) {
	if !castable {
		return v, nil
	}
	c, err := temporal.Cast(col, v.V, s)
	if err != nil {
		return nil, err
	}
	return Value{V: c}, nil
}

// governingColumn resolves the column a binary node's literals are cast for.
// A nested left operand has no column and falls back to the default datetime
// type. A left value that is not a column name never matches the schema.
func governingColumn(left Operand) (string, bool) {
	switch l := left.(type) {
	case Value:
		name, ok := l.V.(string)
		if !ok || name == "" {
			return "", false
		}
		return name, true
	case List:
		return "", false
	default:
		return "", true
	}
}

func allISO(items []any) bool {
	for _, it := range items {
		s, ok := it.(string)
		if !ok || !temporal.IsISODatetime(s) {
			return false
		}
	}
	return true
}
