// Package filter parses, compiles and encodes nested filter trees.
//
// On the wire a filter is a list of nodes, each node itself a list:
//
//	[["=", "status", "active"], ["<", "created_at", "2025-01-01T00:00:00Z"]]
//	["and", [...], [...]]
//	["not", [...]]
//
// Parse turns the loosely typed wire form into a closed set of node types,
// Compile casts temporal literals against a table schema and Encode turns the
// result back into the wire form expected by the database.
//
// Only nodes headed by a known operator are compiled. Any other node, even a
// three-element one such as ["between", "created_at", "2024-01-01"], is kept
// as Opaque and sent unchanged, so its literals are not cast.
package filter

// Operator tokens recognized at the head of a node.
const (
	OpAnd    = "and"
	OpOr     = "or"
	OpNot    = "not"
	OpEq     = "="
	OpNe     = "<>"
	OpLt     = "<"
	OpGt     = ">"
	OpLe     = "<="
	OpGe     = ">="
	OpIn     = "in"
	OpLike   = "like"
	OpWithin = "within"
	OpFuzzy  = "fuzzy"
)

var operators = map[string]struct{}{
	OpAnd: {}, OpOr: {}, OpNot: {},
	OpEq: {}, OpNe: {}, OpLt: {}, OpGt: {}, OpLe: {}, OpGe: {},
	OpIn: {}, OpLike: {}, OpWithin: {}, OpFuzzy: {},
}

// IsOperator reports whether tok belongs to the operator vocabulary.
func IsOperator(tok any) bool {
	s, ok := tok.(string)
	if !ok {
		return false
	}
	_, ok = operators[s]
	return ok
}

// Node is one filter expression.
type Node interface {
	Operand
	node()
}

// Operand is either side of a binary node or the argument of a unary node.
type Operand interface {
	operand()
}

// Comparison compares a column with a literal, a literal list or a nested node.
type Comparison struct {
	Op    string
	Left  Operand
	Right Operand
}

// Logical combines two nodes with "and" or "or".
type Logical struct {
	Op    string
	Left  Operand
	Right Operand
}

// Unary applies an operator ("not") to a single operand.
type Unary struct {
	Op      string
	Operand Operand
}

// Opaque holds a node of unrecognized shape. It is passed through unchanged.
type Opaque struct {
	Raw any
}

// Value is a scalar operand: a column name on the left, a literal on the right.
type Value struct {
	V any
}

// List is a plain literal list, e.g. the right-hand side of "in".
type List struct {
	Items []any
}

func (Comparison) node() {}
func (Logical) node()    {}
func (Unary) node()      {}
func (Opaque) node()     {}

func (Comparison) operand() {}
func (Logical) operand()    {}
func (Unary) operand()      {}
func (Opaque) operand()     {}
func (Value) operand()      {}
func (List) operand()       {}

// Parse converts a wire-form filter into nodes. It never fails: elements of an
// unrecognized shape (unknown head token, arity other than 2 or 3, non-list
// elements) become Opaque.
func Parse(raw []any) []Node {
	if raw == nil {
		return nil
	}
	nodes := make([]Node, 0, len(raw))
	for _, el := range raw {
		nodes = append(nodes, parseNode(el))
	}
	return nodes
}

func parseNode(raw any) Node {
	items, ok := asList(raw)
	if !ok || len(items) < 2 || len(items) > 3 || !IsOperator(items[0]) {
		return Opaque{Raw: raw}
	}
	op := items[0].(string)

	if len(items) == 2 {
		return Unary{Op: op, Operand: parseInner(items[1])}
	}

	left := parseInner(items[1])
	right := parseRight(items[2])
	if op == OpAnd || op == OpOr {
		return Logical{Op: op, Left: left, Right: right}
	}
	return Comparison{Op: op, Left: left, Right: right}
}

// parseInner handles operands that are always treated as sub-expressions when
// list-shaped: the left side of a binary node and the argument of a unary one.
func parseInner(raw any) Operand {
	if _, ok := asList(raw); ok {
		return parseNode(raw)
	}
	return Value{V: raw}
}

// parseRight treats a list as a sub-expression only when it looks like one.
func parseRight(raw any) Operand {
	items, ok := asList(raw)
	if !ok {
		return Value{V: raw}
	}
	if isNested(items) {
		return parseNode(raw)
	}
	return List{Items: items}
}

func isNested(items []any) bool {
	return len(items) >= 2 && IsOperator(items[0])
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Encode converts nodes back to the wire form.
func Encode(nodes []Node) []any {
	if nodes == nil {
		return nil
	}
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, encodeOperand(n))
	}
	return out
}

func encodeOperand(o Operand) any {
	switch v := o.(type) {
	case Comparison:
		return []any{v.Op, encodeOperand(v.Left), encodeOperand(v.Right)}
	case Logical:
		return []any{v.Op, encodeOperand(v.Left), encodeOperand(v.Right)}
	case Unary:
		return []any{v.Op, encodeOperand(v.Operand)}
	case Opaque:
		return v.Raw
	case Value:
		return v.V
	case List:
		items := make([]any, len(v.Items))
		copy(items, v.Items)
		return items
	default:
		return nil
	}
}
