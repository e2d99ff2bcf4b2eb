package lang

import (
	"encoding/json"
)

// MarshalJSON implements json.Marshaler for AST.
func (ast *AST) MarshalJSON() ([]byte, error) {
	return json.Marshal(ast.ToMap())
}

// ToMap converts the AST to native Go maps and slices. Items and variables
// are kept as ordered lists.
func (ast *AST) ToMap() map[string]any {
	result := make(map[string]any)

	if ast.Entry != nil {
		result["entry"] = ast.Entry.Name
	}

	vars := make([]any, 0, len(ast.Variables))
	for _, decl := range ast.Variables {
		vars = append(vars, decl.ToMap())
	}

	result["variables"] = vars
	result["items"] = itemsToNative(ast.Items)

	return result
}

// ToMap converts the declaration to a native Go map.
func (decl *VariableDeclaration) ToMap() map[string]any {
	m := map[string]any{"name": decl.Name}

	if decl.Type != VarUntyped {
		m["type"] = decl.Type.String()
	}

	if decl.Const {
		m["const"] = true
	}

	if decl.Once {
		m["once"] = true
	}

	switch init := decl.Init.(type) {
	case nil:

	case Node:
		m["init"] = NodeToNative(init)

	default:
		m["init"] = init
	}

	return m
}

func itemsToNative(items *ItemTable) []any {
	out := make([]any, 0, items.Len())

	for item := range items.All() {
		out = append(out, map[string]any{
			"name":    item.Name,
			"line":    item.Line,
			"options": choicesToNative(item.Body.Choices),
		})
	}

	return out
}

func choicesToNative(choices []Choice) []any {
	out := make([]any, len(choices))

	for i, ch := range choices {
		m := map[string]any{"node": NodeToNative(ch.Node)}

		if ch.Weight.Expr != nil {
			m["weight"] = "#[" + ch.Weight.Expr.Source + "]"
		} else {
			m["weight"] = ch.Weight.Value
		}

		out[i] = m
	}

	return out
}

// NodeToNative converts a generator node to native Go maps and slices.
func NodeToNative(n Node) map[string]any {
	m := map[string]any{"kind": n.Kind().String()}

	switch n := n.(type) {
	case *Text:
		m["value"] = n.Value

	case *PlainList:
		nodes := make([]any, len(n.Nodes))
		for i, child := range n.Nodes {
			nodes[i] = NodeToNative(child)
		}

		m["nodes"] = nodes

	case *Roulette:
		m["choices"] = choicesToNative(n.Choices)

	case *InlineRandom:
		m["choices"] = choicesToNative(n.Choices)

	case *Variable:
		m["name"] = n.Name

	case *ItemRef:
		m["name"] = n.Name

	case *Expression:
		m["source"] = n.Source

		if err := n.Err(); err != nil {
			m["error"] = err.Error()
		}

	case *SideEffect:
		m["source"] = n.Source

		if n.Mutation != nil {
			m["mutation"] = n.Mutation.String()
		}

	case *Conditional:
		branches := make([]any, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = map[string]any{
				"cond": b.Cond.Source,
				"node": NodeToNative(b.Node),
			}
		}

		m["branches"] = branches

		if n.Else != nil {
			m["else"] = NodeToNative(n.Else)
		}

	case *Repeat:
		if n.CountExpr != nil {
			m["count"] = "#[" + n.CountExpr.Source + "]"
		} else {
			m["count"] = n.Count
		}

		m["body"] = NodeToNative(n.Body)

		if n.UseIndex {
			m["index"] = "i"
		}

	case *Scoped:
		m["node"] = NodeToNative(n.Node)
		m["items"] = itemsToNative(n.Items)
	}

	return m
}
