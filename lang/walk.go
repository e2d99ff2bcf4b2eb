package lang

import (
	"maps"
	"slices"
)

// Walk calls fn for n and then, while fn returns true, for each node
// beneath it in evaluation order. Branch conditions and repeat counts are
// visited as *Expression nodes.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	switch n := n.(type) {
	case *PlainList:
		for _, child := range n.Nodes {
			Walk(child, fn)
		}

	case *Roulette:
		walkChoices(n.Choices, fn)

	case *InlineRandom:
		walkChoices(n.Choices, fn)

	case *Conditional:
		for _, b := range n.Branches {
			Walk(b.Cond, fn)
			Walk(b.Node, fn)
		}

		Walk(n.Else, fn)

	case *Repeat:
		if n.CountExpr != nil {
			Walk(n.CountExpr, fn)
		}

		Walk(n.Body, fn)

	case *Scoped:
		Walk(n.Node, fn)

		for item := range n.Items.All() {
			Walk(item.Body, fn)
		}
	}
}

func walkChoices(choices []Choice, fn func(Node) bool) {
	for _, ch := range choices {
		if ch.Weight.Expr != nil {
			Walk(ch.Weight.Expr, fn)
		}

		Walk(ch.Node, fn)
	}
}

// Undefined returns the sorted names of items referenced by *ItemRef nodes
// that no item table of the AST defines. Nested items count as defined
// everywhere, since a caller's nested items are visible to the items it
// generates.
func (ast *AST) Undefined() []string {
	defined := make(map[string]bool)
	refs := make(map[string]bool)

	visit := func(n Node) bool {
		switch n := n.(type) {
		case *ItemRef:
			refs[n.Name] = true

		case *Scoped:
			for _, name := range n.Items.Names() {
				defined[name] = true
			}
		}

		return true
	}

	for item := range ast.Items.All() {
		defined[item.Name] = true
		Walk(item.Body, visit)
	}

	for _, decl := range ast.Variables {
		if ref, ok := decl.Init.(*ItemRef); ok {
			refs[ref.Name] = true
		}
	}

	for name := range refs {
		if defined[name] {
			delete(refs, name)
		}
	}

	return slices.Sorted(maps.Keys(refs))
}
