package lang

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Generate renders the template from its entry item. Each call evaluates
// against a fresh root Context seeded from the variable declarations.
//
// Options given here override those the AST was parsed with.
func (ast *AST) Generate(ctx context.Context, opts ...Option) (string, error) {
	if ast.Entry == nil {
		return "", nil
	}

	return ast.generate(ctx, ast.Entry, opts...)
}

// GenerateItem renders the named item instead of the entry item.
func (ast *AST) GenerateItem(
	ctx context.Context,
	name string,
	opts ...Option,
) (string, error) {
	item, ok := ast.Items.Get(name)
	if !ok {
		return "", ErrItemNotFound.With(slog.String("item", name))
	}

	return ast.generate(ctx, item, opts...)
}

// GenerateText parses text as the content of a single option and renders it
// with the AST's items and variables in scope. Parse errors are reported
// against text, not the template.
func (ast *AST) GenerateText(
	ctx context.Context,
	text string,
	opts ...Option,
) (string, error) {
	p := &parser{source: text, opts: ast.opts.with(opts...), ast: ast}

	node, err := p.inline(strings.TrimSpace(text), Position{Line: 1, Column: 1}, false)
	if err != nil {
		return "", err
	}

	item := &Item{
		Name: "(text)",
		Body: &Roulette{Choices: []Choice{{Weight: DefaultWeight, Node: node}}},
	}

	return ast.generate(ctx, item, opts...)
}

func (ast *AST) generate(
	ctx context.Context,
	item *Item,
	opts ...Option,
) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	o := ast.opts.with(opts...)
	g := newGeneration(ctx, ast, o)

	o.logger.TraceContext(ctx, "generate start",
		slog.String("item", item.Name),
		slog.Int("max_recursion", g.maxDepth))

	root, err := ast.seed(g)
	if err != nil {
		return "", err
	}

	out, err := root.generateItem(item)
	if err != nil {
		o.logger.DebugContext(ctx, "generate failed", slog.Any("error", err))

		return "", err
	}

	o.logger.TraceContext(ctx, "generate complete",
		slog.String("item", item.Name),
		slog.Int("length", len(out)))

	return out, nil
}

// seed builds the root Context. Initializer nodes are evaluated in order
// against a scope with no variables.
func (ast *AST) seed(g *generation) (*Context, error) {
	root := g.root()
	blank := g.root()

	for _, decl := range ast.Variables {
		var value any

		switch init := decl.Init.(type) {
		case nil:
			if decl.Type == VarNum {
				value = 0
			} else {
				value = ""
			}

		case *Expression:
			v, err := blank.evalExpression(init)
			switch {
			case isHard(err):
				return nil, err

			case err != nil:
				value = exprErrorMarker(err)

			default:
				value = v
			}

		case *ItemRef:
			s, err := blank.eval(init)
			if err != nil {
				return nil, err
			}

			value = s

		default:
			value = init
		}

		if s, ok := value.(string); ok && decl.Init != nil && !isLiteral(decl.Init) {
			if n, ok := parseNumber(s); ok {
				value = n
			}
		}

		if decl.Type == VarNum {
			if n, ok := numeric(value); ok {
				value = n
			}
		}

		root.Set(decl.Name, value)
	}

	return root, nil
}

func isLiteral(init any) bool {
	switch init.(type) {
	case *Expression, *ItemRef:
		return false
	}

	return true
}

// generateItem renders item's body, tracking it in the item chain.
func (c *Context) generateItem(item *Item) (string, error) {
	g := c.gen
	g.chain = append(g.chain, item.Name)

	defer func() { g.chain = g.chain[:len(g.chain)-1] }()

	if item.Body == nil {
		return "", nil
	}

	return c.eval(item.Body)
}

// eval renders n. Every call counts toward the recursion limit.
func (c *Context) eval(n Node) (string, error) {
	if err := c.enter(); err != nil {
		return "", err
	}
	defer c.exit()

	switch n := n.(type) {
	case *Text:
		return n.Value, nil

	case *PlainList:
		var buf strings.Builder

		for _, child := range n.Nodes {
			s, err := c.eval(child)
			if err != nil {
				return "", err
			}

			buf.WriteString(s)
		}

		return buf.String(), nil

	case *Roulette:
		return c.choose(n.Choices)

	case *InlineRandom:
		return c.choose(n.Choices)

	case *Variable:
		v, ok := c.Lookup(n.Name)
		if !ok {
			return "None", nil
		}

		if node, ok := v.(Node); ok {
			return c.eval(node)
		}

		return render(v), nil

	case *ItemRef:
		item, ok := c.Item(n.Name)
		if !ok {
			c.gen.logger.Trace("undefined item", slog.String("item", n.Name))

			return "[undefined: " + n.Name + "]", nil
		}

		return c.generateItem(item)

	case *Expression:
		v, err := c.evalExpression(n)
		switch {
		case isHard(err):
			return "", err

		case err != nil:
			c.gen.logger.Trace("expression failed",
				slog.String("source", n.Source),
				slog.String("error", err.Error()))

			return exprErrorMarker(err), nil
		}

		return render(v), nil

	case *SideEffect:
		if n.Mutation == nil {
			c.gen.logger.Trace("ignore unrecognized side effect",
				slog.String("source", n.Source))

			return "", nil
		}

		return "", n.Mutation.apply(c)

	case *Conditional:
		return c.branch(n)

	case *Repeat:
		return c.repeat(n)

	case *Scoped:
		return c.Child(n.Items).eval(n.Node)

	default:
		return "", ErrInvalidNodeKind.With(slog.String("type", typeName(n)))
	}
}

// choose selects one of choices with probability proportional to its
// weight. Dynamic weights are evaluated on every call; a failing weight
// counts as 1. When every weight is zero the result is empty.
func (c *Context) choose(choices []Choice) (string, error) {
	if len(choices) == 0 {
		return "", nil
	}

	weights := make([]float64, len(choices))

	var total float64

	for i, ch := range choices {
		w, err := c.weight(ch.Weight)
		if err != nil {
			return "", err
		}

		weights[i] = w
		total += w
	}

	if total <= 0 {
		return "", nil
	}

	pick := c.gen.rng.Float64() * total
	for i, w := range weights {
		if pick < w {
			return c.eval(choices[i].Node)
		}

		pick -= w
	}

	// Floating-point residue: fall back to the last selectable choice.
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			return c.eval(choices[i].Node)
		}
	}

	return "", nil
}

func (c *Context) weight(w Weight) (float64, error) {
	if w.Expr == nil {
		return max(w.Value, 0), nil
	}

	v, err := c.evalExpression(w.Expr)
	if err != nil {
		if isHard(err) {
			return 0, err
		}

		return 1, nil
	}

	f, ok := toFloat(v)
	if !ok {
		return 1, nil
	}

	return max(f, 0), nil
}

func (c *Context) branch(n *Conditional) (string, error) {
	for _, b := range n.Branches {
		v, err := c.evalExpression(b.Cond)
		if err != nil {
			if isHard(err) {
				return "", err
			}

			continue
		}

		if truthy(v) {
			return c.eval(b.Node)
		}
	}

	if n.Else != nil {
		return c.eval(n.Else)
	}

	return "", nil
}

func (c *Context) repeat(n *Repeat) (string, error) {
	count := n.Count

	if n.CountExpr != nil {
		v, err := c.evalExpression(n.CountExpr)
		if isHard(err) {
			return "", err
		}

		count = 1

		if err == nil {
			if i, ok := toInt(v); ok {
				count = i
			}
		}
	}

	count = min(max(count, 0), c.gen.maxRepeat)

	var buf strings.Builder

	for i := range count {
		if n.UseIndex {
			c.Set("i", i+1)
		}

		s, err := c.eval(n.Body)
		if err != nil {
			return "", err
		}

		buf.WriteString(s)
	}

	return buf.String(), nil
}

// isHard reports whether err must abort the whole generation.
func isHard(err error) bool {
	if err == nil {
		return false
	}

	var gerr *GenerationError

	return errors.As(err, &gerr)
}

// exprErrorMarker renders a soft expression failure in place.
func exprErrorMarker(err error) string {
	cause := err

	var ee *Error
	if errors.As(err, &ee) && ee.err != nil {
		cause = ee.err
	}

	return "[expr error: " + cause.Error() + "]"
}
