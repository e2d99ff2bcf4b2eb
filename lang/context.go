package lang

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/AlseFum/Texus/log"
)

// Context is the evaluation scope of one generation. Nested item blocks get
// child scopes that read through to their parent but never write back.
type Context struct {
	vars   map[string]any
	local  *ItemTable
	parent *Context
	gen    *generation
}

// generation is the state shared by every scope of a single generation.
type generation struct {
	ctx       context.Context
	items     *ItemTable
	consts    map[string]bool
	rng       *rand.Rand
	logger    log.Logger
	depth     int
	maxDepth  int
	maxRepeat int
	chain     []string
}

func newGeneration(ctx context.Context, ast *AST, o options) *generation {
	consts := make(map[string]bool)

	for _, decl := range ast.Variables {
		if decl.Const {
			consts[decl.Name] = true
		}
	}

	return &generation{
		ctx:       ctx,
		items:     ast.Items,
		consts:    consts,
		rng:       o.random(),
		logger:    o.logger,
		maxDepth:  o.maxRecursion,
		maxRepeat: o.maxRepeat,
	}
}

func (g *generation) root() *Context {
	return &Context{vars: make(map[string]any), gen: g}
}

// Child returns a new scope whose lookups fall back to c.
func (c *Context) Child(items *ItemTable) *Context {
	return &Context{
		vars:   make(map[string]any),
		local:  items,
		parent: c,
		gen:    c.gen,
	}
}

// Lookup returns the value bound to name in c or its nearest ancestor.
func (c *Context) Lookup(name string) (any, bool) {
	for s := c; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Set binds name in c's own scope.
func (c *Context) Set(name string, value any) {
	c.vars[name] = value
}

// Item looks up an item in c's local items, then the template's items, then
// the local items of each enclosing scope.
func (c *Context) Item(name string) (*Item, bool) {
	if item, ok := c.local.Get(name); ok {
		return item, true
	}

	if item, ok := c.gen.items.Get(name); ok {
		return item, true
	}

	for s := c.parent; s != nil; s = s.parent {
		if item, ok := s.local.Get(name); ok {
			return item, true
		}
	}

	return nil, false
}

// enter accounts for one node evaluation. It fails when the generation has
// been cancelled or nests deeper than the recursion limit.
func (c *Context) enter() error {
	g := c.gen

	if err := g.ctx.Err(); err != nil {
		return &GenerationError{Err: ErrCancelled.Wrap(err), Chain: g.trail()}
	}

	if g.depth >= g.maxDepth {
		g.logger.DebugContext(g.ctx, "recursion limit reached",
			slog.Int("max", g.maxDepth),
			slog.Any("chain", g.trail()))

		return &GenerationError{
			Err:   ErrRecursionLimit.With(slog.Int("max", g.maxDepth)),
			Chain: g.trail(),
		}
	}

	g.depth++

	return nil
}

func (c *Context) exit() {
	c.gen.depth--
}

// maxTrail bounds the item chain reported with a GenerationError.
const maxTrail = 8

func (g *generation) trail() []string {
	if len(g.chain) <= maxTrail {
		return slices.Clone(g.chain)
	}

	return slices.Clone(g.chain[len(g.chain)-maxTrail:])
}
