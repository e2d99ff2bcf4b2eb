package lang

import (
	"iter"
	"math/rand/v2"

	"github.com/AlseFum/Texus/log"
)

// DefaultMaxRecursion is the default maximum nesting of node evaluations
// within a single generation.
const DefaultMaxRecursion = 100

// DefaultMaxRepeat is the default upper bound on a repeat count.
const DefaultMaxRepeat = 10000

// EntryItem is the name of the item used as the generation root when present.
const EntryItem = "main"

// AST is a compiled template: its item table, its variable declarations, and
// the item generation starts from. An AST is immutable after parsing and may
// be shared by concurrent generations.
type AST struct {
	Entry     *Item
	Items     *ItemTable
	Variables []*VariableDeclaration

	opts options
}

// Option configures parsing or generation.
type Option func(*options)

type options struct {
	logger       log.Logger
	rng          *rand.Rand
	seed         *uint64
	maxRecursion int
	maxRepeat    int
}

// WithLogger sets the logger used for trace output while parsing and
// generating.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRand sets the random source used for weighted selection. A *rand.Rand
// is not safe for concurrent use, so concurrent generations must not share
// one.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSeed makes generation deterministic by seeding a fresh PCG source.
// It is ignored when WithRand is also given.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithMaxRecursion sets the maximum evaluation depth. Values below 1 select
// DefaultMaxRecursion.
func WithMaxRecursion(depth int) Option {
	return func(o *options) { o.maxRecursion = depth }
}

// WithMaxRepeat sets the maximum repeat count. Values below 0 select
// DefaultMaxRepeat.
func WithMaxRepeat(count int) Option {
	return func(o *options) { o.maxRepeat = count }
}

func makeOptions(opts ...Option) options {
	o := options{
		maxRecursion: DefaultMaxRecursion,
		maxRepeat:    DefaultMaxRepeat,
	}

	return o.with(opts...)
}

func (o options) with(opts ...Option) options {
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.maxRecursion < 1 {
		o.maxRecursion = DefaultMaxRecursion
	}

	if o.maxRepeat < 0 {
		o.maxRepeat = DefaultMaxRepeat
	}

	return o
}

func (o options) random() *rand.Rand {
	switch {
	case o.rng != nil:
		return o.rng

	case o.seed != nil:
		return rand.New(rand.NewPCG(*o.seed, *o.seed^0x9e3779b97f4a7c15))

	default:
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// VarType is the declared type of a template variable.
type VarType int

const (
	// VarUntyped is a variable declared without a type.
	VarUntyped VarType = iota

	// VarNum is a variable declared with type num.
	VarNum

	// VarStr is a variable declared with type str.
	VarStr
)

// String returns the keyword used to declare the type.
func (t VarType) String() string {
	switch t {
	case VarNum:
		return "num"

	case VarStr:
		return "str"

	default:
		return ""
	}
}

// VariableDeclaration is a top-level "$name" line.
//
// Init is nil, a literal scalar (int, float64 or string), or a node
// (*Expression or *ItemRef) evaluated when generation starts.
type VariableDeclaration struct {
	Name  string
	Type  VarType
	Const bool
	Once  bool
	Init  any
	Line  int
}

// Item is a named template fragment. Its body is always a Roulette over the
// options declared beneath its header.
type Item struct {
	Name string
	Body *Roulette
	Line int
}

// ItemTable maps item names to items, preserving the order in which names
// were first defined. Redefining a name replaces the item in place.
type ItemTable struct {
	index map[string]int
	items []*Item
}

// NewItemTable returns an empty item table.
func NewItemTable() *ItemTable {
	return &ItemTable{index: make(map[string]int)}
}

// Define adds item to the table, replacing any item with the same name.
func (t *ItemTable) Define(item *Item) {
	if i, ok := t.index[item.Name]; ok {
		t.items[i] = item

		return
	}

	t.index[item.Name] = len(t.items)
	t.items = append(t.items, item)
}

// Get returns the item with the given name.
func (t *ItemTable) Get(name string) (*Item, bool) {
	if t == nil {
		return nil, false
	}

	i, ok := t.index[name]
	if !ok {
		return nil, false
	}

	return t.items[i], true
}

// Len returns the number of items.
func (t *ItemTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.items)
}

// Names returns the item names in definition order.
func (t *ItemTable) Names() []string {
	if t == nil {
		return nil
	}

	names := make([]string, len(t.items))
	for i, item := range t.items {
		names[i] = item.Name
	}

	return names
}

// All returns an iterator over the items in definition order.
func (t *ItemTable) All() iter.Seq[*Item] {
	return func(yield func(*Item) bool) {
		if t == nil {
			return
		}

		for _, item := range t.items {
			if !yield(item) {
				return
			}
		}
	}
}

// Kind identifies the variant of a Node.
type Kind int

const (
	// KindText is literal output text.
	KindText Kind = iota

	// KindPlainList concatenates its children.
	KindPlainList

	// KindRoulette selects one weighted choice.
	KindRoulette

	// KindInlineRandom is a Roulette written inline with #(a|b).
	KindInlineRandom

	// KindVariable renders a variable binding.
	KindVariable

	// KindItemRef generates a named item.
	KindItemRef

	// KindExpression evaluates an arithmetic or logical expression.
	KindExpression

	// KindSideEffect mutates a variable and renders nothing.
	KindSideEffect

	// KindConditional renders the first branch whose condition holds.
	KindConditional

	// KindRepeat renders its body a number of times.
	KindRepeat

	// KindScoped evaluates a node with nested item definitions in scope.
	KindScoped
)

// String returns a string representation of the node kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "Text"

	case KindPlainList:
		return "PlainList"

	case KindRoulette:
		return "Roulette"

	case KindInlineRandom:
		return "InlineRandom"

	case KindVariable:
		return "Variable"

	case KindItemRef:
		return "ItemRef"

	case KindExpression:
		return "Expression"

	case KindSideEffect:
		return "SideEffect"

	case KindConditional:
		return "Conditional"

	case KindRepeat:
		return "Repeat"

	case KindScoped:
		return "Scoped"

	default:
		return "Unknown"
	}
}

// Node is a generator node. The set of implementations is closed: every
// variant is declared in this package.
type Node interface {
	Kind() Kind
	node()
}

type (
	// Text is literal output.
	Text struct {
		Value string
	}

	// PlainList evaluates its children in order and concatenates them.
	PlainList struct {
		Nodes []Node
	}

	// Roulette selects one of its choices with probability proportional to
	// its weight.
	Roulette struct {
		Choices []Choice
	}

	// InlineRandom has Roulette semantics and is written #(a|b|c).
	InlineRandom struct {
		Choices []Choice
	}

	// Variable renders the value bound to Name.
	Variable struct {
		Name string
	}

	// ItemRef generates the item called Name.
	ItemRef struct {
		Name string
	}

	// Expression is a compiled #[...] expression. It never mutates state.
	Expression struct {
		Source string

		prog *program
	}

	// SideEffect applies a Mutation and renders nothing. Mutation is nil
	// when Source is not a recognized mutation.
	SideEffect struct {
		Source   string
		Mutation *Mutation
	}

	// Conditional renders the first branch whose condition is truthy, or
	// Else when none is.
	Conditional struct {
		Branches []Branch
		Else     Node
	}

	// Repeat renders Body Count times, or CountExpr times when CountExpr is
	// non-nil. When UseIndex is set, the variable "i" is bound to the
	// 1-based iteration number before each iteration.
	Repeat struct {
		Count     int
		CountExpr *Expression
		Body      Node
		UseIndex  bool
	}

	// Scoped evaluates Node in a child scope where Items are visible.
	Scoped struct {
		Node  Node
		Items *ItemTable
	}
)

// Branch is one condition of a Conditional.
type Branch struct {
	Cond *Expression
	Node Node
}

// Choice is a weighted option of a Roulette or InlineRandom.
type Choice struct {
	Weight Weight
	Node   Node
}

// Weight is a static selection weight, or a dynamic one when Expr is set.
type Weight struct {
	Value float64
	Expr  *Expression
}

// DefaultWeight is the weight of an option without a weight prefix.
var DefaultWeight = Weight{Value: 1}

// IsDefault reports whether w is the implicit weight 1.
func (w Weight) IsDefault() bool { return w.Expr == nil && w.Value == 1 }

func (*Text) Kind() Kind         { return KindText }
func (*PlainList) Kind() Kind    { return KindPlainList }
func (*Roulette) Kind() Kind     { return KindRoulette }
func (*InlineRandom) Kind() Kind { return KindInlineRandom }
func (*Variable) Kind() Kind     { return KindVariable }
func (*ItemRef) Kind() Kind      { return KindItemRef }
func (*Expression) Kind() Kind   { return KindExpression }
func (*SideEffect) Kind() Kind   { return KindSideEffect }
func (*Conditional) Kind() Kind  { return KindConditional }
func (*Repeat) Kind() Kind       { return KindRepeat }
func (*Scoped) Kind() Kind       { return KindScoped }

func (*Text) node()         {}
func (*PlainList) node()    {}
func (*Roulette) node()     {}
func (*InlineRandom) node() {}
func (*Variable) node()     {}
func (*ItemRef) node()      {}
func (*Expression) node()   {}
func (*SideEffect) node()   {}
func (*Conditional) node()  {}
func (*Repeat) node()       {}
func (*Scoped) node()       {}

// Declaration returns the declaration of the named variable.
func (ast *AST) Declaration(name string) (*VariableDeclaration, bool) {
	for _, decl := range ast.Variables {
		if decl.Name == name {
			return decl, true
		}
	}

	return nil, false
}

// declare records decl, replacing an earlier declaration of the same name
// while keeping its original position.
func (ast *AST) declare(decl *VariableDeclaration) {
	for i, prev := range ast.Variables {
		if prev.Name == decl.Name {
			ast.Variables[i] = decl

			return
		}
	}

	ast.Variables = append(ast.Variables, decl)
}

// selectEntry chooses the generation root: "main" if defined, else the first
// item in source order.
func (ast *AST) selectEntry() {
	if item, ok := ast.Items.Get(EntryItem); ok {
		ast.Entry = item

		return
	}

	for item := range ast.Items.All() {
		ast.Entry = item

		return
	}
}
