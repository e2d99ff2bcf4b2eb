package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"

	"github.com/AlseFum/Texus/log"
)

// ref is a "$name" or "#name" reference inside an expression, bound to a
// positional identifier in the compiled program.
type ref struct {
	name  string
	ident string
	item  bool
}

// program is the compiled form of an expression.
type program struct {
	refs []ref
	run  *vm.Program
	err  error // compile failure, reported at evaluation time

	// A top-level "cond ? a : b" compiles only its condition; the branches
	// are text with references interpolated.
	cond      *program
	then, els string
	isTernary bool
}

// NewExpression compiles source into an Expression. Compile failures do not
// fail the call: they are reported each time the expression is evaluated.
func NewExpression(source string, opts ...Option) *Expression {
	o := makeOptions(opts...)

	return &Expression{
		Source: source,
		prog:   compileProgram(source, o.logger),
	}
}

// Err returns the compile error of e, or nil.
func (e *Expression) Err() error {
	if e.prog == nil {
		return nil
	}

	if e.prog.isTernary {
		return e.prog.cond.err
	}

	return e.prog.err
}

func compileProgram(source string, logger log.Logger) *program {
	source = strings.ReplaceAll(source, `\$`, "$")

	if cond, then, els, ok := splitTernary(source); ok {
		logger.Trace("compile ternary",
			slog.String("cond", cond),
			slog.String("then", then),
			slog.String("else", els))

		return &program{
			isTernary: true,
			cond:      compileProgram(cond, logger),
			then:      unquote(strings.TrimSpace(then)),
			els:       unquote(strings.TrimSpace(els)),
		}
	}

	rewritten, refs := rewriteRefs(source)

	guard := &exprGuard{logger: logger}

	// References are bound at run time; their types are unknown here.
	run, err := expr.Compile(rewritten,
		expr.AllowUndefinedVariables(),
		expr.DisableAllBuiltins(),
		expr.Patch(guard),
	)

	switch {
	case guard.err != nil:
		err = guard.err

	case err != nil:
		err = ErrExprCompile.Wrap(errors.New(firstLine(err.Error()))).
			With(slog.String("source", source))
	}

	if err != nil {
		logger.Trace("compile expression failed",
			slog.String("source", source),
			slog.String("error", err.Error()))

		return &program{refs: refs, err: err}
	}

	return &program{refs: refs, run: run}
}

// exprGuard rejects every expr construct outside the template dialect:
// literals, identifiers, parentheses, and a fixed operator set.
type exprGuard struct {
	err    error
	logger log.Logger
}

var (
	unaryOperators = map[string]bool{
		"-": true, "+": true, "not": true, "!": true,
	}
	binaryOperators = map[string]bool{
		"+": true, "-": true, "*": true, "/": true, "%": true,
		">": true, "<": true, ">=": true, "<=": true, "==": true, "!=": true,
		"and": true, "or": true, "&&": true, "||": true,
	}
)

// Visit implements ast.Visitor for exprGuard.
func (g *exprGuard) Visit(node *ast.Node) {
	if g.err != nil {
		return
	}

	switch n := (*node).(type) {
	case *ast.NilNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode,
		*ast.StringNode, *ast.IdentifierNode:
		return

	case *ast.UnaryNode:
		if unaryOperators[n.Operator] {
			return
		}

		g.reject("operator " + n.Operator)

	case *ast.BinaryNode:
		if binaryOperators[n.Operator] {
			return
		}

		g.reject("operator " + n.Operator)

	default:
		g.reject(strings.TrimPrefix(typeName(n), "*ast."))
	}
}

func (g *exprGuard) reject(what string) {
	g.err = ErrExprForbidden.Wrap(errors.New(what))
	g.logger.Trace("reject expression construct", slog.String("construct", what))
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

// rewriteRefs replaces "$name" and "#name" outside string literals with
// positional identifiers v0, v1, ... and i0, i1, ... Repeated references to
// the same name share an identifier.
func rewriteRefs(source string) (string, []ref) {
	var (
		out   strings.Builder
		refs  []ref
		quote rune
		seen  = make(map[string]string)
	)

	src := []rune(source)
	for i := 0; i < len(src); i++ {
		r := src[i]

		if quote != 0 {
			out.WriteRune(r)

			switch {
			case r == '\\' && i+1 < len(src):
				i++
				out.WriteRune(src[i])

			case r == quote:
				quote = 0
			}

			continue
		}

		if r == '"' || r == '\'' {
			quote = r
			out.WriteRune(r)

			continue
		}

		if (r == '$' || r == '#') && i+1 < len(src) && isWordRune(src[i+1]) {
			j := i + 1
			for j < len(src) && isWordRune(src[j]) {
				j++
			}

			name := string(src[i+1 : j])
			key := string(r) + name

			ident, ok := seen[key]
			if !ok {
				prefix := "v"
				if r == '#' {
					prefix = "i"
				}

				ident = prefix + strconv.Itoa(len(refs))
				seen[key] = ident
				refs = append(refs, ref{name: name, ident: ident, item: r == '#'})
			}

			out.WriteString(ident)

			i = j - 1

			continue
		}

		out.WriteRune(r)
	}

	return out.String(), refs
}

// splitTernary splits "cond ? a : b" at its top-level '?' and the first
// top-level ':' after it.
func splitTernary(source string) (cond, then, els string, ok bool) {
	q := topLevelIndex(source, '?', 0)
	if q < 0 {
		return "", "", "", false
	}

	c := topLevelIndex(source, ':', q+1)
	if c < 0 {
		return "", "", "", false
	}

	return source[:q], source[q+1 : c], source[c+1:], true
}

// topLevelIndex returns the byte index of the first r at or after from that
// is outside quotes and brackets, or -1.
func topLevelIndex(s string, r rune, from int) int {
	var (
		depth int
		quote rune
		skip  bool
	)

	for i, c := range s {
		if i < from {
			continue
		}

		if skip {
			skip = false

			continue
		}

		switch {
		case c == '\\':
			skip = true

		case quote != 0:
			if c == quote {
				quote = 0
			}

		case c == '"' || c == '\'':
			quote = c

		case c == '(' || c == '[' || c == '{':
			depth++

		case c == ')' || c == ']' || c == '}':
			depth--

		case c == r && depth == 0:
			return i
		}
	}

	return -1
}

// unquote strips one pair of surrounding double or single quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}

	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}

	return s
}

// isWordRune reports whether r may appear in a bare variable or item name.
// Names are ASCII so that references can abut other text, as in "第$i项";
// other names are written in the quoted form.
func isWordRune(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
}

// evalExpression evaluates e against c and returns its typed result.
// A *GenerationError from a referenced item is returned unchanged; any other
// error is a soft failure the caller renders inline.
func (c *Context) evalExpression(e *Expression) (any, error) {
	if e == nil || e.prog == nil {
		return nil, ErrExprEvaluate.Wrap(errors.New("empty expression"))
	}

	return c.runProgram(e.prog)
}

func (c *Context) runProgram(p *program) (any, error) {
	if p.isTernary {
		cond, err := c.runProgram(p.cond)
		if err != nil {
			return nil, err
		}

		branch := p.els
		if truthy(cond) {
			branch = p.then
		}

		return c.interpolate(branch)
	}

	if p.err != nil {
		return nil, p.err
	}

	env := make(map[string]any, len(p.refs))

	for _, r := range p.refs {
		v, err := c.refValue(r)
		if err != nil {
			return nil, err
		}

		env[r.ident] = v
	}

	out, err := vm.Run(p.run, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(errors.New(firstLine(err.Error())))
	}

	return out, nil
}

// refValue resolves one expression reference. Unbound variables are 0,
// items are their generated text, and missing items are "".
func (c *Context) refValue(r ref) (any, error) {
	if r.item {
		item, ok := c.Item(r.name)
		if !ok {
			return "", nil
		}

		s, err := c.generateItem(item)
		if err != nil {
			return nil, err
		}

		return s, nil
	}

	v, ok := c.Lookup(r.name)
	if !ok || v == nil {
		return 0, nil
	}

	return v, nil
}

// interpolate substitutes "$name" and "#name" references in text with their
// rendered values.
func (c *Context) interpolate(text string) (string, error) {
	if !strings.ContainsAny(text, "$#") {
		return text, nil
	}

	var out strings.Builder

	src := []rune(text)
	for i := 0; i < len(src); i++ {
		r := src[i]

		if (r != '$' && r != '#') || i+1 >= len(src) || !isWordRune(src[i+1]) {
			out.WriteRune(r)

			continue
		}

		j := i + 1
		for j < len(src) && isWordRune(src[j]) {
			j++
		}

		v, err := c.refValue(ref{name: string(src[i+1 : j]), item: r == '#'})
		if err != nil {
			return "", err
		}

		out.WriteString(render(v))

		i = j - 1
	}

	return out.String(), nil
}
