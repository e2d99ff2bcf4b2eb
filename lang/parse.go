package lang

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/readahead"
)

// ParseReader reads a template from r and parses it.
func ParseReader(
	ctx context.Context,
	r io.Reader,
	opts ...Option,
) (*AST, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return ParseString(ctx, string(data), opts...)
}

// ParseString parses template source. The result depends only on s.
func ParseString(ctx context.Context, s string, opts ...Option) (*AST, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "parse start",
		slog.Int("source_bytes", len(s)))

	src, err := stripComments(s)
	if err != nil {
		return nil, err
	}

	p := &parser{
		source: s,
		text:   src,
		opts:   o,
		ast:    &AST{Items: NewItemTable(), opts: o},
	}

	if err := p.parseDocument(); err != nil {
		o.logger.DebugContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	p.ast.selectEntry()

	entry := ""
	if p.ast.Entry != nil {
		entry = p.ast.Entry.Name
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("items", p.ast.Items.Len()),
		slog.Int("variables", len(p.ast.Variables)),
		slog.String("entry", entry))

	return p.ast, nil
}

// parser is the line-oriented structural parser. Content within each line
// is handed to the inline scanner.
type parser struct {
	source string // original template, for error snippets
	text   stripped
	opts   options
	ast    *AST
}

// line is one non-blank stripped line.
type line struct {
	index  int    // stripped line index
	indent int    // spaces count 1, tabs count 4
	text   string // trimmed content
	offset int    // runes of leading whitespace
}

func (p *parser) at(i int) (line, bool) {
	if i < 0 || i >= len(p.text.lines) {
		return line{}, false
	}

	raw := p.text.lines[i]
	text := strings.TrimSpace(raw)

	indent, offset := measureIndent(raw)

	return line{index: i, indent: indent, text: text, offset: offset}, true
}

// next returns the first non-blank line at or after i.
func (p *parser) next(i int) (line, bool) {
	for ; i < len(p.text.lines); i++ {
		if l, _ := p.at(i); l.text != "" {
			return l, true
		}
	}

	return line{}, false
}

func (p *parser) pos(l line) Position {
	return Position{Line: p.text.line(l.index), Column: l.offset + 1}
}

func (p *parser) fail(err *Error, l line) error {
	return newParseError(err, p.pos(l), p.source)
}

func measureIndent(s string) (indent, offset int) {
	for _, r := range s {
		switch r {
		case ' ':
			indent++

		case '\t':
			indent += 4

		default:
			return indent, offset
		}

		offset++
	}

	return indent, offset
}

// parseDocument consumes top-level declarations and item blocks.
func (p *parser) parseDocument() error {
	for i := 0; ; {
		l, ok := p.next(i)
		if !ok {
			return nil
		}

		switch {
		case l.indent > 0:
			return p.fail(ErrIndentation.With(
				slog.String("reason", "indented line outside an item")), l)

		case strings.HasPrefix(l.text, "$"):
			decl, err := p.parseDeclaration(l)
			if err != nil {
				return err
			}

			p.ast.declare(decl)

			i = l.index + 1

		default:
			item, next, err := p.parseItem(l)
			if err != nil {
				return err
			}

			p.ast.Items.Define(item)

			i = next
		}
	}
}

// parseItem parses the block headed by h. Options are the lines at the
// indentation of the first line deeper than h; lines deeper than an option
// form a nested item block scoped to that option. It returns the index of
// the first line after the block.
func (p *parser) parseItem(h line) (*Item, int, error) {
	item := &Item{
		Name: unquote(h.text),
		Body: &Roulette{},
		Line: p.text.line(h.index),
	}

	base := -1
	i := h.index + 1

	for {
		l, ok := p.next(i)
		if !ok || l.indent <= h.indent {
			i = len(p.text.lines)
			if ok {
				i = l.index
			}

			break
		}

		if base < 0 {
			base = l.indent
		}

		if l.indent != base {
			return nil, 0, p.fail(ErrIndentation.With(
				slog.String("item", item.Name),
				slog.Int("expected", base),
				slog.Int("found", l.indent)), l)
		}

		choice, last, err := p.parseOption(l)
		if err != nil {
			return nil, 0, err
		}

		i = last + 1

		if nested, ok := p.next(i); ok && nested.indent > base {
			items, next, err := p.parseNested(nested, base)
			if err != nil {
				return nil, 0, err
			}

			choice.Node = &Scoped{Node: choice.Node, Items: items}
			i = next
		}

		item.Body.Choices = append(item.Body.Choices, choice)
	}

	p.opts.logger.Trace("parse item",
		slog.String("name", item.Name),
		slog.Int("line", item.Line),
		slog.Int("options", len(item.Body.Choices)))

	return item, i, nil
}

// parseNested parses the item definitions of a nested block whose first
// header is first. The block ends at the first line no deeper than base.
func (p *parser) parseNested(first line, base int) (*ItemTable, int, error) {
	items := NewItemTable()
	i := first.index

	for {
		l, ok := p.next(i)
		if !ok || l.indent <= base {
			if ok {
				return items, l.index, nil
			}

			return items, len(p.text.lines), nil
		}

		if l.indent != first.indent {
			return nil, 0, p.fail(ErrIndentation.With(
				slog.Int("expected", first.indent),
				slog.Int("found", l.indent)), l)
		}

		if strings.HasPrefix(l.text, "$") {
			return nil, 0, p.fail(ErrDeclaration.With(
				slog.String("reason", "declaration inside a nested block")), l)
		}

		item, next, err := p.parseItem(l)
		if err != nil {
			return nil, 0, err
		}

		items.Define(item)

		i = next
	}
}

// parseOption parses the option on l, joining continuation lines. It
// returns the index of the last line consumed.
func (p *parser) parseOption(l line) (Choice, int, error) {
	text := l.text
	last := l.index

	for continued(text) {
		text = text[:len(text)-1]

		n, ok := p.next(last + 1)
		if !ok || n.indent != l.indent {
			break
		}

		text += n.text
		last = n.index
	}

	w, content := p.weight(text, false)

	// Column of content within the original line.
	at := p.pos(l)
	at.Column += utf8.RuneCountInString(text) - utf8.RuneCountInString(content)

	node, err := p.inline(content, at, false)
	if err != nil {
		return Choice{}, 0, err
	}

	return Choice{Weight: w, Node: node}, last, nil
}

// continued reports whether s ends in an odd number of backslashes.
func continued(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}

	return n%2 == 1
}

// parseDeclaration parses "$[const |once ]name[ : type][ = value]".
func (p *parser) parseDeclaration(l line) (*VariableDeclaration, error) {
	decl := &VariableDeclaration{Line: p.text.line(l.index)}
	rest := strings.TrimSpace(l.text[1:])

	for {
		switch {
		case strings.HasPrefix(rest, "const "):
			decl.Const = true
			rest = strings.TrimSpace(rest[len("const "):])

			continue

		case strings.HasPrefix(rest, "once "):
			decl.Once = true
			rest = strings.TrimSpace(rest[len("once "):])

			continue
		}

		break
	}

	end := strings.IndexAny(rest, ":= \t")
	if end < 0 {
		end = len(rest)
	}

	decl.Name = rest[:end]
	rest = strings.TrimSpace(rest[end:])

	if decl.Name == "" {
		return nil, p.fail(ErrDeclaration.With(
			slog.String("reason", "missing variable name")), l)
	}

	if typ, ok := strings.CutPrefix(rest, ":"); ok {
		typ, value, hasValue := strings.Cut(typ, "=")

		switch strings.TrimSpace(typ) {
		case "num":
			decl.Type = VarNum

		case "str":
			decl.Type = VarStr

		case "":

		default:
			return nil, p.fail(ErrDeclaration.With(
				slog.String("variable", decl.Name),
				slog.String("reason", "unknown type "+strconv.Quote(strings.TrimSpace(typ)))), l)
		}

		rest = ""
		if hasValue {
			rest = "=" + value
		}
	}

	if value, ok := strings.CutPrefix(rest, "="); ok {
		decl.Init = p.parseInitializer(strings.TrimSpace(value))
	} else if rest != "" {
		return nil, p.fail(ErrDeclaration.With(
			slog.String("variable", decl.Name),
			slog.String("unexpected", rest)), l)
	}

	p.opts.logger.Trace("parse declaration",
		slog.String("name", decl.Name),
		slog.String("type", decl.Type.String()),
		slog.Bool("const", decl.Const))

	return decl, nil
}

// parseInitializer classifies a declaration value: a quoted string, an
// expression, an item reference, a number, or raw text.
func (p *parser) parseInitializer(value string) any {
	switch {
	case len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`):
		return value[1 : len(value)-1]

	case strings.HasPrefix(value, "#[") && strings.HasSuffix(value, "]"):
		src := value[2 : len(value)-1]

		return &Expression{Source: src, prog: compileProgram(src, p.opts.logger)}

	case strings.HasPrefix(value, "#") && len(value) > 1:
		return &ItemRef{Name: unquote(value[1:])}
	}

	if n, ok := parseNumber(value); ok {
		if f, isFloat := n.(float64); isFloat && f == float64(int(f)) {
			return int(f)
		}

		return n
	}

	return value
}
