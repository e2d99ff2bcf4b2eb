package lang

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// scanner is a single-pass recursive-descent parser over one line of
// template content.
type scanner struct {
	p        *parser
	src      []rune
	pos      int
	at       Position // position of src[0] in the original template
	inRepeat bool     // "#i" names the repeat index
}

func (p *parser) inline(text string, at Position, inRepeat bool) (Node, error) {
	s := &scanner{p: p, src: []rune(text), at: at, inRepeat: inRepeat}

	return s.parse()
}

// position returns the template position of src[i].
func (s *scanner) position(i int) Position {
	return Position{Line: s.at.Line, Column: s.at.Column + i}
}

func (s *scanner) fail(err *Error, i int) error {
	return newParseError(err, s.position(i), s.p.source)
}

func (s *scanner) parse() (Node, error) {
	var (
		parts []Node
		lit   strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &Text{Value: lit.String()})
			lit.Reset()
		}
	}

	emit := func(n Node) {
		flush()
		parts = append(parts, n)
	}

	for s.pos < len(s.src) {
		r := s.src[s.pos]

		switch r {
		case '\\':
			lit.WriteString(s.escape())

			continue

		case '$':
			if n := s.dollar(); n != nil {
				emit(n)

				continue
			}

		case '#':
			n, err := s.hash()
			if err != nil {
				return nil, err
			}

			if n != nil {
				emit(n)

				continue
			}
		}

		lit.WriteRune(r)
		s.pos++
	}

	flush()

	switch len(parts) {
	case 0:
		return &Text{}, nil

	case 1:
		return parts[0], nil

	default:
		return &PlainList{Nodes: parts}, nil
	}
}

// escape consumes a backslash sequence and returns its literal text. An
// unrecognized sequence keeps the backslash.
func (s *scanner) escape() string {
	if s.pos+1 >= len(s.src) {
		s.pos++

		return `\`
	}

	next := s.src[s.pos+1]

	switch next {
	case '$', '#', '\\', '[', ']', '{', '}':
		s.pos += 2

		return string(next)

	case 'n':
		s.pos += 2

		return "\n"

	case 't':
		s.pos += 2

		return "\t"

	case 's':
		s.pos += 2

		return " "
	}

	s.pos++

	return `\`
}

// dollar parses "$name" or `$"item name"`.
func (s *scanner) dollar() Node {
	if name, end := s.word(s.pos + 1); name != "" {
		s.pos = end

		return &Variable{Name: name}
	}

	if name, end := s.quoted(s.pos + 1); name != "" {
		s.pos = end

		return &ItemRef{Name: name}
	}

	return nil
}

// hash parses every construct introduced by '#'. It returns a nil node when
// the '#' is literal.
func (s *scanner) hash() (Node, error) {
	start := s.pos
	next := s.peek(1)

	switch next {
	case '*':
		return s.repeat()

	case '[':
		end, err := s.closing(start+1, '[', ']', "#[")
		if err != nil {
			return nil, err
		}

		src := string(s.src[start+2 : end])
		s.pos = end + 1

		return &Expression{Source: src, prog: compileProgram(src, s.p.opts.logger)}, nil

	case '{':
		end, err := s.closing(start+1, '{', '}', "#{")
		if err != nil {
			return nil, err
		}

		src := string(s.src[start+2 : end])
		s.pos = end + 1

		mut := parseMutation(src, s.p.opts)
		if mut == nil {
			s.p.opts.logger.Trace("unrecognized side effect",
				slog.String("source", src),
				slog.Int("line", s.at.Line))
		}

		return &SideEffect{Source: src, Mutation: mut}, nil

	case '(':
		end, err := s.closing(start+1, '(', ')', "#(")
		if err != nil {
			return nil, err
		}

		choices, err := s.choices(start+2, end)
		if err != nil {
			return nil, err
		}

		s.pos = end + 1

		return &InlineRandom{Choices: choices}, nil

	case '?':
		if s.peek(2) != '(' {
			return nil, nil
		}

		end, err := s.closing(start+2, '(', ')', "#?(")
		if err != nil {
			return nil, err
		}

		cond, err := s.conditional(start+3, end)
		if err != nil {
			return nil, err
		}

		s.pos = end + 1

		return cond, nil

	case '"':
		if name, end := s.quoted(start + 1); name != "" {
			s.pos = end

			return &ItemRef{Name: name}, nil
		}

	default:
		if name, end := s.word(start + 1); name != "" {
			s.pos = end

			if s.inRepeat && name == "i" {
				return &Variable{Name: name}, nil
			}

			return &ItemRef{Name: name}, nil
		}
	}

	return nil, nil
}

// repeat parses "#*N" or "#*[expr]" followed by a backtick body or an item
// name. Without either, the '#' is literal.
func (s *scanner) repeat() (Node, error) {
	start := s.pos
	i := start + 2

	rep := &Repeat{Count: 1}

	switch {
	case i < len(s.src) && s.src[i] == '[':
		end, err := s.closing(i, '[', ']', "#*[")
		if err != nil {
			return nil, err
		}

		src := string(s.src[i+1 : end])
		rep.CountExpr = &Expression{Source: src, prog: compileProgram(src, s.p.opts.logger)}
		i = end + 1

	default:
		j := i
		for j < len(s.src) && s.src[j] >= '0' && s.src[j] <= '9' {
			j++
		}

		if j == i {
			return nil, nil
		}

		n, err := strconv.Atoi(string(s.src[i:j]))
		if err != nil {
			n = s.p.opts.maxRepeat
		}

		rep.Count = n
		i = j
	}

	switch {
	case i < len(s.src) && s.src[i] == '`':
		end := s.backtick(i + 1)
		if end < 0 {
			return nil, s.fail(ErrUnterminated.With(slog.String("construct", "`")), i)
		}

		body := string(s.src[i+1 : end])
		rep.UseIndex = strings.Contains(body, "$i") || strings.Contains(body, "#i")

		node, err := s.p.inline(body, s.position(i+1), true)
		if err != nil {
			return nil, err
		}

		rep.Body = node
		s.pos = end + 1

	default:
		name, end := s.word(i)
		if name == "" {
			return nil, nil
		}

		rep.Body = &ItemRef{Name: name}
		s.pos = end
	}

	return rep, nil
}

// choices parses the '|'-separated weighted options in src[from:to].
func (s *scanner) choices(from, to int) ([]Choice, error) {
	var choices []Choice

	for _, seg := range splitOptions(s.src, from, to) {
		text := strings.TrimSpace(string(s.src[seg.from:seg.to]))

		w, content := s.p.weight(text, true)

		node, err := s.p.inline(content, s.position(seg.from), s.inRepeat)
		if err != nil {
			return nil, err
		}

		choices = append(choices, Choice{Weight: w, Node: node})
	}

	return choices, nil
}

// conditional parses "[cond] text | [cond] text | fallback" in src[from:to].
func (s *scanner) conditional(from, to int) (*Conditional, error) {
	cond := &Conditional{}

	segs := splitOptions(s.src, from, to)
	for k, seg := range segs {
		i := seg.from
		for i < seg.to && isSpace(s.src[i]) {
			i++
		}

		if i < seg.to && s.src[i] == '[' {
			end, err := s.closing(i, '[', ']', "[")
			if err != nil {
				return nil, err
			}

			src := string(s.src[i+1 : end])
			text := strings.TrimSpace(string(s.src[end+1 : seg.to]))

			node, err := s.p.inline(text, s.position(end+1), s.inRepeat)
			if err != nil {
				return nil, err
			}

			cond.Branches = append(cond.Branches, Branch{
				Cond: &Expression{Source: src, prog: compileProgram(src, s.p.opts.logger)},
				Node: node,
			})

			continue
		}

		if k != len(segs)-1 {
			return nil, s.fail(ErrConditionalElse, seg.from)
		}

		text := strings.TrimSpace(string(s.src[seg.from:seg.to]))

		node, err := s.p.inline(text, s.position(seg.from), s.inRepeat)
		if err != nil {
			return nil, err
		}

		cond.Else = node
	}

	return cond, nil
}

func (s *scanner) peek(n int) rune {
	if s.pos+n < len(s.src) {
		return s.src[s.pos+n]
	}

	return 0
}

// word returns the identifier starting at src[i] and the index after it.
func (s *scanner) word(i int) (string, int) {
	j := i
	for j < len(s.src) && isWordRune(s.src[j]) {
		j++
	}

	return string(s.src[i:j]), j
}

// quoted returns the non-empty name of a `"name"` run starting at src[i]
// and the index after its closing quote.
func (s *scanner) quoted(i int) (string, int) {
	if i >= len(s.src) || s.src[i] != '"' {
		return "", i
	}

	for j := i + 1; j < len(s.src); j++ {
		if s.src[j] == '"' {
			return string(s.src[i+1 : j]), j + 1
		}
	}

	return "", i
}

// closing finds the bracket matching the opener at src[open].
func (s *scanner) closing(open int, o, c rune, construct string) (int, error) {
	end := matchBracket(s.src, open, o, c)
	if end < 0 {
		return 0, s.fail(ErrUnterminated.With(slog.String("construct", construct)), open)
	}

	return end, nil
}

// backtick returns the index of the next unescaped '`' at or after i, or -1.
func (s *scanner) backtick(i int) int {
	for ; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			i++

		case '`':
			return i
		}
	}

	return -1
}

// matchBracket returns the index of the closer balancing the opener at
// src[open], skipping backslash escapes, or -1.
func matchBracket(src []rune, open int, o, c rune) int {
	depth := 1

	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++

		case o:
			depth++

		case c:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

type segment struct{ from, to int }

// splitOptions splits src[from:to] at each '|' that is outside brackets,
// backtick bodies, and escapes.
func splitOptions(src []rune, from, to int) []segment {
	var (
		segs  []segment
		depth int
		tick  bool
		start = from
	)

	for i := from; i < to; i++ {
		switch r := src[i]; {
		case r == '\\':
			i++

		case r == '`':
			tick = !tick

		case tick:

		case r == '(' || r == '[' || r == '{':
			depth++

		case r == ')' || r == ']' || r == '}':
			depth--

		case r == '|' && depth == 0:
			segs = append(segs, segment{start, i})
			start = i + 1
		}
	}

	return append(segs, segment{start, to})
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

var (
	staticWeight = regexp.MustCompile(`(?s)^\^(\d+(?:\.\d+)?)\s+(.*)$`)
	legacyWeight = regexp.MustCompile(`(?s)^:(\d+(?:\.\d+)?):(.*)$`)
)

// weight splits an optional weight prefix from an option. Prefixes are
// tried in order: "^N ", "^[expr] ", ":#[expr]:", "#[expr]:", ":N:".
// Inline options trim the remaining content.
func (p *parser) weight(text string, trim bool) (Weight, string) {
	w, content, ok := p.splitWeight(text)
	if !ok {
		return DefaultWeight, text
	}

	if trim {
		content = strings.TrimSpace(content)
	}

	return w, content
}

func (p *parser) splitWeight(text string) (Weight, string, bool) {
	switch {
	case strings.HasPrefix(text, "^["):
		src, rest, ok := bracketPrefix(text, 1)
		if !ok || rest == "" || !isSpace([]rune(rest)[0]) {
			return Weight{}, "", false
		}

		return p.dynamicWeight(src), strings.TrimLeft(rest, " \t"), true

	case strings.HasPrefix(text, "^"):
		m := staticWeight.FindStringSubmatch(text)
		if m == nil {
			return Weight{}, "", false
		}

		v, _ := strconv.ParseFloat(m[1], 64)

		return Weight{Value: v}, m[2], true

	case strings.HasPrefix(text, ":#["):
		src, rest, ok := bracketPrefix(text, 2)
		if !ok || !strings.HasPrefix(rest, ":") {
			return Weight{}, "", false
		}

		return p.dynamicWeight(src), rest[1:], true

	case strings.HasPrefix(text, "#["):
		src, rest, ok := bracketPrefix(text, 1)
		if !ok || !strings.HasPrefix(rest, ":") {
			return Weight{}, "", false
		}

		return p.dynamicWeight(src), rest[1:], true

	case strings.HasPrefix(text, ":"):
		m := legacyWeight.FindStringSubmatch(text)
		if m == nil {
			return Weight{}, "", false
		}

		v, _ := strconv.ParseFloat(m[1], 64)

		return Weight{Value: v}, m[2], true
	}

	return Weight{}, "", false
}

func (p *parser) dynamicWeight(src string) Weight {
	return Weight{Expr: &Expression{Source: src, prog: compileProgram(src, p.opts.logger)}}
}

// bracketPrefix returns the contents of the bracket opened at byte offset
// open of text, and the text after its closer.
func bracketPrefix(text string, open int) (string, string, bool) {
	src := []rune(text)
	o := len([]rune(text[:open]))

	end := matchBracket(src, o, '[', ']')
	if end < 0 {
		return "", "", false
	}

	return string(src[o+1 : end]), string(src[end+1:]), true
}
