package lang

import (
	"log/slog"
	"strings"
)

// stripped is comment-free template source split into lines. lineOf maps
// each stripped line index to its 1-based line number in the original text;
// block comments spanning newlines join lines, so the two can diverge.
type stripped struct {
	lines  []string
	lineOf []int
}

// stripComments removes "//" line comments and "/* */" block comments that
// occur outside double-quoted runs. Quoted runs never span lines.
func stripComments(source string) (stripped, error) {
	var (
		out      strings.Builder
		res      stripped
		line     = 1
		inQuote  bool
		inBlock  bool
		blockPos Position
		col      = 1
	)

	res.lineOf = append(res.lineOf, 1)

	src := []rune(source)
	for i := 0; i < len(src); i++ {
		r := src[i]

		if inBlock {
			switch {
			case r == '*' && i+1 < len(src) && src[i+1] == '/':
				inBlock = false
				i++
				col += 2

			case r == '\n':
				line++
				col = 1

			default:
				col++
			}

			continue
		}

		switch {
		case r == '\n':
			out.WriteRune(r)
			line++
			col = 1
			inQuote = false

			res.lineOf = append(res.lineOf, line)

			continue

		case r == '"' && !escaped(src, i):
			inQuote = !inQuote

		case !inQuote && r == '/' && i+1 < len(src) && src[i+1] == '/':
			for i+1 < len(src) && src[i+1] != '\n' {
				i++
			}

			continue

		case !inQuote && r == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlock = true
			blockPos = Position{Line: line, Column: col}
			i++
			col += 2

			continue
		}

		out.WriteRune(r)
		col++
	}

	if inBlock {
		return stripped{}, newParseError(
			ErrUnterminated.With(slog.String("construct", "/*")),
			blockPos,
			source,
		)
	}

	res.lines = strings.Split(out.String(), "\n")

	return res, nil
}

// line returns the original line number of stripped line i.
func (s stripped) line(i int) int {
	if i >= 0 && i < len(s.lineOf) {
		return s.lineOf[i]
	}

	return 0
}

// escaped reports whether src[i] follows an odd number of backslashes.
func escaped(src []rune, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && src[j] == '\\'; j-- {
		n++
	}

	return n%2 == 1
}
