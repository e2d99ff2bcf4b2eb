package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrParse           = NewError("parse error")
	ErrReadInput       = NewError("failed to read input")
	ErrUnterminated    = NewError("unterminated construct")
	ErrIndentation     = NewError("inconsistent indentation")
	ErrDeclaration     = NewError("invalid variable declaration")
	ErrExprCompile     = NewError("expression compilation failed")
	ErrExprEvaluate    = NewError("expression evaluation failed")
	ErrExprForbidden   = NewError("expression construct not allowed")
	ErrRecursionLimit  = NewError("recursion limit exceeded")
	ErrCancelled       = NewError("generation cancelled")
	ErrItemNotFound    = NewError("item not found")
	ErrInvalidNodeKind = NewError("invalid node kind")
	ErrConditionalElse = NewError("else branch must be last")
)

// Position identifies a location in template source. Line and Column are
// 1-based; Column counts runes.
type Position struct {
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error
	pos   *Position
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.pos != nil {
		part = append(part, e.pos.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the same sentinel as e. Derived errors
// created with Wrap, With, or WithPosition match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.msg != "" && t.msg == e.msg && t.err == nil
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() (Position, bool) {
	if e.pos == nil {
		return Position{}, false
	}

	return *e.pos, true
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos != nil {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		pos:   e.pos,
		attrs: e.attrs,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		pos:   e.pos,
		attrs: newAttrs,
	}
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		pos:   &pos,
		attrs: e.attrs,
	}
}

// ParseError is a hard failure raised while compiling template source.
type ParseError struct {
	Err    error
	Pos    Position
	Source string // the original template text
}

func newParseError(err *Error, pos Position, source string) *ParseError {
	return &ParseError{
		Err:    err.WithPosition(pos),
		Pos:    pos,
		Source: source,
	}
}

// Error implements the error interface. When the source is known the
// message includes the offending line with a caret under the column.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))

	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(causeOf(e.Err))
	}

	if snippet := e.Snippet(); snippet != "" {
		buf.WriteRune('\n')
		buf.WriteString(snippet)
	}

	return buf.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrParse, which matches every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	}

	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", causeOf(e.Err)))
	}

	return slog.GroupValue(attrs...)
}

// Snippet returns the offending source line and a caret marker, or "" when
// the source is unavailable or the line is out of range.
func (e *ParseError) Snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line <= 0 || e.Pos.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	num := strconv.Itoa(e.Pos.Line)

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(lines[e.Pos.Line-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(num)+5)
	if e.Pos.Column > 0 {
		padding += strings.Repeat(" ", e.Pos.Column-1)
	}

	src.WriteString(padding + "^")

	return src.String()
}

// GenerationError is a hard failure that aborts a whole generation.
type GenerationError struct {
	Err   error
	Chain []string // item names being expanded when the failure occurred
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	msg := "generation failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if len(e.Chain) > 0 {
		msg += " (in " + strings.Join(e.Chain, " > ") + ")"
	}

	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *GenerationError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *GenerationError) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2)

	if e.Err != nil {
		attrs = append(attrs, slog.Any("cause", e.Err))
	}

	if len(e.Chain) > 0 {
		attrs = append(attrs, slog.String("chain", strings.Join(e.Chain, " > ")))
	}

	return slog.GroupValue(attrs...)
}

// causeOf renders err without its position prefix, which ParseError
// reports separately.
func causeOf(err error) string {
	ee := &Error{}
	if errors.As(err, &ee) && ee.pos != nil {
		return ee.WithoutPosition().Error()
	}

	return err.Error()
}

// WithoutPosition returns a copy of e with no source position.
func (e *Error) WithoutPosition() *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs,
	}
}
