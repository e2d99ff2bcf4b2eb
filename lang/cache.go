package lang

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
)

// Stamp is an opaque token identifying one revision of a template's source.
// Stamps are only ever compared for equality.
type Stamp string

// Template is template source as supplied by a store.
type Template struct {
	Text  string
	Stamp Stamp
}

// Artifact is a parsed template tagged with the stamp of the source it was
// parsed from. ParsedAt is diagnostic only.
type Artifact struct {
	AST         *AST
	SourceStamp Stamp
	ParsedAt    time.Time
}

// Valid reports whether a can stand in for a parse of tmpl.
func (a *Artifact) Valid(tmpl Template) bool {
	return a != nil && a.AST != nil && a.SourceStamp == tmpl.Stamp
}

// ContentStamp derives a stamp from text for sources that carry no
// modification token of their own.
func ContentStamp(text string) Stamp {
	return Stamp(strconv.FormatUint(xxh3.HashString(text), 36))
}

// Resolve returns cached when it is valid for tmpl. Otherwise it parses
// tmpl and returns a new artifact with fresh set, and the caller is
// expected to persist it. Resolve performs no I/O.
func Resolve(
	ctx context.Context,
	tmpl Template,
	cached *Artifact,
	opts ...Option,
) (artifact *Artifact, fresh bool, err error) {
	logger := makeOptions(opts...).logger

	if cached.Valid(tmpl) {
		logger.TraceContext(ctx, "cache hit",
			slog.String("stamp", string(tmpl.Stamp)),
			slog.Time("parsed_at", cached.ParsedAt))

		return cached, false, nil
	}

	attrs := []slog.Attr{slog.String("stamp", string(tmpl.Stamp))}
	if cached != nil {
		attrs = append(attrs, slog.String("cached_stamp", string(cached.SourceStamp)))
	}

	logger.TraceContext(ctx, "cache miss", attrs...)

	ast, err := ParseString(ctx, tmpl.Text, opts...)
	if err != nil {
		return nil, false, err
	}

	return &Artifact{
		AST:         ast,
		SourceStamp: tmpl.Stamp,
		ParsedAt:    time.Now(),
	}, true, nil
}
