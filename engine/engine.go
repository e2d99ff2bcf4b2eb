// Package engine serves generations from a template store, parsing each
// template once per revision.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
	"github.com/AlseFum/Texus/store"
)

// Empty is the output for a key with no template.
const Empty = "(empty)"

// Engine resolves templates from a store, reusing cached artifacts while
// their source stamp matches. It is safe for concurrent use when its store
// is.
type Engine struct {
	store  store.Store
	logger log.Logger
	opts   []lang.Option
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for cache and generation events. It is also
// passed to the parser and evaluator.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithOptions sets lang options applied to every parse and generation.
func WithOptions(opts ...lang.Option) Option {
	return func(e *Engine) { e.opts = append(e.opts, opts...) }
}

// New returns an engine reading from s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{store: s}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// Load returns the parsed template for key, parsing it only when the stored
// artifact is missing or stale. A fresh artifact is written back to the
// store. Load fails with store.ErrNotFound when key has no template.
func (e *Engine) Load(ctx context.Context, key string) (*lang.AST, error) {
	tmpl, err := e.store.Template(ctx, key)
	if err != nil {
		return nil, err
	}

	cached, err := e.store.Artifact(ctx, key)
	if err != nil {
		e.logger.WarnContext(ctx, "artifact unavailable",
			slog.String("key", key),
			slog.Any("error", err))

		cached = nil
	}

	artifact, fresh, err := lang.Resolve(ctx, tmpl, cached, e.langOptions()...)
	if err != nil {
		return nil, err
	}

	if fresh {
		e.logger.DebugContext(ctx, "template parsed",
			slog.String("key", key),
			slog.String("stamp", string(artifact.SourceStamp)))

		if err := e.store.PutArtifact(ctx, key, artifact); err != nil {
			e.logger.WarnContext(ctx, "artifact not saved",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}

	return artifact.AST, nil
}

// Access generates the template stored under key. A missing template yields
// Empty rather than an error; parse and hard generation failures are
// returned.
func (e *Engine) Access(
	ctx context.Context,
	key string,
	opts ...lang.Option,
) (string, error) {
	ast, err := e.Load(ctx, key)

	switch {
	case errors.Is(err, store.ErrNotFound):
		e.logger.DebugContext(ctx, "template missing", slog.String("key", key))

		return Empty, nil

	case err != nil:
		return "", err
	}

	return ast.Generate(ctx, append(e.langOptions(), opts...)...)
}

// AccessItem is Access for a named item of the template.
func (e *Engine) AccessItem(
	ctx context.Context,
	key, item string,
	opts ...lang.Option,
) (string, error) {
	ast, err := e.Load(ctx, key)
	if err != nil {
		return "", err
	}

	return ast.GenerateItem(ctx, item, append(e.langOptions(), opts...)...)
}

func (e *Engine) langOptions() []lang.Option {
	return append([]lang.Option{lang.WithLogger(e.logger)}, e.opts...)
}
