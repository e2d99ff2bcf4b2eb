package cmd

import (
	"context"
	"os"

	"github.com/AlseFum/Texus/cli/cmd/repl"
	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
)

// Repl previews a template interactively.
type Repl struct {
	Source string `arg:"" default:"-" help:"Template file, '-' for stdin, or a key on the search path." name:"source"`

	Seed         *uint64 `help:"Seed the session for reproducible output." short:"s"`
	MaxRecursion int     `help:"Maximum evaluation depth."                 default:"${maxRecursion}"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := OpenSource(ctx, r.Source)
	if err != nil {
		return err
	}

	opts := []repl.Option{
		repl.WithGenOptions(lang.WithMaxRecursion(r.MaxRecursion)),
	}

	if r.Seed != nil {
		opts = append(opts, repl.WithSeed(*r.Seed))
	}

	return repl.Run(ctx, src, cacheDir(ctx), log.Default(), opts...)
}

// cacheDir returns the cache directory from the kong variables, or the
// system temporary directory when run without them.
func cacheDir(ctx context.Context) string {
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok && dir != "" {
			return dir
		}
	}

	return os.TempDir()
}
