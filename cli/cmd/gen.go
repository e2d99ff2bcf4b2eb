package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/sahilm/fuzzy"

	"github.com/AlseFum/Texus/engine"
	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
	"github.com/AlseFum/Texus/store"
)

// Vars returns the kong variables referenced by the command structs.
func Vars() kong.Vars {
	return kong.Vars{
		"maxRecursion": strconv.Itoa(lang.DefaultMaxRecursion),
		"maxRepeat":    strconv.Itoa(lang.DefaultMaxRepeat),
	}
}

// Gen generates text from a template.
type Gen struct {
	Source string `arg:"" default:"-" help:"Template file, '-' for stdin, or a key on the search path." name:"source"`

	Item         string  `help:"Generate this item instead of the entry item."    short:"i"`
	Seed         *uint64 `help:"Seed the random source for reproducible output." short:"s"`
	Count        int     `help:"Number of texts to generate."                      short:"n" default:"1"`
	MaxRecursion int     `help:"Maximum evaluation depth."                                   default:"${maxRecursion}"`
	MaxRepeat    int     `help:"Upper bound on a repeat count."                              default:"${maxRepeat}"`
}

// Run executes the gen command. Every generation after the first reuses the
// artifact parsed for the first.
func (g *Gen) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if g.Count < 1 {
		return ErrInvalidCount.With(slog.Int("count", g.Count))
	}

	src, err := OpenSource(ctx, g.Source)
	if err != nil {
		return err
	}

	w := stdout(ctx)

	ast, err := src.Load(ctx)

	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Default().WarnContext(ctx, "template not found",
			slog.String("source", g.Source))

		_, err = fmt.Fprintln(w, engine.Empty)

		return err

	case err != nil:
		return ErrGenerate.Wrap(err).With(slog.String("source", g.Source))
	}

	if g.Item != "" {
		if _, ok := ast.Items.Get(g.Item); !ok {
			return unknownItem(g.Item, ast.Items.Names()).
				With(slog.String("source", g.Source))
		}
	}

	for i := range g.Count {
		out, err := g.generate(ctx, src, i)
		if err != nil {
			return ErrGenerate.Wrap(err).With(
				slog.String("source", g.Source),
				slog.Int("iteration", i+1),
			)
		}

		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}

	return nil
}

func (g *Gen) generate(ctx context.Context, src *Source, i int) (string, error) {
	if g.Item == "" {
		return src.Access(ctx, src.Key, g.options(i)...)
	}

	return src.AccessItem(ctx, src.Key, g.Item, g.options(i)...)
}

// options returns the generation options for the i-th generation. A seeded
// run advances the seed per generation so that each text differs.
func (g *Gen) options(i int) []lang.Option {
	opts := []lang.Option{
		lang.WithMaxRecursion(g.MaxRecursion),
		lang.WithMaxRepeat(g.MaxRepeat),
	}

	if g.Seed != nil {
		opts = append(opts, lang.WithSeed(*g.Seed+uint64(i)))
	}

	return opts
}

// unknownItem reports an item missing from names, suggesting the closest
// fuzzy match when there is one.
func unknownItem(name string, names []string) *Error {
	err := ErrUnknownItem.With(slog.String("item", name))

	if hint := suggest(name, names); hint != "" {
		err = err.With(slog.String("suggestion", hint))
	}

	return err
}

// suggest returns the best fuzzy match for name among names, or "".
func suggest(name string, names []string) string {
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}
