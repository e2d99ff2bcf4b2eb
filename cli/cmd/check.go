package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AlseFum/Texus/pkg"
)

// Check parses templates and reports their items, variables and entry
// item, along with references to items no table defines.
type Check struct {
	Sources []string `arg:"" default:"-" help:"Template files, '-' for stdin, or keys on the search path." name:"source"`

	Strict bool `help:"Fail when a template references an undefined item."`
}

// Run executes the check command. Every source is checked; the failures of
// all of them are returned together.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var errs pkg.Error

	w := stdout(ctx)

	for _, name := range uniqueSources(c.Sources) {
		src, err := OpenSource(ctx, name)
		if err != nil {
			errs = errs.Wrap(err)

			continue
		}

		ast, err := src.Load(ctx)
		if err != nil {
			errs = errs.Wrap(ErrCheck.Wrap(err).With(slog.String("source", name)))

			continue
		}

		entry := "(none)"
		if ast.Entry != nil {
			entry = ast.Entry.Name
		}

		fmt.Fprintf(w, "%s: %d items, %d variables, entry %s\n",
			name, ast.Items.Len(), len(ast.Variables), entry)

		names := ast.Items.Names()

		for _, ref := range ast.Undefined() {
			line := fmt.Sprintf("%s: undefined item %q", name, ref)
			if hint := suggest(ref, names); hint != "" {
				line += fmt.Sprintf(" (did you mean %q?)", hint)
			}

			fmt.Fprintln(w, line)

			if c.Strict {
				errs = errs.Wrap(unknownItem(ref, names).With(slog.String("source", name)))
			}
		}
	}

	return errs.Err()
}
