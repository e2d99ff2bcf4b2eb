package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written as Gen templates. Only the variable declarations matter: each
// declaration with a literal initializer supplies the value of the flag with
// the same name.
//
//	// ~/.config/texus/config.gen
//	$log_level = "debug"
//	$max_recursion = 50
//
// is applied as
//
//	--log-level=debug --max-recursion=50
//
// Flag names use hyphens where declaration names use underscores. Items,
// and declarations initialized from an expression or item reference, are
// ignored. Command-line flags override configured values.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		ast, err := lang.ParseReader(ctx, r)
		if err != nil {
			// An invalid configuration file must not prevent the command from
			// running; report it and use defaults.
			log.Default().WarnContext(ctx, "ignore configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		return makeConfig(ast), nil
	}
}

// config implements [kong.Resolver] over declaration values.
type config map[string]any

func makeConfig(ast *lang.AST) config {
	c := make(config, len(ast.Variables))

	for _, decl := range ast.Variables {
		// Kong parses flag values from strings.
		switch v := decl.Init.(type) {
		case string:
			c[decl.Name] = v

		case int:
			c[decl.Name] = strconv.Itoa(v)

		case float64:
			c[decl.Name] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return c
}

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil //nolint:nilnil
}
