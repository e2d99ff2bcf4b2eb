package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/AlseFum/Texus/cli/cmd"
	"github.com/AlseFum/Texus/pkg"
)

const (
	// baseConfig is the base name of the configuration files.
	baseConfig = "config"

	// jsonConfig is written by "init --config" and read before the template
	// configuration file.
	jsonConfig = baseConfig + ".json"

	// genConfig is a configuration file written as a Gen template.
	genConfig = baseConfig + ".gen"
)

// CLI is the top-level command-line interface for texus.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Path    []string         `help:"Prepend a directory to the template search path." name:"path" placeholder:"DIR" short:"P" type:"path"`
	Version kong.VersionFlag `help:"Print version and exit."                          short:"V"`

	Gen   cmd.Gen   `cmd:"" default:"withargs" help:"Generate text from a template"`
	Check cmd.Check `cmd:""                    help:"Check templates for errors"`
	Fmt   cmd.Fmt   `cmd:""                    help:"Format a template"`
	Init  cmd.Init  `cmd:""                    help:"Initialize a template or configuration file"`
	Repl  cmd.Repl  `cmd:""                    help:"Start an interactive session"`
}

// Run executes the texus CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	vars := kong.Vars{
		cmd.ConfigIdentifier: pkg.ConfigPath(jsonConfig),
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
	}.
		CloneWith(cmd.Vars()).
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Apply logger flags before kong reports any parse error.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(jsonConfig)),
		kong.Configuration(resolve(ctx), pkg.ConfigPath(genConfig)),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, cli.Path)

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
