package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
)

// Fmt parses a template and writes it in the chosen format.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Format as normalized template source (default)."`
	JSON   JSON   `cmd:""                    help:"Format as JSON."`
	YAML   YAML   `cmd:""                    help:"Format as YAML."`
}

// Native formats input as normalized template source.
type Native struct {
	Indent int  `default:"4" help:"Indent width for formatted output" short:"i"`
	Write  bool `            help:"Write the result back to the source file" short:"w"`

	Source string `arg:"" default:"-" help:"Template file, '-' for stdin, or a key on the search path." name:"source"`
}

// Run executes the fmt command.
func (f *Native) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, ast, err := load(ctx, f.Source, "native")
	if err != nil {
		return err
	}

	if !f.Write {
		return ast.Format(ctx, stdout(ctx), f.Indent)
	}

	path := src.Path()
	if path == "" {
		return ErrFormat.With(
			slog.String("source", f.Source),
			slog.String("reason", "no file to write"),
		)
	}

	var buf bytes.Buffer
	if err := ast.Format(ctx, &buf, f.Indent); err != nil {
		return ErrFormat.Wrap(err).With(slog.String("source", f.Source))
	}

	info, err := os.Stat(path)
	if err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("file", path))
	}

	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("file", path))
	}

	log.Default().DebugContext(ctx, "formatted template",
		slog.String("path", path),
		slog.Int("bytes", buf.Len()))

	return nil
}

// JSON parses a template and outputs its structure as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Source string `arg:"" default:"-" help:"Template file, '-' for stdin, or a key on the search path." name:"source"`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	_, ast, err := load(ctx, j.Source, "json")
	if err != nil {
		return err
	}

	return ast.FormatJSON(ctx, stdout(ctx), j.Indent)
}

// YAML parses a template and outputs its structure as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Source string `arg:"" default:"-" help:"Template file, '-' for stdin, or a key on the search path." name:"source"`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	_, ast, err := load(ctx, y.Source, "yaml")
	if err != nil {
		return err
	}

	return ast.FormatYAML(ctx, stdout(ctx), y.Indent)
}

func load(ctx context.Context, source, format string) (*Source, *lang.AST, error) {
	src, err := OpenSource(ctx, source)
	if err != nil {
		return nil, nil, err
	}

	ast, err := src.Load(ctx)
	if err != nil {
		return nil, nil, ErrFormat.Wrap(err).With(
			slog.String("source", source),
			slog.String("format", format),
		)
	}

	return src, ast, nil
}
