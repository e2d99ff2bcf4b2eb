package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
	"github.com/AlseFum/Texus/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the configuration file.
const defaultConfigIndent = 2

// starter is the template written by init.
const starter = `// Generate with: texus gen main.gen
$name = "world"
$stars : num = 3

main
    Hello, $name! #greeting
    ^2 #*[$stars]star #mood

greeting
    Nice to meet you.
    How are you today?

star
    *

mood
    #(calm|cheerful|^[$stars] curious)
`

// Init writes a starter template, or with --config the configuration file
// holding the current flag values.
type Init struct {
	Path   string `arg:"" default:"main.gen" help:"Template file to create." type:"path"`
	Force  bool   `help:"Overwrite an existing file" short:"f"`
	Config bool   `help:"Write the configuration file instead of a template."`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if i.Config {
		return i.writeConfig(ctx)
	}

	return i.writeTemplate(ctx)
}

func (i *Init) writeTemplate(ctx context.Context) error {
	if err := i.checkExists(i.Path, ErrWriteFile); err != nil {
		return err
	}

	ast, err := lang.ParseString(ctx, starter, lang.WithLogger(log.Default()))
	if err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("file", i.Path))
	}

	var buf bytes.Buffer
	if err := ast.Format(ctx, &buf, 4); err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("file", i.Path))
	}

	// Format drops comments; keep the usage line.
	header, _, _ := strings.Cut(starter, "\n")

	text := header + "\n" + buf.String()
	if err := os.WriteFile(i.Path, []byte(text), 0o644); err != nil {
		return ErrWriteFile.Wrap(err).With(slog.String("file", i.Path))
	}

	log.Default().DebugContext(ctx, "initialized template",
		slog.String("path", i.Path))

	return nil
}

func (i *Init) writeConfig(ctx context.Context) error {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if err := i.checkExists(confPath, ErrWriteConfig); err != nil {
		return err
	}

	data, err := json.MarshalIndent(
		flagValues(ktx),
		"",
		strings.Repeat(" ", defaultConfigIndent),
	)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.WriteFile(confPath, append(data, '\n'), 0o644); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.Default().DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath))

	return nil
}

func (i *Init) checkExists(path string, base *Error) error {
	if _, err := os.Stat(path); err == nil && !i.Force {
		return base.
			With(slog.String("file", path)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	return nil
}

// flagValues maps the name of each global flag to its current value. Unset
// and zero values are omitted, as are help, version and profiling flags.
func flagValues(ktx *kong.Context) map[string]any {
	ignore := []string{"help", "version", profile.Tag}

	values := make(map[string]any)

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := ktx.FlagValue(flag)

		switch v := val.(type) {
		case nil:
			continue

		case string:
			if v == "" {
				continue
			}

		case []string:
			if len(v) == 0 {
				continue
			}

		case interface{ MarshalText() ([]byte, error) }:
			text, err := v.MarshalText()
			if err != nil || len(text) == 0 {
				continue
			}

			val = string(text)
		}

		values[flag.Name] = val
	}

	return values
}
