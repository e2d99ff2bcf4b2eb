package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCLI mirrors the command tree of the texus binary without the logging
// and profiling groups.
type testCLI struct {
	Path []string `short:"P"`

	Gen   Gen   `cmd:"" default:"withargs"`
	Check Check `cmd:""`
	Fmt   Fmt   `cmd:""`
	Init  Init  `cmd:""`
}

// run parses args and runs the selected command, returning what it wrote
// to stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var (
		cli testCLI
		out bytes.Buffer
	)

	ctx := t.Context()

	parser, err := kong.New(&cli,
		kong.Writers(&out, io.Discard),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		Vars().CloneWith(kong.Vars{
			ConfigIdentifier: filepath.Join(t.TempDir(), "config.json"),
			CacheIdentifier:  t.TempDir(),
		}),
	)
	require.NoError(t, err)

	ktx, err := parser.Parse(args)
	require.NoError(t, err)

	ctx = WithContext(ctx, ktx)
	ctx = WithSearchPath(ctx, cli.Path)

	err = ktx.Run()

	return out.String(), err
}

func writeTemplate(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	return path
}

func TestUniqueSources(t *testing.T) {
	dir := t.TempDir()
	path := writeTemplate(t, dir, "a.gen", "main\n    a\n")
	other := writeTemplate(t, dir, "b.gen", "main\n    b\n")

	link := filepath.Join(dir, "link.gen")
	require.NoError(t, os.Symlink(path, link))

	dotted := filepath.Join(dir, ".", "a.gen")

	got := uniqueSources([]string{path, link, "key", other, dotted, "key", "-", "-"})

	assert.Equal(t, []string{path, "key", other, "-"}, got)
}

func TestOpenSource(t *testing.T) {
	dir := t.TempDir()
	file := writeTemplate(t, dir, "story.gen", "main\n    from file\n")
	writeTemplate(t, dir, "lib/greet.gen", "main\n    from key\n")

	ctx := WithSearchPath(t.Context(), []string{dir})

	tests := []struct {
		name string
		src  string
		path string
		want string
	}{
		{"file path", file, file, "from file"},
		{"search path key", "lib/greet", filepath.Join(dir, "lib", "greet.gen"), "from key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := OpenSource(ctx, tt.src)
			require.NoError(t, err)

			assert.Equal(t, tt.path, src.Path())
			assert.False(t, src.Replace("ignored"), "file-backed source replaced")

			ast, err := src.Load(ctx)
			require.NoError(t, err)

			out, err := ast.Generate(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}
