package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlseFum/Texus/lang"
)

func TestInit_Template(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.gen")

	_, err := run(t, "init", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "// Generate with: texus gen main.gen\n"))

	ast, err := lang.ParseString(t.Context(), text)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "greeting", "star", "mood"}, ast.Items.Names())
	assert.Empty(t, ast.Undefined())

	out, err := run(t, "gen", path, "--seed", "1")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestInit_Exists(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "main.gen", "main\n    mine\n")

	_, err := run(t, "init", path)
	require.ErrorIs(t, err, ErrFileExists)
	require.ErrorIs(t, err, ErrWriteFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "main\n    mine\n", string(data), "existing file overwritten")

	_, err = run(t, "init", "--force", path)
	require.NoError(t, err)
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	confPath := filepath.Join(t.TempDir(), "config.json")

	var cli testCLI

	ctx := t.Context()

	parser, err := kong.New(&cli,
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		Vars().CloneWith(kong.Vars{ConfigIdentifier: confPath}),
	)
	require.NoError(t, err)

	ktx, err := parser.Parse([]string{"-P", dir, "init", "--config"})
	require.NoError(t, err)

	ctx = WithContext(ctx, ktx)
	require.NoError(t, ktx.Run())

	data, err := os.ReadFile(confPath)
	require.NoError(t, err)

	var conf map[string]any
	require.NoError(t, json.Unmarshal(data, &conf))

	assert.Equal(t, map[string]any{"path": []any{dir}}, conf)
}
