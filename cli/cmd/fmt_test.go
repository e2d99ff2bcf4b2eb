package cmd

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messy = "$n=2\nmain\n  :3:#*[$n]`x`\n  plain   \n"

func TestFmt_Native(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "messy.gen", messy)

	out, err := run(t, "fmt", path)
	require.NoError(t, err)

	assert.Equal(t, "$n = 2\n\nmain\n    ^3 #*[$n]`x`\n    plain\n", out)

	again := writeTemplate(t, t.TempDir(), "formatted.gen", out)

	out2, err := run(t, "fmt", "native", again, "--indent", "4")
	require.NoError(t, err)
	assert.Equal(t, out, out2, "formatting is not idempotent")
}

func TestFmt_NativeWrite(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "messy.gen", messy)

	out, err := run(t, "fmt", "native", "-w", "-i", "2", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "$n = 2\n\nmain\n  ^3 #*[$n]`x`\n  plain\n", string(data))
}

func TestFmt_JSON(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "messy.gen", messy)

	out, err := run(t, "fmt", "json", path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "main", doc["entry"])
	assert.Len(t, doc["variables"], 1)
	assert.Len(t, doc["items"], 1)
}

func TestFmt_YAML(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "messy.gen", messy)

	out, err := run(t, "fmt", "yaml", path)
	require.NoError(t, err)

	assert.Contains(t, out, "entry: main")
	assert.Contains(t, out, "kind: Repeat")
}

func TestFmt_ParseError(t *testing.T) {
	path := writeTemplate(t, t.TempDir(), "broken.gen", "main\n    #(a\n")

	_, err := run(t, "fmt", "json", path)
	require.ErrorIs(t, err, ErrFormat)
}
