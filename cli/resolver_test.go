package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveFlag(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	require.NoError(t, err)

	return val
}

func TestResolve(t *testing.T) {
	const source = `// texus configuration
$log_level = "debug"
$log-format = "json"
$max_recursion = 50
$ratio = 0.5
$computed = #[1 + 2]
$picked = #level

level
    trace
`

	r, err := resolve(t.Context())(strings.NewReader(source))
	require.NoError(t, err)

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log_level", "debug"},
		{"log-format", "json"},
		{"max-recursion", "50"},
		{"ratio", "0.5"},
		{"computed", nil},
		{"picked", nil},
		{"level", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveFlag(t, r, tt.flag))
		})
	}
}

func TestResolve_InvalidConfig(t *testing.T) {
	r, err := resolve(t.Context())(strings.NewReader("main\n    #[unterminated\n"))
	require.NoError(t, err)

	assert.Nil(t, resolveFlag(t, r, "log-level"))
	assert.NoError(t, r.Validate(nil))
}

func TestResolve_Parser(t *testing.T) {
	var cli struct {
		LogLevel     string `default:"info"`
		MaxRecursion int    `default:"100"`
		Name         string `default:"none"`
	}

	r, err := resolve(t.Context())(strings.NewReader("$log_level = \"warn\"\n$max_recursion = 7\n"))
	require.NoError(t, err)

	parser, err := kong.New(&cli, kong.Resolvers(r))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--name=cli"})
	require.NoError(t, err)

	assert.Equal(t, "warn", cli.LogLevel)
	assert.Equal(t, 7, cli.MaxRecursion)
	assert.Equal(t, "cli", cli.Name)
}
