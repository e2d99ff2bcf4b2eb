package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlseFum/Texus/log"
)

func TestLogConfig_Scan(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"gen", "--log-level", "debug", "--log-format", "json", "x.gen"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "assigned values",
			args: []string{"--log-level=warn", "--log-caller", "--no-log-pretty"},
			want: logConfig{Level: "warn", Caller: true},
		},
		{
			name: "assigned booleans",
			args: []string{"--log-caller=false", "--no-log-pretty=false"},
			want: logConfig{Pretty: true},
		},
		{
			name: "flag as next argument",
			args: []string{"--log-level", "--log-caller"},
			want: logConfig{Caller: true, Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level=error"},
			want: logConfig{Pretty: true},
		},
		{
			name: "unrelated flags",
			args: []string{"--logger=x", "--no-log-level", "--log-unknown"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := logConfig{Pretty: true}
			cfg.scan(tt.args)

			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLogConfig_ScanConfiguresLogger(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() { log.SetDefault(prev) })

	var cfg logConfig
	cfg.scan([]string{"--log-level=trace", "--log-format=json"})

	assert.Equal(t, log.LevelTrace, log.Default().Level())
	assert.Equal(t, log.FormatJSON, log.Default().Format())
}
