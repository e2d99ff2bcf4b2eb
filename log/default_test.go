package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestDefault_PackageFunctions(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithCaller(true)))

	tests := []struct {
		fn    func(string, ...slog.Attr)
		level string
	}{
		{Trace, "TRACE"},
		{Debug, "DEBUG"},
		{Info, "INFO"},
		{Warn, "WARN"},
		{Error, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.fn("message", slog.String("key", "value"))

			out := buf.String()
			for _, want := range []string{`"level":"` + tt.level + `"`, `"key":"value"`, "default_test.go"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q: %s", want, out)
				}
			}
		})
	}
}

func TestConfig_ReconfiguresDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithTimeLayout("none")))

	l := Config(WithLevel(LevelError))
	if l.Level() != LevelError || Default().Level() != LevelError {
		t.Fatalf("Config did not replace default: %v", Default().Level())
	}

	Warn("dropped")
	With(slog.String("k", "v")).Error("kept")

	if out := buf.String(); strings.Contains(out, "dropped") || !strings.Contains(out, "k=v") {
		t.Errorf("unexpected output: %q", out)
	}
}
