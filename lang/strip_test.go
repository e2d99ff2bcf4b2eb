package lang

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name   string
		source string
		lines  []string
		lineOf []int
	}{
		{
			name:   "line comments",
			source: "a // one\nb//two\n// three",
			lines:  []string{"a ", "b", ""},
			lineOf: []int{1, 2, 3},
		},
		{
			name:   "quoted markers kept",
			source: "say \"// not /* a */ comment\" // but this is",
			lines:  []string{`say "// not /* a */ comment" `},
			lineOf: []int{1},
		},
		{
			name:   "quote state resets per line",
			source: "an \" odd quote\nx // gone",
			lines:  []string{`an " odd quote`, "x "},
			lineOf: []int{1, 2},
		},
		{
			name:   "escaped quote does not open a run",
			source: "say \\\"hi // note\nb \\\\\"// kept\" // gone",
			lines:  []string{`say \"hi `, `b \\"// kept" `},
			lineOf: []int{1, 2},
		},
		{
			name:   "block comment joins lines",
			source: "a/* x\ny\nz */b\nc",
			lines:  []string{"ab", "c"},
			lineOf: []int{1, 4},
		},
		{
			name:   "no comments",
			source: "a\n\nb",
			lines:  []string{"a", "", "b"},
			lineOf: []int{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stripComments(tt.source)
			if err != nil {
				t.Fatalf("stripComments failed: %v", err)
			}

			if diff := cmp.Diff(tt.lines, got.lines); diff != "" {
				t.Errorf("lines (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff(tt.lineOf, got.lineOf); diff != "" {
				t.Errorf("line map (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStripComments_Unterminated(t *testing.T) {
	_, err := stripComments("ok\n  x /* open")

	var perr *ParseError
	if !errors.As(err, &perr) || !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected unterminated ParseError, got %v", err)
	}

	if perr.Pos != (Position{Line: 2, Column: 5}) {
		t.Errorf("position = %v, want 2:5", perr.Pos)
	}
}
