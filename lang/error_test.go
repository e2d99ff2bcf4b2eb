package lang

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func TestError_Is(t *testing.T) {
	derived := ErrUnterminated.
		Wrap(io.ErrUnexpectedEOF).
		With(slog.String("construct", "#[")).
		WithPosition(Position{Line: 3, Column: 7})

	if !errors.Is(derived, ErrUnterminated) {
		t.Error("derived error does not match its sentinel")
	}

	if !errors.Is(derived, io.ErrUnexpectedEOF) {
		t.Error("derived error does not match its cause")
	}

	if errors.Is(derived, ErrIndentation) {
		t.Error("derived error matches an unrelated sentinel")
	}

	if errors.Is(ErrUnterminated, derived) {
		t.Error("sentinel matches a derived error carrying a cause")
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"sentinel", ErrItemNotFound, "item not found"},
		{"wrapped", ErrReadInput.Wrap(io.EOF), "failed to read input: EOF"},
		{"positioned", ErrIndentation.WithPosition(Position{Line: 2, Column: 3}), "2:3: inconsistent indentation"},
		{"without position", ErrIndentation.WithPosition(Position{Line: 2, Column: 3}).WithoutPosition(), "inconsistent indentation"},
		{"plain wrap", WrapError(io.EOF), "EOF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_WithDoesNotMutate(t *testing.T) {
	base := ErrDeclaration.With(slog.String("a", "1"))
	_ = base.With(slog.String("b", "2"))

	if n := len(base.LogValue().Group()); n != 2 {
		t.Errorf("base error has %d attrs, want 2 (error, a)", n)
	}

	if pos, ok := base.Position(); ok {
		t.Errorf("unexpected position %v", pos)
	}
}

func TestWrapError_KeepsError(t *testing.T) {
	orig := ErrExprCompile.With(slog.String("source", "1 +"))

	if got := WrapError(orig); got != orig {
		t.Error("WrapError did not return the existing *Error")
	}
}

func TestGenerationError(t *testing.T) {
	err := &GenerationError{
		Err:   ErrRecursionLimit.With(slog.Int("limit", 3)),
		Chain: []string{"main", "loop", "loop"},
	}

	if want := "generation failed: recursion limit exceeded (in main > loop > loop)"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, ErrRecursionLimit) {
		t.Error("GenerationError does not unwrap to its cause")
	}

	attrs := err.LogValue().Group()
	if len(attrs) != 2 || attrs[1].Key != "chain" || attrs[1].Value.String() != "main > loop > loop" {
		t.Errorf("LogValue = %v", attrs)
	}
}
