package lang

import (
	"errors"
	"testing"
)

func TestResolve_ReusesValidArtifact(t *testing.T) {
	tmpl := Template{Text: "main\n    hello\n", Stamp: "1"}

	first, fresh, err := Resolve(t.Context(), tmpl, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !fresh || first.SourceStamp != "1" || first.AST == nil || first.ParsedAt.IsZero() {
		t.Fatalf("unexpected first artifact: fresh=%v %+v", fresh, first)
	}

	second, fresh, err := Resolve(t.Context(), tmpl, first)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if fresh || second != first {
		t.Errorf("valid artifact was not reused (fresh=%v)", fresh)
	}
}

func TestResolve_ReparsesOnStampChange(t *testing.T) {
	old, _, err := Resolve(t.Context(), Template{Text: "main\n    old\n", Stamp: "1"}, nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	updated := Template{Text: "main\n    new\n", Stamp: "2"}

	got, fresh, err := Resolve(t.Context(), updated, old)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !fresh || got == old || got.SourceStamp != "2" {
		t.Fatalf("stale artifact reused: fresh=%v stamp=%q", fresh, got.SourceStamp)
	}

	out, err := got.AST.Generate(t.Context())
	if err != nil || out != "new" {
		t.Errorf("Generate = %q, %v", out, err)
	}
}

func TestResolve_ParseErrorReturnsNoArtifact(t *testing.T) {
	got, fresh, err := Resolve(t.Context(), Template{Text: "main\n    #[oops\n", Stamp: "x"}, nil)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}

	if got != nil || fresh {
		t.Errorf("expected no artifact, got %+v (fresh=%v)", got, fresh)
	}
}

func TestArtifact_Valid(t *testing.T) {
	ast := mustParse(t, "main\n    x\n")
	tmpl := Template{Text: "main\n    x\n", Stamp: "s"}

	tests := []struct {
		name     string
		artifact *Artifact
		want     bool
	}{
		{"nil", nil, false},
		{"missing AST", &Artifact{SourceStamp: "s"}, false},
		{"stamp mismatch", &Artifact{AST: ast, SourceStamp: "t"}, false},
		{"match", &Artifact{AST: ast, SourceStamp: "s"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.artifact.Valid(tmpl); got != tt.want {
				t.Errorf("Valid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentStamp(t *testing.T) {
	a := ContentStamp("main\n    a\n")

	if a == "" || a != ContentStamp("main\n    a\n") {
		t.Errorf("stamp not stable: %q", a)
	}

	if a == ContentStamp("main\n    b\n") {
		t.Error("different text produced the same stamp")
	}
}
