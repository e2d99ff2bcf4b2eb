package lang

import (
	"errors"
	"strings"
	"testing"
)

func TestExpression_Evaluate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"1 + 2", "3"},
		{"(1 + 2) * 3", "9"},
		{"7 % 3", "1"},
		{"10 / 4", "2.5"},
		{"10 / 2", "5"},
		{"-$x + 1", "-20"},
		{"$x * 2", "42"},
		{"$x > 20 and $x < 30", "true"},
		{"not ($x == 21)", "false"},
		{"$x != 21 || $y == 'y'", "true"},
		{`"a" + "b"`, "ab"},
		{`$name + "!"`, "Ann!"},
		{"$unbound + 1", "1"},
		{`"$x"`, "$x"},
		{`"\$5"`, "$5"},
		{`#color + "!"`, "red!"},
		{`#missing + "x"`, "x"},
		{`$x > 10 ? "big" : "small"`, "big"},
		{`$x > 100 ? "big" : "small"`, "small"},
		{`$x > 1 ? "x is $x" : "none"`, "x is 21"},
		{`#color == "red" ? 'warm #color' : 'cool'`, "warm red"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			source := "$x = 21\n$y = \"y\"\n$name = \"Ann\"\nmain\n    #[" + tt.expr + "]\ncolor\n    red\n"

			if got := generate(t, source); got != tt.want {
				t.Errorf("#[%s] = %q, want %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpression_SoftFailures(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2 ** 3", "[expr error: operator **]"},
		{"1 .. 3", "[expr error: operator ..]"},
		{"$x ?? 1", "[expr error: operator ??]"},
		{"len('abc')", "[expr error: "},
		{"[1, 2]", "[expr error: ArrayNode]"},
		{"{a: 1}", "[expr error: "},
		{"1 +", "[expr error: "},
		{"$x % 0", "[expr error: "},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := generate(t, "$x = 1\nmain\n    <#["+tt.expr+"]>\n")

			if !strings.HasPrefix(got, "<"+tt.want) || !strings.HasSuffix(got, "]>") {
				t.Errorf("#[%s] = %q, want marker %q", tt.expr, got, tt.want)
			}
		})
	}
}

func TestNewExpression_Err(t *testing.T) {
	tests := []struct {
		source string
		want   error
	}{
		{"1 + 2", nil},
		{"$a > 1 ? 'x' : 'y'", nil},
		{"1 +", ErrExprCompile},
		{"2 ** 3", ErrExprForbidden},
		{"$a.b", ErrExprForbidden},
		{"(1 +) ? 'x' : 'y'", ErrExprCompile},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := NewExpression(tt.source).Err()

			switch {
			case tt.want == nil && err != nil:
				t.Errorf("unexpected error: %v", err)

			case tt.want != nil && !errors.Is(err, tt.want):
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRewriteRefs(t *testing.T) {
	got, refs := rewriteRefs(`$a + #b * $a - "$c" + '#d'`)

	if want := `v0 + i1 * v0 - "$c" + '#d'`; got != want {
		t.Errorf("rewritten = %q, want %q", got, want)
	}

	if len(refs) != 2 || refs[0].name != "a" || refs[0].item || refs[1].name != "b" || !refs[1].item {
		t.Errorf("refs = %+v", refs)
	}
}

func TestSplitTernary(t *testing.T) {
	tests := []struct {
		in              string
		cond, then, els string
		ok              bool
	}{
		{`a ? b : c`, "a ", " b ", " c", true},
		{`a ? "x:y" : c`, "a ", ` "x:y" `, " c", true},
		{`"?" + a`, "", "", "", false},
		{`a ? b`, "", "", "", false},
		{`(a ? b : c)`, "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cond, then, els, ok := splitTernary(tt.in)
			if ok != tt.ok || cond != tt.cond || then != tt.then || els != tt.els {
				t.Errorf("splitTernary = %q, %q, %q, %v", cond, then, els, ok)
			}
		})
	}
}

func TestExpression_OperatorsOnReferences(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"comparison", "$x = 5\nmain\n    #[$x > 3]\n", "true"},
		{"arithmetic", "$k = 4\nmain\n    #[$k+1]\n", "5"},
		{"concatenation", "$a = \"x\"\nmain\n    #[$a + \"y\"]\n", "xy"},
		{"negation", "$x = 5\nmain\n    #[-$x]\n", "-5"},
		{"item and variable", "$x = 2\nmain\n    #[#c == \"red\" and $x > 1]\nc\n    red\n", "true"},
		{"ternary", "$x = 5\nmain\n    #[$x > 3 ? \"big\" : \"small\"]\n", "big"},
		{"conditional", "$x = 2\nmain\n    #?([$x > 5] big | [$x > 1] mid | small)\n", "mid"},
		{"repeat count", "$n = 2\nmain\n    #*[$n+1]`x`\n", "xxx"},
		{"dynamic weight", "$x = 0\nmain\n    ^[$x*2] never\n    ^[1 - $x] always\n", "always"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := generate(t, tt.source); got != tt.want {
				t.Errorf("generate = %q, want %q", got, tt.want)
			}
		})
	}
}
