package lang

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var ignoreProgram = cmpopts.IgnoreUnexported(Expression{})

// optionNode parses text as the only option of an item and returns its node.
func optionNode(t *testing.T, text string) Node {
	t.Helper()

	ast := mustParse(t, "main\n    "+text+"\n")

	if n := len(ast.Entry.Body.Choices); n != 1 {
		t.Fatalf("expected 1 option, got %d", n)
	}

	return ast.Entry.Body.Choices[0].Node
}

func TestInline_Nodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Node
	}{
		{
			name: "text",
			text: "hello world",
			want: &Text{Value: "hello world"},
		},
		{
			name: "variable",
			text: "a $b c",
			want: &PlainList{Nodes: []Node{
				&Text{Value: "a "}, &Variable{Name: "b"}, &Text{Value: " c"},
			}},
		},
		{
			name: "names end at non-ASCII text",
			text: `第$i项 #颜色 #"颜色"`,
			want: &PlainList{Nodes: []Node{
				&Text{Value: "第"},
				&Variable{Name: "i"},
				&Text{Value: "项 #颜色 "},
				&ItemRef{Name: "颜色"},
			}},
		},
		{
			name: "quoted item reference",
			text: `#"two words"x $"other"`,
			want: &PlainList{Nodes: []Node{
				&ItemRef{Name: "two words"}, &Text{Value: "x "}, &ItemRef{Name: "other"},
			}},
		},
		{
			name: "escapes",
			text: `\$5 \# \[x\] \{y\}\t\n\s\q`,
			want: &Text{Value: "$5 # [x] {y}\t\n \\q"},
		},
		{
			name: "literal hash and dollar",
			text: "5# and $ and #*",
			want: &Text{Value: "5# and $ and #*"},
		},
		{
			name: "expression",
			text: "#[1 + $x]",
			want: &Expression{Source: "1 + $x"},
		},
		{
			name: "side effect",
			text: "#{$n++}",
			want: &SideEffect{Source: "$n++", Mutation: &Mutation{Target: "n", Op: OpIncrement}},
		},
		{
			name: "unrecognized side effect",
			text: "#{just words}",
			want: &SideEffect{Source: "just words"},
		},
		{
			name: "inline random",
			text: "#(a | ^2 b|:3:c)",
			want: &InlineRandom{Choices: []Choice{
				{Weight: DefaultWeight, Node: &Text{Value: "a"}},
				{Weight: Weight{Value: 2}, Node: &Text{Value: "b"}},
				{Weight: Weight{Value: 3}, Node: &Text{Value: "c"}},
			}},
		},
		{
			name: "nested inline random",
			text: "#(x#(y|z)|w)",
			want: &InlineRandom{Choices: []Choice{
				{Weight: DefaultWeight, Node: &PlainList{Nodes: []Node{
					&Text{Value: "x"},
					&InlineRandom{Choices: []Choice{
						{Weight: DefaultWeight, Node: &Text{Value: "y"}},
						{Weight: DefaultWeight, Node: &Text{Value: "z"}},
					}},
				}}},
				{Weight: DefaultWeight, Node: &Text{Value: "w"}},
			}},
		},
		{
			name: "conditional",
			text: "#?([$x > 1] big | [$x > 0] small | none)",
			want: &Conditional{
				Branches: []Branch{
					{Cond: &Expression{Source: "$x > 1"}, Node: &Text{Value: "big"}},
					{Cond: &Expression{Source: "$x > 0"}, Node: &Text{Value: "small"}},
				},
				Else: &Text{Value: "none"},
			},
		},
		{
			name: "conditional without else",
			text: "#?([$x] yes)",
			want: &Conditional{
				Branches: []Branch{{Cond: &Expression{Source: "$x"}, Node: &Text{Value: "yes"}}},
			},
		},
		{
			name: "repeat item",
			text: "#*3star",
			want: &Repeat{Count: 3, Body: &ItemRef{Name: "star"}},
		},
		{
			name: "repeat expression count",
			text: "#*[$n]star",
			want: &Repeat{Count: 1, CountExpr: &Expression{Source: "$n"}, Body: &ItemRef{Name: "star"}},
		},
		{
			name: "repeat body with index",
			text: "#*2`#i:$i|`",
			want: &Repeat{Count: 2, UseIndex: true, Body: &PlainList{Nodes: []Node{
				&Variable{Name: "i"}, &Text{Value: ":"}, &Variable{Name: "i"}, &Text{Value: "|"},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := optionNode(t, tt.text)

			if diff := cmp.Diff(tt.want, got, ignoreProgram); diff != "" {
				t.Errorf("node mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInline_OptionWeights(t *testing.T) {
	source := `main
    ^2.5 a
    :3:b
    ^[$w] c
    #[$w + 1]:d
    :#[$w]:e
    ^x f
    ^4
    plain
`

	ast := mustParse(t, source)

	want := []Choice{
		{Weight: Weight{Value: 2.5}, Node: &Text{Value: "a"}},
		{Weight: Weight{Value: 3}, Node: &Text{Value: "b"}},
		{Weight: Weight{Expr: &Expression{Source: "$w"}}, Node: &Text{Value: "c"}},
		{Weight: Weight{Expr: &Expression{Source: "$w + 1"}}, Node: &Text{Value: "d"}},
		{Weight: Weight{Expr: &Expression{Source: "$w"}}, Node: &Text{Value: "e"}},
		{Weight: DefaultWeight, Node: &Text{Value: "^x f"}},
		{Weight: DefaultWeight, Node: &Text{Value: "^4"}},
		{Weight: DefaultWeight, Node: &Text{Value: "plain"}},
	}

	if diff := cmp.Diff(want, ast.Entry.Body.Choices, ignoreProgram); diff != "" {
		t.Errorf("choices (-want +got):\n%s", diff)
	}
}

func TestSplitOptions(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a|b|c", []string{"a", "b", "c"}},
		{"a|#(b|c)|d", []string{"a", "#(b|c)", "d"}},
		{"#[1|2]|x", []string{"#[1|2]", "x"}},
		{"`a|b`|c", []string{"`a|b`", "c"}},
		{`a\|b|c`, []string{`a\|b`, "c"}},
		{"", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			src := []rune(tt.in)

			var got []string
			for _, seg := range splitOptions(src, 0, len(src)) {
				got = append(got, string(src[seg.from:seg.to]))
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("segments (-want +got):\n%s", diff)
			}
		})
	}
}
