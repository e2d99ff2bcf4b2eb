package lang

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWalk_Order(t *testing.T) {
	node := optionNode(t, "a#(^[$w] b|c)#?([$x] d | e)#*[$n]`f`")

	var got []string

	Walk(node, func(n Node) bool {
		switch n := n.(type) {
		case *Text:
			got = append(got, n.Value)
		case *Expression:
			got = append(got, "["+n.Source+"]")
		}

		return true
	})

	want := []string{"a", "[$w]", "b", "c", "[$x]", "d", "e", "[$n]", "f"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("visit order (-want +got):\n%s", diff)
	}
}

func TestWalk_Prune(t *testing.T) {
	node := optionNode(t, "x#(a|b)y")

	count := 0

	Walk(node, func(n Node) bool {
		count++

		_, random := n.(*InlineRandom)

		return !random
	})

	// PlainList, Text x, InlineRandom, Text y.
	if count != 4 {
		t.Errorf("visited %d nodes, want 4", count)
	}
}

func TestAST_Undefined(t *testing.T) {
	source := `
$pet = #animal
$ghost = #spirit
main
    #animal #color #"no such" #*2missing
        color
            #shade
animal
    cat
`

	ast := mustParse(t, source)

	want := []string{"missing", "no such", "shade", "spirit"}
	if diff := cmp.Diff(want, ast.Undefined()); diff != "" {
		t.Errorf("Undefined (-want +got):\n%s", diff)
	}
}
