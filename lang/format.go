package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// DefaultIndent is the indentation width used by Format when none is given.
const DefaultIndent = 4

// Format writes the AST as normalized template source. Parsing the output
// yields an equivalent AST.
func (ast *AST) Format(_ context.Context, w io.Writer, indent int) error {
	if indent <= 0 {
		indent = DefaultIndent
	}

	for _, decl := range ast.Variables {
		if _, err := fmt.Fprintln(w, formatDeclaration(decl)); err != nil {
			return err
		}
	}

	count := 0
	for item := range ast.Items.All() {
		if count > 0 || len(ast.Variables) > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		if err := formatItem(w, item, indent, 0); err != nil {
			return err
		}

		count++
	}

	return nil
}

// FormatJSON writes the structural dump of the AST as JSON to the writer.
func (ast *AST) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(ast, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(ast)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the structural dump of the AST as YAML to the writer.
func (ast *AST) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, ast.ToMap(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// String returns the declaration as it is written in a template.
func (decl *VariableDeclaration) String() string { return formatDeclaration(decl) }

// String returns the option as it is written in a template, weight prefix
// included. Nested items are not rendered.
func (c Choice) String() string { return formatChoice(c.Weight, c.Node) }

func formatDeclaration(decl *VariableDeclaration) string {
	var b strings.Builder

	b.WriteString("$")

	if decl.Const {
		b.WriteString("const ")
	}

	if decl.Once {
		b.WriteString("once ")
	}

	b.WriteString(decl.Name)

	if decl.Type != VarUntyped {
		b.WriteString(" : ")
		b.WriteString(decl.Type.String())
	}

	if decl.Init != nil {
		b.WriteString(" = ")
		b.WriteString(formatInitializer(decl.Init))
	}

	return b.String()
}

func formatInitializer(init any) string {
	switch v := init.(type) {
	case *Expression:
		return "#[" + v.Source + "]"

	case *ItemRef:
		return formatItemRef(v.Name, false)

	case string:
		return `"` + v + `"`

	default:
		return render(v)
	}
}

func formatItem(w io.Writer, item *Item, indent, depth int) error {
	pad := strings.Repeat(" ", depth*indent)

	name := item.Name
	if !isWord(name) {
		name = `"` + name + `"`
	}

	if _, err := fmt.Fprintln(w, pad+name); err != nil {
		return err
	}

	for _, ch := range item.Body.Choices {
		node := ch.Node

		var nested *ItemTable
		if sc, ok := node.(*Scoped); ok {
			node, nested = sc.Node, sc.Items
		}

		line := pad + strings.Repeat(" ", indent) + formatChoice(ch.Weight, node)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		for sub := range nested.All() {
			if err := formatItem(w, sub, indent, depth+2); err != nil {
				return err
			}
		}
	}

	return nil
}

// formatChoice renders a weight prefix and option content. Boundary spaces
// are escaped so that trimming on reparse keeps them.
func formatChoice(wt Weight, n Node) string {
	content := formatNode(n)

	if strings.HasPrefix(content, " ") {
		content = `\s` + content[1:]
	}

	if len(content) > 1 && strings.HasSuffix(content, " ") {
		content = content[:len(content)-1] + `\s`
	}

	switch {
	case wt.Expr != nil:
		return "^[" + wt.Expr.Source + "] " + content

	case wt.Value != 1:
		return "^" + formatFloat(wt.Value) + " " + content
	}

	return content
}

// formatNode renders n as inline template content.
func formatNode(n Node) string {
	switch n := n.(type) {
	case *Text:
		return escapeText(n.Value)

	case *PlainList:
		var b strings.Builder

		for i, child := range n.Nodes {
			ref, isRef := child.(*ItemRef)
			if isRef && i+1 < len(n.Nodes) && startsWithWord(n.Nodes[i+1]) {
				b.WriteString(formatItemRef(ref.Name, true))

				continue
			}

			b.WriteString(formatNode(child))
		}

		return b.String()

	case *Roulette:
		return formatChoices(n.Choices)

	case *InlineRandom:
		return formatChoices(n.Choices)

	case *Variable:
		return "$" + n.Name

	case *ItemRef:
		return formatItemRef(n.Name, false)

	case *Expression:
		return "#[" + n.Source + "]"

	case *SideEffect:
		return "#{" + n.Source + "}"

	case *Conditional:
		parts := make([]string, 0, len(n.Branches)+1)

		for _, b := range n.Branches {
			parts = append(parts, "["+b.Cond.Source+"] "+formatNode(b.Node))
		}

		if n.Else != nil {
			parts = append(parts, formatNode(n.Else))
		}

		return "#?(" + strings.Join(parts, " | ") + ")"

	case *Repeat:
		count := strconv.Itoa(n.Count)
		if n.CountExpr != nil {
			count = "[" + n.CountExpr.Source + "]"
		}

		if ref, ok := n.Body.(*ItemRef); ok && isWord(ref.Name) && !n.UseIndex &&
			(n.CountExpr != nil || !unicode.IsDigit([]rune(ref.Name)[0])) {
			return "#*" + count + ref.Name
		}

		return "#*" + count + "`" + formatNode(n.Body) + "`"

	case *Scoped:
		return formatNode(n.Node)
	}

	return ""
}

func formatChoices(choices []Choice) string {
	parts := make([]string, len(choices))
	for i, ch := range choices {
		parts[i] = formatChoice(ch.Weight, ch.Node)
	}

	return "#(" + strings.Join(parts, " | ") + ")"
}

func formatItemRef(name string, quote bool) string {
	if quote || !isWord(name) {
		return `#"` + name + `"`
	}

	return "#" + name
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`$`, `\$`,
	`#`, `\#`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	"\n", `\n`,
	"\t", `\t`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func isWord(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if !isWordRune(r) {
			return false
		}
	}

	return true
}

func startsWithWord(n Node) bool {
	t, ok := n.(*Text)
	if !ok || t.Value == "" {
		return false
	}

	r, _ := utf8.DecodeRuneInString(t.Value)

	return isWordRune(r)
}
