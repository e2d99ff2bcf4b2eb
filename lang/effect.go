package lang

import (
	"log/slog"
	"regexp"
	"strings"
)

// Op is a mutation operator.
type Op int

const (
	OpIncrement Op = iota // $x++ or ++$x
	OpDecrement           // $x-- or --$x
	OpAssign              // $x = v
	OpAdd                 // $x += v
	OpSub                 // $x -= v
	OpMul                 // $x *= v
	OpDiv                 // $x /= v
)

// String returns the operator as written in templates.
func (op Op) String() string {
	switch op {
	case OpIncrement:
		return "++"

	case OpDecrement:
		return "--"

	case OpAssign:
		return "="

	case OpAdd:
		return "+="

	case OpSub:
		return "-="

	case OpMul:
		return "*="

	case OpDiv:
		return "/="

	default:
		return "?"
	}
}

// OperandKind identifies the form of a mutation's right-hand side.
type OperandKind int

const (
	OperandNone    OperandKind = iota // ++ and --
	OperandItem                       // #item
	OperandExpr                       // #[expr] or a raw expression
	OperandLiteral                    // "quoted"
)

// Operand is the right-hand side of a mutation.
type Operand struct {
	Kind OperandKind
	Item string      // OperandItem
	Expr *Expression // OperandExpr
	Text string      // literal text, or the raw source of a bare expression
	Raw  bool        // bare expression: fall back to Text when it fails
}

// Mutation is the parsed form of a side effect: Target Op Operand.
type Mutation struct {
	Target  string
	Op      Op
	Operand Operand
}

var (
	postIncrement = regexp.MustCompile(`^\$(\w+)\s*(\+\+|--)$`)
	preIncrement  = regexp.MustCompile(`^(\+\+|--)\s*\$(\w+)$`)
	targetName    = regexp.MustCompile(`^\$(\w+)$`)
)

// assignOps are tried in order; compound operators precede "=".
var assignOps = []struct {
	token string
	op    Op
}{
	{"+=", OpAdd},
	{"-=", OpSub},
	{"*=", OpMul},
	{"/=", OpDiv},
	{"=", OpAssign},
}

// parseMutation recognizes one mutation in source. It returns nil when
// source is not a mutation.
func parseMutation(source string, o options) *Mutation {
	source = strings.TrimSpace(source)

	if m := postIncrement.FindStringSubmatch(source); m != nil {
		return &Mutation{Target: m[1], Op: stepOp(m[2])}
	}

	if m := preIncrement.FindStringSubmatch(source); m != nil {
		return &Mutation{Target: m[2], Op: stepOp(m[1])}
	}

	for _, a := range assignOps {
		lhs, rhs, ok := strings.Cut(source, a.token)
		if !ok {
			continue
		}

		m := targetName.FindStringSubmatch(strings.TrimSpace(lhs))
		if m == nil {
			continue
		}

		return &Mutation{
			Target:  m[1],
			Op:      a.op,
			Operand: parseOperand(strings.TrimSpace(rhs), o),
		}
	}

	return nil
}

func stepOp(token string) Op {
	if token == "--" {
		return OpDecrement
	}

	return OpIncrement
}

func parseOperand(rhs string, o options) Operand {
	switch {
	case strings.HasPrefix(rhs, "#[") && strings.HasSuffix(rhs, "]"):
		return Operand{
			Kind: OperandExpr,
			Expr: &Expression{
				Source: rhs[2 : len(rhs)-1],
				prog:   compileProgram(rhs[2:len(rhs)-1], o.logger),
			},
		}

	case strings.HasPrefix(rhs, "#") && len(rhs) > 1:
		return Operand{Kind: OperandItem, Item: unquote(strings.TrimSpace(rhs[1:]))}

	case len(rhs) >= 2 && strings.HasPrefix(rhs, `"`) && strings.HasSuffix(rhs, `"`):
		return Operand{Kind: OperandLiteral, Text: rhs[1 : len(rhs)-1]}

	default:
		return Operand{
			Kind: OperandExpr,
			Expr: &Expression{Source: rhs, prog: compileProgram(rhs, o.logger)},
			Text: rhs,
			Raw:  true,
		}
	}
}

// String renders m in template syntax.
func (m *Mutation) String() string {
	switch m.Op {
	case OpIncrement, OpDecrement:
		return "$" + m.Target + m.Op.String()
	}

	var rhs string

	switch m.Operand.Kind {
	case OperandItem:
		rhs = "#" + m.Operand.Item

	case OperandLiteral:
		rhs = `"` + m.Operand.Text + `"`

	case OperandExpr:
		if m.Operand.Raw {
			rhs = m.Operand.Text
		} else {
			rhs = "#[" + m.Operand.Expr.Source + "]"
		}
	}

	return "$" + m.Target + " " + m.Op.String() + " " + rhs
}

// apply performs the mutation on c. Writes always land in c's own scope.
func (m *Mutation) apply(c *Context) error {
	if c.gen.consts[m.Target] {
		c.gen.logger.Debug("ignore assignment to constant",
			slog.String("variable", m.Target),
			slog.String("op", m.Op.String()))

		return nil
	}

	old, _ := c.Lookup(m.Target)

	switch m.Op {
	case OpIncrement, OpDecrement:
		if old == nil {
			old = 0
		}

		op := OpAdd
		if m.Op == OpDecrement {
			op = OpSub
		}

		return c.storeArith(m, op, old, 1)
	}

	val, err := m.Operand.value(c)
	if err != nil {
		return err
	}

	switch m.Op {
	case OpAssign:
		c.Set(m.Target, val)

	case OpAdd:
		if old == nil {
			if _, isStr := val.(string); isStr {
				old = ""
			} else {
				old = 0
			}
		}

		if sum, ok := addValues(old, val); ok {
			c.Set(m.Target, sum)
		}

	default:
		if old == nil {
			old = 0
		}

		return c.storeArith(m, m.Op, old, val)
	}

	return nil
}

func (c *Context) storeArith(m *Mutation, op Op, old, val any) error {
	a, okA := numeric(old)
	b, okB := numeric(val)

	if okA && okB {
		if res, ok := arith(op, a, b); ok {
			c.Set(m.Target, res)

			return nil
		}
	}

	c.gen.logger.Debug("skip mutation",
		slog.String("mutation", m.String()),
		slog.String("current", render(old)),
		slog.String("operand", render(val)))

	return nil
}

// addValues adds two numbers, or concatenates their text when either is a
// non-numeric value.
func addValues(a, b any) (any, bool) {
	_, aNum := a.(int)
	_, aFloat := a.(float64)
	_, bNum := b.(int)
	_, bFloat := b.(float64)

	if (aNum || aFloat) && (bNum || bFloat) {
		return arith(OpAdd, a, b)
	}

	return render(a) + render(b), true
}

// value evaluates the operand against c. Soft failures yield the literal
// text of a bare expression, or the inline error marker.
func (o Operand) value(c *Context) (any, error) {
	switch o.Kind {
	case OperandItem:
		item, ok := c.Item(o.Item)
		if !ok {
			return "", nil
		}

		return c.generateItem(item)

	case OperandLiteral:
		return o.Text, nil

	case OperandExpr:
		v, err := c.evalExpression(o.Expr)
		if err != nil {
			if isHard(err) {
				return nil, err
			}

			if o.Raw {
				return o.Text, nil
			}

			return exprErrorMarker(err), nil
		}

		if s, isStr := v.(string); isStr && !o.Raw {
			if n, ok := parseNumber(s); ok {
				return n, nil
			}
		}

		return v, nil
	}

	return nil, nil
}
