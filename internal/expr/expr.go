// Package expr models the arithmetic parameter expressions carried by
// circuit instructions: literals, named mathematical constants, symbolic
// parameter references, and unary/binary arithmetic over them.
//
// An expression folds to a concrete float64 when it contains no unbound
// parameter references; otherwise it stays symbolic until binding. Formatting
// is deterministic and round-trip exact: parsing a formatted literal back
// reproduces the identical float64.
package expr

import (
	"fmt"
	"math"
	"strconv"
)

// Expr is a sealed interface over parameter expression nodes. Only Literal,
// Const, Param, Unary, and Binary implement it.
type Expr interface {
	exprNode() // sealed

	// String renders the canonical symbolic form. Used for memoization
	// equality of expressions that do not fold; not the exporter surface
	// (see Format).
	String() string
}

// Literal is a concrete floating-point value.
type Literal float64

// Const is a named mathematical constant.
type Const string

// Named constants. These are the only valid Const values.
const (
	Pi    Const = "pi"
	Tau   Const = "tau"
	Euler Const = "euler"
)

// Param is a symbolic reference to a named parameter, e.g. a gate-definition
// formal. It blocks folding until bound.
type Param string

// UnaryOp identifies a unary operation.
type UnaryOp string

// BinaryOp identifies a binary operation.
type BinaryOp string

const (
	OpNeg UnaryOp = "-"

	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpPow BinaryOp = "**"
)

// Unary applies Op to X.
type Unary struct {
	Op UnaryOp
	X  Expr
}

// Binary applies Op to Left and Right.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (Literal) exprNode() {}
func (Const) exprNode()   {}
func (Param) exprNode()   {}
func (Unary) exprNode()   {}
func (Binary) exprNode()  {}

// Value returns the numeric value of a named constant.
// Unknown names return NaN; the front-end never produces them.
func (c Const) Value() float64 {
	switch c {
	case Pi:
		return math.Pi
	case Tau:
		return 2 * math.Pi
	case Euler:
		return math.E
	}
	return math.NaN()
}

func (l Literal) String() string {
	return strconv.FormatFloat(float64(l), 'g', -1, 64)
}

func (c Const) String() string { return string(c) }

func (p Param) String() string { return string(p) }

func (u Unary) String() string {
	return string(u.Op) + parenthesize(u.X, precUnary)
}

func (b Binary) String() string {
	prec := binaryPrec(b.Op)
	// The operand on the non-associating side needs parens at equal
	// precedence: the right for left-associative ops, the left for the
	// right-associative **.
	leftMin, rightMin := prec, prec+1
	if b.Op == OpPow {
		leftMin, rightMin = prec+1, prec
	}
	return parenthesize(b.Left, leftMin) + string(b.Op) + parenthesize(b.Right, rightMin)
}

// Operator precedence, loosest first.
const (
	precAdd   = 1
	precMul   = 2
	precUnary = 3
	precPow   = 4
)

func binaryPrec(op BinaryOp) int {
	switch op {
	case OpAdd, OpSub:
		return precAdd
	case OpMul, OpDiv:
		return precMul
	case OpPow:
		return precPow
	}
	return precAdd
}

func exprPrec(e Expr) int {
	switch v := e.(type) {
	case Binary:
		return binaryPrec(v.Op)
	case Unary:
		return precUnary
	default:
		return precPow + 1 // atoms never need parens
	}
}

func parenthesize(e Expr, minPrec int) string {
	s := e.String()
	if exprPrec(e) < minPrec {
		return "(" + s + ")"
	}
	return s
}

// SymbolicError reports that folding stopped at an unbound parameter.
type SymbolicError struct {
	Name string // the first unbound parameter encountered
}

func (e *SymbolicError) Error() string {
	return fmt.Sprintf("expression is symbolic: parameter %q is unbound", e.Name)
}
