package expr

import (
	"fmt"
	"math"
)

// Fold evaluates e to a concrete float64. It returns a *SymbolicError when
// any Param remains unbound, and a plain error for malformed trees (nil
// operands, unknown operators). Binding happens structurally: substitute
// Params (see Bind) before folding.
func Fold(e Expr) (float64, error) {
	switch v := e.(type) {
	case Literal:
		return float64(v), nil
	case Const:
		val := v.Value()
		if math.IsNaN(val) {
			return 0, fmt.Errorf("unknown named constant %q", string(v))
		}
		return val, nil
	case Param:
		return 0, &SymbolicError{Name: string(v)}
	case Unary:
		x, err := Fold(v.X)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case OpNeg:
			return -x, nil
		}
		return 0, fmt.Errorf("unknown unary operator %q", string(v.Op))
	case Binary:
		l, err := Fold(v.Left)
		if err != nil {
			return 0, err
		}
		r, err := Fold(v.Right)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case OpAdd:
			return l + r, nil
		case OpSub:
			return l - r, nil
		case OpMul:
			return l * r, nil
		case OpDiv:
			return l / r, nil
		case OpPow:
			return math.Pow(l, r), nil
		}
		return 0, fmt.Errorf("unknown binary operator %q", string(v.Op))
	case nil:
		return 0, fmt.Errorf("nil expression")
	}
	return 0, fmt.Errorf("unknown expression type %T", e)
}

// Bind substitutes values for named parameters and returns the rewritten
// expression. Parameters missing from bindings are left symbolic. The input
// expression is not mutated.
func Bind(e Expr, bindings map[string]float64) Expr {
	switch v := e.(type) {
	case Param:
		if val, ok := bindings[string(v)]; ok {
			return Literal(val)
		}
		return v
	case Unary:
		return Unary{Op: v.Op, X: Bind(v.X, bindings)}
	case Binary:
		return Binary{Op: v.Op, Left: Bind(v.Left, bindings), Right: Bind(v.Right, bindings)}
	default:
		return e
	}
}

// Equal reports memoization equality: structural after folding when both
// sides fold, textual otherwise.
func Equal(a, b Expr) bool {
	av, aerr := Fold(a)
	bv, berr := Fold(b)
	if aerr == nil && berr == nil {
		return av == bv
	}
	if aerr != nil && berr != nil {
		return a.String() == b.String()
	}
	return false
}
