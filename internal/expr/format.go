package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Rational-multiple search bounds for named-constant rendering. Angles seen
// in practice are small fractions of pi; anything outside this window reads
// better as a decimal literal anyway.
const (
	maxDenominator = 12
	maxNumerator   = 48
)

// constOrder fixes the search order so pi wins over tau for values that are
// multiples of both.
var constOrder = []Const{Pi, Tau, Euler}

// Format renders e for emission into program text.
//
// When disableConstants is true, or the folded value is not an exact rational
// multiple of a named constant, the result is the shortest decimal literal
// that round-trips to the identical float64. Otherwise the result is a
// symbolic form such as "pi", "pi/2", "2*pi", or "-3*pi/4".
//
// Expressions that do not fold (unbound parameters, i.e. gate-body formals)
// render symbolically regardless of disableConstants.
func Format(e Expr, disableConstants bool) string {
	v, err := Fold(e)
	if err != nil {
		return e.String()
	}
	return FormatFloat(v, disableConstants)
}

// FormatFloat renders a concrete value under the same policy as Format.
func FormatFloat(v float64, disableConstants bool) string {
	if !disableConstants {
		if s, ok := namedConstantForm(v); ok {
			return s
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// namedConstantForm searches for an exact k/d multiple of a named constant.
// Exactness means the reconstructed float64 equals v bit-for-bit, which keeps
// the symbolic form loss-free under re-import.
func namedConstantForm(v float64) (string, bool) {
	if v == 0 {
		return "", false
	}
	for _, c := range constOrder {
		base := c.Value()
		for d := int64(1); d <= maxDenominator; d++ {
			for k := int64(1); k <= maxNumerator; k++ {
				if float64(k)*base/float64(d) == v {
					return fraction(k, d, string(c), false), true
				}
				if -(float64(k) * base / float64(d)) == v {
					return fraction(k, d, string(c), true), true
				}
			}
		}
	}
	return "", false
}

func fraction(k, d int64, name string, negative bool) string {
	sign := ""
	if negative {
		sign = "-"
	}
	switch {
	case k == 1 && d == 1:
		return sign + name
	case d == 1:
		return fmt.Sprintf("%s%d*%s", sign, k, name)
	case k == 1:
		return fmt.Sprintf("%s%s/%d", sign, name, d)
	default:
		return fmt.Sprintf("%s%d*%s/%d", sign, k, name, d)
	}
}

// ConstantsIn returns the named constants whose symbolic forms would appear
// if each expression were formatted with constants enabled, in first-use
// order. The exporter uses this to declare each constant once per program.
func ConstantsIn(exprs []Expr) []Const {
	var out []Const
	seen := make(map[Const]bool)
	for _, e := range exprs {
		v, err := Fold(e)
		if err != nil {
			continue
		}
		s, ok := namedConstantForm(v)
		if !ok {
			continue
		}
		// Rendered forms are "k*name/d" shaped, so a substring check cannot
		// false-positive across distinct constant names.
		for _, c := range constOrder {
			if strings.Contains(s, string(c)) && !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
