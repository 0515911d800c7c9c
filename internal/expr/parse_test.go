package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTripsString(t *testing.T) {
	exprs := []Expr{
		Literal(0.5),
		Literal(3.141592653589793),
		Pi,
		Param("theta"),
		Unary{Op: OpNeg, X: Binary{Op: OpDiv, Left: Pi, Right: Literal(2)}},
		Binary{Op: OpMul, Left: Binary{Op: OpAdd, Left: Param("a"), Right: Param("b")}, Right: Literal(2)},
		Binary{Op: OpPow, Left: Literal(2), Right: Binary{Op: OpPow, Left: Param("x"), Right: Literal(3)}},
	}

	for _, want := range exprs {
		t.Run(want.String(), func(t *testing.T) {
			got, err := Parse(want.String())
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
		})
	}
}

func TestParseNumericFormsRoundTripExactly(t *testing.T) {
	// Shortest round-trip literals, including exponent forms.
	for _, s := range []string{"0.1", "1e-07", "2.5e+20", "3.141592653589793"} {
		got, err := Parse(s)
		require.NoError(t, err)
		lit, ok := got.(Literal)
		require.True(t, ok)
		assert.Equal(t, s, lit.String())
	}
}

func TestParsePrecedence(t *testing.T) {
	e, err := Parse("1+2*3")
	require.NoError(t, err)
	v, err := Fold(e)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	e, err = Parse("(1+2)*3")
	require.NoError(t, err)
	v, err = Fold(e)
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)

	// ** binds tighter than unary minus application result and is
	// right-associative.
	e, err = Parse("2**3**2")
	require.NoError(t, err)
	v, err = Fold(e)
	require.NoError(t, err)
	assert.Equal(t, 512.0, v)
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "1+", "(1", "1)", "@", "1..2"} {
		_, err := Parse(s)
		assert.Error(t, err, "input %q", s)
	}
}
