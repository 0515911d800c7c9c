package gates

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileGatesBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		gates: {
			iswap: { qubits: 2 }
			rzz:   { qubits: 2, params: 1 }
		}
	`)

	defs, err := CompileGates(v)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, Constructor{Name: "iswap", NumQubits: 2}, defs[0])
	assert.Equal(t, Constructor{Name: "rzz", NumQubits: 2, NumParams: 1}, defs[1])
}

func TestCompileGatesMissingGatesStruct(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`other: {}`)

	_, err := CompileGates(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gates")
	assert.Contains(t, err.Error(), "required")
}

func TestCompileGatesMissingQubits(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`gates: { foo: { params: 1 } }`)

	_, err := CompileGates(v)
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, "gates.foo.qubits", compileErr.Field)
}

func TestCompileGatesRejectsBadArities(t *testing.T) {
	ctx := cuecontext.New()

	_, err := CompileGates(ctx.CompileString(`gates: { foo: { qubits: 0 } }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")

	_, err = CompileGates(ctx.CompileString(`gates: { foo: { qubits: 1, params: -2 } }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not be negative")
}

func TestCompileGatesEmpty(t *testing.T) {
	ctx := cuecontext.New()
	_, err := CompileGates(ctx.CompileString(`gates: {}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one gate")
}
