package exporter

import (
	"bytes"
	"math"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbridge-dev/qbridge/internal/expr"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

func golden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func bellCircuit(t *testing.T) *ir.Circuit {
	t.Helper()
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 2}))
	require.NoError(t, c.AddRegister(ir.Register{Name: "c", Kind: ir.Classical, Size: 2}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "h", Qubits: []ir.Bit{{Register: "q", Index: 0}},
	}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "cx", Qubits: []ir.Bit{{Register: "q", Index: 0}, {Register: "q", Index: 1}},
	}))
	for i := 0; i < 2; i++ {
		require.NoError(t, c.AppendInstruction(ir.Instruction{
			Name:   ir.OpMeasure,
			Qubits: []ir.Bit{{Register: "q", Index: i}},
			Clbits: []ir.Bit{{Register: "c", Index: i}},
		}))
	}
	return c
}

// twistCircuit carries a user gate definition the standard include does not
// cover, applied twice.
func twistCircuit(t *testing.T) *ir.Circuit {
	t.Helper()
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 1}))
	c.AddGate(ir.GateDefinition{
		Name:          "twist",
		QubitParams:   []string{"a"},
		NumericParams: []string{"theta"},
		Body: []ir.Instruction{
			{
				Name:   "rz",
				Qubits: []ir.Bit{{Register: "a", Index: -1}},
				Params: []expr.Expr{expr.Binary{Op: expr.OpDiv, Left: expr.Param("theta"), Right: expr.Literal(2)}},
			},
			{
				Name:   "x",
				Qubits: []ir.Bit{{Register: "a", Index: -1}},
			},
		},
	})
	for i := 0; i < 2; i++ {
		require.NoError(t, c.AppendInstruction(ir.Instruction{
			Name:   "twist",
			Qubits: []ir.Bit{{Register: "q", Index: 0}},
			Params: []expr.Expr{expr.Literal(math.Pi / 4)},
		}))
	}
	return c
}

func TestExportBellGolden(t *testing.T) {
	text, err := Export(bellCircuit(t), false, DefaultOptions())
	require.NoError(t, err)
	golden(t).Assert(t, "bell", []byte(text))
}

func TestExportUserGateGolden(t *testing.T) {
	text, err := Export(twistCircuit(t), false, DefaultOptions())
	require.NoError(t, err)
	golden(t).Assert(t, "user_gate", []byte(text))
}

func TestExportDeterministic(t *testing.T) {
	c := twistCircuit(t)
	first, err := Export(c, false, DefaultOptions())
	require.NoError(t, err)
	second, err := Export(c, false, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportTo(bellCircuit(t), false, DefaultOptions(), &buf))
	text, err := Export(bellCircuit(t), false, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, text, buf.String())
}

func TestExportGateDefinitionEmittedOnce(t *testing.T) {
	text, err := Export(twistCircuit(t), false, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count([]byte(text), []byte("gate twist")))
	assert.Equal(t, 2, bytes.Count([]byte(text), []byte("twist(0.7853981633974483) q[0];")))
}

func TestExportBasisGateSuppressesDefinition(t *testing.T) {
	opts := DefaultOptions()
	opts.BasisGates = []string{"twist"}
	text, err := Export(twistCircuit(t), false, opts)
	require.NoError(t, err)
	assert.NotContains(t, text, "gate twist")
	assert.Contains(t, text, "twist(0.7853981633974483) q[0];")
}

func TestExportConstants(t *testing.T) {
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 1}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "rz", Qubits: []ir.Bit{{Register: "q", Index: 0}},
		Params: []expr.Expr{expr.Literal(math.Pi / 2)},
	}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "rz", Qubits: []ir.Bit{{Register: "q", Index: 0}},
		Params: []expr.Expr{expr.Literal(0.5)},
	}))

	opts := DefaultOptions()
	opts.DisableConstants = false
	text, err := Export(c, false, opts)
	require.NoError(t, err)
	assert.Contains(t, text, "const float pi = 3.141592653589793;\n")
	assert.Contains(t, text, "rz(pi/2) q[0];\n")
	assert.Contains(t, text, "rz(0.5) q[0];\n")

	// Folded mode: same circuit, decimal literals, no const block.
	folded, err := Export(c, false, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, folded, "const float")
	assert.Contains(t, folded, "rz(1.5707963267948966) q[0];\n")
}

func TestExportAliasing(t *testing.T) {
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 5}))
	require.NoError(t, c.AddAlias(ir.Alias{Name: "a", Targets: []ir.Bit{
		{Register: "q", Index: 1},
		{Register: "q", Index: 2},
		{Register: "q", Index: 4},
	}}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "x", Qubits: []ir.Bit{{Register: "a", Index: 0}},
	}))

	opts := DefaultOptions()
	opts.AllowAliasing = true
	text, err := Export(c, false, opts)
	require.NoError(t, err)
	assert.Contains(t, text, "let a = q[1:3] ++ q[4];\n")
	assert.Contains(t, text, "x a[0];\n")

	// Without aliasing the operand resolves to its physical element.
	plain, err := Export(c, false, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, plain, "let a")
	assert.Contains(t, plain, "x q[1];\n")
}

func TestExportAliasingWithLayout(t *testing.T) {
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 2}))
	require.NoError(t, c.AddAlias(ir.Alias{Name: "a", Targets: []ir.Bit{
		{Register: "q", Index: 0},
		{Register: "q", Index: 1},
	}}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name: "x", Qubits: []ir.Bit{{Register: "a", Index: 0}},
	}))
	require.NoError(t, c.SetLayout(ir.Layout{1, 0}))

	opts := DefaultOptions()
	opts.AllowAliasing = true
	text, err := Export(c, true, opts)
	require.NoError(t, err)
	// The alias is declared over hardware qubits and the operand keeps
	// its alias name.
	assert.NotContains(t, text, "qubit[")
	assert.Contains(t, text, "let a = $1 ++ $0;\n")
	assert.Contains(t, text, "x a[0];\n")

	// Without aliasing the operand resolves through the layout instead.
	plain, err := Export(c, true, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, plain, "let a")
	assert.Contains(t, plain, "x $1;\n")
}

func TestExportCondition(t *testing.T) {
	c := ir.New()
	require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 1}))
	require.NoError(t, c.AddRegister(ir.Register{Name: "c", Kind: ir.Classical, Size: 1}))
	require.NoError(t, c.AppendInstruction(ir.Instruction{
		Name:      "x",
		Qubits:    []ir.Bit{{Register: "q", Index: 0}},
		Condition: &ir.Condition{Register: "c", Value: 1},
	}))

	text, err := Export(c, false, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, text, "if (c == 1) x q[0];\n")
}

func TestExportLayout(t *testing.T) {
	c := bellCircuit(t)
	require.NoError(t, c.SetLayout(ir.Layout{1, 0}))

	text, err := Export(c, true, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, text, "qubit[")
	assert.Contains(t, text, "bit[2] c;\n")
	// Layout{1, 0}: virtual 0 sits on hardware slot 1 and vice versa.
	assert.Contains(t, text, "cx $1, $0;\n")
	assert.Contains(t, text, "c[0] = measure $1;\n")
}

func TestExportErrors(t *testing.T) {
	t.Run("layout flag without layout", func(t *testing.T) {
		_, err := Export(bellCircuit(t), true, DefaultOptions())
		require.Error(t, err)

		var exportErr *ExportError
		require.ErrorAs(t, err, &exportErr)
		assert.Equal(t, -1, exportErr.Instruction)
	})

	t.Run("unknown gate", func(t *testing.T) {
		c := ir.New()
		require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 1}))
		require.NoError(t, c.AppendInstruction(ir.Instruction{
			Name: "mystery", Qubits: []ir.Bit{{Register: "q", Index: 0}},
		}))

		_, err := Export(c, false, DefaultOptions())
		require.Error(t, err)

		var exportErr *ExportError
		require.ErrorAs(t, err, &exportErr)
		assert.Equal(t, 0, exportErr.Instruction)
		assert.Contains(t, exportErr.Message, "no definition")
	})

	t.Run("arity mismatch", func(t *testing.T) {
		c := ir.New()
		require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 2}))
		require.NoError(t, c.AppendInstruction(ir.Instruction{
			Name: "h", Qubits: []ir.Bit{{Register: "q", Index: 0}, {Register: "q", Index: 1}},
		}))

		_, err := Export(c, false, DefaultOptions())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects 1 qubits")
	})

	t.Run("std gate without include", func(t *testing.T) {
		c := ir.New()
		require.NoError(t, c.AddRegister(ir.Register{Name: "q", Kind: ir.Quantum, Size: 1}))
		require.NoError(t, c.AppendInstruction(ir.Instruction{
			Name: "h", Qubits: []ir.Bit{{Register: "q", Index: 0}},
		}))

		opts := DefaultOptions()
		opts.Includes = nil
		_, err := Export(c, false, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no definition")
	})
}

func TestExportIncludeDeduplication(t *testing.T) {
	opts := DefaultOptions()
	opts.Includes = []string{"stdgates.inc", "stdgates.inc", "extra.inc"}
	text, err := Export(bellCircuit(t), false, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count([]byte(text), []byte(`include "stdgates.inc";`)))
	assert.Contains(t, text, `include "extra.inc";`)
}
