package builder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qbridge-dev/qbridge/internal/expr"
	"github.com/qbridge-dev/qbridge/internal/frontend"
	"github.com/qbridge-dev/qbridge/internal/gates"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

func buildSource(t *testing.T, src string, factory gates.Factory) (*ir.Circuit, error) {
	t.Helper()
	prog, symtab, err := frontend.Parse(src, "test.qasm")
	require.NoError(t, err)
	return Build(prog, symtab, factory)
}

func mustBuild(t *testing.T, src string) *ir.Circuit {
	t.Helper()
	circ, err := buildSource(t, src, gates.Standard())
	require.NoError(t, err)
	return circ
}

func TestBuildRegisters(t *testing.T) {
	circ := mustBuild(t, `
		qubit[3] q;
		bit[2] c;
	`)

	require.Len(t, circ.Registers, 2)
	assert.Equal(t, ir.Register{Name: "q", Kind: ir.Quantum, Size: 3}, circ.Registers[0])
	assert.Equal(t, ir.Register{Name: "c", Kind: ir.Classical, Size: 2}, circ.Registers[1])
	assert.Empty(t, circ.Instructions)
}

func TestBuildSimpleGates(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		h q[0];
		cx q[0], q[1];
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, "h", circ.Instructions[0].Name)
	assert.Equal(t, []ir.Bit{{Register: "q", Index: 0}}, circ.Instructions[0].Qubits)
	assert.Equal(t, "cx", circ.Instructions[1].Name)
	assert.Equal(t, []ir.Bit{{Register: "q", Index: 0}, {Register: "q", Index: 1}}, circ.Instructions[1].Qubits)
}

func TestBuildFoldsParameters(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] q;
		rz(pi/2) q[0];
		rz(2*pi) q[0];
		rz(1.5) q[0];
	`)

	require.Len(t, circ.Instructions, 3)
	assert.Equal(t, expr.Literal(math.Pi/2), circ.Instructions[0].Params[0])
	assert.Equal(t, expr.Literal(2*math.Pi), circ.Instructions[1].Params[0])
	assert.Equal(t, expr.Literal(1.5), circ.Instructions[2].Params[0])
}

func TestBuildConstDecl(t *testing.T) {
	circ := mustBuild(t, `
		const float angle = 0.25;
		qubit[1] q;
		rz(angle*2) q[0];
	`)

	require.Len(t, circ.Instructions, 1)
	assert.Equal(t, expr.Literal(0.5), circ.Instructions[0].Params[0])
}

func TestBuildAliasResolution(t *testing.T) {
	circ := mustBuild(t, `
		qubit[5] q;
		let a = q[1:3];
		x a[0];
		x a[1];
	`)

	alias, ok := circ.FindAlias("a")
	require.True(t, ok)
	assert.Equal(t, []ir.Bit{{Register: "q", Index: 1}, {Register: "q", Index: 2}}, alias.Targets)

	// Operands keep the alias name; Resolve maps them to physical slots.
	phys, err := circ.Resolve(circ.Instructions[0].Qubits[0])
	require.NoError(t, err)
	assert.Equal(t, ir.Bit{Register: "q", Index: 1}, phys)

	phys, err = circ.Resolve(circ.Instructions[1].Qubits[0])
	require.NoError(t, err)
	assert.Equal(t, ir.Bit{Register: "q", Index: 2}, phys)
}

func TestBuildAliasConcatAndChain(t *testing.T) {
	circ := mustBuild(t, `
		qubit[3] q;
		qubit[2] r;
		let a = q[0] ++ r;
		let b = a[1:3];
	`)

	a, ok := circ.FindAlias("a")
	require.True(t, ok)
	assert.Equal(t, []ir.Bit{
		{Register: "q", Index: 0},
		{Register: "r", Index: 0},
		{Register: "r", Index: 1},
	}, a.Targets)

	// Alias-of-alias flattens to physical targets at declaration.
	bAlias, ok := circ.FindAlias("b")
	require.True(t, ok)
	assert.Equal(t, []ir.Bit{
		{Register: "r", Index: 0},
		{Register: "r", Index: 1},
	}, bAlias.Targets)
}

func TestBuildUserGateExpansion(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		gate entangle a, b {
			h a;
			cx a, b;
		}
		entangle q[0], q[1];
		entangle q[0], q[1];
		entangle q[0], q[1];
	`)

	// Three calls expand independently to identical instruction runs.
	require.Len(t, circ.Instructions, 6)
	for i := 0; i < 3; i++ {
		h := circ.Instructions[2*i]
		cx := circ.Instructions[2*i+1]
		assert.Equal(t, "h", h.Name)
		assert.Equal(t, []ir.Bit{{Register: "q", Index: 0}}, h.Qubits)
		assert.Equal(t, "cx", cx.Name)
		assert.Equal(t, []ir.Bit{{Register: "q", Index: 0}, {Register: "q", Index: 1}}, cx.Qubits)
	}
	// Inlining leaves no gate definitions behind.
	assert.Empty(t, circ.Gates)
}

func TestBuildUserGateParameterBinding(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] q;
		gate twist(theta) a {
			rz(theta/2) a;
			rz(-theta/2) a;
		}
		twist(pi) q[0];
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, expr.Literal(math.Pi/2), circ.Instructions[0].Params[0])
	assert.Equal(t, expr.Literal(-(math.Pi / 2)), circ.Instructions[1].Params[0])
}

func TestBuildNestedUserGates(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		gate inner a { h a; }
		gate outer a, b {
			inner a;
			cx a, b;
		}
		outer q[0], q[1];
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, "h", circ.Instructions[0].Name)
	assert.Equal(t, "cx", circ.Instructions[1].Name)
}

func TestBuildRecursiveGateRejected(t *testing.T) {
	_, err := buildSource(t, `
		qubit[1] q;
		gate loop a { loop a; }
		loop q[0];
	`, gates.Standard())
	require.Error(t, err)

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Contains(t, buildErr.Message, "recursively")
}

func TestBuildForUnrolling(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] q;
		for i in [0:3] {
			rz(i*pi/4) q[0];
		}
	`)

	require.Len(t, circ.Instructions, 3)
	for i, inst := range circ.Instructions {
		assert.Equal(t, "rz", inst.Name)
		v, err := expr.Fold(inst.Params[0])
		require.NoError(t, err)
		assert.Equal(t, float64(i)*math.Pi/4, v)
	}
}

func TestBuildForNonConstantBoundRejected(t *testing.T) {
	_, err := buildSource(t, `
		qubit[1] q;
		for i in [0:n] { x q[0]; }
	`, gates.Standard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"n" is not bound`)
}

func TestBuildConditionLowering(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		bit[2] c;
		if (c == 3) {
			x q[0];
			x q[1];
		}
	`)

	require.Len(t, circ.Instructions, 2)
	for _, inst := range circ.Instructions {
		require.NotNil(t, inst.Condition)
		assert.Equal(t, ir.Condition{Register: "c", Value: 3}, *inst.Condition)
	}
}

func TestBuildWhileLowersLikeIf(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] q;
		bit[1] c;
		while (c == 0) {
			x q[0];
			c = measure q;
		}
	`)

	require.Len(t, circ.Instructions, 2)
	require.NotNil(t, circ.Instructions[0].Condition)
	assert.Equal(t, ir.Condition{Register: "c", Value: 0}, *circ.Instructions[0].Condition)
	assert.Equal(t, ir.OpMeasure, circ.Instructions[1].Name)
	require.NotNil(t, circ.Instructions[1].Condition)
}

func TestBuildNestedGuardsRejected(t *testing.T) {
	_, err := buildSource(t, `
		qubit[1] q;
		bit[1] c;
		if (c == 1) {
			if (c == 0) { x q[0]; }
		}
	`, gates.Standard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested classical guards")
}

func TestBuildMeasureForms(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		bit[2] c;
		measure q[0] -> c[0];
		c = measure q;
	`)

	require.Len(t, circ.Instructions, 3)
	assert.Equal(t, ir.OpMeasure, circ.Instructions[0].Name)

	// Whole-register measure broadcasts pairwise.
	assert.Equal(t, []ir.Bit{{Register: "q", Index: 0}}, circ.Instructions[1].Qubits)
	assert.Equal(t, []ir.Bit{{Register: "c", Index: 0}}, circ.Instructions[1].Clbits)
	assert.Equal(t, []ir.Bit{{Register: "q", Index: 1}}, circ.Instructions[2].Qubits)
	assert.Equal(t, []ir.Bit{{Register: "c", Index: 1}}, circ.Instructions[2].Clbits)
}

func TestBuildBroadcastSingleQubitGate(t *testing.T) {
	circ := mustBuild(t, `
		qubit[3] q;
		h q;
	`)

	require.Len(t, circ.Instructions, 3)
	for i, inst := range circ.Instructions {
		assert.Equal(t, "h", inst.Name)
		assert.Equal(t, []ir.Bit{{Register: "q", Index: i}}, inst.Qubits)
	}
}

func TestBuildBroadcastMixedOperands(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] a;
		qubit[2] b;
		cx a[0], b;
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, []ir.Bit{{Register: "a", Index: 0}, {Register: "b", Index: 0}}, circ.Instructions[0].Qubits)
	assert.Equal(t, []ir.Bit{{Register: "a", Index: 0}, {Register: "b", Index: 1}}, circ.Instructions[1].Qubits)
}

func TestBuildBroadcastWidthMismatch(t *testing.T) {
	_, err := buildSource(t, `
		qubit[2] a;
		qubit[3] b;
		cx a, b;
	`, gates.Standard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot broadcast")
}

func TestBuildBarrierForms(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		qubit[1] r;
		barrier q[0];
		barrier;
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Len(t, circ.Instructions[0].Qubits, 1)
	// Bare barrier spans every declared qubit.
	assert.Equal(t, []ir.Bit{
		{Register: "q", Index: 0},
		{Register: "q", Index: 1},
		{Register: "r", Index: 0},
	}, circ.Instructions[1].Qubits)
}

func TestBuildResetExpandsRegister(t *testing.T) {
	circ := mustBuild(t, `
		qubit[2] q;
		reset q;
	`)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, ir.OpReset, circ.Instructions[0].Name)
	assert.Equal(t, ir.OpReset, circ.Instructions[1].Name)
}

func TestBuildCustomConstructor(t *testing.T) {
	factory := gates.NewTable([]gates.Constructor{
		{Name: "iswap", NumQubits: 2},
		{Name: "rzz", NumQubits: 2, NumParams: 1},
	})
	circ, err := buildSource(t, `
		qubit[2] q;
		iswap q[0], q[1];
		rzz(pi/4) q[0], q[1];
	`, factory)
	require.NoError(t, err)

	require.Len(t, circ.Instructions, 2)
	assert.Equal(t, "iswap", circ.Instructions[0].Name)
	assert.Equal(t, "rzz", circ.Instructions[1].Name)
	assert.Equal(t, expr.Literal(math.Pi/4), circ.Instructions[1].Params[0])
}

func TestBuildUserGateShadowsFactory(t *testing.T) {
	circ := mustBuild(t, `
		qubit[1] q;
		gate h a { x a; }
		h q[0];
	`)

	require.Len(t, circ.Instructions, 1)
	assert.Equal(t, "x", circ.Instructions[0].Name)
}

func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"undefined gate", "qubit[1] q; zzz q[0];", "not defined"},
		{"arity mismatch", "qubit[2] q; cx q[0];", "expects 2 qubit operands"},
		{"param count", "qubit[1] q; rz q[0];", "expects 1 parameters"},
		{"unknown operand", "qubit[1] q; x r[0];", "unknown register"},
		{"index out of range", "qubit[1] q; x q[5];", "out of range"},
		{"alias out of range", "qubit[2] q; let a = q[0:5];", "out of range"},
		{"measure to quantum", "qubit[2] q; measure q[0] -> q[1];", "not a classical register"},
		{"guard on quantum", "qubit[1] q; if (q == 1) { x q[0]; }", "not classical"},
		{"non-integer bound", "qubit[1] q; for i in [0:pi] { x q[0]; }", "expected an integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			circ, err := buildSource(t, tt.src, gates.Standard())
			require.Error(t, err)
			assert.Nil(t, circ)
			assert.Contains(t, err.Error(), tt.want)

			var buildErr *BuildError
			require.ErrorAs(t, err, &buildErr)
			assert.True(t, buildErr.Position.IsValid())
		})
	}
}
