package gates

// StdGatesInclude is the standard-library include file declaring the gates
// below. A program must include it for these names to resolve.
const StdGatesInclude = "stdgates.inc"

// stdGateArities lists the stdgates.inc gate set as (qubits, params) pairs.
// Declaration order follows the include file itself.
var stdGateArities = []struct {
	name    string
	qubits  int
	params  int
}{
	{"p", 1, 1},
	{"x", 1, 0},
	{"y", 1, 0},
	{"z", 1, 0},
	{"h", 1, 0},
	{"s", 1, 0},
	{"sdg", 1, 0},
	{"t", 1, 0},
	{"tdg", 1, 0},
	{"sx", 1, 0},
	{"rx", 1, 1},
	{"ry", 1, 1},
	{"rz", 1, 1},
	{"cx", 2, 0},
	{"cy", 2, 0},
	{"cz", 2, 0},
	{"cp", 2, 1},
	{"crx", 2, 1},
	{"cry", 2, 1},
	{"crz", 2, 1},
	{"ch", 2, 0},
	{"swap", 2, 0},
	{"ccx", 3, 0},
	{"cswap", 3, 0},
	{"cu", 2, 4},
	{"id", 1, 0},
	{"u1", 1, 1},
	{"u2", 1, 2},
	{"u3", 1, 3},
	// OpenQASM 2 compatibility names from the include file.
	{"CX", 2, 0},
	{"phase", 1, 1},
	{"cphase", 2, 1},
}

func standardTable() map[string]Constructor {
	m := make(map[string]Constructor, len(stdGateArities))
	for _, g := range stdGateArities {
		m[g.name] = Constructor{
			Name:      g.name,
			NumQubits: g.qubits,
			NumParams: g.params,
			Include:   StdGatesInclude,
		}
	}
	return m
}

// StandardNames returns the stdgates.inc gate names in declaration order.
// The exporter uses this to decide which names a declared include covers.
func StandardNames() []string {
	out := make([]string, len(stdGateArities))
	for i, g := range stdGateArities {
		out[i] = g.name
	}
	return out
}
