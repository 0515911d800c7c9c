package ir

import (
	"fmt"

	"github.com/qbridge-dev/qbridge/internal/expr"
)

// RegKind distinguishes quantum from classical registers.
type RegKind string

const (
	Quantum   RegKind = "quantum"
	Classical RegKind = "classical"
)

// Register is a named, fixed-size sequence of qubit or classical-bit slots.
type Register struct {
	Name string  `json:"name"`
	Kind RegKind `json:"kind"`
	Size int     `json:"size"`
}

// Bit references one element of a register or alias by name and index.
//
// Index -1 is the bare-name convention used only inside gate-definition
// bodies, where Register holds a formal qubit parameter name instead of a
// declared register.
type Bit struct {
	Register string `json:"register"`
	Index    int    `json:"index"`
}

func (b Bit) String() string {
	if b.Index < 0 {
		return b.Register
	}
	return fmt.Sprintf("%s[%d]", b.Register, b.Index)
}

// Alias is a named non-owning view over register elements. Targets are
// always physical (register, index) pairs: alias chains are flattened when
// the alias is declared, so a stored alias can never cycle.
type Alias struct {
	Name    string `json:"name"`
	Targets []Bit  `json:"targets"`
}

// Condition is a classical equality guard: the instruction executes only
// when the named classical register holds Value.
type Condition struct {
	Register string `json:"register"`
	Value    int64  `json:"value"`
}

// Instruction is one operation in the stream: a gate application,
// measurement, reset, or barrier, optionally guarded by a Condition.
// Instructions are immutable once appended.
type Instruction struct {
	Name      string      `json:"name"`
	Qubits    []Bit       `json:"qubits"`
	Clbits    []Bit       `json:"clbits,omitempty"`
	Params    []expr.Expr `json:"-"`
	Condition *Condition  `json:"condition,omitempty"`
}

// Reserved instruction names for non-gate operations.
const (
	OpMeasure = "measure"
	OpReset   = "reset"
	OpBarrier = "barrier"
)

// GateDefinition describes a gate in terms of formal parameters. It is used
// by the exporter to emit `gate` blocks on demand and is never itself part
// of the instruction stream. Body instructions reference QubitParams by the
// bare-name Bit convention and NumericParams via expr.Param.
type GateDefinition struct {
	Name          string
	QubitParams   []string
	NumericParams []string
	Body          []Instruction
}

// Layout is an optional physical-to-virtual qubit permutation carried by a
// circuit. Layout[i] is the virtual qubit occupying physical slot i.
type Layout []int

// Circuit is the flat IR: registers in insertion order, aliases in
// declaration order, instructions in execution order, plus the gate
// definitions the exporter may need to emit.
type Circuit struct {
	Registers    []Register
	Aliases      []Alias
	Instructions []Instruction
	Gates        []GateDefinition
	Layout       Layout

	regIndex   map[string]int
	aliasIndex map[string]int
	gateIndex  map[string]int
}

// New creates an empty circuit.
func New() *Circuit {
	return &Circuit{
		regIndex:   make(map[string]int),
		aliasIndex: make(map[string]int),
		gateIndex:  make(map[string]int),
	}
}

// FindRegister returns the register with the given name.
func (c *Circuit) FindRegister(name string) (Register, bool) {
	i, ok := c.regIndex[name]
	if !ok {
		return Register{}, false
	}
	return c.Registers[i], true
}

// FindAlias returns the alias with the given name.
func (c *Circuit) FindAlias(name string) (Alias, bool) {
	i, ok := c.aliasIndex[name]
	if !ok {
		return Alias{}, false
	}
	return c.Aliases[i], true
}

// FindGate returns the gate definition with the given name.
func (c *Circuit) FindGate(name string) (GateDefinition, bool) {
	i, ok := c.gateIndex[name]
	if !ok {
		return GateDefinition{}, false
	}
	return c.Gates[i], true
}

// AddRegister appends a register. Names are shared between registers and
// aliases; duplicates are rejected.
func (c *Circuit) AddRegister(r Register) error {
	if r.Size <= 0 {
		return fmt.Errorf("register %q: size must be positive, got %d", r.Name, r.Size)
	}
	if r.Kind != Quantum && r.Kind != Classical {
		return fmt.Errorf("register %q: invalid kind %q", r.Name, r.Kind)
	}
	if err := c.checkFreshName(r.Name); err != nil {
		return err
	}
	c.regIndex[r.Name] = len(c.Registers)
	c.Registers = append(c.Registers, r)
	return nil
}

// AddAlias appends an alias. Every target must already resolve to a physical
// register element: callers flatten alias-of-alias chains before adding.
func (c *Circuit) AddAlias(a Alias) error {
	if len(a.Targets) == 0 {
		return fmt.Errorf("alias %q: empty target list", a.Name)
	}
	if err := c.checkFreshName(a.Name); err != nil {
		return err
	}
	for i, t := range a.Targets {
		reg, ok := c.FindRegister(t.Register)
		if !ok {
			return fmt.Errorf("alias %q target %d: unknown register %q", a.Name, i, t.Register)
		}
		if t.Index < 0 || t.Index >= reg.Size {
			return fmt.Errorf("alias %q target %d: index %d out of range for %s[%d]",
				a.Name, i, t.Index, reg.Name, reg.Size)
		}
	}
	c.aliasIndex[a.Name] = len(c.Aliases)
	c.Aliases = append(c.Aliases, a)
	return nil
}

// AddGate registers a gate definition for export-time emission. Re-adding a
// name is a no-op: the first definition wins, matching the memoization rule.
func (c *Circuit) AddGate(g GateDefinition) {
	if _, ok := c.gateIndex[g.Name]; ok {
		return
	}
	c.gateIndex[g.Name] = len(c.Gates)
	c.Gates = append(c.Gates, g)
}

// Resolve maps a bit reference to its physical register element, walking the
// alias table when the name is an alias. Stored alias targets are already
// physical, so one hop suffices.
func (c *Circuit) Resolve(b Bit) (Bit, error) {
	if a, ok := c.FindAlias(b.Register); ok {
		if b.Index < 0 || b.Index >= len(a.Targets) {
			return Bit{}, fmt.Errorf("alias %q: index %d out of range for %d targets",
				b.Register, b.Index, len(a.Targets))
		}
		return a.Targets[b.Index], nil
	}
	reg, ok := c.FindRegister(b.Register)
	if !ok {
		return Bit{}, fmt.Errorf("unknown register or alias %q", b.Register)
	}
	if b.Index < 0 || b.Index >= reg.Size {
		return Bit{}, fmt.Errorf("register %q: index %d out of range for size %d",
			b.Register, b.Index, reg.Size)
	}
	return b, nil
}

// AppendInstruction validates every operand reference and appends the
// instruction. Validation is eager per the IR invariant: a malformed operand
// is reported here, not at export time.
func (c *Circuit) AppendInstruction(inst Instruction) error {
	if inst.Name == "" {
		return fmt.Errorf("instruction has empty name")
	}
	for i, q := range inst.Qubits {
		phys, err := c.Resolve(q)
		if err != nil {
			return fmt.Errorf("instruction %q qubit %d: %w", inst.Name, i, err)
		}
		if reg, _ := c.FindRegister(phys.Register); reg.Kind != Quantum {
			return fmt.Errorf("instruction %q qubit %d: %s is not a quantum register",
				inst.Name, i, phys.Register)
		}
	}
	for i, b := range inst.Clbits {
		phys, err := c.Resolve(b)
		if err != nil {
			return fmt.Errorf("instruction %q clbit %d: %w", inst.Name, i, err)
		}
		if reg, _ := c.FindRegister(phys.Register); reg.Kind != Classical {
			return fmt.Errorf("instruction %q clbit %d: %s is not a classical register",
				inst.Name, i, phys.Register)
		}
	}
	if cond := inst.Condition; cond != nil {
		reg, ok := c.FindRegister(cond.Register)
		if !ok {
			return fmt.Errorf("instruction %q condition: unknown register %q", inst.Name, cond.Register)
		}
		if reg.Kind != Classical {
			return fmt.Errorf("instruction %q condition: %s is not a classical register", inst.Name, reg.Name)
		}
	}
	c.Instructions = append(c.Instructions, inst)
	return nil
}

// SetLayout attaches a physical-to-virtual permutation. It must cover every
// quantum slot exactly once.
func (c *Circuit) SetLayout(l Layout) error {
	n := 0
	for _, r := range c.Registers {
		if r.Kind == Quantum {
			n += r.Size
		}
	}
	if len(l) != n {
		return fmt.Errorf("layout covers %d slots, circuit has %d qubits", len(l), n)
	}
	seen := make([]bool, n)
	for i, v := range l {
		if v < 0 || v >= n {
			return fmt.Errorf("layout[%d] = %d out of range", i, v)
		}
		if seen[v] {
			return fmt.Errorf("layout maps virtual qubit %d twice", v)
		}
		seen[v] = true
	}
	c.Layout = l
	return nil
}

func (c *Circuit) checkFreshName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if _, ok := c.regIndex[name]; ok {
		return fmt.Errorf("name %q already declares a register", name)
	}
	if _, ok := c.aliasIndex[name]; ok {
		return fmt.Errorf("name %q already declares an alias", name)
	}
	return nil
}
