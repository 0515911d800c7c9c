package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qbridge-dev/qbridge/internal/expr"
	"github.com/qbridge-dev/qbridge/internal/gates"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// Export renders c as OpenQASM 3 text. layoutPresent asserts that the
// circuit carries a physical layout: operands are then emitted as hardware
// qubits ($0, $1, ...) and quantum register declarations are omitted.
func Export(c *ir.Circuit, layoutPresent bool, opts Options) (string, error) {
	p, err := newPrinter(c, layoutPresent, opts)
	if err != nil {
		return "", err
	}
	return p.render()
}

// ExportTo renders c into w.
func ExportTo(c *ir.Circuit, layoutPresent bool, opts Options, w io.Writer) error {
	text, err := Export(c, layoutPresent, opts)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

type printer struct {
	circ *ir.Circuit
	opts Options

	std      *gates.Table
	includes map[string]bool
	basis    map[string]bool

	// virtPhys maps flat virtual qubit index to hardware slot; nil when no
	// layout applies. regOffset gives each quantum register's flat base.
	virtPhys  []int
	regOffset map[string]int

	// emitAt lists the definitions to print immediately before the keyed
	// instruction index, dependencies first.
	emitAt  map[int][]ir.GateDefinition
	planned map[string]bool

	sb strings.Builder
}

func newPrinter(c *ir.Circuit, layoutPresent bool, opts Options) (*printer, error) {
	p := &printer{
		circ:     c,
		opts:     opts,
		std:      gates.Standard(),
		includes: make(map[string]bool),
		basis:    make(map[string]bool),
		emitAt:   make(map[int][]ir.GateDefinition),
		planned:  make(map[string]bool),
	}
	for _, inc := range opts.Includes {
		p.includes[inc] = true
	}
	for _, g := range opts.BasisGates {
		p.basis[g] = true
	}

	if layoutPresent {
		if len(c.Layout) == 0 {
			return nil, exportErrorf(-1, "layout requested but the circuit carries none")
		}
		p.regOffset = make(map[string]int)
		offset := 0
		for _, reg := range c.Registers {
			if reg.Kind != ir.Quantum {
				continue
			}
			p.regOffset[reg.Name] = offset
			offset += reg.Size
		}
		p.virtPhys = make([]int, len(c.Layout))
		for phys, virt := range c.Layout {
			p.virtPhys[virt] = phys
		}
	}

	if err := p.plan(); err != nil {
		return nil, err
	}
	return p, nil
}

// plan walks the instruction stream once, validating every gate call against
// its definition or standard constructor and scheduling definitions at their
// first use.
func (p *printer) plan() error {
	for i, inst := range p.circ.Instructions {
		switch inst.Name {
		case ir.OpMeasure, ir.OpReset, ir.OpBarrier:
			continue
		}
		if p.basis[inst.Name] {
			continue
		}
		if ctor, ok := p.std.Resolve(inst.Name); ok && p.includes[ctor.Include] {
			if len(inst.Qubits) != ctor.NumQubits {
				return exportErrorf(i, "gate %q expects %d qubits, instruction has %d",
					inst.Name, ctor.NumQubits, len(inst.Qubits))
			}
			if len(inst.Params) != ctor.NumParams {
				return exportErrorf(i, "gate %q expects %d parameters, instruction has %d",
					inst.Name, ctor.NumParams, len(inst.Params))
			}
			continue
		}
		def, ok := p.circ.FindGate(inst.Name)
		if !ok {
			return exportErrorf(i, "no definition available for gate %q", inst.Name)
		}
		if len(inst.Qubits) != len(def.QubitParams) {
			return exportErrorf(i, "gate %q expects %d qubits, instruction has %d",
				inst.Name, len(def.QubitParams), len(inst.Qubits))
		}
		if len(inst.Params) != len(def.NumericParams) {
			return exportErrorf(i, "gate %q expects %d parameters, instruction has %d",
				inst.Name, len(def.NumericParams), len(inst.Params))
		}
		if err := p.scheduleDefinition(def, i, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// scheduleDefinition queues def for emission before instruction i, after any
// definitions its own body calls. chain guards against definition cycles in
// hand-built circuits.
func (p *printer) scheduleDefinition(def ir.GateDefinition, i int, chain map[string]bool) error {
	if p.planned[def.Name] {
		return nil
	}
	if chain[def.Name] {
		return exportErrorf(i, "gate definitions cycle through %q", def.Name)
	}
	chain[def.Name] = true
	defer delete(chain, def.Name)

	for _, body := range def.Body {
		switch body.Name {
		case ir.OpMeasure, ir.OpReset, ir.OpBarrier:
			continue
		}
		if p.basis[body.Name] {
			continue
		}
		if ctor, ok := p.std.Resolve(body.Name); ok && p.includes[ctor.Include] {
			continue
		}
		dep, ok := p.circ.FindGate(body.Name)
		if !ok {
			return exportErrorf(i, "gate %q body calls undefined gate %q", def.Name, body.Name)
		}
		if err := p.scheduleDefinition(dep, i, chain); err != nil {
			return err
		}
	}
	p.planned[def.Name] = true
	p.emitAt[i] = append(p.emitAt[i], def)
	return nil
}

func (p *printer) render() (string, error) {
	p.sb.WriteString("OPENQASM 3.0;\n")

	seen := make(map[string]bool)
	for _, inc := range p.opts.Includes {
		if seen[inc] {
			continue
		}
		seen[inc] = true
		fmt.Fprintf(&p.sb, "include %q;\n", inc)
	}

	if !p.opts.DisableConstants {
		p.writeConstDecls()
	}

	if err := p.writeDeclarations(); err != nil {
		return "", err
	}

	for i, inst := range p.circ.Instructions {
		for _, def := range p.emitAt[i] {
			p.writeGateDefinition(def)
		}
		if err := p.writeInstruction(i, inst); err != nil {
			return "", err
		}
	}
	return p.sb.String(), nil
}

// writeConstDecls declares each named constant whose symbolic form appears
// in the emitted text, once, in first-use order.
func (p *printer) writeConstDecls() {
	var exprs []expr.Expr
	for i, inst := range p.circ.Instructions {
		for _, def := range p.emitAt[i] {
			for _, body := range def.Body {
				exprs = append(exprs, body.Params...)
			}
		}
		exprs = append(exprs, inst.Params...)
	}
	for _, c := range expr.ConstantsIn(exprs) {
		fmt.Fprintf(&p.sb, "const float %s = %s;\n", string(c), expr.FormatFloat(c.Value(), true))
	}
}

func (p *printer) writeDeclarations() error {
	for _, reg := range p.circ.Registers {
		switch reg.Kind {
		case ir.Quantum:
			if p.virtPhys != nil {
				continue // hardware qubits need no declaration
			}
			fmt.Fprintf(&p.sb, "qubit[%d] %s;\n", reg.Size, reg.Name)
		case ir.Classical:
			fmt.Fprintf(&p.sb, "bit[%d] %s;\n", reg.Size, reg.Name)
		}
	}
	if p.opts.AllowAliasing {
		for _, alias := range p.circ.Aliases {
			targets, err := p.formatAliasTargets(alias.Targets)
			if err != nil {
				return err
			}
			fmt.Fprintf(&p.sb, "let %s = %s;\n", alias.Name, targets)
		}
	}
	return nil
}

// formatAliasTargets renders a flattened target list. Under a layout each
// target names its hardware slot; otherwise consecutive same-register runs
// collapse into half-open slices.
func (p *printer) formatAliasTargets(targets []ir.Bit) (string, error) {
	if p.virtPhys != nil {
		parts := make([]string, len(targets))
		for i, target := range targets {
			name, err := p.hardwareName(target, -1)
			if err != nil {
				return "", err
			}
			parts[i] = name
		}
		return strings.Join(parts, " ++ "), nil
	}
	var parts []string
	for i := 0; i < len(targets); {
		j := i + 1
		for j < len(targets) &&
			targets[j].Register == targets[i].Register &&
			targets[j].Index == targets[j-1].Index+1 {
			j++
		}
		if j-i == 1 {
			parts = append(parts, targets[i].String())
		} else {
			parts = append(parts, fmt.Sprintf("%s[%d:%d]",
				targets[i].Register, targets[i].Index, targets[j-1].Index+1))
		}
		i = j
	}
	return strings.Join(parts, " ++ "), nil
}

func (p *printer) writeGateDefinition(def ir.GateDefinition) {
	p.sb.WriteString("gate ")
	p.sb.WriteString(def.Name)
	if len(def.NumericParams) > 0 {
		p.sb.WriteString("(")
		p.sb.WriteString(strings.Join(def.NumericParams, ", "))
		p.sb.WriteString(")")
	}
	p.sb.WriteString(" ")
	p.sb.WriteString(strings.Join(def.QubitParams, ", "))
	p.sb.WriteString(" {\n")
	for _, body := range def.Body {
		p.sb.WriteString(p.opts.Indent)
		p.sb.WriteString(body.Name)
		p.writeParams(body.Params)
		p.sb.WriteString(" ")
		names := make([]string, len(body.Qubits))
		for i, q := range body.Qubits {
			names[i] = q.String()
		}
		p.sb.WriteString(strings.Join(names, ", "))
		p.sb.WriteString(";\n")
	}
	p.sb.WriteString("}\n")
}

func (p *printer) writeInstruction(i int, inst ir.Instruction) error {
	if inst.Condition != nil {
		fmt.Fprintf(&p.sb, "if (%s == %d) ", inst.Condition.Register, inst.Condition.Value)
	}

	switch inst.Name {
	case ir.OpMeasure:
		if len(inst.Qubits) != 1 || len(inst.Clbits) != 1 {
			return exportErrorf(i, "measure requires one qubit and one clbit, got %d and %d",
				len(inst.Qubits), len(inst.Clbits))
		}
		target, err := p.clbitName(inst.Clbits[0], i)
		if err != nil {
			return err
		}
		source, err := p.qubitName(inst.Qubits[0], i)
		if err != nil {
			return err
		}
		fmt.Fprintf(&p.sb, "%s = measure %s;\n", target, source)
		return nil
	case ir.OpReset:
		if len(inst.Qubits) != 1 {
			return exportErrorf(i, "reset requires one qubit, got %d", len(inst.Qubits))
		}
		name, err := p.qubitName(inst.Qubits[0], i)
		if err != nil {
			return err
		}
		fmt.Fprintf(&p.sb, "reset %s;\n", name)
		return nil
	case ir.OpBarrier:
		names, err := p.qubitNames(inst.Qubits, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(&p.sb, "barrier %s;\n", strings.Join(names, ", "))
		return nil
	}

	p.sb.WriteString(inst.Name)
	p.writeParams(inst.Params)
	names, err := p.qubitNames(inst.Qubits, i)
	if err != nil {
		return err
	}
	p.sb.WriteString(" ")
	p.sb.WriteString(strings.Join(names, ", "))
	p.sb.WriteString(";\n")
	return nil
}

func (p *printer) writeParams(params []expr.Expr) {
	if len(params) == 0 {
		return
	}
	rendered := make([]string, len(params))
	for i, param := range params {
		rendered[i] = expr.Format(param, p.opts.DisableConstants)
	}
	p.sb.WriteString("(")
	p.sb.WriteString(strings.Join(rendered, ", "))
	p.sb.WriteString(")")
}

func (p *printer) qubitNames(bits []ir.Bit, i int) ([]string, error) {
	names := make([]string, len(bits))
	for j, b := range bits {
		name, err := p.qubitName(b, i)
		if err != nil {
			return nil, err
		}
		names[j] = name
	}
	return names, nil
}

// qubitName renders one quantum operand. Alias-named bits keep the alias
// name whenever aliasing is allowed; everything else is a hardware slot
// under a layout and the physical element otherwise.
func (p *printer) qubitName(b ir.Bit, i int) (string, error) {
	if _, ok := p.circ.FindAlias(b.Register); ok {
		if p.opts.AllowAliasing {
			return b.String(), nil
		}
		if p.virtPhys != nil {
			return p.hardwareName(b, i)
		}
		phys, err := p.circ.Resolve(b)
		if err != nil {
			return "", exportErrorf(i, "%v", err)
		}
		return phys.String(), nil
	}
	if p.virtPhys != nil {
		return p.hardwareName(b, i)
	}
	if _, ok := p.circ.FindRegister(b.Register); !ok {
		return "", exportErrorf(i, "unknown register or alias %q", b.Register)
	}
	return b.String(), nil
}

// hardwareName maps a bit to its layout slot: resolve to the physical
// element, flatten to the virtual index, and look up the hardware qubit.
func (p *printer) hardwareName(b ir.Bit, i int) (string, error) {
	phys, err := p.circ.Resolve(b)
	if err != nil {
		return "", exportErrorf(i, "%v", err)
	}
	offset, ok := p.regOffset[phys.Register]
	if !ok {
		return "", exportErrorf(i, "register %q is not quantum", phys.Register)
	}
	virt := offset + phys.Index
	if virt >= len(p.virtPhys) {
		return "", exportErrorf(i, "qubit %s is outside the layout", b)
	}
	return "$" + strconv.Itoa(p.virtPhys[virt]), nil
}

// clbitName renders a classical operand. Aliases resolve to their physical
// element: classical aliasing has no surface syntax.
func (p *printer) clbitName(b ir.Bit, i int) (string, error) {
	phys, err := p.circ.Resolve(b)
	if err != nil {
		return "", exportErrorf(i, "%v", err)
	}
	return phys.String(), nil
}
