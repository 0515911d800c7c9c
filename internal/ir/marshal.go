package ir

import (
	"encoding/json"
	"fmt"

	"github.com/qbridge-dev/qbridge/internal/expr"
)

// Serialized circuit shape. Parameter expressions travel as their canonical
// textual form (see expr.Parse); everything else is plain data.
type circuitJSON struct {
	Registers    []Register        `json:"registers"`
	Aliases      []Alias           `json:"aliases,omitempty"`
	Instructions []instructionJSON `json:"instructions"`
	Gates        []gateJSON        `json:"gates,omitempty"`
	Layout       Layout            `json:"layout,omitempty"`
}

type instructionJSON struct {
	Name      string     `json:"name"`
	Qubits    []Bit      `json:"qubits"`
	Clbits    []Bit      `json:"clbits,omitempty"`
	Params    []string   `json:"params,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
}

type gateJSON struct {
	Name          string            `json:"name"`
	QubitParams   []string          `json:"qubit_params"`
	NumericParams []string          `json:"numeric_params,omitempty"`
	Body          []instructionJSON `json:"body"`
}

// MarshalJSON serializes the circuit with deterministic field order.
func (c *Circuit) MarshalJSON() ([]byte, error) {
	out := circuitJSON{
		Registers: c.Registers,
		Aliases:   c.Aliases,
		Layout:    c.Layout,
	}
	for i := range c.Instructions {
		out.Instructions = append(out.Instructions, instructionToJSON(&c.Instructions[i]))
	}
	for _, g := range c.Gates {
		gj := gateJSON{Name: g.Name, QubitParams: g.QubitParams, NumericParams: g.NumericParams}
		for i := range g.Body {
			gj.Body = append(gj.Body, instructionToJSON(&g.Body[i]))
		}
		out.Gates = append(out.Gates, gj)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a circuit, re-running the eager operand validation
// that AppendInstruction performs during a build.
func (c *Circuit) UnmarshalJSON(data []byte) error {
	var in circuitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	rebuilt := New()
	for _, r := range in.Registers {
		if err := rebuilt.AddRegister(r); err != nil {
			return fmt.Errorf("circuit json: %w", err)
		}
	}
	for _, a := range in.Aliases {
		if err := rebuilt.AddAlias(a); err != nil {
			return fmt.Errorf("circuit json: %w", err)
		}
	}
	for _, g := range in.Gates {
		def := GateDefinition{Name: g.Name, QubitParams: g.QubitParams, NumericParams: g.NumericParams}
		for i, ij := range g.Body {
			inst, err := instructionFromJSON(ij)
			if err != nil {
				return fmt.Errorf("circuit json: gate %q body %d: %w", g.Name, i, err)
			}
			def.Body = append(def.Body, inst)
		}
		rebuilt.AddGate(def)
	}
	for i, ij := range in.Instructions {
		inst, err := instructionFromJSON(ij)
		if err != nil {
			return fmt.Errorf("circuit json: instruction %d: %w", i, err)
		}
		if err := rebuilt.AppendInstruction(inst); err != nil {
			return fmt.Errorf("circuit json: instruction %d: %w", i, err)
		}
	}
	if in.Layout != nil {
		if err := rebuilt.SetLayout(in.Layout); err != nil {
			return fmt.Errorf("circuit json: %w", err)
		}
	}

	*c = *rebuilt
	return nil
}

func instructionToJSON(inst *Instruction) instructionJSON {
	out := instructionJSON{
		Name:      inst.Name,
		Qubits:    inst.Qubits,
		Clbits:    inst.Clbits,
		Condition: inst.Condition,
	}
	for _, p := range inst.Params {
		out.Params = append(out.Params, p.String())
	}
	return out
}

func instructionFromJSON(ij instructionJSON) (Instruction, error) {
	inst := Instruction{
		Name:      ij.Name,
		Qubits:    ij.Qubits,
		Clbits:    ij.Clbits,
		Condition: ij.Condition,
	}
	for _, s := range ij.Params {
		e, err := expr.Parse(s)
		if err != nil {
			return Instruction{}, fmt.Errorf("parameter %q: %w", s, err)
		}
		inst.Params = append(inst.Params, e)
	}
	return inst, nil
}
