package ir

import (
	"bytes"
	"encoding/json"
	"strconv"

	"golang.org/x/text/unicode/norm"

	"github.com/qbridge-dev/qbridge/internal/expr"
)

// MarshalCanonical produces the canonical serialized form of a circuit used
// for content-addressed identity. Two circuits with equal registers, aliases,
// instructions (up to parameter value), and layout produce identical bytes.
//
// Properties:
//   - Field order is fixed by construction; no map iteration anywhere.
//   - Strings are NFC normalized and encoded without HTML escaping.
//   - Parameters are folded and rendered with shortest round-trip formatting,
//     so structurally different but numerically equal expressions
//     canonicalize identically. Symbolic parameters use their textual form.
func MarshalCanonical(c *Circuit) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"registers":[`)
	for i, r := range c.Registers {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"name":`)
		writeCanonicalString(&buf, r.Name)
		buf.WriteString(`,"kind":`)
		writeCanonicalString(&buf, string(r.Kind))
		buf.WriteString(`,"size":`)
		buf.WriteString(strconv.Itoa(r.Size))
		buf.WriteByte('}')
	}
	buf.WriteString(`],"aliases":[`)
	for i, a := range c.Aliases {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"name":`)
		writeCanonicalString(&buf, a.Name)
		buf.WriteString(`,"targets":[`)
		for j, t := range a.Targets {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeCanonicalBit(&buf, t)
		}
		buf.WriteString(`]}`)
	}
	buf.WriteString(`],"instructions":[`)
	for i := range c.Instructions {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalInstruction(&buf, &c.Instructions[i])
	}
	buf.WriteString(`],"layout":[`)
	for i, v := range c.Layout {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(v))
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

func writeCanonicalInstruction(buf *bytes.Buffer, inst *Instruction) {
	buf.WriteString(`{"name":`)
	writeCanonicalString(buf, inst.Name)
	buf.WriteString(`,"qubits":[`)
	for i, q := range inst.Qubits {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalBit(buf, q)
	}
	buf.WriteString(`],"clbits":[`)
	for i, b := range inst.Clbits {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalBit(buf, b)
	}
	buf.WriteString(`],"params":[`)
	for i, p := range inst.Params {
		if i > 0 {
			buf.WriteByte(',')
		}
		// Folded where possible so equal values canonicalize equally.
		writeCanonicalString(buf, expr.Format(p, true))
	}
	buf.WriteByte(']')
	if inst.Condition != nil {
		buf.WriteString(`,"condition":{"register":`)
		writeCanonicalString(buf, inst.Condition.Register)
		buf.WriteString(`,"value":`)
		buf.WriteString(strconv.FormatInt(inst.Condition.Value, 10))
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
}

func writeCanonicalBit(buf *bytes.Buffer, b Bit) {
	buf.WriteString(`{"register":`)
	writeCanonicalString(buf, b.Register)
	buf.WriteString(`,"index":`)
	buf.WriteString(strconv.Itoa(b.Index))
	buf.WriteByte('}')
}

// writeCanonicalString encodes s as a JSON string, NFC normalized and
// without HTML escaping. OpenQASM identifiers are ASCII, but register names
// supplied programmatically may not be; normalizing here keeps fingerprints
// stable across Unicode representations of the same name.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	// Encode cannot fail for a string; ignore the error.
	_ = enc.Encode(normalized)

	out := tmp.Bytes()
	if n := len(out); n > 0 && out[n-1] == '\n' {
		out = out[:n-1]
	}
	buf.Write(out)
}
