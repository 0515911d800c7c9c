// Package exporter serializes a circuit back to OpenQASM 3 text.
//
// Output is deterministic: registers and aliases print in insertion order,
// gate definitions are memoized by name and emitted exactly once immediately
// before their first use, and all memo tables are per-call. Exporting the
// same circuit with the same options twice yields byte-identical text.
//
// A definition is suppressed when the gate is listed in Options.BasisGates
// or is covered by one of the declared include files; such gates are emitted
// as opaque calls.
package exporter
