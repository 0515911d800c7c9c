// Package builder lowers a validated OpenQASM 3 AST into the flat circuit
// IR. Lowering is a single synchronous pass over the statement list: register
// and alias declarations populate the circuit tables, user gate definitions
// are collected and inline-expanded at each call site, for loops over
// constant ranges unroll, and classical guards lower to per-instruction
// conditions.
//
// Build is all-or-nothing: the first error aborts and no partial circuit is
// returned. Errors are *BuildError values carrying a source position.
//
// A while guard lowers exactly like if: one guarded pass with the condition
// attached to each body instruction. That is the only trip count a flat
// instruction stream can express; anything needing runtime iteration is
// rejected.
package builder
