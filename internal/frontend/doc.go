// Package frontend lexes and parses OpenQASM 3 source into the validated
// AST the builder consumes.
//
// The supported subset matches what the builder can lower: register and
// alias declarations, user gate definitions, gate calls, measure, reset,
// barrier, classically-guarded if/while blocks, and for loops over constant
// ranges. Everything else is reported as a diagnostic.
//
// The front-end contract is all-or-nothing: Parse returns either a fully
// valid Program + SymbolTable, or a non-empty DiagnosticList and no program.
// Diagnostics carry source positions and are a distinct failure category
// from builder and exporter errors.
package frontend
