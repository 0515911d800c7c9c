// Package ir provides the circuit intermediate representation shared by the
// builder (which writes it) and the exporter (which reads it).
//
// The IR is a flat, ordered instruction stream over named registers, not a
// control-flow graph: classical control flow is lowered to per-instruction
// conditions at build time and block structure is not reconstructed on
// export.
//
// Key design constraints:
//   - Instruction order is execution order and the sole ordering guarantee.
//   - Instructions are immutable once appended; a Circuit is write-once from
//     the builder's perspective and read-only for the exporter.
//   - Every operand reference is validated eagerly when the instruction is
//     appended, never deferred.
//   - All iteration orders are insertion orders; nothing in this package
//     depends on map iteration.
package ir
