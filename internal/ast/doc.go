// Package ast defines the validated OpenQASM 3 abstract syntax tree and
// symbol table consumed by the builder.
//
// This package contains type definitions only. Both frontend (producer) and
// builder (consumer) import ast; ast imports nothing internal. This keeps the
// AST the foundational layer with no circular dependencies.
//
// The front-end contract: a Program handed to the builder is either fully
// valid (names resolve, types check, sizes are known) or was never produced;
// the front-end reports diagnostics instead. The builder may therefore treat
// structural violations as front-end bugs, but still re-checks everything
// that is cheap to re-check (indices, arity) because builders can also be fed
// programmatically constructed trees.
//
// Index semantics: all ranges are half-open. `q[1:3]` selects elements 1 and
// 2, and `for i in [0:3]` iterates i = 0, 1, 2.
package ast
