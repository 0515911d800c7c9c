package ast

import "fmt"

// Position locates a node in the original source text.
// The zero value is "no position available".
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based
}

// IsValid reports whether the position carries real source coordinates.
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	if !p.IsValid() {
		return "<unknown>"
	}
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Position
}

// Program is the root of a validated OpenQASM 3 tree.
type Program struct {
	Version    string // e.g. "3.0"; empty if the source omitted the header
	Includes   []Include
	Statements []Stmt
}

// Include records one `include "file";` statement.
type Include struct {
	Path     string
	Position Position
}

func (i Include) Pos() Position { return i.Position }

// Stmt is the sealed statement interface. Only the statement types in this
// package implement it.
type Stmt interface {
	Node
	stmtNode()
}

// QuantumDecl declares a quantum register: `qubit[n] name;`.
type QuantumDecl struct {
	Name     string
	Size     int
	Position Position
}

// ClassicalDecl declares a classical register: `bit[n] name;`.
type ClassicalDecl struct {
	Name     string
	Size     int
	Position Position
}

// ConstDecl declares a named compile-time constant:
// `const float name = <expression>;`.
type ConstDecl struct {
	Name     string
	Value    Expr
	Position Position
}

// AliasDecl declares an alias: `let name = <alias expression>;`.
type AliasDecl struct {
	Name     string
	Value    AliasExpr
	Position Position
}

// GateDecl declares a user gate: `gate name(params) qubits { body }`.
// Body statements reference the formal names; they are expanded per call
// site by the builder and never executed in place.
type GateDecl struct {
	Name     string
	Params   []string // formal numeric parameters, in order
	Qubits   []string // formal qubit parameters, in order
	Body     []Stmt
	Position Position
}

// GateCall applies a gate: `name(params) operands;`.
type GateCall struct {
	Name     string
	Params   []Expr
	Operands []Operand
	Position Position
}

// Measure is `target = measure source;` (or `measure source -> target;`).
type Measure struct {
	Source   Operand // quantum
	Target   Operand // classical
	Position Position
}

// Reset is `reset target;`.
type Reset struct {
	Target   Operand
	Position Position
}

// Barrier is `barrier operands;`. An empty operand list means all qubits.
type Barrier struct {
	Operands []Operand
	Position Position
}

// If guards a body on a classical equality test: `if (reg == value) { ... }`.
type If struct {
	Register string
	Value    Expr
	Body     []Stmt
	Position Position
}

// While is syntactically like If. The builder only accepts it when the body
// is constant-bounded; it otherwise rejects the program.
type While struct {
	Register string
	Value    Expr
	Body     []Stmt
	Position Position
}

// For is `for name in [start:end] { ... }` with a half-open range.
// Start and End must fold to compile-time integer constants.
type For struct {
	Var      string
	Start    Expr
	End      Expr
	Body     []Stmt
	Position Position
}

func (s *QuantumDecl) Pos() Position   { return s.Position }
func (s *ClassicalDecl) Pos() Position { return s.Position }
func (s *ConstDecl) Pos() Position     { return s.Position }
func (s *AliasDecl) Pos() Position     { return s.Position }
func (s *GateDecl) Pos() Position      { return s.Position }
func (s *GateCall) Pos() Position      { return s.Position }
func (s *Measure) Pos() Position       { return s.Position }
func (s *Reset) Pos() Position         { return s.Position }
func (s *Barrier) Pos() Position       { return s.Position }
func (s *If) Pos() Position            { return s.Position }
func (s *While) Pos() Position         { return s.Position }
func (s *For) Pos() Position           { return s.Position }

func (*QuantumDecl) stmtNode()   {}
func (*ClassicalDecl) stmtNode() {}
func (*ConstDecl) stmtNode()     {}
func (*AliasDecl) stmtNode()     {}
func (*GateDecl) stmtNode()      {}
func (*GateCall) stmtNode()      {}
func (*Measure) stmtNode()       {}
func (*Reset) stmtNode()         {}
func (*Barrier) stmtNode()       {}
func (*If) stmtNode()            {}
func (*While) stmtNode()         {}
func (*For) stmtNode()           {}

// Operand references a register, alias, gate formal, or one indexed element
// of any of those. HasIndex distinguishes `q` from `q[0]`.
type Operand struct {
	Name     string
	Index    Expr
	HasIndex bool
	Position Position
}

func (o Operand) Pos() Position { return o.Position }

// AliasExpr is the sealed right-hand side of an alias declaration.
type AliasExpr interface {
	Node
	aliasExpr()
}

// AliasRef selects a whole register or alias by name.
type AliasRef struct {
	Name     string
	Position Position
}

// AliasIndex selects a single element: `q[i]`.
type AliasIndex struct {
	Name     string
	Index    Expr
	Position Position
}

// AliasRange selects a half-open slice: `q[a:b]` covers indices a..b-1.
type AliasRange struct {
	Name     string
	Start    Expr
	End      Expr
	Position Position
}

// AliasConcat joins two alias expressions: `a ++ b`.
type AliasConcat struct {
	Left     AliasExpr
	Right    AliasExpr
	Position Position
}

func (a *AliasRef) Pos() Position    { return a.Position }
func (a *AliasIndex) Pos() Position  { return a.Position }
func (a *AliasRange) Pos() Position  { return a.Position }
func (a *AliasConcat) Pos() Position { return a.Position }

func (*AliasRef) aliasExpr()    {}
func (*AliasIndex) aliasExpr()  {}
func (*AliasRange) aliasExpr()  {}
func (*AliasConcat) aliasExpr() {}

// Expr is the sealed arithmetic expression interface.
type Expr interface {
	Node
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct {
	Value    int64
	Position Position
}

// FloatLit is a floating-point literal.
type FloatLit struct {
	Value    float64
	Position Position
}

// ConstRef names a mathematical constant: pi, tau, or euler.
type ConstRef struct {
	Name     string
	Position Position
}

// Ident references a bound name: a loop variable or gate formal parameter.
type Ident struct {
	Name     string
	Position Position
}

// Unary is a prefix operation. Op is "-".
type Unary struct {
	Op       string
	X        Expr
	Position Position
}

// Binary is an infix operation. Op is one of + - * / **.
type Binary struct {
	Op       string
	Left     Expr
	Right    Expr
	Position Position
}

func (e *IntLit) Pos() Position   { return e.Position }
func (e *FloatLit) Pos() Position { return e.Position }
func (e *ConstRef) Pos() Position { return e.Position }
func (e *Ident) Pos() Position    { return e.Position }
func (e *Unary) Pos() Position    { return e.Position }
func (e *Binary) Pos() Position   { return e.Position }

func (*IntLit) exprNode()   {}
func (*FloatLit) exprNode() {}
func (*ConstRef) exprNode() {}
func (*Ident) exprNode()    {}
func (*Unary) exprNode()    {}
func (*Binary) exprNode()   {}
