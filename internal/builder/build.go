package builder

import (
	"math"

	"github.com/qbridge-dev/qbridge/internal/ast"
	"github.com/qbridge-dev/qbridge/internal/expr"
	"github.com/qbridge-dev/qbridge/internal/gates"
	"github.com/qbridge-dev/qbridge/internal/ir"
)

// Build lowers prog into a circuit. factory supplies constructors for gates
// the program does not define itself; user definitions win, then custom
// constructors, then the standard library. Build is a pure function of its
// inputs and returns (nil, *BuildError) on the first failure.
//
// The symbol table is accepted alongside the program it was checked
// against; lowering works from the declaration nodes directly.
func Build(prog *ast.Program, _ *ast.SymbolTable, factory gates.Factory) (*ir.Circuit, error) {
	b := &builder{
		circ:        ir.New(),
		factory:     factory,
		userGates:   make(map[string]*ast.GateDecl),
		resolutions: make(map[string]resolution),
	}
	if err := b.lowerStatements(prog.Statements, rootEnv(), nil, nil); err != nil {
		return nil, err
	}
	return b.circ, nil
}

type builder struct {
	circ      *ir.Circuit
	factory   gates.Factory
	userGates map[string]*ast.GateDecl

	// resolutions caches the outcome per distinct gate name: the first call
	// site decides how a name resolves for the rest of the build.
	resolutions map[string]resolution
}

// resolution is the closed outcome of gate-name resolution.
type resolution struct {
	decl *ast.GateDecl     // user definition; nil when ctor applies
	ctor gates.Constructor // factory constructor; valid when decl is nil
}

// env is one lexical scope: numeric bindings (loop variables, gate formal
// parameters) and, inside gate expansions, formal-qubit bindings.
type env struct {
	parent *env
	vars   map[string]float64
	qubits map[string]ir.Bit
}

func rootEnv() *env { return &env{} }

func (e *env) child() *env { return &env{parent: e} }

func (e *env) bindVar(name string, v float64) {
	if e.vars == nil {
		e.vars = make(map[string]float64)
	}
	e.vars[name] = v
}

func (e *env) bindQubit(name string, b ir.Bit) {
	if e.qubits == nil {
		e.qubits = make(map[string]ir.Bit)
	}
	e.qubits[name] = b
}

func (e *env) lookupVar(name string) (float64, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return 0, false
}

func (e *env) lookupQubit(name string) (ir.Bit, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.qubits[name]; ok {
			return b, true
		}
	}
	return ir.Bit{}, false
}

// lowerStatements lowers a statement list. cond is the active classical
// guard, nil at top level. visited is the gate-expansion chain, nil outside
// gate bodies.
func (b *builder) lowerStatements(stmts []ast.Stmt, e *env, cond *ir.Condition, visited map[string]bool) error {
	for _, stmt := range stmts {
		if err := b.lowerStatement(stmt, e, cond, visited); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) lowerStatement(stmt ast.Stmt, e *env, cond *ir.Condition, visited map[string]bool) error {
	switch s := stmt.(type) {
	case *ast.QuantumDecl:
		return b.addRegister(s.Name, ir.Quantum, s.Size, s.Position)
	case *ast.ClassicalDecl:
		return b.addRegister(s.Name, ir.Classical, s.Size, s.Position)
	case *ast.AliasDecl:
		return b.addAlias(s, e)
	case *ast.ConstDecl:
		v, err := b.evalExpr(s.Value, e)
		if err != nil {
			return err
		}
		e.bindVar(s.Name, v)
		return nil
	case *ast.GateDecl:
		b.userGates[s.Name] = s
		return nil
	case *ast.GateCall:
		return b.lowerGateCall(s, e, cond, visited)
	case *ast.Measure:
		return b.lowerMeasure(s, e, cond)
	case *ast.Reset:
		return b.lowerReset(s, e, cond)
	case *ast.Barrier:
		return b.lowerBarrier(s, e, cond)
	case *ast.If:
		return b.lowerGuarded(s.Register, s.Value, s.Body, s.Position, e, cond)
	case *ast.While:
		return b.lowerGuarded(s.Register, s.Value, s.Body, s.Position, e, cond)
	case *ast.For:
		return b.lowerFor(s, e, cond, visited)
	}
	return errorf(stmt.Pos(), "unsupported statement type %T", stmt)
}

func (b *builder) addRegister(name string, kind ir.RegKind, size int, pos ast.Position) error {
	if err := b.circ.AddRegister(ir.Register{Name: name, Kind: kind, Size: size}); err != nil {
		return errorf(pos, "%v", err)
	}
	return nil
}

func (b *builder) addAlias(decl *ast.AliasDecl, e *env) error {
	targets, err := b.resolveAliasExpr(decl.Value, e)
	if err != nil {
		return err
	}
	if err := b.circ.AddAlias(ir.Alias{Name: decl.Name, Targets: targets}); err != nil {
		return errorf(decl.Position, "%v", err)
	}
	return nil
}

// resolveAliasExpr flattens an alias right-hand side to physical bits.
// Alias-of-alias references read the already-flattened target table, so a
// cycle cannot form: a name is only resolvable after its own declaration
// succeeded.
func (b *builder) resolveAliasExpr(ae ast.AliasExpr, e *env) ([]ir.Bit, error) {
	switch a := ae.(type) {
	case *ast.AliasRef:
		return b.wholeName(a.Name, a.Position, true)
	case *ast.AliasIndex:
		idx, err := b.evalInt(a.Index, e)
		if err != nil {
			return nil, err
		}
		bit, err := b.elementAt(a.Name, idx, a.Position)
		if err != nil {
			return nil, err
		}
		phys, rerr := b.circ.Resolve(bit)
		if rerr != nil {
			return nil, errorf(a.Position, "%v", rerr)
		}
		return []ir.Bit{phys}, nil
	case *ast.AliasRange:
		start, err := b.evalInt(a.Start, e)
		if err != nil {
			return nil, err
		}
		end, err := b.evalInt(a.End, e)
		if err != nil {
			return nil, err
		}
		if start < 0 || end < start {
			return nil, errorf(a.Position, "invalid range [%d:%d]", start, end)
		}
		var out []ir.Bit
		for i := start; i < end; i++ {
			bit, err := b.elementAt(a.Name, i, a.Position)
			if err != nil {
				return nil, err
			}
			phys, rerr := b.circ.Resolve(bit)
			if rerr != nil {
				return nil, errorf(a.Position, "%v", rerr)
			}
			out = append(out, phys)
		}
		return out, nil
	case *ast.AliasConcat:
		left, err := b.resolveAliasExpr(a.Left, e)
		if err != nil {
			return nil, err
		}
		right, err := b.resolveAliasExpr(a.Right, e)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
	return nil, errorf(ae.Pos(), "unsupported alias expression type %T", ae)
}

// wholeName expands a bare register or alias name to its element list.
// physical controls whether alias elements are resolved to register slots
// (alias declarations) or kept under the alias name (instruction operands).
func (b *builder) wholeName(name string, pos ast.Position, physical bool) ([]ir.Bit, error) {
	if alias, ok := b.circ.FindAlias(name); ok {
		out := make([]ir.Bit, len(alias.Targets))
		for i := range alias.Targets {
			if physical {
				out[i] = alias.Targets[i]
			} else {
				out[i] = ir.Bit{Register: name, Index: i}
			}
		}
		return out, nil
	}
	if reg, ok := b.circ.FindRegister(name); ok {
		out := make([]ir.Bit, reg.Size)
		for i := 0; i < reg.Size; i++ {
			out[i] = ir.Bit{Register: name, Index: i}
		}
		return out, nil
	}
	return nil, errorf(pos, "unknown register or alias %q", name)
}

// elementAt returns the bit for name[idx] with a bounds check, keeping the
// name as written (alias names are not resolved here).
func (b *builder) elementAt(name string, idx int, pos ast.Position) (ir.Bit, error) {
	if alias, ok := b.circ.FindAlias(name); ok {
		if idx < 0 || idx >= len(alias.Targets) {
			return ir.Bit{}, errorf(pos, "alias %q: index %d out of range for %d targets", name, idx, len(alias.Targets))
		}
		return ir.Bit{Register: name, Index: idx}, nil
	}
	if reg, ok := b.circ.FindRegister(name); ok {
		if idx < 0 || idx >= reg.Size {
			return ir.Bit{}, errorf(pos, "register %q: index %d out of range for size %d", name, idx, reg.Size)
		}
		return ir.Bit{Register: name, Index: idx}, nil
	}
	return ir.Bit{}, errorf(pos, "unknown register or alias %q", name)
}

// expandOperand maps one syntactic operand to the bit list it denotes:
// a single element when indexed, every element when bare, and the bound
// actual qubit when the name is a gate formal.
func (b *builder) expandOperand(op ast.Operand, e *env) ([]ir.Bit, error) {
	if bit, ok := e.lookupQubit(op.Name); ok {
		if op.HasIndex {
			return nil, errorf(op.Position, "gate qubit parameter %q cannot be indexed", op.Name)
		}
		return []ir.Bit{bit}, nil
	}
	if !op.HasIndex {
		return b.wholeName(op.Name, op.Position, false)
	}
	idx, err := b.evalInt(op.Index, e)
	if err != nil {
		return nil, err
	}
	bit, err := b.elementAt(op.Name, idx, op.Position)
	if err != nil {
		return nil, err
	}
	return []ir.Bit{bit}, nil
}

// broadcastWidth validates the standard broadcast rule: every operand list
// has length 1 or the common width n. Length-1 operands repeat.
func broadcastWidth(lists [][]ir.Bit, pos ast.Position) (int, error) {
	n := 1
	for _, l := range lists {
		if len(l) > n {
			n = len(l)
		}
	}
	for i, l := range lists {
		if len(l) != 1 && len(l) != n {
			return 0, errorf(pos, "operand %d spans %d bits, cannot broadcast with width %d", i, len(l), n)
		}
	}
	return n, nil
}

func broadcastAt(list []ir.Bit, i int) ir.Bit {
	if len(list) == 1 {
		return list[0]
	}
	return list[i]
}

func (b *builder) lowerGateCall(call *ast.GateCall, e *env, cond *ir.Condition, visited map[string]bool) error {
	res, err := b.resolveGate(call.Name, call.Position)
	if err != nil {
		return err
	}

	lists := make([][]ir.Bit, len(call.Operands))
	for i, op := range call.Operands {
		l, err := b.expandOperand(op, e)
		if err != nil {
			return err
		}
		lists[i] = l
	}

	if res.decl != nil {
		return b.expandUserGate(call, res.decl, lists, e, cond, visited)
	}

	ctor := res.ctor
	if len(call.Params) != ctor.NumParams {
		return errorf(call.Position, "gate %q expects %d parameters, got %d", call.Name, ctor.NumParams, len(call.Params))
	}
	if len(call.Operands) != ctor.NumQubits {
		return errorf(call.Position, "gate %q expects %d qubit operands, got %d", call.Name, ctor.NumQubits, len(call.Operands))
	}

	params := make([]expr.Expr, len(call.Params))
	for i, p := range call.Params {
		v, err := b.evalExpr(p, e)
		if err != nil {
			return err
		}
		params[i] = expr.Literal(v)
	}

	n, err := broadcastWidth(lists, call.Position)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		qubits := make([]ir.Bit, len(lists))
		for j := range lists {
			qubits[j] = broadcastAt(lists[j], i)
		}
		inst := ir.Instruction{Name: ctor.Name, Qubits: qubits, Params: params, Condition: cond}
		if err := b.circ.AppendInstruction(inst); err != nil {
			return errorf(call.Position, "%v", err)
		}
	}
	return nil
}

// expandUserGate inlines a user gate definition at the call site, once per
// broadcast row, binding formal parameters in a child scope. visited tracks
// the expansion chain so recursive definitions fail instead of looping.
func (b *builder) expandUserGate(call *ast.GateCall, decl *ast.GateDecl, lists [][]ir.Bit, e *env, cond *ir.Condition, visited map[string]bool) error {
	if visited[decl.Name] {
		return errorf(call.Position, "gate %q expands recursively", decl.Name)
	}
	if len(call.Params) != len(decl.Params) {
		return errorf(call.Position, "gate %q expects %d parameters, got %d", decl.Name, len(decl.Params), len(call.Params))
	}
	if len(call.Operands) != len(decl.Qubits) {
		return errorf(call.Position, "gate %q expects %d qubit operands, got %d", decl.Name, len(decl.Qubits), len(call.Operands))
	}

	values := make([]float64, len(call.Params))
	for i, p := range call.Params {
		v, err := b.evalExpr(p, e)
		if err != nil {
			return err
		}
		values[i] = v
	}

	n, err := broadcastWidth(lists, call.Position)
	if err != nil {
		return err
	}

	if visited == nil {
		visited = make(map[string]bool)
	}
	visited[decl.Name] = true
	defer delete(visited, decl.Name)

	for i := 0; i < n; i++ {
		scope := e.child()
		for j, name := range decl.Params {
			scope.bindVar(name, values[j])
		}
		for j, name := range decl.Qubits {
			scope.bindQubit(name, broadcastAt(lists[j], i))
		}
		if err := b.lowerStatements(decl.Body, scope, cond, visited); err != nil {
			return err
		}
	}
	return nil
}

// resolveGate decides how a name resolves. The outcome is cached: the table
// consulted for the first call site answers for every later one.
func (b *builder) resolveGate(name string, pos ast.Position) (resolution, error) {
	if res, ok := b.resolutions[name]; ok {
		return res, nil
	}
	var res resolution
	if decl, ok := b.userGates[name]; ok {
		res = resolution{decl: decl}
	} else if ctor, ok := b.factory.Resolve(name); ok {
		res = resolution{ctor: ctor}
	} else {
		return resolution{}, errorf(pos, "gate %q is not defined", name)
	}
	b.resolutions[name] = res
	return res, nil
}

func (b *builder) lowerMeasure(m *ast.Measure, e *env, cond *ir.Condition) error {
	src, err := b.expandOperand(m.Source, e)
	if err != nil {
		return err
	}
	dst, err := b.expandOperand(m.Target, e)
	if err != nil {
		return err
	}
	n, err := broadcastWidth([][]ir.Bit{src, dst}, m.Position)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		inst := ir.Instruction{
			Name:      ir.OpMeasure,
			Qubits:    []ir.Bit{broadcastAt(src, i)},
			Clbits:    []ir.Bit{broadcastAt(dst, i)},
			Condition: cond,
		}
		if err := b.circ.AppendInstruction(inst); err != nil {
			return errorf(m.Position, "%v", err)
		}
	}
	return nil
}

func (b *builder) lowerReset(r *ast.Reset, e *env, cond *ir.Condition) error {
	bits, err := b.expandOperand(r.Target, e)
	if err != nil {
		return err
	}
	for _, bit := range bits {
		inst := ir.Instruction{Name: ir.OpReset, Qubits: []ir.Bit{bit}, Condition: cond}
		if err := b.circ.AppendInstruction(inst); err != nil {
			return errorf(r.Position, "%v", err)
		}
	}
	return nil
}

func (b *builder) lowerBarrier(bar *ast.Barrier, e *env, cond *ir.Condition) error {
	var bits []ir.Bit
	if len(bar.Operands) == 0 {
		// A bare barrier spans every declared qubit.
		for _, reg := range b.circ.Registers {
			if reg.Kind != ir.Quantum {
				continue
			}
			for i := 0; i < reg.Size; i++ {
				bits = append(bits, ir.Bit{Register: reg.Name, Index: i})
			}
		}
	} else {
		for _, op := range bar.Operands {
			l, err := b.expandOperand(op, e)
			if err != nil {
				return err
			}
			bits = append(bits, l...)
		}
	}
	if len(bits) == 0 {
		return nil
	}
	inst := ir.Instruction{Name: ir.OpBarrier, Qubits: bits, Condition: cond}
	if err := b.circ.AppendInstruction(inst); err != nil {
		return errorf(bar.Position, "%v", err)
	}
	return nil
}

// lowerGuarded handles if and while identically: fold the comparison value,
// then lower the body with the condition attached to every instruction.
// Guards do not nest: a flat stream has no way to conjoin two conditions.
func (b *builder) lowerGuarded(register string, value ast.Expr, body []ast.Stmt, pos ast.Position, e *env, cond *ir.Condition) error {
	if cond != nil {
		return errorf(pos, "nested classical guards cannot be lowered")
	}
	reg, ok := b.circ.FindRegister(register)
	if !ok {
		return errorf(pos, "unknown register %q in guard", register)
	}
	if reg.Kind != ir.Classical {
		return errorf(pos, "guard register %q is not classical", register)
	}
	v, err := b.evalInt(value, e)
	if err != nil {
		return err
	}
	if v < 0 {
		return errorf(pos, "guard value must be non-negative, got %d", v)
	}
	guard := &ir.Condition{Register: register, Value: int64(v)}
	return b.lowerStatements(body, e.child(), guard, nil)
}

// lowerFor unrolls a constant half-open range, binding the loop variable as
// a numeric literal per iteration.
func (b *builder) lowerFor(f *ast.For, e *env, cond *ir.Condition, visited map[string]bool) error {
	start, err := b.evalInt(f.Start, e)
	if err != nil {
		return err
	}
	end, err := b.evalInt(f.End, e)
	if err != nil {
		return err
	}
	if end < start {
		return errorf(f.Position, "invalid loop range [%d:%d]", start, end)
	}
	for i := start; i < end; i++ {
		scope := e.child()
		scope.bindVar(f.Var, float64(i))
		if err := b.lowerStatements(f.Body, scope, cond, visited); err != nil {
			return err
		}
	}
	return nil
}

// evalExpr folds an AST expression to a concrete value using the scope's
// numeric bindings. An unbound identifier is the symbolic-parameter failure.
func (b *builder) evalExpr(e ast.Expr, scope *env) (float64, error) {
	switch v := e.(type) {
	case *ast.IntLit:
		return float64(v.Value), nil
	case *ast.FloatLit:
		return v.Value, nil
	case *ast.ConstRef:
		val := expr.Const(v.Name).Value()
		if math.IsNaN(val) {
			return 0, errorf(v.Position, "unknown constant %q", v.Name)
		}
		return val, nil
	case *ast.Ident:
		if val, ok := scope.lookupVar(v.Name); ok {
			return val, nil
		}
		return 0, errorf(v.Position, "parameter %q is not bound to a value", v.Name)
	case *ast.Unary:
		x, err := b.evalExpr(v.X, scope)
		if err != nil {
			return 0, err
		}
		if v.Op != "-" {
			return 0, errorf(v.Position, "unknown unary operator %q", v.Op)
		}
		return -x, nil
	case *ast.Binary:
		l, err := b.evalExpr(v.Left, scope)
		if err != nil {
			return 0, err
		}
		r, err := b.evalExpr(v.Right, scope)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case "+":
			return l + r, nil
		case "-":
			return l - r, nil
		case "*":
			return l * r, nil
		case "/":
			return l / r, nil
		case "**":
			return math.Pow(l, r), nil
		}
		return 0, errorf(v.Position, "unknown binary operator %q", v.Op)
	}
	return 0, errorf(e.Pos(), "unsupported expression type %T", e)
}

// evalInt folds an expression and requires an exact integer result.
func (b *builder) evalInt(e ast.Expr, scope *env) (int, error) {
	v, err := b.evalExpr(e, scope)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errorf(e.Pos(), "expected an integer constant, got %v", v)
	}
	return int(v), nil
}
