package frontend

import (
	"fmt"
	"strconv"

	"github.com/qbridge-dev/qbridge/internal/ast"
)

// Parse lexes and parses src into a validated Program and its symbol table.
// filename is used for diagnostic positions only. On any error the returned
// program is nil and the error is a DiagnosticList.
func Parse(src, filename string) (*ast.Program, *ast.SymbolTable, error) {
	p := &parser{
		lex:    newLexer(src, filename),
		symtab: ast.NewSymbolTable(),
	}
	p.advance()
	p.advance()

	prog := &ast.Program{}
	p.parseHeader(prog)
	for p.cur.typ != tokEOF {
		stmt := p.parseStatement(false)
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
	}

	if len(p.diags) > 0 {
		return nil, nil, p.diags
	}
	return prog, p.symtab, nil
}

type parser struct {
	lex    *lexer
	cur    token
	peek   token
	symtab *ast.SymbolTable
	diags  DiagnosticList
}

func (p *parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.next()
}

func (p *parser) errorf(pos ast.Position, format string, args ...any) {
	p.diags = append(p.diags, Diagnostic{
		Message:  fmt.Sprintf(format, args...),
		Position: pos,
	})
}

// synchronize skips ahead to the token after the next statement boundary so
// one malformed statement produces one diagnostic, not a cascade.
func (p *parser) synchronize() {
	for p.cur.typ != tokEOF {
		if p.cur.typ == tokSemicolon || p.cur.typ == tokRBrace {
			p.advance()
			return
		}
		p.advance()
	}
}

func (p *parser) expect(typ tokenType, what string) (token, bool) {
	if p.cur.typ != typ {
		p.errorf(p.cur.pos, "expected %s, found %s", what, p.cur.describe())
		return token{}, false
	}
	tok := p.cur
	p.advance()
	return tok, true
}

// parseHeader consumes the optional OPENQASM version line and any leading
// include statements.
func (p *parser) parseHeader(prog *ast.Program) {
	if p.cur.typ == tokOpenqasm {
		p.advance()
		if p.cur.typ == tokFloat || p.cur.typ == tokInt {
			prog.Version = p.cur.text
			p.advance()
		} else {
			p.errorf(p.cur.pos, "expected version number after OPENQASM, found %s", p.cur.describe())
		}
		p.expect(tokSemicolon, `";"`)
	}
	for p.cur.typ == tokInclude {
		pos := p.cur.pos
		p.advance()
		path, ok := p.expect(tokString, "include file name")
		if !ok {
			p.synchronize()
			continue
		}
		p.expect(tokSemicolon, `";"`)
		prog.Includes = append(prog.Includes, ast.Include{Path: path.text, Position: pos})
	}
}

// parseStatement parses one statement. inGateBody restricts the grammar to
// what a gate definition body may contain. Returns nil when the statement
// was malformed (a diagnostic has been recorded).
func (p *parser) parseStatement(inGateBody bool) ast.Stmt {
	switch p.cur.typ {
	case tokQubit, tokBit:
		if inGateBody {
			p.errorf(p.cur.pos, "register declarations are not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseRegisterDecl()
	case tokLet:
		if inGateBody {
			p.errorf(p.cur.pos, "alias declarations are not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseAliasDecl()
	case tokConst:
		if inGateBody {
			p.errorf(p.cur.pos, "constant declarations are not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseConstDecl()
	case tokGate:
		if inGateBody {
			p.errorf(p.cur.pos, "nested gate definitions are not allowed")
			p.synchronize()
			return nil
		}
		return p.parseGateDecl()
	case tokMeasure:
		if inGateBody {
			p.errorf(p.cur.pos, "measure is not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseMeasureArrow()
	case tokReset:
		return p.parseReset()
	case tokBarrier:
		return p.parseBarrier()
	case tokIf, tokWhile:
		if inGateBody {
			p.errorf(p.cur.pos, "control flow is not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseGuarded()
	case tokFor:
		if inGateBody {
			p.errorf(p.cur.pos, "control flow is not allowed inside gate bodies")
			p.synchronize()
			return nil
		}
		return p.parseFor()
	case tokIdent:
		// Either `target = measure source;` or a gate call. Both start with
		// an operand-shaped prefix, so parse that first and branch on "=".
		op, ok := p.parseOperand()
		if !ok {
			p.synchronize()
			return nil
		}
		if p.cur.typ == tokAssign {
			if inGateBody {
				p.errorf(op.Position, "measure is not allowed inside gate bodies")
				p.synchronize()
				return nil
			}
			return p.parseMeasureAssign(op)
		}
		if op.HasIndex {
			p.errorf(op.Position, "indexed reference %q cannot start a statement", op.Name)
			p.synchronize()
			return nil
		}
		return p.parseGateCall(op.Name, op.Position)
	default:
		p.errorf(p.cur.pos, "unexpected %s at start of statement", p.cur.describe())
		p.synchronize()
		return nil
	}
}

func (p *parser) parseRegisterDecl() ast.Stmt {
	pos := p.cur.pos
	kind := p.cur.typ
	p.advance()

	size := 1
	if p.cur.typ == tokLBracket {
		p.advance()
		sizeTok, ok := p.expect(tokInt, "register size")
		if !ok {
			p.synchronize()
			return nil
		}
		n, err := strconv.Atoi(sizeTok.text)
		if err != nil || n <= 0 {
			p.errorf(sizeTok.pos, "invalid register size %q", sizeTok.text)
			p.synchronize()
			return nil
		}
		size = n
		if _, ok := p.expect(tokRBracket, `"]"`); !ok {
			p.synchronize()
			return nil
		}
	}

	name, ok := p.expect(tokIdent, "register name")
	if !ok {
		p.synchronize()
		return nil
	}
	// OpenQASM 2 spelling puts the size after the name: qreg q[3];
	if p.cur.typ == tokLBracket {
		p.advance()
		sizeTok, ok := p.expect(tokInt, "register size")
		if !ok {
			p.synchronize()
			return nil
		}
		n, err := strconv.Atoi(sizeTok.text)
		if err != nil || n <= 0 {
			p.errorf(sizeTok.pos, "invalid register size %q", sizeTok.text)
			p.synchronize()
			return nil
		}
		size = n
		if _, ok := p.expect(tokRBracket, `"]"`); !ok {
			p.synchronize()
			return nil
		}
	}
	p.expect(tokSemicolon, `";"`)

	if _, exists := p.symtab.Lookup(name.text); exists {
		p.errorf(name.pos, "name %q is already declared", name.text)
		return nil
	}

	if kind == tokQubit {
		p.symtab.Define(ast.Symbol{Name: name.text, Kind: ast.SymbolQuantumReg, Size: size, Position: pos})
		return &ast.QuantumDecl{Name: name.text, Size: size, Position: pos}
	}
	p.symtab.Define(ast.Symbol{Name: name.text, Kind: ast.SymbolClassicalReg, Size: size, Position: pos})
	return &ast.ClassicalDecl{Name: name.text, Size: size, Position: pos}
}

// parseConstDecl parses `const <type> name = expr;`. The type keyword is
// optional; only the numeric value matters downstream.
func (p *parser) parseConstDecl() ast.Stmt {
	pos := p.cur.pos
	p.advance()

	name, ok := p.expect(tokIdent, "constant name")
	if !ok {
		p.synchronize()
		return nil
	}
	if p.cur.typ == tokIdent {
		// First identifier was the type annotation.
		name = p.cur
		p.advance()
	}
	if _, ok := p.expect(tokAssign, `"="`); !ok {
		p.synchronize()
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		p.synchronize()
		return nil
	}
	p.expect(tokSemicolon, `";"`)

	if _, exists := p.symtab.Lookup(name.text); exists {
		p.errorf(name.pos, "name %q is already declared", name.text)
		return nil
	}
	p.symtab.Define(ast.Symbol{Name: name.text, Kind: ast.SymbolConst, Position: pos})
	return &ast.ConstDecl{Name: name.text, Value: value, Position: pos}
}

func (p *parser) parseAliasDecl() ast.Stmt {
	pos := p.cur.pos
	p.advance()

	name, ok := p.expect(tokIdent, "alias name")
	if !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokAssign, `"="`); !ok {
		p.synchronize()
		return nil
	}
	value := p.parseAliasExpr()
	if value == nil {
		p.synchronize()
		return nil
	}
	p.expect(tokSemicolon, `";"`)

	if _, exists := p.symtab.Lookup(name.text); exists {
		p.errorf(name.pos, "name %q is already declared", name.text)
		return nil
	}
	p.symtab.Define(ast.Symbol{Name: name.text, Kind: ast.SymbolAlias, Position: pos})
	return &ast.AliasDecl{Name: name.text, Value: value, Position: pos}
}

func (p *parser) parseAliasExpr() ast.AliasExpr {
	left := p.parseAliasTerm()
	if left == nil {
		return nil
	}
	for p.cur.typ == tokConcat {
		pos := p.cur.pos
		p.advance()
		right := p.parseAliasTerm()
		if right == nil {
			return nil
		}
		left = &ast.AliasConcat{Left: left, Right: right, Position: pos}
	}
	return left
}

func (p *parser) parseAliasTerm() ast.AliasExpr {
	name, ok := p.expect(tokIdent, "register or alias name")
	if !ok {
		return nil
	}
	if p.cur.typ != tokLBracket {
		return &ast.AliasRef{Name: name.text, Position: name.pos}
	}
	p.advance()
	first := p.parseExpr()
	if first == nil {
		return nil
	}
	if p.cur.typ == tokColon {
		p.advance()
		end := p.parseExpr()
		if end == nil {
			return nil
		}
		if _, ok := p.expect(tokRBracket, `"]"`); !ok {
			return nil
		}
		return &ast.AliasRange{Name: name.text, Start: first, End: end, Position: name.pos}
	}
	if _, ok := p.expect(tokRBracket, `"]"`); !ok {
		return nil
	}
	return &ast.AliasIndex{Name: name.text, Index: first, Position: name.pos}
}

func (p *parser) parseGateDecl() ast.Stmt {
	pos := p.cur.pos
	p.advance()

	name, ok := p.expect(tokIdent, "gate name")
	if !ok {
		p.synchronize()
		return nil
	}

	var params []string
	if p.cur.typ == tokLParen {
		p.advance()
		for p.cur.typ != tokRParen {
			param, ok := p.expect(tokIdent, "parameter name")
			if !ok {
				p.synchronize()
				return nil
			}
			params = append(params, param.text)
			if p.cur.typ == tokComma {
				p.advance()
			}
		}
		p.advance() // )
	}

	var qubits []string
	for p.cur.typ == tokIdent {
		qubits = append(qubits, p.cur.text)
		p.advance()
		if p.cur.typ == tokComma {
			p.advance()
		}
	}
	if len(qubits) == 0 {
		p.errorf(p.cur.pos, "gate %q declares no qubit parameters", name.text)
		p.synchronize()
		return nil
	}

	if _, ok := p.expect(tokLBrace, `"{"`); !ok {
		p.synchronize()
		return nil
	}
	var body []ast.Stmt
	for p.cur.typ != tokRBrace && p.cur.typ != tokEOF {
		stmt := p.parseStatement(true)
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	p.expect(tokRBrace, `"}"`)

	if _, exists := p.symtab.Lookup(name.text); exists {
		p.errorf(name.pos, "name %q is already declared", name.text)
		return nil
	}
	p.symtab.Define(ast.Symbol{Name: name.text, Kind: ast.SymbolGate, Position: pos})
	return &ast.GateDecl{Name: name.text, Params: params, Qubits: qubits, Body: body, Position: pos}
}

func (p *parser) parseGateCall(name string, pos ast.Position) ast.Stmt {
	var params []ast.Expr
	if p.cur.typ == tokLParen {
		p.advance()
		for p.cur.typ != tokRParen {
			e := p.parseExpr()
			if e == nil {
				p.synchronize()
				return nil
			}
			params = append(params, e)
			if p.cur.typ == tokComma {
				p.advance()
			}
		}
		p.advance() // )
	}

	var operands []ast.Operand
	for {
		op, ok := p.parseOperand()
		if !ok {
			p.synchronize()
			return nil
		}
		operands = append(operands, op)
		if p.cur.typ != tokComma {
			break
		}
		p.advance()
	}
	p.expect(tokSemicolon, `";"`)

	return &ast.GateCall{Name: name, Params: params, Operands: operands, Position: pos}
}

// parseMeasureAssign parses the tail of `target = measure source;`. The
// target operand and its position have already been consumed.
func (p *parser) parseMeasureAssign(target ast.Operand) ast.Stmt {
	p.advance() // =
	pos := p.cur.pos
	if _, ok := p.expect(tokMeasure, "measure"); !ok {
		p.synchronize()
		return nil
	}
	source, ok := p.parseOperand()
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(tokSemicolon, `";"`)
	return &ast.Measure{Source: source, Target: target, Position: pos}
}

func (p *parser) parseMeasureArrow() ast.Stmt {
	pos := p.cur.pos
	p.advance()

	source, ok := p.parseOperand()
	if !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokArrow, `"->"`); !ok {
		p.synchronize()
		return nil
	}
	target, ok := p.parseOperand()
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(tokSemicolon, `";"`)
	return &ast.Measure{Source: source, Target: target, Position: pos}
}

func (p *parser) parseReset() ast.Stmt {
	pos := p.cur.pos
	p.advance()
	target, ok := p.parseOperand()
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(tokSemicolon, `";"`)
	return &ast.Reset{Target: target, Position: pos}
}

func (p *parser) parseBarrier() ast.Stmt {
	pos := p.cur.pos
	p.advance()
	var operands []ast.Operand
	for p.cur.typ == tokIdent {
		op, ok := p.parseOperand()
		if !ok {
			p.synchronize()
			return nil
		}
		operands = append(operands, op)
		if p.cur.typ == tokComma {
			p.advance()
		}
	}
	p.expect(tokSemicolon, `";"`)
	return &ast.Barrier{Operands: operands, Position: pos}
}

func (p *parser) parseGuarded() ast.Stmt {
	pos := p.cur.pos
	isWhile := p.cur.typ == tokWhile
	p.advance()

	if _, ok := p.expect(tokLParen, `"("`); !ok {
		p.synchronize()
		return nil
	}
	reg, ok := p.expect(tokIdent, "classical register name")
	if !ok {
		p.synchronize()
		return nil
	}
	if p.cur.typ == tokLBracket {
		p.errorf(p.cur.pos, "bit-indexed conditions are not supported; guard on a whole classical register")
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokEq, `"=="`); !ok {
		p.synchronize()
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokRParen, `")"`); !ok {
		p.synchronize()
		return nil
	}
	body := p.parseBlock()

	if isWhile {
		return &ast.While{Register: reg.text, Value: value, Body: body, Position: pos}
	}
	return &ast.If{Register: reg.text, Value: value, Body: body, Position: pos}
}

func (p *parser) parseFor() ast.Stmt {
	pos := p.cur.pos
	p.advance()

	// Optional loop-variable type: `for int i in ...`.
	name, ok := p.expect(tokIdent, "loop variable")
	if !ok {
		p.synchronize()
		return nil
	}
	if p.cur.typ == tokIdent {
		name = p.cur
		p.advance()
	}
	if _, ok := p.expect(tokIn, `"in"`); !ok {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokLBracket, `"["`); !ok {
		p.synchronize()
		return nil
	}
	start := p.parseExpr()
	if start == nil {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokColon, `":"`); !ok {
		p.synchronize()
		return nil
	}
	end := p.parseExpr()
	if end == nil {
		p.synchronize()
		return nil
	}
	if _, ok := p.expect(tokRBracket, `"]"`); !ok {
		p.synchronize()
		return nil
	}
	body := p.parseBlock()
	return &ast.For{Var: name.text, Start: start, End: end, Body: body, Position: pos}
}

// parseBlock parses `{ statements }` or a single statement.
func (p *parser) parseBlock() []ast.Stmt {
	if p.cur.typ != tokLBrace {
		stmt := p.parseStatement(false)
		if stmt == nil {
			return nil
		}
		return []ast.Stmt{stmt}
	}
	p.advance()
	var body []ast.Stmt
	for p.cur.typ != tokRBrace && p.cur.typ != tokEOF {
		stmt := p.parseStatement(false)
		if stmt != nil {
			body = append(body, stmt)
		}
	}
	p.expect(tokRBrace, `"}"`)
	return body
}

func (p *parser) parseOperand() (ast.Operand, bool) {
	name, ok := p.expect(tokIdent, "register, alias, or qubit name")
	if !ok {
		return ast.Operand{}, false
	}
	op := ast.Operand{Name: name.text, Position: name.pos}
	if p.cur.typ == tokLBracket {
		p.advance()
		idx := p.parseExpr()
		if idx == nil {
			return ast.Operand{}, false
		}
		if _, ok := p.expect(tokRBracket, `"]"`); !ok {
			return ast.Operand{}, false
		}
		op.Index = idx
		op.HasIndex = true
	}
	return op, true
}
