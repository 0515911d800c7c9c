package frontend

import (
	"strconv"

	"github.com/qbridge-dev/qbridge/internal/ast"
)

// Binding powers for the expression grammar. ** binds tightest and is
// right-associative; unary minus sits between it and * /.
const (
	bpAdd   = 1
	bpMul   = 2
	bpUnary = 3
	bpPower = 4
)

func binaryPower(typ tokenType) (int, bool) {
	switch typ {
	case tokPlus, tokMinus:
		return bpAdd, true
	case tokStar, tokSlash:
		return bpMul, true
	case tokPower:
		return bpPower, true
	}
	return 0, false
}

// parseExpr parses one arithmetic expression. Returns nil after recording a
// diagnostic; callers synchronize.
func (p *parser) parseExpr() ast.Expr {
	return p.parseBinary(0)
}

func (p *parser) parseBinary(minPower int) ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		power, ok := binaryPower(p.cur.typ)
		if !ok || power < minPower {
			return left
		}
		op := p.cur
		p.advance()
		// Right-associative **: recurse at the same power. Everything else
		// is left-associative and recurses one level tighter.
		next := power + 1
		if op.typ == tokPower {
			next = power
		}
		right := p.parseBinary(next)
		if right == nil {
			return nil
		}
		left = &ast.Binary{Op: op.text, Left: left, Right: right, Position: op.pos}
	}
}

func (p *parser) parseUnary() ast.Expr {
	if p.cur.typ == tokMinus {
		pos := p.cur.pos
		p.advance()
		x := p.parseBinary(bpUnary)
		if x == nil {
			return nil
		}
		return &ast.Unary{Op: "-", X: x, Position: pos}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.cur.typ {
	case tokInt:
		v, err := strconv.ParseInt(p.cur.text, 10, 64)
		if err != nil {
			p.errorf(p.cur.pos, "invalid integer literal %q", p.cur.text)
			p.advance()
			return nil
		}
		e := &ast.IntLit{Value: v, Position: p.cur.pos}
		p.advance()
		return e
	case tokFloat:
		v, err := strconv.ParseFloat(p.cur.text, 64)
		if err != nil {
			p.errorf(p.cur.pos, "invalid float literal %q", p.cur.text)
			p.advance()
			return nil
		}
		e := &ast.FloatLit{Value: v, Position: p.cur.pos}
		p.advance()
		return e
	case tokIdent:
		var e ast.Expr
		switch p.cur.text {
		case "pi", "π", "tau", "τ", "euler", "ℇ":
			e = &ast.ConstRef{Name: canonicalConstName(p.cur.text), Position: p.cur.pos}
		default:
			e = &ast.Ident{Name: p.cur.text, Position: p.cur.pos}
		}
		p.advance()
		return e
	case tokLParen:
		p.advance()
		e := p.parseExpr()
		if e == nil {
			return nil
		}
		if _, ok := p.expect(tokRParen, `")"`); !ok {
			return nil
		}
		return e
	default:
		p.errorf(p.cur.pos, "expected expression, found %s", p.cur.describe())
		return nil
	}
}

func canonicalConstName(name string) string {
	switch name {
	case "π":
		return "pi"
	case "τ":
		return "tau"
	case "ℇ":
		return "euler"
	}
	return name
}
