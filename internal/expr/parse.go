package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse reads the textual expression grammar produced by Expr.String and
// Format: decimal literals, named constants, parameter names, unary minus,
// the binary operators + - * / **, and parentheses. It is the inverse of
// String, used when parameter expressions travel through serialized
// circuits.
func Parse(s string) (Expr, error) {
	p := &exprParser{input: s}
	e, err := p.parseExpr(precAdd)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("unexpected trailing input at offset %d in %q", p.pos, s)
	}
	return e, nil
}

type exprParser struct {
	input string
	pos   int
}

// parseExpr implements precedence climbing over the binary operators.
func (p *exprParser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op, prec, ok := p.peekBinaryOp()
		if !ok || prec < minPrec {
			return left, nil
		}
		p.consumeOp(op)
		// ** is right-associative; the rest are left-associative.
		nextMin := prec + 1
		if op == OpPow {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, Left: left, Right: right}
	}
}

func (p *exprParser) parseUnary() (Expr, error) {
	p.skipSpace()
	if p.peekByte() == '-' {
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: OpNeg, X: x}, nil
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of expression in %q", p.input)
	}
	ch := p.input[p.pos]
	switch {
	case ch == '(':
		p.pos++
		e, err := p.parseExpr(precAdd)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peekByte() != ')' {
			return nil, fmt.Errorf("missing closing parenthesis in %q", p.input)
		}
		p.pos++
		return e, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		return p.parseNumber()
	case isIdentStart(rune(ch)):
		return p.parseName(), nil
	}
	return nil, fmt.Errorf("unexpected character %q at offset %d in %q", ch, p.pos, p.input)
}

func (p *exprParser) parseNumber() (Expr, error) {
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if ch >= '0' && ch <= '9' || ch == '.' {
			p.pos++
			continue
		}
		// Exponent part, including its sign.
		if ch == 'e' || ch == 'E' {
			p.pos++
			if p.peekByte() == '+' || p.peekByte() == '-' {
				p.pos++
			}
			continue
		}
		break
	}
	text := p.input[start:p.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric literal %q: %w", text, err)
	}
	return Literal(v), nil
}

func (p *exprParser) parseName() Expr {
	start := p.pos
	for p.pos < len(p.input) && isIdentPart(rune(p.input[p.pos])) {
		p.pos++
	}
	name := p.input[start:p.pos]
	switch Const(name) {
	case Pi, Tau, Euler:
		return Const(name)
	}
	return Param(name)
}

func (p *exprParser) peekBinaryOp() (BinaryOp, int, bool) {
	p.skipSpace()
	if strings.HasPrefix(p.input[p.pos:], "**") {
		return OpPow, precPow, true
	}
	switch p.peekByte() {
	case '+':
		return OpAdd, precAdd, true
	case '-':
		return OpSub, precAdd, true
	case '*':
		return OpMul, precMul, true
	case '/':
		return OpDiv, precMul, true
	}
	return "", 0, false
}

func (p *exprParser) consumeOp(op BinaryOp) {
	p.pos += len(op)
}

func (p *exprParser) peekByte() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
