package frontend

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/qbridge-dev/qbridge/internal/ast"
)

// tokenType identifies the kind of a lexical token.
type tokenType int

const (
	tokEOF tokenType = iota
	tokIllegal

	// Punctuation
	tokLParen    // (
	tokRParen    // )
	tokLBracket  // [
	tokRBracket  // ]
	tokLBrace    // {
	tokRBrace    // }
	tokSemicolon // ;
	tokColon     // :
	tokComma     // ,
	tokAssign    // =
	tokEq        // ==
	tokArrow     // ->
	tokConcat    // ++

	// Operators
	tokPlus  // +
	tokMinus // -
	tokStar  // *
	tokSlash // /
	tokPower // **

	// Literals and identifiers
	tokIdent
	tokInt
	tokFloat
	tokString

	// Keywords
	tokOpenqasm
	tokInclude
	tokQubit
	tokBit
	tokLet
	tokConst
	tokGate
	tokMeasure
	tokReset
	tokBarrier
	tokIf
	tokWhile
	tokFor
	tokIn
)

var keywords = map[string]tokenType{
	"OPENQASM": tokOpenqasm,
	"include":  tokInclude,
	"qubit":    tokQubit,
	"bit":      tokBit,
	"qreg":     tokQubit, // OpenQASM 2 compatibility spelling
	"creg":     tokBit,
	"let":      tokLet,
	"const":    tokConst,
	"gate":     tokGate,
	"measure":  tokMeasure,
	"reset":    tokReset,
	"barrier":  tokBarrier,
	"if":       tokIf,
	"while":    tokWhile,
	"for":      tokFor,
	"in":       tokIn,
}

// token is one lexical token with its raw text and source position.
type token struct {
	typ  tokenType
	text string
	pos  ast.Position
}

// lexer scans OpenQASM 3 source into tokens. It never fails: unknown input
// becomes a tokIllegal token the parser reports with a position.
type lexer struct {
	src      string
	filename string
	offset   int
	line     int
	col      int
}

func newLexer(src, filename string) *lexer {
	return &lexer{src: src, filename: filename, line: 1, col: 1}
}

func (l *lexer) position() ast.Position {
	return ast.Position{Filename: l.filename, Line: l.line, Column: l.col}
}

// next returns the following token, skipping whitespace and comments.
func (l *lexer) next() token {
	l.skipSpaceAndComments()
	pos := l.position()

	if l.offset >= len(l.src) {
		return token{typ: tokEOF, pos: pos}
	}

	ch := l.src[l.offset]
	switch ch {
	case '(':
		return l.emit(tokLParen, 1, pos)
	case ')':
		return l.emit(tokRParen, 1, pos)
	case '[':
		return l.emit(tokLBracket, 1, pos)
	case ']':
		return l.emit(tokRBracket, 1, pos)
	case '{':
		return l.emit(tokLBrace, 1, pos)
	case '}':
		return l.emit(tokRBrace, 1, pos)
	case ';':
		return l.emit(tokSemicolon, 1, pos)
	case ':':
		return l.emit(tokColon, 1, pos)
	case ',':
		return l.emit(tokComma, 1, pos)
	case '=':
		if l.peekAt(1) == '=' {
			return l.emit(tokEq, 2, pos)
		}
		return l.emit(tokAssign, 1, pos)
	case '-':
		if l.peekAt(1) == '>' {
			return l.emit(tokArrow, 2, pos)
		}
		return l.emit(tokMinus, 1, pos)
	case '+':
		if l.peekAt(1) == '+' {
			return l.emit(tokConcat, 2, pos)
		}
		return l.emit(tokPlus, 1, pos)
	case '*':
		if l.peekAt(1) == '*' {
			return l.emit(tokPower, 2, pos)
		}
		return l.emit(tokStar, 1, pos)
	case '/':
		return l.emit(tokSlash, 1, pos)
	case '"':
		return l.scanString(pos)
	}

	if ch >= '0' && ch <= '9' || ch == '.' {
		return l.scanNumber(pos)
	}
	if r, _ := utf8.DecodeRuneInString(l.src[l.offset:]); isIdentStart(r) {
		return l.scanIdent(pos)
	}

	return l.emit(tokIllegal, 1, pos)
}

func (l *lexer) emit(typ tokenType, width int, pos ast.Position) token {
	text := l.src[l.offset : l.offset+width]
	l.advance(width)
	return token{typ: typ, text: text, pos: pos}
}

func (l *lexer) scanString(pos ast.Position) token {
	// Opening quote.
	end := l.offset + 1
	for end < len(l.src) && l.src[end] != '"' && l.src[end] != '\n' {
		end++
	}
	if end >= len(l.src) || l.src[end] != '"' {
		width := end - l.offset
		tok := token{typ: tokIllegal, text: l.src[l.offset:end], pos: pos}
		l.advance(width)
		return tok
	}
	text := l.src[l.offset+1 : end] // without quotes
	l.advance(end + 1 - l.offset)
	return token{typ: tokString, text: text, pos: pos}
}

func (l *lexer) scanNumber(pos ast.Position) token {
	start := l.offset
	typ := tokInt
	end := l.offset
	for end < len(l.src) {
		ch := l.src[end]
		switch {
		case ch >= '0' && ch <= '9':
			end++
		case ch == '.':
			typ = tokFloat
			end++
		case ch == 'e' || ch == 'E':
			typ = tokFloat
			end++
			if end < len(l.src) && (l.src[end] == '+' || l.src[end] == '-') {
				end++
			}
		default:
			goto done
		}
	}
done:
	l.advance(end - start)
	return token{typ: typ, text: l.src[start:end], pos: pos}
}

func (l *lexer) scanIdent(pos ast.Position) token {
	start := l.offset
	for l.offset < len(l.src) {
		r, width := utf8.DecodeRuneInString(l.src[l.offset:])
		if !isIdentPart(r) {
			break
		}
		l.advance(width)
	}
	text := l.src[start:l.offset]
	if typ, ok := keywords[text]; ok {
		return token{typ: typ, text: text, pos: pos}
	}
	return token{typ: tokIdent, text: text, pos: pos}
}

func (l *lexer) skipSpaceAndComments() {
	for l.offset < len(l.src) {
		ch := l.src[l.offset]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance(1)
		case ch == '/' && l.peekAt(1) == '/':
			for l.offset < len(l.src) && l.src[l.offset] != '\n' {
				l.advance(1)
			}
		case ch == '/' && l.peekAt(1) == '*':
			l.advance(2)
			for l.offset < len(l.src) && !strings.HasPrefix(l.src[l.offset:], "*/") {
				l.advance(1)
			}
			if l.offset < len(l.src) {
				l.advance(2)
			}
		default:
			return
		}
	}
}

func (l *lexer) peekAt(ahead int) byte {
	if l.offset+ahead >= len(l.src) {
		return 0
	}
	return l.src[l.offset+ahead]
}

func (l *lexer) advance(width int) {
	for i := 0; i < width; i++ {
		if l.src[l.offset+i] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
	l.offset += width
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func (t token) describe() string {
	switch t.typ {
	case tokEOF:
		return "end of input"
	case tokIllegal:
		return fmt.Sprintf("invalid input %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}
