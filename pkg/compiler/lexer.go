package compiler

import (
	"fmt"
	"unicode"
)

// keywords maps source text to its keyword TokenType.
var keywords = map[string]TokenType{
	"exec":     EXEC,
	"func":     FUNC,
	"const":    CONST,
	"var":      VAR,
	"print":    PRINT,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"call":     CALL,
	"true":     TRUE,
	"false":    FALSE,
	"length":   LENGTH,
	"new":      NEW,
	"over":     OVER,
	"cast":     CAST,
	"bool":     BOOL,
	"char":     CHAR,
	"int":      INT,
	"float":    FLOAT,
	"string":   STRING,
	"rat":      RAT,
	"void":     VOID,
}

// maxIdentLength is the longest identifier the language accepts.
const maxIdentLength = 32

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // 1-based column of the next rune
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	return l.peekAt(0)
}

// peek2 returns the rune one position ahead of the current position.
func (l *Lexer) peek2() rune {
	return l.peekAt(1)
}

func (l *Lexer) peekAt(offset int) rune {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipComment discards a comment, which runs from '#' to the next '#' or to
// end of line. The opening '#' must already have been consumed.
func (l *Lexer) skipComment() {
	for l.pos < len(l.src) {
		r := l.advance()
		if r == '#' || r == '\n' {
			return
		}
	}
}

// scanIdent collects a full identifier or keyword token.
// The first letter must still be at l.peek().
func (l *Lexer) scanIdent() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) {
		r := l.peek()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	if len(lexeme) > maxIdentLength {
		return Token{}, fmt.Errorf("identifier %q longer than %d characters on line %d", lexeme, maxIdentLength, line)
	}
	tt := IDENTIFIER
	if kw, ok := keywords[lexeme]; ok {
		tt = kw
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}, nil
}

// scanNumber collects an integer or floating literal: digits, an optional
// fraction, and an optional exponent E[+-]digits. A literal may start with
// the '.' of its fraction.
func (l *Lexer) scanNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos
	tt := INTEGER

	l.skipDigits()
	if l.peek() == '.' && unicode.IsDigit(l.peek2()) {
		tt = FLOAT_LIT
		l.advance()
		l.skipDigits()
	}
	if l.peek() == 'E' || l.peek() == 'e' {
		next := l.peek2()
		if next == '+' || next == '-' {
			next = l.peekAt(2)
		}
		if !unicode.IsDigit(next) {
			return Token{}, fmt.Errorf("malformed exponent in number on line %d", line)
		}
		tt = FLOAT_LIT
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		l.skipDigits()
	}
	return Token{Type: tt, Lexeme: string(l.src[start:l.pos]), Line: line, Col: col}, nil
}

func (l *Lexer) skipDigits() {
	for l.pos < len(l.src) && unicode.IsDigit(l.peek()) {
		l.advance()
	}
}

// scanChar collects a character literal ^c^. Only printable ASCII is allowed
// between the carets.
func (l *Lexer) scanChar() (Token, error) {
	line, col := l.line, l.col
	l.advance() // consume opening ^

	r := l.peek()
	if r < ' ' || r > '~' {
		return Token{}, fmt.Errorf("invalid character literal on line %d", line)
	}
	l.advance()
	if l.peek() != '^' {
		return Token{}, fmt.Errorf("unterminated character literal on line %d", line)
	}
	l.advance() // consume closing ^

	return Token{Type: CHAR_LIT, Lexeme: string(r), Line: line, Col: col}, nil
}

// scanString collects a string literal "...". Strings end on the same line
// and have no escapes.
func (l *Lexer) scanString() (Token, error) {
	line, col := l.line, l.col
	l.advance() // consume opening "
	start := l.pos

	for l.pos < len(l.src) {
		r := l.peek()
		if r == '"' {
			break
		}
		if r == '\n' {
			return Token{}, fmt.Errorf("unterminated string literal on line %d", line)
		}
		l.advance()
	}
	if l.pos >= len(l.src) {
		return Token{}, fmt.Errorf("unterminated string literal on line %d", line)
	}
	val := string(l.src[start:l.pos])
	l.advance() // consume closing "

	return Token{Type: STRING_LIT, Lexeme: val, Line: line, Col: col}, nil
}

// scanMarker collects the print markers _n_ and _t_.
func (l *Lexer) scanMarker() (Token, error) {
	line, col := l.line, l.col
	if l.peekAt(2) == '_' {
		switch l.peek2() {
		case 'n':
			l.advance()
			l.advance()
			l.advance()
			return Token{NEWLINE_MARK, "_n_", line, col}, nil
		case 't':
			l.advance()
			l.advance()
			l.advance()
			return Token{TAB_MARK, "_t_", line, col}, nil
		}
	}
	return Token{}, fmt.Errorf("unexpected character '_' on line %d", line)
}

// nextToken skips whitespace/comments and returns the next Token.
func (l *Lexer) nextToken() (Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			return Token{Type: EOF, Lexeme: "", Line: l.line, Col: l.col}, nil
		}
		if l.peek() == '#' {
			l.advance()
			l.skipComment()
			continue
		}
		break
	}

	ch := l.peek()
	line, col := l.line, l.col

	switch {
	case unicode.IsLetter(ch):
		return l.scanIdent()
	case unicode.IsDigit(ch), ch == '.' && unicode.IsDigit(l.peek2()):
		return l.scanNumber()
	case ch == '"':
		return l.scanString()
	case ch == '^':
		return l.scanChar()
	case ch == '_':
		return l.scanMarker()
	}

	tok := func(tt TokenType, lexeme string) (Token, error) {
		return Token{tt, lexeme, line, col}, nil
	}

	l.advance() // consume the character before the switch
	switch ch {
	case '{':
		return tok(LBRACE, "{")
	case '}':
		return tok(RBRACE, "}")
	case '(':
		return tok(LPAREN, "(")
	case ')':
		return tok(RPAREN, ")")
	case '[':
		return tok(LBRACKET, "[")
	case ']':
		return tok(RBRACKET, "]")
	case ';':
		return tok(SEMICOLON, ";")
	case ',':
		return tok(COMMA, ",")
	case '+':
		return tok(PLUS, "+")
	case '*':
		return tok(STAR, "*")
	case '-':
		if l.peek() == '>' {
			l.advance()
			return tok(ARROW, "->")
		}
		return tok(MINUS, "-")
	case '/':
		n := 1
		for n < 4 && l.peek() == '/' {
			l.advance()
			n++
		}
		return tok([...]TokenType{SLASH, SLASH2, SLASH3, SLASH4}[n-1], string(l.src[l.pos-n:l.pos]))
	case ':':
		if l.peek() == '=' {
			l.advance()
			return tok(ASSIGN, ":=")
		}
	case '&':
		if l.peek() == '&' {
			l.advance()
			return tok(AND_LOGICAL, "&&")
		}
	case '|':
		if l.peek() == '|' {
			l.advance()
			return tok(OR_LOGICAL, "||")
		}
		return tok(PIPE, "|")
	case '!':
		if l.peek() == '=' {
			l.advance()
			return tok(NOT_EQ, "!=")
		}
		return tok(NOT, "!")
	case '=':
		if l.peek() == '=' {
			l.advance()
			return tok(EQUALS, "==")
		}
	case '<':
		if l.peek() == '=' {
			l.advance()
			return tok(LESS_EQ, "<=")
		}
		return tok(LESS, "<")
	case '>':
		if l.peek() == '=' {
			l.advance()
			return tok(GREATER_EQ, ">=")
		}
		return tok(GREATER, ">")
	case '\\':
		if l.peek() == 's' {
			l.advance()
			return tok(SPACE_MARK, `\s`)
		}
	}
	return Token{}, fmt.Errorf("unexpected character %q on line %d", ch, line)
}

// Lex tokenises src and returns all tokens including the final EOF token.
// It returns a non-nil error on the first illegal character or malformed
// literal.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token
	for {
		tok, err := l.nextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
