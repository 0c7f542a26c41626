package compiler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// Parser consumes the flat token slice produced by the Lexer and builds an
// ast.Program.
//
// Grammar:
//
//	program        = function* "exec" block EOF
//	function       = "func" IDENTIFIER "<" (param ("," param)*)? ">" "->" resultType block
//	param          = type IDENTIFIER
//	type           = "bool" | "char" | "int" | "float" | "string" | "rat" | "[" type "]"
//	resultType     = type | "void"
//	block          = "{" statement* "}"
//	statement      = declaration | assignment | print | if | while | break | continue
//	               | return | callStmt | block
//	declaration    = ("const" | "var") IDENTIFIER ":=" expression ";"
//	assignment     = postfix ":=" expression ";"
//	print          = "print" (expression | "_n_" | "_t_" | "," | "\s")* ";"
//	if             = "if" "(" expression ")" block ("else" block)?
//	while          = "while" "(" expression ")" block
//	return         = "return" expression? ";"
//	callStmt       = "call" IDENTIFIER "(" args ")" ";"
//	expression     = logical_or
//	logical_or     = logical_and ("||" logical_and)*
//	logical_and    = comparison ("&&" comparison)*
//	comparison     = additive (("<"|"<="|">"|">="|"=="|"!=") additive)?
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/" | "//" | "over" | "///" | "////") unary)*
//	unary          = ("!" | "-" | "length") unary | postfix
//	postfix        = primary ("[" expression "]")*
//	primary        = INTEGER | FLOAT | CHAR | STRING | "true" | "false"
//	               | IDENTIFIER ("(" args ")")? | "(" expression ")"
//	               | "[" expression ("|" | "cast") type "]"
//	               | "[" expression ("," expression)* "]"
//	               | "new" "[" type "]" "(" expression ")"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: strings.Split(rawSource, "\n")}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	return sourceError(p.sourceLines, tok.Line, fmt.Sprintf(format, args...))
}

// sourceError formats msg with the trimmed source line as a snippet.
func sourceError(lines []string, line int, msg string) error {
	lineIdx := line - 1 // Lines are 1-based

	snippet := "<source unavailable>"
	if lineIdx >= 0 && lineIdx < len(lines) {
		snippet = strings.TrimSpace(lines[lineIdx])
	}

	return fmt.Errorf("line %d: %s\n  |> %s", line, msg, snippet)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.peekAt(0)
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		if len(p.tokens) > 0 {
			last := p.tokens[len(p.tokens)-1]
			return Token{Type: EOF, Line: last.Line, Col: last.Col}
		}
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

func at(tok Token) ast.Meta {
	return ast.At(ast.Location{Line: tok.Line, Col: tok.Col})
}

var typeKeywords = map[TokenType]types.Type{
	BOOL:   types.Boolean,
	CHAR:   types.Character,
	INT:    types.Integer,
	FLOAT:  types.Float,
	STRING: types.String,
	RAT:    types.Rational,
}

// parseType parses a value type: a primitive keyword or [T].
func (p *Parser) parseType() (types.Type, error) {
	tok := p.advance()
	if t, ok := typeKeywords[tok.Type]; ok {
		return t, nil
	}
	if tok.Type == LBRACKET {
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return types.ArrayOf(elem), nil
	}
	return nil, p.fmtError(tok, "expected type, got %s (%q)", tok.Type, tok.Lexeme)
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseLogicalOr()
}

// parseLogicalOr handles ||
func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	expr, err := p.parseLogicalAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == OR_LOGICAL {
		tok := p.advance()
		right, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Meta: at(tok), Op: ast.OpOr, Left: expr, Right: right}
	}
	return expr, nil
}

// parseLogicalAnd handles &&
func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	expr, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == AND_LOGICAL {
		tok := p.advance()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Meta: at(tok), Op: ast.OpAnd, Left: expr, Right: right}
	}
	return expr, nil
}

var comparisonOps = map[TokenType]ast.Operator{
	LESS:       ast.OpLess,
	LESS_EQ:    ast.OpLessEq,
	GREATER:    ast.OpGreater,
	GREATER_EQ: ast.OpGreaterEq,
	EQUALS:     ast.OpEqual,
	NOT_EQ:     ast.OpNotEqual,
}

// parseComparison handles a single, non-associative comparison.
func (p *Parser) parseComparison() (ast.Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOps[p.peek().Type]
	if !ok {
		return expr, nil
	}
	tok := p.advance()
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, chained := comparisonOps[p.peek().Type]; chained {
		return nil, p.fmtError(p.peek(), "comparisons cannot be chained")
	}
	return &ast.Binary{Meta: at(tok), Op: op, Left: expr, Right: right}, nil
}

// parseAdditive handles + and -
func (p *Parser) parseAdditive() (ast.Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}

	for {
		tt := p.peek().Type
		if tt != PLUS && tt != MINUS {
			break
		}
		tok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if tt == MINUS {
			op = ast.OpSubtract
		}
		expr = &ast.Binary{Meta: at(tok), Op: op, Left: expr, Right: right}
	}

	return expr, nil
}

var multiplicativeOps = map[TokenType]ast.Operator{
	STAR:   ast.OpMultiply,
	SLASH:  ast.OpDivide,
	SLASH2: ast.OpOver,
	OVER:   ast.OpOver,
	SLASH3: ast.OpExpressOver,
	SLASH4: ast.OpRationalize,
}

// parseMultiplicative handles *, / and the rational operators.
func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	expr, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := multiplicativeOps[p.peek().Type]
		if !ok {
			break
		}
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr = &ast.Binary{Meta: at(tok), Op: op, Left: expr, Right: right}
	}

	return expr, nil
}

// parseUnary handles !, unary minus and length. A minus directly in front of
// a numeric literal is folded into the literal.
func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NOT, MINUS:
		p.advance()
		if tok.Type == MINUS {
			if lit, ok, err := p.negativeLiteral(tok); ok || err != nil {
				return lit, err
			}
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		op := ast.OpNot
		if tok.Type == MINUS {
			op = ast.OpNegate
		}
		return &ast.Unary{Meta: at(tok), Op: op, Operand: right}, nil
	case LENGTH:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Length{Meta: at(tok), Operand: operand}, nil
	}
	return p.parsePostfix()
}

// negativeLiteral folds -INTEGER and -FLOAT when the literal is not itself
// indexed.
func (p *Parser) negativeLiteral(minus Token) (ast.Expr, bool, error) {
	lit := p.peek()
	if p.peekAt(1).Type == LBRACKET {
		return nil, false, nil
	}
	switch lit.Type {
	case INTEGER:
		p.advance()
		v, err := parseInt("-" + lit.Lexeme)
		if err != nil {
			return nil, true, p.fmtError(lit, "%v", err)
		}
		return &ast.IntLiteral{Meta: at(minus), Value: v}, true, nil
	case FLOAT_LIT:
		p.advance()
		v, err := parseFloat(lit.Lexeme)
		if err != nil {
			return nil, true, p.fmtError(lit, "%v", err)
		}
		return &ast.FloatLiteral{Meta: at(minus), Value: -v}, true, nil
	}
	return nil, false, nil
}

func parseInt(lexeme string) (int32, error) {
	v, err := strconv.ParseInt(lexeme, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("integer %s out of 32-bit range", lexeme)
	}
	return int32(v), nil
}

func parseFloat(lexeme string) (float64, error) {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("float %s out of range", lexeme)
	}
	return v, nil
}

// parsePostfix handles a[i][j]...
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == LBRACKET {
		tok := p.advance() // [
		index, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		expr = &ast.Index{Meta: at(tok), Array: expr, Index: index}
	}
	return expr, nil
}

func (p *Parser) parseCallArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	if p.peek().Type != RPAREN {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}

	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// parsePrimary handles literals, names, calls, parenthesised expressions,
// casts, array literals and array allocation.
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case INTEGER:
		p.advance()
		v, err := parseInt(tok.Lexeme)
		if err != nil {
			return nil, p.fmtError(tok, "%v", err)
		}
		return &ast.IntLiteral{Meta: at(tok), Value: v}, nil

	case FLOAT_LIT:
		p.advance()
		v, err := parseFloat(tok.Lexeme)
		if err != nil {
			return nil, p.fmtError(tok, "%v", err)
		}
		return &ast.FloatLiteral{Meta: at(tok), Value: v}, nil

	case CHAR_LIT:
		p.advance()
		return &ast.CharLiteral{Meta: at(tok), Value: tok.Lexeme[0]}, nil

	case STRING_LIT:
		p.advance()
		return &ast.StringLiteral{Meta: at(tok), Value: tok.Lexeme}, nil

	case TRUE, FALSE:
		p.advance()
		return &ast.BoolLiteral{Meta: at(tok), Value: tok.Type == TRUE}, nil

	case IDENTIFIER:
		p.advance()
		id := &ast.Identifier{Meta: at(tok), Name: tok.Lexeme}
		if p.peek().Type != LPAREN {
			return id, nil
		}
		p.advance() // (
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Meta: at(tok), Callee: id, Args: args}, nil

	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case LBRACKET:
		return p.parseBracketed()

	case NEW:
		p.advance()
		if _, err := p.expect(LBRACKET); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		if _, err := p.expect(LPAREN); err != nil {
			return nil, err
		}
		length, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &ast.NewArray{Meta: at(tok), Elem: elem, Length: length}, nil

	default:
		return nil, p.fmtError(tok, "expected expression, got %s (%q)", tok.Type, tok.Lexeme)
	}
}

// parseBracketed parses [e | T] casts and [e0, e1, ...] array literals,
// which share their opening bracket and first expression.
func (p *Parser) parseBracketed() (ast.Expr, error) {
	open := p.advance() // [
	first, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if tt := p.peek().Type; tt == PIPE || tt == CAST {
		p.advance()
		target, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET); err != nil {
			return nil, err
		}
		return &ast.Cast{Meta: at(open), Target: target, Operand: first}, nil
	}

	elems := []ast.Expr{first}
	for p.peek().Type == COMMA {
		p.advance()
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Meta: at(open), Elements: elems}, nil
}

// parseDeclaration parses const|var name := expr ;
func (p *Parser) parseDeclaration() (ast.Stmt, error) {
	kw := p.advance()
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	init, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Declaration{
		Meta:  at(kw),
		Name:  &ast.Identifier{Meta: at(nameTok), Name: nameTok.Lexeme},
		Init:  init,
		Const: kw.Type == CONST,
	}, nil
}

// parseAssignment parses target := expr ; where target is a name or an
// indexed element.
func (p *Parser) parseAssignment() (ast.Stmt, error) {
	start := p.peek()
	target, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	switch target.(type) {
	case *ast.Identifier, *ast.Index:
	default:
		return nil, p.fmtError(start, "cannot assign to %s", target)
	}
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Assign{Meta: at(start), Target: target, Value: val}, nil
}

var printMarkers = map[TokenType]ast.Marker{
	NEWLINE_MARK: ast.Newline,
	TAB_MARK:     ast.Tab,
	SPACE_MARK:   ast.Space,
}

// parsePrint parses print items up to the terminating ';'. A comma only
// separates; \s separates and prints a space.
func (p *Parser) parsePrint() (ast.Stmt, error) {
	kw := p.advance()
	stmt := &ast.Print{Meta: at(kw)}
	for p.peek().Type != SEMICOLON {
		tok := p.peek()
		if tok.Type == EOF {
			return nil, p.fmtError(tok, "unterminated print statement")
		}
		if tok.Type == COMMA {
			p.advance()
			continue
		}
		if m, ok := printMarkers[tok.Type]; ok {
			p.advance()
			stmt.Items = append(stmt.Items, &ast.PrintMarker{Meta: at(tok), Marker: m})
			continue
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Items = append(stmt.Items, e)
	}
	p.advance() // ;
	return stmt, nil
}

// parseBlock parses { stmt1; stmt2; ... }
func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.Block{Meta: at(open)}
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

// parseCondition parses ( expr ).
func (p *Parser) parseCondition() (ast.Expr, error) {
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseIf parses if ( cond ) block [ else block ]
func (p *Parser) parseIf() (ast.Stmt, error) {
	kw := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &ast.If{Meta: at(kw), Cond: cond, Then: body}
	if p.peek().Type == ELSE {
		p.advance()
		if stmt.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

// parseWhile parses while ( cond ) block
func (p *Parser) parseWhile() (ast.Stmt, error) {
	kw := p.advance()
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Meta: at(kw), Cond: cond, Body: body}, nil
}

// parseReturn parses return [expr] ;
func (p *Parser) parseReturn() (ast.Stmt, error) {
	kw := p.advance()
	stmt := &ast.Return{Meta: at(kw)}
	if p.peek().Type != SEMICOLON {
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = val
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseCallStmt parses call f(args) ;
func (p *Parser) parseCallStmt() (ast.Stmt, error) {
	kw := p.advance()
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	c, ok := expr.(*ast.Call)
	if !ok {
		return nil, p.fmtError(kw, "call needs a function call, got %s", expr)
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.CallStmt{Meta: at(kw), Call: c}, nil
}

// parseJump parses break ; and continue ;
func (p *Parser) parseJump() (ast.Stmt, error) {
	kw := p.advance()
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	if kw.Type == BREAK {
		return &ast.Break{Meta: at(kw)}, nil
	}
	return &ast.Continue{Meta: at(kw)}, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case CONST, VAR:
		return p.parseDeclaration()
	case PRINT:
		return p.parsePrint()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case BREAK, CONTINUE:
		return p.parseJump()
	case RETURN:
		return p.parseReturn()
	case CALL:
		return p.parseCallStmt()
	case LBRACE:
		return p.parseBlock()
	case IDENTIFIER:
		return p.parseAssignment()
	}
	return nil, p.fmtError(tok, "expected statement, got %s (%q)", tok.Type, tok.Lexeme)
}

// parseFunction parses func name <T a, ...> -> R { ... }
func (p *Parser) parseFunction() (*ast.Function, error) {
	kw := p.advance()
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	open, err := p.expect(LESS)
	if err != nil {
		return nil, err
	}

	lambda := &ast.Lambda{Meta: at(open)}
	for p.peek().Type != GREATER {
		if len(lambda.Params) > 0 {
			if _, err := p.expect(COMMA); err != nil {
				return nil, err
			}
		}
		typeTok := p.peek()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		paramTok, err := p.expect(IDENTIFIER)
		if err != nil {
			return nil, err
		}
		param := &ast.Param{Meta: at(typeTok), Name: &ast.Identifier{Meta: at(paramTok), Name: paramTok.Lexeme}}
		param.SetType(t)
		lambda.Params = append(lambda.Params, param)
	}
	p.advance() // >
	if _, err := p.expect(ARROW); err != nil {
		return nil, err
	}

	if p.peek().Type == VOID {
		p.advance()
		lambda.Result = types.Void
	} else if lambda.Result, err = p.parseType(); err != nil {
		return nil, err
	}

	if lambda.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return &ast.Function{
		Meta:   at(kw),
		Name:   &ast.Identifier{Meta: at(nameTok), Name: nameTok.Lexeme},
		Lambda: lambda,
	}, nil
}

// Parse builds the program tree from tokens and links parent pointers.
func Parse(tokens []Token, rawSource string) (*ast.Program, error) {
	p := NewParser(tokens, rawSource)
	prog := &ast.Program{Meta: at(p.peek())}

	for p.peek().Type == FUNC {
		fn, err := p.parseFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}

	tok := p.peek()
	if tok.Type != EXEC {
		return nil, p.fmtError(tok, "expected func or exec, got %s (%q)", tok.Type, tok.Lexeme)
	}
	p.advance()
	main, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	prog.Main = main

	if tok := p.peek(); tok.Type != EOF {
		return nil, p.fmtError(tok, "unexpected %s (%q) after exec block", tok.Type, tok.Lexeme)
	}
	ast.Link(prog)
	return prog, nil
}
