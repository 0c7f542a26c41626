package compiler

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	// Literals
	IDENTIFIER // variable / function name
	INTEGER    // decimal integer literal
	FLOAT_LIT  // floating literal, 1.5 or 2E-3
	CHAR_LIT   // character literal ^c^
	STRING_LIT // string literal "..."

	// Keywords
	EXEC     // "exec"
	FUNC     // "func"
	CONST    // "const"
	VAR      // "var"
	PRINT    // "print"
	IF       // "if"
	ELSE     // "else"
	WHILE    // "while"
	BREAK    // "break"
	CONTINUE // "continue"
	RETURN   // "return"
	CALL     // "call"
	TRUE     // "true"
	FALSE    // "false"
	LENGTH   // "length"
	NEW      // "new"
	OVER     // "over", spelled-out //
	CAST     // "cast", spelled-out |

	// Type keywords
	BOOL   // "bool"
	CHAR   // "char"
	INT    // "int"
	FLOAT  // "float"
	STRING // "string"
	RAT    // "rat"
	VOID   // "void"

	// Paired delimiters
	LBRACE   // {
	RBRACE   // }
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Punctuation
	SEMICOLON // ;
	COMMA     // ,
	PIPE      // |
	ARROW     // ->
	ASSIGN    // :=

	// Arithmetic operators
	PLUS        // +
	MINUS       // -
	STAR        // *
	SLASH       // /
	SLASH2      // //
	SLASH3      // ///
	SLASH4      // ////
	AND_LOGICAL // &&
	OR_LOGICAL  // ||
	NOT         // !

	// Comparison
	EQUALS     // ==
	NOT_EQ     // !=
	LESS       // <
	GREATER    // >
	LESS_EQ    // <=
	GREATER_EQ // >=

	// Print markers
	NEWLINE_MARK // _n_
	TAB_MARK     // _t_
	SPACE_MARK   // \s
)

var tokenNames = [...]string{
	EOF:          "EOF",
	IDENTIFIER:   "IDENTIFIER",
	INTEGER:      "INTEGER",
	FLOAT_LIT:    "FLOAT_LIT",
	CHAR_LIT:     "CHAR_LIT",
	STRING_LIT:   "STRING_LIT",
	EXEC:         "EXEC",
	FUNC:         "FUNC",
	CONST:        "CONST",
	VAR:          "VAR",
	PRINT:        "PRINT",
	IF:           "IF",
	ELSE:         "ELSE",
	WHILE:        "WHILE",
	BREAK:        "BREAK",
	CONTINUE:     "CONTINUE",
	RETURN:       "RETURN",
	CALL:         "CALL",
	TRUE:         "TRUE",
	FALSE:        "FALSE",
	LENGTH:       "LENGTH",
	NEW:          "NEW",
	OVER:         "OVER",
	CAST:         "CAST",
	BOOL:         "BOOL",
	CHAR:         "CHAR",
	INT:          "INT",
	FLOAT:        "FLOAT",
	STRING:       "STRING",
	RAT:          "RAT",
	VOID:         "VOID",
	LBRACE:       "LBRACE",
	RBRACE:       "RBRACE",
	LPAREN:       "LPAREN",
	RPAREN:       "RPAREN",
	LBRACKET:     "LBRACKET",
	RBRACKET:     "RBRACKET",
	SEMICOLON:    "SEMICOLON",
	COMMA:        "COMMA",
	PIPE:         "PIPE",
	ARROW:        "ARROW",
	ASSIGN:       "ASSIGN",
	PLUS:         "PLUS",
	MINUS:        "MINUS",
	STAR:         "STAR",
	SLASH:        "SLASH",
	SLASH2:       "SLASH2",
	SLASH3:       "SLASH3",
	SLASH4:       "SLASH4",
	AND_LOGICAL:  "AND_LOGICAL",
	OR_LOGICAL:   "OR_LOGICAL",
	NOT:          "NOT",
	EQUALS:       "EQUALS",
	NOT_EQ:       "NOT_EQ",
	LESS:         "LESS",
	GREATER:      "GREATER",
	LESS_EQ:      "LESS_EQ",
	GREATER_EQ:   "GREATER_EQ",
	NEWLINE_MARK: "NEWLINE_MARK",
	TAB_MARK:     "TAB_MARK",
	SPACE_MARK:   "SPACE_MARK",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the source text; the decoded value for string and char literals
	Line   int    // 1-based source line
	Col    int    // 1-based column of the first character
}

func (t Token) String() string {
	return fmt.Sprintf("%-12s %-14q  line %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
