package compiler

import (
	"fmt"

	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/codegen"
)

// Result holds the products of every stage, so tools can dump them.
type Result struct {
	Tokens  []Token
	Program *ast.Program
	Code    []asm.Instruction
}

// Compile runs src through every stage. Errors carry the name of the stage
// that failed; on error the stages that succeeded are still in the result.
func Compile(src string, opts codegen.Options) (*Result, error) {
	res := &Result{}

	tokens, err := Lex(src)
	if err != nil {
		return res, fmt.Errorf("lex error: %w", err)
	}
	res.Tokens = tokens

	prog, err := Parse(tokens, src)
	if err != nil {
		return res, fmt.Errorf("parse error: %w", err)
	}
	res.Program = prog

	if err := Analyze(prog, src); err != nil {
		return res, fmt.Errorf("semantic error: %w", err)
	}

	code, err := codegen.Generate(prog, opts)
	if err != nil {
		return res, fmt.Errorf("codegen error: %w", err)
	}
	res.Code = code

	return res, nil
}
