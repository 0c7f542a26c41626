// Command pikadump prints every stage of compiling a Pika program: source,
// tokens, tree, symbols and the generated assembly.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tebeka/atexit"

	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/codegen"
	"pikac/pkg/compiler"
	"pikac/pkg/utils"
)

const testSource = `func sq <int n> -> int {
	return n * n;
}
exec {
	var x := 10;
	print sq(x), _n_;
}
`

func main() {
	src := testSource
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			atexit.Exit(1)
		}
		src = string(data)
	}

	out := bufio.NewWriter(os.Stdout)
	atexit.Register(func() { out.Flush() })
	if err := dump(out, src); err != nil {
		out.Flush()
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// dump writes each stage to w and stops at the first stage that fails.
func dump(w io.Writer, src string) error {
	fmt.Fprintf(w, "Source:\n%s\n", src)

	tokens, err := compiler.Lex(src)
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	fmt.Fprintf(w, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(w, " ", tok)
	}
	fmt.Fprintln(w)

	prog, err := compiler.Parse(tokens, src)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}

	a := compiler.NewAnalyzer(src)
	a.Program(prog)
	if err := a.Err(); err != nil {
		fmt.Fprintln(w, "AST")
		fmt.Fprintln(w, ast.Dump(prog))
		return fmt.Errorf("semantic error: %w", err)
	}
	fmt.Fprintln(w, "AST")
	fmt.Fprintln(w, ast.Dump(prog))
	fmt.Fprint(w, a.Symbols())
	fmt.Fprintln(w)

	code, err := codegen.Generate(prog, codegen.Options{Comments: true})
	if err != nil {
		return fmt.Errorf("codegen error: %w", err)
	}
	fmt.Fprintln(w, "Generated Assembly")
	fmt.Fprint(w, asm.Format(code))
	fmt.Fprintln(w)
	fmt.Fprintln(w, utils.ListingTable(code))
	fmt.Fprintln(w, utils.ScratchTable())
	return nil
}
