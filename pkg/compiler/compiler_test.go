package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/codegen"
	"pikac/pkg/vm"
)

func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("expected output to contain %q, but it didn't.\nOutput:\n%s", expected, code)
	}
}

// emitted renders the instructions a binding appends for its address.
func emitted(b ast.Binding) []string {
	f := asm.NewFragment()
	b.EmitAddress(f)
	var lines []string
	for _, in := range f.Instructions() {
		lines = append(lines, in.String())
	}
	return lines
}

// runPika compiles src, runs it and returns what it printed.
func runPika(t *testing.T, src string) string {
	t.Helper()
	res, err := Compile(src, codegen.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	var out bytes.Buffer
	cfg := vm.DefaultConfig()
	cfg.Output = &out
	cfg.MaxSteps = 5_000_000
	m, err := vm.New(res.Code, cfg)
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v\noutput so far: %s", err, out.String())
	}
	return out.String()
}

func TestCompileStages(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		prefix string
		tokens bool
		tree   bool
	}{
		{"Lex", "exec { @ }", "lex error: ", false, false},
		{"Parse", "exec { print 1 }", "parse error: ", true, false},
		{"Semantic", "exec { print y; }", "semantic error: ", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compile(tt.src, codegen.Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.prefix) {
				t.Errorf("expected prefix %q, got %v", tt.prefix, err)
			}
			if (res.Tokens != nil) != tt.tokens {
				t.Errorf("tokens kept = %v, want %v", res.Tokens != nil, tt.tokens)
			}
			if (res.Program != nil) != tt.tree {
				t.Errorf("tree kept = %v, want %v", res.Program != nil, tt.tree)
			}
			if res.Code != nil {
				t.Error("no code expected on error")
			}
		})
	}
}

func TestCompileProducesRunnableProgram(t *testing.T) {
	res, err := Compile("exec { const x := 3 + 4; print x; }", codegen.Options{Comments: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Program.GlobalSize != 4 {
		t.Errorf("global size: expected 4, got %d", res.Program.GlobalSize)
	}
	text := asm.Format(res.Code)
	assertContains(t, text, "; const x := (3 + 4)")
	if first := res.Code[0].String(); first != "Jump $$main" {
		t.Errorf("first instruction: expected Jump $$main, got %s", first)
	}
}

func TestCompileCodegenContract(t *testing.T) {
	// A tree that skipped analysis breaks the generator's contract.
	tokens, _ := Lex("exec { print 1; }")
	prog, err := Parse(tokens, "exec { print 1; }")
	if err != nil {
		t.Fatal(err)
	}
	_, err = codegen.Generate(prog, codegen.Options{})
	var ce *codegen.ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *codegen.ContractError, got %v", err)
	}
	assertContains(t, err.Error(), "compilation aborted")
}
