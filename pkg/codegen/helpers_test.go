package codegen

import (
	"bytes"
	"strings"
	"testing"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
	"pikac/pkg/vm"
)

// global is a binding into the global memory block.
type global struct {
	offset int32
}

func (g *global) EmitAddress(f *asm.Fragment) {
	f.AddLabel(asm.PushD, abi.GlobalMemoryBlock)
	f.AddInt(asm.PushI, g.offset)
	f.Add(asm.Add)
}

// globals hands out consecutive global slots.
type globals struct {
	size int32
}

func (gs *globals) declare(name string, t types.Type, init ast.Expr, isConst bool) (*ast.Declaration, *global) {
	b := &global{offset: gs.size}
	gs.size += int32(t.Size())
	id := &ast.Identifier{Name: name, Binding: b}
	id.SetType(t)
	return &ast.Declaration{Name: id, Init: init, Const: isConst}, b
}

func ref(name string, t types.Type, b ast.Binding) *ast.Identifier {
	id := &ast.Identifier{Name: name, Binding: b}
	id.SetType(t)
	return id
}

func typed[N ast.Node](n N, t types.Type) N {
	n.SetType(t)
	return n
}

func intLit(v int32) *ast.IntLiteral { return typed(&ast.IntLiteral{Value: v}, types.Integer) }

func floatLit(v float64) *ast.FloatLiteral {
	return typed(&ast.FloatLiteral{Value: v}, types.Float)
}

func boolLit(v bool) *ast.BoolLiteral { return typed(&ast.BoolLiteral{Value: v}, types.Boolean) }
func charLit(c byte) *ast.CharLiteral { return typed(&ast.CharLiteral{Value: c}, types.Character) }

func strLit(s string) *ast.StringLiteral {
	return typed(&ast.StringLiteral{Value: s}, types.String)
}

func binary(op ast.Operator, l, r ast.Expr, t types.Type) *ast.Binary {
	return typed(&ast.Binary{Op: op, Left: l, Right: r}, t)
}

func over(n, d int32) *ast.Binary {
	return binary(ast.OpOver, intLit(n), intLit(d), types.Rational)
}

func arrayLit(elem types.Type, elems ...ast.Expr) *ast.ArrayLiteral {
	return typed(&ast.ArrayLiteral{Elements: elems}, types.ArrayOf(elem))
}

func printOf(items ...ast.Node) *ast.Print { return &ast.Print{Items: items} }

func newline() *ast.PrintMarker { return &ast.PrintMarker{Marker: ast.Newline} }

// program wraps statements in an exec block and links the tree.
func program(globalSize int32, stmts ...ast.Stmt) *ast.Program {
	p := &ast.Program{Main: &ast.Block{Stmts: stmts}, GlobalSize: int(globalSize)}
	ast.Link(p)
	return p
}

func generate(t *testing.T, p *ast.Program) []asm.Instruction {
	t.Helper()
	code, err := Generate(p, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return code
}

// run generates p, executes it and returns what it printed.
func run(t *testing.T, p *ast.Program) string {
	t.Helper()
	out, err := execute(generate(t, p))
	if err != nil {
		t.Fatalf("run: %v\noutput so far: %s", err, out)
	}
	return out
}

func execute(code []asm.Instruction) (string, error) {
	var out bytes.Buffer
	cfg := vm.DefaultConfig()
	cfg.Output = &out
	cfg.MaxSteps = 1_000_000
	m, err := vm.New(code, cfg)
	if err != nil {
		return "", err
	}
	err = m.Run()
	return out.String(), err
}

func assertContains(t *testing.T, code, expected string) {
	t.Helper()
	if !strings.Contains(code, expected) {
		t.Errorf("expected output to contain %q, but it didn't.\nOutput:\n%s", expected, code)
	}
}

// listing renders a fragment one instruction per line without indentation.
func listing(code []asm.Instruction) string {
	lines := make([]string, len(code))
	for i, in := range code {
		lines[i] = in.String()
	}
	return strings.Join(lines, "\n")
}

// indexOf returns the position of the first instruction rendering as s.
func indexOf(code []asm.Instruction, s string) int {
	for i, in := range code {
		if in.String() == s {
			return i
		}
	}
	return -1
}

// frame is a binding relative to the frame pointer.
type frame struct {
	offset int32
}

func (fr *frame) EmitAddress(f *asm.Fragment) {
	f.AddLabel(asm.PushD, abi.FramePointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, fr.offset)
	f.Add(asm.Add)
}

type param struct {
	name string
	typ  types.Type
}

// function builds a definition whose parameters are bound the way the
// calling convention lays them out: the last one at the frame pointer.
func function(name string, result types.Type, params []param, body func(args []*ast.Identifier) []ast.Stmt) *ast.Function {
	lt := &types.Lambda{Result: result}
	var nodes []*ast.Param
	var args []*ast.Identifier
	offset := int32(0)
	for i := len(params) - 1; i >= 0; i-- {
		b := &frame{offset: offset}
		offset += int32(params[i].typ.Size())
		id := ref(params[i].name, params[i].typ, b)
		nodes = append([]*ast.Param{typed(&ast.Param{Name: ref(params[i].name, params[i].typ, b)}, params[i].typ)}, nodes...)
		args = append([]*ast.Identifier{id}, args...)
	}
	for _, p := range params {
		lt.Params = append(lt.Params, p.typ)
	}
	block := &ast.Block{}
	if body != nil {
		block.Stmts = body(args)
	}
	lambda := typed(&ast.Lambda{Params: nodes, Result: result, Body: block, ArgSize: int(offset)}, types.Type(lt))
	return &ast.Function{Name: ref(name, lt, nil), Lambda: lambda}
}

func call(fn *ast.Function, args ...ast.Expr) *ast.Call {
	lt := fn.Lambda.Type().(*types.Lambda)
	return typed(&ast.Call{Callee: ref(fn.Name.Name, lt, nil), Args: args, Target: fn}, lt.Result)
}

func returns(e ast.Expr) *ast.Return { return &ast.Return{Value: e} }

// programWith is program with function definitions.
func programWith(funcs []*ast.Function, globalSize int32, stmts ...ast.Stmt) *ast.Program {
	p := &ast.Program{Functions: funcs, Main: &ast.Block{Stmts: stmts}, GlobalSize: int(globalSize)}
	ast.Link(p)
	return p
}
