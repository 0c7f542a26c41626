// Package codegen lowers a type-annotated Pika syntax tree into instructions
// for the stack machine. Lowering is a single post-order walk: every node
// asks its children for their fragments and combines them into its own.
package codegen

import (
	"errors"
	"fmt"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// Options tunes the emitted program.
type Options struct {
	// Comments annotates the first instruction of each statement with the
	// statement's source form.
	Comments bool
}

// ContractError reports a tree the generator cannot lower: an unresolved
// type, a missing binding, or an operator/type pair without a rule. It
// always points at a defect in an earlier pass.
type ContractError struct {
	Kind   string
	Loc    ast.Location
	Detail string
}

func (e *ContractError) Error() string {
	if e.Loc.Line > 0 {
		return fmt.Sprintf("compilation aborted: %s at %s: %s", e.Kind, e.Loc, e.Detail)
	}
	return fmt.Sprintf("compilation aborted: %s: %s", e.Kind, e.Detail)
}

type loopLabels struct {
	start string
	body  string
	end   string
}

type generator struct {
	opts   Options
	labels *Labeller

	loops map[*ast.While]loopLabels
	exits map[*ast.Lambda]string
	funcs map[*ast.Function]string

	// literal text -> data label, and bindings of string constants -> the
	// data label of their literal
	stringLabels map[string]string
	stringConsts map[ast.Binding]string
	stringData   *asm.Fragment

	// nodes being lowered, innermost last
	stack []ast.Node
}

func newGenerator(opts Options) *generator {
	return &generator{
		opts:         opts,
		labels:       NewLabeller(),
		loops:        make(map[*ast.While]loopLabels),
		exits:        make(map[*ast.Lambda]string),
		funcs:        make(map[*ast.Function]string),
		stringLabels: make(map[string]string),
		stringConsts: make(map[ast.Binding]string),
		stringData:   asm.NewFragment(),
	}
}

// Generate lowers prog to a complete program: runtime preamble, global data
// block, the exec block under the main label ending in Halt, function
// bodies, and string data. A tree that breaks the generator's contract
// yields a *ContractError.
func Generate(prog *ast.Program, opts Options) (code []asm.Instruction, err error) {
	g := newGenerator(opts)
	defer func() {
		if r := recover(); r != nil {
			ce := g.contractError(r)
			if ce == nil {
				panic(r)
			}
			code, err = nil, ce
		}
	}()
	return g.program(prog).Instructions(), nil
}

func (g *generator) program(prog *ast.Program) *asm.Fragment {
	if prog == nil || prog.Main == nil {
		panic(&ContractError{Kind: "program", Detail: "no exec block"})
	}
	defer g.enter(prog)()

	live := reachableFunctions(prog)
	for _, fn := range prog.Functions {
		g.funcs[fn] = g.labels.Group("function").Label(fn.Name.Name)
	}

	f := asm.NewFragment()
	f.Append(g.preamble())
	f.AddLabel(asm.DLabel, abi.GlobalMemoryBlock)
	f.AddInt(asm.DataZ, int32(prog.GlobalSize))
	f.AddLabel(asm.Label, abi.MainLabel)
	f.Append(runtimeInit())
	f.Append(g.block(prog.Main))
	f.Add(asm.Halt)
	for _, fn := range prog.Functions {
		if live[fn] {
			f.Append(g.function(fn))
		}
	}
	f.Append(g.stringData)
	f.AddLabel(asm.DLabel, abi.HeapMemory)
	return f
}

// enter records n as the node being lowered; call the returned func when done.
func (g *generator) enter(n ast.Node) func() {
	g.stack = append(g.stack, n)
	return func() { g.stack = g.stack[:len(g.stack)-1] }
}

func (g *generator) fail(n ast.Node, format string, args ...any) {
	panic(&ContractError{Kind: n.Kind(), Loc: n.Loc(), Detail: fmt.Sprintf(format, args...)})
}

// contractError converts a recovered panic into a *ContractError, or
// returns nil for panics that are not contract violations.
func (g *generator) contractError(r any) *ContractError {
	err, ok := r.(error)
	if !ok {
		return nil
	}
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce
	}
	var fe *asm.ContractError
	if !errors.As(err, &fe) {
		return nil
	}
	out := &ContractError{Kind: "fragment", Detail: fe.Detail}
	if len(g.stack) > 0 {
		n := g.stack[len(g.stack)-1]
		out.Kind, out.Loc = n.Kind(), n.Loc()
	}
	return out
}

func (g *generator) requireType(n ast.Node) {
	if !types.IsConcrete(n.Type()) {
		g.fail(n, "unresolved type %s", n.Type())
	}
}

// value lowers e to a Value fragment.
func (g *generator) value(e ast.Expr) *asm.Fragment {
	return g.expr(e).AsValue(e.Type())
}

// valueAs lowers e to a Value fragment of type to, inserting the implicit
// promotion when e has a narrower type.
func (g *generator) valueAs(e ast.Expr, to types.Type) *asm.Fragment {
	from := e.Type()
	f := g.value(e)
	if from.Equal(to) {
		return f
	}
	if !types.Promotable(from, to) {
		g.fail(e, "cannot promote %s to %s", from, to)
	}
	out := asm.NewFragment().Append(f)
	g.convert(out, from, to)
	return out.MarkValue()
}

// address lowers a storage location to an Address fragment.
func (g *generator) address(e ast.Expr) *asm.Fragment {
	f := g.expr(e)
	if f.Kind() != asm.Address {
		g.fail(e, "%s is not addressable", e)
	}
	return f
}

func (g *generator) expr(e ast.Expr) *asm.Fragment {
	defer g.enter(e)()
	g.requireType(e)

	switch e := e.(type) {
	case *ast.IntLiteral:
		return asm.NewFragment().AddInt(asm.PushI, e.Value).MarkValue()
	case *ast.FloatLiteral:
		return asm.NewFragment().AddFloat(asm.PushF, e.Value).MarkValue()
	case *ast.CharLiteral:
		return asm.NewFragment().AddInt(asm.PushI, int32(e.Value)).MarkValue()
	case *ast.BoolLiteral:
		return asm.NewFragment().AddInt(asm.PushI, boolWord(e.Value)).MarkValue()
	case *ast.StringLiteral:
		return asm.NewFragment().AddLabel(asm.PushD, g.stringLabel(e.Value)).MarkValue()
	case *ast.Identifier:
		return g.identifier(e)
	case *ast.Binary:
		return g.binary(e)
	case *ast.Unary:
		return g.unary(e)
	case *ast.Cast:
		return g.cast(e)
	case *ast.Index:
		return g.index(e)
	case *ast.ArrayLiteral:
		return g.arrayLiteral(e)
	case *ast.NewArray:
		return g.newArray(e)
	case *ast.Length:
		return g.length(e)
	case *ast.Call:
		return g.call(e)
	}
	g.fail(e, "no lowering rule")
	return nil
}

func (g *generator) identifier(id *ast.Identifier) *asm.Fragment {
	if id.Binding == nil {
		g.fail(id, "identifier %q has no binding", id.Name)
	}
	f := asm.NewFragment()
	id.Binding.EmitAddress(f)
	return f.MarkAddress()
}

// stringLabel returns the data label holding text, emitting it once.
func (g *generator) stringLabel(text string) string {
	if label, ok := g.stringLabels[text]; ok {
		return label
	}
	label := g.labels.New("string")
	g.stringData.AddLabel(asm.DLabel, label)
	g.stringData.AddString(asm.DataS, text)
	g.stringLabels[text] = label
	return label
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// storeSlot pops the word on top of the stack into a scratch slot.
func storeSlot(f *asm.Fragment, slot int) {
	f.AddInt(asm.PushI, int32(slot))
	f.Add(asm.Exchange)
	f.Add(asm.StoreI)
}

// loadSlot pushes the word held in a scratch slot.
func loadSlot(f *asm.Fragment, slot int) {
	f.AddInt(asm.PushI, int32(slot))
	f.Add(asm.LoadI)
}

// store appends the typed store for [address, value] on the stack.
func (g *generator) store(n ast.Node, f *asm.Fragment, t types.Type) {
	switch t := t.(type) {
	case types.Primitive:
		switch t {
		case types.Boolean, types.Character:
			f.Add(asm.StoreC)
		case types.Integer, types.String:
			f.Add(asm.StoreI)
		case types.Float:
			f.Add(asm.StoreF)
		case types.Rational:
			storeRational(f)
		default:
			g.fail(n, "no store for type %s", t)
		}
	case *types.Array, *types.Lambda:
		f.Add(asm.StoreI)
	default:
		g.fail(n, "no store for type %v", t)
	}
}

// words is the number of stack entries a value of type t occupies.
func words(t types.Type) int {
	switch {
	case t.Equal(types.Void):
		return 0
	case t.Equal(types.Rational):
		return 2
	}
	return 1
}
