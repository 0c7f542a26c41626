package compiler

import (
	"errors"
	"fmt"
	"strings"

	"pikac/pkg/abi"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// Analyzer resolves every identifier to a binding, attaches a type to every
// expression and computes storage sizes. It keeps going after an error so
// one run reports as much as possible; an expression that already failed
// has type types.Error and produces no further reports.
type Analyzer struct {
	syms        *SymbolTable
	sourceLines []string
	errs        []error

	loops  int        // enclosing while loops in the current body
	result types.Type // result of the function being checked, nil in exec
}

func NewAnalyzer(rawSource string) *Analyzer {
	return &Analyzer{
		syms:        NewSymbolTable(),
		sourceLines: strings.Split(rawSource, "\n"),
	}
}

// Analyze checks prog in place. Function signatures are collected first so
// calls may appear before definitions and functions may recurse.
func Analyze(prog *ast.Program, rawSource string) error {
	a := NewAnalyzer(rawSource)
	a.Program(prog)
	return a.Err()
}

// Err joins every reported problem, or returns nil.
func (a *Analyzer) Err() error {
	return errors.Join(a.errs...)
}

// Symbols exposes the table, for dumps.
func (a *Analyzer) Symbols() *SymbolTable {
	return a.syms
}

func (a *Analyzer) errorf(n ast.Node, format string, args ...any) {
	a.errs = append(a.errs, sourceError(a.sourceLines, n.Loc().Line, fmt.Sprintf(format, args...)))
}

func (a *Analyzer) Program(prog *ast.Program) {
	for _, fn := range prog.Functions {
		a.signature(fn)
	}
	for _, fn := range prog.Functions {
		a.function(fn)
	}
	a.statements(prog.Main)
	prog.GlobalSize = a.syms.GlobalSize()
}

func (a *Analyzer) signature(fn *ast.Function) {
	lt := &types.Lambda{Result: fn.Lambda.Result}
	for _, p := range fn.Lambda.Params {
		lt.Params = append(lt.Params, p.Type())
	}
	fn.Lambda.SetType(lt)
	fn.Name.SetType(lt)
	if _, ok := a.syms.DefineFunction(fn, lt); !ok {
		a.errorf(fn.Name, "function %s already defined", fn.Name.Name)
	}
}

func (a *Analyzer) function(fn *ast.Function) {
	lambda := fn.Lambda
	argSize, dup := a.syms.EnterFunction(lambda.Params)
	if dup != nil {
		a.errorf(dup, "parameter %s declared twice", dup.Name.Name)
	}
	for _, p := range lambda.Params {
		sym, _ := a.syms.Lookup(p.Name.Name)
		p.Name.SetType(p.Type())
		p.Name.Binding = sym.Binding
	}

	a.result, a.loops = lambda.Result, 0
	a.statements(lambda.Body)
	a.result = nil

	lambda.ArgSize = argSize
	lambda.LocalSize = a.syms.ExitFunction()
}

// statements checks a block's statements in the current scope.
func (a *Analyzer) statements(b *ast.Block) {
	for _, s := range b.Stmts {
		a.stmt(s)
	}
}

func (a *Analyzer) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Declaration:
		a.declaration(s)
	case *ast.Assign:
		a.assign(s)
	case *ast.Block:
		a.syms.EnterScope()
		a.statements(s)
		a.syms.ExitScope()
	case *ast.If:
		a.condition(s.Cond, "if")
		a.syms.EnterScope()
		a.statements(s.Then)
		a.syms.ExitScope()
		if s.Else != nil {
			a.syms.EnterScope()
			a.statements(s.Else)
			a.syms.ExitScope()
		}
	case *ast.While:
		a.condition(s.Cond, "while")
		a.loops++
		a.syms.EnterScope()
		a.statements(s.Body)
		a.syms.ExitScope()
		a.loops--
	case *ast.Break:
		if a.loops == 0 {
			a.errorf(s, "break outside a while loop")
		}
	case *ast.Continue:
		if a.loops == 0 {
			a.errorf(s, "continue outside a while loop")
		}
	case *ast.Return:
		a.returnStmt(s)
	case *ast.CallStmt:
		a.call(s.Call)
	case *ast.Print:
		for _, item := range s.Items {
			if e, ok := item.(ast.Expr); ok {
				if d := arrayDepth(a.value(e)); d > abi.MaxArrayPrintDepth {
					a.errorf(e, "cannot print %s: arrays nested %d deep, at most %d", e, d, abi.MaxArrayPrintDepth)
				}
			}
		}
	default:
		a.errorf(s, "unexpected %s", s.Kind())
	}
}

// arrayDepth counts the array levels of t.
func arrayDepth(t types.Type) int {
	n := 0
	for {
		arr, ok := t.(*types.Array)
		if !ok {
			return n
		}
		n++
		t = arr.Elem
	}
}

func (a *Analyzer) declaration(d *ast.Declaration) {
	t := a.value(d.Init)
	sym, fresh := a.syms.Allocate(d.Name.Name, t, d.Const)
	if !fresh {
		a.errorf(d.Name, "%s already declared in this scope", d.Name.Name)
	}
	d.Name.SetType(sym.Type)
	d.Name.Binding = sym.Binding
}

func (a *Analyzer) assign(s *ast.Assign) {
	var target types.Type
	switch t := s.Target.(type) {
	case *ast.Identifier:
		sym, ok := a.lookupVariable(t)
		if !ok {
			target = types.Error
			break
		}
		if sym.Const {
			a.errorf(t, "identifier declared as const may not be reassigned")
		}
		target = sym.Type
	default:
		target = a.value(s.Target)
	}

	value := a.value(s.Value)
	if isError(target) || isError(value) {
		return
	}
	if !types.Promotable(value, target) {
		a.errorf(s, "cannot assign %s to %s of type %s", value, s.Target, target)
	}
}

func (a *Analyzer) condition(e ast.Expr, stmt string) {
	t := a.value(e)
	if !isError(t) && !t.Equal(types.Boolean) {
		a.errorf(e, "%s condition must be bool, got %s", stmt, t)
	}
}

func (a *Analyzer) returnStmt(r *ast.Return) {
	if a.result == nil {
		a.errorf(r, "return outside a function")
		if r.Value != nil {
			a.value(r.Value)
		}
		return
	}
	if r.Value == nil {
		if !a.result.Equal(types.Void) {
			a.errorf(r, "return needs a %s value", a.result)
		}
		return
	}
	t := a.value(r.Value)
	switch {
	case a.result.Equal(types.Void):
		a.errorf(r, "void function cannot return a value")
	case isError(t):
	case !types.Promotable(t, a.result):
		a.errorf(r, "cannot return %s from a function returning %s", t, a.result)
	}
}

// lookupVariable resolves a name that must denote storage and binds it.
func (a *Analyzer) lookupVariable(id *ast.Identifier) (Symbol, bool) {
	sym, ok := a.syms.Lookup(id.Name)
	if !ok {
		a.errorf(id, "undeclared identifier %s", id.Name)
		id.SetType(types.Error)
		return sym, false
	}
	if sym.Function != nil {
		a.errorf(id, "function %s used as a variable", id.Name)
		id.SetType(types.Error)
		return sym, false
	}
	id.SetType(sym.Type)
	id.Binding = sym.Binding
	return sym, true
}

// value checks an expression whose result is used and returns its type.
func (a *Analyzer) value(e ast.Expr) types.Type {
	t := a.expr(e)
	if t.Equal(types.Void) {
		a.errorf(e, "%s has no value", e)
		t = types.Error
		e.SetType(t)
	}
	return t
}

func (a *Analyzer) expr(e ast.Expr) types.Type {
	t := a.exprType(e)
	e.SetType(t)
	return t
}

func (a *Analyzer) exprType(e ast.Expr) types.Type {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return types.Integer
	case *ast.FloatLiteral:
		return types.Float
	case *ast.CharLiteral:
		return types.Character
	case *ast.StringLiteral:
		return types.String
	case *ast.BoolLiteral:
		return types.Boolean
	case *ast.Identifier:
		if _, ok := a.lookupVariable(e); !ok {
			return types.Error
		}
		return e.Type()
	case *ast.Binary:
		return a.binary(e)
	case *ast.Unary:
		return a.unary(e)
	case *ast.Cast:
		from := a.value(e.Operand)
		if isError(from) {
			return types.Error
		}
		if !types.Castable(from, e.Target) {
			a.errorf(e, "cannot cast %s to %s", from, e.Target)
			return types.Error
		}
		return e.Target
	case *ast.Index:
		return a.index(e)
	case *ast.ArrayLiteral:
		return a.arrayLiteral(e)
	case *ast.NewArray:
		if !a.integer(e.Length, "array length") {
			return types.Error
		}
		return types.ArrayOf(e.Elem)
	case *ast.Length:
		t := a.value(e.Operand)
		if isError(t) {
			return types.Error
		}
		if _, ok := t.(*types.Array); !ok {
			a.errorf(e, "length needs an array, got %s", t)
			return types.Error
		}
		return types.Integer
	case *ast.Call:
		return a.call(e)
	}
	a.errorf(e, "unexpected %s", e.Kind())
	return types.Error
}

// integer checks that e can be used where an int is expected.
func (a *Analyzer) integer(e ast.Expr, what string) bool {
	t := a.value(e)
	if isError(t) {
		return false
	}
	if !types.Promotable(t, types.Integer) {
		a.errorf(e, "%s must be int, got %s", what, t)
		return false
	}
	return true
}

func (a *Analyzer) binary(b *ast.Binary) types.Type {
	lt := a.value(b.Left)
	rt := a.value(b.Right)
	if isError(lt) || isError(rt) {
		return types.Error
	}
	bad := func() types.Type {
		a.errorf(b, "operator %s not defined for types [%s, %s]", b.Op, lt, rt)
		return types.Error
	}

	switch {
	case b.Op.IsLogical():
		if !lt.Equal(types.Boolean) || !rt.Equal(types.Boolean) {
			return bad()
		}
		return types.Boolean

	case b.Op == ast.OpOver:
		if !types.Promotable(lt, types.Integer) || !types.Promotable(rt, types.Integer) {
			return bad()
		}
		return types.Rational

	case b.Op.IsRationalOp():
		if (!lt.Equal(types.Rational) && !lt.Equal(types.Float)) || !types.Promotable(rt, types.Integer) {
			return bad()
		}
		if b.Op == ast.OpExpressOver {
			return types.Integer
		}
		return types.Rational

	case b.Op.IsComparison():
		common, ok := types.CommonType(lt, rt)
		if !ok {
			return bad()
		}
		if b.Op != ast.OpEqual && b.Op != ast.OpNotEqual {
			if !types.IsNumeric(types.ArithmeticType(common)) {
				return bad()
			}
		}
		return types.Boolean

	case b.Op.IsArithmetic():
		common, ok := types.CommonType(lt, rt)
		if !ok || !types.IsNumeric(types.ArithmeticType(common)) {
			return bad()
		}
		return types.ArithmeticType(common)
	}
	return bad()
}

func (a *Analyzer) unary(u *ast.Unary) types.Type {
	t := a.value(u.Operand)
	if isError(t) {
		return types.Error
	}
	switch u.Op {
	case ast.OpNot:
		if t.Equal(types.Boolean) {
			return types.Boolean
		}
	case ast.OpNegate:
		if nt := types.ArithmeticType(t); types.IsNumeric(nt) {
			return nt
		}
	}
	a.errorf(u, "operator %s not defined for type %s", u.Op, t)
	return types.Error
}

func (a *Analyzer) index(e *ast.Index) types.Type {
	t := a.value(e.Array)
	okIndex := a.integer(e.Index, "array index")
	if isError(t) || !okIndex {
		return types.Error
	}
	arr, ok := t.(*types.Array)
	if !ok {
		a.errorf(e, "cannot index %s of type %s", e.Array, t)
		return types.Error
	}
	return arr.Elem
}

// arrayLiteral types [e0, e1, ...] as an array of the elements' common type.
func (a *Analyzer) arrayLiteral(e *ast.ArrayLiteral) types.Type {
	var elem types.Type
	failed := false
	for _, el := range e.Elements {
		t := a.value(el)
		if isError(t) {
			failed = true
			continue
		}
		if elem == nil {
			elem = t
			continue
		}
		common, ok := types.CommonType(elem, t)
		if !ok {
			a.errorf(el, "array element of type %s does not match %s", t, elem)
			failed = true
			continue
		}
		elem = common
	}
	if failed || elem == nil {
		return types.Error
	}
	return types.ArrayOf(elem)
}

// call resolves the callee and checks the arguments. The result may be
// void; value rejects that where a value is needed.
func (a *Analyzer) call(c *ast.Call) types.Type {
	var argTypes []types.Type
	for _, arg := range c.Args {
		argTypes = append(argTypes, a.value(arg))
	}

	sym, ok := a.syms.Lookup(c.Callee.Name)
	if !ok || sym.Function == nil {
		if !ok {
			a.errorf(c, "undefined function %s", c.Callee.Name)
		} else {
			a.errorf(c, "%s is not a function", c.Callee.Name)
		}
		c.SetType(types.Error)
		return types.Error
	}
	lt := sym.Type.(*types.Lambda)
	c.Callee.SetType(lt)
	c.Target = sym.Function
	c.SetType(lt.Result)

	if len(argTypes) != len(lt.Params) {
		a.errorf(c, "%s takes %d arguments, got %d", c.Callee.Name, len(lt.Params), len(argTypes))
		return lt.Result
	}
	for i, t := range argTypes {
		if isError(t) {
			continue
		}
		if !types.Promotable(t, lt.Params[i]) {
			a.errorf(c.Args[i], "argument %d of %s must be %s, got %s", i+1, c.Callee.Name, lt.Params[i], t)
		}
	}
	return lt.Result
}

func isError(t types.Type) bool {
	return t.Equal(types.Error)
}
