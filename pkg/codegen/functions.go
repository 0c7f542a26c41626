package codegen

import (
	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

// Functions use a frame stack that grows down from the top of memory.
// A caller pushes the arguments onto it in order and executes Call. The
// callee saves the caller's frame pointer and its return address just below
// the arguments, points the frame pointer at the last argument and reserves
// its locals below the saved words. Results come back on the operand stack.

// adjustStackPointer adds delta to the frame stack pointer.
func adjustStackPointer(f *asm.Fragment, delta int32) {
	f.AddLabel(asm.PushD, abi.StackPointer)
	f.AddLabel(asm.PushD, abi.StackPointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, delta)
	f.Add(asm.Add)
	f.Add(asm.StoreI)
}

// framePointerOffset pushes the frame pointer plus delta.
func framePointerOffset(f *asm.Fragment, delta int32) {
	f.AddLabel(asm.PushD, abi.FramePointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, delta)
	f.Add(asm.Add)
}

func (g *generator) function(fn *ast.Function) *asm.Fragment {
	defer g.enter(fn)()
	lambda := fn.Lambda
	g.requireType(lambda)
	lt, ok := lambda.Type().(*types.Lambda)
	if !ok {
		g.fail(fn, "function %s has type %s", fn.Name.Name, lambda.Type())
	}
	exit := g.labels.Group("function-exit").Label(fn.Name.Name)
	g.exits[lambda] = exit

	f := asm.NewFragment()
	f.AddLabel(asm.Label, g.funcs[fn])

	// [return address]
	f.AddLabel(asm.PushD, abi.StackPointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, -abi.FrameDynamicLink)
	f.Add(asm.Add)
	f.AddLabel(asm.PushD, abi.FramePointer)
	f.Add(asm.LoadI)
	f.Add(asm.StoreI)
	f.AddLabel(asm.PushD, abi.StackPointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, -abi.FrameReturnAddress)
	f.Add(asm.Add)
	f.Add(asm.Exchange)
	f.Add(asm.StoreI)
	f.AddLabel(asm.PushD, abi.FramePointer)
	f.AddLabel(asm.PushD, abi.StackPointer)
	f.Add(asm.LoadI)
	f.Add(asm.StoreI)
	adjustStackPointer(f, -int32(abi.FrameLinkSize+lambda.LocalSize))

	f.Append(g.block(lambda.Body))
	if lt.Result.Equal(types.Void) {
		f.AddLabel(asm.Jump, exit)
	} else {
		f.AddLabel(asm.Jump, abi.MissingReturn)
	}

	// [result words]
	f.AddLabel(asm.Label, exit)
	framePointerOffset(f, -abi.FrameReturnAddress)
	f.Add(asm.LoadI)
	f.AddLabel(asm.PushD, abi.StackPointer)
	framePointerOffset(f, int32(lambda.ArgSize))
	f.Add(asm.StoreI)
	f.AddLabel(asm.PushD, abi.FramePointer)
	framePointerOffset(f, -abi.FrameDynamicLink)
	f.Add(asm.LoadI)
	f.Add(asm.StoreI)
	f.Add(asm.Return)
	return f
}

func (g *generator) returnStmt(r *ast.Return) *asm.Fragment {
	lambda := ast.EnclosingLambda(r)
	if lambda == nil {
		g.fail(r, "return outside a function")
	}
	exit, ok := g.exits[lambda]
	if !ok {
		g.fail(r, "return from a function that is not being lowered")
	}
	lt, ok := lambda.Type().(*types.Lambda)
	if !ok {
		g.fail(r, "enclosing function has type %s", lambda.Type())
	}

	f := asm.NewFragment()
	switch {
	case r.Value == nil && !lt.Result.Equal(types.Void):
		g.fail(r, "missing %s result", lt.Result)
	case r.Value != nil && lt.Result.Equal(types.Void):
		g.fail(r, "void function returns a value")
	case r.Value != nil:
		f.Append(g.valueAs(r.Value, lt.Result))
	}
	f.AddLabel(asm.Jump, exit)
	return f
}

// call pushes each argument onto the frame stack and calls the function,
// leaving its result on the operand stack.
func (g *generator) call(c *ast.Call) *asm.Fragment {
	if c.Target == nil {
		g.fail(c, "call to %s has no target", c.Callee.Name)
	}
	label, ok := g.funcs[c.Target]
	if !ok {
		g.fail(c, "call to unknown function %s", c.Callee.Name)
	}
	params := c.Target.Lambda.Params
	if len(params) != len(c.Args) {
		g.fail(c, "%s takes %d arguments, got %d", c.Callee.Name, len(params), len(c.Args))
	}

	f := asm.NewFragment()
	for i, arg := range c.Args {
		t := params[i].Type()
		adjustStackPointer(f, -int32(t.Size()))
		f.AddLabel(asm.PushD, abi.StackPointer)
		f.Add(asm.LoadI)
		f.Append(g.valueAs(arg, t))
		g.store(arg, f, t)
	}
	f.AddLabel(asm.Call, label)
	return f.MarkValue()
}
