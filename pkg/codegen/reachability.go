package codegen

import "pikac/pkg/ast"

// reachableFunctions returns the functions the exec block can call, directly
// or through other functions. Only those are emitted.
func reachableFunctions(prog *ast.Program) map[*ast.Function]bool {
	reachable := make(map[*ast.Function]bool)
	var worklist []*ast.Function

	addReachable := func(fn *ast.Function) {
		if fn != nil && !reachable[fn] {
			reachable[fn] = true
			worklist = append(worklist, fn)
		}
	}

	for _, fn := range calledFunctions(prog.Main) {
		addReachable(fn)
	}
	for len(worklist) > 0 {
		curr := worklist[0]
		worklist = worklist[1:]
		for _, fn := range calledFunctions(curr.Lambda) {
			addReachable(fn)
		}
	}
	return reachable
}

// calledFunctions lists the call targets found under root, in tree order.
func calledFunctions(root ast.Node) []*ast.Function {
	var calls []*ast.Function
	ast.Inspect(root, func(n ast.Node) bool {
		if c, ok := n.(*ast.Call); ok {
			calls = append(calls, c.Target)
		}
		return true
	})
	return calls
}
