package compiler

import (
	"fmt"
	"sort"
	"strings"

	"pikac/pkg/abi"
	"pikac/pkg/asm"
	"pikac/pkg/ast"
	"pikac/pkg/types"
)

type ScopeType int

const (
	ScopeGlobal ScopeType = iota
	ScopeLocal
	ScopeParam
)

func (s ScopeType) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeLocal:
		return "local"
	}
	return "param"
}

// GlobalBinding addresses a slot in the global memory block.
type GlobalBinding struct {
	Offset int32
}

func (g *GlobalBinding) EmitAddress(f *asm.Fragment) {
	f.AddLabel(asm.PushD, abi.GlobalMemoryBlock)
	f.AddInt(asm.PushI, g.Offset)
	f.Add(asm.Add)
}

// FrameBinding addresses a slot relative to the frame pointer. Parameters
// sit at or above it, locals below the saved link words.
type FrameBinding struct {
	Offset int32
}

func (fb *FrameBinding) EmitAddress(f *asm.Fragment) {
	f.AddLabel(asm.PushD, abi.FramePointer)
	f.Add(asm.LoadI)
	f.AddInt(asm.PushI, fb.Offset)
	f.Add(asm.Add)
}

type Symbol struct {
	Name    string
	Type    types.Type
	Const   bool
	Scope   ScopeType
	Binding ast.Binding
	// Function is set for function names, which carry no storage.
	Function *ast.Function
}

// Offset is the slot offset of a variable symbol.
func (s Symbol) Offset() int32 {
	switch b := s.Binding.(type) {
	case *GlobalBinding:
		return b.Offset
	case *FrameBinding:
		return b.Offset
	}
	return 0
}

// SymbolTable maps names to storage.
// Exec-block variables get consecutive offsets in the global block.
// Function locals get negative offsets from FP below the link words, and
// are never reused within one function.
type SymbolTable struct {
	functions map[string]Symbol

	// Stack of scopes. The first one is the exec block's or the function's
	// outermost scope.
	scopes []map[string]Symbol

	// true while checking a function body
	inFunc bool

	globalSize int
	localSize  int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		functions: make(map[string]Symbol),
		scopes:    []map[string]Symbol{make(map[string]Symbol)},
	}
}

// DefineFunction records a function name. It reports false when the name is
// already taken.
func (s *SymbolTable) DefineFunction(fn *ast.Function, t *types.Lambda) (Symbol, bool) {
	if sym, ok := s.functions[fn.Name.Name]; ok {
		return sym, false
	}
	sym := Symbol{Name: fn.Name.Name, Type: t, Const: true, Scope: ScopeGlobal, Function: fn}
	s.functions[fn.Name.Name] = sym
	return sym, true
}

// EnterFunction starts a fresh frame. Parameters are laid out so the last
// one sits at FP+0 and the first one highest; the returned argument size
// is their total.
func (s *SymbolTable) EnterFunction(params []*ast.Param) (argSize int, dup *ast.Param) {
	s.scopes = append(s.scopes, make(map[string]Symbol))
	s.inFunc = true
	s.localSize = 0

	scope := s.scopes[len(s.scopes)-1]
	offset := 0
	for i := len(params) - 1; i >= 0; i-- {
		p := params[i]
		t := p.Type()
		if _, ok := scope[p.Name.Name]; ok {
			dup = p
		}
		sym := Symbol{Name: p.Name.Name, Type: t, Scope: ScopeParam, Binding: &FrameBinding{Offset: int32(offset)}}
		scope[p.Name.Name] = sym
		offset += t.Size()
	}
	return offset, dup
}

// ExitFunction drops the frame scopes and returns the bytes of locals the
// function reserved.
func (s *SymbolTable) ExitFunction() int {
	s.scopes = s.scopes[:1]
	s.inFunc = false
	return s.localSize
}

func (s *SymbolTable) EnterScope() {
	s.scopes = append(s.scopes, make(map[string]Symbol))
}

func (s *SymbolTable) ExitScope() {
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Allocate assigns storage for name in the CURRENT scope.
// If name is already in the current scope, the existing symbol is returned
// with false.
func (s *SymbolTable) Allocate(name string, t types.Type, isConst bool) (Symbol, bool) {
	scope := s.scopes[len(s.scopes)-1]
	if sym, ok := scope[name]; ok {
		return sym, false
	}

	sym := Symbol{Name: name, Type: t, Const: isConst}
	if s.inFunc {
		// For locals (growing down below the saved link words):
		s.localSize += t.Size()
		sym.Scope = ScopeLocal
		sym.Binding = &FrameBinding{Offset: -int32(abi.FrameLinkSize + s.localSize)}
	} else {
		sym.Scope = ScopeGlobal
		sym.Binding = &GlobalBinding{Offset: int32(s.globalSize)}
		s.globalSize += t.Size()
	}
	scope[name] = sym
	return sym, true
}

// Lookup returns the symbol and whether it was found. Variables shadow
// function names.
func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	// Search scopes from top of stack down, stopping at the frame boundary:
	// the exec block's variables are not visible inside functions.
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if i == 0 && s.inFunc {
			break
		}
		if sym, ok := s.scopes[i][name]; ok {
			return sym, true
		}
	}

	sym, ok := s.functions[name]
	return sym, ok
}

// GlobalSize is the byte size of the global memory block.
func (s *SymbolTable) GlobalSize() int {
	return s.globalSize
}

// String returns a deterministically ordered dump of the table.
func (s *SymbolTable) String() string {
	var sb strings.Builder
	if len(s.functions) > 0 {
		sb.WriteString("Functions:\n")
		for _, name := range sortedNames(s.functions) {
			fmt.Fprintf(&sb, "  %-20s  %s\n", name, s.functions[name].Type)
		}
	}

	sb.WriteString("Scopes (Active Stack):\n")
	for i, scope := range s.scopes {
		fmt.Fprintf(&sb, "  Scope %d:\n", i)
		for _, name := range sortedNames(scope) {
			sym := scope[name]
			fmt.Fprintf(&sb, "    %-20s  %s Offset: %d (Size: %d, Type: %s)\n", name, sym.Scope, sym.Offset(), sym.Type.Size(), sym.Type)
		}
	}
	fmt.Fprintf(&sb, "Global size: %d\n", s.globalSize)
	return sb.String()
}

func sortedNames(m map[string]Symbol) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
