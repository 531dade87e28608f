package compiler

import "github.com/chazu/imp/vm"

// ---------------------------------------------------------------------------
// Scope chain: name resolution during lowering
// ---------------------------------------------------------------------------

// BindingKind discriminates what a name resolved to.
type BindingKind int

const (
	// BindFunc binds to a function's entry label.
	BindFunc BindingKind = iota
	// BindProto binds to a primitive table index.
	BindProto
	// BindArg binds to a 0-based argument slot of the enclosing function.
	BindArg
)

// Binding is the resolved meaning of a name at lowering time. Bindings are
// immutable and carry no reference back to the scope that produced them.
type Binding struct {
	Kind  BindingKind
	Entry vm.Label // BindFunc: entry label
	Prim  uint64   // BindProto: primitive table index
	Index uint32   // BindArg: argument slot
}

// Scope is a link in the statically nested lookup chain. Lookup reports
// whether the name is bound at this level or any enclosing one.
type Scope interface {
	Lookup(name string) (Binding, bool)
}

// ---------------------------------------------------------------------------
// Global scope
// ---------------------------------------------------------------------------

// GlobalScope resolves top-level names against the function and prototype
// maps built in the collection pass, before any code is emitted. It is the
// root of every chain and has no parent.
type GlobalScope struct {
	funcs  map[string]vm.Label
	protos map[string]uint64
}

// NewGlobalScope creates the root scope over the collected declarations.
func NewGlobalScope(funcs map[string]vm.Label, protos map[string]uint64) *GlobalScope {
	return &GlobalScope{funcs: funcs, protos: protos}
}

// Lookup resolves a name to a function label or primitive reference.
func (s *GlobalScope) Lookup(name string) (Binding, bool) {
	if entry, ok := s.funcs[name]; ok {
		return Binding{Kind: BindFunc, Entry: entry}, true
	}
	if prim, ok := s.protos[name]; ok {
		return Binding{Kind: BindProto, Prim: prim}, true
	}
	return Binding{}, false
}

// ---------------------------------------------------------------------------
// Function scope
// ---------------------------------------------------------------------------

// FuncScope resolves the positional arguments of a function and delegates
// everything else to its parent.
type FuncScope struct {
	parent Scope
	args   map[string]uint32
}

// NewFuncScope creates a function scope over the positional argument map.
func NewFuncScope(parent Scope, args map[string]uint32) *FuncScope {
	return &FuncScope{parent: parent, args: args}
}

// Lookup resolves a name to an argument slot, falling back to the parent.
func (s *FuncScope) Lookup(name string) (Binding, bool) {
	if index, ok := s.args[name]; ok {
		return Binding{Kind: BindArg, Index: index}, true
	}
	return s.parent.Lookup(name)
}

// ---------------------------------------------------------------------------
// Block scope
// ---------------------------------------------------------------------------

// BlockScope introduces no bindings in the current language subset but
// preserves the nesting contract so locals can be added later.
type BlockScope struct {
	parent Scope
}

// NewBlockScope creates a block scope.
func NewBlockScope(parent Scope) *BlockScope {
	return &BlockScope{parent: parent}
}

// Lookup delegates to the parent.
func (s *BlockScope) Lookup(name string) (Binding, bool) {
	return s.parent.Lookup(name)
}
