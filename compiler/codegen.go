package compiler

import (
	"fmt"

	"github.com/chazu/imp/vm"
)

// ---------------------------------------------------------------------------
// Codegen: lower the AST to bytecode
// ---------------------------------------------------------------------------

// Translator lowers a module to a vm.Program. Its mutable state (assembler,
// depth counter, current function) is owned by a single in-progress
// translation and never shared.
type Translator struct {
	asm      *vm.Assembler
	registry *vm.Registry

	// depth is the compile-time count of values on the evaluation stack
	// relative to the enclosing function's entry. Every value-producing
	// emission increments it and every consuming one decrements it; it
	// must return to its entry value at the end of every statement.
	depth uint32

	// fn is the function currently being lowered, nil for top-level code.
	fn *FuncDecl

	// Collected in the first pass over the declarations.
	funcs     map[string]vm.Label
	protos    map[string]uint64
	prims     []vm.RuntimeFn
	primNames []string
	primIndex map[string]uint64
}

// NewTranslator creates a translator resolving prototypes against the
// given registry.
func NewTranslator(registry *vm.Registry) *Translator {
	return &Translator{
		asm:       vm.NewAssembler(),
		registry:  registry,
		funcs:     make(map[string]vm.Label),
		protos:    make(map[string]uint64),
		primIndex: make(map[string]uint64),
	}
}

// Translate is the package entry point: module AST to executable program.
func Translate(mod *Module, registry *vm.Registry) (*vm.Program, error) {
	return NewTranslator(registry).Translate(mod)
}

// Compile parses and translates source in one step.
func Compile(source string, registry *vm.Registry) (*vm.Program, error) {
	mod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Translate(mod, registry)
}

// Translate lowers an entire module.
//
// The first pass records every function and prototype declaration: each
// function gets a fresh entry label and each prototype is resolved against
// the primitive registry. Forward, recursive and mutually-recursive calls
// all resolve because every callable name is known before any body is
// lowered.
//
// The second pass lowers top-level statements first, so execution starts at
// offset 0, appends HALT, and only then lowers function bodies.
func (t *Translator) Translate(mod *Module) (*vm.Program, error) {
	for _, item := range mod.Items {
		switch decl := item.(type) {
		case *FuncDecl:
			t.funcs[decl.Name] = t.asm.NewLabel()
		case *ProtoDecl:
			index, err := t.internPrimitive(decl.Primitive)
			if err != nil {
				return nil, err
			}
			t.protos[decl.Name] = index
		}
	}

	global := NewGlobalScope(t.funcs, t.protos)

	for _, item := range mod.Items {
		if stmt, ok := item.(*StmtItem); ok {
			t.lowerStmt(global, stmt.Stmt)
		}
	}
	t.asm.Emit(vm.OpHalt)

	for _, item := range mod.Items {
		if decl, ok := item.(*FuncDecl); ok {
			t.lowerFuncDecl(global, decl)
		}
	}

	if n := t.asm.PendingFixups(); n != 0 {
		panic(fmt.Sprintf("codegen: %d unresolved fixups after translation", n))
	}

	return vm.NewProgram(t.asm.Code(), t.prims, t.primNames), nil
}

// internPrimitive resolves a primitive name and returns its table index,
// reusing the slot when several prototypes name the same primitive.
func (t *Translator) internPrimitive(name string) (uint64, error) {
	if index, ok := t.primIndex[name]; ok {
		return index, nil
	}
	fn, ok := t.registry.Lookup(name)
	if !ok {
		return 0, &vm.TranslateError{Msg: fmt.Sprintf("unknown primitive %q", name)}
	}
	index := uint64(len(t.prims))
	t.prims = append(t.prims, fn)
	t.primNames = append(t.primNames, name)
	t.primIndex[name] = index
	return index, nil
}

// ---------------------------------------------------------------------------
// Statement lowering
// ---------------------------------------------------------------------------

func (t *Translator) lowerStmt(scope Scope, stmt Stmt) {
	switch s := stmt.(type) {
	case *BlockStmt:
		t.lowerBlockStmt(scope, s)
	case *WhileStmt:
		t.lowerWhileStmt(scope, s)
	case *ReturnStmt:
		t.lowerReturnStmt(scope, s)
	case *ExprStmt:
		t.lowerExprStmt(scope, s)
	default:
		panic(fmt.Sprintf("codegen: unknown statement type %T", stmt))
	}
}

func (t *Translator) lowerBlockStmt(scope Scope, block *BlockStmt) {
	depthIn := t.depth

	blockScope := NewBlockScope(scope)
	for _, stmt := range block.Body {
		t.lowerStmt(blockScope, stmt)
	}

	if t.depth != depthIn {
		panic(fmt.Sprintf("codegen: mismatched block depth on exit: %d != %d", t.depth, depthIn))
	}
}

func (t *Translator) lowerWhileStmt(scope Scope, while *WhileStmt) {
	entry := t.asm.NewLabel()
	exit := t.asm.NewLabel()

	t.asm.Bind(entry)
	t.lowerExpr(scope, while.Cond)
	t.emitJumpFalse(exit)
	t.lowerStmt(scope, while.Body)
	t.asm.EmitJump(entry)
	t.asm.Bind(exit)
}

func (t *Translator) lowerReturnStmt(scope Scope, ret *ReturnStmt) {
	t.lowerExpr(scope, ret.Value)
	t.emitReturn()
}

func (t *Translator) lowerExprStmt(scope Scope, stmt *ExprStmt) {
	t.lowerExpr(scope, stmt.Expr)
	t.emitPop()
}

// ---------------------------------------------------------------------------
// Expression lowering
// ---------------------------------------------------------------------------

func (t *Translator) lowerExpr(scope Scope, expr Expr) {
	switch e := expr.(type) {
	case *RefExpr:
		t.lowerRefExpr(scope, e)
	case *IntExpr:
		t.depth++
		t.asm.EmitPushInt(e.Value)
	case *BinaryExpr:
		t.lowerBinaryExpr(scope, e)
	case *CallExpr:
		t.lowerCallExpr(scope, e)
	default:
		panic(fmt.Sprintf("codegen: unknown expression type %T", expr))
	}
}

func (t *Translator) lowerRefExpr(scope Scope, expr *RefExpr) {
	binding, ok := scope.Lookup(expr.Name)
	if !ok {
		// The input AST is assumed validated; an unbound name here is a
		// contract violation, not a user diagnostic.
		panic(fmt.Sprintf("codegen: name %q not bound at %s", expr.Name, expr.Pos()))
	}
	switch binding.Kind {
	case BindFunc:
		t.depth++
		t.asm.EmitPushFunc(binding.Entry)
	case BindProto:
		t.depth++
		t.asm.EmitPushProto(binding.Prim)
	case BindArg:
		// The callee's saved program counter sits directly below the
		// arguments, hence the extra slot.
		index := t.depth + binding.Index + 1
		t.depth++
		t.asm.EmitPeek(index)
	}
}

func (t *Translator) lowerBinaryExpr(scope Scope, binary *BinaryExpr) {
	t.lowerExpr(scope, binary.LHS)
	t.lowerExpr(scope, binary.RHS)
	switch binary.Op {
	case OpAdd:
		t.emitAdd()
	default:
		panic(fmt.Sprintf("codegen: unknown binary operator %d", binary.Op))
	}
}

func (t *Translator) lowerCallExpr(scope Scope, call *CallExpr) {
	// Arguments are lowered in reverse syntactic order so argument 0 ends
	// up nearest the top of the stack, matching the slot convention used
	// by argument references.
	for i := len(call.Args) - 1; i >= 0; i-- {
		t.lowerExpr(scope, call.Args[i])
	}
	t.lowerExpr(scope, call.Callee)
	t.asm.EmitCall(uint32(len(call.Args)))
	// The callee leaves one result in place of the arguments.
	t.consume(uint32(len(call.Args)))
}

// ---------------------------------------------------------------------------
// Function lowering
// ---------------------------------------------------------------------------

func (t *Translator) lowerFuncDecl(scope Scope, decl *FuncDecl) {
	entry, ok := t.funcs[decl.Name]
	if !ok {
		panic(fmt.Sprintf("codegen: missing entry label for %q", decl.Name))
	}
	t.asm.Bind(entry)

	if t.depth != 0 {
		panic(fmt.Sprintf("codegen: invalid stack depth %d at function entry", t.depth))
	}

	args := make(map[string]uint32, len(decl.Params))
	for i, param := range decl.Params {
		args[param.Name] = uint32(i)
	}

	t.fn = decl
	t.lowerBlockStmt(NewFuncScope(scope, args), decl.Body)
	t.fn = nil

	if t.depth != 0 {
		panic(fmt.Sprintf("codegen: invalid stack depth %d on function exit", t.depth))
	}
}

// ---------------------------------------------------------------------------
// Emission helpers with depth accounting
// ---------------------------------------------------------------------------

func (t *Translator) emitPop() {
	t.consume(1)
	t.asm.Emit(vm.OpPop)
}

func (t *Translator) emitAdd() {
	t.consume(1)
	t.asm.Emit(vm.OpAdd)
}

func (t *Translator) emitJumpFalse(label vm.Label) {
	t.consume(1)
	t.asm.EmitJumpFalse(label)
}

// emitReturn pops the return value; the operands tell the engine how many
// locals and arguments to discard during frame teardown.
func (t *Translator) emitReturn() {
	t.consume(1)
	nargs := uint32(0)
	if t.fn != nil {
		nargs = uint32(len(t.fn.Params))
	}
	t.asm.EmitReturn(t.depth, nargs)
}

// consume decrements the depth counter by n, asserting availability.
func (t *Translator) consume(n uint32) {
	if t.depth < n {
		panic(fmt.Sprintf("codegen: no elements on stack (depth=%d, need=%d)", t.depth, n))
	}
	t.depth -= n
}
