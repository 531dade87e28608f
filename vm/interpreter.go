package vm

import (
	"fmt"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("imp.vm")

// ---------------------------------------------------------------------------
// Interp: bytecode execution engine
// ---------------------------------------------------------------------------

// Interp executes a compiled program. Execution state is a program counter
// and an evaluation stack of tagged values; there is no other control-flow
// state. One interpreter instance consumes exactly one program.
type Interp struct {
	prog  *Program
	pc    uint64
	stack []Value
	trace bool
}

// NewInterp creates an interpreter for a program.
func NewInterp(prog *Program) *Interp {
	return &Interp{
		prog:  prog,
		stack: make([]Value, 0, 64),
	}
}

// SetTrace enables per-instruction logging through the debug log level.
func (i *Interp) SetTrace(on bool) {
	i.trace = on
}

// ---------------------------------------------------------------------------
// Stack operations
// ---------------------------------------------------------------------------

// The stack accessors are exported because primitives receive the engine by
// reference and operate on the stack directly.

// Push adds a value to the top of the stack.
func (i *Interp) Push(v Value) {
	i.stack = append(i.stack, v)
}

// Pop removes and returns the top of the stack.
func (i *Interp) Pop() Value {
	if len(i.stack) == 0 {
		i.fault("stack empty")
	}
	v := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	return v
}

// PopInt pops the top of the stack, faulting unless it is an integer.
func (i *Interp) PopInt() int64 {
	v := i.Pop()
	if !v.IsInt() {
		i.fault("expected integer, got %s", v.Kind())
	}
	return v.Int()
}

// PeekInt returns the integer on top of the stack without removing it,
// faulting unless it is an integer.
func (i *Interp) PeekInt() int64 {
	if len(i.stack) == 0 {
		i.fault("stack empty")
	}
	v := i.stack[len(i.stack)-1]
	if !v.IsInt() {
		i.fault("expected integer, got %s", v.Kind())
	}
	return v.Int()
}

// Depth returns the number of values on the evaluation stack.
func (i *Interp) Depth() int {
	return len(i.stack)
}

// Top returns the value on top of the stack.
func (i *Interp) Top() Value {
	if len(i.stack) == 0 {
		i.fault("stack empty")
	}
	return i.stack[len(i.stack)-1]
}

// popAddr pops the saved return address, faulting on any other tag.
func (i *Interp) popAddr() uint64 {
	v := i.Pop()
	if !v.IsAddr() {
		i.fault("expected return address, got %s", v.Kind())
	}
	return v.Addr()
}

// peek returns a copy of the value index slots below the top (0 = top).
func (i *Interp) peek(index uint32) Value {
	pos := len(i.stack) - 1 - int(index)
	if pos < 0 {
		i.fault("peek %d beyond stack depth %d", index, len(i.stack))
	}
	return i.stack[pos]
}

// shrink discards n values from the top of the stack.
func (i *Interp) shrink(n uint32) {
	if uint64(n) > uint64(len(i.stack)) {
		i.fault("stack shrink %d beyond depth %d", n, len(i.stack))
	}
	i.stack = i.stack[:len(i.stack)-int(n)]
}

// fault raises a runtime fault. Faults propagate out of the dispatch loop
// and abort the run; the engine never resumes after one.
func (i *Interp) fault(format string, args ...interface{}) {
	panic(&RuntimeError{PC: i.pc, Msg: fmt.Sprintf(format, args...)})
}

// ---------------------------------------------------------------------------
// Main interpreter loop
// ---------------------------------------------------------------------------

// Run executes the program from offset 0 until HALT or the first fault.
// Output happens only through primitive calls; a nil error means the
// program halted cleanly.
func (i *Interp) Run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RuntimeError); ok {
				err = re
				return
			}
			panic(r)
		}
	}()

	for {
		if i.trace && i.pc < uint64(i.prog.Len()) {
			line, _ := DisassembleInstruction(i.prog.Code(), int(i.pc))
			log.Debugf("%s  stack=%d", line, len(i.stack))
		}

		op := i.prog.readOpcode(&i.pc)
		switch op {
		case OpPushFunc:
			i.Push(FromAddr(i.prog.readUint64(&i.pc)))

		case OpPushProto:
			i.Push(FromProto(i.prog.readUint64(&i.pc)))

		case OpPushInt:
			i.Push(FromInt(i.prog.readInt64(&i.pc)))

		case OpPeek:
			idx := i.prog.readUint32(&i.pc)
			i.Push(i.peek(idx))

		case OpPop:
			i.Pop()

		case OpCall:
			// The argument count is informational; teardown is driven
			// by the RET operands.
			i.prog.readUint32(&i.pc)
			callee := i.Pop()
			switch callee.Kind() {
			case KindProto:
				fn, ok := i.prog.Prim(callee.Proto())
				if !ok {
					i.fault("unknown primitive reference %d", callee.Proto())
				}
				fn(i)
			case KindAddr:
				i.Push(FromAddr(i.pc))
				i.pc = callee.Addr()
			case KindInt:
				i.fault("cannot call non-callable value")
			}

		case OpAdd:
			rhs := i.PopInt()
			lhs := i.PopInt()
			i.Push(FromInt(lhs + rhs))

		case OpReturn:
			depth := i.prog.readUint32(&i.pc)
			nargs := i.prog.readUint32(&i.pc)
			v := i.Pop()
			i.shrink(depth)
			i.pc = i.popAddr()
			i.shrink(nargs)
			i.Push(v)

		case OpJumpFalse:
			addr := i.prog.readUint64(&i.pc)
			if !i.Pop().IsTruthy() {
				i.pc = addr
			}

		case OpJump:
			i.pc = i.prog.readUint64(&i.pc)

		case OpHalt:
			return nil

		default:
			i.fault("unknown opcode 0x%02X", byte(op))
		}
	}
}
