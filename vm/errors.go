package vm

import "fmt"

// ---------------------------------------------------------------------------
// Error kinds
// ---------------------------------------------------------------------------

// TranslateError reports a failure while lowering a module to bytecode.
// Translation failures indicate invalid input to the translator (for example
// a prototype naming a primitive the registry does not provide); they are
// never produced by a running program.
type TranslateError struct {
	Msg string
}

func (e *TranslateError) Error() string {
	return "translate: " + e.Msg
}

// RuntimeError reports a fault raised by the execution engine. A runtime
// fault terminates the run immediately; the engine never resumes after one.
type RuntimeError struct {
	PC  uint64 // program counter at the faulting instruction
	Msg string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime: %s (pc=%d)", e.Msg, e.PC)
}
