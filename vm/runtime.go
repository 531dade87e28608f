package vm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// ---------------------------------------------------------------------------
// Runtime primitives
// ---------------------------------------------------------------------------

// RuntimeFn is a native function exposed to bytecode under a declared name.
// A primitive receives the engine by reference and is fully trusted to
// manipulate the evaluation stack directly: it consumes and produces values
// itself, with no arity declared in the bytecode.
type RuntimeFn func(*Interp)

// Registry maps primitive names to their native implementations. Prototype
// declarations are resolved against it once, at translation time.
type Registry struct {
	fns map[string]RuntimeFn
}

// NewRegistry creates a registry with the builtin primitives bound to the
// given input and output streams.
func NewRegistry(in io.Reader, out io.Writer) *Registry {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	r := &Registry{fns: make(map[string]RuntimeFn)}

	// print_int peeks the integer on top of the stack and prints it.
	// The argument is left in place as the call's result.
	r.Register("print_int", func(i *Interp) {
		fmt.Fprintln(out, i.PeekInt())
	})

	// read_int scans the next integer from the input stream and pushes
	// it. Exhausted or malformed input pushes 0, which doubles as the
	// loop-terminating value.
	r.Register("read_int", func(i *Interp) {
		if !scanner.Scan() {
			i.Push(FromInt(0))
			return
		}
		n, err := strconv.ParseInt(scanner.Text(), 10, 64)
		if err != nil {
			i.Push(FromInt(0))
			return
		}
		i.Push(FromInt(n))
	})

	return r
}

// Register binds a primitive name to a native function, replacing any
// previous binding.
func (r *Registry) Register(name string, fn RuntimeFn) {
	r.fns[name] = fn
}

// Lookup returns the primitive registered under name.
func (r *Registry) Lookup(name string) (RuntimeFn, bool) {
	fn, ok := r.fns[name]
	return fn, ok
}
