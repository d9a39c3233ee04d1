package vm

import (
	"github.com/petrel-lang/petrel/object"
)

// frame records one activation on the call stack. Locals are not stored
// in the frame itself; they live on the shared value stack starting at
// base, so arguments become locals without copying.
type frame struct {
	chunk    *loadedChunk
	fn       *object.Function
	returnIP int
	base     int
}

// activateChunk prepares the frame to run top-level code. Used for the
// entry frame only.
func (f *frame) activateChunk(chunk *loadedChunk) {
	f.chunk = chunk
	f.fn = nil
	f.returnIP = 0
	f.base = 0
}

// activateFunction prepares the frame for a function call. returnIP is the
// caller's next instruction and base is the stack index of the first
// argument.
func (f *frame) activateFunction(fn *object.Function, chunk *loadedChunk, returnIP, base int) {
	f.chunk = chunk
	f.fn = fn
	f.returnIP = returnIP
	f.base = base
}
