// Package vm provides a VirtualMachine that executes compiled Petrel code.
package vm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/errz"
	"github.com/petrel-lang/petrel/object"
	"github.com/petrel-lang/petrel/op"
)

const (
	// DefaultMaxFrameDepth is the call depth at which a further call
	// raises a stack overflow error, unless overridden with
	// WithMaxFrameDepth.
	DefaultMaxFrameDepth = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable, relying
	// only on the background goroutine.
	DefaultContextCheckInterval = 1000

	// initialStackSize is the starting capacity of the value stack. The
	// stack grows as needed; only the frame stack is bounded.
	initialStackSize = 1024
)

// ErrGlobalNotFound is returned by Get for names with no binding.
var ErrGlobalNotFound = errors.New("global not found")

// ErrInstructionLimit is returned by Run when the instruction budget set
// with WithInstructionLimit is exhausted. It indicates termination by the
// host, not a fault in the program.
var ErrInstructionLimit = errors.New("instruction limit exceeded")

type VirtualMachine struct {
	ip          int // instruction pointer
	sp          int // stack pointer (top element; -1 when empty)
	fp          int // frame pointer
	halt        int32
	entry       *bytecode.Chunk
	activeFrame *frame
	activeChunk *loadedChunk
	stack       []object.Object
	frames      []frame
	globals     map[string]object.Object
	loaded      map[*bytecode.Chunk]*loadedChunk
	output      io.Writer
	running     bool
	runMutex    sync.Mutex

	// instructionLimit caps the number of executed instructions per run.
	// Zero means unlimited.
	instructionLimit int64

	// contextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done().
	contextCheckInterval int

	// observer receives callbacks for execution events. If nil, no
	// callbacks are made.
	observer Observer
}

// New creates a VirtualMachine that will execute the given chunk.
func New(entry *bytecode.Chunk, options ...Option) *VirtualMachine {
	vm := &VirtualMachine{
		sp:                   -1,
		entry:                entry,
		stack:                make([]object.Object, 0, initialStackSize),
		globals:              map[string]object.Object{},
		loaded:               map[*bytecode.Chunk]*loadedChunk{},
		output:               os.Stdout,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range options {
		opt(vm)
	}
	if vm.frames == nil {
		vm.frames = make([]frame, DefaultMaxFrameDepth)
	}
	return vm
}

// Run executes the entry chunk from the beginning and returns the value
// the program produced. Global bindings survive across runs, so a VM can
// be reused to evaluate a sequence of chunks against the same
// environment.
//
// All flavors of failure are reported through the returned error:
// runtime errors as a *errz.RuntimeError, cancellation as ctx.Err(), an
// exhausted instruction budget as ErrInstructionLimit, and bytecode
// defects as plain errors recovered from the dispatch loop. Global
// bindings written before a failure remain visible; there is no
// rollback.
func (vm *VirtualMachine) Run(ctx context.Context) (result object.Object, err error) {
	cleanup, err := vm.start(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("panic: %v", r)
		}
		cleanup()
		vm.stop()
	}()

	entry := vm.load(vm.entry)
	vm.resetStacks()
	vm.activeFrame = &vm.frames[0]
	vm.activeFrame.activateChunk(entry)
	vm.activeChunk = entry
	return vm.eval(ctx)
}

// RunChunk executes a different chunk on this VM, keeping the global
// bindings accumulated by earlier runs. This is the REPL workflow: each
// input compiles to a fresh chunk that runs against the same globals.
func (vm *VirtualMachine) RunChunk(ctx context.Context, chunk *bytecode.Chunk) (object.Object, error) {
	vm.runMutex.Lock()
	if vm.running {
		vm.runMutex.Unlock()
		return nil, fmt.Errorf("vm is already running")
	}
	vm.entry = chunk
	vm.runMutex.Unlock()
	return vm.Run(ctx)
}

func (vm *VirtualMachine) start(ctx context.Context) (func(), error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return nil, fmt.Errorf("vm is already running")
	}
	vm.running = true
	// Halt execution when the context is cancelled
	atomic.StoreInt32(&vm.halt, 0)
	cleanup := func() {}
	if doneChan := ctx.Done(); doneChan != nil {
		stopChan := make(chan struct{})
		go func() {
			select {
			case <-doneChan:
				atomic.StoreInt32(&vm.halt, 1)
			case <-stopChan:
			}
		}()
		cleanup = func() { close(stopChan) }
	}
	return cleanup, nil
}

func (vm *VirtualMachine) stop() {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	vm.running = false
}

func (vm *VirtualMachine) resetStacks() {
	for i := 0; i <= vm.sp && i < len(vm.stack); i++ {
		vm.stack[i] = nil
	}
	vm.stack = vm.stack[:0]
	vm.sp = -1
	vm.ip = 0
	vm.fp = 0
}

// Get returns the value bound to a global name. Returns an error wrapping
// ErrGlobalNotFound if the name is unbound. This only works on a stopped
// VM.
func (vm *VirtualMachine) Get(name string) (object.Object, error) {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return nil, fmt.Errorf("vm is running")
	}
	if value, ok := vm.globals[name]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrGlobalNotFound, name)
}

// Globals returns a snapshot of the current global bindings. This only
// works on a stopped VM; nil is returned while the VM is running.
func (vm *VirtualMachine) Globals() map[string]object.Object {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return nil
	}
	snapshot := make(map[string]object.Object, len(vm.globals))
	for name, value := range vm.globals {
		snapshot[name] = value
	}
	return snapshot
}

// GlobalNames returns the sorted names of all global bindings. This only
// works on a stopped VM.
func (vm *VirtualMachine) GlobalNames() []string {
	vm.runMutex.Lock()
	defer vm.runMutex.Unlock()
	if vm.running {
		return nil
	}
	return object.Keys(vm.globals)
}

// Evaluate the active chunk until the entry frame finishes. The caller
// must have activated frame zero. The result is the value left on top of
// the entry frame's stack region, or Nil if it left none.
func (vm *VirtualMachine) eval(ctx context.Context) (object.Object, error) {
	// Instruction counters for deterministic context checking and the
	// optional instruction budget
	var executed int64
	var sinceCheck int
	checkInterval := vm.contextCheckInterval
	doneChan := ctx.Done()

	for {
		if atomic.LoadInt32(&vm.halt) == 1 {
			return nil, ctx.Err()
		}

		// Deterministic check of ctx.Done() every N instructions. This
		// guarantees responsiveness regardless of goroutine scheduling.
		if checkInterval > 0 && doneChan != nil {
			sinceCheck++
			if sinceCheck >= checkInterval {
				sinceCheck = 0
				select {
				case <-doneChan:
					atomic.StoreInt32(&vm.halt, 1)
					return nil, ctx.Err()
				default:
				}
			}
		}

		if vm.instructionLimit > 0 {
			executed++
			if executed > vm.instructionLimit {
				return nil, ErrInstructionLimit
			}
		}

		// Running off the end of a chunk returns from its frame
		if vm.ip >= len(vm.activeChunk.Instructions) {
			result, done := vm.finishFrame()
			if done {
				return result, nil
			}
			continue
		}

		// The current instruction opcode
		opcode := vm.activeChunk.Instructions[vm.ip]

		if vm.observer != nil {
			vm.observer.OnStep(StepEvent{
				IP:         vm.ip,
				Opcode:     opcode,
				OpcodeName: op.GetInfo(opcode).Name,
				Location:   vm.location(vm.ip),
				StackDepth: vm.sp + 1,
				FrameDepth: vm.fp + 1,
			})
		}

		// Advance the instruction pointer to the next instruction. Note
		// that this is done before we actually execute the current
		// instruction, so relative jumps need to take this into account.
		vm.ip++

		// Dispatch the instruction
		switch opcode {
		case op.Nop:
		case op.LoadConst:
			vm.push(vm.activeChunk.Constants[vm.fetch()])
		case op.LoadLocal:
			vm.push(vm.stack[vm.activeFrame.base+int(vm.fetch())])
		case op.StoreLocal:
			// Stores leave the value on the stack
			vm.stack[vm.activeFrame.base+int(vm.fetch())] = vm.stack[vm.sp]
		case op.LoadGlobal:
			name := vm.constantName(vm.fetch())
			value, ok := vm.globals[name]
			if !ok {
				return nil, vm.runtimeError(errz.UndefinedVariable,
					"undefined variable %q", name)
			}
			vm.push(value)
		case op.StoreGlobal:
			name := vm.constantName(vm.fetch())
			if _, ok := vm.globals[name]; !ok {
				return nil, vm.runtimeError(errz.UndefinedVariable,
					"undefined variable %q", name)
			}
			// Stores leave the value on the stack
			vm.globals[name] = vm.stack[vm.sp]
		case op.DefineGlobal:
			name := vm.constantName(vm.fetch())
			vm.globals[name] = vm.pop()
		case op.BinaryOp:
			opType := op.BinaryOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.BinaryOp(opType, a, b)
			if err != nil {
				return nil, vm.decorate(err)
			}
			vm.push(result)
		case op.CompareOp:
			opType := op.CompareOpType(vm.fetch())
			b := vm.pop()
			a := vm.pop()
			result, err := object.Compare(opType, a, b)
			if err != nil {
				return nil, vm.decorate(err)
			}
			vm.push(result)
		case op.UnaryNegative:
			result, err := object.Negate(vm.pop())
			if err != nil {
				return nil, vm.decorate(err)
			}
			vm.push(result)
		case op.UnaryNot:
			vm.push(object.Not(vm.pop()))
		case op.Call:
			argc := int(vm.fetch())
			callee := vm.stack[vm.sp-argc]
			fn, ok := callee.(*object.Function)
			if !ok {
				return nil, vm.runtimeError(errz.NotCallable,
					"object is not callable (got %s)", callee.Type())
			}
			if fn.Arity() != argc {
				return nil, vm.runtimeError(errz.ArityMismatch,
					"function %q takes %d arguments (%d given)",
					fn.Name(), fn.Arity(), argc)
			}
			if vm.fp+1 >= len(vm.frames) {
				return nil, vm.runtimeError(errz.StackOverflow,
					"maximum call depth exceeded (%d frames)", len(vm.frames))
			}
			if vm.observer != nil {
				vm.observer.OnCall(CallEvent{
					FunctionName: fn.Name(),
					ArgCount:     argc,
					Location:     vm.currentLocation(),
					FrameDepth:   vm.fp + 2,
				})
			}
			chunk := vm.load(fn.Chunk())
			vm.fp++
			vm.frames[vm.fp].activateFunction(fn, chunk, vm.ip, vm.sp-argc+1)
			vm.activeFrame = &vm.frames[vm.fp]
			vm.activeChunk = chunk
			vm.ip = 0
		case op.ReturnValue:
			result, done := vm.finishFrame()
			if done {
				return result, nil
			}
		case op.JumpForward:
			base := vm.ip - 1
			delta := int(vm.fetch())
			vm.ip = base + delta
		case op.JumpBackward:
			base := vm.ip - 1
			delta := int(vm.fetch())
			vm.ip = base - delta
		case op.PopJumpForwardIfFalse:
			base := vm.ip - 1
			tos := vm.pop()
			delta := int(vm.fetch())
			if !tos.IsTruthy() {
				vm.ip = base + delta
			}
		case op.PopJumpBackwardIfFalse:
			base := vm.ip - 1
			tos := vm.pop()
			delta := int(vm.fetch())
			if !tos.IsTruthy() {
				vm.ip = base - delta
			}
		case op.PopTop:
			vm.pop()
		case op.Nil:
			vm.push(object.Nil)
		case op.True:
			vm.push(object.True)
		case op.False:
			vm.push(object.False)
		case op.Print:
			obj := vm.pop()
			fmt.Fprintln(vm.output, object.PrintableValue(obj))
		default:
			return nil, fmt.Errorf("unknown opcode: %d", opcode)
		}
	}
}

// finishFrame returns from the active frame. The frame's result is the
// top of its stack region, or Nil if the region is empty. The region is
// discarded along with the callee slot beneath it and the result is
// pushed in the callee's place. For the entry frame the result is handed
// back to the caller instead and the second return value is true.
func (vm *VirtualMachine) finishFrame() (object.Object, bool) {
	active := vm.activeFrame
	var result object.Object
	if vm.sp >= active.base {
		result = vm.stack[vm.sp]
	} else {
		result = object.Nil
	}
	if vm.observer != nil {
		name := ""
		if active.fn != nil {
			name = active.fn.Name()
		}
		ip := vm.ip - 1
		if ip < 0 {
			ip = 0
		}
		vm.observer.OnReturn(ReturnEvent{
			FunctionName: name,
			Location:     vm.location(ip),
			FrameDepth:   vm.fp,
		})
	}
	callee := active.base - 1
	for i := vm.sp; i >= callee && i >= 0; i-- {
		vm.stack[i] = nil
	}
	vm.sp = callee - 1
	if vm.fp == 0 {
		vm.sp = -1
		return result, true
	}
	vm.push(result)
	vm.ip = active.returnIP
	vm.fp--
	vm.activeFrame = &vm.frames[vm.fp]
	vm.activeChunk = vm.activeFrame.chunk
	return nil, false
}

func (vm *VirtualMachine) pop() object.Object {
	if vm.sp < 0 {
		panic("stack underflow")
	}
	obj := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	vm.sp--
	return obj
}

func (vm *VirtualMachine) push(obj object.Object) {
	vm.sp++
	if vm.sp == len(vm.stack) {
		vm.stack = append(vm.stack, obj)
		return
	}
	vm.stack[vm.sp] = obj
}

func (vm *VirtualMachine) fetch() uint16 {
	ip := vm.ip
	vm.ip++
	return uint16(vm.activeChunk.Instructions[ip])
}

// constantName resolves an operand to the global name it references.
// Validate guarantees the constant is a string for well-formed chunks; a
// violation here is a bytecode defect.
func (vm *VirtualMachine) constantName(index uint16) string {
	name, ok := vm.activeChunk.Constants[index].(*object.String)
	if !ok {
		panic(fmt.Sprintf("constant %d is not a name", index))
	}
	return name.Value()
}

// load wraps a chunk for execution, reusing the wrapper on repeat loads
// so function chunks are converted once per VM.
func (vm *VirtualMachine) load(c *bytecode.Chunk) *loadedChunk {
	if lc, ok := vm.loaded[c]; ok {
		return lc
	}
	lc := wrapChunk(c)
	vm.loaded[c] = lc
	return lc
}

// captureStack builds a stack trace from the current call frames.
func (vm *VirtualMachine) captureStack() []errz.StackFrame {
	frames := make([]errz.StackFrame, 0, vm.fp+1)
	for i := vm.fp; i >= 0; i-- {
		f := &vm.frames[i]
		if f.chunk == nil {
			continue
		}
		name := "<main>"
		if f.fn != nil {
			name = f.fn.Name()
			if name == "" {
				name = "<anonymous>"
			}
		}
		// Use the current ip for the active frame and the call site for
		// frames below it
		var ip int
		if i == vm.fp {
			ip = vm.ip - 1
		} else {
			ip = vm.frames[i+1].returnIP - 1
		}
		if ip < 0 {
			ip = 0
		}
		frames = append(frames, errz.StackFrame{
			Function: name,
			Location: errz.SourceLocation{
				Filename: f.chunk.Filename(),
				Line:     f.chunk.LineAt(ip),
			},
		})
	}
	return frames
}

func (vm *VirtualMachine) location(ip int) errz.SourceLocation {
	if vm.activeChunk == nil {
		return errz.SourceLocation{}
	}
	return errz.SourceLocation{
		Filename: vm.activeChunk.Filename(),
		Line:     vm.activeChunk.LineAt(ip),
	}
}

// currentLocation returns the source location of the current instruction.
func (vm *VirtualMachine) currentLocation() errz.SourceLocation {
	ip := vm.ip - 1 // ip was already advanced
	if ip < 0 {
		ip = 0
	}
	return vm.location(ip)
}

// runtimeError creates a RuntimeError with source location and stack trace.
func (vm *VirtualMachine) runtimeError(kind errz.ErrorKind, format string, args ...any) error {
	return errz.Newf(kind, format, args...).
		WithLocation(vm.currentLocation()).
		WithStack(vm.captureStack())
}

// decorate attaches the current location and stack trace to runtime
// errors raised outside the dispatch loop, such as operator type
// mismatches. Other errors pass through untouched.
func (vm *VirtualMachine) decorate(err error) error {
	if runtimeErr, ok := errz.AsRuntimeError(err); ok && runtimeErr.Location.IsZero() {
		runtimeErr.Location = vm.currentLocation()
		runtimeErr.Stack = vm.captureStack()
	}
	return err
}
