package vm

import (
	"github.com/petrel-lang/petrel/errz"
	"github.com/petrel-lang/petrel/op"
)

// Observer receives callbacks for VM execution events. Implementations
// can be used for tracing, profiling, or code coverage without modifying
// the dispatch loop.
//
// Observer methods are called synchronously during execution, so
// implementations should be fast. Embed NoopObserver to provide default
// no-op implementations for events you don't need.
type Observer interface {
	// OnStep is called before every instruction is executed.
	OnStep(event StepEvent)

	// OnCall is called when a function is invoked.
	OnCall(event CallEvent)

	// OnReturn is called when a frame finishes, whether by an explicit
	// return or by running off the end of its code.
	OnReturn(event ReturnEvent)
}

// StepEvent contains information about a single instruction step.
type StepEvent struct {
	// IP is the instruction pointer (index into the instruction stream).
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// Location is the source location of the instruction.
	Location errz.SourceLocation

	// StackDepth is the current depth of the value stack.
	StackDepth int

	// FrameDepth is the current depth of the call stack.
	FrameDepth int
}

// CallEvent contains information about a function call.
type CallEvent struct {
	// FunctionName is the name of the function being called.
	// Anonymous functions have an empty name.
	FunctionName string

	// ArgCount is the number of arguments passed to the function.
	ArgCount int

	// Location is the source location of the call site.
	Location errz.SourceLocation

	// FrameDepth is the call stack depth after the call.
	FrameDepth int
}

// ReturnEvent contains information about a function return.
type ReturnEvent struct {
	// FunctionName is the name of the function returning, or empty for
	// the top-level frame.
	FunctionName string

	// Location is the source location of the return.
	Location errz.SourceLocation

	// FrameDepth is the call stack depth after returning.
	FrameDepth int
}

// NoopObserver is an Observer implementation that does nothing. Embed it
// in your observer to provide default implementations for events you
// don't need.
type NoopObserver struct{}

func (NoopObserver) OnStep(StepEvent)     {}
func (NoopObserver) OnCall(CallEvent)     {}
func (NoopObserver) OnReturn(ReturnEvent) {}

var _ Observer = NoopObserver{}
