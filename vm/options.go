package vm

import (
	"io"

	"github.com/petrel-lang/petrel/object"
)

// Option is a configuration function for a VirtualMachine.
type Option func(*VirtualMachine)

// WithGlobals seeds the VM's global bindings. The provided values are
// visible to LOAD_GLOBAL immediately and can be overwritten by
// DEFINE_GLOBAL like any other binding.
func WithGlobals(globals map[string]object.Object) Option {
	return func(vm *VirtualMachine) {
		for name, value := range globals {
			vm.globals[name] = value
		}
	}
}

// WithGlobal seeds a single global binding.
func WithGlobal(name string, value object.Object) Option {
	return func(vm *VirtualMachine) {
		vm.globals[name] = value
	}
}

// WithMaxFrameDepth sets the call depth at which a further call raises a
// stack overflow error. Values less than 1 are ignored.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VirtualMachine) {
		if depth > 0 {
			vm.frames = make([]frame, depth)
		}
	}
}

// WithOutput sets the writer PRINT sends program output to. The default
// is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(vm *VirtualMachine) {
		vm.output = w
	}
}

// WithObserver attaches an observer that receives execution events.
func WithObserver(observer Observer) Option {
	return func(vm *VirtualMachine) {
		vm.observer = observer
	}
}

// WithInstructionLimit caps the number of instructions a single run may
// execute. When the budget is exhausted, Run returns ErrInstructionLimit.
// A limit of 0 means unlimited.
func WithInstructionLimit(limit int64) Option {
	return func(vm *VirtualMachine) {
		vm.instructionLimit = limit
	}
}

// WithContextCheckInterval sets the number of instructions between
// deterministic checks of ctx.Done(). A value of 0 disables deterministic
// checking, relying only on the background goroutine.
func WithContextCheckInterval(n int) Option {
	return func(vm *VirtualMachine) {
		vm.contextCheckInterval = n
	}
}
