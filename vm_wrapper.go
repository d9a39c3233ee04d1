package petrel

import (
	"context"

	"github.com/petrel-lang/petrel/asm"
	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/object"
	"github.com/petrel-lang/petrel/vm"
)

// VM provides stateful execution for REPL and incremental evaluation.
// Unlike the Eval and Run functions which create fresh state on each
// call, the VM maintains global bindings across evaluations, allowing
// interactive sessions where variables and functions persist.
type VM struct {
	machine *vm.VirtualMachine
	cfg     *config
}

// NewVM creates a new VM with the given options. The VM can be used for
// REPL-style incremental evaluation where each input sees the bindings
// defined by earlier inputs.
func NewVM(options ...Option) (*VM, error) {
	cfg := newConfig(options...)
	vmOpts, err := cfg.vmOpts()
	if err != nil {
		return nil, err
	}
	entry, err := bytecode.NewBuilder("main").Build()
	if err != nil {
		return nil, err
	}
	return &VM{
		machine: vm.New(entry, vmOpts...),
		cfg:     cfg,
	}, nil
}

// Eval assembles and runs source code within this VM's context. Global
// bindings defined by previous Eval calls remain accessible. This is the
// primary method for REPL-style interaction.
func (v *VM) Eval(ctx context.Context, source string) (any, error) {
	chunk, err := asm.AssembleString(v.cfg.filename, source)
	if err != nil {
		return nil, err
	}
	result, err := v.machine.RunChunk(ctx, chunk)
	if err != nil {
		return nil, err
	}
	return nativeValue(result), nil
}

// RunChunk executes an already assembled chunk within this VM's context.
func (v *VM) RunChunk(ctx context.Context, chunk *bytecode.Chunk) (any, error) {
	result, err := v.machine.RunChunk(ctx, chunk)
	if err != nil {
		return nil, err
	}
	return nativeValue(result), nil
}

// Get returns the value bound to a global name.
func (v *VM) Get(name string) (object.Object, error) {
	return v.machine.Get(name)
}

// Globals returns a snapshot of the VM's global bindings.
func (v *VM) Globals() map[string]object.Object {
	return v.machine.Globals()
}

// GlobalNames returns the sorted names of the VM's global bindings.
func (v *VM) GlobalNames() []string {
	return v.machine.GlobalNames()
}
