package petrel

import (
	"fmt"
	"io"

	"github.com/petrel-lang/petrel/object"
	"github.com/petrel-lang/petrel/vm"
)

// Option describes a function used to configure a Petrel evaluation.
type Option func(*config)

type config struct {
	filename         string
	globals          map[string]any
	output           io.Writer
	maxFrameDepth    int
	observer         vm.Observer
	instructionLimit int64
}

func newConfig(opts ...Option) *config {
	cfg := &config{globals: map[string]any{}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

func (c *config) vmOpts() ([]vm.Option, error) {
	var opts []vm.Option
	if len(c.globals) > 0 {
		converted := make(map[string]object.Object, len(c.globals))
		for name, value := range c.globals {
			obj, err := object.FromGo(value)
			if err != nil {
				return nil, fmt.Errorf("global %q: %w", name, err)
			}
			converted[name] = obj
		}
		opts = append(opts, vm.WithGlobals(converted))
	}
	if c.output != nil {
		opts = append(opts, vm.WithOutput(c.output))
	}
	if c.maxFrameDepth > 0 {
		opts = append(opts, vm.WithMaxFrameDepth(c.maxFrameDepth))
	}
	if c.observer != nil {
		opts = append(opts, vm.WithObserver(c.observer))
	}
	if c.instructionLimit > 0 {
		opts = append(opts, vm.WithInstructionLimit(c.instructionLimit))
	}
	return opts, nil
}

// WithGlobals provides global variables that are made available to Petrel
// evaluations. Values are converted with object.FromGo. This option is
// additive, so multiple WithGlobals options may be supplied. If the same
// key is supplied multiple times, the last supplied value is used.
func WithGlobals(globals map[string]any) Option {
	return func(cfg *config) {
		for k, v := range globals {
			cfg.globals[k] = v
		}
	}
}

// WithGlobal supplies a single named global variable to the evaluation.
func WithGlobal(name string, value any) Option {
	return func(cfg *config) {
		cfg.globals[name] = value
	}
}

// WithFilename sets the filename for the source code being evaluated.
// This is used in error messages and stack traces.
func WithFilename(filename string) Option {
	return func(cfg *config) {
		cfg.filename = filename
	}
}

// WithOutput sets the writer that print instructions write to. The
// default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(cfg *config) {
		cfg.output = w
	}
}

// WithMaxFrameDepth sets the call depth at which execution fails with a
// stack overflow error.
func WithMaxFrameDepth(depth int) Option {
	return func(cfg *config) {
		cfg.maxFrameDepth = depth
	}
}

// WithObserver sets an observer for VM execution events. The observer
// receives callbacks for instruction steps, function calls, and function
// returns. This enables profilers, debuggers, and execution tracers.
func WithObserver(observer vm.Observer) Option {
	return func(cfg *config) {
		cfg.observer = observer
	}
}

// WithInstructionLimit caps the number of instructions a single
// evaluation may execute.
func WithInstructionLimit(limit int64) Option {
	return func(cfg *config) {
		cfg.instructionLimit = limit
	}
}
