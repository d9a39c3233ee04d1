package vm

import (
	"github.com/rs/zerolog"
)

// TraceObserver logs every execution event through a zerolog logger at
// trace level. Attach one with WithObserver to follow a program
// instruction by instruction:
//
//	logger := zerolog.New(os.Stderr).Level(zerolog.TraceLevel)
//	machine := vm.New(chunk, vm.WithObserver(vm.NewTraceObserver(logger)))
type TraceObserver struct {
	logger zerolog.Logger
}

// NewTraceObserver creates an observer that writes events to the given
// logger.
func NewTraceObserver(logger zerolog.Logger) *TraceObserver {
	return &TraceObserver{logger: logger}
}

func (t *TraceObserver) OnStep(event StepEvent) {
	t.logger.Trace().
		Int("ip", event.IP).
		Str("op", event.OpcodeName).
		Int("line", event.Location.Line).
		Int("stack", event.StackDepth).
		Int("frames", event.FrameDepth).
		Msg("step")
}

func (t *TraceObserver) OnCall(event CallEvent) {
	t.logger.Trace().
		Str("function", event.FunctionName).
		Int("args", event.ArgCount).
		Str("site", event.Location.String()).
		Int("frames", event.FrameDepth).
		Msg("call")
}

func (t *TraceObserver) OnReturn(event ReturnEvent) {
	t.logger.Trace().
		Str("function", event.FunctionName).
		Int("frames", event.FrameDepth).
		Msg("return")
}

var _ Observer = (*TraceObserver)(nil)
