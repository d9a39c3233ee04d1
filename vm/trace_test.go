package vm

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/petrel-lang/petrel/bytecode"
	"github.com/petrel-lang/petrel/op"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestTraceObserver(t *testing.T) {
	fn := buildFunction(t, "identity", 1, func(b *bytecode.Builder) {
		b.Emit(op.LoadLocal, 0)
		b.Emit(op.ReturnValue)
	})
	chunk := buildChunk(t, func(b *bytecode.Builder) {
		b.Emit(op.LoadConst, b.Constant(fn))
		b.Emit(op.LoadConst, b.Constant(9.0))
		b.Emit(op.Call, 1)
	})

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.TraceLevel)
	machine := New(chunk,
		WithObserver(NewTraceObserver(logger)),
		WithOutput(io.Discard))
	_, err := machine.Run(context.Background())
	require.Nil(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var steps, calls, returns int
	for _, line := range lines {
		switch {
		case strings.Contains(line, `"message":"step"`):
			steps++
		case strings.Contains(line, `"message":"call"`):
			calls++
		case strings.Contains(line, `"message":"return"`):
			returns++
		}
	}
	require.Equal(t, 5, steps)
	require.Equal(t, 1, calls)
	require.Equal(t, 2, returns)

	require.Contains(t, buf.String(), `"op":"LOAD_CONST"`)
	require.Contains(t, buf.String(), `"function":"identity"`)
}

func TestTraceObserverSilentBelowTraceLevel(t *testing.T) {
	chunk := buildChunk(t, func(b *bytecode.Builder) {
		b.Emit(op.Nil)
	})

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	machine := New(chunk, WithObserver(NewTraceObserver(logger)))
	_, err := machine.Run(context.Background())
	require.Nil(t, err)
	require.Empty(t, buf.String())
}
