package bytecode

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/petrel-lang/petrel/op"
)

// imageVersion is the current binary image format version. Unmarshal
// rejects images written by an incompatible format.
const imageVersion = 1

// Canonical mode keeps the payload encoding deterministic, so the SHA-256
// sum identifies the program content.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Serialization types

const (
	constNil uint8 = iota
	constNumber
	constString
	constBool
	constFunction
)

type constantDef struct {
	Kind     uint8        `cbor:"1,keyasint"`
	Number   float64      `cbor:"2,keyasint,omitempty"`
	Text     string       `cbor:"3,keyasint,omitempty"`
	Flag     bool         `cbor:"4,keyasint,omitempty"`
	Function *functionDef `cbor:"5,keyasint,omitempty"`
}

type functionDef struct {
	ID    string `cbor:"1,keyasint,omitempty"`
	Name  string `cbor:"2,keyasint,omitempty"`
	Arity int    `cbor:"3,keyasint"`
	Chunk int    `cbor:"4,keyasint"` // index into the image's chunk list
}

type chunkDef struct {
	ID           string        `cbor:"1,keyasint,omitempty"`
	Name         string        `cbor:"2,keyasint,omitempty"`
	Filename     string        `cbor:"3,keyasint,omitempty"`
	Instructions []op.Code     `cbor:"4,keyasint"`
	Lines        []int         `cbor:"5,keyasint"`
	Constants    []constantDef `cbor:"6,keyasint"`
}

// imageState lists chunks with function bodies before the chunks whose
// pools reference them and the root chunk last, so function constants
// only ever point at earlier indices.
type imageState struct {
	Chunks []chunkDef `cbor:"1,keyasint"`
}

type imageEnvelope struct {
	Version uint8  `cbor:"1,keyasint"`
	Sum     []byte `cbor:"2,keyasint"`
	Payload []byte `cbor:"3,keyasint"`
}

// Marshal serializes a chunk and every function body it references into a
// binary image. The payload is canonical CBOR protected by a SHA-256 sum,
// so equal programs produce byte-identical payloads and corruption is
// detected at load time. Source text is not carried in images.
func Marshal(chunk *Chunk) ([]byte, error) {
	all := chunk.flattenPostOrder()
	index := make(map[*Chunk]int, len(all))
	for i, c := range all {
		index[c] = i
	}

	state := imageState{Chunks: make([]chunkDef, len(all))}
	for i, c := range all {
		constants := make([]constantDef, len(c.constants))
		for j, constant := range c.constants {
			def, err := marshalConstant(constant, index)
			if err != nil {
				return nil, fmt.Errorf("chunk %q constant %d: %w", c.name, j, err)
			}
			constants[j] = def
		}
		state.Chunks[i] = chunkDef{
			ID:           c.id,
			Name:         c.name,
			Filename:     c.filename,
			Instructions: c.instructions,
			Lines:        c.lines,
			Constants:    constants,
		}
	}

	payload, err := cborEncMode.Marshal(state)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(payload)
	return cborEncMode.Marshal(imageEnvelope{
		Version: imageVersion,
		Sum:     sum[:],
		Payload: payload,
	})
}

// Unmarshal restores a chunk from a binary image produced by Marshal. The
// format version and content sum are verified and every restored chunk is
// validated before the root is returned.
func Unmarshal(data []byte) (*Chunk, error) {
	var env imageEnvelope
	if err := cbor.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal image: %w", err)
	}
	if env.Version != imageVersion {
		return nil, fmt.Errorf("bytecode: unsupported image version %d (want %d)", env.Version, imageVersion)
	}
	sum := sha256.Sum256(env.Payload)
	if !bytes.Equal(sum[:], env.Sum) {
		return nil, fmt.Errorf("bytecode: image content sum mismatch")
	}

	var state imageState
	if err := cbor.Unmarshal(env.Payload, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal image payload: %w", err)
	}
	if len(state.Chunks) == 0 {
		return nil, fmt.Errorf("bytecode: image contains no chunks")
	}

	chunks := make([]*Chunk, len(state.Chunks))
	for i, def := range state.Chunks {
		constants := make([]any, len(def.Constants))
		for j, c := range def.Constants {
			constant, err := unmarshalConstant(c, chunks[:i])
			if err != nil {
				return nil, fmt.Errorf("bytecode: chunk %q constant %d: %w", def.Name, j, err)
			}
			constants[j] = constant
		}
		chunk, err := NewChunk(ChunkParams{
			ID:           def.ID,
			Name:         def.Name,
			Filename:     def.Filename,
			Instructions: def.Instructions,
			Constants:    constants,
			Lines:        def.Lines,
		})
		if err != nil {
			return nil, err
		}
		chunks[i] = chunk
	}

	var errs *multierror.Error
	for _, chunk := range chunks {
		if err := Validate(chunk); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return chunks[len(chunks)-1], nil
}

func marshalConstant(constant any, index map[*Chunk]int) (constantDef, error) {
	switch v := constant.(type) {
	case nil:
		return constantDef{Kind: constNil}, nil
	case float64:
		return constantDef{Kind: constNumber, Number: v}, nil
	case string:
		return constantDef{Kind: constString, Text: v}, nil
	case bool:
		return constantDef{Kind: constBool, Flag: v}, nil
	case *Function:
		chunkIndex, ok := index[v.chunk]
		if !ok {
			return constantDef{}, fmt.Errorf("function %q has no body", v.name)
		}
		return constantDef{Kind: constFunction, Function: &functionDef{
			ID:    v.id,
			Name:  v.name,
			Arity: v.arity,
			Chunk: chunkIndex,
		}}, nil
	default:
		return constantDef{}, fmt.Errorf("unknown constant type: %T", constant)
	}
}

func unmarshalConstant(def constantDef, built []*Chunk) (any, error) {
	switch def.Kind {
	case constNil:
		return nil, nil
	case constNumber:
		return def.Number, nil
	case constString:
		return def.Text, nil
	case constBool:
		return def.Flag, nil
	case constFunction:
		if def.Function == nil {
			return nil, fmt.Errorf("function constant has no definition")
		}
		if def.Function.Chunk < 0 || def.Function.Chunk >= len(built) {
			return nil, fmt.Errorf("function %q references chunk %d out of order",
				def.Function.Name, def.Function.Chunk)
		}
		return NewFunction(FunctionParams{
			ID:    def.Function.ID,
			Name:  def.Function.Name,
			Arity: def.Function.Arity,
			Chunk: built[def.Function.Chunk],
		}), nil
	default:
		return nil, fmt.Errorf("unknown constant kind: %d", def.Kind)
	}
}
