package asm

import (
	"fmt"
	"io"

	"github.com/petrel-lang/petrel/bytecode"
)

// Assemble compiles assembly read from the supplied io.Reader and returns
// the resulting validated chunk.
//
// The name parameter is used in error messages and recorded as the
// filename of the built chunks. If the io.Reader is a file, name should be
// the file name.
//
// All problems found in the input are reported together in a single
// multierror, each prefixed with its source position.
func Assemble(name string, r io.Reader) (*bytecode.Chunk, error) {
	source, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return AssembleString(name, string(source))
}

// AssembleString is like Assemble but reads from a string.
func AssembleString(name, source string) (*bytecode.Chunk, error) {
	return newParser(name, source).parse()
}
