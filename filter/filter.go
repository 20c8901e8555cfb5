// Package filter is the engine's public façade: compile an expression once,
// run it against many JSON records. It is the only package most callers -
// in particular the vector-similarity search system this engine serves -
// should need to import.
package filter

import (
	"filterexpr/compiler"
	"filterexpr/vm"
)

// Program is a compiled filter expression. It is immutable after Compile
// returns and safe to use concurrently from multiple goroutines; each call
// to Run gets its own VM stack.
type Program struct {
	compiled *compiler.Program
}

// Compile parses and compiles expr. The returned error, when non-nil, is a
// *compiler.Error carrying the byte offset of the failure into expr.
func Compile(expr string) (*Program, error) {
	compiled, err := compiler.Compile([]byte(expr))
	if err != nil {
		return nil, err
	}
	return &Program{compiled: compiled}, nil
}

// Run evaluates the compiled program against a JSON object and returns its
// boolean verdict. It never errors: a missing field, a malformed value, or
// an arithmetic edge case all collapse into a well-defined result rather
// than rejecting the record.
func (p *Program) Run(json []byte) bool {
	if p == nil {
		return false
	}
	return vm.Run(p.compiled, json)
}

// Free releases the compiled program. Go's garbage collector already
// reclaims everything Compile allocated once the last reference to p is
// gone; Free exists only to match the compile/run/free lifecycle other
// implementations of this engine expose, and is safe to call on a nil
// Program or more than once.
func (p *Program) Free() {}
