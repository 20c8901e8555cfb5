package compiler

import "fmt"

// Error reports a compile-time failure - lexical or structural - at a byte
// offset into the original expression source. It is the only error type
// this package ever returns from Compile.
type Error struct {
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("💥 compile error at offset %d: %s", e.Offset, e.Message)
}

func newError(offset int, format string, args ...any) *Error {
	return &Error{Offset: offset, Message: fmt.Sprintf(format, args...)}
}
