// Package value implements the tagged-union Value that flows through every
// stage of the filter-expression engine: the lexer emits a stream of
// Values, the compiler rearranges them into a postfix program of Values,
// and the VM operates on Values popped from and pushed to its stack.
//
// A Value is deliberately a small struct copied by value rather than a
// reference-counted cell. Go's garbage collector already gives us the
// "shared ownership, released automatically" behaviour the original design
// notes ask for; the one piece of bookkeeping that still matters is
// String.Owned, which records whether String.Bytes aliases a caller-owned
// buffer (the expression source or the JSON input) or was privately
// allocated while decoding escapes. A borrowed String must never be mutated
// and must not outlive the buffer it points into.
package value

import (
	"strconv"
)

// Kind discriminates the variant held by a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindNull
	KindTuple
	KindSelector
	KindOp
	KindEof
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindTuple:
		return "tuple"
	case KindSelector:
		return "selector"
	case KindOp:
		return "op"
	case KindEof:
		return "eof"
	default:
		return "unknown"
	}
}

// Op carries an opcode and the byte offset in the expression source where
// it appeared. The offset is retained purely for compile-error reporting;
// the VM never looks at it.
type Op struct {
	Code   byte
	Offset int
}

// Value is the tagged union that flows through the engine. Only the fields
// relevant to Kind are meaningful; callers should always switch on Kind
// before reading payload fields.
type Value struct {
	Kind Kind

	Number float64

	// String payload. Bytes may alias the expression text or the JSON
	// input (Owned == false) or may be a private allocation produced
	// while decoding \-escapes (Owned == true). Borrowed bytes must
	// never be written through.
	Bytes []byte
	Owned bool

	// Tuple elements. The lexer builds tuples of Number and String only;
	// the jsonfield package also admits Null (from a JSON null element).
	// Neither ever nests a Tuple.
	Tuple []Value

	// Op payload, valid when Kind == KindOp.
	OpCode   byte
	OpOffset int
}

// Number constructs a Number value.
func Number(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// Borrowed constructs a String value whose bytes alias the given slice. The
// caller is responsible for keeping the backing array alive for as long as
// the Value (or anything copied from it) is in use.
func Borrowed(b []byte) Value {
	return Value{Kind: KindString, Bytes: b, Owned: false}
}

// Owned constructs a String value that owns a private copy of its bytes.
func Owned(b []byte) Value {
	return Value{Kind: KindString, Bytes: b, Owned: true}
}

// Null constructs the distinct Null value.
func Null() Value {
	return Value{Kind: KindNull}
}

// NewTuple constructs a Tuple from primitive (Number/String/Null) elements. Nested tuples
// are never constructed by this package's callers; it is a programmer
// error to pass one and doing so will simply be treated as an opaque
// element for equality/membership purposes.
func NewTuple(elems []Value) Value {
	return Value{Kind: KindTuple, Tuple: elems}
}

// Selector constructs a reference to a top-level JSON field name; path is
// the field name with its leading '.' already stripped.
func Selector(path []byte) Value {
	return Value{Kind: KindSelector, Bytes: path}
}

// NewOp constructs an operator token carrying its source offset.
func NewOp(code byte, offset int) Value {
	return Value{Kind: KindOp, OpCode: code, OpOffset: offset}
}

// Eof constructs the token-stream terminator.
func Eof() Value {
	return Value{Kind: KindEof}
}

// IsValue reports whether v is a value token (as opposed to an Op or Eof) -
// the compiler uses this to decide what feeds the postfix program directly
// versus what the shunting-yard stack rearranges.
func (v Value) IsValue() bool {
	switch v.Kind {
	case KindNumber, KindString, KindNull, KindTuple, KindSelector:
		return true
	default:
		return false
	}
}

// ToNumber implements the engine's number-coercion rules: numbers pass
// through, strings parse as a full float or coerce to zero, everything else
// is zero.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindString:
		n, ok := parseFullFloat(v.Bytes)
		if !ok {
			return 0
		}
		return n
	default:
		return 0
	}
}

// ToBool implements the engine's truthiness rules: nonzero numbers and
// nonempty strings are truthy, tuples are always truthy, null and anything
// else is falsy.
func (v Value) ToBool() bool {
	switch v.Kind {
	case KindNumber:
		return v.Number != 0
	case KindString:
		return len(v.Bytes) != 0
	case KindTuple:
		return true
	default:
		return false
	}
}

// Equal implements the VM's `eq` opcode semantics, shared by `eq`, `neq`
// and tuple `in` membership checks. Same-kind string/number compare
// directly, null equals only null, and any other mixed pairing falls back
// to numeric coercion.
func Equal(a, b Value) bool {
	switch {
	case a.Kind == KindString && b.Kind == KindString:
		return string(a.Bytes) == string(b.Bytes)
	case a.Kind == KindNumber && b.Kind == KindNumber:
		return a.Number == b.Number
	case a.Kind == KindNull || b.Kind == KindNull:
		return a.Kind == KindNull && b.Kind == KindNull
	default:
		return a.ToNumber() == b.ToNumber()
	}
}

// parseFullFloat parses b as a float64, requiring the entire slice to be
// consumed; a partial parse (trailing garbage) is treated as a failure.
func parseFullFloat(b []byte) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
