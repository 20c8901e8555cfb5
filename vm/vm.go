// Package vm executes a compiled postfix program against a JSON record and
// reduces it to a single boolean verdict. There is exactly one entry point,
// Run, and it never returns an error: every run-time edge case (a missing
// selector, a malformed value, division by zero) collapses into a
// well-defined result rather than surfacing a failure, because the filter
// is a hint over caller-controlled data, not a place to reject candidates
// because their attributes were untidy.
package vm

import (
	"bytes"
	"math"

	"filterexpr/compiler"
	"filterexpr/jsonfield"
	"filterexpr/opcode"
	"filterexpr/value"
)

// Run evaluates prog against json and returns its boolean verdict. It is
// pure with respect to prog and safe to call concurrently from multiple
// goroutines against the same compiled Program, each with its own stack.
func Run(prog *compiler.Program, json []byte) bool {
	var st stack

	for _, v := range prog.Values {
		switch v.Kind {
		case value.KindOp:
			if !apply(&st, opcode.Code(v.OpCode)) {
				return false
			}
		case value.KindSelector:
			resolved, ok := jsonfield.Extract(json, len(json), v.Bytes)
			if !ok {
				// A missing selector short-circuits the whole run, not
				// just the expression it appears in - ".missing and 1==1"
				// is false even though 1==1 never gets to run.
				return false
			}
			st.push(resolved)
		default:
			st.push(v)
		}
	}

	final, ok := st.pop()
	if !ok {
		return false
	}
	return final.ToBool()
}

// apply pops an operator's operands, computes its result and pushes it
// back. It returns false only on stack underflow, which a program the
// compiler produced should never cause - the check exists so a malformed
// Program built outside this package degrades to "false" rather than
// panicking.
func apply(st *stack, code opcode.Code) bool {
	def := opcode.Get(code)

	if def.Arity == 1 {
		b, ok := st.pop()
		if !ok {
			return false
		}
		st.push(boolValue(!b.ToBool()))
		return true
	}

	b, ok := st.pop()
	if !ok {
		return false
	}
	a, ok := st.pop()
	if !ok {
		return false
	}

	switch code {
	case opcode.Pow:
		st.push(value.Number(math.Pow(a.ToNumber(), b.ToNumber())))
	case opcode.Mul:
		st.push(value.Number(a.ToNumber() * b.ToNumber()))
	case opcode.Div:
		st.push(value.Number(a.ToNumber() / b.ToNumber()))
	case opcode.Mod:
		st.push(value.Number(math.Mod(a.ToNumber(), b.ToNumber())))
	case opcode.Add:
		st.push(value.Number(a.ToNumber() + b.ToNumber()))
	case opcode.Sub:
		st.push(value.Number(a.ToNumber() - b.ToNumber()))
	case opcode.Gt:
		st.push(boolValue(a.ToNumber() > b.ToNumber()))
	case opcode.Gte:
		st.push(boolValue(a.ToNumber() >= b.ToNumber()))
	case opcode.Lt:
		st.push(boolValue(a.ToNumber() < b.ToNumber()))
	case opcode.Lte:
		st.push(boolValue(a.ToNumber() <= b.ToNumber()))
	case opcode.Eq:
		st.push(boolValue(value.Equal(a, b)))
	case opcode.Neq:
		st.push(boolValue(!value.Equal(a, b)))
	case opcode.In:
		st.push(boolValue(inOp(a, b)))
	case opcode.And:
		st.push(boolValue(a.ToBool() && b.ToBool()))
	case opcode.Or:
		st.push(boolValue(a.ToBool() || b.ToBool()))
	default:
		return false
	}
	return true
}

// inOp implements `in`: tuple membership by eq, or substring containment
// when both sides are strings. Any other pairing is false.
func inOp(a, b value.Value) bool {
	switch b.Kind {
	case value.KindTuple:
		for _, elem := range b.Tuple {
			if value.Equal(a, elem) {
				return true
			}
		}
		return false
	case value.KindString:
		if a.Kind != value.KindString {
			return false
		}
		return bytes.Contains(b.Bytes, a.Bytes)
	default:
		return false
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.Number(1)
	}
	return value.Number(0)
}
