// Package jsonfield implements a bounded, single-pass scanner that locates
// one top-level field in a JSON object and materialises its value as a
// value.Value, without ever reading past a caller-supplied length and
// without allocating anything on a miss.
//
// It is not a general JSON parser: nested objects, \uXXXX escapes and
// streaming input are all explicitly out of scope, matching the grammar a
// filter expression's selector can actually reach.
package jsonfield

import (
	"strconv"

	"filterexpr/value"
)

// Extract scans buf[:length] - which must be a top-level JSON object - for
// a field named name and materialises its value. It reports not-found (ok
// == false) rather than an error on every malformed or unsupported shape:
// a missing/bad selector is a run-time condition the VM turns into `false`,
// never a panic or an error value.
func Extract(buf []byte, length int, name []byte) (v value.Value, ok bool) {
	i := skipWS(buf, length, 0)
	if i >= length || buf[i] != '{' {
		return value.Value{}, false
	}
	i++

	for {
		i = skipWS(buf, length, i)
		if i >= length || buf[i] != '"' {
			// Either the object is empty ('}' here) or the input is
			// malformed; either way the field was never found.
			return value.Value{}, false
		}

		keyStart, keyEnd, next, ok := scanStringRaw(buf, length, i)
		if !ok {
			return value.Value{}, false
		}
		i = next

		i = skipWS(buf, length, i)
		if i >= length || buf[i] != ':' {
			return value.Value{}, false
		}
		i++
		i = skipWS(buf, length, i)
		if i >= length {
			return value.Value{}, false
		}

		if bytesEqual(buf[keyStart:keyEnd], name) {
			return materializeValue(buf, length, i)
		}

		next, ok = skipValue(buf, length, i)
		if !ok {
			return value.Value{}, false
		}
		i = next

		i = skipWS(buf, length, i)
		if i >= length {
			return value.Value{}, false
		}
		switch buf[i] {
		case ',':
			i++
		case '}':
			return value.Value{}, false
		default:
			return value.Value{}, false
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func skipWS(buf []byte, length, i int) int {
	for i < length {
		switch buf[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// scanStringRaw requires buf[start] == '"' and returns the raw content
// bounds (excluding the quotes, escapes left undecoded) plus the index one
// past the closing quote. \X is skipped as a two-byte unit, matching the
// lexer's own treatment of escapes at scan time.
func scanStringRaw(buf []byte, length, start int) (contentStart, contentEnd, next int, ok bool) {
	i := start + 1
	for i < length {
		switch buf[i] {
		case '"':
			return start + 1, i, i + 1, true
		case '\\':
			if i+1 >= length {
				return 0, 0, 0, false
			}
			i += 2
		default:
			i++
		}
	}
	return 0, 0, 0, false
}

// skipValue advances past one JSON value without materialising it, used
// while seeking past fields that don't match the requested key.
func skipValue(buf []byte, length, i int) (int, bool) {
	if i >= length {
		return 0, false
	}
	switch c := buf[i]; {
	case c == '"':
		_, _, next, ok := scanStringRaw(buf, length, i)
		return next, ok
	case c == '{' || c == '[':
		return skipBracketed(buf, length, i)
	case c == 't':
		return matchLiteral(buf, length, i, "true")
	case c == 'f':
		return matchLiteral(buf, length, i, "false")
	case c == 'n':
		return matchLiteral(buf, length, i, "null")
	case c == '-' || c == '+' || isDigit(c):
		return skipNumber(buf, length, i)
	default:
		return 0, false
	}
}

// skipBracketed skips a bracketed container by counting only the bracket
// character it started with, ignoring everything else including mismatched
// bracket characters that belong to nested containers of the other kind -
// those are consumed as opaque bytes, which is sufficient since we never
// need to interpret their contents here. Characters inside nested strings
// are never mistaken for brackets.
func skipBracketed(buf []byte, length, start int) (int, bool) {
	open := buf[start]
	var closeCh byte
	if open == '{' {
		closeCh = '}'
	} else {
		closeCh = ']'
	}

	depth := 0
	i := start
	for i < length {
		switch buf[i] {
		case '"':
			_, _, next, ok := scanStringRaw(buf, length, i)
			if !ok {
				return 0, false
			}
			i = next
		case open:
			depth++
			i++
		case closeCh:
			depth--
			i++
			if depth == 0 {
				return i, true
			}
		default:
			i++
		}
	}
	return 0, false
}

func matchLiteral(buf []byte, length, start int, lit string) (int, bool) {
	end := start + len(lit)
	if end > length {
		return 0, false
	}
	for k := 0; k < len(lit); k++ {
		if buf[start+k] != lit[k] {
			return 0, false
		}
	}
	if end < length && !isValueDelimiter(buf[end]) {
		return 0, false
	}
	return end, true
}

func isValueDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ',', ']', '}':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isNumberChar(c byte) bool {
	return isDigit(c) || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E'
}

func skipNumber(buf []byte, length, start int) (int, bool) {
	i := start
	for i < length && isNumberChar(buf[i]) {
		i++
	}
	if i == start {
		return 0, false
	}
	return i, true
}

// materializeValue implements phase 2 of extraction: turning the JSON text
// at i into a value.Value. Nested objects are explicitly unsupported and
// collapse to not-found, per the engine's non-goal of a general JSON parser.
func materializeValue(buf []byte, length, i int) (value.Value, bool) {
	if i >= length {
		return value.Value{}, false
	}
	switch c := buf[i]; {
	case c == '"':
		return materializeString(buf, length, i)
	case c == 't':
		if _, ok := matchLiteral(buf, length, i, "true"); ok {
			return value.Number(1), true
		}
		return value.Value{}, false
	case c == 'f':
		if _, ok := matchLiteral(buf, length, i, "false"); ok {
			return value.Number(0), true
		}
		return value.Value{}, false
	case c == 'n':
		if _, ok := matchLiteral(buf, length, i, "null"); ok {
			return value.Null(), true
		}
		return value.Value{}, false
	case c == '[':
		return materializeTuple(buf, length, i)
	case c == '{':
		return value.Value{}, false
	case c == '-' || c == '+' || isDigit(c):
		return materializeNumber(buf, length, i)
	default:
		return value.Value{}, false
	}
}

func materializeNumber(buf []byte, length, start int) (value.Value, bool) {
	end, ok := skipNumber(buf, length, start)
	if !ok {
		return value.Value{}, false
	}
	n, err := strconv.ParseFloat(string(buf[start:end]), 64)
	if err != nil {
		return value.Value{}, false
	}
	return value.Number(n), true
}

func materializeString(buf []byte, length, start int) (value.Value, bool) {
	contentStart, contentEnd, _, ok := scanStringRaw(buf, length, start)
	if !ok {
		return value.Value{}, false
	}
	raw := buf[contentStart:contentEnd]
	if !containsBackslash(raw) {
		return value.Borrowed(raw), true
	}
	decoded, ok := unescape(raw)
	if !ok {
		return value.Value{}, false
	}
	return value.Owned(decoded), true
}

func containsBackslash(b []byte) bool {
	for _, c := range b {
		if c == '\\' {
			return true
		}
	}
	return false
}

// unescape decodes \n \r \t \" \\ to their usual characters; any other
// escape copies the following byte verbatim, except \u, which this package
// cannot interpret (no surrogate-pair/codepoint support) and so treats as a
// decode failure - the field resolves to not-found rather than producing a
// string with a dangling 'u' and four stray hex digits.
func unescape(raw []byte) ([]byte, bool) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return nil, false
		}
		switch raw[i] {
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case '\\':
			out = append(out, '\\')
		case '"':
			out = append(out, '"')
		case 'u':
			return nil, false
		default:
			out = append(out, raw[i])
		}
	}
	return out, true
}

// materializeTuple parses a flat JSON array of primitives into a
// value.Tuple. Any element that is itself an array or object - or any
// malformed element - invalidates the whole field (not-found), matching
// the data model's "no nested tuples" invariant.
func materializeTuple(buf []byte, length, start int) (value.Value, bool) {
	i := start + 1
	var elems []value.Value

	i = skipWS(buf, length, i)
	if i < length && buf[i] == ']' {
		return value.NewTuple(elems), true
	}

	for {
		i = skipWS(buf, length, i)
		if i >= length {
			return value.Value{}, false
		}
		if buf[i] == '[' || buf[i] == '{' {
			return value.Value{}, false
		}

		elem, ok := materializeValue(buf, length, i)
		if !ok {
			return value.Value{}, false
		}
		elems = append(elems, elem)

		next, ok := skipValue(buf, length, i)
		if !ok {
			return value.Value{}, false
		}
		i = next

		i = skipWS(buf, length, i)
		if i >= length {
			return value.Value{}, false
		}
		switch buf[i] {
		case ',':
			i++
		case ']':
			return value.NewTuple(elems), true
		default:
			return value.Value{}, false
		}
	}
}
