// Package lexer turns an expression-language source string into an ordered
// stream of value.Value tokens terminated by value.Eof(). Scanning is
// byte-indexed rather than rune-indexed: the
// grammar's only multi-byte-safe positions are inside string and selector
// literals, where bytes simply pass through untouched, so there is nothing
// to gain from decoding runes and a byte-indexed scanner keeps offsets
// (used for compile-error reporting) trivially aligned with the original
// source.
package lexer

import (
	"fmt"
	"strconv"

	"filterexpr/opcode"
	"filterexpr/value"
)

// Error reports a lexical failure at a byte offset into the original
// expression source, matching the compile-time-only error contract the
// rest of the pipeline holds to.
type Error struct {
	Offset  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at offset %d: %s", e.Offset, e.Message)
}

func newError(offset int, format string, args ...any) *Error {
	return &Error{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Lexer is a single-pass scanner over an expression's source bytes.
type Lexer struct {
	src     []byte
	pos     int
	tokens  []value.Value
	offsets []int
}

// New creates a Lexer over src. src is retained for the lifetime of the
// lexer and of any Value it produces (String and Selector values borrow
// directly from it).
func New(src []byte) *Lexer {
	return &Lexer{src: src}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSelectorChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '-'
}

func isWhiteSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// emit appends a token and records the byte offset it started at. The
// compiler's shunting-yard pass consults Offsets() to report "end of
// program" errors (a non-operator token, such as a trailing value, has no
// opcode offset of its own to blame).
func (l *Lexer) emit(v value.Value, offset int) {
	l.tokens = append(l.tokens, v)
	l.offsets = append(l.offsets, offset)
}

// Offsets returns the byte offset each token in the last Scan's result
// started at, including the trailing Eof (whose offset is len(src)).
func (l *Lexer) Offsets() []int {
	return l.offsets
}

// Scan performs lexical analysis over the whole source and returns the
// resulting token stream, always terminated by value.Eof(). On error the
// partial token stream accumulated so far is also returned, but callers
// (the compiler) must treat any non-nil error as fatal and discard it.
func (l *Lexer) Scan() ([]value.Value, error) {
	for {
		l.skipWhiteSpace()
		if l.pos >= len(l.src) {
			break
		}

		start := l.pos
		c := l.src[start]

		var err error
		switch {
		case c == '\'' || c == '"':
			err = l.scanString(start)
		case c == '.':
			err = l.scanSelector(start)
		case c == '[':
			err = l.scanTuple(start)
		case isDigit(c):
			err = l.scanNumber(start)
		case c == '-' && l.minusStartsNumber():
			err = l.scanNumber(start)
		case isLetter(c) || isOperatorSymbol(c):
			err = l.scanOperatorOrWord(start)
		default:
			err = newError(start, "unexpected character %q", c)
		}
		if err != nil {
			return l.tokens, err
		}
	}

	l.emit(value.Eof(), l.pos)
	return l.tokens, nil
}

func (l *Lexer) skipWhiteSpace() {
	for l.pos < len(l.src) && isWhiteSpace(l.src[l.pos]) {
		l.pos++
	}
}

// minusStartsNumber disambiguates a leading '-': it begins a numeric
// literal iff no token has been emitted yet, or the last emitted token is
// an Op whose code is not ')'. "3 - 1" lexes as subtraction; "-1" and
// "(3) * -1" lex the minus as part of the number.
func (l *Lexer) minusStartsNumber() bool {
	if len(l.tokens) == 0 {
		return true
	}
	last := l.tokens[len(l.tokens)-1]
	if last.Kind != value.KindOp {
		return false
	}
	return last.OpCode != byte(opcode.RParen)
}

// scanNumber consumes optional leading '-', digits, optional '.' digits,
// optional e/E exponent with optional sign. Any malformed tail is a lex
// error at the number's start offset - including a bare '-' not followed
// by a digit, which is reported as a malformed number rather than an
// operator misuse.
func (l *Lexer) scanNumber(start int) error {
	n, i, err := scanNumberAt(l.src, start)
	if err != nil {
		return err
	}
	l.emit(value.Number(n), start)
	l.pos = i
	return nil
}

// scanString consumes a '…' or "…" delimited string. '\X' skips one
// character verbatim during lexing - the VM sees the raw slice, unescaped.
// The resulting Value borrows directly from the source.
func (l *Lexer) scanString(start int) error {
	content, next, err := scanStringAt(l.src, start)
	if err != nil {
		return err
	}
	l.emit(value.Borrowed(content), start)
	l.pos = next
	return nil
}

// scanSelector consumes a '.' followed by one or more
// [A-Za-z0-9_-] characters; the leading dot is stripped from the stored
// path.
func (l *Lexer) scanSelector(start int) error {
	i := start + 1
	for i < len(l.src) && isSelectorChar(l.src[i]) {
		i++
	}
	if i == start+1 {
		return newError(start, "empty selector")
	}
	l.emit(value.Selector(l.src[start+1:i]), start)
	l.pos = i
	return nil
}

// scanTuple consumes a '[' element (',' element)* ']' tuple literal.
// Elements are restricted to Number or String; nested tuples are rejected.
func (l *Lexer) scanTuple(start int) error {
	i := start + 1
	elems := []value.Value{}

	i = skipWhiteSpaceAt(l.src, i)
	if i < len(l.src) && l.src[i] == ']' {
		l.emit(value.NewTuple(elems), start)
		l.pos = i + 1
		return nil
	}

	for {
		i = skipWhiteSpaceAt(l.src, i)
		if i >= len(l.src) {
			return newError(start, "unterminated tuple literal")
		}

		var elem value.Value
		switch {
		case l.src[i] == '\'' || l.src[i] == '"':
			content, next, err := scanStringAt(l.src, i)
			if err != nil {
				return err
			}
			elem = value.Borrowed(content)
			i = next
		case isDigit(l.src[i]) || l.src[i] == '-':
			n, next, err := scanNumberAt(l.src, i)
			if err != nil {
				return err
			}
			elem = value.Number(n)
			i = next
		case l.src[i] == '[':
			return newError(i, "nested tuples are not supported")
		default:
			return newError(i, "unexpected character %q in tuple literal", l.src[i])
		}
		elems = append(elems, elem)

		i = skipWhiteSpaceAt(l.src, i)
		if i >= len(l.src) {
			return newError(start, "unterminated tuple literal")
		}
		switch l.src[i] {
		case ',':
			i++
			continue
		case ']':
			i++
			l.emit(value.NewTuple(elems), start)
			l.pos = i
			return nil
		default:
			return newError(i, "expected ',' or ']' in tuple literal")
		}
	}
}

// scanOperatorOrWord: a letter starts a reserved word
// (and/or/not/in/null/true/false), anything else starts the longest matching
// operator spelling from the opcode table. true and false lex as Number 1
// and Number 0, the same values JSON booleans collapse to.
func (l *Lexer) scanOperatorOrWord(start int) error {
	if isLetter(l.src[start]) {
		end := start
		for end < len(l.src) && isLetter(l.src[end]) {
			end++
		}
		word := string(l.src[start:end])
		switch word {
		case "null":
			l.emit(value.Null(), start)
		case "true":
			l.emit(value.Number(1), start)
		case "false":
			l.emit(value.Number(0), start)
		case "and":
			l.emit(value.NewOp(byte(opcode.And), start), start)
		case "or":
			l.emit(value.NewOp(byte(opcode.Or), start), start)
		case "not":
			l.emit(value.NewOp(byte(opcode.Not), start), start)
		case "in":
			l.emit(value.NewOp(byte(opcode.In), start), start)
		default:
			return newError(start, "unrecognized word %q", word)
		}
		l.pos = end
		return nil
	}

	code, length, ok := opcode.Match(string(l.src[start:]))
	if !ok {
		end := start + 4
		if end > len(l.src) {
			end = len(l.src)
		}
		return newError(start, "unrecognized operator near %q", string(l.src[start:end]))
	}
	l.emit(value.NewOp(byte(code), start), start)
	l.pos = start + length
	return nil
}

func isOperatorSymbol(c byte) bool {
	switch c {
	case '+', '-', '*', '%', '/', '!', '(', ')', '<', '>', '=', '|', '&':
		return true
	default:
		return false
	}
}

func skipWhiteSpaceAt(src []byte, i int) int {
	for i < len(src) && isWhiteSpace(src[i]) {
		i++
	}
	return i
}

// scanNumberAt and scanStringAt are the tuple-element counterparts of
// scanNumber/scanString: they operate on an explicit index rather than
// mutating Lexer state, since a tuple's elements are scanned inline while
// building the tuple's Value slice.

func scanNumberAt(src []byte, start int) (float64, int, error) {
	i := start
	if src[i] == '-' {
		i++
	}
	for i < len(src) && isDigit(src[i]) {
		i++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(src[i]) {
			i++
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		k := j
		for k < len(src) && isDigit(src[k]) {
			k++
		}
		if k == j {
			return 0, 0, newError(start, "invalid number %q", string(src[start:i+1]))
		}
		i = k
	}
	text := src[start:i]
	n, err := strconv.ParseFloat(string(text), 64)
	if err != nil {
		return 0, 0, newError(start, "invalid number %q", string(text))
	}
	return n, i, nil
}

func scanStringAt(src []byte, start int) ([]byte, int, error) {
	quote := src[start]
	i := start + 1
	for i < len(src) && src[i] != quote {
		if src[i] == '\\' && i+1 < len(src) {
			i += 2
			continue
		}
		i++
	}
	if i >= len(src) {
		return nil, 0, newError(start, "unterminated string literal")
	}
	return src[start+1 : i], i + 1, nil
}
