// Package compiler turns an expression's token stream into a postfix
// Program using the shunting-yard algorithm: an explicit operator stack and
// an abstract stack-depth counter stand in for the AST a recursive-descent
// parser would otherwise build, so a compiled expression is ready for the
// VM without an intermediate tree-walking pass.
package compiler

import (
	"filterexpr/lexer"
	"filterexpr/opcode"
	"filterexpr/value"
)

// Compile lexes and parses src, producing a Program the vm package can run
// directly against a JSON document. The returned error, when non-nil, is
// always an *Error carrying the byte offset of the failure.
func Compile(src []byte) (*Program, error) {
	lx := lexer.New(src)
	tokens, err := lx.Scan()
	if err != nil {
		if lexErr, ok := err.(*lexer.Error); ok {
			return nil, newError(lexErr.Offset, "%s", lexErr.Message)
		}
		return nil, newError(0, "%s", err.Error())
	}
	offsets := lx.Offsets()

	c := &shuntingYard{}
	for i, tok := range tokens {
		if tok.Kind == value.KindEof {
			break
		}
		if err := c.step(tok, offsets[i]); err != nil {
			return nil, err
		}
	}

	endOffset := offsets[len(offsets)-1]
	return c.finish(endOffset)
}

// shuntingYard holds the two pieces of state the algorithm needs beyond the
// postfix output itself: the pending-operator stack and the abstract
// stack-depth counter D used to catch arity starvation (e.g. "1 + + 2") and
// a malformed final result (e.g. "1 2") without ever building an AST.
type shuntingYard struct {
	output []value.Value
	opStk  []value.Value
	depth  int
}

func (c *shuntingYard) step(tok value.Value, offset int) error {
	if tok.IsValue() {
		c.output = append(c.output, tok)
		c.depth++
		return nil
	}

	code := opcode.Code(tok.OpCode)
	switch code {
	case opcode.LParen:
		c.opStk = append(c.opStk, tok)
		return nil
	case opcode.RParen:
		return c.closeParen(offset)
	default:
		return c.pushOperator(tok, code)
	}
}

func (c *shuntingYard) closeParen(offset int) error {
	for len(c.opStk) > 0 {
		top := c.pop()
		if opcode.Code(top.OpCode) == opcode.LParen {
			return nil
		}
		if err := c.reduce(top); err != nil {
			return err
		}
	}
	return newError(offset, "unmatched ')'")
}

// pushOperator reduces everything on the operator stack that binds at least
// as tightly as tok before pushing tok itself, implementing left-to-right
// precedence climbing. ** is the lone exception: being right-associative,
// it only yields to a strictly higher-precedence operator already on the
// stack, which is what lets 2**3**2 group as 2**(3**2).
func (c *shuntingYard) pushOperator(tok value.Value, code opcode.Code) error {
	curDef := opcode.Get(code)
	for len(c.opStk) > 0 {
		top := c.opStk[len(c.opStk)-1]
		if opcode.Code(top.OpCode) == opcode.LParen {
			break
		}
		topDef := opcode.Get(opcode.Code(top.OpCode))

		var yields bool
		if code == opcode.Pow {
			yields = topDef.Precedence > curDef.Precedence
		} else {
			yields = topDef.Precedence >= curDef.Precedence
		}
		if !yields {
			break
		}

		c.pop()
		if err := c.reduce(top); err != nil {
			return err
		}
	}
	c.opStk = append(c.opStk, tok)
	return nil
}

func (c *shuntingYard) pop() value.Value {
	top := c.opStk[len(c.opStk)-1]
	c.opStk = c.opStk[:len(c.opStk)-1]
	return top
}

// reduce moves a popped operator into the postfix output, checking it has
// enough operands available on the abstract stack first.
func (c *shuntingYard) reduce(op value.Value) error {
	def := opcode.Get(opcode.Code(op.OpCode))
	if c.depth < def.Arity {
		return newError(op.OpOffset, "%q requires %d operand(s)", def.Name, def.Arity)
	}
	c.output = append(c.output, op)
	c.depth = c.depth - def.Arity + 1
	return nil
}

// finish drains any operators still on the stack and validates that the
// result is a single value: an unclosed '(' or a final depth other than one
// both indicate a malformed expression that never reached a valid parse.
func (c *shuntingYard) finish(endOffset int) (*Program, error) {
	for len(c.opStk) > 0 {
		top := c.pop()
		if opcode.Code(top.OpCode) == opcode.LParen {
			return nil, newError(top.OpOffset, "unmatched '('")
		}
		if err := c.reduce(top); err != nil {
			return nil, err
		}
	}

	if len(c.output) == 0 {
		return nil, newError(endOffset, "empty expression")
	}
	if c.depth != 1 {
		return nil, newError(endOffset, "expression does not reduce to a single result")
	}

	return &Program{Values: c.output}, nil
}
