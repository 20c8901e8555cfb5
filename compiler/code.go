package compiler

import (
	"fmt"
	"strings"

	"filterexpr/opcode"
	"filterexpr/value"
)

// Program is a compiled expression: a flat postfix sequence of Values ready
// for the VM to walk left to right. There is no separate constants pool to
// index into and no byte-encoded instruction stream - operators and
// operands share the exact representation the lexer produced them in, per
// the engine's tagged-union data model.
type Program struct {
	Values []value.Value
}

// String disassembles the program one Value per line. Used by the compile
// subcommand to show what an expression reduced to.
func (p *Program) String() string {
	var b strings.Builder
	for i, v := range p.Values {
		switch v.Kind {
		case value.KindOp:
			fmt.Fprintf(&b, "%3d  op     %s\n", i, opcode.Code(v.OpCode))
		case value.KindNumber:
			fmt.Fprintf(&b, "%3d  push   %v\n", i, v.Number)
		case value.KindString:
			fmt.Fprintf(&b, "%3d  push   %q\n", i, v.Bytes)
		case value.KindSelector:
			fmt.Fprintf(&b, "%3d  push   .%s\n", i, v.Bytes)
		case value.KindNull:
			fmt.Fprintf(&b, "%3d  push   null\n", i)
		case value.KindTuple:
			fmt.Fprintf(&b, "%3d  push   tuple[%d]\n", i, len(v.Tuple))
		}
	}
	return b.String()
}
