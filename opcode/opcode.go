// Package opcode defines the operator table shared by the lexer, the
// shunting-yard compiler and the VM: opcode identities, the precedence and
// arity each operator carries at compile time, and the surface names the
// lexer matches against the expression source.
package opcode

import "fmt"

// Code identifies one of the VM's opcodes. A Code never appears on its own
// in a program - it is always carried inside a value.Value of kind Op,
// paired with the byte offset of the operator in the expression source.
type Code byte

// The complete opcode set: 16 operators that actually reach a compiled
// program, plus two parenthesis markers used transiently on the compiler's
// operator stack and never emitted into one.
const (
	Not Code = iota
	Pow
	Mul
	Div
	Mod
	Add
	Sub
	Gt
	Gte
	Lt
	Lte
	Eq
	Neq
	In
	And
	Or

	// LParen and RParen never appear in a compiled program; the compiler
	// uses them only as operator-stack markers during shunting-yard.
	LParen
	RParen
)

// Associativity of an operator during shunting-yard reduction.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// Def is the compile-time definition of an operator: how many operands it
// pops, what precedence governs when it gets reduced, and whether it binds
// left-to-right or right-to-left.
type Def struct {
	Name          string
	Code          Code
	Precedence    int
	Arity         int
	Assoc         Associativity
}

// defs is keyed by Code and is the single source of truth for arity and
// precedence; the compiler's reduction loop and the VM both read from it
// so these numbers only live in one place.
var defs = map[Code]Def{
	LParen: {Name: "(", Code: LParen, Precedence: 7, Arity: 0, Assoc: LeftAssoc},
	RParen: {Name: ")", Code: RParen, Precedence: 7, Arity: 0, Assoc: LeftAssoc},
	Not:    {Name: "!", Code: Not, Precedence: 6, Arity: 1, Assoc: RightAssoc},
	Pow:    {Name: "**", Code: Pow, Precedence: 5, Arity: 2, Assoc: RightAssoc},
	Mul:    {Name: "*", Code: Mul, Precedence: 4, Arity: 2, Assoc: LeftAssoc},
	Div:    {Name: "/", Code: Div, Precedence: 4, Arity: 2, Assoc: LeftAssoc},
	Mod:    {Name: "%", Code: Mod, Precedence: 4, Arity: 2, Assoc: LeftAssoc},
	Add:    {Name: "+", Code: Add, Precedence: 3, Arity: 2, Assoc: LeftAssoc},
	Sub:    {Name: "-", Code: Sub, Precedence: 3, Arity: 2, Assoc: LeftAssoc},
	Gt:     {Name: ">", Code: Gt, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	Gte:    {Name: ">=", Code: Gte, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	Lt:     {Name: "<", Code: Lt, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	Lte:    {Name: "<=", Code: Lte, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	Eq:     {Name: "==", Code: Eq, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	Neq:    {Name: "!=", Code: Neq, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	In:     {Name: "in", Code: In, Precedence: 2, Arity: 2, Assoc: LeftAssoc},
	And:    {Name: "and", Code: And, Precedence: 1, Arity: 2, Assoc: LeftAssoc},
	Or:     {Name: "or", Code: Or, Precedence: 0, Arity: 2, Assoc: LeftAssoc},
}

// Get returns the definition for op. It panics on an unknown Code, which
// would only ever happen from a developer error (a Code value fabricated
// outside this package), never from user input.
func Get(op Code) Def {
	def, ok := defs[op]
	if !ok {
		panic(fmt.Sprintf("opcode: undefined code %d", op))
	}
	return def
}

// namesByLength lists every operator spelling Match knows; Match keeps the
// longest one that prefixes its input, so that e.g. "<=" wins over "<" and
// "!=" over "!". Multiple spellings may map to the same Code ("and"/"&&",
// "or"/"||").
var namesByLength = []struct {
	Name string
	Code Code
}{
	{"**", Pow},
	{"<=", Lte},
	{">=", Gte},
	{"==", Eq},
	{"!=", Neq},
	{"&&", And},
	{"||", Or},
	{"not", Not},
	{"and", And},
	{"or", Or},
	{"in", In},
	{"!", Not},
	{"*", Mul},
	{"/", Div},
	{"%", Mod},
	{"+", Add},
	{"-", Sub},
	{"<", Lt},
	{">", Gt},
	{"(", LParen},
	{")", RParen},
}

// Match finds the longest operator spelling that is a prefix of s, returning
// its Code and the number of bytes consumed. ok is false if no operator name
// is a prefix of s at all.
func Match(s string) (code Code, length int, ok bool) {
	best := -1
	for _, n := range namesByLength {
		if len(n.Name) <= len(s) && s[:len(n.Name)] == n.Name {
			if len(n.Name) > best {
				best = len(n.Name)
				code = n.Code
				length = len(n.Name)
				ok = true
			}
		}
	}
	return code, length, ok
}

// String returns the canonical spelling of op, used for disassembly.
func (c Code) String() string {
	return Get(c).Name
}
