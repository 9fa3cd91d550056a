// Package ssa is the SSA-form intermediate representation GML's front-end
// codegen builds and its back-end codegen lowers to bytecode, grounded on
// gm-archive/dejavu's original Rust IR (original_source/src/back/ssa.rs):
// a control-flow graph of basic blocks with block-parameter phis, an
// entry block (index 0) and a single exit block (index 1) whose Return
// terminator reads a distinguished return_def value.
package ssa

import (
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/symbol"
)

// Value identifies an SSA value: an index into Function.Values.
type Value int32

// Block identifies a basic block: an index into Function.Blocks.
type Block int32

// ENTRY and EXIT are the two blocks every Function starts with.
const (
	ENTRY Block = 0
	EXIT  Block = 1
)

// Op identifies the kind of computation or effect an Inst performs.
type Op int

const (
	OpUndef Op = iota
	OpAlias
	OpImmediate
	OpUnary
	OpBinary
	OpArgument
	OpParam
	OpDeclareGlobal
	OpLookup
	OpRead
	OpWrite
	OpLoadField
	OpLoadFieldDefault
	OpLoadFieldArray
	OpStoreField
	OpStoreIndex
	OpRelease
	OpCall
	OpReturn
	OpJump
	OpBranch
)

func (op Op) String() string {
	switch op {
	case OpUndef:
		return "undef"
	case OpAlias:
		return "alias"
	case OpImmediate:
		return "immediate"
	case OpUnary:
		return "unary"
	case OpBinary:
		return "binary"
	case OpArgument:
		return "argument"
	case OpParam:
		return "param"
	case OpDeclareGlobal:
		return "declare_global"
	case OpLookup:
		return "lookup"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpLoadField:
		return "load_field"
	case OpLoadFieldDefault:
		return "load_field_default"
	case OpLoadFieldArray:
		return "load_field_array"
	case OpStoreField:
		return "store_field"
	case OpStoreIndex:
		return "store_index"
	case OpRelease:
		return "release"
	case OpCall:
		return "call"
	case OpReturn:
		return "return"
	case OpJump:
		return "jump"
	case OpBranch:
		return "branch"
	default:
		return "?"
	}
}

// UnaryOp names a unary SSA operation (spec.md §4.3).
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
	BitInvert
	With     // initialize a `with`-iteration cursor
	Next     // step a `with`-iteration cursor
	ToArray  // explicit shape coercion: scalar -> 1-cell array
	ToScalar // explicit shape coercion: 1-cell array -> scalar
)

var unaryOpNames = [...]string{Negate: "negate", Not: "not", BitInvert: "bit_invert", With: "with", Next: "next", ToArray: "to_array", ToScalar: "to_scalar"}

func (op UnaryOp) String() string {
	if int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return "?"
}

// BinaryOp names a binary SSA operation, including the array-access
// primitives (spec.md §4.3: "Binary ops include arithmetic, comparison,
// logical short-circuit fold, bitwise, shifts, and array access
// primitives LoadRow, LoadIndex, StoreRow").
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	IntDiv
	Mod
	And
	Or
	Xor
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	LoadRow
	LoadIndex
	StoreRow
)

var binaryOpNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", IntDiv: "int_div", Mod: "mod",
	And: "and", Or: "or", Xor: "xor", BitAnd: "bit_and", BitOr: "bit_or", BitXor: "bit_xor",
	Shl: "shl", Shr: "shr", Eq: "eq", Ne: "ne", Lt: "lt", Le: "le", Gt: "gt", Ge: "ge",
	LoadRow: "load_row", LoadIndex: "load_index", StoreRow: "store_row",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return "?"
}

// Const is an OpImmediate operand. The SSA layer does not depend on
// gml/vm's NaN-boxed Value (gml/vm depends on gml/ssa for UnaryOp/
// BinaryOp, so the dependency cannot run the other way); gml/back's
// lowering converts a Const to a vm.Value.
type Const struct {
	IsString bool
	Real     float64
	Str      symbol.Symbol
}

// RealConst returns a real-valued Const.
func RealConst(f float64) Const { return Const{Real: f} }

// StringConst returns a string-valued Const naming an interned symbol.
func StringConst(s symbol.Symbol) Const { return Const{IsString: true, Str: s} }

// Inst is a single SSA instruction. Every instruction occupies one Value
// slot in Function.Values, whether or not it produces a usable result
// (Function.Defs reports which do). Field meaning depends on Op; see the
// doc comment on each Op constant's use in gml/front/codegen.go and
// gml/back for the authoritative mapping.
type Inst struct {
	Op   Op
	Span diag.Span

	UnaryOp  UnaryOp
	BinaryOp BinaryOp
	Sym      symbol.Symbol
	Const    Const

	// Index carries the script call-argument position for OpParam
	// (GML's argument0, argument1, ... pseudo-variables).
	Index int

	// Args holds the operand Values; its meaning is Op-specific:
	//   Alias:              [aliased]
	//   Unary:               [operand]
	//   Binary:              [lhs, rhs]
	//   Read:                [checked]              (Sym names the local)
	//   Write:               [value]
	//   LoadField family:    [scope]                 (Sym names the field)
	//   StoreField:          [value, scope]          (Sym names the field)
	//   StoreIndex:          [array, row, col, value]
	//   Release:             [value]
	//   Call:                call arguments           (Sym names the callee)
	//   Return:              [value] or empty
	//   Jump:                block arguments for Target
	Args []Value

	// Params holds per-call return-scratch SSA values (spec.md §4.3:
	// "Call(sym, args, parameters) where parameters carries SSA values
	// for call-return scratch").
	Params []Value

	Cond       Value    // Branch
	Target     Block    // Jump
	Targets    [2]Block // Branch
	BranchArgs [2][]Value
}

// BlockBody holds one basic block's parameters and instruction list. The
// last entry in Instructions is always the block's terminator.
type BlockBody struct {
	Params       []Value
	Instructions []Value
	sealed       bool
}

// Function is one compiled script's control-flow graph.
type Function struct {
	Blocks    []BlockBody
	Values    []Inst
	ReturnDef Value
}

// NewFunction returns a Function with its ENTRY and EXIT blocks created
// and an EXIT block parameter (ReturnDef) ready to collect every Return
// site's value.
func NewFunction() *Function {
	f := &Function{}
	f.Blocks = append(f.Blocks, BlockBody{}) // ENTRY
	f.Blocks = append(f.Blocks, BlockBody{}) // EXIT
	f.ReturnDef = f.addParam(EXIT)
	return f
}

// MakeBlock appends a new, unterminated block and returns its id.
func (f *Function) MakeBlock() Block {
	f.Blocks = append(f.Blocks, BlockBody{})
	return Block(len(f.Blocks) - 1)
}

func (f *Function) addParam(b Block) Value {
	v := Value(len(f.Values))
	f.Values = append(f.Values, Inst{Op: OpArgument})
	f.Blocks[b].Params = append(f.Blocks[b].Params, v)
	return v
}

// AddParam appends a new block parameter to b and returns its Value.
func (f *Function) AddParam(b Block) Value {
	return f.addParam(b)
}

// Emit appends inst as the next Value in the function and to b's
// instruction list. It panics if b is already terminated.
func (f *Function) Emit(b Block, inst Inst) Value {
	if f.Blocks[b].sealed {
		panic("ssa: emit into a terminated block")
	}
	v := Value(len(f.Values))
	f.Values = append(f.Values, inst)
	f.Blocks[b].Instructions = append(f.Blocks[b].Instructions, v)
	switch inst.Op {
	case OpReturn, OpJump, OpBranch:
		f.Blocks[b].sealed = true
	}
	return v
}

// Inst returns the instruction that defines v.
func (f *Function) Inst(v Value) *Inst { return &f.Values[v] }

// Sealed reports whether b already has a terminator.
func (f *Function) Sealed(b Block) bool { return f.Blocks[b].sealed }

// Terminator returns the Value of b's terminating instruction. It panics
// if b has no instructions yet.
func (f *Function) Terminator(b Block) Value {
	ins := f.Blocks[b].Instructions
	if len(ins) == 0 {
		panic("ssa: empty block has no terminator")
	}
	return ins[len(ins)-1]
}

// Successors returns the blocks b's terminator can transfer control to.
func (f *Function) Successors(b Block) []Block {
	inst := f.Inst(f.Terminator(b))
	switch inst.Op {
	case OpJump:
		return []Block{inst.Target}
	case OpBranch:
		return inst.Targets[:]
	case OpReturn:
		return nil
	default:
		panic("ssa: corrupt block: no terminator")
	}
}

// Defs reports whether v produces a usable SSA value (as opposed to a
// pure side-effecting or control-flow instruction).
func (f *Function) Defs(v Value) bool {
	switch f.Values[v].Op {
	case OpImmediate, OpUnary, OpBinary, OpArgument, OpParam, OpLookup,
		OpWrite, OpLoadField, OpLoadFieldDefault, OpLoadFieldArray, OpCall:
		return true
	default:
		return false
	}
}

// Uses returns the Values used (read) by the instruction defining v.
func (f *Function) Uses(v Value) []Value {
	inst := f.Values[v]
	switch inst.Op {
	case OpJump:
		return inst.Args
	case OpBranch:
		all := append([]Value{inst.Cond}, inst.BranchArgs[0]...)
		return append(all, inst.BranchArgs[1]...)
	default:
		return inst.Args
	}
}
