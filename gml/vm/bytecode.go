package vm

import (
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/symbol"
)

// Op identifies a bytecode instruction the Thread dispatch loop executes.
// The vocabulary mirrors gml/ssa's instruction set flattened to slots;
// see gml/back's doc comment for the SSA-to-bytecode lowering that
// produces it.
type Op int

const (
	OpImmediate Op = iota
	OpParam
	OpUnary
	OpBinary
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
	OpCopy
	OpJump
	OpBranch
	OpReturn
)

// Instr is one bytecode instruction. Slot numbers index a Frame's slot
// array; Dst of -1 means the instruction produces no value.
type Instr struct {
	Op   Op
	Span diag.Span

	Dst int
	A   int
	B   int
	C   int
	D   int

	UnaryOp  ssa.UnaryOp
	BinaryOp ssa.BinaryOp
	Sym      symbol.Symbol
	Const    Value

	Args []int

	Target  int
	Targets [2]int
}

// Program is one compiled script's flat instruction stream.
type Program struct {
	Instrs   []Instr
	NumSlots int
}
