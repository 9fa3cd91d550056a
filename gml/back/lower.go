// Package back lowers gml/ssa's block-and-phi form to the flat
// slot-based bytecode a gml/vm Thread dispatches directly, grounded on
// the opcode-table idiom in db47h/ngaro's vm/opcodes.go and
// asm/asm.go's forward-reference-then-patch assembler pattern (here
// used to resolve block targets to instruction offsets once every
// block has been laid out).
package back

import (
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/gml/vm"
)

// Lower translates fn to a vm.Program. Every SSA value is assigned its
// own dedicated slot (no linear-scan reuse of non-overlapping live
// ranges: this trades frame size for a block-parameter resolution that
// needs no parallel-copy algorithm, since a Jump's argument slots and
// its target's parameter slots can never alias). Block targets are
// recorded as block indices during emission and patched to instruction
// offsets in a final linking pass, the way asm/asm.go resolves forward
// label references after a full pass over the source.
func Lower(fn *ssa.Function) *vm.Program {
	l := &lowerer{fn: fn, blockStart: make([]int, len(fn.Blocks))}
	for b := range fn.Blocks {
		l.blockStart[b] = len(l.out.Instrs)
		l.block(ssa.Block(b))
	}
	l.link()
	l.out.NumSlots = len(fn.Values)
	return &l.out
}

type lowerer struct {
	fn         *ssa.Function
	out        vm.Program
	blockStart []int
}

func (l *lowerer) emit(in vm.Instr) {
	l.out.Instrs = append(l.out.Instrs, in)
}

func slot(v ssa.Value) int { return int(v) }

// constValue converts an SSA-layer Const (which cannot depend on gml/vm;
// see gml/ssa's doc comment) to the NaN-boxed vm.Value an OpImmediate
// instruction loads into its slot.
func constValue(c ssa.Const) vm.Value {
	if c.IsString {
		return vm.String(c.Str)
	}
	return vm.Real(c.Real)
}

func (l *lowerer) block(b ssa.Block) {
	body := l.fn.Blocks[b]
	for _, v := range body.Instructions {
		l.inst(v)
	}
}

func (l *lowerer) inst(v ssa.Value) {
	in := l.fn.Inst(v)
	dst := slot(v)
	switch in.Op {
	case ssa.OpUndef:
		// leaves the slot at its zero value (Real(0)); no instruction needed.
	case ssa.OpAlias:
		l.emit(vm.Instr{Op: vm.OpCopy, Span: in.Span, Dst: dst, A: slot(in.Args[0])})
	case ssa.OpImmediate:
		l.emit(vm.Instr{Op: vm.OpImmediate, Span: in.Span, Dst: dst, Const: constValue(in.Const)})
	case ssa.OpUnary:
		l.emit(vm.Instr{Op: vm.OpUnary, Span: in.Span, Dst: dst, A: slot(in.Args[0]), UnaryOp: in.UnaryOp})
	case ssa.OpBinary:
		l.emit(vm.Instr{Op: vm.OpBinary, Span: in.Span, Dst: dst, A: slot(in.Args[0]), B: slot(in.Args[1]), BinaryOp: in.BinaryOp})
	case ssa.OpArgument:
		// value arrives via a Copy emitted at each predecessor edge.
	case ssa.OpParam:
		l.emit(vm.Instr{Op: vm.OpParam, Span: in.Span, Dst: dst, A: in.Index})
	case ssa.OpDeclareGlobal:
		l.emit(vm.Instr{Op: vm.OpDeclareGlobal, Span: in.Span, Dst: -1, Sym: in.Sym})
	case ssa.OpLookup:
		l.emit(vm.Instr{Op: vm.OpLookup, Span: in.Span, Dst: dst, Sym: in.Sym})
	case ssa.OpRead:
		l.emit(vm.Instr{Op: vm.OpRead, Span: in.Span, Dst: dst, A: slot(in.Args[0]), Sym: in.Sym})
	case ssa.OpWrite:
		l.emit(vm.Instr{Op: vm.OpWrite, Span: in.Span, Dst: dst, A: slot(in.Args[0])})
	case ssa.OpLoadField:
		l.emit(vm.Instr{Op: vm.OpLoadField, Span: in.Span, Dst: dst, A: slot(in.Args[0]), Sym: in.Sym})
	case ssa.OpLoadFieldDefault:
		l.emit(vm.Instr{Op: vm.OpLoadFieldDefault, Span: in.Span, Dst: dst, A: slot(in.Args[0]), Sym: in.Sym})
	case ssa.OpLoadFieldArray:
		l.emit(vm.Instr{Op: vm.OpLoadFieldArray, Span: in.Span, Dst: dst, A: slot(in.Args[0]), Sym: in.Sym})
	case ssa.OpStoreField:
		l.emit(vm.Instr{Op: vm.OpStoreField, Span: in.Span, Dst: -1, A: slot(in.Args[0]), B: slot(in.Args[1]), Sym: in.Sym})
	case ssa.OpStoreIndex:
		l.emit(vm.Instr{Op: vm.OpStoreIndex, Span: in.Span, Dst: -1,
			A: slot(in.Args[0]), B: slot(in.Args[1]), C: slot(in.Args[2]), D: slot(in.Args[3])})
	case ssa.OpRelease:
		l.emit(vm.Instr{Op: vm.OpRelease, Span: in.Span, Dst: -1, A: slot(in.Args[0])})
	case ssa.OpCall:
		args := make([]int, len(in.Args))
		for i, a := range in.Args {
			args[i] = slot(a)
		}
		l.emit(vm.Instr{Op: vm.OpCall, Span: in.Span, Dst: dst, Sym: in.Sym, Args: args})
	case ssa.OpReturn:
		l.emit(vm.Instr{Op: vm.OpReturn, Span: in.Span, Dst: -1, A: slot(in.Args[0])})
	case ssa.OpJump:
		l.copiesForEdge(in.Target, in.Args, in.Span)
		l.emit(vm.Instr{Op: vm.OpJump, Span: in.Span, Dst: -1, Target: int(in.Target)})
	case ssa.OpBranch:
		// Branch targets in this compiler are always parameter-less
		// (every merge point is reached through an intervening Jump, per
		// gml/front/codegen.go), so no edge copies are needed here.
		l.emit(vm.Instr{Op: vm.OpBranch, Span: in.Span, Dst: -1, A: slot(in.Cond),
			Targets: [2]int{int(in.Targets[0]), int(in.Targets[1])}})
	}
}

func (l *lowerer) copiesForEdge(target ssa.Block, args []ssa.Value, span diag.Span) {
	params := l.fn.Blocks[target].Params
	for i, p := range params {
		if i >= len(args) {
			break
		}
		l.emit(vm.Instr{Op: vm.OpCopy, Span: span, Dst: slot(p), A: slot(args[i])})
	}
}

// link rewrites block-index placeholders left in Target/Targets to
// instruction offsets now that every block has a known start.
func (l *lowerer) link() {
	for i := range l.out.Instrs {
		in := &l.out.Instrs[i]
		switch in.Op {
		case vm.OpJump:
			in.Target = l.blockStart[in.Target]
		case vm.OpBranch:
			in.Targets[0] = l.blockStart[in.Targets[0]]
			in.Targets[1] = l.blockStart[in.Targets[1]]
		}
	}
}
