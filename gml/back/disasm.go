package back

import (
	"fmt"
	"io"

	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

// Disassemble writes a one-line-per-instruction textual listing of prog to
// w, grounded on db47h/ngaro's asm.Disassemble: an index-prefixed opcode
// dump a host can diff or eyeball, resolving Sym operands back to their
// source name through syms.
func Disassemble(w io.Writer, prog *vm.Program, syms *symbol.Table) {
	for i, in := range prog.Instrs {
		fmt.Fprintf(w, "%4d  %s", i, opName(in.Op))
		if in.Dst >= 0 {
			fmt.Fprintf(w, " ->%d", in.Dst)
		}
		switch in.Op {
		case vm.OpImmediate:
			if f, ok := in.Const.Real(); ok {
				fmt.Fprintf(w, " %g", f)
			} else {
				fmt.Fprintf(w, " %v", in.Const)
			}
		case vm.OpParam:
			fmt.Fprintf(w, " argument%d", in.A)
		case vm.OpUnary:
			fmt.Fprintf(w, " %v %d", in.UnaryOp, in.A)
		case vm.OpBinary:
			fmt.Fprintf(w, " %v %d %d", in.BinaryOp, in.A, in.B)
		case vm.OpDeclareGlobal, vm.OpLookup:
			fmt.Fprintf(w, " %s", syms.Name(in.Sym))
		case vm.OpRead:
			fmt.Fprintf(w, " %s %d", syms.Name(in.Sym), in.A)
		case vm.OpWrite:
			fmt.Fprintf(w, " %d", in.A)
		case vm.OpLoadField, vm.OpLoadFieldDefault, vm.OpLoadFieldArray:
			fmt.Fprintf(w, " %s %d", syms.Name(in.Sym), in.A)
		case vm.OpStoreField:
			fmt.Fprintf(w, " %s %d %d", syms.Name(in.Sym), in.A, in.B)
		case vm.OpStoreIndex:
			fmt.Fprintf(w, " %d %d %d %d", in.A, in.B, in.C, in.D)
		case vm.OpRelease:
			fmt.Fprintf(w, " %d", in.A)
		case vm.OpCall:
			fmt.Fprintf(w, " %s %v", syms.Name(in.Sym), in.Args)
		case vm.OpCopy:
			fmt.Fprintf(w, " %d", in.A)
		case vm.OpJump:
			fmt.Fprintf(w, " @%d", in.Target)
		case vm.OpBranch:
			fmt.Fprintf(w, " %d @%d @%d", in.A, in.Targets[0], in.Targets[1])
		case vm.OpReturn:
			fmt.Fprintf(w, " %d", in.A)
		}
		fmt.Fprintln(w)
	}
}

func opName(op vm.Op) string {
	names := [...]string{
		vm.OpImmediate: "immediate", vm.OpParam: "param", vm.OpUnary: "unary",
		vm.OpBinary: "binary", vm.OpDeclareGlobal: "declare_global", vm.OpLookup: "lookup",
		vm.OpRead: "read", vm.OpWrite: "write", vm.OpLoadField: "load_field",
		vm.OpLoadFieldDefault: "load_field_default", vm.OpLoadFieldArray: "load_field_array",
		vm.OpStoreField: "store_field", vm.OpStoreIndex: "store_index", vm.OpRelease: "release",
		vm.OpCall: "call", vm.OpCopy: "copy", vm.OpJump: "jump", vm.OpBranch: "branch",
		vm.OpReturn: "return",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}
