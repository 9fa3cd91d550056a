package back

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/gml/vm"
)

func TestLowerStraightLineReturn(t *testing.T) {
	fn := ssa.NewFunction()
	one := fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(1)})
	two := fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(2)})
	sum := fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.Add, Args: []ssa.Value{one, two}})
	fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpJump, Target: ssa.EXIT, Args: []ssa.Value{sum}})
	fn.Emit(ssa.EXIT, ssa.Inst{Op: ssa.OpReturn, Args: []ssa.Value{fn.ReturnDef}})

	lowered := Lower(fn)
	require.Equal(t, len(fn.Values), lowered.NumSlots)

	var sawReturn bool
	for _, in := range lowered.Instrs {
		if in.Op == vm.OpReturn {
			sawReturn = true
		}
	}
	assert.True(t, sawReturn)
}

func TestLowerJumpPatchesBlockToOffset(t *testing.T) {
	fn := ssa.NewFunction()
	zero := fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
	fn.Emit(ssa.ENTRY, ssa.Inst{Op: ssa.OpJump, Target: ssa.EXIT, Args: []ssa.Value{zero}})
	fn.Emit(ssa.EXIT, ssa.Inst{Op: ssa.OpReturn, Args: []ssa.Value{fn.ReturnDef}})

	lowered := Lower(fn)
	var jump *vm.Instr
	for i := range lowered.Instrs {
		if lowered.Instrs[i].Op == vm.OpJump {
			jump = &lowered.Instrs[i]
		}
	}
	require.NotNil(t, jump)
	assert.GreaterOrEqual(t, jump.Target, 0)
	assert.Less(t, jump.Target, len(lowered.Instrs))
	assert.Equal(t, vm.OpReturn, lowered.Instrs[jump.Target].Op)
}
