package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFunctionHasEntryAndExit(t *testing.T) {
	f := NewFunction()
	require.Len(t, f.Blocks, 2)
	assert.Equal(t, Block(0), ENTRY)
	assert.Equal(t, Block(1), EXIT)
	require.Len(t, f.Blocks[EXIT].Params, 1)
	assert.Equal(t, f.ReturnDef, f.Blocks[EXIT].Params[0])
}

func TestEmitSealsBlockOnTerminator(t *testing.T) {
	f := NewFunction()
	one := f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(1)})
	f.Emit(ENTRY, Inst{Op: OpJump, Target: EXIT, Args: []Value{one}})

	assert.True(t, f.Sealed(ENTRY))
	assert.Panics(t, func() {
		f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(2)})
	})
}

func TestSuccessorsJumpAndBranch(t *testing.T) {
	f := NewFunction()
	other := f.MakeBlock()

	cond := f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(1)})
	f.Emit(ENTRY, Inst{Op: OpBranch, Cond: cond, Targets: [2]Block{other, EXIT}})
	assert.Equal(t, []Block{other, EXIT}, f.Successors(ENTRY))

	f.Emit(other, Inst{Op: OpJump, Target: EXIT})
	assert.Equal(t, []Block{EXIT}, f.Successors(other))
}

func TestDefsDistinguishesSideEffectingInstructions(t *testing.T) {
	f := NewFunction()
	v := f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(1)})
	rel := f.Emit(ENTRY, Inst{Op: OpRelease, Args: []Value{v}})

	assert.True(t, f.Defs(v))
	assert.False(t, f.Defs(rel))
}
