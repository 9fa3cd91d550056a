package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertReleasesSplicesAfterLastUse(t *testing.T) {
	f := NewFunction()
	call := f.Emit(ENTRY, Inst{Op: OpCall})
	one := f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(1)})
	sum := f.Emit(ENTRY, Inst{Op: OpBinary, BinaryOp: Add, Args: []Value{call, one}})
	f.Emit(ENTRY, Inst{Op: OpJump, Target: EXIT, Args: []Value{sum}})
	f.Emit(EXIT, Inst{Op: OpReturn, Args: []Value{f.ReturnDef}})

	f.InsertReleases()

	instrs := f.Blocks[ENTRY].Instructions
	var releaseIdx, sumIdx = -1, -1
	for i, v := range instrs {
		in := f.Inst(v)
		if in.Op == OpRelease && in.Args[0] == call {
			releaseIdx = i
		}
		if v == sum {
			sumIdx = i
		}
	}
	require.NotEqual(t, -1, releaseIdx, "expected a Release of the call result")
	assert.Greater(t, releaseIdx, sumIdx, "release must come after call's last use (as Add's operand)")

	term := f.Inst(instrs[len(instrs)-1])
	assert.Equal(t, OpJump, term.Op, "terminator must stay last even with a spliced Release")
}

func TestInsertReleasesSkipsTransferSites(t *testing.T) {
	f := NewFunction()
	call := f.Emit(ENTRY, Inst{Op: OpCall})
	f.Emit(ENTRY, Inst{Op: OpJump, Target: EXIT, Args: []Value{call}})
	f.Emit(EXIT, Inst{Op: OpReturn, Args: []Value{f.ReturnDef}})

	f.InsertReleases()

	for _, v := range f.Blocks[ENTRY].Instructions {
		in := f.Inst(v)
		assert.NotEqual(t, OpRelease, in.Op, "a value forwarded via Jump must not also be released")
	}
}

func TestInsertReleasesSkipsBorrowedReads(t *testing.T) {
	f := NewFunction()
	scope := f.Emit(ENTRY, Inst{Op: OpLookup})
	field := f.Emit(ENTRY, Inst{Op: OpLoadFieldDefault, Args: []Value{scope}})
	f.Emit(ENTRY, Inst{Op: OpJump, Target: EXIT, Args: []Value{field}})
	f.Emit(EXIT, Inst{Op: OpReturn, Args: []Value{f.ReturnDef}})

	f.InsertReleases()

	for _, v := range f.Blocks[ENTRY].Instructions {
		in := f.Inst(v)
		assert.NotEqual(t, OpRelease, in.Op, "a borrowed field read must never be released")
	}
}

func TestInsertReleasesUnusedValueReleasedAtDefinition(t *testing.T) {
	f := NewFunction()
	call := f.Emit(ENTRY, Inst{Op: OpCall})
	zero := f.Emit(ENTRY, Inst{Op: OpImmediate, Const: RealConst(0)})
	f.Emit(ENTRY, Inst{Op: OpJump, Target: EXIT, Args: []Value{zero}})
	f.Emit(EXIT, Inst{Op: OpReturn, Args: []Value{f.ReturnDef}})

	f.InsertReleases()

	instrs := f.Blocks[ENTRY].Instructions
	var releaseIdx, callIdx = -1, -1
	for i, v := range instrs {
		in := f.Inst(v)
		if in.Op == OpRelease && in.Args[0] == call {
			releaseIdx = i
		}
		if v == call {
			callIdx = i
		}
	}
	require.NotEqual(t, -1, releaseIdx, "a call result never read should still be released")
	assert.Equal(t, callIdx+1, releaseIdx)
}
