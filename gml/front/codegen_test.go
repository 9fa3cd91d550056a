package front

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/symbol"
)

func compile(t *testing.T, src string) *ssa.Function {
	t.Helper()
	list := &diag.List{}
	p := NewParser(src, list)
	stmts := p.ParseProgram()
	require.Equal(t, 0, list.Len(), "parse diagnostics: %v", list.Items())

	syms := symbol.NewTable()
	cg := NewCodegen(syms, diag.ListHandler(list))
	fn := cg.Compile(stmts)
	require.Equal(t, 0, list.Len(), "codegen diagnostics: %v", list.Items())
	return fn
}

func TestCodegenSimpleReturn(t *testing.T) {
	fn := compile(t, "return 1 + 2;")
	require.True(t, fn.Sealed(ssa.ENTRY))
	term := fn.Inst(fn.Terminator(ssa.ENTRY))
	assert.Equal(t, ssa.OpJump, term.Op)
	assert.Equal(t, ssa.EXIT, term.Target)
}

func TestCodegenLocalVariableRoundtrips(t *testing.T) {
	fn := compile(t, "var a; a = 1; a += 2; return a;")
	require.True(t, fn.Sealed(ssa.ENTRY))
}

func TestCodegenIfElseJoins(t *testing.T) {
	fn := compile(t, "var a; if (1) a = 1; else a = 2; return a;")
	// entry block branches; a merge block should exist beyond ENTRY/EXIT.
	assert.Greater(t, len(fn.Blocks), 2)
}

func TestCodegenWhileLoop(t *testing.T) {
	fn := compile(t, "var i; i = 0; while (i < 10) i += 1; return i;")
	assert.Greater(t, len(fn.Blocks), 2)
}

func TestCodegenArrayAssignment(t *testing.T) {
	// scenario 3 (spec.md §8): a = 1; a[2] = 3; return a[2];
	fn := compile(t, "var a; a = 1; a[2] = 3; return a[2];")
	var sawStoreIndex, sawLoadIndex bool
	for _, inst := range fn.Values {
		if inst.Op == ssa.OpStoreIndex {
			sawStoreIndex = true
		}
		if inst.Op == ssa.OpBinary && inst.BinaryOp == ssa.LoadIndex {
			sawLoadIndex = true
		}
	}
	assert.True(t, sawStoreIndex)
	assert.True(t, sawLoadIndex)
}

func TestCodegenImplicitSelfField(t *testing.T) {
	fn := compile(t, "x = 1; return x;")
	var sawStoreField, sawLoadField bool
	for _, inst := range fn.Values {
		if inst.Op == ssa.OpStoreField {
			sawStoreField = true
		}
		if inst.Op == ssa.OpLoadFieldDefault {
			sawLoadField = true
		}
	}
	assert.True(t, sawStoreField)
	assert.True(t, sawLoadField)
}

func TestCodegenShortCircuitAndLowersToBranch(t *testing.T) {
	fn := compile(t, "var a; a = 0 && (1 / 0); return a;")
	var sawBranch, sawEagerAndOr bool
	for _, inst := range fn.Values {
		if inst.Op == ssa.OpBranch {
			sawBranch = true
		}
		if inst.Op == ssa.OpBinary && (inst.BinaryOp == ssa.And || inst.BinaryOp == ssa.Or) {
			sawEagerAndOr = true
		}
	}
	assert.True(t, sawBranch, "&& must lower to a conditional branch")
	assert.False(t, sawEagerAndOr, "&&/|| must never lower to an eager Binary")
}

func TestCodegenSwitchNoFallthrough(t *testing.T) {
	fn := compile(t, `var b; switch (1) {
		case 1: b = 1;
		case 2: b = 2;
		default: b = 0;
	} return b;`)
	assert.Greater(t, len(fn.Blocks), 3)
}
