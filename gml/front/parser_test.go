package front

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/ast"
	"github.com/gm-archive/dejavu/gml/diag"
)

func parse(t *testing.T, src string) ([]ast.Stmt, *diag.List) {
	t.Helper()
	list := &diag.List{}
	p := NewParser(src, list)
	return p.ParseProgram(), list
}

func parseExprOf(t *testing.T, src string) ast.Expr {
	t.Helper()
	stmts, list := parse(t, "return "+src+";")
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 1)
	ret, ok := stmts[0].(*ast.Return)
	require.True(t, ok)
	return ret.Value
}

// scenario 2 (spec.md §8): precedence — x + y * (3 + z) parses as
// Add(x, Multiply(y, Add(3.0, z))).
func TestParsePrecedence(t *testing.T) {
	expr := parseExprOf(t, "x + y * (3 + z)")

	add, ok := expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Add, add.Op)

	x, ok := add.LHS.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "x", x.Name)

	mul, ok := add.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, mul.Op)

	y, ok := mul.LHS.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "y", y.Name)

	paren, ok := mul.RHS.(*ast.Paren)
	require.True(t, ok)
	inner, ok := paren.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Add, inner.Op)

	three, ok := inner.LHS.(*ast.RealLit)
	require.True(t, ok)
	assert.Equal(t, 3.0, three.Value)

	z, ok := inner.RHS.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "z", z.Name)
}

// scenario 1 (spec.md §8): $ff parses as 255.0.
func TestParseHexLiteral(t *testing.T) {
	expr := parseExprOf(t, "$ff")
	lit, ok := expr.(*ast.RealLit)
	require.True(t, ok)
	assert.Equal(t, 255.0, lit.Value)
}

// scenario 5 (spec.md §8): short-circuit or, symbolic form, parses cleanly.
func TestParseShortCircuitOr(t *testing.T) {
	stmts, list := parse(t, "if (a == 0 || 10 / a > 1) return 1; return 0;")
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 2)

	ifStmt, ok := stmts[0].(*ast.If)
	require.True(t, ok)
	paren, ok := ifStmt.Cond.(*ast.Paren)
	require.True(t, ok)
	or, ok := paren.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Or, or.Op)
}

// spec.md §9: statement-initial '=' is assignment; '=' inside an
// expression parses identically to '=='.
func TestAssignmentVsEqualityDisambiguation(t *testing.T) {
	stmts, list := parse(t, "a = 1; if (a = 1) return a;")
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 2)

	assign, ok := stmts[0].(*ast.Assign)
	require.True(t, ok)
	assert.Equal(t, ast.OpAssign, assign.Op)

	ifStmt, ok := stmts[1].(*ast.If)
	require.True(t, ok)
	paren, ok := ifStmt.Cond.(*ast.Paren)
	require.True(t, ok)
	eq, ok := paren.Expr.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Eq, eq.Op)
}

func TestParseCallStatementPromotesToInvoke(t *testing.T) {
	stmts, list := parse(t, "show_message(\"hi\");")
	require.Equal(t, 0, list.Len())
	require.Len(t, stmts, 1)
	invoke, ok := stmts[0].(*ast.Invoke)
	require.True(t, ok)
	assert.Equal(t, "show_message", invoke.Call.Callee)
	require.Len(t, invoke.Call.Args, 1)
}

func TestParseSwitchNoFallThrough(t *testing.T) {
	stmts, list := parse(t, `switch (a) {
		case 1: b = 1;
		case 2: b = 2;
		default: b = 0;
	}`)
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 1)
	sw, ok := stmts[0].(*ast.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 3)
	assert.Len(t, sw.Cases[0].Stmts, 1)
	assert.Len(t, sw.Cases[1].Stmts, 1)
	assert.Nil(t, sw.Cases[2].Expr)
}

func TestParseWithStatement(t *testing.T) {
	stmts, list := parse(t, "with (other) { x = 1; }")
	require.Equal(t, 0, list.Len())
	require.Len(t, stmts, 1)
	with, ok := stmts[0].(*ast.With)
	require.True(t, ok)
	paren, ok := with.Scope.(*ast.Paren)
	require.True(t, ok)
	ident, ok := paren.Expr.(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, "other", ident.Name)
}

func TestParseArrayIndexAssignment(t *testing.T) {
	stmts, list := parse(t, "a = 1; a[2] = 3;")
	require.Equal(t, 0, list.Len())
	require.Len(t, stmts, 2)
	assign, ok := stmts[1].(*ast.Assign)
	require.True(t, ok)
	idx, ok := assign.LHS.(*ast.Index)
	require.True(t, ok)
	require.Len(t, idx.Indices, 1)
}

func TestParseBeginEndBlock(t *testing.T) {
	stmts, list := parse(t, "if a then begin b = 1; c = 2; end")
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 1)
	ifStmt, ok := stmts[0].(*ast.If)
	require.True(t, ok)
	block, ok := ifStmt.Then.(*ast.Block)
	require.True(t, ok)
	assert.Len(t, block.Stmts, 2)
}

func TestParseForLoop(t *testing.T) {
	stmts, list := parse(t, "for (i = 0; i < 10; i += 1) x = i;")
	require.Equal(t, 0, list.Len(), "diagnostics: %v", list.Items())
	require.Len(t, stmts, 1)
	forStmt, ok := stmts[0].(*ast.For)
	require.True(t, ok)
	require.NotNil(t, forStmt.Init)
	require.NotNil(t, forStmt.Cond)
	require.NotNil(t, forStmt.Step)
}

func TestSyntaxErrorRecordsDiagnosticAndResynchronizes(t *testing.T) {
	stmts, list := parse(t, "a = ; b = 2;")
	assert.Greater(t, list.Len(), 0)
	require.Len(t, stmts, 2)
	assign, ok := stmts[1].(*ast.Assign)
	require.True(t, ok)
	lit, ok := assign.RHS.(*ast.RealLit)
	require.True(t, ok)
	assert.Equal(t, 2.0, lit.Value)
}
