package front

import (
	"fmt"

	"github.com/gm-archive/dejavu/gml/ast"
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/symbol"
)

// Codegen lowers a parsed GML statement list to SSA, grounded on
// original_source/src/front/codegen.rs's name-resolution/scoping
// approach: a `var`-declared name is an SSA-register local threaded
// (with explicit block-parameter phis at merges) through the function;
// any other bare name is an implicit field of the current `self`, read
// and written through the instance store rather than cached in a
// register, matching how real GML resolves undeclared identifiers.
type Codegen struct {
	syms *symbol.Table
	errs diag.Handler
	fn   *ssa.Function

	locals   map[symbol.Symbol]bool
	globals  map[symbol.Symbol]bool
	declOrder []symbol.Symbol

	scope map[symbol.Symbol]ssa.Value
	block ssa.Block

	breakTargets    []ssa.Block
	continueTargets []ssa.Block
}

// NewCodegen returns a Codegen that interns names via syms and reports
// semantic errors (e.g. `return` outside a function is not one of
// these; codegen errors are things like "break outside a loop") to errs.
func NewCodegen(syms *symbol.Table, errs diag.Handler) *Codegen {
	return &Codegen{
		syms:    syms,
		errs:    errs,
		locals:  map[symbol.Symbol]bool{},
		globals: map[symbol.Symbol]bool{},
		scope:   map[symbol.Symbol]ssa.Value{},
	}
}

// Compile lowers a parsed script body to a finished ssa.Function.
func (c *Codegen) Compile(stmts []ast.Stmt) *ssa.Function {
	c.fn = ssa.NewFunction()
	c.block = ssa.ENTRY
	for _, s := range stmts {
		c.stmt(s)
		if c.fn.Sealed(c.block) {
			break
		}
	}
	if !c.fn.Sealed(c.block) {
		zero := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: ssa.EXIT, Args: []ssa.Value{zero}})
	}
	// Every return/exit/fallthrough path jumps to EXIT carrying its value
	// in ReturnDef; EXIT itself still needs its own terminator so the
	// block ends in exactly one Return, per spec.md's "every block ends
	// in exactly one terminator" invariant.
	c.fn.Emit(ssa.EXIT, ssa.Inst{Op: ssa.OpReturn, Args: []ssa.Value{c.fn.ReturnDef}})
	c.fn.InsertReleases()
	return c.fn
}

func (c *Codegen) emit(inst ssa.Inst) ssa.Value { return c.fn.Emit(c.block, inst) }

func (c *Codegen) errorf(span diag.Span, format string, args ...interface{}) {
	if c.errs != nil {
		c.errs(span, fmt.Sprintf(format, args...))
	}
}

// scopeValue resolves a pseudo-instance keyword (self/other/all/noone/
// global/local) to its dynamic scope handle. It is always re-evaluated
// at point of use (never cached across a `with` iteration boundary)
// since With/Next mutate the thread's current self/other bindings.
func (c *Codegen) scopeValue(sym symbol.Symbol) ssa.Value {
	return c.emit(ssa.Inst{Op: ssa.OpLookup, Sym: sym})
}

func (c *Codegen) selfScope() ssa.Value  { return c.scopeValue(symbol.Self) }
func (c *Codegen) globalScope() ssa.Value { return c.scopeValue(symbol.Global) }

// --- statements -------------------------------------------------------

func (c *Codegen) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.VarDecl:
		c.varDecl(n)
	case *ast.Block:
		for _, st := range n.Stmts {
			c.stmt(st)
			if c.fn.Sealed(c.block) {
				return
			}
		}
	case *ast.If:
		c.ifStmt(n)
	case *ast.Repeat:
		c.repeatStmt(n)
	case *ast.While:
		c.whileStmt(n)
	case *ast.DoUntil:
		c.doUntilStmt(n)
	case *ast.For:
		c.forStmt(n)
	case *ast.With:
		c.withStmt(n)
	case *ast.Switch:
		c.switchStmt(n)
	case *ast.Break:
		c.breakStmt(n)
	case *ast.Continue:
		c.continueStmt(n)
	case *ast.ExitStmt:
		c.exitStmt()
	case *ast.Return:
		c.returnStmt(n)
	case *ast.Assign:
		c.assignStmt(n)
	case *ast.Invoke:
		c.call(n.Call)
	default:
		c.errorf(s.Span(), "codegen: unsupported statement")
	}
}

func (c *Codegen) varDecl(n *ast.VarDecl) {
	for _, name := range n.Names {
		sym := c.syms.Intern(name)
		if n.Global {
			c.globals[sym] = true
			c.emit(ssa.Inst{Op: ssa.OpDeclareGlobal, Sym: sym})
			continue
		}
		if !c.locals[sym] {
			c.locals[sym] = true
			c.declOrder = append(c.declOrder, sym)
		}
		zero := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
		c.scope[sym] = c.emit(ssa.Inst{Op: ssa.OpRead, Sym: sym, Args: []ssa.Value{zero}})
	}
}

// snapshot copies the current local scope map, for use as the base of a
// branch that must not corrupt the parent's view of locals.
func (c *Codegen) snapshot() map[symbol.Symbol]ssa.Value {
	cp := make(map[symbol.Symbol]ssa.Value, len(c.scope))
	for k, v := range c.scope {
		cp[k] = v
	}
	return cp
}

// join creates a merge block with one parameter per declared local (in
// declaration order), jumps each incoming (block, scope) pair into it
// with that scope's current values, and leaves c.block/c.scope set to
// the merge block and its fresh parameter-backed scope. Incoming blocks
// that are already sealed (ended in return/break/continue) contribute
// no edge.
func (c *Codegen) join(incoming []struct {
	block ssa.Block
	scope map[symbol.Symbol]ssa.Value
}) {
	merge := c.fn.MakeBlock()
	params := make([]ssa.Value, len(c.declOrder))
	for i := range c.declOrder {
		params[i] = c.fn.AddParam(merge)
	}
	any := false
	for _, in := range incoming {
		if c.fn.Sealed(in.block) {
			continue
		}
		any = true
		args := make([]ssa.Value, len(c.declOrder))
		for i, sym := range c.declOrder {
			args[i] = in.scope[sym]
		}
		c.fn.Emit(in.block, ssa.Inst{Op: ssa.OpJump, Target: merge, Args: args})
	}
	c.block = merge
	c.scope = map[symbol.Symbol]ssa.Value{}
	for i, sym := range c.declOrder {
		c.scope[sym] = params[i]
	}
	if !any {
		// every incoming edge was sealed (e.g. both if/else branches
		// returned): merge is unreachable dead code, leave it unterminated
		// for the caller to either terminate or abandon.
	}
}

func (c *Codegen) ifStmt(n *ast.If) {
	cond := c.expr(n.Cond)
	thenBlk := c.fn.MakeBlock()
	elseBlk := c.fn.MakeBlock()
	c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: cond, Targets: [2]ssa.Block{thenBlk, elseBlk}})

	baseScope := c.scope

	c.block, c.scope = thenBlk, cloneMap(baseScope)
	c.stmt(n.Then)
	thenEnd, thenScope := c.block, c.scope

	c.block, c.scope = elseBlk, cloneMap(baseScope)
	if n.Else != nil {
		c.stmt(n.Else)
	}
	elseEnd, elseScope := c.block, c.scope

	c.join([]struct {
		block ssa.Block
		scope map[symbol.Symbol]ssa.Value
	}{{thenEnd, thenScope}, {elseEnd, elseScope}})
}

func cloneMap(m map[symbol.Symbol]ssa.Value) map[symbol.Symbol]ssa.Value {
	cp := make(map[symbol.Symbol]ssa.Value, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// loop compiles the common header/body/latch shape shared by while, for,
// and do-until: a header block holding phi parameters for every local,
// a test (possibly absent, for do-until's post-test), a body, and a
// back edge to the header.
func (c *Codegen) loop(preStmt ast.Stmt, testFirst bool, cond ast.Expr, body ast.Stmt, post ast.Stmt) {
	if preStmt != nil {
		c.stmt(preStmt)
	}
	header := c.fn.MakeBlock()
	params := make([]ssa.Value, len(c.declOrder))
	for i := range c.declOrder {
		params[i] = c.fn.AddParam(header)
	}
	entryArgs := make([]ssa.Value, len(c.declOrder))
	for i, sym := range c.declOrder {
		entryArgs[i] = c.scope[sym]
	}
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: header, Args: entryArgs})

	bodyBlk := c.fn.MakeBlock()
	afterBlk := c.fn.MakeBlock()

	c.block = header
	c.scope = map[symbol.Symbol]ssa.Value{}
	for i, sym := range c.declOrder {
		c.scope[sym] = params[i]
	}

	if testFirst {
		cv := c.expr(cond)
		c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: cv, Targets: [2]ssa.Block{bodyBlk, afterBlk}})
	} else {
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: bodyBlk})
	}

	c.breakTargets = append(c.breakTargets, afterBlk)
	c.continueTargets = append(c.continueTargets, header)

	c.block = bodyBlk
	c.stmt(body)
	if post != nil && !c.fn.Sealed(c.block) {
		c.stmt(post)
	}
	if !testFirst && !c.fn.Sealed(c.block) {
		// "until cond": stop (branch to after) once cond is true,
		// otherwise loop back around.
		cv := c.expr(cond)
		latch := c.fn.MakeBlock()
		c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: cv, Targets: [2]ssa.Block{afterBlk, latch}})
		c.block = latch
	}
	if !c.fn.Sealed(c.block) {
		backArgs := make([]ssa.Value, len(c.declOrder))
		for i, sym := range c.declOrder {
			backArgs[i] = c.scope[sym]
		}
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: header, Args: backArgs})
	}

	c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
	c.continueTargets = c.continueTargets[:len(c.continueTargets)-1]

	c.block = afterBlk
	c.scope = map[symbol.Symbol]ssa.Value{}
	for i, sym := range c.declOrder {
		c.scope[sym] = params[i]
	}
}

func (c *Codegen) whileStmt(n *ast.While) {
	c.loop(nil, true, n.Cond, n.Body, nil)
}

func (c *Codegen) doUntilStmt(n *ast.DoUntil) {
	// do-until tests after the body; the loop continues while the
	// condition is false and stops once it becomes true ("until").
	c.loop(nil, false, n.Cond, n.Body, nil)
}

func (c *Codegen) forStmt(n *ast.For) {
	c.loop(n.Init, true, n.Cond, n.Body, n.Step)
}

func (c *Codegen) repeatStmt(n *ast.Repeat) {
	count := c.expr(n.Count)
	header := c.fn.MakeBlock()
	params := make([]ssa.Value, len(c.declOrder)+1)
	for i := range params {
		params[i] = c.fn.AddParam(header)
	}
	entryArgs := make([]ssa.Value, len(c.declOrder)+1)
	for i, sym := range c.declOrder {
		entryArgs[i] = c.scope[sym]
	}
	entryArgs[len(c.declOrder)] = count
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: header, Args: entryArgs})

	bodyBlk := c.fn.MakeBlock()
	afterBlk := c.fn.MakeBlock()

	c.block = header
	c.scope = map[symbol.Symbol]ssa.Value{}
	for i, sym := range c.declOrder {
		c.scope[sym] = params[i]
	}
	remaining := params[len(c.declOrder)]
	zero := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
	cv := c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.Gt, Args: []ssa.Value{remaining, zero}})
	c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: cv, Targets: [2]ssa.Block{bodyBlk, afterBlk}})

	c.breakTargets = append(c.breakTargets, afterBlk)
	c.continueTargets = append(c.continueTargets, header)

	c.block = bodyBlk
	c.stmt(n.Body)
	if !c.fn.Sealed(c.block) {
		one := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(1)})
		nextRemaining := c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.Sub, Args: []ssa.Value{remaining, one}})
		backArgs := make([]ssa.Value, len(c.declOrder)+1)
		for i, sym := range c.declOrder {
			backArgs[i] = c.scope[sym]
		}
		backArgs[len(c.declOrder)] = nextRemaining
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: header, Args: backArgs})
	}

	c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
	c.continueTargets = c.continueTargets[:len(c.continueTargets)-1]

	c.block = afterBlk
	c.scope = map[symbol.Symbol]ssa.Value{}
	for i, sym := range c.declOrder {
		c.scope[sym] = params[i]
	}
}

// withStmt iterates every instance matching scope, rebinding self/other
// for the duration of body. The cursor is a VM-managed opaque handle:
// Next(cursor) advances it and reports whether an instance remains,
// mutating the thread's dynamic self/other bindings as a side effect
// (spec.md §4.5/§4.6), so no SSA phi is required for self itself.
func (c *Codegen) withStmt(n *ast.With) {
	scope := c.expr(n.Scope)
	cursor := c.emit(ssa.Inst{Op: ssa.OpUnary, UnaryOp: ssa.With, Args: []ssa.Value{scope}})

	header := c.fn.MakeBlock()
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: header})

	bodyBlk := c.fn.MakeBlock()
	afterBlk := c.fn.MakeBlock()

	c.block = header
	hasMore := c.emit(ssa.Inst{Op: ssa.OpUnary, UnaryOp: ssa.Next, Args: []ssa.Value{cursor}})
	c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: hasMore, Targets: [2]ssa.Block{bodyBlk, afterBlk}})

	c.breakTargets = append(c.breakTargets, afterBlk)
	c.continueTargets = append(c.continueTargets, header)

	c.block = bodyBlk
	c.stmt(n.Body)
	if !c.fn.Sealed(c.block) {
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: header})
	}

	c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
	c.continueTargets = c.continueTargets[:len(c.continueTargets)-1]

	c.block = afterBlk
}

// switchStmt lowers to a no-fallthrough cascade: each case is a
// comparison-and-branch against the switch value, and every case body
// jumps straight to the shared after-block rather than into the next
// case (spec.md §9 decision).
func (c *Codegen) switchStmt(n *ast.Switch) {
	value := c.expr(n.Value)
	afterBlk := c.fn.MakeBlock()
	c.breakTargets = append(c.breakTargets, afterBlk)

	var defaultCase *ast.Case
	next := c.block
	for i := range n.Cases {
		cs := &n.Cases[i]
		if cs.Expr == nil {
			defaultCase = cs
			continue
		}
		c.block = next
		cmpVal := c.expr(cs.Expr)
		eq := c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.Eq, Args: []ssa.Value{value, cmpVal}})
		caseBlk := c.fn.MakeBlock()
		next = c.fn.MakeBlock()
		c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: eq, Targets: [2]ssa.Block{caseBlk, next}})

		c.block = caseBlk
		for _, st := range cs.Stmts {
			c.stmt(st)
			if c.fn.Sealed(c.block) {
				break
			}
		}
		if !c.fn.Sealed(c.block) {
			c.emit(ssa.Inst{Op: ssa.OpJump, Target: afterBlk})
		}
	}

	c.block = next
	if defaultCase != nil {
		for _, st := range defaultCase.Stmts {
			c.stmt(st)
			if c.fn.Sealed(c.block) {
				break
			}
		}
	}
	if !c.fn.Sealed(c.block) {
		c.emit(ssa.Inst{Op: ssa.OpJump, Target: afterBlk})
	}

	c.breakTargets = c.breakTargets[:len(c.breakTargets)-1]
	c.block = afterBlk
}

func (c *Codegen) breakStmt(n *ast.Break) {
	if len(c.breakTargets) == 0 {
		c.errorf(n.Span(), "break outside a loop or switch")
		return
	}
	target := c.breakTargets[len(c.breakTargets)-1]
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: target})
}

func (c *Codegen) continueStmt(n *ast.Continue) {
	if len(c.continueTargets) == 0 {
		c.errorf(n.Span(), "continue outside a loop")
		return
	}
	target := c.continueTargets[len(c.continueTargets)-1]
	args := make([]ssa.Value, len(c.declOrder))
	for i, sym := range c.declOrder {
		args[i] = c.scope[sym]
	}
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: target, Args: args})
}

func (c *Codegen) exitStmt() {
	zero := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: ssa.EXIT, Args: []ssa.Value{zero}})
}

func (c *Codegen) returnStmt(n *ast.Return) {
	var value ssa.Value
	if n.Value != nil {
		value = c.expr(n.Value)
	} else {
		value = c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
	}
	c.emit(ssa.Inst{Op: ssa.OpJump, Target: ssa.EXIT, Args: []ssa.Value{value}})
}

func (c *Codegen) assignStmt(n *ast.Assign) {
	if n.Op == ast.OpAssign {
		value := c.expr(n.RHS)
		c.store(n.LHS, value)
		return
	}
	cur := c.load(n.LHS)
	rhs := c.expr(n.RHS)
	op := compoundOp(n.Op)
	combined := c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: op, Args: []ssa.Value{cur, rhs}})
	c.store(n.LHS, combined)
}

func compoundOp(op ast.AssignOp) ssa.BinaryOp {
	switch op {
	case ast.OpAddAssign:
		return ssa.Add
	case ast.OpSubAssign:
		return ssa.Sub
	case ast.OpMulAssign:
		return ssa.Mul
	case ast.OpDivAssign:
		return ssa.Div
	case ast.OpAndAssign:
		return ssa.BitAnd
	case ast.OpOrAssign:
		return ssa.BitOr
	case ast.OpXorAssign:
		return ssa.BitXor
	default:
		return ssa.Add
	}
}

// --- lvalues ------------------------------------------------------------

// load reads the current value addressed by lhs.
func (c *Codegen) load(lhs ast.Expr) ssa.Value {
	switch n := lhs.(type) {
	case *ast.Ident:
		return c.identLoad(n)
	case *ast.Field:
		scope := c.expr(n.Target)
		sym := c.syms.Intern(n.Name)
		return c.emit(ssa.Inst{Op: ssa.OpLoadFieldDefault, Sym: sym, Args: []ssa.Value{scope}})
	case *ast.Index:
		arr := c.load(n.Target)
		return c.indexLoad(arr, n.Indices)
	default:
		return c.expr(lhs)
	}
}

// store writes value to the location addressed by lhs.
func (c *Codegen) store(lhs ast.Expr, value ssa.Value) {
	switch n := lhs.(type) {
	case *ast.Ident:
		c.identStore(n, value)
	case *ast.Field:
		scope := c.expr(n.Target)
		sym := c.syms.Intern(n.Name)
		c.emit(ssa.Inst{Op: ssa.OpStoreField, Sym: sym, Args: []ssa.Value{value, scope}})
	case *ast.Index:
		// load-modify-writeback: clone-on-write the array (promoting a
		// scalar as needed), store the element, then write the
		// (possibly new) array identity back to the target (spec.md
		// §4.4).
		arr := c.load(n.Target)
		cloned := c.emit(ssa.Inst{Op: ssa.OpWrite, Args: []ssa.Value{arr}})
		row, col := c.rowCol(n.Indices)
		c.emit(ssa.Inst{Op: ssa.OpStoreIndex, Args: []ssa.Value{cloned, row, col, value}})
		c.store(n.Target, cloned)
	default:
		c.errorf(lhs.Span(), "codegen: invalid assignment target")
	}
}

func (c *Codegen) identLoad(n *ast.Ident) ssa.Value {
	if idx, ok := argumentIndex(n.Name); ok {
		return c.emit(ssa.Inst{Op: ssa.OpParam, Index: idx})
	}
	sym := c.syms.Intern(n.Name)
	if sym.IsPseudoInstance() {
		return c.scopeValue(sym)
	}
	if c.locals[sym] {
		return c.scope[sym]
	}
	if c.globals[sym] {
		return c.emit(ssa.Inst{Op: ssa.OpLoadFieldDefault, Sym: sym, Args: []ssa.Value{c.globalScope()}})
	}
	return c.emit(ssa.Inst{Op: ssa.OpLoadFieldDefault, Sym: sym, Args: []ssa.Value{c.selfScope()}})
}

func (c *Codegen) identStore(n *ast.Ident, value ssa.Value) {
	sym := c.syms.Intern(n.Name)
	if c.locals[sym] {
		c.scope[sym] = value
		return
	}
	if c.globals[sym] {
		c.emit(ssa.Inst{Op: ssa.OpStoreField, Sym: sym, Args: []ssa.Value{value, c.globalScope()}})
		return
	}
	c.emit(ssa.Inst{Op: ssa.OpStoreField, Sym: sym, Args: []ssa.Value{value, c.selfScope()}})
}

func (c *Codegen) rowCol(indices []ast.Expr) (row, col ssa.Value) {
	if len(indices) == 1 {
		zero := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(0)})
		return zero, c.expr(indices[0])
	}
	return c.expr(indices[0]), c.expr(indices[1])
}

func (c *Codegen) indexLoad(arr ssa.Value, indices []ast.Expr) ssa.Value {
	if len(indices) == 1 {
		col := c.expr(indices[0])
		return c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.LoadIndex, Args: []ssa.Value{arr, col}})
	}
	row := c.expr(indices[0])
	sub := c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.LoadRow, Args: []ssa.Value{arr, row}})
	col := c.expr(indices[1])
	return c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: ssa.LoadIndex, Args: []ssa.Value{sub, col}})
}

// --- expressions ----------------------------------------------------------

func (c *Codegen) expr(e ast.Expr) ssa.Value {
	switch n := e.(type) {
	case *ast.Ident:
		return c.identLoad(n)
	case *ast.RealLit:
		return c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.RealConst(n.Value)})
	case *ast.StringLit:
		return c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: ssa.StringConst(c.syms.Intern(n.Value))})
	case *ast.Unary:
		v := c.expr(n.Expr)
		return c.emit(ssa.Inst{Op: ssa.OpUnary, UnaryOp: unaryOp(n.Op), Args: []ssa.Value{v}})
	case *ast.Binary:
		if n.Op == ast.And || n.Op == ast.Or {
			return c.shortCircuit(n)
		}
		lhs := c.expr(n.LHS)
		rhs := c.expr(n.RHS)
		return c.emit(ssa.Inst{Op: ssa.OpBinary, BinaryOp: binaryOp(n.Op), Args: []ssa.Value{lhs, rhs}})
	case *ast.Field:
		return c.load(n)
	case *ast.Index:
		return c.load(n)
	case *ast.Call:
		return c.call(n)
	case *ast.Paren:
		return c.expr(n.Expr)
	default:
		c.errorf(e.Span(), "codegen: unsupported expression")
		return c.emit(ssa.Inst{Op: ssa.OpUndef})
	}
}

// shortCircuit lowers && and || to a conditional branch so the
// right-hand operand is evaluated only when it can change the result
// (spec.md §4.4: "and/or compile to branches; xor is eager"). `a && b`
// skips b once a is false; `a || b` skips b once a is true.
func (c *Codegen) shortCircuit(n *ast.Binary) ssa.Value {
	lhs := c.expr(n.LHS)

	skipBlk := c.fn.MakeBlock()
	evalBlk := c.fn.MakeBlock()
	if n.Op == ast.And {
		c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: lhs, Targets: [2]ssa.Block{evalBlk, skipBlk}})
	} else {
		c.emit(ssa.Inst{Op: ssa.OpBranch, Cond: lhs, Targets: [2]ssa.Block{skipBlk, evalBlk}})
	}

	c.block = skipBlk
	shortVal := ssa.RealConst(0)
	if n.Op == ast.Or {
		shortVal = ssa.RealConst(1)
	}
	short := c.emit(ssa.Inst{Op: ssa.OpImmediate, Const: shortVal})
	skipEnd := c.block

	c.block = evalBlk
	rhs := c.expr(n.RHS)
	notRhs := c.emit(ssa.Inst{Op: ssa.OpUnary, UnaryOp: ssa.Not, Args: []ssa.Value{rhs}})
	rhsBool := c.emit(ssa.Inst{Op: ssa.OpUnary, UnaryOp: ssa.Not, Args: []ssa.Value{notRhs}})
	evalEnd := c.block

	merge := c.fn.MakeBlock()
	param := c.fn.AddParam(merge)
	c.fn.Emit(skipEnd, ssa.Inst{Op: ssa.OpJump, Target: merge, Args: []ssa.Value{short}})
	c.fn.Emit(evalEnd, ssa.Inst{Op: ssa.OpJump, Target: merge, Args: []ssa.Value{rhsBool}})
	c.block = merge
	return param
}

func (c *Codegen) call(n *ast.Call) ssa.Value {
	sym := c.syms.Intern(n.Callee)
	args := make([]ssa.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = c.expr(a)
	}
	return c.emit(ssa.Inst{Op: ssa.OpCall, Sym: sym, Args: args})
}

// argumentIndex recognizes GML's argument0, argument1, ... pseudo-
// variables, which read the corresponding script call argument.
func argumentIndex(name string) (int, bool) {
	const prefix = "argument"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	suffix := name[len(prefix):]
	n := 0
	for _, c := range suffix {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func unaryOp(op ast.UnaryOp) ssa.UnaryOp {
	switch op {
	case ast.Negate:
		return ssa.Negate
	case ast.BitInvert:
		return ssa.BitInvert
	case ast.Not:
		return ssa.Not
	default:
		return ssa.Negate
	}
}

func binaryOp(op ast.BinaryOp) ssa.BinaryOp {
	switch op {
	case ast.Add:
		return ssa.Add
	case ast.Sub:
		return ssa.Sub
	case ast.Mul:
		return ssa.Mul
	case ast.Div:
		return ssa.Div
	case ast.IntDiv:
		return ssa.IntDiv
	case ast.Mod:
		return ssa.Mod
	case ast.Xor:
		return ssa.Xor
	case ast.BitAnd:
		return ssa.BitAnd
	case ast.BitOr:
		return ssa.BitOr
	case ast.BitXor:
		return ssa.BitXor
	case ast.Shl:
		return ssa.Shl
	case ast.Shr:
		return ssa.Shr
	case ast.Eq:
		return ssa.Eq
	case ast.Ne:
		return ssa.Ne
	case ast.Lt:
		return ssa.Lt
	case ast.Le:
		return ssa.Le
	case ast.Gt:
		return ssa.Gt
	case ast.Ge:
		return ssa.Ge
	default:
		return ssa.Add
	}
}
