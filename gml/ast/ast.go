// Package ast defines the GML abstract syntax tree produced by gml/front's
// parser and consumed by gml/front's codegen.
package ast

import "github.com/gm-archive/dejavu/gml/diag"

// Node is implemented by every AST statement and expression node.
type Node interface {
	Span() diag.Span
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

type Base struct {
	span diag.Span
}

func (b Base) Span() diag.Span { return b.span }

// ---- statements ----

// VarDecl is `var a, b, c;` (local) or `globalvar a, b;`.
type VarDecl struct {
	Base
	Global bool
	Names  []string
}

// Block is `{ stmts... }` or `begin stmts... end`.
type Block struct {
	Base
	Stmts []Stmt
}

// If is `if cond then/{ } else { }`.
type If struct {
	Base
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

// Repeat is `repeat n body`.
type Repeat struct {
	Base
	Count Expr
	Body  Stmt
}

// While is `while cond do/{ } body`.
type While struct {
	Base
	Cond Expr
	Body Stmt
}

// With is `with expr do/{ } body`, rebinding the current scope.
type With struct {
	Base
	Scope Expr
	Body  Stmt
}

// DoUntil is `do body until cond`.
type DoUntil struct {
	Base
	Body Stmt
	Cond Expr
}

// For is `for (init; cond; step) body`. Any clause may be nil.
type For struct {
	Base
	Init Stmt
	Cond Expr
	Step Stmt
	Body Stmt
}

// Case is one `case expr:` or `default:` arm of a Switch.
type Case struct {
	Expr  Expr // nil for default
	Stmts []Stmt
}

// Switch is `switch expr { case ...: ... default: ... }`.
type Switch struct {
	Base
	Value Expr
	Cases []Case
}

// Break is `break`.
type Break struct{ Base }

// Continue is `continue`.
type Continue struct{ Base }

// ExitStmt is `exit` (return with no value from the current script).
type ExitStmt struct{ Base }

// Return is `return expr;` or a bare `return;`.
type Return struct {
	Base
	Value Expr // nil for a bare return
}

// AssignOp names the operator of an Assign statement.
type AssignOp int

const (
	OpAssign AssignOp = iota // = or :=
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpAndAssign
	OpOrAssign
	OpXorAssign
)

// Assign is `lhs op= rhs` including plain `lhs = rhs`.
type Assign struct {
	Base
	Op  AssignOp
	LHS Expr
	RHS Expr
}

// Invoke is an expression-statement whose expression is a Call, e.g.
// `show_message("hi");`.
type Invoke struct {
	Base
	Call *Call
}

func (*VarDecl) stmtNode()  {}
func (*Block) stmtNode()    {}
func (*If) stmtNode()       {}
func (*Repeat) stmtNode()   {}
func (*While) stmtNode()    {}
func (*With) stmtNode()     {}
func (*DoUntil) stmtNode()  {}
func (*For) stmtNode()      {}
func (*Switch) stmtNode()   {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*ExitStmt) stmtNode() {}
func (*Return) stmtNode()   {}
func (*Assign) stmtNode()   {}
func (*Invoke) stmtNode()   {}

// ---- expressions ----

// Ident is a bare identifier: a local, a global, an instance field, or a
// registered script/native/member name, disambiguated during codegen.
type Ident struct {
	Base
	Name string
}

// RealLit is a numeric literal, already converted to its float64 value.
type RealLit struct {
	Base
	Value float64
}

// StringLit is a quoted string literal.
type StringLit struct {
	Base
	Value string
}

// UnaryOp names a prefix operator.
type UnaryOp int

const (
	Negate UnaryOp = iota
	Not
	BitInvert
)

// Unary is `op expr`.
type Unary struct {
	Base
	Op   UnaryOp
	Expr Expr
}

// BinaryOp names an infix operator. Comparison `=` and `==` both map to Eq
// (spec.md §9 open question: intentionally preserved, not "fixed").
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	IntDiv // div
	Mod    // mod
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
)

// Binary is `lhs op rhs`.
type Binary struct {
	Base
	Op       BinaryOp
	LHS, RHS Expr
}

// Field is `target.name`.
type Field struct {
	Base
	Target Expr
	Name   string
}

// Index is `target[indices...]`, one index for a 1-D access, two for 2-D.
type Index struct {
	Base
	Target  Expr
	Indices []Expr
}

// Call is `callee(args...)`.
type Call struct {
	Base
	Callee string
	Args   []Expr
}

// Paren wraps a parenthesized expression. The parser preserves this node
// rather than discarding the parens. A following `[` still produces an
// ordinary Index node over the Paren, and codegen lowers it the same way
// as an index on a bare identifier.
type Paren struct {
	Base
	Expr Expr
}

func (*Ident) exprNode()     {}
func (*RealLit) exprNode()   {}
func (*StringLit) exprNode() {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Field) exprNode()     {}
func (*Index) exprNode()     {}
func (*Call) exprNode()      {}
func (*Paren) exprNode()     {}

// Spanned is a helper for constructors in this package and in gml/front.
func Spanned(span diag.Span) Base { return Base{span} }
