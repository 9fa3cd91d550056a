package front

import (
	"fmt"

	"github.com/gm-archive/dejavu/gml/ast"
	"github.com/gm-archive/dejavu/gml/diag"
)

// Parser is a Pratt-style expression parser plus a recursive-descent
// statement parser, grounded on the error-accumulate-and-resynchronize
// strategy in db47h/ngaro's asm.parser: a syntax error is recorded, a
// synthetic placeholder is inserted, and parsing resumes at the next
// statement boundary rather than aborting (spec.md §4.2).
type Parser struct {
	lex  *Lexer
	cur  Token
	errs diag.Handler
	list *diag.List
}

// NewParser returns a Parser over src. Lex and parse diagnostics are
// recorded into list, which must not be nil.
func NewParser(src string, list *diag.List) *Parser {
	p := &Parser{list: list}
	p.errs = diag.ListHandler(list)
	p.lex = NewLexer(src, p.errs)
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

func (p *Parser) at(kind Kind) bool { return p.cur.Kind == kind }

func (p *Parser) atKeyword(kw string) bool {
	return p.cur.Kind == Keyword && p.cur.Text == kw
}

func (p *Parser) errorf(span diag.Span, format string, args ...interface{}) {
	p.errs(span, fmt.Sprintf(format, args...))
}

// expect consumes the current token if it matches kind, otherwise records a
// diagnostic and leaves the cursor in place so the caller's resync logic
// can decide how to recover.
func (p *Parser) expect(kind Kind, what string) (Token, bool) {
	if p.cur.Kind == kind {
		t := p.cur
		p.advance()
		return t, true
	}
	p.errorf(p.cur.Span, "expected %s, got %q", what, p.cur.Text)
	return Token{}, false
}

func (p *Parser) expectKeyword(kw string) bool {
	if p.atKeyword(kw) {
		p.advance()
		return true
	}
	p.errorf(p.cur.Span, "expected '%s', got %q", kw, p.cur.Text)
	return false
}

// skipSemicolons consumes zero or more trailing `;` (spec.md §4.2:
// "Trailing semicolons are optional and repeated").
func (p *Parser) skipSemicolons() {
	for p.at(Semicolon) {
		p.advance()
	}
}

// synchronize discards tokens until a plausible statement boundary: a
// semicolon, a closing brace, a statement-starting keyword, or Eof.
func (p *Parser) synchronize() {
	for {
		switch {
		case p.at(Eof), p.at(RBrace):
			return
		case p.at(Semicolon):
			p.advance()
			return
		case p.cur.Kind == Keyword && isStmtKeyword(p.cur.Text):
			return
		}
		p.advance()
	}
}

func isStmtKeyword(kw string) bool {
	switch kw {
	case "var", "globalvar", "if", "repeat", "while", "with", "do", "for",
		"switch", "break", "continue", "exit", "return", "begin", "end":
		return true
	default:
		return false
	}
}

// ParseProgram parses a full script to a statement list.
func (p *Parser) ParseProgram() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipSemicolons()
	for !p.at(Eof) {
		stmts = append(stmts, p.parseStatement())
		p.skipSemicolons()
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Stmt {
	switch {
	case p.atKeyword("var"), p.atKeyword("globalvar"):
		return p.parseVarDecl()
	case p.at(LBrace), p.atKeyword("begin"):
		return p.parseBlock()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("repeat"):
		return p.parseRepeat()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("with"):
		return p.parseWith()
	case p.atKeyword("do"):
		return p.parseDoUntil()
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("switch"):
		return p.parseSwitch()
	case p.atKeyword("break"):
		span := p.cur.Span
		p.advance()
		return &ast.Break{Base: ast.Spanned(span)}
	case p.atKeyword("continue"):
		span := p.cur.Span
		p.advance()
		return &ast.Continue{Base: ast.Spanned(span)}
	case p.atKeyword("exit"):
		span := p.cur.Span
		p.advance()
		return &ast.ExitStmt{Base: ast.Spanned(span)}
	case p.atKeyword("return"):
		return p.parseReturn()
	default:
		return p.parseAssignOrInvoke()
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	start := p.cur.Span
	global := p.atKeyword("globalvar")
	p.advance()
	var names []string
	for {
		name, ok := p.expect(Ident, "identifier")
		if !ok {
			break
		}
		names = append(names, name.Text)
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	return &ast.VarDecl{Base: ast.Spanned(span(start, p.cur.Span)), Global: global, Names: names}
}

func (p *Parser) parseBlock() ast.Stmt {
	start := p.cur.Span
	closing := RBrace
	if p.atKeyword("begin") {
		closing = Keyword // sentinel meaning "end" keyword
	}
	p.advance()
	var stmts []ast.Stmt
	p.skipSemicolons()
	for {
		if closing == RBrace && p.at(RBrace) {
			break
		}
		if closing == Keyword && p.atKeyword("end") {
			break
		}
		if p.at(Eof) {
			p.errorf(p.cur.Span, "unexpected end of input in block")
			break
		}
		stmts = append(stmts, p.parseStatement())
		p.skipSemicolons()
	}
	end := p.cur.Span
	p.advance() // consume closing brace/`end`
	return &ast.Block{Base: ast.Spanned(span(start, end)), Stmts: stmts}
}

func (p *Parser) parseBody() ast.Stmt {
	if p.at(LBrace) || p.atKeyword("begin") {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseIf() ast.Stmt {
	start := p.cur.Span
	p.advance()
	cond := p.parseExpr(0)
	if p.atKeyword("then") {
		p.advance()
	}
	then := p.parseBody()
	var els ast.Stmt
	if p.atKeyword("else") {
		p.advance()
		els = p.parseBody()
	}
	return &ast.If{Base: ast.Spanned(span(start, p.cur.Span)), Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseRepeat() ast.Stmt {
	start := p.cur.Span
	p.advance()
	count := p.parseExpr(0)
	body := p.parseBody()
	return &ast.Repeat{Base: ast.Spanned(span(start, p.cur.Span)), Count: count, Body: body}
}

func (p *Parser) parseWhile() ast.Stmt {
	start := p.cur.Span
	p.advance()
	cond := p.parseExpr(0)
	if p.atKeyword("do") {
		p.advance()
	}
	body := p.parseBody()
	return &ast.While{Base: ast.Spanned(span(start, p.cur.Span)), Cond: cond, Body: body}
}

func (p *Parser) parseWith() ast.Stmt {
	start := p.cur.Span
	p.advance()
	scope := p.parseExpr(0)
	if p.atKeyword("do") {
		p.advance()
	}
	body := p.parseBody()
	return &ast.With{Base: ast.Spanned(span(start, p.cur.Span)), Scope: scope, Body: body}
}

func (p *Parser) parseDoUntil() ast.Stmt {
	start := p.cur.Span
	p.advance()
	body := p.parseBody()
	if !p.expectKeyword("until") {
		p.synchronize()
	}
	cond := p.parseExpr(0)
	return &ast.DoUntil{Base: ast.Spanned(span(start, p.cur.Span)), Body: body, Cond: cond}
}

func (p *Parser) parseFor() ast.Stmt {
	start := p.cur.Span
	p.advance()
	if _, ok := p.expect(LParen, "'('"); !ok {
		p.synchronize()
	}
	var initStmt ast.Stmt
	if !p.at(Semicolon) {
		initStmt = p.parseStatement()
	}
	if p.at(Semicolon) {
		p.advance()
	}
	var cond ast.Expr
	if !p.at(Semicolon) {
		cond = p.parseExpr(0)
	}
	if p.at(Semicolon) {
		p.advance()
	}
	var step ast.Stmt
	if !p.at(RParen) {
		step = p.parseStatement()
	}
	if _, ok := p.expect(RParen, "')'"); !ok {
		p.synchronize()
	}
	body := p.parseBody()
	return &ast.For{Base: ast.Spanned(span(start, p.cur.Span)), Init: initStmt, Cond: cond, Step: step, Body: body}
}

func (p *Parser) parseSwitch() ast.Stmt {
	start := p.cur.Span
	p.advance()
	value := p.parseExpr(0)
	if _, ok := p.expect(LBrace, "'{'"); !ok {
		p.synchronize()
		return &ast.Switch{Base: ast.Spanned(span(start, p.cur.Span)), Value: value}
	}
	var cases []ast.Case
	for !p.at(RBrace) && !p.at(Eof) {
		switch {
		case p.atKeyword("case"):
			p.advance()
			expr := p.parseExpr(0)
			p.expect(Colon, "':'")
			stmts := p.parseCaseBody()
			cases = append(cases, ast.Case{Expr: expr, Stmts: stmts})
		case p.atKeyword("default"):
			p.advance()
			p.expect(Colon, "':'")
			stmts := p.parseCaseBody()
			cases = append(cases, ast.Case{Expr: nil, Stmts: stmts})
		default:
			p.errorf(p.cur.Span, "expected 'case' or 'default', got %q", p.cur.Text)
			p.synchronize()
		}
	}
	end := p.cur.Span
	if p.at(RBrace) {
		p.advance()
	}
	return &ast.Switch{Base: ast.Spanned(span(start, end)), Value: value, Cases: cases}
}

// parseCaseBody parses statements up to the next `case`, `default`, or the
// closing brace. GML `switch` has no fall-through (spec.md §9 open
// question, resolved as "implicit break at next case").
func (p *Parser) parseCaseBody() []ast.Stmt {
	var stmts []ast.Stmt
	p.skipSemicolons()
	for !p.atKeyword("case") && !p.atKeyword("default") && !p.at(RBrace) && !p.at(Eof) {
		stmts = append(stmts, p.parseStatement())
		p.skipSemicolons()
	}
	return stmts
}

func (p *Parser) parseReturn() ast.Stmt {
	start := p.cur.Span
	p.advance()
	var value ast.Expr
	if !p.at(Semicolon) && !p.at(RBrace) && !p.at(Eof) {
		value = p.parseExpr(0)
	}
	return &ast.Return{Base: ast.Spanned(span(start, p.cur.Span)), Value: value}
}

// parseAssignOrInvoke parses `lhs = rhs`, `lhs op= rhs`, or a bare call
// used as a statement (spec.md §4.2: "when lhs is a call expression, the
// statement is promoted to Invoke").
func (p *Parser) parseAssignOrInvoke() ast.Stmt {
	start := p.cur.Span

	// Parse only as far as postfix access so that a statement-initial '='
	// is unambiguously assignment, not the Eq comparison it would mean
	// deeper inside an expression (spec.md §9 open question).
	lhs := p.parseUnary()

	if op, ok := assignOpFor(p.cur.Kind); ok {
		p.advance()
		rhs := p.parseExpr(0)
		return &ast.Assign{Base: ast.Spanned(span(start, p.cur.Span)), Op: op, LHS: lhs, RHS: rhs}
	}

	expr := p.parseBinary(lhs, 0)
	if call, isCall := expr.(*ast.Call); isCall {
		return &ast.Invoke{Base: ast.Spanned(span(start, p.cur.Span)), Call: call}
	}
	p.errorf(expr.Span(), "expected assignment or call statement")
	p.synchronize()
	return &ast.Invoke{Base: ast.Spanned(start)}
}

func assignOpFor(k Kind) (ast.AssignOp, bool) {
	switch k {
	case Assign, ColonEq:
		return ast.OpAssign, true
	case AddEq:
		return ast.OpAddAssign, true
	case SubEq:
		return ast.OpSubAssign, true
	case MulEq:
		return ast.OpMulAssign, true
	case DivEq:
		return ast.OpDivAssign, true
	case AndEq:
		return ast.OpAndAssign, true
	case OrEq:
		return ast.OpOrAssign, true
	case XorEq:
		return ast.OpXorAssign, true
	default:
		return 0, false
	}
}

func span(a, b diag.Span) diag.Span {
	return diag.Span{Low: a.Low, High: b.Low}
}
