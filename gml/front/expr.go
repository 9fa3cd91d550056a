package front

import (
	"github.com/gm-archive/dejavu/gml/ast"
	"github.com/gm-archive/dejavu/gml/diag"
)

// binOp reports the precedence level (spec.md §4.2, 1 = loosest, 6 =
// tightest among binary operators; postfix access sits above all of
// them and is handled in parsePostfix) and ast.BinaryOp for the current
// token, or ok=false if it is not a binary operator. The bare '=' token
// is accepted here as Eq: spec.md §9's documented quirk is that '=' and
// '==' parse identically *as expressions*; statement-initial '=' is
// peeled off separately by parseAssignOrInvoke before this table is
// consulted.
func (p *Parser) binOp() (level int, op ast.BinaryOp, ok bool) {
	if p.cur.Kind == Keyword {
		switch p.cur.Text {
		case "and":
			return 1, ast.And, true
		case "or":
			return 1, ast.Or, true
		case "xor":
			return 1, ast.Xor, true
		case "div":
			return 6, ast.IntDiv, true
		case "mod":
			return 6, ast.Mod, true
		}
		return 0, 0, false
	}
	switch p.cur.Kind {
	case LogAnd:
		return 1, ast.And, true
	case LogOr:
		return 1, ast.Or, true
	case LogXor:
		return 1, ast.Xor, true
	case Percent:
		return 6, ast.Mod, true
	case Lt:
		return 2, ast.Lt, true
	case Le:
		return 2, ast.Le, true
	case Eq, Assign:
		return 2, ast.Eq, true
	case Ne:
		return 2, ast.Ne, true
	case Ge:
		return 2, ast.Ge, true
	case Gt:
		return 2, ast.Gt, true
	case Amp:
		return 3, ast.BitAnd, true
	case Caret:
		return 3, ast.BitXor, true
	case Pipe:
		return 3, ast.BitOr, true
	case Shl:
		return 4, ast.Shl, true
	case Shr:
		return 4, ast.Shr, true
	case Plus:
		return 5, ast.Add, true
	case Minus:
		return 5, ast.Sub, true
	case Star:
		return 6, ast.Mul, true
	case Slash:
		return 6, ast.Div, true
	default:
		return 0, 0, false
	}
}

// parseExpr parses a full expression with operators binding at minLevel
// or tighter.
func (p *Parser) parseExpr(minLevel int) ast.Expr {
	left := p.parseUnary()
	return p.parseBinary(left, minLevel)
}

// parseBinary continues precedence-climbing from an already-parsed left
// operand. It exists separately from parseExpr so that
// parseAssignOrInvoke can parse a bare postfix chain first (to test for
// an assignment operator) and only then continue into full expression
// parsing if no assignment was found.
func (p *Parser) parseBinary(left ast.Expr, minLevel int) ast.Expr {
	for {
		level, op, ok := p.binOp()
		if !ok || level < minLevel {
			return left
		}
		p.advance()
		right := p.parseExpr(level + 1) // left-associative: raise the floor by one
		left = &ast.Binary{
			Base: ast.Spanned(diag.Span{Low: left.Span().Low, High: right.Span().High}),
			Op:   op, LHS: left, RHS: right,
		}
	}
}

// parseUnary handles the unary operators, which bind tighter than any
// binary operator (spec.md §4.2).
func (p *Parser) parseUnary() ast.Expr {
	start := p.cur.Span
	switch {
	case p.at(Minus):
		p.advance()
		e := p.parseUnary()
		return &ast.Unary{Base: ast.Spanned(span(start, e.Span())), Op: ast.Negate, Expr: e}
	case p.at(Plus):
		p.advance()
		return p.parseUnary()
	case p.at(Bang), p.atKeyword("not"):
		p.advance()
		e := p.parseUnary()
		return &ast.Unary{Base: ast.Spanned(span(start, e.Span())), Op: ast.Not, Expr: e}
	case p.at(Tilde):
		p.advance()
		e := p.parseUnary()
		return &ast.Unary{Base: ast.Spanned(span(start, e.Span())), Op: ast.BitInvert, Expr: e}
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary expression followed by any chain of
// `.field`, `[index...]` and `(args...)` suffixes.
func (p *Parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch {
		case p.at(Dot):
			p.advance()
			name, ok := p.expect(Ident, "field name")
			if !ok {
				return e
			}
			e = &ast.Field{Base: ast.Spanned(span(e.Span(), name.Span)), Target: e, Name: name.Text}
		case p.at(LBracket):
			e = p.parseIndex(e)
		case p.at(LParen):
			e = p.parseCallArgs(e)
		default:
			return e
		}
	}
}

// parseIndex parses `[i]` or `[i, j]` applied to target.
func (p *Parser) parseIndex(target ast.Expr) ast.Expr {
	start := p.cur.Span
	p.advance() // '['
	indices := []ast.Expr{p.parseExpr(0)}
	for p.at(Comma) {
		p.advance()
		indices = append(indices, p.parseExpr(0))
	}
	end := p.cur.Span
	p.expect(RBracket, "']'")
	return &ast.Index{Base: ast.Spanned(span(start, end)), Target: target, Indices: indices}
}

// parseCallArgs parses `(args...)` applied to target. Only a plain
// identifier is a legal callee; anything else, a parenthesized
// expression included, is reported but still consumed so parsing can
// continue.
func (p *Parser) parseCallArgs(target ast.Expr) ast.Expr {
	start := target.Span()
	p.advance() // '('
	var args []ast.Expr
	if !p.at(RParen) {
		args = append(args, p.parseExpr(0))
		for p.at(Comma) {
			p.advance()
			args = append(args, p.parseExpr(0))
		}
	}
	end := p.cur.Span
	p.expect(RParen, "')'")

	name := ""
	if id, ok := target.(*ast.Ident); ok {
		name = id.Name
	} else {
		p.errorf(start, "call target must be a plain identifier")
	}
	return &ast.Call{Base: ast.Spanned(span(start, end)), Callee: name, Args: args}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	switch {
	case p.at(Ident):
		p.advance()
		return &ast.Ident{Base: ast.Spanned(tok.Span), Name: tok.Text}
	case p.at(Real):
		p.advance()
		v, err := ParseReal(tok.Text)
		if err != nil {
			p.errorf(tok.Span, "malformed number literal %q", tok.Text)
		}
		return &ast.RealLit{Base: ast.Spanned(tok.Span), Value: v}
	case p.at(Str):
		p.advance()
		return &ast.StringLit{Base: ast.Spanned(tok.Span), Value: tok.Text}
	case p.at(LParen):
		p.advance()
		inner := p.parseExpr(0)
		end := p.cur.Span
		p.expect(RParen, "')'")
		return &ast.Paren{Base: ast.Spanned(span(tok.Span, end)), Expr: inner}
	default:
		p.errorf(tok.Span, "unexpected token %q in expression", tok.Text)
		p.advance()
		return &ast.RealLit{Base: ast.Spanned(tok.Span), Value: 0}
	}
}
