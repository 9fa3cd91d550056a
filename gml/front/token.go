package front

import "github.com/gm-archive/dejavu/gml/diag"

// Kind identifies a token's grammatical class.
type Kind int

const (
	Eof Kind = iota
	Ident
	Keyword
	Real
	Str

	// punctuation / operators
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Dot
	Comma
	Semicolon
	Colon

	Assign     // =
	ColonEq    // :=
	AddEq      // +=
	SubEq      // -=
	MulEq      // *=
	DivEq      // /=
	AndEq      // &=
	OrEq       // |=
	XorEq      // ^=
	Eq         // == (a bare = lexes as Assign; the parser reads it as equality in expression position)
	Ne         // != or <>
	Lt         // <
	Le         // <=
	Gt         // >
	Ge         // >=
	Plus       // +
	Minus      // -
	Star       // *
	Slash      // /
	Amp        // &
	Pipe       // |
	Caret      // ^
	Shl        // <<
	Shr        // >>
	Bang       // !
	Tilde      // ~
	LogAnd     // &&
	LogOr      // ||
	LogXor     // ^^
	Percent    // %
)

// Keyword token text recognized by the statement parser. The lexer looks
// each identifier up here (case-insensitively) and emits a Keyword token
// for a match; the parser then tells keywords apart by comparing the
// token's text.
var keywords = map[string]bool{
	"var": true, "globalvar": true, "if": true, "then": true, "else": true,
	"repeat": true, "while": true, "with": true, "do": true, "until": true,
	"for": true, "switch": true, "case": true, "default": true,
	"break": true, "continue": true, "exit": true, "return": true,
	"begin": true, "end": true,
	"and": true, "or": true, "xor": true, "not": true, "mod": true, "div": true,
}

// Token is a single lexical token with its source span.
type Token struct {
	Kind Kind
	Text string
	Span diag.Span
}

func (k Kind) String() string {
	switch k {
	case Eof:
		return "eof"
	case Ident:
		return "identifier"
	case Real:
		return "number"
	case Str:
		return "string"
	default:
		return "token"
	}
}
