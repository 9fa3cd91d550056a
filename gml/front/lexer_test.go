package front

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/diag"
)

func lexAll(t *testing.T, src string) ([]Token, *diag.List) {
	t.Helper()
	list := &diag.List{}
	lex := NewLexer(src, diag.ListHandler(list))
	var toks []Token
	for {
		tok := lex.Next()
		toks = append(toks, tok)
		if tok.Kind == Eof {
			break
		}
	}
	return toks, list
}

func TestLexHexLiteral(t *testing.T) {
	toks, list := lexAll(t, "$ff")
	require.Equal(t, 0, list.Len())
	require.Len(t, toks, 2)
	assert.Equal(t, Real, toks[0].Kind)
	assert.Equal(t, "$ff", toks[0].Text)

	v, err := ParseReal(toks[0].Text)
	require.NoError(t, err)
	assert.Equal(t, 255.0, v)
}

func TestLexMalformedHexLiteral(t *testing.T) {
	_, list := lexAll(t, "$ ")
	assert.Equal(t, 1, list.Len())
}

func TestLexStringLiterals(t *testing.T) {
	toks, list := lexAll(t, `"hello" 'world'`)
	require.Equal(t, 0, list.Len())
	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, Str, toks[0].Kind)
	assert.Equal(t, "hello", toks[0].Text)
	assert.Equal(t, Str, toks[1].Kind)
	assert.Equal(t, "world", toks[1].Text)
}

func TestLexUnterminatedStringReportsDiagnostic(t *testing.T) {
	_, list := lexAll(t, `"unterminated`)
	assert.Equal(t, 1, list.Len())
}

func TestLexCommentsAreSkipped(t *testing.T) {
	toks, list := lexAll(t, "a # line comment\nb // another\nc /* block */ d")
	require.Equal(t, 0, list.Len())
	var idents []string
	for _, tok := range toks {
		if tok.Kind == Ident {
			idents = append(idents, tok.Text)
		}
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, idents)
}

func TestLexKeywordsAreCaseInsensitive(t *testing.T) {
	toks, _ := lexAll(t, "IF While REPEAT")
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, Keyword, toks[1].Kind)
	assert.Equal(t, Keyword, toks[2].Kind)
}

func TestLexSymbolicLogicalOperators(t *testing.T) {
	toks, list := lexAll(t, "&& || ^^ %")
	require.Equal(t, 0, list.Len())
	assert.Equal(t, LogAnd, toks[0].Kind)
	assert.Equal(t, LogOr, toks[1].Kind)
	assert.Equal(t, LogXor, toks[2].Kind)
	assert.Equal(t, Percent, toks[3].Kind)
}

func TestLexCompoundAssignOperators(t *testing.T) {
	toks, _ := lexAll(t, "+= -= *= /= &= |= ^= :=")
	kinds := []Kind{AddEq, SubEq, MulEq, DivEq, AndEq, OrEq, XorEq, ColonEq}
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind)
	}
}
