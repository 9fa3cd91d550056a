package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gm-archive/dejavu/symbol"
)

func TestInternIsStable(t *testing.T) {
	table := symbol.NewTable()

	a := table.Intern("x")
	b := table.Intern("x")
	assert.Equal(t, a, b)
	assert.Equal(t, "x", table.Name(a))
}

func TestInternDistinctNames(t *testing.T) {
	table := symbol.NewTable()

	a := table.Intern("foo")
	b := table.Intern("bar")
	assert.NotEqual(t, a, b)
}

func TestReservedSymbolsShared(t *testing.T) {
	t1 := symbol.NewTable()
	t2 := symbol.NewTable()

	assert.Equal(t, symbol.Self, t1.Intern("self"))
	assert.Equal(t, symbol.Self, t2.Intern("self"))
	assert.True(t, symbol.Self.IsPseudoInstance())
	assert.False(t, symbol.Symbol(0).IsPseudoInstance())
}

func TestLookupWithoutInterning(t *testing.T) {
	table := symbol.NewTable()

	_, ok := table.Lookup("never_seen")
	assert.False(t, ok)

	table.Intern("never_seen")
	s, ok := table.Lookup("never_seen")
	assert.True(t, ok)
	assert.Equal(t, "never_seen", table.Name(s))
}
