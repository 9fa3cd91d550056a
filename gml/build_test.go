package gml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

func TestBuildCompilesScriptAndCollectsDiagnostics(t *testing.T) {
	syms := symbol.NewTable()
	addOne := syms.Intern("add_one")

	items := map[symbol.Symbol]Item{
		addOne: ScriptItem{Source: "return argument0 + 1;"},
	}
	res := Build(syms, items, nil)

	require.Contains(t, res.Scripts, addOne)
	assert.Equal(t, 0, res.Debug[addOne].Len())

	world := NewMemWorld(res)
	th := vm.NewThread(world, syms, res.Scripts)
	result, err := th.Run(res.Scripts[addOne], []vm.Value{vm.Real(41)})
	require.NoError(t, err)
	f, ok := result.Real()
	require.True(t, ok)
	assert.Equal(t, 42.0, f)
}

func TestBuildForwardsParseErrorsToHostHandler(t *testing.T) {
	syms := symbol.NewTable()
	broken := syms.Intern("broken")

	var captured []string
	items := map[symbol.Symbol]Item{
		broken: ScriptItem{Source: "var = ;"},
	}
	res := Build(syms, items, func(name symbol.Symbol, source string) diag.Handler {
		return func(span diag.Span, message string) {
			captured = append(captured, message)
		}
	})

	assert.NotEmpty(t, captured)
	assert.True(t, res.Debug[broken].Len() > 0)
}

func TestBuildRegistersNativesAndMembers(t *testing.T) {
	syms := symbol.NewTable()
	double := syms.Intern("double")
	health := syms.Intern("health")

	items := map[symbol.Symbol]Item{
		double: NativeItem{Func: func(th *vm.Thread, args []vm.Value) (vm.Value, error) {
			f, _ := args[0].Real()
			return vm.Real(f * 2), nil
		}},
		health: MemberItem{
			Get: func(scope vm.Value) (vm.Value, bool) { return vm.Real(100), true },
		},
	}
	res := Build(syms, items, nil)

	require.Contains(t, res.Natives, double)
	require.Contains(t, res.Getters, health)
	assert.NotContains(t, res.Setters, health)
}
