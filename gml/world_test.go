package gml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

func TestMemWorldWithAllDoublesEveryInstanceAndRestoresSelf(t *testing.T) {
	syms := symbol.NewTable()
	xSym := syms.Intern("x")

	script := syms.Intern("double_all")
	items := map[symbol.Symbol]Item{
		script: ScriptItem{Source: "with (all) x *= 2; return 0;"},
	}
	res := Build(syms, items, nil)
	require.Equal(t, 0, res.Debug[script].Len())

	world := NewMemWorld(res)
	i1 := world.CreateInstance(0)
	i2 := world.CreateInstance(0)
	world.SetField(i1, xSym, vm.Real(10))
	world.SetField(i2, xSym, vm.Real(20))

	world.SetSelf(i1)
	world.SetOther(vm.Scope(vm.ScopeNoone))

	th := vm.NewThread(world, syms, res.Scripts)
	_, err := th.Run(res.Scripts[script], nil)
	require.NoError(t, err)

	v1, _ := world.Field(i1, xSym)
	v2, _ := world.Field(i2, xSym)
	f1, _ := v1.Real()
	f2, _ := v2.Real()
	assert.Equal(t, 20.0, f1)
	assert.Equal(t, 40.0, f2)
	assert.Equal(t, i1, world.Self())
}

func TestMemWorldGlobalDeclareAndField(t *testing.T) {
	syms := symbol.NewTable()
	score := syms.Intern("score")
	res := &Resources{Natives: map[symbol.Symbol]NativeFunc{}, Getters: map[symbol.Symbol]GetFunc{}, Setters: map[symbol.Symbol]SetFunc{}}
	world := NewMemWorld(res)

	world.DeclareGlobal(score)
	v, ok := world.Global(score)
	require.True(t, ok)
	f, _ := v.Real()
	assert.Equal(t, 0.0, f)

	world.SetGlobal(score, vm.Real(7))
	v, ok = world.Global(score)
	require.True(t, ok)
	f, _ = v.Real()
	assert.Equal(t, 7.0, f)
}

func TestMemWorldMemberGetterFallsBackWhenFieldUnset(t *testing.T) {
	syms := symbol.NewTable()
	name := syms.Intern("label")
	res := &Resources{
		Natives: map[symbol.Symbol]NativeFunc{},
		Getters: map[symbol.Symbol]GetFunc{name: func(scope vm.Value) (vm.Value, bool) { return vm.Real(99), true }},
		Setters: map[symbol.Symbol]SetFunc{},
	}
	world := NewMemWorld(res)
	id := world.CreateInstance(0)

	v, ok := world.Field(id, name)
	require.True(t, ok)
	f, _ := v.Real()
	assert.Equal(t, 99.0, f)
}
