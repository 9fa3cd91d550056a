package gml

import (
	"github.com/pkg/errors"

	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

// instanceData is one live instance's field store and the object kind
// Value it was created with, used to satisfy with(kind)-style scope
// lookups the way spec.md describes ("any numeric value interpreted as an
// object kind lookup via the host").
type instanceData struct {
	kind   int64
	fields map[symbol.Symbol]vm.Value
}

type withCursor struct {
	ids               []int64
	pos               int
	prevSelf, prevOther vm.Value
}

// MemWorld is a minimal, entirely in-memory vm.World: a flat instance
// table keyed by a small integer id plus a global field store. It is not
// a port of any engine subsystem (those are explicitly out of scope, per
// spec.md's Non-goals) — it exists so gml.Build's output and gml/vm's
// Thread can be exercised end to end without a host engine, the same role
// original_source/engine/src/world.rs's World struct plays for its own
// subsystems, reduced to only what the language runtime itself needs.
type MemWorld struct {
	resources *Resources

	instances map[int64]*instanceData
	order     []int64
	nextID    int64

	global map[symbol.Symbol]vm.Value

	self, other vm.Value
	cursors     []withCursor
}

// NewMemWorld returns an empty MemWorld whose Call delegates to
// resources.Natives.
func NewMemWorld(resources *Resources) *MemWorld {
	return &MemWorld{
		resources: resources,
		instances: make(map[int64]*instanceData),
		global:    make(map[symbol.Symbol]vm.Value),
		self:      vm.Scope(vm.ScopeNoone),
		other:     vm.Scope(vm.ScopeNoone),
	}
}

// CreateInstance allocates a new instance of the given object kind and
// returns its id as a Value, ready to be used as a scope.
func (w *MemWorld) CreateInstance(kind int64) vm.Value {
	id := w.nextID
	w.nextID++
	w.instances[id] = &instanceData{kind: kind, fields: make(map[symbol.Symbol]vm.Value)}
	w.order = append(w.order, id)
	return vm.Real(float64(id))
}

// DestroyInstance removes id from the instance table. A subsequent Field
// lookup against it behaves as though the instance never existed.
func (w *MemWorld) DestroyInstance(id vm.Value) {
	n, ok := id.Real()
	if !ok {
		return
	}
	key := int64(n)
	delete(w.instances, key)
	for i, candidate := range w.order {
		if candidate == key {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

func (w *MemWorld) Self() vm.Value  { return w.self }
func (w *MemWorld) Other() vm.Value { return w.other }
func (w *MemWorld) SetSelf(v vm.Value)  { w.self = v }
func (w *MemWorld) SetOther(v vm.Value) { w.other = v }

// Field consults the per-instance store first, falling back to a
// registered member getter, matching spec.md's field-lookup rule.
func (w *MemWorld) Field(scope vm.Value, field symbol.Symbol) (vm.Value, bool) {
	if kind, ok := scope.ScopeKind(); ok {
		if kind == vm.ScopeGlobal {
			return w.Global(field)
		}
		return vm.Zero, false
	}
	if inst, ok := w.instance(scope); ok {
		if v, ok := inst.fields[field]; ok {
			return v, true
		}
	}
	if get, ok := w.resources.Getters[field]; ok {
		return get(scope)
	}
	return vm.Zero, false
}

// SetField writes the per-instance store, or calls a registered member
// setter if one is registered for field (writes symmetrically consult
// registered setters, per spec.md).
func (w *MemWorld) SetField(scope vm.Value, field symbol.Symbol, value vm.Value) {
	if kind, ok := scope.ScopeKind(); ok {
		if kind == vm.ScopeGlobal {
			w.SetGlobal(field, value)
		}
		return
	}
	if set, ok := w.resources.Setters[field]; ok {
		if set(scope, value) {
			return
		}
	}
	if inst, ok := w.instance(scope); ok {
		inst.fields[field] = value
	}
}

func (w *MemWorld) instance(scope vm.Value) (*instanceData, bool) {
	n, ok := scope.Real()
	if !ok {
		return nil, false
	}
	inst, ok := w.instances[int64(n)]
	return inst, ok
}

func (w *MemWorld) Global(field symbol.Symbol) (vm.Value, bool) {
	v, ok := w.global[field]
	return v, ok
}

func (w *MemWorld) SetGlobal(field symbol.Symbol, value vm.Value) {
	w.global[field] = value
}

func (w *MemWorld) DeclareGlobal(field symbol.Symbol) {
	if _, ok := w.global[field]; !ok {
		w.global[field] = vm.Zero
	}
}

// IterStart resolves scope to the instance set a `with` statement should
// iterate: every live instance for Scope(ScopeAll), a single instance for
// a real-valued id that names one, or every instance sharing that kind
// for a real value that does not (spec.md: "any numeric value interpreted
// as an object kind lookup via the host").
func (w *MemWorld) IterStart(scope vm.Value) int {
	var ids []int64
	if kind, ok := scope.ScopeKind(); ok {
		if kind == vm.ScopeAll {
			ids = append(ids, w.order...)
		}
	} else if n, ok := scope.Real(); ok {
		key := int64(n)
		if _, exists := w.instances[key]; exists {
			ids = []int64{key}
		} else {
			for _, candidate := range w.order {
				if w.instances[candidate].kind == key {
					ids = append(ids, candidate)
				}
			}
		}
	}
	w.cursors = append(w.cursors, withCursor{ids: ids, prevSelf: w.self, prevOther: w.other})
	return len(w.cursors) - 1
}

// IterNext advances cursor, rebinding self to the next instance and other
// to the scope that was current before the with began (spec.md scenario
// 4: self after the with equals its prior value; other inside the body is
// fixed to that prior self for the whole iteration).
func (w *MemWorld) IterNext(cursor int) bool {
	c := &w.cursors[cursor]
	if c.pos >= len(c.ids) {
		w.self, w.other = c.prevSelf, c.prevOther
		return false
	}
	id := c.ids[c.pos]
	c.pos++
	w.other = c.prevSelf
	w.self = vm.Real(float64(id))
	return true
}

// Call dispatches sym as a registered native. Member getters/setters are
// not reachable through Call; they are consulted by Field/SetField
// instead (spec.md: "Field lookup... falling back to a user-registered
// member getter").
func (w *MemWorld) Call(th *vm.Thread, sym symbol.Symbol, args []vm.Value) (vm.Value, error) {
	fn, ok := w.resources.Natives[sym]
	if !ok {
		return vm.Zero, errors.Errorf("gml: no script or native registered for %q", th.Syms.Name(sym))
	}
	return fn(th, args)
}
