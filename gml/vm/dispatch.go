package vm

import (
	"errors"
	"math"
	"strconv"

	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/ssa"
	"github.com/gm-archive/dejavu/symbol"
)

// World is implemented by the host embedding the VM. It owns per-instance
// and global storage and the `with`-iteration policy; the Thread dispatch
// loop only ever calls through this interface for anything
// object-model-shaped, mirroring the port-handler-lookup split between
// db47h/ngaro's vm/core.go (the dispatch loop) and vm/io.go (the
// host-supplied port table).
type World interface {
	// Self and Other report the Thread's current dynamic bindings; they
	// are read fresh at every Lookup rather than cached in an SSA
	// register, since With/IterNext mutate them mid-script.
	Self() Value
	Other() Value
	SetSelf(v Value)
	SetOther(v Value)

	// Field reads/writes an instance variable of scope (an instance id
	// Value). ok is false if field was never written and has no
	// registered default.
	Field(scope Value, field symbol.Symbol) (Value, bool)
	SetField(scope Value, field symbol.Symbol, value Value)

	Global(field symbol.Symbol) (Value, bool)
	SetGlobal(field symbol.Symbol, value Value)
	DeclareGlobal(field symbol.Symbol)

	// IterStart begins a `with` iteration over scope (an instance id, an
	// object index encoded as a real, or the Scope(ScopeAll) pseudo-scope)
	// and returns an opaque, Thread-local cursor handle.
	IterStart(scope Value) int
	// IterNext advances cursor, rebinding Self/Other via SetSelf/SetOther
	// as a side effect, and reports whether an instance remains.
	IterNext(cursor int) bool

	// Call dispatches anything that is not a compiled script known to
	// the calling Thread: engine natives and registered member
	// getters/setters invoked as calls.
	Call(th *Thread, sym symbol.Symbol, args []Value) (Value, error)
}

// Frame is one call's working state: its program, argument vector, and
// slot array (one dedicated slot per SSA value, per gml/back's lowering).
type Frame struct {
	Program *Program
	Args    []Value
	Slots   []Value
	withCur []int // active `with` cursor handles, most recent last
}

// Thread executes compiled scripts against a World. It owns the array
// arena (array identity and refcounts are Thread-local, matching a
// single-threaded-script execution model) and the table of compiled
// scripts reachable by a direct Call.
type Thread struct {
	World   World
	Arena   *Arena
	Syms    *symbol.Table
	Scripts map[symbol.Symbol]*Program

	depth int
}

const maxCallDepth = 256

// NewThread returns a Thread ready to run scripts against world.
func NewThread(world World, syms *symbol.Table, scripts map[symbol.Symbol]*Program) *Thread {
	return &Thread{World: world, Arena: NewArena(), Syms: syms, Scripts: scripts}
}

// Call dispatches sym as a script if one is compiled, otherwise defers to
// the World (natives, member accessors).
func (th *Thread) Call(sym symbol.Symbol, args []Value) (Value, error) {
	if th.depth >= maxCallDepth {
		return Zero, fault(diag.Span{}, "call stack exceeded depth %d", maxCallDepth)
	}
	if prog, ok := th.Scripts[sym]; ok {
		th.depth++
		defer func() { th.depth-- }()
		return th.Run(prog, args)
	}
	return th.World.Call(th, sym, args)
}

// Run executes prog to completion with the given call arguments and
// returns the value passed to the exit block's Return.
func (th *Thread) Run(prog *Program, args []Value) (Value, error) {
	fr := &Frame{Program: prog, Args: args, Slots: make([]Value, prog.NumSlots)}
	return th.dispatch(fr)
}

func (th *Thread) dispatch(fr *Frame) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				var re *RuntimeError
				if errors.As(e, &re) {
					err = e
					return
				}
			}
			panic(r)
		}
	}()

	pc := 0
	for {
		in := &fr.Program.Instrs[pc]
		switch in.Op {
		case OpImmediate:
			fr.Slots[in.Dst] = in.Const
		case OpParam:
			if in.A < len(fr.Args) {
				fr.Slots[in.Dst] = fr.Args[in.A]
			} else {
				fr.Slots[in.Dst] = Zero
			}
		case OpCopy:
			fr.Slots[in.Dst] = fr.Slots[in.A]
		case OpUnary:
			fr.Slots[in.Dst] = th.unary(fr, in)
		case OpBinary:
			fr.Slots[in.Dst] = th.binary(fr, in)
		case OpDeclareGlobal:
			th.World.DeclareGlobal(in.Sym)
		case OpLookup:
			fr.Slots[in.Dst] = th.lookup(in.Sym)
		case OpRead:
			fr.Slots[in.Dst] = fr.Slots[in.A]
		case OpWrite:
			fr.Slots[in.Dst] = th.Arena.Write(fr.Slots[in.A])
		case OpLoadField:
			v, ok := th.World.Field(fr.Slots[in.A], in.Sym)
			if !ok {
				panic(fault(in.Span, "unset variable %q", th.Syms.Name(in.Sym)))
			}
			fr.Slots[in.Dst] = v
		case OpLoadFieldDefault:
			v, ok := th.World.Field(fr.Slots[in.A], in.Sym)
			if !ok {
				v = Zero
			}
			fr.Slots[in.Dst] = v
		case OpLoadFieldArray:
			v, ok := th.World.Field(fr.Slots[in.A], in.Sym)
			if !ok {
				v = th.Arena.NewScalar(Zero)
				th.World.SetField(fr.Slots[in.A], in.Sym, v)
			}
			fr.Slots[in.Dst] = v
		case OpStoreField:
			th.World.SetField(fr.Slots[in.B], in.Sym, fr.Slots[in.A])
		case OpStoreIndex:
			th.Arena.StoreIndex(fr.Slots[in.A], mustInt32(fr.Slots[in.B], in.Span), mustInt32(fr.Slots[in.C], in.Span), fr.Slots[in.D])
		case OpRelease:
			th.Arena.Release(fr.Slots[in.A])
		case OpCall:
			args := make([]Value, len(in.Args))
			for i, s := range in.Args {
				args[i] = fr.Slots[s]
			}
			v, callErr := th.Call(in.Sym, args)
			if callErr != nil {
				var re *RuntimeError
				if !errors.As(callErr, &re) {
					callErr = fault(in.Span, "%v", callErr)
				}
				panic(callErr)
			}
			fr.Slots[in.Dst] = v
		case OpJump:
			pc = in.Target
			continue
		case OpBranch:
			if truthy(fr.Slots[in.A]) {
				pc = in.Targets[0]
			} else {
				pc = in.Targets[1]
			}
			continue
		case OpReturn:
			return fr.Slots[in.A], nil
		}
		pc++
	}
}

// lookup resolves a pseudo-instance symbol to its current scope value.
func (th *Thread) lookup(sym symbol.Symbol) Value {
	switch sym {
	case symbol.Self:
		return th.World.Self()
	case symbol.Other:
		return th.World.Other()
	case symbol.Global:
		return Scope(ScopeGlobal)
	case symbol.All:
		return Scope(ScopeAll)
	case symbol.Noone:
		return Scope(ScopeNoone)
	case symbol.Local:
		return Scope(ScopeLocal)
	default:
		return Zero
	}
}

func truthy(v Value) bool {
	f, ok := v.Real()
	if !ok {
		return true // strings and arrays are always truthy
	}
	return f != 0
}

func mustInt32(v Value, span diag.Span) int32 {
	f, ok := v.Real()
	if !ok {
		panic(fault(span, "expected a number, got %s", v.Type()))
	}
	return int32(f)
}

func (th *Thread) unary(fr *Frame, in *Instr) Value {
	switch in.UnaryOp {
	case ssa.Negate:
		f, ok := fr.Slots[in.A].Real()
		if !ok {
			panic(fault(in.Span, "cannot negate a %s", fr.Slots[in.A].Type()))
		}
		return Real(-f)
	case ssa.Not:
		if truthy(fr.Slots[in.A]) {
			return Zero
		}
		return Real(1)
	case ssa.BitInvert:
		f, _ := fr.Slots[in.A].Real()
		return Real(float64(^int32(f)))
	case ssa.With:
		cursor := th.World.IterStart(fr.Slots[in.A])
		fr.withCur = append(fr.withCur, cursor)
		return Real(float64(cursor))
	case ssa.Next:
		cursor := int(mustInt32(fr.Slots[in.A], in.Span))
		if th.World.IterNext(cursor) {
			return Real(1)
		}
		return Zero
	case ssa.ToArray:
		return th.Arena.NewScalar(fr.Slots[in.A])
	case ssa.ToScalar:
		return th.Arena.LoadIndex(fr.Slots[in.A], 0, 0)
	default:
		return Zero
	}
}

func (th *Thread) binary(fr *Frame, in *Instr) Value {
	a, b := fr.Slots[in.A], fr.Slots[in.B]
	switch in.BinaryOp {
	case ssa.LoadRow:
		return th.Arena.LoadRow(a, mustInt32(b, in.Span))
	case ssa.LoadIndex:
		return th.Arena.LoadIndex(a, 0, mustInt32(b, in.Span))
	case ssa.StoreRow:
		// Array writes always lower through OpStoreIndex (codegen's
		// load-modify-writeback path); no codegen path emits a 2-operand
		// StoreRow, since a row store needs a third (value) operand.
		panic(fault(in.Span, "store_row has no 2-operand binary form"))
	case ssa.Eq:
		return boolValue(equalValues(a, b))
	case ssa.Ne:
		return boolValue(!equalValues(a, b))
	}

	if in.BinaryOp >= ssa.And && in.BinaryOp <= ssa.Xor {
		at, bt := truthy(a), truthy(b)
		switch in.BinaryOp {
		case ssa.And:
			return boolValue(at && bt)
		case ssa.Or:
			return boolValue(at || bt)
		default:
			return boolValue(at != bt)
		}
	}

	af, aok := a.Real()
	bf, bok := b.Real()
	if in.BinaryOp == ssa.Add && (a.IsString() || b.IsString()) {
		return th.concat(a, b, in)
	}
	if !aok || !bok {
		panic(fault(in.Span, "arithmetic on a %s", typeOf(a, b, aok)))
	}

	switch in.BinaryOp {
	case ssa.Add:
		return Real(af + bf)
	case ssa.Sub:
		return Real(af - bf)
	case ssa.Mul:
		return Real(af * bf)
	case ssa.Div:
		if bf == 0 {
			panic(fault(in.Span, "division by zero"))
		}
		return Real(af / bf)
	case ssa.IntDiv:
		if int64(bf) == 0 {
			panic(fault(in.Span, "division by zero"))
		}
		return Real(float64(int64(af) / int64(bf)))
	case ssa.Mod:
		if bf == 0 {
			panic(fault(in.Span, "division by zero"))
		}
		return Real(math.Mod(af, bf))
	case ssa.BitAnd:
		return Real(float64(int32(af) & int32(bf)))
	case ssa.BitOr:
		return Real(float64(int32(af) | int32(bf)))
	case ssa.BitXor:
		return Real(float64(int32(af) ^ int32(bf)))
	case ssa.Shl:
		return Real(float64(int32(af) << uint32(bf)))
	case ssa.Shr:
		return Real(float64(int32(af) >> uint32(bf)))
	case ssa.Lt:
		return boolValue(af < bf)
	case ssa.Le:
		return boolValue(af <= bf)
	case ssa.Gt:
		return boolValue(af > bf)
	case ssa.Ge:
		return boolValue(af >= bf)
	default:
		return Zero
	}
}

func typeOf(a, b Value, aok bool) Type {
	if !aok {
		return a.Type()
	}
	return b.Type()
}

func boolValue(b bool) Value {
	if b {
		return Real(1)
	}
	return Zero
}

func equalValues(a, b Value) bool {
	if a.Type() != b.Type() {
		af, aok := a.Real()
		bf, bok := b.Real()
		if aok && bok {
			return af == bf
		}
		return false
	}
	return a == b
}

// concat implements string Add, interning the combined text. Both
// operands are coerced to their printed form first (GML allows
// `"x = " + string(x)`-style concatenation with a bare number).
func (th *Thread) concat(a, b Value, in *Instr) Value {
	as := th.display(a)
	bs := th.display(b)
	return String(th.Syms.Intern(as + bs))
}

func (th *Thread) display(v Value) string {
	switch v.Type() {
	case TypeString:
		sym, _ := v.Symbol()
		return th.Syms.Name(sym)
	case TypeReal:
		f, _ := v.Real()
		return formatReal(f)
	default:
		return ""
	}
}

// formatReal renders a GML real the way the language prints a bare number
// in string concatenation: integral values drop their fractional part.
func formatReal(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
