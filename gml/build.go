// Package gml is the registration/build surface a host uses to turn a set
// of scripts, native functions, and member accessors into runnable
// Resources, grounded on original_source/gml/src/lib.rs's Item/build().
package gml

import (
	"github.com/gm-archive/dejavu/gml/back"
	"github.com/gm-archive/dejavu/gml/diag"
	"github.com/gm-archive/dejavu/gml/front"
	"github.com/gm-archive/dejavu/gml/vm"
	"github.com/gm-archive/dejavu/symbol"
)

// NativeFunc is a host-supplied function reachable from GML by a Call
// instruction whose symbol has no compiled script.
type NativeFunc func(th *vm.Thread, args []vm.Value) (vm.Value, error)

// GetFunc/SetFunc back a Member item: a field access through the symbol
// calls out to the host instead of (or in addition to) the instance
// store. They take no *vm.Thread (unlike NativeFunc) because a member
// accessor is a data accessor, not a script-invoking callback (spec.md:
// "accessors invoked when a script reads/writes a field with that
// symbol"); ok mirrors World.Field/SetField's own success reporting.
type GetFunc func(scope vm.Value) (vm.Value, bool)
type SetFunc func(scope vm.Value, value vm.Value) bool

// Item is one entry in the table passed to Build: a script source, a
// native function, or a pair of member accessors.
type Item interface{ isItem() }

// ScriptItem compiles source as a GML script reachable by its map key.
type ScriptItem struct{ Source string }

func (ScriptItem) isItem() {}

// NativeItem registers an engine-side function. Arity/Variadic are
// advisory metadata for a host-side arity check at Call time; the runtime
// itself does not enforce them (spec.md: "Arity mismatches are runtime
// errors unless the native declared itself variadic" is a World-level
// policy, not a VM one).
type NativeItem struct {
	Func     NativeFunc
	Arity    int
	Variadic bool
}

func (NativeItem) isItem() {}

// MemberItem registers a getter and/or setter invoked when a script reads
// or writes a field with this symbol, in place of (or alongside) the
// instance field store.
type MemberItem struct {
	Get GetFunc
	Set SetFunc
}

func (MemberItem) isItem() {}

// Resources is the bundle Build produces: everything a Thread/World needs
// to run the registered items.
type Resources struct {
	Scripts map[symbol.Symbol]*vm.Program
	Natives map[symbol.Symbol]NativeFunc
	Getters map[symbol.Symbol]GetFunc
	Setters map[symbol.Symbol]SetFunc

	// Debug holds every diagnostic collected while compiling each script,
	// for a host that wants to print or inspect them after Build returns
	// in addition to (or instead of) the errors callback.
	Debug map[symbol.Symbol]*diag.List
}

// Build compiles every ScriptItem in items and collects every NativeItem/
// MemberItem into the returned Resources. errors, if non-nil, is called
// once per script to obtain a diag.Handler that also receives that
// script's diagnostics as they are produced (errors(name, source)),
// mirroring original_source/gml/src/lib.rs's `F: FnMut(Symbol, &str) -> H`.
func Build(syms *symbol.Table, items map[symbol.Symbol]Item, errors func(name symbol.Symbol, source string) diag.Handler) *Resources {
	res := &Resources{
		Scripts: make(map[symbol.Symbol]*vm.Program),
		Natives: make(map[symbol.Symbol]NativeFunc),
		Getters: make(map[symbol.Symbol]GetFunc),
		Setters: make(map[symbol.Symbol]SetFunc),
		Debug:   make(map[symbol.Symbol]*diag.List),
	}
	for name, item := range items {
		switch it := item.(type) {
		case ScriptItem:
			prog, list := compile(syms, name, it.Source, errors)
			res.Scripts[name] = prog
			res.Debug[name] = list
		case NativeItem:
			res.Natives[name] = it.Func
		case MemberItem:
			if it.Get != nil {
				res.Getters[name] = it.Get
			}
			if it.Set != nil {
				res.Setters[name] = it.Set
			}
		}
	}
	return res
}

// compile runs one script through lex -> parse -> codegen -> lower,
// forwarding every diagnostic to both the returned list and, if errors is
// non-nil, the host handler errors(name, source) produces.
func compile(syms *symbol.Table, name symbol.Symbol, source string, errors func(symbol.Symbol, string) diag.Handler) (*vm.Program, *diag.List) {
	list := &diag.List{}

	var host diag.Handler
	if errors != nil {
		host = errors(name, source)
	}

	parser := front.NewParser(source, list)
	stmts := parser.ParseProgram()
	if host != nil {
		for _, d := range list.Items() {
			host(d.Span, d.Message)
		}
	}

	handler := diag.ListHandler(list)
	if host != nil {
		handler = func(span diag.Span, message string) {
			list.Add(span, "%s", message)
			host(span, message)
		}
	}

	codegen := front.NewCodegen(syms, handler)
	fn := codegen.Compile(stmts)
	return back.Lower(fn), list
}
