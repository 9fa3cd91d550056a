// Package symbol interns identifiers into small comparable integers.
//
// A Symbol is cheap to copy, compare and hash: the string it denotes lives
// once in a Table and is recovered through Table.Name. Each NewTable call
// creates an independent Table; there is no process-wide default, and a
// Symbol is meaningful only to the Table that minted it (apart from the
// reserved constants, which every Table shares). A Table is append-only,
// so its Symbols stay valid for as long as the Table is in use.
package symbol

import "sync"

// Symbol is an interned identifier. The zero Symbol is reserved and never
// returned by Table.Intern; it is used as a "no symbol" sentinel by callers
// that need one (e.g. an unused map slot).
type Symbol uint32

// Reserved pseudo-instance and keyword symbols. These are interned eagerly
// by NewTable so that every Table assigns them the same indices, letting
// the front end and VM compare against them without a table lookup.
const (
	Invalid Symbol = iota
	Self
	Other
	All
	Noone
	Global
	Local

	firstUser // sentinel: first index available to Table.Intern
)

var reservedNames = [...]string{
	Invalid: "",
	Self:    "self",
	Other:   "other",
	All:     "all",
	Noone:   "noone",
	Global:  "global",
	Local:   "local",
}

// Table is a string interner. The zero Table is not usable; use NewTable.
type Table struct {
	mu    sync.RWMutex
	index map[string]Symbol
	names []string
}

// NewTable returns a Table with the reserved pseudo-instance symbols
// already interned.
func NewTable() *Table {
	t := &Table{
		index: make(map[string]Symbol, 64),
		names: make([]string, firstUser, 256),
	}
	for s, name := range reservedNames {
		if s == int(Invalid) {
			continue
		}
		t.index[name] = Symbol(s)
		t.names[s] = name
	}
	return t
}

// Intern returns the Symbol for name, allocating a new one if name has not
// been seen before.
func (t *Table) Intern(name string) Symbol {
	t.mu.RLock()
	if s, ok := t.index[name]; ok {
		t.mu.RUnlock()
		return s
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.index[name]; ok {
		return s
	}
	s := Symbol(len(t.names))
	t.names = append(t.names, name)
	t.index[name] = s
	return s
}

// Name returns the string a Symbol denotes. It panics if s was not
// produced by this Table (or one of its reserved constants).
func (t *Table) Name(s Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.names[s]
}

// Lookup returns the Symbol for name and whether it has already been
// interned, without allocating a new entry.
func (t *Table) Lookup(name string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.index[name]
	return s, ok
}

// IsPseudoInstance reports whether s is one of self/other/all/noone/global.
func (s Symbol) IsPseudoInstance() bool {
	switch s {
	case Self, Other, All, Noone, Global:
		return true
	default:
		return false
	}
}
