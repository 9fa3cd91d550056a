package vm

// Arena owns the reference-counted Array payloads referenced by array-typed
// Values. A Value never stores a pointer directly (Go pointers are not safe
// to NaN-box across a moving collector); instead it stores an index into an
// Arena, mirroring the way db47h/ngaro's Image treats a flat Cell slice as
// addressable memory.
//
// Arrays have copy-on-write semantics at the language level (spec.md §3):
// assigning an array copies the handle (Retain bumps the refcount); any
// destructive update to a shared array clones first (see Write).
type Arena struct {
	slots []*arrayData
	free  []uint32
}

// arrayData is the sparse (row, column) -> Value payload backing one Array.
// Rows are allocated lazily; a read of an unallocated row or column returns
// the real 0.
type arrayData struct {
	refcount int32
	rows     map[int32]map[int32]Value
}

func newArrayData() *arrayData {
	return &arrayData{refcount: 1, rows: make(map[int32]map[int32]Value)}
}

// NewArena returns an empty array arena. One Arena is owned per Thread.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) alloc(d *arrayData) Value {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx] = d
		return arrayValue(idx)
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, d)
	return arrayValue(idx)
}

func (a *Arena) data(v Value) *arrayData {
	idx, ok := v.arrayIndex()
	if !ok {
		panic("vm: value is not an array")
	}
	d := a.slots[idx]
	if d == nil {
		panic("vm: use of released array")
	}
	return d
}

// NewScalar allocates a fresh one-cell array holding v at (0, 0). This is
// how a bare scalar assignment like `a = 1` is promoted the first time it
// is indexed.
func (a *Arena) NewScalar(v Value) Value {
	d := newArrayData()
	if v != Zero {
		d.rows[0] = map[int32]Value{0: v}
	}
	return a.alloc(d)
}

// Retain increments the refcount of an array-typed Value. It is a no-op for
// real and string Values: strings are interned for the life of the process
// (spec.md §3 "Lifecycles") so they need no refcount bookkeeping even though
// the SSA Release instruction is emitted uniformly for string/array values.
func (a *Arena) Retain(v Value) Value {
	if idx, ok := v.arrayIndex(); ok {
		a.slots[idx].refcount++
	}
	return v
}

// Release decrements the refcount of an array-typed Value, freeing its
// payload and every array-typed cell it holds when the count reaches zero.
// It is a no-op for real and string Values.
func (a *Arena) Release(v Value) {
	idx, ok := v.arrayIndex()
	if !ok {
		return
	}
	d := a.slots[idx]
	if d == nil {
		return
	}
	d.refcount--
	if d.refcount > 0 {
		return
	}
	for _, row := range d.rows {
		for _, cell := range row {
			a.Release(cell)
		}
	}
	a.slots[idx] = nil
	a.free = append(a.free, idx)
}

// RefCount returns the current refcount of an array-typed Value, for tests
// that verify the no-leak invariant (spec.md §8, invariant 3).
func (a *Arena) RefCount(v Value) int32 {
	return a.data(v).refcount
}

// clone deep-copies an array's payload into a freshly allocated slot with
// refcount 1, retaining every array-typed cell it contains.
func (a *Arena) clone(v Value) Value {
	src := a.data(v)
	dst := newArrayData()
	for r, row := range src.rows {
		nrow := make(map[int32]Value, len(row))
		for c, cell := range row {
			nrow[c] = a.Retain(cell)
		}
		dst.rows[r] = nrow
	}
	return a.alloc(dst)
}

// Write implements the SSA Write instruction: given the current value held
// by a field (scalar or array), return an array Value ready for a
// destructive StoreIndex. A scalar is promoted to a new one-cell array; a
// shared array (refcount > 1) is cloned first so that other holders of the
// same handle are unaffected (copy-on-write); an exclusively-owned array is
// returned unchanged so in-place mutation is cheap in the common case.
func (a *Arena) Write(v Value) Value {
	if !v.IsArray() {
		return a.NewScalar(v)
	}
	if a.RefCount(v) > 1 {
		old := v
		cloned := a.clone(v)
		a.Release(old)
		return cloned
	}
	return v
}

// LoadIndex reads the value at (row, column), returning the real 0 for any
// cell that was never written.
func (a *Arena) LoadIndex(v Value, row, column int32) Value {
	d := a.data(v)
	r, ok := d.rows[row]
	if !ok {
		return Zero
	}
	cell, ok := r[column]
	if !ok {
		return Zero
	}
	return cell
}

// LoadRow returns every value stored in the given row as a 1-D array
// Value, used by GML's row-indexing of a 2-D array (`a[row]`).
func (a *Arena) LoadRow(v Value, row int32) Value {
	d := a.data(v)
	src, ok := d.rows[row]
	if !ok {
		return a.NewScalar(Zero)
	}
	dst := newArrayData()
	nrow := make(map[int32]Value, len(src))
	for c, cell := range src {
		nrow[c] = a.Retain(cell)
	}
	dst.rows[0] = nrow
	return a.alloc(dst)
}

// StoreIndex writes value into the array v at (row, column), taking
// ownership of value: any value previously occupying the cell is released.
// v must already be an exclusively-owned array, i.e. the result of a prior
// call to Write.
func (a *Arena) StoreIndex(v Value, row, column int32, value Value) {
	d := a.data(v)
	r, ok := d.rows[row]
	if !ok {
		r = make(map[int32]Value)
		d.rows[row] = r
	}
	if old, ok := r[column]; ok {
		a.Release(old)
	}
	if value == Zero {
		delete(r, column)
		if len(r) == 0 {
			delete(d.rows, row)
		}
		return
	}
	r[column] = value
}

// StoreRow overwrites an entire row with the contents of another array
// Value (itself treated as a 1-D array, row 0 of its own storage).
func (a *Arena) StoreRow(v Value, row int32, rowValue Value) {
	d := a.data(v)
	if old, ok := d.rows[row]; ok {
		for _, cell := range old {
			a.Release(cell)
		}
		delete(d.rows, row)
	}
	if !rowValue.IsArray() {
		if rowValue != Zero {
			d.rows[row] = map[int32]Value{0: a.Retain(rowValue)}
		}
		return
	}
	src := a.data(rowValue)
	srcRow, ok := src.rows[0]
	if !ok || len(srcRow) == 0 {
		return
	}
	nrow := make(map[int32]Value, len(srcRow))
	for c, cell := range srcRow {
		nrow[c] = a.Retain(cell)
	}
	d.rows[row] = nrow
}
