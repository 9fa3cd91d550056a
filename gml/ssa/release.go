package ssa

import "sort"

// InsertReleases is the cleanup pass spec.md §4.4 describes running after
// construction: insert Release for every String/Array-typed SSA value
// that is not the last use of its reference. Release is a no-op at
// runtime for Real-valued slots (gml/vm's Arena.Release only acts on
// array-tagged values, and gml/vm interns strings without refcounting
// them at all), so a value that turns out to be a plain real pays only
// the cost of a harmless extra instruction.
//
// Only values this function can prove it owns outright are eligible for
// an inserted Release: Call results (ownership transfers in from the
// callee's Return), Write results (the copy-on-write array handle),
// Unary(ToArray) results, and string immediates. Values read from storage — LoadField/
// LoadFieldDefault/LoadFieldArray, LoadRow/LoadIndex, and Param (script
// call arguments) — are borrowed: the World/Arena or the caller still
// holds its own reference to them independent of this function, so
// releasing them here would drop a refcount the owner still depends on.
func (f *Function) InsertReleases() {
	for b := range f.Blocks {
		f.insertReleasesInBlock(Block(b))
	}
}

// eligibleForRelease reports whether in's result is a value this
// function exclusively owns and so may safely release once unused.
func eligibleForRelease(in *Inst) bool {
	switch in.Op {
	case OpCall, OpWrite:
		return true
	case OpImmediate:
		return in.Const.IsString
	case OpUnary:
		return in.UnaryOp == ToArray
	default:
		return false
	}
}

func (f *Function) insertReleasesInBlock(b Block) {
	body := f.Blocks[b]

	defIndex := make(map[Value]int, len(body.Instructions))
	for i, v := range body.Instructions {
		defIndex[v] = i
	}

	lastUse := make(map[Value]int)
	transfers := make(map[Value]bool)
	mark := func(u Value, i int, transfer bool) {
		lastUse[u] = i
		transfers[u] = transfer
	}

	for i, v := range body.Instructions {
		in := &f.Values[v]
		switch in.Op {
		case OpJump, OpReturn:
			// ownership of every argument moves to the target block's
			// parameters (or, for Return, out to the caller).
			for _, a := range in.Args {
				mark(a, i, true)
			}
		case OpBranch:
			mark(in.Cond, i, false)
		case OpWrite:
			// the array being promoted/cloned is fully consumed by Write;
			// its own Arena-level lifetime continues through Write's result.
			mark(in.Args[0], i, true)
		case OpStoreField:
			mark(in.Args[0], i, true) // value: ownership moves into the field
			mark(in.Args[1], i, false)
		case OpStoreIndex:
			mark(in.Args[0], i, true) // array: already consumed, see OpWrite
			mark(in.Args[1], i, false)
			mark(in.Args[2], i, false)
			mark(in.Args[3], i, true) // value: ownership moves into the cell
		default:
			for _, a := range in.Args {
				mark(a, i, false)
			}
		}
	}

	type insertion struct {
		after int
		value Value
	}
	var insertions []insertion

	for _, v := range body.Instructions {
		in := &f.Values[v]
		if !eligibleForRelease(in) {
			continue
		}
		if use, ok := lastUse[v]; ok {
			if transfers[v] {
				continue
			}
			insertions = append(insertions, insertion{after: use, value: v})
			continue
		}
		// defined but never read in this block: release right after
		// construction rather than leaking it.
		insertions = append(insertions, insertion{after: defIndex[v], value: v})
	}

	if len(insertions) == 0 {
		return
	}

	// Apply from the highest index down so earlier recorded offsets stay
	// valid as the slice grows.
	sort.Slice(insertions, func(i, j int) bool { return insertions[i].after > insertions[j].after })

	// A block's terminator must stay the last instruction; a value whose
	// last use is the terminator itself (e.g. a Call result used directly
	// as a Branch condition) gets its Release spliced in just before it.
	terminatorIdx := len(body.Instructions) - 1

	instrs := body.Instructions
	for _, ins := range insertions {
		rv := Value(len(f.Values))
		f.Values = append(f.Values, Inst{Op: OpRelease, Args: []Value{ins.value}})
		idx := ins.after + 1
		if terminatorIdx >= 0 && ins.after >= terminatorIdx {
			idx = terminatorIdx
		}
		instrs = append(instrs[:idx], append([]Value{rv}, instrs[idx:]...)...)
	}
	f.Blocks[b].Instructions = instrs
}
