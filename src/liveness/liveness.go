// Package liveness implements the uncover-live pass (spec.md §4.6): computing, for every
// instruction in reverse order, the set of source-variable names live after it executes.
package liveness

import "vecc/src/x86"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Set is a live-variable set, keyed by source-variable name.
type Set map[string]bool

// ---------------------
// ----- Functions -----
// ---------------------

// Compute walks prog.Instrs in reverse, returning the live-after set for each top-level
// instruction and filling in LiveAfterThen/LiveAfterElse on every nested TmpIf in place (spec.md
// §4.6: "the per-branch live-after lists are stored on the TmpIf for the allocator").
func Compute(prog *x86.Program) []map[string]bool {
	after, _ := computeList(prog.Instrs, Set{})
	return toAnySlice(after)
}

// computeList computes the live-after set for every instruction in instrs, given seed — the
// live-after set of whatever follows instrs — and returns those sets plus the live-before set of
// instrs[0] (or seed, if instrs is empty).
func computeList(instrs []x86.Instr, seed Set) ([]Set, Set) {
	n := len(instrs)
	after := make([]Set, n)
	live := seed
	for i1 := n - 1; i1 >= 0; i1-- {
		after[i1] = live
		live = before(instrs[i1], live)
	}
	return after, live
}

// before applies the formal rule L_before(i) = (L_after(i) \ Writes(i)) ∪ Reads(i) (spec.md §4.6).
func before(instr x86.Instr, liveAfter Set) Set {
	switch v := instr.(type) {
	case *x86.TmpIf:
		return beforeTmpIf(v, liveAfter)
	case *x86.Op2:
		return beforeOp2(v, liveAfter)
	case *x86.Op1:
		return beforeOp1(v, liveAfter)
	case *x86.Movzb:
		return apply(liveAfter, nil, []x86.Operand{v.Dst})
	case *x86.SetCC:
		return liveAfter // destination is a ByteReg, never a source variable.
	case *x86.ReturnFromFunction:
		return apply(liveAfter, []x86.Operand{v.Arg}, nil)
	case *x86.Op0, *x86.Jmp, *x86.JmpIf, *x86.Label, *x86.CalleeConvention:
		return liveAfter
	default:
		return liveAfter
	}
}

func beforeTmpIf(v *x86.TmpIf, liveAfter Set) Set {
	thenAfter, thenBefore := computeList(v.Then, liveAfter)
	elseAfter, elseBefore := computeList(v.Else, liveAfter)
	v.LiveAfterThen = toAnySlice(thenAfter)
	v.LiveAfterElse = toAnySlice(elseAfter)
	return union(union(thenBefore, elseBefore), liveAfter)
}

func beforeOp2(v *x86.Op2, liveAfter Set) Set {
	switch v.Mnemonic {
	case x86.MovMnemonic:
		return apply(liveAfter, []x86.Operand{v.Src}, []x86.Operand{v.Dst})
	case x86.AddMnemonic, x86.SubMnemonic, x86.XorMnemonic:
		return apply(liveAfter, []x86.Operand{v.Src, v.Dst}, []x86.Operand{v.Dst})
	case x86.CmpMnemonic:
		return apply(liveAfter, []x86.Operand{v.Src, v.Dst}, nil)
	default:
		return liveAfter
	}
}

func beforeOp1(v *x86.Op1, liveAfter Set) Set {
	switch v.Mnemonic {
	case x86.NegMnemonic:
		return apply(liveAfter, []x86.Operand{v.Operand}, []x86.Operand{v.Operand})
	default:
		// call, push, pop, jmp, set<cc> operate on fixed physical registers or labels here, never
		// on source variables (spec.md §4.6).
		return liveAfter
	}
}

// apply returns (liveAfter \ writes) ∪ reads, counting only operands that name a source variable.
func apply(liveAfter Set, reads, writes []x86.Operand) Set {
	out := make(Set, len(liveAfter))
	for k := range liveAfter {
		out[k] = true
	}
	for _, w := range writes {
		if name, ok := varName(w); ok {
			delete(out, name)
		}
	}
	for _, r := range reads {
		if name, ok := varName(r); ok {
			out[name] = true
		}
	}
	return out
}

func union(a, b Set) Set {
	out := make(Set, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func varName(op x86.Operand) (string, bool) {
	v, ok := op.(x86.Var)
	return v.Name, ok
}

func toAnySlice(sets []Set) []map[string]bool {
	out := make([]map[string]bool, len(sets))
	for i1, s := range sets {
		out[i1] = map[string]bool(s)
	}
	return out
}
