package liveness_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/expose"
	"vecc/src/flatten"
	"vecc/src/frontend"
	"vecc/src/liveness"
	selectpass "vecc/src/select"
	"vecc/src/typecheck"
	"vecc/src/uniquify"
	"vecc/src/x86"
)

func selectSrc(t *testing.T, src string) *x86.Program {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))
	prog = expose.Expose(prog)
	prog = uniquify.Uniquify(prog)
	irProg := flatten.Flatten(prog)
	return selectpass.Select(irProg)
}

// TestComputeLengthMatchesInstrs checks that liveness returns exactly one live-after set per
// top-level instruction, and that the live set after the last instruction is empty: nothing is
// still needed once the program's final instruction has run.
func TestComputeLengthMatchesInstrs(t *testing.T) {
	prog := selectSrc(t, "(let ([x 10] [y 32]) (+ x y))")
	live := liveness.Compute(prog)
	require.Len(t, live, len(prog.Instrs))
	require.Empty(t, live[len(live)-1])
}

// TestComputeMovPropagatesLiveness checks the classic liveness rule across a mov: a variable that
// is read afterward must be live before the mov that writes some other variable, and the mov's own
// source must be live immediately before it.
func TestComputeMovPropagatesLiveness(t *testing.T) {
	prog := selectSrc(t, "(let ([x 10] [y 32]) (+ x y))")
	live := liveness.Compute(prog)

	// Find the mov that loads x into the add's destination, and assert x was live before it.
	var found bool
	for i1, instr := range prog.Instrs {
		mov, ok := instr.(*x86.Op2)
		if !ok || mov.Mnemonic != x86.MovMnemonic || i1 == 0 {
			continue
		}
		// live[i1-1] is the live-after set of the previous instruction, i.e. the live-before set
		// of this mov.
		if v, ok := mov.Src.(x86.Var); ok && live[i1-1][v.Name] {
			found = true
		}
	}
	require.True(t, found, "expected at least one mov whose source is live immediately before it")
}

// TestComputeIfRecursesBranches checks that a TmpIf's Then/Else carry their own live-after lists,
// one entry per instruction in that branch, after Compute runs.
func TestComputeIfRecursesBranches(t *testing.T) {
	prog := selectSrc(t, "(if (< 1 2) 7 9)")
	liveness.Compute(prog)

	var tmpIf *x86.TmpIf
	for _, instr := range prog.Instrs {
		if v, ok := instr.(*x86.TmpIf); ok {
			tmpIf = v
			break
		}
	}
	require.NotNil(t, tmpIf)
	require.Len(t, tmpIf.LiveAfterThen, len(tmpIf.Then))
	require.Len(t, tmpIf.LiveAfterElse, len(tmpIf.Else))
}
