package patch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/patch"
	"vecc/src/x86"
)

// TestPatchSplitsMemMemOperands exercises invariant 6 of spec.md §8: no two-operand instruction may
// have both operands as memory derefs after patch-instruction.
func TestPatchSplitsMemMemOperands(t *testing.T) {
	prog := &x86.Program{
		Instrs: []x86.Instr{
			&x86.Op2{Mnemonic: x86.AddMnemonic,
				Src: x86.Deref{Reg: "rbp", Offset: -8},
				Dst: x86.Deref{Reg: "rbp", Offset: -16},
			},
		},
	}
	patch.Patch(prog)

	for _, instr := range prog.Instrs {
		op2, ok := instr.(*x86.Op2)
		require.True(t, ok)
		_, srcDeref := op2.Src.(x86.Deref)
		_, dstDeref := op2.Dst.(x86.Deref)
		require.False(t, srcDeref && dstDeref, "instruction %#v still has two memory operands", op2)
	}
	require.Len(t, prog.Instrs, 2, "expected the mem-mem add to split into a mov + add through %%rax")
}

// TestPatchRewritesCmpImmediateSecondOperand exercises the other half of invariant 6: a cmp whose
// AT&T-order second operand is an immediate must be rewritten through %rax, since x86-64 disallows
// an immediate there.
func TestPatchRewritesCmpImmediateSecondOperand(t *testing.T) {
	prog := &x86.Program{
		Instrs: []x86.Instr{
			&x86.Op2{Mnemonic: x86.CmpMnemonic, Src: x86.Reg{Name: "rbx"}, Dst: x86.Int{Value: 5}},
		},
	}
	patch.Patch(prog)

	require.Len(t, prog.Instrs, 2)
	mov, ok := prog.Instrs[0].(*x86.Op2)
	require.True(t, ok)
	require.Equal(t, x86.MovMnemonic, mov.Mnemonic)
	require.Equal(t, x86.Int{Value: 5}, mov.Src)
	require.Equal(t, x86.Reg{Name: "rax"}, mov.Dst)

	cmp, ok := prog.Instrs[1].(*x86.Op2)
	require.True(t, ok)
	require.Equal(t, x86.CmpMnemonic, cmp.Mnemonic)
	_, isImm := cmp.Dst.(x86.Int)
	require.False(t, isImm, "cmp's second operand must no longer be an immediate")
}

// TestPatchPrologueEpilogueOmitStackAdjustWhenEmpty checks the zero-stack-size fast path: no
// sub/add %rsp pair is emitted when nothing was spilled.
func TestPatchPrologueEpilogueOmitStackAdjustWhenEmpty(t *testing.T) {
	prog := &x86.Program{
		StackSize: 0,
		Instrs: []x86.Instr{
			&x86.CalleeConvention{},
			&x86.CalleeConvention{Epilogue: true},
		},
	}
	patch.Patch(prog)

	for _, instr := range prog.Instrs {
		if op2, ok := instr.(*x86.Op2); ok {
			require.NotEqual(t, x86.SubMnemonic, op2.Mnemonic)
			require.NotEqual(t, x86.AddMnemonic, op2.Mnemonic)
		}
	}
}

// TestPatchPrologueEpilogueAdjustStackWhenSpilled checks the stack-size path emits matching
// sub/add %rsp instructions sized to the recorded spill area.
func TestPatchPrologueEpilogueAdjustStackWhenSpilled(t *testing.T) {
	prog := &x86.Program{
		StackSize: 32,
		Instrs: []x86.Instr{
			&x86.CalleeConvention{},
			&x86.CalleeConvention{Epilogue: true},
		},
	}
	patch.Patch(prog)

	var sawSub, sawAdd bool
	for _, instr := range prog.Instrs {
		if op2, ok := instr.(*x86.Op2); ok {
			if op2.Mnemonic == x86.SubMnemonic && op2.Src == (x86.Int{Value: 32}) {
				sawSub = true
			}
			if op2.Mnemonic == x86.AddMnemonic && op2.Src == (x86.Int{Value: 32}) {
				sawAdd = true
			}
		}
	}
	require.True(t, sawSub)
	require.True(t, sawAdd)
}
