// Package patch implements the patch-instruction pass (spec.md §4.9): instantiating the prologue
// and epilogue now that the final stack size is known, and rewriting any instruction that would
// violate x86-64's operand encoding constraints.
package patch

import "vecc/src/x86"

// ---------------------
// ----- Functions -----
// ---------------------

// Patch rewrites prog.Instrs in place: CalleeConvention placeholders become concrete
// push/mov/sub and add/pop/ret sequences, memory-memory operand pairs are split through %rax, and
// cmp instructions with an immediate second operand are rewritten through %rax (spec.md §4.9).
func Patch(prog *x86.Program) {
	var out []x86.Instr
	for _, instr := range prog.Instrs {
		out = append(out, patchInstr(instr, prog.StackSize)...)
	}
	prog.Instrs = out
}

func patchInstr(instr x86.Instr, stackSize int) []x86.Instr {
	switch v := instr.(type) {
	case *x86.CalleeConvention:
		if v.Epilogue {
			return epilogue(stackSize)
		}
		return prologue(stackSize)
	case *x86.Op2:
		return patchOp2(v)
	default:
		return []x86.Instr{instr}
	}
}

func prologue(stackSize int) []x86.Instr {
	out := []x86.Instr{
		&x86.Op1{Mnemonic: x86.PushMnemonic, Operand: x86.Reg{Name: "rbp"}},
		&x86.Op2{Mnemonic: x86.MovMnemonic, Src: x86.Reg{Name: "rsp"}, Dst: x86.Reg{Name: "rbp"}},
	}
	if stackSize > 0 {
		out = append(out, &x86.Op2{Mnemonic: x86.SubMnemonic, Src: x86.Int{Value: int64(stackSize)}, Dst: x86.Reg{Name: "rsp"}})
	}
	return out
}

func epilogue(stackSize int) []x86.Instr {
	var out []x86.Instr
	if stackSize > 0 {
		out = append(out, &x86.Op2{Mnemonic: x86.AddMnemonic, Src: x86.Int{Value: int64(stackSize)}, Dst: x86.Reg{Name: "rsp"}})
	}
	out = append(out,
		&x86.Op1{Mnemonic: x86.PopMnemonic, Operand: x86.Reg{Name: "rbp"}},
		&x86.Op0{Mnemonic: x86.RetMnemonic},
	)
	return out
}

// patchOp2 splits mem-mem operand pairs and rewrites a cmp whose AT&T-order second operand (the
// instruction's Dst field, spec.md §4.5's "a'") is an immediate — both disallowed encodings on
// x86-64 (spec.md §4.9).
func patchOp2(v *x86.Op2) []x86.Instr {
	if v.Mnemonic == x86.CmpMnemonic {
		if _, isImm := v.Dst.(x86.Int); isImm {
			return []x86.Instr{
				&x86.Op2{Mnemonic: x86.MovMnemonic, Src: v.Dst, Dst: x86.Reg{Name: "rax"}},
				&x86.Op2{Mnemonic: x86.CmpMnemonic, Src: v.Src, Dst: x86.Reg{Name: "rax"}},
			}
		}
	}
	if isDeref(v.Src) && isDeref(v.Dst) {
		return []x86.Instr{
			&x86.Op2{Mnemonic: x86.MovMnemonic, Src: v.Src, Dst: x86.Reg{Name: "rax"}},
			&x86.Op2{Mnemonic: v.Mnemonic, Src: x86.Reg{Name: "rax"}, Dst: v.Dst},
		}
	}
	return []x86.Instr{v}
}

func isDeref(op x86.Operand) bool {
	_, ok := op.(x86.Deref)
	return ok
}
