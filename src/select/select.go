// Package select implements the select-instruction pass (spec.md §4.5): lowering the three-address
// ir.Program into the abstract x86 AST, one IR statement at a time, per the lowering schedule.
package selectpass

import (
	"fmt"

	"vecc/src/ir"
	"vecc/src/types"
	"vecc/src/x86"
)

// ---------------------
// ----- Constants -----
// ---------------------

const wordSize = 8

// ---------------------
// ----- Functions -----
// ---------------------

// Select lowers prog into an abstract x86.Program: prologue, the lowered statement stream with the
// trailing Return tagged as the program return, epilogue.
func Select(prog *ir.Program) *x86.Program {
	var instrs []x86.Instr
	instrs = append(instrs, &x86.CalleeConvention{})
	instrs = append(instrs, selectStmts(prog.Stmts, true)...)
	instrs = append(instrs, &x86.CalleeConvention{Epilogue: true})

	vars := make([]x86.VarDecl, len(prog.Vars))
	for i1, v := range prog.Vars {
		vars[i1] = x86.VarDecl{Name: v.Name}
	}
	return &x86.Program{Vars: vars, Instrs: instrs}
}

// selectStmts lowers a statement list. programReturn is true only for the outermost statement
// list's trailing Return, which is lowered as the program's print_ptr epilogue rather than an
// ordinary function return (spec.md §4.5).
func selectStmts(stmts []ir.Stmt, programReturn bool) []x86.Instr {
	var out []x86.Instr
	for _, s := range stmts {
		out = append(out, selectStmt(s, programReturn)...)
	}
	return out
}

func selectStmt(s ir.Stmt, programReturn bool) []x86.Instr {
	switch v := s.(type) {
	case ir.Assign:
		return selectAssign(v)
	case ir.Return:
		return []x86.Instr{&x86.ReturnFromFunction{Arg: toOperand(v.Arg), Program: programReturn}}
	case ir.CollectStmt:
		return selectCollect(v)
	case ir.If:
		return selectIf(v)
	default:
		panic(fmt.Sprintf("select: unexpected statement %T", v))
	}
}

func selectAssign(a ir.Assign) []x86.Instr {
	dst := x86.Var{Name: a.Name}
	switch rhs := a.Rhs.(type) {
	case ir.AtomExpr:
		return []x86.Instr{movInstr(toOperand(rhs.Arg), dst)}
	case ir.GlobalValueExpr:
		return []x86.Instr{movInstr(x86.GlobalValue{Name: rhs.Name}, dst)}
	case ir.ApplyExpr:
		return selectApply(dst, rhs)
	case ir.CmpExpr:
		return selectCmp(dst, rhs)
	case ir.VectorRefExpr:
		return []x86.Instr{
			movInstr(toOperand(rhs.Vec), x86.Reg{Name: "r11"}),
			movInstr(x86.Deref{Reg: "r11", Offset: wordSize * (rhs.Index + 1)}, dst),
		}
	case ir.VectorSetExpr:
		return []x86.Instr{
			movInstr(toOperand(rhs.Vec), x86.Reg{Name: "r11"}),
			movInstr(toOperand(rhs.Val), x86.Deref{Reg: "r11", Offset: wordSize * (rhs.Index + 1)}),
			movInstr(x86.Int{Value: 0}, dst),
		}
	case ir.AllocateExpr:
		return selectAllocate(dst, rhs)
	default:
		panic(fmt.Sprintf("select: unexpected rhs %T", rhs))
	}
}

// selectApply lowers +, - (unary negate), not, and the zero-arg runtime builtins.
func selectApply(dst x86.Operand, a ir.ApplyExpr) []x86.Instr {
	switch a.Op {
	case "read", "read_int", "read_bool":
		fn := "read_int"
		if a.Op == "read_bool" {
			fn = "read_bool"
		}
		return []x86.Instr{
			&x86.Op1{Mnemonic: x86.CallMnemonic, Operand: x86.LabelRef{Name: fn}},
			movInstr(x86.Reg{Name: "rax"}, dst),
		}
	case "-":
		return []x86.Instr{
			movInstr(toOperand(a.Args[0]), dst),
			&x86.Op1{Mnemonic: x86.NegMnemonic, Operand: dst},
		}
	case "+":
		return []x86.Instr{
			movInstr(toOperand(a.Args[0]), dst),
			&x86.Op2{Mnemonic: x86.AddMnemonic, Src: toOperand(a.Args[1]), Dst: dst},
		}
	case "not":
		return []x86.Instr{
			movInstr(toOperand(a.Args[0]), dst),
			&x86.Op2{Mnemonic: x86.XorMnemonic, Src: x86.Int{Value: 1}, Dst: dst},
		}
	default:
		panic("select: unrecognized primitive " + a.Op)
	}
}

// selectCmp lowers a comparison bound to a variable: cmp with intentionally flipped operand order
// (spec.md §4.5), then set<cc> %al, then movzb %al, v.
func selectCmp(dst x86.Operand, c ir.CmpExpr) []x86.Instr {
	return []x86.Instr{
		&x86.Op2{Mnemonic: x86.CmpMnemonic, Src: toOperand(c.Right), Dst: toOperand(c.Left)},
		&x86.SetCC{CC: x86.CCFromOp(c.Op), Dst: x86.ByteReg{Name: "al"}},
		&x86.Movzb{Src: x86.ByteReg{Name: "al"}, Dst: dst},
	}
}

func selectCollect(c ir.CollectStmt) []x86.Instr {
	return []x86.Instr{
		&x86.Op1{Mnemonic: x86.PushMnemonic, Operand: x86.Reg{Name: "rdi"}},
		&x86.Op1{Mnemonic: x86.PushMnemonic, Operand: x86.Reg{Name: "rsi"}},
		movInstr(x86.Reg{Name: "r15"}, x86.Reg{Name: "rdi"}),
		movInstr(x86.Int{Value: int64(c.Bytes)}, x86.Reg{Name: "rsi"}),
		&x86.Op1{Mnemonic: x86.CallMnemonic, Operand: x86.LabelRef{Name: "collect"}},
		&x86.Op1{Mnemonic: x86.PopMnemonic, Operand: x86.Reg{Name: "rsi"}},
		&x86.Op1{Mnemonic: x86.PopMnemonic, Operand: x86.Reg{Name: "rdi"}},
	}
}

// selectAllocate lowers a fresh-vector allocation, computing the header tag: bit 0 set (not yet
// forwarded), bits 1..6 the length, bits 7..(7+n-1) the pointer mask (spec.md §4.5, §6).
func selectAllocate(dst x86.Operand, a ir.AllocateExpr) []x86.Instr {
	tag := headerTag(a.Len, a.Typ)
	return []x86.Instr{
		movInstr(x86.GlobalValue{Name: "free_ptr"}, dst),
		&x86.Op2{Mnemonic: x86.AddMnemonic, Src: x86.Int{Value: int64(wordSize * (a.Len + 1))}, Dst: x86.GlobalValue{Name: "free_ptr"}},
		movInstr(dst, x86.Reg{Name: "r11"}),
		movInstr(x86.Int{Value: int64(tag)}, x86.Deref{Reg: "r11", Offset: 0}),
	}
}

func headerTag(n int, t types.StaticType) uint64 {
	if n > 63 {
		panic("select: vector length exceeds header tag field width")
	}
	tag := uint64(1) // forwarding bit
	tag |= uint64(n) << 1
	tag |= t.PointerMask() << 7
	return tag
}

// selectIf lowers the IR If's comparison directly into a flag-setting cmp (no set<cc>/movzb: the
// branch consumes the flags immediately), wrapping both lowered branches in a TmpIf that carries
// the condition code for lower-conditionals (spec.md §4.5, Glossary: TmpIf).
func selectIf(v ir.If) []x86.Instr {
	cmp := &x86.Op2{Mnemonic: x86.CmpMnemonic, Src: toOperand(v.Right), Dst: toOperand(v.Left)}
	tmpIf := &x86.TmpIf{
		CC:   x86.CCFromOp(v.Op),
		Then: selectStmts(v.Then, false),
		Else: selectStmts(v.Else, false),
	}
	return []x86.Instr{cmp, tmpIf}
}

func movInstr(src, dst x86.Operand) x86.Instr {
	return &x86.Op2{Mnemonic: x86.MovMnemonic, Src: src, Dst: dst}
}

// toOperand converts a flattened ir.Arg into its x86 operand: bool/void literals collapse to their
// integer encoding (#t -> 1, #f -> 0, void -> 0), matching spec.md §4.5's literal-assign rule.
func toOperand(a ir.Arg) x86.Operand {
	switch v := a.(type) {
	case ir.IntArg:
		return x86.Int{Value: v.Value}
	case ir.BoolArg:
		if v.Value {
			return x86.Int{Value: 1}
		}
		return x86.Int{Value: 0}
	case ir.VoidArg:
		return x86.Int{Value: 0}
	case ir.VarArg:
		return x86.Var{Name: v.Name}
	case ir.GlobalArg:
		return x86.GlobalValue{Name: v.Name}
	default:
		panic(fmt.Sprintf("select: unexpected arg %T", v))
	}
}
