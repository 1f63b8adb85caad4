// Package emit implements the emit-assembly pass (spec.md §4.10): walking the fully patched x86
// AST and writing AT&T syntax text through the teacher's channel-backed util.Writer.
package emit

import (
	"fmt"

	"vecc/src/util"
	"vecc/src/x86"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Emit writes prog's instruction stream to w, including the section header, the global main
// declaration and alignment pragma, plus a terminating trailer pragma on the Darwin (MAC) target
// only (spec.md §4.10).
func Emit(w *util.Writer, prog *x86.Program, opt util.Options) {
	w.Directive("text")
	mainName := mangle("main", opt.TargetOS)
	w.Directive("globl %s", mainName)
	w.Directive("align 4")
	w.Label(mainName)
	for _, instr := range prog.Instrs {
		emitInstr(w, instr, opt.TargetOS)
	}
	if opt.TargetOS == util.MAC {
		w.Directive("subsections_via_symbols")
	}
}

func emitInstr(w *util.Writer, instr x86.Instr, os_ int) {
	switch v := instr.(type) {
	case *x86.Op2:
		w.Ins2(v.Mnemonic+"q", operand(v.Src, os_), operand(v.Dst, os_))
	case *x86.Op1:
		w.Ins1(v.Mnemonic+q1Suffix(v.Mnemonic), operand(v.Operand, os_))
	case *x86.Op0:
		w.Ins0(v.Mnemonic + "q")
	case *x86.Movzb:
		w.Ins2("movzbq", operand(v.Src, os_), operand(v.Dst, os_))
	case *x86.SetCC:
		w.Ins1("set"+v.CC, operand(v.Dst, os_))
	case *x86.Jmp:
		w.Ins1("jmp", labelOperand(v.Label, os_))
	case *x86.JmpIf:
		w.Ins1("j"+v.CC, labelOperand(v.Label, os_))
	case *x86.Label:
		w.Label(labelOperand(v.Name, os_))
	case *x86.CalleeConvention, *x86.ReturnFromFunction, *x86.TmpIf:
		panic(fmt.Sprintf("emit: %T reached emit-assembly unlowered (compiler bug)", v))
	default:
		panic(fmt.Sprintf("emit: unhandled instruction %T", v))
	}
}

// q1Suffix returns the q suffix for one-operand instructions in the 64-bit family (spec.md
// §4.10); call/push/pop take it too, matching the classic AT&T as(1) mnemonics.
func q1Suffix(mnemonic string) string {
	switch mnemonic {
	case x86.NegMnemonic, x86.CallMnemonic, x86.PushMnemonic, x86.PopMnemonic:
		return "q"
	}
	return ""
}

func operand(op x86.Operand, os_ int) string {
	switch v := op.(type) {
	case x86.Int:
		return fmt.Sprintf("$%d", v.Value)
	case x86.Reg:
		return "%" + v.Name
	case x86.ByteReg:
		return "%" + v.Name
	case x86.Deref:
		if v.Offset == 0 {
			return fmt.Sprintf("(%%%s)", v.Reg)
		}
		return fmt.Sprintf("%d(%%%s)", v.Offset, v.Reg)
	case x86.LabelRef:
		return labelOperand(v.Name, os_)
	case x86.GlobalValue:
		return fmt.Sprintf("%s(%%rip)", v.Name)
	default:
		panic(fmt.Sprintf("emit: unhandled operand %T", v))
	}
}

// labelOperand applies Darwin-style mangling to external labels and strips the internal marker
// from compiler-synthesized labels, which are never mangled (spec.md §4.8, §4.10).
func labelOperand(name string, os_ int) string {
	if util.IsInternalLabel(name) {
		return util.StripInternalPrefix(name)
	}
	return mangle(name, os_)
}

func mangle(name string, os_ int) string {
	if os_ == util.MAC {
		return "_" + name
	}
	return name
}
