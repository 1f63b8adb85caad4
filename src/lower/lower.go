// Package lower implements the lower-conditionals pass (spec.md §4.8): rewriting every abstract
// TmpIf into concrete labeled jumps, using the channel-backed label generator the teacher's
// backend relies on for thread-safe label minting (util.ListenLabel/NewLabel), even though this
// pass itself runs synchronously (spec.md §5).
package lower

import (
	"vecc/src/util"
	"vecc/src/x86"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Lower rewrites every TmpIf in prog.Instrs into the jmp_if<cc>/label sequence of spec.md §4.8.
// Callers must have a label listener goroutine running (util.ListenLabel) before calling Lower.
func Lower(prog *x86.Program) {
	prog.Instrs = lowerList(prog.Instrs)
}

func lowerList(instrs []x86.Instr) []x86.Instr {
	var out []x86.Instr
	for _, instr := range instrs {
		if tmp, ok := instr.(*x86.TmpIf); ok {
			out = append(out, lowerTmpIf(tmp)...)
			continue
		}
		out = append(out, instr)
	}
	return out
}

// lowerTmpIf emits:
//
//	jmp_if<cc>  L_true
//	L_false:    ⟨lowered else⟩
//	            jmp L_sink
//	L_true:     ⟨lowered then⟩
//	L_sink:
func lowerTmpIf(tmp *x86.TmpIf) []x86.Instr {
	trueLabel := util.NewLabel(util.LabelIfTrue)
	falseLabel := util.NewLabel(util.LabelIfFalse)
	sinkLabel := util.NewLabel(util.LabelIfSink)

	var out []x86.Instr
	out = append(out, &x86.JmpIf{CC: tmp.CC, Label: trueLabel})
	out = append(out, &x86.Label{Name: falseLabel})
	out = append(out, lowerList(tmp.Else)...)
	out = append(out, &x86.Jmp{Label: sinkLabel})
	out = append(out, &x86.Label{Name: trueLabel})
	out = append(out, lowerList(tmp.Then)...)
	out = append(out, &x86.Label{Name: sinkLabel})
	return out
}
