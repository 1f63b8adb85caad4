// Package regalloc implements the allocate-locations pass (spec.md §4.7): saturation-driven graph
// coloring with move-bias, assigning a physical register or stack slot to every symbolic variable
// select-instruction left behind.
//
// regfile.go specializes the teacher's RegisterFile abstraction (backend/regfile in the reference
// repo this compiler's pipeline shape is grounded on) to the one concrete machine spec.md §6
// targets: x86-64's caller/callee-save convention, rather than the teacher's pluggable
// multi-architecture register file.
package regalloc

// ---------------------
// ----- Constants -----
// ---------------------

// CallerSave lists the caller-save integer registers (spec.md §6).
var CallerSave = []string{"rax", "rcx", "rdx", "rsi", "rdi", "r8", "r9", "r10", "r11"}

// CalleeSave lists the callee-save integer registers (spec.md §6).
var CalleeSave = []string{"rbx", "rbp", "rsp", "r12", "r13", "r14", "r15"}

// FreePool is the set of registers the allocator may assign to a source variable: caller-save
// minus %rax, which is reserved as patch scratch and the function return value, and minus %r11,
// the vector-op scratch register (spec.md §6).
var FreePool = []string{"rcx", "rdx", "rsi", "rdi", "r8", "r9", "r10"}

// Reserved names the registers never handed to the allocator: %r11 (scratch during vector ops),
// %r15 (rootstack base), %rax (patch scratch, return value) (spec.md §6).
const (
	ScratchReg    = "r11"
	RootstackReg  = "r15"
	ReturnReg     = "rax"
)

// isCallerSave reports whether name is one of the caller-save registers.
func isCallerSave(name string) bool {
	for _, r := range CallerSave {
		if r == name {
			return true
		}
	}
	return false
}
