// Package regalloc implements the allocate-locations pass (spec.md §4.7): see regfile.go for the
// x86-64 register conventions it targets.
package regalloc

import (
	"sort"

	"vecc/src/x86"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// location is the concrete place the allocator has chosen for one source variable: a register, or
// a stack slot at a fixed offset from %rbp.
type location struct {
	isReg  bool
	reg    string
	offset int
}

func (l location) operand() x86.Operand {
	if l.isReg {
		return x86.Reg{Name: l.reg}
	}
	return x86.Deref{Reg: "rbp", Offset: l.offset}
}

// allocator holds the interference graph, move-relation graph, per-variable saturation sets and
// the coloring result threaded through one allocate-locations run.
type allocator struct {
	interference map[string]map[string]bool
	moveGraph    map[string]map[string]bool
	saturation   map[string]map[string]bool
	assigned     map[string]location
	noMoveBias   bool
	spillCount   int
}

// ---------------------
// ----- Functions -----
// ---------------------

// Allocate assigns every symbolic variable in prog a register or stack slot, rewrites every
// operand in place, lowers ReturnFromFunction, drops no-op moves, and records the final
// (16-byte-rounded) stack size on prog (spec.md §4.7).
func Allocate(prog *x86.Program, live []map[string]bool, noMoveBias bool) {
	a := &allocator{
		interference: make(map[string]map[string]bool),
		moveGraph:    make(map[string]map[string]bool),
		saturation:   make(map[string]map[string]bool),
		assigned:     make(map[string]location),
		noMoveBias:   noMoveBias,
	}
	for _, v := range prog.Vars {
		a.ensureNode(v.Name)
	}
	a.walk(prog.Instrs, live)
	a.color()
	prog.Instrs = a.rewriteList(prog.Instrs)
	prog.StackSize = roundUp16(a.spillCount * 8)
}

func (a *allocator) ensureNode(name string) {
	if _, ok := a.interference[name]; ok {
		return
	}
	a.interference[name] = make(map[string]bool)
	a.moveGraph[name] = make(map[string]bool)
	a.saturation[name] = make(map[string]bool)
}

func (a *allocator) addEdge(x, y string) {
	a.ensureNode(x)
	a.ensureNode(y)
	a.interference[x][y] = true
	a.interference[y][x] = true
}

func (a *allocator) recordMove(src, dst x86.Operand) {
	sv, sok := varName(src)
	dv, dok := varName(dst)
	if !sok || !dok {
		return
	}
	a.ensureNode(sv)
	a.ensureNode(dv)
	a.moveGraph[sv][dv] = true
	a.moveGraph[dv][sv] = true
}

// addInterferenceForDst adds dst—w for every w live (other than dst itself): the rule shared by
// add/sub/neg/xor and (since its src is never a variable) movzb (spec.md §4.7).
func (a *allocator) addInterferenceForDst(dst x86.Operand, live map[string]bool) {
	dname, ok := varName(dst)
	if !ok {
		return
	}
	a.ensureNode(dname)
	for w := range live {
		if w == dname {
			continue
		}
		a.addEdge(dname, w)
	}
}

// addInterferenceForMov adds dst—w for every w live except dst and src (spec.md §4.7, the mov
// rule, which additionally excludes the move's own source).
func (a *allocator) addInterferenceForMov(src, dst x86.Operand, live map[string]bool) {
	dname, ok := varName(dst)
	if !ok {
		return
	}
	sname, _ := varName(src)
	a.ensureNode(dname)
	for w := range live {
		if w == dname || w == sname {
			continue
		}
		a.addEdge(dname, w)
	}
}

func (a *allocator) saturateAllWith(live map[string]bool, regs []string) {
	for w := range live {
		a.ensureNode(w)
		for _, r := range regs {
			a.saturation[w][r] = true
		}
	}
}

// walk traverses instrs alongside their live-after sets, building the interference and
// move-relation graphs (spec.md §4.7). Nested TmpIf branches recurse using the live-after lists
// uncover-live stored on them.
func (a *allocator) walk(instrs []x86.Instr, live []map[string]bool) {
	for i1, instr := range instrs {
		l := live[i1]
		switch v := instr.(type) {
		case *x86.TmpIf:
			a.walk(v.Then, v.LiveAfterThen)
			a.walk(v.Else, v.LiveAfterElse)
		case *x86.Op2:
			switch v.Mnemonic {
			case x86.MovMnemonic:
				a.addInterferenceForMov(v.Src, v.Dst, l)
				a.recordMove(v.Src, v.Dst)
			case x86.AddMnemonic, x86.SubMnemonic, x86.XorMnemonic:
				a.addInterferenceForDst(v.Dst, l)
			}
		case *x86.Op1:
			switch v.Mnemonic {
			case x86.CallMnemonic:
				a.saturateAllWith(l, CallerSave)
			case x86.NegMnemonic:
				a.addInterferenceForDst(v.Operand, l)
			}
		case *x86.Movzb:
			a.addInterferenceForDst(v.Dst, l)
		case *x86.ReturnFromFunction:
			a.saturateAllWith(l, []string{ReturnReg})
		}
	}
}

// color repeatedly picks the unassigned variable with the largest saturation set, preferring a
// move-related register when move-bias is enabled, falling back to any free register, then to a
// spill slot (spec.md §4.7 steps 1-5).
func (a *allocator) color() {
	unassigned := make(map[string]bool, len(a.interference))
	for name := range a.interference {
		unassigned[name] = true
	}
	for len(unassigned) > 0 {
		name := a.pickMaxSaturation(unassigned)
		loc := a.chooseLocation(name)
		a.assigned[name] = loc
		delete(unassigned, name)
		if loc.isReg {
			neighbors := make([]string, 0, len(a.interference[name]))
			for n := range a.interference[name] {
				neighbors = append(neighbors, n)
			}
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if unassigned[n] {
					a.saturation[n][loc.reg] = true
				}
			}
		}
	}
}

func (a *allocator) pickMaxSaturation(unassigned map[string]bool) string {
	names := make([]string, 0, len(unassigned))
	for n := range unassigned {
		names = append(names, n)
	}
	sort.Strings(names)
	best := names[0]
	bestSize := len(a.saturation[best])
	for _, n := range names[1:] {
		if len(a.saturation[n]) > bestSize {
			best = n
			bestSize = len(a.saturation[n])
		}
	}
	return best
}

func (a *allocator) chooseLocation(name string) location {
	sat := a.saturation[name]
	if !a.noMoveBias {
		neighbors := make([]string, 0, len(a.moveGraph[name]))
		for n := range a.moveGraph[name] {
			neighbors = append(neighbors, n)
		}
		sort.Strings(neighbors)
		for _, n := range neighbors {
			if loc, ok := a.assigned[n]; ok && loc.isReg && !sat[loc.reg] {
				return loc
			}
		}
	}
	for _, r := range FreePool {
		if !sat[r] {
			return location{isReg: true, reg: r}
		}
	}
	a.spillCount++
	return location{offset: -8 * a.spillCount}
}

// rewriteList replaces every Var operand in instrs with its assigned location, lowers
// ReturnFromFunction and drops no-op moves (spec.md §4.7 post-coloring steps a-c).
func (a *allocator) rewriteList(instrs []x86.Instr) []x86.Instr {
	var out []x86.Instr
	for _, instr := range instrs {
		out = append(out, a.rewriteInstr(instr)...)
	}
	return out
}

func (a *allocator) rewriteInstr(instr x86.Instr) []x86.Instr {
	switch v := instr.(type) {
	case *x86.TmpIf:
		v.Then = a.rewriteList(v.Then)
		v.Else = a.rewriteList(v.Else)
		return []x86.Instr{v}
	case *x86.Op2:
		v.Src = a.resolve(v.Src)
		v.Dst = a.resolve(v.Dst)
		if v.Mnemonic == x86.MovMnemonic && operandsEqual(v.Src, v.Dst) {
			return nil
		}
		return []x86.Instr{v}
	case *x86.Op1:
		v.Operand = a.resolve(v.Operand)
		return []x86.Instr{v}
	case *x86.Movzb:
		v.Dst = a.resolve(v.Dst)
		return []x86.Instr{v}
	case *x86.ReturnFromFunction:
		return a.lowerReturn(v)
	default:
		return []x86.Instr{instr}
	}
}

// lowerReturn rewrites the program return into its print_ptr call sequence (spec.md §4.5, §4.7).
// A function return (never produced by this language, since lambda/define are rejected before
// flatten) would instead move its argument into %rax; the branch is kept for the extension point
// spec.md §9 names.
func (a *allocator) lowerReturn(v *x86.ReturnFromFunction) []x86.Instr {
	arg := a.resolve(v.Arg)
	if v.Program {
		return []x86.Instr{
			&x86.Op2{Mnemonic: x86.MovMnemonic, Src: arg, Dst: x86.Reg{Name: "rdi"}},
			&x86.Op1{Mnemonic: x86.CallMnemonic, Operand: x86.LabelRef{Name: "print_ptr"}},
			&x86.Op2{Mnemonic: x86.MovMnemonic, Src: x86.Int{Value: 0}, Dst: x86.Reg{Name: "rax"}},
		}
	}
	return []x86.Instr{&x86.Op2{Mnemonic: x86.MovMnemonic, Src: arg, Dst: x86.Reg{Name: "rax"}}}
}

func (a *allocator) resolve(op x86.Operand) x86.Operand {
	if v, ok := op.(x86.Var); ok {
		return a.assigned[v.Name].operand()
	}
	return op
}

func varName(op x86.Operand) (string, bool) {
	v, ok := op.(x86.Var)
	return v.Name, ok
}

func operandsEqual(x, y x86.Operand) bool {
	switch xv := x.(type) {
	case x86.Reg:
		yv, ok := y.(x86.Reg)
		return ok && xv.Name == yv.Name
	case x86.Deref:
		yv, ok := y.(x86.Deref)
		return ok && xv.Reg == yv.Reg && xv.Offset == yv.Offset
	}
	return false
}

func roundUp16(n int) int {
	if n%16 == 0 {
		return n
	}
	return n + (16 - n%16)
}
