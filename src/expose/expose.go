// Package expose implements the expose-allocation pass (spec.md §4.2): rewriting every VectorInit
// into an explicit, GC-aware allocation sequence before uniquify renames anything.
package expose

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"vecc/src/source"
	"vecc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// exposer holds the per-compilation state expose-allocation threads through the tree: a counter
// and a randomly generated name prefix, so introduced temporaries cannot collide with any user
// name before uniquify runs (spec.md §4.2).
type exposer struct {
	prefix string
	n      int
}

// ---------------------
// ----- Constants -----
// ---------------------

const wordSize = 8 // Element and header word size in bytes (spec.md §4.2).

// ---------------------
// ----- Functions -----
// ---------------------

// Expose rewrites every VectorInit in prog into an explicit allocation sequence, returning the
// desugared program. prog must already be type checked: expose preserves static-type annotations
// on every introduced node by construction.
func Expose(prog *source.Program) *source.Program {
	e := &exposer{prefix: freshPrefix()}
	body := e.exposeNode(prog.Body)
	out := &source.Program{Body: body}
	out.SetStaticType(prog.StaticType())
	return out
}

// freshPrefix returns a short random hex string long enough that a user-written identifier could
// not plausibly collide with it, matching spec.md §4.2's "randomly generated prefix" requirement.
func freshPrefix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failure is effectively unreachable in practice; fall back to a fixed
		// sigil that the frontend's grammar cannot itself produce (it never lexes '%').
		return "%alloc_"
	}
	return "%alloc_" + hex.EncodeToString(b[:]) + "_"
}

func (e *exposer) gensym() string {
	e.n++
	return fmt.Sprintf("%s%d", e.prefix, e.n)
}

// exposeNode recursively rewrites n, returning the desugared replacement. Every non-VectorInit
// shape is rebuilt with its children exposed, preserving its static-type annotation.
func (e *exposer) exposeNode(n source.Node) source.Node {
	switch v := n.(type) {
	case *source.Int, *source.Bool, *source.Void, *source.Var, *source.GlobalValue:
		return n
	case *source.Let:
		bindings := make([]source.Binding, len(v.Bindings))
		for i1, b := range v.Bindings {
			bindings[i1] = source.Binding{Name: b.Name, Init: e.exposeNode(b.Init)}
		}
		out := &source.Let{Bindings: bindings, Body: e.exposeNode(v.Body)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.If:
		out := &source.If{Cond: e.exposeNode(v.Cond), Then: e.exposeNode(v.Then), Else: e.exposeNode(v.Else)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.Apply:
		args := make([]source.Node, len(v.Args))
		for i1, a := range v.Args {
			args[i1] = e.exposeNode(a)
		}
		out := &source.Apply{Op: v.Op, Args: args}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorRef:
		out := &source.VectorRef{Vec: e.exposeNode(v.Vec), Index: v.Index}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorSet:
		out := &source.VectorSet{Vec: e.exposeNode(v.Vec), Index: v.Index, Val: e.exposeNode(v.Val)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorInit:
		return e.exposeVectorInit(v)
	default:
		// Allocate/Collect/GlobalValue never appear pre-expose; Lambda/Define are rejected by
		// typecheck before this pass ever runs.
		return n
	}
}

// exposeVectorInit implements spec.md §4.2 exactly: evaluate each initializer into a fresh
// temporary, conditionally collect, allocate the header-tagged vector, then install each
// temporary into its slot.
func (e *exposer) exposeVectorInit(v *source.VectorInit) source.Node {
	vecType := v.StaticType()
	n := len(v.Elems)
	bytes := wordSize * (n + 1)

	// Step 1: bind each (already exposed) initializer to a fresh temporary in the outer scope.
	tmpNames := make([]string, n)
	bindings := make([]source.Binding, n)
	for i1, elem := range v.Elems {
		name := e.gensym()
		tmpNames[i1] = name
		bindings[i1] = source.Binding{Name: name, Init: e.exposeNode(elem)}
	}

	// Step 2: collect-if-needed. (if (< (+ (global-value free_ptr) bytes) (global-value
	// fromspace_end)) (void) (collect bytes))
	freePtr := typedGlobal("free_ptr")
	fromspaceEnd := typedGlobal("fromspace_end")
	bytesLit := &source.Int{Value: int64(bytes)}
	bytesLit.SetStaticType(types.IntType)
	sum := &source.Apply{Op: source.OpAdd, Args: []source.Node{freePtr, bytesLit}}
	sum.SetStaticType(types.IntType)
	cmp := &source.Apply{Op: source.OpLt, Args: []source.Node{sum, fromspaceEnd}}
	cmp.SetStaticType(types.BoolType)
	voidThen := &source.Void{}
	voidThen.SetStaticType(types.VoidType)
	collect := &source.Collect{Bytes: bytes}
	collect.SetStaticType(types.VoidType)
	guard := &source.If{Cond: cmp, Then: voidThen, Else: collect}
	guard.SetStaticType(types.VoidType)
	guardBind := e.gensym()
	bindings = append(bindings, source.Binding{Name: guardBind, Init: guard})

	// Step 3: allocate, bound to a fresh variable holding the new vector.
	vecName := e.gensym()
	alloc := &source.Allocate{Len: n, Typ: vecType}
	alloc.SetStaticType(vecType)
	bindings = append(bindings, source.Binding{Name: vecName, Init: alloc})

	// Step 4: install each temporary into its slot, in order, each producing void.
	vecVar := typedVar(vecName, vecType)
	for i1, tmp := range tmpNames {
		elemType := vecType.ElemAt(i1)
		set := &source.VectorSet{Vec: vecVar, Index: i1, Val: typedVar(tmp, elemType)}
		set.SetStaticType(types.VoidType)
		bindings = append(bindings, source.Binding{Name: e.gensym(), Init: set})
	}

	body := typedVar(vecName, vecType)
	out := &source.Let{Bindings: bindings, Body: body}
	out.SetStaticType(vecType)
	return out
}

func typedGlobal(name string) *source.GlobalValue {
	g := &source.GlobalValue{Name: name}
	g.SetStaticType(types.IntType)
	return g
}

func typedVar(name string, t types.StaticType) *source.Var {
	v := &source.Var{Name: name}
	v.SetStaticType(t)
	return v
}
