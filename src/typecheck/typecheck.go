// Package typecheck implements the type checker pass (spec.md §4.1): the first pass of the
// pipeline, walking the Source AST in a scoped environment mapping names to static types and
// annotating every node in place with its static_type property.
package typecheck

import (
	"fmt"

	"vecc/src/scope"
	"vecc/src/source"
	"vecc/src/types"
	"vecc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// typeFrame is the scope.Frame implementation the type checker plugs into scope.Env: one lexical
// scope's name -> types.StaticType bindings.
type typeFrame struct {
	vars map[string]types.StaticType
}

// ---------------------
// ----- Functions -----
// ---------------------

func newTypeFrame() scope.Frame {
	return &typeFrame{vars: make(map[string]types.StaticType)}
}

func (f *typeFrame) Contains(name string) bool {
	_, ok := f.vars[name]
	return ok
}

func (f *typeFrame) Get(name string) (interface{}, bool) {
	t, ok := f.vars[name]
	return t, ok
}

func (f *typeFrame) Add(name string, value interface{}) {
	f.vars[name] = value.(types.StaticType)
}

// Check type checks prog, annotating every node in place with its static type (spec.md §4.1). The
// returned error is a *util.CompileError of kind ErrType on the first type mismatch, or
// ErrNotImplemented if the program uses lambda/define (spec.md §9).
func Check(prog *source.Program) (err error) {
	defer util.Recover(&err)
	env := scope.New(newTypeFrame)
	t := check(prog.Body, env)
	prog.SetStaticType(t)
	return nil
}

// check type checks n in environment env and returns its static type, annotating n in place.
// Failures panic with a *util.CompileError (caught by Check's util.Recover), matching the "single
// TypeError kind, fatal for the run" failure mode of spec.md §4.1.
func check(n source.Node, env *scope.Env) types.StaticType {
	switch v := n.(type) {
	case *source.Int:
		v.SetStaticType(types.IntType)
	case *source.Bool:
		v.SetStaticType(types.BoolType)
	case *source.Void:
		v.SetStaticType(types.VoidType)
	case *source.Var:
		val, ok := env.Get(v.Name)
		if !ok {
			panic(util.NewTypeError("unbound variable %q", v.Name))
		}
		v.SetStaticType(val.(types.StaticType))
	case *source.Let:
		checkLet(v, env)
	case *source.If:
		checkIf(v, env)
	case *source.Apply:
		checkApply(v, env)
	case *source.VectorInit:
		checkVectorInit(v, env)
	case *source.VectorRef:
		checkVectorRef(v, env)
	case *source.VectorSet:
		checkVectorSet(v, env)
	case *source.Lambda, *source.Define:
		panic(util.NewNotImplemented(fmt.Sprintf("%T", v)))
	default:
		panic(util.NewTypeError("unrecognized node %T", v))
	}
	return n.StaticType()
}

// checkLet types each initializer in the enclosing scope, then types the body in a new scope
// extended with all (name, initializer-type) pairs — the bindings are parallel (spec.md §3, §4.1).
func checkLet(v *source.Let, env *scope.Env) {
	initTypes := make([]types.StaticType, len(v.Bindings))
	for i1, b := range v.Bindings {
		initTypes[i1] = check(b.Init, env)
	}
	env.Scoped(func() {
		for i1, b := range v.Bindings {
			env.Add(b.Name, initTypes[i1])
		}
		v.SetStaticType(check(v.Body, env))
	})
}

// checkIf requires a bool condition and identical branch types (spec.md §4.1).
func checkIf(v *source.If, env *scope.Env) {
	ct := check(v.Cond, env)
	if ct.Kind != types.Bool {
		panic(util.NewTypeError("if condition must be bool, got %s", ct))
	}
	tt := check(v.Then, env)
	et := check(v.Else, env)
	if !tt.Equal(et) {
		panic(util.NewTypeError("if branches must have identical type, got %s and %s", tt, et))
	}
	v.SetStaticType(tt)
}

// checkApply dispatches to the rule for v.Op's primitive category (spec.md §4.1).
func checkApply(v *source.Apply, env *scope.Env) {
	switch {
	case source.IsRuntimeOp(v.Op):
		checkRuntimeOp(v, env)
	case source.IsArithOp(v.Op):
		checkArithOp(v, env)
	case source.IsCompareOp(v.Op):
		checkCompareOp(v, env)
	case source.IsLogicalOp(v.Op):
		checkLogicalOp(v, env)
	default:
		panic(util.NewTypeError("unrecognized primitive %q", v.Op))
	}
}

func checkRuntimeOp(v *source.Apply, env *scope.Env) {
	if len(v.Args) != 0 {
		panic(util.NewTypeError("%s takes no arguments, got %d", v.Op, len(v.Args)))
	}
	if v.Op == source.OpReadBool {
		v.SetStaticType(types.BoolType)
	} else {
		v.SetStaticType(types.IntType)
	}
}

func checkArithOp(v *source.Apply, env *scope.Env) {
	wantArgs := 2
	if v.Op == source.OpNeg {
		wantArgs = 1
	}
	if len(v.Args) != wantArgs {
		panic(util.NewTypeError("%s expects %d argument(s), got %d", v.Op, wantArgs, len(v.Args)))
	}
	for _, a := range v.Args {
		if t := check(a, env); t.Kind != types.Int {
			panic(util.NewTypeError("%s operands must be int, got %s", v.Op, t))
		}
	}
	v.SetStaticType(types.IntType)
}

func checkCompareOp(v *source.Apply, env *scope.Env) {
	if len(v.Args) != 2 {
		panic(util.NewTypeError("%s expects 2 arguments, got %d", v.Op, len(v.Args)))
	}
	lt := check(v.Args[0], env)
	rt := check(v.Args[1], env)
	if v.Op == source.OpEq {
		// eq? accepts any matching pair of types, including vector types (pointer equality,
		// spec.md §9 Open Question, resolved in SPEC_FULL.md §5).
		if !lt.Equal(rt) {
			panic(util.NewTypeError("eq? operands must have identical type, got %s and %s", lt, rt))
		}
	} else {
		if lt.Kind != types.Int || rt.Kind != types.Int {
			panic(util.NewTypeError("%s operands must be int, got %s and %s", v.Op, lt, rt))
		}
	}
	v.SetStaticType(types.BoolType)
}

func checkLogicalOp(v *source.Apply, env *scope.Env) {
	wantArgs := 2
	if v.Op == source.OpNot {
		wantArgs = 1
	}
	if len(v.Args) != wantArgs {
		panic(util.NewTypeError("%s expects %d argument(s), got %d", v.Op, wantArgs, len(v.Args)))
	}
	for _, a := range v.Args {
		if t := check(a, env); t.Kind != types.Bool {
			panic(util.NewTypeError("%s operands must be bool, got %s", v.Op, t))
		}
	}
	v.SetStaticType(types.BoolType)
}

func checkVectorInit(v *source.VectorInit, env *scope.Env) {
	elemTypes := make([]types.StaticType, len(v.Elems))
	for i1, e := range v.Elems {
		elemTypes[i1] = check(e, env)
	}
	v.SetStaticType(types.NewVector(elemTypes...))
}

func checkVectorRef(v *source.VectorRef, env *scope.Env) {
	vt := check(v.Vec, env)
	if !vt.IsVector() {
		panic(util.NewTypeError("vector-ref target must be a vector, got %s", vt))
	}
	if v.Index < 0 || v.Index >= vt.Len() {
		panic(util.NewTypeError("vector-ref index %d out of range for %s", v.Index, vt))
	}
	v.SetStaticType(vt.ElemAt(v.Index))
}

func checkVectorSet(v *source.VectorSet, env *scope.Env) {
	vt := check(v.Vec, env)
	if !vt.IsVector() {
		panic(util.NewTypeError("vector-set! target must be a vector, got %s", vt))
	}
	if v.Index < 0 || v.Index >= vt.Len() {
		panic(util.NewTypeError("vector-set! index %d out of range for %s", v.Index, vt))
	}
	want := vt.ElemAt(v.Index)
	got := check(v.Val, env)
	if !want.Equal(got) {
		panic(util.NewTypeError("vector-set! value must be %s, got %s", want, got))
	}
	v.SetStaticType(types.VoidType)
}
