// Package uniquify implements the alpha-renaming pass (spec.md §4.3): making every bound name
// globally unique by walking the AST in a scoped environment that carries a counter per original
// name. This mirrors the original source's _UniquifyScopedEnvNode exactly
// (original_source/compiler/compiler.py): a binding with original name x in the k-th lexical site
// becomes x_k, where k comes from a counter table shared for the whole compilation, not reset per
// scope.
package uniquify

import (
	"fmt"

	"vecc/src/scope"
	"vecc/src/source"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// renameFrame is the scope.Frame the uniquify pass plugs into scope.Env: one lexical scope's
// original-name -> renamed-name bindings, backed by a counter table shared across the whole
// compilation (scope.Env itself is rebuilt per pass invocation, but the counters outlive any one
// frame).
type renameFrame struct {
	counts map[string]int // Shared across every frame of one Uniquify call.
	local  map[string]string
}

// ---------------------
// ----- Functions -----
// ---------------------

// Uniquify alpha-renames every binding in prog, returning the renamed program. Free variables
// (names with no enclosing binding) are a program error the type checker already caught
// (spec.md §4.3); Uniquify panics if it encounters one, since that indicates a bug earlier in the
// pipeline, not a user error.
func Uniquify(prog *source.Program) *source.Program {
	counts := make(map[string]int)
	env := scope.New(func() scope.Frame {
		return &renameFrame{counts: counts, local: make(map[string]string)}
	})
	body := rename(prog.Body, env)
	out := &source.Program{Body: body}
	out.SetStaticType(prog.StaticType())
	return out
}

func (f *renameFrame) Contains(name string) bool {
	_, ok := f.local[name]
	return ok
}

func (f *renameFrame) Get(name string) (interface{}, bool) {
	v, ok := f.local[name]
	return v, ok
}

// Add mints x_k for original name x, where k is the next count for x shared across the whole
// compilation (spec.md §4.3).
func (f *renameFrame) Add(name string, _ interface{}) {
	k := f.counts[name]
	f.local[name] = fmt.Sprintf("%s_%d", name, k)
	f.counts[name] = k + 1
}

// rename walks n, renaming every Var reference to the nearest enclosing binding's unique name and
// minting fresh unique names for every Let binding.
func rename(n source.Node, env *scope.Env) source.Node {
	switch v := n.(type) {
	case *source.Int, *source.Bool, *source.Void:
		return n
	case *source.Var:
		renamed, ok := env.Get(v.Name)
		if !ok {
			panic(fmt.Sprintf("uniquify: free variable %q (type check should have caught this)", v.Name))
		}
		out := &source.Var{Name: renamed.(string)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.GlobalValue:
		return n
	case *source.Let:
		return renameLet(v, env)
	case *source.If:
		out := &source.If{Cond: rename(v.Cond, env), Then: rename(v.Then, env), Else: rename(v.Else, env)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.Apply:
		args := make([]source.Node, len(v.Args))
		for i1, a := range v.Args {
			args[i1] = rename(a, env)
		}
		out := &source.Apply{Op: v.Op, Args: args}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorInit:
		elems := make([]source.Node, len(v.Elems))
		for i1, e := range v.Elems {
			elems[i1] = rename(e, env)
		}
		out := &source.VectorInit{Elems: elems}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorRef:
		out := &source.VectorRef{Vec: rename(v.Vec, env), Index: v.Index}
		out.SetStaticType(v.StaticType())
		return out
	case *source.VectorSet:
		out := &source.VectorSet{Vec: rename(v.Vec, env), Index: v.Index, Val: rename(v.Val, env)}
		out.SetStaticType(v.StaticType())
		return out
	case *source.Allocate:
		return n
	case *source.Collect:
		return n
	default:
		panic(fmt.Sprintf("uniquify: unexpected node %T", v))
	}
}

// renameLet renames initializers in the enclosing scope (they run before any of the let's own
// names exist), then binds each name to a fresh unique name in a new scope before renaming the
// body — matching Let's parallel-binding semantics (spec.md §3).
func renameLet(v *source.Let, env *scope.Env) source.Node {
	initVals := make([]source.Node, len(v.Bindings))
	for i1, b := range v.Bindings {
		initVals[i1] = rename(b.Init, env)
	}
	var out *source.Let
	env.Scoped(func() {
		bindings := make([]source.Binding, len(v.Bindings))
		for i1, b := range v.Bindings {
			env.Add(b.Name, nil)
			renamed, _ := env.Get(b.Name)
			bindings[i1] = source.Binding{Name: renamed.(string), Init: initVals[i1]}
		}
		out = &source.Let{Bindings: bindings, Body: rename(v.Body, env)}
	})
	out.SetStaticType(v.StaticType())
	return out
}
