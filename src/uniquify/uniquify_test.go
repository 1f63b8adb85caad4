package uniquify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/frontend"
	"vecc/src/source"
	"vecc/src/typecheck"
	"vecc/src/uniquify"
)

// collectBindingNames walks n and appends every Let binding name it finds, in tree order.
func collectBindingNames(n source.Node, out *[]string) {
	switch v := n.(type) {
	case *source.Let:
		for _, b := range v.Bindings {
			*out = append(*out, b.Name)
			collectBindingNames(b.Init, out)
		}
		collectBindingNames(v.Body, out)
	case *source.If:
		collectBindingNames(v.Cond, out)
		collectBindingNames(v.Then, out)
		collectBindingNames(v.Else, out)
	case *source.Apply:
		for _, a := range v.Args {
			collectBindingNames(a, out)
		}
	case *source.VectorInit:
		for _, e := range v.Elems {
			collectBindingNames(e, out)
		}
	case *source.VectorRef:
		collectBindingNames(v.Vec, out)
	case *source.VectorSet:
		collectBindingNames(v.Vec, out)
		collectBindingNames(v.Val, out)
	}
}

// TestUniquifyBindingsAreUnique exercises invariant 2 of spec.md §8: every bound name in the
// renamed tree is distinct, even across lexically shadowing and repeated occurrences of the same
// original name.
func TestUniquifyBindingsAreUnique(t *testing.T) {
	src := `
(let ([x 1])
  (let ([x 2])
    (let ([x 3] [y (let ([x 4]) x)])
      (+ x y))))`
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))

	renamed := uniquify.Uniquify(prog)

	var names []string
	collectBindingNames(renamed.Body, &names)
	require.Len(t, names, 5)

	seen := make(map[string]bool)
	for _, n := range names {
		require.False(t, seen[n], "binding name %q reused after renaming", n)
		seen[n] = true
	}
}

// TestUniquifyPreservesBindingResolution checks that renaming doesn't change which binding a Var
// resolves to: the innermost "x" must still read from the innermost let.
func TestUniquifyPreservesBindingResolution(t *testing.T) {
	src := `(let ([x 1]) (let ([x (+ x 1)]) x))`
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))

	renamed := uniquify.Uniquify(prog)

	outer := renamed.Body.(*source.Let)
	require.Len(t, outer.Bindings, 1)
	inner := outer.Body.(*source.Let)
	require.Len(t, inner.Bindings, 1)

	// The inner binding's initializer references the outer binding's renamed name, not its own.
	innerInit := inner.Bindings[0].Init.(*source.Apply)
	ref := innerInit.Args[0].(*source.Var)
	require.Equal(t, outer.Bindings[0].Name, ref.Name)

	// The body reads the inner binding, not the outer one.
	bodyRef := inner.Body.(*source.Var)
	require.Equal(t, inner.Bindings[0].Name, bodyRef.Name)
	require.NotEqual(t, outer.Bindings[0].Name, bodyRef.Name)
}
