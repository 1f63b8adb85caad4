package expose_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/expose"
	"vecc/src/frontend"
	"vecc/src/source"
	"vecc/src/typecheck"
)

// countNodes walks n and every Let binding's initializer, returning the number of *source.Collect
// and *source.Allocate nodes found.
func countNodes(n source.Node) (collects, allocs int) {
	switch v := n.(type) {
	case *source.Collect:
		collects++
	case *source.Allocate:
		allocs++
	case *source.Let:
		for _, b := range v.Bindings {
			c, a := countNodes(b.Init)
			collects += c
			allocs += a
		}
		c, a := countNodes(v.Body)
		collects += c
		allocs += a
	case *source.If:
		for _, child := range []source.Node{v.Cond, v.Then, v.Else} {
			c, a := countNodes(child)
			collects += c
			allocs += a
		}
	case *source.Apply:
		for _, arg := range v.Args {
			c, a := countNodes(arg)
			collects += c
			allocs += a
		}
	case *source.VectorRef:
		return countNodes(v.Vec)
	case *source.VectorSet:
		c1, a1 := countNodes(v.Vec)
		c2, a2 := countNodes(v.Val)
		return c1 + c2, a1 + a2
	}
	return collects, allocs
}

func exposeSrc(t *testing.T, src string) source.Node {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))
	out := expose.Expose(prog)
	return out.Body
}

// TestExposeInsertsOneGuardPerVectorInit checks that every vector literal gets exactly one
// collect-guard (an Allocate node and a reachable Collect node on the guard's else branch),
// matching spec.md §4.2's allocation sequence.
func TestExposeInsertsOneGuardPerVectorInit(t *testing.T) {
	cases := map[string]int{
		"(vector 1 2 3)":                     1,
		"(vector (vector 1) (vector 2))":     3, // outer plus its two nested initializers.
		"(+ 1 2)":                            0,
	}
	for src, want := range cases {
		t.Run(src, func(t *testing.T) {
			body := exposeSrc(t, src)
			collects, allocs := countNodes(body)
			require.Equal(t, want, collects)
			require.Equal(t, want, allocs)
		})
	}
}

// TestExposePreservesStaticType checks the rewritten program keeps the original expression's
// static type, since later passes rely on every node already being annotated.
func TestExposePreservesStaticType(t *testing.T) {
	prog, err := frontend.Parse("(vector 1 2 3)")
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))
	want := prog.StaticType()

	out := expose.Expose(prog)
	require.True(t, out.StaticType().Equal(want))
	require.True(t, out.Body.StaticType().Equal(want))
}

// TestExposeGensymsNeverCollideAcrossCalls checks the random-prefix requirement of spec.md §4.2:
// two independent Expose calls on vector-allocating programs must never mint the same temporary
// name, since uniquify runs after expose and relies on expose's names already being unique.
func TestExposeGensymsNeverCollideAcrossCalls(t *testing.T) {
	names := func(src string) map[string]bool {
		body := exposeSrc(t, src)
		out := make(map[string]bool)
		var walk func(n source.Node)
		walk = func(n source.Node) {
			if l, ok := n.(*source.Let); ok {
				for _, b := range l.Bindings {
					out[b.Name] = true
					walk(b.Init)
				}
				walk(l.Body)
			}
		}
		walk(body)
		return out
	}
	a := names("(vector 1 2)")
	b := names("(vector 1 2)")
	for name := range a {
		require.False(t, b[name], "name %q collided across independent Expose calls", name)
	}
}
