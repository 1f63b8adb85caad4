package source_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/frontend"
	"vecc/src/source"
	"vecc/src/typecheck"
	"vecc/src/types"
)

// TestPrettyRoundTrip exercises invariant 1 of spec.md §8: a type-checked program, pretty-printed
// and re-parsed, must type-check to the same static type.
func TestPrettyRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		src  string
		typ  types.StaticType
	}{
		{"int literal", "42", types.IntType},
		{"bool literal", "#t", types.BoolType},
		{"arithmetic", "(+ 1 (- 2))", types.IntType},
		{"let", "(let ([x 1] [y 2]) (+ x y))", types.IntType},
		{"if", "(if (< 1 2) 10 20)", types.IntType},
		{"logical", "(and (< 1 2) (or #f #t))", types.BoolType},
		{"vector", "(vector-ref (vector 1 #t) 0)", types.IntType},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			prog1, err := frontend.Parse(c.src)
			require.NoError(t, err)
			require.NoError(t, typecheck.Check(prog1))
			require.True(t, prog1.StaticType().Equal(c.typ))

			printed := source.Pretty(prog1.Body)

			prog2, err := frontend.Parse(printed)
			require.NoError(t, err, "re-parsing %q", printed)
			require.NoError(t, typecheck.Check(prog2), "re-typechecking %q", printed)
			require.True(t, prog2.StaticType().Equal(c.typ),
				"round trip %q -> %q changed static type", c.src, printed)
		})
	}
}

// TestPrettyProgramUnwrapsBody checks that Pretty treats a *Program wrapper the same as its bare
// Body, since callers sometimes hold one and sometimes the other.
func TestPrettyProgramUnwrapsBody(t *testing.T) {
	body := &source.Int{Value: 7}
	prog := &source.Program{Body: body}
	require.Equal(t, source.Pretty(body), source.Pretty(prog))
}
