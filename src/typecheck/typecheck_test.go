package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/frontend"
	"vecc/src/types"
	"vecc/src/typecheck"
	"vecc/src/util"
)

func checkSrc(t *testing.T, src string) error {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	return typecheck.Check(prog)
}

// TestCheckAcceptsWellTypedPrograms runs a handful of programs that each exercise one checking
// rule and asserts no error and the expected final static type.
func TestCheckAcceptsWellTypedPrograms(t *testing.T) {
	cases := []struct {
		src  string
		kind types.Kind
	}{
		{"(+ 1 2)", types.Int},
		{"(let ([x 1] [y 2]) (+ x y))", types.Int},
		{"(if (< 1 2) 7 9)", types.Int},
		{"(eq? #t (not #f))", types.Bool},
		{"(vector-ref (vector 1 2 3) 1)", types.Int},
	}
	for _, c := range cases {
		t.Run(c.src, func(t *testing.T) {
			prog, err := frontend.Parse(c.src)
			require.NoError(t, err)
			require.NoError(t, typecheck.Check(prog))
			require.Equal(t, c.kind, prog.StaticType().Kind)
		})
	}
}

// TestCheckRejectsIllTyped exercises spec.md §4.1's type-mismatch cases: an arithmetic operand
// that isn't int, mismatched if-branch types, an out-of-range vector-ref index and an unbound
// variable all must fail with an ErrType *util.CompileError.
func TestCheckRejectsIllTyped(t *testing.T) {
	cases := []string{
		"(+ 1 #t)",
		"(if (< 1 2) 7 #f)",
		"(vector-ref (vector 1 2) 5)",
		"x",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			err := checkSrc(t, src)
			require.Error(t, err)
			ce, ok := err.(*util.CompileError)
			require.True(t, ok, "expected *util.CompileError, got %T", err)
			require.Equal(t, util.ErrType, ce.Kind)
		})
	}
}

// TestCheckRejectsLambdaAndDefine exercises spec.md §9's Non-goals: lambda/define must fail with
// ErrNotImplemented rather than being silently accepted or partially supported.
func TestCheckRejectsLambdaAndDefine(t *testing.T) {
	cases := []string{
		"(lambda (x) x)",
		"(define f (lambda (x) x))",
	}
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			err := checkSrc(t, src)
			require.Error(t, err)
			ce, ok := err.(*util.CompileError)
			require.True(t, ok, "expected *util.CompileError, got %T", err)
			require.Equal(t, util.ErrNotImplemented, ce.Kind)
		})
	}
}

// TestCheckEqAcceptsVectorPointerEquality resolves the Open Question of eq? over vectors: two
// distinct vector literals of the same element types must type check under eq? (the comparison
// is pointer identity at runtime, not structural — spec.md §9, resolved in DESIGN.md).
func TestCheckEqAcceptsVectorPointerEquality(t *testing.T) {
	err := checkSrc(t, "(eq? (vector 1 2) (vector 1 2))")
	require.NoError(t, err)
}
