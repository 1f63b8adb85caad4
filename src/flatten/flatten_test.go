package flatten_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"vecc/src/expose"
	"vecc/src/flatten"
	"vecc/src/frontend"
	"vecc/src/ir"
	"vecc/src/typecheck"
	"vecc/src/uniquify"
)

func lower(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, typecheck.Check(prog))
	prog = expose.Expose(prog)
	prog = uniquify.Uniquify(prog)
	return flatten.Flatten(prog)
}

// TestFlattenNonNesting exercises invariant 3 of spec.md §8: every Assign's Rhs holds only Args
// (never a nested Expr), so a nested arithmetic expression lowers into a chain of temporaries
// rather than one deeply nested instruction.
func TestFlattenNonNesting(t *testing.T) {
	prog := lower(t, "(+ (+ 1 2) 3)")

	var assigns int
	for _, s := range prog.Stmts {
		if a, ok := s.(ir.Assign); ok {
			assigns++
			if apply, ok := a.Rhs.(ir.ApplyExpr); ok {
				for _, arg := range apply.Args {
					switch arg.(type) {
					case ir.IntArg, ir.VarArg, ir.BoolArg, ir.VoidArg, ir.GlobalArg:
						// Fine: these are leaf Args, never a nested Expr.
					default:
						t.Fatalf("ApplyExpr argument %#v is not a flat Arg", arg)
					}
				}
			}
		}
	}
	require.GreaterOrEqual(t, assigns, 2, "expected at least two temporaries for the nested add")

	last, ok := prog.Stmts[len(prog.Stmts)-1].(ir.Return)
	require.True(t, ok, "program must end in a Return statement")
	_, ok = last.Arg.(ir.VarArg)
	require.True(t, ok, "Return's operand must be a flat Arg, got %#v", last.Arg)
}

// TestFlattenIfSharesResultTemp checks that both arms of a lowered If assign their branch result
// into the same temporary, and that the generated ir.If compares against #t (spec.md §4.4).
func TestFlattenIfSharesResultTemp(t *testing.T) {
	prog := lower(t, "(if (< 1 2) 10 20)")

	var ifStmt *ir.If
	for i1 := range prog.Stmts {
		if v, ok := prog.Stmts[i1].(ir.If); ok {
			ifStmt = &v
			break
		}
	}
	require.NotNil(t, ifStmt, "expected a lowered ir.If")
	require.Equal(t, "eq?", ifStmt.Op)
	require.Equal(t, ir.BoolArg{Value: true}, ifStmt.Right)

	thenAssign, ok := ifStmt.Then[len(ifStmt.Then)-1].(ir.Assign)
	require.True(t, ok)
	elseAssign, ok := ifStmt.Else[len(ifStmt.Else)-1].(ir.Assign)
	require.True(t, ok)
	require.Equal(t, thenAssign.Name, elseAssign.Name, "both arms must write the same result temp")
}

// TestFlattenDesugarsAndOr checks and/or lower to ir.If rather than a boolean ApplyExpr, preserving
// short-circuit evaluation order through flatten (spec.md §4.4).
func TestFlattenDesugarsAndOr(t *testing.T) {
	prog := lower(t, "(and #t #f)")

	var sawIf bool
	for _, s := range prog.Stmts {
		if _, ok := s.(ir.If); ok {
			sawIf = true
		}
		if a, ok := s.(ir.Assign); ok {
			if _, ok := a.Rhs.(ir.ApplyExpr); ok {
				t.Fatalf("and/or must not lower to a boolean ApplyExpr, got %#v", a.Rhs)
			}
		}
	}
	require.True(t, sawIf, "expected and to desugar into an ir.If")
}
