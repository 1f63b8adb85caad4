// Package flatten implements the flatten pass (spec.md §4.4): lowering the Source AST (after
// typecheck, expose-allocation and uniquify) into the three-address ir.Program. Every composite
// subexpression is bound to a fresh temporary via an ir.Assign; every expression lowering returns
// an ir.Arg plus the list of ir.Stmt that must run before that Arg is valid, matching the
// recursive contract original_source/compiler/compiler.py's _FlattenNode uses (there called
// explicate_expr/explicate_assign in the Cooper & Torczon-style scheme the compiler course this
// spec distills follows).
package flatten

import (
	"fmt"

	"vecc/src/ir"
	"vecc/src/source"
	"vecc/src/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// flattener holds the per-compilation state flatten threads through the tree: a counter for
// minting fresh temporaries and an accumulator of every local declared along the way.
type flattener struct {
	n    int
	vars []ir.VarDecl
}

// ---------------------
// ----- Functions -----
// ---------------------

// Flatten lowers prog (already typechecked, exposed and uniquified) into an ir.Program.
func Flatten(prog *source.Program) *ir.Program {
	f := &flattener{}
	resultArg, stmts := f.flatten(prog.Body)
	stmts = append(stmts, ir.Return{Arg: resultArg})
	return &ir.Program{Vars: f.vars, Stmts: stmts}
}

func (f *flattener) gensym() string {
	f.n++
	return fmt.Sprintf("tmp_%d", f.n)
}

func (f *flattener) declare(name string, t types.StaticType) {
	f.vars = append(f.vars, ir.VarDecl{Name: name, Typ: t})
}

// bind declares a fresh temporary of type t, assigns rhs to it, and returns (the temporary as an
// Arg, the statements needed so far including this assignment).
func (f *flattener) bind(t types.StaticType, rhs ir.Expr, stmts []ir.Stmt) (ir.Arg, []ir.Stmt) {
	name := f.gensym()
	f.declare(name, t)
	stmts = append(stmts, ir.Assign{Name: name, Typ: t, Rhs: rhs})
	return ir.VarArg{Name: name, Typ: t}, stmts
}

// flatten lowers n, returning its value as an Arg plus the statements that must execute first.
func (f *flattener) flatten(n source.Node) (ir.Arg, []ir.Stmt) {
	switch v := n.(type) {
	case *source.Int:
		return ir.IntArg{Value: v.Value}, nil
	case *source.Bool:
		return ir.BoolArg{Value: v.Value}, nil
	case *source.Void:
		return ir.VoidArg{}, nil
	case *source.Var:
		return ir.VarArg{Name: v.Name, Typ: v.StaticType()}, nil
	case *source.GlobalValue:
		return f.bind(v.StaticType(), ir.GlobalValueExpr{Name: v.Name}, nil)
	case *source.Let:
		return f.flattenLet(v)
	case *source.If:
		return f.flattenIf(v)
	case *source.Apply:
		return f.flattenApply(v)
	case *source.VectorRef:
		vecArg, stmts := f.flatten(v.Vec)
		return f.bind(v.StaticType(), ir.VectorRefExpr{Vec: vecArg, Index: v.Index}, stmts)
	case *source.VectorSet:
		vecArg, stmts := f.flatten(v.Vec)
		valArg, valStmts := f.flatten(v.Val)
		stmts = append(stmts, valStmts...)
		return f.bind(types.VoidType, ir.VectorSetExpr{Vec: vecArg, Index: v.Index, Val: valArg}, stmts)
	case *source.Allocate:
		return f.bind(v.StaticType(), ir.AllocateExpr{Len: v.Len, Typ: v.Typ}, nil)
	case *source.Collect:
		return ir.VoidArg{}, []ir.Stmt{ir.CollectStmt{Bytes: v.Bytes}}
	default:
		panic(fmt.Sprintf("flatten: unexpected node %T", v))
	}
}

// flattenLet flattens each binding's initializer in turn, accumulating statements, then flattens
// the body; source.Let bindings are already alpha-unique so no renaming is needed here.
func (f *flattener) flattenLet(v *source.Let) (ir.Arg, []ir.Stmt) {
	var stmts []ir.Stmt
	for _, b := range v.Bindings {
		initArg, initStmts := f.flatten(b.Init)
		stmts = append(stmts, initStmts...)
		t := b.Init.StaticType()
		stmts = append(stmts, ir.Assign{Name: b.Name, Typ: t, Rhs: ir.AtomExpr{Arg: initArg}})
		f.declare(b.Name, t)
	}
	bodyArg, bodyStmts := f.flatten(v.Body)
	stmts = append(stmts, bodyStmts...)
	return bodyArg, stmts
}

// flattenIf flattens the condition, then recursively flattens each branch into its own statement
// list, producing a single ir.If whose result is assigned to a fresh temporary on both paths —
// the "explicate_pred" step of spec.md §4.4, specialized to the two-armed source If.
func (f *flattener) flattenIf(v *source.If) (ir.Arg, []ir.Stmt) {
	condArg, condStmts := f.flatten(v.Cond)

	resultType := v.StaticType()
	resultName := f.gensym()
	f.declare(resultName, resultType)

	thenArg, thenStmts := f.flatten(v.Then)
	thenStmts = append(thenStmts, ir.Assign{Name: resultName, Typ: resultType, Rhs: ir.AtomExpr{Arg: thenArg}})

	elseArg, elseStmts := f.flatten(v.Else)
	elseStmts = append(elseStmts, ir.Assign{Name: resultName, Typ: resultType, Rhs: ir.AtomExpr{Arg: elseArg}})

	stmt := ir.If{
		Op:    source.OpEq,
		Left:  condArg,
		Right: ir.BoolArg{Value: true},
		Then:  thenStmts,
		Else:  elseStmts,
	}
	stmts := append(condStmts, stmt)
	return ir.VarArg{Name: resultName, Typ: resultType}, stmts
}

// flattenApply lowers and/or into If first (spec.md §4.4: "and/or desugar to if before flattening"
// so short-circuiting survives flatten), then flattens every other primitive's arguments left to
// right and binds the result to a fresh temporary.
func (f *flattener) flattenApply(v *source.Apply) (ir.Arg, []ir.Stmt) {
	switch v.Op {
	case source.OpAnd:
		n := &source.If{Cond: v.Args[0], Then: v.Args[1], Else: boolLit(false)}
		n.SetStaticType(types.BoolType)
		return f.flatten(n)
	case source.OpOr:
		n := &source.If{Cond: v.Args[0], Then: boolLit(true), Else: v.Args[1]}
		n.SetStaticType(types.BoolType)
		return f.flatten(n)
	}

	if source.IsCompareOp(v.Op) {
		leftArg, stmts := f.flatten(v.Args[0])
		rightArg, rightStmts := f.flatten(v.Args[1])
		stmts = append(stmts, rightStmts...)
		return f.bind(types.BoolType, ir.CmpExpr{Op: v.Op, Left: leftArg, Right: rightArg}, stmts)
	}

	var stmts []ir.Stmt
	args := make([]ir.Arg, len(v.Args))
	for i1, a := range v.Args {
		argVal, argStmts := f.flatten(a)
		stmts = append(stmts, argStmts...)
		args[i1] = argVal
	}
	return f.bind(v.StaticType(), ir.ApplyExpr{Op: v.Op, Args: args}, stmts)
}

// boolLit builds an already-typed source.Bool literal, used to synthesize the #t/#f arms and/or
// desugars into (spec.md §4.4).
func boolLit(b bool) source.Node {
	n := &source.Bool{Value: b}
	n.SetStaticType(types.BoolType)
	return n
}
