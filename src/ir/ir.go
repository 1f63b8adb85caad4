// Package ir defines the three-address intermediate language produced by the flatten pass
// (spec.md §4.4): a Program is a flat list of variable declarations plus a flat list of
// statements, each statement's right-hand side restricted to atoms or one primitive operation on
// atoms, so later passes never need to recurse into an expression tree.
package ir

import "vecc/src/types"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Arg is an atomic IR operand: a literal or a variable reference. Stmt right-hand sides and Expr
// operands are built exclusively out of Args, never out of nested Exprs (spec.md §4.4).
type Arg interface {
	argNode()
}

// Expr is the right-hand side of an Assign: either a bare Arg or one primitive operation applied
// to Args.
type Expr interface {
	exprNode()
}

// Stmt is one three-address statement.
type Stmt interface {
	stmtNode()
}

// IntArg is an integer literal operand.
type IntArg struct{ Value int64 }

// BoolArg is a boolean literal operand.
type BoolArg struct{ Value bool }

// VoidArg is the void literal operand.
type VoidArg struct{}

// VarArg references a local variable by its (already unique) name.
type VarArg struct {
	Name string
	Typ  types.StaticType
}

// GlobalArg references a runtime global (free_ptr, fromspace_end).
type GlobalArg struct{ Name string }

// AtomExpr wraps a bare Arg used directly as an Assign's right-hand side.
type AtomExpr struct{ Arg Arg }

// ApplyExpr is a primitive arithmetic/logical/runtime operation applied to Args.
type ApplyExpr struct {
	Op   string
	Args []Arg
}

// CmpExpr is a primitive comparison applied to two Args, always producing bool.
type CmpExpr struct {
	Op          string
	Left, Right Arg
}

// VectorRefExpr reads one slot of a vector.
type VectorRefExpr struct {
	Vec   Arg
	Index int
}

// VectorSetExpr writes one slot of a vector, producing void.
type VectorSetExpr struct {
	Vec   Arg
	Index int
	Val   Arg
}

// AllocateExpr allocates a fresh, uninitialized vector of Len slots whose vector type is Typ.
type AllocateExpr struct {
	Len int
	Typ types.StaticType
}

// GlobalValueExpr reads a runtime global, duplicated from GlobalArg for use as a standalone
// right-hand side (e.g. "t = (global-value free_ptr)").
type GlobalValueExpr struct{ Name string }

// Assign binds the value of Expr to the named local.
type Assign struct {
	Name string
	Typ  types.StaticType
	Rhs  Expr
}

// Return ends the program with the value of Arg (always the flattened body's final result).
type Return struct{ Arg Arg }

// CollectStmt calls the garbage collector for at least Bytes free bytes.
type CollectStmt struct{ Bytes int }

// If is the sole control-flow statement IR produces: a bool-typed test comparing two Args with Op,
// with two statement-list branches (spec.md §4.4 desugars source If into this shape, comparing the
// condition arg against a literal #t).
type If struct {
	Op          string
	Left, Right Arg
	Then, Else  []Stmt
}

// Program is the flattened output of one compilation: every local the flattener introduced,
// followed by the statement sequence computing and returning the program's result.
type Program struct {
	Vars  []VarDecl
	Stmts []Stmt
}

// VarDecl records one local's name and static type. select-instruction carries only the name
// forward, and regalloc gives every spilled local the same 8-byte slot regardless of type.
type VarDecl struct {
	Name string
	Typ  types.StaticType
}

// ---------------------
// ----- Functions -----
// ---------------------

func (IntArg) argNode()       {}
func (BoolArg) argNode()      {}
func (VoidArg) argNode()      {}
func (VarArg) argNode()       {}
func (GlobalArg) argNode()    {}

func (AtomExpr) exprNode()        {}
func (ApplyExpr) exprNode()       {}
func (CmpExpr) exprNode()         {}
func (VectorRefExpr) exprNode()   {}
func (VectorSetExpr) exprNode()   {}
func (AllocateExpr) exprNode()    {}
func (GlobalValueExpr) exprNode() {}

func (Assign) stmtNode()      {}
func (Return) stmtNode()      {}
func (CollectStmt) stmtNode() {}
func (If) stmtNode()          {}
