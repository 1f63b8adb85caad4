package ir

import (
	"fmt"
	"strings"
)

// Pretty renders prog as an indented listing of its variable declarations and statement stream,
// used by the -dump flatten debug stage.
func Pretty(prog *Program) string {
	var sb strings.Builder
	for _, v := range prog.Vars {
		fmt.Fprintf(&sb, "var %s: %s\n", v.Name, v.Typ)
	}
	for _, s := range prog.Stmts {
		printStmt(&sb, s, 0)
	}
	return sb.String()
}

func printStmt(sb *strings.Builder, s Stmt, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v := s.(type) {
	case Assign:
		fmt.Fprintf(sb, "%s%s = %s\n", pad, v.Name, exprString(v.Rhs))
	case Return:
		fmt.Fprintf(sb, "%sreturn %s\n", pad, argString(v.Arg))
	case CollectStmt:
		fmt.Fprintf(sb, "%scollect(%d)\n", pad, v.Bytes)
	case If:
		fmt.Fprintf(sb, "%sif %s %s %s:\n", pad, argString(v.Left), v.Op, argString(v.Right))
		for _, t := range v.Then {
			printStmt(sb, t, depth+1)
		}
		fmt.Fprintf(sb, "%selse:\n", pad)
		for _, el := range v.Else {
			printStmt(sb, el, depth+1)
		}
	}
}

func exprString(e Expr) string {
	switch v := e.(type) {
	case AtomExpr:
		return argString(v.Arg)
	case ApplyExpr:
		parts := make([]string, len(v.Args))
		for i1, a := range v.Args {
			parts[i1] = argString(a)
		}
		return fmt.Sprintf("(%s %s)", v.Op, strings.Join(parts, " "))
	case CmpExpr:
		return fmt.Sprintf("(%s %s %s)", v.Op, argString(v.Left), argString(v.Right))
	case VectorRefExpr:
		return fmt.Sprintf("(vector-ref %s %d)", argString(v.Vec), v.Index)
	case VectorSetExpr:
		return fmt.Sprintf("(vector-set! %s %d %s)", argString(v.Vec), v.Index, argString(v.Val))
	case AllocateExpr:
		return fmt.Sprintf("(allocate %d %s)", v.Len, v.Typ)
	case GlobalValueExpr:
		return fmt.Sprintf("(global-value %s)", v.Name)
	default:
		return fmt.Sprintf("<%T>", v)
	}
}

func argString(a Arg) string {
	switch v := a.(type) {
	case IntArg:
		return fmt.Sprintf("%d", v.Value)
	case BoolArg:
		if v.Value {
			return "#t"
		}
		return "#f"
	case VoidArg:
		return "(void)"
	case VarArg:
		return v.Name
	case GlobalArg:
		return fmt.Sprintf("(global-value %s)", v.Name)
	default:
		return fmt.Sprintf("<%T>", v)
	}
}
