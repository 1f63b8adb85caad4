package source

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Pretty renders n back into the surface s-expression syntax it was parsed from. It is used by the
// round-trip testable property of spec.md §8 (invariant 1): a type-checked program, pretty-printed
// and re-parsed, must type-check to the same type. Pretty never prints the internal nodes
// (Allocate, Collect, GlobalValue) introduced by expose-allocation; those only ever occur after
// type checking has already produced its verdict, so the round trip property is only exercised
// before expose-allocation runs.
func Pretty(n Node) string {
	sb := strings.Builder{}
	pretty(&sb, n)
	return sb.String()
}

func pretty(sb *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Program:
		pretty(sb, v.Body)
	case *Int:
		sb.WriteString(strconv.FormatInt(v.Value, 10))
	case *Bool:
		if v.Value {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case *Void:
		sb.WriteString("(void)")
	case *Var:
		sb.WriteString(v.Name)
	case *Let:
		sb.WriteString("(let (")
		for i1, b := range v.Bindings {
			if i1 > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString("[")
			sb.WriteString(b.Name)
			sb.WriteString(" ")
			pretty(sb, b.Init)
			sb.WriteString("]")
		}
		sb.WriteString(") ")
		pretty(sb, v.Body)
		sb.WriteString(")")
	case *If:
		sb.WriteString("(if ")
		pretty(sb, v.Cond)
		sb.WriteString(" ")
		pretty(sb, v.Then)
		sb.WriteString(" ")
		pretty(sb, v.Else)
		sb.WriteString(")")
	case *Apply:
		sb.WriteString("(")
		sb.WriteString(v.Op)
		for _, a := range v.Args {
			sb.WriteString(" ")
			pretty(sb, a)
		}
		sb.WriteString(")")
	case *VectorInit:
		sb.WriteString("(vector")
		for _, e := range v.Elems {
			sb.WriteString(" ")
			pretty(sb, e)
		}
		sb.WriteString(")")
	case *VectorRef:
		sb.WriteString("(vector-ref ")
		pretty(sb, v.Vec)
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(v.Index))
		sb.WriteString(")")
	case *VectorSet:
		sb.WriteString("(vector-set! ")
		pretty(sb, v.Vec)
		sb.WriteString(" ")
		sb.WriteString(strconv.Itoa(v.Index))
		sb.WriteString(" ")
		pretty(sb, v.Val)
		sb.WriteString(")")
	case *Lambda:
		sb.WriteString(fmt.Sprintf("(lambda (%s) ", strings.Join(v.Params, " ")))
		pretty(sb, v.Body)
		sb.WriteString(")")
	case *Define:
		sb.WriteString(fmt.Sprintf("(define %s ", v.Name))
		pretty(sb, v.Fn)
		sb.WriteString(")")
	default:
		sb.WriteString(fmt.Sprintf("<unprintable %T>", n))
	}
}
