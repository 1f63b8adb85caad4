// Package types provides the static type model shared by every pass of the compiler.
//
// A StaticType is either a primitive (int, bool, void) or a structural vector type carrying the
// types of its elements. This is a typed reimplementation of the property-bag encoded static type
// of the original source ('int' | 'bool' | 'void' | ('vector', [st, ...])): see
// original_source/compiler/ast/static_types.py.
package types

import "strings"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind differentiates the primitive and vector shapes a StaticType can take.
type Kind int

// StaticType is the type of every Source, IR and X86 expression node after type checking.
// Primitives carry no Elems; Vector carries the ordered element types of its slots.
type StaticType struct {
	Kind  Kind
	Elems []StaticType // Only populated when Kind == Vector.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Int Kind = iota
	Bool
	Void
	Vector
)

// MaxVectorLen is the largest number of slots a vector type may declare: the allocate-instruction
// tag word reserves 6 bits for length (spec.md §4.5, §6).
const MaxVectorLen = 50

// -------------------
// ----- Globals -----
// -------------------

// IntType, BoolType and VoidType are the three primitive static types; they carry no state so a
// single shared value is sufficient.
var (
	IntType  = StaticType{Kind: Int}
	BoolType = StaticType{Kind: Bool}
	VoidType = StaticType{Kind: Void}
)

// ---------------------
// ----- Functions -----
// ---------------------

// NewVector builds a vector static type from its element types. It panics if elems is empty or
// longer than MaxVectorLen, mirroring original_source's MakeStaticTypeVector assertion.
func NewVector(elems ...StaticType) StaticType {
	if len(elems) == 0 {
		panic("types: vector type must have at least one element")
	}
	if len(elems) > MaxVectorLen {
		panic("types: vector type exceeds maximum length")
	}
	return StaticType{Kind: Vector, Elems: elems}
}

// IsPrimitive reports whether t is int, bool or void.
func (t StaticType) IsPrimitive() bool {
	return t.Kind == Int || t.Kind == Bool || t.Kind == Void
}

// IsVector reports whether t is a vector type.
func (t StaticType) IsVector() bool {
	return t.Kind == Vector
}

// ElemAt returns the static type of the i'th slot of a vector type. It panics if t is not a
// vector type or i is out of range; callers (typecheck, select) must bounds-check first when the
// index comes from source code, so that an out-of-range index is reported as a TypeError rather
// than a panic.
func (t StaticType) ElemAt(i int) StaticType {
	return t.Elems[i]
}

// Len returns the number of slots of a vector type, or 0 for a primitive.
func (t StaticType) Len() int {
	if t.Kind != Vector {
		return 0
	}
	return len(t.Elems)
}

// Equal reports whether t and u describe the same static type, structurally.
func (t StaticType) Equal(u StaticType) bool {
	if t.Kind != u.Kind {
		return false
	}
	if t.Kind != Vector {
		return true
	}
	if len(t.Elems) != len(u.Elems) {
		return false
	}
	for i1, e1 := range t.Elems {
		if !e1.Equal(u.Elems[i1]) {
			return false
		}
	}
	return true
}

// String returns a print friendly representation of t, used by the pretty printer and by error
// messages that name an expected-vs-actual type.
func (t StaticType) String() string {
	switch t.Kind {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case Void:
		return "void"
	case Vector:
		sb := strings.Builder{}
		sb.WriteString("(vector ")
		for i1, e1 := range t.Elems {
			if i1 > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(e1.String())
		}
		sb.WriteString(")")
		return sb.String()
	default:
		return "?"
	}
}

// PointerMask returns, for a vector type, a bitmask with bit i set iff slot i itself holds a
// vector-typed (pointer) value. This is consumed directly by select-instruction when computing the
// allocate-instruction header tag (spec.md §4.5, §6).
func (t StaticType) PointerMask() uint64 {
	var mask uint64
	for i1, e1 := range t.Elems {
		if e1.IsVector() {
			mask |= 1 << uint(i1)
		}
	}
	return mask
}
