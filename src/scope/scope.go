// Package scope provides the scoped-environment stack shared by the type checker and the uniquify
// pass (spec.md §4.11). It is a typed reimplementation of the original source's ScopedEnv /
// ScopedEnvNode split (original_source/compiler/ast/scoped_env.py): a stack of frames, each frame
// implementing Contains/Get/Add, with lookups walking outermost-last.
package scope

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Frame is one scope's bindings. Passes plug in their own Frame implementation: the type checker's
// frame stores name -> types.StaticType, the uniquify pass's frame additionally mints unique
// suffixes from a counter shared across the whole compilation.
type Frame interface {
	Contains(name string) bool
	Get(name string) (interface{}, bool)
	Add(name string, value interface{})
}

// Builder constructs a fresh Frame when a new scope is pushed.
type Builder func() Frame

// Env is a stack of Frames. The stack exposes Push, Pop, Scoped (a bracketed acquisition
// guaranteeing Pop on all exits, including the error path) and Contains/Get walking outermost-last,
// i.e. innermost scope first.
type Env struct {
	build Builder
	top   *node
}

// node is one link of the Env's frame stack.
type node struct {
	frame Frame
	next  *node
}

// ---------------------
// ----- Functions -----
// ---------------------

// New returns an Env with a single top-level frame built by build.
func New(build Builder) *Env {
	return &Env{build: build, top: &node{frame: build()}}
}

// Push opens a new, innermost scope.
func (e *Env) Push() {
	e.top = &node{frame: e.build(), next: e.top}
}

// Pop closes the innermost scope. It panics if called on an empty stack, since that can only
// happen from a bug in a pass, never from user input.
func (e *Env) Pop() {
	if e.top.next == nil {
		panic("scope: Pop called on the outermost frame")
	}
	e.top = e.top.next
}

// Scoped pushes a new scope, runs fn, and pops the scope on every exit path of fn, including a
// panic unwinding through it (the error path named in spec.md §5's resource discipline).
func (e *Env) Scoped(fn func()) {
	e.Push()
	defer e.Pop()
	fn()
}

// Contains reports whether name is bound in this scope or any enclosing scope.
func (e *Env) Contains(name string) bool {
	for n := e.top; n != nil; n = n.next {
		if n.frame.Contains(name) {
			return true
		}
	}
	return false
}

// Get returns the value bound to name, searching from the innermost scope outward. ok is false if
// name is not bound anywhere in the stack — a free variable, which is a program error the type
// checker must have already caught (spec.md §4.3).
func (e *Env) Get(name string) (interface{}, bool) {
	for n := e.top; n != nil; n = n.next {
		if v, ok := n.frame.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// MustGet is Get, panicking with a descriptive message if name is unbound. Passes that have
// already run type checking use MustGet: an unbound name at this point is a compiler bug, not a
// user error.
func (e *Env) MustGet(name string) interface{} {
	v, ok := e.Get(name)
	if !ok {
		panic(fmt.Sprintf("scope: unbound name %q", name))
	}
	return v
}

// Add binds name to value in the innermost (top) scope.
func (e *Env) Add(name string, value interface{}) {
	e.top.frame.Add(name, value)
}
