// Package harness implements the property-based test harness named in spec.md §8: generating
// random well-typed programs bounded by depth, compiling each through the full pipeline, and
// checking the result against the reference interpreter (src/interp).
//
// No real x86-64 assembler, linker or runtime library is available in this repository (spec.md §1
// treats them as external collaborators reached only through the CLI's command-line contract), so
// this harness cannot link and execute the assembly it produces. It instead checks the two
// properties that are actually observable in-process: every generated well-typed program compiles
// to completion without error, and the reference interpreter agrees with itself and with
// typechecking on the program's result and type. End-to-end agreement between the *emitted
// assembly* and the interpreter is covered at the unit level instead, by the handful of literal
// scenarios in src/compiler's tests that assert on the shape of the emitted instructions.
package harness

import (
	"math/rand"

	"golang.org/x/sync/errgroup"

	"vecc/src/compiler"
	"vecc/src/interp"
	"vecc/src/source"
	"vecc/src/types"
	"vecc/src/util"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Case is one generated program, rendered to surface syntax so it exercises the pipeline's real
// entry point (the lexer/parser), plus the static type it was generated to have.
type Case struct {
	Src string
	Typ types.StaticType
}

// Result is the outcome of compiling and interpreting one Case.
type Result struct {
	Case       Case
	CompileErr error
	InterpVal  interp.Value
	InterpErr  error
}

// generator produces random well-typed source.Node trees bounded by a depth budget, using rnd for
// every decision so a harness run is reproducible given a fixed seed.
type generator struct {
	rnd *rand.Rand
}

// ---------------------
// ----- Functions -----
// ---------------------

// Generate produces n random well-typed programs, each bounded to maxDepth expression nesting.
func Generate(n, maxDepth int, seed int64) []Case {
	rnd := rand.New(rand.NewSource(seed))
	g := &generator{rnd: rnd}
	cases := make([]Case, n)
	for i1 := 0; i1 < n; i1++ {
		t := pickType(rnd)
		body := g.expr(maxDepth, t)
		cases[i1] = Case{Src: source.Pretty(body), Typ: t}
	}
	return cases
}

func pickType(rnd *rand.Rand) types.StaticType {
	if rnd.Intn(2) == 0 {
		return types.IntType
	}
	return types.BoolType
}

// expr generates one expression of static type t, bounded by the remaining depth budget. A zero or
// negative budget, or a 1-in-3 coin flip, bottoms out at a leaf so generated trees stay finite and
// are not always maximally deep.
func (g *generator) expr(depth int, t types.StaticType) source.Node {
	if depth <= 0 || g.rnd.Intn(3) == 0 {
		return g.leaf(t)
	}
	if t.Kind == types.Bool {
		return g.boolExpr(depth)
	}
	return g.intExpr(depth)
}

func (g *generator) leaf(t types.StaticType) source.Node {
	if t.Kind == types.Bool {
		return &source.Bool{Value: g.rnd.Intn(2) == 0}
	}
	return &source.Int{Value: int64(g.rnd.Intn(1000) - 500)}
}

func (g *generator) intExpr(depth int) source.Node {
	switch g.rnd.Intn(3) {
	case 0:
		return &source.Apply{Op: source.OpAdd, Args: []source.Node{
			g.expr(depth-1, types.IntType), g.expr(depth-1, types.IntType),
		}}
	case 1:
		return &source.Apply{Op: source.OpNeg, Args: []source.Node{g.expr(depth-1, types.IntType)}}
	default:
		return g.ifExpr(depth, types.IntType)
	}
}

func (g *generator) boolExpr(depth int) source.Node {
	switch g.rnd.Intn(4) {
	case 0:
		return &source.Apply{Op: pickCompareOp(g.rnd), Args: []source.Node{
			g.expr(depth-1, types.IntType), g.expr(depth-1, types.IntType),
		}}
	case 1:
		op := source.OpAnd
		if g.rnd.Intn(2) == 0 {
			op = source.OpOr
		}
		return &source.Apply{Op: op, Args: []source.Node{
			g.expr(depth-1, types.BoolType), g.expr(depth-1, types.BoolType),
		}}
	case 2:
		return &source.Apply{Op: source.OpNot, Args: []source.Node{g.expr(depth-1, types.BoolType)}}
	default:
		return g.ifExpr(depth, types.BoolType)
	}
}

func pickCompareOp(rnd *rand.Rand) string {
	ops := []string{source.OpEq, source.OpLt, source.OpLe, source.OpGt, source.OpGe}
	return ops[rnd.Intn(len(ops))]
}

func (g *generator) ifExpr(depth int, t types.StaticType) source.Node {
	return &source.If{
		Cond: g.expr(depth-1, types.BoolType),
		Then: g.expr(depth-1, t),
		Else: g.expr(depth-1, t),
	}
}

// Check compiles and interprets one case. w must belong to a process that has already called
// util.ListenWrite and started a util.ListenLabel goroutine (compiler.Run's precondition); Check
// does not start or tear down that shared machinery, since a harness run shares it across every
// concurrently checked Case the way main.go shares it across a single compile.
func Check(c Case, opt util.Options, w *util.Writer) Result {
	compileErr := compiler.Run(opt, c.Src, w)
	val, interpErr := compiler.Interpret(c.Src, nil)
	return Result{Case: c, CompileErr: compileErr, InterpVal: val, InterpErr: interpErr}
}

// RunAll checks every case concurrently via errgroup, each on its own util.Writer sharing the
// caller's output and label machinery, and returns results in the same order as cases.
func RunAll(cases []Case, opt util.Options) []Result {
	results := make([]Result, len(cases))
	var g errgroup.Group
	for i1, c := range cases {
		i1, c := i1, c
		g.Go(func() error {
			w := util.NewWriter()
			results[i1] = Check(c, opt, &w)
			w.Close()
			return nil
		})
	}
	_ = g.Wait() // Check never itself returns an error; failures are recorded on Result.
	return results
}
