// Package compiler orchestrates the full compilation pipeline (spec.md §2): a direct
// generalization of the teacher's main.run, threading one source string through every pass in
// turn and writing the emitted assembly (or a single dumped stage) to the caller's util.Writer.
package compiler

import (
	"fmt"

	"vecc/src/emit"
	"vecc/src/expose"
	"vecc/src/flatten"
	"vecc/src/frontend"
	"vecc/src/interp"
	"vecc/src/ir"
	"vecc/src/liveness"
	"vecc/src/lower"
	"vecc/src/patch"
	"vecc/src/regalloc"
	selectpass "vecc/src/select"
	"vecc/src/source"
	"vecc/src/typecheck"
	"vecc/src/uniquify"
	"vecc/src/util"
	"vecc/src/x86"
)

// ---------------------
// ----- Functions -----
// ---------------------

// Run executes the pipeline over src. If opt.Dump names a stage, that stage's textual
// representation is written to w and the pipeline stops; otherwise the final assembly is written.
// Callers must have a label listener goroutine running (util.ListenLabel) before calling Run, and
// must call util.CloseLabel once Run returns.
func Run(opt util.Options, src string, w *util.Writer) (err error) {
	defer util.Recover(&err)

	if opt.TokenStream {
		return runTokenStream(src, w)
	}

	prog, err := frontend.Parse(src)
	if err != nil {
		return util.NewLexError("%s", err)
	}
	if dumped(opt, "source", w, func() string { return source.Pretty(prog.Body) }) {
		return nil
	}
	logStage(opt, "source")

	if err := typecheck.Check(prog); err != nil {
		return util.Wrap(err, "typecheck")
	}
	if dumped(opt, "typecheck", w, func() string { return source.Pretty(prog.Body) }) {
		return nil
	}
	logStage(opt, "typecheck")

	prog = expose.Expose(prog)
	if dumped(opt, "expose", w, func() string { return source.Pretty(prog.Body) }) {
		return nil
	}
	logStage(opt, "expose")

	prog = uniquify.Uniquify(prog)
	if dumped(opt, "uniquify", w, func() string { return source.Pretty(prog.Body) }) {
		return nil
	}
	logStage(opt, "uniquify")

	irProg := flatten.Flatten(prog)
	if dumped(opt, "flatten", w, func() string { return ir.Pretty(irProg) }) {
		return nil
	}
	logStage(opt, "flatten")

	x86Prog := selectpass.Select(irProg)
	if dumped(opt, "select", w, func() string { return x86.Pretty(x86Prog) }) {
		return nil
	}
	logStage(opt, "select")

	live := liveness.Compute(x86Prog)
	logStage(opt, "liveness")

	regalloc.Allocate(x86Prog, live, opt.NoMoveBias)
	if dumped(opt, "regalloc", w, func() string { return x86.Pretty(x86Prog) }) {
		return nil
	}
	logStage(opt, "regalloc")

	lower.Lower(x86Prog)
	if dumped(opt, "lower", w, func() string { return x86.Pretty(x86Prog) }) {
		return nil
	}
	logStage(opt, "lower")

	patch.Patch(x86Prog)
	if dumped(opt, "patch", w, func() string { return x86.Pretty(x86Prog) }) {
		return nil
	}
	logStage(opt, "patch")

	emit.Emit(w, x86Prog, opt)
	w.Flush()
	logStage(opt, "asm")
	return nil
}

func runTokenStream(src string, w *util.Writer) error {
	toks, err := frontend.TokenStream(src)
	if err != nil {
		return util.NewLexError("%s", err)
	}
	for _, t := range toks {
		w.WriteString(t + "\n")
	}
	w.Flush()
	return nil
}

func dumped(opt util.Options, stage string, w *util.Writer, render func() string) bool {
	if opt.Dump != stage {
		return false
	}
	w.WriteString(render())
	w.Flush()
	return true
}

func logStage(opt util.Options, stage string) {
	if opt.Verbose {
		fmt.Printf("[pipeline] finished %s\n", stage)
	}
}

// Interpret runs the reference interpreter (src/interp) over src, used by the property-test
// harness to obtain the ground-truth result an independently compiled-and-run binary must match.
func Interpret(src string, reads []interp.Value) (interp.Value, error) {
	prog, err := frontend.Parse(src)
	if err != nil {
		return nil, util.NewLexError("%s", err)
	}
	if err := typecheck.Check(prog); err != nil {
		return nil, util.Wrap(err, "typecheck")
	}
	return interp.Run(prog, reads)
}
