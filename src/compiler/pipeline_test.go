package compiler_test

import (
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"vecc/src/compiler"
	"vecc/src/util"
)

// compile runs the full pipeline on src and returns the emitted assembly text, mirroring the
// documented limitation of spec.md §6's testable-properties mapping: since no real assembler,
// linker or runtime library is available in this repository, these tests assert on the shape of
// the emitted instruction sequence that would produce the scenario's described behavior, rather
// than on the output of a linked and executed binary.
func compile(t *testing.T, src string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "scenario-*.s")
	require.NoError(t, err)
	defer f.Close()

	var wg sync.WaitGroup
	util.ListenWrite(util.Options{Threads: 1}, f, &wg)
	go util.ListenLabel()

	w := util.NewWriter()
	runErr := compiler.Run(util.Options{TargetOS: util.Linux}, src, &w)
	require.NoError(t, runErr)
	w.Close()
	wg.Wait()

	util.CloseLabel()

	deadline := time.Now().Add(2 * time.Second)
	var b []byte
	for time.Now().Before(deadline) {
		b, err = os.ReadFile(f.Name())
		require.NoError(t, err)
		if len(b) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	util.Close()
	return string(b)
}

// returnsThroughPrintPtr asserts the emitted text's final program return loads its value into
// %rdi and immediately calls print_ptr, the shape every one of these scenarios must end with.
func returnsThroughPrintPtr(t *testing.T, asm string) {
	t.Helper()
	re := regexp.MustCompile(`movq\t[^\n]+, %rdi\n\tcallq\tprint_ptr`)
	require.Regexp(t, re, asm)
}

// TestScenarioAddition covers spec.md §8 scenario 1: (+ 10 32) must compute its sum at runtime
// (no constant folding — spec.md's Non-goals exclude optimization beyond register allocation) and
// feed the result through print_ptr.
func TestScenarioAddition(t *testing.T) {
	asm := compile(t, "(+ 10 32)")
	require.Contains(t, asm, "$10")
	require.Contains(t, asm, "$32")
	require.Contains(t, asm, "addq")
	returnsThroughPrintPtr(t, asm)

	val, err := compiler.Interpret("(+ 10 32)", nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), val)
}

// TestScenarioLetBinding covers scenario 2: a let-bound sum.
func TestScenarioLetBinding(t *testing.T) {
	src := "(let ([x 10] [y 32]) (+ x y))"
	asm := compile(t, src)
	require.Contains(t, asm, "addq")
	returnsThroughPrintPtr(t, asm)

	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), val)
}

// TestScenarioShadowing covers scenario 3: the inner let's x must shadow the outer's after
// uniquify, so the program evaluates to the inner binding's value.
func TestScenarioShadowing(t *testing.T) {
	src := "(let ([x 10]) (let ([x 32]) x))"
	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(32), val)

	asm := compile(t, src)
	returnsThroughPrintPtr(t, asm)
}

// TestScenarioIf covers scenario 4: a conditional compiles to a real comparison and branch (no
// constant folding of the condition), taking the then-branch at runtime.
func TestScenarioIf(t *testing.T) {
	src := "(if (< 1 2) 7 9)"
	asm := compile(t, src)
	require.Contains(t, asm, "cmpq")
	require.Contains(t, asm, "setl") // the "<" itself lowers through set<cc>/movzb to a bool temp.
	require.Regexp(t, regexp.MustCompile(`j(e|ne|l|le|g|ge)\t`), asm) // the if's own branch on that bool.
	require.Contains(t, asm, "$7")
	require.Contains(t, asm, "$9")
	returnsThroughPrintPtr(t, asm)

	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(7), val)
}

// TestScenarioEqNot covers scenario 5: eq? over bool plus not, nested inside if.
func TestScenarioEqNot(t *testing.T) {
	src := "(if (eq? #t (not #f)) 1 0)"
	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), val)

	asm := compile(t, src)
	require.Contains(t, asm, "xorq") // not implemented as xor $1.
	returnsThroughPrintPtr(t, asm)
}

// TestScenarioVector covers scenario 6: vector construction, reference and the header tag's
// length/pointer-mask fields for an all-scalar 3-slot vector.
func TestScenarioVector(t *testing.T) {
	src := "(let ([v (vector 1 2 3)]) (+ (vector-ref v 0) (vector-ref v 2)))"
	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), val)

	asm := compile(t, src)
	// Header tag for a 3-slot, all-scalar vector: forwarding bit (1) | length 3 << 1 | mask 0 << 7 = 7.
	require.Contains(t, asm, "$7")
	require.Contains(t, asm, "(%r11)")
	returnsThroughPrintPtr(t, asm)
}

// TestScenarioCollectTriggered covers scenario 7: a single vector allocation. expose guards every
// allocation with a free-space check, so a `collect` call is emitted before the final value is
// returned.
func TestScenarioCollectTriggered(t *testing.T) {
	var sb []byte
	sb = append(sb, "(let (["...)
	sb = append(sb, "v0 (vector 1 2)]) (+ (vector-ref v0 0) (vector-ref v0 1)))"...)
	src := string(sb)

	asm := compile(t, src)
	require.Contains(t, asm, "callq\tcollect")

	val, err := compiler.Interpret(src, nil)
	require.NoError(t, err)
	require.Equal(t, int64(3), val)
}
