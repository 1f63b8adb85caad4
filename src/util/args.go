package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the command line configuration of one compiler invocation.
type Options struct {
	Src         string // Path to source file. Empty means read from stdin.
	Out         string // Path to output file. Empty means stdout or the source path with a .s extension.
	Threads     int    // Thread count; only sizes the output writer's channel buffer.
	Verbose     bool   // Set true if compiler should log every pipeline stage to stdout.
	TokenStream bool   // Set true if compiler should output the token stream and exit.
	Dump        string // Name of a single pipeline stage to print and exit; empty runs the full pipeline.
	StdOut      bool   // Set true (-S) to write assembly text to stdout instead of a .s file.
	NoMoveBias  bool   // Disables the register allocator's move-coalescing heuristic.
	TargetOS    int    // Output operating system type; only Linux and MAC affect emission (label mangling).
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Maximum threads allowed executing in parallel.
const appVersion = "vecc compiler 1.0"

// Target operating system. Only Linux and MAC are meaningful: the pipeline targets x86-64 Unix
// (spec.md §1, §6), but MAC keeps the teacher's Darwin-aware label mangling convention alive.
const (
	UnknownOS = iota
	Linux
	Windows
	MAC
)

// DumpStages lists the pipeline stage names accepted by -dump, in pipeline order. liveness is
// intentionally absent: it produces per-instruction live-variable sets consumed immediately by
// regalloc, not a standalone AST with a textual rendering of its own.
var DumpStages = []string{
	"source", "typecheck", "expose", "uniquify", "flatten", "select",
	"regalloc", "lower", "patch", "asm",
}

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses command line arguments.
func ParseArgs() (Options, error) {
	opt := Options{TargetOS: Linux}
	if len(os.Args) < 2 {
		return opt, nil
	}
	args := os.Args[1:]
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			// Help and usage.
			printHelp()
			os.Exit(0)
		case "-o":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected path to output file, got new flag %s", args[i1+1])
			}
			opt.Out = args[i1+1]
			i1++
		case "-t":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if t, err := strconv.Atoi(args[i1+1]); err == nil {
				if t > 0 && t <= maxThreads {
					opt.Threads = t
				} else {
					return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
				}
			} else {
				return opt, fmt.Errorf("expected integer thread count, got: %s", args[i1+1])
			}
			i1++
		case "-os":
			// Output operating system type.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			switch args[i1+1] {
			case "linux":
				opt.TargetOS = Linux
			case "windows":
				opt.TargetOS = Windows
			case "mac", "darwin":
				opt.TargetOS = MAC
			default:
				return opt, fmt.Errorf("unexpected operating system identifier: %s", args[i1+1])
			}
			i1++
		case "-dump":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			opt.Dump = args[i1+1]
			i1++
		case "-ts":
			// Output token stream.
			opt.TokenStream = true
		case "-S":
			// Write assembly to stdout instead of a .s file.
			opt.StdOut = true
		case "-no-move-bias":
			opt.NoMoveBias = true
		case "-v", "--v", "-version", "--version":
			// Application version.
			fmt.Println(appVersion)
			os.Exit(0)
		case "-vb":
			// Verbose mode.
			opt.Verbose = true
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			opt.Src = args[i1]
		}
	}
	return opt, nil
}

// printHelp prints a helpful usage message to stdout.
func printHelp() {
	w := tabwriter.NewWriter(os.Stdout, 6, 1, 1, 0, 0)
	_, _ = fmt.Fprintln(w, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(w, "--h, --help")
	_, _ = fmt.Fprintln(w, "-o\tPath and name of the output file. Defaults to the source path with a .s extension, or stdout when reading stdin.")
	_, _ = fmt.Fprintf(w, "-t\tThread count; sizes the output buffer. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(w, "-os\tTarget operating system. One of 'linux', 'windows', 'mac'. Affects label mangling.")
	_, _ = fmt.Fprintf(w, "-dump\tPrint one pipeline stage and exit. One of: %s.\n", strings.Join(DumpStages, ", "))
	_, _ = fmt.Fprintln(w, "-ts\tOutput the tokens of the source code and exit.")
	_, _ = fmt.Fprintln(w, "-S\tWrite assembly text to stdout instead of a .s file.")
	_, _ = fmt.Fprintln(w, "-no-move-bias\tDisable the register allocator's move-coalescing heuristic.")
	_, _ = fmt.Fprintln(w, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(w, "--v, --version")
	_, _ = fmt.Fprintln(w, "-vb\tVerbose mode: print a line to stdout as each pipeline stage finishes.")
	_ = w.Flush()
}
