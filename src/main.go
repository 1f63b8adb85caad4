package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"vecc/src/compiler"
	"vecc/src/util"
)

// run reads source code and drives the compilation pipeline. Behaviour is defined by the
// util.Options structure.
func run(opt util.Options, w *util.Writer) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source code: %s", err)
	}
	if err := compiler.Run(opt, src, w); err != nil {
		return fmt.Errorf("%s", err)
	}
	return nil
}

// outputPath decides where emitted assembly goes: the explicit -o path, stdout if -S was passed
// or no source path is known, or else the source path with its extension replaced by ".s".
func outputPath(opt util.Options) string {
	if len(opt.Out) > 0 {
		return opt.Out
	}
	if opt.StdOut || opt.Dump != "" || opt.TokenStream || len(opt.Src) == 0 {
		return ""
	}
	if i1 := strings.LastIndexByte(opt.Src, '.'); i1 >= 0 {
		return opt.Src[:i1] + ".s"
	}
	return opt.Src + ".s"
}

func main() {
	opt, err := util.ParseArgs()
	if err != nil {
		fmt.Printf("Command line argument error: %s\n", err)
		os.Exit(1)
	}

	wg := sync.WaitGroup{}
	outPath := outputPath(opt)
	if len(outPath) > 0 {
		f, ferr := os.OpenFile(outPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
		if ferr != nil {
			fmt.Println(ferr)
			os.Exit(1)
		}
		defer func(f *os.File) {
			if cerr := f.Close(); cerr != nil {
				fmt.Println(cerr)
			}
		}(f)
		util.ListenWrite(opt, f, &wg)
	} else {
		util.ListenWrite(opt, nil, &wg)
	}
	defer util.Close()

	go util.ListenLabel()
	defer util.CloseLabel()

	w := util.NewWriter()
	runErr := run(opt, &w)
	w.Close()
	wg.Wait()

	if runErr != nil {
		fmt.Printf("Error: %s\n", runErr)
		os.Exit(1)
	}
}
