// Kyo CLI - loads a compiled .kyc module and executes it.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/kyo/vm"

	_ "github.com/tliron/commonlog/simple"
)

const (
	exitOK     = 0
	exitGuest  = 1 // unhandled guest exception
	exitEngine = 2 // loader failure or engine fault
)

func main() {
	verbose := flag.Bool("v", false, "Verbose engine logging")
	disasm := flag.Bool("disasm", false, "Print the module's disassembly instead of running it")
	export := flag.String("export", "", "Write a canonical-CBOR module dump to the given path instead of running")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: kyo [options] program.kyc\n\n")
		fmt.Fprintf(os.Stderr, "Loads a compiled Kyo bytecode module and executes it.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExit status:\n")
		fmt.Fprintf(os.Stderr, "  0  the module ran to completion\n")
		fmt.Fprintf(os.Stderr, "  1  an unhandled exception reached the root frame\n")
		fmt.Fprintf(os.Stderr, "  2  the module could not be loaded, or the engine faulted\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitEngine)
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	path := flag.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyo: %v\n", err)
		os.Exit(exitEngine)
	}

	mod, err := vm.LoadModule(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyo: %s: %v\n", path, err)
		os.Exit(exitEngine)
	}

	if *disasm {
		printDisassembly(mod.Code)
		os.Exit(exitOK)
	}

	if *export != "" {
		dump, err := vm.MarshalModuleDump(vm.DumpModule(mod))
		if err != nil {
			fmt.Fprintf(os.Stderr, "kyo: export: %v\n", err)
			os.Exit(exitEngine)
		}
		if err := os.WriteFile(*export, dump, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "kyo: export: %v\n", err)
			os.Exit(exitEngine)
		}
		os.Exit(exitOK)
	}

	machine := vm.NewMachine()
	exc, err := machine.RunModule(mod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kyo: engine fault: %v\n", err)
		os.Exit(exitEngine)
	}
	if exc != nil {
		fmt.Fprint(os.Stderr, vm.FormatTraceback(exc))
		os.Exit(exitGuest)
	}
	os.Exit(exitOK)
}

// printDisassembly walks the code-object tree depth-first, module body
// first.
func printDisassembly(code *vm.CodeObject) {
	fmt.Printf("%s:\n%s", code.Repr(), vm.DisassembleCode(code))
	for _, konst := range code.Consts {
		if nested, ok := konst.(*vm.CodeObject); ok {
			fmt.Println()
			printDisassembly(nested)
		}
	}
}
