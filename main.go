package main

import (
	"flag"
	"fmt"
	"os"

	"compiscript/backend/mips"
	"compiscript/compiler"
)

var (
	dumpSymbols = flag.Bool("dump-symbols", false, "print the symbol table after a successful analysis")
	mipsOut     = flag.String("mips", "", "path to write generated MIPS32 assembly to, on success")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Println("usage: compiscript [--dump-symbols] [--mips path] <source.cps>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	result, err := compiler.Compile(path, compiler.CompileOptions{DumpSymbols: *dumpSymbols})
	if err != nil {
		fmt.Printf("[ERROR] %s: %v\n", path, err)
		os.Exit(2)
	}

	compiler.PrintReport(path, result)
	if result.Diagnostics.HasErrors() {
		os.Exit(1)
	}

	if *mipsOut != "" {
		asm := mips.Generate(result.TAC)
		if err := os.WriteFile(*mipsOut, []byte(asm), 0644); err != nil {
			fmt.Printf("[ERROR] writing %s: %v\n", *mipsOut, err)
			os.Exit(2)
		}
		fmt.Printf("compiler: wrote MIPS32 assembly to %s\n", *mipsOut)
	}
}
