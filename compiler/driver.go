package compiler

import (
	"fmt"
	"os"
)

// CompileOptions controls the optional stages of Compile beyond the
// mandatory tokenize/parse/analyze/generate pipeline.
type CompileOptions struct {
	DumpSymbols bool
}

// CompileResult carries every artifact a caller might want after a run:
// the diagnostics (possibly non-empty), the symbol table, and — only
// when analysis found no errors — the generated TAC program.
type CompileResult struct {
	Diagnostics *Diagnostics
	Table       *SymbolTable
	TAC         *TACProgram
}

// Compile runs the full front-to-middle pipeline over the source file at
// path: tokenize, parse, analyze, and, if analysis reports no errors,
// generate TAC. It mirrors Compile(path string) error's staged
// println-per-phase shape, generalized to return diagnostics instead of
// stopping at the first failing stage, since analysis here recovers and
// accumulates errors rather than failing fast.
func Compile(path string, opts CompileOptions) (*CompileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fmt.Printf("compiler: start tokenizing %s\n", path)
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(f)
	if err != nil {
		return nil, fmt.Errorf("tokenize %s: %w", path, err)
	}

	fmt.Println("compiler: start parsing")
	p := NewParser(tokens)
	prog, err := p.ParseProgram()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	fmt.Println("compiler: start semantic analysis")
	an := NewAnalyzer()
	diags := an.Analyze(prog)
	result := &CompileResult{Diagnostics: diags, Table: an.Table()}
	if diags.HasErrors() {
		return result, nil
	}

	if opts.DumpSymbols {
		fmt.Println("compiler: symbol table")
		an.Table().Dump(os.Stdout)
	}

	fmt.Println("compiler: start TAC generation")
	result.TAC = NewTACGen(an).Generate(prog)
	return result, nil
}

// PrintReport renders the [OK]/[ERROR] banner and, on failure, each
// diagnostic as "Line L:C - message", per Driver.py's reporting shape.
func PrintReport(path string, result *CompileResult) {
	if result.Diagnostics.HasErrors() {
		fmt.Printf("[ERROR] %s: semantic analysis failed with %d error(s)\n", path, result.Diagnostics.Len())
		for _, d := range result.Diagnostics.Items() {
			fmt.Printf("  %s: %s\n", d.Kind, d.String())
		}
		return
	}
	fmt.Printf("[OK] %s: compiled successfully\n", path)
}
