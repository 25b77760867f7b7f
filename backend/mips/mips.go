// Package mips turns a generated TAC program into straight-line MIPS32
// assembly. This backend stays deliberately thin: every operand is
// reloaded before use and stored back immediately after, trading
// register efficiency for a direct one-instruction-in, few-lines-out
// mapping that is easy to read against the TAC it came from.
package mips

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"compiscript/compiler"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// mangle turns a TAC operand string ("fp[-1]", "G[4]", "t0[12]", ...)
// into a syntactically valid MIPS label, since bracketed addressing
// forms are not valid assembler identifiers.
func mangle(operand string) string {
	return unsafeNameChars.ReplaceAllString(operand, "_")
}

func isIntLiteral(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// Generator accumulates emitted assembly text line by line.
type Generator struct {
	lines []string
}

// Generate renders prog as a single MIPS32 assembly listing.
func Generate(prog *compiler.TACProgram) string {
	g := &Generator{}
	g.emit(".data")
	g.emit("newline: .asciiz \"\\n\"")
	g.emit(".text")
	g.emit(".globl main")
	for _, in := range prog.Instructions {
		g.genInstruction(in)
	}
	return strings.Join(g.lines, "\n") + "\n"
}

func (g *Generator) emit(line string) {
	g.lines = append(g.lines, line)
}

func (g *Generator) emitf(format string, args ...interface{}) {
	g.emit(fmt.Sprintf(format, args...))
}

// loadOperand emits code that leaves operand's value in reg, handling
// integer literals, quoted strings (loaded by address) and symbolic
// locations uniformly.
func (g *Generator) loadOperand(reg, operand string) {
	switch {
	case isIntLiteral(operand):
		g.emitf("li %s, %s", reg, operand)
	case strings.HasPrefix(operand, `"`):
		g.emitf("la %s, %s", reg, mangle(operand))
	default:
		g.emitf("lw %s, %s", reg, mangle(operand))
	}
}

func (g *Generator) storeOperand(operand, reg string) {
	g.emitf("sw %s, %s", reg, mangle(operand))
}

func (g *Generator) genInstruction(in compiler.Instruction) {
	switch in.Form {
	case compiler.FormCopy:
		g.emitf("# %s", in.String())
		g.loadOperand("$t0", in.Arg1)
		g.storeOperand(in.Result, "$t0")
	case compiler.FormBinary:
		g.emitf("# %s", in.String())
		g.loadOperand("$t1", in.Arg1)
		g.loadOperand("$t2", in.Arg2)
		g.emitf("%s $t0, $t1, $t2", mipsBinaryOp(in.Op))
		g.storeOperand(in.Result, "$t0")
	case compiler.FormUnary:
		g.emitf("# %s", in.String())
		g.loadOperand("$t1", in.Arg1)
		if in.Op == compiler.OpNeg {
			g.emit("sub $t0, $zero, $t1")
		} else {
			g.emit("seq $t0, $t1, $zero")
		}
		g.storeOperand(in.Result, "$t0")
	case compiler.FormLabel:
		g.emitf("%s:", mangle(in.Arg1))
	case compiler.FormGoto:
		g.emitf("j %s", mangle(in.Arg1))
	case compiler.FormIfGoto:
		g.loadOperand("$t0", in.Arg1)
		g.emitf("bgtz $t0, %s", mangle(in.Result))
	case compiler.FormParam:
		g.loadOperand("$a0", in.Arg1)
		g.emit("sub $sp, $sp, 4")
		g.emit("sw $a0, 0($sp)")
	case compiler.FormCall:
		g.emitf("jal %s", mangle(in.Arg1))
		if in.N > 0 {
			g.emitf("add $sp, $sp, %d", in.N*4)
		}
	case compiler.FormReturn:
		if in.Arg1 != "" {
			g.loadOperand("$v0", in.Arg1)
		}
		g.emit("jr $ra")
	case compiler.FormFunctionBegin:
		g.emitf("%s:", mangle(in.Arg1))
	case compiler.FormFunctionEnd:
		g.emitf("# end %s", mangle(in.Arg1))
	}
}

func mipsBinaryOp(op compiler.Op) string {
	switch op {
	case compiler.OpAdd:
		return "add"
	case compiler.OpSub:
		return "sub"
	case compiler.OpMul:
		return "mul"
	case compiler.OpDiv:
		return "div"
	case compiler.OpMod:
		return "rem"
	case compiler.OpEq:
		return "seq"
	case compiler.OpNeq:
		return "sne"
	case compiler.OpLt:
		return "slt"
	case compiler.OpLe:
		return "sle"
	case compiler.OpGt:
		return "sgt"
	case compiler.OpGe:
		return "sge"
	case compiler.OpAnd:
		return "and"
	case compiler.OpOr:
		return "or"
	default:
		return "nop"
	}
}
