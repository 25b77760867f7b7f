package mips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"compiscript/compiler"
)

func TestGenerate_EmitsHeaderAndFunctionLabel(t *testing.T) {
	prog := &compiler.TACProgram{}
	prog.Add(compiler.FunctionBegin("main"))
	prog.Add(compiler.Copy("t0", "1"))
	prog.Add(compiler.Return(""))
	prog.Add(compiler.FunctionEnd("main"))

	out := Generate(prog)
	assert.True(t, strings.Contains(out, ".globl main"))
	assert.True(t, strings.Contains(out, "main:"))
	assert.True(t, strings.Contains(out, "li $t0, 1"))
	assert.True(t, strings.Contains(out, "jr $ra"))
}

func TestGenerate_BinaryAddEmitsLoadsAndAdd(t *testing.T) {
	prog := &compiler.TACProgram{}
	prog.Add(compiler.Binary("t2", "t0", compiler.OpAdd, "t1"))

	out := Generate(prog)
	assert.True(t, strings.Contains(out, "add $t0, $t1, $t2"))
}

func TestGenerate_CallEmitsJalAndStackCleanup(t *testing.T) {
	prog := &compiler.TACProgram{}
	prog.Add(compiler.ParamInstr("1"))
	prog.Add(compiler.Call("add", 1))

	out := Generate(prog)
	assert.True(t, strings.Contains(out, "jal add"))
	assert.True(t, strings.Contains(out, "add $sp, $sp, 4"))
}

func TestMangle_ReplacesBracketsAndMinus(t *testing.T) {
	assert.Equal(t, "fp__1_", mangle("fp[-1]"))
	assert.Equal(t, "G_4_", mangle("G[4]"))
}
