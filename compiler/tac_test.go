package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstruction_CopyString(t *testing.T) {
	assert.Equal(t, "t0 := 1", Copy("t0", "1").String())
}

func TestInstruction_BinaryString(t *testing.T) {
	assert.Equal(t, "t0 := t1 + t2", Binary("t0", "t1", OpAdd, "t2").String())
}

func TestInstruction_UnaryString(t *testing.T) {
	assert.Equal(t, "t0 := !t1", Unary("t0", OpNot, "t1").String())
	assert.Equal(t, "t0 := -t1", Unary("t0", OpNeg, "t1").String())
}

func TestInstruction_LabelAndGoto(t *testing.T) {
	assert.Equal(t, "STARTWHILE_0:", Label("STARTWHILE_0").String())
	assert.Equal(t, "GOTO ENDWHILE_0", Goto("ENDWHILE_0").String())
}

func TestInstruction_IfGoto(t *testing.T) {
	assert.Equal(t, "IF t0 > 0 GOTO LABEL_TRUE_0", IfGoto("t0", "LABEL_TRUE_0").String())
}

func TestInstruction_ParamCallReturn(t *testing.T) {
	assert.Equal(t, "PARAM t0", ParamInstr("t0").String())
	assert.Equal(t, "CALL add,3", Call("add", 3).String())
	assert.Equal(t, "RETURN t0", Return("t0").String())
	assert.Equal(t, "RETURN", Return("").String())
}

func TestInstruction_FunctionBoundaries(t *testing.T) {
	assert.Equal(t, "FUNCTION main:", FunctionBegin("main").String())
	assert.Equal(t, "END FUNCTION main", FunctionEnd("main").String())
}

func TestTACProgram_StringJoinsLines(t *testing.T) {
	p := &TACProgram{}
	p.Add(FunctionBegin("main"))
	p.Add(Copy("t0", "1"))
	p.Add(FunctionEnd("main"))
	assert.Equal(t, "FUNCTION main:\nt0 := 1\nEND FUNCTION main", p.String())
}

func TestQuoteString_EscapesBackslashAndQuote(t *testing.T) {
	assert.Equal(t, `"hi \"there\""`, quoteString(`hi "there"`))
	assert.Equal(t, `"a\\b"`, quoteString(`a\b`))
}
