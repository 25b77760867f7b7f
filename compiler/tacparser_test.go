package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTAC_RoundTripsGeneratorOutput(t *testing.T) {
	tac := generateSource(t, `
		function add(a:integer, b:integer):integer {
			return a + b;
		}
		let x:integer = add(1, 2);
	`)
	text := tac.String()

	parsed, errs := ParseTAC(strings.NewReader(text))
	assert.Empty(t, errs)
	assert.Equal(t, tac.String(), parsed.String())
}

func TestParseTAC_Label(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("STARTWHILE_0:"))
	assert.Empty(t, errs)
	assert.Equal(t, FormLabel, prog.Instructions[0].Form)
	assert.Equal(t, "STARTWHILE_0", prog.Instructions[0].Arg1)
}

func TestParseTAC_Goto(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("GOTO ENDWHILE_0"))
	assert.Empty(t, errs)
	assert.Equal(t, FormGoto, prog.Instructions[0].Form)
	assert.Equal(t, "ENDWHILE_0", prog.Instructions[0].Arg1)
}

func TestParseTAC_IfGoto(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("IF t0 > 0 GOTO LABEL_TRUE_0"))
	assert.Empty(t, errs)
	in := prog.Instructions[0]
	assert.Equal(t, FormIfGoto, in.Form)
	assert.Equal(t, "t0", in.Arg1)
	assert.Equal(t, "LABEL_TRUE_0", in.Result)
}

func TestParseTAC_ParamCallReturn(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("PARAM t0\nCALL add,2\nRETURN t1\nRETURN"))
	assert.Empty(t, errs)
	assert.Equal(t, FormParam, prog.Instructions[0].Form)
	assert.Equal(t, FormCall, prog.Instructions[1].Form)
	assert.Equal(t, "add", prog.Instructions[1].Arg1)
	assert.Equal(t, 2, prog.Instructions[1].N)
	assert.Equal(t, FormReturn, prog.Instructions[2].Form)
	assert.Equal(t, "t1", prog.Instructions[2].Arg1)
	assert.Equal(t, FormReturn, prog.Instructions[3].Form)
	assert.Equal(t, "", prog.Instructions[3].Arg1)
}

func TestParseTAC_CopyBinaryAndUnary(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("t0 := 1\nt1 := t0 + 2\nt2 := !t1\nt3 := -t0"))
	assert.Empty(t, errs)
	assert.Equal(t, FormCopy, prog.Instructions[0].Form)
	assert.Equal(t, FormBinary, prog.Instructions[1].Form)
	assert.Equal(t, OpAdd, prog.Instructions[1].Op)
	assert.Equal(t, FormUnary, prog.Instructions[2].Form)
	assert.Equal(t, OpNot, prog.Instructions[2].Op)
	assert.Equal(t, FormUnary, prog.Instructions[3].Form)
	assert.Equal(t, OpNeg, prog.Instructions[3].Op)
}

func TestParseTAC_FunctionBoundaries(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("FUNCTION main:\nEND FUNCTION main"))
	assert.Empty(t, errs)
	assert.Equal(t, FormFunctionBegin, prog.Instructions[0].Form)
	assert.Equal(t, "main", prog.Instructions[0].Arg1)
	assert.Equal(t, FormFunctionEnd, prog.Instructions[1].Form)
	assert.Equal(t, "main", prog.Instructions[1].Arg1)
}

func TestParseTAC_SkipsBlankLinesAndComments(t *testing.T) {
	prog, errs := ParseTAC(strings.NewReader("\n// a comment\nRETURN\n\n"))
	assert.Empty(t, errs)
	assert.Equal(t, 1, len(prog.Instructions))
}

func TestParseTAC_ReportsUnrecognizedLine(t *testing.T) {
	_, errs := ParseTAC(strings.NewReader("this is not valid tac"))
	assert.NotEmpty(t, errs)
}
