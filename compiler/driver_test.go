package compiler

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTempSource(t *testing.T, src string) string {
	f, err := os.CreateTemp(t.TempDir(), "*.cps")
	assert.Nil(t, err)
	_, err = f.WriteString(src)
	assert.Nil(t, err)
	assert.Nil(t, f.Close())
	return f.Name()
}

func TestCompile_ValidProgramProducesTAC(t *testing.T) {
	path := writeTempSource(t, `
		function add(a:integer, b:integer):integer { return a+b; }
		let x:integer = add(1, 2);
	`)
	result, err := Compile(path, CompileOptions{})
	assert.Nil(t, err)
	assert.False(t, result.Diagnostics.HasErrors())
	assert.NotNil(t, result.TAC)
	assert.Contains(t, result.TAC.String(), "FUNCTION add:")
}

func TestCompile_InvalidProgramReportsDiagnosticsAndNoTAC(t *testing.T) {
	path := writeTempSource(t, `print(y);`)
	result, err := Compile(path, CompileOptions{})
	assert.Nil(t, err)
	assert.True(t, result.Diagnostics.HasErrors())
	assert.Nil(t, result.TAC)
}

func TestCompile_MissingFileReturnsError(t *testing.T) {
	_, err := Compile("/no/such/file.cps", CompileOptions{})
	assert.NotNil(t, err)
}
