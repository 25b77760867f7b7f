package compiler

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// binaryOpTokens orders multi-character operators before the
// single-character ones they prefix-overlap with ("<=" before "<"),
// mirroring TACParser.py's per-operator substring scan.
var binaryOpTokens = []struct {
	text string
	op   Op
}{
	{"==", OpEq},
	{"!=", OpNeq},
	{"<=", OpLe},
	{">=", OpGe},
	{"&&", OpAnd},
	{"||", OpOr},
	{"+", OpAdd},
	{"-", OpSub},
	{"*", OpMul},
	{"/", OpDiv},
	{"%", OpMod},
	{"<", OpLt},
	{">", OpGt},
}

// ParseTAC parses the textual contract emitted by Instruction.String(),
// one instruction per line, skipping blank lines and "//" comments.
func ParseTAC(r io.Reader) (*TACProgram, []string) {
	prog := &TACProgram{}
	var errs []string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		in, err := parseTACLine(line)
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %s", lineNum, err))
			continue
		}
		prog.Add(in)
	}
	return prog, errs
}

func parseTACLine(line string) (Instruction, error) {
	switch {
	case strings.HasPrefix(line, "FUNCTION ") && strings.HasSuffix(line, ":"):
		name := strings.TrimSuffix(strings.TrimPrefix(line, "FUNCTION "), ":")
		return FunctionBegin(name), nil
	case strings.HasPrefix(line, "END FUNCTION "):
		return FunctionEnd(strings.TrimPrefix(line, "END FUNCTION ")), nil
	case strings.HasPrefix(line, "GOTO "):
		return Goto(strings.TrimPrefix(line, "GOTO ")), nil
	case strings.HasPrefix(line, "IF ") && strings.Contains(line, " > 0 GOTO "):
		rest := strings.TrimPrefix(line, "IF ")
		parts := strings.SplitN(rest, " > 0 GOTO ", 2)
		if len(parts) != 2 {
			return Instruction{}, fmt.Errorf("malformed IF...GOTO: %q", line)
		}
		return IfGoto(parts[0], parts[1]), nil
	case strings.HasPrefix(line, "PARAM "):
		return ParamInstr(strings.TrimPrefix(line, "PARAM ")), nil
	case strings.HasPrefix(line, "CALL "):
		rest := strings.TrimPrefix(line, "CALL ")
		idx := strings.LastIndex(rest, ",")
		if idx < 0 {
			return Instruction{}, fmt.Errorf("malformed CALL: %q", line)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest[idx+1:]))
		if err != nil {
			return Instruction{}, fmt.Errorf("malformed CALL argument count: %q", line)
		}
		return Call(strings.TrimSpace(rest[:idx]), n), nil
	case line == "RETURN":
		return Return(""), nil
	case strings.HasPrefix(line, "RETURN "):
		return Return(strings.TrimPrefix(line, "RETURN ")), nil
	case strings.Contains(line, " := "):
		return parseAssignment(line)
	case strings.HasSuffix(line, ":"):
		return Label(strings.TrimSuffix(line, ":")), nil
	default:
		return Instruction{}, fmt.Errorf("unrecognized instruction: %q", line)
	}
}

func parseAssignment(line string) (Instruction, error) {
	parts := strings.SplitN(line, " := ", 2)
	if len(parts) != 2 {
		return Instruction{}, fmt.Errorf("malformed assignment: %q", line)
	}
	result := strings.TrimSpace(parts[0])
	rhs := strings.TrimSpace(parts[1])

	if strings.HasPrefix(rhs, "!") {
		return Unary(result, OpNot, rhs[1:]), nil
	}
	if strings.HasPrefix(rhs, "-") && !strings.Contains(rhs[1:], " ") {
		return Unary(result, OpNeg, rhs[1:]), nil
	}
	for _, cand := range binaryOpTokens {
		token := " " + cand.text + " "
		if i := strings.Index(rhs, token); i >= 0 {
			left := strings.TrimSpace(rhs[:i])
			right := strings.TrimSpace(rhs[i+len(token):])
			return Binary(result, left, cand.op, right), nil
		}
	}
	return Copy(result, rhs), nil
}
