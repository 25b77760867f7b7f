package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func generateSource(t *testing.T, src string) *TACProgram {
	tk := NewTokenizer()
	tokens, err := tk.Tokenize(strings.NewReader(src))
	assert.Nil(t, err)
	p := NewParser(tokens)
	prog, err := p.ParseProgram()
	assert.Nil(t, err)
	an := NewAnalyzer()
	diags := an.Analyze(prog)
	assert.False(t, diags.HasErrors())
	return NewTACGen(an).Generate(prog)
}

func TestTACGen_FreeFunctionCallEmitsParamsThenCall(t *testing.T) {
	tac := generateSource(t, `
		function add(a:integer, b:integer):integer { return a+b; }
		let x:integer = add(1, 2);
	`)
	text := tac.String()
	assert.Contains(t, text, "FUNCTION add:")
	assert.Contains(t, text, "PARAM 1")
	assert.Contains(t, text, "PARAM 2")
	assert.Contains(t, text, "CALL add,2")
}

func TestTACGen_MethodCallPassesReceiverAsFirstParam(t *testing.T) {
	tac := generateSource(t, `
		class Calc {
			function add(a:integer, b:integer):integer { return a+b; }
		}
		let o:Calc = new Calc();
		let r:integer = o.add(1, 2);
	`)
	text := tac.String()
	assert.Contains(t, text, "FUNCTION add:")
	assert.Contains(t, text, "PARAM 1")
	assert.Contains(t, text, "PARAM 2")
	assert.Contains(t, text, "CALL add,3")
}

func TestTACGen_ConstructorIsNamedNewPlusClass(t *testing.T) {
	tac := generateSource(t, `
		class Persona {
			let nombre:string;
			function constructor(n:string) { this.nombre = n; }
		}
		let p:Persona = new Persona("ada");
	`)
	text := tac.String()
	assert.Contains(t, text, "FUNCTION newPersona:")
	assert.Contains(t, text, "CALL newPersona,1")
}

func TestTACGen_WhileLoopUsesStartTrueEndLabelFamily(t *testing.T) {
	tac := generateSource(t, `
		let i:integer = 0;
		while (i < 10) {
			i = i + 1;
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "STARTWHILE_0:")
	assert.Contains(t, text, "LABEL_TRUE_0:")
	assert.Contains(t, text, "ENDWHILE_0:")
	assert.Contains(t, text, "GOTO STARTWHILE_0")
}

func TestTACGen_IfWithoutElseCollapsesFalseIntoEnd(t *testing.T) {
	tac := generateSource(t, `
		let x:integer = 0;
		if (x < 1) { x = 2; }
	`)
	text := tac.String()
	assert.Contains(t, text, "IF_TRUE_0:")
	assert.Contains(t, text, "IF_END_0:")
	assert.NotContains(t, text, "IF_FALSE_0:")
}

func TestTACGen_IfElseEmitsDistinctFalseLabel(t *testing.T) {
	tac := generateSource(t, `
		let x:integer = 0;
		if (x < 1) { x = 2; } else { x = 3; }
	`)
	text := tac.String()
	assert.Contains(t, text, "IF_TRUE_0:")
	assert.Contains(t, text, "IF_FALSE_0:")
	assert.Contains(t, text, "IF_END_0:")
}

func TestTACGen_SwitchEmitsDispatchThenFallthroughBodies(t *testing.T) {
	tac := generateSource(t, `
		let x:integer = 1;
		switch (x) {
			case 1: print(x);
			case 2: print(x); break;
			default: print(x);
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "SWITCH_CASE_0_0:")
	assert.Contains(t, text, "SWITCH_CASE_0_1:")
	assert.Contains(t, text, "SWITCH_DEFAULT_0:")
	assert.Contains(t, text, "SWITCH_END_0:")

	caseIdx := strings.Index(text, "SWITCH_CASE_0_0:")
	nextCaseIdx := strings.Index(text, "SWITCH_CASE_0_1:")
	assert.True(t, caseIdx < nextCaseIdx)
	between := text[caseIdx:nextCaseIdx]
	assert.NotContains(t, between, "GOTO SWITCH_END_0")
}

func TestTACGen_BreakInsideSwitchTargetsSwitchEnd(t *testing.T) {
	tac := generateSource(t, `
		let x:integer = 1;
		switch (x) {
			case 1: break;
		}
	`)
	assert.Contains(t, tac.String(), "GOTO SWITCH_END_0")
}

func TestTACGen_ShortCircuitAndValueContextMaterializesTemp(t *testing.T) {
	tac := generateSource(t, `
		let a:boolean = true;
		let b:boolean = false;
		let c:boolean = a && b;
	`)
	text := tac.String()
	assert.Contains(t, text, "AND_CONT_0:")
	assert.Contains(t, text, "AND_END_0:")
}

func TestTACGen_ShortCircuitOrValueContextMaterializesTemp(t *testing.T) {
	tac := generateSource(t, `
		let a:boolean = true;
		let b:boolean = false;
		let c:boolean = a || b;
	`)
	text := tac.String()
	assert.Contains(t, text, "OR_TRUE_0:")
	assert.Contains(t, text, "OR_CONT_0:")
	assert.Contains(t, text, "OR_END_0:")
}

func TestTACGen_IfConditionWithAndNeverMaterializesBoolTemp(t *testing.T) {
	tac := generateSource(t, `
		let a:integer = 1;
		let b:integer = 2;
		if (a < 2 && b < 3) {
			a = 0;
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "AND_CONT_")
	assert.NotContains(t, text, "AND_END_")
}

func TestTACGen_ForLoopContinueTargetsStepBeforeRetest(t *testing.T) {
	tac := generateSource(t, `
		for (let i:integer = 0; i < 5; i = i + 1) {
			continue;
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "FORSTEP_0:")
	assert.Contains(t, text, "GOTO FORSTEP_0")
}

func TestTACGen_ForeachLowersToIndexedWhileWithLenIntrinsic(t *testing.T) {
	tac := generateSource(t, `
		let xs:integer[] = [1,2,3];
		foreach (x in xs) {
			print(x);
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "CALL len,1")
	assert.Contains(t, text, "STARTWHILE_0:")
	assert.Contains(t, text, "FOREACHSTEP_0:")
}

func TestTACGen_TryCatchLowersOnlyTryBody(t *testing.T) {
	tac := generateSource(t, `
		try {
			print(1);
		} catch (e) {
			print(2);
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "PARAM 1")
	assert.NotContains(t, text, "PARAM 2")
}

func TestTACGen_GlobalVarDeclGetsGlobalOffsetLocation(t *testing.T) {
	tac := generateSource(t, `
		let x:integer = 1;
		let y:integer = 2;
	`)
	text := tac.String()
	assert.Contains(t, text, "G[0] := 1")
	assert.Contains(t, text, "G[4] := 2")
}

func TestTACGen_FieldAssignmentUsesByteOffsetAddressing(t *testing.T) {
	tac := generateSource(t, `
		class Persona {
			let nombre:string;
			let edad:integer;
			function constructor(n:string, e:integer) {
				this.nombre = n;
				this.edad = e;
			}
		}
	`)
	text := tac.String()
	assert.Contains(t, text, "CALL alloc,1")
	assert.Contains(t, text, "[0]")
	assert.Contains(t, text, "[4]")
}
