package compiler

import (
	"fmt"
	"strconv"
)

// TACGen lowers an analyzed AST to a flat TAC instruction stream. Temp
// and label counters are struct fields reset at each function boundary,
// never package-level state.
type TACGen struct {
	an        *Analyzer
	classes   map[string]*ClassSymbol
	prog      *TACProgram
	locations map[*Symbol]string

	tempCounter   int
	labelCounter  int
	localCounter  int
	globalOffset  int
	atGlobalScope bool

	// thisLoc is where `this`/`super` read from in the function currently
	// being lowered: the passed-in receiver (fp[-1]) for an ordinary
	// method, or a freshly allocated local for a constructor, which is
	// never passed a receiver.
	thisLoc string

	breakStack []string
	loopStack  []loopFrame
}

type loopFrame struct {
	continueLabel string
	breakLabel    string
}

func NewTACGen(an *Analyzer) *TACGen {
	return &TACGen{
		an:        an,
		classes:   an.classes,
		prog:      &TACProgram{},
		locations: make(map[*Symbol]string),
	}
}

// Generate lowers prog into a flat TAC stream: one FUNCTION block per
// free function and per class method/constructor, plus a synthetic
// FUNCTION main wrapping every top-level statement that is not a class or
// function declaration (top-level variable declarations included).
func (g *TACGen) Generate(prog *Program) *TACProgram {
	var globals []Stmt
	for _, stmt := range prog.Stmts {
		switch n := stmt.(type) {
		case *FuncDecl:
			sym, _ := g.an.table.Resolve(n.Name)
			g.genFunctionNamed(n.Name, n, sym.Func, nil)
		case *ClassDecl:
			g.genClass(n)
		default:
			globals = append(globals, stmt)
		}
	}

	g.tempCounter, g.labelCounter, g.localCounter = 0, 0, 0
	g.atGlobalScope = true
	g.prog.Add(FunctionBegin("main"))
	for _, stmt := range globals {
		g.genStmt(stmt)
	}
	g.prog.Add(FunctionEnd("main"))
	g.atGlobalScope = false
	return g.prog
}

func (g *TACGen) genClass(cd *ClassDecl) {
	cls := g.classes[cd.Name]
	for _, m := range cd.Methods {
		msym := cls.Methods[m.Name]
		if msym != nil {
			g.genFunctionNamed(m.Name, m, msym.Func, cls)
		}
	}

	ctorAst := cd.Constructor
	if ctorAst == nil {
		ctorAst = cd.Init
	}
	if ctorAst == nil {
		// No declared constructor or init: synthesize the implicit
		// zero-argument one so `new C()` still resolves to a FUNCTION block.
		ctorAst = &FuncDecl{Body: &BlockStmt{}}
	}
	var fsym *FunctionSymbol
	if cls.Constructor != nil {
		fsym = cls.Constructor.Func
	} else {
		fsym = &FunctionSymbol{Return: Void}
	}
	g.genConstructor("new"+cls.Name, ctorAst, fsym, cls)
}

func (g *TACGen) genFunctionNamed(name string, fd *FuncDecl, fsym *FunctionSymbol, cls *ClassSymbol) {
	g.tempCounter, g.labelCounter, g.localCounter = 0, 0, 0
	g.atGlobalScope = false

	i := 1
	if cls != nil {
		g.thisLoc = "fp[-1]"
		i = 2
	}
	for _, psym := range fsym.Params {
		g.locations[psym] = fmt.Sprintf("fp[-%d]", i)
		i++
	}

	g.prog.Add(FunctionBegin(name))
	for _, stmt := range fd.Body.Stmts {
		g.genStmt(stmt)
	}
	g.prog.Add(FunctionEnd(name))
}

// genConstructor lowers a class's constructor/init body. Unlike an
// ordinary method, `new C(args)` passes only args (CALL newC,argc, no
// receiver), so the constructor allocates its own object up front and
// binds it as `this` for the rest of the body, returning it at the end.
func (g *TACGen) genConstructor(name string, fd *FuncDecl, fsym *FunctionSymbol, cls *ClassSymbol) {
	g.tempCounter, g.labelCounter, g.localCounter = 0, 0, 0
	g.atGlobalScope = false

	i := 1
	for _, psym := range fsym.Params {
		g.locations[psym] = fmt.Sprintf("fp[-%d]", i)
		i++
	}

	g.prog.Add(FunctionBegin(name))
	size := len(cls.Fields) * fieldSlotSize
	g.prog.Add(ParamInstr(strconv.Itoa(size)))
	g.prog.Add(Call("alloc", 1))
	thisLoc := fmt.Sprintf("fp[%d]", g.localCounter)
	g.localCounter++
	g.prog.Add(Copy(thisLoc, "R"))
	g.thisLoc = thisLoc

	for _, stmt := range fd.Body.Stmts {
		g.genStmt(stmt)
	}
	g.prog.Add(Return(thisLoc))
	g.prog.Add(FunctionEnd(name))
}

func (g *TACGen) newTemp() string {
	t := fmt.Sprintf("t%d", g.tempCounter)
	g.tempCounter++
	return t
}

func (g *TACGen) newLabelNum() int {
	k := g.labelCounter
	g.labelCounter++
	return k
}

func (g *TACGen) locOf(sym *Symbol) string {
	if loc, ok := g.locations[sym]; ok {
		return loc
	}
	return sym.Name
}

// ---- statements ----

func (g *TACGen) genStmt(stmt Stmt) {
	switch n := stmt.(type) {
	case *VarDecl:
		g.genVarDecl(n)
	case *ExprStmt:
		g.genExpr(n.X)
	case *PrintStmt:
		v := g.genExpr(n.X)
		g.prog.Add(ParamInstr(v))
		g.prog.Add(Call("print", 1))
	case *BlockStmt:
		for _, s := range n.Stmts {
			g.genStmt(s)
		}
	case *IfStmt:
		g.genIf(n)
	case *WhileStmt:
		g.genWhile(n)
	case *DoWhileStmt:
		g.genDoWhile(n)
	case *ForStmt:
		g.genFor(n)
	case *ForeachStmt:
		g.genForeach(n)
	case *SwitchStmt:
		g.genSwitch(n)
	case *BreakStmt:
		g.prog.Add(Goto(g.breakStack[len(g.breakStack)-1]))
	case *ContinueStmt:
		g.prog.Add(Goto(g.loopStack[len(g.loopStack)-1].continueLabel))
	case *ReturnStmt:
		if n.Value == nil {
			g.prog.Add(Return(""))
		} else {
			g.prog.Add(Return(g.genExpr(n.Value)))
		}
	case *TryCatchStmt:
		// No `throw` form exists in the grammar, so the catch body is
		// unreachable; only the try body is ever executed.
		g.genStmt(n.Try)
	case *FuncDecl:
		sym, _ := g.an.table.Resolve(n.Name)
		if sym != nil && sym.Func != nil {
			g.genFunctionNamed(n.Name, n, sym.Func, nil)
		}
	}
}

func (g *TACGen) genVarDecl(n *VarDecl) {
	var loc string
	if g.atGlobalScope {
		loc = fmt.Sprintf("G[%d]", g.globalOffset)
		g.globalOffset += fieldSlotSize
	} else {
		loc = fmt.Sprintf("fp[%d]", g.localCounter)
		g.localCounter++
	}
	g.locations[n.resolved] = loc
	if n.Init != nil {
		val := g.genExpr(n.Init)
		g.prog.Add(Copy(loc, val))
	}
}

func (g *TACGen) pushLoop(continueLabel, breakLabel string) {
	g.loopStack = append(g.loopStack, loopFrame{continueLabel, breakLabel})
	g.breakStack = append(g.breakStack, breakLabel)
}

func (g *TACGen) popLoop() {
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
}

func (g *TACGen) genIf(n *IfStmt) {
	k := g.newLabelNum()
	trueLabel := fmt.Sprintf("IF_TRUE_%d", k)
	endLabel := fmt.Sprintf("IF_END_%d", k)
	falseLabel := endLabel
	if n.Else != nil {
		falseLabel = fmt.Sprintf("IF_FALSE_%d", k)
	}
	g.genCond(n.Cond, trueLabel, falseLabel)
	g.prog.Add(Label(trueLabel))
	g.genStmt(n.Then)
	if n.Else != nil {
		g.prog.Add(Goto(endLabel))
		g.prog.Add(Label(falseLabel))
		g.genStmt(n.Else)
	}
	g.prog.Add(Label(endLabel))
}

func (g *TACGen) genWhile(n *WhileStmt) {
	k := g.newLabelNum()
	startLabel := fmt.Sprintf("STARTWHILE_%d", k)
	trueLabel := fmt.Sprintf("LABEL_TRUE_%d", k)
	endLabel := fmt.Sprintf("ENDWHILE_%d", k)

	g.prog.Add(Label(startLabel))
	g.genCond(n.Cond, trueLabel, endLabel)
	g.prog.Add(Label(trueLabel))
	g.pushLoop(startLabel, endLabel)
	g.genStmt(n.Body)
	g.popLoop()
	g.prog.Add(Goto(startLabel))
	g.prog.Add(Label(endLabel))
}

func (g *TACGen) genDoWhile(n *DoWhileStmt) {
	k := g.newLabelNum()
	bodyLabel := fmt.Sprintf("DOWHILE_BODY_%d", k)
	condLabel := fmt.Sprintf("DOWHILE_COND_%d", k)
	endLabel := fmt.Sprintf("DOWHILE_END_%d", k)

	g.prog.Add(Label(bodyLabel))
	g.pushLoop(condLabel, endLabel)
	g.genStmt(n.Body)
	g.popLoop()
	g.prog.Add(Label(condLabel))
	g.genCond(n.Cond, bodyLabel, endLabel)
	g.prog.Add(Label(endLabel))
}

func (g *TACGen) genFor(n *ForStmt) {
	if n.Init != nil {
		g.genStmt(n.Init)
	}
	k := g.newLabelNum()
	startLabel := fmt.Sprintf("STARTWHILE_%d", k)
	trueLabel := fmt.Sprintf("LABEL_TRUE_%d", k)
	stepLabel := fmt.Sprintf("FORSTEP_%d", k)
	endLabel := fmt.Sprintf("ENDWHILE_%d", k)

	g.prog.Add(Label(startLabel))
	if n.Cond != nil {
		g.genCond(n.Cond, trueLabel, endLabel)
	} else {
		g.prog.Add(Goto(trueLabel))
	}
	g.prog.Add(Label(trueLabel))
	g.pushLoop(stepLabel, endLabel)
	g.genStmt(n.Body)
	g.popLoop()
	g.prog.Add(Label(stepLabel))
	if n.Step != nil {
		g.genStmt(n.Step)
	}
	g.prog.Add(Goto(startLabel))
	g.prog.Add(Label(endLabel))
}

func (g *TACGen) genForeach(n *ForeachStmt) {
	arrLoc := g.genExpr(n.Iterable)
	idx := g.newTemp()
	g.prog.Add(Copy(idx, "0"))
	g.prog.Add(ParamInstr(arrLoc))
	g.prog.Add(Call("len", 1))
	lenT := g.newTemp()
	g.prog.Add(Copy(lenT, "R"))

	k := g.newLabelNum()
	startLabel := fmt.Sprintf("STARTWHILE_%d", k)
	trueLabel := fmt.Sprintf("LABEL_TRUE_%d", k)
	stepLabel := fmt.Sprintf("FOREACHSTEP_%d", k)
	endLabel := fmt.Sprintf("ENDWHILE_%d", k)

	g.prog.Add(Label(startLabel))
	condT := g.newTemp()
	g.prog.Add(Binary(condT, idx, OpLt, lenT))
	g.prog.Add(IfGoto(condT, trueLabel))
	g.prog.Add(Goto(endLabel))
	g.prog.Add(Label(trueLabel))

	var loopVarLoc string
	if g.atGlobalScope {
		loopVarLoc = fmt.Sprintf("G[%d]", g.globalOffset)
		g.globalOffset += fieldSlotSize
	} else {
		loopVarLoc = fmt.Sprintf("fp[%d]", g.localCounter)
		g.localCounter++
	}
	g.locations[n.resolved] = loopVarLoc
	elemT := g.newTemp()
	g.prog.Add(Copy(elemT, fmt.Sprintf("%s[%s]", arrLoc, idx)))
	g.prog.Add(Copy(loopVarLoc, elemT))

	g.pushLoop(stepLabel, endLabel)
	g.genStmt(n.Body)
	g.popLoop()
	g.prog.Add(Label(stepLabel))
	g.prog.Add(Binary(idx, idx, OpAdd, "1"))
	g.prog.Add(Goto(startLabel))
	g.prog.Add(Label(endLabel))
}

func (g *TACGen) genSwitch(n *SwitchStmt) {
	subjVal := g.genExpr(n.Subject)
	k := g.newLabelNum()
	endLabel := fmt.Sprintf("SWITCH_END_%d", k)

	caseLabels := make([]string, len(n.Cases))
	for i, c := range n.Cases {
		valLoc := g.genExpr(c.Value)
		eqT := g.newTemp()
		g.prog.Add(Binary(eqT, subjVal, OpEq, valLoc))
		lbl := fmt.Sprintf("SWITCH_CASE_%d_%d", k, i)
		caseLabels[i] = lbl
		g.prog.Add(IfGoto(eqT, lbl))
	}
	defaultLabel := fmt.Sprintf("SWITCH_DEFAULT_%d", k)
	if n.Default != nil {
		g.prog.Add(Goto(defaultLabel))
	} else {
		g.prog.Add(Goto(endLabel))
	}

	g.breakStack = append(g.breakStack, endLabel)
	for i, c := range n.Cases {
		g.prog.Add(Label(caseLabels[i]))
		for _, s := range c.Body {
			g.genStmt(s)
		}
	}
	if n.Default != nil {
		g.prog.Add(Label(defaultLabel))
		for _, s := range n.Default {
			g.genStmt(s)
		}
	}
	g.breakStack = g.breakStack[:len(g.breakStack)-1]
	g.prog.Add(Label(endLabel))
}

// ---- expressions ----

// genExpr lowers e to an operand: either a bare literal/location string
// (for leaves) or a freshly emitted temporary (for composite nodes), one
// fresh temporary per subexpression result.
func (g *TACGen) genExpr(e Expr) string {
	switch n := e.(type) {
	case *IntegerLit:
		return strconv.FormatInt(n.Value, 10)
	case *StringLit:
		return quoteString(n.Value)
	case *BoolLit:
		if n.Value {
			return "1"
		}
		return "0"
	case *NullLit:
		return "0"
	case *Identifier:
		return g.locOf(n.resolved)
	case *ThisExpr:
		return g.thisLoc
	case *SuperExpr:
		return g.thisLoc
	case *ArrayLit:
		return g.genArrayLit(n)
	case *IndexExpr:
		return g.genIndex(n)
	case *PropertyExpr:
		return g.genProperty(n)
	case *CallExpr:
		return g.genCall(n)
	case *NewExpr:
		return g.genNew(n)
	case *UnaryExpr:
		return g.genUnary(n)
	case *BinaryExpr:
		if n.Op == AndAndTP || n.Op == OrOrTP {
			return g.genBoolValue(n)
		}
		return g.genSimpleBinary(n)
	case *AssignExpr:
		return g.genAssign(n)
	case *TernaryExpr:
		return g.genTernary(n)
	default:
		return "0"
	}
}

func (g *TACGen) genArrayLit(n *ArrayLit) string {
	for _, elem := range n.Elements {
		v := g.genExpr(elem)
		g.prog.Add(ParamInstr(v))
	}
	g.prog.Add(Call("newarray", len(n.Elements)))
	t := g.newTemp()
	g.prog.Add(Copy(t, "R"))
	return t
}

func (g *TACGen) genIndex(n *IndexExpr) string {
	arrLoc := g.genExpr(n.Array)
	idxLoc := g.genExpr(n.Index)
	t := g.newTemp()
	g.prog.Add(Copy(t, fmt.Sprintf("%s[%s]", arrLoc, idxLoc)))
	return t
}

func (g *TACGen) genProperty(n *PropertyExpr) string {
	objLoc := g.genExpr(n.Object)
	field, _ := n.resolvedClass.Field(n.Name)
	t := g.newTemp()
	g.prog.Add(Copy(t, fmt.Sprintf("%s[%d]", objLoc, field.Offset)))
	return t
}

func (g *TACGen) genCall(n *CallExpr) string {
	switch callee := n.Callee.(type) {
	case *Identifier:
		for _, arg := range n.Args {
			g.prog.Add(ParamInstr(g.genExpr(arg)))
		}
		g.prog.Add(Call(callee.Name, len(n.Args)))
	case *PropertyExpr:
		objLoc := g.genExpr(callee.Object)
		g.prog.Add(ParamInstr(objLoc))
		for _, arg := range n.Args {
			g.prog.Add(ParamInstr(g.genExpr(arg)))
		}
		g.prog.Add(Call(callee.Name, 1+len(n.Args)))
	}
	t := g.newTemp()
	g.prog.Add(Copy(t, "R"))
	return t
}

func (g *TACGen) genNew(n *NewExpr) string {
	for _, arg := range n.Args {
		g.prog.Add(ParamInstr(g.genExpr(arg)))
	}
	g.prog.Add(Call("new"+n.ClassName, len(n.Args)))
	t := g.newTemp()
	g.prog.Add(Copy(t, "R"))
	return t
}

func (g *TACGen) genUnary(n *UnaryExpr) string {
	v := g.genExpr(n.Operand)
	op := OpNot
	if n.Op == MinusTP {
		op = OpNeg
	}
	t := g.newTemp()
	g.prog.Add(Unary(t, op, v))
	return t
}

func (g *TACGen) genSimpleBinary(n *BinaryExpr) string {
	left := g.genExpr(n.Left)
	right := g.genExpr(n.Right)
	t := g.newTemp()
	g.prog.Add(Binary(t, left, opFromBinaryToken(n.Op), right))
	return t
}

// genBoolValue lowers && / || in a value context: the result is
// materialized into a temporary via AND_CONT_k / OR_CONT_k.
func (g *TACGen) genBoolValue(n *BinaryExpr) string {
	t := g.newTemp()
	k := g.newLabelNum()
	left := g.genExpr(n.Left)
	endLabel := fmt.Sprintf("%s_END_%d", shortCircuitPrefix(n.Op), k)
	contLabel := fmt.Sprintf("%s_CONT_%d", shortCircuitPrefix(n.Op), k)

	if n.Op == AndAndTP {
		g.prog.Add(IfGoto(left, contLabel))
		g.prog.Add(Copy(t, "0"))
		g.prog.Add(Goto(endLabel))
		g.prog.Add(Label(contLabel))
		right := g.genExpr(n.Right)
		g.prog.Add(Copy(t, right))
		g.prog.Add(Label(endLabel))
		return t
	}

	trueLabel := fmt.Sprintf("OR_TRUE_%d", k)
	g.prog.Add(IfGoto(left, trueLabel))
	g.prog.Add(Goto(contLabel))
	g.prog.Add(Label(trueLabel))
	g.prog.Add(Copy(t, "1"))
	g.prog.Add(Goto(endLabel))
	g.prog.Add(Label(contLabel))
	right := g.genExpr(n.Right)
	g.prog.Add(Copy(t, right))
	g.prog.Add(Label(endLabel))
	return t
}

func shortCircuitPrefix(op TokenType) string {
	if op == AndAndTP {
		return "AND"
	}
	return "OR"
}

// genCond lowers e in a control context: it jumps to trueLabel or
// falseLabel without ever materializing a boolean temporary for the
// top-level && / ||.
func (g *TACGen) genCond(e Expr, trueLabel, falseLabel string) {
	switch n := e.(type) {
	case *BinaryExpr:
		if n.Op == AndAndTP {
			k := g.newLabelNum()
			contLabel := fmt.Sprintf("AND_CONT_%d", k)
			g.genCond(n.Left, contLabel, falseLabel)
			g.prog.Add(Label(contLabel))
			g.genCond(n.Right, trueLabel, falseLabel)
			return
		}
		if n.Op == OrOrTP {
			k := g.newLabelNum()
			contLabel := fmt.Sprintf("OR_CONT_%d", k)
			g.genCond(n.Left, trueLabel, contLabel)
			g.prog.Add(Label(contLabel))
			g.genCond(n.Right, trueLabel, falseLabel)
			return
		}
	case *UnaryExpr:
		if n.Op == NotTP {
			g.genCond(n.Operand, falseLabel, trueLabel)
			return
		}
	}
	v := g.genExpr(e)
	g.prog.Add(IfGoto(v, trueLabel))
	g.prog.Add(Goto(falseLabel))
}

func (g *TACGen) genAssign(n *AssignExpr) string {
	switch target := n.Target.(type) {
	case *Identifier:
		val := g.genExpr(n.Value)
		g.prog.Add(Copy(g.locOf(target.resolved), val))
		return val
	case *PropertyExpr:
		objLoc := g.genExpr(target.Object)
		field, _ := target.resolvedClass.Field(target.Name)
		val := g.genExpr(n.Value)
		g.prog.Add(Copy(fmt.Sprintf("%s[%d]", objLoc, field.Offset), val))
		return val
	case *IndexExpr:
		arrLoc := g.genExpr(target.Array)
		idxLoc := g.genExpr(target.Index)
		val := g.genExpr(n.Value)
		g.prog.Add(Copy(fmt.Sprintf("%s[%s]", arrLoc, idxLoc), val))
		return val
	default:
		return g.genExpr(n.Value)
	}
}

func (g *TACGen) genTernary(n *TernaryExpr) string {
	t := g.newTemp()
	k := g.newLabelNum()
	trueLabel := fmt.Sprintf("IF_TRUE_%d", k)
	falseLabel := fmt.Sprintf("IF_FALSE_%d", k)
	endLabel := fmt.Sprintf("IF_END_%d", k)

	g.genCond(n.Cond, trueLabel, falseLabel)
	g.prog.Add(Label(trueLabel))
	thenVal := g.genExpr(n.Then)
	g.prog.Add(Copy(t, thenVal))
	g.prog.Add(Goto(endLabel))
	g.prog.Add(Label(falseLabel))
	elseVal := g.genExpr(n.Else)
	g.prog.Add(Copy(t, elseVal))
	g.prog.Add(Label(endLabel))
	return t
}
