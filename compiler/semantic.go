package compiler

// Analyzer owns the scope tree, the class registry and the accumulated
// diagnostics for one compilation. It traverses the AST twice: first to
// collect class and function signatures so forward references and
// recursion resolve, then to check bodies — the two-pass structure of
// SemanticAnalyzer.py this was distilled from.
type Analyzer struct {
	table   *SymbolTable
	diags   *Diagnostics
	classes map[string]*ClassSymbol
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{
		table:   NewSymbolTable(),
		diags:   &Diagnostics{},
		classes: make(map[string]*ClassSymbol),
	}
}

// Table exposes the analyzer's symbol table, e.g. for --dump-symbols.
func (a *Analyzer) Table() *SymbolTable { return a.table }

// Analyze runs the full two-pass semantic check and returns the
// accumulated diagnostics. TAC generation should only proceed if the
// result's HasErrors() is false.
func (a *Analyzer) Analyze(prog *Program) *Diagnostics {
	classAsts := a.collectClassSkeletons(prog)
	a.linkParents(classAsts)
	a.breakInheritanceCycles()
	a.closeClasses(classAsts)
	a.collectFunctionSignatures(prog)
	a.checkBodies(prog)
	return a.diags
}

func (a *Analyzer) resolveType(tn *TypeNode) Type {
	if tn == nil {
		return Void
	}
	var base Type
	switch tn.Name {
	case "integer":
		base = Integer
	case "string":
		base = Str
	case "boolean":
		base = Boolean
	case "void":
		base = Void
	default:
		if cls, ok := a.classes[tn.Name]; ok {
			base = ClassType(tn.Name, cls)
		} else {
			a.diags.Add(UndeclaredIdentifier, tn.Pos, "undeclared class '%s'", tn.Name)
			base = Unknown
		}
	}
	for i := 0; i < tn.ArrayDepth; i++ {
		base = ArrayOf(base)
	}
	return base
}

func (a *Analyzer) buildParams(params []*Param) []*Symbol {
	syms := make([]*Symbol, len(params))
	for i, p := range params {
		syms[i] = &Symbol{
			Name:        p.Name,
			Type:        a.resolveType(p.Type),
			Kind:        VariableSym,
			Pos:         p.P,
			Initialized: true,
		}
	}
	return syms
}

func paramTypes(params []*Symbol) []Type {
	types := make([]Type, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

// ---- pass 1: class skeletons, inheritance, field/method signatures ----

func (a *Analyzer) collectClassSkeletons(prog *Program) map[string]*ClassDecl {
	asts := make(map[string]*ClassDecl)
	for _, stmt := range prog.Stmts {
		cd, ok := stmt.(*ClassDecl)
		if !ok {
			continue
		}
		if _, exists := a.classes[cd.Name]; exists {
			a.diags.Add(DuplicateDeclaration, cd.P, "class '%s' is already declared", cd.Name)
			continue
		}
		a.classes[cd.Name] = &ClassSymbol{Name: cd.Name, Pos: cd.P, Methods: make(map[string]*Symbol)}
		asts[cd.Name] = cd
	}
	return asts
}

func (a *Analyzer) linkParents(asts map[string]*ClassDecl) {
	for name, cd := range asts {
		if cd.Parent == "" {
			continue
		}
		if cd.Parent == name {
			a.diags.Add(BadInheritance, cd.P, "class '%s' cannot inherit from itself", name)
			continue
		}
		parent, ok := a.classes[cd.Parent]
		if !ok {
			a.diags.Add(BadInheritance, cd.P, "class '%s' inherits from undeclared class '%s'", name, cd.Parent)
			continue
		}
		a.classes[name].Parent = parent
	}
}

func (a *Analyzer) breakInheritanceCycles() {
	for name, cls := range a.classes {
		seen := map[string]bool{name: true}
		for c := cls.Parent; c != nil; c = c.Parent {
			if seen[c.Name] {
				a.diags.Add(BadInheritance, cls.Pos, "inheritance cycle detected involving '%s'", name)
				cls.Parent = nil
				break
			}
			seen[c.Name] = true
		}
	}
}

func (a *Analyzer) closeClasses(asts map[string]*ClassDecl) {
	closed := make(map[string]bool)
	var closeOne func(name string)
	closeOne = func(name string) {
		if closed[name] {
			return
		}
		cls := a.classes[name]
		if cls.Parent != nil && !closed[cls.Parent.Name] {
			closeOne(cls.Parent.Name)
		}
		a.closeClass(asts[name], cls)
		closed[name] = true
	}
	for name := range a.classes {
		closeOne(name)
	}
}

func (a *Analyzer) closeClass(cd *ClassDecl, cls *ClassSymbol) {
	a.buildFields(cd, cls)
	a.buildMethods(cd, cls)
	a.buildConstructor(cd, cls)
	cls.Closed = true
}

func (a *Analyzer) buildFields(cd *ClassDecl, cls *ClassSymbol) {
	var fields []*FieldSymbol
	offset := 0
	if cls.Parent != nil {
		for _, pf := range cls.Parent.Fields {
			fields = append(fields, &FieldSymbol{Name: pf.Name, Type: pf.Type, Offset: pf.Offset, Pos: pf.Pos})
			offset += fieldSlotSize
		}
	}
	for _, fd := range cd.Fields {
		if _, exists := fieldByName(fields, fd.Name); exists {
			a.diags.Add(DuplicateDeclaration, fd.P, "field '%s' is already declared on %s", fd.Name, cls.Name)
			continue
		}
		fields = append(fields, &FieldSymbol{Name: fd.Name, Type: a.resolveType(fd.Type), Offset: offset, Pos: fd.P})
		offset += fieldSlotSize
	}
	cls.Fields = fields
}

func fieldByName(fields []*FieldSymbol, name string) (*FieldSymbol, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (a *Analyzer) buildMethods(cd *ClassDecl, cls *ClassSymbol) {
	for _, m := range cd.Methods {
		params := a.buildParams(m.Params)
		ret := a.resolveType(m.ReturnType)
		sym := &Symbol{
			Name: m.Name,
			Kind: FunctionSym,
			Type: FuncType(paramTypes(params), ret),
			Pos:  m.P,
			Func: &FunctionSymbol{Params: params, Return: ret},
		}
		if cls.Parent != nil {
			if parentMethod, ok := cls.Parent.Method(m.Name); ok && !sym.Type.Equal(parentMethod.Type) {
				a.diags.Add(OverrideSignatureMismatch, m.P, "'%s' overrides %s.%s with an incompatible signature", m.Name, cls.Parent.Name, m.Name)
			}
		}
		if _, exists := cls.Methods[m.Name]; exists {
			a.diags.Add(DuplicateDeclaration, m.P, "method '%s' is already declared on %s", m.Name, cls.Name)
			continue
		}
		cls.Methods[m.Name] = sym
		cls.MethodOrder = append(cls.MethodOrder, m.Name)
	}
}

func (a *Analyzer) buildConstructor(cd *ClassDecl, cls *ClassSymbol) {
	ctorAst := cd.Constructor
	if cd.Constructor != nil && cd.Init != nil {
		a.diags.Add(DuplicateDeclaration, cd.Init.P, "class '%s' declares both a constructor and an init", cls.Name)
	} else if cd.Init != nil {
		ctorAst = cd.Init
	}
	if ctorAst == nil {
		return
	}
	params := a.buildParams(ctorAst.Params)
	cls.Constructor = &Symbol{
		Name: "constructor",
		Kind: FunctionSym,
		Type: FuncType(paramTypes(params), Void),
		Pos:  ctorAst.P,
		Func: &FunctionSymbol{Params: params, Return: Void},
	}
}

// ---- pass 1b: free function signatures ----

func (a *Analyzer) collectFunctionSignatures(prog *Program) {
	for _, stmt := range prog.Stmts {
		fd, ok := stmt.(*FuncDecl)
		if !ok {
			continue
		}
		params := a.buildParams(fd.Params)
		ret := a.resolveType(fd.ReturnType)
		sym := &Symbol{
			Name: fd.Name,
			Kind: FunctionSym,
			Type: FuncType(paramTypes(params), ret),
			Pos:  fd.P,
			Func: &FunctionSymbol{Params: params, Return: ret},
		}
		if err := a.table.Declare(sym); err != nil {
			a.diags.Add(DuplicateDeclaration, fd.P, err.Error())
		}
	}
	for name, cls := range a.classes {
		sym := &Symbol{Name: name, Kind: ClassSym, Type: ClassType(name, cls), Pos: cls.Pos, Class: cls, Initialized: true}
		if err := a.table.Declare(sym); err != nil {
			a.diags.Add(DuplicateDeclaration, cls.Pos, err.Error())
		}
	}
}

// ---- pass 2: body checking ----

func (a *Analyzer) checkBodies(prog *Program) {
	for _, stmt := range prog.Stmts {
		switch n := stmt.(type) {
		case *ClassDecl:
			a.checkClassBody(n)
		case *FuncDecl:
			sym, _ := a.table.Resolve(n.Name)
			a.checkFunctionBody(n, sym.Func, nil)
		default:
			a.checkStmt(stmt)
		}
	}
}

func (a *Analyzer) checkClassBody(cd *ClassDecl) {
	cls := a.classes[cd.Name]
	scope := a.table.EnterScope(ClassScope, cd.Name)
	scope.Class = cls
	for _, m := range cd.Methods {
		msym := cls.Methods[m.Name]
		if msym != nil {
			a.checkFunctionBody(m, msym.Func, cls)
		}
	}
	if cd.Constructor != nil && cls.Constructor != nil {
		a.checkFunctionBody(cd.Constructor, cls.Constructor.Func, cls)
	} else if cd.Init != nil && cls.Constructor != nil {
		a.checkFunctionBody(cd.Init, cls.Constructor.Func, cls)
	}
	a.table.ExitScope()
}

func (a *Analyzer) checkFunctionBody(fd *FuncDecl, fsym *FunctionSymbol, cls *ClassSymbol) {
	scope := a.table.EnterScope(FunctionScope, fd.Name)
	scope.Func = fsym
	fsym.Body = scope
	if cls != nil {
		// "this" is a reserved word, so it is bound directly rather than
		// through Declare, which rejects reserved names from user code.
		scope.Symbols["this"] = &Symbol{Name: "this", Kind: VariableSym, Type: ClassType(cls.Name, cls), Initialized: true, Pos: fd.P, DefiningScope: scope}
	}
	for _, p := range fsym.Params {
		if err := a.table.Declare(p); err != nil {
			a.diags.Add(DuplicateDeclaration, p.Pos, err.Error())
		}
	}
	for _, stmt := range fd.Body.Stmts {
		a.checkStmt(stmt)
	}
	if fsym.Return.Kind != KindVoid && !stmtsAlwaysReturn(fd.Body.Stmts) {
		a.diags.Add(MissingReturn, fd.P, "function '%s' does not return a value of type %s on all paths", fd.Name, fsym.Return)
	}
	a.table.ExitScope()
}

func (a *Analyzer) checkStmt(stmt Stmt) {
	switch n := stmt.(type) {
	case *VarDecl:
		a.checkVarDecl(n)
	case *ExprStmt:
		a.evalExpr(n.X)
	case *PrintStmt:
		a.evalExpr(n.X)
	case *BlockStmt:
		a.table.EnterScope(BlockScope, "")
		for _, s := range n.Stmts {
			a.checkStmt(s)
		}
		a.table.ExitScope()
	case *IfStmt:
		a.checkCondition(n.Cond)
		a.checkStmt(n.Then)
		if n.Else != nil {
			a.checkStmt(n.Else)
		}
	case *WhileStmt:
		a.checkCondition(n.Cond)
		scope := a.table.EnterScope(BlockScope, "")
		scope.IsLoop, scope.IsBreakable = true, true
		a.checkStmt(n.Body)
		a.table.ExitScope()
	case *DoWhileStmt:
		scope := a.table.EnterScope(BlockScope, "")
		scope.IsLoop, scope.IsBreakable = true, true
		a.checkStmt(n.Body)
		a.table.ExitScope()
		a.checkCondition(n.Cond)
	case *ForStmt:
		scope := a.table.EnterScope(BlockScope, "")
		scope.IsLoop, scope.IsBreakable = true, true
		if n.Init != nil {
			a.checkStmt(n.Init)
		}
		if n.Cond != nil {
			a.checkCondition(n.Cond)
		}
		a.checkStmt(n.Body)
		if n.Step != nil {
			a.checkStmt(n.Step)
		}
		a.table.ExitScope()
	case *ForeachStmt:
		iterType, _ := a.evalExpr(n.Iterable)
		elemType := Unknown
		if iterType.Kind == KindArray {
			elemType = *iterType.Elem
		} else if iterType.Kind != KindUnknown {
			a.diags.Add(BadCondition, n.Iterable.ExprPos(), "foreach requires an array, got %s", iterType)
		}
		scope := a.table.EnterScope(BlockScope, "")
		scope.IsLoop, scope.IsBreakable = true, true
		sym := &Symbol{Name: n.VarName, Kind: VariableSym, Type: elemType, Initialized: true, Pos: n.P}
		if err := a.table.Declare(sym); err != nil {
			a.diags.Add(DuplicateDeclaration, n.P, err.Error())
		}
		n.resolved = sym
		a.checkStmt(n.Body)
		a.table.ExitScope()
	case *SwitchStmt:
		a.evalExpr(n.Subject)
		for _, c := range n.Cases {
			a.evalExpr(c.Value)
			scope := a.table.EnterScope(BlockScope, "")
			scope.IsBreakable = true
			for _, s := range c.Body {
				a.checkStmt(s)
			}
			a.table.ExitScope()
		}
		if n.Default != nil {
			scope := a.table.EnterScope(BlockScope, "")
			scope.IsBreakable = true
			for _, s := range n.Default {
				a.checkStmt(s)
			}
			a.table.ExitScope()
		}
	case *BreakStmt:
		if a.table.InnermostBreakable() == nil {
			a.diags.Add(BreakContinueOutsideLoop, n.P, "'break' outside a loop or switch")
		}
	case *ContinueStmt:
		if a.table.InnermostLoop() == nil {
			a.diags.Add(BreakContinueOutsideLoop, n.P, "'continue' outside a loop")
		}
	case *ReturnStmt:
		a.checkReturn(n)
	case *TryCatchStmt:
		a.checkStmt(n.Try)
		a.table.EnterScope(BlockScope, "")
		_ = a.table.Declare(&Symbol{Name: n.CatchName, Kind: VariableSym, Type: Str, Initialized: true, Pos: n.P})
		for _, s := range n.Catch.Stmts {
			a.checkStmt(s)
		}
		a.table.ExitScope()
	case *FuncDecl:
		// A function declared inside a nested block; spec does not forbid
		// it, so it is checked with no enclosing class.
		sym := &Symbol{Name: n.Name, Kind: FunctionSym, Pos: n.P}
		params := a.buildParams(n.Params)
		ret := a.resolveType(n.ReturnType)
		sym.Type = FuncType(paramTypes(params), ret)
		sym.Func = &FunctionSymbol{Params: params, Return: ret}
		if err := a.table.Declare(sym); err != nil {
			a.diags.Add(DuplicateDeclaration, n.P, err.Error())
		}
		a.checkFunctionBody(n, sym.Func, nil)
	case *ClassDecl:
		// Nested class declarations are not part of this language's
		// scoping model; treat as a top-level-only construct silently
		// skipped here since the signature pass only visits prog.Stmts.
	}
}

func (a *Analyzer) checkVarDecl(n *VarDecl) {
	var declaredType Type
	haveDeclared := false
	if n.Type != nil {
		declaredType = a.resolveType(n.Type)
		haveDeclared = true
	}
	initialized := false
	if n.Init != nil {
		initType, _ := a.evalExpr(n.Init)
		initialized = true
		if initType.Kind == KindVoid {
			a.diags.Add(TypeMismatch, n.P, "cannot initialize '%s' with a void value", n.Name)
		} else if !haveDeclared {
			declaredType = initType
			haveDeclared = true
		} else if !AssignableTo(initType, declaredType) {
			a.diags.Add(TypeMismatch, n.P, "cannot initialize '%s' of type %s with %s", n.Name, declaredType, initType)
		}
	}
	if !haveDeclared {
		declaredType = Unknown
	}
	kind := VariableSym
	if n.Kind == DeclConst {
		kind = ConstantSym
	}
	sym := &Symbol{Name: n.Name, Type: declaredType, Kind: kind, Pos: n.P, Initialized: initialized}
	if err := a.table.Declare(sym); err != nil {
		a.diags.Add(DuplicateDeclaration, n.P, err.Error())
	}
	n.resolved = sym
}

func (a *Analyzer) checkCondition(cond Expr) {
	t, _ := a.evalExpr(cond)
	if t.Kind != KindBoolean && t.Kind != KindUnknown {
		a.diags.Add(BadCondition, cond.ExprPos(), "condition must be boolean, got %s", t)
	}
}

func (a *Analyzer) checkReturn(n *ReturnStmt) {
	scope := a.table.CurrentFunction()
	if scope == nil {
		a.diags.Add(ReturnOutsideFunction, n.P, "'return' outside a function")
		if n.Value != nil {
			a.evalExpr(n.Value)
		}
		return
	}
	want := scope.Func.Return
	if n.Value == nil {
		if want.Kind != KindVoid {
			a.diags.Add(ReturnTypeMismatch, n.P, "missing return value of type %s", want)
		}
		return
	}
	got, _ := a.evalExpr(n.Value)
	if want.Kind == KindVoid {
		a.diags.Add(ReturnTypeMismatch, n.P, "function is void but returns a value of type %s", got)
		return
	}
	if !AssignableTo(got, want) {
		a.diags.Add(ReturnTypeMismatch, n.P, "expected return type %s, got %s", want, got)
	}
}

// stmtsAlwaysReturn reports whether every control path through stmts ends
// in a return, generalizing the source's ifElseReturnAnalysis /
// statementReturnAnalysis to compiscript's richer statement set.
func stmtsAlwaysReturn(stmts []Stmt) bool {
	for _, s := range stmts {
		if stmtAlwaysReturns(s) {
			return true
		}
	}
	return false
}

func stmtAlwaysReturns(s Stmt) bool {
	switch n := s.(type) {
	case *ReturnStmt:
		return true
	case *BlockStmt:
		return stmtsAlwaysReturn(n.Stmts)
	case *IfStmt:
		if n.Else == nil {
			return false
		}
		return stmtAlwaysReturns(n.Then) && stmtAlwaysReturns(n.Else)
	case *SwitchStmt:
		return switchAlwaysReturns(n)
	case *TryCatchStmt:
		// The grammar has no throw statement, so catch never runs; only
		// the try body is a reachable control path (tacgen.go lowers
		// only n.Try for the same reason).
		return stmtsAlwaysReturn(n.Try.Stmts)
	default:
		return false
	}
}

// switchAlwaysReturns walks cases in fall-through order, matching
// genSwitch's no-implicit-break lowering: a case whose body neither
// returns nor ends in a break falls into the next case (or the
// default), inheriting its return status instead of being judged on
// its own.
func switchAlwaysReturns(n *SwitchStmt) bool {
	if n.Default == nil {
		return false
	}
	next := stmtsAlwaysReturn(n.Default)
	result := next
	for i := len(n.Cases) - 1; i >= 0; i-- {
		body := n.Cases[i].Body
		var returns bool
		switch {
		case stmtsAlwaysReturn(body):
			returns = true
		case endsInBreak(body):
			returns = false
		default:
			returns = next
		}
		if !returns {
			result = false
		}
		next = returns
	}
	return result
}

// endsInBreak reports whether body's last statement is a break, meaning
// control leaves the switch there rather than falling through.
func endsInBreak(body []Stmt) bool {
	if len(body) == 0 {
		return false
	}
	_, ok := body[len(body)-1].(*BreakStmt)
	return ok
}
