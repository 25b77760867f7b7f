package compiler

// ValueCategory distinguishes an expression that denotes a storage
// location (lvalue) from one that denotes only a value (rvalue).
type ValueCategory int

const (
	Rvalue ValueCategory = iota
	Lvalue
)

// evalExpr assigns a type and value category to e, following the
// language's precedence/typing table. It never returns an error: on a
// type failure it records a diagnostic and returns the sentinel Unknown
// type so the caller can keep going (recovering analysis).
func (a *Analyzer) evalExpr(e Expr) (Type, ValueCategory) {
	switch n := e.(type) {
	case *IntegerLit:
		return Integer, Rvalue
	case *StringLit:
		return Str, Rvalue
	case *BoolLit:
		return Boolean, Rvalue
	case *NullLit:
		return Null, Rvalue
	case *Identifier:
		return a.evalIdentifier(n)
	case *ThisExpr:
		return a.evalThis(n)
	case *SuperExpr:
		a.diags.Add(ThisOutsideClass, n.P, "'super' may only appear as the receiver of a method call")
		return Unknown, Rvalue
	case *ArrayLit:
		return a.evalArrayLit(n)
	case *IndexExpr:
		return a.evalIndex(n)
	case *PropertyExpr:
		return a.evalProperty(n)
	case *CallExpr:
		return a.evalCall(n)
	case *NewExpr:
		return a.evalNew(n)
	case *UnaryExpr:
		return a.evalUnary(n)
	case *BinaryExpr:
		return a.evalBinary(n)
	case *AssignExpr:
		return a.evalAssign(n)
	case *TernaryExpr:
		return a.evalTernary(n)
	default:
		return Unknown, Rvalue
	}
}

func (a *Analyzer) evalIdentifier(n *Identifier) (Type, ValueCategory) {
	sym, ok := a.table.Resolve(n.Name)
	if !ok {
		a.diags.Add(UndeclaredIdentifier, n.P, "undeclared identifier '%s'", n.Name)
		return Unknown, Rvalue
	}
	n.resolved = sym
	if sym.Kind == VariableSym && !sym.Initialized {
		a.diags.Add(UninitializedRead, n.P, "'%s' is read before being initialized", n.Name)
	}
	if sym.Kind == VariableSym || sym.Kind == ConstantSym {
		return sym.Type, Lvalue
	}
	return sym.Type, Rvalue
}

func (a *Analyzer) evalThis(n *ThisExpr) (Type, ValueCategory) {
	classScope := a.table.CurrentClass()
	if classScope == nil {
		a.diags.Add(ThisOutsideClass, n.P, "'this' may only appear inside a method body")
		return Unknown, Rvalue
	}
	return ClassType(classScope.Class.Name, classScope.Class), Rvalue
}

func (a *Analyzer) evalArrayLit(n *ArrayLit) (Type, ValueCategory) {
	if len(n.Elements) == 0 {
		return ArrayOf(Unknown), Rvalue
	}
	first, _ := a.evalExpr(n.Elements[0])
	for _, elem := range n.Elements[1:] {
		t, _ := a.evalExpr(elem)
		if !t.Equal(first) {
			a.diags.Add(BadArrayLiteral, elem.ExprPos(), "array literal element has type %s, expected %s", t, first)
		}
	}
	return ArrayOf(first), Rvalue
}

func (a *Analyzer) evalIndex(n *IndexExpr) (Type, ValueCategory) {
	arrType, _ := a.evalExpr(n.Array)
	idxType, _ := a.evalExpr(n.Index)
	if idxType.Kind != KindInteger && idxType.Kind != KindUnknown {
		a.diags.Add(BadIndex, n.P, "array index must be integer, got %s", idxType)
	}
	if arrType.Kind == KindUnknown {
		return Unknown, Lvalue
	}
	if arrType.Kind != KindArray {
		a.diags.Add(BadIndex, n.P, "cannot index non-array type %s", arrType)
		return Unknown, Lvalue
	}
	return *arrType.Elem, Lvalue
}

// resolvePropertyBase returns the ClassSymbol a property/method access
// should resolve against: the static type of obj, or the parent of the
// enclosing class when obj is `super`.
func (a *Analyzer) resolvePropertyBase(obj Expr) (*ClassSymbol, bool) {
	if _, isSuper := obj.(*SuperExpr); isSuper {
		classScope := a.table.CurrentClass()
		if classScope == nil || classScope.Class.Parent == nil {
			a.diags.Add(ThisOutsideClass, obj.ExprPos(), "'super' used outside a subclass")
			return nil, false
		}
		return classScope.Class.Parent, true
	}
	t, _ := a.evalExpr(obj)
	if t.Kind == KindUnknown {
		return nil, false
	}
	if t.Kind != KindClass {
		a.diags.Add(BadPropertyAccess, obj.ExprPos(), "cannot access a property of non-class type %s", t)
		return nil, false
	}
	return t.Class, true
}

func (a *Analyzer) evalProperty(n *PropertyExpr) (Type, ValueCategory) {
	cls, ok := a.resolvePropertyBase(n.Object)
	if !ok {
		return Unknown, Lvalue
	}
	n.resolvedClass = cls
	if field, ok := cls.Field(n.Name); ok {
		return field.Type, Lvalue
	}
	if _, ok := cls.Method(n.Name); ok {
		a.diags.Add(BadPropertyAccess, n.P, "'%s' is a method, not a field, of %s", n.Name, cls.Name)
		return Unknown, Lvalue
	}
	a.diags.Add(BadPropertyAccess, n.P, "%s has no field '%s'", cls.Name, n.Name)
	return Unknown, Lvalue
}

func (a *Analyzer) checkArgs(pos Pos, callee string, params []Type, args []Expr) {
	if len(args) != len(params) {
		a.diags.Add(ArityMismatch, pos, "%s: expected %d argument(s), got %d", callee, len(params), len(args))
	}
	n := len(args)
	if len(params) < n {
		n = len(params)
	}
	for i := 0; i < n; i++ {
		argType, _ := a.evalExpr(args[i])
		if !AssignableTo(argType, params[i]) {
			a.diags.Add(TypeMismatch, args[i].ExprPos(), "argument %d to %s: expected %s, got %s", i+1, callee, params[i], argType)
		}
	}
	for i := n; i < len(args); i++ {
		a.evalExpr(args[i])
	}
}

func (a *Analyzer) evalCall(n *CallExpr) (Type, ValueCategory) {
	switch callee := n.Callee.(type) {
	case *Identifier:
		sym, ok := a.table.Resolve(callee.Name)
		if !ok {
			a.diags.Add(UndeclaredIdentifier, callee.P, "undeclared identifier '%s'", callee.Name)
			for _, arg := range n.Args {
				a.evalExpr(arg)
			}
			return Unknown, Rvalue
		}
		if sym.Kind != FunctionSym {
			a.diags.Add(TypeMismatch, callee.P, "'%s' is not a function", callee.Name)
			for _, arg := range n.Args {
				a.evalExpr(arg)
			}
			return Unknown, Rvalue
		}
		callee.resolved = sym
		a.checkArgs(n.P, callee.Name, paramTypes(sym.Func.Params), n.Args)
		return sym.Func.Return, Rvalue
	case *PropertyExpr:
		cls, ok := a.resolvePropertyBase(callee.Object)
		if !ok {
			for _, arg := range n.Args {
				a.evalExpr(arg)
			}
			return Unknown, Rvalue
		}
		m, ok := cls.Method(callee.Name)
		if !ok {
			a.diags.Add(BadMethodCall, callee.P, "%s has no method '%s'", cls.Name, callee.Name)
			for _, arg := range n.Args {
				a.evalExpr(arg)
			}
			return Unknown, Rvalue
		}
		callee.resolvedClass = cls
		a.checkArgs(n.P, callee.Name, paramTypes(m.Func.Params), n.Args)
		return m.Func.Return, Rvalue
	default:
		a.diags.Add(BadMethodCall, n.P, "expression is not callable")
		for _, arg := range n.Args {
			a.evalExpr(arg)
		}
		return Unknown, Rvalue
	}
}

func (a *Analyzer) evalNew(n *NewExpr) (Type, ValueCategory) {
	cls, ok := a.classes[n.ClassName]
	if !ok {
		a.diags.Add(UndeclaredIdentifier, n.P, "undeclared class '%s'", n.ClassName)
		for _, arg := range n.Args {
			a.evalExpr(arg)
		}
		return Unknown, Rvalue
	}
	if cls.Constructor != nil {
		a.checkArgs(n.P, "constructor of "+cls.Name, paramTypes(cls.Constructor.Func.Params), n.Args)
	} else if len(n.Args) != 0 {
		a.diags.Add(ArityMismatch, n.P, "%s has no constructor; expected 0 arguments, got %d", cls.Name, len(n.Args))
		for _, arg := range n.Args {
			a.evalExpr(arg)
		}
	}
	return ClassType(cls.Name, cls), Rvalue
}

func (a *Analyzer) evalUnary(n *UnaryExpr) (Type, ValueCategory) {
	t, _ := a.evalExpr(n.Operand)
	switch n.Op {
	case NotTP:
		if t.Kind != KindBoolean && t.Kind != KindUnknown {
			a.diags.Add(TypeMismatch, n.P, "'!' requires boolean, got %s", t)
			return Unknown, Rvalue
		}
		return Boolean, Rvalue
	case MinusTP:
		if t.Kind != KindInteger && t.Kind != KindUnknown {
			a.diags.Add(TypeMismatch, n.P, "unary '-' requires integer, got %s", t)
			return Unknown, Rvalue
		}
		return Integer, Rvalue
	default:
		return Unknown, Rvalue
	}
}

func (a *Analyzer) evalBinary(n *BinaryExpr) (Type, ValueCategory) {
	left, _ := a.evalExpr(n.Left)
	right, _ := a.evalExpr(n.Right)
	if left.Kind == KindUnknown || right.Kind == KindUnknown {
		return Unknown, Rvalue
	}
	switch n.Op {
	case PlusTP:
		switch {
		case left.Kind == KindInteger && right.Kind == KindInteger:
			return Integer, Rvalue
		case left.Kind == KindString && right.Kind == KindString:
			return Str, Rvalue
		case left.Kind == KindString && right.Kind == KindInteger:
			return Str, Rvalue
		case left.Kind == KindInteger && right.Kind == KindString:
			return Str, Rvalue
		default:
			a.diags.Add(TypeMismatch, n.P, "'+' not defined for %s and %s", left, right)
			return Unknown, Rvalue
		}
	case MinusTP, StarTP, SlashTP, PercentTP:
		if left.Kind == KindInteger && right.Kind == KindInteger {
			return Integer, Rvalue
		}
		a.diags.Add(TypeMismatch, n.P, "'%s' requires integer operands, got %s and %s", opSymbol(n.Op), left, right)
		return Unknown, Rvalue
	case LessTP, LessEqualTP, GreaterTP, GreaterEqualTP:
		if (left.Kind == KindInteger && right.Kind == KindInteger) || (left.Kind == KindString && right.Kind == KindString) {
			return Boolean, Rvalue
		}
		a.diags.Add(TypeMismatch, n.P, "'%s' requires two integers or two strings, got %s and %s", opSymbol(n.Op), left, right)
		return Unknown, Rvalue
	case EqualEqualTP, NotEqualTP:
		if left.Equal(right) || (left.Kind == KindNull && right.IsReference()) || (right.Kind == KindNull && left.IsReference()) {
			return Boolean, Rvalue
		}
		a.diags.Add(TypeMismatch, n.P, "'%s' not defined for %s and %s", opSymbol(n.Op), left, right)
		return Unknown, Rvalue
	case AndAndTP, OrOrTP:
		if left.Kind == KindBoolean && right.Kind == KindBoolean {
			return Boolean, Rvalue
		}
		a.diags.Add(TypeMismatch, n.P, "'%s' requires boolean operands, got %s and %s", opSymbol(n.Op), left, right)
		return Unknown, Rvalue
	default:
		return Unknown, Rvalue
	}
}

func opSymbol(op TokenType) string {
	switch op {
	case PlusTP:
		return "+"
	case MinusTP:
		return "-"
	case StarTP:
		return "*"
	case SlashTP:
		return "/"
	case PercentTP:
		return "%"
	case LessTP:
		return "<"
	case LessEqualTP:
		return "<="
	case GreaterTP:
		return ">"
	case GreaterEqualTP:
		return ">="
	case EqualEqualTP:
		return "=="
	case NotEqualTP:
		return "!="
	case AndAndTP:
		return "&&"
	case OrOrTP:
		return "||"
	case NotTP:
		return "!"
	default:
		return "?"
	}
}

func (a *Analyzer) evalAssign(n *AssignExpr) (Type, ValueCategory) {
	var targetType Type
	var category ValueCategory
	if id, ok := n.Target.(*Identifier); ok {
		// Assignment writes the target, so a variable target is resolved
		// here rather than through evalIdentifier's uninitialized-read check.
		if sym, found := a.table.Resolve(id.Name); found && sym.Kind == VariableSym {
			id.resolved = sym
			targetType, category = sym.Type, Lvalue
		}
	}
	if id, ok := n.Target.(*Identifier); !ok || id.resolved == nil {
		targetType, category = a.evalExpr(n.Target)
	}
	valueType, _ := a.evalExpr(n.Value)

	if category != Lvalue {
		a.diags.Add(AssignToImmutable, n.P, "left-hand side of assignment is not assignable")
		return targetType, Rvalue
	}
	if id, ok := n.Target.(*Identifier); ok && id.resolved != nil && id.resolved.Kind == ConstantSym {
		a.diags.Add(AssignToImmutable, n.P, "cannot assign to constant '%s'", id.Name)
		return targetType, Rvalue
	}
	if targetType.Kind != KindUnknown && !AssignableTo(valueType, targetType) {
		a.diags.Add(TypeMismatch, n.P, "cannot assign %s to %s", valueType, targetType)
	}
	if id, ok := n.Target.(*Identifier); ok && id.resolved != nil {
		id.resolved.Initialized = true
	}
	return targetType, Rvalue
}

func (a *Analyzer) evalTernary(n *TernaryExpr) (Type, ValueCategory) {
	condType, _ := a.evalExpr(n.Cond)
	if condType.Kind != KindBoolean && condType.Kind != KindUnknown {
		a.diags.Add(BadCondition, n.Cond.ExprPos(), "ternary condition must be boolean, got %s", condType)
	}
	thenType, _ := a.evalExpr(n.Then)
	elseType, _ := a.evalExpr(n.Else)
	if thenType.Kind == KindUnknown || elseType.Kind == KindUnknown {
		return Unknown, Rvalue
	}
	if !thenType.Equal(elseType) {
		a.diags.Add(TypeMismatch, n.P, "ternary branches have different types %s and %s", thenType, elseType)
		return Unknown, Rvalue
	}
	return thenType, Rvalue
}
