package compiler

import "strings"

// Kind differentiates the closed set of type terms compiscript supports:
// primitives, arrays, classes and functions.
type Kind int

const (
	KindInteger Kind = iota
	KindString
	KindBoolean
	KindNull
	KindVoid
	KindArray
	KindClass
	KindFunc
	// KindUnknown is the sentinel assigned to a node after a type error so
	// that analysis can keep going without cascading the same error.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindVoid:
		return "void"
	case KindArray:
		return "array"
	case KindClass:
		return "class"
	case KindFunc:
		return "function"
	default:
		return "unknown"
	}
}

// Type is the closed type representation used throughout the compiler.
// Array types carry an Elem; class types carry a Name (and, once the class
// is closed, a pointer back to its ClassSymbol); function types carry
// ordered Params and a Return.
type Type struct {
	Kind    Kind
	Elem    *Type    // set when Kind == KindArray
	Name    string   // set when Kind == KindClass
	Class   *ClassSymbol
	Params  []Type   // set when Kind == KindFunc
	Return  *Type    // set when Kind == KindFunc
}

var (
	Integer = Type{Kind: KindInteger}
	Str     = Type{Kind: KindString}
	Boolean = Type{Kind: KindBoolean}
	Null    = Type{Kind: KindNull}
	Void    = Type{Kind: KindVoid}
	Unknown = Type{Kind: KindUnknown}
)

// ArrayOf builds an array type with element type elem, arbitrarily nestable.
func ArrayOf(elem Type) Type {
	e := elem
	return Type{Kind: KindArray, Elem: &e}
}

// ClassType builds a named class type, optionally already bound to its
// ClassSymbol once the class body has closed.
func ClassType(name string, cls *ClassSymbol) Type {
	return Type{Kind: KindClass, Name: name, Class: cls}
}

// FuncType builds a function type from ordered parameter types and a return type.
func FuncType(params []Type, ret Type) Type {
	r := ret
	return Type{Kind: KindFunc, Params: params, Return: &r}
}

// IsReference reports whether t is a class or array type, i.e. a type null
// is assignable to.
func (t Type) IsReference() bool {
	return t.Kind == KindClass || t.Kind == KindArray
}

// Equal implements structural equality for arrays and functions, and nominal
// equality for classes.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.Equal(*o.Elem)
	case KindClass:
		return t.Name == o.Name
	case KindFunc:
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return t.Return.Equal(*o.Return)
	default:
		return true
	}
}

// String renders a type the way diagnostics and the symbol table dump show it,
// e.g. "integer[][]" or "Persona".
func (t Type) String() string {
	switch t.Kind {
	case KindArray:
		return t.Elem.String() + "[]"
	case KindClass:
		return t.Name
	case KindFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "(" + strings.Join(parts, ", ") + ") => " + t.Return.String()
	default:
		return t.Kind.String()
	}
}

// AssignableTo implements the assignability rule:
// T = U is permitted iff T≡U, or T is a reference type and U≡null.
// Unknown is assignable to and from everything, so one error doesn't cascade.
func AssignableTo(from, to Type) bool {
	if from.Kind == KindUnknown || to.Kind == KindUnknown {
		return true
	}
	if to.Equal(from) {
		return true
	}
	if to.IsReference() && from.Kind == KindNull {
		return true
	}
	return false
}

// IsClassOrAncestor walks o's inheritance chain (via ClassSymbol.Parent)
// looking for a class named name, inclusive of o itself. Field and method
// resolution do their own ancestor walk in ClassSymbol.Field/Method.
func IsClassOrAncestor(o *ClassSymbol, name string) bool {
	for c := o; c != nil; c = c.Parent {
		if c.Name == name {
			return true
		}
	}
	return false
}
