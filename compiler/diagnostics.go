package compiler

import "fmt"

// DiagnosticKind is the closed taxonomy of semantic-analysis failures.
type DiagnosticKind int

const (
	Syntax DiagnosticKind = iota
	DuplicateDeclaration
	UndeclaredIdentifier
	UninitializedRead
	TypeMismatch
	ArityMismatch
	BadCondition
	BreakContinueOutsideLoop
	ReturnOutsideFunction
	ReturnTypeMismatch
	MissingReturn
	BadPropertyAccess
	BadMethodCall
	BadInheritance
	ThisOutsideClass
	AssignToImmutable
	BadArrayLiteral
	BadIndex
	OverrideSignatureMismatch
)

func (k DiagnosticKind) String() string {
	names := [...]string{
		"Syntax", "DuplicateDeclaration", "UndeclaredIdentifier", "UninitializedRead",
		"TypeMismatch", "ArityMismatch", "BadCondition", "BreakContinueOutsideLoop",
		"ReturnOutsideFunction", "ReturnTypeMismatch", "MissingReturn", "BadPropertyAccess",
		"BadMethodCall", "BadInheritance", "ThisOutsideClass", "AssignToImmutable",
		"BadArrayLiteral", "BadIndex", "OverrideSignatureMismatch",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "Unknown"
	}
	return names[k]
}

// Diagnostic is a single semantic-analysis failure with its source position.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Line    int
	Col     int
}

func (d *Diagnostic) String() string {
	return fmt.Sprintf("Line %d:%d - %s", d.Line, d.Col, d.Message)
}

// Diagnostics accumulates failures across a recovering analysis pass; it
// never stops the traversal, matching SemanticAnalyzer.errors in the
// program this was distilled from.
type Diagnostics struct {
	items []*Diagnostic
}

func (d *Diagnostics) Add(kind DiagnosticKind, pos Pos, format string, args ...interface{}) {
	d.items = append(d.items, &Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Col:     pos.Col,
	})
}

func (d *Diagnostics) HasErrors() bool {
	return len(d.items) > 0
}

func (d *Diagnostics) Items() []*Diagnostic {
	return d.items
}

func (d *Diagnostics) Len() int {
	return len(d.items)
}
