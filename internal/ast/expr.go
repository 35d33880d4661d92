package ast

import (
	"strings"

	"github.com/roach88/pansql/internal/types"
)

// Expression is a value-producing node. Its type is unknown until a
// compile step assigns one.
type Expression interface {
	Node
	ResolvedType() (types.FieldType, bool)
	SetType(types.FieldType)
	exprNode()
}

// Typed holds the inferred type of an expression.
type Typed struct {
	Type *types.FieldType
}

// ResolvedType returns the inferred type and whether one has been assigned.
func (t *Typed) ResolvedType() (types.FieldType, bool) {
	if t.Type == nil {
		return types.FieldType{}, false
	}
	return *t.Type, true
}

// SetType records the inferred type.
func (t *Typed) SetType(ft types.FieldType) {
	t.Type = &ft
}

// IntegerLiteral is a whole-number literal. Negation is folded in.
type IntegerLiteral struct {
	Span
	Typed
	Value int64
}

// FloatKind is the precision selected by a numeric literal's suffix.
type FloatKind int

const (
	FloatDouble  FloatKind = iota // 4.0
	FloatSingle                   // 4.0f
	FloatDecimal                  // 4.0m
)

// FloatLiteral is a fractional literal. Text is the digits without suffix.
type FloatLiteral struct {
	Span
	Typed
	Text string
	Kind FloatKind
}

// StringLiteral is a single-quoted string.
type StringLiteral struct {
	Span
	Typed
	Value string
}

// SymbolKind classifies what a name resolves to.
type SymbolKind int

const (
	SymbolNone SymbolKind = iota
	SymbolDictionary
	SymbolConnection
	SymbolStream
	SymbolTable
	SymbolScriptVar
	SymbolColumn
	SymbolTransform
)

var symbolKindNames = [...]string{
	SymbolNone:       "unresolved",
	SymbolDictionary: "dictionary",
	SymbolConnection: "connection",
	SymbolStream:     "stream",
	SymbolTable:      "table",
	SymbolScriptVar:  "script variable",
	SymbolColumn:     "column",
	SymbolTransform:  "transform",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// Binding records what a name was resolved to.
type Binding struct {
	Kind SymbolKind
	// Name is the symbol's declared name. For columns it is the
	// stream variable that owns the column.
	Name string
	// Field is the column name for SymbolColumn bindings.
	Field string
}

// Identifier is a bare name.
type Identifier struct {
	Span
	Typed
	Name    string
	Binding *Binding
}

// CompoundIdentifier is a dotted name such as dict.Stream or o.total.
type CompoundIdentifier struct {
	Span
	Typed
	Parts   []*Identifier
	Binding *Binding
}

// Last returns the trailing part.
func (c *CompoundIdentifier) Last() *Identifier {
	return c.Parts[len(c.Parts)-1]
}

// Qualifier returns everything before the trailing part, dot-joined.
func (c *CompoundIdentifier) Qualifier() string {
	names := make([]string, 0, len(c.Parts)-1)
	for _, p := range c.Parts[:len(c.Parts)-1] {
		names = append(names, p.Name)
	}
	return strings.Join(names, ".")
}

func (c *CompoundIdentifier) String() string {
	names := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		names[i] = p.Name
	}
	return strings.Join(names, ".")
}

// CallKind is how a function call was bound.
type CallKind int

const (
	CallUnbound CallKind = iota
	CallFunction
	CallProperty
	CallSpecial
)

// FunctionCallExpression is name(args...) or a bare property name such as
// CURRENT_TIMESTAMP. Binding fills CodeName, Namespace, ReturnType and Kind.
type FunctionCallExpression struct {
	Span
	Typed
	Name      string
	Args      []Expression
	HasParens bool

	CodeName   string
	Namespace  string
	ReturnType *types.FieldType
	Kind       CallKind
}

// CredentialMethod is how connection credentials are obtained.
type CredentialMethod int

const (
	CredentialsLiteral CredentialMethod = iota
	CredentialsFromEnv
	CredentialsFromFile
)

func (m CredentialMethod) String() string {
	switch m {
	case CredentialsFromEnv:
		return "CredentialsFromEnv"
	case CredentialsFromFile:
		return "CredentialsFromFile"
	default:
		return "literal"
	}
}

// CredentialExpression is a connection string source.
type CredentialExpression struct {
	Span
	Typed
	Method CredentialMethod
	Value  Expression
}

// TypeReference is a type written in source, e.g. nvarchar(50)?.
type TypeReference struct {
	Span
	Typed
	Text string
}

// ScriptVarReference is a $name reference to a script variable.
type ScriptVarReference struct {
	Span
	Typed
	Name    string
	Binding *Binding
}

// BinaryExpression is left op right. Op is upper-cased for keywords.
type BinaryExpression struct {
	Span
	Typed
	Op    string
	Left  Expression
	Right Expression
}

// UnaryExpression is op operand, for NOT and negation of non-literals.
type UnaryExpression struct {
	Span
	Typed
	Op      string
	Operand Expression
}

func (*IntegerLiteral) exprNode()         {}
func (*FloatLiteral) exprNode()           {}
func (*StringLiteral) exprNode()          {}
func (*Identifier) exprNode()             {}
func (*CompoundIdentifier) exprNode()     {}
func (*FunctionCallExpression) exprNode() {}
func (*CredentialExpression) exprNode()   {}
func (*TypeReference) exprNode()          {}
func (*ScriptVarReference) exprNode()     {}
func (*BinaryExpression) exprNode()       {}
func (*UnaryExpression) exprNode()        {}
