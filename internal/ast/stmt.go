package ast

// Span carries a node's source position. It is embedded by every node.
type Span struct {
	At Pos
}

// Pos implements Node.
func (s Span) Pos() Pos { return s.At }

// Statement is a top-level PanSQL statement.
type Statement interface {
	Node
	stmtNode()
}

// LoadStatement reads a data dictionary: load <name> from '<file>'.
type LoadStatement struct {
	Span
	Name     *Identifier
	Filename *StringLiteral
}

// SaveStatement writes a data dictionary: save <name> to '<file>'.
type SaveStatement struct {
	Span
	Name     *Identifier
	Filename *StringLiteral
}

// OpenPurpose is what a connection is opened for.
type OpenPurpose int

const (
	PurposeRead OpenPurpose = iota
	PurposeWrite
	PurposeAnalyze
)

func (p OpenPurpose) String() string {
	switch p {
	case PurposeWrite:
		return "write"
	case PurposeAnalyze:
		return "analyze"
	default:
		return "read"
	}
}

// OpenStatement opens a connector:
// open <name> as <Connector> for read|write|analyze [with <dict>,] <credentials>.
type OpenStatement struct {
	Span
	Name        *Identifier
	Connector   *Identifier
	Purpose     OpenPurpose
	Dictionary  *Identifier // nil for analyze
	Credentials Expression
}

// AnalyzeStatement builds a dictionary from an analyze connection:
// analyze <conn> as <dict> [with optimize] [include|exclude (a.b, ...)].
type AnalyzeStatement struct {
	Span
	Conn       *Identifier
	Dictionary *Identifier
	Optimize   bool
	Include    []*CompoundIdentifier
	Exclude    []*CompoundIdentifier
}

// VarKind distinguishes stream variables from table variables.
type VarKind int

const (
	VarStream VarKind = iota
	VarTable
)

func (k VarKind) String() string {
	if k == VarTable {
		return "table"
	}
	return "stream"
}

// VarDeclaration names a dictionary stream: stream|table <name> as <dict>.<Stream>.
type VarDeclaration struct {
	Span
	Kind   VarKind
	Name   *Identifier
	Stream *CompoundIdentifier
}

// ScriptVarDeclaration declares a script parameter: declare $<name> as <type> [= <default>].
type ScriptVarDeclaration struct {
	Span
	Name    *ScriptVarReference
	TypeRef *TypeReference
	Default Expression
}

// MapStatement renames a stream between dictionaries:
// map <dict>.<Stream> to <dict>.<Stream> [with (src = dst, ...)].
type MapStatement struct {
	Span
	Source *CompoundIdentifier
	Target *CompoundIdentifier
	Fields []*MapField
}

// MapField is a single field rename inside a map statement.
type MapField struct {
	Span
	Source *Identifier
	Target *Identifier
}

// SyncStatement copies data between an input and output connection.
type SyncStatement struct {
	Span
	Input  *Identifier
	Output *Identifier
}

// SqlTransformStatement is a select query over stream variables. Passes
// fill OutputName once the target stream is known.
type SqlTransformStatement struct {
	Span
	Columns []*SelectColumn
	From    *TableRef
	Joins   []*Join
	Where   Expression
	Into    *Identifier

	OutputName string
}

// SelectColumn is one projected column.
type SelectColumn struct {
	Span
	Expr  Expression
	Alias *Identifier
}

// Name returns the output column name: the alias, or the trailing name of
// an identifier expression. It returns "" when neither applies.
func (c *SelectColumn) Name() string {
	if c.Alias != nil {
		return c.Alias.Name
	}
	switch e := c.Expr.(type) {
	case *Identifier:
		return e.Name
	case *CompoundIdentifier:
		return e.Last().Name
	}
	return ""
}

// TableRef is a from/join source with an optional alias.
type TableRef struct {
	Span
	Name  *Identifier
	Alias *Identifier
}

// RefName is the name columns are qualified with.
func (t *TableRef) RefName() string {
	if t.Alias != nil {
		return t.Alias.Name
	}
	return t.Name.Name
}

// Join is an inner join: join <table> [alias] on <expr>.
type Join struct {
	Span
	Table *TableRef
	On    Expression
}

func (*LoadStatement) stmtNode()         {}
func (*SaveStatement) stmtNode()         {}
func (*OpenStatement) stmtNode()         {}
func (*AnalyzeStatement) stmtNode()      {}
func (*VarDeclaration) stmtNode()        {}
func (*ScriptVarDeclaration) stmtNode()  {}
func (*MapStatement) stmtNode()          {}
func (*SyncStatement) stmtNode()         {}
func (*SqlTransformStatement) stmtNode() {}
