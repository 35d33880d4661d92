// Package diag defines the error currency of the PanSQL compiler.
//
// There are three kinds of failure:
//   - CompilerError: a problem in the user's script, always attached to the
//     offending syntax node.
//   - SyntaxError: the parser rejected the text before any tree existed.
//   - BuildError: a defect in the compiler's own step declarations (a
//     dependency cycle, a missing terminal dependency). These never come
//     from user input and are reported as internal errors.
package diag

import (
	"errors"
	"fmt"

	"github.com/roach88/pansql/internal/ast"
)

// Code identifies a diagnostic category.
type Code string

// Declaration and symbol errors (E100-E199).
const (
	ErrDuplicateName      Code = "E101" // name declared twice
	ErrUnknownName        Code = "E102" // reference to an undeclared name
	ErrWrongSymbolKind    Code = "E103" // name refers to the wrong kind of symbol
	ErrUnknownConnector   Code = "E104" // connector not in the catalogue
	ErrUnsupportedPurpose Code = "E105" // connector cannot be opened for that purpose
	ErrInvalidCredentials Code = "E106" // credential expression is malformed
	ErrDictionaryLoad     Code = "E107" // dictionary file could not be read
	ErrUnknownStream      Code = "E108" // stream not found in dictionary
	ErrUnknownField       Code = "E109" // field not found in stream
	ErrInvalidType        Code = "E110" // type reference cannot be parsed
	ErrMissingDictionary  Code = "E111" // read/write connection without a dictionary
)

// Function binding errors (E200-E299).
const (
	ErrUnknownFunction  Code = "E201" // no function with that name
	ErrArity            Code = "E202" // wrong number of arguments
	ErrArgumentType     Code = "E203" // argument type does not fit parameter
	ErrInvalidArgument  Code = "E204" // argument has no value type
	ErrPropertyWithArgs Code = "E205" // property-style intrinsic given arguments
)

// Type checking errors (E300-E399).
const (
	ErrTypeMismatch    Code = "E301" // expression type does not fit its slot
	ErrInvalidOperator Code = "E302" // operator not defined for operand types
	ErrDuplicateColumn Code = "E303" // two output columns share a name
	ErrWhereNotBoolean Code = "E304" // where/on clause is not boolean
	ErrMissingAlias    Code = "E305" // computed column without alias
)

// Data flow errors (E400-E499).
const (
	ErrSyncDirection Code = "E401" // sync input/output opened for wrong purpose
	ErrMapTarget     Code = "E402" // map statement target invalid
	ErrNoOutput      Code = "E403" // nothing to write the transform to
	ErrAnalyzeSource Code = "E404" // analyze on a connection not opened for analyze
	ErrNoInput       Code = "E405" // nothing to read the stream from
)

// Syntax errors.
const ErrSyntax Code = "E001"

// Internal build errors (F000-F099).
const (
	ErrStepCycle       Code = "F001" // dependency cycle between steps
	ErrTerminalNotLast Code = "F002" // terminal step missing dependencies
	ErrNoParseTree     Code = "F003" // parser produced nothing usable
	ErrNoOutputModel   Code = "F004" // terminal step produced no script
	ErrNoConstructor   Code = "F005" // dependency declared without a constructor
	ErrQueryRender     Code = "F006" // read query could not be rendered
	ErrDuplicateClass  Code = "F007" // two record classes share a Go name
)

// CompilerError is a diagnostic about the user's script.
type CompilerError struct {
	Code    Code
	Message string
	Node    ast.Node
}

// Errorf builds a CompilerError attached to node.
func Errorf(node ast.Node, code Code, format string, args ...any) *CompilerError {
	return &CompilerError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	}
}

// Pos returns the position of the offending node.
func (e *CompilerError) Pos() ast.Pos {
	if e.Node == nil {
		return ast.Pos{}
	}
	return e.Node.Pos()
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	if pos := e.Pos(); pos.IsValid() {
		return fmt.Sprintf("%s: [%s] %s", pos, e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// SyntaxError reports text the parser could not accept.
type SyntaxError struct {
	Line   int
	Col    int
	Detail string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Invalid PanSQL syntax at %d:%d: %s", e.Line, e.Col, e.Detail)
	}
	return fmt.Sprintf("Invalid PanSQL syntax: %s", e.Detail)
}

// BuildError is an internal compiler fault in step declarations.
type BuildError struct {
	Code    Code
	Message string
	// Path lists the steps involved, e.g. the members of a cycle.
	Path []string
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	return fmt.Sprintf("internal compiler error [%s]: %s", e.Code, e.Message)
}

// IsUserError reports whether err is a diagnostic about the script itself
// (a CompilerError or SyntaxError) rather than an internal fault.
func IsUserError(err error) bool {
	var ce *CompilerError
	var se *SyntaxError
	return errors.As(err, &ce) || errors.As(err, &se)
}

// IsFatal reports whether err is an internal build fault.
func IsFatal(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

// CodeOf extracts the diagnostic code from any compiler error.
func CodeOf(err error) Code {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return ErrSyntax
	}
	var be *BuildError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Location is the source position of a diagnostic, invalid for build
// errors and errors without a node.
func Location(err error) ast.Pos {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce.Pos()
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return ast.Pos{Line: se.Line, Col: se.Col}
	}
	return ast.Pos{}
}

// Message is the text of a diagnostic without its code or position.
func Message(err error) string {
	var ce *CompilerError
	if errors.As(err, &ce) {
		return ce.Message
	}
	var se *SyntaxError
	if errors.As(err, &se) {
		return se.Detail
	}
	var be *BuildError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
