// Package ast defines the PanSQL syntax tree.
//
// Statements and expressions are closed sum types: each is an interface
// sealed by an unexported marker method, and passes switch over the
// concrete types. Nodes are created once by the parser and then annotated
// in place by compile steps; they are never replaced.
package ast

import "fmt"

// Pos is a 1-based source position.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// IsValid reports whether the position points into source text.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Node is implemented by every syntax tree entity.
type Node interface {
	Pos() Pos
}

// File is a parsed PanSQL script: an ordered sequence of statements.
type File struct {
	Statements []Statement
}

// Pos returns the position of the first statement.
func (f *File) Pos() Pos {
	if len(f.Statements) == 0 {
		return Pos{}
	}
	return f.Statements[0].Pos()
}
