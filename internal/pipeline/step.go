// Package pipeline schedules and runs the compile steps of the PanSQL
// compiler.
//
// Steps declare what they depend on; nobody lists the order. Build starts
// from the terminal step, discovers every step it transitively needs,
// and orders them so each runs after its dependencies. A Plan is then run
// once against one parsed script.
package pipeline

import (
	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
)

// StepID names a step. IDs are unique within a plan.
type StepID string

// Step is one compile pass over the syntax tree.
//
// Initialize receives the pipeline context before any step executes.
// Execute annotates the tree in place or fills the shared code model; it
// returns a *diag.CompilerError for problems in the script.
type Step interface {
	ID() StepID
	Dependencies() []Dependency
	Initialize(ctx *Context) error
	Execute(file *ast.File) error
}

// Dependency refers to a step by ID, with a constructor used when the
// step is first discovered.
type Dependency struct {
	ID  StepID
	New func() Step
}

// Producer is implemented by the terminal step.
type Producer interface {
	Step
	Output() (*codegen.Script, error)
}
