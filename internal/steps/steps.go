// Package steps holds the compile passes of the PanSQL compiler.
//
// Each pass names the passes it needs; the pipeline works out the order.
// Passes annotate the syntax tree, fill the symbol table and contribute
// to the shared code model. Generated run statements are recorded per
// script statement so the terminal pass can emit them in script order.
package steps

import (
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
)

// Step IDs.
const (
	Declarations pipeline.StepID = "declarations"
	Dictionaries pipeline.StepID = "dictionaries"
	Connectors   pipeline.StepID = "connectors"
	Variables    pipeline.StepID = "variables"
	Identifiers  pipeline.StepID = "identifiers"
	Functions    pipeline.StepID = "functions"
	TypeCheck    pipeline.StepID = "typecheck"
	Transforms   pipeline.StepID = "transforms"
	Mappings     pipeline.StepID = "mappings"
	Syncs        pipeline.StepID = "syncs"
	Codegen      pipeline.StepID = "codegen"
)

func dependency(id pipeline.StepID, build func() pipeline.Step) pipeline.Dependency {
	return pipeline.Dependency{ID: id, New: build}
}

func declarations() pipeline.Dependency {
	return dependency(Declarations, func() pipeline.Step { return &declarationsStep{} })
}

func dictionaries() pipeline.Dependency {
	return dependency(Dictionaries, func() pipeline.Step { return &dictionariesStep{} })
}

func connectorsDep() pipeline.Dependency {
	return dependency(Connectors, func() pipeline.Step { return &connectorsStep{} })
}

func variables() pipeline.Dependency {
	return dependency(Variables, func() pipeline.Step { return &variablesStep{} })
}

func identifiers() pipeline.Dependency {
	return dependency(Identifiers, func() pipeline.Step { return &identifiersStep{} })
}

func functions() pipeline.Dependency {
	return dependency(Functions, func() pipeline.Step { return &functionsStep{} })
}

func typeCheck() pipeline.Dependency {
	return dependency(TypeCheck, func() pipeline.Step { return &typeCheckStep{} })
}

func transforms() pipeline.Dependency {
	return dependency(Transforms, func() pipeline.Step { return &transformsStep{} })
}

func mappings() pipeline.Dependency {
	return dependency(Mappings, func() pipeline.Step { return &mappingsStep{} })
}

func syncs() pipeline.Dependency {
	return dependency(Syncs, func() pipeline.Step { return &syncsStep{} })
}

// Terminal is the code generation step. Building a plan from it pulls in
// every other pass.
func Terminal() pipeline.Dependency {
	return dependency(Codegen, func() pipeline.Step { return &codegenStep{} })
}

// base carries the pipeline context.
type base struct {
	ctx *pipeline.Context
}

func (b *base) Initialize(ctx *pipeline.Context) error {
	b.ctx = ctx
	return nil
}

// resolve looks up a declared name referenced by statement index at. The
// symbol must have been declared by an earlier statement and be one of
// kinds. The identifier is bound to the symbol.
func (b *base) resolve(id *ast.Identifier, at int, kinds ...ast.SymbolKind) (*pipeline.Symbol, error) {
	sym, ok := b.ctx.Symbols.Lookup(id.Name)
	if !ok {
		return nil, diag.Errorf(id, diag.ErrUnknownName, "%s has not been declared", id.Name)
	}
	if sym.Index >= at {
		return nil, diag.Errorf(id, diag.ErrUnknownName, "%s is used before it is declared", id.Name)
	}
	if !kindIn(sym.Kind, kinds) {
		return nil, diag.Errorf(id, diag.ErrWrongSymbolKind, "%s is a %s, not a %s", id.Name, sym.Kind, kindList(kinds))
	}
	id.Binding = &ast.Binding{Kind: sym.Kind, Name: sym.Name}
	return sym, nil
}

// resolveVar resolves a script variable reference and gives it the
// variable's type.
func (b *base) resolveVar(ref *ast.ScriptVarReference, at int) (*pipeline.Symbol, error) {
	sym, ok := b.ctx.Symbols.LookupVar(ref.Name)
	if !ok {
		return nil, diag.Errorf(ref, diag.ErrUnknownName, "$%s has not been declared", ref.Name)
	}
	if sym.Index >= at {
		return nil, diag.Errorf(ref, diag.ErrUnknownName, "$%s is used before it is declared", ref.Name)
	}
	ref.Binding = &ast.Binding{Kind: ast.SymbolScriptVar, Name: sym.Name}
	ref.SetType(sym.Type)
	return sym, nil
}

// resolveLoaded resolves a dictionary whose contents are known while
// compiling.
func (b *base) resolveLoaded(id *ast.Identifier, at int) (*pipeline.Symbol, error) {
	sym, err := b.resolve(id, at, ast.SymbolDictionary)
	if err != nil {
		return nil, err
	}
	if sym.Dictionary == nil {
		return nil, diag.Errorf(id, diag.ErrWrongSymbolKind,
			"dictionary %s is analyzed by the script and only known at run time", sym.Name)
	}
	return sym, nil
}

func kindIn(k ast.SymbolKind, kinds []ast.SymbolKind) bool {
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func kindList(kinds []ast.SymbolKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, " or ")
}

// indexed calls fn for each statement of type T with its position.
func indexed[T ast.Statement](file *ast.File, fn func(stmt T, at int) error) error {
	for i, s := range file.Statements {
		if stmt, ok := s.(T); ok {
			if err := fn(stmt, i); err != nil {
				return err
			}
		}
	}
	return nil
}
