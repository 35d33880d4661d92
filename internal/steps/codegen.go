package steps

import (
	"fmt"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
)

// codegenStep assembles the program from what the other steps put in the
// model and renders it.
type codegenStep struct {
	base
	script *codegen.Script
}

func (*codegenStep) ID() pipeline.StepID { return Codegen }

func (*codegenStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{
		declarations(),
		dictionaries(),
		connectorsDep(),
		variables(),
		identifiers(),
		functions(),
		typeCheck(),
		transforms(),
		mappings(),
		syncs(),
	}
}

func (s *codegenStep) Execute(file *ast.File) error {
	m := s.ctx.Model
	if err := s.scriptVars(); err != nil {
		return err
	}
	for _, stmt := range file.Statements {
		for _, frag := range s.ctx.Fragments[stmt] {
			m.Emit("%s", frag)
		}
	}
	m.BuildID = s.ctx.BuildIDs.Generate()

	code, err := codegen.Render(m)
	if err != nil {
		return &diag.BuildError{Code: diag.ErrNoOutputModel, Message: err.Error()}
	}
	project, err := codegen.ProjectFile(m)
	if err != nil {
		return &diag.BuildError{Code: diag.ErrNoOutputModel, Message: err.Error()}
	}
	manifest, err := connectors.Manifest(m.Connectors)
	if err != nil {
		return &diag.BuildError{Code: diag.ErrNoOutputModel, Message: fmt.Sprintf("connector manifest: %v", err)}
	}
	s.script = &codegen.Script{Code: code, ProjectFile: project, Connectors: manifest}
	return nil
}

func (s *codegenStep) Output() (*codegen.Script, error) {
	if s.script == nil {
		return nil, &diag.BuildError{Code: diag.ErrNoOutputModel, Message: "codegen has not run"}
	}
	return s.script, nil
}

// scriptVars declares script parameters as package variables holding
// their defaults. Parameters without a default start at the zero value,
// which is NULL for nullable types.
func (s *codegenStep) scriptVars() error {
	m := s.ctx.Model
	vars := s.ctx.Symbols.OfKind(ast.SymbolScriptVar)
	r := codegen.NewExprRenderer(m)
	for _, v := range vars {
		r.BindVar(v.Name, v.GoName)
	}
	for _, v := range vars {
		decl := v.Node.(*ast.ScriptVarDeclaration)
		gv := &codegen.Var{
			Doc:  fmt.Sprintf("%s is the script parameter $%s.", v.GoName, v.Name),
			Name: v.GoName,
			Type: m.GoType(v.Type),
		}
		if decl.Default != nil {
			gv.Value = r.RenderAs(decl.Default, v.Type)
		}
		m.AddVar(gv)
	}
	if err := r.Err(); err != nil {
		return &diag.BuildError{Code: diag.ErrNoOutputModel, Message: err.Error()}
	}
	return nil
}
