package steps

import (
	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
)

// declarationsStep enters every declared name in the symbol table.
type declarationsStep struct{ base }

func (*declarationsStep) ID() pipeline.StepID               { return Declarations }
func (*declarationsStep) Dependencies() []pipeline.Dependency { return nil }

func (s *declarationsStep) Execute(file *ast.File) error {
	for i, stmt := range file.Statements {
		var err error
		switch st := stmt.(type) {
		case *ast.LoadStatement:
			err = s.declare(st.Name, ast.SymbolDictionary, st, i, "Dictionary")
		case *ast.AnalyzeStatement:
			err = s.declare(st.Dictionary, ast.SymbolDictionary, st, i, "Dictionary")
		case *ast.OpenStatement:
			err = s.declare(st.Name, ast.SymbolConnection, st, i, "")
		case *ast.VarDeclaration:
			kind := ast.SymbolStream
			if st.Kind == ast.VarTable {
				kind = ast.SymbolTable
			}
			err = s.declare(st.Name, kind, st, i, "")
		case *ast.ScriptVarDeclaration:
			err = s.declareVar(st, i)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *declarationsStep) declare(id *ast.Identifier, kind ast.SymbolKind, node ast.Statement, at int, suffix string) error {
	sym := &pipeline.Symbol{Name: id.Name, Kind: kind, Node: node, Index: at}
	if prev, ok := s.ctx.Symbols.Declare(sym); !ok {
		return diag.Errorf(id, diag.ErrDuplicateName, "%s is already declared as a %s at %s", id.Name, prev.Kind, prev.Node.Pos())
	}
	// Stream and table variables become record variables scoped to the
	// statements that read them.
	if kind != ast.SymbolStream && kind != ast.SymbolTable {
		sym.GoName = s.ctx.Idents.Reserve(codegen.Local(id.Name + suffix))
	}
	id.Binding = &ast.Binding{Kind: kind, Name: id.Name}
	s.ctx.Tracef("  declare %s %s", kind, id.Name)
	return nil
}

func (s *declarationsStep) declareVar(st *ast.ScriptVarDeclaration, at int) error {
	sym := &pipeline.Symbol{Name: st.Name.Name, Kind: ast.SymbolScriptVar, Node: st, Index: at}
	if prev, ok := s.ctx.Symbols.Declare(sym); !ok {
		return diag.Errorf(st.Name, diag.ErrDuplicateName, "$%s is already declared at %s", st.Name.Name, prev.Node.Pos())
	}
	sym.GoName = s.ctx.Idents.Reserve(codegen.Local(st.Name.Name))
	st.Name.Binding = &ast.Binding{Kind: ast.SymbolScriptVar, Name: st.Name.Name}
	return nil
}
