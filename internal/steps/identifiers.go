package steps

import (
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// identifiersStep resolves the names used inside select statements and
// script variable defaults: stream variables in from, join and into,
// columns, and script variables. Columns take the type of their field.
type identifiersStep struct{ base }

func (*identifiersStep) ID() pipeline.StepID { return Identifiers }

func (*identifiersStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{declarations(), variables()}
}

func (s *identifiersStep) Execute(file *ast.File) error {
	if err := indexed(file, func(st *ast.ScriptVarDeclaration, at int) error {
		if st.Default == nil {
			return nil
		}
		return s.expression(st.Default, nil, at)
	}); err != nil {
		return err
	}
	return indexed(file, s.transform)
}

// source is a stream variable as seen from inside one query.
type source struct {
	ref string // alias or variable name
	sym *pipeline.Symbol
}

// scope is the ordered set of sources of a query.
type scope []source

func (sc scope) lookup(ref string) (source, bool) {
	for _, src := range sc {
		if strings.EqualFold(src.ref, ref) {
			return src, true
		}
	}
	return source{}, false
}

func (s *identifiersStep) transform(st *ast.SqlTransformStatement, at int) error {
	var sc scope
	add := func(t *ast.TableRef) error {
		sym, err := s.resolve(t.Name, at, ast.SymbolStream, ast.SymbolTable)
		if err != nil {
			return err
		}
		if _, dup := sc.lookup(t.RefName()); dup {
			return diag.Errorf(t, diag.ErrDuplicateName, "%s appears more than once in the query", t.RefName())
		}
		sc = append(sc, source{ref: t.RefName(), sym: sym})
		return nil
	}

	if st.From != nil {
		if err := add(st.From); err != nil {
			return err
		}
	}
	for _, j := range st.Joins {
		if err := add(j.Table); err != nil {
			return err
		}
	}
	if st.Into != nil {
		if _, err := s.resolve(st.Into, at, ast.SymbolStream, ast.SymbolTable); err != nil {
			return err
		}
	}

	for _, c := range st.Columns {
		if err := s.expression(c.Expr, sc, at); err != nil {
			return err
		}
	}
	for _, j := range st.Joins {
		if err := s.expression(j.On, sc, at); err != nil {
			return err
		}
	}
	if st.Where != nil {
		return s.expression(st.Where, sc, at)
	}
	return nil
}

func (s *identifiersStep) expression(e ast.Expression, sc scope, at int) error {
	var err error
	ast.Inspect(e, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch x := n.(type) {
		case *ast.Identifier:
			err = s.bare(x, sc, at)
		case *ast.CompoundIdentifier:
			err = s.qualified(x, sc)
		case *ast.ScriptVarReference:
			_, err = s.resolveVar(x, at)
		}
		return true
	})
	return err
}

// bare resolves an unqualified name: a column of exactly one source, or
// else a declared symbol.
func (s *identifiersStep) bare(id *ast.Identifier, sc scope, at int) error {
	var found []source
	for _, src := range sc {
		if _, ok := src.sym.Stream.Field(id.Name); ok {
			found = append(found, src)
		}
	}
	switch len(found) {
	case 1:
		return s.column(id, found[0], id.Name, &id.Binding, id.SetType)
	case 0:
		if _, ok := s.ctx.Symbols.Lookup(id.Name); ok {
			_, err := s.resolve(id, at, ast.SymbolDictionary, ast.SymbolConnection, ast.SymbolStream, ast.SymbolTable)
			return err
		}
		if len(sc) == 0 {
			return diag.Errorf(id, diag.ErrUnknownName, "%s has not been declared", id.Name)
		}
		return diag.Errorf(id, diag.ErrUnknownField, "no stream in the query has a field %s", id.Name)
	}
	refs := make([]string, len(found))
	for i, src := range found {
		refs[i] = src.ref
	}
	return diag.Errorf(id, diag.ErrUnknownField, "%s is ambiguous: qualify it with one of %s", id.Name, strings.Join(refs, ", "))
}

func (s *identifiersStep) qualified(c *ast.CompoundIdentifier, sc scope) error {
	qualifier := c.Qualifier()
	src, ok := sc.lookup(qualifier)
	if !ok {
		return diag.Errorf(c, diag.ErrUnknownName, "%s is not a stream in this query", qualifier)
	}
	return s.column(c, src, c.Last().Name, &c.Binding, c.SetType)
}

func (s *identifiersStep) column(n ast.Node, src source, name string, binding **ast.Binding, setType func(types.FieldType)) error {
	f, ok := src.sym.Stream.Field(name)
	if !ok {
		return diag.Errorf(n, diag.ErrUnknownField, "stream %s has no field %s", src.sym.Stream.FullName(), name)
	}
	*binding = &ast.Binding{Kind: ast.SymbolColumn, Name: src.ref, Field: f.Name}
	setType(f.Type)
	return nil
}
