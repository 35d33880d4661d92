package steps

import (
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/funcs"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// typeCheckStep checks that typed expressions fit where they are used:
// output columns, filters and script variable defaults.
type typeCheckStep struct{ base }

func (*typeCheckStep) ID() pipeline.StepID { return TypeCheck }

func (*typeCheckStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{functions(), variables()}
}

func (s *typeCheckStep) Execute(file *ast.File) error {
	if err := indexed(file, s.scriptVar); err != nil {
		return err
	}
	return indexed(file, s.transform)
}

func (s *typeCheckStep) scriptVar(st *ast.ScriptVarDeclaration, _ int) error {
	if st.Default == nil {
		return nil
	}
	sym, _ := s.ctx.Symbols.LookupVar(st.Name.Name)
	actual, ok := st.Default.ResolvedType()
	if !ok {
		return diag.Errorf(st.Default, diag.ErrInvalidArgument, "%s is not a value", funcs.Describe(st.Default))
	}
	if err := types.TypeCheck(actual, sym.Type, "$"+sym.Name, true); err != nil {
		return diag.Errorf(st.Default, diag.ErrTypeMismatch, "%v", err)
	}
	return nil
}

func (s *typeCheckStep) transform(st *ast.SqlTransformStatement, _ int) error {
	seen := make(map[string]*ast.SelectColumn)
	for i, c := range st.Columns {
		name := c.Name()
		if name == "" {
			return diag.Errorf(c, diag.ErrMissingAlias, "column %d is computed and needs an alias (AS name)", i+1)
		}
		if prev, dup := seen[strings.ToLower(name)]; dup {
			return diag.Errorf(c, diag.ErrDuplicateColumn, "column %s is already selected at %s", name, prev.Pos())
		}
		seen[strings.ToLower(name)] = c
		t, ok := c.Expr.ResolvedType()
		if !ok {
			return diag.Errorf(c.Expr, diag.ErrInvalidArgument, "%s is not a value and cannot be selected", funcs.Describe(c.Expr))
		}
		if t.CollectionType != types.CollectionNone && st.Into == nil {
			return diag.Errorf(c, diag.ErrTypeMismatch, "column %s: collections can only be selected into a stream", name)
		}
	}

	for _, j := range st.Joins {
		if err := condition(j.On, "join condition"); err != nil {
			return err
		}
	}
	if st.Where != nil {
		if err := condition(st.Where, "where clause"); err != nil {
			return err
		}
	}

	if st.Into == nil {
		return nil
	}
	target, _ := s.ctx.Symbols.Lookup(st.Into.Name)
	for _, c := range st.Columns {
		f, ok := target.Stream.Field(c.Name())
		if !ok {
			return diag.Errorf(c, diag.ErrUnknownField, "stream %s has no field %s", target.Stream.FullName(), c.Name())
		}
		actual, _ := c.Expr.ResolvedType()
		if err := types.TypeCheck(actual, f.Type, c.Name(), true); err != nil {
			return diag.Errorf(c, diag.ErrTypeMismatch, "%v", err)
		}
	}
	return nil
}

func condition(e ast.Expression, role string) error {
	t, ok := e.ResolvedType()
	if !ok {
		return diag.Errorf(e, diag.ErrInvalidArgument, "%s is not a value", funcs.Describe(e))
	}
	if t.Type != types.Boolean || t.CollectionType != types.CollectionNone {
		return diag.Errorf(e, diag.ErrWhereNotBoolean, "%s must be boolean, not %s", role, t)
	}
	return nil
}
