package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/funcs"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// connectorsStep checks open and analyze statements against the
// connector catalogue and generates the code that opens connections.
type connectorsStep struct{ base }

func (*connectorsStep) ID() pipeline.StepID { return Connectors }

func (*connectorsStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{declarations(), dictionaries(), variables()}
}

func (s *connectorsStep) Execute(file *ast.File) error {
	saved := make(map[string]bool)
	for _, stmt := range file.Statements {
		if st, ok := stmt.(*ast.SaveStatement); ok {
			saved[strings.ToLower(st.Name.Name)] = true
		}
	}
	if err := indexed(file, s.open); err != nil {
		return err
	}
	return indexed(file, func(st *ast.AnalyzeStatement, at int) error {
		return s.analyze(st, at, saved[strings.ToLower(st.Dictionary.Name)])
	})
}

func (s *connectorsStep) open(st *ast.OpenStatement, at int) error {
	sym, _ := s.ctx.Symbols.Lookup(st.Name.Name)
	c, ok := s.ctx.Connectors.Lookup(st.Connector.Name)
	if !ok {
		return diag.Errorf(st.Connector, diag.ErrUnknownConnector, "No connector named %s", st.Connector.Name)
	}
	if !c.Supports(st.Purpose) {
		return diag.Errorf(st, diag.ErrUnsupportedPurpose, "connector %s cannot be opened for %s", c.Name, st.Purpose)
	}
	sym.Connector = c
	sym.Purpose = st.Purpose

	switch {
	case st.Purpose == ast.PurposeAnalyze && st.Dictionary != nil:
		return diag.Errorf(st.Dictionary, diag.ErrUnsupportedPurpose,
			"connection %s is opened for analyze and does not take a dictionary", st.Name.Name)
	case st.Purpose != ast.PurposeAnalyze && st.Dictionary == nil:
		return diag.Errorf(st, diag.ErrMissingDictionary,
			"connection %s is opened for %s and needs a dictionary", st.Name.Name, st.Purpose)
	case st.Dictionary != nil:
		dict, err := s.resolveLoaded(st.Dictionary, at)
		if err != nil {
			return err
		}
		sym.DictionaryName = dict.Name
	}

	creds, err := s.credentials(st, at, sym.GoName)
	if err != nil {
		return err
	}

	m := s.ctx.Model
	pkg := m.ImportAs(c.Package, c.Alias())
	s.ctx.Idents.Reserve(pkg)
	s.ctx.EmitFor(st, `%s, err := %s.Open(ctx, %q, %s)
if err != nil {
	return %s.Errorf("open %s: %%w", err)
}
defer %s.Close()`, sym.GoName, pkg, st.Purpose.String(), creds, m.Import("fmt"), sym.Name, sym.GoName)
	m.Connectors = append(m.Connectors, connectors.NewUsage(sym.Name, c, st.Purpose, sym.DictionaryName))
	return nil
}

// credentials returns the Go expression holding the connection string,
// emitting the statements that obtain it.
func (s *connectorsStep) credentials(st *ast.OpenStatement, at int, conn string) (string, error) {
	ce, ok := st.Credentials.(*ast.CredentialExpression)
	if !ok {
		return "", diag.Errorf(st.Credentials, diag.ErrInvalidCredentials, "invalid credentials for %s", st.Name.Name)
	}
	value, err := s.credentialValue(ce.Value, at)
	if err != nil {
		return "", err
	}
	ce.SetType(types.Simple(types.Ntext))

	if ce.Method == ast.CredentialsLiteral {
		return value, nil
	}
	name := s.ctx.Idents.Reserve(conn + "Credentials")
	s.ctx.EmitFor(st, `%s, err := %s(%s)
if err != nil {
	return err
}`, name, s.ctx.Model.Intrinsic(ce.Method.String()), value)
	return name, nil
}

func (s *connectorsStep) credentialValue(e ast.Expression, at int) (string, error) {
	switch v := e.(type) {
	case *ast.StringLiteral:
		v.SetType(types.Simple(types.Ntext))
		return strconv.Quote(v.Value), nil
	case *ast.ScriptVarReference:
		sym, err := s.resolveVar(v, at)
		if err != nil {
			return "", err
		}
		if !sym.Type.Type.IsString() || sym.Type.Nullable || sym.Type.CollectionType != types.CollectionNone {
			return "", diag.Errorf(v, diag.ErrInvalidCredentials,
				"credentials must be a non-null string, but $%s is %s", v.Name, sym.Type)
		}
		return sym.GoName, nil
	}
	return "", diag.Errorf(e, diag.ErrInvalidCredentials,
		"credentials must be a string literal or a script variable, not %s", funcs.Describe(e))
}

func (s *connectorsStep) analyze(st *ast.AnalyzeStatement, at int, saved bool) error {
	conn, err := s.resolve(st.Conn, at, ast.SymbolConnection)
	if err != nil {
		return err
	}
	if conn.Purpose != ast.PurposeAnalyze {
		return diag.Errorf(st.Conn, diag.ErrAnalyzeSource,
			"connection %s is opened for %s; analyze needs a connection opened for analyze", conn.Name, conn.Purpose)
	}
	dict, _ := s.ctx.Symbols.Lookup(st.Dictionary.Name)

	m := s.ctx.Model
	var opts []string
	if st.Optimize {
		opts = append(opts, "Optimize: true")
	}
	if len(st.Include) > 0 {
		opts = append(opts, "Include: "+streamList(st.Include))
	}
	if len(st.Exclude) > 0 {
		opts = append(opts, "Exclude: "+streamList(st.Exclude))
	}
	s.ctx.EmitFor(st, `%s, err := %s.Analyze(ctx, %s{%s})
if err != nil {
	return %s.Errorf("analyze %s: %%w", err)
}`, dict.GoName, conn.GoName, m.Intrinsic("AnalyzeOptions"), strings.Join(opts, ", "), m.Import("fmt"), conn.Name)

	if !saved {
		// An analyzed dictionary nobody saves is printed.
		s.ctx.EmitFor(st, `if _, err := %s.Stdout.Write(%s); err != nil {
	return err
}`, m.Import("os"), dict.GoName)
	}
	return nil
}

func streamList(ids []*ast.CompoundIdentifier) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = strconv.Quote(id.String())
	}
	return fmt.Sprintf("[]string{%s}", strings.Join(names, ", "))
}
