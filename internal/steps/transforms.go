package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/pipeline"
)

// transformsStep generates the code of select statements: an output
// record class, a function evaluating one combination of input records,
// and the run statements that read the inputs and deliver the output.
type transformsStep struct{ base }

func (*transformsStep) ID() pipeline.StepID { return Transforms }

func (*transformsStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{typeCheck(), connectorsDep()}
}

func (s *transformsStep) Execute(file *ast.File) error {
	return indexed(file, s.transform)
}

// input is one from or join source of a select.
type input struct {
	ref   *ast.TableRef
	sym   *pipeline.Symbol
	ident string
	conn  *pipeline.Symbol
	// rows holds the records of a joined input.
	rows string
}

func (s *transformsStep) transform(st *ast.SqlTransformStatement, at int) error {
	m := s.ctx.Model
	name := s.ctx.Names.Next("Transform")
	fn := s.ctx.Idents.Reserve(codegen.Local(name))

	var inputs []*input
	var refs []*ast.TableRef
	if st.From != nil {
		refs = append(refs, st.From)
	}
	for _, j := range st.Joins {
		refs = append(refs, j.Table)
	}
	taken := make(map[string]bool)
	for _, ref := range refs {
		sym, _ := s.ctx.Symbols.Lookup(ref.Name.Name)
		conn, err := s.connection(sym, ast.PurposeRead, at, ref)
		if err != nil {
			return err
		}
		inputs = append(inputs, &input{
			ref:   ref,
			sym:   sym,
			ident: unique(taken, s.ctx.Idents.Fresh(codegen.Local(ref.RefName()))),
			conn:  conn,
		})
	}

	var target, writer *pipeline.Symbol
	if st.Into != nil {
		target, _ = s.ctx.Symbols.Lookup(st.Into.Name)
		var err error
		if writer, err = s.connection(target, ast.PurposeWrite, at, st.Into); err != nil {
			return err
		}
	}

	out, err := s.outputClass(st, name, target)
	if err != nil {
		return err
	}
	st.OutputName = out.Name

	r := codegen.NewExprRenderer(m)
	for _, in := range inputs {
		r.BindRecord(in.ref.RefName(), in.ident, fieldNames(in.sym.Class))
	}
	for _, v := range s.ctx.Symbols.OfKind(ast.SymbolScriptVar) {
		r.BindVar(v.Name, v.GoName)
	}

	outFields := fieldNames(out)
	values := make([]string, len(st.Columns))
	for i, c := range st.Columns {
		ft, _ := c.Expr.ResolvedType()
		if target != nil {
			f, _ := target.Stream.Field(c.Name())
			ft = f.Type
		}
		values[i] = fmt.Sprintf("%s: %s,", outFields[strings.ToLower(c.Name())], r.RenderAs(c.Expr, ft))
	}
	var conds []string
	for _, j := range st.Joins {
		conds = append(conds, r.Condition(j.On))
	}
	if st.Where != nil {
		conds = append(conds, r.Condition(st.Where))
	}
	cond := "true"
	if len(conds) > 0 {
		cond = strings.Join(conds, " && ")
	}
	if err := r.Err(); err != nil {
		return fmt.Errorf("generate select at %s: %w", st.Pos(), err)
	}

	params := make([]string, len(inputs))
	args := make([]string, len(inputs))
	for i, in := range inputs {
		params[i] = in.ident + " " + in.sym.Class.Name
		args[i] = in.ident
	}
	m.AddFunc(&codegen.Func{
		Doc:     fmt.Sprintf("%s evaluates the select at %s for one combination of input records.", fn, st.Pos()),
		Name:    fn,
		Params:  strings.Join(params, ", "),
		Results: "(" + out.Name + ", bool)",
		Body:    []string{fmt.Sprintf("return %s{\n%s\n}, %s", out.Name, strings.Join(values, "\n"), cond)},
	})

	call := fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", "))
	sink := fmt.Sprintf("%s.Println(%s(rec))", m.Import("fmt"), m.Intrinsic("Record"))
	if target != nil {
		sink = fmt.Sprintf(`if err := %s.Write(ctx, %q, rec); err != nil {
	return err
}`, writer.GoName, target.Stream.FullName())
	}

	if len(inputs) == 0 {
		s.ctx.EmitFor(st, "if rec, ok := %s; ok {\n%s\n}", call, sink)
		return nil
	}

	// Joined inputs are read into memory first; the from input streams.
	for _, in := range inputs[1:] {
		in.rows = s.ctx.Idents.Reserve(in.ident + "Rows")
		read, err := s.read(in, nil, fmt.Sprintf("%s = append(%s, %s)\nreturn nil", in.rows, in.rows, in.ident))
		if err != nil {
			return err
		}
		s.ctx.EmitFor(st, "var %s []%s", in.rows, in.sym.Class.Name)
		s.ctx.EmitFor(st, "%s", read)
	}

	var body string
	if len(inputs) == 1 {
		body = fmt.Sprintf("rec, ok := %s\nif !ok {\nreturn nil\n}\n%s\nreturn nil", call, sink)
	} else {
		body = fmt.Sprintf("rec, ok := %s\nif !ok {\ncontinue\n}\n%s", call, sink)
		for i := len(inputs) - 1; i >= 1; i-- {
			body = fmt.Sprintf("for _, %s := range %s {\n%s\n}", inputs[i].ident, inputs[i].rows, body)
		}
		body += "\nreturn nil"
	}

	var filters []connectors.Filter
	if len(inputs) == 1 {
		filters = pushdown(st.Where, inputs[0].ref.RefName())
	}
	read, err := s.read(inputs[0], filters, body)
	if err != nil {
		return err
	}
	s.ctx.EmitFor(st, "%s", read)
	return nil
}

// connection finds the connection a variable's stream is read from or
// written to: the most recent one opened before the statement with the
// variable's dictionary.
func (s *transformsStep) connection(v *pipeline.Symbol, p ast.OpenPurpose, at int, node ast.Node) (*pipeline.Symbol, error) {
	var found *pipeline.Symbol
	for _, c := range s.ctx.Symbols.Connections(v.DictionaryName, p) {
		if c.Index < at {
			found = c
		}
	}
	if found != nil {
		return found, nil
	}
	if p == ast.PurposeWrite {
		return nil, diag.Errorf(node, diag.ErrNoOutput,
			"%s cannot be written: no connection is open for write with dictionary %s", v.Name, v.DictionaryName)
	}
	return nil, diag.Errorf(node, diag.ErrNoInput,
		"%s cannot be read: no connection is open for read with dictionary %s", v.Name, v.DictionaryName)
}

// outputClass is the record class a select produces: the class of the
// into stream, or a new class with one field per column.
func (s *transformsStep) outputClass(st *ast.SqlTransformStatement, name string, target *pipeline.Symbol) (*codegen.Class, error) {
	if target != nil {
		return target.Class, nil
	}
	out := &codegen.Class{Name: s.ctx.Idents.Reserve(name)}
	out.Doc = fmt.Sprintf("%s is the output of the select at %s.", out.Name, st.Pos())
	taken := make(map[string]bool)
	for _, c := range st.Columns {
		ft, _ := c.Expr.ResolvedType()
		out.Fields = append(out.Fields, &codegen.Field{
			Name:   unique(taken, codegen.Exported(c.Name())),
			Type:   s.ctx.Model.GoType(ft),
			Column: c.Name(),
		})
	}
	if err := addClass(s.ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// read renders a streaming read of in's stream. body is the callback
// body, run once per record bound to in.ident.
func (s *transformsStep) read(in *input, filters []connectors.Filter, body string) (string, error) {
	return readStream(s.ctx, in.conn, in.sym.Stream, in.sym.Class, in.ident, filters, body)
}

// readStream renders a read of stream through conn. Relational
// connectors get the query selecting the class's columns.
func readStream(ctx *pipeline.Context, conn *pipeline.Symbol, stream *dictionary.Stream, class *codegen.Class,
	ident string, filters []connectors.Filter, body string) (string, error) {
	m := ctx.Model
	pkg := m.ImportAs(conn.Connector.Package, conn.Connector.Alias())
	query, args := `""`, "nil"
	if conn.Connector.Relational() {
		columns := make([]string, len(class.Fields))
		for i, f := range class.Fields {
			columns[i] = f.Column
		}
		q := connectors.Query{Table: stream.FullName(), Columns: columns, Filters: filters}
		text, values, err := conn.Connector.RenderQuery(q)
		if err != nil {
			return "", &diag.BuildError{
				Code:    diag.ErrQueryRender,
				Message: fmt.Sprintf("read %s through %s: %v", stream.FullName(), conn.Name, err),
				Path:    []string{conn.Name, stream.FullName()},
			}
		}
		query, args = strconv.Quote(text), goValues(values)
	}
	return fmt.Sprintf(`if err := %s.Read(ctx, %s, %q, %s, %s, func(%s %s) error {
%s
}); err != nil {
	return %s.Errorf("read %s: %%w", err)
}`, pkg, conn.GoName, stream.FullName(), query, args, ident, class.Name, body, m.Import("fmt"), stream.FullName()), nil
}

func goValues(values []any) string {
	if len(values) == 0 {
		return "nil"
	}
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case int64:
			out[i] = fmt.Sprintf("int64(%d)", x)
		case float64:
			out[i] = "float64(" + strconv.FormatFloat(x, 'g', -1, 64) + ")"
		case string:
			out[i] = strconv.Quote(x)
		default:
			out[i] = fmt.Sprintf("%#v", x)
		}
	}
	return "[]any{" + strings.Join(out, ", ") + "}"
}

var flipped = map[string]string{"=": "=", "<>": "<>", "<": ">", "<=": ">=", ">": "<", ">=": "<="}

// pushdown extracts the conjuncts of where that compare a column of ref
// with a literal. The generated filter still runs, so pushed conditions
// only narrow what the source sends.
func pushdown(where ast.Expression, ref string) []connectors.Filter {
	var out []connectors.Filter
	var walk func(e ast.Expression)
	walk = func(e ast.Expression) {
		b, ok := e.(*ast.BinaryExpression)
		if !ok {
			return
		}
		if b.Op == "AND" {
			walk(b.Left)
			walk(b.Right)
			return
		}
		if _, ok := flipped[b.Op]; !ok {
			return
		}
		if col, ok := columnOf(b.Left, ref); ok {
			if v, ok := literalValue(b.Right); ok {
				out = append(out, connectors.Filter{Column: col, Op: b.Op, Value: v})
			}
		} else if col, ok := columnOf(b.Right, ref); ok {
			if v, ok := literalValue(b.Left); ok {
				out = append(out, connectors.Filter{Column: col, Op: flipped[b.Op], Value: v})
			}
		}
	}
	if where != nil {
		walk(where)
	}
	return out
}

func columnOf(e ast.Expression, ref string) (string, bool) {
	var b *ast.Binding
	switch x := e.(type) {
	case *ast.Identifier:
		b = x.Binding
	case *ast.CompoundIdentifier:
		b = x.Binding
	}
	if b == nil || b.Kind != ast.SymbolColumn || !strings.EqualFold(b.Name, ref) {
		return "", false
	}
	return b.Field, true
}

func literalValue(e ast.Expression) (any, bool) {
	switch x := e.(type) {
	case *ast.IntegerLiteral:
		return x.Value, true
	case *ast.StringLiteral:
		return x.Value, true
	case *ast.FloatLiteral:
		if x.Kind == ast.FloatDecimal {
			return nil, false
		}
		v, err := strconv.ParseFloat(x.Text, 64)
		return v, err == nil
	}
	return nil, false
}
