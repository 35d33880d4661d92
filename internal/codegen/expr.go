package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/funcs"
	"github.com/roach88/pansql/internal/types"
)

// valueKind says how exactly the Go type of rendered text is known.
type valueKind int

const (
	// exactValue text has precisely the Go type of its field type.
	exactValue valueKind = iota
	// constValue text is an untyped Go constant.
	constValue
	// computedValue text may carry a different Go type, e.g. a generic
	// helper instantiated from constant arguments.
	computedValue
)

func kindOf(e ast.Expression) valueKind {
	switch x := e.(type) {
	case *ast.IntegerLiteral, *ast.StringLiteral:
		return constValue
	case *ast.FloatLiteral:
		if x.Kind == ast.FloatDouble {
			return constValue
		}
		return computedValue
	case *ast.Identifier, *ast.CompoundIdentifier, *ast.ScriptVarReference:
		return exactValue
	case *ast.FunctionCallExpression:
		if exactCall(x, nil) {
			return exactValue
		}
	}
	return computedValue
}

// exactCall reports whether the emitted text of a call already has the Go
// type of its result. Integer specials are generic helpers that take their
// type from argument 0, which is exact when it is typed or lifted.
func exactCall(fc *ast.FunctionCallExpression, lifted map[ast.Expression]string) bool {
	if fc.Kind != ast.CallSpecial {
		return true
	}
	ret, ok := fc.ResolvedType()
	if !ok || !ret.Type.IsInteger() {
		return true
	}
	if len(fc.Args) == 0 {
		return false
	}
	if _, ok := lifted[fc.Args[0]]; ok {
		return true
	}
	return kindOf(fc.Args[0]) == exactValue
}

// isPointer reports whether values of ft are generated as *T.
func isPointer(ft types.FieldType) bool {
	if !ft.Nullable || ft.CollectionType != types.CollectionNone {
		return false
	}
	switch {
	case ft.Type == types.Unstructured, ft.Type.IsBinary(), ft.Type == types.Json:
		return false
	}
	return true
}

// ExprRenderer renders typed expressions as Go source. It implements
// funcs.Renderer. Rendering does not stop at the first problem; check Err
// once the expressions of a statement are rendered.
type ExprRenderer struct {
	model   *Model
	records map[string]string
	fields  map[string]map[string]string
	vars    map[string]string
	err     error
}

// NewExprRenderer returns a renderer that records imports in m.
func NewExprRenderer(m *Model) *ExprRenderer {
	return &ExprRenderer{
		model:   m,
		records: make(map[string]string),
		fields:  make(map[string]map[string]string),
		vars:    make(map[string]string),
	}
}

// BindRecord makes columns owned by source render as fields of the Go
// variable ident. fields maps column names to Go field names; columns
// absent from it use Exported.
func (r *ExprRenderer) BindRecord(source, ident string, fields map[string]string) {
	key := strings.ToLower(source)
	r.records[key] = ident
	r.fields[key] = fields
}

// BindVar makes $name render as the Go identifier ident.
func (r *ExprRenderer) BindVar(name, ident string) {
	r.vars[strings.ToLower(name)] = ident
}

// Err returns the first rendering failure.
func (r *ExprRenderer) Err() error { return r.err }

func (r *ExprRenderer) fail(format string, args ...any) string {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}
	return "nil"
}

func (r *ExprRenderer) typeOf(e ast.Expression) types.FieldType {
	t, ok := e.ResolvedType()
	if !ok {
		r.fail("%s: expression has no type", e.Pos())
		return types.Simple(types.Unstructured)
	}
	return t
}

// Render implements funcs.Renderer.
func (r *ExprRenderer) Render(e ast.Expression) string {
	switch x := e.(type) {
	case *ast.IntegerLiteral:
		return strconv.FormatInt(x.Value, 10)
	case *ast.FloatLiteral:
		switch x.Kind {
		case ast.FloatSingle:
			return "float32(" + x.Text + ")"
		case ast.FloatDecimal:
			return r.model.Intrinsic("MustDecimal") + "(" + strconv.Quote(x.Text) + ")"
		}
		return x.Text
	case *ast.StringLiteral:
		return strconv.Quote(x.Value)
	case *ast.Identifier:
		return r.reference(x.Binding, x.Name, x.Pos())
	case *ast.CompoundIdentifier:
		return r.reference(x.Binding, x.String(), x.Pos())
	case *ast.ScriptVarReference:
		if ident, ok := r.vars[strings.ToLower(x.Name)]; ok {
			return ident
		}
		return r.fail("%s: script variable $%s is not bound", x.Pos(), x.Name)
	case *ast.FunctionCallExpression:
		return r.call(x)
	case *ast.BinaryExpression:
		return r.binary(x)
	case *ast.UnaryExpression:
		return r.unary(x)
	}
	return r.fail("%s: %T cannot be rendered as a value", e.Pos(), e)
}

// RenderAs implements funcs.Renderer.
func (r *ExprRenderer) RenderAs(e ast.Expression, t types.FieldType) string {
	return r.convert(r.Render(e), r.typeOf(e), t, kindOf(e))
}

// Condition renders a boolean expression as a plain Go bool; NULL is
// false.
func (r *ExprRenderer) Condition(e ast.Expression) string {
	text := r.Render(e)
	if isPointer(r.typeOf(e)) {
		return r.model.Intrinsic("Value") + "(" + text + ")"
	}
	return text
}

func (r *ExprRenderer) reference(b *ast.Binding, name string, pos ast.Pos) string {
	if b == nil {
		return r.fail("%s: %s was not resolved", pos, name)
	}
	switch b.Kind {
	case ast.SymbolColumn:
		key := strings.ToLower(b.Name)
		ident, ok := r.records[key]
		if !ok {
			return r.fail("%s: no record is bound for %s", pos, b.Name)
		}
		field, ok := r.fields[key][strings.ToLower(b.Field)]
		if !ok {
			field = Exported(b.Field)
		}
		return ident + "." + field
	case ast.SymbolScriptVar:
		if ident, ok := r.vars[strings.ToLower(b.Name)]; ok {
			return ident
		}
	}
	return r.fail("%s: %s %s cannot be used as a value", pos, b.Kind, name)
}

// convert renders text of type from as a value of type to.
func (r *ExprRenderer) convert(text string, from, to types.FieldType, kind valueKind) string {
	if from.Type == types.Unstructured || to.Type == types.Unstructured ||
		from.CollectionType != types.CollectionNone || to.CollectionType != types.CollectionNone {
		return text
	}
	fromPtr, toPtr := isPointer(from), isPointer(to)
	switch {
	case fromPtr && toPtr:
		fromGo, toGo := r.model.ScalarGoType(from), r.model.ScalarGoType(to)
		if fromGo == toGo {
			return text
		}
		return fmt.Sprintf("%s(%s, func(v %s) %s { return %s })",
			r.model.Intrinsic("Apply"), text, fromGo, toGo, r.scalarConvert("v", from, to, exactValue))
	case fromPtr:
		return r.scalarConvert(r.model.Intrinsic("Value")+"("+text+")", from, to, exactValue)
	case toPtr:
		if kind == constValue {
			kind = computedValue
		}
		return r.model.Intrinsic("Ptr") + "(" + r.scalarConvert(text, from, to, kind) + ")"
	}
	return r.scalarConvert(text, from, to, kind)
}

// scalarConvert converts between the non-null Go forms of two types.
func (r *ExprRenderer) scalarConvert(text string, from, to types.FieldType, kind valueKind) string {
	switch {
	case to.Type.IsDecimal():
		switch {
		case from.Type.IsInteger():
			if kind == constValue {
				return r.model.Intrinsic("DecimalFromInt") + "(" + text + ")"
			}
			return r.model.Intrinsic("DecimalFromInt") + "(int64(" + text + "))"
		case from.Type.IsFloat():
			if kind == constValue {
				return r.model.Intrinsic("MustDecimal") + "(" + strconv.Quote(text) + ")"
			}
			return r.model.Intrinsic("DecimalFromFloat") + "(float64(" + text + "))"
		}
		return text
	case from.Type.IsDecimal() && to.Type == types.Double:
		return text + ".Float64()"
	case from.Type.IsDecimal() && to.Type == types.Single:
		return "float32(" + text + ".Float64())"
	case isGoNumeric(from.Type) && isGoNumeric(to.Type):
		toGo := r.model.ScalarGoType(to)
		if kind == constValue || (kind == exactValue && r.model.ScalarGoType(from) == toGo) {
			return text
		}
		return toGo + "(" + text + ")"
	}
	return text
}

// lift renders an operation over operands, propagating NULL when any
// operand is generated as a pointer. body receives the operands' texts
// already in their non-null Go forms.
func (r *ExprRenderer) lift(operands []ast.Expression, result string, body func(args []string) string) string {
	var ptrs []int
	for i, op := range operands {
		if isPointer(r.typeOf(op)) {
			ptrs = append(ptrs, i)
		}
	}
	args := make([]string, len(operands))
	if len(ptrs) == 0 {
		for i, op := range operands {
			args[i] = r.Render(op)
		}
		return body(args)
	}
	if len(ptrs) > 3 {
		return r.fail("%s: too many nullable operands", operands[0].Pos())
	}

	var lifted, params []string
	for i, op := range operands {
		args[i] = r.Render(op)
		if isPointer(r.typeOf(op)) {
			name := fmt.Sprintf("a%d", i)
			lifted = append(lifted, args[i])
			params = append(params, name+" "+r.model.ScalarGoType(r.typeOf(op)))
			args[i] = name
		}
	}
	apply := "Apply"
	if len(ptrs) > 1 {
		apply += strconv.Itoa(len(ptrs))
	}
	return fmt.Sprintf("%s(%s, func(%s) %s { return %s })",
		r.model.Intrinsic(apply), strings.Join(lifted, ", "), strings.Join(params, ", "), result, body(args))
}

// bound renders chosen argument expressions as fixed names, so a call
// can be emitted inside a lifting closure.
type bound struct {
	*ExprRenderer
	names map[ast.Expression]string
}

func (b bound) Render(e ast.Expression) string {
	if name, ok := b.names[e]; ok {
		return name
	}
	return b.ExprRenderer.Render(e)
}

func (b bound) RenderAs(e ast.Expression, t types.FieldType) string {
	if name, ok := b.names[e]; ok {
		return b.convert(name, b.typeOf(e).WithNullable(false), t, exactValue)
	}
	return b.ExprRenderer.RenderAs(e, t)
}

func (r *ExprRenderer) call(fc *ast.FunctionCallExpression) string {
	if fc.Namespace != "" {
		r.model.Import(fc.Namespace)
	}
	if fc.Kind != ast.CallSpecial {
		text, err := funcs.Emit(fc, r)
		if err != nil {
			return r.fail("%s: %v", fc.Pos(), err)
		}
		return text
	}

	ret := r.typeOf(fc)
	return r.lift(fc.Args, r.model.ScalarGoType(ret), func(args []string) string {
		names := make(map[ast.Expression]string)
		for i, a := range fc.Args {
			if isPointer(r.typeOf(a)) {
				names[a] = args[i]
			}
		}
		text, err := funcs.Emit(fc, bound{ExprRenderer: r, names: names})
		if err != nil {
			return r.fail("%s: %v", fc.Pos(), err)
		}
		if len(names) > 0 && isGoNumeric(ret.Type) && !exactCall(fc, names) {
			return r.model.ScalarGoType(ret) + "(" + text + ")"
		}
		return text
	})
}

var arithmeticDecimal = map[string]string{
	"+": "AddDecimal",
	"-": "SubDecimal",
	"*": "MulDecimal",
	"/": "QuoDecimal",
	"%": "RemDecimal",
}

var goComparison = map[string]string{
	"=": "==", "<>": "!=", "<": "<", "<=": "<=", ">": ">", ">=": ">=",
}

func (r *ExprRenderer) binary(b *ast.BinaryExpression) string {
	switch b.Op {
	case "AND":
		return "(" + r.Condition(b.Left) + " && " + r.Condition(b.Right) + ")"
	case "OR":
		return "(" + r.Condition(b.Left) + " || " + r.Condition(b.Right) + ")"
	}
	if cmp, ok := goComparison[b.Op]; ok {
		return r.compare(b, cmp)
	}
	return r.arithmetic(b)
}

func (r *ExprRenderer) operandTypes(b *ast.BinaryExpression) (left, right types.FieldType) {
	return r.typeOf(b.Left), r.typeOf(b.Right)
}

func (r *ExprRenderer) arithmetic(b *ast.BinaryExpression) string {
	result := r.typeOf(b).WithNullable(false)
	lt, rt := r.operandTypes(b)
	operands := []ast.Expression{b.Left, b.Right}
	return r.lift(operands, r.model.ScalarGoType(result), func(args []string) string {
		x := r.scalarConvert(args[0], lt, result, r.operandKind(b.Left))
		y := r.scalarConvert(args[1], rt, result, r.operandKind(b.Right))
		switch {
		case result.Type.IsDecimal():
			fn, ok := arithmeticDecimal[b.Op]
			if !ok {
				return r.fail("%s: operator %s is not defined for decimals", b.Pos(), b.Op)
			}
			return r.model.Intrinsic(fn) + "(" + x + ", " + y + ")"
		case b.Op == "%" && result.Type == types.Double:
			return r.model.Import("math") + ".Mod(" + x + ", " + y + ")"
		case b.Op == "%" && result.Type == types.Single:
			return "float32(" + r.model.Import("math") + ".Mod(float64(" + x + "), float64(" + y + ")))"
		}
		return "(" + x + " " + b.Op + " " + y + ")"
	})
}

// operandKind is the kind of an operand inside lift: pointer operands
// arrive as closure parameters of their exact type.
func (r *ExprRenderer) operandKind(e ast.Expression) valueKind {
	if isPointer(r.typeOf(e)) {
		return exactValue
	}
	return kindOf(e)
}

func (r *ExprRenderer) compare(b *ast.BinaryExpression, op string) string {
	lt, rt := r.operandTypes(b)
	common := lt.WithNullable(false)
	if p, ok := types.Promote(lt, rt); ok {
		common = p.WithNullable(false)
	}
	text := r.lift([]ast.Expression{b.Left, b.Right}, "bool", func(args []string) string {
		x := r.scalarConvert(args[0], lt, common, r.operandKind(b.Left))
		y := r.scalarConvert(args[1], rt, common, r.operandKind(b.Right))
		switch {
		case common.Type.IsDecimal():
			return "(" + x + ".Cmp(" + y + ") " + op + " 0)"
		case common.Type.IsTemporal() && common.Type != types.Interval:
			return "(" + x + ".Compare(" + y + ") " + op + " 0)"
		}
		return "(" + x + " " + op + " " + y + ")"
	})
	if isPointer(lt) || isPointer(rt) {
		return r.model.Intrinsic("Value") + "(" + text + ")"
	}
	return text
}

func (r *ExprRenderer) unary(u *ast.UnaryExpression) string {
	t := r.typeOf(u.Operand)
	return r.lift([]ast.Expression{u.Operand}, r.model.ScalarGoType(t), func(args []string) string {
		switch {
		case u.Op == "NOT":
			return "!" + args[0]
		case t.Type.IsDecimal():
			return r.model.Intrinsic("NegDecimal") + "(" + args[0] + ")"
		}
		return "(-" + args[0] + ")"
	})
}
