package funcs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/types"
)

// sourceRenderer renders literals and names as they appear in source.
type sourceRenderer struct{}

func (sourceRenderer) Render(e ast.Expression) string {
	switch x := e.(type) {
	case *ast.IntegerLiteral:
		return fmt.Sprint(x.Value)
	case *ast.FloatLiteral:
		return x.Text
	}
	return Describe(e)
}

func (r sourceRenderer) RenderAs(e ast.Expression, _ types.FieldType) string {
	return r.Render(e)
}

func typed(e ast.Expression) ast.Expression {
	if t, ok := LiteralType(e); ok {
		e.SetType(t)
	}
	return e
}

func intLit(v int64) ast.Expression { return typed(&ast.IntegerLiteral{Value: v}) }

func floatLit(text string, kind ast.FloatKind) ast.Expression {
	return typed(&ast.FloatLiteral{Text: text, Kind: kind})
}

func strLit(s string) ast.Expression { return typed(&ast.StringLiteral{Value: s}) }

func ident(name, typ string) *ast.Identifier {
	id := &ast.Identifier{Name: name}
	if typ != "" {
		id.SetType(types.MustParse(typ))
	}
	return id
}

func newCall(name string, args ...ast.Expression) *ast.FunctionCallExpression {
	return &ast.FunctionCallExpression{Name: name, Args: args, HasParens: true}
}

func requireCode(t *testing.T, err error, code diag.Code) *diag.CompilerError {
	t.Helper()
	require.Error(t, err)
	var ce *diag.CompilerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code, ce.Error())
	return ce
}

func TestBind_UnknownFunction(t *testing.T) {
	c := newCall("FROB", intLit(1))
	ce := requireCode(t, Bind(c), diag.ErrUnknownFunction)
	assert.Equal(t, "No function named FROB", ce.Message)
	assert.Same(t, c, ce.Node)
}

func TestBind_ArityLaws(t *testing.T) {
	tests := []struct {
		name string
		call *ast.FunctionCallExpression
		msg  string
	}{
		{"format without arguments", newCall("FORMAT"), "FORMAT requires at least 1 argument"},
		{"power with one argument", newCall("POWER", intLit(1)), "POWER requires 2 arguments"},
		{"rand with three arguments", newCall("RAND", intLit(1), intLit(2), intLit(3)), "RAND requires at most 1 argument"},
		{"upper with two arguments", newCall("upper", strLit("a"), strLit("b")), "UPPER requires 1 argument"},
		{"round with one argument", newCall("ROUND", floatLit("1.5", ast.FloatDouble)), "ROUND requires 2 to 3 arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := requireCode(t, Bind(tt.call), diag.ErrArity)
			assert.Equal(t, tt.msg, ce.Message)
		})
	}
}

func TestBind_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"sqrt", "Sqrt", "SQRT"} {
		c := newCall(name, floatLit("4.0", ast.FloatDouble))
		require.NoError(t, Bind(c), name)
		assert.Equal(t, "SQRT", c.CodeName)
	}
}

func TestBind_SqrtRejectsText(t *testing.T) {
	arg := strLit("text")
	ce := requireCode(t, Bind(newCall("SQRT", arg)), diag.ErrArgumentType)
	assert.Contains(t, ce.Message, "cannot be passed to a function parameter of type float or decimal")
	assert.Same(t, arg, ce.Node)
}

func TestBind_SqrtPrecisionSplit(t *testing.T) {
	single := newCall("SQRT", floatLit("4.0", ast.FloatSingle))
	double := newCall("SQRT", floatLit("4.0", ast.FloatDouble))
	require.NoError(t, Bind(single))
	require.NoError(t, Bind(double))

	assert.Equal(t, types.Simple(types.Single), *single.ReturnType)
	assert.Equal(t, types.Simple(types.Double), *double.ReturnType)

	singleCode, err := Emit(single, sourceRenderer{})
	require.NoError(t, err)
	doubleCode, err := Emit(double, sourceRenderer{})
	require.NoError(t, err)

	assert.Equal(t, "float32(math.Sqrt(float64(4.0)))", singleCode)
	assert.Equal(t, "math.Sqrt(4.0)", doubleCode)
	assert.NotEqual(t, singleCode, doubleCode)
	assert.Equal(t, "math", single.Namespace)
}

func TestBind_Idempotent(t *testing.T) {
	calls := []*ast.FunctionCallExpression{
		newCall("SIGN", intLit(-5)),
		newCall("FORMAT", strLit("{0}"), intLit(1)),
		{Name: "CURRENT_TIMESTAMP"},
		newCall("POWER", floatLit("2.0", ast.FloatSingle), floatLit("3.0", ast.FloatSingle)),
	}
	for _, c := range calls {
		require.NoError(t, Bind(c))
		first := *c
		require.NoError(t, Bind(c))
		assert.Equal(t, first.CodeName, c.CodeName)
		assert.Equal(t, first.Namespace, c.Namespace)
		assert.Equal(t, *first.ReturnType, *c.ReturnType)
		assert.Equal(t, first.Kind, c.Kind)
	}
}

func TestBind_NullabilityRelaxation(t *testing.T) {
	// YEAR takes datetime?; a non-nullable datetime fits.
	c := newCall("YEAR", ident("ordered", "datetime"))
	require.NoError(t, Bind(c))
	assert.Equal(t, types.MustParse("int?"), *c.ReturnType)

	// SUBSTRING takes int; a nullable int does not.
	c = newCall("SUBSTRING", strLit("abc"), ident("start", "int?"), intLit(1))
	ce := requireCode(t, Bind(c), diag.ErrArgumentType)
	assert.Contains(t, ce.Message, `argument "start" of type int?`)
}

func TestBind_Widening(t *testing.T) {
	// short widens into the int parameter; date into datetime?.
	require.NoError(t, Bind(newCall("SUBSTRING", ident("s", "varchar(10)"), ident("a", "short"), intLit(2))))
	require.NoError(t, Bind(newCall("MONTH", ident("d", "date"))))

	ce := requireCode(t, Bind(newCall("SUBSTRING", strLit("abc"), ident("big", "long"), intLit(1))), diag.ErrArgumentType)
	assert.Contains(t, ce.Message, "cannot be passed to a function parameter of type int")
}

func TestBind_Properties(t *testing.T) {
	c := &ast.FunctionCallExpression{Name: "current_timestamp"}
	require.NoError(t, Bind(c))
	assert.Equal(t, ast.CallProperty, c.Kind)
	assert.Equal(t, "time.Now()", c.CodeName)
	assert.Equal(t, "time", c.Namespace)
	assert.Equal(t, types.Simple(types.DateTime), *c.ReturnType)

	code, err := Emit(c, sourceRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "time.Now()", code)

	pi := newCall("PI")
	require.NoError(t, Bind(pi))
	assert.Equal(t, ast.CallProperty, pi.Kind)
	assert.Equal(t, "math.Pi", pi.CodeName)
}

func TestBind_PropertyWithArguments(t *testing.T) {
	ce := requireCode(t, Bind(newCall("CURRENT_TIMESTAMP", intLit(1))), diag.ErrPropertyWithArgs)
	assert.Equal(t, "CURRENT_TIMESTAMP does not take any arguments", ce.Message)
}

func TestBind_InvalidArgument(t *testing.T) {
	conn := ident("myConn", "")
	ce := requireCode(t, Bind(newCall("ABS", conn)), diag.ErrInvalidArgument)
	assert.Contains(t, ce.Message, "myConn")
	assert.Contains(t, ce.Message, "not a valid function argument")
	assert.Same(t, conn, ce.Node)
}

func TestBind_Sign(t *testing.T) {
	tests := []struct {
		arg  ast.Expression
		code string
	}{
		{intLit(-5), "intrinsics.Sign(-5)"},
		{ident("b", "byte"), "intrinsics.Sign(b)"},
		{floatLit("-2.5", ast.FloatDouble), "intrinsics.SignFloat64(-2.5)"},
		{floatLit("2.5", ast.FloatSingle), "intrinsics.SignFloat32(2.5)"},
		{floatLit("2.5", ast.FloatDecimal), "intrinsics.SignDecimal(2.5)"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c := newCall("SIGN", tt.arg)
			require.NoError(t, Bind(c))
			assert.Equal(t, types.Simple(types.Int), *c.ReturnType)
			assert.Equal(t, IntrinsicsPackage, c.Namespace)
			code, err := Emit(c, sourceRenderer{})
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestBind_SpecialNullability(t *testing.T) {
	sign := newCall("SIGN", ident("n", "long?"))
	require.NoError(t, Bind(sign))
	assert.Equal(t, "int?", sign.ReturnType.String())

	atan := newCall("ATAN2", floatLit("1.0", ast.FloatDouble), ident("x", "double?"))
	require.NoError(t, Bind(atan))
	assert.True(t, atan.ReturnType.Nullable, "any nullable argument makes the result nullable")
}

func TestBind_UniformArguments(t *testing.T) {
	// double does not narrow into argument 0's single.
	c := newCall("ATAN2", floatLit("1.0", ast.FloatSingle), floatLit("2.0", ast.FloatDouble))
	ce := requireCode(t, Bind(c), diag.ErrArgumentType)
	assert.Contains(t, ce.Message, "ATAN2: argument 2 of type double cannot be passed to a function parameter of type single")
	assert.Same(t, c.Args[1], ce.Node)

	ce = requireCode(t, Bind(newCall("POWER", intLit(2), ident("l", "long"))), diag.ErrArgumentType)
	assert.Contains(t, ce.Message, "argument 2 of type long")

	require.NoError(t, Bind(newCall("POWER", intLit(2), intLit(10))))
}

func TestBind_UniformArgumentsWiden(t *testing.T) {
	tests := []struct {
		name string
		call *ast.FunctionCallExpression
		ret  string
	}{
		{"integer widening", newCall("POWER", ident("l", "long"), intLit(2)), "long"},
		{"integer into decimal", newCall("POWER", ident("d", "decimal(10,2)"), intLit(2)), "decimal(10,2)"},
		{"decimal and numeric", newCall("ATAN2", ident("a", "decimal(10,2)"), ident("b", "numeric(10,2)")), "decimal(10,2)"},
		{"single into double", newCall("ATAN2", ident("y", "double"), ident("x", "single?")), "double?"},
		{"nullable first", newCall("LOG", ident("x", "double?"), floatLit("2.0", ast.FloatDouble)), "double?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Bind(tt.call))
			assert.Equal(t, tt.ret, tt.call.ReturnType.String())
		})
	}
}

// convertingRenderer shows conversions requested through RenderAs.
type convertingRenderer struct{ sourceRenderer }

func (r convertingRenderer) RenderAs(e ast.Expression, t types.FieldType) string {
	if own, ok := e.ResolvedType(); ok && own.WithNullable(false) == t {
		return r.Render(e)
	}
	return t.String() + "(" + r.Render(e) + ")"
}

func TestEmit_UniformArgumentsConverted(t *testing.T) {
	tests := []struct {
		call *ast.FunctionCallExpression
		code string
	}{
		{newCall("POWER", ident("l", "long"), ident("i", "int")), "intrinsics.Power(l, long(i))"},
		{newCall("POWER", ident("d", "decimal(10,2)"), intLit(2)), "intrinsics.PowDecimal(d, decimal(10,2)(2))"},
		{newCall("ATAN2", ident("a", "decimal(10,2)"), ident("b", "numeric(10,2)")), "intrinsics.Atan2Decimal(a, decimal(10,2)(b))"},
		{newCall("ATAN2", ident("y", "double"), ident("x", "double")), "math.Atan2(y, x)"},
		{newCall("LOG", ident("x", "single"), ident("b", "single")), "float32((math.Log(float64(x)) / math.Log(float64(b))))"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.NoError(t, Bind(tt.call))
			code, err := Emit(tt.call, convertingRenderer{})
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestBind_CollectionsRejected(t *testing.T) {
	requireCode(t, Bind(newCall("SQRT", ident("xs", "double[]"))), diag.ErrArgumentType)
}

func TestBind_Round(t *testing.T) {
	c := newCall("ROUND", floatLit("2.55", ast.FloatDouble), intLit(1))
	require.NoError(t, Bind(c))
	code, err := Emit(c, sourceRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "intrinsics.RoundFloat64(2.55, int32(1))", code)

	requireCode(t, Bind(newCall("ROUND", floatLit("2.55", ast.FloatDouble), floatLit("1.0", ast.FloatDouble))), diag.ErrArgumentType)
}

func TestBind_Rand(t *testing.T) {
	c := newCall("RAND")
	require.NoError(t, Bind(c))
	assert.Equal(t, types.Simple(types.Double), *c.ReturnType)
	assert.Equal(t, "math/rand", c.Namespace)
	code, _ := Emit(c, sourceRenderer{})
	assert.Equal(t, "rand.Float64()", code)

	seeded := newCall("RAND", intLit(42))
	require.NoError(t, Bind(seeded))
	code, _ = Emit(seeded, sourceRenderer{})
	assert.Equal(t, "rand.New(rand.NewSource(int64(42))).Float64()", code)

	requireCode(t, Bind(newCall("RAND", floatLit("1.0", ast.FloatDouble))), diag.ErrArgumentType)
}

func TestEmit_SpecialFamilies(t *testing.T) {
	tests := []struct {
		call *ast.FunctionCallExpression
		code string
	}{
		{newCall("LOG", floatLit("8.0", ast.FloatDouble), floatLit("2.0", ast.FloatDouble)), "(math.Log(8.0) / math.Log(2.0))"},
		{newCall("LOG", floatLit("8.0", ast.FloatSingle)), "float32(math.Log(float64(8.0)))"},
		{newCall("ATAN2", floatLit("1.0", ast.FloatSingle), floatLit("2.0", ast.FloatSingle)), "float32(math.Atan2(float64(1.0), float64(2.0)))"},
		{newCall("DEGREES", floatLit("1.0", ast.FloatDouble)), "(1.0 * 180 / math.Pi)"},
		{newCall("RADIANS", floatLit("90.0", ast.FloatSingle)), "float32(float64(90.0) * math.Pi / 180)"},
		{newCall("ABS", intLit(-3)), "intrinsics.Abs(-3)"},
		{newCall("ABS", floatLit("-3.0", ast.FloatDouble)), "math.Abs(-3.0)"},
		{newCall("CEILING", intLit(3)), "(3)"},
		{newCall("FLOOR", floatLit("1.25", ast.FloatDecimal)), "intrinsics.FloorDecimal(1.25)"},
		{newCall("SQUARE", ident("n", "long")), "(n * n)"},
		{newCall("POWER", intLit(2), intLit(8)), "intrinsics.Power(2, 8)"},
		{newCall("EXP", floatLit("1.0", ast.FloatDecimal)), "intrinsics.ExpDecimal(1.0)"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			require.NoError(t, Bind(tt.call))
			code, err := Emit(tt.call, sourceRenderer{})
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestEmit_Intrinsics(t *testing.T) {
	c := newCall("FORMAT", strLit("{0}-{1}"), intLit(1), ident("d", "datetime?"))
	require.NoError(t, Bind(c))
	assert.Equal(t, ast.CallFunction, c.Kind)
	assert.Equal(t, types.Simple(types.Ntext), *c.ReturnType)
	code, err := Emit(c, sourceRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "intrinsics.Format('{0}-{1}', 1, d)", code)

	id := newCall("NEWID")
	require.NoError(t, Bind(id))
	assert.Equal(t, "github.com/google/uuid", id.Namespace)
	code, err = Emit(id, sourceRenderer{})
	require.NoError(t, err)
	assert.Equal(t, "uuid.New()", code)

	_, err = Emit(newCall("UPPER", strLit("x")), sourceRenderer{})
	assert.Error(t, err, "unbound calls cannot be emitted")
}

func TestLiteralType(t *testing.T) {
	tests := []struct {
		expr ast.Expression
		want string
	}{
		{&ast.IntegerLiteral{Value: 5}, "int"},
		{&ast.IntegerLiteral{Value: -2147483648}, "int"},
		{&ast.IntegerLiteral{Value: 3000000000}, "long"},
		{&ast.FloatLiteral{Text: "4.0", Kind: ast.FloatDouble}, "double"},
		{&ast.FloatLiteral{Text: "4.0", Kind: ast.FloatSingle}, "single"},
		{&ast.FloatLiteral{Text: "2.50", Kind: ast.FloatDecimal}, "decimal(3,2)"},
		{&ast.FloatLiteral{Text: "-0.05", Kind: ast.FloatDecimal}, "decimal(2,2)"},
		{&ast.FloatLiteral{Text: "1e3", Kind: ast.FloatDecimal}, "decimal(38,18)"},
		{&ast.StringLiteral{Value: "x"}, "ntext"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got, ok := LiteralType(tt.expr)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, ok := LiteralType(&ast.Identifier{Name: "x"})
	assert.False(t, ok)
}

func TestCatalog(t *testing.T) {
	names := map[string]string{}
	for _, e := range Catalog() {
		names[e.Name] = e.Kind
	}
	for _, s := range []string{"ABS", "ACOS", "ASIN", "ATAN", "ATAN2", "CEILING", "COS", "DEGREES",
		"RADIANS", "EXP", "FLOOR", "LOG", "LOG10", "POWER", "RAND", "ROUND", "SIGN", "SIN", "SQRT", "SQUARE", "TAN"} {
		assert.Equal(t, "special", names[s], s)
	}
	assert.Equal(t, "function", names["FORMAT"])
	assert.Equal(t, "property", names["CURRENT_TIMESTAMP"])
	assert.Equal(t, "property", names["GETUTCDATE"])
}
