package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
)

const syncScript = `
/* copy orders from Firebird into SQL Server */
load myDataDict from 'dicts/orders.pansync'
open myInput as Firebird for read with myDataDict, CredentialsFromEnv('FB_CONN')
open myOutput as MsSql for write with myDataDict, $OutConn
declare $OutConn as nvarchar(200) = 'Server=.;Database=out'
stream orders as myDataDict.Orders
select o.id, o.total * 2 as doubled from orders o where o.total > 10 into BigOrders;
map myDataDict.Orders to myDataDict.Archive with (id = archive_id)
analyze myInput as scanned with optimize exclude (dbo.Audit)
save scanned to 'scanned.pansync'
sync myInput to myOutput -- done
`

func TestParse_AllStatements(t *testing.T) {
	file, err := Parse(syncScript)
	require.NoError(t, err)
	require.Len(t, file.Statements, 10)

	load := file.Statements[0].(*ast.LoadStatement)
	assert.Equal(t, "myDataDict", load.Name.Name)
	assert.Equal(t, "dicts/orders.pansync", load.Filename.Value)
	assert.Equal(t, ast.Pos{Line: 3, Col: 1}, load.Pos())

	open := file.Statements[1].(*ast.OpenStatement)
	assert.Equal(t, "Firebird", open.Connector.Name)
	assert.Equal(t, ast.PurposeRead, open.Purpose)
	assert.Equal(t, "myDataDict", open.Dictionary.Name)
	creds := open.Credentials.(*ast.CredentialExpression)
	assert.Equal(t, ast.CredentialsFromEnv, creds.Method)
	assert.Equal(t, "FB_CONN", creds.Value.(*ast.StringLiteral).Value)

	out := file.Statements[2].(*ast.OpenStatement)
	assert.Equal(t, ast.PurposeWrite, out.Purpose)
	outCreds := out.Credentials.(*ast.CredentialExpression)
	assert.Equal(t, ast.CredentialsLiteral, outCreds.Method)
	assert.Equal(t, "OutConn", outCreds.Value.(*ast.ScriptVarReference).Name)

	decl := file.Statements[3].(*ast.ScriptVarDeclaration)
	assert.Equal(t, "OutConn", decl.Name.Name)
	assert.Equal(t, "nvarchar(200)", decl.TypeRef.Text)
	assert.IsType(t, &ast.StringLiteral{}, decl.Default)

	stream := file.Statements[4].(*ast.VarDeclaration)
	assert.Equal(t, ast.VarStream, stream.Kind)
	assert.Equal(t, "myDataDict.Orders", stream.Stream.String())

	sel := file.Statements[5].(*ast.SqlTransformStatement)
	require.Len(t, sel.Columns, 2)
	assert.Equal(t, "id", sel.Columns[0].Name())
	assert.Equal(t, "doubled", sel.Columns[1].Name())
	assert.Equal(t, "orders", sel.From.Name.Name)
	assert.Equal(t, "o", sel.From.RefName())
	where := sel.Where.(*ast.BinaryExpression)
	assert.Equal(t, ">", where.Op)
	assert.Equal(t, "BigOrders", sel.Into.Name)

	m := file.Statements[6].(*ast.MapStatement)
	require.Len(t, m.Fields, 1)
	assert.Equal(t, "archive_id", m.Fields[0].Target.Name)

	an := file.Statements[7].(*ast.AnalyzeStatement)
	assert.True(t, an.Optimize)
	require.Len(t, an.Exclude, 1)
	assert.Equal(t, "dbo.Audit", an.Exclude[0].String())

	assert.IsType(t, &ast.SaveStatement{}, file.Statements[8])
	sync := file.Statements[9].(*ast.SyncStatement)
	assert.Equal(t, "myInput", sync.Input.Name)
	assert.Equal(t, "myOutput", sync.Output.Name)
}

func TestParse_KeywordsCaseInsensitive(t *testing.T) {
	file, err := Parse("SELECT SIGN(-5) AS x")
	require.NoError(t, err)
	sel := file.Statements[0].(*ast.SqlTransformStatement)
	call := sel.Columns[0].Expr.(*ast.FunctionCallExpression)
	assert.Equal(t, "SIGN", call.Name)
	assert.True(t, call.HasParens)
	require.Len(t, call.Args, 1)
	assert.Equal(t, int64(-5), call.Args[0].(*ast.IntegerLiteral).Value)
	assert.Nil(t, sel.From)
	assert.Nil(t, sel.Into)
}

func TestParseExpression_Literals(t *testing.T) {
	tests := []struct {
		src  string
		kind ast.FloatKind
		text string
	}{
		{"4.0", ast.FloatDouble, "4.0"},
		{"4.0f", ast.FloatSingle, "4.0"},
		{"2.50m", ast.FloatDecimal, "2.50"},
		{"-1.5", ast.FloatDouble, "-1.5"},
		{"1e3", ast.FloatDouble, "1e3"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := ParseExpression(tt.src)
			require.NoError(t, err)
			lit := expr.(*ast.FloatLiteral)
			assert.Equal(t, tt.kind, lit.Kind)
			assert.Equal(t, tt.text, lit.Text)
		})
	}

	expr, err := ParseExpression("'it''s'")
	require.NoError(t, err)
	assert.Equal(t, "it's", expr.(*ast.StringLiteral).Value)
}

func TestParseExpression_Properties(t *testing.T) {
	expr, err := ParseExpression("current_timestamp")
	require.NoError(t, err)
	call := expr.(*ast.FunctionCallExpression)
	assert.False(t, call.HasParens)
	assert.Empty(t, call.Args)

	expr, err = ParseExpression("CURRENT_TIMESTAMP(1)")
	require.NoError(t, err)
	call = expr.(*ast.FunctionCallExpression)
	assert.True(t, call.HasParens)
	assert.Len(t, call.Args, 1)

	expr, err = ParseExpression("total")
	require.NoError(t, err)
	assert.IsType(t, &ast.Identifier{}, expr)
}

func TestParseExpression_Precedence(t *testing.T) {
	expr, err := ParseExpression("a + b * 2 > 3 AND NOT c = 1 OR d < 0")
	require.NoError(t, err)

	or := expr.(*ast.BinaryExpression)
	assert.Equal(t, "OR", or.Op)
	and := or.Left.(*ast.BinaryExpression)
	assert.Equal(t, "AND", and.Op)
	gt := and.Left.(*ast.BinaryExpression)
	assert.Equal(t, ">", gt.Op)
	plus := gt.Left.(*ast.BinaryExpression)
	assert.Equal(t, "+", plus.Op)
	assert.Equal(t, "*", plus.Right.(*ast.BinaryExpression).Op)
	assert.Equal(t, "NOT", and.Right.(*ast.UnaryExpression).Op)
}

func TestParse_Joins(t *testing.T) {
	file, err := Parse(`select o.id, c.name from orders o inner join customers c on o.customer = c.id into Out`)
	require.NoError(t, err)
	sel := file.Statements[0].(*ast.SqlTransformStatement)
	require.Len(t, sel.Joins, 1)
	assert.Equal(t, "c", sel.Joins[0].Table.RefName())
	assert.Equal(t, "=", sel.Joins[0].On.(*ast.BinaryExpression).Op)
}

func TestParse_TypeReferences(t *testing.T) {
	file, err := Parse(`declare $Ids as long?[]
declare $Tags as varchar(20){}`)
	require.NoError(t, err)
	assert.Equal(t, "long?[]", file.Statements[0].(*ast.ScriptVarDeclaration).TypeRef.Text)
	assert.Equal(t, "varchar(20){}", file.Statements[1].(*ast.ScriptVarDeclaration).TypeRef.Text)
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "   -- nothing\n"},
		{"unknown statement", "frobnicate x"},
		{"bad purpose", "open a as MsSql for delete with 'x'"},
		{"unterminated string", "load d from 'oops"},
		{"missing from", "load d 'file'"},
		{"bad char", "select a # b"},
		{"unterminated comment", "/* never ends"},
		{"stream without dictionary", "stream s as Orders"},
		{"trailing operator", "select a + from t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			var se *diag.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Contains(t, se.Error(), "Invalid PanSQL syntax")
		})
	}
}

func TestParse_NumericLiteralRange(t *testing.T) {
	tests := []struct {
		src    string
		detail string
		col    int
	}{
		{"select 99999999999999999999 as x", "integer literal 99999999999999999999 out of range", 8},
		{"select 1.5e400 as x", "double literal 1.5e400 out of range", 8},
		{"select -1.5e400 as x", "double literal 1.5e400 out of range", 9},
		{"select 1 as a, 3.5e39f as y", "single literal 3.5e39 out of range", 16},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := Parse(tt.src)
			var se *diag.SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.detail, se.Detail)
			assert.Equal(t, 1, se.Line)
			assert.Equal(t, tt.col, se.Col)
		})
	}

	// Within range, and decimals of any magnitude.
	for _, src := range []string{"select 1.7e308 as x", "select 3.4e38f as x", "select 1.5e400m as x"} {
		_, err := Parse(src)
		assert.NoError(t, err, src)
	}
}

func TestLex_Positions(t *testing.T) {
	tokens, err := Lex("select\n  x <> 1")
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.Equal(t, TokenIdent, tokens[1].Type)
	assert.Equal(t, 2, tokens[1].Line)
	assert.Equal(t, 3, tokens[1].Col)
	assert.Equal(t, TokenNeq, tokens[2].Type)
	assert.Equal(t, TokenEOF, tokens[4].Type)
}

func TestLex_QuotedIdentifiers(t *testing.T) {
	tokens, err := Lex(`[Order Details] "Line Items"`)
	require.NoError(t, err)
	assert.Equal(t, "Order Details", tokens[0].Val)
	assert.Equal(t, "Line Items", tokens[1].Val)
}
