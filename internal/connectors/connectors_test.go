package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pansql/internal/ast"
)

func TestDefault_Catalogue(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	c, ok := r.Lookup("mssql")
	require.True(t, ok)
	assert.Equal(t, "MsSql", c.Name)
	assert.True(t, c.Relational())
	assert.True(t, c.Supports(ast.PurposeAnalyze))
	assert.Equal(t, "mssqlconn", c.Alias())

	csv, ok := r.Lookup("CSV")
	require.True(t, ok)
	assert.True(t, csv.Supports(ast.PurposeWrite))
	assert.False(t, csv.Supports(ast.PurposeAnalyze))

	_, ok = r.Lookup("Cobol")
	assert.False(t, ok)

	all := r.All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestDefault_ReturnsCopies(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	require.NoError(t, a.Register(&Connector{Name: "Custom", Kind: KindFile, Purposes: []string{"read"}, Package: "example.com/custom"}))

	b, err := Default()
	require.NoError(t, err)
	_, ok := b.Lookup("Custom")
	assert.False(t, ok)
}

func TestRegister_Validation(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name string
		c    *Connector
		msg  string
	}{
		{"no name", &Connector{Kind: KindFile, Purposes: []string{"read"}, Package: "p"}, "no name"},
		{"bad kind", &Connector{Name: "X", Kind: "tape", Purposes: []string{"read"}, Package: "p"}, "unknown kind"},
		{"no package", &Connector{Name: "X", Kind: KindFile, Purposes: []string{"read"}}, "package is required"},
		{"bad purpose", &Connector{Name: "X", Kind: KindFile, Purposes: []string{"delete"}, Package: "p"}, "unknown purpose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, r.Register(tt.c), tt.msg)
		})
	}

	ok := &Connector{Name: "X", Kind: KindFile, Purposes: []string{"read"}, Package: "p"}
	require.NoError(t, r.Register(ok))
	assert.ErrorContains(t, r.Register(&Connector{Name: "x", Kind: KindFile, Purposes: []string{"read"}, Package: "p"}), "already registered")
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("connectors:\n  - name: A\n    kind: file\n    purposes: [read]\n    package: p\n    colour: red\n"))
	assert.Error(t, err)
}

func TestRenderQuery(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	tests := []struct {
		connector string
		sql       string
	}{
		{"Postgres", `SELECT "id", "total" FROM "dbo"."Orders" WHERE "total" > $1 AND "note" IS NULL`},
		{"MsSql", `SELECT [id], [total] FROM [dbo].[Orders] WHERE [total] > @p1 AND [note] IS NULL`},
		{"MySql", "SELECT `id`, `total` FROM `dbo`.`Orders` WHERE `total` > ? AND `note` IS NULL"},
		{"Oracle", `SELECT "id", "total" FROM "dbo"."Orders" WHERE "total" > :1 AND "note" IS NULL`},
	}
	q := Query{
		Table:   "dbo.Orders",
		Columns: []string{"id", "total"},
		Filters: []Filter{{Column: "total", Op: ">", Value: int64(10)}, {Column: "note", Op: "=", Value: nil}},
	}
	for _, tt := range tests {
		t.Run(tt.connector, func(t *testing.T) {
			c, ok := r.Lookup(tt.connector)
			require.True(t, ok)
			sql, args, err := c.RenderQuery(q)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, []any{int64(10)}, args)
		})
	}
}

func TestRenderQuery_Errors(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	csv, _ := r.Lookup("Csv")
	_, _, err = csv.RenderQuery(Query{Table: "t"})
	assert.ErrorContains(t, err, "does not accept SQL")

	pg, _ := r.Lookup("Postgres")
	_, _, err = pg.RenderQuery(Query{Table: "t", Filters: []Filter{{Column: "a", Op: "LIKE", Value: "x"}}})
	assert.ErrorContains(t, err, "cannot be pushed down")

	_, _, err = pg.RenderQuery(Query{Table: "t", Filters: []Filter{{Column: "a", Op: "<", Value: nil}}})
	assert.Error(t, err)

	sql, _, err := pg.RenderQuery(Query{Table: "t"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "t"`, sql)
}

func TestManifest(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	fb, _ := r.Lookup("firebird")
	out, err := Manifest([]Usage{NewUsage("myInput", fb, ast.PurposeRead, "myDataDict")})
	require.NoError(t, err)
	assert.Equal(t, `connections:
  - connection: myInput
    connector: Firebird
    purpose: read
    package: github.com/roach88/pansql/connectors/firebird
    dictionary: myDataDict
`, out)

	empty, err := Manifest(nil)
	require.NoError(t, err)
	assert.Equal(t, "connections: []\n", empty)
}
