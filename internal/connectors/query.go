package connectors

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Filter is a column comparison pushed down to a relational source.
// A nil Value with "=" or "<>" becomes IS [NOT] NULL.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// Query is a single-table read a relational connector can run natively.
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
}

var sqlOps = map[string]bool{"=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true}

// RenderQuery builds the dialect-specific SQL for q.
func (c *Connector) RenderQuery(q Query) (string, []any, error) {
	if !c.Relational() {
		return "", nil, fmt.Errorf("connector %s does not accept SQL", c.Name)
	}
	if q.Table == "" {
		return "", nil, fmt.Errorf("query has no table")
	}

	columns := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		columns[i] = c.quote(col)
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	qb := sq.Select(columns...).From(c.quoteQualified(q.Table)).PlaceholderFormat(c.placeholder())
	for _, f := range q.Filters {
		cond, err := c.condition(f)
		if err != nil {
			return "", nil, err
		}
		qb = qb.Where(cond)
	}
	return qb.ToSql()
}

func (c *Connector) condition(f Filter) (sq.Sqlizer, error) {
	if !sqlOps[f.Op] {
		return nil, fmt.Errorf("operator %q cannot be pushed down", f.Op)
	}
	col := c.quote(f.Column)
	if f.Value == nil {
		switch f.Op {
		case "=":
			return sq.Eq{col: nil}, nil
		case "<>":
			return sq.NotEq{col: nil}, nil
		}
		return nil, fmt.Errorf("cannot compare %s with NULL using %s", f.Column, f.Op)
	}
	return sq.Expr(fmt.Sprintf("%s %s ?", col, f.Op), f.Value), nil
}

func (c *Connector) placeholder() sq.PlaceholderFormat {
	switch c.Dialect {
	case "postgres":
		return sq.Dollar
	case "mssql":
		return sq.AtP
	case "oracle":
		return sq.Colon
	}
	return sq.Question
}

func (c *Connector) quote(ident string) string {
	switch c.Dialect {
	case "mssql":
		return "[" + strings.ReplaceAll(ident, "]", "]]") + "]"
	case "mysql":
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (c *Connector) quoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = c.quote(p)
	}
	return strings.Join(parts, ".")
}
