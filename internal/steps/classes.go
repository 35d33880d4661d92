package steps

import (
	"fmt"
	"strings"

	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/pipeline"
)

// streamClass returns the record class of a dictionary stream, creating
// it on first use. SalesOrders is the class of stream Orders in
// dictionary sales.
func streamClass(ctx *pipeline.Context, dictName string, st *dictionary.Stream) (*codegen.Class, error) {
	key := strings.ToLower(dictName + "\x00" + st.FullName())
	if c, ok := ctx.Classes[key]; ok {
		return c, nil
	}
	name := ctx.Idents.Reserve(codegen.Exported(dictName) + codegen.Exported(st.Name))
	c := &codegen.Class{
		Doc:  fmt.Sprintf("%s is a record of %s.%s.", name, dictName, st.FullName()),
		Name: name,
	}
	taken := make(map[string]bool)
	for _, f := range st.Fields {
		c.Fields = append(c.Fields, &codegen.Field{
			Name:   unique(taken, codegen.Exported(f.Name)),
			Type:   ctx.Model.GoType(f.Type),
			Column: f.Name,
		})
	}
	if err := addClass(ctx, c); err != nil {
		return nil, err
	}
	ctx.Classes[key] = c
	return c, nil
}

func addClass(ctx *pipeline.Context, c *codegen.Class) error {
	if err := ctx.Model.AddClass(c); err != nil {
		return &diag.BuildError{Code: diag.ErrDuplicateClass, Message: err.Error(), Path: []string{c.Name}}
	}
	return nil
}

// unique returns name, suffixed when taken within one struct.
func unique(taken map[string]bool, name string) string {
	candidate := name
	for i := 2; taken[candidate]; i++ {
		candidate = fmt.Sprintf("%s%d", name, i)
	}
	taken[candidate] = true
	return candidate
}

// fieldNames maps lower-cased column names of c to Go field names, in the
// form ExprRenderer.BindRecord expects.
func fieldNames(c *codegen.Class) map[string]string {
	out := make(map[string]string, len(c.Fields))
	for _, f := range c.Fields {
		out[strings.ToLower(f.Column)] = f.Name
	}
	return out
}
