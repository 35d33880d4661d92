package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

var programTemplate = template.Must(template.New("program").Parse(`// Code generated by pansql. DO NOT EDIT.
// Script: {{.ScriptName}}
{{- if .BuildID}}
// Build: {{.BuildID}}
{{- end}}

package {{.Package}}

import (
{{- range .Std}}
	{{.Spec}}
{{- end}}
{{if .Other}}
{{range .Other}}	{{.Spec}}
{{end}}{{end}})
{{range .Vars}}
{{if .Doc}}// {{.Doc}}
{{end}}var {{.Name}}{{if .Type}} {{.Type}}{{end}}{{if .Value}} = {{.Value}}{{end}}
{{end}}
{{- range .Classes}}
{{if .Doc}}// {{.Doc}}
{{end}}type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.Type}} {{.Tag}}
{{- end}}
}
{{end}}
{{- range .Funcs}}
{{if .Doc}}// {{.Doc}}
{{end}}func {{.Name}}({{.Params}}){{if .Results}} {{.Results}}{{end}} {
{{- range .Body}}
	{{.}}
{{- end}}
}
{{end}}
func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
{{- range .Body}}
	{{.}}
{{- end}}
	return nil
}
`))

type programData struct {
	*Model
	Std   []Import
	Other []Import
}

// Render produces the gofmt-formatted source of the program.
func Render(m *Model) (string, error) {
	for _, pkg := range []string{"context", "fmt", "os"} {
		m.Import(pkg)
	}
	std, other := m.Imports()

	var buf bytes.Buffer
	if err := programTemplate.Execute(&buf, programData{Model: m, Std: std, Other: other}); err != nil {
		return "", fmt.Errorf("render program: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("format generated code: %w", err)
	}
	return string(out), nil
}
