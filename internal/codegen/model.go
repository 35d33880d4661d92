// Package codegen is the target model of the PanSQL compiler: a
// language-level description of the Go program a script compiles to, and
// the renderer that turns it into formatted source.
//
// Compile steps fill one shared Model. The terminal step renders it.
package codegen

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/connectors"
	"github.com/roach88/pansql/internal/funcs"
)

// Script is the result of compiling one PanSQL script.
type Script struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	ProjectFile string `json:"project_file"`
	Connectors  string `json:"connectors"`
}

// Import is one import of the generated file.
type Import struct {
	Path  string
	Alias string // empty when the package name is the last path element
}

// Name is the qualifier code uses for the package.
func (i Import) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	return path.Base(i.Path)
}

// Spec is the import line as written in source.
func (i Import) Spec() string {
	if i.Alias != "" {
		return i.Alias + " " + strconv.Quote(i.Path)
	}
	return strconv.Quote(i.Path)
}

// Std reports whether the import is from the Go standard library.
func (i Import) Std() bool {
	first, _, _ := strings.Cut(i.Path, "/")
	return !strings.Contains(first, ".")
}

// Var is a package-level variable, used for script parameters and
// embedded dictionaries.
type Var struct {
	Doc   string
	Name  string
	Type  string
	Value string
}

// Field is one field of a record class.
type Field struct {
	Name   string
	Type   string
	Column string
}

// Tag is the struct tag carrying the source column name.
func (f *Field) Tag() string {
	tag := "pansql:" + strconv.Quote(f.Column)
	if strings.Contains(tag, "`") {
		return strconv.Quote(tag)
	}
	return "`" + tag + "`"
}

// Class is a record type, one per stream the script touches.
type Class struct {
	Doc    string
	Name   string
	Fields []*Field
}

// Field finds a field by Go name.
func (c *Class) Field(name string) (*Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Func is a top-level function. Body holds complete Go statements.
type Func struct {
	Doc     string
	Name    string
	Params  string
	Results string
	Body    []string
}

// Model is the program under construction.
type Model struct {
	Package    string
	ScriptName string
	BuildID    string

	Vars    []*Var
	Classes []*Class
	Funcs   []*Func
	// Body holds the statements of run(ctx), in script order.
	Body []string
	// Connectors lists the connections the program opens, in order.
	Connectors []connectors.Usage

	imports  map[string]Import
	requires map[string]string
}

// NewModel returns an empty model for package main.
func NewModel() *Model {
	return &Model{
		Package:  "main",
		imports:  make(map[string]Import),
		requires: make(map[string]string),
	}
}

// Import records an import and returns the qualifier to use for it.
func (m *Model) Import(importPath string) string {
	return m.ImportAs(importPath, "")
}

// ImportAs records an import under an explicit alias.
func (m *Model) ImportAs(importPath, alias string) string {
	if imp, ok := m.imports[importPath]; ok {
		return imp.Name()
	}
	if alias == path.Base(importPath) {
		alias = ""
	}
	imp := Import{Path: importPath, Alias: alias}
	m.imports[importPath] = imp
	if !imp.Std() {
		m.Require(moduleOf(importPath), versionOf(importPath))
	}
	return imp.Name()
}

// Intrinsic qualifies a runtime helper name, importing the runtime.
func (m *Model) Intrinsic(name string) string {
	return m.Import(funcs.IntrinsicsPackage) + "." + name
}

// Imports lists recorded imports, standard library first, each group
// sorted by path.
func (m *Model) Imports() (std, other []Import) {
	for _, imp := range m.imports {
		if imp.Std() {
			std = append(std, imp)
		} else {
			other = append(other, imp)
		}
	}
	byPath := func(list []Import) {
		sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	}
	byPath(std)
	byPath(other)
	return std, other
}

// Require adds a module requirement to the generated go.mod.
func (m *Model) Require(module, version string) {
	if module == "" {
		return
	}
	m.requires[module] = version
}

// AddClass registers a record class. Names must be unique.
func (m *Model) AddClass(c *Class) error {
	if _, dup := m.Class(c.Name); dup {
		return fmt.Errorf("class %s is already defined", c.Name)
	}
	m.Classes = append(m.Classes, c)
	return nil
}

// Class finds a class by name.
func (m *Model) Class(name string) (*Class, bool) {
	for _, c := range m.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AddFunc appends a top-level function.
func (m *Model) AddFunc(f *Func) {
	m.Funcs = append(m.Funcs, f)
}

// AddVar appends a package-level variable.
func (m *Model) AddVar(v *Var) {
	m.Vars = append(m.Vars, v)
}

// Emit appends a statement to the body of run.
func (m *Model) Emit(format string, args ...any) {
	m.Body = append(m.Body, fmt.Sprintf(format, args...))
}
