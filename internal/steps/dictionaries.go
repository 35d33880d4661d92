package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/pipeline"
)

// dictionariesStep loads the dictionaries named by load statements and
// generates the writes of save statements.
type dictionariesStep struct{ base }

func (*dictionariesStep) ID() pipeline.StepID { return Dictionaries }

func (*dictionariesStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{declarations()}
}

func (s *dictionariesStep) Execute(file *ast.File) error {
	if err := indexed(file, s.load); err != nil {
		return err
	}
	return indexed(file, s.save)
}

func (s *dictionariesStep) load(st *ast.LoadStatement, _ int) error {
	sym, _ := s.ctx.Symbols.Lookup(st.Name.Name)
	d, err := s.ctx.Dictionaries.Load(st.Filename.Value)
	if err != nil {
		return diag.Errorf(st.Filename, diag.ErrDictionaryLoad, "cannot load dictionary %s: %v", st.Name.Name, err)
	}
	if d.Name == "" {
		d.Name = st.Name.Name
	}
	sym.Dictionary = d
	s.ctx.Tracef("  load %s: %d streams", st.Name.Name, len(d.Streams))
	return nil
}

func (s *dictionariesStep) save(st *ast.SaveStatement, at int) error {
	sym, err := s.resolve(st.Name, at, ast.SymbolDictionary)
	if err != nil {
		return err
	}

	var data string
	if sym.Dictionary == nil {
		// Analyzed dictionaries are []byte values of run.
		data = sym.GoName
	} else {
		text, err := dictionary.MarshalYAML(sym.Dictionary)
		if err != nil {
			return diag.Errorf(st, diag.ErrDictionaryLoad, "cannot encode dictionary %s: %v", sym.Name, err)
		}
		if !hasVar(s.ctx.Model, sym.GoName) {
			s.ctx.Model.AddVar(&codegen.Var{
				Doc:   fmt.Sprintf("%s is the dictionary %s as loaded at compile time.", sym.GoName, sym.Name),
				Name:  sym.GoName,
				Value: goString(string(text)),
			})
		}
		data = "[]byte(" + sym.GoName + ")"
	}

	s.ctx.EmitFor(st, `if err := %s.WriteFile(%s, %s, 0o644); err != nil {
	return %s.Errorf("save %s: %%w", err)
}`, s.ctx.Model.Import("os"), strconv.Quote(st.Filename.Value), data, s.ctx.Model.Import("fmt"), sym.Name)
	return nil
}

func hasVar(m *codegen.Model, name string) bool {
	for _, v := range m.Vars {
		if v.Name == name {
			return true
		}
	}
	return false
}

// goString renders s as a Go string literal, raw when it can be.
func goString(s string) string {
	if strings.ContainsAny(s, "`\r") || !isPrintable(s) {
		return strconv.Quote(s)
	}
	return "`" + s + "`"
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r != '\n' && r != '\t' && !strconv.IsPrint(r) {
			return false
		}
	}
	return true
}
