package steps

import (
	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// variablesStep binds stream and table variables to dictionary streams
// and gives script variables their declared types.
type variablesStep struct{ base }

func (*variablesStep) ID() pipeline.StepID { return Variables }

func (*variablesStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{declarations(), dictionaries()}
}

func (s *variablesStep) Execute(file *ast.File) error {
	if err := indexed(file, s.streamVar); err != nil {
		return err
	}
	return indexed(file, s.scriptVar)
}

// streamVar handles stream|table <name> as <dict>.<Stream>. Everything
// after the dictionary name is the stream, so dict.dbo.Orders names the
// Orders stream of namespace dbo.
func (s *variablesStep) streamVar(st *ast.VarDeclaration, at int) error {
	if len(st.Stream.Parts) < 2 {
		return diag.Errorf(st.Stream, diag.ErrUnknownStream,
			"%s must name a dictionary and a stream, as in dict.Stream", st.Stream)
	}
	dict, err := s.resolveLoaded(st.Stream.Parts[0], at)
	if err != nil {
		return err
	}
	streamName := joinParts(st.Stream.Parts[1:])
	stream, ok := dict.Dictionary.Stream(streamName)
	if !ok {
		return diag.Errorf(st.Stream, diag.ErrUnknownStream, "dictionary %s has no stream %s", dict.Name, streamName)
	}

	sym, _ := s.ctx.Symbols.Lookup(st.Name.Name)
	sym.DictionaryName = dict.Name
	sym.Stream = stream
	if sym.Class, err = streamClass(s.ctx, dict.Name, stream); err != nil {
		return err
	}
	st.Stream.Binding = &ast.Binding{Kind: ast.SymbolDictionary, Name: dict.Name, Field: stream.FullName()}
	return nil
}

func (s *variablesStep) scriptVar(st *ast.ScriptVarDeclaration, _ int) error {
	ft, err := types.Parse(st.TypeRef.Text)
	if err != nil {
		return diag.Errorf(st.TypeRef, diag.ErrInvalidType, "invalid type %s for $%s: %v", st.TypeRef.Text, st.Name.Name, err)
	}
	sym, _ := s.ctx.Symbols.LookupVar(st.Name.Name)
	sym.Type = ft
	st.TypeRef.SetType(ft)
	st.Name.SetType(ft)
	return nil
}

func joinParts(parts []*ast.Identifier) string {
	c := &ast.CompoundIdentifier{Parts: parts}
	return c.String()
}
