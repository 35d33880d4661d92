package steps

import (
	"fmt"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/codegen"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/dictionary"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// mappingsStep turns map statements into conversion functions between
// the record classes of two streams.
type mappingsStep struct{ base }

func (*mappingsStep) ID() pipeline.StepID { return Mappings }

func (*mappingsStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{declarations(), dictionaries(), variables()}
}

func (s *mappingsStep) Execute(file *ast.File) error {
	return indexed(file, s.mapStream)
}

// mapStream handles map <dict>.<Stream> to <dict>.<Stream> [with (a = b)].
func (s *mappingsStep) mapStream(st *ast.MapStatement, at int) error {
	srcDict, src, err := s.stream(st.Source, at)
	if err != nil {
		return err
	}
	dstDict, dst, err := s.stream(st.Target, at)
	if err != nil {
		return err
	}
	if prev, ok := s.ctx.Maps.Find(srcDict.Name, src.FullName(), dstDict.Name, dst.FullName()); ok && prev.Explicit {
		return diag.Errorf(st, diag.ErrDuplicateName, "%s.%s is already mapped to %s.%s",
			srcDict.Name, src.FullName(), dstDict.Name, dst.FullName())
	}

	renames := make(map[string]string, len(st.Fields))
	for _, f := range st.Fields {
		from, ok := src.Field(f.Source.Name)
		if !ok {
			return diag.Errorf(f.Source, diag.ErrUnknownField, "stream %s has no field %s", src.FullName(), f.Source.Name)
		}
		to, ok := dst.Field(f.Target.Name)
		if !ok {
			return diag.Errorf(f.Target, diag.ErrUnknownField, "stream %s has no field %s", dst.FullName(), f.Target.Name)
		}
		key := strings.ToLower(to.Name)
		if _, dup := renames[key]; dup {
			return diag.Errorf(f.Target, diag.ErrDuplicateName, "field %s is mapped more than once", to.Name)
		}
		renames[key] = from.Name
	}

	if _, err := buildMapFunc(s.ctx, srcDict.Name, src, dstDict.Name, dst, renames, true); err != nil {
		return diag.Errorf(st, diag.ErrMapTarget, "cannot map %s.%s to %s.%s: %v",
			srcDict.Name, src.FullName(), dstDict.Name, dst.FullName(), err)
	}
	return nil
}

func (s *mappingsStep) stream(c *ast.CompoundIdentifier, at int) (*pipeline.Symbol, *dictionary.Stream, error) {
	if len(c.Parts) < 2 {
		return nil, nil, diag.Errorf(c, diag.ErrUnknownStream, "%s must name a dictionary and a stream, as in dict.Stream", c)
	}
	dict, err := s.resolveLoaded(c.Parts[0], at)
	if err != nil {
		return nil, nil, err
	}
	name := joinParts(c.Parts[1:])
	st, ok := dict.Dictionary.Stream(name)
	if !ok {
		return nil, nil, diag.Errorf(c, diag.ErrUnknownStream, "dictionary %s has no stream %s", dict.Name, name)
	}
	c.Binding = &ast.Binding{Kind: ast.SymbolDictionary, Name: dict.Name, Field: st.FullName()}
	return dict, st, nil
}

// buildMapFunc generates the conversion from src to dst and registers it.
// renames maps lower-cased target fields to source fields; the other
// target fields take the source field of the same name. A target field
// with no source stays zero, which only nullable fields allow.
func buildMapFunc(ctx *pipeline.Context, srcDict string, src *dictionary.Stream, dstDict string, dst *dictionary.Stream,
	renames map[string]string, explicit bool) (*pipeline.Mapping, error) {
	in, err := streamClass(ctx, srcDict, src)
	if err != nil {
		return nil, err
	}
	out, err := streamClass(ctx, dstDict, dst)
	if err != nil {
		return nil, err
	}
	name := ctx.Idents.Reserve("map" + in.Name + "To" + out.Name)

	r := codegen.NewExprRenderer(ctx.Model)
	r.BindRecord("in", "in", fieldNames(in))
	outFields := fieldNames(out)

	var values []string
	for _, f := range dst.Fields {
		from, ok := renames[strings.ToLower(f.Name)]
		if !ok {
			from = f.Name
		}
		sf, ok := src.Field(from)
		if !ok {
			if !f.Type.Nullable {
				return nil, fmt.Errorf("field %s is not nullable and %s has no field to fill it", f.Name, src.FullName())
			}
			continue
		}
		if err := types.TypeCheck(sf.Type, f.Type, f.Name, true); err != nil {
			return nil, err
		}
		col := &ast.Identifier{
			Name:    sf.Name,
			Binding: &ast.Binding{Kind: ast.SymbolColumn, Name: "in", Field: sf.Name},
		}
		col.SetType(sf.Type)
		values = append(values, fmt.Sprintf("%s: %s,", outFields[strings.ToLower(f.Name)], r.RenderAs(col, f.Type)))
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	ctx.Model.AddFunc(&codegen.Func{
		Doc:     fmt.Sprintf("%s converts a record of %s.%s into %s.%s.", name, srcDict, src.FullName(), dstDict, dst.FullName()),
		Name:    name,
		Params:  "in " + in.Name,
		Results: out.Name,
		Body:    []string{fmt.Sprintf("return %s{\n%s\n}", out.Name, strings.Join(values, "\n"))},
	})
	m := &pipeline.Mapping{
		SourceDictionary: srcDict,
		Source:           src,
		TargetDictionary: dstDict,
		Target:           dst,
		Func:             name,
		Explicit:         explicit,
	}
	ctx.Maps.Add(m)
	return m, nil
}
