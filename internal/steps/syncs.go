package steps

import (
	"fmt"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/pipeline"
)

// syncsStep copies every stream of a read connection to a write
// connection. Streams go through their explicit maps, or else to the
// output stream of the same name.
type syncsStep struct{ base }

func (*syncsStep) ID() pipeline.StepID { return Syncs }

func (*syncsStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{mappings(), connectorsDep()}
}

func (s *syncsStep) Execute(file *ast.File) error {
	return indexed(file, s.sync)
}

func (s *syncsStep) sync(st *ast.SyncStatement, at int) error {
	input, err := s.resolve(st.Input, at, ast.SymbolConnection)
	if err != nil {
		return err
	}
	output, err := s.resolve(st.Output, at, ast.SymbolConnection)
	if err != nil {
		return err
	}
	if input.Purpose != ast.PurposeRead {
		return diag.Errorf(st.Input, diag.ErrSyncDirection, "%s is opened for %s; sync reads from a connection opened for read",
			input.Name, input.Purpose)
	}
	if output.Purpose != ast.PurposeWrite {
		return diag.Errorf(st.Output, diag.ErrSyncDirection, "%s is opened for %s; sync writes to a connection opened for write",
			output.Name, output.Purpose)
	}

	srcSym, _ := s.ctx.Symbols.Lookup(input.DictionaryName)
	dstSym, _ := s.ctx.Symbols.Lookup(output.DictionaryName)
	src, dst := srcSym.Dictionary, dstSym.Dictionary
	sameDict := strings.EqualFold(srcSym.Name, dstSym.Name)

	for _, stream := range src.Streams {
		ident := s.ctx.Idents.Fresh("in")
		var writes []string
		write := func(target, value string) {
			writes = append(writes, fmt.Sprintf("if err := %s.Write(ctx, %q, %s); err != nil {\nreturn err\n}",
				output.GoName, target, value))
		}

		explicit := s.ctx.Maps.From(srcSym.Name, stream.FullName(), dstSym.Name)
		for _, m := range explicit {
			write(m.Target.FullName(), m.Func+"("+ident+")")
		}
		if len(explicit) == 0 {
			target, ok := dst.Stream(stream.FullName())
			if !ok {
				return diag.Errorf(st, diag.ErrMapTarget, "stream %s has no counterpart in %s: add a map statement for it",
					stream.FullName(), dstSym.Name)
			}
			switch m, ok := s.ctx.Maps.Find(srcSym.Name, stream.FullName(), dstSym.Name, target.FullName()); {
			case sameDict && target == stream:
				write(target.FullName(), ident)
			case ok:
				write(target.FullName(), m.Func+"("+ident+")")
			default:
				m, err := buildMapFunc(s.ctx, srcSym.Name, stream, dstSym.Name, target, nil, false)
				if err != nil {
					return diag.Errorf(st, diag.ErrMapTarget, "cannot copy %s.%s to %s.%s: %v",
						srcSym.Name, stream.FullName(), dstSym.Name, target.FullName(), err)
				}
				write(target.FullName(), m.Func+"("+ident+")")
			}
		}

		class, err := streamClass(s.ctx, srcSym.Name, stream)
		if err != nil {
			return err
		}
		body := strings.Join(writes, "\n") + "\nreturn nil"
		read, err := readStream(s.ctx, input, stream, class, ident, nil, body)
		if err != nil {
			return err
		}
		s.ctx.EmitFor(st, "%s", read)
	}
	return nil
}
