package funcs

import (
	"fmt"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/types"
)

// Renderer renders argument expressions as target source text.
type Renderer interface {
	Render(e ast.Expression) string
	// RenderAs renders e converted to t when its own type differs.
	RenderAs(e ast.Expression, t types.FieldType) string
}

// Emit renders a bound call.
func Emit(fc *ast.FunctionCallExpression, r Renderer) (string, error) {
	switch fc.Kind {
	case ast.CallProperty:
		return fc.CodeName, nil
	case ast.CallSpecial:
		s, ok := LookupSpecial(fc.CodeName)
		if !ok {
			return "", fmt.Errorf("special function %s is not registered", fc.CodeName)
		}
		return s.Emit(fc.Args, r), nil
	case ast.CallFunction:
		f, ok := LookupIntrinsic(fc.Name)
		if !ok {
			return "", fmt.Errorf("function %s is not registered", fc.Name)
		}
		args := make([]string, len(fc.Args))
		for i, arg := range fc.Args {
			param := f.Variadic
			if i < len(f.Params) {
				param = &f.Params[i]
			}
			if param.Type.Type == types.Unstructured {
				args[i] = r.Render(arg)
			} else {
				args[i] = r.RenderAs(arg, param.Type)
			}
		}
		return invoke(fc.CodeName, args), nil
	}
	return "", fmt.Errorf("call to %s has not been bound", fc.Name)
}
