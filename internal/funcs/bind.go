package funcs

import (
	"fmt"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/types"
)

// Bind resolves a call against the built-in tables and records the
// target name, namespace and return type on the call. Argument
// expressions must already carry their types.
//
// Binding depends only on the call's name and argument types, so binding
// the same call twice produces the same annotations.
func Bind(fc *ast.FunctionCallExpression) error {
	if p, ok := LookupProperty(fc.Name); ok {
		if len(fc.Args) > 0 {
			return diag.Errorf(fc, diag.ErrPropertyWithArgs, "%s does not take any arguments", p.Name)
		}
		annotate(fc, ast.CallProperty, p.CodeName, p.Namespace, p.Returns)
		return nil
	}
	if f, ok := LookupIntrinsic(fc.Name); ok {
		return bindIntrinsic(fc, f)
	}
	if s, ok := LookupSpecial(fc.Name); ok {
		return bindSpecial(fc, s)
	}
	return diag.Errorf(fc, diag.ErrUnknownFunction, "No function named %s", fc.Name)
}

func annotate(fc *ast.FunctionCallExpression, kind ast.CallKind, codeName, namespace string, ret types.FieldType) {
	fc.Kind = kind
	fc.CodeName = codeName
	fc.Namespace = namespace
	fc.ReturnType = &ret
	fc.SetType(ret)
}

func bindIntrinsic(fc *ast.FunctionCallExpression, f *Intrinsic) error {
	n := len(fc.Args)
	if f.Variadic != nil {
		if n < f.MinArgs() {
			return diag.Errorf(fc, diag.ErrArity, "%s", arityMessage(f.Name, f.MinArgs(), -1))
		}
	} else if n != f.MinArgs() {
		return diag.Errorf(fc, diag.ErrArity, "%s", arityMessage(f.Name, f.MinArgs(), f.MinArgs()))
	}

	for i, arg := range fc.Args {
		param := f.Variadic
		if i < len(f.Params) {
			param = &f.Params[i]
		}
		actual, err := argumentType(fc, i)
		if err != nil {
			return err
		}
		if err := types.TypeCheck(actual, param.Type, param.Name, true); err != nil {
			return diag.Errorf(arg, diag.ErrArgumentType,
				"%s: argument %q of type %s cannot be passed to a function parameter of type %s",
				f.Name, param.Name, actual, param.Type)
		}
	}
	annotate(fc, ast.CallFunction, f.CodeName, f.Namespace, f.Returns)
	return nil
}

func bindSpecial(fc *ast.FunctionCallExpression, s *SpecialFunc) error {
	if aerr := s.CheckArity(len(fc.Args)); aerr != nil {
		return diag.Errorf(fc, aerr.Code, "%s", aerr.Message)
	}
	argTypes := make([]types.FieldType, len(fc.Args))
	for i := range fc.Args {
		t, err := argumentType(fc, i)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}
	if aerr := s.Validate(argTypes); aerr != nil {
		var node ast.Node = fc
		if aerr.Index >= 0 {
			node = fc.Args[aerr.Index]
		}
		return diag.Errorf(node, aerr.Code, "%s", aerr.Message)
	}
	ret := s.ReturnType(argTypes)
	for _, t := range argTypes {
		if t.Nullable {
			ret = ret.WithNullable(true)
		}
	}
	annotate(fc, ast.CallSpecial, s.Name, s.Namespace(argTypes), ret)
	return nil
}

// argumentType returns the inferred type of argument i. An argument with
// no type (a connection or dictionary name, say) is not a value.
func argumentType(fc *ast.FunctionCallExpression, i int) (types.FieldType, error) {
	arg := fc.Args[i]
	if t, ok := arg.ResolvedType(); ok {
		return t, nil
	}
	return types.FieldType{}, diag.Errorf(arg, diag.ErrInvalidArgument,
		"%s: argument %d (%s) is not a valid function argument", strings.ToUpper(fc.Name), i+1, Describe(arg))
}

// Describe gives a short source-like rendering of an expression for
// diagnostics.
func Describe(e ast.Expression) string {
	switch x := e.(type) {
	case *ast.Identifier:
		return x.Name
	case *ast.CompoundIdentifier:
		return x.String()
	case *ast.ScriptVarReference:
		return "$" + x.Name
	case *ast.IntegerLiteral:
		return fmt.Sprint(x.Value)
	case *ast.FloatLiteral:
		return x.Text
	case *ast.StringLiteral:
		return "'" + x.Value + "'"
	case *ast.FunctionCallExpression:
		return x.Name + "(...)"
	case *ast.TypeReference:
		return x.Text
	}
	return "expression"
}
