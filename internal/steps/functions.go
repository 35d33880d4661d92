package steps

import (
	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/funcs"
	"github.com/roach88/pansql/internal/pipeline"
	"github.com/roach88/pansql/internal/types"
)

// functionsStep types every value expression bottom-up: literals,
// operators and function calls. Calls are bound once their arguments
// carry types.
type functionsStep struct{ base }

func (*functionsStep) ID() pipeline.StepID { return Functions }

func (*functionsStep) Dependencies() []pipeline.Dependency {
	return []pipeline.Dependency{identifiers()}
}

func (s *functionsStep) Execute(file *ast.File) error {
	for _, e := range valueExpressions(file) {
		if err := typeExpression(e); err != nil {
			return err
		}
	}
	return nil
}

// valueExpressions lists the root expressions that produce values at run
// time, in script order.
func valueExpressions(file *ast.File) []ast.Expression {
	var out []ast.Expression
	for _, stmt := range file.Statements {
		switch st := stmt.(type) {
		case *ast.ScriptVarDeclaration:
			if st.Default != nil {
				out = append(out, st.Default)
			}
		case *ast.SqlTransformStatement:
			for _, c := range st.Columns {
				out = append(out, c.Expr)
			}
			for _, j := range st.Joins {
				out = append(out, j.On)
			}
			if st.Where != nil {
				out = append(out, st.Where)
			}
		}
	}
	return out
}

func typeExpression(e ast.Expression) error {
	var err error
	ast.InspectPost(e, func(n ast.Node) {
		if err != nil {
			return
		}
		switch x := n.(type) {
		case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral:
			lit := x.(ast.Expression)
			if t, ok := funcs.LiteralType(lit); ok {
				lit.SetType(t)
			}
		case *ast.FunctionCallExpression:
			err = funcs.Bind(x)
		case *ast.BinaryExpression:
			err = typeBinary(x)
		case *ast.UnaryExpression:
			err = typeUnary(x)
		}
	})
	return err
}

func operandType(op string, e ast.Expression) (types.FieldType, error) {
	t, ok := e.ResolvedType()
	if !ok {
		return types.FieldType{}, diag.Errorf(e, diag.ErrInvalidArgument,
			"%s is not a value and cannot be used with %s", funcs.Describe(e), op)
	}
	if t.CollectionType != types.CollectionNone {
		return types.FieldType{}, diag.Errorf(e, diag.ErrInvalidOperator,
			"operator %s is not defined for collection %s", op, t)
	}
	return t, nil
}

func typeBinary(b *ast.BinaryExpression) error {
	lt, err := operandType(b.Op, b.Left)
	if err != nil {
		return err
	}
	rt, err := operandType(b.Op, b.Right)
	if err != nil {
		return err
	}
	nullable := lt.Nullable || rt.Nullable
	invalid := func() error {
		return diag.Errorf(b, diag.ErrInvalidOperator, "operator %s is not defined for %s and %s", b.Op, lt, rt)
	}
	boolean := types.Simple(types.Boolean).WithNullable(nullable)

	switch b.Op {
	case "AND", "OR":
		if lt.Type != types.Boolean || rt.Type != types.Boolean {
			return invalid()
		}
		b.SetType(boolean)
	case "=", "<>":
		if !canCompare(lt, rt, true) {
			return invalid()
		}
		b.SetType(boolean)
	case "<", "<=", ">", ">=":
		if !canCompare(lt, rt, false) {
			return invalid()
		}
		b.SetType(boolean)
	case "+":
		if lt.Type.IsString() && rt.Type.IsString() {
			b.SetType(types.Simple(types.Ntext).WithNullable(nullable))
			return nil
		}
		fallthrough
	default:
		t, ok := types.Promote(lt, rt)
		if !ok {
			return invalid()
		}
		b.SetType(t)
	}
	return nil
}

// canCompare reports whether two operand types can be compared.
// Booleans and GUIDs only support equality.
func canCompare(a, b types.FieldType, equality bool) bool {
	switch {
	case a.Type.IsNumeric() && b.Type.IsNumeric():
		return true
	case a.Type.IsString() && b.Type.IsString():
		return true
	case a.Type == types.Interval || b.Type == types.Interval:
		return a.Type == b.Type
	case a.Type.IsTemporal() && b.Type.IsTemporal():
		return a.Type == b.Type || (a.Type != types.Time && b.Type != types.Time)
	case equality && (a.Type == types.Boolean || a.Type == types.Guid):
		return a.Type == b.Type
	}
	return false
}

func typeUnary(u *ast.UnaryExpression) error {
	t, err := operandType(u.Op, u.Operand)
	if err != nil {
		return err
	}
	switch {
	case u.Op == "NOT" && t.Type == types.Boolean:
	case u.Op == "-" && t.Type.IsNumeric():
	default:
		return diag.Errorf(u, diag.ErrInvalidOperator, "operator %s is not defined for %s", u.Op, t)
	}
	u.SetType(t)
	return nil
}
