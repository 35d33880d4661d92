package funcs

import (
	"fmt"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/diag"
	"github.com/roach88/pansql/internal/types"
)

// ArgError is a validation failure for a special function call. Index is
// the offending argument, or -1 when the argument count is wrong.
type ArgError struct {
	Code    diag.Code
	Index   int
	Message string
}

// SpecialFunc is a math intrinsic whose argument rules, result type and
// emitted code depend on the argument types at the call site.
type SpecialFunc struct {
	Name      string
	Signature string
	Doc       string
	MinArgs   int
	MaxArgs   int

	// Validate checks argument types once the count is known to be valid.
	Validate func(args []types.FieldType) *ArgError
	// ReturnType is a pure function of the argument types.
	ReturnType func(args []types.FieldType) types.FieldType
	// Namespace is the import needed by the emitted code, or "".
	Namespace func(args []types.FieldType) string
	// Emit renders the call. Precision is chosen from argument 0 only;
	// Validate guarantees the remaining arguments convert to it.
	Emit func(args []ast.Expression, r Renderer) string
}

// CheckArity reports an arity failure for n arguments.
func (s *SpecialFunc) CheckArity(n int) *ArgError {
	if n >= s.MinArgs && n <= s.MaxArgs {
		return nil
	}
	return &ArgError{Code: diag.ErrArity, Index: -1, Message: arityMessage(s.Name, s.MinArgs, s.MaxArgs)}
}

func arityMessage(name string, minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("%s requires at least %s", name, plural(minArgs, "argument"))
	case minArgs == maxArgs:
		return fmt.Sprintf("%s requires %s", name, plural(minArgs, "argument"))
	case minArgs == 0:
		return fmt.Sprintf("%s requires at most %s", name, plural(maxArgs, "argument"))
	default:
		return fmt.Sprintf("%s requires %d to %d arguments", name, minArgs, maxArgs)
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

type predicate struct {
	name string
	ok   func(types.TypeTag) bool
}

var (
	anyNumeric     = predicate{"numeric", types.TypeTag.IsNumeric}
	anyInteger     = predicate{"integer", types.TypeTag.IsInteger}
	floatOrDecimal = predicate{"float or decimal", func(t types.TypeTag) bool { return t.IsFloat() || t.IsDecimal() }}
)

func (p predicate) check(name string, i int, t types.FieldType) *ArgError {
	if t.CollectionType == types.CollectionNone && p.ok(t.Type) {
		return nil
	}
	return &ArgError{
		Code:  diag.ErrArgumentType,
		Index: i,
		Message: fmt.Sprintf("%s: argument %d of type %s cannot be passed to a function parameter of type %s",
			name, i+1, t, p.name),
	}
}

// shape validates every argument against pred and, when uniform is set,
// requires each later argument to be usable where argument 0's type is
// expected, widening allowed.
func shape(name string, pred predicate, uniform bool) func([]types.FieldType) *ArgError {
	return func(args []types.FieldType) *ArgError {
		for i, t := range args {
			if err := pred.check(name, i, t); err != nil {
				return err
			}
		}
		if !uniform {
			return nil
		}
		first := args[0].WithNullable(false)
		for i := 1; i < len(args); i++ {
			if types.TypeCheck(args[i].WithNullable(false), first, name, true) != nil {
				return &ArgError{
					Code:  diag.ErrArgumentType,
					Index: i,
					Message: fmt.Sprintf("%s: argument %d of type %s cannot be passed to a function parameter of type %s",
						name, i+1, args[i], first),
				}
			}
		}
		return nil
	}
}

func sameAsFirst(args []types.FieldType) types.FieldType { return args[0] }

type family int

const (
	famInteger family = iota
	famSingle
	famDouble
	famDecimal
)

func familyOf(t types.FieldType) family {
	switch {
	case t.Type == types.Single:
		return famSingle
	case t.Type.IsInteger():
		return famInteger
	case t.Type.IsDecimal():
		return famDecimal
	}
	return famDouble
}

func argFamily(args []ast.Expression) family {
	if len(args) == 0 {
		return famDouble
	}
	t, ok := args[0].ResolvedType()
	if !ok {
		return famDouble
	}
	return familyOf(t)
}

// byFamily picks an import per argument-0 family; "" entries need none.
func byFamily(integer, float, decimal string) func([]types.FieldType) string {
	return func(args []types.FieldType) string {
		switch familyOf(args[0]) {
		case famInteger:
			return integer
		case famDecimal:
			return decimal
		}
		return float
	}
}

func renderAll(args []ast.Expression, r Renderer, wrap string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Render(a)
		if wrap != "" {
			out[i] = wrap + "(" + out[i] + ")"
		}
	}
	return out
}

// renderUniform renders arguments validated by a uniform shape. Later
// arguments are converted to the type of argument 0.
func renderUniform(args []ast.Expression, r Renderer, wrap string) []string {
	out := make([]string, len(args))
	first, ok := args[0].ResolvedType()
	for i, a := range args {
		if i == 0 || !ok {
			out[i] = r.Render(a)
		} else {
			out[i] = r.RenderAs(a, first.WithNullable(false))
		}
		if wrap != "" {
			out[i] = wrap + "(" + out[i] + ")"
		}
	}
	return out
}

func invoke(callee string, args []string) string {
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// mathEmit emits the float function math.<fn> with the precision of
// argument 0, and intrinsics.<fn>Decimal for the decimal family.
func mathEmit(fn string) func([]ast.Expression, Renderer) string {
	return func(args []ast.Expression, r Renderer) string {
		switch argFamily(args) {
		case famSingle:
			return "float32(" + invoke("math."+fn, renderUniform(args, r, "float64")) + ")"
		case famDecimal:
			return invoke("intrinsics."+fn+"Decimal", renderUniform(args, r, ""))
		}
		return invoke("math."+fn, renderUniform(args, r, ""))
	}
}

// floatMath is a float-or-decimal function of fixed arity.
func floatMath(name, fn string, arity int, doc string) *SpecialFunc {
	params := []string{"x"}
	if arity == 2 {
		params = []string{"y", "x"}
	}
	sig := make([]string, len(params))
	for i, p := range params {
		sig[i] = p + " float|decimal"
	}
	return &SpecialFunc{
		Name:       name,
		Signature:  name + "(" + strings.Join(sig, ", ") + ") same as " + params[0],
		Doc:        doc,
		MinArgs:    arity,
		MaxArgs:    arity,
		Validate:   shape(name, floatOrDecimal, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit:       mathEmit(fn),
	}
}

// angleEmit converts between degrees and radians by the given factor.
func angleEmit(fn, factor string) func([]ast.Expression, Renderer) string {
	return func(args []ast.Expression, r Renderer) string {
		a := r.Render(args[0])
		switch argFamily(args) {
		case famSingle:
			return "float32(float64(" + a + ") * " + factor + ")"
		case famDecimal:
			return "intrinsics." + fn + "Decimal(" + a + ")"
		}
		return "(" + a + " * " + factor + ")"
	}
}

var specialList = []*SpecialFunc{
	floatMath("ACOS", "Acos", 1, "Arc cosine in radians."),
	floatMath("ASIN", "Asin", 1, "Arc sine in radians."),
	floatMath("ATAN", "Atan", 1, "Arc tangent in radians."),
	floatMath("ATAN2", "Atan2", 2, "Arc tangent of y/x using the signs of both to pick the quadrant."),
	floatMath("COS", "Cos", 1, ""),
	floatMath("SIN", "Sin", 1, ""),
	floatMath("TAN", "Tan", 1, ""),
	floatMath("EXP", "Exp", 1, "e raised to x."),
	floatMath("LOG10", "Log10", 1, ""),
	floatMath("SQRT", "Sqrt", 1, ""),
	{
		Name:       "DEGREES",
		Signature:  "DEGREES(x float|decimal) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("DEGREES", floatOrDecimal, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit:       angleEmit("Degrees", "180 / math.Pi"),
	},
	{
		Name:       "RADIANS",
		Signature:  "RADIANS(x float|decimal) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("RADIANS", floatOrDecimal, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit:       angleEmit("Radians", "math.Pi / 180"),
	},
	{
		Name:       "LOG",
		Signature:  "LOG(x float|decimal[, base float|decimal]) same as x",
		Doc:        "Natural logarithm, or logarithm in the given base.",
		MinArgs:    1,
		MaxArgs:    2,
		Validate:   shape("LOG", floatOrDecimal, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			fam := argFamily(args)
			if fam == famDecimal {
				return invoke("intrinsics.LogDecimal", renderUniform(args, r, ""))
			}
			wrap := ""
			if fam == famSingle {
				wrap = "float64"
			}
			a := renderUniform(args, r, wrap)
			expr := invoke("math.Log", a[:1])
			if len(a) == 2 {
				expr = "(" + expr + " / " + invoke("math.Log", a[1:]) + ")"
			}
			if fam == famSingle {
				return "float32(" + expr + ")"
			}
			return expr
		},
	},
	{
		Name:       "ABS",
		Signature:  "ABS(x numeric) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("ABS", anyNumeric, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily(IntrinsicsPackage, "math", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			if argFamily(args) == famInteger {
				return invoke("intrinsics.Abs", renderAll(args, r, ""))
			}
			return mathEmit("Abs")(args, r)
		},
	},
	{
		Name:       "CEILING",
		Signature:  "CEILING(x numeric) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("CEILING", anyNumeric, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			switch argFamily(args) {
			case famInteger:
				return "(" + r.Render(args[0]) + ")"
			case famDecimal:
				return invoke("intrinsics.CeilingDecimal", renderAll(args, r, ""))
			}
			return mathEmit("Ceil")(args, r)
		},
	},
	{
		Name:       "FLOOR",
		Signature:  "FLOOR(x numeric) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("FLOOR", anyNumeric, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "math", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			if argFamily(args) == famInteger {
				return "(" + r.Render(args[0]) + ")"
			}
			return mathEmit("Floor")(args, r)
		},
	},
	{
		Name:       "POWER",
		Signature:  "POWER(x numeric, y numeric) same as x",
		MinArgs:    2,
		MaxArgs:    2,
		Validate:   shape("POWER", anyNumeric, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily(IntrinsicsPackage, "math", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			if argFamily(args) == famInteger {
				return invoke("intrinsics.Power", renderUniform(args, r, ""))
			}
			return mathEmit("Pow")(args, r)
		},
	},
	{
		Name:       "SQUARE",
		Signature:  "SQUARE(x numeric) same as x",
		MinArgs:    1,
		MaxArgs:    1,
		Validate:   shape("SQUARE", anyNumeric, true),
		ReturnType: sameAsFirst,
		Namespace:  byFamily("", "", IntrinsicsPackage),
		Emit: func(args []ast.Expression, r Renderer) string {
			a := r.Render(args[0])
			if argFamily(args) == famDecimal {
				return "intrinsics.SquareDecimal(" + a + ")"
			}
			return "(" + a + " * " + a + ")"
		},
	},
	{
		Name:      "SIGN",
		Signature: "SIGN(x numeric) int",
		Doc:       "-1, 0 or 1. Always returns int.",
		MinArgs:   1,
		MaxArgs:   1,
		Validate:  shape("SIGN", anyNumeric, true),
		ReturnType: func(args []types.FieldType) types.FieldType {
			return types.Simple(types.Int).WithNullable(args[0].Nullable)
		},
		Namespace: func([]types.FieldType) string { return IntrinsicsPackage },
		Emit: func(args []ast.Expression, r Renderer) string {
			callee := "intrinsics.Sign"
			switch argFamily(args) {
			case famSingle:
				callee = "intrinsics.SignFloat32"
			case famDouble:
				callee = "intrinsics.SignFloat64"
			case famDecimal:
				callee = "intrinsics.SignDecimal"
			}
			return invoke(callee, renderAll(args, r, ""))
		},
	},
	{
		Name:      "ROUND",
		Signature: "ROUND(x numeric, digits integer[, truncate integer]) same as x",
		Doc:       "Rounds to the given number of decimal places; a non-zero third argument truncates instead.",
		MinArgs:   2,
		MaxArgs:   3,
		Validate: func(args []types.FieldType) *ArgError {
			if err := anyNumeric.check("ROUND", 0, args[0]); err != nil {
				return err
			}
			for i := 1; i < len(args); i++ {
				if err := anyInteger.check("ROUND", i, args[i]); err != nil {
					return err
				}
			}
			return nil
		},
		ReturnType: sameAsFirst,
		Namespace:  func([]types.FieldType) string { return IntrinsicsPackage },
		Emit: func(args []ast.Expression, r Renderer) string {
			callee := "intrinsics.RoundInt"
			switch argFamily(args) {
			case famSingle:
				callee = "intrinsics.RoundFloat32"
			case famDouble:
				callee = "intrinsics.RoundFloat64"
			case famDecimal:
				callee = "intrinsics.RoundDecimal"
			}
			rendered := renderAll(args, r, "")
			for i := 1; i < len(rendered); i++ {
				rendered[i] = "int32(" + rendered[i] + ")"
			}
			return invoke(callee, rendered)
		},
	},
	{
		Name:       "RAND",
		Signature:  "RAND([seed integer]) double",
		Doc:        "Pseudo-random value in [0, 1).",
		MinArgs:    0,
		MaxArgs:    1,
		Validate:   shape("RAND", anyInteger, false),
		ReturnType: func([]types.FieldType) types.FieldType { return types.Simple(types.Double) },
		Namespace:  func([]types.FieldType) string { return "math/rand" },
		Emit: func(args []ast.Expression, r Renderer) string {
			if len(args) == 0 {
				return "rand.Float64()"
			}
			return "rand.New(rand.NewSource(int64(" + r.Render(args[0]) + "))).Float64()"
		},
	},
}
