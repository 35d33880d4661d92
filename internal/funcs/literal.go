package funcs

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/pansql/internal/ast"
	"github.com/roach88/pansql/internal/types"
)

// maxDecimalPrecision matches the widest decimal the connectors accept.
const maxDecimalPrecision = 38

// LiteralType infers the type of a literal. It returns false for
// anything that is not a literal.
//
//	42         int (long when outside the int32 range)
//	4.0, 1e3   double
//	4.0f       single
//	2.50m      decimal(3,2)
//	'text'     ntext
func LiteralType(e ast.Expression) (types.FieldType, bool) {
	switch lit := e.(type) {
	case *ast.IntegerLiteral:
		if lit.Value < math.MinInt32 || lit.Value > math.MaxInt32 {
			return types.Simple(types.Long), true
		}
		return types.Simple(types.Int), true
	case *ast.FloatLiteral:
		switch lit.Kind {
		case ast.FloatSingle:
			return types.Simple(types.Single), true
		case ast.FloatDecimal:
			return types.FieldType{Type: types.Decimal, Info: decimalInfo(lit.Text)}, true
		}
		return types.Simple(types.Double), true
	case *ast.StringLiteral:
		return types.Simple(types.Ntext), true
	}
	return types.FieldType{}, false
}

func decimalInfo(text string) string {
	if strings.ContainsAny(text, "eE") {
		return fmt.Sprintf("%d,18", maxDecimalPrecision)
	}
	digits := strings.TrimPrefix(text, "-")
	whole, frac, _ := strings.Cut(digits, ".")
	whole = strings.TrimLeft(whole, "0")
	precision := len(whole) + len(frac)
	if precision == 0 {
		precision = 1
	}
	if precision > maxDecimalPrecision {
		precision = maxDecimalPrecision
	}
	scale := min(len(frac), precision)
	return fmt.Sprintf("%d,%d", precision, scale)
}
