package intrinsics

import (
	"fmt"
	"math"

	"github.com/cockroachdb/apd/v3"
)

// DecimalPrecision is the number of significant digits kept by decimal
// arithmetic.
const DecimalPrecision = 38

// Decimal is the Go type of PanSQL decimal, numeric and money values.
// Operations never modify their operands.
type Decimal struct {
	v apd.Decimal
}

func decimalContext() *apd.Context {
	ctx := apd.BaseContext.WithPrecision(DecimalPrecision)
	ctx.Rounding = apd.RoundHalfUp
	return ctx
}

// ParseDecimal reads a decimal literal.
func ParseDecimal(s string) (Decimal, error) {
	var d Decimal
	if _, _, err := d.v.SetString(s); err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// MustDecimal is ParseDecimal for compiler-emitted literals.
func MustDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func DecimalFromInt(i int64) Decimal {
	var d Decimal
	d.v.SetInt64(i)
	return d
}

func DecimalFromFloat(f float64) Decimal {
	var d Decimal
	if _, err := d.v.SetFloat64(f); err != nil {
		return Decimal{}
	}
	return d
}

// Float64 converts with the nearest representable value.
func (d Decimal) Float64() float64 {
	f, err := d.v.Float64()
	if err != nil {
		return math.NaN()
	}
	return f
}

func (d Decimal) String() string { return d.v.String() }

// Cmp compares d and o, returning -1, 0 or 1.
func (d Decimal) Cmp(o Decimal) int { return d.v.Cmp(&o.v) }

type binaryOp func(ctx *apd.Context, d, x, y *apd.Decimal) (apd.Condition, error)

func apply2(op binaryOp, a, b Decimal) Decimal {
	var out Decimal
	if _, err := op(decimalContext(), &out.v, &a.v, &b.v); err != nil {
		panic(fmt.Errorf("decimal arithmetic: %w", err))
	}
	return out
}

type unaryOp func(ctx *apd.Context, d, x *apd.Decimal) (apd.Condition, error)

func apply1(op unaryOp, a Decimal) Decimal {
	var out Decimal
	if _, err := op(decimalContext(), &out.v, &a.v); err != nil {
		panic(fmt.Errorf("decimal arithmetic: %w", err))
	}
	return out
}

func AddDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Add, a, b) }
func SubDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Sub, a, b) }
func MulDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Mul, a, b) }
func QuoDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Quo, a, b) }
func RemDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Rem, a, b) }
func NegDecimal(a Decimal) Decimal    { return apply1((*apd.Context).Neg, a) }

func AbsDecimal(a Decimal) Decimal     { return apply1((*apd.Context).Abs, a) }
func CeilingDecimal(a Decimal) Decimal { return apply1((*apd.Context).Ceil, a) }
func FloorDecimal(a Decimal) Decimal   { return apply1((*apd.Context).Floor, a) }
func SqrtDecimal(a Decimal) Decimal    { return apply1((*apd.Context).Sqrt, a) }
func ExpDecimal(a Decimal) Decimal     { return apply1((*apd.Context).Exp, a) }
func Log10Decimal(a Decimal) Decimal   { return apply1((*apd.Context).Log10, a) }
func SquareDecimal(a Decimal) Decimal  { return MulDecimal(a, a) }

func PowDecimal(a, b Decimal) Decimal { return apply2((*apd.Context).Pow, a, b) }

// LogDecimal is the natural logarithm, or the logarithm in base when one
// is given.
func LogDecimal(a Decimal, base ...Decimal) Decimal {
	ln := apply1((*apd.Context).Ln, a)
	if len(base) == 0 {
		return ln
	}
	return QuoDecimal(ln, apply1((*apd.Context).Ln, base[0]))
}

func SignDecimal(a Decimal) int32 { return int32(a.v.Sign()) }

// RoundDecimal rounds half up to digits places, or truncates when a
// non-zero mode is given.
func RoundDecimal(a Decimal, digits int32, mode ...int32) Decimal {
	ctx := decimalContext()
	if truncating(mode) {
		ctx.Rounding = apd.RoundDown
	}
	var out Decimal
	if _, err := ctx.Quantize(&out.v, &a.v, -digits); err != nil {
		panic(fmt.Errorf("decimal round: %w", err))
	}
	return out
}

// viaFloat evaluates functions apd does not provide in float64.
func viaFloat(f func(float64) float64, a Decimal) Decimal {
	return DecimalFromFloat(f(a.Float64()))
}

func AcosDecimal(a Decimal) Decimal { return viaFloat(math.Acos, a) }
func AsinDecimal(a Decimal) Decimal { return viaFloat(math.Asin, a) }
func AtanDecimal(a Decimal) Decimal { return viaFloat(math.Atan, a) }
func CosDecimal(a Decimal) Decimal  { return viaFloat(math.Cos, a) }
func SinDecimal(a Decimal) Decimal  { return viaFloat(math.Sin, a) }
func TanDecimal(a Decimal) Decimal  { return viaFloat(math.Tan, a) }

func Atan2Decimal(y, x Decimal) Decimal {
	return DecimalFromFloat(math.Atan2(y.Float64(), x.Float64()))
}

func DegreesDecimal(a Decimal) Decimal {
	return viaFloat(func(r float64) float64 { return r * 180 / math.Pi }, a)
}

func RadiansDecimal(a Decimal) Decimal {
	return viaFloat(func(d float64) float64 { return d * math.Pi / 180 }, a)
}
