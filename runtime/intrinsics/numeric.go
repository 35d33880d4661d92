// Package intrinsics holds the helpers that programs generated by the
// PanSQL compiler call for built-in functions the Go standard library
// does not provide directly.
package intrinsics

import "math"

// Integer is the set of Go types generated for PanSQL integer columns,
// plus int for untyped constants.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8
}

// Ptr returns a pointer to a copy of v, for nullable slots.
func Ptr[T any](v T) *T { return &v }

// Value dereferences p, returning the zero value for nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Sign returns -1, 0 or 1.
func Sign[T Integer](v T) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func SignFloat32(v float32) int32 { return SignFloat64(float64(v)) }

// SignFloat64 returns 0 for NaN.
func SignFloat64(v float64) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func Abs[T Integer](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Power raises base to a non-negative integer exponent. Negative
// exponents yield 0 except for bases 1 and -1.
func Power[T Integer](base, exp T) T {
	if exp < 0 {
		switch base {
		case 1:
			return 1
		case T(0) - 1:
			if exp%2 == 0 {
				return 1
			}
			return base
		}
		return 0
	}
	result := T(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func truncating(mode []int32) bool {
	return len(mode) > 0 && mode[0] != 0
}

// RoundInt rounds to digits decimal places. Only negative digits have an
// effect on integers: RoundInt(1250, -2) is 1300.
func RoundInt[T Integer](v T, digits int32, mode ...int32) T {
	if digits >= 0 {
		return v
	}
	f := RoundFloat64(float64(v), digits, mode...)
	return T(f)
}

func RoundFloat32(v float32, digits int32, mode ...int32) float32 {
	return float32(RoundFloat64(float64(v), digits, mode...))
}

// RoundFloat64 rounds half away from zero, or truncates when a non-zero
// mode is given.
func RoundFloat64(v float64, digits int32, mode ...int32) float64 {
	scale := math.Pow(10, float64(digits))
	if truncating(mode) {
		return math.Trunc(v*scale) / scale
	}
	return math.Round(v*scale) / scale
}
