package types

import "fmt"

// MismatchError describes why an actual type cannot occupy an expected slot.
type MismatchError struct {
	Role     string
	Actual   FieldType
	Expected FieldType
	Reason   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s is not compatible with %s: %s", e.Role, e.Actual, e.Expected, e.Reason)
}

// TypeCheck decides whether a value of type actual may be used where
// expected is declared. It returns nil on success.
//
// Rules, in order:
//   - Unstructured on either side matches anything.
//   - Collection shape must match exactly.
//   - A nullable actual cannot fill a non-nullable slot; the reverse is fine.
//   - Equal tags match. decimal and numeric are synonyms.
//   - With allowWidening, integers widen by rank and into decimals and
//     floats, money widens into decimal, single widens to double, and any
//     member of the string or binary family fills any other member.
func TypeCheck(actual, expected FieldType, role string, allowWidening bool) error {
	if actual.Type == Unstructured || expected.Type == Unstructured {
		return nil
	}
	fail := func(reason string) error {
		return &MismatchError{Role: role, Actual: actual, Expected: expected, Reason: reason}
	}
	if actual.CollectionType != expected.CollectionType {
		return fail(fmt.Sprintf("collection %s does not match %s", actual.CollectionType, expected.CollectionType))
	}
	if actual.Nullable && !expected.Nullable {
		return fail("nullable value for non-nullable parameter")
	}
	if tagsMatch(actual.Type, expected.Type) {
		if !allowWidening && actual.Info != "" && expected.Info != "" && actual.Info != expected.Info {
			return fail(fmt.Sprintf("parameters %s do not match %s", actual.Info, expected.Info))
		}
		return nil
	}
	if allowWidening && widens(actual.Type, expected.Type) {
		return nil
	}
	return fail("incompatible types")
}

func tagsMatch(a, b TypeTag) bool {
	if a == b {
		return true
	}
	return (a == Decimal && b == Numeric) || (a == Numeric && b == Decimal)
}

func widens(from, to TypeTag) bool {
	switch {
	case from.IsInteger() && to.IsInteger():
		return integerRank(from) <= integerRank(to)
	case from.IsInteger() && (to.IsDecimal() || to.IsFloat()):
		return true
	case from.IsDecimal() && (to == Decimal || to == Numeric):
		return true
	case from == Single && to == Double:
		return true
	case from.IsString() && to.IsString():
		return true
	case from.IsBinary() && to.IsBinary():
		return true
	case from == Date && (to == DateTime || to == DateTimeTZ):
		return true
	}
	return false
}

// Promote returns the result type of an arithmetic operation over two
// numeric operands, or false when no common numeric type exists.
func Promote(a, b FieldType) (FieldType, bool) {
	if !a.Type.IsNumeric() || !b.Type.IsNumeric() {
		return FieldType{}, false
	}
	if a.CollectionType != CollectionNone || b.CollectionType != CollectionNone {
		return FieldType{}, false
	}
	nullable := a.Nullable || b.Nullable
	var out FieldType
	switch {
	case a.Type.IsFloat() || b.Type.IsFloat():
		out = Simple(Single)
		if a.Type == Double || b.Type == Double || a.Type.IsDecimal() || b.Type.IsDecimal() {
			out = Simple(Double)
		}
	case a.Type.IsDecimal() || b.Type.IsDecimal():
		out = pickDecimal(a, b)
	default:
		out = Simple(a.Type)
		if integerRank(b.Type) > integerRank(a.Type) {
			out = Simple(b.Type)
		}
	}
	out.Nullable = nullable
	return out, true
}

func pickDecimal(a, b FieldType) FieldType {
	if a.Type == Decimal || a.Type == Numeric {
		return FieldType{Type: Decimal, Info: a.Info}
	}
	if b.Type == Decimal || b.Type == Numeric {
		return FieldType{Type: Decimal, Info: b.Info}
	}
	return Simple(Money)
}
