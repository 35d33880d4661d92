package codegen

import "github.com/roach88/pansql/internal/types"

// GoType is the Go type a field of type ft is generated as. Nullable
// scalars become pointers; types whose Go form is already nilable do not.
// Collections become slices.
func (m *Model) GoType(ft types.FieldType) string {
	base, nilable := m.scalarType(ft.Type)
	if ft.CollectionType != types.CollectionNone {
		return "[]" + base
	}
	if ft.Nullable && !nilable {
		return "*" + base
	}
	return base
}

// ScalarGoType is GoType of the non-null scalar form of ft.
func (m *Model) ScalarGoType(ft types.FieldType) string {
	base, _ := m.scalarType(ft.Type)
	return base
}

func (m *Model) scalarType(tag types.TypeTag) (string, bool) {
	switch {
	case tag == types.Unstructured:
		return "any", true
	case tag == types.Boolean:
		return "bool", false
	case tag == types.Byte:
		return "uint8", false
	case tag == types.Short:
		return "int16", false
	case tag == types.Int:
		return "int32", false
	case tag == types.Long:
		return "int64", false
	case tag.IsDecimal():
		return m.Intrinsic("Decimal"), false
	case tag == types.Single:
		return "float32", false
	case tag == types.Double:
		return "float64", false
	case tag.IsString(), tag == types.Xml:
		return "string", false
	case tag.IsBinary():
		return "[]byte", true
	case tag == types.Guid:
		return m.Import("github.com/google/uuid") + ".UUID", false
	case tag == types.Interval:
		return m.Import("time") + ".Duration", false
	case tag.IsTemporal():
		return m.Import("time") + ".Time", false
	case tag == types.Json:
		return m.Import("encoding/json") + ".RawMessage", true
	}
	return "any", true
}

// isGoNumeric reports whether the tag maps onto a Go numeric type that
// supports conversion syntax and the arithmetic operators.
func isGoNumeric(tag types.TypeTag) bool {
	return tag.IsInteger() || tag.IsFloat()
}
