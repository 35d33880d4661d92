package types

import (
	"fmt"
	"strings"
)

// TypeTag is the closed set of primitive data-interchange types.
type TypeTag int

const (
	Unstructured TypeTag = iota
	Boolean

	// Integer family, ordered by width.
	Byte
	Short
	Int
	Long

	// Decimal family.
	Decimal
	Numeric
	Money
	SmallMoney

	// Float family.
	Single
	Double

	// String family.
	Char
	Varchar
	Text
	Nchar
	Nvarchar
	Ntext

	// Binary family.
	Binary
	Varbinary
	Blob
	Bits
	Varbits

	Guid

	// Temporal family.
	Date
	Time
	DateTime
	DateTimeTZ
	Interval

	Json
	Xml
)

var tagNames = map[TypeTag]string{
	Unstructured: "unstructured",
	Boolean:      "boolean",
	Byte:         "byte",
	Short:        "short",
	Int:          "int",
	Long:         "long",
	Decimal:      "decimal",
	Numeric:      "numeric",
	Money:        "money",
	SmallMoney:   "smallmoney",
	Single:       "single",
	Double:       "double",
	Char:         "char",
	Varchar:      "varchar",
	Text:         "text",
	Nchar:        "nchar",
	Nvarchar:     "nvarchar",
	Ntext:        "ntext",
	Binary:       "binary",
	Varbinary:    "varbinary",
	Blob:         "blob",
	Bits:         "bits",
	Varbits:      "varbits",
	Guid:         "guid",
	Date:         "date",
	Time:         "time",
	DateTime:     "datetime",
	DateTimeTZ:   "datetimetz",
	Interval:     "interval",
	Json:         "json",
	Xml:          "xml",
}

// tagAliases are accepted spellings that map onto a canonical tag.
var tagAliases = map[string]TypeTag{
	"bool":      Boolean,
	"bit":       Boolean,
	"tinyint":   Byte,
	"smallint":  Short,
	"integer":   Int,
	"bigint":    Long,
	"float":     Double,
	"real":      Single,
	"string":    Ntext,
	"uuid":      Guid,
	"timestamp": DateTime,
}

func (t TypeTag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TypeTag(%d)", int(t))
}

// ParseTag resolves a type name case-insensitively.
func ParseTag(name string) (TypeTag, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for tag, s := range tagNames {
		if s == n {
			return tag, true
		}
	}
	if tag, ok := tagAliases[n]; ok {
		return tag, true
	}
	return Unstructured, false
}

// Parameterized reports whether a FieldType of this tag must carry an Info
// payload (precision, scale or length).
func (t TypeTag) Parameterized() bool {
	switch t {
	case Decimal, Numeric, Char, Varchar, Nchar, Nvarchar, Binary, Varbinary, Bits, Varbits, Time:
		return true
	}
	return false
}

func (t TypeTag) IsInteger() bool {
	return t >= Byte && t <= Long
}

func (t TypeTag) IsDecimal() bool {
	return t >= Decimal && t <= SmallMoney
}

func (t TypeTag) IsFloat() bool {
	return t == Single || t == Double
}

func (t TypeTag) IsNumeric() bool {
	return t.IsInteger() || t.IsDecimal() || t.IsFloat()
}

func (t TypeTag) IsString() bool {
	return t >= Char && t <= Ntext
}

func (t TypeTag) IsBinary() bool {
	return t >= Binary && t <= Varbits
}

func (t TypeTag) IsTemporal() bool {
	return t >= Date && t <= Interval
}

// integerRank orders the integer family for widening.
func integerRank(t TypeTag) int {
	return int(t - Byte)
}
