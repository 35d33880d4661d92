package types

import (
	"fmt"
	"strings"
)

// CollectionType describes whether a field holds one value or many.
type CollectionType int

const (
	CollectionNone CollectionType = iota
	CollectionArray
	CollectionMultiset
)

func (c CollectionType) String() string {
	switch c {
	case CollectionArray:
		return "array"
	case CollectionMultiset:
		return "multiset"
	default:
		return "none"
	}
}

// FieldType describes a data-interchange type. Values are immutable and
// compared structurally.
type FieldType struct {
	Type           TypeTag        `json:"type"`
	Nullable       bool           `json:"nullable"`
	CollectionType CollectionType `json:"collection"`
	Info           string         `json:"info,omitempty"`
}

// New constructs a FieldType, enforcing that Info is present exactly when
// the tag is parameterized.
func New(tag TypeTag, nullable bool, coll CollectionType, info string) (FieldType, error) {
	if tag.Parameterized() && info == "" {
		return FieldType{}, fmt.Errorf("type %s requires a precision or length", tag)
	}
	if !tag.Parameterized() && info != "" {
		return FieldType{}, fmt.Errorf("type %s does not take parameters (got %q)", tag, info)
	}
	return FieldType{Type: tag, Nullable: nullable, CollectionType: coll, Info: info}, nil
}

// Simple returns a non-nullable scalar of a non-parameterized tag.
// It panics on parameterized tags; use New for those.
func Simple(tag TypeTag) FieldType {
	ft, err := New(tag, false, CollectionNone, "")
	if err != nil {
		panic(err)
	}
	return ft
}

// MustParse is Parse for statically known type strings.
func MustParse(s string) FieldType {
	ft, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ft
}

// Parse reads the textual form produced by String:
//
//	tag[(info)][?][[]|{}]
//
// e.g. "int", "decimal(10,2)?", "nvarchar(50)[]", "long{}".
func Parse(s string) (FieldType, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return FieldType{}, fmt.Errorf("empty type")
	}

	coll := CollectionNone
	switch {
	case strings.HasSuffix(text, "[]"):
		coll = CollectionArray
		text = strings.TrimSuffix(text, "[]")
	case strings.HasSuffix(text, "{}"):
		coll = CollectionMultiset
		text = strings.TrimSuffix(text, "{}")
	}

	nullable := false
	if strings.HasSuffix(text, "?") {
		nullable = true
		text = strings.TrimSuffix(text, "?")
	}

	info := ""
	if open := strings.IndexByte(text, '('); open >= 0 {
		if !strings.HasSuffix(text, ")") {
			return FieldType{}, fmt.Errorf("invalid type %q: unbalanced parentheses", s)
		}
		info = strings.ReplaceAll(text[open+1:len(text)-1], " ", "")
		text = text[:open]
		if info == "" {
			return FieldType{}, fmt.Errorf("invalid type %q: empty parameters", s)
		}
	}

	tag, ok := ParseTag(text)
	if !ok {
		return FieldType{}, fmt.Errorf("unknown type %q", text)
	}
	return New(tag, nullable, coll, info)
}

// String renders the canonical textual form accepted by Parse.
func (f FieldType) String() string {
	var b strings.Builder
	b.WriteString(f.Type.String())
	if f.Info != "" {
		b.WriteString("(" + f.Info + ")")
	}
	if f.Nullable {
		b.WriteByte('?')
	}
	switch f.CollectionType {
	case CollectionArray:
		b.WriteString("[]")
	case CollectionMultiset:
		b.WriteString("{}")
	}
	return b.String()
}

// Equal compares two types structurally.
func (f FieldType) Equal(o FieldType) bool {
	return f == o
}

// WithNullable returns a copy with nullability set.
func (f FieldType) WithNullable(nullable bool) FieldType {
	f.Nullable = nullable
	return f
}

// MarshalYAML writes the textual form.
func (f FieldType) MarshalYAML() (any, error) {
	return f.String(), nil
}

// UnmarshalYAML accepts the textual form.
func (f *FieldType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	ft, err := Parse(s)
	if err != nil {
		return err
	}
	*f = ft
	return nil
}
