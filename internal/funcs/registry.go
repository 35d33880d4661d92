// Package funcs resolves PanSQL function calls against the built-in
// function surface.
//
// There are three kinds of built-in:
//   - Intrinsic: a function with a fixed parameter list, optionally ending
//     in a variadic parameter (FORMAT, UPPER, ...).
//   - Property: a zero-arity value written without parentheses
//     (CURRENT_TIMESTAMP, PI).
//   - SpecialFunc: a math function whose argument rules, return type and
//     emitted code depend on the argument types (SQRT, SIGN, ...).
//
// All three tables are built once at package init and never modified.
package funcs

import (
	"sort"
	"strings"

	"github.com/roach88/pansql/internal/types"
)

// IntrinsicsPackage is the import path of the runtime helpers that
// generated programs call.
const IntrinsicsPackage = "github.com/roach88/pansql/runtime/intrinsics"

// Param is one declared parameter of an intrinsic.
type Param struct {
	Name string
	Type types.FieldType
}

// Intrinsic is a function with a declared signature.
type Intrinsic struct {
	Name   string
	Params []Param
	// Variadic, when set, is the element type of every trailing argument.
	Variadic *Param
	Returns  types.FieldType
	// CodeName is the target-language callee, e.g. "strings.ToUpper".
	CodeName  string
	Namespace string
	Doc       string
}

// MinArgs is the number of required arguments.
func (f *Intrinsic) MinArgs() int { return len(f.Params) }

// Signature renders the declaration for listings and messages.
func (f *Intrinsic) Signature() string {
	parts := make([]string, 0, len(f.Params)+1)
	for _, p := range f.Params {
		parts = append(parts, p.Name+" "+p.Type.String())
	}
	if f.Variadic != nil {
		parts = append(parts, f.Variadic.Name+" "+f.Variadic.Type.String()+"...")
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ") " + f.Returns.String()
}

// Property is a zero-arity built-in referenced without parentheses.
type Property struct {
	Name      string
	Returns   types.FieldType
	CodeName  string
	Namespace string
	Doc       string
}

var (
	ntext    = types.Simple(types.Ntext)
	intT     = types.Simple(types.Int)
	dateTime = types.Simple(types.DateTime)
	anyT     = types.Simple(types.Unstructured)
)

var intrinsicList = []*Intrinsic{
	{
		Name:     "FORMAT",
		Params:   []Param{{"format", ntext}},
		Variadic: &Param{"args", anyT},
		Returns:  ntext, CodeName: "intrinsics.Format", Namespace: IntrinsicsPackage,
		Doc: "Formats the arguments with a .NET-style composite format string ({0}, {1}, ...).",
	},
	{
		Name:     "CONCAT",
		Variadic: &Param{"values", anyT},
		Returns:  ntext, CodeName: "intrinsics.Concat", Namespace: IntrinsicsPackage,
		Doc: "Concatenates the string forms of its arguments.",
	},
	{
		Name:    "UPPER",
		Params:  []Param{{"value", ntext}},
		Returns: ntext, CodeName: "strings.ToUpper", Namespace: "strings",
	},
	{
		Name:    "LOWER",
		Params:  []Param{{"value", ntext}},
		Returns: ntext, CodeName: "strings.ToLower", Namespace: "strings",
	},
	{
		Name:    "TRIM",
		Params:  []Param{{"value", ntext}},
		Returns: ntext, CodeName: "strings.TrimSpace", Namespace: "strings",
	},
	{
		Name:    "LTRIM",
		Params:  []Param{{"value", ntext}},
		Returns: ntext, CodeName: "intrinsics.LTrim", Namespace: IntrinsicsPackage,
	},
	{
		Name:    "RTRIM",
		Params:  []Param{{"value", ntext}},
		Returns: ntext, CodeName: "intrinsics.RTrim", Namespace: IntrinsicsPackage,
	},
	{
		Name:    "LEN",
		Params:  []Param{{"value", ntext}},
		Returns: intT, CodeName: "intrinsics.Len", Namespace: IntrinsicsPackage,
		Doc: "Number of characters, not bytes.",
	},
	{
		Name:    "SUBSTRING",
		Params:  []Param{{"value", ntext}, {"start", intT}, {"length", intT}},
		Returns: ntext, CodeName: "intrinsics.Substring", Namespace: IntrinsicsPackage,
		Doc: "1-based, like T-SQL.",
	},
	{
		Name:    "REPLACE",
		Params:  []Param{{"value", ntext}, {"old", ntext}, {"new", ntext}},
		Returns: ntext, CodeName: "strings.ReplaceAll", Namespace: "strings",
	},
	{
		Name:    "NEWID",
		Returns: types.Simple(types.Guid), CodeName: "uuid.New", Namespace: "github.com/google/uuid",
	},
	{
		Name:    "YEAR",
		Params:  []Param{{"date", dateTime.WithNullable(true)}},
		Returns: intT.WithNullable(true), CodeName: "intrinsics.Year", Namespace: IntrinsicsPackage,
	},
	{
		Name:    "MONTH",
		Params:  []Param{{"date", dateTime.WithNullable(true)}},
		Returns: intT.WithNullable(true), CodeName: "intrinsics.Month", Namespace: IntrinsicsPackage,
	},
	{
		Name:    "DAY",
		Params:  []Param{{"date", dateTime.WithNullable(true)}},
		Returns: intT.WithNullable(true), CodeName: "intrinsics.Day", Namespace: IntrinsicsPackage,
	},
}

var propertyList = []*Property{
	{Name: "CURRENT_TIMESTAMP", Returns: dateTime, CodeName: "time.Now()", Namespace: "time"},
	{Name: "GETDATE", Returns: dateTime, CodeName: "time.Now()", Namespace: "time"},
	{Name: "GETUTCDATE", Returns: dateTime, CodeName: "time.Now().UTC()", Namespace: "time"},
	{Name: "PI", Returns: types.Simple(types.Double), CodeName: "math.Pi", Namespace: "math"},
}

var (
	intrinsics = index(intrinsicList, func(f *Intrinsic) string { return f.Name })
	properties = index(propertyList, func(p *Property) string { return p.Name })
	specials   = index(specialList, func(s *SpecialFunc) string { return s.Name })
)

func index[T any](list []T, name func(T) string) map[string]T {
	m := make(map[string]T, len(list))
	for _, v := range list {
		m[strings.ToUpper(name(v))] = v
	}
	return m
}

// LookupIntrinsic finds an intrinsic by case-insensitive name.
func LookupIntrinsic(name string) (*Intrinsic, bool) {
	f, ok := intrinsics[strings.ToUpper(name)]
	return f, ok
}

// LookupProperty finds a property by case-insensitive name.
func LookupProperty(name string) (*Property, bool) {
	p, ok := properties[strings.ToUpper(name)]
	return p, ok
}

// LookupSpecial finds a special function by case-insensitive name.
func LookupSpecial(name string) (*SpecialFunc, bool) {
	s, ok := specials[strings.ToUpper(name)]
	return s, ok
}

// Entry describes one built-in for listings.
type Entry struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Signature string `json:"signature"`
	Doc       string `json:"doc,omitempty"`
}

// Catalog lists every built-in sorted by name.
func Catalog() []Entry {
	var out []Entry
	for _, f := range intrinsicList {
		out = append(out, Entry{Name: f.Name, Kind: "function", Signature: f.Signature(), Doc: f.Doc})
	}
	for _, p := range propertyList {
		out = append(out, Entry{Name: p.Name, Kind: "property", Signature: p.Name + " " + p.Returns.String(), Doc: p.Doc})
	}
	for _, s := range specialList {
		out = append(out, Entry{Name: s.Name, Kind: "special", Signature: s.Signature, Doc: s.Doc})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
