package codegen

import (
	"go/token"
	"strings"
	"unicode"
)

// Exported turns a source name into an exported Go identifier:
// "total_amount" becomes "TotalAmount", "2nd" becomes "X2nd".
func Exported(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" {
		return "X"
	}
	if unicode.IsDigit(rune(out[0])) {
		return "X" + out
	}
	return out
}

// reservedLocals are identifiers the generated program declares itself or
// imports; script names that collide get a trailing underscore.
var reservedLocals = map[string]bool{
	"ctx": true, "err": true, "main": true, "run": true, "rec": true, "ok": true,
	"context": true, "fmt": true, "os": true, "math": true, "rand": true,
	"strings": true, "time": true, "uuid": true, "json": true, "intrinsics": true,
	"any": true, "bool": true, "byte": true, "string": true, "error": true,
	"int": true, "len": true, "nil": true, "true": true, "false": true,
	"append": true, "copy": true, "new": true, "make": true,
}

// Local turns a source name into an unexported Go identifier that does not
// collide with keywords or the generated program's own names.
func Local(name string) string {
	e := Exported(name)
	runes := []rune(e)
	runes[0] = unicode.ToLower(runes[0])
	out := string(runes)
	if token.IsKeyword(out) || reservedLocals[out] {
		out += "_"
	}
	return out
}
