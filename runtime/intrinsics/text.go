package intrinsics

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Format substitutes {n} placeholders with the n-th argument. "{{" and
// "}}" are literal braces; a placeholder with no matching argument is
// left as written.
func Format(format string, args ...any) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case ch == '{' && i+1 < len(format) && format[i+1] == '{':
			b.WriteByte('{')
			i++
		case ch == '}' && i+1 < len(format) && format[i+1] == '}':
			b.WriteByte('}')
			i++
		case ch == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				b.WriteString(format[i:])
				return b.String()
			}
			n, err := strconv.Atoi(format[i+1 : i+end])
			if err != nil || n < 0 || n >= len(args) {
				b.WriteString(format[i : i+end+1])
			} else {
				b.WriteString(toString(args[n]))
			}
			i += end
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// Concat joins the string forms of its arguments; nil pointers add nothing.
func Concat(args ...any) string {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(toString(a))
	}
	return b.String()
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case time.Time:
		return x.Format(time.RFC3339)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		return toString(rv.Elem().Interface())
	}
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func LTrim(s string) string { return strings.TrimLeftFunc(s, unicode.IsSpace) }
func RTrim(s string) string { return strings.TrimRightFunc(s, unicode.IsSpace) }

// Len counts characters.
func Len(s string) int32 { return int32(utf8.RuneCountInString(s)) }

// Substring takes length characters starting at the 1-based start. Out
// of range bounds are clipped.
func Substring(s string, start, length int32) string {
	runes := []rune(s)
	from := int(start) - 1
	to := from + int(length)
	from = max(from, 0)
	to = min(to, len(runes))
	if from >= to {
		return ""
	}
	return string(runes[from:to])
}

func datePart(t *time.Time, part func(time.Time) int) *int32 {
	if t == nil {
		return nil
	}
	v := int32(part(*t))
	return &v
}

func Year(t *time.Time) *int32 {
	return datePart(t, func(t time.Time) int { return t.Year() })
}

func Month(t *time.Time) *int32 {
	return datePart(t, func(t time.Time) int { return int(t.Month()) })
}

func Day(t *time.Time) *int32 {
	return datePart(t, func(t time.Time) int { return t.Day() })
}
