package intrinsics

import (
	"fmt"
	"reflect"
	"strings"
)

// Record renders a generated record the way %+v does, except that
// nullable fields show their value, or NULL when unset.
func Record(rec any) string {
	rv := reflect.ValueOf(rec)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Sprintf("%+v", rec)
	}
	rt := rv.Type()
	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < rv.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if b.Len() > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(fieldString(rv.Field(i)))
	}
	b.WriteByte('}')
	return b.String()
}

func fieldString(v reflect.Value) string {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "NULL"
		}
		v = v.Elem()
	}
	return fmt.Sprint(v.Interface())
}
