package processor

import (
	"reflect"
)

// mergeReflect overlays b onto a. Zero values in b keep a's value. A non-nil pointer to a non-struct
// counts as set even if it points to zero, so a layer can explicitly override with 0 or false.
func mergeReflect(t reflect.Type, a, b, out reflect.Value) {
	switch t.Kind() {
	case reflect.Struct:
		for _, f := range reflect.VisibleFields(t) {
			mergeReflect(f.Type, a.FieldByIndex(f.Index), b.FieldByIndex(f.Index), out.FieldByIndex(f.Index))
		}
	case reflect.Pointer:
		switch {
		case b.IsNil():
			out.Set(a)
		case a.IsNil() || t.Elem().Kind() != reflect.Struct:
			out.Set(b)
		default:
			out.Set(reflect.New(t.Elem()))
			mergeReflect(t.Elem(), a.Elem(), b.Elem(), out.Elem())
		}
	default:
		if b.IsZero() {
			out.Set(a)
		} else {
			out.Set(b)
		}
	}
}

// Merge returns a with every field set in b replaced by b's value.
// T must only have exported fields.
func Merge[T any](a T, b T) T {
	var out T
	mergeReflect(reflect.TypeFor[T](), reflect.ValueOf(a), reflect.ValueOf(b), reflect.ValueOf(&out).Elem())
	return out
}
