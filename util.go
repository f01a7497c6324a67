package rollbar

import (
	"reflect"
	"runtime"
)

const unknown string = "(unknown)"

// Pointer returns a pointer to v, handy for the optional boolean options.
func Pointer[T any](v T) *T {
	return &v
}

// functionName returns the fully qualified name of fn, or "" for nil.
func functionName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return unknown
}
