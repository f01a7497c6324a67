package util

import (
	"reflect"
)

// Clone deep-copies maps, slices, arrays, pointers and exported struct
// fields reachable from v. Functions, channels and unexported struct fields
// are shared with the original.
func Clone(v any) any {
	if v == nil {
		return nil
	}

	// Fast paths for the shapes user supplied payload data usually has.
	switch t := v.(type) {
	case string, bool, int, int64, float64:
		return t
	case map[string]any:
		if t == nil {
			return t
		}
		clone := make(map[string]any, len(t))
		for k, value := range t {
			clone[k] = Clone(value)
		}
		return clone
	case []any:
		if t == nil {
			return t
		}
		clone := make([]any, len(t))
		for i, value := range t {
			clone[i] = Clone(value)
		}
		return clone
	case map[string]string:
		if t == nil {
			return t
		}
		clone := make(map[string]string, len(t))
		for k, value := range t {
			clone[k] = value
		}
		return clone
	}

	return cloneValue(reflect.ValueOf(v), make(map[uintptr]reflect.Value)).Interface()
}

func cloneValue(v reflect.Value, seen map[uintptr]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(cloneValue(v.Elem(), seen))
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		if cloned, ok := seen[v.Pointer()]; ok {
			return cloned
		}
		ptr := reflect.New(v.Type().Elem())
		seen[v.Pointer()] = ptr
		ptr.Elem().Set(cloneValue(v.Elem(), seen))
		return ptr
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), cloneValue(iter.Value(), seen))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i), seen))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i), seen))
		}
		return clone
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if !clone.Field(i).CanSet() {
				continue
			}
			clone.Field(i).Set(cloneValue(v.Field(i), seen))
		}
		return clone
	default:
		return v
	}
}
