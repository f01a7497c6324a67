package rollbar

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// errorHistory remembers every accepted occurrence of a Reporter. It is
// never pruned.
type errorHistory struct {
	mu      sync.Mutex
	entries []string
}

// shouldSkip reports whether an identical occurrence was already accepted.
// Unseen occurrences are recorded.
func (h *errorHistory) shouldSkip(o Occurrence) bool {
	key := occurrenceKey(o)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, entry := range h.entries {
		if entry == key {
			return true
		}
	}
	h.entries = append(h.entries, key)
	return false
}

func (h *errorHistory) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// occurrenceKey serializes the normalized arguments of an occurrence. Errors
// are compared by content, not identity.
func occurrenceKey(o Occurrence) string {
	args := []any{o.Level, o.Title, nil, o.ApplicationState, o.ActionHistory}
	if o.Error != nil {
		args[2] = projectError(o.Error)
	}

	data, err := json.Marshal(args)
	if err != nil {
		// Validation rejects unserializable occurrences before this point.
		return fmt.Sprintf("%#v", args)
	}
	return string(data)
}

// projectError reduces err to its own fields: the exported fields of the
// underlying struct, its message and its stack. The stack is rendered from
// the parsed frames, so goroutine ids, argument values and PC offsets of a
// goroutine dump do not tell two panics of the same call site apart.
func projectError(err error) *Object {
	obj := NewObject()

	v := reflect.ValueOf(err)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.Struct {
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			obj.Set(field.Name, fmt.Sprintf("%v", v.Field(i).Interface()))
		}
	}

	obj.Set("message", err.Error())
	if stack := stackKey(err); stack != "" {
		obj.Set("stack", stack)
	}
	return obj
}

func stackKey(err error) string {
	stack, frames := extractStack(err)
	if len(frames) == 0 {
		return stack
	}

	var b strings.Builder
	for _, f := range frames {
		fmt.Fprintf(&b, "%s %s:%d\n", f.Method, f.Filename, f.Lineno)
	}
	return b.String()
}
