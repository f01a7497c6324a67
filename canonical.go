package rollbar

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// canonicalize rebuilds v with the members of every object sorted by English
// collation. Arrays, and anything nested inside them, are returned as they
// are.
func canonicalize(v any) any {
	// A Collator keeps internal buffers, so each call gets its own.
	return canonicalizeWith(collate.New(language.English), v)
}

func canonicalizeWith(c *collate.Collator, v any) any {
	obj, ok := v.(*Object)
	if !ok || obj == nil {
		return v
	}

	keys := obj.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return c.CompareString(keys[i], keys[j]) < 0
	})

	sorted := NewObject()
	for _, key := range keys {
		sorted.Set(key, canonicalizeWith(c, obj.values[key]))
	}
	return sorted
}

// deepMerge copies the members of src into dst. Objects present on both
// sides are merged key by key; every other value, arrays included, replaces
// what dst holds.
func deepMerge(dst, src *Object) {
	for _, key := range src.keys {
		value := src.values[key]
		nested, ok := value.(*Object)
		if !ok || nested == nil {
			dst.Set(key, value)
			continue
		}
		target := dst.Object(key)
		if target == nil {
			target = NewObject()
			dst.Set(key, target)
		}
		deepMerge(target, nested)
	}
}
