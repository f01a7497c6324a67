package rollbarslog

// The attribute helpers are adapted from github.com/samber/slog-common
// (MIT License, Copyright (c) 2023 Samuel Berthe).

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/tabsight/rollbar-client-go"
)

type replaceAttrFn = func(groups []string, a slog.Attr) slog.Attr

func replaceAttrs(fn replaceAttrFn, groups []string, attrs ...slog.Attr) []slog.Attr {
	for i := range attrs {
		attr := attrs[i]
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			attrs[i].Value = slog.GroupValue(replaceAttrs(fn, append(groups, attr.Key), value.Group()...)...)
		} else if fn != nil {
			attrs[i] = fn(groups, attr)
		}
	}

	return attrs
}

func extractError(attrs []slog.Attr) ([]slog.Attr, error) {
	for i := range attrs {
		attr := attrs[i]

		if _, ok := errorKeys[attr.Key]; !ok {
			continue
		}

		if err, ok := attr.Value.Resolve().Any().(error); ok {
			return append(attrs[:i], attrs[i+1:]...), err
		}
	}

	return attrs, nil
}

func extractActions(attrs []slog.Attr) ([]slog.Attr, []rollbar.Action) {
	for i := range attrs {
		attr := attrs[i]
		if attr.Key != ActionsKey {
			continue
		}

		if actions, ok := attr.Value.Resolve().Any().([]rollbar.Action); ok {
			return append(attrs[:i], attrs[i+1:]...), actions
		}
	}

	return attrs, nil
}

func attrsToMap(attrs ...slog.Attr) map[string]any {
	output := make(map[string]any, len(attrs))

	attrsByKey := groupValuesByKey(attrs)
	for k, values := range attrsByKey {
		v := mergeAttrValues(values...)
		if v.Kind() == slog.KindGroup {
			output[k] = attrsToMap(v.Group()...)
		} else {
			output[k] = valueToAny(v)
		}
	}

	return output
}

// valueToAny keeps values encodable: errors and durations become strings.
func valueToAny(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
	}
	return v.Any()
}

func mergeAttrValues(values ...slog.Value) slog.Value {
	v := values[0]

	for i := 1; i < len(values); i++ {
		if v.Kind() != slog.KindGroup || values[i].Kind() != slog.KindGroup {
			v = values[i]
			continue
		}

		v = slog.GroupValue(append(v.Group(), values[i].Group()...)...)
	}

	return v
}

func groupValuesByKey(attrs []slog.Attr) map[string][]slog.Value {
	result := map[string][]slog.Value{}

	for _, item := range attrs {
		key := item.Key
		result[key] = append(result[key], item.Value.Resolve())
	}

	return result
}

func appendRecordAttrsToAttrs(attrs []slog.Attr, groups []string, record *slog.Record) []slog.Attr {
	output := make([]slog.Attr, 0, record.NumAttrs())

	record.Attrs(func(attr slog.Attr) bool {
		output = append(output, attr)
		return true
	})

	return appendAttrsToGroup(groups, attrs, output...)
}

func removeEmptyAttrs(attrs []slog.Attr) []slog.Attr {
	result := make([]slog.Attr, 0, len(attrs))

	for _, attr := range attrs {
		if attr.Key == "" {
			continue
		}

		if attr.Value.Kind() == slog.KindGroup {
			values := removeEmptyAttrs(attr.Value.Group())
			if len(values) == 0 {
				continue
			}
			attr.Value = slog.GroupValue(values...)
		}

		result = append(result, attr)
	}

	return result
}

func appendAttrsToGroup(groups []string, actualAttrs []slog.Attr, newAttrs ...slog.Attr) []slog.Attr {
	actualAttrs = append([]slog.Attr{}, actualAttrs...)

	if len(groups) == 0 {
		return append(actualAttrs, newAttrs...)
	}

	for i := range actualAttrs {
		attr := actualAttrs[i]
		if attr.Key == groups[0] && attr.Value.Kind() == slog.KindGroup {
			actualAttrs[i] = slog.Group(groups[0], toAnySlice(appendAttrsToGroup(groups[1:], attr.Value.Group(), newAttrs...))...)
			return actualAttrs
		}
	}

	return append(actualAttrs, slog.Group(groups[0], toAnySlice(appendAttrsToGroup(groups[1:], []slog.Attr{}, newAttrs...))...))
}

func toAnySlice(collection []slog.Attr) []any {
	return lo.Map(collection, func(attr slog.Attr, _ int) any { return attr })
}
