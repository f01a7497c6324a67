package rollbar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObject(t *testing.T, s string) *Object {
	t.Helper()
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(s), &obj))
	return &obj
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestCanonicalizeUsesLocaleCollation(t *testing.T) {
	obj := mustObject(t, `{"cherry":3,"Banana":2,"apple":1}`)

	sorted := canonicalize(obj).(*Object)

	assert.Equal(t, []string{"apple", "Banana", "cherry"}, sorted.Keys())
}

func TestCanonicalizeIsRecursiveExceptInsideArrays(t *testing.T) {
	obj := mustObject(t, `{"b":{"d":1,"c":{"f":1,"e":2}},"a":[{"z":1,"y":2},[3,1,2]]}`)

	got := mustJSON(t, canonicalize(obj))

	assert.Equal(t, `{"a":[{"z":1,"y":2},[3,1,2]],"b":{"c":{"e":2,"f":1},"d":1}}`, got)
}

func TestCanonicalizeLeavesOtherValuesAlone(t *testing.T) {
	assert.Equal(t, "text", canonicalize("text"))
	assert.Equal(t, []any{"b", "a"}, canonicalize([]any{"b", "a"}))
	assert.Nil(t, canonicalize(nil))
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  string
		src  string
		want string
	}{
		{
			name: "nested objects are merged key by key",
			dst:  `{"data":{"custom":{"a":1,"b":2},"title":"t"}}`,
			src:  `{"data":{"custom":{"b":3,"c":4}}}`,
			want: `{"data":{"custom":{"a":1,"b":3,"c":4},"title":"t"}}`,
		},
		{
			name: "arrays replace arrays",
			dst:  `{"list":[1,2,3]}`,
			src:  `{"list":[9]}`,
			want: `{"list":[9]}`,
		},
		{
			name: "scalars replace objects",
			dst:  `{"a":{"b":1}}`,
			src:  `{"a":"flat"}`,
			want: `{"a":"flat"}`,
		},
		{
			name: "objects replace scalars",
			dst:  `{"a":"flat"}`,
			src:  `{"a":{"b":1}}`,
			want: `{"a":{"b":1}}`,
		},
		{
			name: "new keys are appended",
			dst:  `{"a":1}`,
			src:  `{"z":{"y":true}}`,
			want: `{"a":1,"z":{"y":true}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := mustObject(t, tt.dst)
			deepMerge(dst, mustObject(t, tt.src))
			assert.Equal(t, tt.want, mustJSON(t, dst))
		})
	}
}

func TestDeepMergeDoesNotAliasSource(t *testing.T) {
	dst := mustObject(t, `{}`)
	src := mustObject(t, `{"a":{"b":1}}`)

	deepMerge(dst, src)
	dst.Object("a").Set("b", 2)

	assert.Equal(t, `{"a":{"b":1}}`, mustJSON(t, src))
}
