package aguicore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyJSONPatch(t *testing.T) {
	t.Run("add and replace", func(t *testing.T) {
		current := map[string]any{"count": float64(1)}
		patch := json.RawMessage(`[
			{"op":"replace","path":"/count","value":2},
			{"op":"add","path":"/name","value":"x"}
		]`)

		out, err := ApplyJSONPatch(current, patch)
		require.NoError(t, err)

		m, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, float64(2), m["count"])
		assert.Equal(t, "x", m["name"])
	})

	t.Run("remove", func(t *testing.T) {
		current := map[string]any{"a": 1, "b": 2}
		patch := json.RawMessage(`[{"op":"remove","path":"/a"}]`)

		out, err := ApplyJSONPatch(current, patch)
		require.NoError(t, err)

		m := out.(map[string]any)
		_, exists := m["a"]
		assert.False(t, exists)
	})

	t.Run("invalid path errors", func(t *testing.T) {
		current := map[string]any{"a": 1}
		patch := json.RawMessage(`[{"op":"replace","path":"/missing/deep","value":1}]`)

		_, err := ApplyJSONPatch(current, patch)
		assert.Error(t, err)
	})

	t.Run("malformed patch document errors", func(t *testing.T) {
		current := map[string]any{"a": 1}
		_, err := ApplyJSONPatch(current, json.RawMessage(`not json`))
		assert.Error(t, err)
	})

	t.Run("nil current treated as null document", func(t *testing.T) {
		patch := json.RawMessage(`[{"op":"add","path":"","value":{"fresh":true}}]`)
		out, err := ApplyJSONPatch(nil, patch)
		require.NoError(t, err)
		m := out.(map[string]any)
		assert.Equal(t, true, m["fresh"])
	})
}

func TestUntruncateJSON(t *testing.T) {
	t.Run("complete object parses normally", func(t *testing.T) {
		v, ok := UntruncateJSON(`{"a":1}`)
		require.True(t, ok)
		assert.Equal(t, map[string]any{"a": float64(1)}, v)
	})

	t.Run("truncated object is closed", func(t *testing.T) {
		v, ok := UntruncateJSON(`{"a":1,"b":"hi`)
		require.True(t, ok)
		m, isMap := v.(map[string]any)
		require.True(t, isMap)
		assert.Equal(t, float64(1), m["a"])
		assert.Equal(t, "hi", m["b"])
	})

	t.Run("truncated nested array and object closes both", func(t *testing.T) {
		v, ok := UntruncateJSON(`{"items":[1,2,{"x":3`)
		require.True(t, ok)
		m, isMap := v.(map[string]any)
		require.True(t, isMap)
		items, isSlice := m["items"].([]any)
		require.True(t, isSlice)
		assert.Len(t, items, 3)
	})

	t.Run("escaped quote inside truncated string is not mistaken for closer", func(t *testing.T) {
		v, ok := UntruncateJSON(`{"a":"say \"hi`)
		require.True(t, ok)
		m := v.(map[string]any)
		assert.Equal(t, `say "hi`, m["a"])
	})

	t.Run("empty string is not valid JSON", func(t *testing.T) {
		_, ok := UntruncateJSON("")
		assert.False(t, ok)
	})
}
