package aguicore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToolArgs(t *testing.T) {
	tool := Tool{
		Name: "get_weather",
		Parameters: []byte(`{
			"type": "object",
			"properties": {
				"city": {"type": "string"},
				"days": {"type": "integer", "minimum": 1}
			},
			"required": ["city"]
		}`),
	}

	t.Run("valid arguments pass", func(t *testing.T) {
		err := ValidateToolArgs(tool, `{"city":"Lisbon","days":3}`)
		require.NoError(t, err)
	})

	t.Run("missing required property fails", func(t *testing.T) {
		err := ValidateToolArgs(tool, `{"days":3}`)
		assert.Error(t, err)
	})

	t.Run("wrong type fails", func(t *testing.T) {
		err := ValidateToolArgs(tool, `{"city":"Lisbon","days":"three"}`)
		assert.Error(t, err)
	})

	t.Run("malformed json fails", func(t *testing.T) {
		err := ValidateToolArgs(tool, `{"city":`)
		assert.Error(t, err)
	})

	t.Run("tool without a schema is always valid", func(t *testing.T) {
		bare := Tool{Name: "no_schema"}
		err := ValidateToolArgs(bare, `{"anything":true}`)
		require.NoError(t, err)
	})
}

func TestFindTool(t *testing.T) {
	tools := []Tool{{Name: "a"}, {Name: "b"}}

	tool, ok := FindTool(tools, "b")
	require.True(t, ok)
	assert.Equal(t, "b", tool.Name)

	_, ok = FindTool(tools, "missing")
	assert.False(t, ok)
}
