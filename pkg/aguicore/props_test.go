package aguicore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeForwardedProps(t *testing.T) {
	type Config struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
	}

	var cfg Config
	err := DecodeForwardedProps(map[string]any{
		"model":       "gpt-5",
		"temperature": "0.7",
	}, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
}

func TestDecodeContext(t *testing.T) {
	type Ctx struct {
		UserTimezone string `json:"userTimezone"`
	}

	var out Ctx
	err := DecodeContext([]ContextItem{
		{Description: "userTimezone", Value: "Europe/Lisbon"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Lisbon", out.UserTimezone)
}

func TestDecodeForwardedProps_NilMapDecodesToZeroValue(t *testing.T) {
	type Config struct {
		Model string `json:"model"`
	}
	var cfg Config
	err := DecodeForwardedProps(nil, &cfg)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Model)
}
