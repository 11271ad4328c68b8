package aguicore

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeForwardedProps decodes a RunInput's loosely-typed forwardedProps map
// into a caller-supplied typed struct, the same role mapstructure plays
// decoding config maps elsewhere in this ecosystem. out must be a pointer.
func DecodeForwardedProps(forwardedProps map[string]any, out any) error {
	return decodeLooseMap(forwardedProps, out)
}

// DecodeContext decodes a RunInput's context items into a caller-supplied
// typed struct, keyed by ContextItem.Description. out must be a pointer.
func DecodeContext(context []ContextItem, out any) error {
	asMap := make(map[string]any, len(context))
	for _, item := range context {
		asMap[item.Description] = item.Value
	}
	return decodeLooseMap(asMap, out)
}

func decodeLooseMap(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("aguicore: create decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("aguicore: decode: %w", err)
	}
	return nil
}
