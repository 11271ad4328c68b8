package aguicore

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyJSONPatch applies an RFC 6902 JSON Patch document to current and
// returns the resulting value. current is marshaled to JSON first, so it
// may be any JSON-shaped Go value (map[string]any, []any, a scalar, or nil).
func ApplyJSONPatch(current any, patch json.RawMessage) (any, error) {
	patchOps, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("aguicore: decode json patch: %w", err)
	}

	doc, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("aguicore: marshal patch target: %w", err)
	}

	patched, err := patchOps.Apply(doc)
	if err != nil {
		return nil, fmt.Errorf("aguicore: apply json patch: %w", err)
	}

	var out any
	if err := json.Unmarshal(patched, &out); err != nil {
		return nil, fmt.Errorf("aguicore: unmarshal patched document: %w", err)
	}
	return out, nil
}

// UntruncateJSON returns a best-effort parse of a partial JSON document,
// exposed to subscribers while TOOL_CALL_ARGS deltas are still streaming in
// (spec §9, "untruncated JSON for streaming args"). The result is advisory
// only; toolCall.function.arguments always carries the raw, possibly
// incomplete, concatenated string. ok is false when even the heuristically
// closed document fails to parse.
func UntruncateJSON(partial string) (value any, ok bool) {
	closed := closeJSON(partial)
	if err := json.Unmarshal([]byte(closed), &value); err != nil {
		return nil, false
	}
	return value, true
}

// closeJSON balances unterminated strings, objects, and arrays in a partial
// JSON document by appending the minimal suffix needed to make it
// syntactically complete. It does not validate the input otherwise; json
// will reject whatever it can't actually parse.
func closeJSON(partial string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(partial); i++ {
		c := partial[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var suffix []byte
	if inString {
		suffix = append(suffix, '"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		switch stack[i] {
		case '{':
			suffix = append(suffix, '}')
		case '[':
			suffix = append(suffix, ']')
		}
	}
	if len(suffix) == 0 {
		return partial
	}
	return partial + string(suffix)
}
