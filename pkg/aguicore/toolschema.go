package aguicore

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidateToolArgs validates a tool call's accumulated, now-complete
// arguments string against the JSON-Schema parameters declared on the
// matching Tool (spec §9, "best-effort parse... advisory"; SPEC_FULL.md
// §11). It is advisory diagnostics, not a fault kind in spec §7's taxonomy:
// the wire format does not guarantee agents validate their own output, so
// callers log the result at warn rather than aborting the run on mismatch.
func ValidateToolArgs(tool Tool, argumentsJSON string) error {
	if len(tool.Parameters) == 0 {
		return nil
	}

	var schemaDoc any
	if err := json.Unmarshal(tool.Parameters, &schemaDoc); err != nil {
		return fmt.Errorf("aguicore: unmarshal tool schema for %q: %w", tool.Name, err)
	}

	var argsDoc any
	if err := json.Unmarshal([]byte(argumentsJSON), &argsDoc); err != nil {
		return fmt.Errorf("aguicore: tool call arguments for %q are not valid JSON: %w", tool.Name, err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(tool.Name+".json", schemaDoc); err != nil {
		return fmt.Errorf("aguicore: add schema resource for %q: %w", tool.Name, err)
	}
	schema, err := c.Compile(tool.Name + ".json")
	if err != nil {
		return fmt.Errorf("aguicore: compile schema for %q: %w", tool.Name, err)
	}

	if err := schema.Validate(argsDoc); err != nil {
		return fmt.Errorf("aguicore: tool call arguments for %q do not match schema: %w", tool.Name, err)
	}
	return nil
}

// FindTool returns the Tool named name within tools, or false if absent.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
