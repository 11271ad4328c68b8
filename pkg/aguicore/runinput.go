package aguicore

import "encoding/json"

// Tool describes a function the agent may call. Parameters is a raw
// JSON-Schema document, validated against streamed TOOL_CALL_ARGS by
// ValidateToolArgs (toolschema.go).
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ContextItem is one piece of contextual information handed to the agent
// alongside a run, independent of the conversation's message history.
type ContextItem struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// RunInput is the snapshot passed to a Transport for a single run (spec §3).
// ParentRunID is only ever populated for sub-runs spawned by a parent agent;
// the legacy-compat middleware strips it for agents that predate it
// (SPEC_FULL.md §12).
type RunInput struct {
	ThreadID       string         `json:"threadId"`
	RunID          string         `json:"runId"`
	ParentRunID    *string        `json:"parentRunId,omitempty"`
	Tools          []Tool         `json:"tools,omitempty"`
	Context        []ContextItem  `json:"context,omitempty"`
	ForwardedProps map[string]any `json:"forwardedProps,omitempty"`
	State          any            `json:"state,omitempty"`
	Messages       []Message      `json:"messages"`
}

// DeepCopy returns an independent copy, safe to hand to middleware and the
// transport without aliasing the orchestrator's own ConversationState.
func (in RunInput) DeepCopy() RunInput {
	cp := in
	cp.Messages = CopyMessages(in.Messages)
	if in.Tools != nil {
		cp.Tools = append([]Tool(nil), in.Tools...)
	}
	if in.Context != nil {
		cp.Context = append([]ContextItem(nil), in.Context...)
	}
	if in.ForwardedProps != nil {
		cp.ForwardedProps = deepCopyJSON(in.ForwardedProps).(map[string]any)
	}
	cp.State = deepCopyJSON(in.State)
	return cp
}
