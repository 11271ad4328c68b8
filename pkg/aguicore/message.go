package aguicore

import (
	"encoding/json"
	"fmt"
)

// MessageRole identifies who authored a Message (spec §3).
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
	RoleDeveloper MessageRole = "developer"
	RoleTool      MessageRole = "tool"
	RoleActivity  MessageRole = "activity"
)

// ContentPartType enumerates the two content-part shapes a user message may
// carry instead of a plain string.
type ContentPartType string

const (
	ContentPartText   ContentPartType = "text"
	ContentPartBinary ContentPartType = "binary"
)

// ContentPart is one element of a user message's ordered content sequence.
type ContentPart struct {
	Type     ContentPartType `json:"type"`
	Text     string          `json:"text,omitempty"`
	MimeType string          `json:"mimeType,omitempty"`
	ID       string          `json:"id,omitempty"`
	URL      string          `json:"url,omitempty"`
	Data     string          `json:"data,omitempty"`
	Filename string          `json:"filename,omitempty"`
}

// Content holds a Message's content, which is one of: a plain string, null,
// or an ordered sequence of ContentPart (user role only). It round-trips
// through JSON as whichever shape it was constructed with.
type Content struct {
	text    *string
	parts   []ContentPart
	isParts bool
}

// TextContent builds a plain-string Content.
func TextContent(s string) Content { return Content{text: &s} }

// NullContent builds the null Content (used for in-progress tool-call
// messages and activity placeholders before their first delta).
func NullContent() Content { return Content{} }

// PartsContent builds a content-parts Content (user messages only).
func PartsContent(parts ...ContentPart) Content {
	return Content{parts: parts, isParts: true}
}

// IsNull reports whether the content is the JSON null value.
func (c Content) IsNull() bool { return c.text == nil && !c.isParts }

// Text returns the string content and true, or "" and false if the content
// is null or a parts sequence.
func (c Content) Text() (string, bool) {
	if c.text == nil {
		return "", false
	}
	return *c.text, true
}

// Parts returns the content-parts sequence and true, or nil and false if
// the content is a string or null.
func (c Content) Parts() ([]ContentPart, bool) {
	if !c.isParts {
		return nil, false
	}
	return c.parts, true
}

// AppendText returns a copy of c with s appended to its string content
// (spec §4.3, TEXT_MESSAGE_CONTENT). Null or content-parts content is
// treated as the empty string, so the result then holds just s.
func (c Content) AppendText(s string) Content {
	if c.text == nil {
		empty := ""
		c.text = &empty
	}
	joined := *c.text + s
	return Content{text: &joined}
}

func (c Content) MarshalJSON() ([]byte, error) {
	switch {
	case c.isParts:
		return json.Marshal(c.parts)
	case c.text != nil:
		return json.Marshal(*c.text)
	default:
		return []byte("null"), nil
	}
}

func (c *Content) UnmarshalJSON(data []byte) error {
	trimmed := trimJSONSpace(data)
	if string(trimmed) == "null" {
		*c = Content{}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("aguicore: decode content parts: %w", err)
		}
		*c = Content{parts: parts, isParts: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("aguicore: decode content string: %w", err)
	}
	*c = Content{text: &s}
	return nil
}

func trimJSONSpace(data []byte) []byte {
	start := 0
	for start < len(data) {
		switch data[start] {
		case ' ', '\t', '\n', '\r':
			start++
			continue
		}
		break
	}
	end := len(data)
	for end > start {
		switch data[end-1] {
		case ' ', '\t', '\n', '\r':
			end--
			continue
		}
		break
	}
	return data[start:end]
}

// ToolCallFunction is the function-call payload of a ToolCall.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one assistant-initiated function invocation, streamed
// incrementally via TOOL_CALL_START/ARGS/END.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type,omitempty"`
	Function ToolCallFunction `json:"function"`
}

// Message is a single turn in a conversation. Which fields are meaningful
// depends on Role (spec §3): ToolCalls only on assistant messages,
// ToolCallID only on tool messages, ActivityType/ActivityContent only on
// activity messages.
type Message struct {
	ID      string      `json:"id"`
	Role    MessageRole `json:"role"`
	Content Content     `json:"content"`

	// Assistant only.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// Tool only.
	ToolCallID string `json:"toolCallId,omitempty"`

	// Activity only: content is a structured object, not text, and is
	// carried separately from Content (which stays null for activity
	// messages to keep text-handlers oblivious to it, per spec §3).
	ActivityType    string `json:"activityType,omitempty"`
	ActivityContent any    `json:"activityContent,omitempty"`
}

// Validate checks the role-gated invariants described in spec §3. It does
// not check cross-message invariants (id uniqueness, toolCallId references),
// which require conversation-wide context; neither the verifier nor the
// apply engine rejects a duplicate message id or a tool message whose
// toolCallId names no known tool call either.
func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("aguicore: message missing id")
	}
	switch m.Role {
	case RoleUser, RoleAssistant, RoleSystem, RoleDeveloper, RoleTool, RoleActivity:
	default:
		return fmt.Errorf("aguicore: message %s has unknown role %q", m.ID, m.Role)
	}
	if m.Role != RoleAssistant && len(m.ToolCalls) > 0 {
		return fmt.Errorf("aguicore: message %s: toolCalls only valid on assistant messages", m.ID)
	}
	if m.Role != RoleTool && m.ToolCallID != "" {
		return fmt.Errorf("aguicore: message %s: toolCallId only valid on tool messages", m.ID)
	}
	if m.Role == RoleTool && m.ToolCallID == "" {
		return fmt.Errorf("aguicore: tool message %s missing toolCallId", m.ID)
	}
	if m.Role != RoleActivity && (m.ActivityType != "" || m.ActivityContent != nil) {
		return fmt.Errorf("aguicore: message %s: activity fields only valid on activity messages", m.ID)
	}
	if _, isParts := m.Content.Parts(); isParts && m.Role != RoleUser {
		return fmt.Errorf("aguicore: message %s: content parts only valid on user messages", m.ID)
	}
	return nil
}

// DeepCopy returns an independent copy of the message, safe to hand to a
// subscriber without aliasing the conversation's own state (spec §4.3).
func (m Message) DeepCopy() Message {
	cp := m
	if cp.ToolCalls != nil {
		cp.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	if parts, ok := m.Content.Parts(); ok {
		cp.Content = PartsContent(append([]ContentPart(nil), parts...)...)
	}
	cp.ActivityContent = deepCopyJSON(m.ActivityContent)
	return cp
}

// CopyMessages deep-copies an ordered slice of messages.
func CopyMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.DeepCopy()
	}
	return out
}

// deepCopyJSON round-trips an arbitrary JSON-like value (map[string]any,
// []any, scalars) through a structural copy, avoiding shared references
// between the conversation's state and whatever a subscriber or the
// reducer mutates locally.
func deepCopyJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = deepCopyJSON(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyJSON(e)
		}
		return out
	default:
		return val
	}
}
