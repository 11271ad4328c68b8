package aguicore

// Thinking is the optional telemetry describing an agent's in-progress
// reasoning stream (spec §3). It is carried as metadata, never as a
// conversation Message.
type Thinking struct {
	IsThinking bool
	Title      string
	Messages   []string
}

// DeepCopy returns an independent copy of the thinking telemetry.
func (t Thinking) DeepCopy() Thinking {
	cp := t
	if t.Messages != nil {
		cp.Messages = append([]string(nil), t.Messages...)
	}
	return cp
}

// ConversationState is the durable, per-agent-instance conversation record
// (spec §3). It outlives any single run: messages/state grow monotonically
// across runs unless the caller explicitly resets them. Use Agent to drive
// runs against a ConversationState; the zero value is an empty conversation
// and is what NewAgent starts from.
type ConversationState struct {
	ThreadID string
	AgentID  string

	Messages []Message
	State    any

	RawEvents    []RawPassthroughEvent
	CustomEvents []CustomEvent

	Thinking Thinking

	IsRunning bool
}

// View is a defensive, independent snapshot of the parts of
// ConversationState subscribers are allowed to read and propose mutations
// against (spec §4.3: "Subscribers receive defensive copies of messages and
// state on every invocation").
type View struct {
	Messages []Message
	State    any
}

func (s *ConversationState) view() View {
	return View{
		Messages: CopyMessages(s.Messages),
		State:    deepCopyJSON(s.State),
	}
}

// snapshotMessageIDs returns the set of message ids currently present,
// used by the orchestrator to compute newMessages at run end (spec §4.4).
func snapshotMessageIDs(messages []Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(messages))
	for _, m := range messages {
		ids[m.ID] = struct{}{}
	}
	return ids
}

// findMessageIndex returns the index of the message with the given id, or
// -1 if none exists.
func findMessageIndex(messages []Message, id string) int {
	for i, m := range messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// lastMessageIndexWithRole returns the index of the last message with the
// given role, or -1 if none exists.
func lastMessageIndexWithRole(messages []Message, role MessageRole) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			return i
		}
	}
	return -1
}

// findToolCall locates the tool call with the given id across all
// messages, returning the owning message index and the tool call index.
func findToolCall(messages []Message, toolCallID string) (msgIdx, tcIdx int) {
	for i, m := range messages {
		for j, tc := range m.ToolCalls {
			if tc.ID == toolCallID {
				return i, j
			}
		}
	}
	return -1, -1
}

// findActivityIndex returns the index of the activity message with the
// given id, or -1 if none exists.
func findActivityIndex(messages []Message, id string) int {
	for i, m := range messages {
		if m.Role == RoleActivity && m.ID == id {
			return i
		}
	}
	return -1
}
