package aguicore

// reducerScratch holds the per-run bookkeeping the built-in handler needs
// that is not itself part of ConversationState: the in-progress thinking
// buffer between THINKING_TEXT_MESSAGE_START and its matching END (spec
// §4.3). It is owned by whatever drives a single run and discarded when the
// run ends.
type reducerScratch struct {
	thinkingBuffer    string
	thinkingHasBuffer bool
}

// ToolCallSignal names the owning message and tool call for an
// OnNewToolCall derived-state hook.
type ToolCallSignal struct {
	Message  Message
	ToolCall ToolCall
}

// derivedSignals reports what a single applyBuiltin call produced, beyond
// the direct mutation to conv: which derived-state hooks the driver should
// fire, and the opaque run result captured off RUN_FINISHED.
type derivedSignals struct {
	NewMessage   *Message
	NewToolCall  *ToolCallSignal
	RunResult    any
	RunResultSet bool
}

// applyBuiltin is the built-in reducer handler of spec §4.3: given the
// event-kind behavior table, it mutates conv in place and reports what
// changed. warning, when non-nil, is a recoverable fault (PATCH_FAILURE or
// REDUCER_INCONSISTENCY) that the caller logs and otherwise ignores; fatal
// is returned only for chunk events that should never reach the reducer
// (they indicate a normalizer/verifier bug, not a malformed stream).
func applyBuiltin(conv *ConversationState, scratch *reducerScratch, ev Event) (signals derivedSignals, warning *Error, fatal *Error) {
	switch e := ev.(type) {
	case RunStartedEvent:
		conv.Thinking = Thinking{}
		if e.Input != nil {
			for _, m := range e.Input.Messages {
				if findMessageIndex(conv.Messages, m.ID) == -1 {
					conv.Messages = append(conv.Messages, m.DeepCopy())
				}
			}
		}

	case RunFinishedEvent:
		signals.RunResult = e.Result
		signals.RunResultSet = true

	case RunErrorEvent:
		// No state mutation; propagation is the orchestrator's concern
		// (spec §7).

	case StepStartedEvent, StepFinishedEvent:
		// Subscriber hook only.

	case TextMessageStartEvent:
		role := RoleAssistant
		if e.Role != "" {
			role = MessageRole(e.Role)
		}
		conv.Messages = append(conv.Messages, Message{ID: e.MessageID, Role: role, Content: TextContent("")})

	case TextMessageContentEvent:
		idx := findMessageIndex(conv.Messages, e.MessageID)
		if idx == -1 {
			warning = newErr(KindReducerInconsistency, nil, "TEXT_MESSAGE_CONTENT for unknown message %q", e.MessageID)
			return
		}
		conv.Messages[idx].Content = conv.Messages[idx].Content.AppendText(e.Delta)

	case TextMessageEndEvent:
		idx := findMessageIndex(conv.Messages, e.MessageID)
		if idx == -1 {
			warning = newErr(KindReducerInconsistency, nil, "TEXT_MESSAGE_END for unknown message %q", e.MessageID)
			return
		}
		msg := conv.Messages[idx]
		signals.NewMessage = &msg

	case ToolCallStartEvent:
		msgIdx := -1
		if e.ParentMessageID != nil {
			msgIdx = findMessageIndex(conv.Messages, *e.ParentMessageID)
			if msgIdx != -1 && conv.Messages[msgIdx].Role != RoleAssistant {
				warning = newErr(KindReducerInconsistency, nil, "TOOL_CALL_START %q names parentMessageId %q, which is a %q message, not assistant", e.ToolCallID, *e.ParentMessageID, conv.Messages[msgIdx].Role)
				return
			}
		} else {
			msgIdx = lastMessageIndexWithRole(conv.Messages, RoleAssistant)
		}
		if msgIdx == -1 {
			newID := e.ToolCallID
			if e.ParentMessageID != nil {
				newID = *e.ParentMessageID
			}
			conv.Messages = append(conv.Messages, Message{ID: newID, Role: RoleAssistant, Content: NullContent()})
			msgIdx = len(conv.Messages) - 1
		}
		conv.Messages[msgIdx].ToolCalls = append(conv.Messages[msgIdx].ToolCalls, ToolCall{
			ID:   e.ToolCallID,
			Type: "function",
			Function: ToolCallFunction{
				Name:      e.ToolCallName,
				Arguments: "",
			},
		})

	case ToolCallArgsEvent:
		msgIdx, tcIdx := findToolCall(conv.Messages, e.ToolCallID)
		if msgIdx == -1 {
			warning = newErr(KindReducerInconsistency, nil, "TOOL_CALL_ARGS for unknown tool call %q", e.ToolCallID)
			return
		}
		tc := &conv.Messages[msgIdx].ToolCalls[tcIdx]
		tc.Function.Arguments += e.Delta

	case ToolCallEndEvent:
		msgIdx, tcIdx := findToolCall(conv.Messages, e.ToolCallID)
		if msgIdx == -1 {
			warning = newErr(KindReducerInconsistency, nil, "TOOL_CALL_END for unknown tool call %q", e.ToolCallID)
			return
		}
		signals.NewToolCall = &ToolCallSignal{
			Message:  conv.Messages[msgIdx],
			ToolCall: conv.Messages[msgIdx].ToolCalls[tcIdx],
		}

	case ToolCallResultEvent:
		role := RoleTool
		if e.Role != "" {
			role = MessageRole(e.Role)
		}
		msg := Message{ID: e.MessageID, Role: role, Content: TextContent(e.Content), ToolCallID: e.ToolCallID}
		conv.Messages = append(conv.Messages, msg)
		signals.NewMessage = &msg

	case StateSnapshotEvent:
		conv.State = deepCopyJSON(e.Snapshot)

	case StateDeltaEvent:
		patched, err := ApplyJSONPatch(conv.State, e.Delta)
		if err != nil {
			warning = newErr(KindPatchFailure, err, "STATE_DELTA application failed")
			return
		}
		conv.State = patched

	case MessagesSnapshotEvent:
		conv.Messages = CopyMessages(e.Messages)

	case ActivitySnapshotEvent:
		replace := true
		if e.Replace != nil {
			replace = *e.Replace
		}
		idx := findMessageIndex(conv.Messages, e.MessageID)
		if idx == -1 {
			msg := Message{ID: e.MessageID, Role: RoleActivity, ActivityType: e.ActivityType, ActivityContent: deepCopyJSON(e.Content)}
			conv.Messages = append(conv.Messages, msg)
			signals.NewMessage = &msg
		} else if replace {
			conv.Messages[idx].Role = RoleActivity
			conv.Messages[idx].ActivityType = e.ActivityType
			conv.Messages[idx].ActivityContent = deepCopyJSON(e.Content)
		}

	case ActivityDeltaEvent:
		idx := findActivityIndex(conv.Messages, e.MessageID)
		if idx == -1 {
			warning = newErr(KindReducerInconsistency, nil, "ACTIVITY_DELTA for unknown activity message %q", e.MessageID)
			return
		}
		patched, err := ApplyJSONPatch(deepCopyJSON(conv.Messages[idx].ActivityContent), e.Patch)
		if err != nil {
			warning = newErr(KindPatchFailure, err, "ACTIVITY_DELTA application failed for %q", e.MessageID)
			return
		}
		conv.Messages[idx].ActivityContent = patched

	case RawPassthroughEvent:
		conv.RawEvents = append(conv.RawEvents, e)

	case CustomEvent:
		conv.CustomEvents = append(conv.CustomEvents, e)

	case ThinkingStartEvent:
		conv.Thinking = Thinking{IsThinking: true, Title: e.Title}
		scratch.thinkingBuffer, scratch.thinkingHasBuffer = "", false

	case ThinkingTextMessageStartEvent:
		scratch.thinkingBuffer, scratch.thinkingHasBuffer = "", true

	case ThinkingTextMessageContentEvent:
		scratch.thinkingBuffer += e.Delta

	case ThinkingTextMessageEndEvent:
		if scratch.thinkingHasBuffer {
			conv.Thinking.Messages = append(conv.Thinking.Messages, scratch.thinkingBuffer)
			scratch.thinkingBuffer, scratch.thinkingHasBuffer = "", false
		}

	case ThinkingEndEvent:
		if scratch.thinkingHasBuffer {
			conv.Thinking.Messages = append(conv.Thinking.Messages, scratch.thinkingBuffer)
			scratch.thinkingBuffer, scratch.thinkingHasBuffer = "", false
		}
		conv.Thinking.IsThinking = false

	case TextMessageChunkEvent, ToolCallChunkEvent:
		fatal = newErr(KindProtocolViolation, nil, "chunk event %s reached the reducer unnormalized", ev.Kind())

	default:
		// STATE/ACTIVITY events above cover the table; anything else
		// (forward-compatible additions) passes through untouched.
	}
	return
}

// ToolCallArgsPreview computes the buffer-before-append and a best-effort
// untruncated parse for a TOOL_CALL_ARGS event, exposed to
// OnToolCallArgsEvent ahead of the built-in handler running (spec §4.3,
// "Expose, to subscribers, the buffer-before-append and a best-effort
// parse").
func ToolCallArgsPreview(conv *ConversationState, ev ToolCallArgsEvent) (bufferBefore string, untruncated any, ok bool) {
	msgIdx, tcIdx := findToolCall(conv.Messages, ev.ToolCallID)
	if msgIdx == -1 {
		return "", nil, false
	}
	bufferBefore = conv.Messages[msgIdx].ToolCalls[tcIdx].Function.Arguments
	untruncated, ok = UntruncateJSON(bufferBefore + ev.Delta)
	return bufferBefore, untruncated, ok
}
