package aguicore

import (
	"encoding/json"
	"fmt"
)

// EventType identifies the wire-level kind of an AG-UI event (spec §6.1).
type EventType string

const (
	EventTypeRunStarted  EventType = "RUN_STARTED"
	EventTypeRunFinished EventType = "RUN_FINISHED"
	EventTypeRunError    EventType = "RUN_ERROR"

	EventTypeStepStarted  EventType = "STEP_STARTED"
	EventTypeStepFinished EventType = "STEP_FINISHED"

	EventTypeTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTypeTextMessageEnd     EventType = "TEXT_MESSAGE_END"
	EventTypeTextMessageChunk   EventType = "TEXT_MESSAGE_CHUNK"

	EventTypeToolCallStart  EventType = "TOOL_CALL_START"
	EventTypeToolCallArgs   EventType = "TOOL_CALL_ARGS"
	EventTypeToolCallEnd    EventType = "TOOL_CALL_END"
	EventTypeToolCallChunk  EventType = "TOOL_CALL_CHUNK"
	EventTypeToolCallResult EventType = "TOOL_CALL_RESULT"

	EventTypeStateSnapshot    EventType = "STATE_SNAPSHOT"
	EventTypeStateDelta       EventType = "STATE_DELTA"
	EventTypeMessagesSnapshot EventType = "MESSAGES_SNAPSHOT"

	EventTypeActivitySnapshot EventType = "ACTIVITY_SNAPSHOT"
	EventTypeActivityDelta    EventType = "ACTIVITY_DELTA"

	EventTypeRaw    EventType = "RAW"
	EventTypeCustom EventType = "CUSTOM"

	EventTypeThinkingStart              EventType = "THINKING_START"
	EventTypeThinkingTextMessageStart   EventType = "THINKING_TEXT_MESSAGE_START"
	EventTypeThinkingTextMessageContent EventType = "THINKING_TEXT_MESSAGE_CONTENT"
	EventTypeThinkingTextMessageEnd     EventType = "THINKING_TEXT_MESSAGE_END"
	EventTypeThinkingEnd                EventType = "THINKING_END"
)

// Base carries the fields common to every event: its kind, an optional
// timestamp (epoch milliseconds, matching the wire format), and an optional
// opaque passthrough of the untranslated source event.
type Base struct {
	EventType EventType `json:"type"`
	Timestamp *int64    `json:"timestamp,omitempty"`
	RawEvent  any        `json:"rawEvent,omitempty"`
}

// Kind returns the event's wire-level type.
func (b Base) Kind() EventType { return b.EventType }

func (b Base) base() Base { return b }

// withBase returns a copy of Base with the given fields overridden; used by
// the normalizer to synthesize closing events that carry the last known
// timestamp/rawEvent of the segment they close.
func (b Base) withBase(ts *int64, raw any) Base {
	b.Timestamp = ts
	b.RawEvent = raw
	return b
}

// Event is implemented by every concrete AG-UI event struct. Use a type
// switch (or DecodeEvent's dispatch) to recover the concrete payload.
type Event interface {
	Kind() EventType
	base() Base
}

// ---- Lifecycle ----

// RunStartedInput is the optional snapshot of the initiating RunInput
// carried on RUN_STARTED, used to hydrate any messages the caller already
// holds (spec §4.3, RUN_STARTED effect).
type RunStartedInput struct {
	Messages []Message `json:"messages,omitempty"`
}

type RunStartedEvent struct {
	Base
	ThreadID string           `json:"threadId"`
	RunID    string           `json:"runId"`
	Input    *RunStartedInput `json:"input,omitempty"`
}

func (e RunStartedEvent) base() Base { return e.Base }

type RunFinishedEvent struct {
	Base
	ThreadID string `json:"threadId"`
	RunID    string `json:"runId"`
	Result   any    `json:"result,omitempty"`
}

func (e RunFinishedEvent) base() Base { return e.Base }

type RunErrorEvent struct {
	Base
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (e RunErrorEvent) base() Base { return e.Base }

type StepStartedEvent struct {
	Base
	StepName string `json:"stepName"`
}

func (e StepStartedEvent) base() Base { return e.Base }

type StepFinishedEvent struct {
	Base
	StepName string `json:"stepName"`
}

func (e StepFinishedEvent) base() Base { return e.Base }

// ---- Text messages ----

type TextMessageStartEvent struct {
	Base
	MessageID string `json:"messageId"`
	Role      string `json:"role,omitempty"`
}

func (e TextMessageStartEvent) base() Base { return e.Base }

type TextMessageContentEvent struct {
	Base
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

func (e TextMessageContentEvent) base() Base { return e.Base }

type TextMessageEndEvent struct {
	Base
	MessageID string `json:"messageId"`
}

func (e TextMessageEndEvent) base() Base { return e.Base }

// TextMessageChunkEvent is a compacted event the normalizer expands into
// the start/content/end triad above; it is fatal if one reaches the reducer
// directly (spec §4.3, "must have been normalized upstream").
type TextMessageChunkEvent struct {
	Base
	MessageID *string `json:"messageId,omitempty"`
	Role      *string `json:"role,omitempty"`
	Delta     *string `json:"delta,omitempty"`
}

func (e TextMessageChunkEvent) base() Base { return e.Base }

// ---- Tool calls ----

type ToolCallStartEvent struct {
	Base
	ToolCallID      string  `json:"toolCallId"`
	ToolCallName    string  `json:"toolCallName"`
	ParentMessageID *string `json:"parentMessageId,omitempty"`
}

func (e ToolCallStartEvent) base() Base { return e.Base }

type ToolCallArgsEvent struct {
	Base
	ToolCallID string `json:"toolCallId"`
	Delta      string `json:"delta"`
}

func (e ToolCallArgsEvent) base() Base { return e.Base }

type ToolCallEndEvent struct {
	Base
	ToolCallID string `json:"toolCallId"`
}

func (e ToolCallEndEvent) base() Base { return e.Base }

type ToolCallChunkEvent struct {
	Base
	ToolCallID      *string `json:"toolCallId,omitempty"`
	ToolCallName    *string `json:"toolCallName,omitempty"`
	ParentMessageID *string `json:"parentMessageId,omitempty"`
	Delta           *string `json:"delta,omitempty"`
}

func (e ToolCallChunkEvent) base() Base { return e.Base }

type ToolCallResultEvent struct {
	Base
	MessageID  string `json:"messageId"`
	ToolCallID string `json:"toolCallId"`
	Content    string `json:"content"`
	Role       string `json:"role,omitempty"`
}

func (e ToolCallResultEvent) base() Base { return e.Base }

// ---- State ----

type StateSnapshotEvent struct {
	Base
	Snapshot any `json:"snapshot"`
}

func (e StateSnapshotEvent) base() Base { return e.Base }

// StateDeltaEvent carries a raw RFC 6902 JSON Patch document. Use
// EncodePatchOps to build it from literal operations.
type StateDeltaEvent struct {
	Base
	Delta json.RawMessage `json:"delta"`
}

func (e StateDeltaEvent) base() Base { return e.Base }

type MessagesSnapshotEvent struct {
	Base
	Messages []Message `json:"messages"`
}

func (e MessagesSnapshotEvent) base() Base { return e.Base }

// ---- Activity ----

type ActivitySnapshotEvent struct {
	Base
	MessageID    string `json:"messageId"`
	ActivityType string `json:"activityType"`
	Content      any    `json:"content"`
	Replace      *bool  `json:"replace,omitempty"`
}

func (e ActivitySnapshotEvent) base() Base { return e.Base }

type ActivityDeltaEvent struct {
	Base
	MessageID    string          `json:"messageId"`
	ActivityType string          `json:"activityType"`
	Patch        json.RawMessage `json:"patch"`
}

func (e ActivityDeltaEvent) base() Base { return e.Base }

// ---- Auxiliary ----

type RawPassthroughEvent struct {
	Base
	Event  any    `json:"event"`
	Source string `json:"source,omitempty"`
}

func (e RawPassthroughEvent) base() Base { return e.Base }

// Reserved CUSTOM event names. The reducer gives them no special treatment:
// like any other CUSTOM event they are appended unchanged to the
// customEvents log, and interpreting them is left to the caller.
const (
	CustomNamePredictState = "PredictState"
	CustomNameExit         = "Exit"
)

type CustomEvent struct {
	Base
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`
}

func (e CustomEvent) base() Base { return e.Base }

// ---- Thinking ----

type ThinkingStartEvent struct {
	Base
	Title string `json:"title,omitempty"`
}

func (e ThinkingStartEvent) base() Base { return e.Base }

type ThinkingTextMessageStartEvent struct {
	Base
}

func (e ThinkingTextMessageStartEvent) base() Base { return e.Base }

type ThinkingTextMessageContentEvent struct {
	Base
	Delta string `json:"delta"`
}

func (e ThinkingTextMessageContentEvent) base() Base { return e.Base }

type ThinkingTextMessageEndEvent struct {
	Base
}

func (e ThinkingTextMessageEndEvent) base() Base { return e.Base }

type ThinkingEndEvent struct {
	Base
}

func (e ThinkingEndEvent) base() Base { return e.Base }

// DecodeEvent sniffs the "type" discriminator of a wire-format event and
// unmarshals it into the matching concrete struct.
func DecodeEvent(data []byte) (Event, error) {
	var probe struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("aguicore: decode event envelope: %w", err)
	}

	var ev Event
	switch probe.Type {
	case EventTypeRunStarted:
		ev = &RunStartedEvent{}
	case EventTypeRunFinished:
		ev = &RunFinishedEvent{}
	case EventTypeRunError:
		ev = &RunErrorEvent{}
	case EventTypeStepStarted:
		ev = &StepStartedEvent{}
	case EventTypeStepFinished:
		ev = &StepFinishedEvent{}
	case EventTypeTextMessageStart:
		ev = &TextMessageStartEvent{}
	case EventTypeTextMessageContent:
		ev = &TextMessageContentEvent{}
	case EventTypeTextMessageEnd:
		ev = &TextMessageEndEvent{}
	case EventTypeTextMessageChunk:
		ev = &TextMessageChunkEvent{}
	case EventTypeToolCallStart:
		ev = &ToolCallStartEvent{}
	case EventTypeToolCallArgs:
		ev = &ToolCallArgsEvent{}
	case EventTypeToolCallEnd:
		ev = &ToolCallEndEvent{}
	case EventTypeToolCallChunk:
		ev = &ToolCallChunkEvent{}
	case EventTypeToolCallResult:
		ev = &ToolCallResultEvent{}
	case EventTypeStateSnapshot:
		ev = &StateSnapshotEvent{}
	case EventTypeStateDelta:
		ev = &StateDeltaEvent{}
	case EventTypeMessagesSnapshot:
		ev = &MessagesSnapshotEvent{}
	case EventTypeActivitySnapshot:
		ev = &ActivitySnapshotEvent{}
	case EventTypeActivityDelta:
		ev = &ActivityDeltaEvent{}
	case EventTypeRaw:
		ev = &RawPassthroughEvent{}
	case EventTypeCustom:
		ev = &CustomEvent{}
	case EventTypeThinkingStart:
		ev = &ThinkingStartEvent{}
	case EventTypeThinkingTextMessageStart:
		ev = &ThinkingTextMessageStartEvent{}
	case EventTypeThinkingTextMessageContent:
		ev = &ThinkingTextMessageContentEvent{}
	case EventTypeThinkingTextMessageEnd:
		ev = &ThinkingTextMessageEndEvent{}
	case EventTypeThinkingEnd:
		ev = &ThinkingEndEvent{}
	default:
		return nil, fmt.Errorf("aguicore: unknown event type %q", probe.Type)
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("aguicore: decode %s event: %w", probe.Type, err)
	}
	return derefEvent(ev), nil
}

// derefEvent normalizes the pointer-to-struct values produced by DecodeEvent
// into the value types used everywhere else (event handlers type-switch on
// values, not pointers).
func derefEvent(ev Event) Event {
	switch v := ev.(type) {
	case *RunStartedEvent:
		return *v
	case *RunFinishedEvent:
		return *v
	case *RunErrorEvent:
		return *v
	case *StepStartedEvent:
		return *v
	case *StepFinishedEvent:
		return *v
	case *TextMessageStartEvent:
		return *v
	case *TextMessageContentEvent:
		return *v
	case *TextMessageEndEvent:
		return *v
	case *TextMessageChunkEvent:
		return *v
	case *ToolCallStartEvent:
		return *v
	case *ToolCallArgsEvent:
		return *v
	case *ToolCallEndEvent:
		return *v
	case *ToolCallChunkEvent:
		return *v
	case *ToolCallResultEvent:
		return *v
	case *StateSnapshotEvent:
		return *v
	case *StateDeltaEvent:
		return *v
	case *MessagesSnapshotEvent:
		return *v
	case *ActivitySnapshotEvent:
		return *v
	case *ActivityDeltaEvent:
		return *v
	case *RawPassthroughEvent:
		return *v
	case *CustomEvent:
		return *v
	case *ThinkingStartEvent:
		return *v
	case *ThinkingTextMessageStartEvent:
		return *v
	case *ThinkingTextMessageContentEvent:
		return *v
	case *ThinkingTextMessageEndEvent:
		return *v
	case *ThinkingEndEvent:
		return *v
	default:
		return ev
	}
}

// EncodeEvent marshals an event back to its wire-level JSON form.
func EncodeEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("aguicore: encode %s event: %w", ev.Kind(), err)
	}
	return data, nil
}

// PatchOp is a single RFC 6902 operation.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
	From  string `json:"from,omitempty"`
}

// EncodePatchOps marshals literal patch operations into the json.RawMessage
// form StateDeltaEvent/ActivityDeltaEvent carry on the wire.
func EncodePatchOps(ops []PatchOp) json.RawMessage {
	data, err := json.Marshal(ops)
	if err != nil {
		// ops are always literal, JSON-safe values constructed by callers;
		// a marshal failure here means a caller embedded a non-JSON value.
		panic(fmt.Sprintf("aguicore: encode patch ops: %v", err))
	}
	return data
}
