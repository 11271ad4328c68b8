package aguicore

import "iter"

// EventStream is a lazy, finite, ordered sequence of events paired with an
// error slot, following the teacher's iter.Seq2[*agent.Event, error]
// convention (pkg/runner.Runner.Run) generalized to the wire event type.
// A non-nil error terminates the stream; the consumer decides whether to
// keep iterating past it (it should not — both Verify and the apply engine
// stop on the first error).
type EventStream = iter.Seq2[Event, error]

type chunkMode int

const (
	chunkModeNone chunkMode = iota
	chunkModeText
	chunkModeTool
)

type normalizerState struct {
	mode          chunkMode
	id            string
	fromChunk     bool
	lastTimestamp *int64
	lastRaw       any
}

// closeOpenChunk synthesizes the closing event for the in-flight chunked
// segment, if any, and yields it. Returns false if the consumer asked to
// stop.
func (st *normalizerState) closeOpenChunk(yield func(Event, error) bool) bool {
	if !st.fromChunk || st.mode == chunkModeNone {
		return true
	}
	var ok bool
	switch st.mode {
	case chunkModeText:
		base := Base{EventType: EventTypeTextMessageEnd}.withBase(st.lastTimestamp, st.lastRaw)
		ok = yield(TextMessageEndEvent{Base: base, MessageID: st.id}, nil)
	case chunkModeTool:
		base := Base{EventType: EventTypeToolCallEnd}.withBase(st.lastTimestamp, st.lastRaw)
		ok = yield(ToolCallEndEvent{Base: base, ToolCallID: st.id}, nil)
	}
	st.mode = chunkModeNone
	st.id = ""
	st.fromChunk = false
	return ok
}

// Normalize rewrites TEXT_MESSAGE_CHUNK/TOOL_CALL_CHUNK events in src into
// the canonical start/content/end triads (spec §4.1). Text and tool-call
// start/content/args/end events close any in-flight chunked segment and then
// pass through unchanged; all other non-chunk events pass through without
// closing it, and a segment still open when src ends is closed then.
func Normalize(src EventStream) EventStream {
	return func(yield func(Event, error) bool) {
		st := &normalizerState{}

		for ev, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}

			switch e := ev.(type) {
			case TextMessageChunkEvent:
				if st.mode != chunkModeText || (e.MessageID != nil && *e.MessageID != st.id) {
					if !st.closeOpenChunk(yield) {
						return
					}
					if e.MessageID == nil {
						yield(nil, newErr(KindMalformedStream, nil, "text chunk without messageId cannot start a new segment"))
						return
					}
					role := "assistant"
					if e.Role != nil {
						role = *e.Role
					}
					startBase := Base{EventType: EventTypeTextMessageStart, Timestamp: e.Timestamp, RawEvent: e.RawEvent}
					if !yield(TextMessageStartEvent{Base: startBase, MessageID: *e.MessageID, Role: role}, nil) {
						return
					}
					st.mode = chunkModeText
					st.id = *e.MessageID
					st.fromChunk = true
				}
				st.lastTimestamp = e.Timestamp
				st.lastRaw = e.RawEvent
				if e.Delta != nil && *e.Delta != "" {
					contentBase := Base{EventType: EventTypeTextMessageContent, Timestamp: e.Timestamp, RawEvent: e.RawEvent}
					if !yield(TextMessageContentEvent{Base: contentBase, MessageID: st.id, Delta: *e.Delta}, nil) {
						return
					}
				}

			case ToolCallChunkEvent:
				if st.mode != chunkModeTool || (e.ToolCallID != nil && *e.ToolCallID != st.id) {
					if !st.closeOpenChunk(yield) {
						return
					}
					if e.ToolCallID == nil || e.ToolCallName == nil {
						yield(nil, newErr(KindMalformedStream, nil, "tool chunk without toolCallId/toolCallName cannot start a new segment"))
						return
					}
					startBase := Base{EventType: EventTypeToolCallStart, Timestamp: e.Timestamp, RawEvent: e.RawEvent}
					if !yield(ToolCallStartEvent{Base: startBase, ToolCallID: *e.ToolCallID, ToolCallName: *e.ToolCallName, ParentMessageID: e.ParentMessageID}, nil) {
						return
					}
					st.mode = chunkModeTool
					st.id = *e.ToolCallID
					st.fromChunk = true
				}
				st.lastTimestamp = e.Timestamp
				st.lastRaw = e.RawEvent
				if e.Delta != nil && *e.Delta != "" {
					argsBase := Base{EventType: EventTypeToolCallArgs, Timestamp: e.Timestamp, RawEvent: e.RawEvent}
					if !yield(ToolCallArgsEvent{Base: argsBase, ToolCallID: st.id, Delta: *e.Delta}, nil) {
						return
					}
				}

			case TextMessageStartEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				st.mode, st.id, st.fromChunk = chunkModeText, e.MessageID, false
				if !yield(ev, nil) {
					return
				}

			case TextMessageEndEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				if st.mode == chunkModeText && !st.fromChunk && st.id == e.MessageID {
					st.mode, st.id = chunkModeNone, ""
				}
				if !yield(ev, nil) {
					return
				}

			case ToolCallStartEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				st.mode, st.id, st.fromChunk = chunkModeTool, e.ToolCallID, false
				if !yield(ev, nil) {
					return
				}

			case ToolCallEndEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				if st.mode == chunkModeTool && !st.fromChunk && st.id == e.ToolCallID {
					st.mode, st.id = chunkModeNone, ""
				}
				if !yield(ev, nil) {
					return
				}

			case TextMessageContentEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				if !yield(ev, nil) {
					return
				}

			case ToolCallArgsEvent:
				if !st.closeOpenChunk(yield) {
					return
				}
				if !yield(ev, nil) {
					return
				}

			default:
				if !yield(ev, nil) {
					return
				}
			}
		}

		st.closeOpenChunk(yield)
	}
}
