package aguicore

// runPhase tracks the run-level state machine of spec §4.2.
type runPhase int

const (
	phaseIdle runPhase = iota
	phaseRunning
	phaseTerminal
)

// verifierState carries the per-run bookkeeping the event FSM needs: the
// run phase, the set of open text message ids and the thinking flags, the
// set of open tool-call ids (not grouped by parent message, so any number
// may be open at once), the roles of every message id seen so
// far (history hydrated via RUN_STARTED.input, plus any started/snapshotted
// this run), and the LIFO stack of open step names.
type verifierState struct {
	phase runPhase

	openText         map[string]struct{}
	openThinkingText bool
	thinkingOpen     bool

	openToolCalls map[string]struct{}
	messageRoles  map[string]MessageRole

	steps []string
}

func newVerifierState() *verifierState {
	return &verifierState{
		openText:      make(map[string]struct{}),
		openToolCalls: make(map[string]struct{}),
		messageRoles:  make(map[string]MessageRole),
	}
}

func (st *verifierState) violation(format string, args ...any) *Error {
	return newErr(KindProtocolViolation, nil, format, args...)
}

// Verify enforces the event-kind finite-state machine of spec §4.2 over an
// already-normalized stream, aborting with a PROTOCOL_VIOLATION fault on any
// structurally invalid sequence. It is pure over its input: no field of
// verifierState survives past the returned stream's lifetime.
func Verify(src EventStream) EventStream {
	return func(yield func(Event, error) bool) {
		st := newVerifierState()

		for ev, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}

			if verr := st.check(ev); verr != nil {
				yield(nil, verr)
				return
			}

			if !yield(ev, nil) {
				return
			}
		}
	}
}

func (st *verifierState) check(ev Event) *Error {
	switch e := ev.(type) {
	case RunStartedEvent:
		if st.phase != phaseIdle {
			return st.violation("RUN_STARTED received while run is %v, expected idle", st.phase)
		}
		st.phase = phaseRunning
		if e.Input != nil {
			for _, m := range e.Input.Messages {
				st.messageRoles[m.ID] = m.Role
			}
		}

	case RunFinishedEvent:
		if st.phase != phaseRunning {
			return st.violation("RUN_FINISHED received outside a running run")
		}
		st.phase = phaseTerminal

	case RunErrorEvent:
		if st.phase != phaseRunning {
			return st.violation("RUN_ERROR received outside a running run")
		}
		st.phase = phaseTerminal

	case StepStartedEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		st.steps = append(st.steps, e.StepName)

	case StepFinishedEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if len(st.steps) == 0 || st.steps[len(st.steps)-1] != e.StepName {
			return st.violation("STEP_FINISHED %q does not match the innermost open step", e.StepName)
		}
		st.steps = st.steps[:len(st.steps)-1]

	case TextMessageStartEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openText[e.MessageID]; open {
			return st.violation("TEXT_MESSAGE_START %q while already open", e.MessageID)
		}
		st.openText[e.MessageID] = struct{}{}
		role := RoleAssistant
		if e.Role != "" {
			role = MessageRole(e.Role)
		}
		st.messageRoles[e.MessageID] = role

	case TextMessageContentEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openText[e.MessageID]; !open {
			return st.violation("TEXT_MESSAGE_CONTENT %q without a matching start", e.MessageID)
		}

	case TextMessageEndEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openText[e.MessageID]; !open {
			return st.violation("TEXT_MESSAGE_END %q without a matching start", e.MessageID)
		}
		delete(st.openText, e.MessageID)

	case TextMessageChunkEvent:
		return st.violation("TEXT_MESSAGE_CHUNK reached the verifier unnormalized")

	case ToolCallStartEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openToolCalls[e.ToolCallID]; open {
			return st.violation("TOOL_CALL_START %q while already open", e.ToolCallID)
		}
		if e.ParentMessageID != nil {
			if role, known := st.messageRoles[*e.ParentMessageID]; known && role != RoleAssistant {
				return st.violation("TOOL_CALL_START %q names parentMessageId %q, which is a %q message, not assistant", e.ToolCallID, *e.ParentMessageID, role)
			}
		}
		st.openToolCalls[e.ToolCallID] = struct{}{}

	case ToolCallArgsEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openToolCalls[e.ToolCallID]; !open {
			return st.violation("TOOL_CALL_ARGS %q without a matching start", e.ToolCallID)
		}

	case ToolCallEndEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if _, open := st.openToolCalls[e.ToolCallID]; !open {
			return st.violation("TOOL_CALL_END %q without a matching start", e.ToolCallID)
		}
		delete(st.openToolCalls, e.ToolCallID)

	case ToolCallChunkEvent:
		return st.violation("TOOL_CALL_CHUNK reached the verifier unnormalized")

	case ThinkingStartEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		if st.thinkingOpen {
			return st.violation("THINKING_START while already inside a thinking block")
		}
		st.thinkingOpen = true

	case ThinkingTextMessageStartEvent:
		if err := st.requireThinking(); err != nil {
			return err
		}
		if st.openThinkingText {
			return st.violation("THINKING_TEXT_MESSAGE_START while already open")
		}
		st.openThinkingText = true

	case ThinkingTextMessageContentEvent:
		if err := st.requireThinking(); err != nil {
			return err
		}
		if !st.openThinkingText {
			return st.violation("THINKING_TEXT_MESSAGE_CONTENT without a matching start")
		}

	case ThinkingTextMessageEndEvent:
		if err := st.requireThinking(); err != nil {
			return err
		}
		if !st.openThinkingText {
			return st.violation("THINKING_TEXT_MESSAGE_END without a matching start")
		}
		st.openThinkingText = false

	case ThinkingEndEvent:
		if err := st.requireThinking(); err != nil {
			return err
		}
		st.thinkingOpen = false
		st.openThinkingText = false

	case MessagesSnapshotEvent:
		if err := st.requireRunning(); err != nil {
			return err
		}
		for _, m := range e.Messages {
			st.messageRoles[m.ID] = m.Role
		}

	default:
		// STATE_SNAPSHOT, STATE_DELTA, ACTIVITY_SNAPSHOT, ACTIVITY_DELTA,
		// TOOL_CALL_RESULT, CUSTOM, RAW: accepted in RUNNING without further
		// structural constraint (spec §4.2).
		if err := st.requireRunning(); err != nil {
			return err
		}
	}
	return nil
}

func (st *verifierState) requireRunning() *Error {
	if st.phase != phaseRunning {
		return st.violation("event received while run is %v, expected running", st.phase)
	}
	return nil
}

func (st *verifierState) requireThinking() *Error {
	if err := st.requireRunning(); err != nil {
		return err
	}
	if !st.thinkingOpen {
		return st.violation("thinking event received outside a THINKING_START/THINKING_END block")
	}
	return nil
}

func (p runPhase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseRunning:
		return "running"
	case phaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}
