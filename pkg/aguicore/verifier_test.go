package aguicore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_HappyPathLifecycle(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageStartEvent{MessageID: "m1", Role: "assistant"},
		TextMessageContentEvent{MessageID: "m1", Delta: "hi"},
		TextMessageEndEvent{MessageID: "m1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}

	out, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
	assert.Len(t, out, 5)
}

func TestVerify_RunStartedTwiceIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_EventBeforeRunStartedIsViolation(t *testing.T) {
	events := []Event{
		TextMessageStartEvent{MessageID: "m1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_ContentWithoutStartIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageContentEvent{MessageID: "m1", Delta: "hi"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_DuplicateStartIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageStartEvent{MessageID: "m1"},
		TextMessageStartEvent{MessageID: "m1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_ConcurrentTextMessagesEndingInReverseOrder(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageStartEvent{MessageID: "m1", Role: "assistant"},
		TextMessageStartEvent{MessageID: "m2", Role: "assistant"},
		TextMessageContentEvent{MessageID: "m2", Delta: "b"},
		TextMessageContentEvent{MessageID: "m1", Delta: "a"},
		TextMessageEndEvent{MessageID: "m2"},
		TextMessageEndEvent{MessageID: "m1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	out, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
	assert.Len(t, out, 8)
}

func TestVerify_ToolCallSequencing(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ToolCallStartEvent{ToolCallID: "tc1", ToolCallName: "get_weather"},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: "{}"},
		ToolCallEndEvent{ToolCallID: "tc1"},
		ToolCallResultEvent{MessageID: "res1", ToolCallID: "tc1", Content: "sunny"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
}

func TestVerify_ToolCallArgsWithoutStartIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: "{}"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_StepFinishedMismatchIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		StepStartedEvent{StepName: "outer"},
		StepStartedEvent{StepName: "inner"},
		StepFinishedEvent{StepName: "outer"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_ThinkingNesting(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ThinkingStartEvent{Title: "reasoning"},
		ThinkingTextMessageStartEvent{},
		ThinkingTextMessageContentEvent{Delta: "because"},
		ThinkingTextMessageEndEvent{},
		ThinkingEndEvent{},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
}

func TestVerify_ThinkingContentOutsideBlockIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ThinkingTextMessageContentEvent{Delta: "because"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_ToolCallStartWithNonAssistantParentIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1", Input: &RunStartedInput{
			Messages: []Message{{ID: "u1", Role: RoleUser, Content: TextContent("hi")}},
		}},
		ToolCallStartEvent{ToolCallID: "tc1", ToolCallName: "get_weather", ParentMessageID: strPtr("u1")},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)

	var agErr *Error
	require.True(t, errors.As(err, &agErr))
	assert.Equal(t, KindProtocolViolation, agErr.Kind)
}

func TestVerify_ToolCallStartWithAssistantParentFromHistoryIsAccepted(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1", Input: &RunStartedInput{
			Messages: []Message{{ID: "a1", Role: RoleAssistant, Content: TextContent("hi")}},
		}},
		ToolCallStartEvent{ToolCallID: "tc1", ToolCallName: "get_weather", ParentMessageID: strPtr("a1")},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: "{}"},
		ToolCallEndEvent{ToolCallID: "tc1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
}

func TestVerify_ToolCallStartWithUnknownParentIsAccepted(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ToolCallStartEvent{ToolCallID: "tc1", ToolCallName: "get_weather", ParentMessageID: strPtr("not-seen-yet")},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: "{}"},
		ToolCallEndEvent{ToolCallID: "tc1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
}

func TestVerify_UnnormalizedChunkIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageChunkEvent{MessageID: strPtr("m1"), Delta: strPtr("hi")},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)

	var agErr *Error
	require.True(t, errors.As(err, &agErr))
	assert.Equal(t, KindProtocolViolation, agErr.Kind)
}

func TestVerify_EventAfterTerminalIsViolation(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
		StateSnapshotEvent{Snapshot: map[string]any{"x": 1}},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.Error(t, err)
}

func TestVerify_PassthroughKindsAcceptedWhileRunning(t *testing.T) {
	events := []Event{
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		StateSnapshotEvent{Snapshot: map[string]any{"x": 1}},
		MessagesSnapshotEvent{Messages: nil},
		CustomEvent{Name: "anything"},
		RawPassthroughEvent{Event: map[string]any{"k": "v"}},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	}
	_, err := collect(Verify(sliceStream(events...)))
	require.NoError(t, err)
}
