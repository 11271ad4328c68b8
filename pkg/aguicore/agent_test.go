package aguicore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAgent(t *testing.T, events ...Event) *Agent {
	t.Helper()
	transport := TransportFunc(func(ctx context.Context, input RunInput) EventStream {
		return sliceStream(events...)
	})
	a, err := NewAgent(AgentConfig{Transport: transport})
	require.NoError(t, err)
	return a
}

func TestAgent_ConcurrentTextMessagesEndingInReverseOrder(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		TextMessageStartEvent{MessageID: "m1", Role: "assistant"},
		TextMessageStartEvent{MessageID: "m2", Role: "assistant"},
		TextMessageContentEvent{MessageID: "m2", Delta: "b"},
		TextMessageContentEvent{MessageID: "m1", Delta: "a"},
		TextMessageEndEvent{MessageID: "m2"},
		TextMessageEndEvent{MessageID: "m1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1", Result: "ok"},
	)

	res, err := a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Result)

	view := a.State()
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "m1", view.Messages[0].ID)
	text1, _ := view.Messages[0].Content.Text()
	assert.Equal(t, "a", text1)
	assert.Equal(t, "m2", view.Messages[1].ID)
	text2, _ := view.Messages[1].Content.Text()
	assert.Equal(t, "b", text2)
}

func TestAgent_StreamingToolCallWithPartialArgs(t *testing.T) {
	var sawToolCall ToolCall
	sub := Subscriber{
		OnNewToolCall: func(ctx context.Context, message Message, toolCall ToolCall) {
			sawToolCall = toolCall
		},
	}

	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ToolCallStartEvent{ToolCallID: "tc1", ToolCallName: "get_weather"},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: `{"city":`},
		ToolCallArgsEvent{ToolCallID: "tc1", Delta: `"nyc"}`},
		ToolCallEndEvent{ToolCallID: "tc1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	)
	a.Subscribe(sub)

	_, err := a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "get_weather", sawToolCall.Function.Name)
	assert.Equal(t, `{"city":"nyc"}`, sawToolCall.Function.Arguments)
}

func TestAgent_StateDeltaThenSnapshot(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		StateSnapshotEvent{Snapshot: map[string]any{"count": float64(1)}},
		StateDeltaEvent{Delta: json.RawMessage(`[{"op":"replace","path":"/count","value":5}]`)},
		StateSnapshotEvent{Snapshot: map[string]any{"count": float64(99), "tag": "final"}},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	)

	_, err := a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)

	view := a.State()
	m := view.State.(map[string]any)
	assert.Equal(t, float64(99), m["count"])
	assert.Equal(t, "final", m["tag"])
}

func TestAgent_ActivityOperationsAccumulateViaDelta(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		ActivitySnapshotEvent{MessageID: "act1", ActivityType: "progress", Content: map[string]any{"pct": float64(0), "log": []any{}}},
		ActivityDeltaEvent{MessageID: "act1", Patch: json.RawMessage(`[{"op":"replace","path":"/pct","value":40}]`)},
		ActivityDeltaEvent{MessageID: "act1", Patch: json.RawMessage(`[{"op":"add","path":"/log/0","value":"step one"}]`)},
		ActivityDeltaEvent{MessageID: "act1", Patch: json.RawMessage(`[{"op":"replace","path":"/pct","value":100}]`)},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	)

	_, err := a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)

	view := a.State()
	require.Len(t, view.Messages, 1)
	content := view.Messages[0].ActivityContent.(map[string]any)
	assert.Equal(t, float64(100), content["pct"])
	assert.Equal(t, []any{"step one"}, content["log"])
}

func TestAgent_SubscriberStopsRunErrorPropagation(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		RunErrorEvent{Message: "boom", Code: "UPSTREAM_FAILURE"},
	)

	var failureObserved bool
	a.Subscribe(Subscriber{
		OnRunFailed: func(ctx context.Context, view View, cause error) FailureResult {
			failureObserved = true
			return FailureResult{StopPropagation: true}
		},
	})

	res, err := a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.True(t, failureObserved)
	assert.Nil(t, res.Result)
	assert.False(t, a.IsRunning())
}

func TestAgent_RunErrorPropagatesWithoutSubscriberStop(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		RunErrorEvent{Message: "boom", Code: "UPSTREAM_FAILURE"},
	)

	_, err := a.RunAgent(context.Background(), RunOptions{})
	require.Error(t, err)
}

func TestAgent_ThreeSequentialRunsAccumulateMessages(t *testing.T) {
	callCount := 0
	transport := TransportFunc(func(ctx context.Context, input RunInput) EventStream {
		callCount++
		runID := input.RunID
		return sliceStream(
			RunStartedEvent{ThreadID: input.ThreadID, RunID: runID},
			RunFinishedEvent{ThreadID: input.ThreadID, RunID: runID, Result: callCount},
		)
	})
	a, err := NewAgent(AgentConfig{Transport: transport})
	require.NoError(t, err)

	res1, err := a.RunAgent(context.Background(), RunOptions{
		Messages: []Message{{ID: "u1", Role: RoleUser, Content: TextContent("first")}},
	})
	require.NoError(t, err)
	require.Len(t, res1.NewMessages, 1)
	assert.Equal(t, "u1", res1.NewMessages[0].ID)

	res2, err := a.RunAgent(context.Background(), RunOptions{
		Messages: []Message{{ID: "u2", Role: RoleUser, Content: TextContent("second")}},
	})
	require.NoError(t, err)
	require.Len(t, res2.NewMessages, 1)
	assert.Equal(t, "u2", res2.NewMessages[0].ID)

	res3, err := a.RunAgent(context.Background(), RunOptions{
		Messages: []Message{{ID: "u3", Role: RoleUser, Content: TextContent("third")}},
	})
	require.NoError(t, err)
	require.Len(t, res3.NewMessages, 1)
	assert.Equal(t, "u3", res3.NewMessages[0].ID)

	view := a.State()
	require.Len(t, view.Messages, 3)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{view.Messages[0].ID, view.Messages[1].ID, view.Messages[2].ID})
}

func TestAgent_ConnectAgentFailsWithoutPersistentTransport(t *testing.T) {
	a := newTestAgent(t, RunStartedEvent{ThreadID: "t1", RunID: "r1"}, RunFinishedEvent{ThreadID: "t1", RunID: "r1"})
	_, err := a.ConnectAgent(context.Background(), RunOptions{})
	require.Error(t, err)
}

func TestAgent_TemporarySubscriberReceivesEventsForOneRunOnly(t *testing.T) {
	a := newTestAgent(t,
		RunStartedEvent{ThreadID: "t1", RunID: "r1"},
		RunFinishedEvent{ThreadID: "t1", RunID: "r1"},
	)

	fired := 0
	temp := Subscriber{
		OnRunFinalized: func(ctx context.Context, view View) Mutation {
			fired++
			return Mutation{}
		},
	}

	_, err := a.RunAgent(context.Background(), RunOptions{}, temp)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	_, err = a.RunAgent(context.Background(), RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}
