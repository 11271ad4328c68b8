package aguicore

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// RunOptions carries the per-call inputs to a single run: any new messages
// the caller wants appended to the conversation before the RunInput is
// built (e.g. the user's latest turn), and the tool/context/forwardedProps
// payload for that run (spec §3, RunInput).
type RunOptions struct {
	Messages       []Message
	Tools          []Tool
	Context        []ContextItem
	ForwardedProps map[string]any
}

// RunResult is what RunAgent/ConnectAgent produce on normal completion
// (spec §4.4): the opaque RUN_FINISHED result and the messages that were
// new as of this run, in their post-run order.
type RunResult struct {
	Result      any
	NewMessages []Message
}

// AgentConfig configures a new Agent.
type AgentConfig struct {
	// Transport is required: it drives a single run given a RunInput.
	Transport Transport

	// ThreadID, if set, seeds the conversation's stable thread identity.
	// Left empty, one is assigned lazily on the first run.
	ThreadID string

	// Middlewares wrap every call to Transport, innermost-last (spec §4.4,
	// "composition is right-fold").
	Middlewares []Middleware

	// MaxVersion is the remote agent's declared protocol version. Agents
	// at "0.0.39" or older get legacyCompatMiddleware auto-inserted ahead
	// of Middlewares (spec §4.4, SPEC_FULL.md §12).
	MaxVersion string

	// Logger defaults to slog.Default() when nil (SPEC_FULL.md §10.1).
	Logger *slog.Logger
}

// Agent owns a ConversationState and drives runs against it through a
// Transport (spec §4.4). It is not safe to call RunAgent/ConnectAgent
// concurrently on the same Agent; the core serializes internally via a
// mutex, but the caller should not rely on that for throughput.
type Agent struct {
	mu          sync.Mutex
	conv        ConversationState
	transport   Transport
	middlewares []Middleware
	maxVersion  string
	subscribers []subscriberRegistration
	logger      *slog.Logger

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// NewAgent constructs an Agent ready to run. The zero value of Agent is not
// usable (it has no Transport and no logger); always go through NewAgent.
func NewAgent(cfg AgentConfig) (*Agent, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("aguicore: transport is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		conv:        ConversationState{ThreadID: cfg.ThreadID},
		transport:   cfg.Transport,
		middlewares: cfg.Middlewares,
		maxVersion:  cfg.MaxVersion,
		logger:      logger,
	}, nil
}

// Subscribe registers a permanent subscriber and returns a function that
// removes it.
func (a *Agent) Subscribe(sub Subscriber) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subscribers = append(a.subscribers, subscriberRegistration{sub: sub})
	idx := len(a.subscribers) - 1
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if idx < len(a.subscribers) {
			a.subscribers = append(a.subscribers[:idx], a.subscribers[idx+1:]...)
		}
	}
}

// State returns a defensive snapshot of the agent's conversation.
func (a *Agent) State() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.view()
}

// IsRunning reports whether a run is currently in progress (spec §5,
// advisory only: the core does not queue concurrent calls).
func (a *Agent) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conv.IsRunning
}

// AbortRun requests cooperative cancellation of the in-progress run, if
// any (spec §4.4, §5). It is idempotent and safe to call from any
// goroutine, including while RunAgent holds its internal lock.
func (a *Agent) AbortRun() {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunAgent drives one run to completion against Transport (spec §4.4).
func (a *Agent) RunAgent(ctx context.Context, opts RunOptions, temporary ...Subscriber) (RunResult, error) {
	return a.run(ctx, opts, temporary, func(ctx context.Context, input RunInput) EventStream {
		return a.transport.Run(ctx, input)
	})
}

// ConnectAgent is the persistent-channel counterpart of RunAgent (spec
// §4.4). It fails with KindNotImplemented unless Transport also implements
// PersistentTransport.
func (a *Agent) ConnectAgent(ctx context.Context, opts RunOptions, temporary ...Subscriber) (RunResult, error) {
	pt, ok := a.transport.(PersistentTransport)
	if !ok {
		return RunResult{}, newErr(KindNotImplemented, nil, "transport %T does not support persistent connections", a.transport)
	}
	return a.run(ctx, opts, temporary, func(ctx context.Context, input RunInput) EventStream {
		return pt.Connect(ctx, input)
	})
}

func (a *Agent) run(ctx context.Context, opts RunOptions, temporary []Subscriber, callTransport next) (RunResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conv.ThreadID == "" {
		a.conv.ThreadID = uuid.NewString()
	}
	if a.conv.AgentID == "" {
		a.conv.AgentID = uuid.NewString()
	}
	runID := uuid.NewString()

	subs := make([]subscriberRegistration, 0, len(a.subscribers)+len(temporary))
	subs = append(subs, a.subscribers...)
	for _, s := range temporary {
		subs = append(subs, subscriberRegistration{sub: s, temporary: true})
	}

	beforeIDs := snapshotMessageIDs(a.conv.Messages)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancelMu.Lock()
	a.cancel = cancel
	a.cancelMu.Unlock()
	defer cancel()

	a.conv.IsRunning = true
	defer func() { a.conv.IsRunning = false }()

	for _, reg := range subs {
		if reg.sub.OnRunInitialized == nil {
			continue
		}
		view := a.conv.view()
		m := reg.sub.OnRunInitialized(runCtx, view)
		mergeMutation(&a.conv, Mutation{Messages: m.Messages, State: m.State})
	}

	a.conv.Messages = append(a.conv.Messages, CopyMessages(opts.Messages)...)

	input := a.buildRunInput(runID, opts)

	terminal := callTransport
	chain := composeMiddleware(a.effectiveMiddlewares(), terminal)
	stream := Verify(Normalize(chain(runCtx, input)))

	scratch := &reducerScratch{}
	var result any
	var resultSet bool
	var runErr error

	for ev, err := range stream {
		if err != nil {
			runErr = err
			break
		}

		if fatal := a.processEvent(runCtx, subs, scratch, ev, input.Tools, &result, &resultSet); fatal != nil {
			runErr = fatal
			break
		}

		if rerr, isRunError := ev.(RunErrorEvent); isRunError {
			runErr = newErr(KindTransportError, nil, "%s", rerr.Message)
			break
		}
	}

	if runErr != nil {
		stopped := a.runFailed(runCtx, subs, runErr)
		a.runFinalized(runCtx, subs)
		if stopped {
			return RunResult{}, nil
		}
		return RunResult{}, runErr
	}

	newMessages := diffNewMessages(a.conv.Messages, beforeIDs)
	a.runFinalized(runCtx, subs)

	return RunResult{Result: result, NewMessages: newMessages}, nil
}

func (a *Agent) buildRunInput(runID string, opts RunOptions) RunInput {
	msgs := make([]Message, 0, len(a.conv.Messages))
	for _, m := range a.conv.Messages {
		if m.Role == RoleActivity {
			continue
		}
		msgs = append(msgs, m.DeepCopy())
	}

	var forwardedProps map[string]any
	if opts.ForwardedProps != nil {
		forwardedProps = deepCopyJSON(opts.ForwardedProps).(map[string]any)
	}

	return RunInput{
		ThreadID:       a.conv.ThreadID,
		RunID:          runID,
		Tools:          append([]Tool(nil), opts.Tools...),
		Context:        append([]ContextItem(nil), opts.Context...),
		ForwardedProps: forwardedProps,
		State:          deepCopyJSON(a.conv.State),
		Messages:       msgs,
	}
}

func (a *Agent) effectiveMiddlewares() []Middleware {
	if !needsLegacyCompat(a.maxVersion) {
		return a.middlewares
	}
	out := make([]Middleware, 0, len(a.middlewares)+1)
	out = append(out, legacyCompatMiddleware{})
	out = append(out, a.middlewares...)
	return out
}

// processEvent runs the full per-event sequence of spec §5(b): onEvent,
// kind-specific subscriber hooks, the built-in reducer, then derived-state
// hooks. It returns non-nil only for a fatal fault that must abort the run.
func (a *Agent) processEvent(ctx context.Context, subs []subscriberRegistration, scratch *reducerScratch, ev Event, tools []Tool, result *any, resultSet *bool) *Error {
	beforeMessages := CopyMessages(a.conv.Messages)
	beforeState := deepCopyJSON(a.conv.State)

	stop := false

	for _, reg := range subs {
		if reg.sub.OnEvent == nil {
			continue
		}
		view := a.conv.view()
		m := reg.sub.OnEvent(ctx, view, ev)
		mergeMutation(&a.conv, m)
		if m.StopPropagation {
			stop = true
			break
		}
	}

	if !stop {
		for _, reg := range subs {
			view := a.conv.view()
			m, handled := fireKindHook(ctx, reg.sub, &a.conv, view, ev)
			if !handled {
				continue
			}
			mergeMutation(&a.conv, m)
			if m.StopPropagation {
				stop = true
				break
			}
		}
	}

	var signals derivedSignals
	if !stop {
		var warning, fatal *Error
		signals, warning, fatal = applyBuiltin(&a.conv, scratch, ev)
		if warning != nil {
			a.logger.Warn("aguicore: recovered reducer fault", "kind", warning.Kind, "error", warning.Error())
		}
		if fatal != nil {
			return fatal
		}
	}

	if signals.RunResultSet {
		*result = signals.RunResult
		*resultSet = true
	}

	messagesChanged := !reflect.DeepEqual(beforeMessages, a.conv.Messages)
	stateChanged := !reflect.DeepEqual(beforeState, a.conv.State)

	for _, reg := range subs {
		sub := reg.sub
		if messagesChanged && sub.OnMessagesChanged != nil {
			sub.OnMessagesChanged(ctx, CopyMessages(a.conv.Messages))
		}
		if stateChanged && sub.OnStateChanged != nil {
			sub.OnStateChanged(ctx, deepCopyJSON(a.conv.State))
		}
		if signals.NewMessage != nil && sub.OnNewMessage != nil {
			sub.OnNewMessage(ctx, signals.NewMessage.DeepCopy())
		}
		if signals.NewToolCall != nil && sub.OnNewToolCall != nil {
			sub.OnNewToolCall(ctx, signals.NewToolCall.Message.DeepCopy(), signals.NewToolCall.ToolCall)
		}
	}

	if signals.NewToolCall != nil {
		a.validateToolCallArgs(tools, signals.NewToolCall.ToolCall)
	}

	return nil
}

// validateToolCallArgs checks a just-closed tool call's arguments against
// its declared schema and logs a warning on mismatch. A remote agent is not
// guaranteed to emit schema-conformant arguments, so this is diagnostic
// only (SPEC_FULL.md §11); it never aborts the run.
func (a *Agent) validateToolCallArgs(tools []Tool, tc ToolCall) {
	tool, ok := FindTool(tools, tc.Function.Name)
	if !ok {
		return
	}
	if err := ValidateToolArgs(tool, tc.Function.Arguments); err != nil {
		a.logger.Warn("aguicore: tool call arguments failed schema validation", "tool", tc.Function.Name, "toolCallId", tc.ID, "error", err)
	}
}

func (a *Agent) runFailed(ctx context.Context, subs []subscriberRegistration, cause error) (stopped bool) {
	for _, reg := range subs {
		if reg.sub.OnRunFailed == nil {
			continue
		}
		view := a.conv.view()
		res := reg.sub.OnRunFailed(ctx, view, cause)
		mergeMutation(&a.conv, Mutation{Messages: res.Messages, State: res.State})
		if res.StopPropagation {
			return true
		}
	}
	return false
}

func (a *Agent) runFinalized(ctx context.Context, subs []subscriberRegistration) {
	for _, reg := range subs {
		if reg.sub.OnRunFinalized == nil {
			continue
		}
		view := a.conv.view()
		m := reg.sub.OnRunFinalized(ctx, view)
		mergeMutation(&a.conv, Mutation{Messages: m.Messages, State: m.State})
	}
}

func mergeMutation(conv *ConversationState, m Mutation) {
	if m.Messages != nil {
		conv.Messages = m.Messages
	}
	if m.State != nil {
		conv.State = m.State
	}
}

func diffNewMessages(messages []Message, before map[string]struct{}) []Message {
	var out []Message
	for _, m := range messages {
		if _, existed := before[m.ID]; !existed {
			out = append(out, m.DeepCopy())
		}
	}
	return out
}

// fireKindHook dispatches ev to its matching per-kind Subscriber callback,
// if one is set. Thinking and chunk events have no dedicated hook; they are
// only observable via OnEvent (spec §4.5 lists a representative set of
// per-kind hooks, not an exhaustive one per wire event).
func fireKindHook(ctx context.Context, sub Subscriber, conv *ConversationState, view View, ev Event) (Mutation, bool) {
	switch e := ev.(type) {
	case RunStartedEvent:
		if sub.OnRunStartedEvent != nil {
			return sub.OnRunStartedEvent(ctx, view, e), true
		}
	case RunFinishedEvent:
		if sub.OnRunFinishedEvent != nil {
			return sub.OnRunFinishedEvent(ctx, view, e), true
		}
	case RunErrorEvent:
		if sub.OnRunErrorEvent != nil {
			return sub.OnRunErrorEvent(ctx, view, e), true
		}
	case StepStartedEvent:
		if sub.OnStepStartedEvent != nil {
			return sub.OnStepStartedEvent(ctx, view, e), true
		}
	case StepFinishedEvent:
		if sub.OnStepFinishedEvent != nil {
			return sub.OnStepFinishedEvent(ctx, view, e), true
		}
	case TextMessageStartEvent:
		if sub.OnTextMessageStartEvent != nil {
			return sub.OnTextMessageStartEvent(ctx, view, e), true
		}
	case TextMessageContentEvent:
		if sub.OnTextMessageContentEvent != nil {
			return sub.OnTextMessageContentEvent(ctx, view, e), true
		}
	case TextMessageEndEvent:
		if sub.OnTextMessageEndEvent != nil {
			return sub.OnTextMessageEndEvent(ctx, view, e), true
		}
	case ToolCallStartEvent:
		if sub.OnToolCallStartEvent != nil {
			return sub.OnToolCallStartEvent(ctx, view, e), true
		}
	case ToolCallArgsEvent:
		if sub.OnToolCallArgsEvent != nil {
			bufferBefore, untruncated, ok := ToolCallArgsPreview(conv, e)
			return sub.OnToolCallArgsEvent(ctx, view, e, bufferBefore, untruncated, ok), true
		}
	case ToolCallEndEvent:
		if sub.OnToolCallEndEvent != nil {
			return sub.OnToolCallEndEvent(ctx, view, e), true
		}
	case ToolCallResultEvent:
		if sub.OnToolCallResultEvent != nil {
			return sub.OnToolCallResultEvent(ctx, view, e), true
		}
	case StateSnapshotEvent:
		if sub.OnStateSnapshotEvent != nil {
			return sub.OnStateSnapshotEvent(ctx, view, e), true
		}
	case StateDeltaEvent:
		if sub.OnStateDeltaEvent != nil {
			return sub.OnStateDeltaEvent(ctx, view, e), true
		}
	case MessagesSnapshotEvent:
		if sub.OnMessagesSnapshotEvent != nil {
			return sub.OnMessagesSnapshotEvent(ctx, view, e), true
		}
	case ActivitySnapshotEvent:
		if sub.OnActivitySnapshotEvent != nil {
			return sub.OnActivitySnapshotEvent(ctx, view, e), true
		}
	case ActivityDeltaEvent:
		if sub.OnActivityDeltaEvent != nil {
			return sub.OnActivityDeltaEvent(ctx, view, e), true
		}
	case RawPassthroughEvent:
		if sub.OnRawEvent != nil {
			return sub.OnRawEvent(ctx, view, e), true
		}
	case CustomEvent:
		if sub.OnCustomEvent != nil {
			return sub.OnCustomEvent(ctx, view, e), true
		}
	}
	return Mutation{}, false
}
