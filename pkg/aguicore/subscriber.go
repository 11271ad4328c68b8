package aguicore

import "context"

// Mutation is the shape every subscriber callback returns: a proposed,
// partial change to the working view plus an optional propagation-control
// flag (spec §4.5, §9 "cleanly modelled as a tagged record with all-optional
// fields"). Nil fields mean "no change proposed" for that field.
type Mutation struct {
	Messages        []Message
	State           any
	StopPropagation bool
}

// FailureResult is the distinct return shape for OnRunFailed: unlike other
// event hooks, StopPropagation here controls whether the run's underlying
// error is surfaced to the caller at all (spec §7, "If any subscriber
// returns stopPropagation from onRunFailed, the run completes with an empty
// result instead of throwing"), not whether later subscribers/the built-in
// handler run for an in-flight event.
type FailureResult struct {
	Messages        []Message
	State           any
	StopPropagation bool
}

// Subscriber is a bag of optional callbacks an observer registers against
// an Agent, either for its lifetime or for a single run (spec §4.5). Every
// callback receives a View holding defensive copies of the current
// messages/state; returned Mutations are merged into the working view
// before the next subscriber (or the built-in handler) runs.
type Subscriber struct {
	// Lifecycle hooks. StopPropagation has no meaning here (spec §4.5).
	OnRunInitialized func(ctx context.Context, view View) Mutation
	OnRunFailed      func(ctx context.Context, view View, cause error) FailureResult
	OnRunFinalized   func(ctx context.Context, view View) Mutation

	// Generic and per-kind event hooks. A truthy StopPropagation aborts
	// later subscribers and the built-in reducer for that event.
	OnEvent func(ctx context.Context, view View, ev Event) Mutation

	OnRunStartedEvent    func(ctx context.Context, view View, ev RunStartedEvent) Mutation
	OnRunFinishedEvent   func(ctx context.Context, view View, ev RunFinishedEvent) Mutation
	OnRunErrorEvent      func(ctx context.Context, view View, ev RunErrorEvent) Mutation
	OnStepStartedEvent   func(ctx context.Context, view View, ev StepStartedEvent) Mutation
	OnStepFinishedEvent  func(ctx context.Context, view View, ev StepFinishedEvent) Mutation

	OnTextMessageStartEvent   func(ctx context.Context, view View, ev TextMessageStartEvent) Mutation
	OnTextMessageContentEvent func(ctx context.Context, view View, ev TextMessageContentEvent) Mutation
	OnTextMessageEndEvent     func(ctx context.Context, view View, ev TextMessageEndEvent) Mutation

	OnToolCallStartEvent  func(ctx context.Context, view View, ev ToolCallStartEvent) Mutation
	OnToolCallArgsEvent   func(ctx context.Context, view View, ev ToolCallArgsEvent, bufferBefore string, untruncated any, untruncatedOK bool) Mutation
	OnToolCallEndEvent    func(ctx context.Context, view View, ev ToolCallEndEvent) Mutation
	OnToolCallResultEvent func(ctx context.Context, view View, ev ToolCallResultEvent) Mutation

	OnStateSnapshotEvent    func(ctx context.Context, view View, ev StateSnapshotEvent) Mutation
	OnStateDeltaEvent       func(ctx context.Context, view View, ev StateDeltaEvent) Mutation
	OnMessagesSnapshotEvent func(ctx context.Context, view View, ev MessagesSnapshotEvent) Mutation

	OnActivitySnapshotEvent func(ctx context.Context, view View, ev ActivitySnapshotEvent) Mutation
	OnActivityDeltaEvent    func(ctx context.Context, view View, ev ActivityDeltaEvent) Mutation

	OnRawEvent    func(ctx context.Context, view View, ev RawPassthroughEvent) Mutation
	OnCustomEvent func(ctx context.Context, view View, ev CustomEvent) Mutation

	// Derived-state hooks. Fire-and-forget: no return value, no influence
	// over propagation. Each fires only when the corresponding field
	// actually changed (spec §5).
	OnMessagesChanged func(ctx context.Context, messages []Message)
	OnStateChanged    func(ctx context.Context, state any)
	OnNewMessage      func(ctx context.Context, message Message)
	OnNewToolCall     func(ctx context.Context, message Message, toolCall ToolCall)
}

// subscriberRegistration pairs a Subscriber with whether it was registered
// for the Agent's lifetime or for a single run (spec §4.5).
type subscriberRegistration struct {
	sub       Subscriber
	temporary bool
}
