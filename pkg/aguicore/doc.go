// Package aguicore implements the client-side runtime core of the Agent
// User Interaction (AG-UI) protocol: a chunk normalizer, an event verifier,
// a state-reducing apply engine, and a run orchestrator that together turn
// a raw, unreliable event stream from a remote agent into a deterministic,
// observable conversation state.
//
// The four subsystems compose as a pipeline:
//
//	remote agent -> Normalize -> Verify -> apply engine -> Agent.RunAgent
//
// Transports, concrete agent backends, tool registries, and persistence are
// external collaborators; this package only names their interfaces
// (Transport, Middleware) and never implements them.
package aguicore
