package aguicore

import (
	"context"
	"strconv"
	"strings"
)

// Transport produces a lazy, finite event sequence for a single run given a
// RunInput (spec §6.2). Concrete HTTP/SSE, WebSocket, or process-local
// transports live outside this package; Agent only depends on this
// interface.
type Transport interface {
	Run(ctx context.Context, input RunInput) EventStream
}

// TransportFunc adapts a plain function to Transport.
type TransportFunc func(ctx context.Context, input RunInput) EventStream

func (f TransportFunc) Run(ctx context.Context, input RunInput) EventStream { return f(ctx, input) }

// PersistentTransport is implemented by agents that support a persistent,
// subscribe-style channel rather than a fresh call per run (spec §4.4,
// connectAgent). Transports that don't implement it cause ConnectAgent to
// fail with KindNotImplemented.
type PersistentTransport interface {
	Transport
	Connect(ctx context.Context, input RunInput) EventStream
}

// next is the handle a Middleware calls to continue the chain.
type next func(ctx context.Context, input RunInput) EventStream

// Middleware wraps a Transport call: it may transform the input, observe or
// filter the outbound event stream, or replace the call entirely (spec
// §6.2, §9 "each middleware exposes run(input, next)").
type Middleware interface {
	Run(ctx context.Context, input RunInput, next next) EventStream
}

// MiddlewareFunc adapts a plain function to Middleware (spec §9, "a
// 'function' form wraps a plain function; this is purely a convenience").
type MiddlewareFunc func(ctx context.Context, input RunInput, next next) EventStream

func (f MiddlewareFunc) Run(ctx context.Context, input RunInput, n next) EventStream {
	return f(ctx, input, n)
}

// composeMiddleware builds the pipeline entry point by right-folding mws
// around terminal, so mws[0] is outermost and sees the original input first
// (spec §4.4, "middleware composition is right-fold").
func composeMiddleware(mws []Middleware, terminal next) next {
	chain := terminal
	for i := len(mws) - 1; i >= 0; i-- {
		mw := mws[i]
		inner := chain
		chain = func(ctx context.Context, input RunInput) EventStream {
			return mw.Run(ctx, input, inner)
		}
	}
	return chain
}

// legacyCompatMiddleware is auto-inserted ahead of an agent's own middleware
// chain when its declared MaxVersion is "0.0.39" or older (spec §4.4,
// SPEC_FULL.md §12): it strips ParentRunID (a field legacy agents don't
// expect) and flattens multi-part message content into plain text before
// the RunInput reaches the transport. It does not touch the returned event
// stream; legacy downgrades only ever apply to outbound input.
type legacyCompatMiddleware struct{}

func (legacyCompatMiddleware) Run(ctx context.Context, input RunInput, n next) EventStream {
	downgraded := input.DeepCopy()
	downgraded.ParentRunID = nil
	for i, m := range downgraded.Messages {
		if parts, ok := m.Content.Parts(); ok {
			downgraded.Messages[i].Content = TextContent(flattenContentParts(parts))
		}
	}
	return n(ctx, downgraded)
}

func flattenContentParts(parts []ContentPart) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString("\n")
		}
		switch p.Type {
		case ContentPartText:
			b.WriteString(p.Text)
		case ContentPartBinary:
			b.WriteString("[attachment: ")
			b.WriteString(p.Filename)
			b.WriteString("]")
		}
	}
	return b.String()
}

// needsLegacyCompat reports whether an agent's declared max-version string
// requires the legacy-compat middleware, using a lightweight dotted-integer
// compare (agent version strings in this ecosystem are plain "x.y.z", never
// pre-release suffixes).
func needsLegacyCompat(maxVersion string) bool {
	if maxVersion == "" {
		return false
	}
	return compareVersions(maxVersion, "0.0.39") <= 0
}

// compareVersions compares two dotted-integer version strings, returning
// -1, 0, or 1 the way strings.Compare does.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
