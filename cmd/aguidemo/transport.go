package main

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/kadirpekel/agui-go/pkg/aguicore"
)

// echoTransport is a toy Transport standing in for a real remote agent: it
// replies to the caller's last message by upper-casing it, streamed as a
// single TEXT_MESSAGE delta.
type echoTransport struct{}

func (echoTransport) Run(ctx context.Context, input aguicore.RunInput) aguicore.EventStream {
	reply := "..."
	for i := len(input.Messages) - 1; i >= 0; i-- {
		if input.Messages[i].Role == aguicore.RoleUser {
			if text, ok := input.Messages[i].Content.Text(); ok {
				reply = strings.ToUpper(text)
			}
			break
		}
	}

	messageID := uuid.NewString()

	base := func(t aguicore.EventType) aguicore.Base { return aguicore.Base{EventType: t} }

	return func(yield func(aguicore.Event, error) bool) {
		if !yield(aguicore.RunStartedEvent{Base: base(aguicore.EventTypeRunStarted), ThreadID: input.ThreadID, RunID: input.RunID}, nil) {
			return
		}
		if !yield(aguicore.TextMessageStartEvent{Base: base(aguicore.EventTypeTextMessageStart), MessageID: messageID, Role: string(aguicore.RoleAssistant)}, nil) {
			return
		}
		if !yield(aguicore.TextMessageContentEvent{Base: base(aguicore.EventTypeTextMessageContent), MessageID: messageID, Delta: reply}, nil) {
			return
		}
		if !yield(aguicore.TextMessageEndEvent{Base: base(aguicore.EventTypeTextMessageEnd), MessageID: messageID}, nil) {
			return
		}
		yield(aguicore.RunFinishedEvent{Base: base(aguicore.EventTypeRunFinished), ThreadID: input.ThreadID, RunID: input.RunID, Result: reply}, nil)
	}
}
