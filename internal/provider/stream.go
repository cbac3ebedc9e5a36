package provider

import "context"

// Collect drains a provider's stream into a single ChatResponse, forwarding
// each event to onDelta first (if non-nil). It's the non-agent-loop entry
// point used by one-shot completions — the autofixers (spec §4.I) and
// history compaction (spec §4.H) — that need a full response but not the
// agent loop's tool-call accumulation or history bookkeeping.
func Collect(ctx context.Context, p Provider, messages []Message, tools []Tool, onDelta func(StreamEvent)) (*ChatResponse, error) {
	ch, err := p.ChatStream(ctx, messages, tools)
	if err != nil {
		return nil, err
	}

	var result ChatResponse
	for {
		select {
		case <-ctx.Done():
			return &result, ctx.Err()
		case evt, ok := <-ch:
			if !ok {
				return &result, nil
			}
			if onDelta != nil {
				onDelta(evt)
			}
			switch evt.Type {
			case EventContentDelta:
				result.Content += evt.Content
			case EventReasoningDelta:
				result.Reasoning += evt.Content
			case EventUsage:
				if evt.InputTokens > result.InputTokens {
					result.InputTokens = evt.InputTokens
				}
				if evt.OutputTokens > result.OutputTokens {
					result.OutputTokens = evt.OutputTokens
				}
			case EventError:
				return &result, evt.Err
			case EventDone:
				return &result, nil
			}
		}
	}
}
