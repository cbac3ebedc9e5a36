package provider

import (
	"context"
	"testing"
)

func TestAnthropicBlockDeltaCapturesThinkingSignature(t *testing.T) {
	ctx := context.Background()
	bt := newAnthropicBlockTracker()
	ch := make(chan StreamEvent, 4)

	if !bt.handleBlockStart(ctx, ch, `{"type":"content_block_start","index":0,"content_block":{"type":"thinking"}}`) {
		t.Fatalf("handleBlockStart returned false")
	}
	if !bt.blockIsThink[0] {
		t.Fatalf("expected index 0 to be tracked as a thinking block")
	}

	if !bt.handleBlockDelta(ctx, ch, `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"let me consider"}}`) {
		t.Fatalf("handleBlockDelta (thinking_delta) returned false")
	}
	if !bt.handleBlockDelta(ctx, ch, `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig-xyz"}}`) {
		t.Fatalf("handleBlockDelta (signature_delta) returned false")
	}
	close(ch)

	var gotText, gotSig string
	for evt := range ch {
		if evt.Type != EventReasoningDelta {
			t.Fatalf("got event type %v, want EventReasoningDelta", evt.Type)
		}
		gotText += evt.Content
		if evt.ReasoningSignature != "" {
			gotSig = evt.ReasoningSignature
		}
	}
	if gotText != "let me consider" {
		t.Fatalf("got thinking text %q", gotText)
	}
	if gotSig != "sig-xyz" {
		t.Fatalf("got signature %q", gotSig)
	}
}

func TestAnthropicBlockDeltaIgnoresSignatureOutsideThinkingBlock(t *testing.T) {
	ctx := context.Background()
	bt := newAnthropicBlockTracker()
	ch := make(chan StreamEvent, 4)

	bt.handleBlockStart(ctx, ch, `{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","id":"tc1","name":"read"}}`)
	<-ch // drain EventToolCallBegin

	bt.handleBlockDelta(ctx, ch, `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig-xyz"}}`)
	close(ch)

	for evt := range ch {
		t.Fatalf("expected no events for a signature_delta on a tool_use block, got %+v", evt)
	}
}
