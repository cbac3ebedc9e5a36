// Package agent implements the agent loop (spec §4.F): a streamed LLM
// request, incremental parsing of text/reasoning/tool-call fragments,
// cancellation, usage accounting, tool-call argument repair, and
// continuation until a terminal turn. Grounded on the teacher's
// internal/llm/loop.go (ProcessTurn), adapted from a flat
// []provider.Message accumulator to the spec's history.Log + internal/ir
// pipeline, and given the streaming <think> split (spec §4.A) the teacher
// never implements.
package agent

import (
	"github.com/octocli/octo/internal/history"
)

// estimateTokens is the same char/4 heuristic the teacher's llm package
// doesn't need (it never windows), used here only to decide when to drop
// the oldest items (spec §4.F "windowing"). It's intentionally crude: the
// estimate is recomputed from the items for every request, and nothing
// adjusts it against the provider's reported usage.
func estimateTokens(s string) int {
	return len(s) / 4
}

// itemTokens estimates one history item's contribution to the request.
func itemTokens(it history.Item) int {
	n := estimateTokens(it.Content) + estimateTokens(it.ReasoningContent) + estimateTokens(it.Error) + estimateTokens(it.Summary)
	if it.ToolCall != nil {
		n += estimateTokens(it.ToolCall.Arguments)
	}
	return n
}

// unit is a whole assistant/tool pair (or a lone user item): the smallest
// chunk windowing may drop, per spec §4.F "never split a pair".
type unit struct {
	items  []history.Item
	tokens int
}

// group partitions items into units: each unit starts at a KindUser,
// KindAssistant, KindNotification or KindPlanWritten item and absorbs every
// immediately following tool-shaped item, which by history invariant 2
// belongs to the preceding assistant's tool call. A KindCompactionCheckpoint
// starts its own single-item unit and is never dropped by Window (the
// checkpoint is the windowing floor).
func group(items []history.Item) []unit {
	var units []unit
	for _, it := range items {
		switch it.Kind {
		case history.KindUser, history.KindAssistant, history.KindCompactionCheckpoint, history.KindNotification, history.KindPlanWritten:
			units = append(units, unit{items: []history.Item{it}, tokens: itemTokens(it)})
		default:
			if len(units) == 0 {
				units = append(units, unit{})
			}
			last := &units[len(units)-1]
			last.items = append(last.items, it)
			last.tokens += itemTokens(it)
		}
	}
	return units
}

// Window drops the oldest whole units (never splitting a pair, spec §4.F)
// until the remaining items' estimated token count fits within budget. The
// most recent compaction-checkpoint, if present, and everything after it is
// never dropped — that is the windowing floor; without a checkpoint, the
// most recent unit is the floor. Returns the kept items and
// whether anything was dropped (appliedWindow, spec §4.F step 1: "the
// system prompt tells the model this occurred").
//
// If the floor alone still exceeds budget, Window returns ok=false instead
// of silently truncating further (spec §4.F "if a hard minimum cannot be
// reached, surface an error").
func Window(items []history.Item, budget int) (kept []history.Item, applied bool, ok bool) {
	units := group(items)

	floor := max(len(units)-1, 0)
	for i := len(units) - 1; i >= 0; i-- {
		if units[i].items[0].Kind == history.KindCompactionCheckpoint {
			floor = i
			break
		}
	}

	total := 0
	for _, u := range units {
		total += u.tokens
	}
	if total <= budget {
		return items, false, true
	}

	dropped := false
	start := 0
	for start < floor && total > budget {
		total -= units[start].tokens
		start++
		dropped = true
	}

	floorTokens := 0
	for i := floor; i < len(units); i++ {
		floorTokens += units[i].tokens
	}
	if floorTokens > budget {
		return nil, false, false
	}

	kept = make([]history.Item, 0, len(items))
	for _, u := range units[start:] {
		kept = append(kept, u.items...)
	}
	return kept, dropped, true
}
