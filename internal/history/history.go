// Package history implements Octo's append-only session log (spec §3).
//
// Every item carries a strictly increasing SequenceID. The log is owned
// exclusively by the agent loop; everything else (compilers, context space)
// borrows it read-only.
package history

import (
	"sync"
	"sync/atomic"
)

// SequenceID orders history items strictly in append order.
type SequenceID uint64

// Kind discriminates the HistoryItem variants listed in spec §3.
type Kind int

const (
	KindUser Kind = iota
	KindAssistant
	KindTool
	KindToolOutput
	KindFileRead
	KindFileMutate
	KindToolReject
	KindToolFailed
	KindToolMalformed
	KindFileOutdated
	KindFileUnreadable
	KindCompactionCheckpoint
	KindNotification
	KindPlanWritten
)

// ToolCallRef identifies the assistant tool call a follow-up item belongs to.
type ToolCallRef struct {
	ToolCallID string
	ToolName   string
	Arguments  string // raw JSON arguments, as sent to the provider
}

// Item is the single tagged-union representation of every history variant.
// Only the fields relevant to Kind are populated; this mirrors the flat
// "one struct, discriminator field" shape the teacher uses for its own
// provider.Message rather than introducing interface-based polymorphism,
// per spec §9 ("variants over inheritance").
type Item struct {
	ID   SequenceID
	Kind Kind

	// user
	Content string
	Images  []string // inline image data URLs

	// assistant
	ReasoningContent string
	ToolCall         *ToolCallRef
	InputTokens      int
	OutputTokens     int
	ProviderExtras   any // opaque provider-preserved state (e.g. signed thinking blocks)

	// tool / tool-output / file-read / file-mutate / tool-reject / tool-failed / tool-malformed / file-outdated / file-unreadable
	Path  string // absolute path, for file-* variants
	Lines int    // line count, for tool-output when applicable
	Error string // error text, for failure variants

	// compaction-checkpoint
	Summary string

	// plan-written
	PlanFilePath string
}

// Log is the process-owned, append-only session history.
type Log struct {
	mu     sync.RWMutex
	items  []Item
	nextID atomic.Uint64
}

// New creates an empty log.
func New() *Log {
	return &Log{}
}

// Append assigns the next SequenceID to item and appends it to the log.
// It returns the assigned ID.
func (l *Log) Append(item Item) SequenceID {
	id := SequenceID(l.nextID.Add(1))
	item.ID = id

	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()

	return id
}

// Items returns a snapshot copy of the current log contents, in append order.
func (l *Log) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of items currently in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Replace atomically swaps the entire log contents — used by compaction
// (spec §4.H) to replace a prefix with a single checkpoint item. Callers
// must supply items already carrying valid, strictly increasing IDs; the
// log's ID counter is not rewound, so subsequent Append calls keep issuing
// larger IDs.
func (l *Log) Replace(items []Item) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]Item(nil), items...)
}

// LastToolResultIndex returns the index of the most recent tool/file-*
// result item, or -1 if none exists. Used by the agent loop to inject
// goal-recitation reminders (spec §9 supplement) onto the tail of history.
func (l *Log) LastToolResultIndex() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.items) - 1; i >= 0; i-- {
		switch l.items[i].Kind {
		case KindToolOutput, KindFileRead, KindFileMutate, KindToolReject,
			KindToolFailed, KindToolMalformed, KindFileOutdated, KindFileUnreadable:
			return i
		}
	}
	return -1
}

// MutateAt rewrites the item at index i in place. Used only to append a
// system-reminder suffix to the most recent tool result; i must come from
// LastToolResultIndex called under no intervening Append.
func (l *Log) MutateAt(i int, fn func(*Item)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 || i >= len(l.items) {
		return
	}
	fn(&l.items[i])
}
