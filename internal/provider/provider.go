// Package provider defines the LLM provider interface and its
// implementations (spec §4.E, §6). Each provider compiles a slice of
// provider-agnostic Message values — produced from internal/ir by Compile
// in this package — into its own wire format and streams back StreamEvents.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// roleSystem is the well-known role string for system/developer messages,
// shared by every compiler in this package.
const roleSystem = "system"

// ErrProviderNotFound is returned when a requested provider doesn't exist.
var ErrProviderNotFound = errors.New("provider not found")

// Message represents a chat message in the provider-agnostic wire shape.
// Compile produces these from ir.Message; each provider's toXMessages then
// lowers them to its own request format.
type Message struct {
	Role         string
	Content      string
	Reasoning    string
	ToolCalls    []ToolCall
	ToolCallID   string
	FunctionName string
	IsError      bool // marks a tool-result message as a failure (spec §4.D.2)
	CreatedAt    time.Time
	InputTokens  int
	OutputTokens int
	// ProviderExtras carries provider-specific state that must round-trip
	// verbatim across turns (spec §3 "providerExtras", §9 "Provider quirks
	// preserved") — e.g. ThinkingExtra for Anthropic's signed extended
	// thinking blocks. Opaque here; each provider's toXMessages type-asserts
	// the shape it understands and ignores the rest.
	ProviderExtras any
}

// ThinkingExtra is the ProviderExtras shape for a signed extended-thinking
// block (Anthropic Messages API): the signature only verifies against the
// exact thinking text it was issued for, so both must be replayed together
// on the next turn's request or the API rejects it.
type ThinkingExtra struct {
	Text      string
	Signature string
}

// Tool represents a tool/function definition for the LLM.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ToolCall represents a tool call made by the LLM.
type ToolCall struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Arguments        json.RawMessage `json:"arguments"`
	ThoughtSignature string          `json:"thought_signature,omitempty"`
}

// ChatResponse represents a fully collected (non-streaming) chat response.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	Reasoning    string
	InputTokens  int
	OutputTokens int
}

// StreamEventType identifies the kind of streaming event.
type StreamEventType int

const (
	EventContentDelta StreamEventType = iota
	EventReasoningDelta
	EventToolCallBegin
	EventToolCallDelta
	EventUsage
	EventDone
	EventError
)

// StreamEvent represents a single event in a streamed LLM response.
type StreamEvent struct {
	Type StreamEventType

	Content string

	ToolCallIndex int
	ToolCallID    string
	ToolCallName  string
	ToolCallArgs  string

	// ReasoningSignature carries an Anthropic thinking block's signature_delta
	// (spec §9 "Provider quirks preserved"), delivered on its own
	// EventReasoningDelta once the thinking block closes.
	ReasoningSignature string

	InputTokens  int
	OutputTokens int

	Err error
}

// Model describes a model available from a provider.
type Model struct {
	Name       string
	Size       int64
	Digest     string
	ModifiedAt time.Time
	Format     string
	Family     string
	ParamSize  string
	QuantLevel string
	// ContextWindow is the model's total token budget, used to size
	// max_tokens and to cap fetch/mcp tool-result content (spec §4.C, §4.I).
	ContextWindow int
}

// Provider is the interface every LLM backend implements.
type Provider interface {
	Name() string

	// ChatStream sends messages with optional tools and returns a channel of
	// streaming events. The channel is closed after EventDone or EventError.
	ChatStream(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamEvent, error)

	ListModels(ctx context.Context) ([]Model, error)

	Close() error
}

type Factory interface {
	Name() string
	Create(model string, opts Options) Provider
}

// Options holds per-request provider generation settings, including the
// reasoning configuration spec §6 requires: ReasoningLevel selects
// low/medium/high for OpenAI-compatible providers (mapped to a
// reasoning_effort request field); ThinkingBudget is the Anthropic
// thinking.budget_tokens value derived from the same setting
// (low=2048, medium=4096, high=8192).
type Options struct {
	Temperature    float64
	ReasoningLevel string // "", "low", "medium", "high"
	ContextWindow  int
}

// ThinkingBudget maps a reasoning level to an Anthropic thinking token
// budget. Unset or unrecognized levels disable thinking.
func (o Options) ThinkingBudget() int {
	switch o.ReasoningLevel {
	case "low":
		return 2048
	case "medium":
		return 4096
	case "high":
		return 8192
	default:
		return 0
	}
}

// MaxTokens computes the response token ceiling for a request: the
// Anthropic API caps total tokens (thinking + output) at 32000, so the
// budget is subtracted from that ceiling and then clamped to the model's
// own context window.
func (o Options) MaxTokens() int {
	const hardCeiling = 32000
	max := hardCeiling - o.ThinkingBudget()
	if o.ContextWindow > 0 && max > o.ContextWindow {
		max = o.ContextWindow
	}
	if max < 1 {
		max = 1
	}
	return max
}

// Registry holds available provider factories, keyed by configured name
// (not by backend kind — the same backend kind may be registered multiple
// times under different names, e.g. two Anthropic accounts).
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) RegisterFactory(name string, f Factory) {
	r.factories[name] = f
}

func (r *Registry) Create(name, model string, opts Options) (Provider, error) {
	f, ok := r.factories[name]
	if !ok {
		log.Error().Str("name", name).Str("model", model).Msg("Registry.Create: factory not found")
		return nil, ErrProviderNotFound
	}
	return f.Create(model, opts), nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// TaggedModel pairs a provider config name with a model.
type TaggedModel struct {
	ProviderName string
	Model        Model
}

// ListAllModels concurrently fetches models from every registered provider.
// Errors from individual providers are logged and skipped so one
// unavailable provider doesn't block the rest.
func (r *Registry) ListAllModels(ctx context.Context, opts Options) []TaggedModel {
	type result struct {
		name   string
		models []Model
	}
	ch := make(chan result, len(r.factories))
	for name := range r.factories {
		name := name
		go func() {
			prov := r.factories[name].Create("", opts)
			models, err := prov.ListModels(ctx)
			prov.Close()
			if err != nil {
				log.Warn().Str("provider", name).Err(err).Msg("ListAllModels: provider error")
				ch <- result{name: name}
				return
			}
			ch <- result{name: name, models: models}
		}()
	}
	var all []TaggedModel
	for range r.factories {
		res := <-ch
		for _, m := range res.models {
			all = append(all, TaggedModel{ProviderName: res.name, Model: m})
		}
	}
	return all
}
