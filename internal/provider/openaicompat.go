package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAICompatRequest mirrors openai.ChatCompletionRequest but always
// serializes stream (the SDK's omitempty on Stream drops explicit false,
// and reasoning_effort isn't modeled by the SDK's request type at all).
type openAICompatRequest struct {
	Model           string                          `json:"model"`
	Messages        []openai.ChatCompletionMessage  `json:"messages"`
	Tools           []openai.Tool                   `json:"tools,omitempty"`
	Temperature     float32                         `json:"temperature,omitempty"`
	Stream          bool                            `json:"stream"`
	StreamOptions   *chatStreamOptions              `json:"stream_options,omitempty"`
	ReasoningEffort string                          `json:"reasoning_effort,omitempty"`
}

// OpenAICompatProvider implements Provider against any OpenAI Chat
// Completions-compatible HTTP endpoint: vLLM, llama.cpp server, an
// Ollama instance's /v1 surface, or OpenAI itself. Grounded on the
// teacher's OllamaProvider/VLLMProvider, which are near-duplicates of this
// shape; consolidated into one generic type instead of three copies.
type OpenAICompatProvider struct {
	name        string
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	model       string
	temperature float64
	reasoning   string
}

// NewOpenAICompat creates a provider against baseURL (must already include
// any version path segment, e.g. "http://localhost:8000/v1").
func NewOpenAICompat(name, baseURL, apiKey, model string, opts Options) *OpenAICompatProvider {
	return &OpenAICompatProvider{
		name:        name,
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{},
		model:       model,
		temperature: opts.Temperature,
		reasoning:   opts.ReasoningLevel,
	}
}

func (p *OpenAICompatProvider) Name() string { return p.name }

func (p *OpenAICompatProvider) ChatStream(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamEvent, error) {
	req := openAICompatRequest{
		Model:           p.model,
		Messages:        mergeSystemMessagesOpenAI(toOpenAIMessages(messages)),
		Tools:           toOpenAITools(tools),
		Temperature:     float32(p.temperature),
		Stream:          true,
		StreamOptions:   &chatStreamOptions{IncludeUsage: true},
		ReasoningEffort: p.reasoning,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	reader, err := httpDoSSE(ctx, httpRequestConfig{
		client:   p.httpClient,
		url:      p.baseURL + "/chat/completions",
		body:     body,
		headers:  headers,
		provider: p.name,
		model:    p.model,
	})
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamEvent)
	go func() {
		defer close(ch)
		defer reader.Close()
		parseSSEStream(ctx, reader, ch)
	}()
	return ch, nil
}

type openAIModelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Created int64  `json:"created"`
	} `json:"data"`
}

func (p *OpenAICompatProvider) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list models status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed openAIModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	models := make([]Model, len(parsed.Data))
	for i, m := range parsed.Data {
		models[i] = Model{Name: m.ID, ModifiedAt: time.Unix(m.Created, 0)}
	}
	return models, nil
}

func (p *OpenAICompatProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// OpenAICompatFactory builds OpenAICompatProvider instances for a fixed
// base URL and optional API key, used for vLLM/self-hosted/OpenAI-native
// configurations alike.
type OpenAICompatFactory struct {
	name    string
	baseURL string
	apiKey  string
}

func NewOpenAICompatFactory(name, baseURL, apiKey string) *OpenAICompatFactory {
	return &OpenAICompatFactory{name: name, baseURL: baseURL, apiKey: apiKey}
}

func (f *OpenAICompatFactory) Name() string { return f.name }

func (f *OpenAICompatFactory) Create(model string, opts Options) Provider {
	return NewOpenAICompat(f.name, f.baseURL, f.apiKey, model, opts)
}
