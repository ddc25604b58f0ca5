// Package ollama implements embedding and generation over the Ollama HTTP
// API, with retry, circuit breaking, and embed rate limiting.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mfedorov/legalrag/internal/core/ports"
	"github.com/mfedorov/legalrag/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	runner      *resilience.Runner
	embedLimit  *rate.Limiter
}

type Options struct {
	GenModel    string
	EmbedModel  string
	Temperature float64
	// EmbedRequestsPerSecond caps embed calls so bulk ingestion does not
	// starve interactive queries. Zero disables the limit.
	EmbedRequestsPerSecond float64
}

func New(baseURL string, opts Options, runner *resilience.Runner) *Client {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.EmbedRequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.EmbedRequestsPerSecond), 1)
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    opts.GenModel,
		embedModel:  opts.EmbedModel,
		temperature: opts.Temperature,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		runner:      runner,
		embedLimit:  limiter,
	}
}

type Embedder struct {
	client *Client
}

var _ ports.Embedder = (*Embedder)(nil)

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := e.client.embedLimit.Wait(ctx); err != nil {
		return nil, err
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := e.client.runner.Do(ctx, "embed", classifyOllamaError, func(ctx context.Context) error {
		return e.client.postJSON(ctx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed count mismatch: sent %d texts, got %d vectors", len(texts), len(response.Embeddings))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

var _ ports.Generator = (*Generator)(nil)

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	request := map[string]any{
		"model":  g.client.genModel,
		"system": systemPrompt,
		"prompt": userPrompt,
		"stream": false,
		"options": map[string]any{
			"temperature": g.client.temperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	err := g.client.runner.Do(ctx, "generate", classifyOllamaError, func(ctx context.Context) error {
		return g.client.postJSON(ctx, "/api/generate", request, &response, "generate")
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}
	return strings.TrimSpace(response.Response), nil
}
