package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fundsight/fundsight/internal/config"
	"github.com/fundsight/fundsight/internal/log"
)

// OpenAIProvider talks to an OpenAI-compatible endpoint for chat and
// embeddings. Transient failures are retried with exponential backoff.
type OpenAIProvider struct {
	client    *openai.Client
	endpoint  config.Endpoint
	dimension int
	logger    *log.Logger
}

// NewOpenAIProvider creates an OpenAIProvider from endpoint configuration.
func NewOpenAIProvider(endpoint config.Endpoint, dimension int, logger *log.Logger) *OpenAIProvider {
	cfg := openai.DefaultConfig(endpoint.APIKey())
	if endpoint.BaseURL() != "" {
		cfg.BaseURL = endpoint.BaseURL()
	}
	cfg.HTTPClient = &http.Client{Timeout: endpoint.Timeout()}
	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(cfg),
		endpoint:  endpoint,
		dimension: dimension,
		logger:    logger,
	}
}

// Generate produces one chat completion.
func (p *OpenAIProvider) Generate(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if !p.endpoint.IsConfigured() {
		return ChatResponse{}, ErrNotConfigured
	}
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, "chat completion", func() error {
		var callErr error
		resp, callErr = p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       p.endpoint.Model(),
			Messages:    messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		return callErr
	})
	if err != nil {
		return ChatResponse{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, errors.New("chat completion: no choices returned")
	}
	return ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Embed returns one vector per input text.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !p.endpoint.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	var resp openai.EmbeddingResponse
	err := p.withRetry(ctx, "embeddings", func() error {
		var callErr error
		resp, callErr = p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(p.endpoint.Model()),
			Input: texts,
		})
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float64, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float64, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float64(f)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Dimension returns the embedding dimension.
func (p *OpenAIProvider) Dimension() int { return p.dimension }

// withRetry runs fn with exponential backoff. Authentication and bad
// request failures are not retried.
func (p *OpenAIProvider) withRetry(ctx context.Context, label string, fn func() error) error {
	delay := p.endpoint.InitialDelay()
	var lastErr error
	for attempt := 1; attempt <= p.endpoint.MaxRetries(); attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
		if attempt == p.endpoint.MaxRetries() {
			break
		}
		p.logger.Warn("provider request failed, retrying",
			"operation", label, "attempt", attempt, "delay", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * p.endpoint.BackoffFactor())
	}
	return fmt.Errorf("%s failed after %d attempts: %w", label, p.endpoint.MaxRetries(), lastErr)
}

func isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest, http.StatusNotFound:
			return false
		}
		return true
	}
	// Transport-level errors (timeouts, resets) are retryable.
	return !strings.Contains(err.Error(), "context canceled")
}
