// Package provider implements the AI service clients: OpenAI-compatible
// chat and embeddings, and a local ONNX embedding fallback.
package provider

import (
	"context"
	"errors"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string
	Content string
}

// ChatRequest asks for one completion.
type ChatRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse carries the completion text and token accounting.
type ChatResponse struct {
	Content string
	Usage   Usage
}

// Usage is token accounting for one request.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ErrNotConfigured is returned by providers that require credentials the
// configuration does not carry.
var ErrNotConfigured = errors.New("provider not configured")

// TextGenerator produces chat completions.
type TextGenerator interface {
	Generate(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Embedder turns text into fixed-length vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	Dimension() int
}
