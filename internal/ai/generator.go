package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"sitegen_server/internal/ai/prompts"
)

// Completion modes, one per generation stage plus planning.
const (
	ModeStructure = "structure"
	ModeComponent = "component"
	ModePage      = "page"
	ModeRoot      = "root"
	ModePlan      = "plan"
)

// CompletionRequest is the body of one streaming completion call.
type CompletionRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Mode   string `json:"mode"`
}

// Generator talks to an OpenAI-compatible chat completion API.
type Generator struct {
	client *openai.Client
	model  string
}

// NewGenerator builds a Generator. baseURL may point at any OpenAI-compatible
// endpoint; empty keeps the default.
func NewGenerator(apiKey, baseURL, model string) *Generator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &Generator{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// StreamCompletion sends one prompt and calls onChunk with each content delta
// as it arrives. It returns the concatenated text.
func (g *Generator) StreamCompletion(ctx context.Context, req CompletionRequest, onChunk func(string)) (string, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.SystemPrompt(req.Mode)},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: 0.3, // Lower temperature for more predictable code generation
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion stream failed: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sb.String(), fmt.Errorf("openai stream read failed after %d bytes: %w", sb.Len(), err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}

	if sb.Len() == 0 {
		log.Printf("WARN: openai stream for mode %q returned no content", req.Mode)
	}
	return sb.String(), nil
}
