package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"sitegen_server/internal/ai/prompts"
	"sitegen_server/internal/plan"
)

// DraftPlan asks the model for a project plan (kind, components, pages,
// dependencies) as JSON. The caller merges it over the heuristic plan.
func (g *Generator) DraftPlan(ctx context.Context, request string, allowed []string) (plan.Draft, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.SystemPrompt(ModePlan)},
			{Role: openai.ChatMessageRoleUser, Content: prompts.PlanPrompt(request, allowed)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{ // Request JSON output
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens:   800,
		Temperature: 0.2,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return plan.Draft{}, fmt.Errorf("openai chat completion for plan failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Printf("OpenAI usage for failed plan request: %+v", resp.Usage)
		return plan.Draft{}, errors.New("openai returned empty response for plan")
	}
	return ParseDraft(resp.Choices[0].Message.Content)
}

// ParseDraft decodes a plan draft from model output, tolerating code fences and
// a wrapping object such as {"plan": {...}}.
func ParseDraft(llmOutput string) (plan.Draft, error) {
	cleanedOutput := strings.TrimSpace(llmOutput)
	cleanedOutput = strings.TrimPrefix(cleanedOutput, "```json")
	cleanedOutput = strings.TrimPrefix(cleanedOutput, "```")
	cleanedOutput = strings.TrimSuffix(cleanedOutput, "```")
	cleanedOutput = strings.TrimSpace(cleanedOutput)

	var draft plan.Draft
	err := json.Unmarshal([]byte(cleanedOutput), &draft)
	if err == nil && !draftEmpty(draft) {
		return draft, nil
	}

	var wrapper map[string]json.RawMessage
	if errWrapper := json.Unmarshal([]byte(cleanedOutput), &wrapper); errWrapper == nil {
		for _, key := range []string{"plan", "project", "result", "data", "output"} {
			raw, ok := wrapper[key]
			if !ok {
				continue
			}
			var inner plan.Draft
			if errInner := json.Unmarshal(raw, &inner); errInner == nil && !draftEmpty(inner) {
				log.Printf("Parsed plan draft assuming wrapped structure with key '%s'.", key)
				return inner, nil
			}
		}
	}

	if err == nil {
		err = errors.New("no plan fields present")
	}
	return plan.Draft{}, fmt.Errorf("failed to parse plan draft: %w", err)
}

func draftEmpty(d plan.Draft) bool {
	return d.ProjectKind == "" && len(d.Components) == 0 && len(d.Pages) == 0 && len(d.Dependencies) == 0
}
