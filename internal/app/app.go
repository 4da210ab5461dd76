// Package app builds the pipeline service from configuration. The HTTP server
// and the CLI share it.
package app

import (
	"fmt"
	"log"

	"sitegen_server/config"
	"sitegen_server/internal/ai"
	"sitegen_server/internal/orchestrator"
	"sitegen_server/internal/pipeline"
	"sitegen_server/internal/policy"
	"sitegen_server/internal/sandbox"
	"sitegen_server/internal/store"
)

// App is the wired set of collaborators.
type App struct {
	Policy    policy.GenerationPolicy
	Completer orchestrator.Completer
	Service   *pipeline.Service
}

// LoadPolicy returns the default policy, overlaid with cfg.PolicyFile when set.
func LoadPolicy(cfg config.Config) (policy.GenerationPolicy, error) {
	if cfg.PolicyFile == "" {
		return policy.Default(), nil
	}
	pol, err := policy.LoadFile(cfg.PolicyFile)
	if err != nil {
		return policy.GenerationPolicy{}, err
	}
	log.Printf("Info: loaded generation policy from %s", cfg.PolicyFile)
	return pol, nil
}

// New wires the service. Stages go through the completion proxy when
// COMPLETION_ENDPOINT is set and through OpenAI otherwise.
func New(cfg config.Config) (*App, error) {
	pol, err := LoadPolicy(cfg)
	if err != nil {
		return nil, err
	}

	generator := ai.NewGenerator(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
	var completer orchestrator.Completer = generator
	if cfg.CompletionEndpoint != "" {
		completer = ai.NewProxyClient(cfg.CompletionAPIKey, cfg.CompletionEndpoint, cfg.Timeout())
		log.Printf("Info: using completion proxy at %s", cfg.CompletionEndpoint)
	} else {
		log.Printf("Info: using OpenAI model %s", cfg.OpenAIModel)
	}

	projects, err := store.New[*pipeline.Project](cfg.ProjectCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create project store: %w", err)
	}

	deps := pipeline.Deps{
		Runner:      orchestrator.New(completer, pol, cfg.UnitDelay()),
		Policy:      pol,
		Store:       projects,
		AutoHandoff: cfg.AutoHandoff,
	}
	if cfg.UseLLMPlanner && cfg.OpenAIKey != "" {
		deps.Planner = generator
	}
	if cfg.WorkspaceDir != "" {
		deps.Runtime = sandbox.NewRuntime(cfg.WorkspaceDir, cfg.RuntimeCommand)
	}

	return &App{
		Policy:    pol,
		Completer: completer,
		Service:   pipeline.NewService(deps),
	}, nil
}
