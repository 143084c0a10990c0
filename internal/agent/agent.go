// Package agent answers free-form questions about the EJI data with a
// tool-using Claude agent and narrates year-over-year comparisons.
package agent

import (
	"context"
	"fmt"
	"os"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"

	"ejiviz/internal/data"
)

const (
	defaultModel        = "claude-haiku-4-5"
	defaultSystemPrompt = "You are a helpful assistant that explains the CDC Environmental Justice Index (EJI) for New Mexico and its counties. " +
		"Every EJI value is a percentile rank between 0 and 1; higher values mean heavier cumulative burden, and 0.76 or above is Very High Concern. " +
		"Use the tools to look up values instead of guessing. When a value is missing, say No Data rather than treating it as zero."
)

// AgentConfig holds the configuration for creating an ask agent
type AgentConfig struct {
	apiKey       string
	model        string
	systemPrompt string
	loader       data.Loader
	years        []string
	store        SQLRunner
	exclusions   []string
}

// AgentOption is a functional option for configuring the agent
type AgentOption func(*AgentConfig) error

// WithAPIKey sets the Anthropic API key
func WithAPIKey(apiKey string) AgentOption {
	return func(c *AgentConfig) error {
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithAPIKeyFromEnv sets the API key from the ANTHROPIC_API_KEY environment variable
func WithAPIKeyFromEnv() AgentOption {
	return func(c *AgentConfig) error {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		c.apiKey = apiKey
		return nil
	}
}

// WithModel sets the Claude model to use (default: claude-haiku-4-5)
func WithModel(model string) AgentOption {
	return func(c *AgentConfig) error {
		if model == "" {
			return fmt.Errorf("model cannot be empty")
		}
		c.model = model
		return nil
	}
}

// WithSystemPrompt sets a custom system prompt
func WithSystemPrompt(prompt string) AgentOption {
	return func(c *AgentConfig) error {
		c.systemPrompt = prompt
		return nil
	}
}

// WithLoader sets where the data tools read years from
func WithLoader(loader data.Loader, years []string) AgentOption {
	return func(c *AgentConfig) error {
		if loader == nil {
			return fmt.Errorf("loader cannot be nil")
		}
		c.loader = loader
		c.years = years
		return nil
	}
}

// WithSQL enables the read-only SQL tool over the DuckDB store
func WithSQL(store SQLRunner) AgentOption {
	return func(c *AgentConfig) error {
		c.store = store
		return nil
	}
}

// WithToolExclusions sets tool names to leave out
func WithToolExclusions(exclusions []string) AgentOption {
	return func(c *AgentConfig) error {
		c.exclusions = exclusions
		return nil
	}
}

// Asker answers one question per call.
type Asker struct {
	model    string
	generate func(ctx context.Context, prompt string) (string, error)
}

// Model is the Claude model the asker talks to.
func (a *Asker) Model() string { return a.model }

// Ask runs the agent loop for question and returns the final text.
func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	answer, err := a.generate(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	return answer, nil
}

// NewAskAgent creates a Fantasy agent wired to the EJI data tools.
func NewAskAgent(ctx context.Context, opts ...AgentOption) (*Asker, error) {
	config := &AgentConfig{
		model:        defaultModel,
		systemPrompt: defaultSystemPrompt,
	}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if config.apiKey == "" {
		return nil, fmt.Errorf("API key is required (use WithAPIKey or WithAPIKeyFromEnv)")
	}
	if config.loader == nil {
		return nil, fmt.Errorf("data loader is required (use WithLoader)")
	}

	provider, err := anthropic.New(anthropic.WithAPIKey(config.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, config.model)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Claude model: %w", err)
	}

	tools := CreateTools(NewToolset(config.loader, config.years, config.store), config.exclusions)

	agent := fantasy.NewAgent(
		model,
		fantasy.WithSystemPrompt(config.systemPrompt),
		fantasy.WithTools(tools...),
	)

	return &Asker{
		model: config.model,
		generate: func(ctx context.Context, prompt string) (string, error) {
			result, err := agent.Generate(ctx, fantasy.AgentCall{Prompt: prompt})
			if err != nil {
				return "", err
			}
			return result.Response.Content.Text(), nil
		},
	}, nil
}

// GenerateResponse creates an agent and answers question in one call
func GenerateResponse(ctx context.Context, question string, opts ...AgentOption) (string, error) {
	asker, err := NewAskAgent(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create agent: %w", err)
	}
	return asker.Ask(ctx, question)
}
