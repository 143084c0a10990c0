package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ejiviz/internal/data"
	"ejiviz/internal/eji"
	"ejiviz/internal/logging"
)

const narratorSystemPrompt = "You write short, plain-language summaries of how Environmental Justice Index percentile ranks changed between two years for a New Mexico geography. " +
	"Use only the numbers given. Higher values mean heavier burden, so an increase is a worse outcome. " +
	"Mention metrics marked No Data as unavailable. Answer in at most two short paragraphs of markdown."

// NarrationCache stores generated narrations by key.
type NarrationCache interface {
	LoadNarration(ctx context.Context, key string, maxAge time.Duration) (string, error)
	SaveNarration(ctx context.Context, key, model, content string) error
}

// completeFunc sends one system and user prompt and returns the reply text.
type completeFunc func(ctx context.Context, model, system, prompt string) (string, error)

// Narrator explains comparison views with Claude, caching by prompt.
type Narrator struct {
	model    string
	cache    NarrationCache
	cacheTTL time.Duration
	logger   *slog.Logger
	complete completeFunc
}

// NarratorOption configures a Narrator.
type NarratorOption func(*Narrator)

// WithNarrationCache caches narrations for ttl.
func WithNarrationCache(cache NarrationCache, ttl time.Duration) NarratorOption {
	return func(n *Narrator) {
		n.cache = cache
		n.cacheTTL = ttl
	}
}

// WithNarratorLogger sets the logger.
func WithNarratorLogger(logger *slog.Logger) NarratorOption {
	return func(n *Narrator) { n.logger = logger }
}

// NewNarrator creates a Narrator backed by the Anthropic Messages API.
func NewNarrator(apiKey, model string, opts ...NarratorOption) (*Narrator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return newNarrator(model, messagesComplete(&client), opts...), nil
}

func newNarrator(model string, complete completeFunc, opts ...NarratorOption) *Narrator {
	if model == "" {
		model = defaultModel
	}
	n := &Narrator{model: model, complete: complete, cacheTTL: 30 * 24 * time.Hour}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = logging.OrDiscard(n.logger)
	return n
}

func messagesComplete(client *anthropic.Client) completeFunc {
	return func(ctx context.Context, model, system, prompt string) (string, error) {
		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: 1024,
			System:    []anthropic.TextBlockParam{{Text: system}},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}
		message, err := client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("Claude API error: %w", err)
		}

		var text strings.Builder
		for _, block := range message.Content {
			if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
				text.WriteString(textBlock.Text)
			}
		}
		if text.Len() == 0 {
			return "", fmt.Errorf("no text response from Claude")
		}
		return text.String(), nil
	}
}

// Model is the Claude model used for narration.
func (n *Narrator) Model() string { return n.model }

// Explain narrates view. Views without a match are not sent to the model.
func (n *Narrator) Explain(ctx context.Context, view eji.ComparisonView) (string, error) {
	if !view.Found {
		return view.Notice, nil
	}
	prompt := NarrationPrompt(view)
	key := NarrationKey(n.model, prompt)

	if n.cache != nil {
		cached, err := n.cache.LoadNarration(ctx, key, n.cacheTTL)
		if err == nil {
			n.logger.Debug("Narration cache hit", "key", key)
			return cached, nil
		}
		if !errors.Is(err, data.ErrCacheMiss) {
			n.logger.Warn("Narration cache lookup failed", "error", err)
		}
	}

	text, err := n.complete(ctx, n.model, narratorSystemPrompt, prompt)
	if err != nil {
		n.logger.Error("Narration failed", "area", view.Area, "baseline", view.Baseline, "other", view.Other, "error", err)
		return "", err
	}
	text = strings.TrimSpace(text)

	if n.cache != nil {
		if err := n.cache.SaveNarration(ctx, key, n.model, text); err != nil {
			n.logger.Warn("Failed to cache narration", "error", err)
		}
	}
	return text, nil
}

// NarrationPrompt lists the comparison figures the model may use.
func NarrationPrompt(view eji.ComparisonView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Geography: %s\nBaseline year: %s\nComparison year: %s\n\n", view.Area, view.Baseline, view.Other)
	b.WriteString("Metric | Baseline | Comparison | Change\n")
	for _, d := range view.Discrepancies {
		change := eji.NoDataText
		if d.Direction != eji.Incomparable {
			change = fmt.Sprintf("%+.3f (%s)", d.Signed(), d.Direction)
		}
		fmt.Fprintf(&b, "%s | %s | %s | %s\n", d.Metric.Label(), d.Baseline.Text(), d.Other.Text(), change)
	}
	if note := view.DroppedNote(); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
		b.WriteString("\n")
	}
	return b.String()
}

// NarrationKey identifies a narration by model and prompt.
func NarrationKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}
