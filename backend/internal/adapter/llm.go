package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"cose-ai/backend/internal/state"
	apperrors "cose-ai/backend/pkg/errors"
	"cose-ai/backend/pkg/logger"
)

// Options configures the LLM adapter
type Options struct {
	APIKey    string // empty selects demo mode
	BaseURL   string // empty uses the OpenAI default
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Persona   state.Persona
}

// LLMAdapter is the completion gateway. With no API key it never touches the network
// and answers with a fixed demo-mode reply.
type LLMAdapter struct {
	client    *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	persona   state.Persona
	logger    *zap.Logger
}

// NewLLMAdapter creates a new LLM adapter
func NewLLMAdapter(opts Options) *LLMAdapter {
	a := &LLMAdapter{
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		persona:   opts.Persona,
		logger:    logger.Named("llm"),
	}

	if opts.APIKey == "" {
		a.logger.Warn("No language-model API key configured, running in demo mode")
		return a
	}

	config := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	a.client = openai.NewClientWithConfig(config)
	return a
}

// DemoMode reports whether the adapter answers without calling the model
func (a *LLMAdapter) DemoMode() bool {
	return a.client == nil
}

// Model returns the configured model identifier
func (a *LLMAdapter) Model() string {
	return a.model
}

// FallbackReply is the demo-mode answer for a user message
func (a *LLMAdapter) FallbackReply(userMsg string) string {
	return fmt.Sprintf("I'm %s, your %s assistant. (Note: API key not configured - using demo mode). You asked: %s",
		a.persona.Name, a.persona.DomainShort, userMsg)
}

// Complete sends the system prompt and user message as a two-message transcript
// and returns the first choice verbatim. Failures come back as ErrCompletionFailed
// and are not retried.
func (a *LLMAdapter) Complete(ctx context.Context, systemPrompt, userMsg string) (string, error) {
	if a.DemoMode() {
		return a.FallbackReply(userMsg), nil
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMsg,
			},
		},
		MaxTokens: a.maxTokens,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.logger.Error("LLM request failed",
			zap.Error(err),
			zap.String("model", a.model),
			zap.Duration("latency", time.Since(start)),
		)
		return "", apperrors.NewCompletionFailed(a.model, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.NewCompletionFailed(a.model, apperrors.ErrNoChoices)
	}

	a.logger.Debug("LLM response generated",
		zap.String("model", a.model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", time.Since(start)),
	)

	return resp.Choices[0].Message.Content, nil
}
