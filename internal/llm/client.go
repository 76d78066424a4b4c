// Package llm wraps the text-completion providers used by the agents and
// treats their output as untrusted input.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

const (
	defaultOpenAIModel    = "gpt-4-turbo"
	defaultAnthropicModel = "claude-2.1"
)

// ErrBaseURLUnsupported is returned when a base URL is configured for a
// provider whose client cannot be pointed elsewhere.
var ErrBaseURLUnsupported = errors.New("llm.base_url is only supported for the openai provider")

// ErrDisabled is returned by every call when no provider is configured.
var ErrDisabled = errors.New("llm provider not configured: set OPENAI_API_KEY or ANTHROPIC_API_KEY")

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client produces a completion for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the client selected by cfg. Without credentials it returns a
// client that fails every call with ErrDisabled.
func New(cfg config.LLMConfig) (Client, error) {
	var (
		model llms.Model
		err   error
	)

	provider := cfg.ResolvedProvider()
	switch provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(modelOr(cfg.Model, defaultOpenAIModel)),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderAnthropic:
		if cfg.BaseURL != "" {
			return nil, ErrBaseURLUnsupported
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(modelOr(cfg.Model, defaultAnthropicModel)),
		)
	default:
		return Disabled{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", provider, err)
	}

	client := NewLimited(model, provider, cfg.RateLimit, cfg.Burst, cfg.Timeout)
	// The anthropic client only reads the first part of the first message
	// and sends it to the text completion endpoint.
	client.singlePrompt = provider == config.ProviderAnthropic
	return client, nil
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}

// Limited adapts a langchaingo model to Client behind a token-bucket limiter.
type Limited struct {
	model    llms.Model
	provider string
	limiter  *rate.Limiter
	timeout  time.Duration

	singlePrompt bool
}

// NewLimited wraps model. A non-positive rps disables limiting; a zero
// timeout leaves the deadline to the caller's context.
func NewLimited(model llms.Model, provider string, rps float64, burst int, timeout time.Duration) *Limited {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		model:    model,
		provider: provider,
		limiter:  rate.NewLimiter(limit, burst),
		timeout:  timeout,
	}
}

// Provider names the backing provider.
func (c *Limited) Provider() string {
	return c.provider
}

// Complete waits for the limiter and sends the system and user prompts.
func (c *Limited) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var messages []llms.MessageContent
	if c.singlePrompt {
		messages = []llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, completionPrompt(req))}
	} else {
		if req.System != "" {
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, req.System))
		}
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt))
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := c.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", c.provider, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s completion: empty response", c.provider)
	}
	return resp.Choices[0].Content, nil
}

// completionPrompt renders req in the Human/Assistant turn format of the
// text completion API.
func completionPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("\n\nHuman: ")
	if req.System != "" {
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	b.WriteString(req.Prompt)
	b.WriteString("\n\nAssistant:")
	return b.String()
}

// Disabled is the client used when no provider credentials exist.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (string, error) {
	return "", ErrDisabled
}
