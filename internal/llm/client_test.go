package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

type stubModel struct {
	messages []llms.MessageContent
	opts     llms.CallOptions
	reply    string
	err      error
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, o := range options {
		o(&s.opts)
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestLimited_Complete(t *testing.T) {
	model := &stubModel{reply: `{"ok":true}`}
	client := NewLimited(model, "stub", 0, 0, time.Second)

	out, err := client.Complete(context.Background(), Request{
		System:      "you are a test",
		Prompt:      "hello",
		Temperature: 0.3,
		MaxTokens:   100,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "stub", client.Provider())

	require.Len(t, model.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[1].Role)
	assert.InDelta(t, 0.3, model.opts.Temperature, 1e-9)
	assert.Equal(t, 100, model.opts.MaxTokens)
}

func TestLimited_SinglePrompt(t *testing.T) {
	model := &stubModel{reply: "x"}
	client := NewLimited(model, "stub", 0, 0, 0)
	client.singlePrompt = true

	_, err := client.Complete(context.Background(), Request{System: "you are a test", Prompt: "hello"})
	require.NoError(t, err)

	require.Len(t, model.messages, 1)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.messages[0].Role)
	require.Len(t, model.messages[0].Parts, 1)
	assert.Equal(t, llms.TextContent{Text: "\n\nHuman: you are a test\n\nhello\n\nAssistant:"}, model.messages[0].Parts[0])
}

func TestLimited_NoSystemPrompt(t *testing.T) {
	model := &stubModel{reply: "x"}
	client := NewLimited(model, "stub", 0, 0, 0)

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Len(t, model.messages, 1)
}

func TestLimited_ProviderError(t *testing.T) {
	model := &stubModel{err: errors.New("quota exceeded")}
	client := NewLimited(model, "stub", 0, 0, 0)

	_, err := client.Complete(context.Background(), Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestLimited_HonoursCancelledContext(t *testing.T) {
	model := &stubModel{reply: "x"}
	client := NewLimited(model, "stub", 0.001, 1, 0)

	// Drain the single token, then the next wait must observe cancellation.
	_, err := client.Complete(context.Background(), Request{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Complete(ctx, Request{Prompt: "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestNew_DisabledWithoutKeys(t *testing.T) {
	client, err := New(config.LLMConfig{})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNew_BuildsConfiguredProvider(t *testing.T) {
	client, err := New(config.LLMConfig{OpenAIAPIKey: "sk-test", RateLimit: 1, Burst: 1})
	require.NoError(t, err)
	limited, ok := client.(*Limited)
	require.True(t, ok)
	assert.Equal(t, config.ProviderOpenAI, limited.Provider())

	client, err = New(config.LLMConfig{AnthropicAPIKey: "sk-ant-test"})
	require.NoError(t, err)
	limited, ok = client.(*Limited)
	require.True(t, ok)
	assert.Equal(t, config.ProviderAnthropic, limited.Provider())
	assert.True(t, limited.singlePrompt)
}

func TestNew_AnthropicRejectsBaseURL(t *testing.T) {
	_, err := New(config.LLMConfig{AnthropicAPIKey: "sk-ant-test", BaseURL: "http://localhost:9999"})
	assert.ErrorIs(t, err, ErrBaseURLUnsupported)

	client, err := New(config.LLMConfig{OpenAIAPIKey: "sk-test", BaseURL: "http://localhost:9999/v1"})
	require.NoError(t, err)
	assert.False(t, client.(*Limited).singlePrompt)
}
