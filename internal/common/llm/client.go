// Package llm holds the text-completion backends used for intent
// classification and reply synthesis.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"voice-agent-workers/internal/common/config"
	httpclient "voice-agent-workers/internal/common/http"
	"voice-agent-workers/internal/common/logger"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrEmptyCompletion = errors.New("LLM_EMPTY_COMPLETION")
	ErrBackendStatus   = errors.New("LLM_BACKEND_STATUS")
	ErrMissingAPIKey   = errors.New("LLM_MISSING_API_KEY")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client completes a conversation. system carries the instructions and
// messages the turns, most recent last.
type Client interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, system string, messages []Message) (string, error)

func (f ClientFunc) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	return f(ctx, system, messages)
}

// Options are the provider-independent knobs shared by every backend.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// New builds the configured backend wrapped in a circuit breaker.
func New(cfg config.LLMConfig, log logger.Logger) (Client, error) {
	opts := Options{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     config.GetDuration(cfg.Timeout),
	}

	var (
		backend Client
		err     error
	)
	switch cfg.Provider {
	case "openai":
		backend, err = NewOpenAI(opts)
	case "gemini":
		backend, err = NewGemini(opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewBreaker(cfg.Provider, backend, cfg.Breaker, log), nil
}

// wrapTransportError tags non-2xx answers with ErrBackendStatus and keeps
// every other cause, context errors included, reachable through errors.Is.
func wrapTransportError(provider string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Errorf("%w: %s %s", ErrBackendStatus, provider, statusErr.Error())
	}
	return fmt.Errorf("%s request: %w", provider, err)
}
