package infer

import (
	"context"
	"log/slog"
	"time"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

// Backend names an inference provider.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendOpenAI Backend = "openai"
)

// Options selects and configures a backend. Credentials come from the
// environment, never from config files on disk.
type Options struct {
	Backend Backend
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// NewClient builds the configured backend wrapped in bounded retry. Transient
// failures (timeouts, refused connections, 5xx, 429) get one more attempt;
// rejections never do.
func NewClient(opts Options) (ports.InferenceClient, error) {
	var inner ports.InferenceClient
	switch opts.Backend {
	case BackendOllama:
		inner = NewOllamaClient(OllamaConfig{
			BaseURL: opts.BaseURL,
			Model:   opts.Model,
			Timeout: opts.Timeout,
		})
	case BackendOpenAI:
		if opts.APIKey == "" {
			return nil, errors.New(errors.CodeValidationError, "openai backend requires an API key")
		}
		inner = NewOpenAIClient(OpenAIConfig{
			BaseURL: opts.BaseURL,
			Model:   opts.Model,
			APIKey:  opts.APIKey,
			Timeout: opts.Timeout,
		})
	default:
		return nil, errors.New(errors.CodeNotSupported, "unknown inference backend: "+string(opts.Backend))
	}
	return &retryingClient{inner: inner, attempts: 2, backoff: time.Second}, nil
}

// retryingClient re-issues transient failures with exponential backoff. Two
// attempts total: a backend that fails twice in a row is treated as down and
// the caller degrades to local analysis.
type retryingClient struct {
	inner    ports.InferenceClient
	attempts int
	backoff  time.Duration
}

func (r *retryingClient) Infer(ctx context.Context, event inspector.ErrorEvent) (*ports.RawSuggestion, error) {
	var lastErr error
	delay := r.backoff
	for attempt := 1; attempt <= r.attempts; attempt++ {
		suggestion, err := r.inner.Infer(ctx, event)
		if err == nil {
			return suggestion, nil
		}
		lastErr = err
		if !errors.Retryable(err) || attempt == r.attempts {
			break
		}
		slog.Debug("inference attempt failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}
