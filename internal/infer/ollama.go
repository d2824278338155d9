package infer

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2"
)

// OllamaClient is the free, locally hosted backend. It talks to an Ollama
// server's /api/generate endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	timeout time.Duration
	client  *http.Client
}

type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		timeout: timeout,
		client:  &http.Client{},
	}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	System  string        `json:"system"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (c *OllamaClient) Infer(ctx context.Context, event inspector.ErrorEvent) (*ports.RawSuggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := ollamaRequest{
		Model:  c.model,
		Prompt: BuildPrompt(event),
		System: systemPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.1,
			NumPredict:  500,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBackendRejected, "cannot encode ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeBackendRejected, "cannot build ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, "ollama")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp, "ollama")
	}

	var decoded ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, errors.CodeBackendUnavailable, "invalid ollama response body")
	}
	if decoded.Error != "" {
		return nil, errors.New(errors.CodeBackendRejected, "ollama error: "+decoded.Error)
	}

	return ParseResponse(decoded.Response), nil
}

// classifyTransportError maps network-level failures: timeouts and refused
// connections are transient, an already-cancelled run is propagated as-is.
func classifyTransportError(err error, backend string) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.AddContext(
		errors.Wrap(err, errors.CodeBackendUnavailable, backend+" request failed"),
		errors.CtxBackend, backend)
}

// classifyStatus maps HTTP status codes onto the backend error taxonomy:
// 4xx means the request itself was bad or unauthorized and is never retried,
// everything else is transient. 429 is transient by definition.
func classifyStatus(resp *http.Response, backend string) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("%s returned HTTP %d: %s", backend, resp.StatusCode, strings.TrimSpace(string(snippet)))

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return errors.New(errors.CodeBackendRejected, msg)
	}
	return errors.New(errors.CodeBackendUnavailable, msg)
}
