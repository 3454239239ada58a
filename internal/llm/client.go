// internal/llm/client.go
//
// Client for an OpenAI-chat-completion-shaped backend (LM Studio, etc).
// Responsibilities:
//   - GET /v1/models: connection probe + model discovery.
//   - POST /v1/chat/completions: single-turn completions.
//   - Auto-select the first available model when none is configured.
//
// Every call takes a context; the configured timeout is applied when the
// caller's context carries no deadline. Transport and decode failures are
// returned as errors; policy (terminal vs. recoverable) is the caller's.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Client talks to one backend instance.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	model string
}

// New builds a client. model may be empty; the first model reported by the
// backend is then used on demand.
func New(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model returns the currently selected model name (may be empty).
func (c *Client) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// SetModel overrides the model name.
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	c.model = model
	c.mu.Unlock()
}

// Ping reports whether the backend answers the models endpoint.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Models(ctx)
	if err != nil {
		log.Warn().Err(err).Str("baseURL", c.baseURL).Msg("llm ping failed")
	}
	return err == nil
}

// Models lists the model IDs the backend exposes.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("models request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models request: status %d", resp.StatusCode)
	}
	var out modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Chat runs one completion and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, msgs []Message, temperature float64, maxTokens int) (string, error) {
	model, err := c.ensureModel(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat request: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// ensureModel resolves the model name, asking the backend once if needed.
func (c *Client) ensureModel(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.model != "" {
		m := c.model
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	models, err := c.Models(ctx)
	if err != nil {
		return "", fmt.Errorf("auto-select model: %w", err)
	}
	if len(models) == 0 {
		return "", fmt.Errorf("backend reports no loaded models")
	}
	c.mu.Lock()
	if c.model == "" {
		c.model = models[0]
		log.Info().Str("model", c.model).Msg("auto-selected model")
	}
	m := c.model
	c.mu.Unlock()
	return m, nil
}

// withDeadline bounds ctx with the client timeout when the caller did not.
func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.httpClient.Timeout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
