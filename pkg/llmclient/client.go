// Package llmclient implements the LLM Client (C5): a stateless,
// non-retrying request to a chat-completions endpoint, per spec.md §4.5
// and the wire contract in §6.2.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sectionforge/sectionforge/pkg/apperr"
)

// DefaultTimeout is the request timeout applied when Config.Timeout is
// zero, per spec.md §4.5.
const DefaultTimeout = 300 * time.Second

// Config configures a Client for one LLM endpoint/credential pair. Every
// field maps to the per-principal Credential record described in
// spec.md §1 and SPEC_FULL.md §3.
type Config struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

// Client issues chat-completions requests. It holds no retry logic — per
// spec.md §4.5, retries are an explicit non-goal of this component.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New builds a Client. A zero or negative cfg.Timeout falls back to
// DefaultTimeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Message is one chat-completions message, per §6.2.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CollectionFile attaches a RAG collection to the request, per §6.2.
type CollectionFile struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Request is the chat-completions request body, per §6.2.
type Request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Stream      bool             `json:"stream"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
	Files       []CollectionFile `json:"files,omitempty"`
}

// Response is the normalized result the core uses, extracted from either
// of the two accepted upstream shapes in §6.2.
type Response struct {
	Content     string
	TokensUsed  int
}

// wireResponse models the primary accepted shape:
// {"choices":[{"message":{"content":string}}], "usage":{"total_tokens":int}}
type wireResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// fallbackResponse models the secondary accepted shape: {"response": string}
type fallbackResponse struct {
	Response string `json:"response"`
}

// Complete issues one chat-completions request. On a non-2xx response or
// a transport failure it returns a *apperr.Error of KindUpstream with the
// origin status preserved (0 for transport-level failures).
func (c *Client) Complete(ctx context.Context, prompt string, model string, temperature float64, maxTokens int, collections []string) (*Response, error) {
	req := Request{
		Model:       model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Stream:      false,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	for _, id := range collections {
		req.Files = append(req.Files, CollectionFile{Type: "collection", ID: id})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperr.Internal(err, "marshal chat-completions request")
	}

	url := c.cfg.BaseURL + "/api/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Internal(err, "build chat-completions request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, apperr.Upstream(0, "llm request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Upstream(resp.StatusCode, "read llm response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Upstream(resp.StatusCode, "llm endpoint returned %d: %s", resp.StatusCode, truncate(respBody, 500))
	}

	return parseResponse(respBody)
}

// ProxyGet issues a GET against <base><path> and returns the raw response
// body and status code unmodified, for the "proxy listing" endpoints of
// spec.md §6.1 (/models, /collections) whose upstream shape this client
// has no reason to interpret.
func (c *Client) ProxyGet(ctx context.Context, path string) ([]byte, int, error) {
	url := c.cfg.BaseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, apperr.Internal(err, "build proxy request")
	}
	if c.cfg.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, apperr.Upstream(0, "llm proxy request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, apperr.Upstream(resp.StatusCode, "read proxy response: %v", err)
	}
	return body, resp.StatusCode, nil
}

func parseResponse(body []byte) (*Response, error) {
	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err == nil && len(wire.Choices) > 0 && wire.Choices[0].Message.Content != "" {
		return &Response{Content: wire.Choices[0].Message.Content, TokensUsed: wire.Usage.TotalTokens}, nil
	}

	var fb fallbackResponse
	if err := json.Unmarshal(body, &fb); err == nil && fb.Response != "" {
		return &Response{Content: fb.Response}, nil
	}

	return nil, apperr.Upstream(0, "unrecognized llm response shape: %s", truncate(body, 200))
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
