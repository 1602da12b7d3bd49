// internal/adapters/groq/client.go
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"coderefine/internal/adapters/observability"
	"coderefine/internal/domain"
)

// Client talks to an OpenAI-compatible chat-completions endpoint (Groq by default).
type Client struct {
	base    string
	hc      *http.Client
	key     string
	timeout time.Duration
	rl      *rate.Limiter
}

// New fails when key is empty so the process never starts without a credential.
// rps <= 0 disables client-side rate limiting.
func New(base, key string, timeout time.Duration, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	rl := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		rl = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: timeout},
		key:     key,
		timeout: timeout,
		rl:      rl,
	}, nil
}

// ---- wire types ----

type chatRequest struct {
	Model          string               `json:"model"`
	Messages       []domain.ChatMessage `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat *responseFormat      `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete makes exactly one POST to /chat/completions; there are no retries.
func (c *Client) Complete(ctx context.Context, in domain.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	body := chatRequest{Model: in.Model, Messages: in.Messages, Temperature: in.Temperature}
	if in.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "coderefine/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("llm", "chat_completions", 0, time.Since(start))
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: completion timed out: %w", domain.ErrUpstream, context.DeadlineExceeded)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("llm", "chat_completions", resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		var out chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("%w: decode completion: %v", domain.ErrUpstream, err)
		}
		if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
			return "", domain.ErrEmptyCompletion
		}
		return out.Choices[0].Message.Content, nil

	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: %s", domain.ErrUnauthorized, errorDetail(resp))

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: %s", domain.ErrRateLimited, errorDetail(resp))

	case resp.StatusCode >= 500:
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, errorDetail(resp))

	default:
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, errorDetail(resp))
	}
}

// errorDetail prefers the provider's error.message, else a small body excerpt.
func errorDetail(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	if err := json.Unmarshal(b, &ae); err == nil && ae.Error.Message != "" {
		return ae.Error.Message
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
