package domain

import (
	"context"
	"errors"
)

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is one chat-completion round trip.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Temperature float64
	JSONMode    bool // ask the provider for a single JSON object
}

// CompletionClient returns the text content of the first completion choice.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

var (
	ErrUnauthorized    = errors.New("llm: unauthorized")
	ErrRateLimited     = errors.New("llm: rate limited")
	ErrUpstream        = errors.New("llm: upstream error")
	ErrEmptyCompletion = errors.New("llm: empty completion")
	ErrInvalidOutput   = errors.New("llm: invalid output")
)
