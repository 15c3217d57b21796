// Package provider abstracts the AI services that back review and test
// generation. Each service implements a small interface and registers a
// factory at init() time, so the rest of the tool resolves providers by
// configuration name only.
package provider

import (
	"context"
	"fmt"
	"time"
)

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the provider-agnostic request, translated into each
// service's native format by the implementation.
type CompletionRequest struct {
	// Model is the provider-specific model identifier.
	Model string `json:"model"`

	// Messages is the ordered conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. Nil means provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// Stream selects server-sent event streaming; use CompleteStream for
	// streamed responses.
	Stream bool `json:"stream,omitempty"`
}

// CompletionResponse is the normalized non-streaming response.
type CompletionResponse struct {
	ID           string `json:"id"`
	Model        string `json:"model"`
	Content      string `json:"content"`
	Usage        Usage  `json:"usage"`
	FinishReason string `json:"finish_reason"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk is one incremental piece of a streamed response.
type StreamChunk struct {
	Content      string
	Done         bool
	FinishReason string
	Usage        *Usage
}

// StreamResult bundles the channels returned from CompleteStream. Callers
// range over Chunks, then check Err.
type StreamResult struct {
	Chunks <-chan StreamChunk
	Err    <-chan error
}

// ErrorCode classifies provider failures so callers can decide how to react
// without inspecting service-specific payloads.
type ErrorCode string

const (
	ErrCodeAuthentication      ErrorCode = "authentication"
	ErrCodeRateLimit           ErrorCode = "rate_limit"
	ErrCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrCodeContextLength       ErrorCode = "context_length"
	ErrCodeProviderUnavailable ErrorCode = "provider_unavailable"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeUnknown             ErrorCode = "unknown"
)

// ProviderError carries a normalized code plus the original provider
// details. It supports errors.Is / errors.As.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	Provider   string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (status %d): %v",
			e.Provider, e.Code, e.Message, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s (status %d)",
		e.Provider, e.Code, e.Message, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to match ProviderErrors by code.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for use with errors.Is().
var (
	ErrAuthentication      = &ProviderError{Code: ErrCodeAuthentication}
	ErrRateLimit           = &ProviderError{Code: ErrCodeRateLimit}
	ErrInvalidRequest      = &ProviderError{Code: ErrCodeInvalidRequest}
	ErrContextLength       = &ProviderError{Code: ErrCodeContextLength}
	ErrProviderUnavailable = &ProviderError{Code: ErrCodeProviderUnavailable}
	ErrTimeout             = &ProviderError{Code: ErrCodeTimeout}
)

// RetryConfig controls exponential-backoff retries. The zero value disables
// retries.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DefaultRetryConfig returns 3 retries, starting at 1s, capped at 30s, with
// a 2x multiplier.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
	}
}

// ProviderInfo describes a registered provider for introspection and help
// text.
type ProviderInfo struct {
	Name              string
	DisplayName       string
	Description       string
	DefaultModel      string
	SupportsStreaming bool
}

// AIProvider is the interface every AI service implements.
type AIProvider interface {
	// Info returns static metadata about this provider.
	Info() ProviderInfo

	// Complete sends a completion request and blocks until the full
	// response is available.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// CompleteStream returns a StreamResult whose Chunks channel yields
	// incremental content. The caller must drain Chunks; Err delivers at
	// most one value after Chunks closes. Providers without streaming
	// support fall back to a single-chunk emission.
	CompleteStream(ctx context.Context, req CompletionRequest) StreamResult

	// Validate checks that the provider is usable (API key present) and
	// returns a descriptive error if not.
	Validate(ctx context.Context) error
}
