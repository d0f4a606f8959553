package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Kind identifies a generation capability.
type Kind string

const (
	KindText   Kind = "text"
	KindImage  Kind = "image"
	KindVideo  Kind = "video"
	KindSpeech Kind = "speech"
	KindChat   Kind = "chat"
)

// Operation is a unit of work submitted to a provider. It exists only for
// the duration of a request.
type Operation struct {
	OrganizationID string
	Kind           Kind
	Payload        any
	Idempotent     bool
}

// Request variants carry only the fields valid for their capability and
// are validated at the HTTP boundary.

type TextRequest struct {
	Model        string  `json:"model"`
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

func (r *TextRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	return nil
}

type ImageRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Count       int    `json:"count,omitempty"`
}

func (r *ImageRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.Count < 0 || r.Count > 8 {
		return fmt.Errorf("count must be between 0 and 8")
	}
	return nil
}

type VideoRequest struct {
	Model           string `json:"model"`
	Prompt          string `json:"prompt"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	AspectRatio     string `json:"aspect_ratio,omitempty"`
}

func (r *VideoRequest) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if r.DurationSeconds < 0 {
		return fmt.Errorf("duration_seconds must not be negative")
	}
	return nil
}

type SpeechRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

func (r *SpeechRequest) Validate() error {
	if r.Text == "" {
		return fmt.Errorf("text is required")
	}
	return nil
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

func (r *ChatRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages are required")
	}
	for i, m := range r.Messages {
		if m.Role == "" || m.Content == "" {
			return fmt.Errorf("message %d: role and content are required", i)
		}
	}
	return nil
}

// LongRunningHandle tracks a provider-side asynchronous job. It is
// mutated only by re-querying the provider and owned by the poll loop
// until terminal.
type LongRunningHandle struct {
	OperationID string
	Done        bool
	Artifact    string
	ErrMessage  string
}

// Result is the normalized outcome of a provider invocation. Operation is
// set instead of Text/Artifacts when the provider deferred the work to a
// long-running job.
type Result struct {
	Kind      Kind              `json:"kind"`
	Text      string            `json:"text,omitempty"`
	Artifacts []string          `json:"artifacts,omitempty"`
	Operation *LongRunningHandle `json:"-"`
	Raw       json.RawMessage   `json:"-"`
}

// ChatStream is a lazy, finite, non-restartable sequence of text deltas.
// Recv returns io.EOF on normal completion.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}

// Client executes operations against a generative-AI provider using a
// single bound credential. Implementations must be stateless across
// attempts; the failover executor builds a fresh client per attempt.
type Client interface {
	Invoke(ctx context.Context, op Operation) (*Result, error)
	PollOperation(ctx context.Context, handle *LongRunningHandle) (*LongRunningHandle, error)
	StreamChat(ctx context.Context, op Operation) (ChatStream, error)
}

// Factory builds a client bound to one resolved secret. Construction must
// be pure and cheap: no caching, no network.
type Factory interface {
	Build(secret string) Client
}
