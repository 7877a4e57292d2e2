// Package interpreter defines the remote collaborators the assistant talks to:
// a chat completion service and a speech transcription service.
//
// asistan ships with two backends for each: OpenAI (cloud) and Local
// (self-hosted Whisper and Ollama).
package interpreter

import (
	"context"

	"github.com/nadzzz/asistan/internal/message"
)

// Completer produces the assistant's reply to a conversation.
type Completer interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Complete receives the full history, content and role only, and returns
	// the next assistant turn. The service is stateless from the caller's
	// point of view.
	Complete(ctx context.Context, turns []message.WireTurn) (message.WireTurn, error)

	// Close releases any resources held by the backend.
	Close() error
}

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "tr", "en") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string
}

// Transcription is the result of a transcription call.
type Transcription struct {
	Text     string
	Language string
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	// Name returns the backend identifier.
	Name() string

	// Transcribe converts an audio payload tagged with encoding (a MIME type
	// such as "audio/webm") to text.
	Transcribe(ctx context.Context, audio []byte, encoding string, opts TranscribeOpts) (*Transcription, error)

	// Close releases any resources held by the backend.
	Close() error
}

// WithSystemPrompt prepends a system turn to the history when prompt is set.
func WithSystemPrompt(prompt string, turns []message.WireTurn) []message.WireTurn {
	if prompt == "" {
		return turns
	}
	out := make([]message.WireTurn, 0, len(turns)+1)
	out = append(out, message.WireTurn{Role: message.RoleSystem, Content: prompt})
	return append(out, turns...)
}
