// Package message defines the core data types flowing through the assistant.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a turn.
type Role string

const (
	// RoleUser is a turn typed or spoken by the user.
	RoleUser Role = "user"

	// RoleAssistant is a turn produced by the assistant (remote reply or a
	// locally generated notice such as a confirmation or an error).
	RoleAssistant Role = "assistant"

	// RoleSystem is only used on the wire to the completion service.
	RoleSystem Role = "system"
)

// Origin records how an utterance entered the pipeline.
type Origin string

const (
	// OriginTyped is free text submitted from a keyboard.
	OriginTyped Origin = "typed"

	// OriginTranscribed is text produced by the transcription service.
	OriginTranscribed Origin = "transcribed"

	// OriginReplyScan marks remote reply text that is being scanned for
	// reactive intents. It is never shown to the user as input.
	OriginReplyScan Origin = "reply-scan"
)

// Utterance is immutable text plus its logical origin.
type Utterance struct {
	text   string
	origin Origin
}

// NewUtterance creates an utterance. The value is never mutated afterwards.
func NewUtterance(text string, origin Origin) Utterance {
	return Utterance{text: text, origin: origin}
}

// Text returns the raw text of the utterance.
func (u Utterance) Text() string { return u.text }

// Origin returns where the utterance came from.
func (u Utterance) Origin() Origin { return u.origin }

// Turn is one entry of the conversation log.
type Turn struct {
	// ID is a unique identifier for this turn (UUID).
	ID string `json:"id"`

	// Role is "user" or "assistant".
	Role Role `json:"role"`

	// Content is the text shown to the user.
	Content string `json:"content"`

	// Timestamp is when the turn was appended.
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn builds a turn with a fresh ID and the current time.
func NewTurn(role Role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// WireTurn is the shape sent to the completion service: content and role only.
type WireTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Wire strips identifiers and timestamps from a history.
func Wire(turns []Turn) []WireTurn {
	out := make([]WireTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, WireTurn{Role: t.Role, Content: t.Content})
	}
	return out
}

// Greeting is the seed turn of every fresh or reset conversation.
const Greeting = "Merhaba! Ben AI asistanınız. Size nasıl yardımcı olabilirim?"
