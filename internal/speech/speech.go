// Package speech implements voice capture: permission negotiation, encoding
// negotiation, the recording session and the hand-off to transcription.
//
// A capture attempt moves through
//
//	Idle → PermissionCheck → Recording → Stopping → Transcribing → Idle
//
// and the capture stream is released on every exit path.
package speech

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrBusy is returned when a capture is already in flight.
	ErrBusy = errors.New("a capture is already in progress")

	// ErrNotRecording is returned by Stop outside the Recording state.
	ErrNotRecording = errors.New("not recording")

	// ErrPermissionDenied is returned when microphone access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrEmptyRecording is returned for a zero-byte payload.
	ErrEmptyRecording = errors.New("empty recording")

	// ErrNoTranscript is returned when transcription fails or yields no text.
	ErrNoTranscript = errors.New("transcription produced no text")
)

// State of a pipeline.
type State string

const (
	StateIdle            State = "idle"
	StatePermissionCheck State = "permission_check"
	StateRecording       State = "recording"
	StateStopping        State = "stopping"
	StateTranscribing    State = "transcribing"
)

// Platform selects the permission branch. It is resolved once per pipeline.
type Platform int

const (
	// PlatformStandard supports a non-blocking permission status query.
	PlatformStandard Platform = iota

	// PlatformMobileWebKit (iOS and iPadOS browsers) needs an interactive
	// probe before the first capture request.
	PlatformMobileWebKit
)

func (p Platform) String() string {
	if p == PlatformMobileWebKit {
		return "mobile-webkit"
	}
	return "standard"
}

// DetectPlatform classifies a browser user agent.
func DetectPlatform(userAgent string) Platform {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"iphone", "ipad", "ipod"} {
		if strings.Contains(ua, marker) {
			return PlatformMobileWebKit
		}
	}
	// iPadOS reports a desktop Safari user agent but keeps "Mobile/".
	if strings.Contains(ua, "macintosh") && strings.Contains(ua, "mobile/") {
		return PlatformMobileWebKit
	}
	return PlatformStandard
}

// Permission is the microphone permission status.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionPrompt  Permission = "prompt"
)

// ParsePermission maps a reported status to a Permission. Anything
// unrecognised is treated as prompt-or-unknown.
func ParsePermission(s string) Permission {
	switch Permission(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	}
	return PermissionPrompt
}

// Device is the capture hardware as seen by the pipeline.
type Device interface {
	// QueryPermission returns the current permission status without
	// prompting the user. An error means the status is unobtainable.
	QueryPermission(ctx context.Context) (Permission, error)

	// ProbePermission performs the interactive permission probe.
	ProbePermission(ctx context.Context) error

	// SupportsEncoding reports whether the device can record tag.
	SupportsEncoding(tag string) bool

	// StartCapture begins recording in encoding ("" for the device
	// default). A refused permission is reported as ErrPermissionDenied.
	StartCapture(ctx context.Context, encoding string) (Stream, error)
}

// Stream is an active capture owned by exactly one recording session.
type Stream interface {
	// Fragments delivers audio in order and is closed once the stream has
	// stopped and every fragment has been delivered.
	Fragments() <-chan []byte

	// Encoding is the encoding the device actually records in.
	Encoding() string

	// Stop releases the hardware. It is safe to call more than once.
	Stop() error
}

// Sink receives what the pipeline produces.
type Sink interface {
	// Notify appends an informational assistant utterance.
	Notify(ctx context.Context, text string)

	// Submit feeds a transcript into the conversation as user input.
	Submit(ctx context.Context, transcript string) error
}

// Recording is a finished capture payload.
type Recording struct {
	Data     []byte
	Encoding string
}

// Result describes a resolved capture attempt.
type Result struct {
	Transcript string `json:"transcript,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Bytes      int    `json:"bytes"`
}
