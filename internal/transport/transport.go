// Package transport defines the contract for the surfaces clients reach the
// assistant through.
//
// Each transport (HTTP/WebSocket, gRPC) implements Transport and is handed a
// Backend at Listen time. The assistant does not care how a turn arrived.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/interpreter"
	"github.com/nadzzz/asistan/internal/launcher"
	"github.com/nadzzz/asistan/internal/pending"
	"github.com/nadzzz/asistan/internal/reminder"
	"github.com/nadzzz/asistan/internal/speech"
	"github.com/nadzzz/asistan/internal/tts"
)

// Backend is everything a transport serves.
type Backend struct {
	Assistant   *assistant.Assistant
	Reminders   *reminder.Book
	Transcriber interpreter.Transcriber
	Speech      speech.Options

	// Synthesizer is nil when text-to-speech is disabled.
	Synthesizer tts.Synthesizer

	// Relay receives connected clients as launch targets. May be nil.
	Relay *launcher.Relay

	uploadsOnce sync.Once
	uploads     *speech.Pipeline
}

// Uploads returns the pipeline that transcribes uploaded recordings. It is
// shared by every transport, so concurrent uploads get speech.ErrBusy.
func (b *Backend) Uploads() *speech.Pipeline {
	b.uploadsOnce.Do(func() {
		b.uploads = b.NewPipeline(nil, speech.PlatformStandard, nil)
	})
	return b.uploads
}

// NewPipeline creates a capture pipeline for one connected device.
func (b *Backend) NewPipeline(dev speech.Device, platform speech.Platform, observe func(speech.State)) *speech.Pipeline {
	return speech.NewPipeline(speech.Config{
		Device:      dev,
		Platform:    platform,
		Transcriber: b.Transcriber,
		Sink:        b.Assistant,
		Options:     b.Speech,
		Observer:    observe,
	})
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http").
	Name() string

	// Listen serves b until ctx is cancelled.
	Listen(ctx context.Context, b *Backend) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}

// Class groups errors for mapping to protocol status codes.
type Class int

const (
	ClassInternal Class = iota
	ClassInvalid
	ClassConflict
	ClassNotFound
	ClassUnavailable
)

// Classify maps a domain error to its Class.
func Classify(err error) Class {
	switch {
	case errors.Is(err, assistant.ErrPendingAction),
		errors.Is(err, pending.ErrOccupied),
		errors.Is(err, speech.ErrBusy),
		errors.Is(err, speech.ErrNotRecording):
		return ClassConflict
	case errors.Is(err, pending.ErrEmpty), errors.Is(err, reminder.ErrNotFound):
		return ClassNotFound
	case errors.Is(err, assistant.ErrEmptyInput),
		errors.Is(err, speech.ErrEmptyRecording),
		errors.Is(err, speech.ErrNoTranscript):
		return ClassInvalid
	case errors.Is(err, speech.ErrPermissionDenied), errors.Is(err, launcher.ErrNoEnvironment):
		return ClassUnavailable
	}
	return ClassInternal
}
