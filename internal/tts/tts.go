// Package tts defines the interface for reading assistant replies aloud.
package tts

import "context"

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code used to pick a voice. Empty means the
	// synthesizer's default language.
	Language string

	// Voice overrides language-based voice selection.
	Voice string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)
	Close() error
}

// SynthesizeResult holds encoded audio ready to be played by a client.
type SynthesizeResult struct {
	Audio       []byte
	ContentType string // e.g. "audio/wav", "audio/mpeg"
	SampleRate  int    // 0 when the container carries it
	Channels    int
}
