package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/config"
	"github.com/nadzzz/asistan/internal/conversation"
	"github.com/nadzzz/asistan/internal/interpreter"
	localinterp "github.com/nadzzz/asistan/internal/interpreter/local"
	openaiinterp "github.com/nadzzz/asistan/internal/interpreter/openai"
	"github.com/nadzzz/asistan/internal/launcher"
	"github.com/nadzzz/asistan/internal/reminder"
	"github.com/nadzzz/asistan/internal/speech"
	"github.com/nadzzz/asistan/internal/store"
	"github.com/nadzzz/asistan/internal/transport"
	"github.com/nadzzz/asistan/internal/tts"
	"github.com/nadzzz/asistan/internal/tts/piper"
)

// daemon holds the wired components and everything that needs closing.
type daemon struct {
	store   store.Store
	backend *transport.Backend
	closers []func() error
}

func (d *daemon) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		slog.Info("using sqlite store", "path", cfg.SQLite.Path)
		return store.NewSQLite(cfg.SQLite.Path)
	case "redis":
		slog.Info("using redis store", "prefix", cfg.Redis.Prefix)
		return store.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.Prefix)
	case "memory":
		slog.Warn("using in-memory store, nothing survives a restart")
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func newCompleter(cfg config.CompletionConfig) (interpreter.Completer, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI completion", "model", cfg.OpenAI.Model)
		return openaiinterp.NewCompleter(cfg.OpenAI, cfg.SystemPrompt), nil
	case "local":
		slog.Info("using local completion", "host", cfg.Local.Host, "model", cfg.Local.Model)
		return localinterp.NewCompleter(cfg.Local, cfg.SystemPrompt)
	}
	return nil, fmt.Errorf("unknown completion backend %q", cfg.Backend)
}

func newTranscriber(cfg config.TranscriptionConfig) (interpreter.Transcriber, error) {
	switch cfg.Backend {
	case "openai":
		slog.Info("using OpenAI transcription", "model", cfg.OpenAI.Model)
		return openaiinterp.NewTranscriber(cfg.OpenAI), nil
	case "local":
		slog.Info("using local transcription", "endpoint", cfg.Local.Endpoint, "type", cfg.Local.Type)
		return localinterp.NewTranscriber(cfg.Local), nil
	}
	return nil, fmt.Errorf("unknown transcription backend %q", cfg.Backend)
}

func newSynthesizer(cfg *config.Config) tts.Synthesizer {
	if !cfg.TTS.Enabled {
		return nil
	}
	if cfg.TTS.Backend == "openai" {
		slog.Info("using OpenAI text-to-speech", "model", cfg.TTS.OpenAI.Model, "voice", cfg.TTS.OpenAI.Voice)
		return openaiinterp.NewSynthesizer(cfg.Completion.OpenAI, cfg.TTS.OpenAI)
	}
	slog.Info("using piper text-to-speech", "endpoint", cfg.TTS.Piper.Endpoint)
	return piper.New(cfg.TTS.Piper)
}

func loadRegistry(cfg config.AppsConfig) (*apps.Registry, error) {
	if cfg.RegistryFile == "" {
		return apps.Default(), nil
	}
	reg, err := apps.LoadFile(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded app registry", "path", cfg.RegistryFile, "apps", reg.Len())
	return reg, nil
}

// wire builds the assistant and its collaborators from cfg.
func wire(ctx context.Context, cfg *config.Config) (*daemon, error) {
	d := &daemon{}
	fail := func(err error) (*daemon, error) {
		_ = d.Close()
		return nil, err
	}

	s, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fail(fmt.Errorf("opening store: %w", err))
	}
	d.store = s
	d.closers = append(d.closers, s.Close)

	registry, err := loadRegistry(cfg.Apps)
	if err != nil {
		return fail(err)
	}
	conv, err := conversation.Open(ctx, s)
	if err != nil {
		return fail(err)
	}
	book := reminder.NewBook(s)

	completer, err := newCompleter(cfg.Completion)
	if err != nil {
		return fail(err)
	}
	d.closers = append(d.closers, completer.Close)

	transcriber, err := newTranscriber(cfg.Transcription)
	if err != nil {
		return fail(err)
	}
	d.closers = append(d.closers, transcriber.Close)

	synth := newSynthesizer(cfg)
	if synth != nil {
		d.closers = append(d.closers, synth.Close)
	}

	// Connected browsers open apps themselves; without one the host opener is used.
	relay := launcher.NewRelay(launcher.NewDesktop(cfg.Launcher.Command))

	opts := speech.Options{
		Preferred: cfg.Speech.PreferredEncodings,
		Accepted:  cfg.Speech.AcceptedEncodings,
		Fallback:  cfg.Speech.FallbackEncoding,
		Language:  cfg.Transcription.Language,
	}

	d.backend = &transport.Backend{
		Assistant: assistant.New(assistant.Deps{
			Registry:     registry,
			Conversation: conv,
			Reminders:    book,
			Launcher:     launcher.New(relay, cfg.Launcher.NativeWait),
			Completer:    completer,
		}),
		Reminders:   book,
		Transcriber: transcriber,
		Speech:      opts,
		Synthesizer: synth,
		Relay:       relay,
	}
	return d, nil
}
