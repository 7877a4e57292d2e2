// Package local implements the collaborators using self-hosted models.
//
// Transcription goes to any Whisper-compatible endpoint (whisper.cpp server,
// faster-whisper, or whisper-asr-webservice). Completion goes to an Ollama
// server through its api client.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/nadzzz/asistan/internal/config"
	"github.com/nadzzz/asistan/internal/interpreter"
	"github.com/nadzzz/asistan/internal/message"
)

// Completer talks to an Ollama server.
type Completer struct {
	client       *api.Client
	model        string
	systemPrompt string
}

// NewCompleter creates an Ollama completer. An empty host falls back to
// OLLAMA_HOST and then to the Ollama default.
func NewCompleter(cfg config.OllamaConfig, systemPrompt string) (*Completer, error) {
	var client *api.Client
	if cfg.Host != "" {
		base, err := url.Parse(cfg.Host)
		if err != nil {
			return nil, fmt.Errorf("parsing ollama host: %w", err)
		}
		client = api.NewClient(base, http.DefaultClient)
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
	}
	model := cfg.Model
	if model == "" {
		model = "llama3.2"
	}
	return &Completer{client: client, model: model, systemPrompt: systemPrompt}, nil
}

// Name returns the backend identifier.
func (c *Completer) Name() string { return "local" }

// Complete sends the history to Ollama's chat endpoint without streaming.
func (c *Completer) Complete(ctx context.Context, turns []message.WireTurn) (message.WireTurn, error) {
	history := interpreter.WithSystemPrompt(c.systemPrompt, turns)
	msgs := make([]api.Message, 0, len(history))
	for _, t := range history {
		msgs = append(msgs, api.Message{Role: string(t.Role), Content: t.Content})
	}

	stream := false
	var reply strings.Builder
	err := c.client.Chat(ctx, &api.ChatRequest{Model: c.model, Messages: msgs, Stream: &stream}, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return message.WireTurn{}, fmt.Errorf("ollama chat: %w", err)
	}
	if reply.Len() == 0 {
		return message.WireTurn{}, fmt.Errorf("empty response from ollama")
	}

	slog.Debug("local completion finished", "model", c.model, "reply_length", reply.Len())
	return message.WireTurn{Role: message.RoleAssistant, Content: reply.String()}, nil
}

// Close is a no-op.
func (c *Completer) Close() error { return nil }

// Transcriber talks to a self-hosted Whisper server.
type Transcriber struct {
	endpoint string
	flavor   string // "openai" or "asr"
	client   *http.Client
}

// NewTranscriber creates a Whisper transcriber from config.
func NewTranscriber(cfg config.WhisperConfig) *Transcriber {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Transcriber{endpoint: cfg.Endpoint, flavor: flavor, client: &http.Client{}}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe sends audio to the Whisper endpoint. Two flavors are supported:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    whisper-asr-webservice (POST /asr with query params)
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, encoding string, opts interpreter.TranscribeOpts) (*interpreter.Transcription, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	field := "file"
	if t.flavor == "asr" {
		field = "audio_file"
	}
	part, err := writer.CreateFormFile(field, "audio"+interpreter.FileExt(encoding))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	reqURL := t.endpoint
	if t.flavor == "asr" {
		q := make(url.Values)
		q.Set("task", "transcribe")
		q.Set("output", "json")
		q.Set("encode", "true")
		if opts.Language != "" {
			q.Set("language", opts.Language)
		}
		if opts.Prompt != "" {
			q.Set("initial_prompt", opts.Prompt)
		}
		reqURL += "?" + q.Encode()
	} else {
		if opts.Language != "" {
			_ = writer.WriteField("language", opts.Language)
		}
		_ = writer.WriteField("response_format", "json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("local transcription complete", "flavor", t.flavor, "text_length", len(result.Text))
	return &interpreter.Transcription{Text: strings.TrimSpace(result.Text), Language: result.Language}, nil
}

// Close is a no-op.
func (t *Transcriber) Close() error { return nil }
