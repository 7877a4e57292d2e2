// Package openai implements the completion, transcription and speech
// collaborators on top of OpenAI's HTTP APIs.
//
// It uses the Chat Completions API for replies, the Audio Transcriptions API
// (Whisper) for speech-to-text, and the Audio Speech API for text-to-speech.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/nadzzz/asistan/internal/config"
	"github.com/nadzzz/asistan/internal/interpreter"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/tts"
)

const defaultBaseURL = "https://api.openai.com/v1"

type client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func newClient(apiKey, baseURL string) client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), http: &http.Client{}}
}

// post sends body to path and returns the response when the status is 200.
func (c client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	return resp, nil
}

// Completer uses the Chat Completions API.
type Completer struct {
	client
	model        string
	temperature  float64
	maxTokens    int
	systemPrompt string
}

// NewCompleter creates a chat completer from config.
func NewCompleter(cfg config.OpenAICompletionConfig, systemPrompt string) *Completer {
	return &Completer{
		client:       newClient(cfg.APIKey, cfg.BaseURL),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: systemPrompt,
	}
}

// Name returns the backend identifier.
func (c *Completer) Name() string { return "openai" }

// Complete sends the history to the Chat Completions API.
func (c *Completer) Complete(ctx context.Context, turns []message.WireTurn) (message.WireTurn, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    interpreter.WithSystemPrompt(c.systemPrompt, turns),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return message.WireTurn{}, fmt.Errorf("marshalling chat request: %w", err)
	}

	resp, err := c.post(ctx, "/chat/completions", "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return message.WireTurn{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return message.WireTurn{}, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return message.WireTurn{}, fmt.Errorf("no choices returned from chat API")
	}

	content := chatResp.Choices[0].Message.Content
	slog.Debug("completion finished", "model", c.model, "turns", len(turns), "reply_length", len(content))
	return message.WireTurn{Role: message.RoleAssistant, Content: content}, nil
}

// Close is a no-op.
func (c *Completer) Close() error { return nil }

// Transcriber uses the Audio Transcriptions API.
type Transcriber struct {
	client
	model string
}

// NewTranscriber creates a transcriber from config.
func NewTranscriber(cfg config.OpenAITranscriptionConfig) *Transcriber {
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	return &Transcriber{client: newClient(cfg.APIKey, cfg.BaseURL), model: model}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe sends audio to the transcription API.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, encoding string, opts interpreter.TranscribeOpts) (*interpreter.Transcription, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+interpreter.FileExt(encoding))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	_ = writer.WriteField("model", t.model)
	if opts.Language != "" {
		_ = writer.WriteField("language", opts.Language)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "verbose_json")
	writer.Close()

	resp, err := t.post(ctx, "/audio/transcriptions", writer.FormDataContentType(), body)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	// OpenAI returns full language names ("turkish"); normalise to ISO-639-1.
	lang := normalizeLanguage(result.Language)
	slog.Debug("transcription complete", "text_length", len(result.Text), "language", lang)
	return &interpreter.Transcription{Text: result.Text, Language: lang}, nil
}

// Close is a no-op.
func (t *Transcriber) Close() error { return nil }

// Synthesizer uses the Audio Speech API.
type Synthesizer struct {
	client
	model string
	voice string
}

// NewSynthesizer creates a speech synthesizer. It shares credentials with
// the completion backend.
func NewSynthesizer(api config.OpenAICompletionConfig, cfg config.OpenAITTSConfig) *Synthesizer {
	return &Synthesizer{client: newClient(api.APIKey, api.BaseURL), model: cfg.Model, voice: cfg.Voice}
}

// Synthesize turns text into MP3 audio.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}
	voice := opts.Voice
	if voice == "" {
		voice = s.voice
	}
	bodyBytes, err := json.Marshal(speechRequest{Model: s.model, Voice: voice, Input: text, ResponseFormat: "mp3"})
	if err != nil {
		return nil, fmt.Errorf("marshalling speech request: %w", err)
	}

	resp, err := s.post(ctx, "/audio/speech", "application/json", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading speech audio: %w", err)
	}
	return &tts.SynthesizeResult{Audio: audio, ContentType: "audio/mpeg", Channels: 1}, nil
}

// Close is a no-op.
func (s *Synthesizer) Close() error { return nil }

type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []message.WireTurn `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

// normalizeLanguage converts full language names (as returned by OpenAI) to ISO-639-1 codes.
func normalizeLanguage(lang string) string {
	if len(lang) == 2 {
		return strings.ToLower(lang)
	}
	known := map[string]string{
		"turkish": "tr",
		"english": "en",
		"german":  "de",
		"french":  "fr",
		"spanish": "es",
		"arabic":  "ar",
		"russian": "ru",
	}
	if code, ok := known[strings.ToLower(lang)]; ok {
		return code
	}
	return strings.ToLower(lang)
}
