package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/asistan/internal/config"
	"github.com/nadzzz/asistan/internal/interpreter"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/tts"
)

func TestCompleterSendsHistoryWithSystemPrompt(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Merhaba!"}}]}`)
	}))
	defer srv.Close()

	c := NewCompleter(config.OpenAICompletionConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini", MaxTokens: 500}, "sistem")
	reply, err := c.Complete(context.Background(), []message.WireTurn{{Role: message.RoleUser, Content: "selam"}})
	require.NoError(t, err)

	assert.Equal(t, message.WireTurn{Role: message.RoleAssistant, Content: "Merhaba!"}, reply)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, message.RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "selam", got.Messages[1].Content)
	assert.Equal(t, 500, got.MaxTokens)
}

func TestCompleterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCompleter(config.OpenAICompletionConfig{BaseURL: srv.URL}, "")
	_, err := c.Complete(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTranscriberMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "tr", r.FormValue("language"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "audio.webm", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, []byte{1, 2, 3}, data)

		_, _ = io.WriteString(w, `{"text":"YouTube aç","language":"turkish"}`)
	}))
	defer srv.Close()

	tr := NewTranscriber(config.OpenAITranscriptionConfig{BaseURL: srv.URL})
	res, err := tr.Transcribe(context.Background(), []byte{1, 2, 3}, "audio/webm", interpreter.TranscribeOpts{Language: "tr"})
	require.NoError(t, err)
	assert.Equal(t, "YouTube aç", res.Text)
	assert.Equal(t, "tr", res.Language)
}

func TestSynthesizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/speech", r.URL.Path)
		var req speechRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alloy", req.Voice)
		assert.Equal(t, "tts-1", req.Model)
		_, _ = w.Write([]byte("ID3"))
	}))
	defer srv.Close()

	s := NewSynthesizer(config.OpenAICompletionConfig{BaseURL: srv.URL}, config.OpenAITTSConfig{Model: "tts-1", Voice: "alloy"})
	res, err := s.Synthesize(context.Background(), "merhaba", tts.SynthesizeOpts{})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), res.Audio)
	assert.Equal(t, "audio/mpeg", res.ContentType)

	_, err = s.Synthesize(context.Background(), "", tts.SynthesizeOpts{})
	assert.Error(t, err)
}
