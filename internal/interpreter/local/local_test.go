package local

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
)

func TestCompleterOllamaChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Stream *bool `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		require.NotNil(t, req.Stream)
		assert.False(t, *req.Stream)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"llama3.2","message":{"role":"assistant","content":"Selam!"},"done":true}`)
	}))
	defer srv.Close()

	c, err := NewCompleter(config.OllamaConfig{Host: srv.URL}, "sistem")
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), []message.WireTurn{{Role: message.RoleUser, Content: "merhaba"}})
	require.NoError(t, err)
	assert.Equal(t, "Selam!", reply.Content)
	assert.Equal(t, message.RoleAssistant, reply.Role)
}

func TestTranscriberFlavors(t *testing.T) {
	tests := []struct {
		flavor string
		path   string
		field  string
	}{
		{"openai", "/v1/audio/transcriptions", "file"},
		{"asr", "/asr", "audio_file"},
	}
	for _, tt := range tests {
		t.Run(tt.flavor, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.path, r.URL.Path)
				require.NoError(t, r.ParseMultipartForm(1<<20))
				_, hdr, err := r.FormFile(tt.field)
				require.NoError(t, err)
				assert.Equal(t, "audio.ogg", hdr.Filename)
				if tt.flavor == "asr" {
					assert.Equal(t, "tr", r.URL.Query().Get("language"))
				} else {
					assert.Equal(t, "tr", r.FormValue("language"))
				}
				_, _ = io.WriteString(w, `{"text":" hava nasıl "}`)
			}))
			defer srv.Close()

			tr := NewTranscriber(config.WhisperConfig{Endpoint: srv.URL + tt.path, Type: tt.flavor})
			res, err := tr.Transcribe(context.Background(), []byte("OggS"), "audio/ogg", interpreter.TranscribeOpts{Language: "tr"})
			require.NoError(t, err)
			assert.Equal(t, "hava nasıl", res.Text)
		})
	}
}
