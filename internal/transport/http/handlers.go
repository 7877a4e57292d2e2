package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/reminder"
	"github.com/nadzzz/asistan/internal/speech"
	"github.com/nadzzz/asistan/internal/transport"
	"github.com/nadzzz/asistan/internal/tts"
)

const maxAudioBytes = 25 << 20

type handlers struct {
	b *transport.Backend
}

// TextRequest carries user text.
type TextRequest struct {
	Text string `json:"text" example:"YouTube aç"`
}

// PendingResponse reports the pending slot.
type PendingResponse struct {
	Pending *assistant.PendingView `json:"pending"`
}

// ConversationResponse carries the conversation log.
type ConversationResponse struct {
	Turns []message.Turn `json:"turns"`
}

// SpeechResponse reports an uploaded recording's outcome.
type SpeechResponse struct {
	Result  speech.Result          `json:"result"`
	Pending *assistant.PendingView `json:"pending,omitempty"`
}

// TTSResponse carries synthesized audio.
type TTSResponse struct {
	Audio       string `json:"audio"` // base64
	ContentType string `json:"content_type"`
}

func decodeText(r *http.Request) (string, error) {
	var req TextRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return "", errors.Join(assistant.ErrEmptyInput, err)
	}
	return req.Text, nil
}

// submitTurn godoc
//
// @Summary     Submit a typed turn
// @Description Runs the text through intent extraction. A resolved intent becomes a pending action;
// @Description otherwise the conversation is sent to the completion service and its reply is scanned.
// @Tags        conversation
// @Accept      json
// @Produce     json
// @Param       turn  body      TextRequest  true  "User text"
// @Success     200   {object}  assistant.TurnResult
// @Failure     409   {object}  errorResponse  "An action is awaiting confirmation"
// @Failure     422   {object}  errorResponse  "Empty input"
// @Router      /v1/turns [post]
func (h *handlers) submitTurn(w http.ResponseWriter, r *http.Request) {
	text, err := decodeText(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.b.Assistant.HandleText(r.Context(), text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// getPending godoc
//
// @Summary  Get the action awaiting confirmation
// @Tags     pending
// @Produce  json
// @Success  200  {object}  PendingResponse
// @Router   /v1/pending [get]
func (h *handlers) getPending(w http.ResponseWriter, _ *http.Request) {
	view, _ := h.b.Assistant.Pending()
	writeJSON(w, http.StatusOK, PendingResponse{Pending: view})
}

// confirm godoc
//
// @Summary  Confirm the pending action
// @Tags     pending
// @Produce  json
// @Success  200  {object}  pending.Outcome
// @Failure  404  {object}  errorResponse  "Nothing is pending"
// @Router   /v1/pending/confirm [post]
func (h *handlers) confirm(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.Assistant.Confirm(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// reject godoc
//
// @Summary  Reject the pending action
// @Tags     pending
// @Produce  json
// @Success  200  {object}  pending.Outcome
// @Failure  404  {object}  errorResponse  "Nothing is pending"
// @Router   /v1/pending/reject [post]
func (h *handlers) reject(w http.ResponseWriter, r *http.Request) {
	out, err := h.b.Assistant.Reject(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getConversation godoc
//
// @Summary  Get the conversation log
// @Tags     conversation
// @Produce  json
// @Success  200  {object}  ConversationResponse
// @Router   /v1/conversation [get]
func (h *handlers) getConversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ConversationResponse{Turns: h.b.Assistant.History()})
}

// resetConversation godoc
//
// @Summary  Reset the conversation to the greeting
// @Tags     conversation
// @Produce  json
// @Success  200  {object}  ConversationResponse
// @Router   /v1/conversation [delete]
func (h *handlers) resetConversation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ConversationResponse{Turns: h.b.Assistant.Reset(r.Context())})
}

// listReminders godoc
//
// @Summary  List reminders
// @Tags     reminders
// @Produce  json
// @Success  200  {array}  reminder.Reminder
// @Router   /v1/reminders [get]
func (h *handlers) listReminders(w http.ResponseWriter, r *http.Request) {
	list, err := h.b.Reminders.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []reminder.Reminder{}
	}
	writeJSON(w, http.StatusOK, list)
}

// completeReminder godoc
//
// @Summary  Mark a reminder as completed
// @Tags     reminders
// @Produce  json
// @Param    id   path      string  true  "Reminder ID"
// @Success  200  {object}  reminder.Reminder
// @Failure  404  {object}  errorResponse
// @Router   /v1/reminders/{id}/complete [post]
func (h *handlers) completeReminder(w http.ResponseWriter, r *http.Request) {
	rem, err := h.b.Reminders.SetCompleted(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// deleteReminder godoc
//
// @Summary  Delete a reminder
// @Tags     reminders
// @Param    id  path  string  true  "Reminder ID"
// @Success  204
// @Failure  404  {object}  errorResponse
// @Router   /v1/reminders/{id} [delete]
func (h *handlers) deleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := h.b.Reminders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listApps godoc
//
// @Summary  List launchable apps
// @Tags     apps
// @Produce  json
// @Success  200  {array}  apps.Descriptor
// @Router   /v1/apps [get]
func (h *handlers) listApps(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.b.Assistant.Apps())
}

// uploadSpeech godoc
//
// @Summary     Submit a recorded utterance
// @Description The body is the raw recording; Content-Type is its encoding tag. The transcript is
// @Description submitted as a user turn. Unaccepted tags are relabeled, empty bodies are rejected.
// @Tags        speech
// @Accept      audio/webm
// @Accept      audio/ogg
// @Accept      audio/mp4
// @Accept      audio/wav
// @Produce     json
// @Success     200  {object}  SpeechResponse
// @Failure     409  {object}  errorResponse  "Another upload is being transcribed"
// @Failure     413  {object}  errorResponse  "Recording exceeds 25 MiB"
// @Failure     422  {object}  errorResponse  "Empty recording or no transcript"
// @Router      /v1/speech [post]
func (h *handlers) uploadSpeech(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "reading audio: " + err.Error()})
		return
	}
	if len(data) > maxAudioBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "recording exceeds 25 MiB"})
		return
	}
	res, err := h.b.Uploads().Process(r.Context(), speech.Recording{Data: data, Encoding: r.Header.Get("Content-Type")})
	if err != nil {
		writeError(w, err)
		return
	}
	view, _ := h.b.Assistant.Pending()
	writeJSON(w, http.StatusOK, SpeechResponse{Result: res, Pending: view})
}

// synthesize godoc
//
// @Summary  Read text aloud
// @Tags     speech
// @Accept   json
// @Produce  json
// @Param    text  body      TextRequest  true  "Text to synthesize"
// @Success  200   {object}  TTSResponse
// @Failure  503   {object}  errorResponse  "Text-to-speech is disabled"
// @Router   /v1/tts [post]
func (h *handlers) synthesize(w http.ResponseWriter, r *http.Request) {
	if h.b.Synthesizer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "text-to-speech is disabled"})
		return
	}
	text, err := decodeText(r)
	if err != nil || strings.TrimSpace(text) == "" {
		writeError(w, assistant.ErrEmptyInput)
		return
	}
	res, err := h.b.Synthesizer.Synthesize(r.Context(), text, tts.SynthesizeOpts{Language: h.b.Speech.Language})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TTSResponse{
		Audio:       base64.StdEncoding.EncodeToString(res.Audio),
		ContentType: res.ContentType,
	})
}
