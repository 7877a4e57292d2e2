// Package http implements the HTTP/WebSocket transport for asistan.
//
// It exposes a REST API for turns, confirmations, reminders and uploads, and
// a WebSocket endpoint through which a browser front-end acts as the
// microphone and as the place confirmed apps are opened.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/asistan/internal/docs" // registers the swagger document
	"github.com/nadzzz/asistan/internal/transport"
)

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port   int
	server *http.Server
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Listen starts the HTTP server. It blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, b *transport.Backend) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           NewRouter(ctx, b),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// NewRouter builds the route table. Websocket sessions end when ctx is
// cancelled.
func NewRouter(ctx context.Context, b *transport.Backend) http.Handler {
	h := &handlers{b: b}
	ws := &wsHandler{b: b, base: ctx}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/turns", h.submitTurn)
		r.Get("/pending", h.getPending)
		r.Post("/pending/confirm", h.confirm)
		r.Post("/pending/reject", h.reject)
		r.Get("/conversation", h.getConversation)
		r.Delete("/conversation", h.resetConversation)
		r.Get("/reminders", h.listReminders)
		r.Post("/reminders/{id}/complete", h.completeReminder)
		r.Delete("/reminders/{id}", h.deleteReminder)
		r.Get("/apps", h.listApps)
		r.Post("/speech", h.uploadSpeech)
		r.Post("/tts", h.synthesize)
		r.Get("/ws", ws.ServeHTTP)
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	return r
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch transport.Classify(err) {
	case transport.ClassConflict:
		status = http.StatusConflict
	case transport.ClassNotFound:
		status = http.StatusNotFound
	case transport.ClassInvalid:
		status = http.StatusUnprocessableEntity
	case transport.ClassUnavailable:
		status = http.StatusServiceUnavailable
	default:
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
