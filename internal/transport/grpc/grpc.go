// Package grpc implements the gRPC transport for asistan.
//
// The Assistant service is described by hand and carried with a JSON codec,
// so it needs no generated code. It suits headless clients such as the
// chat command.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/pending"
	"github.com/nadzzz/asistan/internal/speech"
	"github.com/nadzzz/asistan/internal/transport"
)

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	lis    net.Listener
	server *grpc.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// NewWithListener creates a transport that serves on an existing listener.
func NewWithListener(lis net.Listener) *Transport {
	return &Transport{lis: lis}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server. It blocks until ctx is cancelled.
func (t *Transport) Listen(ctx context.Context, b *transport.Backend) error {
	lis := t.lis
	if lis == nil {
		var err error
		lis, err = net.Listen("tcp", fmt.Sprintf(":%d", t.port))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	t.server = grpc.NewServer(grpc.ForceServerCodec(jsonCodec{}))
	RegisterAssistantServer(t.server, &server{b: b})

	slog.Info("grpc transport listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	if t.server != nil {
		t.server.GracefulStop()
	}
	return nil
}

type server struct {
	b *transport.Backend
}

func (s *server) Submit(ctx context.Context, req *SubmitRequest) (*assistant.TurnResult, error) {
	res, err := s.b.Assistant.HandleText(ctx, req.Text)
	if err != nil {
		return nil, toStatus(err)
	}
	return &res, nil
}

func (s *server) Confirm(ctx context.Context, _ *Empty) (*pending.Outcome, error) {
	out, err := s.b.Assistant.Confirm(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &out, nil
}

func (s *server) Reject(ctx context.Context, _ *Empty) (*pending.Outcome, error) {
	out, err := s.b.Assistant.Reject(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &out, nil
}

func (s *server) Pending(context.Context, *Empty) (*PendingReply, error) {
	view, _ := s.b.Assistant.Pending()
	return &PendingReply{Pending: view}, nil
}

func (s *server) History(context.Context, *Empty) (*HistoryReply, error) {
	return &HistoryReply{Turns: s.b.Assistant.History()}, nil
}

func (s *server) Reset(ctx context.Context, _ *Empty) (*HistoryReply, error) {
	return &HistoryReply{Turns: s.b.Assistant.Reset(ctx)}, nil
}

func (s *server) Speech(ctx context.Context, req *SpeechRequest) (*SpeechReply, error) {
	res, err := s.b.Uploads().Process(ctx, speech.Recording{Data: req.Audio, Encoding: req.Encoding})
	if err != nil {
		return nil, toStatus(err)
	}
	view, _ := s.b.Assistant.Pending()
	return &SpeechReply{Result: res, Pending: view}, nil
}

// toStatus maps a domain error to a gRPC status.
func toStatus(err error) error {
	code := codes.Internal
	switch transport.Classify(err) {
	case transport.ClassConflict:
		code = codes.FailedPrecondition
	case transport.ClassNotFound:
		code = codes.NotFound
	case transport.ClassInvalid:
		code = codes.InvalidArgument
	case transport.ClassUnavailable:
		code = codes.Unavailable
	default:
		slog.Error("rpc failed", "error", err)
	}
	return status.Error(code, err.Error())
}
