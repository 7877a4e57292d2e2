package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/pending"
	"github.com/nadzzz/asistan/internal/speech"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "asistan.v1.Assistant"

// SubmitRequest carries a typed user turn.
type SubmitRequest struct {
	Text string `json:"text"`
}

// Empty is the request of argument-less methods.
type Empty struct{}

// PendingReply reports the pending slot.
type PendingReply struct {
	Pending *assistant.PendingView `json:"pending,omitempty"`
}

// HistoryReply carries the conversation log.
type HistoryReply struct {
	Turns []message.Turn `json:"turns"`
}

// SpeechRequest carries a finished recording.
type SpeechRequest struct {
	Audio    []byte `json:"audio"`
	Encoding string `json:"encoding"`
}

// SpeechReply reports a transcribed recording.
type SpeechReply struct {
	Result  speech.Result          `json:"result"`
	Pending *assistant.PendingView `json:"pending,omitempty"`
}

// AssistantServer is the server API for the Assistant service.
type AssistantServer interface {
	Submit(context.Context, *SubmitRequest) (*assistant.TurnResult, error)
	Confirm(context.Context, *Empty) (*pending.Outcome, error)
	Reject(context.Context, *Empty) (*pending.Outcome, error)
	Pending(context.Context, *Empty) (*PendingReply, error)
	History(context.Context, *Empty) (*HistoryReply, error)
	Reset(context.Context, *Empty) (*HistoryReply, error)
	Speech(context.Context, *SpeechRequest) (*SpeechReply, error)
}

// unary builds the handler for one method from a typed call.
func unary[Req, Resp any](method string, call func(AssistantServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AssistantServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// serviceDesc describes the Assistant service for grpc.Server.RegisterService.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Submit", AssistantServer.Submit),
		unary("Confirm", AssistantServer.Confirm),
		unary("Reject", AssistantServer.Reject),
		unary("Pending", AssistantServer.Pending),
		unary("History", AssistantServer.History),
		unary("Reset", AssistantServer.Reset),
		unary("Speech", AssistantServer.Speech),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "asistan/v1/assistant.proto",
}

// RegisterAssistantServer registers srv on s.
func RegisterAssistantServer(s grpc.ServiceRegistrar, srv AssistantServer) {
	s.RegisterService(&serviceDesc, srv)
}
