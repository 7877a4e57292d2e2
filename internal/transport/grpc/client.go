package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/pending"
)

// Client calls a remote Assistant service.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the service at addr (host:port).
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
}

// Submit sends a typed turn.
func (c *Client) Submit(ctx context.Context, text string) (*assistant.TurnResult, error) {
	out := new(assistant.TurnResult)
	if err := c.invoke(ctx, "Submit", &SubmitRequest{Text: text}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Confirm runs the pending action.
func (c *Client) Confirm(ctx context.Context) (*pending.Outcome, error) {
	out := new(pending.Outcome)
	if err := c.invoke(ctx, "Confirm", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reject discards the pending action.
func (c *Client) Reject(ctx context.Context) (*pending.Outcome, error) {
	out := new(pending.Outcome)
	if err := c.invoke(ctx, "Reject", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pending returns the pending action, nil when the slot is empty.
func (c *Client) Pending(ctx context.Context) (*assistant.PendingView, error) {
	out := new(PendingReply)
	if err := c.invoke(ctx, "Pending", &Empty{}, out); err != nil {
		return nil, err
	}
	return out.Pending, nil
}

// History returns the conversation log.
func (c *Client) History(ctx context.Context) (*HistoryReply, error) {
	out := new(HistoryReply)
	if err := c.invoke(ctx, "History", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Reset truncates the conversation to the greeting.
func (c *Client) Reset(ctx context.Context) (*HistoryReply, error) {
	out := new(HistoryReply)
	if err := c.invoke(ctx, "Reset", &Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Speech uploads a finished recording for transcription.
func (c *Client) Speech(ctx context.Context, audio []byte, encoding string) (*SpeechReply, error) {
	out := new(SpeechReply)
	if err := c.invoke(ctx, "Speech", &SpeechRequest{Audio: audio, Encoding: encoding}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
